package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ecoswap/backend/internal/domain"
)

// mockClassifier is a scripted remote classifier.
type mockClassifier struct {
	delay   time.Duration
	verdict domain.Verdict
	err     error
	panics  bool
	calls   atomic.Int32
}

func (m *mockClassifier) AnalyzeProduct(ctx context.Context, product domain.ProductRecord) (domain.Verdict, error) {
	m.calls.Add(1)
	if m.panics {
		panic("remote exploded")
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return domain.Verdict{}, ctx.Err()
		}
	}
	return m.verdict, m.err
}

// mockCacheRepository is a map-backed domain.CacheRepository
type mockCacheRepository struct {
	mu   sync.Mutex
	data map[string]interface{}
}

func newMockCacheRepository() *mockCacheRepository {
	return &mockCacheRepository{data: make(map[string]interface{})}
}

func (m *mockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *mockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *mockCacheRepository) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// mockSupplierFinder returns a fixed mapping after an optional delay.
type mockSupplierFinder struct {
	delay  time.Duration
	result map[string][]domain.Supplier
	err    error
	calls  atomic.Int32
}

func (m *mockSupplierFinder) FindSuppliers(ctx context.Context, alternatives []string) (map[string][]domain.Supplier, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.result, m.err
}

// mockEvents records analytics events.
type mockEvents struct {
	mu     sync.Mutex
	events []string
}

func (m *mockEvents) LogEvent(ctx context.Context, name string, fields map[string]any) {
	m.mu.Lock()
	m.events = append(m.events, name)
	m.mu.Unlock()
}

func (m *mockEvents) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e == name {
			n++
		}
	}
	return n
}

type staticSettings domain.Settings

func (s staticSettings) Current() domain.Settings { return domain.Settings(s) }

// eventually polls cond until it holds or timeout elapses.
func eventually(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}

func remoteVerdict(names ...string) domain.Verdict {
	alts := make([]domain.Alternative, 0, len(names))
	for _, n := range names {
		alts = append(alts, domain.Alternative{Name: n, SearchTerms: []string{n}})
	}
	return domain.NewVerdict(false, 2, "remote says no", alts, domain.AnalysisRemote)
}
