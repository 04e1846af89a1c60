package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ecoswap/backend/internal/domain"
)

// Source names the branch that won a classification race.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
	SourceCache  Source = "cache"
)

// Outcome is the result of a race. Late, when non-nil, delivers at most one
// remote verdict that arrived after the decision was made and still offers
// alternatives; it is closed without a value otherwise.
type Outcome struct {
	Source  Source
	Verdict domain.Verdict
	Late    <-chan domain.Verdict
}

// RaceEngineConfig holds the race deadlines and cache lifetime.
type RaceEngineConfig struct {
	// InteractiveDeadline bounds how long the user waits for the remote verdict.
	InteractiveDeadline time.Duration
	// BackgroundDeadline bounds the remote call itself, including late enrichment.
	BackgroundDeadline time.Duration
	CacheTTL           time.Duration
	Logger             *slog.Logger
}

func (c *RaceEngineConfig) defaults() {
	if c.InteractiveDeadline <= 0 {
		c.InteractiveDeadline = 1500 * time.Millisecond
	}
	if c.BackgroundDeadline <= c.InteractiveDeadline {
		c.BackgroundDeadline = c.InteractiveDeadline * 5
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 10 * time.Minute
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// RaceEngine produces a verdict within the interactive deadline, racing the
// remote classifier against a timer and degrading to the local heuristic.
// It never returns an error.
type RaceEngine struct {
	local    *LocalClassifier
	remote   domain.Classifier
	cache    domain.CacheRepository
	settings domain.SettingsProvider
	cfg      RaceEngineConfig
	log      *slog.Logger
}

// NewRaceEngine wires the engine. remote and cache may be nil; a nil remote
// runs the engine permanently in local-only mode.
func NewRaceEngine(
	local *LocalClassifier,
	remote domain.Classifier,
	cache domain.CacheRepository,
	settings domain.SettingsProvider,
	cfg RaceEngineConfig,
) *RaceEngine {
	cfg.defaults()
	if local == nil {
		local = NewLocalClassifier()
	}
	return &RaceEngine{
		local:    local,
		remote:   remote,
		cache:    cache,
		settings: settings,
		cfg:      cfg,
		log:      cfg.Logger.With("component", "race_engine"),
	}
}

// Config returns the effective configuration.
func (e *RaceEngine) Config() RaceEngineConfig {
	return e.cfg
}

// Local returns the heuristic verdict for product.
func (e *RaceEngine) Local(product domain.ProductRecord) domain.Verdict {
	return e.local.Classify(product)
}

func (e *RaceEngine) mode() domain.ClassificationMode {
	if e.remote == nil {
		return domain.ModeLocalOnly
	}
	if e.settings == nil {
		return domain.ModeAuto
	}
	if m := e.settings.Current().Mode; m.Valid() {
		return m
	}
	return domain.ModeAuto
}

// Classify returns a verdict for product.
func (e *RaceEngine) Classify(ctx context.Context, product domain.ProductRecord) Outcome {
	mode := e.mode()
	if mode == domain.ModeLocalOnly {
		return Outcome{Source: SourceLocal, Verdict: e.local.Classify(product)}
	}

	if v, ok := e.fromCache(ctx, product); ok {
		return Outcome{Source: SourceCache, Verdict: v}
	}

	if mode == domain.ModeAuto && e.local.IsUnambiguouslyDisposable(product) {
		call := e.startRemote(ctx, product)
		e.log.Debug("fast path: local verdict, remote continues in background", "text", product.FullText)
		return Outcome{Source: SourceLocal, Verdict: e.local.Classify(product), Late: call.late()}
	}

	call := e.startRemote(ctx, product)

	wait := e.cfg.InteractiveDeadline
	if mode == domain.ModeRemoteOnly {
		wait = e.cfg.BackgroundDeadline
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-call.done:
		if call.err != nil {
			e.log.Info("remote classification failed, using local verdict", "error", call.err)
			return Outcome{Source: SourceLocal, Verdict: e.local.Classify(product)}
		}
		return Outcome{Source: SourceRemote, Verdict: call.verdict}
	case <-timer.C:
		e.log.Info("interactive deadline elapsed, using local verdict", "deadline", wait)
		return Outcome{Source: SourceLocal, Verdict: e.local.Classify(product), Late: call.late()}
	case <-ctx.Done():
		return Outcome{Source: SourceLocal, Verdict: e.local.Classify(product), Late: call.late()}
	}
}

// remoteCall is one in-flight remote classification. It is never cancelled
// by the interactive path; only its own background deadline stops it.
type remoteCall struct {
	done    chan struct{}
	verdict domain.Verdict
	err     error
}

func (e *RaceEngine) startRemote(ctx context.Context, product domain.ProductRecord) *remoteCall {
	call := &remoteCall{done: make(chan struct{})}
	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.BackgroundDeadline)

	go func() {
		defer cancel()
		defer close(call.done)
		defer func() {
			if r := recover(); r != nil {
				call.err = fmt.Errorf("%w: panic: %v", domain.ErrClassifierUnavailable, r)
			}
		}()

		v, err := e.remote.AnalyzeProduct(bctx, product)
		if err != nil {
			call.err = err
			return
		}
		v = domain.NewVerdict(v.IsSustainable, v.SustainabilityScore, v.Reason, v.Alternatives, domain.AnalysisRemote)
		call.verdict = v
		e.storeCache(bctx, product, v)
	}()
	return call
}

// late forwards the remote verdict once it settles, but only when it is a
// successful verdict with alternatives to show.
func (c *remoteCall) late() <-chan domain.Verdict {
	out := make(chan domain.Verdict, 1)
	go func() {
		defer close(out)
		<-c.done
		if c.err == nil && c.verdict.NeedsDecision() {
			out <- c.verdict.Clone()
		}
	}()
	return out
}

// generateCacheKey creates a normalized cache key from the product text.
// Format: "verdict:{folded_full_text}"
func generateCacheKey(product domain.ProductRecord) string {
	return "verdict:" + normalizeForCacheKey(product.FullText)
}

func (e *RaceEngine) fromCache(ctx context.Context, product domain.ProductRecord) (domain.Verdict, bool) {
	if e.cache == nil {
		return domain.Verdict{}, false
	}
	value, err := e.cache.Get(ctx, generateCacheKey(product))
	if err != nil {
		return domain.Verdict{}, false
	}
	v, ok := value.(domain.Verdict)
	if !ok {
		return domain.Verdict{}, false
	}
	return v.Clone(), true
}

func (e *RaceEngine) storeCache(ctx context.Context, product domain.ProductRecord, v domain.Verdict) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, generateCacheKey(product), v.Clone(), e.cfg.CacheTTL); err != nil {
		// Log but don't fail if caching fails
		e.log.Debug("verdict cache write failed", "error", err)
	}
}
