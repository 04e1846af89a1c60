package domain

import (
	"context"
	"time"
)

// ClassificationMode selects which classification paths may run.
type ClassificationMode string

const (
	ModeAuto       ClassificationMode = "auto"
	ModeLocalOnly  ClassificationMode = "local"
	ModeRemoteOnly ClassificationMode = "remote"
)

// Valid reports whether m is a known mode.
func (m ClassificationMode) Valid() bool {
	switch m {
	case ModeAuto, ModeLocalOnly, ModeRemoteOnly:
		return true
	}
	return false
}

// Settings is the read-only view of user preferences the pipeline consults
// before every interception.
type Settings struct {
	Enabled bool
	Mode    ClassificationMode
}

// SettingsProvider returns the current settings. How they are stored is up
// to the implementation.
type SettingsProvider interface {
	Current() Settings
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Classifier is the remote analyze_product contract.
type Classifier interface {
	AnalyzeProduct(ctx context.Context, product ProductRecord) (Verdict, error)
}

// SupplierFinder is the remote find_suppliers contract. The result maps an
// alternative name to its candidate suppliers.
type SupplierFinder interface {
	FindSuppliers(ctx context.Context, alternatives []string) (map[string][]Supplier, error)
}

// EventLogger receives analytics events. Implementations must not block.
type EventLogger interface {
	LogEvent(ctx context.Context, name string, fields map[string]any)
}
