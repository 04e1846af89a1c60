package usecase

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ecoswap/backend/internal/domain"
)

// EnricherConfig configures supplier enrichment.
type EnricherConfig struct {
	Timeout           time.Duration
	MaxPerAlternative int
	Events            domain.EventLogger
	Logger            *slog.Logger
}

func (c *EnricherConfig) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxPerAlternative <= 0 {
		c.MaxPerAlternative = 2
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Enricher fetches suppliers for the alternatives of an open surface and
// patches them in. Every failure is silent from the user's point of view.
type Enricher struct {
	finder domain.SupplierFinder
	cfg    EnricherConfig
	log    *slog.Logger
}

// NewEnricher creates an Enricher. A nil finder disables enrichment.
func NewEnricher(finder domain.SupplierFinder, cfg EnricherConfig) *Enricher {
	cfg.defaults()
	return &Enricher{
		finder: finder,
		cfg:    cfg,
		log:    cfg.Logger.With("component", "enrichment"),
	}
}

// Enrich looks up suppliers for sf and attaches the verified ones. It
// reports whether the surface was updated.
func (e *Enricher) Enrich(ctx context.Context, sf *Surface) bool {
	if e == nil || e.finder == nil || sf == nil || !sf.IsCurrent() {
		return false
	}
	names, rev := sf.alternatives()
	if len(names) == 0 {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	raw, err := e.finder.FindSuppliers(ctx, names)
	if err != nil {
		e.log.Debug("supplier lookup failed", "surface", sf.ID(), "error", err)
		return false
	}

	filtered := FilterSuppliers(raw, names, e.cfg.MaxPerAlternative)
	if len(filtered) == 0 {
		return false
	}
	if !sf.AttachSuppliers(rev, filtered) {
		e.log.Debug("suppliers dropped, surface closed or alternatives replaced", "surface", sf.ID())
		return false
	}
	if e.cfg.Events != nil {
		e.cfg.Events.LogEvent(ctx, "suppliers_attached", map[string]any{
			"surface":      sf.ID(),
			"alternatives": len(filtered),
		})
	}
	return true
}

// FilterSuppliers keeps at most max named suppliers for each requested
// alternative. Websites that are not absolute http(s) URLs are blanked so
// they are never rendered as links.
func FilterSuppliers(raw map[string][]domain.Supplier, names []string, max int) map[string][]domain.Supplier {
	out := make(map[string][]domain.Supplier)
	for _, name := range names {
		for _, s := range raw[name] {
			if len(out[name]) == max {
				break
			}
			s.Name = strings.TrimSpace(s.Name)
			if s.Name == "" {
				continue
			}
			s.Website = VerifiedWebsite(s.Website)
			out[name] = append(out[name], s)
		}
	}
	return out
}

// VerifiedWebsite returns raw when it is a well-formed http or https URL
// with a host, and "" otherwise.
func VerifiedWebsite(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.String()
	}
	return ""
}
