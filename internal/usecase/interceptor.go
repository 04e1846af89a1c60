package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/ecoswap/backend/internal/dom"
	"github.com/ecoswap/backend/internal/domain"
)

// InterceptorConfig wires the interceptor's collaborators.
type InterceptorConfig struct {
	Vocabulary *ActionVocabulary
	Extractor  *ItemExtractor
	Engine     *RaceEngine
	Session    *Session
	Enricher   *Enricher
	Settings   domain.SettingsProvider
	Events     domain.EventLogger
	Logger     *slog.Logger
}

// Interceptor is the single capture-phase listener that turns commit
// actions on the host page into sustainability decisions.
type Interceptor struct {
	vocab     *ActionVocabulary
	extractor *ItemExtractor
	engine    *RaceEngine
	session   *Session
	enricher  *Enricher
	settings  domain.SettingsProvider
	events    domain.EventLogger
	log       *slog.Logger

	// background work is bound to this context; Attach sets it.
	ctx context.Context
}

// NewInterceptor builds an interceptor. Engine and Session are required.
func NewInterceptor(cfg InterceptorConfig) *Interceptor {
	if cfg.Vocabulary == nil {
		cfg.Vocabulary = NewActionVocabulary(nil)
	}
	if cfg.Extractor == nil {
		cfg.Extractor = NewItemExtractor()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Interceptor{
		vocab:     cfg.Vocabulary,
		extractor: cfg.Extractor,
		engine:    cfg.Engine,
		session:   cfg.Session,
		enricher:  cfg.Enricher,
		settings:  cfg.Settings,
		events:    cfg.Events,
		log:       cfg.Logger.With("component", "interceptor"),
		ctx:       context.Background(),
	}
}

// Attach registers the interceptor as a capture listener on doc. ctx bounds
// background enrichment started by intercepted events.
func (i *Interceptor) Attach(ctx context.Context, doc *dom.Document) {
	i.ctx = ctx
	doc.AddCaptureListener(i.Handle)
}

// Handle inspects one event. Anything it cannot decide lets the event through.
func (i *Interceptor) Handle(ev *dom.Event) {
	defer func() {
		if r := recover(); r != nil {
			i.log.Error("interceptor panic, letting event through", "panic", r)
		}
	}()

	if !isActivation(ev) {
		return
	}
	if i.settings != nil && !i.settings.Current().Enabled {
		return
	}
	if i.session.HandleOverlayEvent(i.ctx, ev) {
		return
	}
	if i.session.Busy() {
		return
	}

	control, ok := FindActionableControl(ev.Target)
	if !ok || !i.vocab.Matches(ControlLabel(control)) {
		return
	}
	if i.session.Bypass().Consume(control) {
		i.log.Debug("bypass consumed, action proceeds", "label", ControlLabel(control))
		return
	}

	product := i.extractor.Extract(control)
	if product.Empty() {
		i.log.Debug("no product text near control, action proceeds", "label", ControlLabel(control))
		return
	}

	if !i.session.Reserve() {
		return
	}
	start := time.Now()
	outcome := i.engine.Classify(i.ctx, product)
	if !outcome.Verdict.NeedsDecision() {
		i.session.Release()
		return
	}

	sf, err := i.session.Open(control, product, outcome.Verdict)
	if err != nil {
		i.session.Release()
		i.log.Warn("could not open decision surface, action proceeds", "error", err)
		return
	}
	ev.Cancel()

	i.emit("decision_shown", map[string]any{
		"surface":      sf.ID(),
		"product":      product.Description,
		"source":       string(outcome.Source),
		"score":        outcome.Verdict.SustainabilityScore,
		"alternatives": len(outcome.Verdict.Alternatives),
		"latency_ms":   time.Since(start).Milliseconds(),
	})

	if outcome.Late != nil {
		go i.awaitLate(sf, outcome.Late)
	}
	if i.enricher != nil {
		go i.enricher.Enrich(i.ctx, sf)
	}
}

// awaitLate re-renders sf with a remote verdict that lost the race, if sf
// is still the open surface when it arrives.
func (i *Interceptor) awaitLate(sf *Surface, late <-chan domain.Verdict) {
	select {
	case v, ok := <-late:
		if !ok {
			return
		}
		if !sf.ReplaceVerdict(v) {
			i.log.Debug("late verdict dropped, surface no longer open", "surface", sf.ID())
			return
		}
		i.emit("decision_enriched", map[string]any{
			"surface":      sf.ID(),
			"alternatives": len(v.Alternatives),
		})
		if i.enricher != nil {
			i.enricher.Enrich(i.ctx, sf)
		}
	case <-sf.Done():
	case <-i.ctx.Done():
	}
}

func (i *Interceptor) emit(name string, fields map[string]any) {
	if i.events != nil {
		i.events.LogEvent(i.ctx, name, fields)
	}
}

func isActivation(ev *dom.Event) bool {
	switch ev.Type {
	case dom.EventClick:
		return true
	case dom.EventKeyDown:
		return ev.Key == "Enter" || ev.Key == " "
	}
	return false
}
