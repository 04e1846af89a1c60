package usecase

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ecoswap/backend/internal/dom"
	"github.com/ecoswap/backend/internal/domain"
)

// OverlayID is the id of the singleton element the decision surface renders into.
const OverlayID = "ecoswap-overlay"

// SurfaceState is the lifecycle state of a decision surface.
type SurfaceState int

const (
	StateClosed SurfaceState = iota
	StateOpen
	StateResolving
)

func (s SurfaceState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateResolving:
		return "resolving"
	default:
		return "closed"
	}
}

// Resolution is how an open surface was resolved.
type Resolution string

const (
	ResolutionNone        Resolution = ""
	ResolutionAlternative Resolution = "alternative"
	ResolutionContinue    Resolution = "continue"
	ResolutionTimeout     Resolution = "timeout"
	ResolutionTeardown    Resolution = "teardown"
)

// SessionConfig configures the decision surface lifecycle.
type SessionConfig struct {
	// AutoDismiss is how long an untouched surface stays open before the
	// original action continues.
	AutoDismiss time.Duration
	// CloseTransition is the visual teardown budget after resolution.
	CloseTransition time.Duration
	Events          domain.EventLogger
	Logger          *slog.Logger
}

func (c *SessionConfig) defaults() {
	if c.AutoDismiss <= 0 {
		c.AutoDismiss = 30 * time.Second
	}
	if c.CloseTransition < 0 {
		c.CloseTransition = 0
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Session owns the decision surface of one browsing context. At most one
// surface is open at a time; every overlay mutation happens under mu.
type Session struct {
	doc    *dom.Document
	bypass *BypassTable
	cfg    SessionConfig
	log    *slog.Logger

	mu       sync.Mutex
	current  *Surface
	reserved bool
}

// NewSession creates the session for doc.
func NewSession(doc *dom.Document, bypass *BypassTable, cfg SessionConfig) *Session {
	cfg.defaults()
	if bypass == nil {
		bypass = NewBypassTable()
	}
	return &Session{
		doc:    doc,
		bypass: bypass,
		cfg:    cfg,
		log:    cfg.Logger.With("component", "decision"),
	}
}

// Bypass returns the session's bypass table.
func (s *Session) Bypass() *BypassTable { return s.bypass }

// Visible reports whether a surface is open.
func (s *Session) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Busy reports whether a surface is open or a classification for one is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil || s.reserved
}

// Reserve claims the right to open the next surface. It fails while a
// surface is open or another reservation is held.
func (s *Session) Reserve() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil || s.reserved {
		return false
	}
	s.reserved = true
	return true
}

// Release drops a reservation that did not lead to a surface.
func (s *Session) Release() {
	s.mu.Lock()
	s.reserved = false
	s.mu.Unlock()
}

// Current returns the open surface or nil.
func (s *Session) Current() *Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Open shows a surface for the intercepted control.
func (s *Session) Open(control dom.Element, product domain.ProductRecord, verdict domain.Verdict) (*Surface, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return nil, domain.ErrSurfaceOpen
	}

	sf := &Surface{
		id:      uuid.NewString(),
		session: s,
		control: control,
		product: product,
		verdict: verdict.Clone(),
		state:   StateOpen,
		done:    make(chan struct{}),
	}
	if err := sf.renderLocked(); err != nil {
		s.reserved = false
		return nil, err
	}
	s.current = sf
	s.reserved = false
	sf.timer = time.AfterFunc(s.cfg.AutoDismiss, func() {
		if err := sf.resolve(ResolutionTimeout, ""); err == nil {
			s.log.Info("decision auto-dismissed", "surface", sf.id)
		}
	})
	return sf, nil
}

// HandleOverlayEvent routes clicks inside the overlay to the open surface.
// It reports whether ev belonged to the overlay.
func (s *Session) HandleOverlayEvent(ctx context.Context, ev *dom.Event) bool {
	overlay, ok := s.doc.ElementByID(OverlayID)
	if !ok || !overlay.Contains(ev.Target) {
		return false
	}
	if ev.Type != dom.EventClick {
		return true
	}

	sf := s.Current()
	if sf == nil {
		ev.Cancel()
		return true
	}
	btn, ok := ev.Target.Closest(func(e dom.Element) bool { return e.HasAttr("data-ecoswap-action") })
	if !ok {
		return true
	}
	ev.Cancel()

	var err error
	switch btn.Attr("data-ecoswap-action") {
	case "search":
		err = sf.ChooseAlternative(ctx, btn.Attr("data-term"))
	case "continue":
		err = sf.Continue(ctx)
	}
	if err != nil {
		s.log.Debug("overlay action ignored", "surface", sf.id, "error", err)
	}
	return true
}

// Surface is one decision shown to the user.
type Surface struct {
	id      string
	session *Session
	control dom.Element
	product domain.ProductRecord

	// guarded by session.mu
	verdict     domain.Verdict
	suppliers   map[string][]domain.Supplier
	revision    uint64
	state       SurfaceState
	resolution  Resolution
	enrichments int
	timer       *time.Timer

	done chan struct{}
}

// ID identifies the surface.
func (sf *Surface) ID() string { return sf.id }

// Control is the intercepted control.
func (sf *Surface) Control() dom.Element { return sf.control }

// Product is the record the decision is about.
func (sf *Surface) Product() domain.ProductRecord { return sf.product }

// Done is closed once the surface reaches StateClosed.
func (sf *Surface) Done() <-chan struct{} { return sf.done }

// State returns the lifecycle state.
func (sf *Surface) State() SurfaceState {
	sf.session.mu.Lock()
	defer sf.session.mu.Unlock()
	return sf.state
}

// Resolution returns how the surface was resolved, if it was.
func (sf *Surface) Resolution() Resolution {
	sf.session.mu.Lock()
	defer sf.session.mu.Unlock()
	return sf.resolution
}

// Enrichments counts accepted re-renders.
func (sf *Surface) Enrichments() int {
	sf.session.mu.Lock()
	defer sf.session.mu.Unlock()
	return sf.enrichments
}

// IsCurrent reports whether sf is still the session's open surface.
func (sf *Surface) IsCurrent() bool {
	sf.session.mu.Lock()
	defer sf.session.mu.Unlock()
	return sf.isCurrentLocked()
}

func (sf *Surface) isCurrentLocked() bool {
	return sf.session.current == sf && sf.state == StateOpen
}

// Verdict returns the verdict currently rendered, suppliers included.
func (sf *Surface) Verdict() domain.Verdict {
	sf.session.mu.Lock()
	defer sf.session.mu.Unlock()
	v := sf.verdict.Clone()
	for i, a := range v.Alternatives {
		v.Alternatives[i].Suppliers = append([]domain.Supplier(nil), sf.suppliers[a.Name]...)
	}
	return v
}

// Revision identifies the verdict currently rendered. It changes every time
// the verdict is replaced.
func (sf *Surface) Revision() uint64 {
	sf.session.mu.Lock()
	defer sf.session.mu.Unlock()
	return sf.revision
}

// alternatives returns the rendered alternative names with their revision.
func (sf *Surface) alternatives() ([]string, uint64) {
	sf.session.mu.Lock()
	defer sf.session.mu.Unlock()
	return sf.verdict.AlternativeNames(), sf.revision
}

// ReplaceVerdict swaps the rendered alternatives for those of a newer
// verdict. Stale surfaces and verdicts without alternatives are ignored.
func (sf *Surface) ReplaceVerdict(v domain.Verdict) bool {
	if !v.NeedsDecision() {
		return false
	}
	sf.session.mu.Lock()
	defer sf.session.mu.Unlock()
	if !sf.isCurrentLocked() {
		return false
	}
	prev, prevSuppliers := sf.verdict, sf.suppliers
	sf.verdict = v.Clone()
	sf.suppliers = nil
	if err := sf.renderLocked(); err != nil {
		sf.verdict, sf.suppliers = prev, prevSuppliers
		sf.session.log.Warn("re-render failed", "surface", sf.id, "error", err)
		return false
	}
	sf.revision++
	sf.enrichments++
	return true
}

// AttachSuppliers decorates rendered alternatives with suppliers, keyed by
// alternative name, looked up for revision rev. Suppliers for an older
// revision or for alternatives no longer shown are dropped, as are stale
// surfaces. Alternatives missing from suppliers keep what they had.
func (sf *Surface) AttachSuppliers(rev uint64, suppliers map[string][]domain.Supplier) bool {
	if len(suppliers) == 0 {
		return false
	}
	sf.session.mu.Lock()
	defer sf.session.mu.Unlock()
	if !sf.isCurrentLocked() || rev != sf.revision {
		return false
	}

	next := make(map[string][]domain.Supplier, len(sf.verdict.Alternatives))
	for name, list := range sf.suppliers {
		next[name] = list
	}
	attached := 0
	for _, name := range sf.verdict.AlternativeNames() {
		list, ok := suppliers[name]
		if !ok || len(list) == 0 {
			continue
		}
		next[name] = append([]domain.Supplier(nil), list...)
		attached++
	}
	if attached == 0 {
		return false
	}

	prev := sf.suppliers
	sf.suppliers = next
	if err := sf.renderLocked(); err != nil {
		sf.suppliers = prev
		sf.session.log.Warn("re-render failed", "surface", sf.id, "error", err)
		return false
	}
	sf.enrichments++
	return true
}

// ChooseAlternative abandons the original action and searches the host
// page for term instead.
func (sf *Surface) ChooseAlternative(ctx context.Context, term string) error {
	if term == "" {
		return domain.ErrInvalidRequest
	}
	return sf.resolveCtx(ctx, ResolutionAlternative, term)
}

// Continue lets the original action through once.
func (sf *Surface) Continue(ctx context.Context) error {
	return sf.resolveCtx(ctx, ResolutionContinue, "")
}

// Close tears the surface down without replaying or searching. Closing a
// closed surface is a no-op.
func (sf *Surface) Close() {
	_ = sf.resolve(ResolutionTeardown, "")
}

func (sf *Surface) resolveCtx(ctx context.Context, res Resolution, term string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return sf.resolve(res, term)
}

func (sf *Surface) resolve(res Resolution, term string) error {
	s := sf.session

	s.mu.Lock()
	if sf.state != StateOpen {
		s.mu.Unlock()
		return domain.ErrSurfaceClosed
	}
	sf.state = StateResolving
	sf.resolution = res
	if s.current == sf {
		s.current = nil
	}
	if sf.timer != nil {
		sf.timer.Stop()
	}
	if overlay, ok := s.doc.ElementByID(OverlayID); ok {
		overlay.SetAttr("data-state", StateResolving.String())
	}
	s.mu.Unlock()

	ctx := context.Background()
	fields := map[string]any{"surface": sf.id, "product": sf.product.Description}

	switch res {
	case ResolutionAlternative:
		fields["search_term"] = term
		if err := s.doc.Search(term); err != nil {
			s.log.Warn("substitute search failed", "surface", sf.id, "term", term, "error", err)
		}
		s.emit(ctx, "alternative_selected", fields)
	case ResolutionContinue, ResolutionTimeout:
		s.bypass.Arm(sf.control)
		s.doc.Click(sf.control)
		if res == ResolutionTimeout {
			s.emit(ctx, "decision_auto_dismissed", fields)
		} else {
			s.emit(ctx, "original_continued", fields)
		}
	}

	if s.cfg.CloseTransition == 0 {
		sf.finish()
	} else {
		time.AfterFunc(s.cfg.CloseTransition, sf.finish)
	}
	return nil
}

// finish completes Resolving -> Closed and removes the overlay unless a
// newer surface already owns it.
func (sf *Surface) finish() {
	s := sf.session
	s.mu.Lock()
	defer s.mu.Unlock()
	if sf.state == StateClosed {
		return
	}
	sf.state = StateClosed
	if s.current == nil {
		s.doc.Unmount(OverlayID)
	}
	close(sf.done)
}

func (s *Session) emit(ctx context.Context, name string, fields map[string]any) {
	if s.cfg.Events != nil {
		s.cfg.Events.LogEvent(ctx, name, fields)
	}
}

var surfaceTemplate = template.Must(template.New("surface").Parse(`<div class="ecoswap-modal" data-surface="{{.ID}}" data-state="{{.State}}">
<h2 class="ecoswap-title">Existe uma alternativa mais sustentável</h2>
<p class="ecoswap-product">{{.Product}}</p>
<p class="ecoswap-reason">{{.Reason}}</p>
<p class="ecoswap-score">Pontuação de sustentabilidade: {{.Score}}/10</p>
<ul class="ecoswap-alternatives">
{{- range .Alternatives}}
<li class="ecoswap-alternative" data-name="{{.Name}}">
<h3>{{.Name}}</h3>
<p>{{.Description}}</p>
<p class="ecoswap-benefits">{{.Benefits}}</p>
{{- range .SearchTerms}}
<button type="button" data-ecoswap-action="search" data-term="{{.}}">Buscar "{{.}}"</button>
{{- end}}
{{- if .Suppliers}}
<ul class="ecoswap-suppliers">
{{- range .Suppliers}}
<li class="ecoswap-supplier">{{if .Website}}<a href="{{.Website}}" target="_blank" rel="noopener noreferrer">{{.Name}}</a>{{else}}<span>{{.Name}}</span>{{end}}</li>
{{- end}}
</ul>
{{- end}}
</li>
{{- end}}
</ul>
<button type="button" data-ecoswap-action="continue">Continuar com o item original</button>
</div>`))

type surfaceView struct {
	ID           string
	State        string
	Product      string
	Reason       string
	Score        int
	Alternatives []domain.Alternative
}

// renderLocked writes the surface into the singleton overlay. Caller holds session.mu.
func (sf *Surface) renderLocked() error {
	view := surfaceView{
		ID:      sf.id,
		State:   sf.state.String(),
		Product: sf.product.Description,
		Reason:  sf.verdict.Reason,
		Score:   sf.verdict.SustainabilityScore,
	}
	for _, a := range sf.verdict.Alternatives {
		a.Suppliers = sf.suppliers[a.Name]
		view.Alternatives = append(view.Alternatives, a)
	}

	var buf bytes.Buffer
	if err := surfaceTemplate.Execute(&buf, view); err != nil {
		return fmt.Errorf("render surface: %w", err)
	}
	overlay, err := sf.session.doc.Mount(OverlayID, buf.String())
	if err != nil {
		return fmt.Errorf("mount surface: %w", err)
	}
	overlay.SetAttr("data-state", view.State)
	return nil
}
