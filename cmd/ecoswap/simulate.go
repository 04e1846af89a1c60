package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecoswap/backend/internal/app"
	"github.com/ecoswap/backend/internal/dom"
	"github.com/ecoswap/backend/internal/infrastructure/analytics"
	"github.com/ecoswap/backend/internal/infrastructure/settings"
	"github.com/ecoswap/backend/internal/usecase"
)

var (
	simPage     string
	simLabel    string
	simIndex    int
	simChoose   string
	simContinue bool
	simWait     bool
	simSettle   time.Duration
	simHTML     bool
)

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringVar(&simPage, "page", "", "Saved catalog page (required)")
	simulateCmd.Flags().StringVar(&simLabel, "label", "", "Label of the control to click; empty means any commit action")
	simulateCmd.Flags().IntVar(&simIndex, "index", 0, "Which matching control to click, zero based")
	simulateCmd.Flags().StringVar(&simChoose, "choose", "", "Pick an alternative by name, or search for this term")
	simulateCmd.Flags().BoolVar(&simContinue, "continue", false, "Continue with the original item")
	simulateCmd.Flags().BoolVar(&simWait, "wait", false, "Leave the decision untouched until it auto-dismisses")
	simulateCmd.Flags().DurationVar(&simSettle, "settle", 0, "Time to let late verdicts and suppliers arrive before resolving")
	simulateCmd.Flags().BoolVar(&simHTML, "html", false, "Print the rendered overlay markup")
	simulateCmd.MarkFlagRequired("page")
	simulateCmd.MarkFlagsMutuallyExclusive("choose", "continue", "wait")
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Click a control on a saved catalog page and show what the pipeline does",
	Long: "Loads a saved catalog page, attaches the interceptor, dispatches a click on\n" +
		"the selected commit control and reports the interception, the decision shown,\n" +
		"its resolution and what the host page observed afterwards.",
	RunE: runSimulate,
}

// hostObserver records what the catalog page itself saw.
type hostObserver struct {
	mu       sync.Mutex
	clicks   int
	searches []string
}

func (h *hostObserver) click(*dom.Event) {
	h.mu.Lock()
	h.clicks++
	h.mu.Unlock()
}

func (h *hostObserver) submit(form dom.Element, values url.Values) {
	h.mu.Lock()
	h.searches = append(h.searches, form.Attr("action")+"?"+values.Encode())
	h.mu.Unlock()
}

func (h *hostObserver) report(w io.Writer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fmt.Fprintf(w, "  original action observed by page: %d time(s)\n", h.clicks)
	for _, s := range h.searches {
		fmt.Fprintf(w, "  search submitted: %s\n", s)
	}
}

func runSimulate(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	f, err := os.Open(simPage)
	if err != nil {
		return err
	}
	doc, err := dom.Parse(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("parse page: %w", err)
	}

	control, err := pickControl(doc, simLabel, simIndex)
	if err != nil {
		return err
	}

	host := &hostObserver{}
	control.AddListener(dom.EventClick, host.click)
	doc.OnSubmit(host.submit)

	store := settings.NewStore(settings.FromViper(rt.viper), rt.logger)
	store.Watch(rt.viper)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	recorder := analytics.NewRecorder(analytics.NewLogger(rt.logger))
	p := app.Build(ctx, doc, app.Options{
		Config:   rt.cfg,
		Settings: store,
		Events:   recorder,
		Logger:   rt.logger,
	})
	defer p.Close()

	printHeading(out, "clicking %q", usecase.ControlLabel(control))
	if doc.Click(control) {
		fmt.Fprintln(out, "  not intercepted, action proceeds")
		host.report(out)
		return nil
	}

	sf := p.Session.Current()
	if sf == nil {
		return errors.New("event was cancelled but no decision is open")
	}
	if simSettle > 0 {
		time.Sleep(simSettle)
	}

	printHeading(out, "decision for %q", sf.Product().Description)
	printVerdict(out, sf.Verdict())
	if simHTML {
		if overlay, ok := doc.ElementByID(usecase.OverlayID); ok {
			faintColor.Fprintln(out, overlay.HTML())
		}
	}

	switch {
	case simChoose != "":
		err = sf.ChooseAlternative(ctx, searchTermFor(sf, simChoose))
	case simContinue:
		err = sf.Continue(ctx)
	case simWait:
		faintColor.Fprintf(out, "  waiting up to %s for auto-dismiss\n", rt.cfg.Decision.AutoDismiss)
	default:
		sf.Close()
	}
	if err != nil {
		return err
	}

	select {
	case <-sf.Done():
	case <-time.After(rt.cfg.Decision.AutoDismiss + rt.cfg.Decision.CloseTransition + time.Second):
		return errors.New("decision did not close")
	}

	printHeading(out, "resolution: %s", sf.Resolution())
	host.report(out)
	for _, ev := range recorder.Events() {
		faintColor.Fprintf(out, "  event %s\n", ev.Name)
	}
	return nil
}

// pickControl returns the index-th actionable control whose label matches
// label, or any commit action when label is empty.
func pickControl(doc *dom.Document, label string, index int) (dom.Element, error) {
	vocab := usecase.NewActionVocabulary(nil)
	var matches []dom.Element
	for _, el := range doc.FindAll(usecase.IsActionable) {
		text := usecase.ControlLabel(el)
		if (label == "" && vocab.Matches(text)) || (label != "" && strings.EqualFold(text, label)) {
			matches = append(matches, el)
		}
	}
	if index < 0 || index >= len(matches) {
		return dom.Element{}, fmt.Errorf("no control #%d matching %q (found %d)", index, label, len(matches))
	}
	return matches[index], nil
}

// searchTermFor resolves an alternative name to its search term; anything
// else is searched for as given.
func searchTermFor(sf *usecase.Surface, choice string) string {
	for _, a := range sf.Verdict().Alternatives {
		if strings.EqualFold(a.Name, choice) {
			return a.PrimarySearchTerm()
		}
	}
	return choice
}
