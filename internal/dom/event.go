package dom

// EventType is the DOM event name.
type EventType string

const (
	EventClick   EventType = "click"
	EventKeyDown EventType = "keydown"
	EventSubmit  EventType = "submit"
)

// Listener handles a dispatched event.
type Listener func(ev *Event)

// Event is a single dispatch through the document. Capture listeners run
// first, then element listeners from the target up, then document bubble
// listeners, then the default action.
type Event struct {
	Type   EventType
	Target Element
	Key    string

	// Synthetic is set on events produced by Click or Search rather than by the user.
	Synthetic bool

	defaultPrevented   bool
	propagationStopped bool
	immediateStopped   bool
}

// NewEvent returns an event of type t aimed at target.
func NewEvent(t EventType, target Element) *Event {
	return &Event{Type: t, Target: target}
}

// PreventDefault cancels the default action.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// StopPropagation stops the event after the current phase step.
func (e *Event) StopPropagation() { e.propagationStopped = true }

// StopImmediatePropagation also skips the remaining listeners of the current step.
func (e *Event) StopImmediatePropagation() {
	e.propagationStopped = true
	e.immediateStopped = true
}

// Cancel prevents the default action and stops propagation at every phase.
func (e *Event) Cancel() {
	e.PreventDefault()
	e.StopImmediatePropagation()
}

func (e *Event) DefaultPrevented() bool   { return e.defaultPrevented }
func (e *Event) PropagationStopped() bool { return e.propagationStopped }
