// Package synth dispatches the event sequence page scripts expect after a
// programmatic value change.
package synth

import (
	"github.com/entrhq/formpilot/pkg/dom"
	"github.com/entrhq/formpilot/pkg/logging"
)

// Sequence is the order of events fired at a written element. The final
// input event is dispatched with its target pinned to the element.
var Sequence = []string{"input", "change", "blur"}

// Synthesizer fires change notifications at written elements.
type Synthesizer struct {
	logger *logging.Logger
}

// New creates a Synthesizer. A nil logger discards output.
func New(logger *logging.Logger) *Synthesizer {
	if logger == nil {
		logger = logging.Discard("synth")
	}
	return &Synthesizer{logger: logger}
}

// Notify dispatches input, change and blur at el, all bubbling and
// cancelable, followed by one more input event whose target is pinned to
// el. It returns the events in dispatch order.
func (s *Synthesizer) Notify(el *dom.Element) []*dom.Event {
	doc := el.Document()
	events := make([]*dom.Event, 0, len(Sequence)+1)
	for _, typ := range Sequence {
		ev := dom.NewEvent(typ, true, true)
		ev.Synthetic = true
		doc.Dispatch(el, ev)
		events = append(events, ev)
	}

	final := dom.NewEvent("input", true, true)
	final.Synthetic = true
	final.PinTarget(el)
	doc.Dispatch(el, final)
	events = append(events, final)

	s.logger.Debugf("dispatched %d events at %s", len(events), dom.Selector(el))
	return events
}
