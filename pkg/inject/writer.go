// Package inject writes coerced answers into form controls and runs
// answer batches against a field catalog.
package inject

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/formpilot/pkg/dom"
	"github.com/entrhq/formpilot/pkg/logging"
	"github.com/entrhq/formpilot/pkg/scanner"
	"github.com/entrhq/formpilot/pkg/synth"
)

// DefaultSettleDelay is the pause between focusing a control and writing it.
const DefaultSettleDelay = 100 * time.Millisecond

// Writer injects values into the controls of one document.
type Writer struct {
	doc         *dom.Document
	session     *Session
	synth       *synth.Synthesizer
	highlighter *Highlighter
	logger      *logging.Logger
	settle      time.Duration
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithSettleDelay overrides the focus settle delay.
func WithSettleDelay(d time.Duration) WriterOption {
	return func(w *Writer) { w.settle = d }
}

// WithHighlighter sets the highlighter. Pass nil to disable highlighting.
func WithHighlighter(h *Highlighter) WriterOption {
	return func(w *Writer) { w.highlighter = h }
}

// WithSession records writes in s instead of a fresh session.
func WithSession(s *Session) WriterOption {
	return func(w *Writer) { w.session = s }
}

// WithSynthesizer sets the event synthesizer.
func WithSynthesizer(s *synth.Synthesizer) WriterOption {
	return func(w *Writer) { w.synth = s }
}

// WithWriterLogger sets the logger.
func WithWriterLogger(l *logging.Logger) WriterOption {
	return func(w *Writer) { w.logger = l }
}

// NewWriter creates a Writer for doc.
func NewWriter(doc *dom.Document, opts ...WriterOption) *Writer {
	w := &Writer{
		doc:         doc,
		highlighter: NewHighlighter(doc.Scheduler(), DefaultHighlightDuration),
		settle:      DefaultSettleDelay,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logging.Discard("inject")
	}
	if w.synth == nil {
		w.synth = synth.New(w.logger.Named("synth"))
	}
	if w.session == nil {
		w.session = NewSession(doc, w.synth)
	}
	return w
}

// Session returns the registry the writer records into.
func (w *Writer) Session() *Session { return w.session }

// Highlighter returns the writer's highlighter, or nil when disabled.
func (w *Writer) Highlighter() *Highlighter { return w.highlighter }

// Interactable reports whether el can take input right now.
func Interactable(el *dom.Element) bool {
	return !el.Style().Hidden() && !el.Disabled() && !el.ReadOnly()
}

// Inject writes content into the control behind record. A nil error means
// the value was written and change events were fired. On any error the
// control is left as it was.
func (w *Writer) Inject(ctx context.Context, record scanner.FieldRecord, content string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("inject %q: panic: %v", record.Label, r)
		}
		if err != nil {
			w.logger.Warnf("field %q not written: %v", record.Label, err)
		}
	}()

	el := w.doc.Element(record.Handle)
	if el == nil {
		return ErrStale
	}
	if !Interactable(el) {
		return ErrInteractionBlocked
	}

	w.doc.Focus(el)
	if err := w.doc.Scheduler().Sleep(ctx, w.settle); err != nil {
		return err
	}
	// Focus handlers may have hidden or disabled the control.
	if w.doc.Element(record.Handle) == nil {
		return ErrStale
	}
	if !Interactable(el) {
		return ErrInteractionBlocked
	}

	v, err := Coerce(el, record, content)
	if err != nil {
		return err
	}

	original, err := w.apply(el, v)
	if err != nil {
		return err
	}
	w.session.record(el, record.Label, v, original)

	target := el
	if rv, ok := v.(RadioValue); ok {
		target = w.doc.Element(rv.Handle)
	}
	w.synth.Notify(target)
	if w.highlighter != nil {
		w.highlighter.Apply(target)
	}
	w.logger.Debugf("wrote %q to field %q", v.String(), record.Label)
	return nil
}

// apply writes v and returns the state it replaced. Nothing is written
// when it fails.
func (w *Writer) apply(el *dom.Element, v Value) ([]snapshot, error) {
	switch v := v.(type) {
	case TextValue:
		prior := capture(el)
		el.SetValue(v.Text)
		return []snapshot{prior}, nil
	case CheckValue:
		prior := capture(el)
		el.SetChecked(v.Checked)
		return []snapshot{prior}, nil
	case SelectValue:
		prior := capture(el)
		chosen := make(map[int]bool, len(v.Indices))
		for _, i := range v.Indices {
			chosen[i] = true
		}
		for i, o := range el.Options() {
			if chosen[i] {
				o.SetAttr("selected", "")
			} else {
				o.RemoveAttr("selected")
			}
		}
		return []snapshot{prior}, nil
	case RadioValue:
		group, err := radioGroup(el)
		if err != nil {
			return nil, fmt.Errorf("resolve radio group: %w", err)
		}
		priors := make([]snapshot, 0, len(group))
		for _, r := range group {
			priors = append(priors, capture(r))
			r.SetChecked(r.Handle() == v.Handle)
		}
		return priors, nil
	case DateValue, NumberValue:
		prior := capture(el)
		el.SetValue(v.String())
		return []snapshot{prior}, nil
	}
	panic(fmt.Sprintf("inject: unhandled value %T", v))
}
