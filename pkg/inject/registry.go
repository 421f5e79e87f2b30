package inject

import (
	"context"

	"github.com/google/uuid"

	"github.com/entrhq/formpilot/pkg/dom"
	"github.com/entrhq/formpilot/pkg/synth"
)

// Entry is one written field.
type Entry struct {
	Handle dom.Handle
	Label  string
	Value  Value

	original []snapshot
}

// snapshot is the prior state of one element touched by a write. Radio
// writes snapshot the whole group.
type snapshot struct {
	handle   dom.Handle
	value    string
	hasValue bool
	checked  bool
	selected []bool
}

func capture(el *dom.Element) snapshot {
	s := snapshot{handle: el.Handle(), checked: el.Checked()}
	switch el.Tag() {
	case "select":
		for _, o := range el.Options() {
			s.selected = append(s.selected, o.HasAttr("selected"))
		}
	case "textarea":
		s.value, s.hasValue = el.Value(), true
	default:
		s.value, s.hasValue = el.Attr("value")
	}
	return s
}

func (s snapshot) restore(el *dom.Element) {
	switch el.Tag() {
	case "select":
		for i, o := range el.Options() {
			if i < len(s.selected) && s.selected[i] {
				o.SetAttr("selected", "")
			} else {
				o.RemoveAttr("selected")
			}
		}
	case "textarea":
		el.SetValue(s.value)
	default:
		if s.hasValue {
			el.SetAttr("value", s.value)
		} else {
			el.RemoveAttr("value")
		}
		el.SetChecked(s.checked)
	}
}

// Session records the writes of one injection session so they can be
// rolled back. It belongs to the caller and is not safe for concurrent use.
type Session struct {
	ID string

	doc     *dom.Document
	synth   *synth.Synthesizer
	entries []*Entry
	index   map[dom.Handle]*Entry
}

// NewSession creates an empty registry for doc. Rollback notifies page
// scripts through s; a nil s uses a quiet synthesizer.
func NewSession(doc *dom.Document, s *synth.Synthesizer) *Session {
	if s == nil {
		s = synth.New(nil)
	}
	return &Session{
		ID:    uuid.New().String(),
		doc:   doc,
		synth: s,
		index: make(map[dom.Handle]*Entry),
	}
}

// record stores a write. The first write to a handle keeps its original
// state and position; later writes only replace the value.
func (s *Session) record(el *dom.Element, label string, v Value, original []snapshot) {
	if e, ok := s.index[el.Handle()]; ok {
		e.Value = v
		e.Label = label
		return
	}
	e := &Entry{Handle: el.Handle(), Label: label, Value: v, original: original}
	s.entries = append(s.entries, e)
	s.index[el.Handle()] = e
}

// Entries returns the written fields in write order.
func (s *Session) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = *e
	}
	return out
}

// Len returns the number of written fields.
func (s *Session) Len() int { return len(s.entries) }

// Value returns the value last written to h.
func (s *Session) Value(h dom.Handle) (Value, bool) {
	e, ok := s.index[h]
	if !ok {
		return nil, false
	}
	return e.Value, true
}

// Rollback restores every written field to its state before the session
// touched it, newest first, and fires the change events for each. Fields
// no longer in the document are skipped. It returns how many were restored.
func (s *Session) Rollback(ctx context.Context) (int, error) {
	restored := 0
	for i := len(s.entries) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			s.entries = s.entries[:i+1]
			return restored, err
		}
		e := s.entries[i]
		for _, snap := range e.original {
			if el := s.doc.Element(snap.handle); el != nil {
				snap.restore(el)
			}
		}
		if el := s.doc.Element(e.Handle); el != nil {
			s.synth.Notify(el)
			restored++
		}
		delete(s.index, e.Handle)
	}
	s.entries = nil
	return restored, nil
}

// Reset forgets every entry without touching the document.
func (s *Session) Reset() {
	s.entries = nil
	s.index = make(map[dom.Handle]*Entry)
}
