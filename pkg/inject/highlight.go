package inject

import (
	"strings"
	"time"

	"github.com/entrhq/formpilot/pkg/dom"
)

// HighlightStyle marks a successfully written field.
const HighlightStyle = "border: 2px solid #22c55e; box-shadow: 0 0 0 3px rgba(34, 197, 94, 0.25)"

// DefaultHighlightDuration is how long a highlight stays on.
const DefaultHighlightDuration = 2 * time.Second

type highlight struct {
	el       *dom.Element
	timer    dom.TimerID
	style    string
	hadStyle bool
}

// Highlighter applies a temporary success style to written fields.
type Highlighter struct {
	sched    *dom.Scheduler
	duration time.Duration
	active   map[dom.Handle]*highlight
}

// NewHighlighter creates a highlighter that reverts after d on sched.
func NewHighlighter(sched *dom.Scheduler, d time.Duration) *Highlighter {
	if d <= 0 {
		d = DefaultHighlightDuration
	}
	return &Highlighter{sched: sched, duration: d, active: make(map[dom.Handle]*highlight)}
}

// Apply highlights el. Highlighting an element that is already lit
// restarts its timer and keeps the style saved the first time.
func (h *Highlighter) Apply(el *dom.Element) {
	hl, ok := h.active[el.Handle()]
	if ok {
		h.sched.ClearTimeout(hl.timer)
	} else {
		style, had := el.Attr("style")
		hl = &highlight{el: el, style: style, hadStyle: had}
		h.active[el.Handle()] = hl
		el.SetAttr("style", joinStyle(style, HighlightStyle))
	}
	hl.timer = h.sched.SetTimeout(h.duration, func() { h.revert(hl) })
}

// Active returns the number of highlighted elements.
func (h *Highlighter) Active() int { return len(h.active) }

// Clear reverts every highlight immediately.
func (h *Highlighter) Clear() {
	for _, hl := range h.active {
		h.sched.ClearTimeout(hl.timer)
		h.revert(hl)
	}
}

func (h *Highlighter) revert(hl *highlight) {
	if hl.hadStyle {
		hl.el.SetAttr("style", hl.style)
	} else {
		hl.el.RemoveAttr("style")
	}
	delete(h.active, hl.el.Handle())
}

func joinStyle(base, extra string) string {
	base = strings.TrimRight(strings.TrimSpace(base), ";")
	if base == "" {
		return extra
	}
	return base + "; " + extra
}
