package dom

import "golang.org/x/net/html"

// Event is a DOM event travelling from its target up the tree.
type Event struct {
	Type       string
	Bubbles    bool
	Cancelable bool

	// Target is the element the event was dispatched at, unless pinned.
	Target *Element

	// CurrentTarget is the handle whose listeners are running.
	CurrentTarget Handle

	// Synthetic marks events produced by the engine rather than the user.
	Synthetic bool

	pinned           bool
	defaultPrevented bool
	stopped          bool
}

// NewEvent creates an untargeted event.
func NewEvent(typ string, bubbles, cancelable bool) *Event {
	return &Event{Type: typ, Bubbles: bubbles, Cancelable: cancelable}
}

// PinTarget fixes Target to el so dispatch does not assign it.
func (e *Event) PinTarget(el *Element) {
	e.Target = el
	e.pinned = true
}

// Pinned reports whether Target was fixed by PinTarget.
func (e *Event) Pinned() bool { return e.pinned }

// PreventDefault cancels a cancelable event.
func (e *Event) PreventDefault() {
	if e.Cancelable {
		e.defaultPrevented = true
	}
}

// DefaultPrevented reports whether a listener cancelled the event.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// StopPropagation stops the event after the current node's listeners.
func (e *Event) StopPropagation() { e.stopped = true }

// Listener handles a dispatched event.
type Listener func(*Event)

// ListenerID identifies a registered listener.
type ListenerID uint64

type listener struct {
	id  ListenerID
	typ string
	fn  Listener
}

// AddEventListener registers fn on the node behind h.
func (d *Document) AddEventListener(h Handle, typ string, fn Listener) ListenerID {
	d.nextID++
	d.listeners[h] = append(d.listeners[h], listener{id: d.nextID, typ: typ, fn: fn})
	return d.nextID
}

// RemoveEventListener unregisters a listener. It reports whether one was found.
func (d *Document) RemoveEventListener(id ListenerID) bool {
	for h, ls := range d.listeners {
		for i, l := range ls {
			if l.id == id {
				d.listeners[h] = append(ls[:i], ls[i+1:]...)
				if len(d.listeners[h]) == 0 {
					delete(d.listeners, h)
				}
				return true
			}
		}
	}
	return false
}

// ListenerCount returns the number of listeners registered on h.
func (d *Document) ListenerCount(h Handle) int {
	return len(d.listeners[h])
}

// Dispatch delivers ev at target, then to each ancestor up to the document
// node when the event bubbles. It returns false if a listener cancelled it.
func (d *Document) Dispatch(target *Element, ev *Event) bool {
	if !ev.pinned {
		ev.Target = target
	}
	for n := target.node; n != nil; n = n.Parent {
		if n != target.node && !ev.Bubbles {
			break
		}
		d.invoke(n, ev)
		if ev.stopped {
			break
		}
	}
	ev.CurrentTarget = NoHandle
	return !ev.defaultPrevented
}

func (d *Document) invoke(n *html.Node, ev *Event) {
	h, ok := d.nodes.Lookup(n)
	if !ok {
		return
	}
	registered := d.listeners[h]
	if len(registered) == 0 {
		return
	}
	// Listeners added during dispatch run on the next event.
	snapshot := append([]listener(nil), registered...)
	ev.CurrentTarget = h
	for _, l := range snapshot {
		if l.typ == ev.Type {
			l.fn(ev)
		}
	}
}
