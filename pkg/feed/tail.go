package feed

import (
	"context"
	"sync"
)

// Observer reports when a rendered item enters the viewport
type Observer interface {
	Observe(target int, onVisible func()) Subscription
}

// Subscription is a single attached observation
type Subscription interface {
	Disconnect()
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(target int, onVisible func()) Subscription

// Observe calls f
func (f ObserverFunc) Observe(target int, onVisible func()) Subscription { return f(target, onVisible) }

// Tail keeps exactly one observer bound to the current last item of the feed
type Tail struct {
	ctrl     *Controller
	observer Observer

	mu     sync.Mutex
	sub    Subscription
	target int
}

// NewTail makes unbound tail for the controller
func NewTail(ctrl *Controller, observer Observer) *Tail {
	return &Tail{ctrl: ctrl, observer: observer, target: -1}
}

// Rebind drops the current observation and attaches a new one to the last item.
// Nothing is attached while a fetch is in flight, once the feed is exhausted or when it is empty,
// call Rebind again after the next render.
func (t *Tail) Rebind(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.releaseLocked()

	target, ok := t.ctrl.State().TailIndex()
	if !ok {
		return
	}

	t.target = target
	t.sub = t.observer.Observe(t.target, func() { t.ctrl.OnVisibilityTrigger(ctx) })
}

// Release disconnects the current observation, if any
func (t *Tail) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.releaseLocked()
}

// Target returns index of the observed item, ok is false if nothing is observed
func (t *Tail) Target() (target int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.target, t.sub != nil
}

func (t *Tail) releaseLocked() {
	if t.sub != nil {
		t.sub.Disconnect()
		t.sub = nil
	}
	t.target = -1
}
