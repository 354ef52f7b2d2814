// Package notify delivers identity session changes to listeners one at a
// time, in the order they were produced.
package notify

import (
	"context"
	"sync"

	"github.com/PabloGalante/heartdx/internal/domain"
)

type delivery struct {
	id       int
	listener domain.SessionListener
	cred     *domain.Credential
}

type Dispatcher struct {
	mu        sync.Mutex
	listeners map[int]domain.SessionListener
	nextID    int
	pending   []delivery
	signal    chan struct{}
	closed    bool
	done      chan struct{}
}

func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		listeners: make(map[int]domain.SessionListener),
		signal:    make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	go d.run()
	return d
}

// Subscribe registers l and queues one delivery of current to it. After
// unsubscribe returns, l is not called again except for a delivery already
// in progress.
func (d *Dispatcher) Subscribe(l domain.SessionListener, current *domain.Credential) (unsubscribe func()) {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = l
	d.enqueueLocked(delivery{id: id, listener: l, cred: clone(current)})
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.listeners, id)
			d.mu.Unlock()
		})
	}
}

// Broadcast queues cred for every registered listener.
func (d *Dispatcher) Broadcast(cred *domain.Credential) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, l := range d.listeners {
		d.enqueueLocked(delivery{id: id, listener: l, cred: clone(cred)})
	}
}

// Close stops delivery. Queued notifications are dropped.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.pending = nil
	d.mu.Unlock()
	close(d.done)
}

func (d *Dispatcher) enqueueLocked(dl delivery) {
	if d.closed {
		return
	}
	d.pending = append(d.pending, dl)
	select {
	case d.signal <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) run() {
	ctx := context.Background()
	for {
		select {
		case <-d.done:
			return
		case <-d.signal:
		}

		for {
			d.mu.Lock()
			if d.closed || len(d.pending) == 0 {
				d.mu.Unlock()
				break
			}
			next := d.pending[0]
			d.pending = d.pending[1:]
			_, subscribed := d.listeners[next.id]
			d.mu.Unlock()

			if subscribed {
				next.listener(ctx, next.cred)
			}
		}
	}
}

func clone(c *domain.Credential) *domain.Credential {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
