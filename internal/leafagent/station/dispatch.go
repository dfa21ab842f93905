// Package station provides the station-mode networking stacks the agent drives.
package station

import (
	"sync"

	"github.com/autopeer-io/leaf/internal/leafagent/core"
)

// dispatcher delivers events to registered handlers from its own goroutine, in
// emission order. Handlers may call back into the station.
type dispatcher struct {
	mu       sync.Mutex
	handlers map[core.EventBase]map[int]core.EventHandler
	nextID   int
	queue    []core.Event
	running  bool
	notify   chan struct{}
	done     chan struct{}
	stopped  chan struct{}
}

func newDispatcher() *dispatcher {
	return &dispatcher{
		handlers: make(map[core.EventBase]map[int]core.EventHandler),
	}
}

func (d *dispatcher) start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return
	}
	d.running = true
	d.queue = nil
	d.notify = make(chan struct{}, 1)
	d.done = make(chan struct{})
	d.stopped = make(chan struct{})
	go d.loop(d.notify, d.done, d.stopped)
}

// stop ends delivery after the queued events have been handed out.
func (d *dispatcher) stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.done)
	stopped := d.stopped
	d.mu.Unlock()

	<-stopped
}

func (d *dispatcher) emit(ev core.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return
	}
	d.queue = append(d.queue, ev)
	select {
	case d.notify <- struct{}{}:
	default:
	}
}

func (d *dispatcher) register(base core.EventBase, h core.EventHandler) core.Registration {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	if d.handlers[base] == nil {
		d.handlers[base] = make(map[int]core.EventHandler)
	}
	d.handlers[base][id] = h
	return &registration{d: d, base: base, id: id}
}

func (d *dispatcher) count(base core.EventBase) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handlers[base])
}

func (d *dispatcher) loop(notify, done, stopped chan struct{}) {
	defer close(stopped)
	for {
		select {
		case <-notify:
			d.drain()
		case <-done:
			d.drain()
			return
		}
	}
}

func (d *dispatcher) drain() {
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		ev := d.queue[0]
		d.queue = d.queue[1:]
		hs := make([]core.EventHandler, 0, len(d.handlers[ev.Base]))
		for _, h := range d.handlers[ev.Base] {
			hs = append(hs, h)
		}
		d.mu.Unlock()

		for _, h := range hs {
			h(ev)
		}
	}
}

type registration struct {
	once sync.Once
	d    *dispatcher
	base core.EventBase
	id   int
}

func (r *registration) Unregister() {
	r.once.Do(func() {
		r.d.mu.Lock()
		defer r.d.mu.Unlock()
		delete(r.d.handlers[r.base], r.id)
	})
}
