// Package asynchook delivers store.Hooks events from a bounded queue so a
// slow sink (a remote log, a metrics push) never stalls Get or Set. When
// the queue is full the event is counted and dropped.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{SelfHealEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000)
//	defer hooks.Close()
//
//	users, _ := store.New[User](store.Options[User]{
//	    Namespace: "user",
//	    Provider:  provider,
//	    Hooks:     hooks,
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/resp/store"
)

const defaultQueue = 1024

type eventKind uint8

const (
	selfHeal eventKind = iota
	setRejected
)

type event struct {
	kind   eventKind
	key    string
	reason string
	offset int
}

type Hooks struct {
	inner   store.Hooks
	q       chan event
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Uint64
}

var _ store.Hooks = (*Hooks)(nil)

// New starts workers goroutines (at least 1) draining a queue of qlen
// events (0 => 1024).
func New(inner store.Hooks, workers, qlen int) *Hooks {
	workers = max(workers, 1)
	if qlen <= 0 {
		qlen = defaultQueue
	}
	h := &Hooks{inner: inner, q: make(chan event, qlen)}
	h.wg.Add(workers)
	for range workers {
		go h.run()
	}
	return h
}

func (h *Hooks) run() {
	defer h.wg.Done()
	for ev := range h.q {
		switch ev.kind {
		case selfHeal:
			h.inner.SelfHeal(ev.key, ev.reason, ev.offset)
		case setRejected:
			h.inner.SetRejected(ev.key)
		}
	}
}

// Close delivers what is queued and stops the workers. Hooks must not be
// called after Close.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped is the number of events discarded on a full queue.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) SelfHeal(k, reason string, offset int) {
	h.push(event{kind: selfHeal, key: k, reason: reason, offset: offset})
}

func (h *Hooks) SetRejected(k string) { h.push(event{kind: setRejected, key: k}) }

func (h *Hooks) push(ev event) {
	select {
	case h.q <- ev:
	default:
		h.dropped.Add(1)
	}
}
