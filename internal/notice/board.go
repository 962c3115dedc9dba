// Package notice keeps short-lived status messages that dismiss themselves.
package notice

import (
	"sync"
	"time"
)

const DefaultTTL = 3 * time.Second

type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
)

type ID uint64

type Notice struct {
	ID      ID
	Kind    Kind
	Message string
	Shown   time.Time
}

type entry struct {
	notice Notice
	timer  *time.Timer
}

// Board holds the visible notices. Each notice has its own dismissal timer,
// stopped when the notice is dismissed early.
type Board struct {
	ttl time.Duration

	mu       sync.Mutex
	next     ID
	order    []ID
	entries  map[ID]*entry
	closed   bool
	onExpire func(Notice)
}

// NewBoard returns a board whose notices expire after ttl (DefaultTTL if ttl <= 0).
func NewBoard(ttl time.Duration) *Board {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Board{ttl: ttl, entries: make(map[ID]*entry)}
}

// OnExpire registers a callback run after a notice times out.
func (b *Board) OnExpire(fn func(Notice)) {
	b.mu.Lock()
	b.onExpire = fn
	b.mu.Unlock()
}

// Show adds a notice and schedules its removal. It returns 0 on a closed board.
func (b *Board) Show(kind Kind, msg string) ID {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0
	}

	b.next++
	id := b.next
	e := &entry{notice: Notice{ID: id, Kind: kind, Message: msg, Shown: time.Now()}}
	e.timer = time.AfterFunc(b.ttl, func() { b.expire(id) })
	b.entries[id] = e
	b.order = append(b.order, id)
	return id
}

func (b *Board) expire(id ID) {
	b.mu.Lock()
	e, ok := b.entries[id]
	if !ok {
		// dismissed between firing and acquiring the lock
		b.mu.Unlock()
		return
	}
	b.remove(id)
	fn := b.onExpire
	b.mu.Unlock()

	if fn != nil {
		fn(e.notice)
	}
}

// Dismiss removes a notice and cancels its timer. It reports whether the
// notice was still visible.
func (b *Board) Dismiss(id ID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[id]
	if !ok {
		return false
	}
	e.timer.Stop()
	b.remove(id)
	return true
}

func (b *Board) remove(id ID) {
	delete(b.entries, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Active returns the visible notices, oldest first.
func (b *Board) Active() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Notice, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.entries[id].notice)
	}
	return out
}

// Close stops every pending timer and clears the board.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.entries {
		e.timer.Stop()
	}
	b.entries = make(map[ID]*entry)
	b.order = nil
	b.closed = true
}
