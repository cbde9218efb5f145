// Package notice keeps the auto-dismissing alerts shown to each storefront session.
package notice

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind selects the alert style
type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindDanger  Kind = "danger"
)

// Notice is one alert waiting to be shown
type Notice struct {
	ID       string
	Kind     Kind
	Title    string
	Message  string
	PostedAt time.Time
	TTL      time.Duration
}

// Text is the title and message on one line
func (n Notice) Text() string {
	if n.Title == "" {
		return n.Message
	}
	return n.Title + " " + n.Message
}

// Handle cancels one posted notice before it dismisses itself
type Handle struct {
	board   *Board
	session string
	id      string
}

// ID returns the notice ID
func (h *Handle) ID() string {
	return h.id
}

// Cancel dismisses the notice now. It reports whether the notice was still pending.
func (h *Handle) Cancel() bool {
	if h == nil || h.board == nil {
		return false
	}
	return h.board.cancel(h.session, h.id)
}

type entry struct {
	notice Notice
	timer  *time.Timer
}

// Board holds pending notices per session. Each notice is a delayed
// dismissal task: it disappears after its TTL unless cancelled first.
type Board struct {
	mu       sync.Mutex
	sessions map[string]map[string]*entry
	closed   bool
	now      func() time.Time

	// tracks dismissal callbacks that are scheduled or running
	wg sync.WaitGroup
}

// NewBoard creates an empty board
func NewBoard() *Board {
	return &Board{
		sessions: make(map[string]map[string]*entry),
		now:      time.Now,
	}
}

// Post schedules a notice for a session. A non-positive ttl keeps it until
// it is cancelled or drained. Posting to a closed board returns a handle
// whose Cancel reports false.
func (b *Board) Post(session string, n Notice, ttl time.Duration) *Handle {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return &Handle{}
	}

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.PostedAt = b.now()
	n.TTL = ttl

	e := &entry{notice: n}
	if ttl > 0 {
		b.wg.Add(1)
		e.timer = time.AfterFunc(ttl, func() {
			defer b.wg.Done()
			b.expire(session, e)
		})
	}

	notices := b.sessions[session]
	if notices == nil {
		notices = make(map[string]*entry)
		b.sessions[session] = notices
	}
	if old, ok := notices[n.ID]; ok {
		b.stopLocked(old)
	}
	notices[n.ID] = e

	return &Handle{board: b, session: session, id: n.ID}
}

// Pending returns the session's notices oldest first
func (b *Board) Pending(session string) []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pendingLocked(session)
}

// Drain returns the session's notices and cancels them, so each is
// rendered at most once.
func (b *Board) Drain(session string) []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.pendingLocked(session)
	b.cancelAllLocked(session)
	return out
}

// CancelAll dismisses every pending notice of a session
func (b *Board) CancelAll(session string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancelAllLocked(session)
}

// Len returns the number of pending notices across sessions
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, notices := range b.sessions {
		n += len(notices)
	}
	return n
}

// Close stops every timer and waits for dismissals already in flight.
// Later posts are ignored.
func (b *Board) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for session := range b.sessions {
		b.cancelAllLocked(session)
	}
	b.mu.Unlock()

	b.wg.Wait()
}

func (b *Board) cancel(session, id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.sessions[session][id]
	if !ok {
		return false
	}
	b.stopLocked(e)
	b.deleteLocked(session, id)
	return true
}

func (b *Board) expire(session string, e *entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// the slot may have been reused by a later post with the same ID
	if b.sessions[session][e.notice.ID] == e {
		b.deleteLocked(session, e.notice.ID)
	}
}

func (b *Board) pendingLocked(session string) []Notice {
	notices := b.sessions[session]
	out := make([]Notice, 0, len(notices))
	for _, e := range notices {
		out = append(out, e.notice)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PostedAt.Before(out[j].PostedAt)
	})
	return out
}

func (b *Board) cancelAllLocked(session string) int {
	notices := b.sessions[session]
	for _, e := range notices {
		b.stopLocked(e)
	}
	delete(b.sessions, session)
	return len(notices)
}

// stopLocked stops the timer; when the callback will no longer run its
// wait-group slot is released here.
func (b *Board) stopLocked(e *entry) {
	if e.timer != nil && e.timer.Stop() {
		b.wg.Done()
	}
	e.timer = nil
}

func (b *Board) deleteLocked(session, id string) {
	notices := b.sessions[session]
	delete(notices, id)
	if len(notices) == 0 {
		delete(b.sessions, session)
	}
}
