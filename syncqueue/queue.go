package syncqueue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultDebounce is the idle time after the last edit before a flush
const DefaultDebounce = time.Second

// ErrOffline is returned by Flush while the queue is offline
var ErrOffline = errors.New("sync queue is offline")

// Pusher sends a batch of changes to the server
type Pusher interface {
	Push(ctx context.Context, changes []Change) ([]ItemResult, error)
}

// Queue buffers changes and pushes them after a debounce or when the
// connection comes back. It is safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	store    Store
	pusher   Pusher
	entries  []Entry
	nextSeq  uint64
	online   bool
	flushing bool
	closed   bool
	timer    *time.Timer

	debounce     time.Duration
	flushTimeout time.Duration
	onResults    func([]ItemResult)
}

// Option configures a Queue
type Option func(*Queue)

// WithDebounce sets the idle time before an automatic flush
func WithDebounce(d time.Duration) Option {
	return func(q *Queue) { q.debounce = d }
}

// WithFlushTimeout bounds automatic flushes
func WithFlushTimeout(d time.Duration) Option {
	return func(q *Queue) { q.flushTimeout = d }
}

// WithResults registers a callback for the server's per-item verdicts
func WithResults(fn func([]ItemResult)) Option {
	return func(q *Queue) { q.onResults = fn }
}

// WithOnline sets the initial connectivity state (default online)
func WithOnline(online bool) Option {
	return func(q *Queue) { q.online = online }
}

// New creates a queue and restores the entries persisted in store. If any
// entries were restored and the queue is online, a flush is scheduled.
func New(store Store, pusher Pusher, opts ...Option) (*Queue, error) {
	q := &Queue{
		store:        store,
		pusher:       pusher,
		online:       true,
		debounce:     DefaultDebounce,
		flushTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(q)
	}

	loaded, err := store.Load()
	if err != nil {
		return nil, err
	}
	entries, stale := latestPerItem(loaded)
	if err := store.Delete(stale...); err != nil {
		return nil, fmt.Errorf("failed to drop superseded entries: %w", err)
	}
	q.entries = entries
	for _, entry := range loaded {
		if entry.Seq >= q.nextSeq {
			q.nextSeq = entry.Seq + 1
		}
	}

	if len(q.entries) > 0 {
		q.mu.Lock()
		q.armLocked()
		q.mu.Unlock()
	}
	return q, nil
}

// latestPerItem keeps the last entry of each item, in load order, and
// returns the older ones separately. A crash inside Enqueue can leave both.
func latestPerItem(entries []Entry) (kept, stale []Entry) {
	last := make(map[uint]int, len(entries))
	for i, e := range entries {
		last[e.Change.ItemID] = i
	}
	for i, e := range entries {
		if last[e.Change.ItemID] == i {
			kept = append(kept, e)
		} else {
			stale = append(stale, e)
		}
	}
	return kept, stale
}

// Enqueue records a change, replacing any pending change of the same item,
// and restarts the debounce timer.
func (q *Queue) Enqueue(change Change) error {
	if change.ClientUpdatedAt.IsZero() {
		change.ClientUpdatedAt = time.Now().UTC()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errors.New("sync queue is closed")
	}

	entry := Entry{ID: uuid.NewString(), Seq: q.nextSeq, Change: change}
	if err := q.store.Put(entry); err != nil {
		return fmt.Errorf("failed to persist change: %w", err)
	}
	q.nextSeq++

	var superseded []Entry
	kept := q.entries[:0]
	for _, e := range q.entries {
		if e.Change.ItemID == change.ItemID {
			superseded = append(superseded, e)
			continue
		}
		kept = append(kept, e)
	}
	q.entries = append(kept, entry)

	if err := q.store.Delete(superseded...); err != nil {
		log.Printf("sync queue: failed to drop superseded entries: %v", err)
	}

	q.armLocked()
	return nil
}

// Pending returns the changes waiting to be pushed, in replay order
func (q *Queue) Pending() []Change {
	q.mu.Lock()
	defer q.mu.Unlock()

	changes := make([]Change, len(q.entries))
	for i, e := range q.entries {
		changes[i] = e.Change
	}
	return changes
}

// Len returns the number of pending changes
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// SetOnline updates the connectivity state. Going online flushes right away.
func (q *Queue) SetOnline(online bool) {
	q.mu.Lock()
	wasOnline := q.online
	q.online = online
	if !online {
		q.stopTimerLocked()
	}
	q.mu.Unlock()

	if online && !wasOnline {
		go q.flushInBackground()
	}
}

// Flush pushes every pending change. Entries replaced by newer edits while
// the push was in flight stay queued. On failure nothing is removed and a
// retry is scheduled.
func (q *Queue) Flush(ctx context.Context) error {
	q.mu.Lock()
	if !q.online {
		q.mu.Unlock()
		return ErrOffline
	}
	if q.flushing || len(q.entries) == 0 {
		q.mu.Unlock()
		return nil
	}
	q.flushing = true
	q.stopTimerLocked()
	snapshot := make([]Entry, len(q.entries))
	copy(snapshot, q.entries)
	q.mu.Unlock()

	changes := make([]Change, len(snapshot))
	for i, e := range snapshot {
		changes[i] = e.Change
	}

	results, err := q.pusher.Push(ctx, changes)

	q.mu.Lock()
	q.flushing = false
	if err != nil {
		q.armLocked()
		q.mu.Unlock()
		return fmt.Errorf("failed to push %d change(s): %w", len(changes), err)
	}

	sent := make(map[string]bool, len(snapshot))
	for _, e := range snapshot {
		sent[e.ID] = true
	}
	var done []Entry
	remaining := q.entries[:0]
	for _, e := range q.entries {
		if sent[e.ID] {
			done = append(done, e)
			continue
		}
		remaining = append(remaining, e)
	}
	q.entries = remaining
	if len(q.entries) > 0 {
		q.armLocked()
	}
	q.mu.Unlock()

	if err := q.store.Delete(done...); err != nil {
		log.Printf("sync queue: failed to remove pushed entries: %v", err)
	}
	if q.onResults != nil {
		q.onResults(results)
	}
	return nil
}

// Close stops the timer and closes the store. Pending entries stay persisted.
func (q *Queue) Close() error {
	q.mu.Lock()
	q.closed = true
	q.stopTimerLocked()
	q.mu.Unlock()
	return q.store.Close()
}

func (q *Queue) flushInBackground() {
	ctx, cancel := context.WithTimeout(context.Background(), q.flushTimeout)
	defer cancel()
	if err := q.Flush(ctx); err != nil && !errors.Is(err, ErrOffline) {
		log.Printf("sync queue: %v", err)
	}
}

// armLocked (re)starts the debounce timer. q.mu must be held.
func (q *Queue) armLocked() {
	if q.closed || !q.online {
		return
	}
	q.stopTimerLocked()
	q.timer = time.AfterFunc(q.debounce, q.flushInBackground)
}

func (q *Queue) stopTimerLocked() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}
