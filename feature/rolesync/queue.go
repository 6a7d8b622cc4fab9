package rolesync

import (
	"context"
	"sync"
	"time"

	"role-sync/core/reconcile"

	"github.com/google/uuid"
)

// item is the pending work for one account.
type item struct {
	fact Fact
	// formerGameID is a game account that lost its link and still needs
	// everything revoked.
	formerGameID uuid.UUID
	// redrive holds the actions left over from a failed apply. It is only
	// used while no newer fact has arrived.
	redrive    []reconcile.Action
	redriveFor uuid.UUID
	attempt    int
	notBefore  time.Time
}

// merge folds a newer item into the pending one. The latest fact wins and
// discards any redrive; a former game id is kept until it is cleaned up.
func (it *item) merge(newer *item) {
	if newer.formerGameID == uuid.Nil {
		newer.formerGameID = it.formerGameID
	}
	*it = *newer
}

// queue keeps at most one pending item per account and hands each account
// to one worker at a time. Accounts are served in arrival order.
type queue struct {
	mu      sync.Mutex
	order   []string
	pending map[string]*item
	active  map[string]bool
	closed  bool
	wake    chan struct{}
	now     func() time.Time
}

func newQueue(now func() time.Time) *queue {
	return &queue{
		pending: make(map[string]*item),
		active:  make(map[string]bool),
		wake:    make(chan struct{}, 1),
		now:     now,
	}
}

// push adds or coalesces work. It returns false once the queue is closed.
func (q *queue) push(it *item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	id := it.fact.PlatformID
	if existing, ok := q.pending[id]; ok {
		existing.merge(it)
	} else {
		q.pending[id] = it
		if !q.active[id] {
			q.order = append(q.order, id)
		}
	}
	q.signal()
	return true
}

// requeue puts a failed item back unless newer work for the account
// already arrived, in which case that work absorbs it.
func (q *queue) requeue(it *item, delay time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := it.fact.PlatformID
	if existing, ok := q.pending[id]; ok {
		if existing.formerGameID == uuid.Nil {
			existing.formerGameID = it.formerGameID
		}
		return
	}
	it.notBefore = q.now().Add(delay)
	q.pending[id] = it
}

// pop blocks until an idle account has ready work, or until ctx ends or
// the queue is closed. Work still pending at close is dropped.
func (q *queue) pop(ctx context.Context) (*item, bool) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, false
		}
		it, wait := q.next()
		if it != nil && len(q.order) > 0 {
			// hand the remaining work to another idle worker
			q.signal()
		}
		q.mu.Unlock()
		if it != nil {
			return it, true
		}

		var timer *time.Timer
		var fire <-chan time.Time
		if wait > 0 {
			timer = time.NewTimer(wait)
			fire = timer.C
		}
		select {
		case <-ctx.Done():
		case <-q.wake:
		case <-fire:
		}
		if timer != nil {
			timer.Stop()
		}
		if ctx.Err() != nil {
			return nil, false
		}
	}
}

// next must be called with mu held. It returns the first ready item, or
// how long until a delayed item becomes ready.
func (q *queue) next() (*item, time.Duration) {
	now := q.now()
	var wait time.Duration
	for i, id := range q.order {
		it := q.pending[id]
		if !it.notBefore.After(now) {
			q.order = append(q.order[:i:i], q.order[i+1:]...)
			delete(q.pending, id)
			q.active[id] = true
			return it, 0
		}
		if d := it.notBefore.Sub(now); wait == 0 || d < wait {
			wait = d
		}
	}
	return nil, wait
}

// done releases an account after a worker finished with it.
func (q *queue) done(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.active, id)
	if _, ok := q.pending[id]; ok {
		q.order = append(q.order, id)
	}
	q.signal()
}

// close wakes every waiting worker and returns how many accounts still
// had pending work.
func (q *queue) close() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0
	}
	q.closed = true
	close(q.wake)
	return len(q.pending)
}

// idle reports whether nothing is pending or in progress.
func (q *queue) idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) == 0 && len(q.active) == 0
}

func (q *queue) signal() {
	if q.closed {
		return
	}
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
