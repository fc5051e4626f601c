package loop

import (
	"context"
	"errors"
	"sync"

	"github.com/xleiu/VenueSearch/src/types"
)

var ErrStopped = errors.New("queue stopped")

// Queue runs posted closures one at a time, in posting order, on the
// goroutine that calls Run. It is the single execution context the
// presenter and every port completion share.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	done    chan struct{}
	stopped bool
}

func New() *Queue {
	return &Queue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post schedules fn and returns immediately. Closures posted after the
// queue stopped are discarded.
func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Do runs fn on the queue and waits for it to finish.
func (q *Queue) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	q.Post(func() {
		defer close(finished)
		fn()
	})

	select {
	case <-finished:
		return nil
	case <-q.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the queue until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) {
	defer func() {
		q.mu.Lock()
		q.stopped = true
		q.pending = nil
		q.mu.Unlock()
		close(q.done)
	}()

	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		q.mu.Unlock()

		for _, fn := range batch {
			if ctx.Err() != nil {
				return
			}
			fn()
		}

		select {
		case <-q.wake:
		case <-ctx.Done():
			return
		}
	}
}

// Search delivers the completions of Next on Queue.
type Search struct {
	Queue *Queue
	Next  types.VenueSearchPort
}

func (s Search) Search(category types.Category, at types.Coordinate, onComplete func([]types.Venue, error)) {
	s.Next.Search(category, at, func(venues []types.Venue, err error) {
		s.Queue.Post(func() {
			onComplete(venues, err)
		})
	})
}

// Delegate delivers location events to Next on Queue.
type Delegate struct {
	Queue *Queue
	Next  types.LocationDelegate
}

func (d Delegate) OnLocationUpdate(coordinates []types.Coordinate) {
	batch := append([]types.Coordinate(nil), coordinates...)
	d.Queue.Post(func() { d.Next.OnLocationUpdate(batch) })
}

func (d Delegate) OnLocationFailure(err error) {
	d.Queue.Post(func() { d.Next.OnLocationFailure(err) })
}

func (d Delegate) OnAuthorizationChanged(status types.AuthorizationStatus) {
	d.Queue.Post(func() { d.Next.OnAuthorizationChanged(status) })
}
