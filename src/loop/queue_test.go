package loop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xleiu/VenueSearch/src/types"
)

func startQueue(t *testing.T) *Queue {
	t.Helper()
	q := New()
	ctx, cancel := context.WithCancel(context.Background())
	go q.Run(ctx)
	t.Cleanup(cancel)
	return q
}

func TestQueueRunsInOrder(t *testing.T) {
	q := startQueue(t)

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		q.Post(func() { got = append(got, i) })
	}
	require.NoError(t, q.Do(context.Background(), func() {}))

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestQueueSerializesConcurrentPosts(t *testing.T) {
	q := startQueue(t)

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Do(context.Background(), func() { counter++ })
		}()
	}
	wg.Wait()

	var final int
	require.NoError(t, q.Do(context.Background(), func() { final = counter }))
	assert.Equal(t, 50, final)
}

func TestDoAfterStop(t *testing.T) {
	q := New()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	err := q.Do(context.Background(), func() { t.Fatal("ran after stop") })
	assert.ErrorIs(t, err, ErrStopped)
}

func TestDoHonoursContext(t *testing.T) {
	q := New()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := q.Do(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type asyncSearch struct{}

func (asyncSearch) Search(category types.Category, at types.Coordinate, onComplete func([]types.Venue, error)) {
	go onComplete(nil, errors.New("boom"))
}

func TestSearchCompletesOnQueue(t *testing.T) {
	q := startQueue(t)
	s := Search{Queue: q, Next: asyncSearch{}}

	// owned by the queue goroutine
	completions := 0
	result := make(chan error, 1)
	require.NoError(t, q.Do(context.Background(), func() {
		s.Search("food", types.Coordinate{}, func(_ []types.Venue, err error) {
			completions++
			result <- err
		})
	}))

	select {
	case err := <-result:
		assert.EqualError(t, err, "boom")
	case <-time.After(time.Second):
		t.Fatal("completion never delivered")
	}
	var n int
	require.NoError(t, q.Do(context.Background(), func() { n = completions }))
	assert.Equal(t, 1, n)
}

type recordingDelegate struct {
	updates  [][]types.Coordinate
	failures []error
	statuses []types.AuthorizationStatus
}

func (d *recordingDelegate) OnLocationUpdate(c []types.Coordinate) { d.updates = append(d.updates, c) }
func (d *recordingDelegate) OnLocationFailure(err error)           { d.failures = append(d.failures, err) }
func (d *recordingDelegate) OnAuthorizationChanged(s types.AuthorizationStatus) {
	d.statuses = append(d.statuses, s)
}

func TestDelegateCopiesBatch(t *testing.T) {
	q := startQueue(t)
	rec := &recordingDelegate{}
	d := Delegate{Queue: q, Next: rec}

	batch := []types.Coordinate{{Lat: 1, Lon: 2}}
	d.OnLocationUpdate(batch)
	batch[0].Lat = 99
	d.OnAuthorizationChanged(types.Denied)
	d.OnLocationFailure(errors.New("no fix"))

	require.NoError(t, q.Do(context.Background(), func() {}))
	require.Len(t, rec.updates, 1)
	assert.Equal(t, 1.0, rec.updates[0][0].Lat)
	assert.Equal(t, []types.AuthorizationStatus{types.Denied}, rec.statuses)
	assert.Len(t, rec.failures, 1)
}
