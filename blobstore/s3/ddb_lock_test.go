package s3

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/nmcp/blobstore"
	"github.com/hupe1980/nmcp/lock"
	"github.com/hupe1980/nmcp/precomputed"
	"github.com/hupe1980/nmcp/skeleton"
)

func TestDDBLock_AcquireRelease(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	l := NewDDBLock(ddb, "nmcp-locks", "bucket/full")

	require.NoError(t, l.Lock(ctx))
	assert.True(t, ddb.held("bucket/full"))

	require.NoError(t, l.Unlock(ctx))
	assert.False(t, ddb.held("bucket/full"))

	assert.ErrorIs(t, l.Unlock(ctx), lock.ErrNotLocked)
}

func TestDDBLock_Contention(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	a := NewDDBLock(ddb, "t", "ds", WithRetryInterval(5*time.Millisecond))
	b := NewDDBLock(ddb, "t", "ds", WithRetryInterval(5*time.Millisecond))

	require.NoError(t, a.Lock(ctx))

	timeout, cancel := context.WithTimeout(ctx, 40*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.Lock(timeout), context.DeadlineExceeded)

	require.NoError(t, a.Unlock(ctx))
	require.NoError(t, b.Lock(ctx))
	require.NoError(t, b.Unlock(ctx))
}

func TestDDBLock_ExpiredLeaseTakeover(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()

	var offset atomic.Int64
	base := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return base.Add(time.Duration(offset.Load())) }

	a := NewDDBLock(ddb, "t", "ds", WithClock(clock), WithLeaseDuration(time.Second))
	b := NewDDBLock(ddb, "t", "ds", WithClock(clock), WithLeaseDuration(time.Second), WithRetryInterval(time.Millisecond))

	require.NoError(t, a.Lock(ctx))

	offset.Store(int64(2 * time.Second))
	require.NoError(t, b.Lock(ctx))

	assert.ErrorIs(t, a.Unlock(ctx), lock.ErrLockLost)
	require.NoError(t, b.Unlock(ctx))
}

func TestDDBLock_SerializesGoroutines(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	l := NewDDBLock(ddb, "t", "ds", WithRetryInterval(time.Millisecond))

	require.NoError(t, l.Lock(ctx))

	acquired := make(chan error, 1)
	go func() { acquired <- l.Lock(ctx) }()

	select {
	case <-acquired:
		t.Fatal("second Lock returned while the lease was held")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, l.Unlock(ctx))
	require.NoError(t, <-acquired)
	require.NoError(t, l.Unlock(ctx))
}

func TestDDBLock_ClientError(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	boom := errors.New("provisioned throughput exceeded")
	ddb.err = boom

	l := NewDDBLock(ddb, "t", "ds")
	assert.ErrorIs(t, l.Lock(ctx), boom)

	// The in-process mutex was released.
	ddb.err = nil
	require.NoError(t, l.Lock(ctx))
	require.NoError(t, l.Unlock(ctx))
}

func TestDDBLock_WithHelper(t *testing.T) {
	ddb := newMockDDBClient()
	l := NewDDBLock(ddb, "t", "ds")

	err := lock.With(context.Background(), l, func() error {
		assert.True(t, ddb.held("ds"))
		return nil
	})
	require.NoError(t, err)
	assert.False(t, ddb.held("ds"))
}

func TestDDBLock_VerifyExtendsLease(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()

	var offset atomic.Int64
	base := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return base.Add(time.Duration(offset.Load())) }

	a := NewDDBLock(ddb, "t", "ds", WithClock(clock), WithLeaseDuration(time.Second))
	b := NewDDBLock(ddb, "t", "ds", WithClock(clock), WithLeaseDuration(time.Second), WithRetryInterval(time.Millisecond))

	assert.ErrorIs(t, a.Verify(ctx), lock.ErrNotLocked)

	require.NoError(t, a.Lock(ctx))

	offset.Store(int64(800 * time.Millisecond))
	require.NoError(t, a.Verify(ctx))

	// Past the first expiry but inside the extended lease.
	offset.Store(int64(1600 * time.Millisecond))
	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.Lock(timeout), context.DeadlineExceeded)

	require.NoError(t, a.Verify(ctx))
	require.NoError(t, a.Unlock(ctx))
}

func TestDDBLock_VerifyAfterTakeover(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()

	var offset atomic.Int64
	base := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return base.Add(time.Duration(offset.Load())) }

	a := NewDDBLock(ddb, "t", "ds", WithClock(clock), WithLeaseDuration(time.Second))
	b := NewDDBLock(ddb, "t", "ds", WithClock(clock), WithLeaseDuration(time.Second), WithRetryInterval(time.Millisecond))

	require.NoError(t, a.Lock(ctx))

	// Expired but not yet taken over.
	offset.Store(int64(2 * time.Second))
	assert.ErrorIs(t, a.Verify(ctx), lock.ErrLockLost)

	require.NoError(t, b.Lock(ctx))
	assert.ErrorIs(t, a.Verify(ctx), lock.ErrLockLost)
	require.NoError(t, b.Verify(ctx))

	assert.ErrorIs(t, a.Unlock(ctx), lock.ErrLockLost)
	require.NoError(t, b.Unlock(ctx))
}

// hookStore runs onPut before writing the named blob.
type hookStore struct {
	blobstore.BlobStore
	name  string
	onPut func()
}

func (s *hookStore) Put(ctx context.Context, name string, data []byte) error {
	if name == s.name && s.onPut != nil {
		hook := s.onPut
		s.onPut = nil
		hook()
	}
	return s.BlobStore.Put(ctx, name, data)
}

func TestDDBLock_DatasetCommitAfterLeaseExpiry(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	store := blobstore.NewMemoryStore()

	var offset atomic.Int64
	base := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return base.Add(time.Duration(offset.Load())) }

	graph := &skeleton.Graph{
		Vertices: []skeleton.Vertex{{Position: [3]float32{1, 2, 3}}, {Position: [3]float32{4, 5, 6}}},
		Edges:    []skeleton.Edge{{Child: 1, Parent: 0}},
	}

	b := precomputed.NewDataset(store, precomputed.WithLocker(
		NewDDBLock(ddb, "t", "full", WithClock(clock), WithRetryInterval(time.Millisecond))))

	var errB error
	slow := &hookStore{
		BlobStore: store,
		name:      precomputed.SkeletonName(1),
		onPut: func() {
			// A's skeleton upload outlives its lease; B commits meanwhile.
			offset.Store(int64(2 * time.Minute))
			errB = b.Commit(ctx, 2, graph, precomputed.Properties{Label: "N002"})
		},
	}
	a := precomputed.NewDataset(slow, precomputed.WithLocker(
		NewDDBLock(ddb, "t", "full", WithClock(clock), WithRetryInterval(time.Millisecond))))

	errA := a.Commit(ctx, 1, graph, precomputed.Properties{Label: "N001"})
	require.NoError(t, errB)

	var perr *precomputed.PersistError
	require.ErrorAs(t, errA, &perr)
	assert.Equal(t, "verify lock", perr.Op)
	assert.ErrorIs(t, errA, lock.ErrLockLost)

	ids, err := b.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, ids)
}
