package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookshelf/internal/models"
	"bookshelf/internal/storage"
	"bookshelf/internal/storage/stubs"
)

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func newObservable(t *testing.T) (*storage.Observable, models.BookReading) {
	t.Helper()
	obs := storage.NewObservable(stubs.NewMockDB(), zap.NewNop())
	created, err := obs.InsertBookReading(context.Background(), models.NewBookReading{
		Title:        "Dune",
		Author:       "Frank Herbert",
		Genre:        "Science Fiction",
		NumOfPages:   412,
		DateModified: "2024-05-01 09:00:00",
	})
	require.NoError(t, err)
	return obs, created
}

func TestObservable_WatchEmitsCurrentValueOnSubscribe(t *testing.T) {
	obs, created := newObservable(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := receive(t, obs.Watch(ctx, created.ReadingID))
	require.NotNil(t, got)
	assert.Equal(t, created, *got)
}

func TestObservable_WatchMissingEmitsNil(t *testing.T) {
	obs, _ := newObservable(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := receive(t, obs.Watch(ctx, 999))
	assert.Nil(t, got)
}

func TestObservable_WatchFollowsMutations(t *testing.T) {
	obs, created := newObservable(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := obs.Watch(ctx, created.ReadingID)
	receive(t, ch)

	updated := created
	updated.CurrentPage = 120
	updated.DateModified = "2024-05-02 09:00:00"
	require.NoError(t, obs.UpdateBookReading(ctx, updated))

	got := receive(t, ch)
	require.NotNil(t, got)
	assert.Equal(t, 120, got.CurrentPage)

	require.NoError(t, obs.SoftDelete(ctx, created.ReadingID))
	got = receive(t, ch)
	require.NotNil(t, got)
	assert.True(t, got.IsDeleted)

	require.NoError(t, obs.Purge(ctx, created.ReadingID))
	assert.Nil(t, receive(t, ch))
}

func TestObservable_SlowConsumerSeesLatest(t *testing.T) {
	obs, created := newObservable(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := obs.Watch(ctx, created.ReadingID)

	// Do not drain between mutations
	for page := 1; page <= 5; page++ {
		r := created
		r.CurrentPage = page * 10
		require.NoError(t, obs.UpdateBookReading(ctx, r))
	}

	got := receive(t, ch)
	require.NotNil(t, got)
	assert.Equal(t, 50, got.CurrentPage)
}

func TestObservable_ListsFollowTrash(t *testing.T) {
	obs, created := newObservable(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	active := obs.WatchActive(ctx)
	trashed := obs.WatchTrashed(ctx)

	assert.Len(t, receive(t, active), 1)
	assert.Empty(t, receive(t, trashed))

	require.NoError(t, obs.SoftDelete(ctx, created.ReadingID))
	assert.Empty(t, receive(t, active))
	trash := receive(t, trashed)
	require.Len(t, trash, 1)
	assert.Equal(t, created.ReadingID, trash[0].ReadingID)

	require.NoError(t, obs.Restore(ctx, created.ReadingID))
	assert.Len(t, receive(t, active), 1)
	assert.Empty(t, receive(t, trashed))
}

func TestObservable_ChannelClosesOnCancel(t *testing.T) {
	obs, created := newObservable(t)
	ctx, cancel := context.WithCancel(context.Background())

	ch := obs.Watch(ctx, created.ReadingID)
	receive(t, ch)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel was not closed after cancel")
	}

	// Mutations after the subscriber left must not panic
	require.NoError(t, obs.SoftDelete(context.Background(), created.ReadingID))
}

func TestObservable_FailedMutationDoesNotNotify(t *testing.T) {
	obs, created := newObservable(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := obs.Watch(ctx, created.ReadingID)
	receive(t, ch)

	err := obs.SoftDelete(ctx, 12345)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	select {
	case v := <-ch:
		t.Fatalf("unexpected notification: %+v", v)
	case <-time.After(50 * time.Millisecond):
	}
}
