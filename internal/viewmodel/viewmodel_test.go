package viewmodel_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookshelf/internal/storage"
	"bookshelf/internal/storage/stubs"
	"bookshelf/internal/tracker"
	"bookshelf/internal/viewmodel"
)

func newFactory() *viewmodel.Factory {
	now := func() time.Time { return time.Date(2024, 3, 9, 18, 45, 0, 0, time.UTC) }
	t := tracker.New(
		storage.NewObservable(stubs.NewMockDB(), zap.NewNop()),
		tracker.Options{Location: time.UTC, Now: now},
		zap.NewNop(),
	)
	return viewmodel.NewFactory(t)
}

func TestFactory_NewPopulatesOneVariant(t *testing.T) {
	f := newFactory()

	tests := []struct {
		kind       viewmodel.Kind
		wantMain   bool
		wantUpsert bool
		wantTrash  bool
	}{
		{viewmodel.KindMain, true, false, false},
		{viewmodel.KindUpsert, false, true, false},
		{viewmodel.KindTrash, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			screen, err := f.New(tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, screen.Kind)
			assert.Equal(t, tt.wantMain, screen.Main != nil)
			assert.Equal(t, tt.wantUpsert, screen.Upsert != nil)
			assert.Equal(t, tt.wantTrash, screen.Trash != nil)
		})
	}
}

func TestFactory_UnknownKind(t *testing.T) {
	_, err := newFactory().New(viewmodel.Kind(42))
	assert.EqualError(t, err, "unknown screen kind: Kind(42)")
}

func TestScreens_ShareState(t *testing.T) {
	f := newFactory()
	ctx := context.Background()

	created, err := f.Upsert().Create(ctx, tracker.BookInput{
		Title:      "The Left Hand of Darkness",
		Author:     "Ursula K. Le Guin",
		Genre:      "Science Fiction",
		NumOfPages: 304,
	})
	require.NoError(t, err)

	books, err := f.Main().Books(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)

	c, err := f.Main().Completion(books[0])
	require.NoError(t, err)
	assert.Equal(t, 304, c.PagesLeft)

	require.NoError(t, f.Upsert().MoveToTrash(ctx, created.ReadingID))

	trashed, err := f.Trash().Books(ctx)
	require.NoError(t, err)
	require.Len(t, trashed, 1)

	require.NoError(t, f.Trash().Restore(ctx, created.ReadingID))
	books, err = f.Main().Books(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 1)

	require.NoError(t, f.Trash().DeletePermanently(ctx, created.ReadingID))
	_, err = f.Upsert().Get(ctx, created.ReadingID)
	assert.ErrorIs(t, err, tracker.ErrNotFound)
}

func TestUpsert_Detail(t *testing.T) {
	f := newFactory()
	ctx := context.Background()

	created, err := f.Upsert().Create(ctx, tracker.BookInput{
		Title:       "Piranesi",
		Author:      "Susanna Clarke",
		Genre:       "Fantasy",
		NumOfPages:  272,
		CurrentPage: 68,
	})
	require.NoError(t, err)

	d, err := f.Upsert().Detail(ctx, created.ReadingID)
	require.NoError(t, err)
	assert.Equal(t, 204, d.Completion.PagesLeft)
	assert.Equal(t, 25, d.Completion.PercentComplete)
	assert.Equal(t, "Mar 09, 2024 18:45", d.LastUpdated)
}

func TestUpsert_CanIncrementFollowsBound(t *testing.T) {
	u := newFactory().Upsert()
	assert.True(t, u.CanIncrement(9, 10))
	assert.False(t, u.CanIncrement(10, 10))
}
