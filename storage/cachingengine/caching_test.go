package cachingengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datdd/library-management-system/domain"
	"github.com/datdd/library-management-system/storage/cachingengine"
	"github.com/datdd/library-management-system/storage/fileengine"
	"github.com/datdd/library-management-system/storage/memoryengine"
)

func Test_NewStoreWithBackends_RejectsNilBackends(t *testing.T) {
	ctx := context.Background()

	fileStore, err := fileengine.NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = cachingengine.NewStoreWithBackends(ctx, nil, fileStore)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = cachingengine.NewStoreWithBackends(ctx, memoryengine.NewStore(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func Test_Construction_BulkLoadsFileStateIntoMemory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// Seed the files directly through a plain file store.
	seed, err := fileengine.NewStore(dir)
	require.NoError(t, err)

	author, err := domain.NewAuthor("author_1", "Seeded Author")
	require.NoError(t, err)
	require.NoError(t, seed.SaveAuthor(ctx, author))

	user, err := domain.NewUser("user_1", "Seeded User")
	require.NoError(t, err)
	require.NoError(t, seed.SaveUser(ctx, user))

	book, err := domain.NewBook("item_1", "Seeded Book", author, "isbn-1", 1995)
	require.NoError(t, err)
	require.NoError(t, seed.SaveItem(ctx, book))

	loaned := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	record, err := domain.NewLoanRecord("loan_1", "item_1", "user_1", loaned, loaned.AddDate(0, 0, 14))
	require.NoError(t, err)
	require.NoError(t, seed.SaveLoanRecord(ctx, record))

	store, err := cachingengine.NewStore(ctx, dir)
	require.NoError(t, err)

	loadedItem, err := store.LoadItem(ctx, "item_1")
	require.NoError(t, err)
	require.NotNil(t, loadedItem)
	require.NotNil(t, loadedItem.Author())
	assert.Equal(t, "Seeded Author", loadedItem.Author().Name())

	loadedLoan, err := store.LoadLoanRecord(ctx, "loan_1")
	require.NoError(t, err)
	require.NotNil(t, loadedLoan)
	assert.True(t, record.Equal(*loadedLoan))
}

func Test_Writes_StayInMemoryUntilPersistAll(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := cachingengine.NewStore(ctx, dir)
	require.NoError(t, err)

	user, err := domain.NewUser("user_1", "Cached Only")
	require.NoError(t, err)
	require.NoError(t, store.SaveUser(ctx, user))

	// A second file store over the same directory sees nothing yet.
	observer, err := fileengine.NewStore(dir)
	require.NoError(t, err)
	onDisk, err := observer.LoadUser(ctx, "user_1")
	require.NoError(t, err)
	assert.Nil(t, onDisk, "writes must not reach disk before PersistAll")

	require.NoError(t, store.PersistAll(ctx))

	onDisk, err = observer.LoadUser(ctx, "user_1")
	require.NoError(t, err)
	require.NotNil(t, onDisk)
	assert.Equal(t, "Cached Only", onDisk.Name())
}

func Test_PersistAll_RemovesRowsDeletedInMemory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	seed, err := fileengine.NewStore(dir)
	require.NoError(t, err)
	keptUser, err := domain.NewUser("user_keep", "Kept")
	require.NoError(t, err)
	require.NoError(t, seed.SaveUser(ctx, keptUser))
	doomedUser, err := domain.NewUser("user_gone", "Doomed")
	require.NoError(t, err)
	require.NoError(t, seed.SaveUser(ctx, doomedUser))

	store, err := cachingengine.NewStore(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, store.DeleteUser(ctx, "user_gone"))
	require.NoError(t, store.PersistAll(ctx))

	observer, err := fileengine.NewStore(dir)
	require.NoError(t, err)
	gone, err := observer.LoadUser(ctx, "user_gone")
	require.NoError(t, err)
	assert.Nil(t, gone, "rows deleted in memory must disappear from disk")
	kept, err := observer.LoadUser(ctx, "user_keep")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func Test_PersistAll_SurvivesRestartRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := cachingengine.NewStore(ctx, dir)
	require.NoError(t, err)

	author, err := domain.NewAuthor("author_1", "Round Tripper")
	require.NoError(t, err)
	require.NoError(t, store.SaveAuthor(ctx, author))
	book, err := domain.NewBook("item_1", "Round Trip", author, "isbn-1", 2010)
	require.NoError(t, err)
	book.SetStatus(domain.StatusBorrowed)
	require.NoError(t, store.SaveItem(ctx, book))
	require.NoError(t, store.PersistAll(ctx))

	// A fresh composite over the same directory sees the persisted state.
	reopened, err := cachingengine.NewStore(ctx, dir)
	require.NoError(t, err)
	loaded, err := reopened.LoadItem(ctx, "item_1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, domain.StatusBorrowed, loaded.Status())
	require.NotNil(t, loaded.Author())
	assert.Equal(t, "Round Tripper", loaded.Author().Name())
}
