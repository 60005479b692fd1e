package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/findash/internal/model"
	"github.com/Veraticus/findash/internal/service"
)

func TestSnapshots_CreateAndRestore(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "findash.db")

	store, err := Open(ctx, dbPath)
	require.NoError(t, err)
	user := store.User(testNamespace, "alice")
	require.NoError(t, user.SaveAssetAccount(ctx, &model.AssetAccount{
		ID: "wallet", Name: "Wallet", Currency: model.CurrencyTWD, Type: model.AccountTypeCash, Balance: 500,
	}))

	snapshots, err := store.Snapshots()
	require.NoError(t, err)
	info, err := snapshots.Create(ctx, "before-cleanup", "manual")
	require.NoError(t, err)
	assert.Equal(t, 1, info.Documents[string(service.CollectionAssetAccounts)])
	assert.Equal(t, ExpectedSchemaVersion, info.SchemaVersion)
	assert.False(t, info.IsAuto)
	assert.Positive(t, info.FileSize)

	_, err = snapshots.Create(ctx, "before-cleanup", "again")
	require.ErrorIs(t, err, ErrSnapshotExists)

	require.NoError(t, user.DeleteAssetAccount(ctx, "wallet"))
	require.NoError(t, snapshots.Restore(ctx, "before-cleanup"))

	reopened, err := Open(ctx, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	accounts, err := reopened.User(testNamespace, "alice").ListAssetAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Wallet", accounts[0].Name)
}

func TestSnapshots_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	snapshots, err := store.Snapshots()
	require.NoError(t, err)

	list, err := snapshots.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = snapshots.Create(ctx, "first", "")
	require.NoError(t, err)
	_, err = snapshots.Create(ctx, "second", "")
	require.NoError(t, err)

	list, err = snapshots.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].ID)

	require.NoError(t, snapshots.Delete(ctx, "first"))
	assert.ErrorIs(t, snapshots.Delete(ctx, "first"), ErrSnapshotNotFound)
	assert.ErrorIs(t, snapshots.Restore(ctx, "first"), ErrSnapshotNotFound)

	list, err = snapshots.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSnapshots_AutoKeepsNewest(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	snapshots, err := store.Snapshots()
	require.NoError(t, err)

	_, err = snapshots.Create(ctx, "manual", "")
	require.NoError(t, err)
	for i := 0; i < maxAutoSnapshots+2; i++ {
		info, err := snapshots.Auto(ctx, "import")
		require.NoError(t, err)
		assert.True(t, info.IsAuto)
	}

	list, err := snapshots.List(ctx)
	require.NoError(t, err)
	auto := 0
	for _, s := range list {
		if s.IsAuto {
			auto++
		}
	}
	assert.Equal(t, maxAutoSnapshots, auto)
	assert.Len(t, list, maxAutoSnapshots+1)
}

func TestSnapshots_RejectsUnsafeIDs(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	snapshots, err := store.Snapshots()
	require.NoError(t, err)

	for _, id := range []string{"../escape", "a/b", `a\b`} {
		t.Run(fmt.Sprintf("%q", id), func(t *testing.T) {
			_, err := snapshots.Create(ctx, id, "")
			assert.ErrorIs(t, err, ErrInvalidSnapshotID)
			assert.ErrorIs(t, snapshots.Delete(ctx, id), ErrInvalidSnapshotID)
		})
	}
}

func TestSnapshots_CorruptedFile(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	snapshots, err := store.Snapshots()
	require.NoError(t, err)

	_, err = snapshots.Create(ctx, "broken", "")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(snapshots.path("broken", ".db"), []byte("not a database"), 0600))

	assert.Error(t, snapshots.Restore(ctx, "broken"))
}
