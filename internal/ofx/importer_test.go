package ofx

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/findash/internal/model"
	"github.com/Veraticus/findash/internal/recurring"
	"github.com/Veraticus/findash/internal/service"
	"github.com/Veraticus/findash/internal/storage"
)

func openUser(t *testing.T) service.UserStore {
	t.Helper()
	store, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.User("finance-dashboard-test", "alice")
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	user := openUser(t)

	statements, err := NewParser().ParseFile(ctx, strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	records := NewLinker(time.UTC).Link(statements[0].Records, []model.RecurringRule{netflixRule()})

	calls := 0
	stats, err := Import(ctx, user, records, func() { calls++ })
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Created: 1, Linked: 1}, stats)
	assert.Equal(t, 2, calls)

	// Importing the same statement again writes nothing new.
	stats, err = Import(ctx, user, records, nil)
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Linked: 1, Skipped: 1}, stats)

	stored, err := user.ListCashflowRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestImport_LinkedRecordSatisfiesReconciler(t *testing.T) {
	ctx := context.Background()
	user := openUser(t)

	settings, err := user.GetSettings(ctx)
	require.NoError(t, err)
	settings.RecurringRules = []model.RecurringRule{netflixRule()}
	require.NoError(t, user.SaveSettings(ctx, settings))

	statements, err := NewParser().ParseFile(ctx, strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	records := NewLinker(time.UTC).Link(statements[0].Records, settings.RecurringRules)
	_, err = Import(ctx, user, records, nil)
	require.NoError(t, err)

	stored, err := user.ListCashflowRecords(ctx)
	require.NoError(t, err)

	reconciler := recurring.NewReconciler(
		recurring.WithClock(func() time.Time { return time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) }),
		recurring.WithLocation(time.UTC),
	)
	result, err := reconciler.Reconcile(ctx, user, stored, settings)
	require.NoError(t, err)
	assert.False(t, result.Created())

	after, err := user.ListCashflowRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, after, 2)
}
