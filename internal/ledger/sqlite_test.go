package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonathan/outreach-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	store, err := OpenSQLite(path)
	require.NoError(t, err)

	clock := &fakeClock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	l := New(store, clock.Now)
	require.NoError(t, l.RecordSuccess(ctx, "A", "a@uw.edu"))
	require.NoError(t, l.RecordFailure(ctx, "B", "", "https://x/b", types.ReasonCompositionFailed))
	require.NoError(t, l.Close())

	// Reopen to confirm the rows are durable and migration is idempotent.
	store, err = OpenSQLite(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	l = New(store, clock.Now)

	count, err := l.CountSuccessesToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	failures, err := store.Failures(ctx)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, types.NoContact, failures[0].Contact)
	assert.Equal(t, types.ReasonCompositionFailed, failures[0].Reason)

	contacted, err := l.LoadContactedNames(ctx)
	require.NoError(t, err)
	assert.Len(t, contacted, 2)
}
