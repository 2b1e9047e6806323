package receipts

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "receipts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testReceipt(fp, scope string) Receipt {
	return Receipt{
		Fingerprint:   fp,
		Scope:         scope,
		Description:   "spawn git-haiku after three git commands",
		ConditionKind: "count",
		ActionKind:    "spawn_command",
		Artifact:      "git-haiku",
		FiredAt:       time.Date(2025, 8, 31, 9, 0, 1, 0, time.UTC),
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipts.db")

	s1, err := Open(path)
	require.NoError(t, err)
	_, err = s1.Record(context.Background(), testReceipt("fp-1", ScopeOnce))
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	seen, err := s2.Seen(context.Background(), "fp-1", ScopeOnce)
	require.NoError(t, err)
	assert.True(t, seen, "receipts survive reopen")
}

func TestRecordDeduplicatesByFingerprintAndScope(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	inserted, err := s.Record(ctx, testReceipt("fp-1", ScopeOnce))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.Record(ctx, testReceipt("fp-1", ScopeOnce))
	require.NoError(t, err)
	assert.False(t, inserted, "second receipt for the same firing is discarded")

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRecordSeparatesScopes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// A time rule fires once per calendar day; each day is its own scope.
	inserted, err := s.Record(ctx, testReceipt("fp-time", "Sat Aug 30 2025"))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.Record(ctx, testReceipt("fp-time", "Sun Aug 31 2025"))
	require.NoError(t, err)
	assert.True(t, inserted)

	seen, err := s.Seen(ctx, "fp-time", "Sun Aug 31 2025")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = s.Seen(ctx, "fp-time", "Mon Sep 01 2025")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestSeenUnknownFingerprint(t *testing.T) {
	s := openTestStore(t)
	seen, err := s.Seen(context.Background(), "never-recorded", ScopeOnce)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestListOrdersByFiringTime(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	later := testReceipt("fp-b", ScopeOnce)
	later.FiredAt = time.Date(2025, 8, 31, 12, 0, 0, 0, time.UTC)
	earlier := testReceipt("fp-a", ScopeOnce)
	earlier.FiredAt = time.Date(2025, 8, 31, 9, 0, 0, 0, time.UTC)

	_, err := s.Record(ctx, later)
	require.NoError(t, err)
	_, err = s.Record(ctx, earlier)
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "fp-a", list[0].Fingerprint)
	assert.Equal(t, "fp-b", list[1].Fingerprint)
	assert.True(t, list[0].FiredAt.Before(list[1].FiredAt))
	assert.NotEmpty(t, list[0].ID, "IDs are assigned on insert")
}
