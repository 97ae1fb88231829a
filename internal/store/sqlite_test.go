package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/integrity-cli/internal/model"
)

func newTestSQLite(t *testing.T, keep int) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "history.db"), keep)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func rec(runAt time.Time, target string, rate float64) RunRecord {
	return RunRecord{
		RunAt:        runAt,
		TargetName:   target,
		SourceName:   "sf.csv",
		TotalRecords: 42,
		MatchRate:    rate,
		FieldCount:   1,
		QualityScore: rate,
		Grade:        "A",
		Fields: []model.FieldStats{
			{Field: "amount", Matches: 40, Mismatches: 2},
		},
		Summary: []byte(`{"match_rate":96.5}`),
	}
}

func TestSQLiteAppendAndRecent(t *testing.T) {
	s := newTestSQLite(t, 10)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	first, err := s.Append(ctx, rec(base, "ns1.xlsx", 90))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	_, err = s.Append(ctx, rec(base.Add(time.Hour), "ns2.xlsx", 95))
	require.NoError(t, err)

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// newest first
	assert.Equal(t, "ns2.xlsx", got[0].TargetName)
	assert.Equal(t, "ns1.xlsx", got[1].TargetName)
	assert.Equal(t, 95.0, got[0].MatchRate)
	assert.Equal(t, 42, got[0].TotalRecords)
	assert.Equal(t, 1, got[0].FieldCount)
	assert.JSONEq(t, `{"match_rate":96.5}`, string(got[0].Summary))
}

func TestSQLiteAppendPrunesBeyondLimit(t *testing.T) {
	s := newTestSQLite(t, 2)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		_, err := s.Append(ctx, rec(base.Add(time.Duration(i)*time.Hour), "ns.xlsx", float64(i)))
		require.NoError(t, err)
	}

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2, "history must stay bounded")
	assert.Equal(t, 3.0, got[0].MatchRate)
	assert.Equal(t, 2.0, got[1].MatchRate)
}

func TestSQLiteRecentEmpty(t *testing.T) {
	s := newTestSQLite(t, 10)

	got, err := s.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteRecentLimitDefaultsToRetention(t *testing.T) {
	s := newTestSQLite(t, 3)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := s.Append(ctx, rec(base.Add(time.Duration(i)*time.Hour), "ns.xlsx", float64(i)))
		require.NoError(t, err)
	}

	got, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
