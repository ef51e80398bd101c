package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCounterFixture(t *testing.T) (*CounterService, *memLogStore, *memActivityStore, *memCounterStore) {
	t.Helper()
	logs := newMemLogStore()
	activity := newMemActivityStore()
	counters := newMemCounterStore()
	return NewCounterService(logs, activity, counters, zap.NewNop()), logs, activity, counters
}

func TestRecordBhai(t *testing.T) {
	ctx := context.Background()
	svc, logs, _, counters := newCounterFixture(t)

	for range 3 {
		require.NoError(t, svc.RecordBhai(ctx, testUser, testGuild, "2025-06-02", "Alice"))
	}
	require.NoError(t, svc.RecordBhai(ctx, testUser, testGuild, "2025-06-03", "Alice"))

	assert.EqualValues(t, 3, logs.get(testUser, testGuild, "2025-06-02").BhaiCount)
	assert.EqualValues(t, 1, logs.get(testUser, testGuild, "2025-06-03").BhaiCount)

	c, err := counters.Get(ctx, testUser)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.EqualValues(t, 4, c.GlobalBhaiCount)

	total, err := svc.Count(ctx, testUser, testGuild)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
}

func TestLeaderboardScopes(t *testing.T) {
	ctx := context.Background()
	svc, _, _, counters := newCounterFixture(t)

	names := []string{"Alice", "Bob", "Carol", "Dan", "Eve", "Frank", "Grace"}
	for n, name := range names {
		for range n + 1 {
			require.NoError(t, counters.IncrementBhai(ctx, name, name))
		}
	}

	top, err := svc.Leaderboard(ctx, ScopeTop5)
	require.NoError(t, err)
	require.Len(t, top, 5)
	assert.Equal(t, "Grace", top[0].DisplayName)
	assert.EqualValues(t, 7, top[0].Count)

	lower, err := svc.Leaderboard(ctx, ScopeLower5)
	require.NoError(t, err)
	require.Len(t, lower, 5)
	// Lower board still lists highest of the slice first.
	assert.Equal(t, "Eve", lower[0].DisplayName)
	assert.Equal(t, "Alice", lower[4].DisplayName)

	all, err := svc.Leaderboard(ctx, ScopeAll)
	require.NoError(t, err)
	assert.Len(t, all, len(names))

	_, err = svc.Leaderboard(ctx, LeaderboardScope("bogus"))
	assert.Error(t, err)
}

func TestResync(t *testing.T) {
	ctx := context.Background()
	svc, logs, activity, counters := newCounterFixture(t)

	require.NoError(t, logs.IncrementBhai(ctx, "u1", testGuild, "2025-06-02", "Alice"))
	require.NoError(t, logs.IncrementBhai(ctx, "u1", testGuild, "2025-06-03", "Alice"))
	seedVoice(t, activity, "u1", "Alice", "2025-06-02", 3600, 300)
	seedVoice(t, activity, "u2", "Bob", "2025-06-02", 900, 0)

	// Drifted counter state to be repaired.
	require.NoError(t, counters.SetTotals(ctx, "u1", 99, 1, 1))

	updated, err := svc.Resync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	c1, err := counters.Get(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, c1.GlobalBhaiCount)
	assert.InDelta(t, 3600, c1.TotalRegularSeconds, 0.01)
	assert.InDelta(t, 300, c1.TotalOvertimeSeconds, 0.01)

	c2, err := counters.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Zero(t, c2.GlobalBhaiCount)
	assert.InDelta(t, 900, c2.TotalRegularSeconds, 0.01)
}
