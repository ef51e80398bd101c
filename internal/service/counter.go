package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// LeaderboardScope selects which slice of the ranking a query returns.
type LeaderboardScope string

const (
	ScopeTop5   LeaderboardScope = "top_5"
	ScopeLower5 LeaderboardScope = "lower_5"
	ScopeAll    LeaderboardScope = "all"
)

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	UserID      string
	DisplayName string
	Count       int64
}

// CounterService maintains the bhai tallies: a per-day count on the
// attendance log and a global running count on the user counter, incremented
// together on every recorded use.
type CounterService struct {
	logs     LogStore
	activity ActivityStore
	counters CounterStore
	logger   *zap.Logger
}

func NewCounterService(logs LogStore, activity ActivityStore, counters CounterStore, logger *zap.Logger) *CounterService {
	return &CounterService{logs: logs, activity: activity, counters: counters, logger: logger}
}

// RecordBhai bumps both the daily and the global count for one detected use.
// The two increments are not transactional; a crash between them is repaired
// by the next Resync.
func (s *CounterService) RecordBhai(ctx context.Context, userID, guildID, date, displayName string) error {
	if err := s.logs.IncrementBhai(ctx, userID, guildID, date, displayName); err != nil {
		return fmt.Errorf("increment daily bhai count: %w", err)
	}
	if err := s.counters.IncrementBhai(ctx, userID, displayName); err != nil {
		return fmt.Errorf("increment global bhai count: %w", err)
	}
	return nil
}

// Count returns a user's all-time count within one guild, summed over the
// daily logs.
func (s *CounterService) Count(ctx context.Context, userID, guildID string) (int64, error) {
	n, err := s.logs.BhaiTotal(ctx, userID, guildID)
	if err != nil {
		return 0, fmt.Errorf("sum bhai count: %w", err)
	}
	return n, nil
}

// Leaderboard returns the global ranking by bhai count for the requested
// scope. All scopes rank highest first.
func (s *CounterService) Leaderboard(ctx context.Context, scope LeaderboardScope) ([]LeaderboardEntry, error) {
	var limit int64 = 5
	ascending := false
	switch scope {
	case ScopeLower5:
		ascending = true
	case ScopeAll:
		limit = 0
	case ScopeTop5:
	default:
		return nil, fmt.Errorf("unknown leaderboard scope %q", scope)
	}

	counters, err := s.counters.Top(ctx, "global_bhai_count", ascending, limit)
	if err != nil {
		return nil, fmt.Errorf("query counters: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(counters))
	for _, c := range counters {
		entries = append(entries, LeaderboardEntry{
			UserID:      c.ID,
			DisplayName: c.DisplayName,
			Count:       c.GlobalBhaiCount,
		})
	}
	if ascending {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}
	return entries, nil
}

// Resync recomputes every global counter from the daily collections and
// overwrites the stored totals. Used by the admin update command to repair
// drift after partial writes.
func (s *CounterService) Resync(ctx context.Context) (int, error) {
	bhai, err := s.logs.AggregateBhaiTotals(ctx)
	if err != nil {
		return 0, fmt.Errorf("aggregate bhai totals: %w", err)
	}
	voice, err := s.activity.AggregateTotals(ctx)
	if err != nil {
		return 0, fmt.Errorf("aggregate voice totals: %w", err)
	}

	type totals struct {
		bhai     int64
		regular  float64
		overtime float64
	}
	merged := make(map[string]*totals)
	for _, row := range bhai {
		merged[row.UserID] = &totals{bhai: row.Bhai}
	}
	for _, row := range voice {
		t := merged[row.UserID]
		if t == nil {
			t = &totals{}
			merged[row.UserID] = t
		}
		t.regular = row.Regular
		t.overtime = row.Overtime
	}

	updated := 0
	for userID, t := range merged {
		if err := s.counters.SetTotals(ctx, userID, t.bhai, t.regular, t.overtime); err != nil {
			s.logger.Error("resync counter failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			continue
		}
		updated++
	}
	return updated, nil
}
