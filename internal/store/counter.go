package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/model"
)

// CounterStore wraps the users collection of global per-user counters.
type CounterStore struct {
	users *mongo.Collection
}

func NewCounterStore(db *MongoDB) *CounterStore {
	return &CounterStore{users: db.Collection("users")}
}

// IncrementVoice adds regular/overtime seconds to a user's global totals,
// creating the counter on first use.
func (s *CounterStore) IncrementVoice(ctx context.Context, userID, displayName string, regular, overtime float64) error {
	inc := bson.M{}
	if regular != 0 {
		inc["total_regular_seconds"] = regular
	}
	if overtime != 0 {
		inc["total_overtime_seconds"] = overtime
	}
	if len(inc) == 0 {
		return nil
	}
	_, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$inc": inc,
		"$set": bson.M{"display_name": displayName},
	}, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("increment voice counter: %w", err)
	}
	return nil
}

// IncrementBhai bumps a user's global bhai count.
func (s *CounterStore) IncrementBhai(ctx context.Context, userID, displayName string) error {
	_, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$inc": bson.M{"global_bhai_count": 1},
		"$set": bson.M{"display_name": displayName},
	}, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("increment bhai counter: %w", err)
	}
	return nil
}

// SetTotals overwrites a user's aggregate fields, used by the resync repair
// path.
func (s *CounterStore) SetTotals(ctx context.Context, userID string, bhai int64, regular, overtime float64) error {
	_, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$set": bson.M{
			"global_bhai_count":      bhai,
			"total_regular_seconds":  regular,
			"total_overtime_seconds": overtime,
		},
	}, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("set counter totals: %w", err)
	}
	return nil
}

// Top returns counters ordered by the given field. Ascending selects the
// bottom of the board.
func (s *CounterStore) Top(ctx context.Context, sortField string, ascending bool, limit int64) ([]*model.UserCounter, error) {
	dir := -1
	if ascending {
		dir = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: sortField, Value: dir}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cursor, err := s.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find counters: %w", err)
	}
	var results []*model.UserCounter
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode counters: %w", err)
	}
	return results, nil
}

// Get returns a user's counter, or nil if none exists yet.
func (s *CounterStore) Get(ctx context.Context, userID string) (*model.UserCounter, error) {
	var c model.UserCounter
	err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find counter: %w", err)
	}
	return &c, nil
}
