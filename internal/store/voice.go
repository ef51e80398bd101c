package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/model"
)

// VoiceStore wraps the daily_activity collection.
type VoiceStore struct {
	activity *mongo.Collection
}

func NewVoiceStore(ctx context.Context, db *MongoDB) (*VoiceStore, error) {
	activity := db.Collection("daily_activity")

	if _, err := activity.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "guild_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "guild_id", Value: 1}, {Key: "date", Value: 1}}},
	}); err != nil {
		return nil, fmt.Errorf("create daily_activity indexes: %w", err)
	}

	return &VoiceStore{activity: activity}, nil
}

// AppendSession pushes a completed interval and bumps the matching running
// total in a single update, so the interval list and the totals can never
// drift apart.
func (s *VoiceStore) AppendSession(ctx context.Context, userID, guildID, date, userName string, iv model.SessionInterval) error {
	totalField := "total_duration"
	if iv.Status == model.ClassOvertime {
		totalField = "overtime_duration"
	}

	_, err := s.activity.UpdateOne(ctx, bson.M{
		"user_id":  userID,
		"guild_id": guildID,
		"date":     date,
	}, bson.M{
		"$set":  bson.M{"user_name": userName, "updated_at": time.Now()},
		"$push": bson.M{"sessions": iv},
		"$inc":  bson.M{totalField: iv.Duration},
	}, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("append voice session: %w", err)
	}
	return nil
}

// QueryRange returns voice day documents for a guild between two YYYY-MM-DD
// dates inclusive, optionally filtered to one user.
func (s *VoiceStore) QueryRange(ctx context.Context, guildID, from, to, userID string) ([]*model.VoiceDay, error) {
	filter := bson.M{"guild_id": guildID, "date": bson.M{"$gte": from, "$lte": to}}
	if userID != "" {
		filter["user_id"] = userID
	}
	cursor, err := s.activity.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find voice days: %w", err)
	}
	var results []*model.VoiceDay
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode voice days: %w", err)
	}
	return results, nil
}

// AggregateTotals groups regular and overtime seconds by user across every
// voice day, used by the counter resync.
func (s *VoiceStore) AggregateTotals(ctx context.Context) ([]model.UserTotal, error) {
	cursor, err := s.activity.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":            "$user_id",
			"total_regular":  bson.M{"$sum": "$total_duration"},
			"total_overtime": bson.M{"$sum": "$overtime_duration"},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate voice totals: %w", err)
	}
	var rows []model.UserTotal
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode voice totals: %w", err)
	}
	return rows, nil
}
