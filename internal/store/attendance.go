package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/model"
)

// ErrAlreadySet is returned by MarkAttendanceIfUnset when the day already
// carries a terminal attendance status.
var ErrAlreadySet = errors.New("attendance status already set")

// AttendanceStore wraps the daily_logs collection.
type AttendanceStore struct {
	logs *mongo.Collection
}

func NewAttendanceStore(ctx context.Context, db *MongoDB) (*AttendanceStore, error) {
	logs := db.Collection("daily_logs")

	if _, err := logs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "guild_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "guild_id", Value: 1}, {Key: "date", Value: 1}}},
	}); err != nil {
		return nil, fmt.Errorf("create daily_logs indexes: %w", err)
	}

	return &AttendanceStore{logs: logs}, nil
}

func dayFilter(userID, guildID, date string) bson.M {
	return bson.M{"user_id": userID, "guild_id": guildID, "date": date}
}

// Find returns the day's log for a user, or nil if none exists.
func (s *AttendanceStore) Find(ctx context.Context, userID, guildID, date string) (*model.DayLog, error) {
	var log model.DayLog
	err := s.logs.FindOne(ctx, dayFilter(userID, guildID, date)).Decode(&log)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find day log: %w", err)
	}
	return &log, nil
}

// MarkAttendanceIfUnset sets the day's attendance status and appends the
// marking event in one conditional upsert. The filter only matches documents
// with no status yet; if the day already carries one, the upsert insert
// collides with the unique (user, guild, date) index and the duplicate-key
// error is reported as ErrAlreadySet. Two concurrent markings therefore
// cannot both win.
func (s *AttendanceStore) MarkAttendanceIfUnset(ctx context.Context, userID, guildID, date, userName string, status model.AttendanceStatus, reason string, ev model.CommandEvent) error {
	now := time.Now()
	filter := dayFilter(userID, guildID, date)
	filter["attendance_status"] = bson.M{"$exists": false}

	set := bson.M{
		"attendance_status": status,
		"user_name":         userName,
		"updated_at":        now,
	}
	if reason != "" {
		set["reason"] = reason
	}

	_, err := s.logs.UpdateOne(ctx, filter, bson.M{
		"$set":         set,
		"$push":        bson.M{"commands_used": ev},
		"$setOnInsert": bson.M{"created_at": now},
	}, options.UpdateOne().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadySet
	}
	if err != nil {
		return fmt.Errorf("mark attendance: %w", err)
	}
	return nil
}

// AppendBreakIfNone appends an open break event only if the user is checked
// in and no break is currently open. The open-break exclusion lives in the
// filter, so the "at most one open break" invariant is enforced at append
// time rather than at search time. Returns whether the event was appended.
func (s *AttendanceStore) AppendBreakIfNone(ctx context.Context, userID, guildID, date string, ev model.CommandEvent) (bool, error) {
	filter := dayFilter(userID, guildID, date)
	filter["attendance_status"] = bson.M{"$in": model.PresentStatuses}
	filter["commands_used"] = bson.M{"$not": bson.M{"$elemMatch": bson.M{
		"command":  bson.M{"$in": []model.CommandKind{model.CommandLunch, model.CommandAway}},
		"end_time": bson.M{"$exists": false},
	}}}

	res, err := s.logs.UpdateOne(ctx, filter, bson.M{
		"$push": bson.M{"commands_used": ev},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return false, fmt.Errorf("append break: %w", err)
	}
	return res.MatchedCount == 1, nil
}

// AppendEvent pushes a command event onto the day's log, creating the
// document if needed.
func (s *AttendanceStore) AppendEvent(ctx context.Context, userID, guildID, date, userName string, ev model.CommandEvent) error {
	now := time.Now()
	_, err := s.logs.UpdateOne(ctx, dayFilter(userID, guildID, date), bson.M{
		"$push":        bson.M{"commands_used": ev},
		"$set":         bson.M{"user_name": userName, "updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// CloseEvent sets end_time and duration on the event with the given id,
// provided it is still open. The open-event condition lives in the query
// filter, so an already-closed event matches no document and the result is
// reported through MatchedCount. Keying by event id keeps the update immune
// to concurrent appends shifting array indices. Returns whether the event was
// closed by this call.
func (s *AttendanceStore) CloseEvent(ctx context.Context, userID, guildID, date, eventID string, end time.Time, duration float64) (bool, error) {
	filter := dayFilter(userID, guildID, date)
	filter["commands_used"] = bson.M{"$elemMatch": bson.M{
		"event_id": eventID,
		"end_time": bson.M{"$exists": false},
	}}

	res, err := s.logs.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{
			"commands_used.$[ev].end_time": end,
			"commands_used.$[ev].duration": duration,
			"updated_at":                   time.Now(),
		},
	}, options.UpdateOne().SetArrayFilters([]any{
		bson.M{"ev.event_id": eventID, "ev.end_time": bson.M{"$exists": false}},
	}))
	if err != nil {
		return false, fmt.Errorf("close event: %w", err)
	}
	return res.MatchedCount == 1, nil
}

// QueryRange returns all day logs for a guild between two YYYY-MM-DD dates
// inclusive, optionally filtered to one user.
func (s *AttendanceStore) QueryRange(ctx context.Context, guildID, from, to, userID string) ([]*model.DayLog, error) {
	filter := bson.M{"guild_id": guildID, "date": bson.M{"$gte": from, "$lte": to}}
	if userID != "" {
		filter["user_id"] = userID
	}
	cursor, err := s.logs.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find day logs: %w", err)
	}
	var results []*model.DayLog
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode day logs: %w", err)
	}
	return results, nil
}

// OpenCheckIns returns the day's logs that still have an open check-in event,
// the population the auto-drop sweep acts on.
func (s *AttendanceStore) OpenCheckIns(ctx context.Context, guildID, date string) ([]*model.DayLog, error) {
	cursor, err := s.logs.Find(ctx, bson.M{
		"guild_id": guildID,
		"date":     date,
		"commands_used": bson.M{"$elemMatch": bson.M{
			"command":  bson.M{"$in": []model.CommandKind{model.CommandPresent, model.CommandHalfDay}},
			"end_time": bson.M{"$exists": false},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("find open check-ins: %w", err)
	}
	var results []*model.DayLog
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode open check-ins: %w", err)
	}
	return results, nil
}

// IncrementBhai bumps the day's bhai counter, creating the log if needed.
func (s *AttendanceStore) IncrementBhai(ctx context.Context, userID, guildID, date, userName string) error {
	now := time.Now()
	_, err := s.logs.UpdateOne(ctx, dayFilter(userID, guildID, date), bson.M{
		"$inc":         bson.M{"bhai_count": 1},
		"$set":         bson.M{"user_name": userName, "updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("increment bhai: %w", err)
	}
	return nil
}

// BhaiTotal sums a user's bhai counts across all daily logs in a guild.
func (s *AttendanceStore) BhaiTotal(ctx context.Context, userID, guildID string) (int64, error) {
	cursor, err := s.logs.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID, "guild_id": guildID}}},
		{{Key: "$group", Value: bson.M{"_id": "$user_id", "total_bhai": bson.M{"$sum": "$bhai_count"}}}},
	})
	if err != nil {
		return 0, fmt.Errorf("aggregate bhai total: %w", err)
	}
	var rows []model.UserTotal
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("decode bhai total: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Bhai, nil
}

// AggregateBhaiTotals groups bhai counts by user across every daily log,
// used by the counter resync.
func (s *AttendanceStore) AggregateBhaiTotals(ctx context.Context) ([]model.UserTotal, error) {
	cursor, err := s.logs.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$user_id", "total_bhai": bson.M{"$sum": "$bhai_count"}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate bhai totals: %w", err)
	}
	var rows []model.UserTotal
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode bhai totals: %w", err)
	}
	return rows, nil
}
