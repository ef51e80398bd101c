package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type SessionClass string

const (
	ClassRegular  SessionClass = "regular"
	ClassOvertime SessionClass = "overtime"
)

type DisconnectReason string

const (
	DisconnectLeft       DisconnectReason = "left"
	DisconnectHopped     DisconnectReason = "hopped"
	DisconnectAuto       DisconnectReason = "auto-disconnect"
	DisconnectShiftStart DisconnectReason = "shift_start"
	DisconnectManual     DisconnectReason = "manual"
)

// SessionInterval is one completed voice interval.
type SessionInterval struct {
	ChannelName string           `bson:"channel_name" json:"channel_name"`
	StartTime   time.Time        `bson:"start_time" json:"start_time"`
	EndTime     time.Time        `bson:"end_time" json:"end_time"`
	Duration    float64          `bson:"duration" json:"duration"` // seconds, 2 decimal places
	Disconnect  DisconnectReason `bson:"disconnect" json:"disconnect"`
	Status      SessionClass     `bson:"status" json:"status"`
}

// VoiceDay is the per-user-per-day voice activity document. TotalDuration
// (regular) and OvertimeDuration are running sums maintained by the same
// update that appends an interval, never recomputed from the list.
type VoiceDay struct {
	ID               bson.ObjectID     `bson:"_id,omitempty" json:"id"`
	UserID           string            `bson:"user_id" json:"user_id"`
	GuildID          string            `bson:"guild_id" json:"guild_id"`
	Date             string            `bson:"date" json:"date"` // YYYY-MM-DD of the session start's local day
	UserName         string            `bson:"user_name" json:"user_name"`
	Sessions         []SessionInterval `bson:"sessions" json:"sessions"`
	TotalDuration    float64           `bson:"total_duration" json:"total_duration"`
	OvertimeDuration float64           `bson:"overtime_duration" json:"overtime_duration"`
	UpdatedAt        time.Time         `bson:"updated_at,omitempty" json:"updated_at"`
}
