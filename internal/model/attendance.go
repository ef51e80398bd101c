package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type AttendanceStatus string

const (
	StatusPresent       AttendanceStatus = "Present"
	StatusJoiningMidDay AttendanceStatus = "joining_mid_day"
	StatusLeavingMidDay AttendanceStatus = "leaving_mid_day"
	StatusAbsent        AttendanceStatus = "Absent"
)

// PresentStatuses are the statuses under which a user counts as checked in.
var PresentStatuses = []AttendanceStatus{StatusPresent, StatusJoiningMidDay, StatusLeavingMidDay}

// IsPresentKind reports whether the status means the user checked in today
// (full day or either half-day variant).
func (s AttendanceStatus) IsPresentKind() bool {
	switch s {
	case StatusPresent, StatusJoiningMidDay, StatusLeavingMidDay:
		return true
	}
	return false
}

// Label returns the human-readable form of the status.
func (s AttendanceStatus) Label() string {
	switch s {
	case StatusJoiningMidDay, StatusLeavingMidDay:
		return "Half Day"
	default:
		return string(s)
	}
}

type CommandKind string

const (
	CommandPresent  CommandKind = "present"
	CommandHalfDay  CommandKind = "halfday"
	CommandLunch    CommandKind = "lunch"
	CommandAway     CommandKind = "away"
	CommandResume   CommandKind = "resume"
	CommandDrop     CommandKind = "drop"
	CommandAutoDrop CommandKind = "auto-drop"
	CommandAbsent   CommandKind = "absent"
)

// IsBreak reports whether the kind opens a break interval closed by resume.
func (k CommandKind) IsBreak() bool {
	return k == CommandLunch || k == CommandAway
}

// IsCheckIn reports whether the kind opens the day's check-in interval closed
// by drop.
func (k CommandKind) IsCheckIn() bool {
	return k == CommandPresent || k == CommandHalfDay
}

// IsDrop reports whether the kind records an end-of-day sign-out, whether
// user-issued or scheduler-issued.
func (k CommandKind) IsDrop() bool {
	return k == CommandDrop || k == CommandAutoDrop
}

// CommandEvent is a single state transition in a day's log. Events of a
// check-in or break kind stay open until a later drop or resume closes them
// by setting EndTime; EventID makes that close an identifier-keyed update.
type CommandEvent struct {
	EventID     string           `bson:"event_id" json:"event_id"`
	Command     CommandKind      `bson:"command" json:"command"`
	Timestamp   time.Time        `bson:"timestamp" json:"timestamp"`
	HalfDayType AttendanceStatus `bson:"type,omitempty" json:"type,omitempty"`
	Reason      string           `bson:"reason,omitempty" json:"reason,omitempty"`
	EndTime     *time.Time       `bson:"end_time,omitempty" json:"end_time,omitempty"`
	Duration    float64          `bson:"duration,omitempty" json:"duration,omitempty"` // seconds, 2 decimal places
}

// Open reports whether the event opened an interval that has not been closed.
func (e *CommandEvent) Open() bool {
	return (e.Command.IsBreak() || e.Command.IsCheckIn()) && e.EndTime == nil
}

// DayLog is the per-user-per-day attendance document. At most one
// attendance-defining status is ever set; an unset AttendanceStatus means
// not-marked. Created on the first state-changing event of the day, never
// deleted.
type DayLog struct {
	ID               bson.ObjectID    `bson:"_id,omitempty" json:"id"`
	UserID           string           `bson:"user_id" json:"user_id"`
	GuildID          string           `bson:"guild_id" json:"guild_id"`
	Date             string           `bson:"date" json:"date"` // YYYY-MM-DD
	UserName         string           `bson:"user_name" json:"user_name"`
	AttendanceStatus AttendanceStatus `bson:"attendance_status,omitempty" json:"attendance_status,omitempty"`
	Reason           string           `bson:"reason,omitempty" json:"reason,omitempty"`
	BhaiCount        int64            `bson:"bhai_count,omitempty" json:"bhai_count,omitempty"`
	CommandsUsed     []CommandEvent   `bson:"commands_used" json:"commands_used"`
	CreatedAt        time.Time        `bson:"created_at,omitempty" json:"created_at"`
	UpdatedAt        time.Time        `bson:"updated_at,omitempty" json:"updated_at"`
}

// OpenBreak returns the most recent unclosed lunch/away event, or nil.
// The append-time guard means at most one can exist, but the contract is
// still last-opened-first.
func (l *DayLog) OpenBreak() *CommandEvent {
	for i := len(l.CommandsUsed) - 1; i >= 0; i-- {
		e := &l.CommandsUsed[i]
		if e.Command.IsBreak() && e.EndTime == nil {
			return e
		}
	}
	return nil
}

// CheckIn returns the day's check-in event (present or halfday), or nil.
func (l *DayLog) CheckIn() *CommandEvent {
	for i := range l.CommandsUsed {
		if l.CommandsUsed[i].Command.IsCheckIn() {
			return &l.CommandsUsed[i]
		}
	}
	return nil
}

// Dropped reports whether a drop or auto-drop event was recorded today.
func (l *DayLog) Dropped() bool {
	for i := range l.CommandsUsed {
		if l.CommandsUsed[i].Command.IsDrop() {
			return true
		}
	}
	return false
}

// LastEvent returns the most recently appended event, or nil.
func (l *DayLog) LastEvent() *CommandEvent {
	if len(l.CommandsUsed) == 0 {
		return nil
	}
	return &l.CommandsUsed[len(l.CommandsUsed)-1]
}
