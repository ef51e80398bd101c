package model

// UserCounter is the global per-user tally, lazily created on first
// increment and recomputable from the daily collections.
type UserCounter struct {
	ID                   string  `bson:"_id" json:"id"` // user id
	DisplayName          string  `bson:"display_name" json:"display_name"`
	GlobalBhaiCount      int64   `bson:"global_bhai_count" json:"global_bhai_count"`
	TotalRegularSeconds  float64 `bson:"total_regular_seconds" json:"total_regular_seconds"`
	TotalOvertimeSeconds float64 `bson:"total_overtime_seconds" json:"total_overtime_seconds"`
}

// UserTotal is one row of an aggregation over the daily collections, used by
// the counter resync.
type UserTotal struct {
	UserID   string  `bson:"_id"`
	Bhai     int64   `bson:"total_bhai"`
	Regular  float64 `bson:"total_regular"`
	Overtime float64 `bson:"total_overtime"`
}
