package models

import "time"

// MoodKind enumerates mood log values.
type MoodKind string

const (
	MoodHappy   MoodKind = "happy"
	MoodCalm    MoodKind = "calm"
	MoodTired   MoodKind = "tired"
	MoodSad     MoodKind = "sad"
	MoodAngry   MoodKind = "angry"
	MoodExcited MoodKind = "excited"
)

// Mood is a child's mood log entry for a calendar day.
type Mood struct {
	ID         string    `db:"id" json:"id"`
	ChildID    string    `db:"child_id" json:"child_id"`
	Mood       MoodKind  `db:"mood" json:"mood"`
	Note       string    `db:"note" json:"note"`
	RecordedOn time.Time `db:"recorded_on" json:"recorded_on"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// RecordMoodRequest logs a mood for today.
type RecordMoodRequest struct {
	Mood MoodKind `json:"mood" validate:"required,oneof=happy calm tired sad angry excited"`
	Note string   `json:"note"`
}
