package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StreamSession records the lifecycle of one websocket call.
type StreamSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"` // uuid v4
	ProjectID string             `bson:"project_id,omitempty" json:"project_id,omitempty"`
	Source    string             `bson:"source,omitempty" json:"source,omitempty"`

	Status string `bson:"status" json:"status"` // active|ended

	StartedAt       time.Time  `bson:"started_at" json:"started_at"`
	EndedAt         *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`
	DurationSeconds int64      `bson:"duration_seconds" json:"duration_seconds"`

	// TopicsSummary condenses what was discussed, for listing UIs.
	TopicsSummary string `bson:"topics_summary,omitempty" json:"topics_summary,omitempty"`

	// Totals is keyed by speaker name and filled when the session ends.
	Totals map[string]SpeakerTotals `bson:"totals,omitempty" json:"totals,omitempty"`
}

type SpeakerTotals struct {
	Bytes  int64 `bson:"bytes" json:"bytes"`
	Chunks int64 `bson:"chunks" json:"chunks"`
	Lines  int64 `bson:"lines" json:"lines"`
}
