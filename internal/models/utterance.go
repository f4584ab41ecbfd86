package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Utterance is one emitted transcription line, kept for a day so recent
// calls can be inspected without pulling the archived transcript.
type Utterance struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"`
	Speaker   string             `bson:"speaker" json:"speaker"` // user|other
	Text      string             `bson:"text" json:"text"`

	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"` // for TTL index
}
