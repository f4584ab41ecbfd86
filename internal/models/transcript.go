package models

import "time"

// TranscriptRecord indexes one archived call transcript. The text itself
// lives in object storage under StorageKey.
type TranscriptRecord struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProjectID string `gorm:"column:project_id;type:text;index" json:"project_id"`
	SessionID string `gorm:"column:session_id;type:uuid;index" json:"session_id"`

	StorageKey string `gorm:"column:storage_key;type:text" json:"storage_key"`
	LineCount  int    `gorm:"column:line_count;type:integer" json:"line_count"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (TranscriptRecord) TableName() string { return "transcript_records" }
