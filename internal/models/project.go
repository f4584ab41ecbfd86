package models

import (
	"time"

	"github.com/lib/pq"
)

// Project is a workspace that scopes calls, transcripts and suggestion
// context. ID is a human-readable slug derived from the name; Token guards
// every project-scoped endpoint and is returned only once, on create. One
// token may own several projects, so the index is not unique.
type Project struct {
	ID          string `gorm:"column:id;type:text;primaryKey" json:"id"`
	Name        string `gorm:"column:name;type:text" json:"name"`
	Token       string `gorm:"column:token;type:text;index" json:"-"`
	ContextText string `gorm:"column:context_text;type:text" json:"context_text"`
	LLMModel    string `gorm:"column:llm_model;type:text" json:"llm_model"`

	Files pq.StringArray `gorm:"column:files;type:text[]" json:"files"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Project) TableName() string { return "projects" }
