package models

import (
	"time"

	"gorm.io/datatypes"
)

// SuggestionExchange logs one accepted answer from the suggestion endpoint,
// with the token usage the backend reported.
type SuggestionExchange struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProjectID string `gorm:"column:project_id;type:text;index" json:"project_id"`
	Model     string `gorm:"column:model;type:text" json:"model"`
	Reply     string `gorm:"column:reply;type:text" json:"reply"`

	Usage datatypes.JSON `gorm:"column:usage;type:jsonb" json:"usage"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (SuggestionExchange) TableName() string { return "suggestion_exchanges" }
