package models

import (
	"encoding/json"
	"time"
)

type Design struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserEmail string    `json:"-" gorm:"not null;index:idx_designs_user"`
	Name      string    `json:"name" gorm:"not null"`
	Data      string    `json:"data" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SaveDesignRequest accepts data as a JSON string or any JSON value; it is
// stored as opaque text.
type SaveDesignRequest struct {
	Name *string         `json:"name"`
	Data json.RawMessage `json:"data"`
}

type UpdateDesignRequest struct {
	Name *string         `json:"name"`
	Data json.RawMessage `json:"data"`
}
