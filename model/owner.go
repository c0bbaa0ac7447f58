package model

import "time"

// Owner is the root row of one player's saved item state.
type Owner struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Capacity  int       `gorm:"not null" json:"capacity"`
	Revision  int64     `gorm:"default:0" json:"revision"` // bumped on every save
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
