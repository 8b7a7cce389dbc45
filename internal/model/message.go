package model

import "time"

// Message is a persisted dialogue turn. Rows are written asynchronously by the
// persist worker; the answer pipeline itself only reads them.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserKey   string    `gorm:"size:64;not null;index" json:"user_key"`
	Role      string    `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
