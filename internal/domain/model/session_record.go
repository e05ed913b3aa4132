package model

import "time"

// DBセッション（SESSION_BACKEND=db のとき）
type SessionRecord struct {
	Key       string    `gorm:"primaryKey;type:varchar(64)"`
	Data      string    `gorm:"type:text;not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

func (SessionRecord) TableName() string { return "sessions" }
