package model

import "time"

type DeviceType string

const (
	DeviceAndroid DeviceType = "android"
	DeviceIOS     DeviceType = "ios"
)

// プッシュ通知の送信先
type DeviceToken struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64      `gorm:"not null;uniqueIndex:idx_device_user_token" json:"user_id"`
	Token      string     `gorm:"type:varchar(512);not null;uniqueIndex:idx_device_user_token" json:"token"`
	DeviceType DeviceType `gorm:"type:varchar(10);not null;default:'android'" json:"device_type"`
	CreatedAt  time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
