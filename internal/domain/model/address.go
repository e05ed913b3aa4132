package model

import "time"

// 保存済みの配送先。注文時にOrderへコピーする。
type Address struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64  `gorm:"not null;index" json:"user_id"`
	FirstName string `gorm:"type:varchar(50);not null" json:"first_name"`
	LastName  string `gorm:"type:varchar(50);not null" json:"last_name"`

	//番地・建物名
	Line string `gorm:"type:varchar(250);not null" json:"address"`

	City       string `gorm:"type:varchar(100);not null" json:"city"`
	PostalCode string `gorm:"type:varchar(20);not null" json:"postal_code"`
	Phone      string `gorm:"type:varchar(30)" json:"phone"`

	//ユーザーごとにdefaultは1件
	IsDefault bool `gorm:"not null;default:false" json:"is_default"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
