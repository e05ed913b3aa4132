package model

import "time"

type AdjustmentReason string

const (
	AdjustmentManual   AdjustmentReason = "manual"
	AdjustmentCheckout AdjustmentReason = "checkout"
)

// 在庫の増減履歴。
// 管理者の手動変更はAdminUserID、注文による減算はOrderIDが入る。
type InventoryAdjustment struct {
	ID          int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64            `gorm:"not null;index" json:"product_id"`
	AdminUserID *int64           `gorm:"index" json:"admin_user_id"`
	OrderID     *int64           `gorm:"index" json:"order_id"`
	Kind        AdjustmentReason `gorm:"type:varchar(20);not null;default:'manual'" json:"kind"`
	Delta       int64            `gorm:"not null" json:"delta"`
	Note        string           `gorm:"type:varchar(255)" json:"note"`
	CreatedAt   time.Time        `gorm:"not null;autoCreateTime" json:"created_at"`
}
