package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountFlat    DiscountType = "flat"
	DiscountPercent DiscountType = "percent"
)

type Coupon struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Code           string          `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	DiscountType   DiscountType    `gorm:"type:varchar(10);not null" json:"discount_type"`
	DiscountValue  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"discount_value"`
	MinOrderAmount decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"min_order_amount"`
	ValidFrom      time.Time       `gorm:"not null" json:"valid_from"`
	ValidTo        time.Time       `gorm:"not null" json:"valid_to"`
	Active         bool            `gorm:"not null" json:"active"`

	//0は無制限
	UsageLimit int64 `gorm:"not null;default:0" json:"usage_limit"`
	UsedCount  int64 `gorm:"not null;default:0" json:"used_count"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
