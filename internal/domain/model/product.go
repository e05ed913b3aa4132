package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 商品カテゴリ
type Category struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(200);not null;uniqueIndex" json:"name"`
	Slug      string    `gorm:"type:varchar(200);not null;uniqueIndex" json:"slug"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// 商品
// available=false はカタログから隠すだけで、注文履歴からは参照できる。
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID  int64           `gorm:"not null;index" json:"category_id"`
	Category    *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Name        string          `gorm:"type:varchar(200);not null;index" json:"name"`
	Slug        string          `gorm:"type:varchar(200);not null;uniqueIndex" json:"slug"`
	Brand       string          `gorm:"type:varchar(100);index" json:"brand"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Stock       int64           `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	Available   bool            `gorm:"not null;index" json:"available"`

	//人気順ソート用の販売数
	SalesCount     int64 `gorm:"not null;default:0" json:"sales_count"`
	IsLimitedOffer bool  `gorm:"not null;default:false" json:"is_limited_offer"`

	//スペック（key/value）
	Specs map[string]string `gorm:"type:jsonb;serializer:json" json:"specs"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// InStock は在庫が1以上あるか
func (p Product) InStock() bool {
	return p.Stock > 0
}
