package model

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

// 配送ステータスはこの順にしか進まない
const (
	OrderStatusPlaced         OrderStatus = "PLACED"
	OrderStatusPacked         OrderStatus = "PACKED"
	OrderStatusShipped        OrderStatus = "SHIPPED"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
)

var orderStatusSequence = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusPacked,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
}

// Rank は進行順の位置。未知のステータスは -1。
func (s OrderStatus) Rank() int {
	for i, v := range orderStatusSequence {
		if v == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) Valid() bool {
	return s.Rank() >= 0
}

// CanMoveTo は前に進む遷移だけ許可する
func (s OrderStatus) CanMoveTo(next OrderStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return next.Rank() > s.Rank()
}

const (
	TrackingNumberPrefix = "PS"
	trackingRandomLength = 8
	trackingAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

type Order struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	//注文時点の連絡先・住所
	FirstName  string `gorm:"type:varchar(50);not null" json:"first_name"`
	LastName   string `gorm:"type:varchar(50);not null" json:"last_name"`
	Email      string `gorm:"type:varchar(255);not null" json:"email"`
	Address    string `gorm:"type:varchar(250);not null" json:"address"`
	PostalCode string `gorm:"type:varchar(20);not null" json:"postal_code"`
	City       string `gorm:"type:varchar(100);not null" json:"city"`

	Paid   bool        `gorm:"not null;default:false;index" json:"paid"`
	Status OrderStatus `gorm:"type:varchar(20);not null;default:'PLACED';index" json:"status"`

	//一度だけ発行して以後変えない
	TrackingNumber string `gorm:"<-:create;type:varchar(20);not null;uniqueIndex" json:"tracking_number"`

	CouponID *int64          `gorm:"index" json:"coupon_id"`
	Coupon   *Coupon         `gorm:"foreignKey:CouponID" json:"-"`
	Discount decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"discount"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 初回保存時に追跡番号を採番
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.TrackingNumber != "" {
		return nil
	}
	tn, err := NewTrackingNumber()
	if err != nil {
		return err
	}
	o.TrackingNumber = tn
	return nil
}

// NewTrackingNumber は "PS" + 英大文字/数字8桁
func NewTrackingNumber() (string, error) {
	buf := make([]byte, trackingRandomLength)
	max := big.NewInt(int64(len(trackingAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = trackingAlphabet[n.Int64()]
	}
	return TrackingNumberPrefix + string(buf), nil
}

// 割引前の合計
func (o Order) TotalBeforeDiscount() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Cost())
	}
	return total
}

// 支払額（割引後）
func (o Order) TotalCost() decimal.Decimal {
	return o.TotalBeforeDiscount().Sub(o.Discount)
}
