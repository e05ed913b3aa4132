// Package session はCookieで識別する匿名セッションの中身を持つ。
package session

import (
	"slices"

	"storefront/internal/domain/cart"
)

const RecentlyViewedLimit = 10

// Data はストアに保存されるJSON
type Data struct {
	Cart           []cart.Entry `json:"cart,omitempty"`
	CouponCode     string       `json:"coupon_code,omitempty"`
	RecentlyViewed []int64      `json:"recently_viewed,omitempty"`
	Wishlist       []int64      `json:"wishlist,omitempty"`
}

// Session はリクエスト1回分のセッション。変更があればmiddlewareが保存する。
type Session struct {
	Key      string
	data     Data
	modified bool
	isNew    bool
}

func New(key string, data Data, isNew bool) *Session {
	return &Session{Key: key, data: data, isNew: isNew}
}

func (s *Session) Data() Data {
	return s.data
}

func (s *Session) Modified() bool {
	return s.modified
}

func (s *Session) IsNew() bool {
	return s.isNew
}

func (s *Session) markModified() {
	s.modified = true
}

func (s *Session) CouponCode() string {
	return s.data.CouponCode
}

// cart.Session
func (s *Session) CartLines() []cart.Entry {
	return s.data.Cart
}

func (s *Session) SetCartLines(lines []cart.Entry) {
	s.data.Cart = lines
	s.markModified()
}

func (s *Session) SetCouponCode(code string) {
	s.data.CouponCode = code
	s.markModified()
}

func (s *Session) RecentlyViewed() []int64 {
	return s.data.RecentlyViewed
}

// PushRecentlyViewed は先頭に入れて重複を消し、上限で切る
func (s *Session) PushRecentlyViewed(productID int64) {
	list := make([]int64, 0, RecentlyViewedLimit)
	list = append(list, productID)
	for _, id := range s.data.RecentlyViewed {
		if id == productID {
			continue
		}
		if len(list) == RecentlyViewedLimit {
			break
		}
		list = append(list, id)
	}
	s.data.RecentlyViewed = list
	s.markModified()
}

func (s *Session) Wishlist() []int64 {
	return s.data.Wishlist
}

// ToggleWishlist は未ログイン用のお気に入り。追加したらtrue。
func (s *Session) ToggleWishlist(productID int64) bool {
	if i := slices.Index(s.data.Wishlist, productID); i >= 0 {
		s.data.Wishlist = slices.Delete(s.data.Wishlist, i, i+1)
		s.markModified()
		return false
	}
	s.data.Wishlist = append(s.data.Wishlist, productID)
	s.markModified()
	return true
}
