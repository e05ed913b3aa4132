package server

import (
	"storefront/internal/handler"
	repo "storefront/internal/repository"
)

// Handlers は登録するハンドラ一式
type Handlers struct {
	Auth           *handler.AuthHandler
	AdminUser      *handler.AdminUserHandler
	Product        *handler.ProductHandler
	AdminProduct   *handler.AdminProductHandler
	Cart           *handler.CartHandler
	Coupon         *handler.CouponHandler
	Order          *handler.OrderHandler
	AdminOrder     *handler.AdminOrderHandler
	Address        *handler.AddressHandler
	Payment        *handler.PaymentHandler
	Notification   *handler.NotificationHandler
	Review         *handler.ReviewHandler
	Wishlist       *handler.WishlistHandler
	Recommendation *handler.RecommendationHandler
	Dashboard      *handler.DashboardHandler
}

func (s *Server) RegisterRoutes(h Handlers, userRepo repo.UserRepository) {
	e := s.echo

	//公開
	h.Auth.RegisterRoutes(e)
	h.Product.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e)

	//ログイン必須を含む
	h.Coupon.RegisterRoutes(e, s.cfg, userRepo)
	h.Order.RegisterRoutes(e, s.cfg, userRepo)
	h.Address.RegisterRoutes(e, s.cfg, userRepo)
	h.Payment.RegisterRoutes(e, s.cfg, userRepo)
	h.Notification.RegisterRoutes(e, s.cfg, userRepo)
	h.Review.RegisterRoutes(e, s.cfg, userRepo)
	h.Wishlist.RegisterRoutes(e, s.cfg, userRepo)
	h.Recommendation.RegisterRoutes(e, s.cfg, userRepo)

	//管理者
	h.AdminUser.RegisterRoutes(e)
	h.AdminProduct.RegisterRoutes(e, s.cfg, userRepo)
	h.AdminOrder.RegisterRoutes(e, s.cfg, userRepo)
	h.Dashboard.RegisterRoutes(e, s.cfg, userRepo)
}
