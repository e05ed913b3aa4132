package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	"storefront/internal/infra/notifylog"
	"storefront/internal/infra/payment"
	"storefront/internal/infra/push"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/infra/sessionstore"
	"storefront/internal/logger"
	repo "storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"go.uber.org/zap"
)

const sessionPurgeInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log, err := logger.New(cfg.IsProd(), cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg.DSN(), !cfg.IsProd())
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal("db migrate failed", zap.Error(err))
	}

	//セッション保存先
	var sessions repo.SessionStore
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		rs := sessionstore.NewRedisStore(sessionstore.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			PoolSize: cfg.RedisPoolSize,
		})
		if err := rs.Ping(ctx); err != nil {
			log.Fatal("redis ping failed", zap.Error(err))
		}
		defer rs.Close()
		sessions = rs
	default:
		gs := sessionstore.NewGormStore(gormDB)
		go purgeSessions(ctx, gs, log)
		sessions = gs
	}

	//決済
	gateway := payment.NewStripeGateway(payment.StripeConfig{
		SecretKey:     cfg.StripeSecretKey,
		PublicKey:     cfg.StripePublicKey,
		WebhookSecret: cfg.StripeWebhookSecret,
	})

	//プッシュ通知
	var sender repo.PushSender = push.DisabledSender{}
	if cfg.FirebaseCredentialsFile != "" {
		fcm, err := push.NewFCMSender(ctx, cfg.FirebaseCredentialsFile)
		if err != nil {
			log.Warn("fcm disabled", zap.Error(err))
		} else {
			sender = fcm
		}
	}

	//通知ログ
	var deliveryLogs repo.DeliveryLogRepository = notifylog.Discard{}
	if cfg.MongoURI != "" {
		mr, err := notifylog.NewMongoRepository(ctx, notifylog.MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
		if err != nil {
			log.Warn("mongo unavailable, delivery logs discarded", zap.Error(err))
		} else {
			defer mr.Close(context.Background())
			deliveryLogs = mr
		}
	}

	//Repository（GORM実装）
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	couponRepo := infraRepo.NewCouponGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	reviewRepo := infraRepo.NewReviewGormRepository(gormDB)
	wishlistRepo := infraRepo.NewWishlistGormRepository(gormDB)
	deviceTokenRepo := infraRepo.NewDeviceTokenGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	dashboardRepo := infraRepo.NewDashboardGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//Usecase
	authUC := usecase.NewAuthUsecase(cfg, userRepo, validator.NewAuthValidator(userRepo))
	auditUC := usecase.NewAuditUsecase(auditRepo)
	productUC := usecase.NewProductUsecase(productRepo, categoryRepo, inventoryRepo, reviewRepo, auditRepo)
	cartUC := usecase.NewCartUsecase(productRepo, couponRepo)
	couponUC := usecase.NewCouponUsecase(couponRepo, productRepo, auditRepo)
	orderUC := usecase.NewOrderUsecase(txm, orderRepo, addressRepo, userRepo, log)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm)
	addressUC := usecase.NewAddressUsecase(addressRepo)
	paymentUC := usecase.NewPaymentUsecase(cfg, orderRepo, txm, gateway, log)
	notificationUC := usecase.NewNotificationUsecase(deviceTokenRepo, sender, deliveryLogs, log)
	reviewUC := usecase.NewReviewUsecase(reviewRepo, productRepo)
	wishlistUC := usecase.NewWishlistUsecase(wishlistRepo, productRepo)
	recommendationUC := usecase.NewRecommendationUsecase(productRepo, orderItemRepo, wishlistRepo)
	dashboardUC := usecase.NewDashboardUsecase(dashboardRepo, log)
	exportUC := usecase.NewExportUsecase(dashboardRepo, log)

	//Server
	srv := server.New(cfg, log, sessions)
	srv.RegisterRoutes(server.Handlers{
		Auth:           handler.NewAuthHandler(cfg, userRepo, authUC),
		AdminUser:      handler.NewAdminUserHandler(cfg, userRepo, authUC, auditUC),
		Product:        handler.NewProductHandler(productUC),
		AdminProduct:   handler.NewAdminProductHandler(productUC),
		Cart:           handler.NewCartHandler(cartUC),
		Coupon:         handler.NewCouponHandler(couponUC),
		Order:          handler.NewOrderHandler(orderUC),
		AdminOrder:     handler.NewAdminOrderHandler(adminOrderUC),
		Address:        handler.NewAddressHandler(addressUC),
		Payment:        handler.NewPaymentHandler(paymentUC),
		Notification:   handler.NewNotificationHandler(notificationUC),
		Review:         handler.NewReviewHandler(reviewUC),
		Wishlist:       handler.NewWishlistHandler(wishlistUC, log),
		Recommendation: handler.NewRecommendationHandler(recommendationUC),
		Dashboard:      handler.NewDashboardHandler(dashboardUC, exportUC),
	}, userRepo)

	if err := srv.Run(ctx); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
	log.Info("server stopped")
}

// DBセッションの期限切れを定期的に消す
func purgeSessions(ctx context.Context, store *sessionstore.GormStore, log *zap.Logger) {
	t := time.NewTicker(sessionPurgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				log.Warn("session purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("expired sessions purged", zap.Int64("count", n))
			}
		}
	}
}
