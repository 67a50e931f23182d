package main

import (
	"log"

	"smartsales/internal/config"
	"smartsales/internal/domain/model"
	"smartsales/internal/handler"
	"smartsales/internal/infra/db"
	infraRepo "smartsales/internal/infra/repository"
	"smartsales/internal/notify"
	"smartsales/internal/payment"
	"smartsales/internal/receipt"
	"smartsales/internal/server"
	"smartsales/internal/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	//.envは無くても動く（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var logger *zap.Logger
	if cfg.GoEnv == "prod" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.PaymentAttempt{},
		&model.Receipt{},
		&model.ReceiptCounter{},
		&model.Coupon{},
		&model.InventoryAdjustment{},
		&model.AuditLog{},
	); err != nil {
		logger.Fatal("migrate failed", zap.Error(err))
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	attemptRepo := infraRepo.NewPaymentAttemptGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//外部コラボレータ
	gateway, err := payment.NewStripeGateway(payment.StripeGatewayConfig{
		APIKey:   cfg.StripeSecretKey,
		Currency: cfg.StripeCurrency,
	})
	if err != nil {
		logger.Fatal("stripe init failed", zap.Error(err))
	}
	renderer := receipt.NewFileRenderer(cfg.ReceiptDir)
	notifier := notify.NewLogNotifier(logger)

	//Usecase生成
	authUC := usecase.NewAuthUsecase(cfg, userRepo)
	productUC := usecase.NewProductUsecase(productRepo, txManager, logger)
	cartUC := usecase.NewCartUsecase(cartRepo, cartRepo, productRepo, infraRepo.NewCouponGormRepository(gormDB), txManager)
	checkoutUC := usecase.NewCheckoutUsecase(txManager, gateway, cfg.GatewayTimeout, logger)
	receiptUC := usecase.NewReceiptUsecase(txManager, renderer, logger)
	paymentUC := usecase.NewPaymentUsecase(attemptRepo, txManager, gateway, cfg.GatewayTimeout, receiptUC, notifier, logger)
	orderUC := usecase.NewOrderUsecase(orderRepo, orderItemRepo)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, logger)

	//Handler生成
	handlers := server.Handlers{
		Auth:         handler.NewAuthHandler(authUC, cartUC),
		Product:      handler.NewProductHandler(productUC),
		Cart:         handler.NewCartHandler(cartUC),
		Checkout:     handler.NewCheckoutHandler(checkoutUC),
		Payment:      handler.NewPaymentHandler(paymentUC),
		Order:        handler.NewOrderHandler(orderUC, receiptUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
	}

	e := server.New(cfg, logger, handlers)

	logger.Info("starting server", zap.String("port", cfg.Port))
	if err := e.Start(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
