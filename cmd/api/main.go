package main

import (
	"context"
	"log"
	"time"

	"laptophub/internal/config"
	"laptophub/internal/domain/model"
	"laptophub/internal/handler"
	"laptophub/internal/infra/db"
	infraRepo "laptophub/internal/infra/repository"
	"laptophub/internal/server"
	"laptophub/internal/usecase"

	"github.com/joho/godotenv"
)

func main() {
	//.envはローカル開発用。無くてもよい（本番は環境変数で渡す）
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Payment{},
		&model.StockMovement{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	//Repository（GORM実装）生成
	txManager := infraRepo.NewTxManagerGorm(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	paymentRepo := infraRepo.NewPaymentGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)

	//Usecase生成
	expireAfter := time.Duration(cfg.OrderExpireMinutes) * time.Minute
	authUC := usecase.NewAuthUsecase(userRepo, cfg.JWTSecret, 15*time.Minute)
	productUC := usecase.NewProductUsecase(productRepo, txManager)
	cartUC := usecase.NewCartUsecase(cartRepo, cartRepo, productRepo)
	orderUC := usecase.NewOrderUsecase(txManager, expireAfter)
	paymentUC := usecase.NewPaymentUsecase(txManager, paymentRepo, orderRepo)

	//Handler生成
	h := server.Handlers{
		Auth:    handler.NewAuthHandler(authUC),
		Product: handler.NewProductHandler(productUC),
		Cart:    handler.NewCartHandler(cartUC),
		Order:   handler.NewOrderHandler(orderUC),
		Payment: handler.NewPaymentHandler(paymentUC),
	}

	//期限切れ注文の掃除（定期実行）。0なら手動エンドポイントのみ。
	if cfg.SweepIntervalMinutes > 0 {
		go runExpireSweep(orderUC, time.Duration(cfg.SweepIntervalMinutes)*time.Minute)
	}

	e := server.New(cfg, h)

	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func runExpireSweep(uc *usecase.OrderUsecase, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		count, err := uc.ExpirePendingPayment(context.Background())
		if err != nil {
			log.Printf("expire sweep: %v", err)
			continue
		}
		if count > 0 {
			log.Printf("expire sweep: expired %d orders", count)
		}
	}
}
