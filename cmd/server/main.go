package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/Nick0086/ManageSphere-sub000/internal/config"
	"github.com/Nick0086/ManageSphere-sub000/internal/database"
	"github.com/Nick0086/ManageSphere-sub000/internal/handler"
	"github.com/Nick0086/ManageSphere-sub000/internal/middleware"
	"github.com/Nick0086/ManageSphere-sub000/internal/notify"
	"github.com/Nick0086/ManageSphere-sub000/internal/queue"
	"github.com/Nick0086/ManageSphere-sub000/internal/repository"
	"github.com/Nick0086/ManageSphere-sub000/internal/router"
	"github.com/Nick0086/ManageSphere-sub000/internal/utils"
)

func main() {
	// .env is optional; in containers config comes from the environment.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment variables")
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()

	ids := utils.NewUUIDGenerator()
	users := repository.NewUserRepo(db, ids)
	sessions := repository.NewSessionRepo(db, ids)
	otps := repository.NewOTPRepo(db)
	invoices := repository.NewInvoiceRepo(db, ids)
	menu := repository.NewMenuRepo(db, ids)
	tables := repository.NewTableRepo(db, ids)
	orders := repository.NewOrderRepo(db, ids)

	h := router.Handlers{
		Auth:    handler.NewAuthHandler(cfg, users, sessions, otps, notify.NewLogSender(), ids),
		Invoice: handler.NewInvoiceHandler(invoices),
		Menu:    handler.NewMenuHandler(menu),
		Table:   handler.NewTableHandler(tables),
		Order:   handler.NewOrderHandler(orders, tables, menu),
		Public:  handler.NewPublicHandler(tables, menu),
	}
	gate := middleware.AuthGateConfig{
		JWTSecret: cfg.JWTSecret,
		AccessTTL: cfg.AccessTTL(),
		Secure:    cfg.SecureCookies(),
	}

	// Kitchen event consumer runs alongside the HTTP server and reconnects
	// on its own; a dead broker never blocks startup.
	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.Printf("order consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, h, gate, sessions, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
