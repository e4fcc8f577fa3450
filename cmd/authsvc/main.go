package main // authentication service entry point

import (
	"log"

	"github.com/labstack/echo/v4"

	"github.com/aminjonov/taskhub/internal/config"
	"github.com/aminjonov/taskhub/internal/database"
	"github.com/aminjonov/taskhub/internal/handler"
	"github.com/aminjonov/taskhub/internal/middleware"
	"github.com/aminjonov/taskhub/internal/repository"
	"github.com/aminjonov/taskhub/internal/router"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional; without it the limiter becomes a passthrough.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting disabled")
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	e.HideBanner = true
	router.RegisterAuthRoutes(e, handler.NewAuthHandler(cfg, repository.NewUserRepo(db)), limiter)

	addr := ":" + cfg.Port
	log.Printf("auth service listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
