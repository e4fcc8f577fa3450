package main // task service entry point

import (
	"log"

	"github.com/labstack/echo/v4"

	"github.com/aminjonov/taskhub/internal/config"
	"github.com/aminjonov/taskhub/internal/database"
	"github.com/aminjonov/taskhub/internal/handler"
	"github.com/aminjonov/taskhub/internal/queue"
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

	// One shared broker connection for the process; publish failures are
	// logged and never fail a request.
	pub := queue.NewPublisher(config.BrokerURL())
	defer pub.Close()

	e := echo.New()
	e.HideBanner = true
	router.RegisterTaskRoutes(e, handler.NewTaskHandler(repository.NewTaskRepo(db), pub), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("task service listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
