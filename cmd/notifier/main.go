package main // notification worker entry point

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/aminjonov/taskhub/internal/config"
	"github.com/aminjonov/taskhub/internal/queue"
)

func main() {
	_ = godotenv.Load()

	log := setupLogger(os.Getenv("APP_ENV"))
	log.Info("notification worker starting")

	// Blocks forever; the consumer owns its reconnect loop.
	queue.StartNotificationConsumer(config.BrokerURL(), log)
}

func setupLogger(env string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if env == "prod" {
		log.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}
	log.SetLevel(logrus.InfoLevel)
	return log
}
