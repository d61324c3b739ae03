package main

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"driftchat/config"
	"driftchat/database"
	"driftchat/handlers"
	"driftchat/middleware"
	"driftchat/realtime"
	"driftchat/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	if err := database.Initialize(cfg.DBPath); err != nil {
		logrus.WithError(err).Fatal("failed to initialize database")
	}
	defer database.Close()

	middleware.Setup(cfg.JWTSecret, cfg.CookieName)

	images, err := storage.NewImageStore(cfg.UploadDir)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create upload directory")
	}

	registry := realtime.NewRegistry()
	relay := realtime.NewRelay(registry)
	h := handlers.New(registry, relay, images)

	logrus.WithField("port", cfg.Port).Info("server starting")
	if err := http.ListenAndServe(":"+cfg.Port, h.Router()); err != nil {
		logrus.WithError(err).Fatal("server failed")
	}
}
