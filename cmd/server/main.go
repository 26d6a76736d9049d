package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"taskboard/internal/config"
	"taskboard/internal/handler"
	"taskboard/internal/httpserver"
	"taskboard/internal/repository"
	authsvc "taskboard/internal/service/auth"
	tasksvc "taskboard/internal/service/task"
	"taskboard/internal/session"
	"taskboard/internal/view"
	"taskboard/pkg/db"
	"taskboard/pkg/logger"
	"taskboard/pkg/mq"
	redisclient "taskboard/pkg/redis"
)

func main() {
	// Load config
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := repository.EnsureSchema(ctx, dbConn); err != nil {
		cancel()
		log.Fatal("Schema migration failed", zap.Error(err))
	}
	cancel()

	// Init Redis
	rdb := redisclient.NewClient(cfg.Redis)
	defer rdb.Close()

	// Init RabbitMQ Publisher (optional; task events are best effort)
	var publisher *mq.Publisher
	var events tasksvc.Publisher
	if cfg.MQ.URL != "" {
		p, err := mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Warn("MQ unavailable, task events disabled", zap.Error(err))
		} else {
			defer p.Close()
			publisher = p
			events = p
		}
	}

	// Init Repositories
	userRepo := repository.NewUserRepository(dbConn)
	taskRepo := repository.NewTaskRepository(dbConn, log)

	// Init Services
	authService := authsvc.NewService(userRepo, log)
	taskService := tasksvc.NewService(taskRepo, rdb, events, log)

	// Sessions
	sessionTTL := time.Duration(cfg.Session.TTLMinutes) * time.Minute
	sessions := session.NewStore(sessionTTL)

	// Init Handlers
	render := view.HTML{}
	authHandler := handler.NewAuthHandler(authService, sessions, render, cfg.Session.CookieName, sessionTTL, log)
	taskHandler := handler.NewTaskHandler(taskService, render, log)

	// Router
	router := httpserver.NewRouter(authHandler, taskHandler, sessions, cfg.Session.CookieName, sessionTTL, log, dbConn, publisher)
	router.LoadHTMLGlob("web/templates/*.html")

	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("server start failed", zap.Error(err))
	}
}
