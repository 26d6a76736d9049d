package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"taskboard/internal/handler"
	"taskboard/internal/middleware"
	"taskboard/internal/session"
	"taskboard/pkg/metrics"
	"taskboard/pkg/mq"
)

func NewRouter(
	authHandler *handler.AuthHandler,
	taskHandler *handler.TaskHandler,
	sessions *session.Store,
	cookieName string,
	sessionTTL time.Duration,
	logger *zap.Logger,
	db *pgxpool.Pool,
	publisher *mq.Publisher,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		logger.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
			latency,
		)
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})
	r.GET("/readyz", func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c, 1*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
				return
			}
		}
		if publisher != nil && !publisher.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	web := r.Group("", middleware.SessionMiddleware(sessions, cookieName, sessionTTL, logger))

	web.GET("/", func(c *gin.Context) {
		if _, ok := middleware.CurrentUserID(c); ok {
			c.Redirect(http.StatusFound, "/read")
			return
		}
		c.Redirect(http.StatusFound, "/login")
	})

	anon := web.Group("", middleware.RequireAnonymous())
	anon.GET("/login", authHandler.ShowLogin)
	anon.GET("/register", authHandler.ShowRegister)
	anon.POST("/register", authHandler.Register)
	anon.POST("/login", authHandler.Login)

	web.GET("/logout", authHandler.Logout)

	authed := web.Group("", middleware.RequireAuthenticated(sessions))
	authed.GET("/create", taskHandler.ShowCreate)
	authed.POST("/tasks", taskHandler.Create)
	authed.GET("/read", taskHandler.List)
	authed.GET("/users/delete/:id", taskHandler.Delete)
	authed.GET("/users/update/:id", taskHandler.ShowUpdate)
	authed.POST("/update/task/:id", taskHandler.Update)

	return r
}
