// Package api serves the reading tracker over HTTP: a JSON API, a server-sent
// events stream per reading, and the Telegram webhook endpoint.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"bookshelf/internal/viewmodel"
)

// UpdateHandler consumes Telegram updates delivered to the webhook
type UpdateHandler interface {
	HandleWebhookUpdate(update tgbotapi.Update)
}

// Options configure authentication of API requests
type Options struct {
	// WebhookMode enables Telegram Mini App authentication. In polling mode
	// (local development) requests are not authenticated.
	WebhookMode    bool
	BotToken       string
	AllowedUserIDs []int64

	// Now is used to check initData freshness; defaults to time.Now
	Now func() time.Time
}

// Server holds the HTTP handlers
type Server struct {
	screens *viewmodel.Factory
	updates UpdateHandler
	opts    Options
	allowed map[int64]bool
	logger  *zap.Logger
}

// NewServer creates the HTTP server. updates may be nil when no bot is running.
func NewServer(screens *viewmodel.Factory, updates UpdateHandler, opts Options, logger *zap.Logger) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	allowed := make(map[int64]bool)
	for _, id := range opts.AllowedUserIDs {
		allowed[id] = true
	}

	return &Server{
		screens: screens,
		updates: updates,
		opts:    opts,
		allowed: allowed,
		logger:  logger,
	}
}

// Router builds the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/health", s.health)
	router.GET("/", func(c *gin.Context) {
		mode := "polling"
		if s.opts.WebhookMode {
			mode = "webhook"
		}
		c.String(http.StatusOK, "Bookshelf is running (mode: %s)", mode)
	})

	if s.updates != nil {
		router.POST("/telegram-webhook", s.telegramWebhook)
	}

	readings := router.Group("/api/readings", s.authMiddleware())
	{
		readings.GET("", s.listActive)
		readings.POST("", s.create)
		readings.GET("/trash", s.listTrashed)
		readings.GET("/:id", s.get)
		readings.PUT("/:id", s.update)
		readings.POST("/:id/progress", s.addProgress)
		readings.DELETE("/:id", s.moveToTrash)
		readings.POST("/:id/restore", s.restore)
		readings.DELETE("/:id/permanent", s.purge)
		readings.GET("/:id/watch", s.watch)
	}

	return router
}

// requestLogger logs every request with zap
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_addr", c.ClientIP()),
		)
	}
}

type healthResponse struct {
	Status string            `json:"status"`
	Time   string            `json:"time"`
	Checks map[string]string `json:"checks"`
}

// health reports whether storage is reachable
func (s *Server) health(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if _, err := s.screens.Main().Books(c.Request.Context()); err != nil {
		checks["storage"] = "error: " + err.Error()
		status = "unhealthy"
	} else {
		checks["storage"] = "ok"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, healthResponse{
		Status: status,
		Time:   s.opts.Now().Format(time.RFC3339),
		Checks: checks,
	})
}

// telegramWebhook accepts updates pushed by Telegram
func (s *Server) telegramWebhook(c *gin.Context) {
	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		s.logger.Warn("Error decoding webhook update", zap.Error(err))
		c.Status(http.StatusBadRequest)
		return
	}

	// Process update in background to respond quickly to Telegram
	go s.updates.HandleWebhookUpdate(update)

	c.Status(http.StatusOK)
}
