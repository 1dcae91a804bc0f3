package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options configures the admin API router.
type Options struct {
	Token          string
	IsAdmin        func(userID int64) bool
	MaxUploadBytes int64
}

type Handler struct {
	tests          TestAdmin
	logger         *zap.Logger
	maxUploadBytes int64
}

// NewRouter builds the HTTP API used by administrators to manage tests.
func NewRouter(tests TestAdmin, logger *zap.Logger, opts Options) *gin.Engine {
	h := &Handler{
		tests:          tests,
		logger:         logger,
		maxUploadBytes: opts.MaxUploadBytes,
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(adminRequired(opts.Token, opts.IsAdmin))
	{
		tests := api.Group("/tests")
		tests.GET("", h.listTests)
		tests.POST("", h.createTest)
		tests.GET("/:id", h.getTest)
		tests.PATCH("/:id", h.updateTest)
		tests.DELETE("/:id", h.deleteTest)
		tests.GET("/:id/attempts", h.listAttempts)
	}

	return router
}
