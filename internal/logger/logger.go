package logger

import (
	"go.uber.org/zap"

	"github.com/aliskhannn/testroom/internal/config"
)

// New builds the application logger: JSON in production, console otherwise.
// Every entry carries the service name and environment.
func New(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if cfg.Env == "production" {
		zc = zap.NewProductionConfig()
	}

	zc.InitialFields = map[string]any{
		"service": "testroom",
		"env":     cfg.Env,
	}

	return zc.Build()
}
