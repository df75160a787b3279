package logger

import (
	"go.uber.org/zap"
)

// New returns a JSON production logger, or a console logger when env is
// "development" or "local".
func New(env string) (*zap.Logger, error) {
	switch env {
	case "development", "local":
		return zap.NewDevelopment()
	default:
		return zap.NewProduction()
	}
}
