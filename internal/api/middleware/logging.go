package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/tablesync/internal/middleware"
)

// Logging creates request logging middleware for the API
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger)
}

// Metrics creates request metrics middleware for the API
func Metrics(observer middleware.HTTPObserver) func(http.Handler) http.Handler {
	return middleware.Metrics(observer)
}
