package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/tablesync/internal/api/handler"
	"github.com/mcoot/tablesync/internal/api/middleware"
	"github.com/mcoot/tablesync/internal/metrics"
	"github.com/mcoot/tablesync/internal/realtime"
	"github.com/mcoot/tablesync/internal/services/auth"
	"github.com/mcoot/tablesync/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger   *slog.Logger
	Session  *session.Router
	Gate     *auth.Gate
	Realtime *realtime.Handler
	Metrics  *metrics.Recorder
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.Session)
	messageHandler := handler.NewMessageHandler(cfg.Session)
	hostHandler := handler.NewHostHandler(cfg.Gate)
	healthHandler := handler.NewHealthHandler(cfg.Session)

	// Create middleware
	hostMiddleware := middleware.RequireHost(cfg.Gate)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Metrics(cfg.Metrics))

	api := r.PathPrefix("/api").Subrouter()

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler.Check).Methods(http.MethodGet)

	// Player routes
	api.HandleFunc("/players", playerHandler.Create).Methods(http.MethodPost)
	api.Handle("/players", hostMiddleware(http.HandlerFunc(playerHandler.List))).Methods(http.MethodGet)
	api.HandleFunc("/players/{id:[0-9]+}", playerHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/players/{id:[0-9]+}", playerHandler.UpdateField).Methods(http.MethodPatch)
	api.HandleFunc("/players/{id:[0-9]+}/roll", playerHandler.Roll).Methods(http.MethodPost)
	api.HandleFunc("/players/{id:[0-9]+}/stats", playerHandler.UpdateStat).Methods(http.MethodPost)
	api.HandleFunc("/players/{id:[0-9]+}/messages", messageHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/players/{id:[0-9]+}/messages", messageHandler.SendFromPlayer).Methods(http.MethodPost)

	// Host routes
	api.HandleFunc("/host/login", hostHandler.Login).Methods(http.MethodPost)
	host := api.PathPrefix("/host").Subrouter()
	host.Use(hostMiddleware)
	host.HandleFunc("/players/{id:[0-9]+}/messages", messageHandler.SendFromHost).Methods(http.MethodPost)

	// Persistent channels
	r.HandleFunc("/ws", cfg.Realtime.ServeWS).Methods(http.MethodGet)
	r.HandleFunc("/events", cfg.Realtime.ServeSSE).Methods(http.MethodGet)

	r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)

	return r
}
