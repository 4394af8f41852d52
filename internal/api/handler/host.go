package handler

import (
	"net/http"

	"github.com/mcoot/tablesync/internal/api/request"
	"github.com/mcoot/tablesync/internal/api/response"
	"github.com/mcoot/tablesync/internal/services/auth"
	"github.com/mcoot/tablesync/internal/services/session"
)

// HostHandler handles host console endpoints
type HostHandler struct {
	gate *auth.Gate
}

// NewHostHandler creates a new host handler
func NewHostHandler(gate *auth.Gate) *HostHandler {
	return &HostHandler{gate: gate}
}

// Login handles POST /api/host/login
func (h *HostHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.HostLoginRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if err := h.gate.AuthenticateHost(req.Password); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.OK())
}

// HealthHandler reports whether the store is reachable
type HealthHandler struct {
	router *session.Router
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(router *session.Router) *HealthHandler {
	return &HealthHandler{router: router}
}

// Check handles GET /api/health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if err := h.router.Ping(r.Context()); err != nil {
		response.JSON(w, http.StatusServiceUnavailable, response.Health{Status: "unavailable", Storage: "unreachable"})
		return
	}
	response.JSON(w, http.StatusOK, response.Health{Status: "ok", Storage: "ok"})
}
