package handler

import (
	"net/http"

	"github.com/mcoot/tablesync/internal/api/request"
	"github.com/mcoot/tablesync/internal/api/response"
	"github.com/mcoot/tablesync/internal/model"
	"github.com/mcoot/tablesync/internal/services/session"
)

// PlayerHandler handles player endpoints
type PlayerHandler struct {
	router *session.Router
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(router *session.Router) *PlayerHandler {
	return &PlayerHandler{
		router: router,
	}
}

// Create handles POST /api/players
func (h *PlayerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePlayerRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	player, err := h.router.CreatePlayer(r.Context(), req.ToNewPlayer())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.CreatePlayer{Success: true, PlayerID: player.ID})
}

// List handles GET /api/players (host only)
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	players, err := h.router.ListPlayers(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	if players == nil {
		players = []*model.Player{}
	}

	response.JSON(w, http.StatusOK, response.Players{Success: true, Players: players})
}

// Get handles GET /api/players/{id}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := playerIDFromPath(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	player, err := h.router.GetPlayer(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Player{Success: true, Player: player})
}

// Roll handles POST /api/players/{id}/roll
func (h *PlayerHandler) Roll(w http.ResponseWriter, r *http.Request) {
	id, err := playerIDFromPath(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.RollDiceRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	player, err := h.router.RollDice(r.Context(), session.RollRequest{
		PlayerID: id,
		Roll:     req.Roll,
		Sides:    req.Sides,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Roll{Success: true, Roll: player.LastDiceRoll, Player: player})
}

// UpdateStat handles POST /api/players/{id}/stats
func (h *PlayerHandler) UpdateStat(w http.ResponseWriter, r *http.Request) {
	id, err := playerIDFromPath(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.UpdateStatRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	player, err := h.router.UpdateStat(r.Context(), id, req.Type, req.Value)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Player{Success: true, Player: player})
}

// UpdateField handles PATCH /api/players/{id}
func (h *PlayerHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	id, err := playerIDFromPath(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.UpdateFieldRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.Field == "" {
		WriteError(w, NewInvalidRequestError("field is required"))
		return
	}

	player, err := h.router.UpdatePlayerFieldJSON(r.Context(), id, req.Field, req.Value)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Player{Success: true, Player: player})
}
