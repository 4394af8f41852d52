package handler

import (
	"net/http"

	"github.com/mcoot/tablesync/internal/api/request"
	"github.com/mcoot/tablesync/internal/api/response"
	"github.com/mcoot/tablesync/internal/model"
	"github.com/mcoot/tablesync/internal/services/session"
)

// MessageHandler handles chat endpoints
type MessageHandler struct {
	router *session.Router
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(router *session.Router) *MessageHandler {
	return &MessageHandler{
		router: router,
	}
}

// List handles GET /api/players/{id}/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := playerIDFromPath(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	messages, err := h.router.ListMessages(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	if messages == nil {
		messages = []*model.Message{}
	}

	response.JSON(w, http.StatusOK, response.Messages{Success: true, Messages: messages})
}

// SendFromPlayer handles POST /api/players/{id}/messages
func (h *MessageHandler) SendFromPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := playerIDFromPath(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.MessageRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	msg, err := h.router.SendPlayerMessage(r.Context(), id, req.Content)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.Message{Success: true, Message: msg})
}

// SendFromHost handles POST /api/host/players/{id}/messages (host only)
func (h *MessageHandler) SendFromHost(w http.ResponseWriter, r *http.Request) {
	id, err := playerIDFromPath(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.MessageRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	msg, err := h.router.SendHostMessage(r.Context(), id, req.Content, req.Mode)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.Message{Success: true, Message: msg})
}
