package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kestrelhouse/chorewheel/internal/engine"
	"github.com/kestrelhouse/chorewheel/internal/store"
	"github.com/kestrelhouse/chorewheel/internal/websocket"
)

// IndefiniteHandler serves the repetition-counted tasks.
type IndefiniteHandler struct {
	engine *engine.Engine
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewIndefiniteHandler(eng *engine.Engine, hub *websocket.Hub, logger *slog.Logger) *IndefiniteHandler {
	return &IndefiniteHandler{engine: eng, hub: hub, logger: logger}
}

// List returns the indefinite tasks in configuration order.
func (h *IndefiniteHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Indefinite().All())
}

// Complete advances the named task by one repetition, rotating the user
// when the count rolls over. Returns the record as it now stands.
func (h *IndefiniteHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	it, err := h.engine.CompleteIndefinite(req.Name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("complete indefinite task", "task", req.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to complete task")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.IndefiniteCompleted(it.Name, it.User))
	}
	writeJSON(w, http.StatusOK, it)
}
