package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kestrelhouse/chorewheel/internal/chore"
	"github.com/kestrelhouse/chorewheel/internal/engine"
	"github.com/kestrelhouse/chorewheel/internal/model"
	"github.com/kestrelhouse/chorewheel/internal/store"
	"github.com/kestrelhouse/chorewheel/internal/websocket"
)

// TaskHandler serves the assigned room tasks and their completion events.
type TaskHandler struct {
	engine *engine.Engine
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewTaskHandler(eng *engine.Engine, hub *websocket.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{engine: eng, hub: hub, logger: logger}
}

func (h *TaskHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type taskResponse struct {
	model.Task
	Status chore.Status `json:"status"`
}

// List returns the assigned tasks in due-date order with display urgency.
// The optional limit parameter caps how many are returned; the wall
// display shows only the first handful.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks := h.engine.Tasks().All()

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if limit < len(tasks) {
			tasks = tasks[:limit]
		}
	}

	now := time.Now()
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskResponse{Task: t, Status: chore.ComputeStatus(t.DueDate, now)})
	}
	writeJSON(w, http.StatusOK, out)
}

type completeTaskRequest struct {
	model.Task
	AdvanceUser *bool  `json:"advance_user"`
	AsUser      string `json:"as_user"`
}

// Complete handles a "task done" tap from a display. The body carries the
// full task record the display was showing, which is the task's identity.
// An as_user field marks the task as done by someone other than its
// holder, which holds the rotation and adjusts the ledger instead.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.User == "" || req.Room == "" || req.Name == "" || req.Period == "" || req.DueDate.IsZero() {
		writeError(w, http.StatusBadRequest, "incomplete task record")
		return
	}

	var (
		next string
		err  error
	)
	switch {
	case req.AsUser != "":
		next, err = h.engine.CompleteAsOther(req.Task, req.AsUser)
	default:
		advance := true
		if req.AdvanceUser != nil {
			advance = *req.AdvanceUser
		}
		next, err = h.engine.Complete(req.Task, advance)
	}

	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Stale display or unknown user; the action is rejected whole.
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("complete task", "room", req.Room, "task", req.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to complete task")
		return
	}

	h.broadcast(websocket.TaskCompleted(req.Room, req.Name, next))
	if req.AsUser != "" {
		h.broadcast(websocket.ScoresChanged())
	}
	writeJSON(w, http.StatusOK, map[string]string{"next_user": next})
}
