package handler

import (
	"net/http"

	"github.com/kestrelhouse/chorewheel/internal/engine"
	"github.com/kestrelhouse/chorewheel/internal/store"
)

// ScoreHandler serves the fairness ledger.
type ScoreHandler struct {
	engine *engine.Engine
}

func NewScoreHandler(eng *engine.Engine) *ScoreHandler {
	return &ScoreHandler{engine: eng}
}

// List returns every user's score in seeding order.
func (h *ScoreHandler) List(w http.ResponseWriter, r *http.Request) {
	entries := h.engine.Ledger().All()
	if entries == nil {
		entries = []store.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
