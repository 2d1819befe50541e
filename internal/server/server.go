// Package server wires the engine, the weather service, and the WebSocket
// hub into the HTTP surface the household displays talk to.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/kestrelhouse/chorewheel/internal/engine"
	"github.com/kestrelhouse/chorewheel/internal/handler"
	"github.com/kestrelhouse/chorewheel/internal/middleware"
	"github.com/kestrelhouse/chorewheel/internal/weather"
	ws "github.com/kestrelhouse/chorewheel/internal/websocket"
)

type Server struct {
	hub         *ws.Hub
	taskH       *handler.TaskHandler
	indefiniteH *handler.IndefiniteHandler
	scoreH      *handler.ScoreHandler
	weatherH    *handler.WeatherHandler
	logger      *slog.Logger
}

func New(eng *engine.Engine, weatherSvc *weather.Service, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	return &Server{
		hub:         hub,
		taskH:       handler.NewTaskHandler(eng, hub, logger.With("component", "task")),
		indefiniteH: handler.NewIndefiniteHandler(eng, hub, logger.With("component", "indefinite")),
		scoreH:      handler.NewScoreHandler(eng),
		weatherH:    handler.NewWeatherHandler(weatherSvc),
		logger:      logger,
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks/complete", s.taskH.Complete)
	mux.HandleFunc("GET /api/indefinite", s.indefiniteH.List)
	mux.HandleFunc("POST /api/indefinite/complete", s.indefiniteH.Complete)
	mux.HandleFunc("GET /api/scores", s.scoreH.List)
	mux.HandleFunc("GET /api/weather", s.weatherH.Current)
	mux.HandleFunc("GET /ws", ws.Handler(s.hub, s.logger.With("component", "websocket")))
	mux.HandleFunc("GET /health", s.healthHandler)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// WatchDateRollover tells connected displays when the calendar day
// changes, so overdue/due-today coloring is recomputed even on days when
// nobody completes anything. Runs until ctx is cancelled.
func (s *Server) WatchDateRollover(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	today := time.Now().Format("2006-01-02")
	for {
		select {
		case <-ticker.C:
			if d := time.Now().Format("2006-01-02"); d != today {
				today = d
				s.hub.Broadcast(ws.DateRollover(d))
				s.logger.Info("date rollover", "date", d)
			}
		case <-ctx.Done():
			return
		}
	}
}
