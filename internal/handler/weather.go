package handler

import (
	"net/http"

	"github.com/kestrelhouse/chorewheel/internal/weather"
)

// WeatherHandler serves the current-weather snapshot.
type WeatherHandler struct {
	service *weather.Service
}

func NewWeatherHandler(svc *weather.Service) *WeatherHandler {
	return &WeatherHandler{service: svc}
}

// Current returns the cached or freshly fetched weather for the household
// location.
func (h *WeatherHandler) Current(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Current())
}
