// Package weather fetches current conditions from open-meteo for the
// household's configured coordinates. It is a read-only helper for the
// displays and has no bearing on the task state.
package weather

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const cacheTTL = 10 * time.Minute

// Config holds the weather lookup settings.
type Config struct {
	Latitude  float64
	Longitude float64
	// Unit is "celsius" or "fahrenheit"; empty means celsius.
	Unit       string
	Configured bool
}

// Data is a current-weather snapshot for display.
type Data struct {
	Temperature float64 `json:"temperature"`
	Code        int     `json:"code"`
	Condition   string  `json:"condition"`
	Unit        string  `json:"unit"`
	Available   bool    `json:"available"`
	Configured  bool    `json:"configured"`
}

// Service fetches and caches weather data. A failed fetch serves the last
// good snapshot rather than clearing the display.
type Service struct {
	config    Config
	client    *http.Client
	baseURL   string
	mu        sync.Mutex
	cached    Data
	lastFetch time.Time
}

// NewService creates a weather service. An unconfigured location yields a
// permanent "not configured" snapshot and no requests are made.
func NewService(cfg Config) *Service {
	if cfg.Unit == "" {
		cfg.Unit = "celsius"
	}
	unit := "C"
	if cfg.Unit == "fahrenheit" {
		unit = "F"
	}
	return &Service{
		config:  cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://api.open-meteo.com/v1/forecast",
		cached: Data{
			Unit:       unit,
			Configured: cfg.Configured,
		},
	}
}

// Current returns the latest weather snapshot, refreshing from the API when
// the cache is stale.
func (s *Service) Current() Data {
	if !s.config.Configured {
		return s.cached
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.lastFetch) < cacheTTL && s.cached.Available {
		return s.cached
	}

	data, err := s.fetch()
	if err != nil {
		// Keep serving the stale snapshot.
		return s.cached
	}
	s.cached = data
	s.lastFetch = time.Now()
	return s.cached
}

type apiResponse struct {
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
		WeatherCode int     `json:"weathercode"`
	} `json:"current_weather"`
}

func (s *Service) fetch() (Data, error) {
	url := fmt.Sprintf(
		"%s?latitude=%g&longitude=%g&current_weather=true&temperature_unit=%s",
		s.baseURL, s.config.Latitude, s.config.Longitude, s.config.Unit,
	)

	resp, err := s.client.Get(url)
	if err != nil {
		return Data{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Data{}, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return Data{}, fmt.Errorf("decode weather response: %w", err)
	}

	unit := "C"
	if s.config.Unit == "fahrenheit" {
		unit = "F"
	}
	return Data{
		Temperature: apiResp.CurrentWeather.Temperature,
		Code:        apiResp.CurrentWeather.WeatherCode,
		Condition:   CodeCondition(apiResp.CurrentWeather.WeatherCode),
		Unit:        unit,
		Available:   true,
		Configured:  true,
	}, nil
}

// CodeCondition maps a WMO present-weather code to a short description.
func CodeCondition(code int) string {
	switch {
	case code == 0:
		return "Clear sky"
	case code <= 3:
		return "Partly cloudy"
	case code <= 9:
		return "Haze or dust"
	case code <= 12:
		return "Mist or shallow fog"
	case code <= 19:
		return "Precipitation nearby"
	case code <= 29:
		return "Showers in the area"
	case code <= 39:
		return "Duststorm or blowing snow"
	case code <= 49:
		return "Fog"
	case code <= 59:
		return "Drizzle"
	case code <= 69:
		return "Rain"
	case code <= 79:
		return "Snow"
	case code <= 84:
		return "Rain showers"
	case code <= 90:
		return "Snow or hail showers"
	case code <= 99:
		return "Thunderstorm"
	default:
		return "Unknown"
	}
}
