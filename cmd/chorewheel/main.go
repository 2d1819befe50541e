// Chorewheel rotates recurring household chores among a fixed set of
// users, tracks due dates, and keeps a running fairness score of who has
// done extra or fewer chores. It serves a JSON API plus a WebSocket feed
// for wall displays.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kestrelhouse/chorewheel/internal/config"
	"github.com/kestrelhouse/chorewheel/internal/engine"
	"github.com/kestrelhouse/chorewheel/internal/logging"
	"github.com/kestrelhouse/chorewheel/internal/server"
	"github.com/kestrelhouse/chorewheel/internal/store"
	"github.com/kestrelhouse/chorewheel/internal/weather"
)

const (
	tasksFile      = "tasks.json"
	indefiniteFile = "indefinite.json"
	scoresFile     = "scores.json"
)

// settings are the process-level knobs, read from the environment. The
// household definition itself lives in the YAML file at ConfigPath.
type settings struct {
	Port        string
	DataDir     string
	ConfigPath  string
	LogLevel    string
	WeatherUnit string
}

func settingsFromEnv() settings {
	s := settings{
		Port:        os.Getenv("CHOREWHEEL_PORT"),
		DataDir:     os.Getenv("CHOREWHEEL_DATA_DIR"),
		ConfigPath:  os.Getenv("CHOREWHEEL_CONFIG"),
		LogLevel:    os.Getenv("CHOREWHEEL_LOG_LEVEL"),
		WeatherUnit: os.Getenv("CHOREWHEEL_WEATHER_UNIT"),
	}
	if s.Port == "" {
		s.Port = "8080"
	}
	if s.DataDir == "" {
		s.DataDir = "."
	}
	if s.ConfigPath == "" {
		s.ConfigPath = "tasks.yaml"
	}
	return s
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "chorewheel",
		Short:        "Household chore rotation board",
		SilenceUsage: true,
		// Bare invocation runs the server, matching the original habit of
		// just starting the board.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settingsFromEnv())
		},
	}
	root.AddCommand(runCommand(), validateCommand(), statusCommand())
	return root
}

func runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Seed state if needed and serve the display API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settingsFromEnv())
		},
	}
}

func validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the household configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := settingsFromEnv()
			cfg, err := config.Load(st.ConfigPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Printf("%s: configuration OK\n", st.ConfigPath)
			return nil
		},
	}
}

func loadConfig(st settings) (*config.Config, error) {
	cfg, err := config.Load(st.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServer(st settings) error {
	logger := logging.Setup(st.LogLevel)

	cfg, err := loadConfig(st)
	if err != nil {
		return err
	}

	storeLogger := logger.With("component", "store")
	eng := engine.New(cfg,
		store.NewTaskStore(filepath.Join(st.DataDir, tasksFile), storeLogger),
		store.NewIndefiniteStore(filepath.Join(st.DataDir, indefiniteFile), storeLogger),
		store.NewLedger(filepath.Join(st.DataDir, scoresFile), storeLogger),
		time.Now,
		logger.With("component", "engine"))
	if err := eng.SeedIfEmpty(); err != nil {
		return fmt.Errorf("seed state: %w", err)
	}

	weatherSvc := weather.NewService(weather.Config{
		Latitude:   cfg.Location.Lat,
		Longitude:  cfg.Location.Lon,
		Unit:       st.WeatherUnit,
		Configured: cfg.Location.Lat != 0 || cfg.Location.Lon != 0,
	})

	srv := server.New(eng, weatherSvc, logger)

	httpServer := &http.Server{
		Addr:         ":" + st.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.WatchDateRollover(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("chorewheel running", "addr", "http://localhost:"+st.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	logger.Info("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
