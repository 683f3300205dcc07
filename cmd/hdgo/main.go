package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/nneibaue/human-design/internal/activation"
	"github.com/nneibaue/human-design/internal/api"
	"github.com/nneibaue/human-design/internal/auth"
	"github.com/nneibaue/human-design/internal/cache"
	"github.com/nneibaue/human-design/internal/chart"
	"github.com/nneibaue/human-design/internal/design"
	"github.com/nneibaue/human-design/internal/ephemeris"
	"github.com/nneibaue/human-design/internal/geo"
	"github.com/nneibaue/human-design/internal/zodiac"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	addr := os.Getenv("HD_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	// The gate table is static reference data; a malformed wheel is a
	// fatal configuration error, never a runtime fallback.
	table, err := zodiacTable(logger)
	if err != nil {
		logger.Error("invalid gate wheel", "error", err)
		os.Exit(1)
	}

	src := ephemeris.Analytic{}

	workers := loadWorkers(logger)
	mapper := activation.NewMapper(src, table, workers, logger)
	solver := design.NewSolver(src, loadSolverConfig(logger), logger)
	builder := chart.NewBuilder(mapper, solver, logger)

	resolver := loadResolver(logger)

	charts := cache.New(loadCacheConfig(logger), logger)

	srv := api.NewServer(addr, logger, authCfg, builder, resolver, charts, table)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start cache eviction worker.
	go charts.Start(ctx)

	go func() {
		logger.Info("starting server",
			"addr", addr,
			"auth_enabled", authCfg.Enabled,
			"geocode_enabled", resolver != nil,
			"workers", workers,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("HD_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("HD_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("HD_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("HD_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

func loadWorkers(logger *slog.Logger) int {
	workers := runtime.NumCPU()
	if v := os.Getenv("HD_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid HD_WORKERS value, using default", "value", v, "default", workers)
		} else {
			workers = n
		}
	}
	return workers
}

func loadSolverConfig(logger *slog.Logger) design.Config {
	cfg := design.Config{}

	if v := os.Getenv("HD_SOLVER_TOLERANCE_ARCSEC"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			logger.Warn("invalid HD_SOLVER_TOLERANCE_ARCSEC value, using default", "value", v, "default", 1)
		} else {
			cfg.ToleranceDeg = f / 3600
		}
	}

	if v := os.Getenv("HD_SOLVER_MAX_ITER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid HD_SOLVER_MAX_ITER value, using default", "value", v, "default", design.DefaultMaxIterations)
		} else {
			cfg.MaxIterations = n
		}
	}

	logger.Info("solver config",
		"tolerance_deg", cfg.ToleranceDeg,
		"max_iterations", cfg.MaxIterations,
	)

	return cfg
}

func loadCacheConfig(logger *slog.Logger) cache.Config {
	cfg := cache.Config{
		TTL:           time.Hour,
		SweepInterval: time.Minute,
		MaxEntries:    10000,
	}

	if v := os.Getenv("HD_CACHE_TTL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid HD_CACHE_TTL value, using default", "value", v, "default", 3600)
		} else {
			cfg.TTL = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("HD_CACHE_SWEEP_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid HD_CACHE_SWEEP_INTERVAL value, using default", "value", v, "default", 60)
		} else {
			cfg.SweepInterval = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("HD_CACHE_MAX_ENTRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid HD_CACHE_MAX_ENTRIES value, using default", "value", v, "default", cfg.MaxEntries)
		} else {
			cfg.MaxEntries = n
		}
	}

	return cfg
}

// zodiacTable loads the gate wheel, from HD_WHEEL_PATH when set and the
// embedded document otherwise.
func zodiacTable(logger *slog.Logger) (*zodiac.Table, error) {
	path := os.Getenv("HD_WHEEL_PATH")
	table, err := zodiac.LoadWheel(path)
	if err != nil {
		return nil, err
	}
	source := "embedded"
	if path != "" {
		source = path
	}
	logger.Info("gate wheel loaded", "source", source, "entries", len(table.Entries()))
	return table, nil
}

// loadResolver wires geocoding + timezone resolution. Failure to load the
// timezone dataset disables place resolution rather than killing the
// process; explicit-offset requests still work.
func loadResolver(logger *slog.Logger) *geo.Resolver {
	if v := os.Getenv("HD_GEOCODE_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid HD_GEOCODE_ENABLED value, defaulting to true", "value", v)
		} else if !enabled {
			logger.Info("geocoding disabled")
			return nil
		}
	}

	cacheDir := os.Getenv("HD_GEOCODE_CACHE_DIR")
	if cacheDir == "" {
		cacheDir = "/tmp/hdgo/geocode"
	}

	finder, err := geo.NewTimezoneFinder()
	if err != nil {
		logger.Warn("timezone finder unavailable, disabling place resolution", "error", err)
		return nil
	}

	geocoder := geo.NewGeocoder(os.Getenv("HD_GEOCODE_URL"), geo.NewCache(cacheDir), logger)

	logger.Info("geocoding enabled", "cache_dir", cacheDir)
	return geo.NewResolver(geocoder, finder, logger)
}
