package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/expense-sheets/internal/api/flash"
	"github.com/dvloznov/expense-sheets/internal/api/handlers"
	"github.com/dvloznov/expense-sheets/internal/api/middleware"
	"github.com/dvloznov/expense-sheets/internal/config"
	"github.com/dvloznov/expense-sheets/internal/logger"
	"github.com/dvloznov/expense-sheets/internal/sheets"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Parse command-line flags
	port := flag.String("port", cfg.Port, "HTTP server port (or set PORT env)")
	flag.Parse()
	cfg.Port = *port

	// Initialize logger
	log := logger.NewWithLevel(cfg.Debug)

	if cfg.UsesDefaultSecret() {
		log.Warn().Msg("SESSION_SECRET is not set - flash cookies are signed with the default secret")
	}
	if err := cfg.CheckSheets(); err != nil {
		log.Warn().Err(err).Msg("Google Sheets is not configured - the form will show a configuration error")
	}

	// Initialize handlers
	gateway := sheets.NewGateway(cfg, log)
	formHandler := handlers.NewFormHandler(gateway, flash.NewStore(cfg.SessionSecret), log)

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	handler := newHandler(formHandler, limiter, log)

	// Create HTTP server. Spreadsheet calls may spend a few seconds in retries,
	// so the write timeout leaves room for them.
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("operations_sheet", cfg.OperationsSheet).
			Str("settings_sheet", cfg.SettingsSheet).
			Msg("Starting expense form server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// newHandler builds the router and middleware chain. Probes and metrics stay
// outside the rate limiter; form routes are limited.
func newHandler(formHandler *handlers.FormHandler, limiter *rate.Limiter, log zerolog.Logger) http.Handler {
	app := http.NewServeMux()
	formHandler.Register(app)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", formHandler.Healthz)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("/", middleware.RateLimit(limiter, log)(app))

	// RequestID runs before Logger so every request log line carries the ID.
	return middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(mux),
		),
	)
}
