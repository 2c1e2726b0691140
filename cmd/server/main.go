package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/diewo77/invoiceapp/auth"
	"github.com/diewo77/invoiceapp/internal/config"
	"github.com/diewo77/invoiceapp/internal/db"
	"github.com/diewo77/invoiceapp/internal/server"
	"github.com/diewo77/invoiceapp/internal/services"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	log := newLogger(cfg.Env)

	conn, err := db.ConnectAndMigrate(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database init failed")
	}
	if *migrateOnly {
		log.Info().Msg("migrations applied")
		return
	}

	auth.SetSecret(cfg.SessionSecret)

	handler := server.New(conn, log)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background recurring generation. Page-load triggers on the dashboard
	// keep things moving even when the ticker is disabled.
	if cfg.GenerationInterval > 0 {
		recurring := services.NewRecurringService(conn, log)
		invoices := services.NewInvoiceService(conn)
		go func() {
			ticker := time.NewTicker(cfg.GenerationInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case now := <-ticker.C:
					if _, err := invoices.MarkOverdue(0, now); err != nil {
						log.Error().Err(err).Msg("overdue sweep failed")
					}
					n, err := recurring.RunDueGenerations(now)
					if err != nil {
						log.Error().Err(err).Msg("recurring run failed")
					}
					if n > 0 {
						log.Info().Int("generated", n).Msg("recurring invoices generated")
					}
				}
			}
		}()
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func newLogger(env string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := zerolog.InfoLevel
	if env == "development" {
		level = zerolog.DebugLevel
	}
	var out = zerolog.New(os.Stdout)
	if env == "development" {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return out.Level(level).With().Timestamp().Logger()
}
