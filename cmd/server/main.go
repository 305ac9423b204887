package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"academy/internal/adapters/academyapi"
	emailPkg "academy/internal/adapters/email"
	web "academy/internal/adapters/http"
	"academy/internal/adapters/http/perf"
	"academy/internal/adapters/storage"
	exportStorePkg "academy/internal/adapters/storage/export"
	sessionStorePkg "academy/internal/adapters/storage/session"
	"academy/internal/application/orchestrators"
	"academy/internal/application/workflow"
	"academy/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	config.LoadDotEnv()
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	dialect, err := storage.ParseDialect(cfg.DBDriver)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := storage.Open(dialect, cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := storage.MigrateDB(ctx, db, dialect); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, dialect, collector, cfg.SlowQuery)

	sessionKey, generated, err := cfg.SessionSecret()
	if err != nil {
		log.Fatalf("session key: %v", err)
	}
	if generated {
		slog.Warn("session_key_generated", "note", "sessions will not survive a restart; set ACADEMY_SESSION_KEY")
	}
	csrfKey, generated, err := cfg.CSRFSecret()
	if err != nil {
		log.Fatalf("csrf key: %v", err)
	}
	if generated {
		slog.Warn("csrf_key_generated", "note", "set ACADEMY_CSRF_KEY to keep forms valid across restarts")
	}

	sessions := sessionStorePkg.NewSQLStore(timedDB, sessionStorePkg.NewSealer(sessionKey))
	deliveries := exportStorePkg.NewSQLStore(timedDB)

	api := academyapi.NewClient(cfg.APIURL, &http.Client{Timeout: cfg.APITimeout}, collector)

	// Configure email sender
	var sender emailPkg.Sender
	if cfg.ResendKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.ResendFrom)
		slog.Info("email_sender", "provider", "resend")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.IsProduction() {
			slog.Warn("email_sender", "provider", "noop", "note", "ACADEMY_RESEND_KEY is not set, export emails are DISABLED")
		} else {
			slog.Info("email_sender", "provider", "noop")
		}
	}

	screens := workflow.NewRegistry(workflow.Backend{
		Roster:  orchestrators.LoadRosterDeps{API: api},
		Submit:  orchestrators.SubmitAttendanceDeps{API: api, Now: time.Now, Location: cfg.Location},
		Payment: orchestrators.PostPaymentDeps{API: api},
	})

	stopSweeper := orchestrators.StartSessionSweeper(ctx, orchestrators.SweepSessionsDeps{
		Sessions: sessions,
		Screens:  screens,
		Now:      time.Now,
	}, orchestrators.DefaultSessionSweepConfig())
	defer stopSweeper()

	handler, stopMux := web.NewMux(&web.Services{
		API:        api,
		Sessions:   sessions,
		Deliveries: deliveries,
		Screens:    screens,
		Email:      sender,
		Validate:   validator.New(),
		Collector:  collector,
		DB:         timedDB,
		Now:        time.Now,
		Location:   cfg.Location,
		SessionTTL: cfg.SessionTTL,
	}, web.Options{
		CSRFKey:     csrfKey,
		Production:  cfg.IsProduction(),
		SlowRequest: cfg.SlowRequest,
	})
	defer stopMux()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server_start", "version", version, "addr", cfg.Addr, "env", cfg.Env,
		"api", cfg.APIURL, "db", dialect, "schema", storage.LatestSchemaVersion())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}
