package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Vovarama1992/motos-credit-bridge/internal/ai"
	"github.com/Vovarama1992/motos-credit-bridge/internal/config"
	"github.com/Vovarama1992/motos-credit-bridge/internal/debounce"
	"github.com/Vovarama1992/motos-credit-bridge/internal/logging"
	"github.com/Vovarama1992/motos-credit-bridge/internal/scoring"
	"github.com/Vovarama1992/motos-credit-bridge/internal/session"
	"github.com/Vovarama1992/motos-credit-bridge/internal/survey"
	"github.com/Vovarama1992/motos-credit-bridge/internal/whatsapp"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("bridge stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- DB ---
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}

	repo := whatsapp.NewPostgresRepo(db)
	if err := repo.Migrate(pingCtx); err != nil {
		return err
	}

	// --- Sessions ---
	store, closeStore, err := openSessionStore(ctx, cfg.Session, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// --- Survey ---
	partners, err := scoring.LoadPartners(cfg.PartnersFile)
	if err != nil {
		return err
	}
	machine := survey.NewMachine(store, repo, scoring.NewPolicy(partners), survey.Config{
		MaxStrikes:  cfg.Survey.MaxStrikes,
		Timeout:     cfg.Survey.Timeout,
		MinimumWage: cfg.Survey.MinimumWage,
	}, logger)

	// --- WhatsApp wiring ---
	outbound, err := whatsapp.NewGraphOutbound(whatsapp.GraphConfig{
		BaseURL:       cfg.WhatsApp.GraphURL,
		Token:         cfg.WhatsApp.Token,
		PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
	}, logger)
	if err != nil {
		return err
	}
	aiClient, err := ai.NewOpenAIClient(ai.OpenAIConfig{
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
		BaseURL: cfg.OpenAI.BaseURL,
	}, logger)
	if err != nil {
		return err
	}

	debouncer := debounce.New(cfg.Debounce.Window, logger)
	defer debouncer.Close()

	svc := whatsapp.NewService(whatsapp.Deps{
		Repo:      repo,
		Prospects: repo,
		Outbound:  outbound,
		Notifier:  whatsapp.NewAdminNotifier(outbound, cfg.AdminPhone, logger),
		AI:        aiClient,
		Survey:    machine,
		Debouncer: debouncer,
	}, whatsapp.Options{FinancialWindow: cfg.Debounce.FinancialWindow}, logger)
	handler := whatsapp.NewHandler(svc, whatsapp.HandlerConfig{
		VerifyToken: cfg.WhatsApp.VerifyToken,
		AppSecret:   cfg.WhatsApp.AppSecret,
	}, logger)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Admin-Token", "X-Hub-Signature-256"},
	}))

	whatsapp.RegisterRoutes(r, handler)
	if cfg.AdminToken != "" {
		whatsapp.RegisterAdminRoutes(r, handler, cfg.AdminToken)
	} else {
		logger.Warn("ADMIN_TOKEN not set, admin endpoints disabled")
	}

	// --- health ---
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("sessions", cfg.Session.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		handler.Wait()
		return err
	})
	return g.Wait()
}

// openSessionStore picks the survey session backend. Memory and sqlite are
// purged by a sweeper; redis expires keys on its own.
func openSessionStore(ctx context.Context, cfg config.SessionConfig, logger *zap.Logger) (survey.SessionStore, func(), error) {
	switch cfg.Backend {
	case config.BackendRedis:
		client, err := session.NewRedisClient(ctx, session.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedis(client, cfg.TTL), func() { _ = client.Close() }, nil

	case config.BackendSQLite:
		store, err := session.NewSQLite(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		sweepCtx, cancel := context.WithCancel(ctx)
		done := session.StartSweeper(sweepCtx, store, cfg.TTL, cfg.SweepInterval, logger)
		return store, func() {
			cancel()
			<-done
			_ = store.Close()
		}, nil

	default:
		store := session.NewMemory()
		sweepCtx, cancel := context.WithCancel(ctx)
		done := session.StartSweeper(sweepCtx, store, cfg.TTL, cfg.SweepInterval, logger)
		return store, func() {
			cancel()
			<-done
		}, nil
	}
}
