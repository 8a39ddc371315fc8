package app

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"roomchat/internal/api"
	"roomchat/internal/config"
	"roomchat/internal/dice"
	"roomchat/internal/gateway"
	"roomchat/internal/identity"
	"roomchat/internal/pipeline"
	"roomchat/internal/presence"
	"roomchat/internal/ratelimit"
	"roomchat/internal/room"
	"roomchat/internal/session"
	"roomchat/internal/store"
	"roomchat/pkg/interfaces"
)

// Application coordinates all components. Initialization follows
// dependency order: store → registries → limiter → pipeline → gateway →
// HTTP.
type Application struct {
	config       *config.Config
	messageStore *store.SQLiteStore
	table        *gateway.Table
	sessions     *session.Registry
	rooms        *room.Registry
	scheduler    *presence.Scheduler
	gateway      *gateway.Gateway
	httpServer   *http.Server
}

// NewApplication wires all components from configuration.
func NewApplication(cfg *config.Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	messageStore, err := store.NewSQLiteStore(cfg.DatabasePath, cfg.HistoryCap)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize message store: %w", err)
	}

	table := gateway.NewTable()
	sessions := session.NewRegistry()
	rooms := room.NewRegistry(sessions, table)
	scheduler := presence.NewScheduler(sessions, rooms, presence.SystemClock(), cfg.GracePeriod)

	var counters interfaces.CounterStore
	if cfg.RateLimitEnabled {
		counters = ratelimit.NewMemoryCounterStore()
	} else {
		log.Println("Rate limiting disabled: limiter will fail open")
	}
	limiter := ratelimit.NewLimiter(counters, cfg.RateLimitWindow, cfg.RateLimitThreshold)

	pipe := pipeline.New(rooms, limiter, messageStore, dice.NewEvaluator(), cfg.MaxMessageLength)

	var provider interfaces.IdentityProvider
	switch cfg.AuthMode {
	case "jwt":
		provider = identity.NewJWTProvider(cfg.JWTSecret)
	default:
		provider = identity.NewHandshakeProvider()
	}

	gw := gateway.New(table, sessions, rooms, scheduler, pipe, provider)

	app := &Application{
		config:       cfg,
		messageStore: messageStore,
		table:        table,
		sessions:     sessions,
		rooms:        rooms,
		scheduler:    scheduler,
		gateway:      gw,
	}

	mux := chi.NewRouter()
	gw.RegisterRoutes(mux)
	api.NewServer(app).RegisterRoutes(mux)

	app.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return app, nil
}

// Stats implements api.StatsSource.
func (a *Application) Stats() api.Stats {
	return api.Stats{
		Connections:    a.table.Count(),
		Sessions:       a.sessions.Count(),
		Rooms:          len(a.sessions.Rooms()),
		PendingOffline: a.scheduler.PendingCount(),
	}
}

// Start begins serving; it blocks until the listener fails or is shut
// down.
func (a *Application) Start() error {
	log.Printf("Starting roomchat server: addr=%s auth_mode=%s", a.config.Addr(), a.config.AuthMode)
	if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down and closes the message store.
func (a *Application) Stop(ctx context.Context) error {
	log.Println("Stopping roomchat server...")
	err := a.httpServer.Shutdown(ctx)
	if closeErr := a.messageStore.Close(); err == nil {
		err = closeErr
	}
	return err
}
