package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/famledger/famledger/internal/config"
	"github.com/famledger/famledger/internal/database"
	"github.com/famledger/famledger/pkg/settings"
	"github.com/famledger/famledger/pkg/transaction"
	"github.com/famledger/famledger/pkg/user"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Application wires configuration, database, router, and server lifecycle.
type Application struct {
	cfg  config.Application
	db   *pgxpool.Pool
	deps *Dependencies
	srv  *http.Server
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load("./config/application.yaml")
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(cfg.Database); err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	deps, err := BuildDependencies(ctx, Repositories{
		Users:        user.NewUserRepo(db),
		Transactions: transaction.NewRepository(db),
		Settings:     settings.NewRepository(db),
	}, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	srv := &http.Server{
		Handler:      NewRouter(deps),
		Addr:         fmt.Sprintf(":%d", cfg.Http.Port),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, db: db, deps: deps, srv: srv}, nil
}

func NewRouter(deps *Dependencies) *mux.Router {
	r := mux.NewRouter()
	SetupMiddleware(r, deps)
	RegisterRoutes(r, deps)
	return r
}

// Run starts the HTTP server and blocks until it is shut down.
func (a *Application) Run() error {
	log.Infof("Starting server on %s", a.srv.Addr)
	if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and releases the database. Ledger writes
// already in flight get until ctx expires to finish.
func (a *Application) Shutdown(ctx context.Context) error {
	err := a.srv.Shutdown(ctx)
	a.deps.Inbox.Close()
	a.db.Close()
	return err
}
