package cli

import (
	"bufio"
	"context"
	"database/sql"
	"os"

	"github.com/lookforge/lookforge-go/internal/api"
	"github.com/lookforge/lookforge-go/internal/config"
	"github.com/lookforge/lookforge-go/internal/credstore"
	"github.com/lookforge/lookforge-go/internal/logging"
	"github.com/lookforge/lookforge-go/internal/services"
	"github.com/lookforge/lookforge-go/internal/session"
)

// App wires the client together: credential store, authenticated transport,
// session manager, studio service. One instance per process.
type App struct {
	config  *config.Config
	session *session.Manager
	studio  services.StudioService
	api     *api.Client
	log     logging.Logger
	reader  *bufio.Reader
	db      *sql.DB

	// pendingEmail carries the target of the resend-verification flow after
	// a login was rejected for an unverified account.
	pendingEmail string
}

// NewApp constructs the full dependency graph from configuration.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	if log == nil {
		log = logging.Nop()
	}

	db, err := credstore.InitDatabase(ctx, cfg.StoragePath)
	if err != nil {
		return nil, err
	}
	store := credstore.NewSQLiteStore(db)

	apiClient := api.New(api.Options{
		BaseURL:        cfg.BaseURL,
		Store:          store,
		Logger:         log,
		RequestTimeout: cfg.RequestTimeout,
		RefreshTimeout: cfg.RefreshTimeout,
	})

	return &App{
		config:  cfg,
		session: session.NewManager(apiClient, store, log),
		studio:  services.NewStudioService(apiClient, cfg.PollInterval, cfg.PollAttempts),
		api:     apiClient,
		log:     log,
		reader:  bufio.NewReader(os.Stdin),
		db:      db,
	}, nil
}

// Run restores any persisted session and drops into the REPL. It returns
// when the user exits.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	if err := a.session.Initialize(ctx); err != nil {
		// A broken local store should not keep the user out of the shell.
		a.log.Warn(ctx, "session restore failed", "error", err)
	}

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
	return nil
}

func (a *App) close() {
	a.session.Close()
	_ = a.db.Close()
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated()
}

func (a *App) status() string {
	if u := a.session.User(); u != nil && u.Email != "" {
		return u.Email
	}
	if a.session.IsAuthenticated() {
		return "signed in"
	}
	return "anonymous"
}
