// Package identity wires the account-linking core together: it opens the
// database, applies migrations, and exposes the services host
// applications call into.
package identity

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/cfpio/identity/config"
	"github.com/cfpio/identity/dynamicfields"
	"github.com/cfpio/identity/logging"
	"github.com/cfpio/identity/notify"
	"github.com/cfpio/identity/repositories/repomanager"
	"github.com/cfpio/identity/services"
)

// App bundles the configured services of the identity core.
type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB

	Auth     *services.AuthService
	Linking  *services.LinkingService
	Confirm  *services.ConfirmationService
	Profile  *services.ProfileService
	Notifier *notify.Scheduler
}

// Open connects to the database, applies pending migrations, and builds
// the service graph. catalog supplies the dynamic-field descriptors and
// sender delivers notification mail; both are owned by the host
// application.
func Open(ctx context.Context, cfg *config.Config, catalog dynamicfields.Catalog, sender notify.Sender) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	auth, err := services.NewAuthService(db, repos)
	if err != nil {
		db.Close()
		return nil, err
	}

	app := &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		Auth:     auth,
		Linking:  services.NewLinkingService(db, repos),
		Confirm:  services.NewConfirmationService(db, repos),
		Profile:  services.NewProfileService(db, repos, catalog),
		Notifier: notify.NewScheduler(sender, cfg.MailFrom, cfg.MailSign, cfg.MailSendDelay, logger),
	}

	logger.Info(ctx, "identity core ready")
	return app, nil
}

// Close releases the database connection pool.
func (a *App) Close() error {
	return a.db.Close()
}
