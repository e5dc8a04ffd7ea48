package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quickbite/internal/config"
	"quickbite/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies pending schema migrations from sourcePath
// (e.g. "file://migrations") before the service starts serving.
func RunMigrations(ctx context.Context, cfg *config.Config, logger *logger.Logger, sourcePath string) error {
	// migrate's pgx/v5 driver expects the pgx5:// scheme
	dsn := strings.Replace(buildDSN(cfg), "postgres://", "pgx5://", 1)

	m, err := migrate.New(sourcePath, dsn)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			logger.Error(ctx, "migrate_close_failed", "Failed to close migrator cleanly", errors.Join(srcErr, dbErr), nil)
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info(ctx, "migrate_noop", "Database schema already up to date", nil)
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}

	logger.Info(ctx, "migrate_applied", "Database migrations applied", map[string]any{
		"source": sourcePath,
	})
	return nil
}
