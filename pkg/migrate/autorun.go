package migrate

import (
	"context"
	"fmt"

	"github.com/koor-works/koor-backend/pkg/config"
	"github.com/koor-works/koor-backend/pkg/db"
	"github.com/koor-works/koor-backend/pkg/logger"
)

// MaybeRunDev brings the schema up to date on boot. It only acts in dev
// environments with the auto-migrate flag on; deployed environments
// migrate through the dedicated command.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	switch {
	case !cfg.App.IsDev():
		return nil
	case !cfg.FeatureFlags.AutoMigrate:
		logg.Debug(ctx, "auto-migrate disabled, skipping")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("unwrap sql.DB: %w", err)
	}

	ctx = logg.WithField(ctx, "dir", DefaultDir)
	logg.Info(ctx, "auto-applying pending migrations")
	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("auto-migrate up: %w", err)
	}
	logg.Info(ctx, "schema is up to date")
	return nil
}
