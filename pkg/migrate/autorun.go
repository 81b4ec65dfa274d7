package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/wholesale-backend/pkg/config"
	"github.com/angelmondragon/wholesale-backend/pkg/db"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
)

// MaybeRunDev brings the schema up to date when a dev process starts with
// WHOLESALE_AUTO_MIGRATE set. Postgres gets the embedded goose migrations.
// sqlite has no enum types, so its schema comes from the gorm models.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if cfg.FeatureFlags.UseSQLite {
		logg.Info(ctx, "bootstrapping sqlite schema from models")
		return AutoMigrateModels(client)
	}

	pool, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	migrator, err := NewMigrator(pool, Embedded(), logg)
	if err != nil {
		return err
	}
	logg.Info(ctx, "running embedded migrations")
	return migrator.Up(ctx)
}

// AutoMigrateModels creates the schema straight from the gorm models.
func AutoMigrateModels(client *db.Client) error {
	if err := client.DB().AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}
	return nil
}
