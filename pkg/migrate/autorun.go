package migrate

import (
	"context"
	"fmt"

	"github.com/telemart/storefront-gateway/pkg/config"
	"github.com/telemart/storefront-gateway/pkg/db"
	"github.com/telemart/storefront-gateway/pkg/db/models"
	"github.com/telemart/storefront-gateway/pkg/logger"
)

// MaybeRun applies schema migrations automatically when the feature flag is
// enabled. The schema is small enough that gorm's AutoMigrate covers it.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.DB.AutoMigrate {
		return nil
	}

	ctx = logg.WithField(ctx, "driver", cfg.DB.Driver)
	logg.Info(ctx, "running schema auto-migration")

	if err := client.DB().WithContext(ctx).AutoMigrate(&models.UserPreference{}); err != nil {
		return fmt.Errorf("auto-migrating schema: %w", err)
	}

	logg.Info(ctx, "schema auto-migration completed")
	return nil
}
