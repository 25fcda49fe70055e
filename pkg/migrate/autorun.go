package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/cafehop-backend/pkg/config"
	"github.com/angelmondragon/cafehop-backend/pkg/db"
	"github.com/angelmondragon/cafehop-backend/pkg/logger"
	"github.com/pressly/goose/v3"
)

// Startup is what ApplyOnStartup did. Skipped is set when auto-migration is
// not enabled for the environment.
type Startup struct {
	Skipped bool
	From    int64
	To      int64
}

// ApplyOnStartup brings the schema up to the embedded migrations when the
// API runs in dev with the auto_migrate feature flag on. Other environments
// migrate through cmd/migrate.
func ApplyOnStartup(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) (Startup, error) {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return Startup{Skipped: true}, nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return Startup{}, fmt.Errorf("extracting sql.DB: %w", err)
	}
	if _, err := prepare(cfg.DB.Driver, ""); err != nil {
		return Startup{}, err
	}
	from, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return Startup{}, fmt.Errorf("read schema version: %w", err)
	}

	if err := Up(ctx, sqlDB, cfg.DB.Driver); err != nil {
		return Startup{From: from}, err
	}
	to, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return Startup{From: from}, fmt.Errorf("read schema version: %w", err)
	}

	result := Startup{From: from, To: to}
	fields := map[string]any{"driver": cfg.DB.Driver, "schema_from": from, "schema_to": to}
	if from == to {
		logg.Debug(logg.WithFields(ctx, fields), "schema already current")
	} else {
		logg.Info(logg.WithFields(ctx, fields), "schema migrated on startup")
	}
	return result, nil
}
