package database

import (
	"context"
	"fmt"

	"forum/internal/middleware"

	"gorm.io/gorm"
)

// SchemaStatus reports which migrations have run.
type SchemaStatus struct {
	AppliedVersions   []int
	PendingMigrations []Migration
}

// ApplySchema runs GORM AutoMigrate for the persistent models and then the
// versioned index migrations.
func ApplySchema(ctx context.Context, db *gorm.DB) error {
	middleware.Logger.Info("Running GORM AutoMigrate")
	if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("run sql migrations: %w", err)
	}
	return nil
}

// GetSchemaStatus lists applied and pending migrations.
func GetSchemaStatus(ctx context.Context, db *gorm.DB) (*SchemaStatus, error) {
	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{AppliedVersions: applied}

	appliedSet := make(map[int]bool, len(applied))
	for _, version := range applied {
		appliedSet[version] = true
	}
	for _, m := range GetMigrations() {
		if !appliedSet[m.Version] {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}
	return status, nil
}
