package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/config"
	"gorm.io/gorm"
)

var defaultSmartphones = []Smartphone{
	{Brand: "Apple", ModelName: "iPhone 15 Pro", Price: 999.99, RAM: 8, Storage: 128, Battery: 3274, Rating: 4.5},
	{Brand: "Samsung", ModelName: "Galaxy S24 Ultra", Price: 1199.99, RAM: 12, Storage: 256, Battery: 5000, Rating: 4.6},
	{Brand: "Google", ModelName: "Pixel 8 Pro", Price: 899.99, RAM: 12, Storage: 128, Battery: 5050, Rating: 4.4},
	{Brand: "OnePlus", ModelName: "12 Pro", Price: 799.99, RAM: 12, Storage: 256, Battery: 5400, Rating: 4.3},
	{Brand: "Xiaomi", ModelName: "14 Ultra", Price: 699.99, RAM: 16, Storage: 512, Battery: 5300, Rating: 4.2},
}

// Seed fills an empty catalog from cfg.SeedCSVPath, falling back to the
// built-in records when the file is missing or cannot be imported. The
// fallback only runs while the catalog is still empty, so rows a failed
// import already inserted are kept as they are.
func (p *CatalogPlugin) Seed(db *gorm.DB, cfg *config.Config) error {
	ctx := context.Background()

	count, err := countSmartphones(ctx, db)
	if err != nil {
		return err
	}
	if count > 0 {
		slog.Info("catalog already seeded", "count", count)
		return nil
	}

	if cfg.SeedCSVPath != "" {
		data, err := os.ReadFile(cfg.SeedCSVPath)
		switch {
		case err == nil:
			result, err := NewImportService(db, p.metrics).Import(ctx, data, ImportOptions{
				Filename:   filepath.Base(cfg.SeedCSVPath),
				ActorEmail: "seed",
			})
			if err == nil {
				slog.Info("seeded catalog from csv", "path", cfg.SeedCSVPath, "inserted", result.Inserted)
				return nil
			}
			count, cerr := countSmartphones(ctx, db)
			if cerr != nil {
				return cerr
			}
			if count > 0 {
				slog.Warn("seed csv import failed part way, keeping imported rows",
					"path", cfg.SeedCSVPath, "count", count, "error", err)
				return nil
			}
			slog.Warn("seed csv import failed, using built-in records", "path", cfg.SeedCSVPath, "error", err)
		case errors.Is(err, os.ErrNotExist):
			slog.Info("seed csv not found, using built-in records", "path", cfg.SeedCSVPath)
		default:
			slog.Warn("seed csv unreadable, using built-in records", "path", cfg.SeedCSVPath, "error", err)
		}
	}

	return seedDefaults(ctx, db)
}

func countSmartphones(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&Smartphone{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count smartphones: %w", err)
	}
	return count, nil
}

func seedDefaults(ctx context.Context, db *gorm.DB) error {
	now := time.Now().UTC()
	phones := make([]Smartphone, len(defaultSmartphones))
	copy(phones, defaultSmartphones)
	for i := range phones {
		phones[i].CreatedAt = now
	}
	if err := db.WithContext(ctx).Create(&phones).Error; err != nil {
		return fmt.Errorf("seed smartphones: %w", err)
	}
	slog.Info("seeded catalog with built-in records", "count", len(phones))
	return nil
}
