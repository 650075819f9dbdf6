package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// trigramIndexes are GIN pg_trgm indexes over the normalized search columns.
// They serve both LIKE '%..%' and the % similarity operator.
var trigramIndexes = []string{
	`CREATE INDEX IF NOT EXISTS product_name_norm_trgm_idx ON products USING gin (name_norm gin_trgm_ops)`,
	`CREATE INDEX IF NOT EXISTS product_brand_norm_trgm_idx ON products USING gin (brand_norm gin_trgm_ops)`,
	`CREATE INDEX IF NOT EXISTS category_name_norm_trgm_idx ON categories USING gin (name_norm gin_trgm_ops)`,
}

// Migrate enables pg_trgm, creates the tables and builds the trigram indexes.
// It is idempotent.
func Migrate(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx)

	if err := tx.Exec(`CREATE EXTENSION IF NOT EXISTS pg_trgm`).Error; err != nil {
		return fmt.Errorf("enable pg_trgm extension: %w", Classify("migrate", err))
	}
	if err := tx.AutoMigrate(&CategoryModel{}, &ProductModel{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", Classify("migrate", err))
	}
	for _, stmt := range trigramIndexes {
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create trigram index: %w", Classify("migrate", err))
		}
	}
	return nil
}
