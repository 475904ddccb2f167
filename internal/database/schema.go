package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ms-gallery/internal/models"
)

// Models in dependency order.
func Models() []interface{} {
	return []interface{}{
		(*models.Profile)(nil),
		(*models.Event)(nil),
		(*models.SubmittedImage)(nil),
		(*models.Like)(nil),
	}
}

// CreateSchema creates the gallery tables straight from the bun models. The
// SQL migrations remain the source of truth for PostgreSQL constraints; this is
// used for throwaway databases.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, m := range Models() {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", m, err)
		}
	}
	return nil
}

func DropSchema(ctx context.Context, db *bun.DB) error {
	all := Models()
	for i := len(all) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Model(all[i]).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", all[i], err)
		}
	}
	return nil
}
