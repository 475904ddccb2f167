package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ms-gallery/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// UpsertProfile records who submitted. The role of an existing profile is
// never touched, and an empty name does not overwrite a stored one.
func (d *DB) UpsertProfile(ctx context.Context, profile models.Profile) error {
	if profile.ID == "" {
		return fmt.Errorf("%w: profile id is required", models.ErrValidation)
	}
	if profile.Role == "" {
		profile.Role = models.RoleUser
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}

	q := d.Bun.NewInsert().
		Model(&profile).
		On("CONFLICT (id) DO UPDATE").
		Set("email = EXCLUDED.email")
	if profile.FullName != "" {
		q = q.Set("full_name = EXCLUDED.full_name")
	}

	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func (d *DB) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	err := d.Bun.NewSelect().
		Model(&profile).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
