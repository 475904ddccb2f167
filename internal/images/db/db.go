package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"ms-gallery/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// CreateImages inserts the whole batch in one statement inside a transaction,
// so either every row exists afterwards or none does.
func (d *DB) CreateImages(ctx context.Context, images []models.SubmittedImage) error {
	if len(images) == 0 {
		return nil
	}
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&images).Exec(ctx)
		return err
	})
}

func (d *DB) GetImageByID(ctx context.Context, id string) (*models.SubmittedImage, error) {
	var img models.SubmittedImage
	err := d.Bun.NewSelect().
		Model(&img).
		Relation("Event").
		Relation("Owner").
		Where("submitted_image.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("image %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// ListImagesByStatus returns images in one status, newest first. An empty
// eventID lists every event.
func (d *DB) ListImagesByStatus(ctx context.Context, status models.ImageStatus, eventID string) ([]models.SubmittedImage, error) {
	var images []models.SubmittedImage
	q := d.Bun.NewSelect().
		Model(&images).
		Relation("Event").
		Relation("Owner").
		Where("submitted_image.status = ?", status)
	if eventID != "" {
		q = q.Where("submitted_image.event_id = ?", eventID)
	}
	err := q.OrderExpr("submitted_image.created_at DESC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return images, nil
}

// ListImagesByUser returns one user's submissions, newest first, optionally
// narrowed to a single status.
func (d *DB) ListImagesByUser(ctx context.Context, userID string, status models.ImageStatus) ([]models.SubmittedImage, error) {
	var images []models.SubmittedImage
	q := d.Bun.NewSelect().
		Model(&images).
		Relation("Event").
		Where("submitted_image.user_id = ?", userID)
	if status != "" {
		q = q.Where("submitted_image.status = ?", status)
	}
	err := q.OrderExpr("submitted_image.created_at DESC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return images, nil
}

// TransitionStatus moves an image from one status to another only if it is
// still in the expected source status. Only the status column is written.
func (d *DB) TransitionStatus(ctx context.Context, id string, from, to models.ImageStatus) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.SubmittedImage)(nil)).
		Set("status = ?", to).
		Where("id = ?", id).
		Where("status = ?", from).
		Exec(ctx)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var current models.SubmittedImage
	err = d.Bun.NewSelect().
		Model(&current).
		Column("status").
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("image %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: image %s is already %s", models.ErrStateConflict, id, current.Status)
}

// DeleteImage removes the image together with its likes.
func (d *DB) DeleteImage(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.Like)(nil)).
			Where("image_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete likes: %w", err)
		}

		res, err := tx.NewDelete().
			Model((*models.SubmittedImage)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("image %s: %w", id, models.ErrNotFound)
		}
		return nil
	})
}

func (d *DB) EventExists(ctx context.Context, eventID string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		Where("id = ?", eventID).
		Exists(ctx)
}
