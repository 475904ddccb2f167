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

func (d *DB) LikeExists(ctx context.Context, imageID, userID string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Like)(nil)).
		Where("image_id = ?", imageID).
		Where("user_id = ?", userID).
		Exists(ctx)
}

// InsertLike adds a like, leaning on the (image_id, user_id) unique index. It
// reports false when the pair already existed.
func (d *DB) InsertLike(ctx context.Context, like models.Like) (bool, error) {
	res, err := d.Bun.NewInsert().
		Model(&like).
		On("CONFLICT (image_id, user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteLike reports false when there was nothing to delete.
func (d *DB) DeleteLike(ctx context.Context, imageID, userID string) (bool, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Like)(nil)).
		Where("image_id = ?", imageID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountByImages returns like counts for a batch of images in one grouped query.
// Images without likes are absent from the map.
func (d *DB) CountByImages(ctx context.Context, imageIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(imageIDs))
	if len(imageIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		ImageID string `bun:"image_id"`
		Count   int    `bun:"like_count"`
	}
	err := d.Bun.NewSelect().
		Model((*models.Like)(nil)).
		Column("image_id").
		ColumnExpr("COUNT(*) AS like_count").
		Where("image_id IN (?)", bun.In(imageIDs)).
		Group("image_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		counts[r.ImageID] = r.Count
	}
	return counts, nil
}

// LikedByUser returns the subset of imageIDs the user has liked.
func (d *DB) LikedByUser(ctx context.Context, imageIDs []string, userID string) (map[string]bool, error) {
	liked := make(map[string]bool)
	if len(imageIDs) == 0 || userID == "" {
		return liked, nil
	}

	var ids []string
	err := d.Bun.NewSelect().
		Model((*models.Like)(nil)).
		Column("image_id").
		Where("user_id = ?", userID).
		Where("image_id IN (?)", bun.In(imageIDs)).
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

func (d *DB) ImageStatus(ctx context.Context, imageID string) (models.ImageStatus, error) {
	var img models.SubmittedImage
	err := d.Bun.NewSelect().
		Model(&img).
		Column("status").
		Where("id = ?", imageID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("image %s: %w", imageID, models.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return img.Status, nil
}
