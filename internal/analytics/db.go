package analytics

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ms-gallery/internal/models"
)

// DB handles the read-only queries behind the admin dashboard.
type DB struct {
	bun *bun.DB
}

func NewDB(db *bun.DB) *DB {
	return &DB{bun: db}
}

type statusCount struct {
	Status models.ImageStatus `bun:"status"`
	Count  int                `bun:"image_count"`
}

// CountByStatus returns the number of submissions in each moderation status.
func (db *DB) CountByStatus(ctx context.Context) (map[models.ImageStatus]int, error) {
	var rows []statusCount
	err := db.bun.NewSelect().
		TableExpr("user_images").
		ColumnExpr("status").
		ColumnExpr("COUNT(*) AS image_count").
		Group("status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to count images by status: %w", err)
	}

	counts := make(map[models.ImageStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (db *DB) CountLikes(ctx context.Context) (int, error) {
	count, err := db.bun.NewSelect().TableExpr("image_likes").Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}

// TopLikedData is one row of the most liked approved images.
type TopLikedData struct {
	ImageID   string `bun:"image_id" json:"image_id"`
	ImageURL  string `bun:"image_url" json:"image_url"`
	Caption   string `bun:"caption" json:"caption"`
	LikeCount int    `bun:"like_count" json:"like_count"`
}

// GetTopLiked returns approved images ordered by like count, ties broken by newest.
func (db *DB) GetTopLiked(ctx context.Context, limit int) ([]TopLikedData, error) {
	var rows []TopLikedData
	err := db.bun.NewRaw(`
		SELECT
			i.id AS image_id,
			i.image_url,
			i.caption,
			COUNT(l.id) AS like_count
		FROM
			user_images i
		JOIN
			image_likes l ON l.image_id = i.id
		WHERE
			i.status = ?
		GROUP BY
			i.id, i.image_url, i.caption, i.created_at
		ORDER BY
			like_count DESC, i.created_at DESC
		LIMIT ?
	`, models.StatusApproved, limit).Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to load top liked images: %w", err)
	}
	return rows, nil
}

// EventSubmissionData counts submissions per event, including events with none.
type EventSubmissionData struct {
	EventID  string `bun:"event_id" json:"event_id"`
	Title    string `bun:"title" json:"title"`
	Pending  int    `bun:"pending" json:"pending"`
	Approved int    `bun:"approved" json:"approved"`
	Rejected int    `bun:"rejected" json:"rejected"`
}

func (db *DB) GetSubmissionsByEvent(ctx context.Context) ([]EventSubmissionData, error) {
	var rows []EventSubmissionData
	err := db.bun.NewRaw(`
		SELECT
			e.id AS event_id,
			e.title,
			SUM(CASE WHEN i.status = ? THEN 1 ELSE 0 END) AS pending,
			SUM(CASE WHEN i.status = ? THEN 1 ELSE 0 END) AS approved,
			SUM(CASE WHEN i.status = ? THEN 1 ELSE 0 END) AS rejected
		FROM
			events e
		LEFT JOIN
			user_images i ON i.event_id = e.id
		GROUP BY
			e.id, e.title, e.date
		ORDER BY
			e.date ASC
	`, models.StatusPending, models.StatusApproved, models.StatusRejected).Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to count submissions by event: %w", err)
	}
	return rows, nil
}
