package analytics

import (
	"context"
	"fmt"

	"ms-gallery/internal/models"
)

// DefaultTopLiked is how many images the dashboard ranks when no limit is given.
const DefaultTopLiked = 5

type DBLayer interface {
	CountByStatus(ctx context.Context) (map[models.ImageStatus]int, error)
	CountLikes(ctx context.Context) (int, error)
	GetTopLiked(ctx context.Context, limit int) ([]TopLikedData, error)
	GetSubmissionsByEvent(ctx context.Context) ([]EventSubmissionData, error)
}

// Service handles the admin dashboard counters
type Service struct {
	db DBLayer
}

func NewService(db DBLayer) *Service {
	return &Service{db: db}
}

// ModerationStats is the admin dashboard summary.
type ModerationStats struct {
	Pending    int                   `json:"pending"`
	Approved   int                   `json:"approved"`
	Rejected   int                   `json:"rejected"`
	Total      int                   `json:"total"`
	TotalLikes int                   `json:"total_likes"`
	TopLiked   []TopLikedData        `json:"top_liked"`
	ByEvent    []EventSubmissionData `json:"by_event"`
}

func (s *Service) GetModerationStats(ctx context.Context, admin *models.AdminSession, topLimit int) (*ModerationStats, error) {
	if admin == nil {
		return nil, models.ErrForbidden
	}
	if topLimit <= 0 {
		topLimit = DefaultTopLiked
	}
	if topLimit > 50 {
		return nil, fmt.Errorf("%w: top limit must be at most 50", models.ErrValidation)
	}

	counts, err := s.db.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	likes, err := s.db.CountLikes(ctx)
	if err != nil {
		return nil, err
	}
	top, err := s.db.GetTopLiked(ctx, topLimit)
	if err != nil {
		return nil, err
	}
	byEvent, err := s.db.GetSubmissionsByEvent(ctx)
	if err != nil {
		return nil, err
	}

	stats := &ModerationStats{
		Pending:    counts[models.StatusPending],
		Approved:   counts[models.StatusApproved],
		Rejected:   counts[models.StatusRejected],
		TotalLikes: likes,
		TopLiked:   top,
		ByEvent:    byEvent,
	}
	stats.Total = stats.Pending + stats.Approved + stats.Rejected
	if stats.TopLiked == nil {
		stats.TopLiked = []TopLikedData{}
	}
	if stats.ByEvent == nil {
		stats.ByEvent = []EventSubmissionData{}
	}
	return stats, nil
}
