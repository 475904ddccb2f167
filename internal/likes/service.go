package likes

import (
	"context"
	"fmt"
	"time"

	"ms-gallery/internal/logger"
	"ms-gallery/internal/models"
	"ms-gallery/internal/utils"
)

// MaxSummaryImages bounds one like summary request.
const MaxSummaryImages = 200

type DBLayer interface {
	LikeExists(ctx context.Context, imageID, userID string) (bool, error)
	InsertLike(ctx context.Context, like models.Like) (bool, error)
	DeleteLike(ctx context.Context, imageID, userID string) (bool, error)
	CountByImages(ctx context.Context, imageIDs []string) (map[string]int, error)
	LikedByUser(ctx context.Context, imageIDs []string, userID string) (map[string]bool, error)
	ImageStatus(ctx context.Context, imageID string) (models.ImageStatus, error)
}

type ToggleGuard interface {
	Acquire(ctx context.Context, imageID, userID string) (string, bool, error)
	Release(ctx context.Context, imageID, userID, token string) error
}

type Publisher interface {
	Publish(ctx context.Context, event models.GalleryEvent) error
}

type Metrics interface {
	ObserveToggle(liked bool)
}

type LikeService struct {
	DB        DBLayer
	Guard     ToggleGuard
	Publisher Publisher
	Metrics   Metrics
	Logger    *logger.Logger
}

func NewLikeService(db DBLayer, guard ToggleGuard, publisher Publisher, metrics Metrics, log *logger.Logger) *LikeService {
	return &LikeService{DB: db, Guard: guard, Publisher: publisher, Metrics: metrics, Logger: log}
}

// Aggregate computes like count and the viewer's liked flag for a batch of
// images with one grouped count query and, for a signed-in viewer, one more
// query for their likes. Every requested id is present in the result.
func (s *LikeService) Aggregate(ctx context.Context, imageIDs []string, userID string) (map[string]models.LikeState, error) {
	ids := dedupe(imageIDs)
	states := make(map[string]models.LikeState, len(ids))
	if len(ids) == 0 {
		return states, nil
	}

	counts, err := s.DB.CountByImages(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}

	liked := map[string]bool{}
	if userID != "" {
		liked, err = s.DB.LikedByUser(ctx, ids, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load liked images: %w", err)
		}
	}

	for _, id := range ids {
		states[id] = models.LikeState{LikeCount: counts[id], IsLiked: liked[id]}
	}
	return states, nil
}

// Summary is Aggregate for callers outside the gallery listing.
func (s *LikeService) Summary(ctx context.Context, imageIDs []string, userID string) (map[string]models.LikeState, error) {
	if len(imageIDs) > MaxSummaryImages {
		return nil, fmt.Errorf("%w: at most %d images per summary", models.ErrValidation, MaxSummaryImages)
	}
	return s.Aggregate(ctx, imageIDs, userID)
}

// Toggle flips the user's like on an approved image and returns the stored
// count after the change. Without a user nothing is touched and shown comes
// back unchanged.
func (s *LikeService) Toggle(ctx context.Context, imageID, userID string, shown models.LikeState) (models.LikeState, error) {
	if userID == "" {
		return shown, nil
	}

	token, ok, err := s.Guard.Acquire(ctx, imageID, userID)
	if err != nil {
		return shown, err
	}
	if !ok {
		return shown, models.ErrToggleInFlight
	}
	defer func() {
		if err := s.Guard.Release(context.Background(), imageID, userID, token); err != nil {
			s.Logger.Warn("LIKE", fmt.Sprintf("Failed to release toggle guard for %s: %v", imageID, err))
		}
	}()

	status, err := s.DB.ImageStatus(ctx, imageID)
	if err != nil {
		return shown, err
	}
	if status != models.StatusApproved {
		return shown, fmt.Errorf("image %s: %w", imageID, models.ErrNotFound)
	}

	exists, err := s.DB.LikeExists(ctx, imageID, userID)
	if err != nil {
		return shown, fmt.Errorf("failed to check like: %w", err)
	}

	if exists {
		if _, err := s.DB.DeleteLike(ctx, imageID, userID); err != nil {
			return shown, fmt.Errorf("failed to remove like: %w", err)
		}
	} else {
		if _, err := s.DB.InsertLike(ctx, models.Like{
			ID:        utils.NewID(),
			ImageID:   imageID,
			UserID:    userID,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return shown, fmt.Errorf("failed to add like: %w", err)
		}
	}

	counts, err := s.DB.CountByImages(ctx, []string{imageID})
	if err != nil {
		return shown, fmt.Errorf("failed to count likes: %w", err)
	}
	next := models.LikeState{LikeCount: counts[imageID], IsLiked: !exists}

	if s.Metrics != nil {
		s.Metrics.ObserveToggle(next.IsLiked)
	}
	s.Logger.LogLike(likeAction(next.IsLiked), imageID, fmt.Sprintf("user %s, count %d", userID, next.LikeCount))
	s.publish(ctx, imageID, userID, next)
	return next, nil
}

func (s *LikeService) publish(ctx context.Context, imageID, userID string, state models.LikeState) {
	if s.Publisher == nil {
		return
	}
	count := state.LikeCount
	err := s.Publisher.Publish(ctx, models.GalleryEvent{
		Type:       models.GalleryEventLikeToggled,
		ImageID:    imageID,
		UserID:     userID,
		Action:     likeAction(state.IsLiked),
		LikeCount:  &count,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("Like toggle for %s not published: %v", imageID, err))
	}
}

func likeAction(liked bool) string {
	if liked {
		return "liked"
	}
	return "unliked"
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
