package images

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ms-gallery/internal/logger"
	"ms-gallery/internal/models"
	"ms-gallery/internal/storage"
	"ms-gallery/internal/utils"
)

type DBLayer interface {
	CreateImages(ctx context.Context, images []models.SubmittedImage) error
	GetImageByID(ctx context.Context, id string) (*models.SubmittedImage, error)
	ListImagesByStatus(ctx context.Context, status models.ImageStatus, eventID string) ([]models.SubmittedImage, error)
	ListImagesByUser(ctx context.Context, userID string, status models.ImageStatus) ([]models.SubmittedImage, error)
	TransitionStatus(ctx context.Context, id string, from, to models.ImageStatus) error
	DeleteImage(ctx context.Context, id string) error
	EventExists(ctx context.Context, eventID string) (bool, error)
}

type ProfileStore interface {
	UpsertProfile(ctx context.Context, profile models.Profile) error
}

type ObjectStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
	KeyFromURL(rawURL string) (string, bool)
}

type LikeAggregator interface {
	Aggregate(ctx context.Context, imageIDs []string, userID string) (map[string]models.LikeState, error)
}

type Publisher interface {
	Publish(ctx context.Context, event models.GalleryEvent) error
}

type Metrics interface {
	ObserveTransition(status string)
}

type ImageService struct {
	DB             DBLayer
	Profiles       ProfileStore
	Storage        ObjectStore
	Likes          LikeAggregator
	Publisher      Publisher
	Metrics        Metrics
	Logger         *logger.Logger
	MaxBatchImages int
	Now            func() time.Time
}

func NewImageService(db DBLayer, profiles ProfileStore, store ObjectStore, likes LikeAggregator, publisher Publisher, metrics Metrics, log *logger.Logger) *ImageService {
	return &ImageService{
		DB:             db,
		Profiles:       profiles,
		Storage:        store,
		Likes:          likes,
		Publisher:      publisher,
		Metrics:        metrics,
		Logger:         log,
		MaxBatchImages: models.MaxBatchImages,
		Now:            time.Now,
	}
}

// Submit records an externally hosted image as a pending submission.
func (s *ImageService) Submit(ctx context.Context, identity *models.Identity, req models.SubmitImageRequest) (*models.ImageView, error) {
	if identity == nil || identity.UserID == "" {
		return nil, models.ErrUnauthorized
	}
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	if err := s.checkEvent(ctx, req.EventID); err != nil {
		return nil, err
	}

	img := s.newSubmission(identity.UserID, req.ImageURL, req.Caption, req.EventID)
	if err := s.Profiles.UpsertProfile(ctx, identity.Profile()); err != nil {
		return nil, fmt.Errorf("failed to record profile: %w", err)
	}
	if err := s.DB.CreateImages(ctx, []models.SubmittedImage{img}); err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	s.Logger.LogModeration("SUBMITTED", img.ID, fmt.Sprintf("by %s (external url)", identity.UserID))
	s.publish(ctx, models.GalleryEvent{Type: models.GalleryEventImageSubmitted, ImageID: img.ID, EventID: req.EventID, UserID: img.UserID, Status: img.Status})

	view := models.NewImageView(img)
	return &view, nil
}

// SubmitBatch uploads up to MaxBatchImages files and records them as pending
// submissions sharing one caption and event. Either every image ends up stored
// and recorded, or the uploaded objects are removed again and nothing is recorded.
func (s *ImageService) SubmitBatch(ctx context.Context, identity *models.Identity, uploads []models.Upload, caption, eventID string) ([]models.ImageView, error) {
	if identity == nil || identity.UserID == "" {
		return nil, models.ErrUnauthorized
	}
	if len(uploads) == 0 {
		return nil, fmt.Errorf("%w: at least one image is required", models.ErrValidation)
	}
	if len(uploads) > s.MaxBatchImages {
		return nil, fmt.Errorf("%w: max %d images per submission", models.ErrValidation, s.MaxBatchImages)
	}
	if err := utils.Validate(models.BatchSubmitRequest{Caption: caption, EventID: eventID}); err != nil {
		return nil, err
	}

	infos := make([]storage.ImageInfo, len(uploads))
	for i, u := range uploads {
		info, err := storage.InspectImage(u.Data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", u.Filename, err)
		}
		infos[i] = info
	}

	if err := s.checkEvent(ctx, eventID); err != nil {
		return nil, err
	}

	urls, keys, err := s.uploadAll(ctx, uploads, infos)
	if err != nil {
		s.rollback(keys)
		return nil, err
	}

	if err := s.Profiles.UpsertProfile(ctx, identity.Profile()); err != nil {
		s.rollback(keys)
		return nil, fmt.Errorf("failed to record profile: %w", err)
	}

	rows := make([]models.SubmittedImage, len(urls))
	for i, url := range urls {
		rows[i] = s.newSubmission(identity.UserID, url, caption, eventID)
	}
	if err := s.DB.CreateImages(ctx, rows); err != nil {
		s.rollback(keys)
		return nil, fmt.Errorf("failed to create submissions: %w", err)
	}

	views := make([]models.ImageView, len(rows))
	for i, img := range rows {
		s.Logger.LogModeration("SUBMITTED", img.ID, fmt.Sprintf("by %s (%d/%d in batch)", identity.UserID, i+1, len(rows)))
		s.publish(ctx, models.GalleryEvent{Type: models.GalleryEventImageSubmitted, ImageID: img.ID, EventID: eventID, UserID: img.UserID, Status: img.Status})
		views[i] = models.NewImageView(img)
	}
	return views, nil
}

// uploadAll pushes every file concurrently. It returns the keys of all objects
// that were stored, even on failure, so the caller can remove them.
func (s *ImageService) uploadAll(ctx context.Context, uploads []models.Upload, infos []storage.ImageInfo) ([]string, []string, error) {
	urls := make([]string, len(uploads))
	var (
		mu   sync.Mutex
		keys []string
	)

	g, gctx := errgroup.WithContext(ctx)
	for i := range uploads {
		i := i
		g.Go(func() error {
			u := uploads[i]
			key := utils.GenerateObjectKey(u.Filename)
			url, err := s.Storage.Upload(gctx, key, bytes.NewReader(u.Data), int64(len(u.Data)), infos[i].ContentType)
			if err != nil {
				s.Logger.LogStorage("UPLOAD_FAILED", key, err.Error())
				return fmt.Errorf("failed to upload %s: %w", u.Filename, err)
			}

			mu.Lock()
			keys = append(keys, key)
			mu.Unlock()

			s.Logger.LogStorage("UPLOADED", key, fmt.Sprintf("%dx%d %s", infos[i].Width, infos[i].Height, infos[i].ContentType))
			urls[i] = url
			return nil
		})
	}

	err := g.Wait()
	return urls, keys, err
}

// rollback removes objects uploaded for a batch that was not recorded. It runs
// on a fresh context so a cancelled request still cleans up.
func (s *ImageService) rollback(keys []string) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, key := range keys {
		if err := s.Storage.Remove(ctx, key); err != nil {
			s.Logger.LogStorage("ROLLBACK_FAILED", key, err.Error())
			continue
		}
		s.Logger.LogStorage("ROLLED_BACK", key, "removed after failed batch")
	}
}

func (s *ImageService) Approve(ctx context.Context, admin *models.AdminSession, imageID string) (*models.ImageView, error) {
	return s.transition(ctx, admin, imageID, models.StatusApproved)
}

func (s *ImageService) Reject(ctx context.Context, admin *models.AdminSession, imageID string) (*models.ImageView, error) {
	return s.transition(ctx, admin, imageID, models.StatusRejected)
}

func (s *ImageService) transition(ctx context.Context, admin *models.AdminSession, imageID string, to models.ImageStatus) (*models.ImageView, error) {
	if admin == nil {
		return nil, models.ErrForbidden
	}

	img, err := s.DB.GetImageByID(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if err := img.Status.Transition(to); err != nil {
		s.Logger.LogModeration("CONFLICT", imageID, err.Error())
		return nil, err
	}

	from := img.Status
	if err := s.DB.TransitionStatus(ctx, imageID, from, to); err != nil {
		s.Logger.LogModeration("CONFLICT", imageID, err.Error())
		return nil, err
	}
	img.Status = to

	if s.Metrics != nil {
		s.Metrics.ObserveTransition(string(to))
	}
	s.Logger.LogModeration(string(to), imageID, fmt.Sprintf("%s -> %s by %s", from, to, admin.Username))
	s.publish(ctx, models.GalleryEvent{Type: models.GalleryEventImageModerated, ImageID: imageID, EventID: deref(img.EventID), UserID: img.UserID, Status: to})

	view := models.NewImageView(*img)
	return &view, nil
}

// Delete removes a submission in any status. The backing object is removed
// first when it lives in the managed bucket; failing that is logged and the
// record is deleted anyway.
func (s *ImageService) Delete(ctx context.Context, admin *models.AdminSession, imageID string) error {
	if admin == nil {
		return models.ErrForbidden
	}

	img, err := s.DB.GetImageByID(ctx, imageID)
	if err != nil {
		return err
	}

	if key, ok := s.Storage.KeyFromURL(img.ImageURL); ok {
		if err := s.Storage.Remove(ctx, key); err != nil {
			s.Logger.LogStorage("REMOVE_FAILED", key, fmt.Sprintf("continuing with record delete: %v", err))
		}
	}

	if err := s.DB.DeleteImage(ctx, imageID); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	s.Logger.LogModeration("DELETED", imageID, fmt.Sprintf("was %s, by %s", img.Status, admin.Username))
	s.publish(ctx, models.GalleryEvent{Type: models.GalleryEventImageDeleted, ImageID: imageID, EventID: deref(img.EventID), UserID: img.UserID, Status: img.Status})
	return nil
}

func (s *ImageService) ListForAdmin(ctx context.Context, admin *models.AdminSession, status string) ([]models.ImageView, error) {
	if admin == nil {
		return nil, models.ErrForbidden
	}
	if status == "" {
		status = string(models.StatusPending)
	}
	st, err := models.ParseImageStatus(status)
	if err != nil {
		return nil, err
	}

	imgs, err := s.DB.ListImagesByStatus(ctx, st, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s images: %w", st, err)
	}
	return toViews(imgs), nil
}

// ListMine is the submitter's dashboard: their own images in every status.
func (s *ImageService) ListMine(ctx context.Context, identity *models.Identity, status string) ([]models.ImageView, error) {
	if identity == nil || identity.UserID == "" {
		return nil, models.ErrUnauthorized
	}

	var st models.ImageStatus
	if status != "" {
		parsed, err := models.ParseImageStatus(status)
		if err != nil {
			return nil, err
		}
		st = parsed
	}

	imgs, err := s.DB.ListImagesByUser(ctx, identity.UserID, st)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return toViews(imgs), nil
}

// Gallery lists approved images newest first with like counts, and with the
// caller's liked flag when userID is set.
func (s *ImageService) Gallery(ctx context.Context, userID, eventID string) ([]models.GalleryImage, error) {
	imgs, err := s.DB.ListImagesByStatus(ctx, models.StatusApproved, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load gallery: %w", err)
	}

	ids := make([]string, len(imgs))
	for i, img := range imgs {
		ids[i] = img.ID
	}

	states, err := s.Likes.Aggregate(ctx, ids, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load likes: %w", err)
	}

	gallery := make([]models.GalleryImage, len(imgs))
	for i, img := range imgs {
		state := states[img.ID]
		gallery[i] = models.GalleryImage{
			ImageView: models.NewImageView(img),
			LikeCount: state.LikeCount,
			IsLiked:   state.IsLiked,
		}
	}
	return gallery, nil
}

func (s *ImageService) newSubmission(userID, imageURL, caption, eventID string) models.SubmittedImage {
	img := models.SubmittedImage{
		ID:        utils.NewID(),
		UserID:    userID,
		ImageURL:  imageURL,
		Caption:   caption,
		Status:    models.StatusPending,
		CreatedAt: s.Now().UTC(),
	}
	if eventID != "" {
		id := eventID
		img.EventID = &id
	}
	return img
}

func (s *ImageService) checkEvent(ctx context.Context, eventID string) error {
	if eventID == "" {
		return nil
	}
	exists, err := s.DB.EventExists(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to check event: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: event %s does not exist", models.ErrValidation, eventID)
	}
	return nil
}

func (s *ImageService) publish(ctx context.Context, event models.GalleryEvent) {
	if s.Publisher == nil {
		return
	}
	event.OccurredAt = s.Now().UTC()
	if err := s.Publisher.Publish(ctx, event); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("%s for %s not published: %v", event.Type, event.ImageID, err))
	}
}

func toViews(imgs []models.SubmittedImage) []models.ImageView {
	views := make([]models.ImageView, len(imgs))
	for i, img := range imgs {
		views[i] = models.NewImageView(img)
	}
	return views
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
