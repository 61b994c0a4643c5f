package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/imagebox/imagebox/internal/domain"
	"github.com/imagebox/imagebox/internal/repo"
	"github.com/imagebox/imagebox/internal/storage"
	"github.com/imagebox/imagebox/pkg/events"
	"github.com/imagebox/imagebox/pkg/logger"
)

// Upload is one file of a multipart gallery upload.
type Upload struct {
	Title       string
	Filename    string
	ContentType string
	Body        io.Reader
}

type ImageService interface {
	UploadImages(ctx context.Context, userID int64, uploads []Upload) ([]domain.Image, error)
	GetImages(ctx context.Context, userID int64) ([]domain.Image, error)
	UpdateImage(ctx context.Context, userID, id int64, title string, replacement *Upload) (*domain.Image, error)
	DeleteImage(ctx context.Context, userID, id int64) error
	ReorderImages(ctx context.Context, userID int64, orderedIDs []int64) error
}

type imageService struct {
	images   repo.ImagesRepo
	store    storage.ObjectStore
	eventBus events.Publisher
}

func NewImageService(images repo.ImagesRepo, store storage.ObjectStore, eventBus events.Publisher) ImageService {
	return &imageService{
		images:   images,
		store:    store,
		eventBus: eventBus,
	}
}

func (s *imageService) UploadImages(ctx context.Context, userID int64, uploads []Upload) ([]domain.Image, error) {
	if len(uploads) == 0 {
		return nil, domain.Validation("no file provided for upload")
	}

	var created []domain.Image
	for _, up := range uploads {
		title := up.Title
		if title == "" {
			title = up.Filename
		}

		key := storage.RandomKey()
		url, err := s.store.Upload(ctx, key, up.ContentType, up.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to store image: %w", err)
		}

		img, err := s.images.Create(ctx, userID, title, url, key)
		if err != nil {
			return nil, fmt.Errorf("failed to save image record: %w", err)
		}

		if s.eventBus != nil {
			if err := s.eventBus.Publish(ctx, events.ImageUploaded, events.ImageUploadedEvent{
				UserID:     userID,
				ImageID:    img.ID,
				Title:      img.Title,
				UploadedAt: time.Now(),
			}); err != nil {
				logger.WarnContext(ctx, "Failed to publish event", "error", err, "subject", events.ImageUploaded)
			}
		}

		created = append(created, *img)
	}
	return created, nil
}

func (s *imageService) GetImages(ctx context.Context, userID int64) ([]domain.Image, error) {
	images, err := s.images.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return images, nil
}

func (s *imageService) UpdateImage(ctx context.Context, userID, id int64, title string, replacement *Upload) (*domain.Image, error) {
	if title == "" {
		return nil, domain.Validation("title is required")
	}

	existing, err := s.images.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find image: %w", err)
	}
	if existing == nil || existing.UserID != userID {
		return nil, domain.ErrNotFound
	}

	var url, key string
	if replacement != nil {
		key = storage.RandomKey()
		url, err = s.store.Upload(ctx, key, replacement.ContentType, replacement.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to store image: %w", err)
		}
		if err := s.store.Delete(ctx, existing.StorageKey); err != nil {
			logger.WarnContext(ctx, "Failed to delete replaced object", "error", err, "key", existing.StorageKey)
		}
	}

	updated, err := s.images.Update(ctx, id, title, url, key)
	if err != nil {
		return nil, fmt.Errorf("failed to update image: %w", err)
	}
	return updated, nil
}

func (s *imageService) DeleteImage(ctx context.Context, userID, id int64) error {
	existing, err := s.images.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find image: %w", err)
	}
	if existing == nil || existing.UserID != userID {
		return domain.ErrNotFound
	}

	if err := s.store.Delete(ctx, existing.StorageKey); err != nil {
		logger.WarnContext(ctx, "Failed to delete stored object", "error", err, "key", existing.StorageKey)
	}

	deleted, err := s.images.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

func (s *imageService) ReorderImages(ctx context.Context, userID int64, orderedIDs []int64) error {
	if len(orderedIDs) == 0 {
		return domain.Validation("ordered_ids is required")
	}
	if err := s.images.Reorder(ctx, userID, orderedIDs); err != nil {
		return fmt.Errorf("failed to reorder images: %w", err)
	}
	return nil
}
