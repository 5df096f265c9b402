package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"albaranes-api/internal/domain"
	"albaranes-api/internal/repository"
	"albaranes-api/internal/storage"
)

var ErrFileNotFound = errors.New("file not found")

// StorageService sube archivos al gateway configurado y lleva el registro de
// cada subida en la base de datos.
type StorageService struct {
	logger   *zap.Logger
	items    repository.StorageRepository
	uploader storage.Uploader
}

func NewStorageService(logger *zap.Logger, items repository.StorageRepository, uploader storage.Uploader) *StorageService {
	return &StorageService{
		logger:   logger,
		items:    items,
		uploader: uploader,
	}
}

func (s *StorageService) Upload(ctx context.Context, fileName string, content io.Reader, size int64) (domain.StorageItem, error) {
	if s.uploader == nil {
		return domain.StorageItem{}, errors.New("storage uploader not configured")
	}
	url, err := s.uploader.Upload(ctx, fileName, content, size)
	if err != nil {
		return domain.StorageItem{}, err
	}

	now := time.Now().UTC()
	item := domain.StorageItem{
		ID:           uuid.NewString(),
		OriginalName: fileName,
		URL:          url,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return domain.StorageItem{}, err
	}
	return item, nil
}

func (s *StorageService) Get(ctx context.Context, id string) (domain.StorageItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.StorageItem{}, ErrFileNotFound
	}
	return item, err
}

func (s *StorageService) List(ctx context.Context) ([]domain.StorageItem, error) {
	return s.items.List(ctx)
}

// Replace sube un archivo nuevo y apunta el registro existente a su URL.
func (s *StorageService) Replace(ctx context.Context, id, fileName string, content io.Reader, size int64) (domain.StorageItem, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return domain.StorageItem{}, err
	}
	url, err := s.uploader.Upload(ctx, fileName, content, size)
	if err != nil {
		return domain.StorageItem{}, err
	}
	if err := s.items.UpdateURL(ctx, id, url); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.StorageItem{}, ErrFileNotFound
		}
		return domain.StorageItem{}, err
	}
	return s.Get(ctx, id)
}

func (s *StorageService) Delete(ctx context.Context, id string) error {
	err := s.items.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrFileNotFound
	}
	return err
}
