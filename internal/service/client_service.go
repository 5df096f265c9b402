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

// ClientService gestiona los clientes de facturación de cada cuenta.
type ClientService struct {
	logger   *zap.Logger
	clients  repository.ClientRepository
	uploader storage.Uploader
}

func NewClientService(logger *zap.Logger, clients repository.ClientRepository, uploader storage.Uploader) *ClientService {
	return &ClientService{
		logger:   logger,
		clients:  clients,
		uploader: uploader,
	}
}

type ClientInput struct {
	Name    string
	CIF     string
	Address domain.Address
}

func (s *ClientService) Create(ctx context.Context, userID string, in ClientInput) (domain.Client, error) {
	now := time.Now().UTC()
	client := domain.Client{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      in.Name,
		CIF:       in.CIF,
		Address:   in.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.clients.Create(ctx, client); err != nil {
		return domain.Client{}, err
	}
	return client, nil
}

func (s *ClientService) Get(ctx context.Context, id, userID string) (domain.Client, error) {
	client, err := s.clients.GetByID(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Client{}, ErrClientNotFound
	}
	return client, err
}

// List devuelve los clientes no archivados del usuario.
func (s *ClientService) List(ctx context.Context, userID string) ([]domain.Client, error) {
	return s.clients.ListByUser(ctx, userID, false)
}

// ListArchived devuelve los clientes archivados del usuario.
func (s *ClientService) ListArchived(ctx context.Context, userID string) ([]domain.Client, error) {
	return s.clients.ListByUser(ctx, userID, true)
}

func (s *ClientService) Update(ctx context.Context, id, userID string, in ClientInput) (domain.Client, error) {
	err := s.clients.UpdateFields(ctx, id, userID, map[string]any{
		"name":    in.Name,
		"cif":     in.CIF,
		"address": in.Address,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Client{}, ErrClientNotFound
		}
		return domain.Client{}, err
	}
	return s.Get(ctx, id, userID)
}

func (s *ClientService) Archive(ctx context.Context, id, userID string) error {
	return s.setArchived(ctx, id, userID, true)
}

func (s *ClientService) Restore(ctx context.Context, id, userID string) error {
	return s.setArchived(ctx, id, userID, false)
}

func (s *ClientService) setArchived(ctx context.Context, id, userID string, archived bool) error {
	err := s.clients.UpdateFields(ctx, id, userID, map[string]any{"archived": archived})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrClientNotFound
	}
	return err
}

func (s *ClientService) Delete(ctx context.Context, id, userID string) error {
	err := s.clients.Delete(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrClientNotFound
	}
	return err
}

// UpdateLogo sube la imagen al gateway de archivos y guarda la URL resultante.
func (s *ClientService) UpdateLogo(ctx context.Context, id, userID, fileName string, content io.Reader, size int64) (string, error) {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return "", err
	}
	if s.uploader == nil {
		return "", errors.New("storage uploader not configured")
	}
	logoURL, err := s.uploader.Upload(ctx, fileName, content, size)
	if err != nil {
		return "", err
	}
	err = s.clients.UpdateFields(ctx, id, userID, map[string]any{"logo": logoURL})
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrClientNotFound
	}
	if err != nil {
		return "", err
	}
	return logoURL, nil
}
