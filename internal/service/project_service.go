package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"albaranes-api/internal/domain"
	"albaranes-api/internal/repository"
)

// ProjectService gestiona proyectos; cada proyecto cuelga de un cliente del
// mismo usuario.
type ProjectService struct {
	logger   *zap.Logger
	projects repository.ProjectRepository
	clients  repository.ClientRepository
}

func NewProjectService(logger *zap.Logger, projects repository.ProjectRepository, clients repository.ClientRepository) *ProjectService {
	return &ProjectService{
		logger:   logger,
		projects: projects,
		clients:  clients,
	}
}

type ProjectInput struct {
	ClientID    string
	Name        string
	Description string
}

func (s *ProjectService) Create(ctx context.Context, userID string, in ProjectInput) (domain.Project, error) {
	if _, err := s.clients.GetByID(ctx, in.ClientID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Project{}, ErrClientNotFound
		}
		return domain.Project{}, err
	}

	now := time.Now().UTC()
	project := domain.Project{
		ID:          uuid.NewString(),
		UserID:      userID,
		ClientID:    in.ClientID,
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, id, userID string) (domain.Project, error) {
	project, err := s.projects.GetByID(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Project{}, ErrProjectNotFound
	}
	return project, err
}

func (s *ProjectService) List(ctx context.Context, userID string) ([]domain.Project, error) {
	return s.projects.ListByUser(ctx, userID, false)
}

func (s *ProjectService) ListArchived(ctx context.Context, userID string) ([]domain.Project, error) {
	return s.projects.ListByUser(ctx, userID, true)
}

func (s *ProjectService) Update(ctx context.Context, id, userID string, in ProjectInput) (domain.Project, error) {
	fields := map[string]any{
		"name":        in.Name,
		"description": in.Description,
	}
	if in.ClientID != "" {
		if _, err := s.clients.GetByID(ctx, in.ClientID, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.Project{}, ErrClientNotFound
			}
			return domain.Project{}, err
		}
		fields["clientId"] = in.ClientID
	}
	err := s.projects.UpdateFields(ctx, id, userID, fields)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Project{}, ErrProjectNotFound
		}
		return domain.Project{}, err
	}
	return s.Get(ctx, id, userID)
}

func (s *ProjectService) Archive(ctx context.Context, id, userID string) error {
	return s.setArchived(ctx, id, userID, true)
}

func (s *ProjectService) Restore(ctx context.Context, id, userID string) error {
	return s.setArchived(ctx, id, userID, false)
}

func (s *ProjectService) setArchived(ctx context.Context, id, userID string, archived bool) error {
	err := s.projects.UpdateFields(ctx, id, userID, map[string]any{"archived": archived})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProjectNotFound
	}
	return err
}

func (s *ProjectService) Delete(ctx context.Context, id, userID string) error {
	err := s.projects.Delete(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProjectNotFound
	}
	return err
}
