package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"albaranes-api/internal/domain"
	"albaranes-api/internal/repository"
	"albaranes-api/internal/storage"
)

// DeliveryNoteService gestiona albaranes: CRUD, render de PDF y el flujo de
// firma (subir firma, generar PDF, subir PDF, actualizar el documento).
type DeliveryNoteService struct {
	logger   *zap.Logger
	notes    repository.DeliveryNoteRepository
	clients  repository.ClientRepository
	projects repository.ProjectRepository
	users    repository.UserRepository
	uploader storage.Uploader
}

func NewDeliveryNoteService(
	logger *zap.Logger,
	notes repository.DeliveryNoteRepository,
	clients repository.ClientRepository,
	projects repository.ProjectRepository,
	users repository.UserRepository,
	uploader storage.Uploader,
) *DeliveryNoteService {
	return &DeliveryNoteService{
		logger:   logger,
		notes:    notes,
		clients:  clients,
		projects: projects,
		users:    users,
		uploader: uploader,
	}
}

var (
	ErrNoteNotFound    = errors.New("delivery note not found")
	ErrNoteSigned      = errors.New("delivery note already signed")
	ErrClientNotFound  = errors.New("client not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrInvalidItemType = errors.New("invalid item type")
)

// Create valida que cliente y proyecto pertenezcan al usuario antes de crear
// el albarán.
func (s *DeliveryNoteService) Create(ctx context.Context, userID, clientID, projectID string, items []domain.DeliveryNoteItem) (domain.DeliveryNote, error) {
	for _, item := range items {
		if item.Type != domain.ItemTypeHour && item.Type != domain.ItemTypeMaterial {
			return domain.DeliveryNote{}, ErrInvalidItemType
		}
	}
	if _, err := s.clients.GetByID(ctx, clientID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.DeliveryNote{}, ErrClientNotFound
		}
		return domain.DeliveryNote{}, err
	}
	if _, err := s.projects.GetByID(ctx, projectID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.DeliveryNote{}, ErrProjectNotFound
		}
		return domain.DeliveryNote{}, err
	}

	now := time.Now().UTC()
	note := domain.DeliveryNote{
		ID:        uuid.NewString(),
		UserID:    userID,
		ClientID:  clientID,
		ProjectID: projectID,
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return domain.DeliveryNote{}, err
	}
	return note, nil
}

func (s *DeliveryNoteService) List(ctx context.Context, userID string) ([]domain.DeliveryNote, error) {
	return s.notes.ListByUser(ctx, userID)
}

func (s *DeliveryNoteService) Get(ctx context.Context, id, userID string) (domain.DeliveryNote, error) {
	note, err := s.notes.GetByID(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.DeliveryNote{}, ErrNoteNotFound
	}
	return note, err
}

// Delete borra un albarán sin firmar. El filtro isSigned=false del
// repositorio hace la comprobación atómica; si el documento existe pero está
// firmado se responde ErrNoteSigned.
func (s *DeliveryNoteService) Delete(ctx context.Context, id, userID string) error {
	err := s.notes.DeleteUnsigned(ctx, id, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if _, getErr := s.notes.GetByID(ctx, id, userID); getErr == nil {
		return ErrNoteSigned
	}
	return ErrNoteNotFound
}

// GeneratePDF renderiza el albarán con los datos de usuario, cliente y
// proyecto poblados.
func (s *DeliveryNoteService) GeneratePDF(ctx context.Context, id, userID string) ([]byte, error) {
	note, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	owner, client, project, err := s.populate(ctx, note)
	if err != nil {
		return nil, err
	}
	return renderDeliveryNotePDF(note, owner, client, project)
}

// Sign ejecuta la secuencia de firma: sube la imagen de la firma, marca el
// albarán como firmado, genera el PDF y lo sube también. Las escrituras son
// parciales a propósito: si la subida del PDF falla, la firma ya registrada
// se conserva.
func (s *DeliveryNoteService) Sign(ctx context.Context, id, userID, fileName string, content io.Reader, size int64) (domain.DeliveryNote, error) {
	note, err := s.Get(ctx, id, userID)
	if err != nil {
		return domain.DeliveryNote{}, err
	}
	if note.IsSigned {
		return domain.DeliveryNote{}, ErrNoteSigned
	}
	if s.uploader == nil {
		return domain.DeliveryNote{}, errors.New("storage uploader not configured")
	}

	signatureURL, err := s.uploader.Upload(ctx, fileName, content, size)
	if err != nil {
		return domain.DeliveryNote{}, fmt.Errorf("upload signature: %w", err)
	}
	if err := s.notes.UpdateFields(ctx, id, userID, map[string]any{
		"isSigned":     true,
		"signatureUrl": signatureURL,
	}); err != nil {
		return domain.DeliveryNote{}, err
	}
	note.IsSigned = true
	note.SignatureURL = signatureURL

	owner, client, project, err := s.populate(ctx, note)
	if err != nil {
		return domain.DeliveryNote{}, err
	}
	pdfBytes, err := renderDeliveryNotePDF(note, owner, client, project)
	if err != nil {
		return domain.DeliveryNote{}, fmt.Errorf("render pdf: %w", err)
	}

	pdfName := fmt.Sprintf("deliverynote_%s.pdf", note.ID)
	pdfURL, err := s.uploader.Upload(ctx, pdfName, bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return domain.DeliveryNote{}, fmt.Errorf("upload pdf: %w", err)
	}
	if err := s.notes.UpdateFields(ctx, id, userID, map[string]any{"pdfUrl": pdfURL}); err != nil {
		return domain.DeliveryNote{}, err
	}
	note.PdfURL = pdfURL
	return note, nil
}

func (s *DeliveryNoteService) populate(ctx context.Context, note domain.DeliveryNote) (domain.Account, domain.Client, domain.Project, error) {
	owner, err := s.users.GetByID(ctx, note.UserID)
	if err != nil {
		return domain.Account{}, domain.Client{}, domain.Project{}, err
	}
	client, err := s.clients.GetByID(ctx, note.ClientID, note.UserID)
	if err != nil {
		return domain.Account{}, domain.Client{}, domain.Project{}, err
	}
	project, err := s.projects.GetByID(ctx, note.ProjectID, note.UserID)
	if err != nil {
		return domain.Account{}, domain.Client{}, domain.Project{}, err
	}
	return owner, client, project, nil
}
