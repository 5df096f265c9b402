package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"albaranes-api/internal/domain"
	"albaranes-api/internal/service"
)

// DeliveryNoteHandler expone los endpoints de albaranes.
type DeliveryNoteHandler struct {
	logger   *zap.Logger
	noteServ *service.DeliveryNoteService
}

func NewDeliveryNoteHandler(logger *zap.Logger, noteServ *service.DeliveryNoteService) *DeliveryNoteHandler {
	return &DeliveryNoteHandler{
		logger:   logger,
		noteServ: noteServ,
	}
}

// Create maneja POST /deliverynote.
func (h *DeliveryNoteHandler) Create(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
		return
	}
	var req struct {
		ClientID  string `json:"clientId" binding:"required"`
		ProjectID string `json:"projectId" binding:"required"`
		Items     []struct {
			Type        string  `json:"type" binding:"required"`
			Description string  `json:"description" binding:"required"`
			Quantity    float64 `json:"quantity" binding:"required"`
		} `json:"items" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}

	items := make([]domain.DeliveryNoteItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.DeliveryNoteItem{
			Type:        item.Type,
			Description: item.Description,
			Quantity:    item.Quantity,
		})
	}

	note, err := h.noteServ.Create(c.Request.Context(), account.ID, req.ClientID, req.ProjectID, items)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidItemType):
			abortWithCode(c, http.StatusBadRequest, "INVALID_ITEM_TYPE")
		case errors.Is(err, service.ErrClientNotFound):
			abortWithCode(c, http.StatusNotFound, "CLIENT_NOT_FOUND")
		case errors.Is(err, service.ErrProjectNotFound):
			abortWithCode(c, http.StatusNotFound, "PROJECT_NOT_FOUND")
		default:
			h.logger.Error("create delivery note failed", zap.Error(err))
			abortWithCode(c, http.StatusInternalServerError, "ERROR_CREATE_DELIVERYNOTE")
		}
		return
	}
	c.JSON(http.StatusCreated, note)
}

// List maneja GET /deliverynote.
func (h *DeliveryNoteHandler) List(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
		return
	}
	notes, err := h.noteServ.List(c.Request.Context(), account.ID)
	if err != nil {
		h.logger.Error("list delivery notes failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_GET_DELIVERYNOTES")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": notes})
}

// Get maneja GET /deliverynote/:id.
func (h *DeliveryNoteHandler) Get(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
		return
	}
	note, err := h.noteServ.Get(c.Request.Context(), c.Param("id"), account.ID)
	if err != nil {
		h.abortNoteErr(c, err, "ERROR_GET_DELIVERYNOTE")
		return
	}
	c.JSON(http.StatusOK, note)
}

// DownloadPDF maneja GET /deliverynote/pdf/:id: genera el PDF bajo demanda y
// lo devuelve como descarga.
func (h *DeliveryNoteHandler) DownloadPDF(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
		return
	}
	pdfBytes, err := h.noteServ.GeneratePDF(c.Request.Context(), c.Param("id"), account.ID)
	if err != nil {
		h.abortNoteErr(c, err, "ERROR_GENERATE_PDF")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=deliverynote_%s.pdf", c.Param("id")))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// Sign maneja PATCH /deliverynote/sign/:id (multipart con la imagen de la
// firma).
func (h *DeliveryNoteHandler) Sign(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
		return
	}
	fileHeader, err := c.FormFile("signature")
	if err != nil {
		abortWithCode(c, http.StatusBadRequest, "NO_FILE_UPLOADED")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_SIGN_DELIVERYNOTE")
		return
	}
	defer file.Close()

	note, err := h.noteServ.Sign(c.Request.Context(), c.Param("id"), account.ID, fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		h.abortNoteErr(c, err, "ERROR_SIGN_DELIVERYNOTE")
		return
	}
	c.JSON(http.StatusOK, note)
}

// Delete maneja DELETE /deliverynote/:id: sólo albaranes sin firmar.
func (h *DeliveryNoteHandler) Delete(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
		return
	}
	if err := h.noteServ.Delete(c.Request.Context(), c.Param("id"), account.ID); err != nil {
		h.abortNoteErr(c, err, "ERROR_DELETE_DELIVERYNOTE")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Albarán eliminado correctamente"})
}

func (h *DeliveryNoteHandler) abortNoteErr(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNoteNotFound):
		abortWithCode(c, http.StatusNotFound, "DELIVERYNOTE_NOT_FOUND")
	case errors.Is(err, service.ErrNoteSigned):
		abortWithCode(c, http.StatusBadRequest, "DELIVERYNOTE_SIGNED")
	default:
		h.logger.Error("delivery note operation failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, fallback)
	}
}
