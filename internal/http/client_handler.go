package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"albaranes-api/internal/domain"
	"albaranes-api/internal/service"
)

// ClientHandler expone los endpoints de clientes de facturación.
type ClientHandler struct {
	logger     *zap.Logger
	clientServ *service.ClientService
}

func NewClientHandler(logger *zap.Logger, clientServ *service.ClientService) *ClientHandler {
	return &ClientHandler{
		logger:     logger,
		clientServ: clientServ,
	}
}

type clientRequest struct {
	Name    string `json:"name" binding:"required"`
	CIF     string `json:"cif" binding:"required"`
	Address struct {
		Street   string `json:"street"`
		Number   int    `json:"number"`
		Postal   int    `json:"postal"`
		City     string `json:"city"`
		Province string `json:"province"`
	} `json:"address"`
}

func (r clientRequest) toInput() service.ClientInput {
	return service.ClientInput{
		Name: r.Name,
		CIF:  r.CIF,
		Address: domain.Address{
			Street:   r.Address.Street,
			Number:   r.Address.Number,
			Postal:   r.Address.Postal,
			City:     r.Address.City,
			Province: r.Address.Province,
		},
	}
}

// Create maneja POST /client.
func (h *ClientHandler) Create(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
		return
	}

	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}

	client, err := h.clientServ.Create(c.Request.Context(), account.ID, req.toInput())
	if err != nil {
		h.logger.Error("create client failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_CREATE_CLIENT")
		return
	}
	c.JSON(http.StatusCreated, client)
}

// List maneja GET /client: sólo clientes no archivados del usuario.
func (h *ClientHandler) List(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
		return
	}
	clients, err := h.clientServ.List(c.Request.Context(), account.ID)
	if err != nil {
		h.logger.Error("list clients failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_GET_CLIENTS")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": clients})
}

// ListArchived maneja GET /client/archive.
func (h *ClientHandler) ListArchived(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
		return
	}
	clients, err := h.clientServ.ListArchived(c.Request.Context(), account.ID)
	if err != nil {
		h.logger.Error("list archived clients failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_GET_CLIENTS")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": clients})
}

// Get maneja GET /client/:id.
func (h *ClientHandler) Get(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
		return
	}
	client, err := h.clientServ.Get(c.Request.Context(), c.Param("id"), account.ID)
	if err != nil {
		h.abortClientErr(c, err, "ERROR_GET_CLIENT")
		return
	}
	c.JSON(http.StatusOK, client)
}

// Update maneja PUT /client/:id.
func (h *ClientHandler) Update(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
		return
	}
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}
	client, err := h.clientServ.Update(c.Request.Context(), c.Param("id"), account.ID, req.toInput())
	if err != nil {
		h.abortClientErr(c, err, "ERROR_UPDATE_CLIENT")
		return
	}
	c.JSON(http.StatusOK, client)
}

// Archive maneja PATCH /client/archive/:id.
func (h *ClientHandler) Archive(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
		return
	}
	if err := h.clientServ.Archive(c.Request.Context(), c.Param("id"), account.ID); err != nil {
		h.abortClientErr(c, err, "ERROR_ARCHIVE_CLIENT")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cliente archivado correctamente"})
}

// Restore maneja PATCH /client/restore/:id.
func (h *ClientHandler) Restore(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
		return
	}
	if err := h.clientServ.Restore(c.Request.Context(), c.Param("id"), account.ID); err != nil {
		h.abortClientErr(c, err, "ERROR_RESTORE_CLIENT")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cliente restaurado correctamente"})
}

// Delete maneja DELETE /client/:id.
func (h *ClientHandler) Delete(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
		return
	}
	if err := h.clientServ.Delete(c.Request.Context(), c.Param("id"), account.ID); err != nil {
		h.abortClientErr(c, err, "ERROR_DELETE_CLIENT")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cliente eliminado correctamente"})
}

// UpdateLogo maneja PATCH /client/logo/:id (multipart).
func (h *ClientHandler) UpdateLogo(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
		return
	}
	fileHeader, err := c.FormFile("image")
	if err != nil {
		abortWithCode(c, http.StatusBadRequest, "NO_FILE_UPLOADED")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_UPDATE_CLIENT_LOGO")
		return
	}
	defer file.Close()

	logoURL, err := h.clientServ.UpdateLogo(c.Request.Context(), c.Param("id"), account.ID, fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		h.abortClientErr(c, err, "ERROR_UPDATE_CLIENT_LOGO")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logo actualizado correctamente", "logo": logoURL})
}

func (h *ClientHandler) abortClientErr(c *gin.Context, err error, fallback string) {
	if errors.Is(err, service.ErrClientNotFound) {
		abortWithCode(c, http.StatusNotFound, "CLIENT_NOT_FOUND")
		return
	}
	h.logger.Error("client operation failed", zap.Error(err))
	abortWithCode(c, http.StatusInternalServerError, fallback)
}
