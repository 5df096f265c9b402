package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"albaranes-api/internal/service"
)

// StorageHandler expone el gateway de archivos.
type StorageHandler struct {
	logger      *zap.Logger
	storageServ *service.StorageService
}

func NewStorageHandler(logger *zap.Logger, storageServ *service.StorageService) *StorageHandler {
	return &StorageHandler{
		logger:      logger,
		storageServ: storageServ,
	}
}

// Upload maneja POST /storage (multipart).
func (h *StorageHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortWithCode(c, http.StatusBadRequest, "NO_FILE_UPLOADED")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_UPLOAD_FILE")
		return
	}
	defer file.Close()

	item, err := h.storageServ.Upload(c.Request.Context(), fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		h.logger.Error("upload file failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_UPLOAD_FILE")
		return
	}
	c.JSON(http.StatusCreated, item)
}

// List maneja GET /storage (público).
func (h *StorageHandler) List(c *gin.Context) {
	items, err := h.storageServ.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list files failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_GET_FILES")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

// Get maneja GET /storage/:id (público).
func (h *StorageHandler) Get(c *gin.Context) {
	item, err := h.storageServ.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.abortStorageErr(c, err, "ERROR_GET_FILE")
		return
	}
	c.JSON(http.StatusOK, item)
}

// Replace maneja PUT /storage/:id (multipart): sube un archivo nuevo bajo el
// mismo registro.
func (h *StorageHandler) Replace(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortWithCode(c, http.StatusBadRequest, "NO_FILE_UPLOADED")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_UPDATE_FILE")
		return
	}
	defer file.Close()

	item, err := h.storageServ.Replace(c.Request.Context(), c.Param("id"), fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		h.abortStorageErr(c, err, "ERROR_UPDATE_FILE")
		return
	}
	c.JSON(http.StatusOK, item)
}

// Delete maneja DELETE /storage/:id.
func (h *StorageHandler) Delete(c *gin.Context) {
	if err := h.storageServ.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.abortStorageErr(c, err, "ERROR_DELETE_FILE")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Archivo eliminado correctamente"})
}

func (h *StorageHandler) abortStorageErr(c *gin.Context, err error, fallback string) {
	if errors.Is(err, service.ErrFileNotFound) {
		abortWithCode(c, http.StatusNotFound, "FILE_NOT_FOUND")
		return
	}
	h.logger.Error("storage operation failed", zap.Error(err))
	abortWithCode(c, http.StatusInternalServerError, fallback)
}
