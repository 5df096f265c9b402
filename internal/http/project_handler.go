package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"albaranes-api/internal/service"
)

// ProjectHandler expone los endpoints de proyectos.
type ProjectHandler struct {
	logger      *zap.Logger
	projectServ *service.ProjectService
}

func NewProjectHandler(logger *zap.Logger, projectServ *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		logger:      logger,
		projectServ: projectServ,
	}
}

// Create maneja POST /project.
func (h *ProjectHandler) Create(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
		return
	}
	var req struct {
		ClientID    string `json:"clientId" binding:"required"`
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}

	project, err := h.projectServ.Create(c.Request.Context(), account.ID, service.ProjectInput{
		ClientID:    req.ClientID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, service.ErrClientNotFound) {
			abortWithCode(c, http.StatusNotFound, "CLIENT_NOT_FOUND")
			return
		}
		h.logger.Error("create project failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_CREATE_PROJECT")
		return
	}
	c.JSON(http.StatusCreated, project)
}

// List maneja GET /project.
func (h *ProjectHandler) List(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
		return
	}
	projects, err := h.projectServ.List(c.Request.Context(), account.ID)
	if err != nil {
		h.logger.Error("list projects failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_GET_PROJECTS")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": projects})
}

// ListArchived maneja GET /project/archive.
func (h *ProjectHandler) ListArchived(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
		return
	}
	projects, err := h.projectServ.ListArchived(c.Request.Context(), account.ID)
	if err != nil {
		h.logger.Error("list archived projects failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_GET_PROJECTS")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": projects})
}

// Get maneja GET /project/:id.
func (h *ProjectHandler) Get(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
		return
	}
	project, err := h.projectServ.Get(c.Request.Context(), c.Param("id"), account.ID)
	if err != nil {
		h.abortProjectErr(c, err, "ERROR_GET_PROJECT")
		return
	}
	c.JSON(http.StatusOK, project)
}

// Update maneja PUT /project/:id.
func (h *ProjectHandler) Update(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
		return
	}
	var req struct {
		ClientID    string `json:"clientId"`
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}

	project, err := h.projectServ.Update(c.Request.Context(), c.Param("id"), account.ID, service.ProjectInput{
		ClientID:    req.ClientID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, service.ErrClientNotFound) {
			abortWithCode(c, http.StatusNotFound, "CLIENT_NOT_FOUND")
			return
		}
		h.abortProjectErr(c, err, "ERROR_UPDATE_PROJECT")
		return
	}
	c.JSON(http.StatusOK, project)
}

// Archive maneja PATCH /project/archive/:id.
func (h *ProjectHandler) Archive(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
		return
	}
	if err := h.projectServ.Archive(c.Request.Context(), c.Param("id"), account.ID); err != nil {
		h.abortProjectErr(c, err, "ERROR_ARCHIVE_PROJECT")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Proyecto archivado correctamente"})
}

// Restore maneja PATCH /project/restore/:id.
func (h *ProjectHandler) Restore(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
		return
	}
	if err := h.projectServ.Restore(c.Request.Context(), c.Param("id"), account.ID); err != nil {
		h.abortProjectErr(c, err, "ERROR_RESTORE_PROJECT")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Proyecto restaurado correctamente"})
}

// Delete maneja DELETE /project/:id.
func (h *ProjectHandler) Delete(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
		return
	}
	if err := h.projectServ.Delete(c.Request.Context(), c.Param("id"), account.ID); err != nil {
		h.abortProjectErr(c, err, "ERROR_DELETE_PROJECT")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Proyecto eliminado correctamente"})
}

func (h *ProjectHandler) abortProjectErr(c *gin.Context, err error, fallback string) {
	if errors.Is(err, service.ErrProjectNotFound) {
		abortWithCode(c, http.StatusNotFound, "PROJECT_NOT_FOUND")
		return
	}
	h.logger.Error("project operation failed", zap.Error(err))
	abortWithCode(c, http.StatusInternalServerError, fallback)
}
