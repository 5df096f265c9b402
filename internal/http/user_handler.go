package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"albaranes-api/internal/domain"
	"albaranes-api/internal/service"
)

// UserHandler mantiene dependencias para los endpoints de usuarios.
type UserHandler struct {
	logger   *zap.Logger
	userServ *service.UserService
}

func NewUserHandler(logger *zap.Logger, userServ *service.UserService) *UserHandler {
	return &UserHandler{
		logger:   logger,
		userServ: userServ,
	}
}

// List maneja GET /users (sólo admin).
func (h *UserHandler) List(c *gin.Context) {
	accounts, err := h.userServ.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list users failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_GET_USERS")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": accounts})
}

// Me maneja GET /users/me.
func (h *UserHandler) Me(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusNotFound, "USER_NOT_FOUND")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": account})
}

// Get maneja GET /users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	account, err := h.userServ.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithCode(c, http.StatusNotFound, "USER_NOT_FOUND")
			return
		}
		h.logger.Error("get user failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_GET_USER")
		return
	}
	c.JSON(http.StatusOK, account)
}

// VerifyEmail maneja POST /users/validate-email.
func (h *UserHandler) VerifyEmail(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusNotFound, "USER_NOT_FOUND")
		return
	}

	var req struct {
		Code string `json:"code" binding:"required,len=6,numeric"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}

	if err := h.userServ.VerifyEmail(c.Request.Context(), account.ID, req.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			abortWithCode(c, http.StatusNotFound, "USER_NOT_FOUND")
		case errors.Is(err, service.ErrNoVerificationCode):
			abortWithCode(c, http.StatusBadRequest, "NO_VERIFICATION_CODE_SENT")
		case errors.Is(err, service.ErrMaxAttempts):
			abortWithCode(c, http.StatusBadRequest, "MAX_ATTEMPTS_EXCEEDED")
		case errors.Is(err, service.ErrInvalidCode):
			abortWithCode(c, http.StatusBadRequest, "INVALID_CODE")
		default:
			h.logger.Error("verify email failed", zap.Error(err))
			abortWithCode(c, http.StatusInternalServerError, "ERROR_VERIFY_EMAIL")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email verificado correctamente"})
}

// Invite maneja POST /users/invite (sólo admin).
func (h *UserHandler) Invite(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}

	if err := h.userServ.Invite(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			abortWithCode(c, http.StatusConflict, "USER_ALREADY_EXISTS")
			return
		}
		h.logger.Error("invite failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_INVITE_USER")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitación enviada correctamente"})
}

// AcceptInvite maneja POST /users/accept-invite.
func (h *UserHandler) AcceptInvite(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Token    string `json:"token" binding:"required"`
		Name     string `json:"name" binding:"required"`
		LastName string `json:"lastName"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}

	err := h.userServ.AcceptInvite(c.Request.Context(), service.AcceptInviteInput{
		Email:    req.Email,
		Token:    req.Token,
		Name:     req.Name,
		LastName: req.LastName,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			abortWithCode(c, http.StatusNotFound, "USER_NOT_FOUND")
		case errors.Is(err, service.ErrInviteExpired):
			abortWithCode(c, http.StatusBadRequest, "INVITE_EXPIRED")
		case errors.Is(err, service.ErrInvalidInviteToken):
			abortWithCode(c, http.StatusBadRequest, "INVALID_INVITE_TOKEN")
		default:
			h.logger.Error("accept invite failed", zap.Error(err))
			abortWithCode(c, http.StatusInternalServerError, "ERROR_ACCEPT_INVITE")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitación aceptada. Usuario activo."})
}

// RecoverPasswordCode maneja POST /users/recover-password-code.
func (h *UserHandler) RecoverPasswordCode(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}

	if err := h.userServ.RequestPasswordRecovery(c.Request.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			abortWithCode(c, http.StatusNotFound, "USER_NOT_EXISTS")
		case errors.Is(err, service.ErrRateLimited):
			abortWithCode(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS")
		default:
			h.logger.Error("recover password code failed", zap.Error(err))
			abortWithCode(c, http.StatusInternalServerError, "ERROR_RECOVER_PASSWORD")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Código de recuperación enviado al correo del usuario"})
}

// ChangePassword maneja POST /users/change-password.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req struct {
		Email        string `json:"email" binding:"required,email"`
		RecoveryCode string `json:"recoveryCode" binding:"required"`
		NewPassword  string `json:"newPassword" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}

	if err := h.userServ.ChangePassword(c.Request.Context(), req.Email, req.RecoveryCode, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			abortWithCode(c, http.StatusNotFound, "USER_NOT_EXISTS")
		case errors.Is(err, service.ErrInvalidRecoveryCode):
			abortWithCode(c, http.StatusBadRequest, "INVALID_RECOVERY_CODE")
		default:
			h.logger.Error("change password failed", zap.Error(err))
			abortWithCode(c, http.StatusInternalServerError, "ERROR_CHANGE_PASSWORD")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Contraseña actualizada exitosamente"})
}

// ChangeRole maneja PATCH /users/:id/role (sólo admin).
func (h *UserHandler) ChangeRole(c *gin.Context) {
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		abortWithCode(c, http.StatusBadRequest, "INVALID_ROLE")
		return
	}

	account, err := h.userServ.ChangeRole(c.Request.Context(), c.Param("id"), role)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithCode(c, http.StatusNotFound, "USER_NOT_FOUND")
			return
		}
		h.logger.Error("change role failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_UPDATE_USER_ROLE")
		return
	}

	c.JSON(http.StatusOK, account)
}

// Delete maneja DELETE /users: soft por defecto, hard con ?soft=false.
func (h *UserHandler) Delete(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusNotFound, "USER_NOT_FOUND")
		return
	}
	soft := c.Query("soft") != "false"

	if err := h.userServ.Delete(c.Request.Context(), account.ID, soft); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithCode(c, http.StatusNotFound, "USER_NOT_FOUND")
			return
		}
		h.logger.Error("delete user failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_DELETE_USER")
		return
	}

	if soft {
		c.JSON(http.StatusOK, gin.H{"message": "Usuario eliminado (soft delete) con éxito"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Usuario eliminado (hard delete) con éxito"})
}

// OnboardingPersonal maneja PATCH /users/onboarding/personal.
func (h *UserHandler) OnboardingPersonal(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusNotFound, "USER_NOT_FOUND")
		return
	}

	var req struct {
		Name     string `json:"name" binding:"required"`
		LastName string `json:"lastName"`
		NIF      string `json:"nif"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}

	updated, err := h.userServ.UpdatePersonal(c.Request.Context(), account.ID, req.Name, req.LastName, req.NIF)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithCode(c, http.StatusNotFound, "USER_NOT_FOUND")
			return
		}
		h.logger.Error("onboarding personal failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_UPDATE_USER")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Datos personales actualizados", "user": updated})
}

// OnboardingCompany maneja PATCH /users/onboarding/company.
func (h *UserHandler) OnboardingCompany(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusNotFound, "USER_NOT_FOUND")
		return
	}

	var req struct {
		CompanyName string `json:"companyName" binding:"required"`
		CIF         string `json:"cif" binding:"required"`
		Address     string `json:"address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}

	updated, err := h.userServ.UpdateCompany(c.Request.Context(), account.ID, domain.Company{
		CompanyName: req.CompanyName,
		CIF:         req.CIF,
		Address:     req.Address,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithCode(c, http.StatusNotFound, "USER_NOT_FOUND")
			return
		}
		h.logger.Error("onboarding company failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_UPDATE_COMPANY")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Datos de la compañía actualizados", "company": updated.Company})
}

// UpdateLogo maneja PATCH /users/logo (multipart).
func (h *UserHandler) UpdateLogo(c *gin.Context) {
	account, ok := sessionAccount(c)
	if !ok {
		abortWithCode(c, http.StatusNotFound, "USER_NOT_FOUND")
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
		abortWithCode(c, http.StatusInternalServerError, "ERROR_UPDATE_LOGO")
		return
	}
	defer file.Close()

	logoURL, err := h.userServ.UpdateLogo(c.Request.Context(), account.ID, fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithCode(c, http.StatusNotFound, "USER_NOT_FOUND")
			return
		}
		h.logger.Error("update logo failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_UPDATE_LOGO")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logo actualizado correctamente", "logo": logoURL})
}
