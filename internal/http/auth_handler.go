package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"albaranes-api/internal/service"
)

// AuthHandler mantiene dependencias para registro y login.
type AuthHandler struct {
	logger   *zap.Logger
	userServ *service.UserService
	tokens   *service.TokenService
}

func NewAuthHandler(logger *zap.Logger, userServ *service.UserService, tokens *service.TokenService) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		userServ: userServ,
		tokens:   tokens,
	}
}

// Register maneja POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Name     string `json:"name"`
		LastName string `json:"lastName"`
		NIF      string `json:"nif"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}

	account, err := h.userServ.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		LastName: req.LastName,
		NIF:      req.NIF,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			abortWithCode(c, http.StatusConflict, "EMAIL_ALREADY_EXISTS")
			return
		}
		h.logger.Error("register failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_REGISTER_USER")
		return
	}

	token, err := h.tokens.Sign(account)
	if err != nil {
		h.logger.Error("token sign failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_REGISTER_USER")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": account})
}

// Login maneja POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}

	account, err := h.userServ.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			abortWithCode(c, http.StatusNotFound, "USER_NOT_EXISTS")
		case errors.Is(err, service.ErrEmailNotVerified):
			abortWithCode(c, http.StatusForbidden, "EMAIL_NOT_VERIFIED")
		case errors.Is(err, service.ErrInvalidPassword):
			abortWithCode(c, http.StatusUnauthorized, "INVALID_PASSWORD")
		default:
			h.logger.Error("login failed", zap.Error(err))
			abortWithCode(c, http.StatusInternalServerError, "ERROR_LOGIN_USER")
		}
		return
	}

	token, err := h.tokens.Sign(account)
	if err != nil {
		h.logger.Error("token sign failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_LOGIN_USER")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": account})
}
