package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"albaranes-api/internal/repository"
	"albaranes-api/internal/service"
)

// Código no estándar para token expirado, distinto del 401 de token inválido.
const statusTokenExpired = 498

// SessionMiddleware resuelve el header Authorization en una cuenta
// autenticada. No cachea identidades: cada petición vuelve a validar el token
// y relee el directorio, de modo que cambios de rol o borrados surten efecto
// inmediato. Si el token es válido pero la cuenta ya no existe, la petición
// se rechaza.
func SessionMiddleware(tokens *service.TokenService, users repository.UserRepository, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.TrimSpace(header) == "" {
			abortWithCode(c, http.StatusUnauthorized, "NOT_TOKEN")
			return
		}

		// Se espera el formato "Bearer <token>": el token es el último
		// segmento separado por espacios.
		parts := strings.Fields(header)
		tokenString := parts[len(parts)-1]

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				abortWithCode(c, statusTokenExpired, "TOKEN_EXPIRED")
				return
			}
			abortWithCode(c, http.StatusUnauthorized, "TOKEN_INVALID")
			return
		}
		if strings.TrimSpace(claims.UserID) == "" {
			abortWithCode(c, http.StatusUnauthorized, "ERROR_ID_TOKEN")
			return
		}

		account, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				logger.Error("session lookup failed", zap.Error(err))
			}
			abortWithCode(c, http.StatusUnauthorized, "NOT_SESSION")
			return
		}

		c.Set(sessionAccountKey, account)
		c.Next()
	}
}
