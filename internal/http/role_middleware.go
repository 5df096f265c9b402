package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"albaranes-api/internal/domain"
)

// RequireRole autoriza la identidad ya resuelta contra un conjunto de roles.
// Cualquier anomalía interna (sin identidad, valor de contexto corrupto)
// responde 403, nunca un 500.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(c *gin.Context) {
		account, ok := sessionAccount(c)
		if !ok {
			abortWithCode(c, http.StatusForbidden, "ERROR_PERMISSIONS")
			return
		}
		if _, ok := allowed[account.Role]; !ok {
			abortWithCode(c, http.StatusForbidden, "NOT_ALLOWED")
			return
		}
		c.Next()
	}
}
