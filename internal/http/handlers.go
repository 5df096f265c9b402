package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"albaranes-api/internal/domain"
)

const sessionAccountKey = "session_account"

// abortWithCode responde el cuerpo plano {"error": CODE} que usan todos los
// fallos de la API y corta la cadena de handlers.
func abortWithCode(c *gin.Context, status int, code string) {
	c.AbortWithStatusJSON(status, gin.H{"error": code})
}

// abortValidation responde un 422 con la lista de errores de binding.
func abortValidation(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
		"error":  "VALIDATION_ERROR",
		"errors": []string{err.Error()},
	})
}

// sessionAccount recupera la cuenta inyectada por el middleware de sesión.
func sessionAccount(c *gin.Context) (domain.Account, bool) {
	val, ok := c.Get(sessionAccountKey)
	if !ok {
		return domain.Account{}, false
	}
	account, ok := val.(domain.Account)
	return account, ok
}

// Health responde el estado del servicio.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
