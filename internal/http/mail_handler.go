package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"albaranes-api/internal/email"
)

// MailHandler envía correos arbitrarios a través del Sender configurado.
type MailHandler struct {
	logger *zap.Logger
	sender email.Sender
}

func NewMailHandler(logger *zap.Logger, sender email.Sender) *MailHandler {
	return &MailHandler{
		logger: logger,
		sender: sender,
	}
}

// Send maneja POST /mail.
func (h *MailHandler) Send(c *gin.Context) {
	var req struct {
		To      string `json:"to" binding:"required,email"`
		Subject string `json:"subject" binding:"required"`
		Body    string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}

	msg := email.Message{To: req.To, Subject: req.Subject, Body: req.Body}
	if err := h.sender.Send(c.Request.Context(), msg); err != nil {
		h.logger.Error("send mail failed", zap.Error(err))
		abortWithCode(c, http.StatusInternalServerError, "ERROR_SEND_MAIL")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Correo enviado correctamente"})
}
