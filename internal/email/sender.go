package email

import (
	"context"
	"errors"
	"fmt"
)

// Message es un correo listo para enviar.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender define la interfaz para envío de correos.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewVerificationMessage construye el correo con el código de verificación.
func NewVerificationMessage(to, name, code string) Message {
	return Message{
		To:      to,
		Subject: "Verificación de Email",
		Body:    fmt.Sprintf("Hola %s, tu código de verificación es: %s\n", name, code),
	}
}

// NewInviteMessage construye el correo con el enlace de aceptación.
func NewInviteMessage(to, acceptURL string) Message {
	return Message{
		To:      to,
		Subject: "Invitación para unirse a la plataforma",
		Body:    fmt.Sprintf("Has sido invitado. Completa tu registro aquí:\n%s\n", acceptURL),
	}
}

// NewRecoveryMessage construye el correo con el código de recuperación.
func NewRecoveryMessage(to, code string) Message {
	return Message{
		To:      to,
		Subject: "Código para Cambio de Contraseña",
		Body:    fmt.Sprintf("Tu código de recuperación es: %s\n", code),
	}
}

// NewPasswordChangedMessage construye la confirmación de cambio de contraseña.
func NewPasswordChangedMessage(to string) Message {
	return Message{
		To:      to,
		Subject: "Confirmación de Cambio de Contraseña",
		Body:    "Tu contraseña se ha actualizado exitosamente.\n",
	}
}

type disabledSender struct {
	reason string
}

// NewDisabledSender devuelve un Sender que siempre falla con el motivo dado.
func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) Send(_ context.Context, _ Message) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
