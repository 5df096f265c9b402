package domain

import "time"

// Role es un enum cerrado; cualquier otro valor se rechaza en ParseRole.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleGuest Role = "guest"
)

// ParseRole valida un rol recibido del exterior.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleAdmin, RoleGuest:
		return Role(s), true
	}
	return "", false
}

// Estados de cuenta.
const (
	StatusPending = "pending"
	StatusActive  = "active"
)

type Company struct {
	CompanyName string `json:"companyName" bson:"companyName"`
	CIF         string `json:"cif" bson:"cif"`
	Address     string `json:"address" bson:"address"`
}

// Account es la cuenta de un usuario registrado o invitado.
// Los campos de secretos (hashes de password/códigos/token de invitación)
// nunca se serializan al cliente y los repositorios no los proyectan por
// defecto; sólo las variantes WithSecrets los devuelven.
type Account struct {
	ID       string `json:"id" bson:"_id"`
	Email    string `json:"email" bson:"email"`
	Name     string `json:"name,omitempty" bson:"name"`
	LastName string `json:"lastName,omitempty" bson:"lastName"`
	NIF      string `json:"nif,omitempty" bson:"nif"`

	PasswordHash string `json:"-" bson:"passwordHash,omitempty"`

	Role   Role   `json:"role" bson:"role"`
	Status string `json:"status" bson:"status"`

	IsEmailVerified             bool       `json:"isEmailVerified" bson:"isEmailVerified"`
	EmailVerificationCodeHash   string     `json:"-" bson:"emailVerificationCodeHash,omitempty"`
	EmailVerificationCodeSentAt *time.Time `json:"-" bson:"emailVerificationCodeSentAt,omitempty"`
	EmailVerificationAttempts   int        `json:"-" bson:"emailVerificationAttempts"`

	InviteTokenHash string     `json:"-" bson:"inviteTokenHash,omitempty"`
	InviteSentAt    *time.Time `json:"-" bson:"inviteSentAt,omitempty"`

	PasswordRecoveryCodeHash   string     `json:"-" bson:"passwordRecoveryCodeHash,omitempty"`
	PasswordRecoveryCodeSentAt *time.Time `json:"-" bson:"passwordRecoveryCodeSentAt,omitempty"`

	Company Company `json:"company" bson:"company"`
	Logo    string  `json:"logo,omitempty" bson:"logo"`
	Deleted bool    `json:"deleted" bson:"deleted"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type Address struct {
	Street   string `json:"street" bson:"street"`
	Number   int    `json:"number" bson:"number"`
	Postal   int    `json:"postal" bson:"postal"`
	City     string `json:"city" bson:"city"`
	Province string `json:"province" bson:"province"`
}

// Client es un cliente de facturación, siempre propiedad de una cuenta.
type Client struct {
	ID      string  `json:"id" bson:"_id"`
	UserID  string  `json:"userId" bson:"userId"`
	Name    string  `json:"name" bson:"name"`
	CIF     string  `json:"cif" bson:"cif"`
	Address Address `json:"address" bson:"address"`
	Logo    string  `json:"logo,omitempty" bson:"logo"`

	ActiveProjects       int  `json:"activeProjects" bson:"activeProjects"`
	PendingDeliveryNotes int  `json:"pendingDeliveryNotes" bson:"pendingDeliveryNotes"`
	ArchivedProjects     int  `json:"archivedProjects" bson:"archivedProjects"`
	Archived             bool `json:"archived" bson:"archived"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type Project struct {
	ID          string    `json:"id" bson:"_id"`
	UserID      string    `json:"userId" bson:"userId"`
	ClientID    string    `json:"clientId" bson:"clientId"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description"`
	Archived    bool      `json:"archived" bson:"archived"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Tipos de línea de un albarán.
const (
	ItemTypeHour     = "hour"
	ItemTypeMaterial = "material"
)

type DeliveryNoteItem struct {
	Type        string  `json:"type" bson:"type"`
	Description string  `json:"description" bson:"description"`
	Quantity    float64 `json:"quantity" bson:"quantity"`
}

// DeliveryNote es un albarán; una vez firmado no puede eliminarse.
type DeliveryNote struct {
	ID           string             `json:"id" bson:"_id"`
	UserID       string             `json:"userId" bson:"userId"`
	ClientID     string             `json:"clientId" bson:"clientId"`
	ProjectID    string             `json:"projectId" bson:"projectId"`
	Items        []DeliveryNoteItem `json:"items" bson:"items"`
	IsSigned     bool               `json:"isSigned" bson:"isSigned"`
	SignatureURL string             `json:"signatureUrl,omitempty" bson:"signatureUrl,omitempty"`
	PdfURL       string             `json:"pdfUrl,omitempty" bson:"pdfUrl,omitempty"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// StorageItem referencia un archivo subido al gateway de almacenamiento.
type StorageItem struct {
	ID           string    `json:"id" bson:"_id"`
	OriginalName string    `json:"originalName" bson:"originalName"`
	URL          string    `json:"url" bson:"url"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}
