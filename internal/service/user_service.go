package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"albaranes-api/internal/domain"
	"albaranes-api/internal/email"
	"albaranes-api/internal/repository"
	"albaranes-api/internal/storage"
)

// UserService coordina el ciclo de vida de las cuentas: registro,
// verificación, invitaciones, recuperación de contraseña y mutaciones de
// perfil.
type UserService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	sender      email.Sender
	dispatcher  *email.Dispatcher
	limiter     CodeRateLimiter
	uploader    storage.Uploader
	frontendURL string
}

func NewUserService(
	logger *zap.Logger,
	users repository.UserRepository,
	sender email.Sender,
	dispatcher *email.Dispatcher,
	limiter CodeRateLimiter,
	uploader storage.Uploader,
	frontendURL string,
) *UserService {
	if limiter == nil {
		limiter = NewCodeRateLimiter(codeWindow, codeMaxPerWindow)
	}
	return &UserService{
		logger:      logger,
		users:       users,
		sender:      sender,
		dispatcher:  dispatcher,
		limiter:     limiter,
		uploader:    uploader,
		frontendURL: strings.TrimSuffix(frontendURL, "/"),
	}
}

var (
	ErrEmailTaken          = errors.New("email already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailNotVerified    = errors.New("email not verified")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrNoVerificationCode  = errors.New("no verification code sent")
	ErrInvalidCode         = errors.New("invalid verification code")
	ErrMaxAttempts         = errors.New("max verification attempts exceeded")
	ErrInviteExpired       = errors.New("invite expired")
	ErrInvalidInviteToken  = errors.New("invalid invite token")
	ErrInvalidRecoveryCode = errors.New("invalid recovery code")
	ErrRateLimited         = errors.New("rate limited")
	ErrNoFile              = errors.New("no file uploaded")
)

const (
	inviteTTL               = 48 * time.Hour
	maxVerificationAttempts = 5
	codeWindow              = 10 * time.Minute
	codeMaxPerWindow        = 3
)

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	LastName string
	NIF      string
}

// Register crea la cuenta en estado pending, guarda el hash del código de
// verificación y despacha el correo en segundo plano: la respuesta no espera
// al SMTP.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (domain.Account, error) {
	emailAddr := normalizeEmail(input.Email)

	// La unicidad se comprueba antes de hacer ningún trabajo de hashing.
	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return domain.Account{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return domain.Account{}, err
	}

	passwordHash, err := HashPassword(input.Password)
	if err != nil {
		return domain.Account{}, err
	}
	code, err := generateCode()
	if err != nil {
		return domain.Account{}, err
	}
	codeHash, err := HashCode(code)
	if err != nil {
		return domain.Account{}, err
	}

	now := time.Now().UTC()
	account := domain.Account{
		ID:                          uuid.NewString(),
		Email:                       emailAddr,
		Name:                        strings.TrimSpace(input.Name),
		LastName:                    strings.TrimSpace(input.LastName),
		NIF:                         strings.TrimSpace(input.NIF),
		PasswordHash:                passwordHash,
		Role:                        domain.RoleUser,
		Status:                      domain.StatusPending,
		IsEmailVerified:             false,
		EmailVerificationCodeHash:   codeHash,
		EmailVerificationCodeSentAt: &now,
		CreatedAt:                   now,
		UpdatedAt:                   now,
	}
	if err := s.users.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.Account{}, ErrEmailTaken
		}
		return domain.Account{}, err
	}

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(email.NewVerificationMessage(account.Email, account.Name, code))
	}

	account.PasswordHash = ""
	account.EmailVerificationCodeHash = ""
	return account, nil
}

// Login autentica por email y contraseña; exige email verificado.
func (s *UserService) Login(ctx context.Context, emailAddr, password string) (domain.Account, error) {
	emailAddr = normalizeEmail(emailAddr)

	account, err := s.users.GetByEmailWithSecrets(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Account{}, ErrUserNotFound
		}
		return domain.Account{}, err
	}
	if !account.IsEmailVerified {
		return domain.Account{}, ErrEmailNotVerified
	}
	if !VerifySecret(password, account.PasswordHash) {
		return domain.Account{}, ErrInvalidPassword
	}

	scrubSecrets(&account)
	return account, nil
}

// VerifyEmail compara el código presentado con el hash almacenado. Un fallo
// incrementa el contador de intentos; al llegar al tope la verificación se
// bloquea hasta reemitir el código.
func (s *UserService) VerifyEmail(ctx context.Context, userID, code string) error {
	account, err := s.users.GetByIDWithSecrets(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if account.EmailVerificationCodeHash == "" {
		return ErrNoVerificationCode
	}
	if account.EmailVerificationAttempts >= maxVerificationAttempts {
		return ErrMaxAttempts
	}
	if !VerifySecret(code, account.EmailVerificationCodeHash) {
		if err := s.users.UpdateFields(ctx, account.ID, map[string]any{
			"emailVerificationAttempts": account.EmailVerificationAttempts + 1,
		}); err != nil {
			return err
		}
		return ErrInvalidCode
	}

	return s.users.UpdateFields(ctx, account.ID, map[string]any{
		"isEmailVerified":             true,
		"status":                      domain.StatusActive,
		"emailVerificationCodeHash":   nil,
		"emailVerificationCodeSentAt": nil,
		"emailVerificationAttempts":   0,
	})
}

// Invite crea una cuenta guest en estado pending, sin contraseña, y envía el
// enlace de aceptación. El correo es best-effort: su fallo sólo se registra.
func (s *UserService) Invite(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)

	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	token := uuid.NewString()
	tokenHash, err := HashCode(token)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	account := domain.Account{
		ID:              uuid.NewString(),
		Email:           emailAddr,
		Role:            domain.RoleGuest,
		Status:          domain.StatusPending,
		InviteTokenHash: tokenHash,
		InviteSentAt:    &now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.users.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrEmailTaken
		}
		return err
	}

	acceptURL := fmt.Sprintf("%s/accept-invite?token=%s", s.frontendURL, token)
	if err := s.sender.Send(ctx, email.NewInviteMessage(emailAddr, acceptURL)); err != nil {
		s.logger.Warn("invite email send failed", zap.String("email", emailAddr), zap.Error(err))
	}
	return nil
}

type AcceptInviteInput struct {
	Email    string
	Token    string
	Name     string
	LastName string
	Password string
}

// AcceptInvite valida el token de un solo uso y activa la cuenta invitada.
func (s *UserService) AcceptInvite(ctx context.Context, input AcceptInviteInput) error {
	emailAddr := normalizeEmail(input.Email)

	account, err := s.users.GetByEmailWithSecrets(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if account.InviteTokenHash == "" || account.InviteSentAt == nil {
		return ErrInvalidInviteToken
	}
	if time.Since(*account.InviteSentAt) > inviteTTL {
		return ErrInviteExpired
	}
	if !VerifySecret(input.Token, account.InviteTokenHash) {
		return ErrInvalidInviteToken
	}

	passwordHash, err := HashPassword(input.Password)
	if err != nil {
		return err
	}
	return s.users.UpdateFields(ctx, account.ID, map[string]any{
		"name":            strings.TrimSpace(input.Name),
		"lastName":        strings.TrimSpace(input.LastName),
		"passwordHash":    passwordHash,
		"status":          domain.StatusActive,
		"inviteTokenHash": nil,
		"inviteSentAt":    nil,
	})
}

// RequestPasswordRecovery genera un código de 6 dígitos, guarda sólo su hash
// y lo envía por correo. La emisión pasa por el rate limiter.
func (s *UserService) RequestPasswordRecovery(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)

	if s.limiter != nil && !s.limiter.Allow(emailAddr) {
		return ErrRateLimited
	}

	account, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	codeHash, err := HashCode(code)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if err := s.users.UpdateFields(ctx, account.ID, map[string]any{
		"passwordRecoveryCodeHash":   codeHash,
		"passwordRecoveryCodeSentAt": now,
	}); err != nil {
		return err
	}

	if err := s.sender.Send(ctx, email.NewRecoveryMessage(emailAddr, code)); err != nil {
		s.logger.Warn("recovery email send failed", zap.String("email", emailAddr), zap.Error(err))
	}
	return nil
}

// ChangePassword verifica el código de recuperación y fija la nueva
// contraseña, limpiando los campos del desafío.
func (s *UserService) ChangePassword(ctx context.Context, emailAddr, recoveryCode, newPassword string) error {
	emailAddr = normalizeEmail(emailAddr)

	account, err := s.users.GetByEmailWithSecrets(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !VerifySecret(recoveryCode, account.PasswordRecoveryCodeHash) {
		return ErrInvalidRecoveryCode
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdateFields(ctx, account.ID, map[string]any{
		"passwordHash":               passwordHash,
		"passwordRecoveryCodeHash":   nil,
		"passwordRecoveryCodeSentAt": nil,
	}); err != nil {
		return err
	}

	if err := s.sender.Send(ctx, email.NewPasswordChangedMessage(emailAddr)); err != nil {
		s.logger.Warn("password changed email send failed", zap.String("email", emailAddr), zap.Error(err))
	}
	return nil
}

// ChangeRole actualiza el rol de una cuenta (sólo admin en la capa HTTP).
func (s *UserService) ChangeRole(ctx context.Context, id string, role domain.Role) (domain.Account, error) {
	if err := s.users.UpdateFields(ctx, id, map[string]any{"role": role}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Account{}, ErrUserNotFound
		}
		return domain.Account{}, err
	}
	return s.users.GetByID(ctx, id)
}

// Delete elimina la cuenta: soft marca deleted y conserva el documento,
// hard lo borra del directorio.
func (s *UserService) Delete(ctx context.Context, id string, soft bool) error {
	var err error
	if soft {
		err = s.users.UpdateFields(ctx, id, map[string]any{"deleted": true})
	} else {
		err = s.users.Delete(ctx, id)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// UpdatePersonal completa los datos personales tras el registro.
func (s *UserService) UpdatePersonal(ctx context.Context, id, name, lastName, nif string) (domain.Account, error) {
	if err := s.users.UpdateFields(ctx, id, map[string]any{
		"name":     strings.TrimSpace(name),
		"lastName": strings.TrimSpace(lastName),
		"nif":      strings.TrimSpace(nif),
	}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Account{}, ErrUserNotFound
		}
		return domain.Account{}, err
	}
	return s.users.GetByID(ctx, id)
}

// UpdateCompany completa los datos de la compañía.
func (s *UserService) UpdateCompany(ctx context.Context, id string, company domain.Company) (domain.Account, error) {
	if err := s.users.UpdateFields(ctx, id, map[string]any{"company": company}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Account{}, ErrUserNotFound
		}
		return domain.Account{}, err
	}
	return s.users.GetByID(ctx, id)
}

// UpdateLogo sube el archivo al gateway de almacenamiento y guarda la URL.
func (s *UserService) UpdateLogo(ctx context.Context, id, fileName string, content io.Reader, size int64) (string, error) {
	if s.uploader == nil {
		return "", errors.New("storage uploader not configured")
	}
	logoURL, err := s.uploader.Upload(ctx, fileName, content, size)
	if err != nil {
		return "", err
	}
	if err := s.users.UpdateFields(ctx, id, map[string]any{"logo": logoURL}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return logoURL, nil
}

// Get devuelve una cuenta sin campos de secretos.
func (s *UserService) Get(ctx context.Context, id string) (domain.Account, error) {
	account, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Account{}, ErrUserNotFound
	}
	return account, err
}

// List devuelve todas las cuentas sin campos de secretos.
func (s *UserService) List(ctx context.Context) ([]domain.Account, error) {
	return s.users.List(ctx)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func scrubSecrets(account *domain.Account) {
	account.PasswordHash = ""
	account.EmailVerificationCodeHash = ""
	account.EmailVerificationCodeSentAt = nil
	account.InviteTokenHash = ""
	account.InviteSentAt = nil
	account.PasswordRecoveryCodeHash = ""
	account.PasswordRecoveryCodeSentAt = nil
}
