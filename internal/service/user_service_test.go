package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"albaranes-api/internal/domain"
	"albaranes-api/internal/email"
	"albaranes-api/internal/repository"
)

type mockUserRepo struct {
	accountsByID    map[string]domain.Account
	accountsByEmail map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		accountsByID:    make(map[string]domain.Account),
		accountsByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, account domain.Account) error {
	if _, ok := m.accountsByEmail[account.Email]; ok {
		return repository.ErrDuplicate
	}
	m.accountsByID[account.ID] = account
	m.accountsByEmail[account.Email] = account.ID
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.Account, error) {
	account, ok := m.accountsByID[id]
	if !ok {
		return domain.Account{}, repository.ErrNotFound
	}
	scrubbed := account
	scrubSecrets(&scrubbed)
	return scrubbed, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	id, ok := m.accountsByEmail[email]
	if !ok {
		return domain.Account{}, repository.ErrNotFound
	}
	return m.GetByID(ctx, id)
}

func (m *mockUserRepo) GetByIDWithSecrets(_ context.Context, id string) (domain.Account, error) {
	account, ok := m.accountsByID[id]
	if !ok {
		return domain.Account{}, repository.ErrNotFound
	}
	return account, nil
}

func (m *mockUserRepo) GetByEmailWithSecrets(ctx context.Context, email string) (domain.Account, error) {
	id, ok := m.accountsByEmail[email]
	if !ok {
		return domain.Account{}, repository.ErrNotFound
	}
	return m.GetByIDWithSecrets(ctx, id)
}

func (m *mockUserRepo) List(_ context.Context) ([]domain.Account, error) {
	accounts := make([]domain.Account, 0, len(m.accountsByID))
	for _, account := range m.accountsByID {
		scrubbed := account
		scrubSecrets(&scrubbed)
		accounts = append(accounts, scrubbed)
	}
	return accounts, nil
}

func (m *mockUserRepo) UpdateFields(_ context.Context, id string, fields map[string]any) error {
	account, ok := m.accountsByID[id]
	if !ok {
		return repository.ErrNotFound
	}
	for key, value := range fields {
		applyAccountField(&account, key, value)
	}
	account.UpdatedAt = time.Now().UTC()
	m.accountsByID[id] = account
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	account, ok := m.accountsByID[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(m.accountsByEmail, account.Email)
	delete(m.accountsByID, id)
	return nil
}

func applyAccountField(account *domain.Account, key string, value any) {
	switch key {
	case "name":
		account.Name = value.(string)
	case "lastName":
		account.LastName = value.(string)
	case "nif":
		account.NIF = value.(string)
	case "passwordHash":
		account.PasswordHash = asString(value)
	case "role":
		account.Role = value.(domain.Role)
	case "status":
		account.Status = value.(string)
	case "isEmailVerified":
		account.IsEmailVerified = value.(bool)
	case "emailVerificationCodeHash":
		account.EmailVerificationCodeHash = asString(value)
	case "emailVerificationCodeSentAt":
		account.EmailVerificationCodeSentAt = asTimePtr(value)
	case "emailVerificationAttempts":
		account.EmailVerificationAttempts = value.(int)
	case "inviteTokenHash":
		account.InviteTokenHash = asString(value)
	case "inviteSentAt":
		account.InviteSentAt = asTimePtr(value)
	case "passwordRecoveryCodeHash":
		account.PasswordRecoveryCodeHash = asString(value)
	case "passwordRecoveryCodeSentAt":
		account.PasswordRecoveryCodeSentAt = asTimePtr(value)
	case "company":
		account.Company = value.(domain.Company)
	case "logo":
		account.Logo = value.(string)
	case "deleted":
		account.Deleted = value.(bool)
	}
}

func asString(value any) string {
	if value == nil {
		return ""
	}
	return value.(string)
}

func asTimePtr(value any) *time.Time {
	if value == nil {
		return nil
	}
	t := value.(time.Time)
	return &t
}

type mockSender struct {
	messages []email.Message
	err      error
}

func (m *mockSender) Send(_ context.Context, msg email.Message) error {
	m.messages = append(m.messages, msg)
	return m.err
}

func (m *mockSender) last() email.Message {
	if len(m.messages) == 0 {
		return email.Message{}
	}
	return m.messages[len(m.messages)-1]
}

type mockLimiter struct {
	allow bool
}

func (m *mockLimiter) Allow(_ string) bool {
	return m.allow
}

func newTestUserService(repo *mockUserRepo, sender *mockSender) *UserService {
	return NewUserService(zap.NewNop(), repo, sender, nil, nil, nil, "http://front.test")
}

func TestUserServiceRegister_CreatesPendingAccount(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockSender{}
	svc := newTestUserService(repo, sender)

	account, err := svc.Register(context.Background(), RegisterInput{
		Email:    "User@Example.com",
		Password: "secret-password",
		Name:     "Ana",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if account.Email != "user@example.com" {
		t.Fatalf("expected normalized email, got %s", account.Email)
	}
	if account.Status != domain.StatusPending || account.Role != domain.RoleUser {
		t.Fatalf("expected pending user account, got status=%s role=%s", account.Status, account.Role)
	}
	if account.IsEmailVerified {
		t.Fatalf("expected unverified account")
	}
	if account.PasswordHash != "" || account.EmailVerificationCodeHash != "" {
		t.Fatalf("expected secrets scrubbed from returned account")
	}

	stored, err := repo.GetByEmailWithSecrets(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("expected account stored, got %v", err)
	}
	if stored.PasswordHash == "" || stored.EmailVerificationCodeHash == "" {
		t.Fatalf("expected hashes persisted")
	}
	if !VerifySecret("secret-password", stored.PasswordHash) {
		t.Fatalf("expected stored password hash to verify")
	}
}

func TestUserServiceRegister_DuplicateEmail(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockSender{}
	svc := newTestUserService(repo, sender)

	if _, err := svc.Register(context.Background(), RegisterInput{Email: "user@example.com", Password: "secret-password"}); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	_, err := svc.Register(context.Background(), RegisterInput{Email: "user@example.com", Password: "other-password"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func seedVerifiedAccount(t *testing.T, repo *mockUserRepo, emailAddr, password string) domain.Account {
	t.Helper()
	passwordHash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	account := domain.Account{
		ID:              "u1",
		Email:           emailAddr,
		PasswordHash:    passwordHash,
		Role:            domain.RoleUser,
		Status:          domain.StatusActive,
		IsEmailVerified: true,
		CreatedAt:       time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), account); err != nil {
		t.Fatalf("seed account failed: %v", err)
	}
	return account
}

func TestUserServiceLogin_Success(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestUserService(repo, &mockSender{})
	seedVerifiedAccount(t, repo, "user@example.com", "secret-password")

	account, err := svc.Login(context.Background(), "user@example.com", "secret-password")
	if err != nil {
		t.Fatalf("expected login success, got %v", err)
	}
	if account.PasswordHash != "" {
		t.Fatalf("expected password hash scrubbed")
	}
}

func TestUserServiceLogin_WrongPassword(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestUserService(repo, &mockSender{})
	seedVerifiedAccount(t, repo, "user@example.com", "secret-password")

	_, err := svc.Login(context.Background(), "user@example.com", "wrong-password")
	if !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestUserServiceLogin_EmailNotVerified(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestUserService(repo, &mockSender{})

	if _, err := svc.Register(context.Background(), RegisterInput{Email: "user@example.com", Password: "secret-password"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_, err := svc.Login(context.Background(), "user@example.com", "secret-password")
	if !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}
}

func TestUserServiceLogin_UserNotExists(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestUserService(repo, &mockSender{})

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever-pass")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func seedPendingAccountWithCode(t *testing.T, repo *mockUserRepo, code string) domain.Account {
	t.Helper()
	codeHash, err := HashCode(code)
	if err != nil {
		t.Fatalf("hash code failed: %v", err)
	}
	now := time.Now().UTC()
	account := domain.Account{
		ID:                          "u1",
		Email:                       "user@example.com",
		Role:                        domain.RoleUser,
		Status:                      domain.StatusPending,
		EmailVerificationCodeHash:   codeHash,
		EmailVerificationCodeSentAt: &now,
		CreatedAt:                   now,
	}
	if err := repo.Create(context.Background(), account); err != nil {
		t.Fatalf("seed account failed: %v", err)
	}
	return account
}

func TestUserServiceVerifyEmail_Success(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestUserService(repo, &mockSender{})
	seedPendingAccountWithCode(t, repo, "123456")

	if err := svc.VerifyEmail(context.Background(), "u1", "123456"); err != nil {
		t.Fatalf("expected verify success, got %v", err)
	}

	stored, _ := repo.GetByIDWithSecrets(context.Background(), "u1")
	if !stored.IsEmailVerified || stored.Status != domain.StatusActive {
		t.Fatalf("expected active verified account, got verified=%v status=%s", stored.IsEmailVerified, stored.Status)
	}
	if stored.EmailVerificationCodeHash != "" || stored.EmailVerificationCodeSentAt != nil {
		t.Fatalf("expected verification challenge cleared")
	}
}

func TestUserServiceVerifyEmail_WrongCodeIncrementsAttempts(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestUserService(repo, &mockSender{})
	seedPendingAccountWithCode(t, repo, "123456")

	err := svc.VerifyEmail(context.Background(), "u1", "000000")
	if !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
	stored, _ := repo.GetByIDWithSecrets(context.Background(), "u1")
	if stored.EmailVerificationAttempts != 1 {
		t.Fatalf("expected 1 attempt recorded, got %d", stored.EmailVerificationAttempts)
	}
	if stored.IsEmailVerified {
		t.Fatalf("expected account still unverified")
	}
}

func TestUserServiceVerifyEmail_LockoutAfterMaxAttempts(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestUserService(repo, &mockSender{})
	seedPendingAccountWithCode(t, repo, "123456")

	for i := 0; i < maxVerificationAttempts; i++ {
		if err := svc.VerifyEmail(context.Background(), "u1", "000000"); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("attempt %d: expected ErrInvalidCode, got %v", i, err)
		}
	}
	// Tras agotar los intentos, incluso el código correcto queda bloqueado.
	if err := svc.VerifyEmail(context.Background(), "u1", "123456"); !errors.Is(err, ErrMaxAttempts) {
		t.Fatalf("expected ErrMaxAttempts, got %v", err)
	}
}

func TestUserServiceVerifyEmail_NoCodeSent(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestUserService(repo, &mockSender{})
	seedVerifiedAccount(t, repo, "user@example.com", "secret-password")

	err := svc.VerifyEmail(context.Background(), "u1", "123456")
	if !errors.Is(err, ErrNoVerificationCode) {
		t.Fatalf("expected ErrNoVerificationCode, got %v", err)
	}
}

func inviteTokenFromMessage(t *testing.T, msg email.Message) string {
	t.Helper()
	idx := strings.Index(msg.Body, "token=")
	if idx < 0 {
		t.Fatalf("expected invite token in message body: %q", msg.Body)
	}
	return strings.TrimSpace(msg.Body[idx+len("token="):])
}

func TestUserServiceInvite_AcceptActivatesAccount(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockSender{}
	svc := newTestUserService(repo, sender)

	if err := svc.Invite(context.Background(), "guest@example.com"); err != nil {
		t.Fatalf("invite failed: %v", err)
	}
	stored, err := repo.GetByEmailWithSecrets(context.Background(), "guest@example.com")
	if err != nil {
		t.Fatalf("expected invited account stored, got %v", err)
	}
	if stored.Role != domain.RoleGuest || stored.Status != domain.StatusPending {
		t.Fatalf("expected pending guest, got role=%s status=%s", stored.Role, stored.Status)
	}
	if stored.PasswordHash != "" {
		t.Fatalf("expected invited account without password")
	}

	token := inviteTokenFromMessage(t, sender.last())
	err = svc.AcceptInvite(context.Background(), AcceptInviteInput{
		Email:    "guest@example.com",
		Token:    token,
		Name:     "Guest",
		Password: "fresh-password",
	})
	if err != nil {
		t.Fatalf("accept invite failed: %v", err)
	}

	stored, _ = repo.GetByEmailWithSecrets(context.Background(), "guest@example.com")
	if stored.Status != domain.StatusActive {
		t.Fatalf("expected active account, got %s", stored.Status)
	}
	if stored.InviteTokenHash != "" || stored.InviteSentAt != nil {
		t.Fatalf("expected invite token cleared")
	}
	if !VerifySecret("fresh-password", stored.PasswordHash) {
		t.Fatalf("expected new password set")
	}
}

func TestUserServiceInvite_ExistingEmail(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestUserService(repo, &mockSender{})
	seedVerifiedAccount(t, repo, "user@example.com", "secret-password")

	err := svc.Invite(context.Background(), "user@example.com")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserServiceAcceptInvite_Expired(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockSender{}
	svc := newTestUserService(repo, sender)

	if err := svc.Invite(context.Background(), "guest@example.com"); err != nil {
		t.Fatalf("invite failed: %v", err)
	}
	token := inviteTokenFromMessage(t, sender.last())

	expired := time.Now().UTC().Add(-inviteTTL - time.Hour)
	if err := repo.UpdateFields(context.Background(), repo.accountsByEmail["guest@example.com"], map[string]any{
		"inviteSentAt": expired,
	}); err != nil {
		t.Fatalf("backdate invite failed: %v", err)
	}

	err := svc.AcceptInvite(context.Background(), AcceptInviteInput{
		Email:    "guest@example.com",
		Token:    token,
		Name:     "Guest",
		Password: "fresh-password",
	})
	if !errors.Is(err, ErrInviteExpired) {
		t.Fatalf("expected ErrInviteExpired, got %v", err)
	}
}

func TestUserServiceAcceptInvite_WrongToken(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestUserService(repo, &mockSender{})

	if err := svc.Invite(context.Background(), "guest@example.com"); err != nil {
		t.Fatalf("invite failed: %v", err)
	}
	err := svc.AcceptInvite(context.Background(), AcceptInviteInput{
		Email:    "guest@example.com",
		Token:    "not-the-token",
		Name:     "Guest",
		Password: "fresh-password",
	})
	if !errors.Is(err, ErrInvalidInviteToken) {
		t.Fatalf("expected ErrInvalidInviteToken, got %v", err)
	}
}

func recoveryCodeFromMessage(t *testing.T, msg email.Message) string {
	t.Helper()
	idx := strings.Index(msg.Body, ": ")
	if idx < 0 {
		t.Fatalf("expected recovery code in message body: %q", msg.Body)
	}
	return strings.TrimSpace(msg.Body[idx+2:])
}

func TestUserServiceRecovery_ChangesPassword(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockSender{}
	svc := newTestUserService(repo, sender)
	seedVerifiedAccount(t, repo, "user@example.com", "old-password")

	if err := svc.RequestPasswordRecovery(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("request recovery failed: %v", err)
	}
	code := recoveryCodeFromMessage(t, sender.last())
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}

	if err := svc.ChangePassword(context.Background(), "user@example.com", code, "new-password"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	stored, _ := repo.GetByEmailWithSecrets(context.Background(), "user@example.com")
	if !VerifySecret("new-password", stored.PasswordHash) {
		t.Fatalf("expected new password set")
	}
	if stored.PasswordRecoveryCodeHash != "" || stored.PasswordRecoveryCodeSentAt != nil {
		t.Fatalf("expected recovery challenge cleared")
	}
	// El código ya usado no puede repetirse.
	if err := svc.ChangePassword(context.Background(), "user@example.com", code, "another-password"); !errors.Is(err, ErrInvalidRecoveryCode) {
		t.Fatalf("expected ErrInvalidRecoveryCode on reuse, got %v", err)
	}
}

func TestUserServiceRecovery_RateLimited(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(zap.NewNop(), repo, &mockSender{}, nil, &mockLimiter{allow: false}, nil, "")
	seedVerifiedAccount(t, repo, "user@example.com", "secret-password")

	err := svc.RequestPasswordRecovery(context.Background(), "user@example.com")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestUserServiceChangePassword_InvalidCode(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestUserService(repo, &mockSender{})
	seedVerifiedAccount(t, repo, "user@example.com", "secret-password")

	err := svc.ChangePassword(context.Background(), "user@example.com", "000000", "new-password")
	if !errors.Is(err, ErrInvalidRecoveryCode) {
		t.Fatalf("expected ErrInvalidRecoveryCode, got %v", err)
	}
}

func TestUserServiceDelete_SoftKeepsDocument(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestUserService(repo, &mockSender{})
	seedVerifiedAccount(t, repo, "user@example.com", "secret-password")

	if err := svc.Delete(context.Background(), "u1", true); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}
	stored, err := repo.GetByIDWithSecrets(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected document preserved, got %v", err)
	}
	if !stored.Deleted {
		t.Fatalf("expected deleted flag set")
	}

	if err := svc.Delete(context.Background(), "u1", false); err != nil {
		t.Fatalf("hard delete failed: %v", err)
	}
	if _, err := repo.GetByIDWithSecrets(context.Background(), "u1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected document removed, got %v", err)
	}
}
