package http

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"albaranes-api/internal/domain"
	"albaranes-api/internal/service"
)

func newUserRouter(repo *fakeAccountRepo, sender *fakeSender) (*gin.Engine, *service.TokenService) {
	gin.SetMode(gin.TestMode)
	userSvc := service.NewUserService(zap.NewNop(), repo, sender, nil, nil, nil, "http://front.test")
	tokenSvc := service.NewTokenService("test-secret", time.Hour)
	h := NewUserHandler(zap.NewNop(), userSvc)

	session := SessionMiddleware(tokenSvc, repo, zap.NewNop())
	adminOnly := RequireRole(domain.RoleAdmin)

	r := gin.New()
	r.POST("/users/accept-invite", h.AcceptInvite)
	r.POST("/users/recover-password-code", h.RecoverPasswordCode)
	r.POST("/users/change-password", h.ChangePassword)
	r.GET("/users/me", session, h.Me)
	r.POST("/users/invite", session, adminOnly, h.Invite)
	r.PATCH("/users/:id/role", session, adminOnly, h.ChangeRole)
	r.DELETE("/users", session, h.Delete)
	return r, tokenSvc
}

func authHeader(t *testing.T, tokens *service.TokenService, account domain.Account) string {
	t.Helper()
	token, err := tokens.Sign(account)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	return "Bearer " + token
}

func TestUserHandlerInvite_RequiresAdmin(t *testing.T) {
	repo := newFakeAccountRepo()
	r, tokens := newUserRouter(repo, &fakeSender{})
	seedAccount(t, repo, "u1", "user@example.com", "secret-password", domain.RoleUser, true)

	rec := performRequestWithAuth(r, http.MethodPost, "/users/invite",
		map[string]string{"email": "guest@example.com"},
		authHeader(t, tokens, domain.Account{ID: "u1", Role: domain.RoleUser}))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}

func TestUserHandlerInvite_ExistingUser(t *testing.T) {
	repo := newFakeAccountRepo()
	r, tokens := newUserRouter(repo, &fakeSender{})
	seedAccount(t, repo, "admin", "admin@example.com", "secret-password", domain.RoleAdmin, true)
	seedAccount(t, repo, "u1", "user@example.com", "secret-password", domain.RoleUser, true)

	rec := performRequestWithAuth(r, http.MethodPost, "/users/invite",
		map[string]string{"email": "user@example.com"},
		authHeader(t, tokens, domain.Account{ID: "admin", Role: domain.RoleAdmin}))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "USER_ALREADY_EXISTS" {
		t.Fatalf("expected USER_ALREADY_EXISTS, got %s", code)
	}
}

func TestUserHandlerInviteAndAccept_FullFlow(t *testing.T) {
	repo := newFakeAccountRepo()
	sender := &fakeSender{}
	r, tokens := newUserRouter(repo, sender)
	seedAccount(t, repo, "admin", "admin@example.com", "secret-password", domain.RoleAdmin, true)

	rec := performRequestWithAuth(r, http.MethodPost, "/users/invite",
		map[string]string{"email": "guest@example.com"},
		authHeader(t, tokens, domain.Account{ID: "admin", Role: domain.RoleAdmin}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(sender.messages) != 1 {
		t.Fatalf("expected invite email sent, got %d messages", len(sender.messages))
	}

	body := sender.messages[0].Body
	idx := strings.Index(body, "token=")
	if idx < 0 {
		t.Fatalf("expected token in invite body: %q", body)
	}
	token := strings.TrimSpace(body[idx+len("token="):])

	rec = performRequest(r, http.MethodPost, "/users/accept-invite", map[string]string{
		"email":    "guest@example.com",
		"token":    token,
		"name":     "Guest",
		"password": "fresh-password",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	stored, err := repo.GetByEmailWithSecrets(context.Background(), "guest@example.com")
	if err != nil {
		t.Fatalf("expected invited account, got %v", err)
	}
	if stored.Status != domain.StatusActive {
		t.Fatalf("expected active account, got %s", stored.Status)
	}
}

func TestUserHandlerAcceptInvite_WrongToken(t *testing.T) {
	repo := newFakeAccountRepo()
	sender := &fakeSender{}
	r, tokens := newUserRouter(repo, sender)
	seedAccount(t, repo, "admin", "admin@example.com", "secret-password", domain.RoleAdmin, true)

	rec := performRequestWithAuth(r, http.MethodPost, "/users/invite",
		map[string]string{"email": "guest@example.com"},
		authHeader(t, tokens, domain.Account{ID: "admin", Role: domain.RoleAdmin}))
	if rec.Code != http.StatusOK {
		t.Fatalf("invite failed: %d", rec.Code)
	}

	rec = performRequest(r, http.MethodPost, "/users/accept-invite", map[string]string{
		"email":    "guest@example.com",
		"token":    "not-the-token",
		"name":     "Guest",
		"password": "fresh-password",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "INVALID_INVITE_TOKEN" {
		t.Fatalf("expected INVALID_INVITE_TOKEN, got %s", code)
	}
}

func TestUserHandlerRecoverPassword_UnknownEmail(t *testing.T) {
	repo := newFakeAccountRepo()
	r, _ := newUserRouter(repo, &fakeSender{})

	rec := performRequest(r, http.MethodPost, "/users/recover-password-code", map[string]string{
		"email": "nobody@example.com",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "USER_NOT_EXISTS" {
		t.Fatalf("expected USER_NOT_EXISTS, got %s", code)
	}
}

func TestUserHandlerChangePassword_InvalidCode(t *testing.T) {
	repo := newFakeAccountRepo()
	r, _ := newUserRouter(repo, &fakeSender{})
	seedAccount(t, repo, "u1", "user@example.com", "secret-password", domain.RoleUser, true)

	rec := performRequest(r, http.MethodPost, "/users/change-password", map[string]string{
		"email":        "user@example.com",
		"recoveryCode": "000000",
		"newPassword":  "new-password",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "INVALID_RECOVERY_CODE" {
		t.Fatalf("expected INVALID_RECOVERY_CODE, got %s", code)
	}
}

func TestUserHandlerChangeRole_AdminPromotesUser(t *testing.T) {
	repo := newFakeAccountRepo()
	r, tokens := newUserRouter(repo, &fakeSender{})
	seedAccount(t, repo, "admin", "admin@example.com", "secret-password", domain.RoleAdmin, true)
	seedAccount(t, repo, "u1", "user@example.com", "secret-password", domain.RoleUser, true)

	rec := performRequestWithAuth(r, http.MethodPatch, "/users/u1/role",
		map[string]string{"role": "admin"},
		authHeader(t, tokens, domain.Account{ID: "admin", Role: domain.RoleAdmin}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if repo.accountsByID["u1"].Role != domain.RoleAdmin {
		t.Fatalf("expected role updated, got %s", repo.accountsByID["u1"].Role)
	}
}

func TestUserHandlerChangeRole_RejectsUnknownRole(t *testing.T) {
	repo := newFakeAccountRepo()
	r, tokens := newUserRouter(repo, &fakeSender{})
	seedAccount(t, repo, "admin", "admin@example.com", "secret-password", domain.RoleAdmin, true)
	seedAccount(t, repo, "u1", "user@example.com", "secret-password", domain.RoleUser, true)

	rec := performRequestWithAuth(r, http.MethodPatch, "/users/u1/role",
		map[string]string{"role": "superuser"},
		authHeader(t, tokens, domain.Account{ID: "admin", Role: domain.RoleAdmin}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "INVALID_ROLE" {
		t.Fatalf("expected INVALID_ROLE, got %s", code)
	}
}

func TestUserHandlerDelete_SoftByDefault(t *testing.T) {
	repo := newFakeAccountRepo()
	r, tokens := newUserRouter(repo, &fakeSender{})
	seedAccount(t, repo, "u1", "user@example.com", "secret-password", domain.RoleUser, true)

	rec := performRequestWithAuth(r, http.MethodDelete, "/users", nil,
		authHeader(t, tokens, domain.Account{ID: "u1", Role: domain.RoleUser}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !repo.accountsByID["u1"].Deleted {
		t.Fatalf("expected soft delete flag set")
	}

	seedAccount(t, repo, "u2", "other@example.com", "secret-password", domain.RoleUser, true)
	rec = performRequestWithAuth(r, http.MethodDelete, "/users?soft=false", nil,
		authHeader(t, tokens, domain.Account{ID: "u2", Role: domain.RoleUser}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if _, ok := repo.accountsByID["u2"]; ok {
		t.Fatalf("expected hard delete to remove document")
	}
}

func TestUserHandlerMe_ReturnsSessionAccount(t *testing.T) {
	repo := newFakeAccountRepo()
	r, tokens := newUserRouter(repo, &fakeSender{})
	seedAccount(t, repo, "u1", "user@example.com", "secret-password", domain.RoleUser, true)

	rec := performRequestWithAuth(r, http.MethodGet, "/users/me", nil,
		authHeader(t, tokens, domain.Account{ID: "u1", Role: domain.RoleUser}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "user@example.com") {
		t.Fatalf("expected account in body: %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "passwordHash") {
		t.Fatalf("response leaks password hash")
	}
}
