package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"albaranes-api/internal/domain"
)

func newRoleRouter(account *domain.Account, roles ...domain.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	inject := func(c *gin.Context) {
		if account != nil {
			c.Set(sessionAccountKey, *account)
		}
		c.Next()
	}
	r.GET("/guarded", inject, RequireRole(roles...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func performGet(r http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireRole_AllowsMatchingRole(t *testing.T) {
	account := domain.Account{ID: "u1", Role: domain.RoleAdmin}
	r := newRoleRouter(&account, domain.RoleAdmin)

	rec := performGet(r, "/guarded")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestRequireRole_RejectsOtherRole(t *testing.T) {
	account := domain.Account{ID: "u1", Role: domain.RoleUser}
	r := newRoleRouter(&account, domain.RoleAdmin)

	rec := performGet(r, "/guarded")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "NOT_ALLOWED" {
		t.Fatalf("expected NOT_ALLOWED, got %s", code)
	}
}

func TestRequireRole_NoIdentityIsForbiddenNot500(t *testing.T) {
	r := newRoleRouter(nil, domain.RoleAdmin)

	rec := performGet(r, "/guarded")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "ERROR_PERMISSIONS" {
		t.Fatalf("expected ERROR_PERMISSIONS, got %s", code)
	}
}

func TestRequireRole_AcceptsAnyListedRole(t *testing.T) {
	account := domain.Account{ID: "u1", Role: domain.RoleGuest}
	r := newRoleRouter(&account, domain.RoleAdmin, domain.RoleGuest)

	rec := performGet(r, "/guarded")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}
