package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cleanops/backoffice-core/internal/core/domain"
	"github.com/cleanops/backoffice-core/internal/infra/config"
	"github.com/cleanops/backoffice-core/internal/infra/security"
	"github.com/cleanops/backoffice-core/internal/usecase"
)

func newTestAuthService(t *testing.T) (*usecase.AuthService, *usecase.TokenService) {
	t.Helper()

	cfg := &config.AppConfig{
		App: config.AppSettings{Name: "backoffice-core-test"},
		JWT: config.JWTSettings{SessionTTL: time.Hour},
	}

	keys, err := security.NewEphemeralKeyProvider("test-key")
	if err != nil {
		t.Fatalf("key provider: %v", err)
	}
	signer, err := security.NewTokenSigner(keys, "test-key")
	if err != nil {
		t.Fatalf("token signer: %v", err)
	}
	tokens, err := usecase.NewTokenService(cfg, signer, nil)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}

	auth, err := usecase.NewAuthService(cfg, nil, nil, tokens, nil, nil, nil)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	return auth, tokens
}

func issueToken(t *testing.T, tokens *usecase.TokenService, role domain.Role) string {
	t.Helper()

	signed, _, err := tokens.Issue(usecase.AccountView{
		ID:          "acc-1",
		Username:    "D31510033",
		DisplayName: "Diego Martinez",
		Role:        role,
		Active:      true,
	})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return signed
}

func protectedRouter(auth *usecase.AuthService, roles ...domain.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	chain := []gin.HandlerFunc{EnrichContext(), RequireAuth(auth)}
	if len(roles) > 0 {
		chain = append(chain, RequireRole(roles...))
	}
	chain = append(chain, func(c *gin.Context) {
		actorID, _ := GetAuthenticatedActorID(c)
		c.JSON(http.StatusOK, gin.H{"actor_id": actorID})
	})
	router.GET("/protected", chain...)
	return router
}

func TestRequireAuthAcceptsBearerToken(t *testing.T) {
	auth, tokens := newTestAuthService(t)
	router := protectedRouter(auth)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, domain.RoleModerator))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
}

func TestRequireAuthRejectsMissingAndMalformedHeaders(t *testing.T) {
	auth, tokens := newTestAuthService(t)
	router := protectedRouter(auth)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"no scheme", issueToken(t, tokens, domain.RoleModerator)},
		{"wrong scheme", "Basic abc"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not.a.token"},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want 401", tc.name, rr.Code)
		}
	}
}

func TestRequireRoleEnforcesRoleSet(t *testing.T) {
	auth, tokens := newTestAuthService(t)
	router := protectedRouter(auth, domain.RoleAdministrator, domain.RoleModerator)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, domain.RoleModerator))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("moderator: status = %d, want 200", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, domain.RoleWorker))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("worker: status = %d, want 403", rr.Code)
	}
}
