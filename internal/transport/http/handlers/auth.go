package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cleanops/backoffice-core/internal/infra/security"
	"github.com/cleanops/backoffice-core/internal/transport/http/middleware"
	"github.com/cleanops/backoffice-core/internal/usecase"
)

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	auth *usecase.AuthService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterRoutes binds authentication routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/login", h.login)
	r.POST("/worker-login", h.workerLogin)
	r.GET("/session", middleware.RequireAuth(h.auth), h.session)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	reqCtx := middleware.GetRequestContext(c)
	result, err := h.auth.Login(c.Request.Context(), usecase.LoginInput{
		Username:  req.Username,
		Password:  req.Password,
		IP:        reqCtx.IP,
		UserAgent: reqCtx.UserAgent,
	})
	if err != nil {
		h.writeLoginError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   result.ExpiresAt,
		Account:     newAccountSummary(result.Account),
	})
}

func (h *AuthHandler) workerLogin(c *gin.Context) {
	var req WorkerLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid worker login payload"))
		return
	}

	reqCtx := middleware.GetRequestContext(c)
	result, err := h.auth.LoginWorker(c.Request.Context(), req.NationalID, reqCtx.IP, reqCtx.UserAgent)
	if err != nil {
		h.writeLoginError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   result.ExpiresAt,
		Account:     newAccountSummary(result.Account),
	})
}

// session echoes the verified claims so clients can validate a stored token.
func (h *AuthHandler) session(c *gin.Context) {
	claimsVal, exists := c.Get("claims")
	if !exists {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	claims, ok := claimsVal.(*security.SessionClaims)
	if !ok {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "invalid session claims"))
		return
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	c.JSON(http.StatusOK, SessionSummary{
		AccountID:   claims.Subject,
		Username:    claims.Username,
		DisplayName: claims.DisplayName,
		Role:        claims.Role,
		ExpiresAt:   expiresAt,
	})
}

// writeLoginError maps authentication failures onto HTTP statuses. Unknown
// identities and wrong passwords collapse onto 401 so the response does not
// reveal which part of the credential was wrong.
func (h *AuthHandler) writeLoginError(c *gin.Context, err error) {
	var (
		validation *usecase.ValidationError
		invalid    *usecase.InvalidPasswordError
		locked     *usecase.AccountLockedError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, validation.Error()))
	case errors.As(err, &locked):
		c.JSON(http.StatusLocked, NewErrorResponse(c, locked.Error()))
	case errors.As(err, &invalid):
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, invalid.Error()))
	case errors.Is(err, usecase.ErrAccountNotFound), errors.Is(err, usecase.ErrWorkerNotFound):
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid credentials"))
	default:
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "login failed"))
	}
}
