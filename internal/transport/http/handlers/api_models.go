package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cleanops/backoffice-core/internal/core/domain"
	"github.com/cleanops/backoffice-core/internal/usecase"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginRequest defines the payload for the administrator/moderator login endpoint.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// WorkerLoginRequest defines the payload for the worker login endpoint.
type WorkerLoginRequest struct {
	NationalID string `json:"national_id" binding:"required"`
}

// AccountSummary describes the authenticated identity returned by the API.
type AccountSummary struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	DisplayName string      `json:"display_name"`
	Role        domain.Role `json:"role"`
	LastLogin   *time.Time  `json:"last_login,omitempty"`
}

// LoginResponse is returned by both login endpoints.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresAt   time.Time      `json:"expires_at"`
	Account     AccountSummary `json:"account"`
}

func newAccountSummary(view usecase.AccountView) AccountSummary {
	return AccountSummary{
		ID:          view.ID,
		Username:    view.Username,
		DisplayName: view.DisplayName,
		Role:        view.Role,
		LastLogin:   view.LastLogin,
	}
}

// SessionSummary echoes the verified claims of a session token.
type SessionSummary struct {
	AccountID   string      `json:"account_id"`
	Username    string      `json:"username"`
	DisplayName string      `json:"display_name"`
	Role        domain.Role `json:"role"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

// CrewRequest defines the payload for crew creation and update.
type CrewRequest struct {
	Activity    string   `json:"activity" binding:"required"`
	ModeratorID string   `json:"moderator_id" binding:"required"`
	WorkerIDs   []string `json:"worker_ids" binding:"required"`
}

// MemberSummary is the embedded view of an assigned person.
type MemberSummary struct {
	SourceID   string `json:"source_id"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	NationalID string `json:"national_id"`
}

// CrewResponse is the API view of a crew.
type CrewResponse struct {
	ID              string          `json:"id"`
	Number          string          `json:"number"`
	Activity        string          `json:"activity"`
	State           string          `json:"state"`
	Moderator       MemberSummary   `json:"moderator"`
	Workers         []MemberSummary `json:"workers"`
	NumberOfWorkers int             `json:"number_of_workers"`
	CreatedAt       time.Time       `json:"created_at"`
	CreatedBy       string          `json:"created_by,omitempty"`
	ModifiedAt      *time.Time      `json:"modified_at,omitempty"`
	ModifiedBy      string          `json:"modified_by,omitempty"`
}

// ConflictDetail names one worker rejected by the availability check.
type ConflictDetail struct {
	WorkerID   string `json:"worker_id"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	CrewNumber string `json:"crew_number"`
}

// ConflictResponse lists every double-booked worker in a rejected request.
type ConflictResponse struct {
	Error     string           `json:"error"`
	Conflicts []ConflictDetail `json:"conflicts"`
	TraceID   string           `json:"trace_id,omitempty"`
}

// NextNumberResponse previews the next crew number.
type NextNumberResponse struct {
	Number string `json:"number"`
}

// HealthResponse is returned by the liveness endpoint.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse aggregates the readiness of downstream dependencies.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func newMemberSummary(s domain.PersonSnapshot) MemberSummary {
	return MemberSummary{
		SourceID:   s.SourceID,
		Name:       s.Name,
		Surname:    s.Surname,
		NationalID: s.NationalID,
	}
}

func newCrewResponse(crew *domain.Crew) CrewResponse {
	workers := make([]MemberSummary, 0, len(crew.Workers))
	for _, w := range crew.Workers {
		workers = append(workers, newMemberSummary(w))
	}

	return CrewResponse{
		ID:              crew.ID,
		Number:          crew.Number,
		Activity:        crew.Activity,
		State:           string(crew.State),
		Moderator:       newMemberSummary(crew.Moderator),
		Workers:         workers,
		NumberOfWorkers: crew.NumberOfWorkers,
		CreatedAt:       crew.CreatedAt,
		CreatedBy:       crew.CreatedBy,
		ModifiedAt:      crew.ModifiedAt,
		ModifiedBy:      crew.ModifiedBy,
	}
}
