package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cleanops/backoffice-core/internal/core/domain"
	"github.com/cleanops/backoffice-core/internal/transport/http/middleware"
	"github.com/cleanops/backoffice-core/internal/usecase"
)

// CrewHandler exposes the crew assignment endpoints.
type CrewHandler struct {
	crews *usecase.CrewService
	auth  *usecase.AuthService
}

// NewCrewHandler constructs CrewHandler.
func NewCrewHandler(crews *usecase.CrewService, auth *usecase.AuthService) *CrewHandler {
	return &CrewHandler{crews: crews, auth: auth}
}

// RegisterRoutes binds crew routes. Every route requires an authenticated
// administrator or moderator; workers can never manage crews.
func (h *CrewHandler) RegisterRoutes(r *gin.RouterGroup) {
	authed := r.Group("")
	authed.Use(
		middleware.RequireAuth(h.auth),
		middleware.RequireRole(domain.RoleAdministrator, domain.RoleModerator),
	)

	authed.GET("", h.list)
	authed.GET("/next-number", h.nextNumber)
	authed.GET("/:id", h.get)
	authed.POST("", h.create)
	authed.PUT("/:id", h.update)
	authed.DELETE("/:id", h.remove)
}

func (h *CrewHandler) list(c *gin.Context) {
	crews, err := h.crews.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list crews"))
		return
	}

	out := make([]CrewResponse, 0, len(crews))
	for i := range crews {
		out = append(out, newCrewResponse(&crews[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *CrewHandler) get(c *gin.Context) {
	crew, err := h.crews.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeCrewError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCrewResponse(crew))
}

func (h *CrewHandler) nextNumber(c *gin.Context) {
	number, err := h.crews.NextNumber(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to compute next crew number"))
		return
	}
	c.JSON(http.StatusOK, NextNumberResponse{Number: number})
}

func (h *CrewHandler) create(c *gin.Context) {
	var req CrewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid crew payload"))
		return
	}

	actorID, _ := middleware.GetAuthenticatedActorID(c)
	crew, err := h.crews.Create(c.Request.Context(), usecase.CreateCrewInput{
		Activity:    req.Activity,
		ModeratorID: req.ModeratorID,
		WorkerIDs:   req.WorkerIDs,
		ActorID:     actorID,
	})
	if err != nil {
		h.writeCrewError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newCrewResponse(crew))
}

func (h *CrewHandler) update(c *gin.Context) {
	var req CrewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid crew payload"))
		return
	}

	actorID, _ := middleware.GetAuthenticatedActorID(c)
	crew, err := h.crews.Update(c.Request.Context(), usecase.UpdateCrewInput{
		CrewID:      c.Param("id"),
		Activity:    req.Activity,
		ModeratorID: req.ModeratorID,
		WorkerIDs:   req.WorkerIDs,
		ActorID:     actorID,
	})
	if err != nil {
		h.writeCrewError(c, err)
		return
	}

	c.JSON(http.StatusOK, newCrewResponse(crew))
}

func (h *CrewHandler) remove(c *gin.Context) {
	actorID, _ := middleware.GetAuthenticatedActorID(c)
	if err := h.crews.Delete(c.Request.Context(), c.Param("id"), actorID); err != nil {
		h.writeCrewError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "crew deleted"})
}

// writeCrewError maps crew operation failures onto HTTP statuses.
func (h *CrewHandler) writeCrewError(c *gin.Context, err error) {
	var (
		validation *usecase.ValidationError
		missing    *usecase.PersonNotFoundError
		conflict   *usecase.ConflictError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, validation.Error()))
	case errors.As(err, &missing):
		c.JSON(http.StatusUnprocessableEntity, NewErrorResponse(c, missing.Error()))
	case errors.As(err, &conflict):
		details := make([]ConflictDetail, 0, len(conflict.Conflicts))
		for _, wc := range conflict.Conflicts {
			details = append(details, ConflictDetail{
				WorkerID:   wc.WorkerID,
				Name:       wc.Name,
				Surname:    wc.Surname,
				CrewNumber: wc.CrewNumber,
			})
		}
		c.JSON(http.StatusConflict, ConflictResponse{
			Error:     "one or more workers are already assigned to an active crew",
			Conflicts: details,
			TraceID:   middleware.GetTraceID(c),
		})
	case errors.Is(err, usecase.ErrCrewNotFound):
		c.JSON(http.StatusNotFound, NewErrorResponse(c, "crew not found"))
	default:
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "crew operation failed"))
	}
}
