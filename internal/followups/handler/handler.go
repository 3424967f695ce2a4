package handler

import (
	"context"
	"net/http"

	"followup_backend/internal/followups/transport"
	"followup_backend/platform/apperr"
	"followup_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest = "invalid request body"
	msgFetched        = "followUp fetched successfully"
	msgListed         = "FollowUps retrieved successfully"
	msgCreated        = "followUp created successfully"
	msgDeleted        = "followUp deleted successfully"
	msgPurged         = "FollowUp collection deleted successfully"
	msgStats          = "Stats fetched successfully."
)

// Service is the follow-up behaviour the HTTP layer depends on.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (transport.FollowUpResponse, error)
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]transport.FollowUpResponse, error)
	ListForEmployee(ctx context.Context, leadID, userID uuid.UUID) ([]transport.FollowUpResponse, error)
	Create(ctx context.Context, createdBy uuid.UUID, req transport.CreateFollowUpRequest) (transport.CreateFollowUpResponse, error)
	Delete(ctx context.Context, id uuid.UUID) (transport.FollowUpResponse, error)
	DeleteAll(ctx context.Context) (transport.DeleteAllResponse, error)
	StatsForUser(ctx context.Context, userID uuid.UUID) ([]transport.StatsBucketResponse, error)
	StatsGlobal(ctx context.Context) ([]transport.StatsBucketResponse, error)
}

// Handler serves the follow-up HTTP endpoints.
type Handler struct {
	svc Service
}

// New creates a Handler backed by svc.
func New(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the follow-up routes on an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/follow-ups")
	g.GET("/stats", h.StatsGlobal)
	g.GET("/stats/employee", h.StatsForEmployee)
	g.GET("/lead/:leadId", h.ListByLead)
	g.GET("/lead/:leadId/employee", h.ListForEmployee)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.DELETE("/:id", h.Delete)
}

// RegisterAdminRoutes mounts the destructive maintenance routes on an admin-only group.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.DELETE("/follow-ups", h.DeleteAll)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result, msgFetched)
}

func (h *Handler) ListByLead(c *gin.Context) {
	leadID, ok := parseUUIDParam(c, "leadId")
	if !ok {
		return
	}

	result, err := h.svc.ListByLead(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result, msgListed)
}

func (h *Handler) ListForEmployee(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	leadID, ok := parseUUIDParam(c, "leadId")
	if !ok {
		return
	}

	result, err := h.svc.ListForEmployee(c.Request.Context(), leadID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result, msgListed)
}

func (h *Handler) StatsForEmployee(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.StatsForUser(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result, msgStats)
}

func (h *Handler) StatsGlobal(c *gin.Context) {
	result, err := h.svc.StatsGlobal(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result, msgStats)
}

func (h *Handler) Create(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.CreateFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.Create(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result, msgCreated)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.svc.Delete(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result, msgDeleted)
}

func (h *Handler) DeleteAll(c *gin.Context) {
	result, err := h.svc.DeleteAll(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result, msgPurged)
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}
