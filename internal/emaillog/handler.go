package emaillog

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/randopony/backend/pkg/queue"
	"github.com/randopony/backend/pkg/response"
)

// Enqueuer re-enqueues notification email jobs for resends.
type Enqueuer interface {
	EnqueueRiderEmail(ctx context.Context, payload queue.NotificationPayload) error
	EnqueueOrganizerEmail(ctx context.Context, payload queue.NotificationPayload) error
}

// Handler handles admin email log endpoints.
type Handler struct {
	repo   *Repository
	queue  Enqueuer
	logger *zap.Logger
}

// NewHandler creates an email logs handler.
func NewHandler(repo *Repository, q Enqueuer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, queue: q, logger: logger}
}

// ListByEvent handles GET /admin/events/:id/emails.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to list email logs")
		return
	}
	response.OK(c, list)
}

// ResendRequest is the body for POST /admin/events/:id/emails/resend.
type ResendRequest struct {
	RiderID   string `json:"rider_id" binding:"required,uuid"`
	EmailType string `json:"email_type" binding:"required"`
}

// Resend handles POST /admin/events/:id/emails/resend: re-enqueues a
// notification email for a rider.
func (h *Handler) Resend(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req ResendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	riderID, _ := uuid.Parse(req.RiderID)
	payload := queue.NotificationPayload{EventID: eventID, RiderID: riderID}

	switch req.EmailType {
	case string(queue.JobTypeRiderEmail):
		err = h.queue.EnqueueRiderEmail(c.Request.Context(), payload)
	case string(queue.JobTypeOrganizerEmail):
		err = h.queue.EnqueueOrganizerEmail(c.Request.Context(), payload)
	default:
		response.BadRequest(c, "invalid email_type")
		return
	}
	if err != nil {
		h.logger.Error("resend enqueue failed", zap.Error(err))
		response.Internal(c, "failed to enqueue resend")
		return
	}
	response.OK(c, gin.H{"enqueued": true})
}
