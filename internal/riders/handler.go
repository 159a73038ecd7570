package riders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/randopony/backend/internal/models"
	"github.com/randopony/backend/pkg/response"
)

// EventFinder resolves an event by its natural key.
type EventFinder interface {
	GetByKey(ctx context.Context, key string, date time.Time) (*models.Event, error)
}

// Handler handles the public registration endpoint.
type Handler struct {
	service *Service
	events  EventFinder
	logger  *zap.Logger
}

// NewHandler creates a riders handler.
func NewHandler(service *Service, events EventFinder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, events: events, logger: logger}
}

// Register handles POST /events/:key/:date/riders. On success (or duplicate)
// the response carries the redirect target for the event page keyed by the
// rider's identity; on validation failure it carries field-level errors with
// the submitted values echoed back, except the captcha answer.
func (h *Handler) Register(c *gin.Context) {
	date, err := time.Parse(models.DateLayout, c.Param("date"))
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	ev, err := h.events.GetByKey(c.Request.Context(), c.Param("key"), date)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}

	var form Form
	if err := c.ShouldBindJSON(&form); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	outcome, fieldErrs, err := h.service.Register(c.Request.Context(), ev, form, time.Now())
	if err != nil {
		if errors.Is(err, ErrRegistrationClosed) {
			response.NotFound(c, "event not found")
			return
		}
		h.logger.Error("registration failed", zap.Error(err), zap.String("event", ev.String()))
		response.Internal(c, "failed to register")
		return
	}
	if fieldErrs != nil {
		form.Captcha = nil
		c.JSON(422, gin.H{
			"success": false,
			"errors":  fieldErrs,
			"values":  form,
		})
		return
	}

	if outcome.Duplicate {
		response.OK(c, gin.H{
			"duplicate": true,
			"rider_id":  outcome.Rider.ID,
			"redirect":  fmt.Sprintf("%s?rider=%s&duplicate=1", ev.Path(), outcome.Rider.ID),
		})
		return
	}
	response.Created(c, gin.H{
		"duplicate": false,
		"rider_id":  outcome.Rider.ID,
		"redirect":  fmt.Sprintf("%s?rider=%s", ev.Path(), outcome.Rider.ID),
	})
}
