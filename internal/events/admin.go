package events

import (
	"net/mail"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/randopony/backend/internal/models"
	"github.com/randopony/backend/pkg/response"
)

var brevetDistances = map[string]bool{
	"200": true, "300": true, "400": true, "600": true, "1000": true,
}

// CreateRequest is the body for POST /admin/events.
type CreateRequest struct {
	Type               string `json:"event_type" binding:"required"`
	Region             string `json:"region"`
	EventCode          string `json:"event_code" binding:"required"`
	RouteName          string `json:"route_name"`
	Date               string `json:"date" binding:"required"`       // 2006-01-02
	StartTime          string `json:"start_time" binding:"required"` // HH:MM
	AltStartTime       string `json:"alt_start_time"`
	Location           string `json:"location"`
	OrganizerEmail     string `json:"organizer_email" binding:"required"`
	RegistrationCloses string `json:"registration_closes"` // RFC3339, populaires
	InfoQuestion       string `json:"info_question"`
	Distances          string `json:"distances"`
	EntryFormURL       string `json:"entry_form_url"`
	EntryFormURLLabel  string `json:"entry_form_url_label"`
}

func (req *CreateRequest) toEvent() (*models.Event, string) {
	evType := models.EventType(req.Type)
	switch evType {
	case models.EventTypeBrevet:
		if _, ok := models.Regions[req.Region]; !ok {
			return nil, "invalid region"
		}
		if !brevetDistances[req.EventCode] {
			return nil, "invalid brevet distance"
		}
	case models.EventTypePopulaire:
	default:
		return nil, "invalid event_type"
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, "invalid date"
	}
	if _, err := time.Parse("15:04", req.StartTime); err != nil {
		return nil, "invalid start_time"
	}

	// organizer_email is a comma-separated list; every entry must parse and
	// at least one must be present, since notification From/To headers and
	// the event page contact are built from it
	organizers := 0
	for _, addr := range strings.Split(req.OrganizerEmail, ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if _, err := mail.ParseAddress(addr); err != nil {
			return nil, "invalid organizer_email"
		}
		organizers++
	}
	if organizers == 0 {
		return nil, "invalid organizer_email"
	}

	ev := &models.Event{
		Type:              evType,
		Region:            req.Region,
		EventCode:         req.EventCode,
		RouteName:         req.RouteName,
		Date:              date,
		StartTime:         req.StartTime,
		AltStartTime:      req.AltStartTime,
		Location:          req.Location,
		OrganizerEmail:    req.OrganizerEmail,
		InfoQuestion:      req.InfoQuestion,
		Distances:         req.Distances,
		EntryFormURL:      req.EntryFormURL,
		EntryFormURLLabel: req.EntryFormURLLabel,
	}
	if req.RegistrationCloses != "" {
		closes, err := time.Parse(time.RFC3339, req.RegistrationCloses)
		if err != nil {
			return nil, "invalid registration_closes"
		}
		// registration must close no later than the event starts
		if closes.After(ev.StartDateTime()) {
			return nil, "registration_closes must not be after the event start"
		}
		ev.RegistrationCloses = &closes
	}
	return ev, ""
}

// Create handles POST /admin/events.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ev, msg := req.toEvent()
	if msg != "" {
		response.BadRequest(c, msg)
		return
	}
	if err := h.repo.Create(c.Request.Context(), ev); err != nil {
		h.logger.Error("create event failed", zap.Error(err))
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, ev)
}

// Update handles PATCH /admin/events/:id. The request carries the full
// mutable field set; natural-key fields (type, region, code) are fixed at
// creation.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	existing, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	req.Type = string(existing.Type)
	req.Region = existing.Region
	req.EventCode = existing.EventCode
	ev, msg := req.toEvent()
	if msg != "" {
		response.BadRequest(c, msg)
		return
	}
	ev.ID = existing.ID
	if err := h.repo.Update(c.Request.Context(), ev); err != nil {
		response.Internal(c, "failed to update event")
		return
	}
	response.OK(c, ev)
}

// AdminList handles GET /admin/events.
func (h *Handler) AdminList(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, list)
}

// SetGoogleDocRequest is the body for PUT /admin/events/:id/google-doc.
type SetGoogleDocRequest struct {
	GoogleDocID string `json:"google_doc_id" binding:"required"`
}

// SetGoogleDoc handles PUT /admin/events/:id/google-doc: records the
// rider-list spreadsheet an administrator created for the event.
func (h *Handler) SetGoogleDoc(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req SetGoogleDocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.repo.SetGoogleDocID(c.Request.Context(), id, req.GoogleDocID); err != nil {
		response.Internal(c, "failed to set google doc id")
		return
	}
	response.OK(c, gin.H{"id": id, "google_doc_id": req.GoogleDocID})
}
