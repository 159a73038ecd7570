package events

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/randopony/backend/internal/models"
	"github.com/randopony/backend/pkg/response"
	"github.com/randopony/backend/pkg/utils"
)

// EventStore is the event persistence the handlers need; *Repository is the
// real implementation.
type EventStore interface {
	Create(ctx context.Context, ev *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	GetByKey(ctx context.Context, key string, date time.Time) (*models.Event, error)
	ListUpcoming(ctx context.Context, cutoff time.Time) ([]models.Event, error)
	List(ctx context.Context) ([]models.Event, error)
	Update(ctx context.Context, ev *models.Event) error
	SetGoogleDocID(ctx context.Context, id uuid.UUID, docID string) error
}

// RiderStore is the rider read surface the event pages need.
type RiderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Rider, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Rider, error)
}

// Handler handles event HTTP endpoints.
type Handler struct {
	repo       EventStore
	riderRepo  RiderStore
	rules      Rules
	adminEmail string
	captchaQ   string
	logger     *zap.Logger
}

// NewHandler creates an events handler.
func NewHandler(repo EventStore, riderRepo RiderStore, rules Rules, adminEmail, captchaQuestion string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		repo:       repo,
		riderRepo:  riderRepo,
		rules:      rules,
		adminEmail: adminEmail,
		captchaQ:   captchaQuestion,
		logger:     logger,
	}
}

// lookup resolves the :key/:date path segments to an event.
func (h *Handler) lookup(c *gin.Context) (*models.Event, bool) {
	date, err := time.Parse(models.DateLayout, c.Param("date"))
	if err != nil {
		response.NotFound(c, "event not found")
		return nil, false
	}
	ev, err := h.repo.GetByKey(c.Request.Context(), c.Param("key"), date)
	if err != nil {
		response.NotFound(c, "event not found")
		return nil, false
	}
	return ev, true
}

// List handles GET /events: upcoming (non-archived) events grouped by region.
func (h *Handler) List(c *gin.Context) {
	now := time.Now()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		Add(-h.rules.ArchiveAfter)
	list, err := h.repo.ListUpcoming(c.Request.Context(), cutoff)
	if err != nil {
		response.Internal(c, "failed to list events")
		return
	}

	type regionGroup struct {
		Abbrev   string         `json:"abbrev"`
		LongName string         `json:"long_name"`
		Events   []models.Event `json:"events"`
	}
	groups := make(map[string]*regionGroup)
	var order []string
	for _, ev := range list {
		region := ev.Region
		longName := models.Regions[region]
		if region == "" {
			// populaires have no region; list them under their own heading
			region, longName = "Pop", "Populaires"
		}
		g, ok := groups[region]
		if !ok {
			g = &regionGroup{Abbrev: region, LongName: longName}
			groups[region] = g
			order = append(order, region)
		}
		g.Events = append(g.Events, ev)
	}
	out := make([]regionGroup, 0, len(order))
	for _, region := range order {
		out = append(out, *groups[region])
	}
	response.OK(c, gin.H{
		"regions":     out,
		"admin_email": utils.EmailToWords(h.adminEmail),
	})
}

// Detail handles GET /events/:key/:date: event info, registration state, and
// the pre-registered rider list. ?rider=<id> adds confirmation banner data;
// ?duplicate=1 flags a duplicate-registration banner.
func (h *Handler) Detail(c *gin.Context) {
	ev, ok := h.lookup(c)
	if !ok {
		return
	}
	now := time.Now()

	if h.rules.Archived(ev, now) {
		response.OK(c, gin.H{
			"event":       ev.String(),
			"archived":    true,
			"results_url": h.rules.ResultsURL(ev),
		})
		return
	}

	riderList, err := h.riderRepo.ListByEvent(c.Request.Context(), ev.ID)
	if err != nil {
		response.Internal(c, "failed to list riders")
		return
	}

	organizerContact := ""
	if addrs := ev.OrganizerAddresses(); len(addrs) > 0 {
		organizerContact = utils.EmailToWords(addrs[0])
	}
	body := gin.H{
		"event":               ev,
		"archived":            false,
		"registration_closed": h.rules.RegistrationClosed(ev, now),
		"started":             h.rules.Started(ev, now),
		"riders":              riderList,
		"organizer_contact":   organizerContact,
		"admin_email":         utils.EmailToWords(h.adminEmail),
		"captcha_question":    h.captchaQ,
		"duplicate":           c.Query("duplicate") == "1",
	}
	if riderID, err := uuid.Parse(c.Query("rider")); err == nil {
		if rider, err := h.riderRepo.GetByID(c.Request.Context(), riderID); err == nil && rider.EventID == ev.ID {
			body["rider"] = rider
			body["rider_email"] = utils.EmailToWords(rider.Email)
		}
	}
	response.OK(c, body)
}

// RiderEmails handles GET /events/:key/:date/rider-emails/:token. Returns the
// registered riders' addresses as plain text for organizer convenience. The
// only protection is the event's unguessable URL-namespace uuid; adding real
// authentication is an open product decision.
func (h *Handler) RiderEmails(c *gin.Context) {
	ev, ok := h.lookup(c)
	if !ok {
		return
	}
	if c.Param("token") != ev.UUID().String() {
		response.NotFound(c, "event not found")
		return
	}
	riderList, err := h.riderRepo.ListByEvent(c.Request.Context(), ev.ID)
	if err != nil {
		response.Internal(c, "failed to list riders")
		return
	}
	if len(riderList) == 0 {
		response.NotFound(c, "no riders")
		return
	}
	emails := ""
	for i, rider := range riderList {
		if i > 0 {
			emails += ", "
		}
		emails += rider.Email
	}
	c.String(200, emails)
}
