package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/randopony/backend/internal/models"
	"github.com/randopony/backend/internal/notify"
	"github.com/randopony/backend/internal/siteinfo"
	"github.com/randopony/backend/pkg/queue"
)

// RiderListSync mirrors a rider list to the event's spreadsheet;
// *sheets.Sync is the real implementation.
type RiderListSync interface {
	SyncRiderList(ev *models.Event, riderList []models.Rider) error
}

// EventStore resolves the event a job refers to; *events.Repository is the
// real implementation.
type EventStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// RiderStore resolves riders for a job; *riders.Repository is the real
// implementation.
type RiderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Rider, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Rider, error)
}

// SiteLinkStore loads the site links referenced in email bodies.
type SiteLinkStore interface {
	LoadSiteLinks(ctx context.Context) (siteinfo.SiteLinks, error)
}

// EmailLogStore records delivery outcomes; *emaillog.Repository is the real
// implementation.
type EmailLogStore interface {
	Create(ctx context.Context, el *models.EmailLog) error
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
}

// NotificationProcessor executes the three registration notification job
// types. Each job is independent and at-least-once: a failure is retried by
// the queue with bounded attempts and never touches the registration itself.
type NotificationProcessor struct {
	eventRepo  EventStore
	riderRepo  RiderStore
	siteRepo   SiteLinkStore
	logRepo    EmailLogStore
	mailer     notify.Mailer
	sheets     RiderListSync
	queue      *queue.Queue
	baseURL    string
	adminEmail string
	logger     *zap.Logger
}

// NewNotificationProcessor creates a notification processor. sheets may be
// nil when spreadsheet sync is not configured.
func NewNotificationProcessor(
	eventRepo EventStore,
	riderRepo RiderStore,
	siteRepo SiteLinkStore,
	logRepo EmailLogStore,
	mailer notify.Mailer,
	sheets RiderListSync,
	q *queue.Queue,
	baseURL, adminEmail string,
	logger *zap.Logger,
) *NotificationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationProcessor{
		eventRepo:  eventRepo,
		riderRepo:  riderRepo,
		siteRepo:   siteRepo,
		logRepo:    logRepo,
		mailer:     mailer,
		sheets:     sheets,
		queue:      q,
		baseURL:    baseURL,
		adminEmail: adminEmail,
		logger:     logger,
	}
}

// Process executes one notification job.
func (p *NotificationProcessor) Process(ctx context.Context, job *queue.Job) error {
	var payload queue.NotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	ev, err := p.eventRepo.GetByID(ctx, payload.EventID)
	if err != nil {
		return fmt.Errorf("event %s: %w", payload.EventID, err)
	}

	switch job.Type {
	case queue.JobTypeRiderEmail:
		return p.sendRiderEmail(ctx, ev, payload)
	case queue.JobTypeOrganizerEmail:
		return p.sendOrganizerEmail(ctx, ev, payload)
	case queue.JobTypeSpreadsheetSync:
		return p.syncSpreadsheet(ctx, ev)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (p *NotificationProcessor) sendRiderEmail(ctx context.Context, ev *models.Event, payload queue.NotificationPayload) error {
	rider, err := p.riderRepo.GetByID(ctx, payload.RiderID)
	if err != nil {
		return fmt.Errorf("rider %s: %w", payload.RiderID, err)
	}
	links, err := p.siteRepo.LoadSiteLinks(ctx)
	if err != nil {
		return fmt.Errorf("site links: %w", err)
	}
	msg := notify.RiderConfirmation(ev, rider, notify.SiteLinks(links), p.baseURL)
	return p.deliver(ctx, ev, rider, models.EmailTypeRiderConfirmation, msg)
}

func (p *NotificationProcessor) sendOrganizerEmail(ctx context.Context, ev *models.Event, payload queue.NotificationPayload) error {
	rider, err := p.riderRepo.GetByID(ctx, payload.RiderID)
	if err != nil {
		return fmt.Errorf("rider %s: %w", payload.RiderID, err)
	}
	links, err := p.siteRepo.LoadSiteLinks(ctx)
	if err != nil {
		return fmt.Errorf("site links: %w", err)
	}
	msg := notify.OrganizerNotification(ev, rider, notify.SiteLinks(links), p.baseURL, p.adminEmail)
	return p.deliver(ctx, ev, rider, models.EmailTypeOrganizerNotification, msg)
}

func (p *NotificationProcessor) deliver(ctx context.Context, ev *models.Event, rider *models.Rider, emailType string, msg notify.Message) error {
	entry := &models.EmailLog{
		EventID:        ev.ID,
		RiderID:        rider.ID,
		EmailType:      emailType,
		RecipientEmail: ev.OrganizerEmail,
		Subject:        msg.Subject,
	}
	if emailType == models.EmailTypeRiderConfirmation {
		entry.RecipientEmail = rider.Email
	}
	if err := p.logRepo.Create(ctx, entry); err != nil {
		p.logger.Warn("email log create failed", zap.Error(err))
	}

	if err := p.mailer.Send(msg); err != nil {
		if entry.ID != uuid.Nil {
			_ = p.logRepo.MarkFailed(ctx, entry.ID, err.Error())
		}
		return fmt.Errorf("send %s: %w", emailType, err)
	}
	if entry.ID != uuid.Nil {
		_ = p.logRepo.MarkSent(ctx, entry.ID)
	}
	p.logger.Info("notification email sent",
		zap.String("type", emailType),
		zap.String("event", ev.String()),
		zap.String("rider_id", rider.ID.String()))
	return nil
}

func (p *NotificationProcessor) syncSpreadsheet(ctx context.Context, ev *models.Event) error {
	if p.sheets == nil {
		p.logger.Warn("spreadsheet sync not configured, dropping job", zap.String("event", ev.String()))
		return nil
	}
	if ev.GoogleDocID == "" {
		// the admin has not created the rider-list doc yet; retrying won't help
		p.logger.Warn("event has no rider-list spreadsheet", zap.String("event", ev.String()))
		return nil
	}
	riderList, err := p.riderRepo.ListByEvent(ctx, ev.ID)
	if err != nil {
		return fmt.Errorf("list riders: %w", err)
	}
	if err := p.sheets.SyncRiderList(ev, riderList); err != nil {
		return fmt.Errorf("spreadsheet sync: %w", err)
	}
	p.logger.Info("rider list synced",
		zap.String("event", ev.String()),
		zap.Int("riders", len(riderList)))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *NotificationProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("notification worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
		}
	}
}
