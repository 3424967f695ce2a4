// Package service implements follow-up CRUD and the statistics reports.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"followup_backend/internal/events"
	"followup_backend/internal/followups/domain"
	"followup_backend/internal/followups/repository"
	"followup_backend/internal/followups/stats"
	"followup_backend/internal/followups/transport"
	"followup_backend/platform/apperr"
	"followup_backend/platform/logger"
	"followup_backend/platform/metrics"
	"followup_backend/platform/sanitize"
	"followup_backend/platform/validator"

	"github.com/google/uuid"
)

const msgMissingFields = "make sure to provide all the fields"

// Repository defines the data access the follow-up service needs.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID, opts repository.JoinOptions) (repository.FollowUp, error)
	ListByLead(ctx context.Context, leadID uuid.UUID, opts repository.JoinOptions) ([]repository.FollowUp, error)
	ListAll(ctx context.Context, opts repository.JoinOptions) ([]repository.FollowUp, error)
	Create(ctx context.Context, params repository.CreateFollowUpParams) (repository.FollowUp, error)
	Delete(ctx context.Context, id uuid.UUID) (repository.FollowUp, error)
	DeleteAll(ctx context.Context) (int64, error)
	UpdateLeadStatus(ctx context.Context, leadID uuid.UUID, status string) (repository.Lead, error)
	ListAllocatedUserIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StatsCache stores computed reports per generation, scope and calendar day.
// The generation must be read before the data behind a report is loaded.
type StatsCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, gen int64, day, scope string) ([]transport.StatsBucketResponse, bool, error)
	Set(ctx context.Context, gen int64, day, scope string, buckets []transport.StatsBucketResponse) error
}

// Service handles follow-up business logic.
type Service struct {
	repo     Repository
	dates    *domain.DateNormalizer
	pipeline *stats.Pipeline
	eventBus events.Bus
	log      *logger.Logger
	validate *validator.Validator
	cache    StatsCache
	metrics  *metrics.FollowUpMetrics
	// phoneRegion resolves client numbers written without a country code.
	phoneRegion string
}

// New creates a follow-up service. Cache, metrics and phone region are optional
// and set afterwards.
func New(repo Repository, dates *domain.DateNormalizer, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		dates:    dates,
		pipeline: stats.NewPipeline(dates),
		eventBus: eventBus,
		log:      log,
		validate: validator.New(),
	}
}

// SetStatsCache enables caching of statistics reports.
func (s *Service) SetStatsCache(cache StatsCache) {
	s.cache = cache
}

// SetMetrics enables follow-up counters.
func (s *Service) SetMetrics(m *metrics.FollowUpMetrics) {
	s.metrics = m
}

// SetPhoneRegion sets the region used to format client phone numbers.
func (s *Service) SetPhoneRegion(region string) {
	s.phoneRegion = region
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.FollowUpResponse, error) {
	followUp, err := s.repo.GetByID(ctx, id, repository.JoinOptions{})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.FollowUpResponse{}, apperr.NotFound("follow-up not found")
		}
		return transport.FollowUpResponse{}, err
	}
	return s.toFollowUpResponse(followUp), nil
}

// ListByLead returns every follow-up of a lead, oldest first.
func (s *Service) ListByLead(ctx context.Context, leadID uuid.UUID) ([]transport.FollowUpResponse, error) {
	items, err := s.repo.ListByLead(ctx, leadID, repository.JoinOptions{})
	if err != nil {
		return nil, err
	}
	return s.toFollowUpResponses(items), nil
}

// ListForEmployee returns the follow-ups of a lead when it is allocated to userID.
// Archived leads are included.
func (s *Service) ListForEmployee(ctx context.Context, leadID, userID uuid.UUID) ([]transport.FollowUpResponse, error) {
	items, err := s.repo.ListByLead(ctx, leadID, repository.JoinOptions{WithAllocations: true})
	if err != nil {
		return nil, err
	}

	visible := make([]repository.FollowUp, 0, len(items))
	for _, item := range items {
		if stats.VisibleTo(item, userID, false) {
			visible = append(visible, item)
		}
	}
	return s.toFollowUpResponses(visible), nil
}

// Create stores a follow-up and then copies its status onto the lead.
// The two writes are not atomic: a failed status update leaves the
// follow-up in place and is reported as an unexpected error.
func (s *Service) Create(ctx context.Context, createdBy uuid.UUID, req transport.CreateFollowUpRequest) (transport.CreateFollowUpResponse, error) {
	req.Status = sanitize.Line(req.Status)
	req.Remarks = sanitize.Text(req.Remarks)
	req.FollowUpDate = strings.TrimSpace(req.FollowUpDate)

	if err := s.validate.Struct(req); err != nil {
		return transport.CreateFollowUpResponse{}, apperr.Validation(msgMissingFields).WithDetails(validator.FieldErrors(err))
	}
	leadID, err := uuid.Parse(req.LeadID)
	if err != nil {
		return transport.CreateFollowUpResponse{}, apperr.Validation("invalid lead id")
	}

	params := repository.CreateFollowUpParams{
		LeadID:       leadID,
		Status:       req.Status,
		FollowUpDate: req.FollowUpDate,
		Remarks:      req.Remarks,
	}
	if createdBy != uuid.Nil {
		params.CreatedBy = &createdBy
	}

	followUp, err := s.repo.Create(ctx, params)
	if err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return transport.CreateFollowUpResponse{}, apperr.NotFound("lead not found")
		}
		return transport.CreateFollowUpResponse{}, err
	}

	s.metrics.FollowUpCreated()

	// Invalidate once both writes are visible so no report mixes the new
	// follow-up with the old lead status.
	lead, statusErr := s.repo.UpdateLeadStatus(ctx, leadID, followUp.Status)
	s.publishChange(ctx, events.FollowUpCreated{
		BaseEvent:    events.NewBaseEvent(),
		FollowUpID:   followUp.ID,
		LeadID:       followUp.LeadID,
		Status:       followUp.Status,
		FollowUpDate: followUp.FollowUpDate,
		CreatedBy:    createdBy,
	})
	if statusErr != nil {
		s.log.WithContext(ctx).DatabaseError("update_lead_status", statusErr)
		return transport.CreateFollowUpResponse{}, fmt.Errorf("update status of lead %s: %w", leadID, statusErr)
	}

	s.eventBus.Publish(ctx, events.LeadStatusUpdated{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     lead.ID,
		Status:     lead.Status,
		FollowUpID: followUp.ID,
	})

	return transport.CreateFollowUpResponse{
		FollowUp: s.toFollowUpResponse(followUp),
		Lead:     *s.toLeadResponse(&lead),
	}, nil
}

// Delete removes a follow-up and returns it as it was stored.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (transport.FollowUpResponse, error) {
	followUp, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.FollowUpResponse{}, apperr.NotFound("follow-up not found")
		}
		return transport.FollowUpResponse{}, err
	}

	s.metrics.FollowUpsDeleted("single", 1)
	s.publishChange(ctx, events.FollowUpDeleted{
		BaseEvent:  events.NewBaseEvent(),
		FollowUpID: followUp.ID,
		LeadID:     followUp.LeadID,
	})
	return s.toFollowUpResponse(followUp), nil
}

// DeleteAll wipes every follow-up. Leads are left untouched.
func (s *Service) DeleteAll(ctx context.Context) (transport.DeleteAllResponse, error) {
	deleted, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return transport.DeleteAllResponse{}, err
	}

	s.metrics.FollowUpsDeleted("purge", deleted)
	s.publishChange(ctx, events.FollowUpsPurged{
		BaseEvent: events.NewBaseEvent(),
		Deleted:   deleted,
	})
	s.log.WithContext(ctx).Info("follow-up collection purged", "deleted", deleted)
	return transport.DeleteAllResponse{DeletedCount: deleted}, nil
}

// publishChange delivers events that alter a report synchronously, so a
// cached report is gone before the caller sees the write succeed.
func (s *Service) publishChange(ctx context.Context, event events.Event) {
	if err := s.eventBus.PublishSync(ctx, event); err != nil {
		s.log.WithContext(ctx).Error("follow-up change handlers failed", "event", event.EventName(), "error", err)
	}
}
