// Package followups provides the follow-up tracking bounded context module.
package followups

import (
	"followup_backend/internal/events"
	"followup_backend/internal/followups/cache"
	"followup_backend/internal/followups/domain"
	"followup_backend/internal/followups/handler"
	"followup_backend/internal/followups/repository"
	"followup_backend/internal/followups/service"
	apphttp "followup_backend/internal/http"
	"followup_backend/platform/config"
	"followup_backend/platform/logger"
	"followup_backend/platform/metrics"
)

// Module is the follow-ups bounded context module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	service  *service.Service
	eventBus events.Bus
	log      *logger.Logger
}

// NewModule wires the repository, service and handler of the follow-ups context.
func NewModule(db repository.DB, eventBus events.Bus, cfg config.FollowUpConfig, log *logger.Logger) *Module {
	repo := repository.New(db)
	dates := domain.NewDateNormalizer(cfg.GetReportLocation(), nil)
	svc := service.New(repo, dates, eventBus, log)
	svc.SetPhoneRegion(cfg.GetPhoneRegion())

	return &Module{
		handler:  handler.New(svc),
		service:  svc,
		eventBus: eventBus,
		log:      log,
	}
}

// UseStatsCache serves reports through c and drops them on every change.
// warmer may be nil.
func (m *Module) UseStatsCache(c *cache.StatsCache, warmer cache.WarmEnqueuer) {
	m.service.SetStatsCache(c)
	cache.NewInvalidator(c, warmer, m.log).Register(m.eventBus)
}

// UseMetrics records follow-up counters on fm.
func (m *Module) UseMetrics(fm *metrics.FollowUpMetrics) {
	m.service.SetMetrics(fm)
}

// Service returns the follow-up service for the scheduler worker.
func (m *Module) Service() *service.Service {
	return m.service
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "followups"
}

// RegisterRoutes mounts follow-up routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
