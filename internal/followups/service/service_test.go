package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"followup_backend/internal/events"
	"followup_backend/internal/followups/domain"
	"followup_backend/internal/followups/repository"
	"followup_backend/internal/followups/transport"
	"followup_backend/platform/apperr"
	"followup_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

type fakeRepo struct {
	mu          sync.Mutex
	followUps   []repository.FollowUp
	leads       map[uuid.UUID]*repository.Lead
	listAllHits int
	statusErr   error
	// afterListAll runs once, after the next ListAll has taken its snapshot.
	afterListAll func()
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{leads: make(map[uuid.UUID]*repository.Lead)}
}

func (r *fakeRepo) addLead(archived bool, allocated ...uuid.UUID) *repository.Lead {
	l := &repository.Lead{ID: uuid.New(), Status: "New", IsArchived: archived}
	for _, id := range allocated {
		l.AllocatedTo = append(l.AllocatedTo, repository.Employee{ID: id})
	}
	r.leads[l.ID] = l
	return l
}

func (r *fakeRepo) addFollowUp(leadID uuid.UUID, date string, created time.Time) repository.FollowUp {
	f := repository.FollowUp{ID: uuid.New(), LeadID: leadID, Status: "Hot", FollowUpDate: date, Remarks: "r", CreatedAt: created, UpdatedAt: created}
	r.followUps = append(r.followUps, f)
	return f
}

func (r *fakeRepo) join(f repository.FollowUp, opts repository.JoinOptions) repository.FollowUp {
	l, ok := r.leads[f.LeadID]
	if !ok || (opts.ExcludeArchivedLeads && l.IsArchived) {
		f.Lead = nil
		return f
	}
	lead := *l
	if !opts.WithAllocations {
		lead.AllocatedTo = nil
	}
	f.Lead = &lead
	return f
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID, opts repository.JoinOptions) (repository.FollowUp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.followUps {
		if f.ID == id {
			return r.join(f, opts), nil
		}
	}
	return repository.FollowUp{}, repository.ErrNotFound
}

func (r *fakeRepo) ListByLead(_ context.Context, leadID uuid.UUID, opts repository.JoinOptions) ([]repository.FollowUp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []repository.FollowUp{}
	for _, f := range r.followUps {
		if f.LeadID == leadID {
			out = append(out, r.join(f, opts))
		}
	}
	return out, nil
}

func (r *fakeRepo) ListAll(_ context.Context, opts repository.JoinOptions) ([]repository.FollowUp, error) {
	r.mu.Lock()
	r.listAllHits++
	out := make([]repository.FollowUp, 0, len(r.followUps))
	for _, f := range r.followUps {
		out = append(out, r.join(f, opts))
	}
	hook := r.afterListAll
	r.afterListAll = nil
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

func (r *fakeRepo) Create(_ context.Context, params repository.CreateFollowUpParams) (repository.FollowUp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.leads[params.LeadID]; !ok {
		return repository.FollowUp{}, repository.ErrLeadNotFound
	}
	f := repository.FollowUp{
		ID:           uuid.New(),
		LeadID:       params.LeadID,
		Status:       params.Status,
		FollowUpDate: params.FollowUpDate,
		Remarks:      params.Remarks,
		CreatedBy:    params.CreatedBy,
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	r.followUps = append(r.followUps, f)
	return f, nil
}

func (r *fakeRepo) Delete(_ context.Context, id uuid.UUID) (repository.FollowUp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, f := range r.followUps {
		if f.ID == id {
			r.followUps = append(r.followUps[:i], r.followUps[i+1:]...)
			return f, nil
		}
	}
	return repository.FollowUp{}, repository.ErrNotFound
}

func (r *fakeRepo) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.followUps))
	r.followUps = nil
	return n, nil
}

func (r *fakeRepo) UpdateLeadStatus(_ context.Context, leadID uuid.UUID, status string) (repository.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.statusErr != nil {
		return repository.Lead{}, r.statusErr
	}
	l, ok := r.leads[leadID]
	if !ok {
		return repository.Lead{}, repository.ErrLeadNotFound
	}
	l.Status = status
	return *l, nil
}

func (r *fakeRepo) ListAllocatedUserIDs(_ context.Context) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, l := range r.leads {
		for _, emp := range l.AllocatedTo {
			if !seen[emp.ID] {
				seen[emp.ID] = true
				ids = append(ids, emp.ID)
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

type mapCache struct {
	mu      sync.Mutex
	gen     int64
	entries map[string][]transport.StatsBucketResponse
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]transport.StatsBucketResponse)}
}

func (c *mapCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

func (c *mapCache) Get(_ context.Context, gen int64, day, scope string) ([]transport.StatsBucketResponse, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[fmt.Sprintf("%d|%s|%s", gen, day, scope)]
	return b, ok, nil
}

func (c *mapCache) Set(_ context.Context, gen int64, day, scope string, buckets []transport.StatsBucketResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fmt.Sprintf("%d|%s|%s", gen, day, scope)] = buckets
	return nil
}

type recorder struct {
	mu    sync.Mutex
	names []string
}

func (r *recorder) Handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, e.EventName())
	return nil
}

func newTestService(repo *fakeRepo) (*Service, *events.InMemoryBus) {
	bus := events.NewInMemoryBus(logger.Discard())
	dates := domain.NewDateNormalizer(time.UTC, func() time.Time { return testNow })
	return New(repo, dates, bus, logger.Discard()), bus
}

func TestCreateRejectsMissingFields(t *testing.T) {
	repo := newFakeRepo()
	lead := repo.addLead(false)
	svc, _ := newTestService(repo)

	cases := map[string]transport.CreateFollowUpRequest{
		"missing remarks": {LeadID: lead.ID.String(), Status: "Hot", FollowUpDate: "1-3-24"},
		"blank status":    {LeadID: lead.ID.String(), Status: "   ", FollowUpDate: "1-3-24", Remarks: "call"},
		"missing date":    {LeadID: lead.ID.String(), Status: "Hot", Remarks: "call"},
		"bad lead id":     {LeadID: "nope", Status: "Hot", FollowUpDate: "1-3-24", Remarks: "call"},
	}

	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), uuid.New(), req)
			assert.True(t, apperr.Is(err, apperr.KindValidation), "expected validation error, got %v", err)
		})
	}

	assert.Empty(t, repo.followUps)
	assert.Equal(t, "New", lead.Status)
}

func TestCreateUpdatesLeadStatusAndPublishes(t *testing.T) {
	repo := newFakeRepo()
	lead := repo.addLead(false)
	svc, bus := newTestService(repo)
	rec := &recorder{}
	bus.Subscribe(events.FollowUpCreated{}.EventName(), rec)
	bus.Subscribe(events.LeadStatusUpdated{}.EventName(), rec)

	author := uuid.New()
	resp, err := svc.Create(context.Background(), author, transport.CreateFollowUpRequest{
		LeadID:       lead.ID.String(),
		Status:       "Cold",
		FollowUpDate: "1-3-24",
		Remarks:      "<b>call</b> again",
	})
	require.NoError(t, err)
	bus.Wait()

	assert.Equal(t, "Cold", lead.Status)
	assert.Equal(t, "Cold", resp.Lead.Status)
	assert.Equal(t, "call again", resp.FollowUp.Remarks)
	assert.Equal(t, "1-3-24", resp.FollowUp.FollowUpDate)
	assert.Equal(t, "2024-03-01", resp.FollowUp.NormalizedDate)
	require.NotNil(t, resp.FollowUp.CreatedBy)
	assert.Equal(t, author, *resp.FollowUp.CreatedBy)
	assert.Len(t, rec.names, 2)
}

func TestCreatedEventSeesUpdatedLeadStatus(t *testing.T) {
	repo := newFakeRepo()
	lead := repo.addLead(false)
	svc, bus := newTestService(repo)

	var statusAtEvent string
	bus.Subscribe(events.FollowUpCreated{}.EventName(), events.HandlerFunc(func(context.Context, events.Event) error {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		statusAtEvent = repo.leads[lead.ID].Status
		return nil
	}))

	_, err := svc.Create(context.Background(), uuid.New(), transport.CreateFollowUpRequest{
		LeadID: lead.ID.String(), Status: "Warm", FollowUpDate: "1-3-24", Remarks: "call",
	})
	require.NoError(t, err)
	assert.Equal(t, "Warm", statusAtEvent)
}

func TestCreateUnknownLeadIsNotFound(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	_, err := svc.Create(context.Background(), uuid.New(), transport.CreateFollowUpRequest{
		LeadID: uuid.NewString(), Status: "Hot", FollowUpDate: "1-3-24", Remarks: "call",
	})
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "expected not found, got %v", err)
}

func TestCreateStatusFailureKeepsFollowUp(t *testing.T) {
	repo := newFakeRepo()
	lead := repo.addLead(false)
	repo.statusErr = errors.New("connection reset")
	svc, bus := newTestService(repo)
	rec := &recorder{}
	bus.Subscribe(events.FollowUpCreated{}.EventName(), rec)

	_, err := svc.Create(context.Background(), uuid.New(), transport.CreateFollowUpRequest{
		LeadID: lead.ID.String(), Status: "Hot", FollowUpDate: "1-3-24", Remarks: "call",
	})
	require.Error(t, err)
	_, typed := apperr.As(err)
	assert.False(t, typed, "expected untyped error, got %v", err)
	assert.Len(t, repo.followUps, 1)
	assert.Equal(t, []string{events.FollowUpCreated{}.EventName()}, rec.names, "persisted follow-up still invalidates")
}

func TestGetKeepsUnparsableDate(t *testing.T) {
	repo := newFakeRepo()
	lead := repo.addLead(false)
	f := repo.addFollowUp(lead.ID, "not-a-date", testNow)
	svc, _ := newTestService(repo)

	got, err := svc.Get(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, "not-a-date", got.FollowUpDate)
	assert.Equal(t, "not-a-date", got.NormalizedDate)

	global, err := svc.StatsGlobal(context.Background())
	require.NoError(t, err)
	assert.Empty(t, global)
}

func TestGetMissingIsNotFound(t *testing.T) {
	svc, _ := newTestService(newFakeRepo())
	_, err := svc.Get(context.Background(), uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "expected not found, got %v", err)
}

func TestListForEmployee(t *testing.T) {
	repo := newFakeRepo()
	user := uuid.New()
	mine := repo.addLead(true, user)
	theirs := repo.addLead(false, uuid.New())
	repo.addFollowUp(mine.ID, "1-3-24", testNow)
	repo.addFollowUp(theirs.ID, "1-3-24", testNow)
	svc, _ := newTestService(repo)

	got, err := svc.ListForEmployee(context.Background(), mine.ID, user)
	require.NoError(t, err)
	assert.Len(t, got, 1, "archived allocated lead is listed")

	got, err = svc.ListForEmployee(context.Background(), theirs.ID, user)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStatsForUserScenario(t *testing.T) {
	repo := newFakeRepo()
	user := uuid.New()
	lead := repo.addLead(false, user)
	repo.addFollowUp(lead.ID, "1-3-24", testNow.Add(-2*time.Hour))
	latest := repo.addFollowUp(lead.ID, "15-3-24", testNow.Add(-time.Hour))
	svc, _ := newTestService(repo)

	got, err := svc.StatsForUser(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-03-15", got[0].Date)
	require.Len(t, got[0].FollowUps, 1)
	assert.Equal(t, latest.ID, got[0].FollowUps[0].ID)
}

func TestStatsGlobalPicksLatestCreated(t *testing.T) {
	repo := newFakeRepo()
	lead := repo.addLead(false)
	repo.addFollowUp(lead.ID, "18-3-24", testNow.Add(-2*time.Hour))
	newest := repo.addFollowUp(lead.ID, "5-3-24", testNow.Add(-time.Hour))
	archived := repo.addLead(true)
	repo.addFollowUp(archived.ID, "5-3-24", testNow)
	upcoming := repo.addLead(false)
	repo.addFollowUp(upcoming.ID, "1-4-24", testNow)
	svc, _ := newTestService(repo)

	got, err := svc.StatsGlobal(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-03-05", got[0].Date)
	require.Len(t, got[0].FollowUps, 1)
	assert.Equal(t, newest.ID, got[0].FollowUps[0].ID)
}

func TestListByLeadKeepsStoreOrder(t *testing.T) {
	repo := newFakeRepo()
	lead := repo.addLead(false)
	first := repo.addFollowUp(lead.ID, "1-3-24", testNow.Add(-time.Hour))
	second := repo.addFollowUp(lead.ID, "someday", testNow)
	repo.addFollowUp(repo.addLead(false).ID, "1-3-24", testNow)
	svc, _ := newTestService(repo)

	got, err := svc.ListByLead(context.Background(), lead.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)
	assert.Equal(t, "2024-03-01", got[0].NormalizedDate)
	assert.Equal(t, "someday", got[1].NormalizedDate)
}

func TestStatsServedFromCache(t *testing.T) {
	repo := newFakeRepo()
	lead := repo.addLead(false)
	repo.addFollowUp(lead.ID, "1-3-24", testNow)
	svc, _ := newTestService(repo)
	svc.SetStatsCache(newMapCache())

	first, err := svc.StatsGlobal(context.Background())
	require.NoError(t, err)
	second, err := svc.StatsGlobal(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, repo.listAllHits)
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Date, second[0].Date)
}

func TestWarmStatsFillsEveryScope(t *testing.T) {
	repo := newFakeRepo()
	a, b := uuid.New(), uuid.New()
	repo.addFollowUp(repo.addLead(false, a).ID, "1-3-24", testNow)
	repo.addFollowUp(repo.addLead(false, b).ID, "2-3-24", testNow)
	svc, _ := newTestService(repo)
	svc.SetStatsCache(newMapCache())

	written, err := svc.WarmStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, written)

	got, err := svc.StatsForUser(context.Background(), a)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-03-01", got[0].Date)
	assert.Equal(t, 1, repo.listAllHits, "warmed report is served from cache")
}

func TestWarmStatsWithoutCacheIsNoop(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	written, err := svc.WarmStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, written)
	assert.Zero(t, repo.listAllHits)
}

func TestDeleteAndDeleteAll(t *testing.T) {
	repo := newFakeRepo()
	lead := repo.addLead(false)
	f := repo.addFollowUp(lead.ID, "1-3-24", testNow)
	repo.addFollowUp(lead.ID, "2-3-24", testNow)
	svc, bus := newTestService(repo)

	deleted, err := svc.Delete(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ID, deleted.ID)

	_, err = svc.Delete(context.Background(), f.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "expected not found on second delete, got %v", err)

	purged, err := svc.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged.DeletedCount)
	bus.Wait()

	purged, err = svc.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, purged.DeletedCount)
}
