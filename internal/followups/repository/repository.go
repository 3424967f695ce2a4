package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound     = errors.New("follow-up not found")
	ErrLeadNotFound = errors.New("lead not found")
)

const pgForeignKeyViolation = "23503"

// DB is the subset of *pgxpool.Pool the repository uses.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Repository provides follow-up storage on PostgreSQL.
type Repository struct {
	db DB
}

// New creates a Repository over a pool or transaction.
func New(db DB) *Repository {
	return &Repository{db: db}
}

const followUpReturning = `id, lead_id, status, follow_up_date, remarks,
	COALESCE(created_by, '00000000-0000-0000-0000-000000000000'::uuid), created_at, updated_at`

const followUpJoinedColumns = `f.id, f.lead_id, f.status, f.follow_up_date, f.remarks,
	COALESCE(f.created_by, '00000000-0000-0000-0000-000000000000'::uuid), f.created_at, f.updated_at,
	l.id IS NOT NULL, COALESCE(l.status, ''), COALESCE(l.is_archived, false),
	c.id IS NOT NULL, COALESCE(c.id::text, ''), COALESCE(c.name, ''), COALESCE(c.phone, ''), COALESCE(c.email, ''),
	p.id IS NOT NULL, COALESCE(p.id::text, ''), COALESCE(p.title, ''), COALESCE(p.address, '')`

const followUpJoin = `
	FROM follow_ups f
	LEFT JOIN leads l ON l.id = f.lead_id AND ($1::boolean = false OR l.is_archived = false)
	LEFT JOIN clients c ON c.id = l.client_id
	LEFT JOIN properties p ON p.id = l.property_id`

const getFollowUpQuery = `SELECT ` + followUpJoinedColumns + followUpJoin + `
	WHERE f.id = $2`

const listFollowUpsByLeadQuery = `SELECT ` + followUpJoinedColumns + followUpJoin + `
	WHERE f.lead_id = $2
	ORDER BY f.created_at ASC, f.id ASC`

const listFollowUpsQuery = `SELECT ` + followUpJoinedColumns + followUpJoin + `
	ORDER BY f.created_at ASC, f.id ASC`

const createFollowUpQuery = `
	INSERT INTO follow_ups (lead_id, status, follow_up_date, remarks, created_by)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING ` + followUpReturning

const deleteFollowUpQuery = `DELETE FROM follow_ups WHERE id = $1 RETURNING ` + followUpReturning

const deleteAllFollowUpsQuery = `DELETE FROM follow_ups`

const updateLeadStatusQuery = `
	UPDATE leads SET status = $2, updated_at = now()
	WHERE id = $1
	RETURNING id, status, is_archived`

const listAllocationsQuery = `
	SELECT la.lead_id, u.id, u.name, u.email
	FROM lead_allocations la
	JOIN users u ON u.id = la.user_id
	WHERE la.lead_id = ANY($1)
	ORDER BY u.name ASC, u.id ASC`

const listAllocatedUsersQuery = `SELECT DISTINCT user_id FROM lead_allocations ORDER BY user_id`

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID, opts JoinOptions) (FollowUp, error) {
	followUp, err := scanJoinedFollowUp(r.db.QueryRow(ctx, getFollowUpQuery, opts.ExcludeArchivedLeads, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return FollowUp{}, ErrNotFound
	}
	if err != nil {
		return FollowUp{}, err
	}

	if opts.WithAllocations {
		items := []FollowUp{followUp}
		if err := r.attachAllocations(ctx, items); err != nil {
			return FollowUp{}, err
		}
		followUp = items[0]
	}
	return followUp, nil
}

func (r *Repository) ListByLead(ctx context.Context, leadID uuid.UUID, opts JoinOptions) ([]FollowUp, error) {
	return r.list(ctx, opts, listFollowUpsByLeadQuery, opts.ExcludeArchivedLeads, leadID)
}

// ListAll returns every follow-up, oldest first, joined per opts.
func (r *Repository) ListAll(ctx context.Context, opts JoinOptions) ([]FollowUp, error) {
	return r.list(ctx, opts, listFollowUpsQuery, opts.ExcludeArchivedLeads)
}

func (r *Repository) list(ctx context.Context, opts JoinOptions, query string, args ...any) ([]FollowUp, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]FollowUp, 0)
	for rows.Next() {
		followUp, err := scanJoinedFollowUp(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, followUp)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	if opts.WithAllocations {
		if err := r.attachAllocations(ctx, items); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (r *Repository) Create(ctx context.Context, params CreateFollowUpParams) (FollowUp, error) {
	followUp, err := scanFollowUp(r.db.QueryRow(ctx, createFollowUpQuery,
		params.LeadID, params.Status, params.FollowUpDate, params.Remarks, params.CreatedBy,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return FollowUp{}, ErrLeadNotFound
		}
		return FollowUp{}, err
	}
	return followUp, nil
}

// Delete removes one follow-up and returns it as it was.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (FollowUp, error) {
	followUp, err := scanFollowUp(r.db.QueryRow(ctx, deleteFollowUpQuery, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return FollowUp{}, ErrNotFound
	}
	return followUp, err
}

// DeleteAll wipes the collection and returns the number of removed rows.
func (r *Repository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, deleteAllFollowUpsQuery)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) UpdateLeadStatus(ctx context.Context, leadID uuid.UUID, status string) (Lead, error) {
	var lead Lead
	err := r.db.QueryRow(ctx, updateLeadStatusQuery, leadID, status).Scan(&lead.ID, &lead.Status, &lead.IsArchived)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrLeadNotFound
	}
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// ListAllocatedUserIDs returns every user allocated to at least one lead.
func (r *Repository) ListAllocatedUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, listAllocatedUsersQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return ids, nil
}

func (r *Repository) attachAllocations(ctx context.Context, items []FollowUp) error {
	seen := make(map[uuid.UUID]struct{})
	leadIDs := make([]uuid.UUID, 0)
	for _, item := range items {
		if item.Lead == nil {
			continue
		}
		if _, ok := seen[item.Lead.ID]; ok {
			continue
		}
		seen[item.Lead.ID] = struct{}{}
		leadIDs = append(leadIDs, item.Lead.ID)
	}
	if len(leadIDs) == 0 {
		return nil
	}

	rows, err := r.db.Query(ctx, listAllocationsQuery, leadIDs)
	if err != nil {
		return err
	}
	defer rows.Close()

	byLead := make(map[uuid.UUID][]Employee, len(leadIDs))
	for rows.Next() {
		var leadID uuid.UUID
		var emp Employee
		if err := rows.Scan(&leadID, &emp.ID, &emp.Name, &emp.Email); err != nil {
			return err
		}
		byLead[leadID] = append(byLead[leadID], emp)
	}
	if rows.Err() != nil {
		return rows.Err()
	}

	// Leads are shared between follow-ups of the same lead, so each gets its own copy.
	for i := range items {
		if items[i].Lead == nil {
			continue
		}
		lead := *items[i].Lead
		lead.AllocatedTo = append([]Employee(nil), byLead[lead.ID]...)
		items[i].Lead = &lead
	}
	return nil
}
