package repository

import (
	"time"

	"github.com/google/uuid"
)

// FollowUp is one logged contact attempt on a lead.
// Lead is nil when the join found no lead or the join options filtered it out.
type FollowUp struct {
	ID           uuid.UUID
	LeadID       uuid.UUID
	Lead         *Lead
	Status       string
	FollowUpDate string
	Remarks      string
	CreatedBy    *uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Lead is the slice of the lead record the follow-up feature reads.
type Lead struct {
	ID          uuid.UUID
	Status      string
	IsArchived  bool
	Client      *Client
	Property    *Property
	AllocatedTo []Employee
}

// IsAllocatedTo reports whether userID is among the lead's allocated employees.
func (l *Lead) IsAllocatedTo(userID uuid.UUID) bool {
	if l == nil {
		return false
	}
	for _, emp := range l.AllocatedTo {
		if emp.ID == userID {
			return true
		}
	}
	return false
}

type Client struct {
	ID    uuid.UUID
	Name  string
	Phone string
	Email string
}

type Property struct {
	ID      uuid.UUID
	Title   string
	Address string
}

type Employee struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// JoinOptions controls how follow-ups are joined with their leads.
type JoinOptions struct {
	// ExcludeArchivedLeads leaves Lead nil for follow-ups on archived leads.
	ExcludeArchivedLeads bool
	// WithAllocations loads the allocated employees of each joined lead.
	WithAllocations bool
}

type CreateFollowUpParams struct {
	LeadID       uuid.UUID
	Status       string
	FollowUpDate string
	Remarks      string
	CreatedBy    *uuid.UUID
}
