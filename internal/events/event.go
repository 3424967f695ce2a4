// Package events defines the domain events exchanged between modules.
// Bus infrastructure lives in platform/events.
package events

import (
	"followup_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Follow-up Domain Events
// =============================================================================

// FollowUpCreated is published after a follow-up is persisted.
type FollowUpCreated struct {
	BaseEvent
	FollowUpID   uuid.UUID `json:"followUpId"`
	LeadID       uuid.UUID `json:"leadId"`
	Status       string    `json:"status"`
	FollowUpDate string    `json:"followUpDate"`
	CreatedBy    uuid.UUID `json:"createdBy"`
}

func (e FollowUpCreated) EventName() string { return "followups.followup.created" }

// FollowUpDeleted is published after a single follow-up is removed.
type FollowUpDeleted struct {
	BaseEvent
	FollowUpID uuid.UUID `json:"followUpId"`
	LeadID     uuid.UUID `json:"leadId"`
}

func (e FollowUpDeleted) EventName() string { return "followups.followup.deleted" }

// FollowUpsPurged is published after the whole follow-up collection is wiped.
type FollowUpsPurged struct {
	BaseEvent
	Deleted int64 `json:"deleted"`
}

func (e FollowUpsPurged) EventName() string { return "followups.collection.purged" }

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadStatusUpdated is published when a follow-up overwrites its lead's status.
type LeadStatusUpdated struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	Status     string    `json:"status"`
	FollowUpID uuid.UUID `json:"followUpId"`
}

func (e LeadStatusUpdated) EventName() string { return "leads.lead.status_updated" }
