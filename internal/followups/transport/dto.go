package transport

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs
type CreateFollowUpRequest struct {
	LeadID       string `json:"leadId" validate:"required,uuid"`
	Status       string `json:"status" validate:"required,notblank,max=100"`
	FollowUpDate string `json:"followUpDate" validate:"required,notblank,max=64"`
	Remarks      string `json:"remarks" validate:"required,notblank,max=2000"`
}

// Response DTOs
type ClientResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone string    `json:"phone"`
	// PhoneE164 is empty when Phone is not a valid number.
	PhoneE164 string `json:"phoneE164,omitempty"`
	Email     string `json:"email"`
}

type PropertyResponse struct {
	ID      uuid.UUID `json:"id"`
	Title   string    `json:"title"`
	Address string    `json:"address"`
}

type EmployeeResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type LeadResponse struct {
	ID          uuid.UUID          `json:"id"`
	Status      string             `json:"status"`
	IsArchived  bool               `json:"isArchived"`
	Client      *ClientResponse    `json:"client,omitempty"`
	Property    *PropertyResponse  `json:"property,omitempty"`
	AllocatedTo []EmployeeResponse `json:"allocatedTo,omitempty"`
}

// FollowUpResponse carries the stored date as submitted plus its canonical
// form, which falls back to the stored value when it cannot be parsed.
type FollowUpResponse struct {
	ID             uuid.UUID     `json:"id"`
	LeadID         uuid.UUID     `json:"leadId"`
	Lead           *LeadResponse `json:"lead,omitempty"`
	Status         string        `json:"status"`
	FollowUpDate   string        `json:"followUpDate"`
	NormalizedDate string        `json:"normalizedDate"`
	Remarks        string        `json:"remarks"`
	CreatedBy      *uuid.UUID    `json:"createdBy,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

type CreateFollowUpResponse struct {
	FollowUp FollowUpResponse `json:"followUp"`
	Lead     LeadResponse     `json:"lead"`
}

type StatsBucketResponse struct {
	Date      string             `json:"date"`
	FollowUps []FollowUpResponse `json:"followUps"`
}

type DeleteAllResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}
