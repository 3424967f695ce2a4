package repository

import (
	"github.com/google/uuid"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFollowUp(row rowScanner) (FollowUp, error) {
	var f FollowUp
	var createdBy uuid.UUID
	if err := row.Scan(
		&f.ID,
		&f.LeadID,
		&f.Status,
		&f.FollowUpDate,
		&f.Remarks,
		&createdBy,
		&f.CreatedAt,
		&f.UpdatedAt,
	); err != nil {
		return FollowUp{}, err
	}
	f.CreatedBy = optionalUUID(createdBy)
	return f, nil
}

func scanJoinedFollowUp(row rowScanner) (FollowUp, error) {
	var (
		f           FollowUp
		createdBy   uuid.UUID
		hasLead     bool
		lead        Lead
		hasClient   bool
		clientID    string
		client      Client
		hasProperty bool
		propertyID  string
		property    Property
	)
	if err := row.Scan(
		&f.ID,
		&f.LeadID,
		&f.Status,
		&f.FollowUpDate,
		&f.Remarks,
		&createdBy,
		&f.CreatedAt,
		&f.UpdatedAt,
		&hasLead,
		&lead.Status,
		&lead.IsArchived,
		&hasClient,
		&clientID,
		&client.Name,
		&client.Phone,
		&client.Email,
		&hasProperty,
		&propertyID,
		&property.Title,
		&property.Address,
	); err != nil {
		return FollowUp{}, err
	}
	f.CreatedBy = optionalUUID(createdBy)

	if !hasLead {
		return f, nil
	}
	lead.ID = f.LeadID
	if hasClient {
		client.ID, _ = uuid.Parse(clientID)
		lead.Client = &client
	}
	if hasProperty {
		property.ID, _ = uuid.Parse(propertyID)
		lead.Property = &property
	}
	f.Lead = &lead
	return f, nil
}

func optionalUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
