package service

import (
	"followup_backend/internal/followups/repository"
	"followup_backend/internal/followups/transport"
	"followup_backend/platform/phone"
)

func (s *Service) toFollowUpResponse(f repository.FollowUp) transport.FollowUpResponse {
	return transport.FollowUpResponse{
		ID:             f.ID,
		LeadID:         f.LeadID,
		Lead:           s.toLeadResponse(f.Lead),
		Status:         f.Status,
		FollowUpDate:   f.FollowUpDate,
		NormalizedDate: s.dates.Normalize(f.FollowUpDate).OrRaw(f.FollowUpDate),
		Remarks:        f.Remarks,
		CreatedBy:      f.CreatedBy,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

func (s *Service) toFollowUpResponses(items []repository.FollowUp) []transport.FollowUpResponse {
	out := make([]transport.FollowUpResponse, len(items))
	for i, item := range items {
		out[i] = s.toFollowUpResponse(item)
	}
	return out
}

func (s *Service) toLeadResponse(l *repository.Lead) *transport.LeadResponse {
	if l == nil {
		return nil
	}
	resp := &transport.LeadResponse{
		ID:         l.ID,
		Status:     l.Status,
		IsArchived: l.IsArchived,
	}
	if l.Client != nil {
		resp.Client = &transport.ClientResponse{
			ID:        l.Client.ID,
			Name:      l.Client.Name,
			Phone:     l.Client.Phone,
			PhoneE164: phone.NormalizeE164(l.Client.Phone, s.phoneRegion),
			Email:     l.Client.Email,
		}
	}
	if l.Property != nil {
		resp.Property = &transport.PropertyResponse{
			ID:      l.Property.ID,
			Title:   l.Property.Title,
			Address: l.Property.Address,
		}
	}
	for _, emp := range l.AllocatedTo {
		resp.AllocatedTo = append(resp.AllocatedTo, transport.EmployeeResponse{
			ID:    emp.ID,
			Name:  emp.Name,
			Email: emp.Email,
		})
	}
	return resp
}
