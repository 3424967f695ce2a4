package stats

import (
	"github.com/google/uuid"

	"followup_backend/internal/followups/repository"
)

// OrderKey selects which field decides the latest follow-up of a lead.
type OrderKey int

const (
	// ByFollowUpDate compares canonical follow-up dates.
	ByFollowUpDate OrderKey = iota
	// ByCreatedAt compares creation timestamps.
	ByCreatedAt
)

func (k OrderKey) String() string {
	if k == ByCreatedAt {
		return "created_at"
	}
	return "follow_up_date"
}

// LatestPerLead keeps one follow-up per lead: the one with the greatest key.
// Ties go to the first one seen. Follow-ups without a lead are skipped.
// Dates must already be canonical when key is ByFollowUpDate.
// The result is ordered by the first appearance of each lead.
func LatestPerLead(followUps []repository.FollowUp, key OrderKey) []repository.FollowUp {
	index := make(map[uuid.UUID]int)
	out := make([]repository.FollowUp, 0)

	for _, f := range followUps {
		if f.Lead == nil {
			continue
		}
		i, seen := index[f.LeadID]
		if !seen {
			index[f.LeadID] = len(out)
			out = append(out, f)
			continue
		}
		if later(f, out[i], key) {
			out[i] = f
		}
	}
	return out
}

func later(a, b repository.FollowUp, key OrderKey) bool {
	if key == ByCreatedAt {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.FollowUpDate > b.FollowUpDate
}
