// Package stats computes the latest-follow-up-per-lead reports.
package stats

import (
	"github.com/google/uuid"

	"followup_backend/internal/followups/repository"
)

// VisibleTo reports whether userID may see f in its statistics.
// With requireActive set, follow-ups on archived or missing leads are hidden.
func VisibleTo(f repository.FollowUp, userID uuid.UUID, requireActive bool) bool {
	if f.Lead == nil {
		return false
	}
	if requireActive && f.Lead.IsArchived {
		return false
	}
	return f.Lead.IsAllocatedTo(userID)
}
