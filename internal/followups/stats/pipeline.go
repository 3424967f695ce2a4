package stats

import (
	"github.com/google/uuid"

	"followup_backend/internal/followups/domain"
	"followup_backend/internal/followups/repository"
)

// Dropped counts follow-ups left out of a report, per reason.
type Dropped struct {
	Unparsable int
	Future     int
	Hidden     int
}

// Total returns the number of follow-ups dropped for any reason.
func (d Dropped) Total() int {
	return d.Unparsable + d.Future + d.Hidden
}

// Result is a report with the accounting of what was left out of it.
type Result struct {
	Buckets []Bucket
	Dropped Dropped
}

// Pipeline runs filtering, normalization, reduction and grouping.
// Input slices are never modified; reported follow-ups are copies carrying
// their canonical date.
type Pipeline struct {
	dates *domain.DateNormalizer
}

// NewPipeline creates a Pipeline resolving dates with dates.
func NewPipeline(dates *domain.DateNormalizer) *Pipeline {
	return &Pipeline{dates: dates}
}

// ForUser reports the latest follow-up by date of each active lead allocated to userID.
func (p *Pipeline) ForUser(followUps []repository.FollowUp, userID uuid.UUID) Result {
	var dropped Dropped
	visible := make([]repository.FollowUp, 0, len(followUps))
	for _, f := range followUps {
		if !VisibleTo(f, userID, true) {
			dropped.Hidden++
			continue
		}
		visible = append(visible, f)
	}

	today := p.dates.Today()
	dated := p.normalize(visible, today, &dropped)
	latest := LatestPerLead(dated, ByFollowUpDate)
	return Result{Buckets: GroupByDate(latest), Dropped: dropped}
}

// Global reports the most recently created follow-up of every active lead.
func (p *Pipeline) Global(followUps []repository.FollowUp) Result {
	var dropped Dropped
	active := make([]repository.FollowUp, 0, len(followUps))
	for _, f := range followUps {
		if f.Lead == nil || f.Lead.IsArchived {
			dropped.Hidden++
			continue
		}
		active = append(active, f)
	}

	today := p.dates.Today()
	dated := p.normalize(active, today, &dropped)
	latest := LatestPerLead(dated, ByCreatedAt)

	reported := latest[:0]
	for _, f := range latest {
		if f.FollowUpDate > today {
			dropped.Future++
			continue
		}
		reported = append(reported, f)
	}
	return Result{Buckets: GroupByDate(reported), Dropped: dropped}
}

func (p *Pipeline) normalize(followUps []repository.FollowUp, today string, dropped *Dropped) []repository.FollowUp {
	out := make([]repository.FollowUp, 0, len(followUps))
	for _, f := range followUps {
		date := p.dates.Normalize(f.FollowUpDate)
		if !date.OK {
			dropped.Unparsable++
			continue
		}
		if date.Date > today {
			dropped.Future++
			continue
		}
		f.FollowUpDate = date.Date
		out = append(out, f)
	}
	return out
}
