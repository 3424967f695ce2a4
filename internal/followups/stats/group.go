package stats

import (
	"sort"

	"followup_backend/internal/followups/repository"
)

// Bucket is every reported follow-up sharing one canonical date.
type Bucket struct {
	Date      string
	FollowUps []repository.FollowUp
}

// GroupByDate buckets follow-ups by canonical date, oldest date first.
// Input order is preserved within a bucket.
func GroupByDate(followUps []repository.FollowUp) []Bucket {
	sorted := append([]repository.FollowUp(nil), followUps...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FollowUpDate < sorted[j].FollowUpDate
	})

	buckets := make([]Bucket, 0)
	for _, f := range sorted {
		last := len(buckets) - 1
		if last >= 0 && buckets[last].Date == f.FollowUpDate {
			buckets[last].FollowUps = append(buckets[last].FollowUps, f)
			continue
		}
		buckets = append(buckets, Bucket{Date: f.FollowUpDate, FollowUps: []repository.FollowUp{f}})
	}
	return buckets
}
