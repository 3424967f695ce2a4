package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskStatsWarm = "followups.stats.warm"

const (
	WarmReasonInvalidated = "invalidated"
	WarmReasonDaily       = "daily"
)

type StatsWarmPayload struct {
	Reason string `json:"reason"`
}

// NewStatsWarmTask builds a stats warm task carrying payload.
func NewStatsWarmTask(payload StatsWarmPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStatsWarm, data), nil
}

func ParseStatsWarmPayload(task *asynq.Task) (StatsWarmPayload, error) {
	var payload StatsWarmPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return StatsWarmPayload{}, err
	}
	return payload, nil
}
