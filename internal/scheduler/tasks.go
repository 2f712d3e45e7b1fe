package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskRecalculateScores = "leads.recalculate_scores"

const TaskDistributeBatch = "distribution.distribute_batch"

// RecalculateScoresPayload selects the leads to rescore. Empty LeadIDs
// means every ACTIVE lead.
type RecalculateScoresPayload struct {
	LeadIDs []string `json:"leadIds,omitempty"`
}

// DistributeBatchPayload drives a scheduled distribution sweep over
// unassigned leads.
type DistributeBatchPayload struct {
	Rule         string `json:"rule"`
	BatchSize    int    `json:"batchSize"`
	MinLeadScore int    `json:"minLeadScore"`
}

func NewRecalculateScoresTask(payload RecalculateScoresPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRecalculateScores, data), nil
}

func ParseRecalculateScoresPayload(task *asynq.Task) (RecalculateScoresPayload, error) {
	var payload RecalculateScoresPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RecalculateScoresPayload{}, err
	}
	return payload, nil
}

func NewDistributeBatchTask(payload DistributeBatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDistributeBatch, data), nil
}

func ParseDistributeBatchPayload(task *asynq.Task) (DistributeBatchPayload, error) {
	var payload DistributeBatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DistributeBatchPayload{}, err
	}
	return payload, nil
}
