package reconcile

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskLeadReconcile = "registration.lead.reconcile"

type LeadReconcilePayload struct {
	LeadID        string `json:"leadId"`
	AccountID     string `json:"accountId"`
	OpportunityID string `json:"opportunityId"`
}

func NewLeadReconcileTask(payload LeadReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadReconcile, data), nil
}

func ParseLeadReconcilePayload(task *asynq.Task) (LeadReconcilePayload, error) {
	var payload LeadReconcilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadReconcilePayload{}, err
	}
	return payload, nil
}
