package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskSupplierRecalculate = "suppliers.recalculate_schedules"

type SupplierRecalculatePayload struct {
	SupplierID          string `json:"supplierId"`
	ProductionTimeWeeks int    `json:"productionTimeWeeks"`
	ShippingTimeWeeks   int    `json:"shippingTimeWeeks"`
	HasAdvancePayment   bool   `json:"hasAdvancePayment"`
}

func NewSupplierRecalculateTask(payload SupplierRecalculatePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSupplierRecalculate, data), nil
}

func ParseSupplierRecalculatePayload(task *asynq.Task) (SupplierRecalculatePayload, error) {
	var payload SupplierRecalculatePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SupplierRecalculatePayload{}, err
	}
	return payload, nil
}
