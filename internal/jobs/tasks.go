// Package jobs schedules and processes background tasks.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// TaskTypeSpinReset restores every account's spin allowance.
	TaskTypeSpinReset = "spins:reset"
)

const (
	QueueDefault = "default"
	QueueLow     = "low"
)

// SpinResetPayload carries the allowance to restore.
type SpinResetPayload struct {
	SpinLimit int `json:"spin_limit"`
}

// NewSpinResetTask builds the scheduled spin-allowance reset task.
func NewSpinResetTask(spinLimit int) (*asynq.Task, error) {
	payload, err := json.Marshal(SpinResetPayload{SpinLimit: spinLimit})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeSpinReset, payload, asynq.Queue(QueueDefault)), nil
}
