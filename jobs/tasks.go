// Package jobs wires the Asynq background worker and the RBAC maintenance
// tasks it runs.
package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRBACIntegrityScan checks the RBAC stores for referential drift.
	TaskRBACIntegrityScan = "rbac:integrity_scan"
)

// IntegrityScanPayload configures a single integrity scan run.
type IntegrityScanPayload struct {
	// RequestedBy records who or what scheduled the scan.
	RequestedBy string `json:"requested_by"`
}

// NewIntegrityScanTask constructs an Asynq task for the integrity scan.
func NewIntegrityScanTask(payload IntegrityScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRBACIntegrityScan, data), nil
}

// IntegrityScanHandler adapts the scanner to an Asynq handler func.
func IntegrityScanHandler(scanner *IntegrityScanner) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload IntegrityScanPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		return scanner.Run(ctx, payload)
	}
}
