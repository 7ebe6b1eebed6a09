package gcp

import (
	"context"
	"encoding/json"
	"fmt"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
)

// WorkflowTrigger starts executions of one Cloud Workflow.
type WorkflowTrigger struct {
	client *executions.Client
	parent string
}

// NewWorkflowTrigger creates an executions client for the given workflow.
func NewWorkflowTrigger(ctx context.Context, projectID, location, workflowID string) (*WorkflowTrigger, error) {
	client, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}
	return &WorkflowTrigger{client: client, parent: WorkflowName(projectID, location, workflowID)}, nil
}

// WorkflowName is the fully qualified workflow resource name.
func WorkflowName(projectID, location, workflowID string) string {
	return fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID)
}

// Trigger starts an execution with payload as its argument and returns the execution name.
func (w *WorkflowTrigger) Trigger(ctx context.Context, payload map[string]interface{}) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: w.parent,
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	}
	exec, err := w.client.CreateExecution(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	return exec.GetName(), nil
}

// Close releases the underlying client.
func (w *WorkflowTrigger) Close() error {
	return w.client.Close()
}
