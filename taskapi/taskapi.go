// Package taskapi is the gateway to the external task-tracking service.
//
// The remote service is the system of record for "is this pallet done";
// this package only issues thin authenticated REST calls against it and
// never caches task state. The one piece of local state is the injected
// LabelCache mapping label names to remote IDs.
package taskapi

import "context"

// Task is a remote task as returned by the task service. The service owns
// and mutates all of these fields.
type Task struct {
	// ID is the opaque identifier issued by the service.
	ID string `json:"id"`

	// Content is the task text (pallet description).
	Content string `json:"content"`

	// Priority ranges 1..4; larger numbers are more urgent.
	Priority int `json:"priority"`

	// Labels are the names of the labels attached to the task. One of
	// them is the commission label grouping pallets of a shipment.
	Labels []string `json:"labels"`

	// Closed reports whether the task has been resolved.
	Closed bool `json:"is_completed"`
}

// Label is a remote label definition.
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Gateway is the set of remote task operations the service depends on.
// *Client is the production implementation; WithTracing decorates any
// implementation with OpenTelemetry spans.
type Gateway interface {
	// CreateTask creates a task with the given labels. Unknown label
	// names are created on the remote service first.
	CreateTask(ctx context.Context, content string, labels []string, priority int) (*Task, error)

	// CloseTask marks a task resolved. The gateway does not deduplicate;
	// closing an already-closed task is the remote service's concern.
	CloseTask(ctx context.Context, taskID string) error

	// GetTask fetches a single task, used to recover its label set when
	// the scan URL did not carry one.
	GetTask(ctx context.Context, taskID string) (*Task, error)

	// ListOpenByLabel returns the currently open tasks carrying a label.
	ListOpenByLabel(ctx context.Context, label string) ([]Task, error)

	// ListOpenByProject returns all open tasks of the configured project.
	ListOpenByProject(ctx context.Context) ([]Task, error)

	// ListLabels returns all label definitions.
	ListLabels(ctx context.Context) ([]Label, error)
}
