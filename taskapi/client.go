package taskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/warenwerk/palletkit/errors"
)

// Client implements Gateway against the task service's REST API.
type Client struct {
	baseURL   string
	token     string
	projectID string
	client    *http.Client
	labels    *LabelCache
}

// Config holds task service connection configuration.
type Config struct {
	// BaseURL of the REST API, without trailing slash.
	BaseURL string

	// Token is the bearer token for authentication.
	Token string

	// ProjectID scopes task creation and project-wide listings.
	ProjectID string

	// Timeout for individual HTTP calls.
	Timeout time.Duration
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout: 15 * time.Second,
	}
}

// NewClient creates a task service client. The label cache must be
// provided by the caller and may be shared with nothing else.
func NewClient(cfg Config, cache *LabelCache) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base_url is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("token is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("label cache is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		token:     cfg.Token,
		projectID: cfg.ProjectID,
		labels:    cache,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// createTaskRequest is the wire format for task creation.
type createTaskRequest struct {
	Content   string   `json:"content"`
	ProjectID string   `json:"project_id,omitempty"`
	Labels    []string `json:"labels,omitempty"`
	Priority  int      `json:"priority,omitempty"`
}

// createLabelRequest is the wire format for label creation.
type createLabelRequest struct {
	Name string `json:"name"`
}

// CreateTask creates a task with the given labels and priority.
func (c *Client) CreateTask(ctx context.Context, content string, labels []string, priority int) (*Task, error) {
	if content == "" {
		return nil, errors.InvalidInput("task content must not be empty")
	}

	// The service attaches labels by name but silently ignores unknown
	// ones on some API versions; create them up front through the cache.
	for _, name := range labels {
		if _, err := c.ensureLabel(ctx, name); err != nil {
			return nil, err
		}
	}

	body := createTaskRequest{
		Content:   content,
		ProjectID: c.projectID,
		Labels:    labels,
		Priority:  priority,
	}

	var task Task
	if err := c.do(ctx, http.MethodPost, "/tasks", body, &task); err != nil {
		return nil, errors.Wrap(err, "create task")
	}
	return &task, nil
}

// CloseTask marks a task resolved.
func (c *Client) CloseTask(ctx context.Context, taskID string) error {
	if taskID == "" {
		return errors.InvalidInput("task id must not be empty")
	}
	path := fmt.Sprintf("/tasks/%s/close", url.PathEscape(taskID))
	if err := c.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return errors.Wrap(err, "close task", errors.WithTaskID(taskID))
	}
	return nil
}

// GetTask fetches a single task.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	if taskID == "" {
		return nil, errors.InvalidInput("task id must not be empty")
	}
	var task Task
	path := fmt.Sprintf("/tasks/%s", url.PathEscape(taskID))
	if err := c.do(ctx, http.MethodGet, path, nil, &task); err != nil {
		return nil, errors.Wrap(err, "get task", errors.WithTaskID(taskID))
	}
	return &task, nil
}

// ListOpenByLabel returns the currently open tasks carrying a label.
func (c *Client) ListOpenByLabel(ctx context.Context, label string) ([]Task, error) {
	if label == "" {
		return nil, errors.InvalidInput("label must not be empty")
	}
	q := url.Values{"label": {label}}
	tasks, err := c.listTasks(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "list open tasks by label", errors.WithLabel(label))
	}
	return tasks, nil
}

// ListOpenByProject returns all open tasks of the configured project.
func (c *Client) ListOpenByProject(ctx context.Context) ([]Task, error) {
	q := url.Values{}
	if c.projectID != "" {
		q.Set("project_id", c.projectID)
	}
	tasks, err := c.listTasks(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "list open tasks by project")
	}
	return tasks, nil
}

func (c *Client) listTasks(ctx context.Context, q url.Values) ([]Task, error) {
	path := "/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var tasks []Task
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	// The endpoint only returns open tasks, but don't rely on it.
	open := tasks[:0]
	for _, t := range tasks {
		if !t.Closed {
			open = append(open, t)
		}
	}
	return open, nil
}

// ListLabels returns all label definitions.
func (c *Client) ListLabels(ctx context.Context) ([]Label, error) {
	var labels []Label
	if err := c.do(ctx, http.MethodGet, "/labels", nil, &labels); err != nil {
		return nil, errors.Wrap(err, "list labels")
	}
	return labels, nil
}

// ensureLabel resolves a label name to its remote ID, creating the label
// if the service does not know it yet.
func (c *Client) ensureLabel(ctx context.Context, name string) (string, error) {
	return c.labels.GetOrCreate(name, func() (string, error) {
		// Warm from the service first; the cache starts cold after restart.
		labels, err := c.ListLabels(ctx)
		if err != nil {
			return "", err
		}
		for _, l := range labels {
			if l.Name == name {
				return l.ID, nil
			}
		}

		var created Label
		if err := c.do(ctx, http.MethodPost, "/labels", createLabelRequest{Name: name}, &created); err != nil {
			return "", errors.Wrap(err, "create label", errors.WithLabel(name))
		}
		return created.ID, nil
	})
}

// do executes one authenticated API call and decodes the response into out
// (when out is non-nil). Non-2xx responses become structured errors.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Internal("encode request", errors.WithCause(err))
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Internal("build request", errors.WithCause(err))
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.New(errors.ErrCodeNetworkErr, "task service unreachable", errors.WithCause(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Internal("decode response", errors.WithCause(err))
	}
	return nil
}

// statusError converts a non-2xx response into a tagged error value.
func (c *Client) statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := fmt.Sprintf("task service returned %d", resp.StatusCode)

	opt := errors.WithMetadata("body", string(snippet))
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.Unauthorized(msg, opt)
	case resp.StatusCode == http.StatusNotFound:
		return errors.NotFound(msg, opt)
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.RateLimited(msg, opt)
	case resp.StatusCode >= 500:
		return errors.Unavailable(msg, opt)
	default:
		return errors.InvalidInput(msg, opt)
	}
}
