package client

import (
	"context"
	"net/http"
	"time"

	"github.com/taskdeck/taskdeck/internal/task"
)

type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Tag         string     `json:"tag,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Users       []string   `json:"users"`
}

type UpdateTaskRequest struct {
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Tag         string     `json:"tag,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Status      string     `json:"status,omitempty"`
}

func (c *Client) ListTasks(ctx context.Context) ([]*task.Enriched, error) {
	var tasks []*task.Enriched
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*task.Wire, error) {
	var created task.Wire
	if err := c.do(ctx, http.MethodPost, "/api/tasks", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, req UpdateTaskRequest) (*task.Wire, error) {
	var resp struct {
		Task task.Wire `json:"task"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+id, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+id, nil, nil)
}
