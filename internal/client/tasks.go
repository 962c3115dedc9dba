package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"flowtasks/internal/dto"
)

func taskPath(id string) string {
	return "/tasks/" + url.PathEscape(id)
}

// ListTasks returns the caller's tasks, newest first.
func (c *Client) ListTasks(ctx context.Context) ([]dto.TaskResponse, error) {
	var out []dto.TaskResponse
	if err := c.do(ctx, http.MethodGet, "/tasks", true, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (dto.TaskResponse, error) {
	var out dto.TaskResponse
	err := c.do(ctx, http.MethodGet, taskPath(id), true, nil, &out)
	return out, err
}

func (c *Client) CreateTask(ctx context.Context, req dto.CreateTaskRequest) (dto.TaskResponse, error) {
	var out dto.TaskResponse
	err := c.do(ctx, http.MethodPost, "/tasks", true, req, &out)
	return out, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, req dto.UpdateTaskRequest) (dto.TaskResponse, error) {
	var out dto.TaskResponse
	err := c.do(ctx, http.MethodPut, taskPath(id), true, req, &out)
	return out, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), true, nil, nil)
}

// ExportTasks streams the caller's tasks as "csv" or "xlsx" into w.
func (c *Client) ExportTasks(ctx context.Context, format string, w io.Writer) (int64, error) {
	switch format {
	case "csv", "xlsx":
	default:
		return 0, &Error{Kind: KindValidation, Message: fmt.Sprintf("unsupported export format %q", format)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tasks/export/"+format, nil)
	if err != nil {
		return 0, &Error{Kind: KindNetwork, Err: err}
	}
	token := c.currentToken()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var env envelope
		_ = json.NewDecoder(resp.Body).Decode(&env)
		apiErr := &Error{Kind: KindForStatus(resp.StatusCode), Status: resp.StatusCode, Message: env.Message}
		if apiErr.Kind == KindAuth {
			c.unauthorized(token)
		}
		return 0, apiErr
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, &Error{Kind: KindNetwork, Status: resp.StatusCode, Err: err}
	}
	return n, nil
}
