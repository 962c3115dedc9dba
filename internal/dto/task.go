package dto

import (
	"bytes"
	"encoding/json"
	"time"
)

type TaskResponse struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Completed   bool       `json:"completed" yaml:"completed"`
	Priority    string     `json:"priority" yaml:"priority"`
	DueDate     *time.Time `json:"dueDate" yaml:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" yaml:"updatedAt"`
}

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
}

// UpdateTaskRequest is a partial update: nil fields are left untouched.
type UpdateTaskRequest struct {
	Title       *string      `json:"title,omitempty"`
	Description *string      `json:"description,omitempty"`
	Completed   *bool        `json:"completed,omitempty"`
	Priority    *string      `json:"priority,omitempty"`
	DueDate     OptionalDate `json:"dueDate"`
}

// MarshalJSON omits dueDate unless it was set.
func (r UpdateTaskRequest) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, 5)
	if r.Title != nil {
		m["title"] = *r.Title
	}
	if r.Description != nil {
		m["description"] = *r.Description
	}
	if r.Completed != nil {
		m["completed"] = *r.Completed
	}
	if r.Priority != nil {
		m["priority"] = *r.Priority
	}
	if r.DueDate.Set {
		m["dueDate"] = r.DueDate
	}
	return json.Marshal(m)
}

// IsEmpty reports whether the request changes nothing.
func (r UpdateTaskRequest) IsEmpty() bool {
	return r.Title == nil && r.Description == nil && r.Completed == nil &&
		r.Priority == nil && !r.DueDate.Set
}

// OptionalDate distinguishes an absent dueDate from an explicit null.
// Value is empty when the date is cleared.
type OptionalDate struct {
	Set   bool
	Value string
}

func (d OptionalDate) MarshalJSON() ([]byte, error) {
	if d.Value == "" {
		return []byte("null"), nil
	}
	return json.Marshal(d.Value)
}

func (d *OptionalDate) UnmarshalJSON(b []byte) error {
	d.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		d.Value = ""
		return nil
	}
	return json.Unmarshal(b, &d.Value)
}
