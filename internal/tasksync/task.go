package tasksync

import (
	"sort"
	"strings"
	"time"

	"flowtasks/internal/dto"
	"flowtasks/internal/models"
	"flowtasks/internal/util"
)

const tempPrefix = "temp-"

// Task is the client's view of a task. ID is a temporary "temp-" identifier
// until the server confirms the create.
type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Completed   bool       `json:"completed" yaml:"completed"`
	Priority    string     `json:"priority" yaml:"priority"`
	DueDate     *time.Time `json:"dueDate" yaml:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" yaml:"updatedAt"`
}

// Pending reports whether the task still carries a temporary identifier.
func (t Task) Pending() bool { return IsTemp(t.ID) }

func IsTemp(id string) bool { return strings.HasPrefix(id, tempPrefix) }

func fromDTO(r dto.TaskResponse) Task {
	return Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		Priority:    r.Priority,
		DueDate:     r.DueDate,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// Draft is the input to Create. Priority defaults to Medium.
type Draft struct {
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
}

func (d Draft) request() dto.CreateTaskRequest {
	req := dto.CreateTaskRequest{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Priority:    d.Priority,
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if d.DueDate != nil {
		req.DueDate = d.DueDate.UTC().Format(time.RFC3339)
	}
	return req
}

// Patch is a partial update; nil fields are left alone.
// ClearDueDate removes the due date and wins over DueDate.
type Patch struct {
	Title        *string
	Description  *string
	Completed    *bool
	Priority     *string
	DueDate      *time.Time
	ClearDueDate bool
}

const badPriority = "Priority must be Low, Medium or High"

// validate applies the server's field rules to the fields p sets.
func (p Patch) validate() error {
	if p.Title != nil {
		if err := util.ValidateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if err := util.ValidateDescription(*p.Description); err != nil {
			return err
		}
	}
	if p.Priority != nil && !models.ValidPriority(*p.Priority) {
		return util.ValidationError(badPriority)
	}
	return nil
}

func (p Patch) apply(t *Task) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	switch {
	case p.ClearDueDate:
		t.DueDate = nil
	case p.DueDate != nil:
		d := *p.DueDate
		t.DueDate = &d
	}
}

func (p Patch) request() dto.UpdateTaskRequest {
	req := dto.UpdateTaskRequest{
		Title:       p.Title,
		Description: p.Description,
		Completed:   p.Completed,
		Priority:    p.Priority,
	}
	switch {
	case p.ClearDueDate:
		req.DueDate = dto.OptionalDate{Set: true}
	case p.DueDate != nil:
		req.DueDate = dto.OptionalDate{Set: true, Value: p.DueDate.UTC().Format(time.RFC3339)}
	}
	return req
}

func cloneTasks(in []Task) []Task {
	return append([]Task(nil), in...)
}

// sortNewestFirst keeps equal timestamps in their current relative order.
func sortNewestFirst(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}

func indexOf(tasks []Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Filter selects a subset of the collection.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

func ParseFilter(s string) (Filter, bool) {
	switch f := Filter(strings.ToLower(s)); f {
	case "", FilterAll:
		return FilterAll, true
	case FilterActive, FilterCompleted:
		return f, true
	}
	return "", false
}

func (f Filter) match(t Task) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// Stats counts the collection by completion.
type Stats struct {
	Total     int `json:"total" yaml:"total"`
	Active    int `json:"active" yaml:"active"`
	Completed int `json:"completed" yaml:"completed"`
}
