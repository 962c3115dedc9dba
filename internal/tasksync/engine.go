// Package tasksync keeps a local copy of the user's tasks in step with the
// server, applying changes optimistically and rolling them back when the
// server refuses them.
package tasksync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"flowtasks/internal/client"
	"flowtasks/internal/dto"
	"flowtasks/internal/models"
	"flowtasks/internal/util"

	"github.com/google/uuid"
)

const (
	fetchFailed  = "Failed to fetch tasks"
	createFailed = "Failed to create task"
	updateFailed = "Failed to update task"
	deleteFailed = "Failed to delete task"

	taskNotFound = "Task not found"
	taskPending  = "Task is still being saved"

	historyLimit = 100
)

// TaskAPI is the part of the transport client the engine needs.
type TaskAPI interface {
	ListTasks(ctx context.Context) ([]dto.TaskResponse, error)
	CreateTask(ctx context.Context, req dto.CreateTaskRequest) (dto.TaskResponse, error)
	UpdateTask(ctx context.Context, id string, req dto.UpdateTaskRequest) (dto.TaskResponse, error)
	DeleteTask(ctx context.Context, id string) error
}

// Result is returned by every operation. Kind is set on failure.
type Result struct {
	Success bool
	Message string
	Task    *Task
	Kind    client.Kind
}

func failure(kind client.Kind, msg string) Result {
	return Result{Kind: kind, Message: msg}
}

// Engine owns the local task collection of one signed-in user.
type Engine struct {
	api       TaskAPI
	log       *slog.Logger
	now       func() time.Time
	newTempID func() string

	mu      sync.Mutex
	tasks   []Task
	loading bool
	err     string
	seq     uint64
	history []Mutation
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for failed syncs.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithClock sets the source of createdAt for optimistic creates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithTempIDs replaces the temporary identifier generator.
func WithTempIDs(gen func() string) Option {
	return func(e *Engine) { e.newTempID = gen }
}

// New returns an empty engine backed by api.
func New(api TaskAPI, opts ...Option) *Engine {
	e := &Engine{
		api:       api,
		log:       slog.Default(),
		now:       time.Now,
		newTempID: func() string { return tempPrefix + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reload replaces the collection with the server's list. On failure the
// current collection is kept and Err reports the message.
func (e *Engine) Reload(ctx context.Context) Result {
	e.mu.Lock()
	e.loading = true
	e.err = ""
	e.mu.Unlock()

	list, err := e.api.ListTasks(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loading = false
	if err != nil {
		e.err = client.MessageOr(err, fetchFailed)
		e.logFailure("reload", err)
		return failure(client.KindOf(err), e.err)
	}
	tasks := make([]Task, 0, len(list))
	for _, r := range list {
		tasks = append(tasks, fromDTO(r))
	}
	e.tasks = tasks
	return Result{Success: true}
}

// Create inserts a pending task at the front and replaces it with the
// server's task once confirmed.
func (e *Engine) Create(ctx context.Context, d Draft) Result {
	req := d.request()
	if err := util.ValidateTitle(req.Title); err != nil {
		return failure(client.KindValidation, err.Error())
	}
	if err := util.ValidateDescription(req.Description); err != nil {
		return failure(client.KindValidation, err.Error())
	}
	if !models.ValidPriority(req.Priority) {
		return failure(client.KindValidation, badPriority)
	}

	now := e.now()
	temp := Task{
		ID:          e.newTempID(),
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if d.DueDate != nil {
		due := *d.DueDate
		temp.DueDate = &due
	}

	op := createOp{tempID: temp.ID}
	e.mu.Lock()
	e.tasks = append([]Task{temp}, e.tasks...)
	seq := e.record(op, "", temp.ID)
	e.mu.Unlock()

	resp, err := e.api.CreateTask(ctx, req)
	if err != nil {
		e.settle(seq, op, nil, err)
		return failure(client.KindOf(err), client.MessageOr(err, createFailed))
	}
	server := fromDTO(resp)
	e.settle(seq, op, &server, nil)
	return Result{Success: true, Task: &server}
}

// Update merges p into the task immediately and restores the previous
// collection if the server rejects it.
func (e *Engine) Update(ctx context.Context, id string, p Patch) Result {
	if err := p.validate(); err != nil {
		return failure(client.KindValidation, err.Error())
	}

	e.mu.Lock()
	i := indexOf(e.tasks, id)
	if res, ok := e.checkTarget(i, id); !ok {
		e.mu.Unlock()
		return res
	}
	op := updateOp{id: id, snapshot: cloneTasks(e.tasks)}
	p.apply(&e.tasks[i])
	seq := e.record(op, id, "")
	e.mu.Unlock()

	resp, err := e.api.UpdateTask(ctx, id, p.request())
	if err != nil {
		e.settle(seq, op, nil, err)
		return failure(client.KindOf(err), client.MessageOr(err, updateFailed))
	}
	server := fromDTO(resp)
	e.settle(seq, op, &server, nil)
	return Result{Success: true, Task: &server}
}

// Delete removes the task immediately and puts it back if the server
// rejects the delete.
func (e *Engine) Delete(ctx context.Context, id string) Result {
	e.mu.Lock()
	i := indexOf(e.tasks, id)
	if res, ok := e.checkTarget(i, id); !ok {
		e.mu.Unlock()
		return res
	}
	op := deleteOp{task: e.tasks[i]}
	e.tasks = append(e.tasks[:i:i], e.tasks[i+1:]...)
	seq := e.record(op, id, "")
	e.mu.Unlock()

	if err := e.api.DeleteTask(ctx, id); err != nil {
		e.settle(seq, op, nil, err)
		return failure(client.KindOf(err), client.MessageOr(err, deleteFailed))
	}
	e.settle(seq, op, nil, nil)
	return Result{Success: true}
}

// ToggleComplete flips the completed flag of a known task.
func (e *Engine) ToggleComplete(ctx context.Context, id string) Result {
	e.mu.Lock()
	i := indexOf(e.tasks, id)
	if i < 0 {
		e.mu.Unlock()
		return failure(client.KindNotFound, taskNotFound)
	}
	completed := !e.tasks[i].Completed
	e.mu.Unlock()

	return e.Update(ctx, id, Patch{Completed: &completed})
}

// checkTarget rejects unknown and still-pending tasks without a network call.
func (e *Engine) checkTarget(i int, id string) (Result, bool) {
	switch {
	case i < 0:
		return failure(client.KindNotFound, taskNotFound), false
	case IsTemp(id):
		return failure(client.KindValidation, taskPending), false
	}
	return Result{}, true
}

// record appends an applied mutation. Callers hold e.mu.
func (e *Engine) record(op pendingOp, taskID, tempID string) uint64 {
	e.seq++
	e.history = append(e.history, Mutation{
		Seq:    e.seq,
		Kind:   op.kind(),
		State:  StateApplied,
		TaskID: taskID,
		TempID: tempID,
	})
	if len(e.history) > historyLimit {
		e.history = append(e.history[:0:0], e.history[len(e.history)-historyLimit:]...)
	}
	return e.seq
}

// settle confirms or reverts op and moves its mutation out of applied.
func (e *Engine) settle(seq uint64, op pendingOp, server *Task, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state := StateConfirmed
	if err != nil {
		state = StateReverted
		e.tasks = op.revert(e.tasks)
		e.logFailure(string(op.kind()), err)
	} else {
		e.tasks = op.confirm(e.tasks, server)
	}

	for i := len(e.history) - 1; i >= 0; i-- {
		m := &e.history[i]
		if m.Seq != seq {
			continue
		}
		m.State = state
		m.Err = err
		if server != nil {
			m.TaskID = server.ID
		}
		break
	}
}

func (e *Engine) logFailure(op string, err error) {
	kind := client.KindOf(err)
	switch kind {
	case client.KindServer, client.KindUnknown:
		e.log.Error("task sync failed", "op", op, "kind", kind, "err", err)
	default:
		e.log.Warn("task sync failed", "op", op, "kind", kind, "err", err)
	}
}

// Tasks returns a copy of the collection, newest first.
func (e *Engine) Tasks() []Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneTasks(e.tasks)
}

// Find returns the task with id, if present.
func (e *Engine) Find(id string) (Task, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := indexOf(e.tasks, id); i >= 0 {
		return e.tasks[i], true
	}
	return Task{}, false
}

// Filter returns the tasks matching f, newest first.
func (e *Engine) Filter(f Filter) []Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Task, 0, len(e.tasks))
	for _, t := range e.tasks {
		if f.match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Stats counts the collection by completion.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Stats{Total: len(e.tasks)}
	for _, t := range e.tasks {
		if t.Completed {
			s.Completed++
		} else {
			s.Active++
		}
	}
	return s
}

func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// Err is the message of the last failed Reload, or "".
func (e *Engine) Err() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Mutations returns the recent mutation history, oldest first.
func (e *Engine) Mutations() []Mutation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Mutation(nil), e.history...)
}

// Clear drops all local state, e.g. after logout.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = nil
	e.err = ""
	e.history = nil
}
