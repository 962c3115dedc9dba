package tasksync

// MutationKind names the operation a Mutation records.
type MutationKind string

const (
	MutationCreate MutationKind = "create"
	MutationUpdate MutationKind = "update"
	MutationDelete MutationKind = "delete"
)

// MutationState is where a mutation is in its lifecycle:
// applied, then exactly one of confirmed or reverted.
type MutationState string

const (
	StateApplied   MutationState = "applied"
	StateConfirmed MutationState = "confirmed"
	StateReverted  MutationState = "reverted"
)

// Mutation is one optimistic change. TempID is set for creates; TaskID is
// the server identifier once known.
type Mutation struct {
	Seq    uint64
	Kind   MutationKind
	State  MutationState
	TaskID string
	TempID string
	Err    error
}

// pendingOp settles an applied mutation against the collection.
// Both methods run with the engine lock held.
type pendingOp interface {
	kind() MutationKind
	confirm(tasks []Task, server *Task) []Task
	revert(tasks []Task) []Task
}

// createOp substitutes the server task for the temporary entry.
type createOp struct {
	tempID string
}

func (createOp) kind() MutationKind { return MutationCreate }

func (op createOp) confirm(tasks []Task, server *Task) []Task {
	if i := indexOf(tasks, op.tempID); i >= 0 {
		tasks[i] = *server
		return tasks
	}
	// the temporary entry was dropped by a reload; the reload may already
	// contain the new task
	if indexOf(tasks, server.ID) >= 0 {
		return tasks
	}
	tasks = append(tasks, *server)
	sortNewestFirst(tasks)
	return tasks
}

func (op createOp) revert(tasks []Task) []Task {
	if i := indexOf(tasks, op.tempID); i >= 0 {
		return append(tasks[:i], tasks[i+1:]...)
	}
	return tasks
}

// updateOp restores the whole pre-mutation collection on failure.
type updateOp struct {
	id       string
	snapshot []Task
}

func (updateOp) kind() MutationKind { return MutationUpdate }

func (op updateOp) confirm(tasks []Task, server *Task) []Task {
	if i := indexOf(tasks, op.id); i >= 0 {
		tasks[i] = *server
	}
	return tasks
}

func (op updateOp) revert([]Task) []Task {
	return cloneTasks(op.snapshot)
}

// deleteOp re-inserts the captured task on failure.
type deleteOp struct {
	task Task
}

func (deleteOp) kind() MutationKind { return MutationDelete }

func (deleteOp) confirm(tasks []Task, _ *Task) []Task { return tasks }

func (op deleteOp) revert(tasks []Task) []Task {
	if indexOf(tasks, op.task.ID) >= 0 {
		return tasks
	}
	tasks = append(tasks, op.task)
	sortNewestFirst(tasks)
	return tasks
}
