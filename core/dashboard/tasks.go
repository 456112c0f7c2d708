package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/optimistic"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/task"
)

// TaskBoard is the task board of one subsystem (or both, with an empty filter subsystem).
type TaskBoard struct {
	view
	svc *task.Service

	filter task.Filter
	tasks  []task.Task
}

// Column is one status lane of the board.
type Column struct {
	Status task.Status `json:"status"`
	Tasks  []task.Task `json:"tasks"`
}

func NewTaskBoard(svc *task.Service, ctrl *optimistic.Controller, logger core.Logger) *TaskBoard {
	tb := &TaskBoard{svc: svc}
	tb.init(ctrl, logger)
	return tb
}

func (tb *TaskBoard) Load(ctx context.Context, filter task.Filter) error {
	var tasks []task.Task
	fetch := func(ctx context.Context) (err error) {
		tasks, err = tb.svc.List(ctx, filter)
		return err
	}
	return tb.load(ctx, fetch, func() {
		tb.filter = filter
		tb.tasks = tasks
	})
}

func (tb *TaskBoard) reload(ctx context.Context) error {
	tb.mu.RLock()
	filter := tb.filter
	tb.mu.RUnlock()
	return tb.Load(ctx, filter)
}

// Derived views

func (tb *TaskBoard) Tasks() []task.Task {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	return append([]task.Task(nil), tb.tasks...)
}

func (tb *TaskBoard) Task(id string) (task.Task, bool) {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	if i := tb.taskIndex(id); i >= 0 {
		return tb.tasks[i], true
	}
	return task.Task{}, false
}

// Columns groups the cached tasks by status in board order. Within a column, tasks are sorted by
// priority (most pressing first), then due date (none last), then creation time.
func (tb *TaskBoard) Columns() []Column {
	tb.mu.RLock()
	defer tb.mu.RUnlock()

	statuses := tb.filter.Subsystem.Statuses()
	if tb.filter.Subsystem == "" {
		statuses = task.OnlineStatuses // superset
	}
	cols := make([]Column, 0, len(statuses))
	for _, st := range statuses {
		col := Column{Status: st, Tasks: make([]task.Task, 0)}
		for _, t := range tb.tasks {
			if t.Status == st {
				col.Tasks = append(col.Tasks, t)
			}
		}
		sortTasks(col.Tasks)
		cols = append(cols, col)
	}
	return cols
}

// Overdue returns the cached tasks past their due date and not completed.
func (tb *TaskBoard) Overdue(now time.Time) []task.Task {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	tasks := make([]task.Task, 0)
	for _, t := range tb.tasks {
		if task.Overdue(t, now) {
			tasks = append(tasks, t)
		}
	}
	sortTasks(tasks)
	return tasks
}

func sortTasks(tasks []task.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if ra, rb := a.PriorityRank(), b.PriorityRank(); ra != rb {
			return ra > rb
		}
		switch {
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

func (tb *TaskBoard) taskIndex(id string) int {
	return indexOf(len(tb.tasks), func(i int) bool { return tb.tasks[i].ID == id })
}

func placeholderTask(ctx context.Context, id string, nt task.NewTask) task.Task {
	now := time.Now().UTC()
	actor, _ := core.IdentityFrom(ctx)
	return task.Task{
		ID:          id,
		Subsystem:   nt.Subsystem,
		Title:       nt.Title,
		Description: nt.Description,
		Priority:    nt.Priority,
		Status:      nt.Status,
		AssignedTo:  append([]string{}, nt.AssignedTo...),
		CreatedBy:   actor.ID,
		LessonID:    nt.LessonID,
		BlockID:     nt.BlockID,
		DueDate:     nt.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Actions

func (tb *TaskBoard) CreateTask(ctx context.Context, nt task.NewTask) optimistic.Outcome {
	if nt.Subsystem == "" {
		nt.Subsystem = tb.filterSubsystem()
	}
	if err := nt.Validate(); err != nil {
		return tb.reject("task", err)
	}

	tmpID := newPlaceholderID()
	var stored task.Task
	return tb.perform(ctx, optimistic.Mutation{
		Entity: "task",
		Key:    "task:" + tmpID,
		Apply: func() {
			tb.tasks = append(tb.tasks, placeholderTask(ctx, tmpID, nt))
		},
		Remote: func(ctx context.Context) (err error) {
			stored, err = tb.svc.Create(ctx, nt)
			return err
		},
		Commit: func() {
			if i := tb.taskIndex(tmpID); i >= 0 {
				tb.tasks[i] = stored
			}
		},
		Revert: func() {
			if i := tb.taskIndex(tmpID); i >= 0 {
				tb.tasks = append(tb.tasks[:i], tb.tasks[i+1:]...)
			}
		},
		Success: "Tarea creada",
	}, tb.reload)
}

func (tb *TaskBoard) filterSubsystem() task.Subsystem {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	return tb.filter.Subsystem
}

func (tb *TaskBoard) UpdateTask(ctx context.Context, id string, ut task.UpdateTask) optimistic.Outcome {
	orig, ok := tb.Task(id)
	if !ok {
		return tb.reject("task", core.NewStoreError(core.StoreNotFound, "update task "+id, nil))
	}
	if err := ut.Validate(orig); err != nil {
		return tb.reject("task", err)
	}

	var prev, stored task.Task
	return tb.perform(ctx, optimistic.Mutation{
		Entity: "task",
		Key:    "task:" + id,
		Apply: func() {
			if i := tb.taskIndex(id); i >= 0 {
				prev = tb.tasks[i]
				tb.tasks[i] = ut.Apply(prev)
			}
		},
		Remote: func(ctx context.Context) (err error) {
			stored, err = tb.svc.Update(ctx, id, ut)
			return err
		},
		Commit: func() {
			if i := tb.taskIndex(id); i >= 0 {
				tb.tasks[i] = stored
			}
		},
		Revert: func() {
			if i := tb.taskIndex(id); i >= 0 && prev.ID != "" {
				tb.tasks[i] = prev
			}
		},
		Success: "Tarea actualizada",
	}, tb.reload)
}

// MoveTask changes the status of a task, ie. moves it to another column.
func (tb *TaskBoard) MoveTask(ctx context.Context, id string, status task.Status) optimistic.Outcome {
	return tb.UpdateTask(ctx, id, task.UpdateTask{Status: &status})
}

func (tb *TaskBoard) DeleteTask(ctx context.Context, id string) optimistic.Outcome {
	var (
		prevIndex = -1
		prev      task.Task
	)
	return tb.perform(ctx, optimistic.Mutation{
		Entity: "task",
		Key:    "task:" + id,
		Apply: func() {
			if i := tb.taskIndex(id); i >= 0 {
				prevIndex, prev = i, tb.tasks[i]
				tb.tasks = append(tb.tasks[:i], tb.tasks[i+1:]...)
			}
		},
		Remote: func(ctx context.Context) error {
			return tb.svc.Delete(ctx, id)
		},
		Revert: func() {
			if prevIndex >= 0 {
				idx := prevIndex
				if idx > len(tb.tasks) {
					idx = len(tb.tasks)
				}
				tb.tasks = append(tb.tasks[:idx], append([]task.Task{prev}, tb.tasks[idx:]...)...)
			}
		},
		Success: "Tarea eliminada",
	}, tb.reload)
}
