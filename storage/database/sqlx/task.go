package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/task"
)

type taskRow struct {
	ID          string         `db:"id"`
	Subsystem   string         `db:"subsystem"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Priority    string         `db:"priority"`
	Status      string         `db:"status"`
	AssignedTo  pq.StringArray `db:"assigned_to"`
	CreatedBy   string         `db:"created_by"`
	LessonID    null.String    `db:"lesson_id"`
	BlockID     null.String    `db:"block_id"`
	DueDate     null.Time      `db:"due_date"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func newTaskRow(t task.Task) taskRow {
	row := taskRow{
		ID:          t.ID,
		Subsystem:   string(t.Subsystem),
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      string(t.Status),
		AssignedTo:  pq.StringArray(append([]string{}, t.AssignedTo...)),
		CreatedBy:   t.CreatedBy,
		LessonID:    null.NewString(t.LessonID, t.LessonID != ""),
		BlockID:     null.NewString(t.BlockID, t.BlockID != ""),
	}
	if t.DueDate != nil {
		row.DueDate = null.TimeFrom(*t.DueDate)
	}
	return row
}

func (row taskRow) task() task.Task {
	t := task.Task{
		ID:          row.ID,
		Subsystem:   task.Subsystem(row.Subsystem),
		Title:       row.Title,
		Description: row.Description,
		Priority:    row.Priority,
		Status:      task.Status(row.Status),
		AssignedTo:  append([]string{}, row.AssignedTo...),
		CreatedBy:   row.CreatedBy,
		LessonID:    row.LessonID.String,
		BlockID:     row.BlockID.String,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
	if row.DueDate.Valid {
		due := row.DueDate.Time.UTC()
		t.DueDate = &due
	}
	return t
}

type taskRepository struct {
	db *sqlx.DB
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(db *sqlx.DB) task.Repository {
	return &taskRepository{db: db}
}

func (repo *taskRepository) ListTasks(ctx context.Context, filter task.Filter) ([]task.Task, error) {
	var rows []taskRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT * FROM task
		WHERE ($1 = '' OR subsystem = $1)
			AND ($2 = '' OR status = $2)
			AND ($3 = '' OR $3 = ANY(assigned_to))
			AND ($4 = '' OR lesson_id::text = $4)
			AND ($5 = '' OR block_id::text = $5)
		ORDER BY created_at DESC`,
		string(filter.Subsystem), string(filter.Status), filter.AssignedTo, filter.LessonID, filter.BlockID,
	)
	if err != nil {
		return nil, storeError("ListTasks", err)
	}
	tasks := make([]task.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.task())
	}
	return core.CheckRows("ListTasks", tasks, task.CheckTask)
}

func (repo *taskRepository) GetTask(ctx context.Context, id string) (task.Task, error) {
	var row taskRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM task WHERE id = $1`, id); err != nil {
		return task.Task{}, storeError("GetTask", err)
	}
	return core.CheckRow("GetTask", row.task(), task.CheckTask)
}

func (repo *taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	in := newTaskRow(t)
	var row taskRow
	err := repo.db.GetContext(ctx, &row, `
		INSERT INTO task (subsystem, title, description, priority, status, assigned_to, created_by, lesson_id, block_id, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING *`,
		in.Subsystem, in.Title, in.Description, in.Priority, in.Status, in.AssignedTo, in.CreatedBy,
		in.LessonID, in.BlockID, in.DueDate,
	)
	if err != nil {
		return task.Task{}, storeError("CreateTask", err)
	}
	return row.task(), nil
}

func (repo *taskRepository) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	in := newTaskRow(t)
	var row taskRow
	err := repo.db.GetContext(ctx, &row, `
		UPDATE task
		SET title = $2, description = $3, priority = $4, status = $5, assigned_to = $6,
			lesson_id = $7, block_id = $8, due_date = $9, updated_at = now()
		WHERE id = $1
		RETURNING *`,
		in.ID, in.Title, in.Description, in.Priority, in.Status, in.AssignedTo,
		in.LessonID, in.BlockID, in.DueDate,
	)
	if err != nil {
		return task.Task{}, storeError("UpdateTask", err)
	}
	return row.task(), nil
}

func (repo *taskRepository) DeleteTask(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM task WHERE id = $1`, id)
	return affected("DeleteTask", res, err)
}
