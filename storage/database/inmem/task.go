package inmemdb

import (
	"context"
	"sort"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/task"
)

type taskRepository struct {
	db *DB
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(db *DB) task.Repository {
	return &taskRepository{db: db}
}

func (repo *taskRepository) ListTasks(_ context.Context, filter task.Filter) ([]task.Task, error) {
	done, err := repo.db.begin("ListTasks", false)
	defer done()
	if err != nil {
		return nil, err
	}
	tasks := make([]task.Task, 0)
	for _, t := range repo.db.tasks {
		if filter.Match(t) {
			tasks = append(tasks, copyTask(t))
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
	return core.CheckRows("ListTasks", tasks, task.CheckTask)
}

func (repo *taskRepository) GetTask(_ context.Context, id string) (task.Task, error) {
	done, err := repo.db.begin("GetTask", false)
	defer done()
	if err != nil {
		return task.Task{}, err
	}
	if t, ok := repo.db.tasks[id]; ok {
		return core.CheckRow("GetTask", copyTask(t), task.CheckTask)
	}
	return task.Task{}, notFound("GetTask", "task", id)
}

func (repo *taskRepository) checkRefs(op string, t task.Task) error {
	if t.LessonID != "" {
		if _, ok := repo.db.lessons[t.LessonID]; !ok {
			return constraint(op, "lesson %s does not exist", t.LessonID)
		}
	}
	if t.BlockID != "" {
		if _, ok := repo.db.blocks[t.BlockID]; !ok {
			return constraint(op, "block %s does not exist", t.BlockID)
		}
	}
	if err := task.CheckTask(t); err != nil {
		return constraint(op, "%v", err)
	}
	return nil
}

func (repo *taskRepository) CreateTask(_ context.Context, t task.Task) (task.Task, error) {
	done, err := repo.db.begin("CreateTask", true)
	defer done()
	if err != nil {
		return task.Task{}, err
	}
	if err := repo.checkRefs("CreateTask", t); err != nil {
		return task.Task{}, err
	}
	t.ID = newID()
	t.CreatedAt = repo.db.now()
	t.UpdatedAt = t.CreatedAt
	repo.db.tasks[t.ID] = copyTask(t)
	return t, nil
}

func (repo *taskRepository) UpdateTask(_ context.Context, t task.Task) (task.Task, error) {
	done, err := repo.db.begin("UpdateTask", true)
	defer done()
	if err != nil {
		return task.Task{}, err
	}
	orig, ok := repo.db.tasks[t.ID]
	if !ok {
		return task.Task{}, notFound("UpdateTask", "task", t.ID)
	}
	if err := repo.checkRefs("UpdateTask", t); err != nil {
		return task.Task{}, err
	}
	t.Subsystem = orig.Subsystem
	t.CreatedBy = orig.CreatedBy
	t.CreatedAt = orig.CreatedAt
	t.UpdatedAt = repo.db.now()
	repo.db.tasks[t.ID] = copyTask(t)
	return t, nil
}

func (repo *taskRepository) DeleteTask(_ context.Context, id string) error {
	done, err := repo.db.begin("DeleteTask", true)
	defer done()
	if err != nil {
		return err
	}
	if _, ok := repo.db.tasks[id]; !ok {
		return notFound("DeleteTask", "task", id)
	}
	delete(repo.db.tasks, id)
	return nil
}

func copyTask(t task.Task) task.Task {
	t.AssignedTo = append([]string{}, t.AssignedTo...)
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	return t
}

// unlinkLesson and unlinkBlock clear the references of tasks linked to a deleted row. Callers hold the write lock.

func (db *DB) unlinkLesson(lessonID string) {
	for id, t := range db.tasks {
		if t.LessonID == lessonID {
			t.LessonID = ""
			db.tasks[id] = t
		}
	}
}

func (db *DB) unlinkBlock(blockID string) {
	for id, t := range db.tasks {
		if t.BlockID == blockID {
			t.BlockID = ""
			db.tasks[id] = t
		}
	}
}
