package task

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
)

type (
	Repository interface {
		// ListTasks returns the tasks matching filter, newest first.
		ListTasks(ctx context.Context, filter Filter) ([]Task, error)
		GetTask(ctx context.Context, id string) (Task, error)
		CreateTask(ctx context.Context, t Task) (Task, error)
		UpdateTask(ctx context.Context, t Task) (Task, error)
		DeleteTask(ctx context.Context, id string) error
	}

	// Directory resolves user ids to mail addresses for assignment notices.
	Directory interface {
		LookupAddresses(ctx context.Context, ids ...string) ([]mail.Address, error)
	}

	Service struct {
		repo    Repository
		dir     Directory
		mailSvc core.EmailService
		logger  core.Logger
	}
)

func NewService(repo Repository, dir Directory, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{repo: repo, dir: dir, mailSvc: mailSvc, logger: logger}
}

func (svc *Service) List(ctx context.Context, filter Filter) ([]Task, error) {
	return svc.repo.ListTasks(ctx, filter)
}

func (svc *Service) Get(ctx context.Context, id string) (Task, error) {
	return svc.repo.GetTask(ctx, id)
}

// Create stores a new task stamped with the identity carried by ctx.
func (svc *Service) Create(ctx context.Context, nt NewTask) (Task, error) {
	if err := nt.Validate(); err != nil {
		return Task{}, err
	}
	t := Task{
		Subsystem:   nt.Subsystem,
		Title:       nt.Title,
		Description: nt.Description,
		Priority:    nt.Priority,
		Status:      nt.Status,
		AssignedTo:  append([]string{}, nt.AssignedTo...),
		LessonID:    nt.LessonID,
		BlockID:     nt.BlockID,
	}
	if nt.DueDate != nil {
		due := nt.DueDate.UTC()
		t.DueDate = &due
	}
	actor, _ := core.IdentityFrom(ctx)
	t.CreatedBy = actor.ID

	t, err := svc.repo.CreateTask(ctx, t)
	if err != nil {
		return Task{}, errors.Wrap(err, "creating task")
	}
	svc.notifyAssignees(ctx, t, t.AssignedTo)
	return t, nil
}

func (svc *Service) Update(ctx context.Context, id string, ut UpdateTask) (Task, error) {
	orig, err := svc.repo.GetTask(ctx, id)
	if err != nil {
		return Task{}, errors.Wrap(err, "getting task")
	}
	if err := ut.Validate(orig); err != nil {
		return Task{}, err
	}
	t, err := svc.repo.UpdateTask(ctx, ut.Apply(orig))
	if err != nil {
		return Task{}, errors.Wrap(err, "updating task")
	}
	svc.notifyAssignees(ctx, t, newAssignees(orig, t))
	return t, nil
}

// Move changes the status of a task.
func (svc *Service) Move(ctx context.Context, id string, status Status) (Task, error) {
	return svc.Update(ctx, id, UpdateTask{Status: &status})
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteTask(ctx, id)
}

func newAssignees(orig, updated Task) []string {
	added := make([]string, 0, len(updated.AssignedTo))
	for _, id := range updated.AssignedTo {
		if !orig.IsAssignedTo(id) {
			added = append(added, id)
		}
	}
	return added
}

type assignmentData struct {
	Title      string
	Priority   string
	DueDate    string
	AssignedBy string
}

// notifyAssignees emails the given assignees, skipping the actor. Failures are only logged.
func (svc *Service) notifyAssignees(ctx context.Context, t Task, assignees []string) {
	if svc.mailSvc == nil || svc.dir == nil {
		return
	}
	actor, _ := core.IdentityFrom(ctx)
	ids := make([]string, 0, len(assignees))
	for _, id := range assignees {
		if id != actor.ID {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return
	}

	addrs, err := svc.dir.LookupAddresses(ctx, ids...)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("looking up assignees of task %s: %v", t.ID, err), err, actor)
		return
	}
	if len(addrs) == 0 {
		return
	}

	data := assignmentData{Title: t.Title, Priority: t.Priority, AssignedBy: actor.Name}
	if data.AssignedBy == "" {
		data.AssignedBy = "Alguien"
	}
	if t.DueDate != nil {
		data.DueDate = t.DueDate.Format("02/01/2006")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           addrs,
		Subject:      "Nueva tarea asignada: " + t.Title,
		TemplateName: "task_assigned",
		TemplateData: data,
	})
}

// Overdue reports whether a task is past its due date and not completed.
func Overdue(t Task, now time.Time) bool {
	return t.DueDate != nil && t.Status != StatusCompleted && t.DueDate.Before(now)
}
