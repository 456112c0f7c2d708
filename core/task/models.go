package task

import (
	"time"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
)

type (
	Subsystem string
	Status    string

	// AcademyPriority is the priority vocabulary of academy tasks.
	AcademyPriority string
	// OnlinePriority is the priority vocabulary of online tasks. It is not interchangeable with AcademyPriority.
	OnlinePriority string
)

const (
	SubsystemAcademy Subsystem = "academy"
	SubsystemOnline  Subsystem = "online"

	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked" // online only

	AcademyLow    AcademyPriority = "low"
	AcademyNormal AcademyPriority = "normal"
	AcademyHigh   AcademyPriority = "high"
	AcademyUrgent AcademyPriority = "urgent"

	OnlineCritical OnlinePriority = "critical"
	OnlineHigh     OnlinePriority = "high"
	OnlineNormal   OnlinePriority = "normal"
	OnlineLow      OnlinePriority = "low"
)

var (
	Subsystems        = []string{string(SubsystemAcademy), string(SubsystemOnline)}
	AcademyStatuses   = []Status{StatusPending, StatusInProgress, StatusCompleted}
	OnlineStatuses    = []Status{StatusPending, StatusInProgress, StatusBlocked, StatusCompleted}
	AcademyPriorities = []AcademyPriority{AcademyLow, AcademyNormal, AcademyHigh, AcademyUrgent}
	OnlinePriorities  = []OnlinePriority{OnlineLow, OnlineNormal, OnlineHigh, OnlineCritical}
)

// Rank orders priorities, higher is more pressing. 0 for unknown values.
func (p AcademyPriority) Rank() int {
	for i, ap := range AcademyPriorities {
		if p == ap {
			return i + 1
		}
	}
	return 0
}

func (p OnlinePriority) Rank() int {
	for i, op := range OnlinePriorities {
		if p == op {
			return i + 1
		}
	}
	return 0
}

// Statuses returns the statuses a task of the subsystem may take, in board order.
func (s Subsystem) Statuses() []Status {
	if s == SubsystemOnline {
		return OnlineStatuses
	}
	return AcademyStatuses
}

// DefaultPriority is the priority given to tasks created without one.
func (s Subsystem) DefaultPriority() string {
	if s == SubsystemOnline {
		return string(OnlineNormal)
	}
	return string(AcademyNormal)
}

// ValidPriority reports whether p belongs to the subsystem's vocabulary.
func (s Subsystem) ValidPriority(p string) bool {
	if s == SubsystemOnline {
		return OnlinePriority(p).Rank() > 0
	}
	return AcademyPriority(p).Rank() > 0
}

func (s Subsystem) ValidStatus(st Status) bool {
	for _, valid := range s.Statuses() {
		if st == valid {
			return true
		}
	}
	return false
}

type Task struct {
	ID          string     `json:"id"`
	Subsystem   Subsystem  `json:"subsystem"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"` // AcademyPriority or OnlinePriority, per Subsystem
	Status      Status     `json:"status"`
	AssignedTo  []string   `json:"assigned_to"` // user ids; at most one for academy tasks
	CreatedBy   string     `json:"created_by"`
	LessonID    string     `json:"lesson_id,omitempty"`
	BlockID     string     `json:"block_id,omitempty"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"` // UTC
	UpdatedAt   time.Time  `json:"updated_at"` // UTC
}

// PriorityRank ranks the task priority within its own vocabulary.
func (t Task) PriorityRank() int {
	if t.Subsystem == SubsystemOnline {
		return OnlinePriority(t.Priority).Rank()
	}
	return AcademyPriority(t.Priority).Rank()
}

// Assignee returns the single assignee of an academy task, or "".
func (t Task) Assignee() string {
	if len(t.AssignedTo) == 0 {
		return ""
	}
	return t.AssignedTo[0]
}

func (t Task) IsAssignedTo(userID string) bool {
	for _, id := range t.AssignedTo {
		if id == userID {
			return true
		}
	}
	return false
}

// NewTask contains information needed to create a new Task.
type NewTask struct {
	Subsystem   Subsystem  `json:"subsystem" validate:"required,subsystem"`
	Title       string     `json:"title" validate:"notblank"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Status      Status     `json:"status"`
	AssignedTo  []string   `json:"assigned_to" validate:"dive,required"`
	LessonID    string     `json:"lesson_id"`
	BlockID     string     `json:"block_id"`
	DueDate     *time.Time `json:"due_date"`
}

func (nt *NewTask) Validate() error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	nt.Priority = core.CleanString(nt.Priority, true /* lower */)
	if nt.Subsystem == "" {
		nt.Subsystem = SubsystemAcademy
	}
	if nt.Priority == "" {
		nt.Priority = nt.Subsystem.DefaultPriority()
	}
	if nt.Status == "" {
		nt.Status = StatusPending
	}
	return core.Validate.Struct(nt)
}

// UpdateTask defines what information may be provided to modify an existing Task.
type UpdateTask struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Priority     *string    `json:"priority"`
	Status       *Status    `json:"status"`
	AssignedTo   *[]string  `json:"assigned_to"`
	DueDate      *time.Time `json:"due_date"`
	ClearDueDate bool       `json:"clear_due_date"`
}

// Validate checks the update against the task it applies to.
func (ut *UpdateTask) Validate(orig Task) error {
	if ut.Title != nil {
		ut.Title = core.StrPtr(core.CleanString(*ut.Title))
	}
	if ut.Priority != nil {
		ut.Priority = core.StrPtr(core.CleanString(*ut.Priority, true /* lower */))
	}
	if err := core.CheckNotBlank("title", ut.Title); err != nil {
		return err
	}
	return CheckTask(ut.Apply(orig))
}

func (ut UpdateTask) Apply(t Task) Task {
	if ut.Title != nil {
		t.Title = *ut.Title
	}
	if ut.Description != nil {
		t.Description = core.CleanString(*ut.Description)
	}
	if ut.Priority != nil {
		t.Priority = *ut.Priority
	}
	if ut.Status != nil {
		t.Status = *ut.Status
	}
	if ut.AssignedTo != nil {
		t.AssignedTo = append([]string(nil), (*ut.AssignedTo)...)
	}
	if ut.ClearDueDate {
		t.DueDate = nil
	} else if ut.DueDate != nil {
		due := ut.DueDate.UTC()
		t.DueDate = &due
	}
	return t
}

// Filter narrows List. Zero value lists every task.
type Filter struct {
	Subsystem  Subsystem `query:"subsystem"`
	Status     Status    `query:"status"`
	AssignedTo string    `query:"assigned_to"`
	LessonID   string    `query:"lesson_id"`
	BlockID    string    `query:"block_id"`
}

// Match reports whether t passes the filter.
func (f Filter) Match(t Task) bool {
	switch {
	case f.Subsystem != "" && t.Subsystem != f.Subsystem:
		return false
	case f.Status != "" && t.Status != f.Status:
		return false
	case f.AssignedTo != "" && !t.IsAssignedTo(f.AssignedTo):
		return false
	case f.LessonID != "" && t.LessonID != f.LessonID:
		return false
	case f.BlockID != "" && t.BlockID != f.BlockID:
		return false
	}
	return true
}
