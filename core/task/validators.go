package task

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
)

var (
	subsystemTag = "subsystem"

	priorityTag  = "task_priority"
	priorityText = "invalid priority for this subsystem"

	statusTag  = "task_status"
	statusText = "invalid status for this subsystem"

	singleAssigneeTag  = "single_assignee"
	singleAssigneeText = "academy tasks take at most one assignee"
)

func init() {
	core.RegisterEnum(subsystemTag, Subsystems...)

	core.Validate.RegisterStructValidation(newTaskStructValidation, NewTask{})
	core.RegisterCustomTranslation(priorityTag, priorityText)
	core.RegisterCustomTranslation(statusTag, statusText)
	core.RegisterCustomTranslation(singleAssigneeTag, singleAssigneeText)
}

// newTaskStructValidation checks the subsystem dependent rules of NewTask.
func newTaskStructValidation(sl validator.StructLevel) {
	nt, ok := sl.Current().Interface().(NewTask)
	if !ok {
		return
	}
	if !nt.Subsystem.ValidPriority(nt.Priority) {
		sl.ReportError(nt.Priority, "priority", "Priority", priorityTag, "")
	}
	if !nt.Subsystem.ValidStatus(nt.Status) {
		sl.ReportError(nt.Status, "status", "Status", statusTag, "")
	}
	if nt.Subsystem == SubsystemAcademy && len(nt.AssignedTo) > 1 {
		sl.ReportError(nt.AssignedTo, "assigned_to", "AssignedTo", singleAssigneeTag, "")
	}
}

// CheckTask verifies a task against the rules of its subsystem.
// It guards updates and rows read from the store.
func CheckTask(t Task) error {
	var fields []core.FieldError
	if t.Subsystem != SubsystemAcademy && t.Subsystem != SubsystemOnline {
		fields = append(fields, core.FieldError{Field: "subsystem", Error: fmt.Sprintf("unknown subsystem %q", t.Subsystem)})
	} else {
		if !t.Subsystem.ValidPriority(t.Priority) {
			fields = append(fields, core.FieldError{Field: "priority", Error: priorityText})
		}
		if !t.Subsystem.ValidStatus(t.Status) {
			fields = append(fields, core.FieldError{Field: "status", Error: statusText})
		}
		if t.Subsystem == SubsystemAcademy && len(t.AssignedTo) > 1 {
			fields = append(fields, core.FieldError{Field: "assigned_to", Error: singleAssigneeText})
		}
	}
	if t.Title == "" {
		fields = append(fields, core.FieldError{Field: "title", Error: "this field cannot be blank"})
	}
	if len(fields) > 0 {
		return core.NewValidationError(errors.Errorf("invalid task %s", t.ID), fields...)
	}
	return nil
}
