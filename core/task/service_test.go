package task_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/task"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/user"
	"github.com/lajunglaworkout/jungla-iberica-sub004/testutil"
)

func TestService_Create(t *testing.T) {
	env := testutil.NewEnv(t)
	staff := testutil.CreateUser(t, env.UserRepo, "Staff", "staff@test.es", "", []string{user.RoleStaffAcademy}, true)
	tutor := testutil.CreateUser(t, env.UserRepo, "Tutor", "tutor@test.es", "", []string{user.RoleTutor}, true)
	ctx := core.WithIdentity(context.Background(), staff.Identity())

	due := time.Date(2026, 3, 2, 18, 0, 0, 0, time.FixedZone("CET", 3600))
	tsk, err := env.TaskSvc.Create(ctx, task.NewTask{Title: "  Grabar bloque 1 ", AssignedTo: []string{tutor.ID}, DueDate: &due})
	require.NoError(t, err)
	assert.Equal(t, "Grabar bloque 1", tsk.Title)
	assert.Equal(t, task.SubsystemAcademy, tsk.Subsystem)
	assert.Equal(t, string(task.AcademyNormal), tsk.Priority)
	assert.Equal(t, task.StatusPending, tsk.Status)
	assert.Equal(t, staff.ID, tsk.CreatedBy)
	require.NotNil(t, tsk.DueDate)
	assert.Equal(t, time.UTC, tsk.DueDate.Location())

	sent := env.Mail.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, tutor.Email, sent[0].To[0].Address)
	assert.Equal(t, "task_assigned", sent[0].TemplateName)

	t.Run("self assignment is not notified", func(t *testing.T) {
		_, err := env.TaskSvc.Create(ctx, task.NewTask{Title: "Mine", AssignedTo: []string{staff.ID}})
		require.NoError(t, err)
		assert.Len(t, env.Mail.SentMessages(), 1)
	})

	tests := []struct {
		name string
		nt   task.NewTask
	}{
		{name: "blank title", nt: task.NewTask{Title: " "}},
		{name: "unknown subsystem", nt: task.NewTask{Subsystem: "offline", Title: "X"}},
		{name: "online priority on academy task", nt: task.NewTask{Title: "X", Priority: string(task.OnlineCritical)}},
		{name: "academy priority on online task", nt: task.NewTask{Subsystem: task.SubsystemOnline, Title: "X", Priority: string(task.AcademyUrgent)}},
		{name: "blocked academy task", nt: task.NewTask{Title: "X", Status: task.StatusBlocked}},
		{name: "two academy assignees", nt: task.NewTask{Title: "X", AssignedTo: []string{staff.ID, tutor.ID}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.TaskSvc.Create(ctx, tt.nt)
			assert.True(t, core.IsUserError(err), err)
		})
	}

	t.Run("unknown lesson", func(t *testing.T) {
		_, err := env.TaskSvc.Create(ctx, task.NewTask{Title: "X", LessonID: "nope"})
		assert.Equal(t, core.StoreConstraint, core.StoreCode(err), err)
	})

	t.Run("online task", func(t *testing.T) {
		tsk, err := env.TaskSvc.Create(ctx, task.NewTask{
			Subsystem: task.SubsystemOnline, Title: "Campaña", Priority: "CRITICAL", Status: task.StatusBlocked,
			AssignedTo: []string{staff.ID, tutor.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, string(task.OnlineCritical), tsk.Priority)
		assert.Len(t, tsk.AssignedTo, 2)
	})
}

func TestService_Update(t *testing.T) {
	env := testutil.NewEnv(t)
	staff := testutil.CreateUser(t, env.UserRepo, "Staff", "staff@test.es", "", []string{user.RoleStaffAcademy}, true)
	tutor := testutil.CreateUser(t, env.UserRepo, "Tutor", "tutor@test.es", "", []string{user.RoleTutor}, true)
	other := testutil.CreateUser(t, env.UserRepo, "Other", "other@test.es", "", []string{user.RoleTutor}, true)
	ctx := core.WithIdentity(context.Background(), staff.Identity())

	orig, err := env.TaskSvc.Create(ctx, task.NewTask{Title: "Grabar", AssignedTo: []string{tutor.ID}})
	require.NoError(t, err)
	require.Len(t, env.Mail.SentMessages(), 1)

	t.Run("move", func(t *testing.T) {
		tsk, err := env.TaskSvc.Move(ctx, orig.ID, task.StatusInProgress)
		require.NoError(t, err)
		assert.Equal(t, task.StatusInProgress, tsk.Status)
		assert.Equal(t, orig.CreatedBy, tsk.CreatedBy)
		assert.True(t, orig.CreatedAt.Equal(tsk.CreatedAt))
		assert.Len(t, env.Mail.SentMessages(), 1)

		_, err = env.TaskSvc.Move(ctx, orig.ID, task.StatusBlocked)
		assert.True(t, core.IsUserError(err), err)
	})

	t.Run("reassign notifies the new assignee only", func(t *testing.T) {
		assignees := []string{other.ID}
		tsk, err := env.TaskSvc.Update(ctx, orig.ID, task.UpdateTask{AssignedTo: &assignees})
		require.NoError(t, err)
		assert.Equal(t, []string{other.ID}, tsk.AssignedTo)

		sent := env.Mail.SentMessages()
		require.Len(t, sent, 2)
		assert.Equal(t, other.Email, sent[1].To[0].Address)
	})

	t.Run("due date set and cleared", func(t *testing.T) {
		due := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
		tsk, err := env.TaskSvc.Update(ctx, orig.ID, task.UpdateTask{DueDate: &due})
		require.NoError(t, err)
		require.NotNil(t, tsk.DueDate)
		assert.True(t, due.Equal(*tsk.DueDate))

		tsk, err = env.TaskSvc.Update(ctx, orig.ID, task.UpdateTask{ClearDueDate: true})
		require.NoError(t, err)
		assert.Nil(t, tsk.DueDate)
	})

	t.Run("blank title", func(t *testing.T) {
		blank := "  "
		_, err := env.TaskSvc.Update(ctx, orig.ID, task.UpdateTask{Title: &blank})
		assert.True(t, core.IsUserError(err), err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, env.TaskSvc.Delete(ctx, orig.ID))
		_, err := env.TaskSvc.Get(ctx, orig.ID)
		assert.True(t, core.IsNotFound(err))

		_, err = env.TaskSvc.Move(ctx, orig.ID, task.StatusCompleted)
		assert.True(t, core.IsNotFound(err))
	})
}

func TestOverdue(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	yesterday, tomorrow := now.AddDate(0, 0, -1), now.AddDate(0, 0, 1)

	tests := []struct {
		name string
		tsk  task.Task
		want bool
	}{
		{name: "no due date", tsk: task.Task{Status: task.StatusPending}},
		{name: "due tomorrow", tsk: task.Task{Status: task.StatusPending, DueDate: &tomorrow}},
		{name: "late", tsk: task.Task{Status: task.StatusInProgress, DueDate: &yesterday}, want: true},
		{name: "late but completed", tsk: task.Task{Status: task.StatusCompleted, DueDate: &yesterday}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, task.Overdue(tt.tsk, now))
		})
	}
}

func TestPriorityVocabularies(t *testing.T) {
	assert.Greater(t, task.AcademyUrgent.Rank(), task.AcademyHigh.Rank())
	assert.Greater(t, task.OnlineCritical.Rank(), task.OnlineHigh.Rank())

	// the vocabularies do not mix
	assert.Zero(t, task.AcademyPriority(task.OnlineCritical).Rank())
	assert.Zero(t, task.OnlinePriority(task.AcademyUrgent).Rank())
	assert.False(t, task.SubsystemAcademy.ValidStatus(task.StatusBlocked))
	assert.True(t, task.SubsystemOnline.ValidStatus(task.StatusBlocked))
}
