package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/lajunglaworkout/jungla-iberica-sub004/apps/api/echo"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/task"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/user"
	"github.com/lajunglaworkout/jungla-iberica-sub004/testutil"
)

func Test_taskApi(t *testing.T) {
	app, env := setup(t)

	staff := testutil.CreateUser(t, env.UserRepo, "Staff", "staff@test.es", "", []string{user.RoleStaffAcademy}, true)
	tutor := testutil.CreateUser(t, env.UserRepo, "Tutor", "tutor@test.es", "", []string{user.RoleTutor}, true)
	other := testutil.CreateUser(t, env.UserRepo, "Other", "other@test.es", "", []string{user.RoleTutor}, true)
	staffToken, tutorToken := getToken(t, env, staff), getToken(t, env, tutor)

	var created task.Task
	rec := do(t, app, http.MethodPost, "/v1/tasks", staffToken, task.NewTask{
		Title: "Grabar bloque 1", AssignedTo: []string{tutor.ID},
	}, &created)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, task.SubsystemAcademy, created.Subsystem)
	assert.Equal(t, string(task.AcademyNormal), created.Priority)
	assert.Equal(t, task.StatusPending, created.Status)
	assert.Equal(t, staff.ID, created.CreatedBy)

	sent := env.Mail.SentMessages()
	require.Len(t, sent, 1)
	require.Len(t, sent[0].To, 1)
	assert.Equal(t, tutor.Email, sent[0].To[0].Address)

	runHTTPTests(t, app, []httpTest{
		{
			name: "tutors cannot create", method: http.MethodPost, path: "/v1/tasks", token: tutorToken,
			body: marchallObj(t, task.NewTask{Title: "Mine"}), wantCode: http.StatusForbidden,
		},
		{name: "tutors can read", path: "/v1/tasks?assigned_to=" + tutor.ID, token: tutorToken, wantData: marchallList(t, created)},
		{name: "filter (empty)", path: "/v1/tasks?assigned_to=" + other.ID, token: tutorToken, wantData: marchallList(t)},
		{
			name: "academy tasks have one assignee", method: http.MethodPost, path: "/v1/tasks", token: staffToken,
			body: marchallObj(t, task.NewTask{Title: "Two", AssignedTo: []string{tutor.ID, other.ID}}), wantCode: http.StatusBadRequest,
		},
		{
			name: "online priorities are not academy ones", method: http.MethodPost, path: "/v1/tasks", token: staffToken,
			body: marchallObj(t, task.NewTask{Title: "Crit", Priority: string(task.OnlineCritical)}), wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown lesson", method: http.MethodPost, path: "/v1/tasks", token: staffToken,
			body: marchallObj(t, task.NewTask{Title: "Linked", LessonID: "nope"}), wantCode: http.StatusConflict,
		},
		{
			name: "academy tasks cannot be blocked", method: http.MethodPatch, path: "/v1/tasks/" + created.ID + "/status", token: staffToken,
			body: marchallObj(t, MoveTaskRequest{Status: task.StatusBlocked}), wantCode: http.StatusBadRequest,
		},
	})

	t.Run("online tasks", func(t *testing.T) {
		var online task.Task
		rec := do(t, app, http.MethodPost, "/v1/tasks", staffToken, task.NewTask{
			Subsystem: task.SubsystemOnline, Title: "Campaña", Priority: string(task.OnlineCritical),
			AssignedTo: []string{tutor.ID, other.ID},
		}, &online)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Len(t, online.AssignedTo, 2)

		rec = do(t, app, http.MethodPatch, "/v1/tasks/"+online.ID+"/status", staffToken, MoveTaskRequest{Status: task.StatusBlocked}, &online)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, task.StatusBlocked, online.Status)
	})

	t.Run("move, reassign and delete", func(t *testing.T) {
		var moved task.Task
		rec := do(t, app, http.MethodPatch, "/v1/tasks/"+created.ID+"/status", staffToken, MoveTaskRequest{Status: task.StatusInProgress}, &moved)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, task.StatusInProgress, moved.Status)
		assert.Equal(t, created.CreatedBy, moved.CreatedBy)

		before := len(env.Mail.SentMessages())
		assignees := []string{other.ID}
		rec = do(t, app, http.MethodPut, "/v1/tasks/"+created.ID, staffToken, task.UpdateTask{AssignedTo: &assignees}, &moved)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, []string{other.ID}, moved.AssignedTo)
		assert.Len(t, env.Mail.SentMessages(), before+1)

		rec = do(t, app, http.MethodDelete, "/v1/tasks/"+created.ID, staffToken, nil, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = do(t, app, http.MethodGet, "/v1/tasks/"+created.ID, staffToken, nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
