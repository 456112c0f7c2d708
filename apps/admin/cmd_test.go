package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/academy"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/calendar"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/optimistic"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/task"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/user"
	"github.com/lajunglaworkout/jungla-iberica-sub004/testutil"
)

const testPwd = "J4ngl@-Pwd"

func setup(t *testing.T) (*commandLine, *testutil.Env, *bytes.Buffer) {
	env := testutil.NewEnv(t)
	out := new(bytes.Buffer)

	// start CLI
	cli := &commandLine{
		usrSvc:      env.UserSvc,
		academySvc:  env.AcademySvc,
		taskSvc:     env.TaskSvc,
		calendarSvc: env.CalendarSvc,
		logger:      core.NopLogger{},
		out:         out,
	}
	cli.sync = optimistic.NewController(nil, &toastPrinter{out: out}, nil, nil, env.Conf.Sync.ToastDuration)
	return cli, env, out
}

func mockPasswords(t *testing.T, pwds ...string) {
	orig := readPasswordFunc
	t.Cleanup(func() { readPasswordFunc = orig })

	var i int
	readPasswordFunc = func(fd int) ([]byte, error) {
		if i >= len(pwds) {
			return nil, nil
		}
		i++
		return []byte(pwds[i-1]), nil
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    bool
	wantErrStr string
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(tt.args)
			switch {
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrStr)
			case tt.wantErr:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_help(t *testing.T) {
	cli, _, out := setup(t)

	require.NoError(t, cli.run(nil))
	assert.Contains(t, out.String(), "Usage:")
	for _, sub := range []string{"migrate", "adduser", "resetpassword", "seed", "lessons", "blocks", "tasks", "calendar", "roster"} {
		assert.Contains(t, out.String(), sub)
	}

	runCLITests(t, cli, []cliTest{
		{name: "unknown command", args: []string{"lol"}, wantErrStr: `unknown command "lol"`},
		{name: "unknown flag", args: []string{"--lol"}, wantErrStr: "unknown flag"},
	})
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	var calls [][]string
	orig := gooseRunFunc
	t.Cleanup(func() { gooseRunFunc = orig })
	gooseRunFunc = func(db *sqlx.DB, command string, args ...string) error {
		calls = append(calls, append([]string{command}, args...))
		return nil
	}

	runCLITests(t, cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErrStr: "requires at least 1 arg(s)"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "status", args: []string{"migrate", "status"}},
	})
	assert.Equal(t, [][]string{{"up"}, {"up-to", "2"}, {"status"}}, calls)
}

func Test_commandLine_addUser(t *testing.T) {
	cli, env, out := setup(t)

	t.Run("created", func(t *testing.T) {
		mockPasswords(t, testPwd, testPwd)
		require.NoError(t, cli.run([]string{"adduser", "--name", "Carla Ruiz", "--email", "Carla@LaJungla.es", "--role", user.RoleStaffAcademy}))
		assert.Contains(t, out.String(), "user carla@lajungla.es created")

		usr, err := env.UserSvc.GetByEmail(context.Background(), "carla@lajungla.es")
		require.NoError(t, err)
		assert.True(t, usr.IsActive)
		assert.Equal(t, []string{user.RoleStaffAcademy}, usr.Roles)
		assert.NoError(t, usr.CheckPassword(testPwd))
	})

	t.Run("admin", func(t *testing.T) {
		mockPasswords(t, testPwd, testPwd)
		require.NoError(t, cli.run([]string{"adduser", "--name", "Owner", "--email", "owner@lajungla.es", "--admin"}))

		usr, err := env.UserSvc.GetByEmail(context.Background(), "owner@lajungla.es")
		require.NoError(t, err)
		assert.True(t, usr.IsAdmin())
	})

	t.Run("passwords differ", func(t *testing.T) {
		mockPasswords(t, testPwd, testPwd+"x")
		err := cli.run([]string{"adduser", "--name", "Other", "--email", "other@lajungla.es"})
		require.Error(t, err)
		assert.True(t, core.IsUserError(err), err)
	})

	t.Run("email taken", func(t *testing.T) {
		mockPasswords(t, testPwd, testPwd)
		err := cli.run([]string{"adduser", "--name", "Carla", "--email", "carla@lajungla.es"})
		require.Error(t, err)
		assert.True(t, core.IsUserError(err), err)
	})

	runCLITests(t, cli, []cliTest{
		{name: "no email", args: []string{"adduser", "--name", "X"}, wantErrStr: `required flag(s) "email" not set`},
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, env, _ := setup(t)

	usr := testutil.CreateUser(t, env.UserRepo, "Tutor", "tutor@lajungla.es", "Old-P4ss!", []string{user.RoleTutor}, true)

	t.Run("reset", func(t *testing.T) {
		mockPasswords(t, testPwd, testPwd)
		require.NoError(t, cli.run([]string{"resetpassword", "--email", usr.Email}))

		refreshed, err := env.UserSvc.GetByID(context.Background(), usr.ID)
		require.NoError(t, err)
		assert.NoError(t, refreshed.CheckPassword(testPwd))
		assert.False(t, bytes.Equal(refreshed.PasswordHash, usr.PasswordHash))
	})

	t.Run("user not found", func(t *testing.T) {
		mockPasswords(t, testPwd, testPwd)
		err := cli.run([]string{"resetpassword", "--email", "nope@lajungla.es"})
		assert.True(t, core.IsNotFound(err), err)
	})

	t.Run("no password", func(t *testing.T) {
		mockPasswords(t)
		err := cli.run([]string{"resetpassword", "--email", usr.Email})
		require.Error(t, err)
		assert.True(t, core.IsUserError(err), err)
	})
}

func Test_commandLine_seed(t *testing.T) {
	cli, env, out := setup(t)

	path := filepath.Join(t.TempDir(), "modules.yaml")
	writeSeed := func(content string) {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	writeSeed(`
modules:
  - title: Fundamentos
    order: 1
    status: in_progress
  - title: Fuerza
    order: 2
`)
	require.NoError(t, cli.run([]string{"seed", "-f", path}))
	assert.Contains(t, out.String(), " 1. Fundamentos (in_progress)")
	assert.Contains(t, out.String(), " 2. Fuerza (planned)")

	// matched by order
	writeSeed(`
modules:
  - title: Fuerza y movilidad
    order: 2
`)
	require.NoError(t, cli.run([]string{"seed", "-f", path}))

	mods, err := env.AcademySvc.ListModules(context.Background())
	require.NoError(t, err)
	require.Len(t, mods, 2)
	assert.Equal(t, "Fuerza y movilidad", mods[1].Title)

	t.Run("unknown field", func(t *testing.T) {
		writeSeed("modules:\n  - title: X\n    colour: red\n")
		assert.Error(t, cli.run([]string{"seed", "-f", path}))
	})

	t.Run("empty", func(t *testing.T) {
		writeSeed("modules: []\n")
		assert.EqualError(t, cli.run([]string{"seed", "-f", path}), "seed file lists no modules")
	})

	t.Run("stdin", func(t *testing.T) {
		root := cli.newRootCmd()
		root.SetIn(strings.NewReader("modules:\n  - title: Nutrición\n    order: 3\n"))
		root.SetArgs([]string{"seed", "-f", "-"})
		require.NoError(t, root.Execute())

		mods, err := env.AcademySvc.ListModules(context.Background())
		require.NoError(t, err)
		assert.Len(t, mods, 3)
	})
}

func Test_commandLine_lessons(t *testing.T) {
	cli, env, out := setup(t)

	mod := testutil.SeedModule(t, env.AcademySvc, "Fundamentos", 1)

	require.NoError(t, cli.run([]string{"lessons", "add", "--module", mod.ID, "--title", "Sentadilla"}))
	assert.Contains(t, out.String(), "✓ Lección creada")
	assert.Contains(t, out.String(), " 1. Sentadilla [planned] 0%")

	lessons, err := env.AcademySvc.ListLessons(context.Background(), academy.LessonFilter{ModuleID: mod.ID})
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	tree, err := env.AcademySvc.GetLessonTree(context.Background(), lessons[0].ID)
	require.NoError(t, err)
	assert.Len(t, tree.Blocks, academy.BlocksPerLesson)

	t.Run("ls shows progress", func(t *testing.T) {
		_, err := env.AcademySvc.SaveBlock(context.Background(), tree.Blocks[0].ID, academy.BlockContent{KeyPoints: "k", FullContent: "c"})
		require.NoError(t, err)

		out.Reset()
		require.NoError(t, cli.run([]string{"lessons", "ls", "--module", mod.ID}))
		assert.Contains(t, out.String(), "Fundamentos [planned] 13%")
		assert.Contains(t, out.String(), "Sentadilla [planned] 13%")
		assert.Contains(t, out.String(), "prompts_ready 40%")
	})

	t.Run("unknown module", func(t *testing.T) {
		out.Reset()
		err := cli.run([]string{"lessons", "add", "--module", "nope", "--title", "X"})
		assert.True(t, core.IsNotFound(err), err)
		assert.Contains(t, out.String(), "✗ "+core.UserMessage(err))
	})

	t.Run("rm", func(t *testing.T) {
		require.NoError(t, cli.run([]string{"lessons", "rm", lessons[0].ID}))
		_, err := env.AcademySvc.GetLessonTree(context.Background(), lessons[0].ID)
		assert.True(t, core.IsNotFound(err))

		err = cli.run([]string{"lessons", "rm", lessons[0].ID})
		assert.True(t, core.IsNotFound(err), err)
	})
}

func Test_commandLine_tasks(t *testing.T) {
	cli, env, out := setup(t)

	staff := testutil.CreateUser(t, env.UserRepo, "Staff", "staff@lajungla.es", "", []string{user.RoleStaffAcademy}, true)
	tutor := testutil.CreateUser(t, env.UserRepo, "Tutor", "tutor@lajungla.es", "", []string{user.RoleTutor}, true)
	testutil.CreateUser(t, env.UserRepo, "Gone", "gone@lajungla.es", "", []string{user.RoleStaff}, false)

	require.NoError(t, cli.run([]string{
		"tasks", "add", "--as", staff.Email, "--title", "Grabar bloque 1",
		"--assign", tutor.Email, "--due", "2026-03-02",
	}))
	assert.Contains(t, out.String(), "✓ Tarea creada")
	assert.Contains(t, out.String(), "PENDING (1)")
	assert.Contains(t, out.String(), "Grabar bloque 1 due 2026-03-02")

	tasks, err := env.TaskSvc.List(context.Background(), task.Filter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, staff.ID, tasks[0].CreatedBy)
	assert.Equal(t, []string{tutor.ID}, tasks[0].AssignedTo)
	assert.Equal(t, string(task.AcademyNormal), tasks[0].Priority)
	require.Len(t, env.Mail.SentMessages(), 1)

	runCLITests(t, cli, []cliTest{
		{name: "unknown actor", args: []string{"tasks", "add", "--as", "nope@lajungla.es", "--title", "X"}, wantErrStr: "--as nope@lajungla.es"},
		{name: "inactive actor", args: []string{"tasks", "add", "--as", "gone@lajungla.es", "--title", "X"}, wantErrStr: "account deactivated"},
		{name: "unknown assignee", args: []string{"tasks", "add", "--title", "X", "--assign", "nope@lajungla.es"}, wantErrStr: "assignee nope@lajungla.es"},
		{name: "bad due date", args: []string{"tasks", "add", "--title", "X", "--due", "tomorrow"}, wantErrStr: "--due must be YYYY-MM-DD"},
		{name: "blank title", args: []string{"tasks", "add", "--title", "  "}, wantErr: true},
	})

	t.Run("ls", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"tasks", "ls", "--subsystem", "online"}))
		assert.Contains(t, out.String(), "BLOCKED (0)")
		assert.NotContains(t, out.String(), "Grabar bloque 1")
	})
}

func Test_commandLine_blocks(t *testing.T) {
	cli, env, out := setup(t)

	mod := testutil.SeedModule(t, env.AcademySvc, "Fundamentos", 1)
	tree := testutil.CreateLesson(t, env.AcademySvc, mod.ID, "Sentadilla")
	blockID := tree.Blocks[0].ID
	stored := func(t *testing.T) academy.Block {
		blocks, err := env.AcademySvc.ListBlocks(context.Background(), tree.Lesson.ID)
		require.NoError(t, err)
		for _, b := range blocks {
			if b.ID == blockID {
				return b
			}
		}
		t.Fatalf("block %s not stored", blockID)
		return academy.Block{}
	}

	require.NoError(t, cli.run([]string{"blocks", "save", blockID, "--lesson", tree.Lesson.ID, "--key-points", "rodillas fuera", "--content", "guion"}))
	assert.Contains(t, out.String(), "✓ Bloque guardado")
	assert.Contains(t, out.String(), "prompts_ready 40%")
	blk := stored(t)
	assert.Equal(t, "rodillas fuera", blk.KeyPoints)
	assert.Equal(t, academy.DefaultBlockTitle(1), blk.Title)

	t.Run("flags left out keep their value", func(t *testing.T) {
		require.NoError(t, cli.run([]string{"blocks", "save", blockID, "--lesson", tree.Lesson.ID, "--prompt", "slides"}))
		blk := stored(t)
		assert.Equal(t, "rodillas fuera", blk.KeyPoints)
		assert.Equal(t, "slides", blk.GensparkPrompt)
		assert.Equal(t, 50, blk.ProgressPercentage)
	})

	t.Run("add-downloadable", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"blocks", "add-downloadable", blockID, "--lesson", tree.Lesson.ID, "--name", "Guía", "--prompt", "genera una guía"}))
		assert.Contains(t, out.String(), "✓ Descargable añadido")
		assert.Contains(t, out.String(), "Guía [pdf, pending]")
		assert.Equal(t, 65, stored(t).ProgressPercentage)
	})

	t.Run("ls", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"blocks", "ls", tree.Lesson.ID}))
		assert.Contains(t, out.String(), "Sentadilla [planned]")
		assert.Contains(t, out.String(), "prompts_ready 65%")
	})

	t.Run("invalid content", func(t *testing.T) {
		out.Reset()
		err := cli.run([]string{"blocks", "save", blockID, "--lesson", tree.Lesson.ID, "--video", "not a url"})
		assert.True(t, core.IsUserError(err), err)
		assert.Contains(t, out.String(), "✗ ")
		assert.Empty(t, stored(t).VideoURL)
	})

	runCLITests(t, cli, []cliTest{
		{name: "lesson required", args: []string{"blocks", "save", blockID}, wantErrStr: `required flag(s) "lesson" not set`},
		{name: "block of another lesson", args: []string{"blocks", "save", "nope", "--lesson", tree.Lesson.ID}, wantErrStr: "is not part of lesson"},
		{name: "unknown lesson", args: []string{"blocks", "ls", "nope"}, wantErr: true},
	})
}

func Test_commandLine_calendar(t *testing.T) {
	cli, env, out := setup(t)

	require.NoError(t, cli.run([]string{"calendar", "add", "--title", "Reto 30 días", "--type", "Reel"}))
	assert.Contains(t, out.String(), "✓ Contenido creado")
	assert.Contains(t, out.String(), "Reto 30 días [reel]")

	items, err := env.CalendarSvc.ListContentItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	out.Reset()
	require.NoError(t, cli.run([]string{"calendar", "schedule", items[0].ID, "--platform", "Instagram", "--at", "2026-03-02T10:00", "--caption", "hoy empieza"}))
	assert.Contains(t, out.String(), "✓ Publicación programada")
	assert.Contains(t, out.String(), "2026-03-02T10:00 instagram [scheduled] Reto 30 días")

	events, err := env.CalendarSvc.ListEvents(context.Background(), calendar.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "hoy empieza", events[0].Caption)

	t.Run("ls window", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"calendar", "ls", "--from", "2026-03-02", "--to", "2026-03-03"}))
		assert.Contains(t, out.String(), "1 publications")

		out.Reset()
		require.NoError(t, cli.run([]string{"calendar", "ls", "--from", "2026-03-03"}))
		assert.Contains(t, out.String(), "0 publications")
	})

	t.Run("cancel", func(t *testing.T) {
		require.NoError(t, cli.run([]string{"calendar", "cancel", events[0].ID}))
		events, err := env.CalendarSvc.ListEvents(context.Background(), calendar.EventFilter{})
		require.NoError(t, err)
		assert.Equal(t, calendar.Cancelled, events[0].Status)
	})

	t.Run("unknown content", func(t *testing.T) {
		err := cli.run([]string{"calendar", "schedule", "nope", "--platform", "tiktok", "--at", "2026-03-02T10:00"})
		assert.True(t, core.IsNotFound(err), err)
	})

	runCLITests(t, cli, []cliTest{
		{name: "bad time", args: []string{"calendar", "schedule", items[0].ID, "--platform", "tiktok", "--at", "mañana"}, wantErrStr: "--at must be"},
		{name: "bad day", args: []string{"calendar", "ls", "--from", "03/02"}, wantErrStr: "--from must be YYYY-MM-DD"},
		{name: "blank platform", args: []string{"calendar", "schedule", items[0].ID, "--platform", " ", "--at", "2026-03-02T10:00"}, wantErr: true},
	})
}

func Test_commandLine_roster(t *testing.T) {
	cli, env, out := setup(t)

	tutor := testutil.CreateUser(t, env.UserRepo, "Tutor", "tutor@lajungla.es", "", []string{user.RoleTutor}, true)
	staff := testutil.CreateUser(t, env.UserRepo, "Staff", "staff@lajungla.es", "", []string{user.RoleStaff}, true)

	require.NoError(t, cli.run([]string{"roster", "center", tutor.ID, " Sevilla "}))
	assert.Contains(t, out.String(), "✓ Centro asignado")
	assert.Contains(t, out.String(), "Sevilla (1)")
	usr, err := env.UserSvc.GetByID(context.Background(), tutor.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sevilla", usr.Center)

	t.Run("deactivate and activate", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"roster", "deactivate", tutor.ID}))
		assert.Contains(t, out.String(), "✓ Tutor desactivado")
		assert.Contains(t, out.String(), "<tutor@lajungla.es> inactive")

		require.NoError(t, cli.run([]string{"roster", "activate", tutor.ID}))
		usr, err := env.UserSvc.GetByID(context.Background(), tutor.ID)
		require.NoError(t, err)
		assert.True(t, usr.IsActive)
	})

	t.Run("ls by center", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"roster", "ls", "--center", "Madrid"}))
		assert.NotContains(t, out.String(), "tutor@lajungla.es")

		out.Reset()
		require.NoError(t, cli.run([]string{"roster", "ls"}))
		assert.Contains(t, out.String(), "Tutor <tutor@lajungla.es> active")
		assert.NotContains(t, out.String(), "staff@lajungla.es")
	})

	runCLITests(t, cli, []cliTest{
		{name: "not a tutor", args: []string{"roster", "deactivate", staff.ID}, wantErrStr: "is not a tutor"},
		{name: "center needs a name", args: []string{"roster", "center", tutor.ID}, wantErrStr: "accepts 2 arg(s)"},
	})
}
