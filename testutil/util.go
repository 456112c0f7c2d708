package testutil

import (
	"context"
	"net/mail"
	"testing"
	"time"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/academy"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/calendar"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/task"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/user"
	emailsvc "github.com/lajunglaworkout/jungla-iberica-sub004/services/email"
	"github.com/lajunglaworkout/jungla-iberica-sub004/storage/blob"
	inmemdb "github.com/lajunglaworkout/jungla-iberica-sub004/storage/database/inmem"
)

// Env is a complete set of services over the in-memory store.
type Env struct {
	Conf  *core.Config
	DB    *inmemdb.DB
	Mail  *emailsvc.ConsoleService
	Blobs *blob.Local

	UserRepo user.Repository

	UserSvc     *user.Service
	AcademySvc  *academy.Service
	TaskSvc     *task.Service
	CalendarSvc *calendar.Service
}

func NewConfig() *core.Config {
	return &core.Config{
		AppName:          "La Jungla",
		Env:              "TEST",
		TestMode:         true,
		SecretKey:        "test-secret",
		DefaultFromEmail: mail.Address{Name: "La Jungla Academy", Address: "noreply@test.es"},
		Server: core.ServerConfig{
			Host:                      "localhost",
			Address:                   ":8000",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Storage: core.StorageConfig{
			Backend:         "local",
			MaxVideoSize:    500 * core.MB,
			MaxDocumentSize: 50 * core.MB,
		},
		Sync: core.SyncConfig{ToastDuration: 50 * time.Millisecond},
	}
}

func NewEnv(t *testing.T) *Env {
	conf := NewConfig()
	conf.Storage.LocalDir = t.TempDir()

	blobs, err := blob.NewLocal(conf.Storage.LocalDir, "http://localhost:8000")
	if err != nil {
		t.Fatalf("NewEnv() failed: %v", err)
	}

	db := inmemdb.Open()
	env := &Env{
		Conf:     conf,
		DB:       db,
		Mail:     emailsvc.NewConsoleServiceMock(conf),
		Blobs:    blobs,
		UserRepo: inmemdb.NewUserRepository(db),
	}
	env.UserSvc = user.NewService(env.UserRepo)
	env.AcademySvc = academy.NewService(inmemdb.NewAcademyRepository(db), blobs, conf.UploadLimits(), core.NopLogger{})
	env.TaskSvc = task.NewService(inmemdb.NewTaskRepository(db), env.UserSvc, env.Mail, core.NopLogger{})
	env.CalendarSvc = calendar.NewService(inmemdb.NewCalendarRepository(db))
	return env
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// SeedModule creates a module with the given order.
func SeedModule(t *testing.T, svc *academy.Service, title string, order int) academy.Module {
	mods, err := svc.SeedModules(context.Background(), []academy.NewModule{{Title: title, Order: order}})
	if err != nil || len(mods) == 0 {
		t.Fatalf("SeedModule() failed: %v", err)
	}
	return mods[0]
}

// CreateLesson creates a lesson (and its three blocks) in module.
func CreateLesson(t *testing.T, svc *academy.Service, moduleID, title string) academy.LessonTree {
	tree, err := svc.CreateLesson(context.Background(), academy.NewLesson{ModuleID: moduleID, Title: title})
	if err != nil {
		t.Fatalf("CreateLesson() failed: %v", err)
	}
	return tree
}
