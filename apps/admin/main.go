package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/academy"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/calendar"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/optimistic"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/task"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/user"
	emailsvc "github.com/lajunglaworkout/jungla-iberica-sub004/services/email"
	logsvc "github.com/lajunglaworkout/jungla-iberica-sub004/services/logger"
	"github.com/lajunglaworkout/jungla-iberica-sub004/storage/blob"
	"github.com/lajunglaworkout/jungla-iberica-sub004/storage/database"
	sqlxrepos "github.com/lajunglaworkout/jungla-iberica-sub004/storage/database/sqlx"
	"github.com/lajunglaworkout/jungla-iberica-sub004/storage/redislock"
)

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZap(conf.Debug)
	if err != nil {
		log.Fatalf("setting up zap: %v", err)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("admin"), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")

	code := run(conf, logger)
	logger.Sync()
	os.Exit(code)
}

func run(conf *core.Config, logger *logsvc.RollbarLogger) int {
	ctx := context.Background()

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Error(fmt.Sprintf("opening database: %v", err), err)
		return 1
	}
	defer func() { _ = db.Close() }()

	blobs, err := blob.Open(ctx, conf, logger)
	if err != nil {
		logger.Error(fmt.Sprintf("setting up blob store: %v", err), err)
		return 1
	}

	// mutations are serialized with the API instances when redis is configured
	var locker optimistic.Locker
	if conf.Redis.Address != "" {
		client, err := redislock.Connect(ctx, conf.Redis)
		if err != nil {
			logger.Error(fmt.Sprintf("connecting to redis: %v", err), err)
			return 1
		}
		defer func() { _ = client.Close() }()
		locker = redislock.New(client, conf.Redis.LockTTL, logger)
	}

	// start CLI
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db))
	cli := commandLine{
		db:          db,
		logger:      logger,
		usrSvc:      usrSvc,
		academySvc:  academy.NewService(sqlxrepos.NewAcademyRepository(db), blobs, conf.UploadLimits(), logger),
		taskSvc:     task.NewService(sqlxrepos.NewTaskRepository(db), usrSvc, emailsvc.New(conf, logger), logger),
		calendarSvc: calendar.NewService(sqlxrepos.NewCalendarRepository(db)),
		out:         os.Stdout,
	}
	cli.sync = optimistic.NewController(locker, &toastPrinter{out: os.Stderr}, logger, nil, conf.Sync.ToastDuration)

	if err := cli.run(os.Args[1:]); err != nil {
		red.Fprintf(os.Stderr, "\nerror: %s\n", err)
		return 1
	}
	return 0
}
