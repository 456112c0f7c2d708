package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/academy"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/calendar"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/optimistic"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/task"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/user"
	"github.com/lajunglaworkout/jungla-iberica-sub004/storage/blob"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		UserSvc        *user.Service
		AcademySvc     *academy.Service
		TaskSvc        *task.Service
		CalendarSvc    *calendar.Service
		Registry       *prometheus.Registry // nil: no request metrics, no /metrics
		Locker         optimistic.Locker    // shared with the admin CLI; nil: in-process locks
		FilesDir       string               // served under blob.LocalRoute when uploads are stored locally
		DisableReqLogs bool
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		sync     *optimistic.Controller
		jwtConf  middleware.JWTConfig
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ http.Handler = (*Server)(nil)

func NewServer(deps ServerDeps) *Server {
	if deps.Logger == nil {
		deps.Logger = core.NopLogger{}
	}
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		jwtConf:  newJWTConfig(deps.Conf),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	var metrics *optimistic.Metrics
	if deps.Registry != nil {
		metrics = optimistic.NewMetrics(deps.Registry)
	}
	s.sync = optimistic.NewController(deps.Locker, nil, deps.Logger, metrics, 0)
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if s.deps.Registry != nil {
		s.app.Use(newHTTPMetrics(s.deps.Registry).middleware)
		s.app.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.deps.Registry, promhttp.HandlerOpts{})))
	}
	if s.deps.FilesDir != "" {
		s.app.Static(blob.LocalRoute, s.deps.FilesDir)
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(s.jwtConf)
	authed := v1.Group("", jwt, identityMiddleware)
	staff := authed.Group("", staffOrReadOnlyMiddleware)

	registerAuthAPI(v1, authed, s)
	registerUserAPI(authed, s.deps.UserSvc)
	registerRosterAPI(staff, s.deps.UserSvc, s.sync)
	registerAcademyAPI(staff, s.deps.AcademySvc, s.sync)
	registerTaskAPI(staff, s.deps.TaskSvc, s.sync)
	registerCalendarAPI(staff, s.deps.CalendarSvc, s.sync)
}

// Start listens on the configured address. Listener failures are reported on Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
