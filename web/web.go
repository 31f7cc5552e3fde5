// Package web provides the HTTP server of the prestamos API, including routing,
// middleware and background job scheduling.
package web

import (
	"context"
	"embed"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prestamos-sa/prestamos/config"
	"github.com/prestamos-sa/prestamos/logger"
	"github.com/prestamos-sa/prestamos/util/common"
	"github.com/prestamos-sa/prestamos/web/controller"
	"github.com/prestamos-sa/prestamos/web/entity"
	"github.com/prestamos-sa/prestamos/web/job"
	"github.com/prestamos-sa/prestamos/web/locale"
	"github.com/prestamos-sa/prestamos/web/middleware"
	"github.com/prestamos-sa/prestamos/web/service"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

//go:embed translation/*
var i18nFS embed.FS

const shutdownTimeout = 10 * time.Second

// Server represents the API server with its controllers, services and scheduled jobs.
type Server struct {
	cfg *config.Config

	httpServer *http.Server
	listener   net.Listener
	engine     *gin.Engine

	index    *controller.IndexController
	user     *controller.UserController
	material *controller.MaterialController
	loan     *controller.LoanController

	authService     *service.AuthService
	userService     *service.UserService
	materialService *service.MaterialService
	loanService     *service.LoanService

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer wires the services over db and builds the router. The returned
// server does not listen until Start is called.
func NewServer(cfg *config.Config, db *gorm.DB) (*Server, error) {
	if err := locale.InitLocalizer(i18nFS); err != nil {
		return nil, err
	}

	tokens := service.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:             cfg,
		authService:     service.NewAuthService(db, tokens),
		userService:     service.NewUserService(db),
		materialService: service.NewMaterialService(db),
		loanService:     service.NewLoanService(db),
		ctx:             ctx,
		cancel:          cancel,
	}
	s.engine = s.initRouter()
	return s, nil
}

// initRouter initializes Gin, registers middleware and controllers and
// returns the configured engine.
func (s *Server) initRouter() *gin.Engine {
	if s.cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.CORSMiddleware(s.cfg.CORSOrigins))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))
	engine.Use(locale.LocalizerMiddleware())

	g := engine.Group("/")
	protected := engine.Group("/", middleware.BearerAuth(s.authService, service.ErrUnauthorized))

	s.index = controller.NewIndexController(g, protected, s.authService)
	s.user = controller.NewUserController(g, protected, s.userService)
	s.material = controller.NewMaterialController(protected, s.materialService)
	s.loan = controller.NewLoanController(protected, s.loanService)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, entity.Msg{Msg: locale.I18n(c, "request.notFound")})
	})

	return engine
}

// Handler returns the router, for serving without a listener.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// startTask schedules the background jobs.
func (s *Server) startTask() error {
	_, err := s.cron.AddJob(s.cfg.OverdueCheckCron, job.NewOverdueLoanJob(s.loanService))
	if err != nil {
		return common.NewErrorf("schedule overdue loan check %q: %v", s.cfg.OverdueCheckCron, err)
	}
	logger.Infof("overdue loan check scheduled at %s", s.cfg.OverdueCheckCron)
	return nil
}

// Start schedules the jobs and begins serving on the configured address.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	s.cron = cron.New(cron.WithLocation(time.UTC))
	if err = s.startTask(); err != nil {
		return err
	}
	s.cron.Start()

	listenAddr := net.JoinHostPort(s.cfg.Listen, strconv.Itoa(s.cfg.Port))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	logger.Notice("Web server running HTTP on", listener.Addr())

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.ctx },
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve:", err)
		}
	}()

	return nil
}

// Stop stops the cron jobs and gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	var err1, err2 error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err1 = s.httpServer.Shutdown(ctx)
	} else if s.listener != nil {
		err2 = s.listener.Close()
	}
	s.cancel()
	return common.Combine(err1, err2)
}
