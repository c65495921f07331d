package echoweb

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/semillerodigital/dashboard/core"
	"github.com/semillerodigital/dashboard/core/classroom"
	"github.com/semillerodigital/dashboard/core/seal"
	"github.com/semillerodigital/dashboard/core/user"
	oauthsvc "github.com/semillerodigital/dashboard/services/oauth"
)

type (
	ServerDeps struct {
		Conf          *core.Config
		Logger        core.Logger
		ClassroomSvc  *classroom.Service
		Authenticator oauthsvc.Authenticator
		Allowlist     *user.Allowlist
		Sealer        *seal.Sealer
		Renderer      *Renderer
		Validate      *validator.Validate
		Translator    ut.Translator
	}

	Server struct {
		*http.Server
		conf       *core.Config
		logger     core.Logger
		svc        *classroom.Service
		auth       oauthsvc.Authenticator
		allowlist  *user.Allowlist
		sealer     *seal.Sealer
		validate   *validator.Validate
		translator ut.Translator
		app        *echo.Echo
		errors     chan error
		shutdown   chan os.Signal
	}
)

var _ http.Handler = (*Server)(nil)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		Server: &http.Server{
			Addr:         deps.Conf.Server.Address,
			ReadTimeout:  deps.Conf.Server.ReadTimeout,
			WriteTimeout: deps.Conf.Server.WriteTimeout,
		},
		conf:       deps.Conf,
		logger:     deps.Logger,
		svc:        deps.ClassroomSvc,
		auth:       deps.Authenticator,
		allowlist:  deps.Allowlist,
		sealer:     deps.Sealer,
		validate:   deps.Validate,
		translator: deps.Translator,
		app:        echo.New(),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	s.Server.Handler = s.app
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	s.setup(deps.Renderer)
	return s
}

func (s *Server) setup(renderer *Renderer) {
	debug := s.conf.Debug

	s.app.HideBanner = true
	s.app.Renderer = renderer
	s.app.HTTPErrorHandler = s.newAppHTTPErrorHandler(s.signalShutdown)
	s.app.Debug = debug && !s.conf.TestMode

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	if !s.conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.Secure())
	s.app.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "form:_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   s.conf.Server.SecureCookies,
	}))

	session := middleware.JWTWithConfig(s.jwtConfig())

	// public
	s.app.GET("/", s.home)
	s.app.GET("/healthz", healthz)
	s.app.GET("/unauthorized", s.unauthorized)
	s.app.GET("/login", s.login)
	s.app.GET("/auth/callback", s.authCallback)

	// signed in
	s.app.POST("/logout", s.logout, session)
	s.app.GET("/me", s.myCourses, session)
	s.app.GET("/dashboard", s.dashboard, session, s.coordinatorMiddleware)
	s.app.GET("/dashboard/course/:courseId", s.course, session)
	s.app.GET("/dashboard/course/:courseId/work/:courseWorkId", s.courseWork, session)
}

// Start listens until the server is shut down; a listening failure is sent to Errors.
func (s *Server) Start() {
	s.logger.Info("server listening on " + s.Addr)
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.Server.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// render wraps data in a Page with the request's user and CSRF token.
func (s *Server) render(ctx echo.Context, code int, name, title string, data interface{}) error {
	csrf, _ := ctx.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return ctx.Render(code, name, Page{
		AppName: s.conf.AppName,
		Title:   title,
		User:    s.optionalUser(ctx),
		CSRF:    csrf,
		Data:    data,
	})
}

func healthz(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "ok")
}
