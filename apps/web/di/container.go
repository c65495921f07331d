package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoweb "github.com/semillerodigital/dashboard/apps/web/echo"
	"github.com/semillerodigital/dashboard/core"
	"github.com/semillerodigital/dashboard/core/classroom"
	"github.com/semillerodigital/dashboard/core/seal"
	"github.com/semillerodigital/dashboard/core/user"
	classroomsvc "github.com/semillerodigital/dashboard/services/classroom"
	logsvc "github.com/semillerodigital/dashboard/services/logger"
	oauthsvc "github.com/semillerodigital/dashboard/services/oauth"
)

type ClassroomLoggerParam struct {
	dig.In
	Logger core.Logger `name:"classroomLogger"`
}

type ServerParams struct {
	dig.In
	Conf          *core.Config
	Logger        core.Logger
	ClassroomSvc  *classroom.Service
	Authenticator oauthsvc.Authenticator
	Allowlist     *user.Allowlist
	Sealer        *seal.Sealer
	Renderer      *echoweb.Renderer
	Validate      *validator.Validate
	Translator    ut.Translator
}

func newLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewConsoleLogger(os.Stdout, conf, "web"), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newClassroomLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewConsoleLogger(os.Stdout, conf, "classroom"), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newAllowlist(conf *core.Config) *user.Allowlist {
	return user.NewAllowlist(conf.CoordinatorEmails...)
}

func newSealer(conf *core.Config) (*seal.Sealer, error) {
	return seal.New(conf.SecretKey)
}

// newClassroomProvider reads the fixture file when one is configured (debug mode only), Google Classroom otherwise.
func newClassroomProvider(conf *core.Config, logger core.Logger) (classroom.Provider, error) {
	if conf.UseFixtures() {
		logger.Info(fmt.Sprintf("serving classroom data from %s", conf.Classroom.FixturesPath))
		return classroomsvc.NewFixtureProvider(conf)
	}
	return classroomsvc.NewGoogleProvider(conf), nil
}

func newAuthenticator(conf *core.Config) oauthsvc.Authenticator {
	if conf.UseFixtures() {
		return oauthsvc.NewDevAuthenticator(conf)
	}
	return oauthsvc.NewGoogleAuthenticator(conf)
}

func newClassroomService(conf *core.Config, loggerParam ClassroomLoggerParam, provider classroom.Provider) *classroom.Service {
	return classroom.NewService(conf, loggerParam.Logger, provider)
}

func newServer(params ServerParams) *echoweb.Server {
	return echoweb.NewServer(echoweb.ServerDeps{
		Conf:          params.Conf,
		Logger:        params.Logger,
		ClassroomSvc:  params.ClassroomSvc,
		Authenticator: params.Authenticator,
		Allowlist:     params.Allowlist,
		Sealer:        params.Sealer,
		Renderer:      params.Renderer,
		Validate:      params.Validate,
		Translator:    params.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newClassroomLogger, dig.Name("classroomLogger")))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newAllowlist))
	must(c.Provide(newSealer))
	must(c.Provide(newClassroomProvider))
	must(c.Provide(newAuthenticator))
	must(c.Provide(newClassroomService))
	must(c.Provide(echoweb.NewRenderer))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
