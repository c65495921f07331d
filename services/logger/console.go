package logsvc

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/semillerodigital/dashboard/core"
	"github.com/semillerodigital/dashboard/core/user"
)

var exitFunc = os.Exit // mockable

// ConsoleLogger writes structured entries with zerolog; human readable in debug mode, JSON otherwise.
type ConsoleLogger struct {
	zl zerolog.Logger
}

var _ core.Logger = (*ConsoleLogger)(nil)

func NewConsoleLogger(w io.Writer, conf *core.Config, component string) *ConsoleLogger {
	if conf.Debug && !conf.TestMode {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	level, err := zerolog.ParseLevel(conf.Log.Level)
	if err != nil || conf.Log.Level == "" {
		level = zerolog.InfoLevel
	}
	zl := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()
	return &ConsoleLogger{zl: zl}
}

// expected args: error, map[string]interface{}, user.User; anything else is logged as "argN"
func (l *ConsoleLogger) write(ev *zerolog.Event, msg string, args []interface{}) {
	for i, arg := range args {
		switch v := arg.(type) {
		case error:
			ev = ev.Err(v)
		case map[string]interface{}:
			ev = ev.Fields(v)
		case user.User:
			ev = ev.Str("user", v.Email).Str("role", string(v.Role))
		default:
			ev = ev.Interface(fmt.Sprintf("arg%d", i), v)
		}
	}
	ev.Msg(msg)
}

func (l *ConsoleLogger) Debug(msg string, args ...interface{}) { l.write(l.zl.Debug(), msg, args) }
func (l *ConsoleLogger) Info(msg string, args ...interface{})  { l.write(l.zl.Info(), msg, args) }
func (l *ConsoleLogger) Warn(msg string, args ...interface{})  { l.write(l.zl.Warn(), msg, args) }
func (l *ConsoleLogger) Error(msg string, args ...interface{}) { l.write(l.zl.Error(), msg, args) }

func (l *ConsoleLogger) Fatal(msg string, args ...interface{}) {
	l.write(l.zl.WithLevel(zerolog.FatalLevel), msg, args)
	exitFunc(1)
}
