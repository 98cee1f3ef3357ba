// Package logsvc reports client and gateway events to Rollbar and echoes them to a std logger.
package logsvc

import (
	"log"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/olympia/core"
)

type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewRollbarLogger points the shared Rollbar notifier at conf.
// Reporting stays off without a token and in debug or test mode; std always gets the entries.
func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(strings.ToLower(conf.Env))
	rollbar.SetServerHost(conf.Gateway.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.Debug && !conf.TestMode)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.DEBUG, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, msg, args) }

// Fatal waits for queued reports to be sent before exiting.
func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}

// log sends msg and its args (errors, extras maps) at level. The first core.Person among args
// identifies the caller of the request being logged and is not sent as an arg.
func (l RollbarLogger) log(level, msg string, args []interface{}) {
	items, person := splitPerson(msg, args)
	if person != nil && person.ID != "" {
		rollbar.SetPerson(person.ID, person.Username, person.Email)
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, items...)

	l.std.Printf("%s %s", strings.ToUpper(level), msg)
	for _, arg := range args {
		l.std.Printf("\t%+v", arg)
	}
}

func splitPerson(msg string, args []interface{}) ([]interface{}, *core.Person) {
	var person *core.Person
	items := make([]interface{}, 0, len(args)+1)
	items = append(items, msg)
	for _, arg := range args {
		if p, ok := arg.(core.Person); ok {
			if person == nil {
				person = &p
			}
			continue
		}
		items = append(items, arg)
	}
	return items, person
}
