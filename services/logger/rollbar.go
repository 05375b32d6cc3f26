package logsvc

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/user"
)

// RollbarLogger reports to Rollbar and echoes every entry to a standard logger.
// Rollbar stays disabled without a token, in debug and in test mode.
type RollbarLogger struct {
	std    *log.Logger
	client *rollbar.Client
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	client := rollbar.New(conf.RollbarToken, conf.Env, conf.Build, conf.Server.Host, "")
	client.SetStackTracer(errors.StackTracer)
	client.SetEnabled(conf.RollbarToken != "" && !conf.Debug && !conf.TestMode)
	return &RollbarLogger{std: std, client: client}
}

func (l RollbarLogger) Enable(enabled bool) {
	l.client.SetEnabled(enabled)
}

// entry is a log call with its args sorted out: the acting user, the first error, and the
// remaining values as Rollbar extras.
type entry struct {
	actor  *user.User
	err    error
	extras map[string]interface{}
}

// parseArgs sorts args. Maps are merged into the extras; the groups (baraks) of the first user
// are added as "groups"; any other value is kept as "argN".
func parseArgs(args []interface{}) entry {
	e := entry{extras: make(map[string]interface{})}
	for i, arg := range args {
		switch v := arg.(type) {
		case user.User:
			if e.actor == nil {
				e.actor = &v
				if len(v.Groups) > 0 {
					e.extras["groups"] = strings.Join(v.Groups, ",")
				}
			}
		case error:
			if e.err == nil {
				e.err = v
			} else {
				e.extras[fmt.Sprintf("arg%d", i)] = v.Error()
			}
		case map[string]interface{}:
			for k, x := range v {
				e.extras[k] = x
			}
		default:
			e.extras[fmt.Sprintf("arg%d", i)] = v
		}
	}
	return e
}

func (l RollbarLogger) log(level, msg string, args []interface{}) {
	e := parseArgs(args)

	if e.actor != nil {
		l.client.SetPerson(e.actor.ID, e.actor.Username, e.actor.Email)
	} else {
		l.client.ClearPerson()
	}
	if e.err != nil {
		e.extras["message"] = msg
		l.client.ErrorWithExtras(level, e.err, e.extras)
	} else {
		l.client.MessageWithExtras(level, msg, e.extras)
	}

	l.std.Print(format(level, msg, e))
}

func format(level, msg string, e entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", strings.ToUpper(level), msg)
	if e.actor != nil {
		fmt.Fprintf(&b, " [user %s]", e.actor.ID)
	}
	if e.err != nil {
		fmt.Fprintf(&b, "\n\t%+v", e.err)
	}
	keys := make([]string, 0, len(e.extras))
	for k := range e.extras {
		if k != "message" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n\t%s=%+v", k, e.extras[k])
	}
	return b.String()
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.DEBUG, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, msg, args) }

// Fatal flushes the pending Rollbar items before exiting.
func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	l.client.Wait()
	l.std.Fatal(msg)
}
