// This file wraps seelog behind a small package-level API so
// call sites never import seelog directly.

package log

import (
	"fmt"

	"github.com/cihub/seelog"
)

var log seelog.LoggerInterface = seelog.Disabled

// Init configures the logger from a verbosity level (trace/debug/info/warn/
// error) instead of an XML config file — there is no on-device config
// directory for seelog's usual file-based setup.
func Init(verbosity string) error {
	minLevel := levelFor(verbosity)
	config := fmt.Sprintf(`
<seelog minlevel="%s">
	<outputs formatid="main">
		<console/>
	</outputs>
	<formats>
		<format id="main" format="%%Date %%Time [%%LEV] %%Msg%%n"/>
	</formats>
</seelog>`, minLevel)

	l, err := seelog.LoggerFromConfigAsString(config)
	if err != nil {
		return err
	}
	if err := l.SetAdditionalStackDepth(1); err != nil {
		return err
	}
	log = l
	return nil
}

func levelFor(verbosity string) string {
	switch verbosity {
	case "trace":
		return "trace"
	case "debug":
		return "debug"
	case "warn":
		return "warn"
	case "error":
		return "error"
	default:
		return "info"
	}
}

func Debugf(format string, params ...interface{}) { log.Debugf(format, params...) }
func Infof(format string, params ...interface{})  { log.Infof(format, params...) }
func Warnf(format string, params ...interface{})  { log.Warnf(format, params...) }
func Errorf(format string, params ...interface{}) { log.Errorf(format, params...) }

func Debug(v ...interface{}) { log.Debug(v...) }
func Info(v ...interface{})  { log.Info(v...) }
func Warn(v ...interface{})  { log.Warn(v...) }
func Error(v ...interface{}) { log.Error(v...) }

// Flush blocks until all buffered log entries are written, for use before
// process exit.
func Flush() { log.Flush() }
