package ctxlog

import (
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
)

type LevelLogger interface {
	log.Logger
	Debug(keyvals ...interface{})
	Info(keyvals ...interface{})
	Warn(keyvals ...interface{})
	Error(keyvals ...interface{})
}

type goKitLevelLogger struct {
	log.Logger
}

func (l goKitLevelLogger) Debug(keyvals ...interface{}) {
	_ = level.Debug(l.Logger).Log(keyvals...)
}

func (l goKitLevelLogger) Info(keyvals ...interface{}) {
	_ = level.Info(l.Logger).Log(keyvals...)
}

func (l goKitLevelLogger) Warn(keyvals ...interface{}) {
	_ = level.Warn(l.Logger).Log(keyvals...)
}

func (l goKitLevelLogger) Error(keyvals ...interface{}) {
	_ = level.Error(l.Logger).Log(keyvals...)
}

// NewLevelFilter wraps logger so that only entries at or above the named level
// (debug, info, warn, error or none) are written.
func NewLevelFilter(logger log.Logger, lvl string) (log.Logger, error) {
	var opt level.Option
	switch strings.ToLower(lvl) {
	case "debug":
		opt = level.AllowDebug()
	case "info":
		opt = level.AllowInfo()
	case "warn":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	case "none":
		opt = level.AllowNone()
	default:
		return nil, errors.Errorf("unknown log level %q", lvl)
	}
	return level.NewFilter(logger, opt), nil
}
