package cmd

import (
	"io"

	"github.com/btcsuite/btclog"

	"github.com/danielewood/vanitycrx/keygen"
	"github.com/danielewood/vanitycrx/pattern"
)

// log is the command's own logger. Subsystem loggers for the library
// packages are created alongside it in initLogging.
var log = btclog.Disabled

// subsystemTags lists the logger tags handed out by initLogging.
var subsystemTags = []string{"VCRX", "PTRN", "KGEN"}

// initLogging routes all subsystem loggers to w at the given level.
func initLogging(w io.Writer, level btclog.Level) {
	backend := btclog.NewBackend(w)
	loggers := make(map[string]btclog.Logger, len(subsystemTags))
	for _, tag := range subsystemTags {
		l := backend.Logger(tag)
		l.SetLevel(level)
		loggers[tag] = l
	}

	log = loggers["VCRX"]
	pattern.UseLogger(loggers["PTRN"])
	keygen.UseLogger(loggers["KGEN"])
}

// parseLogLevel returns the level named s. Quiet runs never log below warn.
func parseLogLevel(s string, quiet bool) (btclog.Level, bool) {
	level, ok := btclog.LevelFromString(s)
	if !ok {
		return level, false
	}
	if quiet && level < btclog.LevelWarn {
		level = btclog.LevelWarn
	}
	return level, true
}
