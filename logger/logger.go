// Package logger builds the logharbour logger shared by the server and the CLI.
package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/remiges-tech/logharbour/logharbour"
)

var priorities = map[string]logharbour.LogPriority{
	"debug2": logharbour.Debug2,
	"debug1": logharbour.Debug1,
	"debug0": logharbour.Debug0,
	"info":   logharbour.Info,
	"warn":   logharbour.Warn,
	"err":    logharbour.Err,
	"crit":   logharbour.Crit,
	"sec":    logharbour.Sec,
}

// ParsePriority maps a config value such as "info" or "debug2" to a
// logharbour priority. An empty string yields the logharbour default.
func ParsePriority(s string) (logharbour.LogPriority, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return logharbour.DefaultPriority, nil
	}
	p, ok := priorities[s]
	if !ok {
		return 0, fmt.Errorf("unknown log priority %q", s)
	}
	return p, nil
}

// New creates a logger for appName writing JSON lines to w. An unknown
// priority falls back to the logharbour default.
func New(appName, priority string, w io.Writer) *logharbour.Logger {
	p, err := ParsePriority(priority)
	if err != nil {
		p = logharbour.DefaultPriority
	}
	return logharbour.NewLogger(logharbour.NewLoggerContext(p), appName, w)
}
