package logger

import (
	"strings"

	"github.com/pkg/errors"
)

// Level is the level at which a logger is configured. All messages sent
// to a level which is below the current level are filtered.
type Level uint32

// Level constants.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

// levelStrs defines the human-readable names for each logging level.
var levelStrs = [...]string{"TRC", "DBG", "INF", "WRN", "ERR", "CRT", "OFF"}

// LevelFromString returns a level based on the input string s. If the input
// can't be interpreted as a valid log level, the info level and false is
// returned.
func LevelFromString(s string) (l Level, ok bool) {
	switch strings.ToLower(s) {
	case "trace", "trc":
		return LevelTrace, true
	case "debug", "dbg":
		return LevelDebug, true
	case "info", "inf":
		return LevelInfo, true
	case "warn", "wrn":
		return LevelWarn, true
	case "error", "err":
		return LevelError, true
	case "critical", "crt":
		return LevelCritical, true
	case "off":
		return LevelOff, true
	default:
		return LevelInfo, false
	}
}

// String returns the tag of the logger used in log messages, or "OFF" if
// the level will not produce any log output.
func (l Level) String() string {
	if l >= LevelOff {
		return "OFF"
	}
	return levelStrs[l]
}

// ParseLevelSpec splits a debuglevel specification such as
// "info,MEMP=trace,BLTB=debug" into a default level and per-subsystem levels.
// An empty default means the specification only addressed subsystems.
func ParseLevelSpec(spec string) (defaultLevel string, subsystemLevels map[string]string, err error) {
	subsystemLevels = make(map[string]string)
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "=") {
			if _, ok := LevelFromString(part); !ok {
				return "", nil, errors.Errorf("the specified debug level [%s] is invalid", part)
			}
			defaultLevel = part
			continue
		}
		fields := strings.Split(part, "=")
		if len(fields) != 2 || fields[0] == "" || fields[1] == "" {
			return "", nil, errors.Errorf("the specified debug level contains an invalid subsystem/level pair [%s]", part)
		}
		if _, ok := LevelFromString(fields[1]); !ok {
			return "", nil, errors.Errorf("the specified debug level [%s] is invalid", fields[1])
		}
		subsystemLevels[fields[0]] = fields[1]
	}
	return defaultLevel, subsystemLevels, nil
}
