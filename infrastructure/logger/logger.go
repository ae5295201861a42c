package logger

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Logger is a subsystem logger. Entries below the logger's level are
// dropped before being formatted.
type Logger struct {
	level     uint32
	tag       string
	b         *Backend
	writeChan chan<- logEntry
}

// Level returns the current logging level.
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32(&l.level))
}

// SetLevel changes the logging level to the passed level.
func (l *Logger) SetLevel(level Level) {
	atomic.StoreUint32(&l.level, uint32(level))
}

// Backend returns the backend this logger writes to.
func (l *Logger) Backend() *Backend {
	return l.b
}

// Tracef formats and writes a message at LevelTrace.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.write(LevelTrace, format, args...)
}

// Debugf formats and writes a message at LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.write(LevelDebug, format, args...)
}

// Infof formats and writes a message at LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.write(LevelInfo, format, args...)
}

// Warnf formats and writes a message at LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.write(LevelWarn, format, args...)
}

// Errorf formats and writes a message at LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.write(LevelError, format, args...)
}

// Criticalf formats and writes a message at LevelCritical.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.write(LevelCritical, format, args...)
}

// Trace writes the arguments at LevelTrace using fmt.Sprint semantics.
func (l *Logger) Trace(args ...interface{}) {
	l.write(LevelTrace, "%s", fmt.Sprint(args...))
}

// Info writes the arguments at LevelInfo using fmt.Sprint semantics.
func (l *Logger) Info(args ...interface{}) {
	l.write(LevelInfo, "%s", fmt.Sprint(args...))
}

func (l *Logger) write(level Level, format string, args ...interface{}) {
	if level < l.Level() {
		return
	}

	var builder strings.Builder
	builder.Grow(normalLogSize)
	builder.WriteString(time.Now().Format(timestampFormat))
	builder.WriteString(" [")
	builder.WriteString(level.String())
	builder.WriteString("] ")
	builder.WriteString(l.tag)
	builder.WriteString(": ")
	if l.b.flag&(LogFlagShortFile|LogFlagLongFile) != 0 {
		builder.WriteString(callsite(l.b.flag))
		builder.WriteString(": ")
	}
	_, _ = fmt.Fprintf(&builder, format, args...)
	builder.WriteByte('\n')

	if !l.b.IsRunning() {
		_, _ = os.Stderr.WriteString(builder.String())
		return
	}
	l.writeChan <- logEntry{log: []byte(builder.String()), level: level}
}

const normalLogSize = 512

// callsite returns the file and line of the function that called one of the
// Logger's leveled methods.
func callsite(flag uint32) string {
	_, file, line, ok := runtime.Caller(3)
	if !ok {
		return "???:0"
	}
	if flag&LogFlagShortFile != 0 {
		if slash := strings.LastIndexByte(file, '/'); slash >= 0 {
			file = file[slash+1:]
		}
	}
	return fmt.Sprintf("%s:%d", file, line)
}
