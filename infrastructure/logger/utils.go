package logger

import (
	"time"
)

// LogAndMeasureExecutionTime traces the start of functionName and returns a
// function that, once deferred, logs its duration at debug level.
func LogAndMeasureExecutionTime(log *Logger, functionName string) (onEnd func()) {
	start := time.Now()
	log.Tracef("%s start", functionName)
	return func() {
		log.Debugf("%s end. Took: %s", functionName, time.Since(start))
	}
}
