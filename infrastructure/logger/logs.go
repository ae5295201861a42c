package logger

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// BackendLog is the logging backend used to create all subsystem loggers.
var BackendLog = NewBackend()

// SubsystemTags is an enum of all sub system tags
var SubsystemTags = struct {
	XVMD,
	CNFG,
	ATTR,
	LEDG,
	FEES,
	TRDM,
	MEMP,
	BLTB,
	MINR,
	CHAN,
	VMAP,
	DTBS string
}{
	XVMD: "XVMD",
	CNFG: "CNFG",
	ATTR: "ATTR",
	LEDG: "LEDG",
	FEES: "FEES",
	TRDM: "TRDM",
	MEMP: "MEMP",
	BLTB: "BLTB",
	MINR: "MINR",
	CHAN: "CHAN",
	VMAP: "VMAP",
	DTBS: "DTBS",
}

var (
	subsystemLoggersMtx sync.Mutex
	subsystemLoggers    = make(map[string]*Logger)
)

// Get returns the logger of the given subsystem, creating it on first use.
// It returns false when the tag is not one of SubsystemTags.
func Get(tag string) (*Logger, bool) {
	subsystemLoggersMtx.Lock()
	defer subsystemLoggersMtx.Unlock()

	if !isKnownSubsystem(tag) {
		return nil, false
	}
	logger, ok := subsystemLoggers[tag]
	if !ok {
		logger = BackendLog.Logger(tag)
		logger.SetLevel(LevelInfo)
		subsystemLoggers[tag] = logger
	}
	return logger, true
}

func isKnownSubsystem(tag string) bool {
	switch tag {
	case SubsystemTags.XVMD, SubsystemTags.CNFG, SubsystemTags.ATTR, SubsystemTags.LEDG,
		SubsystemTags.FEES, SubsystemTags.TRDM, SubsystemTags.MEMP, SubsystemTags.BLTB,
		SubsystemTags.MINR, SubsystemTags.CHAN, SubsystemTags.VMAP, SubsystemTags.DTBS:
		return true
	}
	return false
}

// InitLog attaches log file and error log file to the backend log, mirrors
// everything at info and above to stdout, and starts the backend.
func InitLog(logFile, errLogFile string) {
	err := BackendLog.AddLogFile(logFile, LevelTrace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding log file %s as log rotator for level %s: %s", logFile, LevelTrace, err)
		os.Exit(1)
	}
	err = BackendLog.AddLogFile(errLogFile, LevelWarn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding log file %s as log rotator for level %s: %s", errLogFile, LevelWarn, err)
		os.Exit(1)
	}
	err = BackendLog.AddStdout(LevelInfo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding stdout to the logger: %s", err)
		os.Exit(1)
	}
	err = BackendLog.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting the logger: %s ", err)
		os.Exit(1)
	}
}

// SetLogLevel sets the logging level for provided subsystem. Invalid
// subsystems are ignored.
func SetLogLevel(subsystemID string, logLevel string) {
	logger, ok := Get(subsystemID)
	if !ok {
		return
	}
	level, _ := LevelFromString(logLevel)
	logger.SetLevel(level)
}

// SetLogLevels sets the log level for all subsystem loggers to the passed
// level.
func SetLogLevels(logLevel string) {
	for _, subsystemID := range SupportedSubsystems() {
		SetLogLevel(subsystemID, logLevel)
	}
}

// ApplyLevelSpec applies a debuglevel specification as parsed by ParseLevelSpec.
func ApplyLevelSpec(spec string) error {
	defaultLevel, subsystemLevels, err := ParseLevelSpec(spec)
	if err != nil {
		return err
	}
	if defaultLevel != "" {
		SetLogLevels(defaultLevel)
	}
	for subsystemID, level := range subsystemLevels {
		if !isKnownSubsystem(subsystemID) {
			return errors.Errorf("the specified subsystem [%s] is invalid -- "+
				"supported subsystems %v", subsystemID, SupportedSubsystems())
		}
		SetLogLevel(subsystemID, level)
	}
	return nil
}

// SupportedSubsystems returns a sorted slice of the supported subsystems for
// logging purposes.
func SupportedSubsystems() []string {
	subsystems := []string{
		SubsystemTags.XVMD, SubsystemTags.CNFG, SubsystemTags.ATTR, SubsystemTags.LEDG,
		SubsystemTags.FEES, SubsystemTags.TRDM, SubsystemTags.MEMP, SubsystemTags.BLTB,
		SubsystemTags.MINR, SubsystemTags.CHAN, SubsystemTags.VMAP, SubsystemTags.DTBS,
	}
	sort.Strings(subsystems)
	return subsystems
}
