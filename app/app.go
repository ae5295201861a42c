package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xvmnet/xvmd/infrastructure/config"
	"github.com/xvmnet/xvmd/infrastructure/db/database"
	"github.com/xvmnet/xvmd/infrastructure/db/database/ldb"
	"github.com/xvmnet/xvmd/infrastructure/logger"
	"github.com/xvmnet/xvmd/infrastructure/os/signal"
	"github.com/xvmnet/xvmd/util/panics"
	"github.com/xvmnet/xvmd/util/profiling"
	"github.com/xvmnet/xvmd/version"
)

const (
	leveldbCacheSizeMiB = 64
	databaseDirName     = "vmmap"
)

// StartApp starts the xvmd app, and blocks until it finishes running
func StartApp() error {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		return nil
	}

	// Initialize log rotation. After log rotation has been initialized, the
	// logger variables may be used.
	logger.InitLog(cfg.LogFile, cfg.ErrLogFile)
	defer logger.BackendLog.Close()
	defer panics.HandlePanic(log, nil)

	err = logger.ApplyLevelSpec(cfg.DebugLevel)
	if err != nil {
		log.Errorf("%s", err)
		return err
	}

	app := &xvmdApp{cfg: cfg}
	return app.main()
}

type xvmdApp struct {
	cfg *config.Config
}

func (app *xvmdApp) main() error {
	// Get a channel that will be closed when a shutdown signal has been
	// triggered either from an OS signal such as SIGINT (Ctrl+C) or from
	// another subsystem such as the block generator.
	interrupt := signal.InterruptListener()

	// Show version at startup.
	log.Infof("Version %s", version.Version())

	// Enable http profiling server if requested.
	if app.cfg.Profile != "" {
		profiling.Start(app.cfg.Profile, log)
	}

	db, err := openDB(app.cfg)
	if err != nil {
		log.Errorf("Loading database failed: %+v", err)
		return err
	}

	componentManager, err := NewComponentManager(app.cfg, db)
	if err != nil {
		log.Errorf("Unable to start xvmd: %+v", err)
		closeErr := db.Close()
		if closeErr != nil {
			log.Errorf("Error closing the database: %+v", closeErr)
		}
		return err
	}

	defer func() {
		log.Infof("Gracefully shutting down xvmd...")
		componentManager.Stop()
		closeErr := db.Close()
		if closeErr != nil {
			log.Errorf("Error closing the database: %+v", closeErr)
		}
		log.Infof("Xvmd shutdown complete")
	}()

	componentManager.Start()

	// Wait until the interrupt signal is received from an OS signal or
	// shutdown is requested through signal.ShutdownRequestChannel.
	<-interrupt
	return nil
}

func openDB(cfg *config.Config) (database.Database, error) {
	dbPath := filepath.Join(cfg.DataDir, databaseDirName)
	err := os.MkdirAll(dbPath, 0700)
	if err != nil {
		return nil, err
	}
	versionFileExists, err := checkDatabaseVersion(dbPath)
	if err != nil {
		return nil, err
	}

	log.Infof("Loading database from '%s'", dbPath)
	db, err := ldb.NewLevelDB(dbPath, leveldbCacheSizeMiB)
	if err != nil {
		return nil, err
	}
	if !versionFileExists {
		err = createDatabaseVersionFile(dbPath)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}
