package app

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xvmnet/xvmd/domain/chain"
	"github.com/xvmnet/xvmd/infrastructure/config"
	infrastructuredatabase "github.com/xvmnet/xvmd/infrastructure/db/database"
	"github.com/xvmnet/xvmd/util/panics"
)

const metricsShutdownTimeout = 5 * time.Second

// ComponentManager is a wrapper for all the xvmd services
type ComponentManager struct {
	cfg           *config.Config
	chain         *chain.Chain
	generator     *chain.Generator
	metricsServer *http.Server

	started, shutdown int32
}

// Start launches all the xvmd services.
func (a *ComponentManager) Start() {
	// Already started?
	if atomic.AddInt32(&a.started, 1) != 1 {
		return
	}

	log.Trace("Starting xvmd")

	if a.metricsServer != nil {
		spawn(func() {
			log.Infof("Serving metrics on %s", a.metricsServer.Addr)
			err := a.metricsServer.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				panics.Exit(log, fmt.Sprintf("Error serving metrics: %+v", err))
			}
		})
	}
	if a.generator != nil {
		a.generator.Start()
	}
}

// Stop gracefully shuts down all the xvmd services.
func (a *ComponentManager) Stop() {
	// Make sure this only happens once.
	if atomic.AddInt32(&a.shutdown, 1) != 1 {
		log.Infof("Xvmd is already in the process of shutting down")
		return
	}

	log.Warnf("Xvmd shutting down")

	if a.generator != nil {
		a.generator.Stop()
	}
	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		err := a.metricsServer.Shutdown(ctx)
		if err != nil {
			log.Errorf("Error stopping the metrics server: %+v", err)
		}
	}
	err := a.chain.Close()
	if err != nil {
		log.Errorf("Error closing the chain: %+v", err)
	}
}

// Chain returns the chain served by this ComponentManager.
func (a *ComponentManager) Chain() *chain.Chain {
	return a.chain
}

// NewComponentManager returns a new ComponentManager instance.
// Use Start() to begin all services within this ComponentManager
func NewComponentManager(cfg *config.Config, db infrastructuredatabase.Database) (*ComponentManager, error) {
	registry := prometheus.NewRegistry()
	c, err := chain.New(&chain.Config{
		Params:            cfg.NetParams(),
		Database:          db,
		BlockMaxGas:       cfg.BlockMaxGas,
		GenesisAttributes: cfg.GenesisAttributes,
		Registerer:        registry,
	})
	if err != nil {
		return nil, err
	}

	var generator *chain.Generator
	if cfg.Generate {
		generator = chain.NewGenerator(c, cfg.BlockInterval, cfg.MinerPubKey, cfg.BlockMaxGas)
	}

	var metricsServer *http.Server
	if cfg.Metrics != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{
			Addr:              cfg.Metrics,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	return &ComponentManager{
		cfg:           cfg,
		chain:         c,
		generator:     generator,
		metricsServer: metricsServer,
	}, nil
}
