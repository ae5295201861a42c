package chain

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/xvmnet/xvmd/domain/miningmanager/model"
	"github.com/xvmnet/xvmd/domain/ruleerrors"
)

// Generator connects a block on a fixed interval until it is stopped or
// the chain halts.
type Generator struct {
	chain    *Chain
	interval time.Duration
	request  model.BlockTemplateRequest

	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewGenerator returns a generator building blocks for proposer with at
// most maxGas gas each. A zero maxGas uses the block gas limit.
func NewGenerator(chain *Chain, interval time.Duration, proposer []byte, maxGas uint64) *Generator {
	return &Generator{
		chain:    chain,
		interval: interval,
		request: model.BlockTemplateRequest{
			MaxGas:   maxGas,
			Proposer: proposer,
		},
		quit: make(chan struct{}),
	}
}

// Start begins generating blocks in the background.
func (g *Generator) Start() {
	g.wg.Add(1)
	spawn(func() {
		defer g.wg.Done()
		g.run()
	})
}

func (g *Generator) run() {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	log.Infof("Generating a block every %s", g.interval)
	for {
		select {
		case <-ticker.C:
			request := g.request
			_, err := g.chain.GenerateBlock(&request)
			if errors.Is(err, ruleerrors.ErrChainHalted) {
				log.Errorf("Stopping block generation: %s", err)
				return
			}
			if err != nil {
				log.Warnf("Failed to generate a block: %s", err)
			}
		case <-g.quit:
			return
		}
	}
}

// Stop stops the generator and waits for an in-flight block to finish.
func (g *Generator) Stop() {
	g.stopOnce.Do(func() {
		close(g.quit)
	})
	g.wg.Wait()
}
