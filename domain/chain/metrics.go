package chain

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	tipHeight       prometheus.Gauge
	blocksConnected prometheus.Counter
	rollbacks       prometheus.Counter
	halted          prometheus.Gauge
}

func newMetrics(namespace string, registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		tipHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tip_height",
			Help:      "Height of the chain tip",
		}),
		blocksConnected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_connected",
			Help:      "Number of blocks connected to the tip",
		}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollbacks",
			Help:      "Number of rollbacks performed",
		}),
		halted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "halted",
			Help:      "Set to 1 once block production stopped",
		}),
	}
	for _, collector := range []prometheus.Collector{m.tipHeight, m.blocksConnected, m.rollbacks, m.halted} {
		if err := registerer.Register(collector); err != nil {
			return nil, errors.Wrap(err, "failed to register chain metrics")
		}
	}
	return m, nil
}
