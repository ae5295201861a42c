package mempool

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	transactions prometheus.Gauge
	senders      prometheus.Gauge
	accepted     prometheus.Counter
	replaced     prometheus.Counter
	evicted      prometheus.Counter
	requeued     prometheus.Counter
	rejected     *prometheus.CounterVec
}

func newMetrics(namespace string, registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		transactions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transactions",
			Help:      "Number of transactions currently queued",
		}),
		senders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "senders",
			Help:      "Number of senders with at least one queued transaction",
		}),
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accepted",
			Help:      "Number of transactions accepted into the mempool",
		}),
		replaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replaced",
			Help:      "Number of queued transactions replaced by a higher fee",
		}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evicted",
			Help:      "Number of transactions removed without being included in a block",
		}),
		requeued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requeued",
			Help:      "Number of transactions queued again after a rollback",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected",
			Help:      "Number of rejected transactions by reject code",
		}, []string{"code"}),
	}

	collectors := []prometheus.Collector{
		m.transactions, m.senders, m.accepted, m.replaced, m.evicted, m.requeued, m.rejected,
	}
	for _, collector := range collectors {
		if err := registerer.Register(collector); err != nil {
			return nil, errors.Wrapf(err, "failed to register mempool metrics")
		}
	}
	return m, nil
}

func (m *metrics) observeRejection(err error) {
	code, _ := extractRejectCode(err)
	m.rejected.WithLabelValues(code.String()).Inc()
}

// this function MUST be called with the mempool mutex locked for reads
func (m *metrics) observePool(tp *transactionsPool) {
	m.transactions.Set(float64(tp.transactionCount()))
	m.senders.Set(float64(len(tp.senderQueues)))
}
