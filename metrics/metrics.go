// Package metrics holds the Prometheus collectors shared by ledger and
// coordination. No HTTP exposition lives here — a host process registers
// the Collectors' Registerer wherever it likes (spec's HTTP surface stays
// external); this package only defines and updates the gauges/counters.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors groups every counter/gauge the core updates. Built fresh per
// call to New so independent ledgers/engines in the same test binary never
// collide on registration; a nil *Collectors is valid everywhere it's used
// (every update method below is a no-op on a nil receiver).
type Collectors struct {
	TxSubmitted  prometheus.Counter
	TxValidated  prometheus.Counter
	TxRejected   prometheus.Counter
	BlocksMined  prometheus.Counter
	Pending      prometheus.Gauge
	ChainValid   prometheus.Gauge

	SessionsStarted   prometheus.Counter
	SessionsCompleted prometheus.Counter
	SessionsFailed    *prometheus.CounterVec
	NegotiationRounds prometheus.Histogram
}

// New builds a fresh set of collectors and, if r is non-nil, registers all
// of them. A nil r returns usable collectors that simply aren't exported.
func New(r prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		TxSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_transactions_submitted_total",
			Help: "Transactions submitted to the ledger, regardless of outcome.",
		}),
		TxValidated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_transactions_validated_total",
			Help: "Transactions that passed the smart-contract validator.",
		}),
		TxRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_transactions_rejected_total",
			Help: "Transactions rejected by the smart-contract validator.",
		}),
		BlocksMined: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_blocks_mined_total",
			Help: "Blocks successfully mined and appended, including genesis.",
		}),
		Pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_pending_transactions",
			Help: "Transactions currently waiting in the pending pool.",
		}),
		ChainValid: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_chain_valid",
			Help: "1 if the last Validate() call found the chain intact, 0 otherwise.",
		}),
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coordination_sessions_started_total",
			Help: "Coordination sessions started.",
		}),
		SessionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coordination_sessions_completed_total",
			Help: "Coordination sessions that reached COMPLETED.",
		}),
		SessionsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coordination_sessions_failed_total",
			Help: "Coordination sessions that did not complete, labeled by terminal state.",
		}, []string{"state"}),
		NegotiationRounds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coordination_negotiation_rounds",
			Help:    "Number of negotiation rounds a session ran before its terminal state.",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),
	}
	if r == nil {
		return c, nil
	}
	collectors := []prometheus.Collector{
		c.TxSubmitted, c.TxValidated, c.TxRejected, c.BlocksMined, c.Pending, c.ChainValid,
		c.SessionsStarted, c.SessionsCompleted, c.SessionsFailed, c.NegotiationRounds,
	}
	for _, col := range collectors {
		if err := r.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collectors) incTxSubmitted() {
	if c != nil {
		c.TxSubmitted.Inc()
	}
}

func (c *Collectors) incTxValidated() {
	if c != nil {
		c.TxValidated.Inc()
	}
}

func (c *Collectors) incTxRejected() {
	if c != nil {
		c.TxRejected.Inc()
	}
}

func (c *Collectors) incBlocksMined() {
	if c != nil {
		c.BlocksMined.Inc()
	}
}

func (c *Collectors) setPending(n int) {
	if c != nil {
		c.Pending.Set(float64(n))
	}
}

func (c *Collectors) setChainValid(valid bool) {
	if c == nil {
		return
	}
	if valid {
		c.ChainValid.Set(1)
	} else {
		c.ChainValid.Set(0)
	}
}

func (c *Collectors) incSessionStarted() {
	if c != nil {
		c.SessionsStarted.Inc()
	}
}

func (c *Collectors) incSessionCompleted() {
	if c != nil {
		c.SessionsCompleted.Inc()
	}
}

func (c *Collectors) incSessionFailed(state string) {
	if c != nil {
		c.SessionsFailed.WithLabelValues(state).Inc()
	}
}

func (c *Collectors) observeRounds(n int) {
	if c != nil {
		c.NegotiationRounds.Observe(float64(n))
	}
}

// IncTxSubmitted, IncTxValidated, ... are the exported forms used by ledger
// and coordination; the lowercase methods above exist only so a nil
// *Collectors is safe to call through without every call site nil-checking.

// IncTxSubmitted records a transaction submission attempt.
func (c *Collectors) IncTxSubmitted() { c.incTxSubmitted() }

// IncTxValidated records a transaction that passed policy.
func (c *Collectors) IncTxValidated() { c.incTxValidated() }

// IncTxRejected records a transaction that failed policy.
func (c *Collectors) IncTxRejected() { c.incTxRejected() }

// IncBlocksMined records a block appended to the chain.
func (c *Collectors) IncBlocksMined() { c.incBlocksMined() }

// SetPending reports the current pending-pool size.
func (c *Collectors) SetPending(n int) { c.setPending(n) }

// SetChainValid reports the outcome of the most recent Validate() call.
func (c *Collectors) SetChainValid(valid bool) { c.setChainValid(valid) }

// IncSessionStarted records a coordination session starting.
func (c *Collectors) IncSessionStarted() { c.incSessionStarted() }

// IncSessionCompleted records a session reaching COMPLETED.
func (c *Collectors) IncSessionCompleted() { c.incSessionCompleted() }

// IncSessionFailed records a session reaching any other terminal state.
func (c *Collectors) IncSessionFailed(state string) { c.incSessionFailed(state) }

// ObserveRounds records how many negotiation rounds a session ran.
func (c *Collectors) ObserveRounds(n int) { c.observeRounds(n) }
