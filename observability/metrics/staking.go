package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type StakingMetrics struct {
	calls          *prometheus.CounterVec
	callLatency    *prometheus.HistogramVec
	totalStaked    prometheus.Gauge
	totalEnrolled  prometheus.Gauge
	penaltyVault   prometheus.Gauge
	eventsIndexed  *prometheus.CounterVec
	indexerFailure prometheus.Counter
}

var (
	stakingOnce     sync.Once
	stakingRegistry *StakingMetrics
)

// Staking returns the process-wide staking collectors, registering them on
// first use.
func Staking() *StakingMetrics {
	stakingOnce.Do(func() {
		stakingRegistry = &StakingMetrics{
			calls: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "qst_staking_calls_total",
				Help: "Count of staking invocations by method and outcome.",
			}, []string{"method", "outcome"}),
			callLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "qst_staking_call_seconds",
				Help:    "Latency of staking invocations by method.",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
			}, []string{"method"}),
			totalStaked: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "qst_staking_total_staked",
				Help: "Principal currently held by the pool in base units.",
			}),
			totalEnrolled: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "qst_staking_total_enrolled",
				Help: "Principal committed to the bonus program in base units.",
			}),
			penaltyVault: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "qst_staking_penalty_vault",
				Help: "Early-exit penalties retained for bonus distribution.",
			}),
			eventsIndexed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "qst_staking_events_indexed_total",
				Help: "Committed staking events persisted by the history indexer.",
			}, []string{"type"}),
			indexerFailure: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "qst_staking_indexer_failures_total",
				Help: "Events the history indexer failed to persist.",
			}),
		}
		prometheus.MustRegister(
			stakingRegistry.calls,
			stakingRegistry.callLatency,
			stakingRegistry.totalStaked,
			stakingRegistry.totalEnrolled,
			stakingRegistry.penaltyVault,
			stakingRegistry.eventsIndexed,
			stakingRegistry.indexerFailure,
		)
	})
	return stakingRegistry
}

func (m *StakingMetrics) ObserveCall(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	if outcome == "" {
		outcome = "error"
	}
	m.calls.WithLabelValues(method, outcome).Inc()
	m.callLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *StakingMetrics) SetPoolTotals(staked, enrolled, vault uint64) {
	if m == nil {
		return
	}
	m.totalStaked.Set(float64(staked))
	m.totalEnrolled.Set(float64(enrolled))
	m.penaltyVault.Set(float64(vault))
}

func (m *StakingMetrics) IncEventIndexed(eventType string) {
	if m == nil {
		return
	}
	m.eventsIndexed.WithLabelValues(eventType).Inc()
}

func (m *StakingMetrics) IncIndexerFailure() {
	if m == nil {
		return
	}
	m.indexerFailure.Inc()
}

// CallCounter exposes the invocation counter for assertions.
func (m *StakingMetrics) CallCounter() *prometheus.CounterVec { return m.calls }

// PoolGauges exposes the pool gauges for assertions.
func (m *StakingMetrics) PoolGauges() (staked, enrolled, vault prometheus.Gauge) {
	return m.totalStaked, m.totalEnrolled, m.penaltyVault
}
