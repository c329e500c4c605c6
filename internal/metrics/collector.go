// internal/metrics/collector.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rovshanmuradov/solana-arb-bot/internal/arbitrage"
)

const namespace = "arb_bot"

// Collector exports runner events as prometheus metrics.
type Collector struct {
	attempts      *prometheus.CounterVec
	profit        *prometheus.CounterVec
	netProfit     *prometheus.GaugeVec
	quoteLatency  *prometheus.HistogramVec
	submissions   *prometheus.CounterVec
	submitLatency *prometheus.HistogramVec
	confirmations *prometheus.HistogramVec
}

var _ arbitrage.Observer = (*Collector)(nil)

// NewCollector creates the collectors and registers them on reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pair_checks_total",
			Help:      "Pair checks by outcome and failure reason",
		}, []string{"pair", "status", "reason"}),
		profit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realized_profit_lamports_total",
			Help:      "Sum of positive balance changes of completed round trips",
		}, []string{"pair"}),
		netProfit: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quoted_net_profit_lamports",
			Help:      "Net profit of the last quoted round trip after costs",
		}, []string{"pair"}),
		quoteLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_duration_seconds",
			Help:      "Aggregator quote latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"leg", "status"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Transaction submissions by relay",
		}, []string{"relay", "leg", "status"}),
		submitLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      "Relay submission latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"relay"}),
		confirmations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "confirmation_duration_seconds",
			Help:      "Time until a submitted transaction confirmed or failed",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"leg", "status"}),
	}

	for _, collector := range []prometheus.Collector{
		c.attempts, c.profit, c.netProfit, c.quoteLatency,
		c.submissions, c.submitLatency, c.confirmations,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func (c *Collector) ObserveQuote(leg string, duration time.Duration, err error) {
	c.quoteLatency.WithLabelValues(leg, status(err)).Observe(duration.Seconds())
}

func (c *Collector) ObserveEvaluation(pair string, ev arbitrage.Evaluation) {
	c.netProfit.WithLabelValues(pair).Set(float64(ev.NetProfit))
}

func (c *Collector) ObserveSubmission(relay, leg string, duration time.Duration, err error) {
	c.submissions.WithLabelValues(relay, leg, status(err)).Inc()
	c.submitLatency.WithLabelValues(relay).Observe(duration.Seconds())
}

func (c *Collector) ObserveConfirmation(leg string, duration time.Duration, err error) {
	c.confirmations.WithLabelValues(leg, status(err)).Observe(duration.Seconds())
}

func (c *Collector) ObserveAttempt(pair string, success bool, reason string, profit int64) {
	if success {
		c.attempts.WithLabelValues(pair, "success", "").Inc()
		if profit > 0 {
			c.profit.WithLabelValues(pair).Add(float64(profit))
		}
		return
	}
	c.attempts.WithLabelValues(pair, "failure", reason).Inc()
}
