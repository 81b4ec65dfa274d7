package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records order commit outcomes.
type CheckoutMetrics struct {
	commits    *prometheus.CounterVec
	rejections *prometheus.CounterVec
	duration   prometheus.Histogram
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	commits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_commits_total",
		Help:      "Orders committed, by payment terms.",
	}, []string{"payment_terms"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_rejections_total",
		Help:      "Orders rejected before commit, by reason.",
	}, []string{"reason"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_commit_duration_seconds",
		Help:      "Time spent committing an order, lock wait included.",
		Buckets:   prometheus.DefBuckets,
	})
	reg.MustRegister(commits, rejections, duration)
	return &CheckoutMetrics{
		commits:    commits,
		rejections: rejections,
		duration:   duration,
	}
}

// IncCommit counts a committed order.
func (c *CheckoutMetrics) IncCommit(terms string) {
	if c == nil || c.commits == nil {
		return
	}
	c.commits.WithLabelValues(normalizeLabel(terms)).Inc()
}

// IncRejection counts an order refused for reason.
func (c *CheckoutMetrics) IncRejection(reason string) {
	if c == nil || c.rejections == nil {
		return
	}
	c.rejections.WithLabelValues(normalizeLabel(reason)).Inc()
}

// ObserveCommit records how long a commit attempt took.
func (c *CheckoutMetrics) ObserveCommit(d time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.Observe(d.Seconds())
}
