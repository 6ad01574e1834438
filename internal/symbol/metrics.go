package symbol

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "symreg"
	metricsSubsystem = "registry"
)

// Metrics counts registry activity. A nil *Metrics records nothing.
type Metrics struct {
	internedTotal  prometheus.Counter
	lostRacesTotal prometheus.Counter
	putsTotal      prometheus.Counter
	flushesTotal   *prometheus.CounterVec
	flushDuration  prometheus.Histogram
}

// NewMetrics creates the registry counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		internedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "interned_total",
			Help:      "Total number of names interned with a freshly allocated id",
		}),
		lostRacesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "lost_races_total",
			Help:      "Total number of candidate ids discarded after losing an interning race",
		}),
		putsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "puts_total",
			Help:      "Total number of administrative symbol imports",
		}),
		flushesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "flushes_total",
			Help:      "Total number of non-empty flushes to the backing store, by result",
		}, []string{"result"}),
		flushDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "flush_duration_seconds",
			Help:      "Duration of backing store commits in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// RegisterGauges exposes size, high-water mark and journal length of r.
// Values are read at scrape time.
func RegisterGauges(reg prometheus.Registerer, r *Registry) error {
	gauges := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "symbols",
			Help:      "Number of names currently bound",
		}, func() float64 {
			n, err := r.Size()
			if err != nil {
				return 0
			}
			return float64(n)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "high_water",
			Help:      "Largest symbol id allocated or imported",
		}, func() float64 {
			return float64(r.HighWater())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "pending_changes",
			Help:      "Changes journaled but not yet committed to the backing store",
		}, func() float64 {
			return float64(r.Pending())
		}),
	}
	for _, g := range gauges {
		if err := reg.Register(g); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) interned() {
	if m == nil {
		return
	}
	m.internedTotal.Inc()
}

func (m *Metrics) lostRace() {
	if m == nil {
		return
	}
	m.lostRacesTotal.Inc()
}

func (m *Metrics) put() {
	if m == nil {
		return
	}
	m.putsTotal.Inc()
}

func (m *Metrics) flushed(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.flushesTotal.WithLabelValues(result).Inc()
	m.flushDuration.Observe(d.Seconds())
}
