package user

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"go-gin-mock-users/internal/domain"
)

// Observer receives store events for metrics collection.
type Observer interface {
	OnFetch(failed bool, d time.Duration)
	OnCreate(id string)
	OnUpdate(id string, found bool)
	OnDelete(id string, removed int)
	OnChange(s Snapshot)
}

type NoopObserver struct{}

func (NoopObserver) OnFetch(bool, time.Duration) {}
func (NoopObserver) OnCreate(string)             {}
func (NoopObserver) OnUpdate(string, bool)       {}
func (NoopObserver) OnDelete(string, int)        {}
func (NoopObserver) OnChange(Snapshot)           {}

// PromObserver exports store activity as prometheus metrics.
type PromObserver struct {
	fetches   *prometheus.CounterVec
	fetchTime prometheus.Histogram
	mutations *prometheus.CounterVec
	users     *prometheus.GaugeVec
	loading   prometheus.Gauge
}

func NewPromObserver(reg prometheus.Registerer) *PromObserver {
	o := &PromObserver{
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "mockusers_fetch_total", Help: "Simulated fetches by result"},
			[]string{"result"},
		),
		fetchTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mockusers_fetch_duration_seconds",
			Help:    "Latency of simulated fetches",
			Buckets: prometheus.DefBuckets,
		}),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "mockusers_mutations_total", Help: "Mutations by operation and outcome"},
			[]string{"op", "outcome"},
		),
		users: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "mockusers_users", Help: "Users held by the store"},
			[]string{"status"},
		),
		loading: prometheus.NewGauge(prometheus.GaugeOpts{Name: "mockusers_loading", Help: "1 while a fetch is in flight"}),
	}
	reg.MustRegister(o.fetches, o.fetchTime, o.mutations, o.users, o.loading)
	return o
}

func (o *PromObserver) OnFetch(failed bool, d time.Duration) {
	result := "ok"
	if failed {
		result = "error"
	}
	o.fetches.WithLabelValues(result).Inc()
	o.fetchTime.Observe(d.Seconds())
}

func (o *PromObserver) OnCreate(string) { o.mutations.WithLabelValues("create", "applied").Inc() }

func (o *PromObserver) OnUpdate(_ string, found bool) {
	o.mutations.WithLabelValues("update", outcome(found)).Inc()
}

func (o *PromObserver) OnDelete(_ string, removed int) {
	o.mutations.WithLabelValues("delete", outcome(removed > 0)).Inc()
}

func (o *PromObserver) OnChange(s Snapshot) {
	var active, inactive int
	for _, u := range s.Users {
		if u.Status == domain.StatusActive {
			active++
		} else {
			inactive++
		}
	}
	o.users.WithLabelValues(string(domain.StatusActive)).Set(float64(active))
	o.users.WithLabelValues(string(domain.StatusInactive)).Set(float64(inactive))
	if s.Loading {
		o.loading.Set(1)
	} else {
		o.loading.Set(0)
	}
}

func outcome(hit bool) string {
	if hit {
		return "applied"
	}
	return "noop"
}
