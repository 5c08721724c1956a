// Package metrics instruments the store and registry with Prometheus collectors.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/evcraddock/curbing/internal/house"
	"github.com/evcraddock/curbing/internal/store"
)

const namespace = "curbing"

// Metrics holds the collectors registered for one process.
type Metrics struct {
	reg     prometheus.Registerer
	ops     *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// New registers the store collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		ops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Store operations by operation and outcome.",
		}, []string{"op", "outcome"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Store operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
}

// WatchHouses exports the size of the local house list as a gauge.
func (m *Metrics) WatchHouses(count func() int) {
	promauto.With(m.reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "houses",
		Help:      "Houses in the local list.",
	}, func() float64 { return float64(count()) })
}

// Store wraps s so every call is counted and timed.
func (m *Metrics) Store(s store.Store) store.Store {
	return &instrumented{next: s, m: m}
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = store.KindOf(err).String()
	}
	m.ops.WithLabelValues(op, outcome).Inc()
	m.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

type instrumented struct {
	next store.Store
	m    *Metrics
}

func (s *instrumented) Insert(ctx context.Context, f store.Fields) (id string, err error) {
	defer func(start time.Time) { s.m.observe("insert", start, err) }(time.Now())
	return s.next.Insert(ctx, f)
}

func (s *instrumented) Get(ctx context.Context, id string) (h house.House, err error) {
	defer func(start time.Time) { s.m.observe("get", start, err) }(time.Now())
	return s.next.Get(ctx, id)
}

func (s *instrumented) UpdateStatus(ctx context.Context, id string, status house.Status) (err error) {
	defer func(start time.Time) { s.m.observe("update", start, err) }(time.Now())
	return s.next.UpdateStatus(ctx, id, status)
}

func (s *instrumented) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { s.m.observe("delete", start, err) }(time.Now())
	return s.next.Delete(ctx, id)
}

func (s *instrumented) Query(ctx context.Context, f store.Filter) (hs []house.House, err error) {
	defer func(start time.Time) { s.m.observe("query", start, err) }(time.Now())
	return s.next.Query(ctx, f)
}

func (s *instrumented) Close() error { return s.next.Close() }
