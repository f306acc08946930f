// Package metrics exposes Prometheus collectors for the link store.
package metrics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrSnakeDoc/startpage/internal/linkstore"
	"github.com/MrSnakeDoc/startpage/internal/persist"
)

const namespace = "startpage"

// Outcomes recorded on startpage_mutations_total.
const (
	OutcomeOK           = "ok"
	OutcomeNotPersisted = "not_persisted"
	OutcomeRejected     = "rejected"
)

var (
	persistedDesc = prometheus.NewDesc(
		namespace+"_persisted",
		"1 when the last mutation reached the persistence slot, 0 when memory is ahead of it",
		nil, nil,
	)
	revisionDesc = prometheus.NewDesc(
		namespace+"_revision",
		"Number of mutations applied since startup",
		nil, nil,
	)
	loadDesc = prometheus.NewDesc(
		namespace+"_load_status",
		"How the collection was loaded at startup",
		[]string{"status"}, nil,
	)
)

// Collector records store activity. It implements linkstore.Observer and
// thumbnail.Observer.
type Collector struct {
	mutations   *prometheus.CounterVec
	persistErrs *prometheus.CounterVec
	links       prometheus.Gauge
	thumbnails  *prometheus.CounterVec
	thumbBytes  prometheus.Histogram
}

// New creates the collector and registers it on reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Link store mutations by operation and outcome",
		}, []string{"op", "outcome"}),
		persistErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Failed writes to the persistence slot by reason",
		}, []string{"reason"}),
		links: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "links",
			Help:      "Number of links in the collection",
		}),
		thumbnails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thumbnails_loaded_total",
			Help:      "Thumbnail loads by outcome",
		}, []string{"outcome"}),
		thumbBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "thumbnail_bytes",
			Help:      "Size of loaded thumbnail files",
			Buckets:   prometheus.ExponentialBuckets(1<<10, 4, 8),
		}),
	}
	reg.MustRegister(c.mutations, c.persistErrs, c.links, c.thumbnails, c.thumbBytes)
	return c
}

// Mutation implements linkstore.Observer.
func (c *Collector) Mutation(op string, err error) {
	switch {
	case err == nil:
		c.mutations.WithLabelValues(op, OutcomeOK).Inc()
	case errors.Is(err, persist.ErrNotPersisted):
		c.mutations.WithLabelValues(op, OutcomeNotPersisted).Inc()
		c.persistErrs.WithLabelValues(reason(err)).Inc()
	default:
		c.mutations.WithLabelValues(op, OutcomeRejected).Inc()
	}
}

// Size implements linkstore.Observer.
func (c *Collector) Size(n int) {
	c.links.Set(float64(n))
}

// Thumbnail implements thumbnail.Observer.
func (c *Collector) Thumbnail(n int, err error) {
	if err != nil {
		c.thumbnails.WithLabelValues("error").Inc()
		return
	}
	c.thumbnails.WithLabelValues(OutcomeOK).Inc()
	c.thumbBytes.Observe(float64(n))
}

func reason(err error) string {
	switch {
	case errors.Is(err, persist.ErrQuotaExceeded):
		return "quota"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "backend"
	}
}

// StatusSource is what StoreCollector reads on each scrape.
type StatusSource interface {
	Status() linkstore.Status
}

// StoreCollector reads the store status on each scrape.
type StoreCollector struct {
	src StatusSource
}

// NewStoreCollector registers a scrape-time collector over src.
func NewStoreCollector(reg prometheus.Registerer, src StatusSource) *StoreCollector {
	sc := &StoreCollector{src: src}
	reg.MustRegister(sc)
	return sc
}

// Describe sends the metric descriptors to the channel.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- persistedDesc
	ch <- revisionDesc
	ch <- loadDesc
}

// Collect emits the current store status.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.Status()

	persisted := 0.0
	if st.Persisted {
		persisted = 1
	}
	ch <- prometheus.MustNewConstMetric(persistedDesc, prometheus.GaugeValue, persisted)
	ch <- prometheus.MustNewConstMetric(revisionDesc, prometheus.CounterValue, float64(st.Revision))
	ch <- prometheus.MustNewConstMetric(loadDesc, prometheus.GaugeValue, 1, st.Loaded.String())
}
