package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/metrics/export/internaldefs"
)

// MetricsSource is what the exporter reads on every scrape.
// [goSession.Engine] implements it.
type MetricsSource interface {
	MetricsSnapshot() goSession.MetricsSnapshot
	AuditDropped() uint64
	NotificationsDropped() uint64
}

type histogramDesc struct {
	id   goSession.MetricID
	desc *prometheus.Desc
}

type counterDesc struct {
	id   goSession.MetricID
	desc *prometheus.Desc
}

// Collector is a [prometheus.Collector] over engine metrics. Every scrape
// takes one snapshot; nothing is cached between scrapes.
type Collector struct {
	source               MetricsSource
	counters             []counterDesc
	histograms           []histogramDesc
	auditDropped         *prometheus.Desc
	notificationsDropped *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector reading from engine.
func NewCollector(engine *goSession.Engine) *Collector {
	return NewCollectorFromSource(engine)
}

// NewCollectorFromSource creates a collector reading from any source.
func NewCollectorFromSource(source MetricsSource) *Collector {
	c := &Collector{
		source:               source,
		counters:             make([]counterDesc, 0, len(internaldefs.CounterDefs)),
		histograms:           make([]histogramDesc, 0, len(internaldefs.HistogramDefs)),
		auditDropped:         prometheus.NewDesc(internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, nil, nil),
		notificationsDropped: prometheus.NewDesc(internaldefs.NotificationsDroppedName, internaldefs.NotificationsDroppedHelp, nil, nil),
	}
	for _, def := range internaldefs.CounterDefs {
		c.counters = append(c.counters, counterDesc{id: def.ID, desc: prometheus.NewDesc(def.Name, def.Help, nil, nil)})
	}
	for _, def := range internaldefs.HistogramDefs {
		c.histograms = append(c.histograms, histogramDesc{id: def.ID, desc: prometheus.NewDesc(def.Name, def.Help, nil, nil)})
	}
	return c
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, def := range c.counters {
		ch <- def.desc
	}
	for _, def := range c.histograms {
		ch <- def.desc
	}
	ch <- c.auditDropped
	ch <- c.notificationsDropped
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c == nil || c.source == nil {
		return
	}

	snapshot := c.source.MetricsSnapshot()
	for _, def := range c.counters {
		ch <- prometheus.MustNewConstMetric(def.desc, prometheus.CounterValue, float64(snapshot.Counters[def.id]))
	}

	for _, def := range c.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[def.id]))
		buckets := make(map[float64]uint64, len(internaldefs.HistogramUpperBounds))
		for i, le := range internaldefs.HistogramUpperBounds {
			buckets[le] = cumulative[i]
		}
		// Engine histograms keep counts only, so the sum is always zero.
		ch <- prometheus.MustNewConstHistogram(def.desc, cumulative[len(cumulative)-1], 0, buckets)
	}

	ch <- prometheus.MustNewConstMetric(c.auditDropped, prometheus.CounterValue, float64(c.source.AuditDropped()))
	ch <- prometheus.MustNewConstMetric(c.notificationsDropped, prometheus.CounterValue, float64(c.source.NotificationsDropped()))
}

// Handler returns an http.Handler serving the collector from a private
// registry. The process-wide default registry is left untouched.
func Handler(c *Collector) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
