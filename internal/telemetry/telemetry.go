// Package telemetry owns the Prometheus collectors of the service.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "campaign_dash"

type Metrics struct {
	reg *prometheus.Registry

	rowsParsed    prometheus.Counter
	rowsRejected  *prometheus.CounterVec
	fieldsCoerced *prometheus.CounterVec
	fetchErrors   prometheus.Counter
	fetchLatency  prometheus.Histogram
	adjustRows    prometheus.Counter
	httpRequests  *prometheus.CounterVec
}

// New registers every collector on a private registry, plus the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		rowsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_parsed_total",
			Help: "Sheet rows turned into fact records.",
		}),
		rowsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_rejected_total",
			Help: "Sheet rows dropped, by reason.",
		}, []string{"reason"}),
		fieldsCoerced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "fields_coerced_total",
			Help: "Cells replaced by their default value, by field.",
		}, []string{"field"}),
		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "source_fetch_errors_total",
			Help: "Failed reads of the sheet source.",
		}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "source_fetch_seconds",
			Help:    "Latency of sheet source reads.",
			Buckets: prometheus.DefBuckets,
		}),
		adjustRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "adjust_rows_synced_total",
			Help: "Adjust report rows appended to the sheet.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.rowsParsed, m.rowsRejected, m.fieldsCoerced,
		m.fetchErrors, m.fetchLatency, m.adjustRows, m.httpRequests,
	)
	return m
}

func (m *Metrics) RowParsed()                { m.rowsParsed.Inc() }
func (m *Metrics) RowRejected(reason string) { m.rowsRejected.WithLabelValues(reason).Inc() }
func (m *Metrics) FieldCoerced(field string) { m.fieldsCoerced.WithLabelValues(field).Inc() }
func (m *Metrics) AdjustRowsSynced(n int)    { m.adjustRows.Add(float64(n)) }
func (m *Metrics) HTTPRequest(route string, code int) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

func (m *Metrics) FetchDone(d time.Duration, err error) {
	m.fetchLatency.Observe(d.Seconds())
	if err != nil {
		m.fetchErrors.Inc()
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
