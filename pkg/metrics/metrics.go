package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var durationBucketsMS = []float64{
	25, 50, 75, 100, 150, 200, 300, 400, 500,
	750, 1000, 1500, 2000, 3000, 5000, 10000, 30000, 60000,
}

// URLLabelMappingFn controls the cardinality of the "url" label. The
// default maps each request to its gin route template.
type URLLabelMappingFn func(c *gin.Context) string

// Exporter collects HTTP metrics from a gin engine and serves them on a
// dedicated listen address, separate from the API port.
type Exporter struct {
	reqCnt *prometheus.CounterVec
	reqDur *prometheus.HistogramVec

	reconcileOutcomes *prometheus.CounterVec

	listenAddress string
	urlMapping    URLLabelMappingFn
	log           *zap.SugaredLogger
}

type NewExporterOptions struct {
	Subsystem     string
	ListenAddress string
	URLMapping    URLLabelMappingFn
	Logger        *zap.SugaredLogger
}

func NewExporter(opts NewExporterOptions) *Exporter {
	subsystem := opts.Subsystem
	if subsystem == "" {
		subsystem = "lms"
	}

	e := &Exporter{
		listenAddress: opts.ListenAddress,
		urlMapping:    opts.URLMapping,
		log:           opts.Logger,
	}
	if e.urlMapping == nil {
		e.urlMapping = func(c *gin.Context) string {
			if fp := c.FullPath(); fp != "" {
				return fp
			}
			return c.Request.URL.Path
		}
	}

	e.reqCnt = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "req_total",
		Help:      "HTTP requests processed, partitioned by status code, method and url.",
	}, []string{"code", "method", "url"})
	e.reqDur = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem: subsystem,
		Name:      "req_dur_ms",
		Help:      "HTTP request latencies in milliseconds.",
		Buckets:   durationBucketsMS,
	}, []string{"code", "method", "url"})
	e.reconcileOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "purchase_reconcile_total",
		Help:      "Purchase reconciliation signal outcomes, partitioned by source and outcome.",
	}, []string{"source", "outcome"})

	for _, c := range []prometheus.Collector{e.reqCnt, e.reqDur, e.reconcileOutcomes} {
		if err := prometheus.Register(c); err != nil && e.log != nil {
			e.log.Errorf("metrics register failed: %v", err)
		}
	}
	return e
}

// ObserveReconcile counts a reconciliation outcome ("paid", "failed",
// "noop", "rejected", "error") for a signal source ("webhook", "confirm").
func (e *Exporter) ObserveReconcile(source, outcome string) {
	if e == nil {
		return
	}
	e.reconcileOutcomes.WithLabelValues(source, outcome).Inc()
}

// Use attaches the measuring middleware to the engine and starts the
// metrics listener when a listen address is configured.
func (e *Exporter) Use(r *gin.Engine) {
	r.Use(e.handlerFunc())
	if e.listenAddress != "" {
		go e.runServer()
	}
}

func (e *Exporter) handlerFunc() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		code := strconv.Itoa(c.Writer.Status())
		url := e.urlMapping(c)
		e.reqCnt.WithLabelValues(code, c.Request.Method, url).Inc()
		e.reqDur.WithLabelValues(code, c.Request.Method, url).
			Observe(float64(time.Since(start).Milliseconds()))
	}
}

func (e *Exporter) runServer() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(e.listenAddress, mux); err != nil && e.log != nil {
		e.log.Errorf("metrics listener error: %v", err)
	}
}
