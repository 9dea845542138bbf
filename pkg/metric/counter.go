package metric

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// IncrementalCounter counts labeled events.
type IncrementalCounter interface {
	Increment(val ...string)
}

// Counter is a labeled Prometheus counter.
type Counter struct {
	Name string
	Help string

	vec *prometheus.CounterVec
}

// Increment adds one to the series identified by val.
func (c *Counter) Increment(val ...string) {
	c.vec.WithLabelValues(val...).Inc()
}

// NewCounterWithRegistry creates a counter and registers it with reg.
func NewCounterWithRegistry(reg prometheus.Registerer, name, help string, labels ...string) IncrementalCounter {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: help,
	}, labels)

	reg.MustRegister(counter)

	return &Counter{
		Name: name,
		Help: help,
		vec:  counter,
	}
}

// Gauge tracks a labeled value that can go up and down.
type Gauge struct {
	Name string
	Help string

	vec *prometheus.GaugeVec
}

func (g *Gauge) Add(delta float64, val ...string) {
	g.vec.WithLabelValues(val...).Add(delta)
}

func (g *Gauge) Set(v float64, val ...string) {
	g.vec.WithLabelValues(val...).Set(v)
}

// NewGaugeWithRegistry creates a gauge and registers it with reg.
func NewGaugeWithRegistry(reg prometheus.Registerer, name, help string, labels ...string) *Gauge {
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	}, labels)

	reg.MustRegister(gauge)

	return &Gauge{
		Name: name,
		Help: help,
		vec:  gauge,
	}
}

// HandlerFor serves the metrics gathered by reg. Errors are logged to errLog.
func HandlerFor(reg prometheus.Gatherer, errLog *log.Logger) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{ErrorLog: errLog})
}
