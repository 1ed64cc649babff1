package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fieldcap"

// Capture holds the counters updated by the capture coordinator.
type Capture struct {
	Captures        *prometheus.CounterVec
	UploadFallbacks prometheus.Counter
	Handoffs        *prometheus.CounterVec
	SaveFailures    *prometheus.CounterVec
}

// Registry owns a private prometheus registry so tests can build as many as they like.
type Registry struct {
	reg     *prometheus.Registry
	Capture Capture
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	c := Capture{
		Captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "captures_total",
			Help:      "Confirmed photo captures by storage outcome.",
		}, []string{"storage"}),
		UploadFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_fallbacks_total",
			Help:      "Uploads that fell back to the local device URI.",
		}),
		Handoffs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handoffs_total",
			Help:      "Hand-off payloads written, by kind.",
		}, []string{"kind"}),
		SaveFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "save_failures_total",
			Help:      "Confirm attempts that failed, by stage.",
		}, []string{"stage"}),
	}
	reg.MustRegister(c.Captures, c.UploadFallbacks, c.Handoffs, c.SaveFailures)
	reg.MustRegister(prometheus.NewGoCollector())
	return &Registry{reg: reg, Capture: c}
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
