package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gmontoya2483/Shushme/module/core/domain"
)

// Collector records geofence operation outcomes as Prometheus metrics. It
// satisfies service.Reporter.
type Collector struct {
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer

	Operations         *prometheus.CounterVec
	OperationDurations *prometheus.HistogramVec
	RegionsDesired     prometheus.GaugeFunc
	RegionsConfirmed   prometheus.GaugeFunc
}

type regionCounter interface {
	RegionCounts() (desired, confirmed int)
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placewatch_operations_total",
		Help: "Geofence operations handled, labeled by kind, status and error code.",
	}, []string{"kind", "status", "code"})
	if err := register(reg, operations, "placewatch_operations_total"); err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "placewatch_operation_duration_seconds",
		Help:    "Time from issuing a geofence operation to its result.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"kind"})
	if err := register(reg, durations, "placewatch_operation_duration_seconds"); err != nil {
		return nil, err
	}

	return &Collector{
		registerer:         reg,
		gatherer:           gatherer,
		Operations:         operations,
		OperationDurations: durations,
	}, nil
}

func (c *Collector) Report(_ context.Context, r *domain.Report) {
	if c == nil {
		return
	}
	c.Operations.WithLabelValues(string(r.Kind), string(r.Status), domain.ErrorCode(r.Err)).Inc()
	if r.OperationID != "" {
		c.OperationDurations.WithLabelValues(string(r.Kind)).Observe(r.Duration.Seconds())
	}
}

// WatchRegions registers the region gauges. They are read from src at
// scrape time rather than from reports, which can arrive out of order.
func (c *Collector) WatchRegions(src regionCounter) error {
	desired := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "placewatch_regions_desired",
		Help: "Regions the caller currently wants watched.",
	}, func() float64 {
		d, _ := src.RegionCounts()
		return float64(d)
	})
	if err := register(c.registerer, desired, "placewatch_regions_desired"); err != nil {
		return err
	}

	confirmed := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "placewatch_regions_confirmed",
		Help: "Regions the monitoring service has acknowledged.",
	}, func() float64 {
		_, cf := src.RegionCounts()
		return float64(cf)
	})
	if err := register(c.registerer, confirmed, "placewatch_regions_confirmed"); err != nil {
		return err
	}

	c.RegionsDesired = desired
	c.RegionsConfirmed = confirmed
	return nil
}

// Handler exposes the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func register(reg prometheus.Registerer, c prometheus.Collector, name string) error {
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return fmt.Errorf("collector %s already registered", name)
		}
		return err
	}
	return nil
}
