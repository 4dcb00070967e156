package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the controller's prometheus collectors. Each controller
// owns its own registry so that several devices, or tests, do not collide.
type Metrics struct {
	registry *prometheus.Registry

	HardwareCalls        *prometheus.CounterVec
	HardwareErrors       *prometheus.CounterVec
	ConnectAttempts      prometheus.Counter
	AttributeRejections  *prometheus.CounterVec
	ListsExecuted        prometheus.Counter
	ConnectionState      prometheus.Gauge
	InstructionsAppended *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HardwareCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rtc6_hardware_calls_total",
			Help: "Hardware calls issued to the card, by operation.",
		}, []string{"op"}),
		HardwareErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rtc6_hardware_errors_total",
			Help: "Hardware calls that returned an error, by operation.",
		}, []string{"op"}),
		ConnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rtc6_connect_attempts_total",
			Help: "Connection attempts made to the card.",
		}),
		AttributeRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rtc6_attribute_rejections_total",
			Help: "Attribute writes rejected before reaching the card, by attribute.",
		}, []string{"attribute"}),
		ListsExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rtc6_lists_executed_total",
			Help: "Motion lists handed to the card for execution.",
		}),
		ConnectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rtc6_connection_state",
			Help: "Connection state: 0 disconnected, 1 connecting, 2 connected.",
		}),
		InstructionsAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rtc6_list_instructions_total",
			Help: "Motion instructions appended to lists, by kind.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(
		m.HardwareCalls,
		m.HardwareErrors,
		m.ConnectAttempts,
		m.AttributeRejections,
		m.ListsExecuted,
		m.ConnectionState,
		m.InstructionsAppended,
	)
	return m
}

// ObserveCall counts one hardware call and, if err is non-nil, its failure.
// It returns err unchanged so call sites can wrap it inline.
func (m *Metrics) ObserveCall(op string, err error) error {
	if m == nil {
		return err
	}
	m.HardwareCalls.WithLabelValues(op).Inc()
	if err != nil {
		m.HardwareErrors.WithLabelValues(op).Inc()
	}
	return err
}

// Registry exposes the underlying registry for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the collectors in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
