package bridge

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Ignore reasons reported by the router.
const (
	ReasonUnknownChannel = "unknown_channel"
	ReasonMissingID      = "missing_id"
	ReasonUnknownID      = "unknown_id"
	ReasonMalformed      = "malformed"
)

// Metrics exposes the bridge diagnostics as Prometheus collectors. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	commandsSent    *prometheus.CounterVec
	ignoredPushes   *prometheus.CounterVec
	completed       *prometheus.CounterVec
	pendingRequests prometheus.Gauge
}

// NewMetrics builds the collectors and registers them with registerer
// (prometheus.DefaultRegisterer when nil). Collectors that are already
// registered are reused.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		commandsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bridge",
			Name:      "commands_sent_total",
			Help:      "Commands handed to the host transport.",
		}, []string{"command"}),
		ignoredPushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bridge",
			Name:      "ignored_pushes_total",
			Help:      "Inbound pushes dropped by the router.",
		}, []string{"reason"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bridge",
			Name:      "completed_requests_total",
			Help:      "Correlated requests completed by an inbound push.",
		}, []string{"outcome"}),
		pendingRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bridge",
			Name:      "pending_requests",
			Help:      "Correlated requests awaiting a host result.",
		}),
	}

	var err error
	m.commandsSent, err = register(registerer, m.commandsSent)
	if err != nil {
		return nil, err
	}
	m.ignoredPushes, err = register(registerer, m.ignoredPushes)
	if err != nil {
		return nil, err
	}
	m.completed, err = register(registerer, m.completed)
	if err != nil {
		return nil, err
	}
	m.pendingRequests, err = register(registerer, m.pendingRequests)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](registerer prometheus.Registerer, c C) (C, error) {
	if err := registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) commandSent(cmd Command) {
	if m == nil {
		return
	}
	m.commandsSent.WithLabelValues(string(cmd)).Inc()
}

func (m *Metrics) pushIgnored(reason string) {
	if m == nil {
		return
	}
	m.ignoredPushes.WithLabelValues(reason).Inc()
}

func (m *Metrics) requestCompleted(outcome string) {
	if m == nil {
		return
	}
	m.completed.WithLabelValues(outcome).Inc()
}

// SetPending records the current number of pending requests. It matches the
// signature expected by pending.WithObserver.
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pendingRequests.Set(float64(n))
}
