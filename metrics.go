package di

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts instance creation and resolutions. A nil *Metrics records
// nothing.
type Metrics struct {
	instances   *prometheus.CounterVec
	resolutions *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}

	instances, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "di_instances_created_total",
		Help: "Number of instances created by providers, by scope.",
	}, []string{"scope"}))
	if err != nil {
		return nil, err
	}

	resolutions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "di_resolutions_total",
		Help: "Number of call site executions, by strategy.",
	}, []string{"strategy"}))
	if err != nil {
		return nil, err
	}

	return &Metrics{instances: instances, resolutions: resolutions}, nil
}

// registerCounterVec registers cv, reusing the collector already registered
// under the same name by another container.
func registerCounterVec(reg prometheus.Registerer, cv *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(cv); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return cv, nil
}

func (m *Metrics) instanceCreated(scope string) {
	if m == nil {
		return
	}
	m.instances.WithLabelValues(scope).Inc()
}

func (m *Metrics) resolved(s Strategy) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(s.String()).Inc()
}
