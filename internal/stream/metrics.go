package stream

import (
	"Go2NetEuclid/internal/model"

	"github.com/prometheus/client_golang/prometheus"
)

var defenseStates = []string{"SAFE", "DEFENSE_ACTIVE", "DEFENSE_COOLDOWN"}

// Metrics holds the Prometheus collectors of a detector on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	records          prometheus.Counter
	marked           prometheus.Counter
	windows          prometheus.Counter
	anomalousWindows prometheus.Counter
	decodeErrors     prometheus.Counter
	entropy          *prometheus.GaugeVec
	threshold        *prometheus.GaugeVec
	defenseState     *prometheus.GaugeVec
	transitions      *prometheus.CounterVec
}

// NewMetrics creates and registers the detector collectors.
func NewMetrics(classifier string) *Metrics {
	labels := prometheus.Labels{"classifier": classifier}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "euclid", Name: "records_total",
			Help: "Flow records processed by the detector.", ConstLabels: labels,
		}),
		marked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "euclid", Name: "marked_records_total",
			Help: "Flow records classified as malicious.", ConstLabels: labels,
		}),
		windows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "euclid", Name: "windows_total",
			Help: "Observation windows completed.", ConstLabels: labels,
		}),
		anomalousWindows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "euclid", Name: "anomalous_windows_total",
			Help: "Observation windows with an entropy anomaly.", ConstLabels: labels,
		}),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "euclid", Name: "decode_errors_total",
			Help: "Record batches that could not be decoded.", ConstLabels: labels,
		}),
		entropy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "euclid", Name: "window_entropy",
			Help: "Entropy of the last completed window.", ConstLabels: labels,
		}, []string{"direction"}),
		threshold: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "euclid", Name: "window_threshold",
			Help: "Anomaly threshold the last window was tested against.", ConstLabels: labels,
		}, []string{"direction"}),
		defenseState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "euclid", Name: "defense_state",
			Help: "1 for the current defense state, 0 otherwise.", ConstLabels: labels,
		}, []string{"state"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "euclid", Name: "defense_transitions_total",
			Help: "Defense state changes.", ConstLabels: labels,
		}, []string{"from", "to"}),
	}

	m.registry.MustRegister(m.records, m.marked, m.windows, m.anomalousWindows, m.decodeErrors,
		m.entropy, m.threshold, m.defenseState, m.transitions)
	m.setState("SAFE")
	return m
}

// Registry returns the registry to be served on /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveBatch accounts for a processed batch.
func (m *Metrics) ObserveBatch(records, marked int) {
	m.records.Add(float64(records))
	m.marked.Add(float64(marked))
}

// ObserveWindow updates the window level collectors from r.
func (m *Metrics) ObserveWindow(r *model.WindowReport) {
	m.windows.Inc()
	if r.Anomalous {
		m.anomalousWindows.Inc()
	}
	m.entropy.WithLabelValues("source").Set(r.SrcEntropy)
	m.entropy.WithLabelValues("destination").Set(r.DstEntropy)
	m.threshold.WithLabelValues("source").Set(r.SrcThreshold)
	m.threshold.WithLabelValues("destination").Set(r.DstThreshold)
	if r.Transitioned() {
		m.transitions.WithLabelValues(r.PrevState, r.State).Inc()
	}
	m.setState(r.State)
}

// DecodeError counts a batch that could not be decoded.
func (m *Metrics) DecodeError() {
	m.decodeErrors.Inc()
}

func (m *Metrics) setState(state string) {
	for _, s := range defenseStates {
		v := 0.0
		if s == state {
			v = 1
		}
		m.defenseState.WithLabelValues(s).Set(v)
	}
}
