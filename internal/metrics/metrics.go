// Package metrics provides Prometheus metrics for chat turns.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stream outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeAborted   = "aborted"
	OutcomeError     = "error"
)

// Metrics holds the turn metrics. A nil *Metrics records nothing.
type Metrics struct {
	TurnsTotal      *prometheus.CounterVec
	ForksTotal      prometheus.Counter
	StreamsTotal    *prometheus.CounterVec
	StreamDuration  prometheus.Histogram
	TokensTotal     *prometheus.CounterVec
	PartialPersists prometheus.Counter
}

// New registers the metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		TurnsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mindchat_turns_total",
				Help: "Chat turns accepted, by kind (new, append, edit)",
			},
			[]string{"kind"},
		),
		ForksTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "mindchat_branch_forks_total",
				Help: "Branches created by editing a message",
			},
		),
		StreamsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mindchat_streams_total",
				Help: "Assistant streams, by outcome",
			},
			[]string{"outcome"},
		),
		StreamDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mindchat_stream_duration_seconds",
				Help:    "Duration of assistant streams in seconds",
				Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 40, 80, 160, 320},
			},
		),
		TokensTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mindchat_tokens_total",
				Help: "Tokens reported by the model provider",
			},
			[]string{"direction"},
		),
		PartialPersists: f.NewCounter(
			prometheus.CounterOpts{
				Name: "mindchat_partial_answers_persisted_total",
				Help: "Assistant answers saved after an abort or upstream error",
			},
		),
	}
}

func (m *Metrics) RecordTurn(kind string) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordFork() {
	if m == nil {
		return
	}
	m.ForksTotal.Inc()
}

func (m *Metrics) RecordStream(outcome string, d time.Duration, partial bool) {
	if m == nil {
		return
	}
	m.StreamsTotal.WithLabelValues(outcome).Inc()
	m.StreamDuration.Observe(d.Seconds())
	if partial {
		m.PartialPersists.Inc()
	}
}

func (m *Metrics) RecordTokens(prompt, completion int) {
	if m == nil {
		return
	}
	m.TokensTotal.WithLabelValues("prompt").Add(float64(prompt))
	m.TokensTotal.WithLabelValues("completion").Add(float64(completion))
}
