package observability

import (
	"context"
	"strconv"

	"github.com/aretw0/swimlane/pkg/domain"
	"github.com/aretw0/swimlane/pkg/persistence"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for one process.
type Metrics struct {
	mutations *prometheus.CounterVec
	denied    *prometheus.CounterVec
	faults    *prometheus.CounterVec
	blocks    *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered (useful in tests).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swimlane_mutations_total",
				Help: "Total number of board commands that changed state",
			},
			[]string{"op"},
		),
		denied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swimlane_moves_denied_total",
				Help: "Total number of moves rejected by a deny rule",
			},
			[]string{"from", "to"},
		),
		faults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swimlane_persistence_faults_total",
				Help: "Total number of swallowed load/save faults",
			},
			[]string{"op"},
		),
		blocks: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "swimlane_blocks",
				Help: "Number of blocks per lane position after the last command",
			},
			[]string{"lane"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.mutations, m.denied, m.faults, m.blocks)
	}
	return m
}

// Hooks returns board hooks that feed the collectors.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnMutation: func(ctx context.Context, e *domain.MutationEvent) {
			m.mutations.WithLabelValues(string(e.Op)).Inc()
			m.Observe(e.State)
		},
		OnMoveDenied: func(ctx context.Context, e *domain.DenialEvent) {
			m.denied.WithLabelValues(strconv.Itoa(e.Denial.From), strconv.Itoa(e.Denial.To)).Inc()
		},
	}
}

// Observe sets the per-lane block gauges from a snapshot.
// Lanes are labelled by 1-based position, the same way rules address them.
func (m *Metrics) Observe(state *domain.BoardState) {
	if state == nil {
		return
	}
	m.blocks.Reset()
	for i, lane := range state.Lanes {
		m.blocks.WithLabelValues(strconv.Itoa(i + 1)).Set(float64(len(lane.Items)))
	}
}

// PersistenceFault counts a swallowed fault. It satisfies persistence.FaultObserver.
func (m *Metrics) PersistenceFault(op persistence.Op, _ error) {
	m.faults.WithLabelValues(string(op)).Inc()
}
