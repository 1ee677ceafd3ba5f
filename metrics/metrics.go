// Package metrics exposes the vault's Prometheus instrumentation: counters
// for every state-mutating entrypoint and gauges for the two protocol-wide
// totals, following the same lazily-initialised-singleton shape the rest of
// this codebase's observability layer uses.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/IHB1-Foundation/magni-cspr/core/events"
)

type Registry struct {
	entrypoints       *prometheus.CounterVec
	entrypointErrors  *prometheus.CounterVec
	delegationBatches prometheus.Counter
	undelegations     prometheus.Counter
	totalCollateral   prometheus.Gauge
	totalDebtPrincipal prometheus.Gauge
}

var (
	once     sync.Once
	registry *Registry
)

// VaultMetrics returns the process-wide metrics registry, registering it
// with the default Prometheus registerer on first use.
func VaultMetrics() *Registry {
	once.Do(func() {
		registry = &Registry{
			entrypoints: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "magniv2",
				Subsystem: "vault",
				Name:      "entrypoint_calls_total",
				Help:      "Total vault entrypoint calls segmented by entrypoint and outcome.",
			}, []string{"entrypoint", "outcome"}),
			entrypointErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "magniv2",
				Subsystem: "vault",
				Name:      "entrypoint_errors_total",
				Help:      "Total vault entrypoint failures segmented by entrypoint and error.",
			}, []string{"entrypoint", "error"}),
			delegationBatches: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "magniv2",
				Subsystem: "delegation",
				Name:      "batches_total",
				Help:      "Total delegation batches sent to the validator.",
			}),
			undelegations: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "magniv2",
				Subsystem: "delegation",
				Name:      "undelegations_total",
				Help:      "Total undelegation requests issued to cover a withdrawal shortfall.",
			}),
			totalCollateral: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "magniv2",
				Subsystem: "vault",
				Name:      "total_collateral_motes",
				Help:      "Protocol-wide total collateral, in motes.",
			}),
			totalDebtPrincipal: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "magniv2",
				Subsystem: "vault",
				Name:      "total_debt_principal_wad",
				Help:      "Protocol-wide total debt principal, in wad.",
			}),
		}
		prometheus.MustRegister(
			registry.entrypoints,
			registry.entrypointErrors,
			registry.delegationBatches,
			registry.undelegations,
			registry.totalCollateral,
			registry.totalDebtPrincipal,
		)
	})
	return registry
}

// ObserveEntrypoint records the outcome of a single entrypoint call. err
// should be the exact error returned by the engine, or nil on success.
func (m *Registry) ObserveEntrypoint(entrypoint string, err error) {
	if m == nil {
		return
	}
	if err == nil {
		m.entrypoints.WithLabelValues(entrypoint, "success").Inc()
		return
	}
	m.entrypoints.WithLabelValues(entrypoint, "error").Inc()
	m.entrypointErrors.WithLabelValues(entrypoint, err.Error()).Inc()
}

// ObserveDelegationBatch records a successful delegation batch.
func (m *Registry) ObserveDelegationBatch() {
	if m == nil {
		return
	}
	m.delegationBatches.Inc()
}

// ObserveUndelegation records an undelegation request.
func (m *Registry) ObserveUndelegation() {
	if m == nil {
		return
	}
	m.undelegations.Inc()
}

// EventObserver wraps an events.Emitter, forwarding every event unchanged
// while also feeding the delegation-batch and undelegation counters from the
// event stream. This keeps the vault engine itself free of any direct
// metrics dependency: it only ever talks to events.Emitter.
type EventObserver struct {
	Inner events.Emitter
	M     *Registry
}

// Emit implements events.Emitter.
func (o EventObserver) Emit(e events.Event) {
	if o.Inner != nil {
		o.Inner.Emit(e)
	}
	switch e.EventType() {
	case events.TypeDelegationBatched:
		o.M.ObserveDelegationBatch()
	case events.TypeUndelegationRequested:
		o.M.ObserveUndelegation()
	}
}

// SetTotals updates the two protocol-wide gauges. Callers pass the raw
// amounts in motes and wad, converted to float64 (see Motes.Float64 and
// Wad.Float64); both are too wide for a Prometheus gauge to hold exactly, so
// this is a dashboard aid, not a source of truth — GetPosition and the event
// log remain authoritative.
func (m *Registry) SetTotals(totalCollateralMotes, totalDebtPrincipalWad float64) {
	if m == nil {
		return
	}
	m.totalCollateral.Set(totalCollateralMotes)
	m.totalDebtPrincipal.Set(totalDebtPrincipalWad)
}
