package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ServiceMetrics tracks the consistency-protocol signals operators care
// about: mirror pushes that never reached the remote request store, degraded
// availability reads, and claim races resolved by the unique constraint.
type ServiceMetrics struct {
	mirrorPushFailures   *prometheus.CounterVec
	availabilityDegraded prometheus.Counter
	claimConflicts       prometheus.Counter
}

// NewServiceMetrics registers the service metrics on the provided registerer.
func NewServiceMetrics(reg prometheus.Registerer) *ServiceMetrics {
	if reg == nil {
		return &ServiceMetrics{}
	}
	mirrorPushFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mirror_push_failures_total",
		Help: "Best-effort status pushes to the remote request store that failed.",
	}, []string{"status"})
	availabilityDegraded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "availability_degraded_total",
		Help: "Available-request listings served empty because the remote catalog was unreachable.",
	})
	claimConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "claim_conflicts_total",
		Help: "Accept attempts rejected because the request was already assigned.",
	})
	reg.MustRegister(mirrorPushFailures, availabilityDegraded, claimConflicts)
	return &ServiceMetrics{
		mirrorPushFailures:   mirrorPushFailures,
		availabilityDegraded: availabilityDegraded,
		claimConflicts:       claimConflicts,
	}
}

// IncMirrorPushFailure counts a failed push of the given remote status.
func (m *ServiceMetrics) IncMirrorPushFailure(status string) {
	if m == nil || m.mirrorPushFailures == nil {
		return
	}
	if status == "" {
		status = "unknown"
	}
	m.mirrorPushFailures.WithLabelValues(status).Inc()
}

// IncAvailabilityDegraded counts a degraded availability read.
func (m *ServiceMetrics) IncAvailabilityDegraded() {
	if m == nil || m.availabilityDegraded == nil {
		return
	}
	m.availabilityDegraded.Inc()
}

// IncClaimConflict counts a rejected duplicate claim.
func (m *ServiceMetrics) IncClaimConflict() {
	if m == nil || m.claimConflicts == nil {
		return
	}
	m.claimConflicts.Inc()
}
