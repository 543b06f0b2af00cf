package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestServiceMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServiceMetrics(reg)

	m.IncMirrorPushFailure("completed")
	m.IncMirrorPushFailure("")
	m.IncAvailabilityDegraded()
	m.IncClaimConflict()
	m.IncClaimConflict()

	if got := testutil.ToFloat64(m.mirrorPushFailures.WithLabelValues("completed")); got != 1 {
		t.Fatalf("expected 1 completed mirror failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.mirrorPushFailures.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("expected empty status to be counted as unknown, got %v", got)
	}
	if got := testutil.ToFloat64(m.availabilityDegraded); got != 1 {
		t.Fatalf("expected 1 degraded read, got %v", got)
	}
	if got := testutil.ToFloat64(m.claimConflicts); got != 2 {
		t.Fatalf("expected 2 claim conflicts, got %v", got)
	}
}

func TestServiceMetricsNilSafe(t *testing.T) {
	var m *ServiceMetrics
	m.IncMirrorPushFailure("accepted")
	m.IncAvailabilityDegraded()
	m.IncClaimConflict()

	empty := NewServiceMetrics(nil)
	empty.IncClaimConflict()
}
