package metrics

import (
	"github.com/gradecoach/gradecoach/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	SubmissionsTotal      = "app_submissions_total"
	QuotaDenialsTotal     = "app_quota_denials_total"
	UpstreamFailuresTotal = "app_upstream_failures_total"
	TrackedIdentities     = "app_limiter_tracked_identities"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
)

// RecordSubmission records one graded submission with its mode and outcome.
func RecordSubmission(mode string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			SubmissionsTotal,
			1,
			map[string]string{
				"mode":   mode,
				"status": status,
			},
		)
	}
}

// RecordQuotaDenial records a submission turned away by the admission
// controller. Denials are expected outcomes and tracked separately from
// failures.
func RecordQuotaDenial() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(QuotaDenialsTotal, 1, nil)
	}
}

// RecordUpstreamFailure records a failed completion call by failure class
// ("upstream" for provider-reported errors, "internal" for transport and
// decode failures).
func RecordUpstreamFailure(class string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			UpstreamFailuresTotal,
			1,
			map[string]string{"class": class},
		)
	}
}

// SetTrackedIdentities reports how many identities the limiter currently
// holds windows for.
func SetTrackedIdentities(count int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(TrackedIdentities, float64(count), nil)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(ServerStartTime, float64(timestamp), nil)
	}
}
