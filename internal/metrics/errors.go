package metrics

import (
	"strconv"

	"github.com/gradecoach/gradecoach/internal/observability"
)

// Error metrics following Prometheus conventions
var (
	ErrorsTotal           = "app_errors_total"
	ErrorsByEndpointTotal = "app_errors_by_endpoint_total"
	PanicsTotal           = "app_panics_total"
)

// RecordError records an error by code and HTTP status.
func RecordError(code string, statusCode int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			ErrorsTotal,
			1,
			map[string]string{
				"code":   code,
				"status": strconv.Itoa(statusCode),
			},
		)
	}
}

// RecordErrorByEndpoint records an error against the endpoint that produced it.
func RecordErrorByEndpoint(endpoint, code string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			ErrorsByEndpointTotal,
			1,
			map[string]string{
				"endpoint": endpoint,
				"code":     code,
			},
		)
	}
}

// RecordPanic records a recovered panic.
func RecordPanic() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(PanicsTotal, 1, nil)
	}
}
