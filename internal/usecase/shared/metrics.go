package shared

// MetricsRecorder decouples the usecase layer from the metrics backend.
type MetricsRecorder interface {
	RecordTransition(operation, outcome string)
	RecordConflict()
	RecordLongStayAlert(severity string)
	ObserveScanDuration(seconds float64)
}

// NopMetrics is used in tests and when metrics are disabled.
type NopMetrics struct{}

func (NopMetrics) RecordTransition(string, string) {}
func (NopMetrics) RecordConflict()                 {}
func (NopMetrics) RecordLongStayAlert(string)      {}
func (NopMetrics) ObserveScanDuration(float64)     {}
