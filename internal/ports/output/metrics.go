package output

import "time"

// MetricsCollector defines the secondary port for metrics collection.
type MetricsCollector interface {
	// IncOperationCount increments the counter for a spatial operation.
	IncOperationCount(operation string, success bool)

	// ObserveOperationDuration records a spatial operation's duration.
	ObserveOperationDuration(operation string, duration time.Duration)

	// SetTablesLoaded sets the number of registered spatial tables.
	SetTablesLoaded(count int)

	// IncStorageOperations increments the storage operation counter.
	IncStorageOperations(operation string, success bool)

	// ObserveStorageDuration records a storage operation's duration.
	ObserveStorageDuration(operation string, duration time.Duration)
}

// NoOpMetrics is a no-op implementation of MetricsCollector.
type NoOpMetrics struct{}

// IncOperationCount implements MetricsCollector.
func (n *NoOpMetrics) IncOperationCount(_ string, _ bool) {}

// ObserveOperationDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveOperationDuration(_ string, _ time.Duration) {}

// SetTablesLoaded implements MetricsCollector.
func (n *NoOpMetrics) SetTablesLoaded(_ int) {}

// IncStorageOperations implements MetricsCollector.
func (n *NoOpMetrics) IncStorageOperations(_ string, _ bool) {}

// ObserveStorageDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveStorageDuration(_ string, _ time.Duration) {}
