// Package metrics defines the Prometheus collectors exported on /metrics.
//
// Collectors are registered on the default registry at init through promauto.
// Callers use the Record* helpers rather than touching the vectors directly:
//
//	start := time.Now()
//	result, err := db.Query(ctx, q, vars)
//	metrics.RecordDBQuery(q, time.Since(start), err)
package metrics
