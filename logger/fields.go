package logger

import (
	"time"
)

// Field keys shared by every ledgerflow component.
const (
	FieldComponent   = "component"
	FieldStage       = "stage"
	FieldFlow        = "flow"
	FieldSource      = "source"
	FieldProcessor   = "processor"
	FieldCollector   = "collector"
	FieldLedgerIndex = "ledger_index"
	FieldExecutionID = "execution_id"
	FieldMarker      = "marker"
	FieldAttempt     = "attempt"
	FieldDelay       = "delay_ms"
	FieldStatus      = "status"
	FieldError       = "error"
	FieldDuration    = "duration_ms"
	FieldCount       = "count"
	FieldKey         = "key"
	FieldPath        = "path"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	log.Info("page fetched", logger.Fields("marker", m, "count", 256))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(stage string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldStage: stage,
		FieldError: err.Error(),
	}
}

// DurationFields creates fields for a timed operation.
func DurationFields(stage string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{
		FieldStage:    stage,
		FieldDuration: d.Milliseconds(),
	}
}
