package services

import "github.com/google/uuid"

// newTraceID returns a fresh identifier for a reasoning trace. Traces
// sort by TraceID during consensus, so IDs must be unique per request.
func newTraceID() string {
	return uuid.NewString()
}
