package domain

import "time"

// QueryStatus is the terminal status of a persisted query record.
type QueryStatus string

// Query record statuses.
const (
	QueryStatusCompleted QueryStatus = "completed"
	QueryStatusFailed    QueryStatus = "failed"
	QueryStatusCancelled QueryStatus = "cancelled"
)

// Query is the persisted record of one question/answer exchange.
// History is append-only: records are created at the start of processing
// and finalized exactly once, never rewritten afterwards.
type Query struct {
	// ID is the unique query identifier.
	ID string

	// TenantID scopes the query to a tenant.
	TenantID string

	// UserID identifies the asking user.
	UserID string

	// Question is the user's question as received.
	Question string

	// Answer is the final answer text. Empty for failed queries.
	Answer string

	// Confidence is the blended confidence in [0,1].
	Confidence float64

	// HopCount is the number of hops executed, including failed ones.
	HopCount int

	// Status records how processing ended.
	Status QueryStatus

	// ProcessingTime is the wall-clock duration of processing.
	ProcessingTime time.Duration

	// CreatedAt is when processing started.
	CreatedAt time.Time
}

// QueryOptions are the caller-supplied knobs for one request. An explicit
// strategy override always wins over the planner's classification.
type QueryOptions struct {
	// ForceStrategy overrides the planner when non-empty.
	ForceStrategy Strategy

	// UseCoT requests chain-of-thought prompting.
	UseCoT bool

	// SampleCount overrides the configured self-consistency sample count
	// when > 0.
	SampleCount int

	// MaxHops overrides the configured hop ceiling when > 0.
	MaxHops int
}

// ReasoningTrace is one sampled reasoning path. Traces are transient;
// they survive only inside the response payload.
type ReasoningTrace struct {
	// TraceID identifies the trace within one request.
	TraceID string

	// Steps are the parsed reasoning steps, in order.
	Steps []string

	// Reasoning is the raw reasoning text.
	Reasoning string

	// Answer is this trace's final answer.
	Answer string

	// Confidence is the trace's own confidence estimate in [0,1].
	Confidence float64

	// VoteScore is (votes for this trace's cluster) / sample count,
	// filled in by consensus aggregation.
	VoteScore float64
}

// Response is the envelope returned for every query, including failures.
// User-visible failure is always a well-formed Response, never a crash.
type Response struct {
	// Answer is the final answer text. Empty when ErrorType is set.
	Answer string

	// Sources are the retrieved chunks actually used, deduplicated.
	Sources []RetrievedChunk

	// Confidence is the blended confidence in [0,1].
	Confidence float64

	// ReasoningTraces holds the sampled traces for self-consistency runs.
	ReasoningTraces []ReasoningTrace

	// HopCount is the number of hops executed, including failed ones.
	HopCount int

	// ProcessingTime is the wall-clock processing duration.
	ProcessingTime time.Duration

	// QueryID is the persisted query record's ID.
	QueryID string

	// Degraded reports that one or more hops or traces failed but enough
	// succeeded to produce an answer.
	Degraded bool

	// FailedHops lists the indices of hops that ended in a failed state.
	FailedHops []int

	// Strategy is the strategy that actually ran.
	Strategy Strategy

	// AgreementScore is the winning cluster's vote share for
	// self-consistency runs, zero otherwise.
	AgreementScore float64

	// Error holds the failure message for error envelopes.
	Error string

	// ErrorType classifies the failure (validation, retrieval_unavailable,
	// generation_unavailable, cancelled). Empty on success.
	ErrorType string
}

// IsError reports whether this response is an error envelope.
func (r Response) IsError() bool {
	return r.ErrorType != ""
}
