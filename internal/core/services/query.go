package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
	"github.com/custodia-labs/ansa/internal/logger"
)

// Error envelope types.
const (
	errorTypeValidation = "validation"
	errorTypeRetrieval  = "retrieval_unavailable"
	errorTypeGeneration = "generation_unavailable"
	errorTypeCancelled  = "cancelled"
	errorTypeInternal   = "internal"
)

// QueryService is the driving-port orchestrator: it plans, dispatches to
// the strategy executor, verifies, assembles, and persists the record.
// Requests are independent; the service holds no per-request state and is
// safe for concurrent use.
type QueryService struct {
	planner     *Planner
	singleHop   *SingleHopExecutor
	consistency *ConsistencyExecutor
	multiHop    *MultiHopExecutor
	verifier    *Verifier
	queryStore  driven.QueryStore
	settings    domain.AppSettings
}

// Interface guard.
var _ driving.QueryService = (*QueryService)(nil)

// NewQueryService wires the planner, executors and verifier into one
// service. queryStore may be nil; history is then disabled but answering
// still works.
func NewQueryService(
	planner *Planner,
	singleHop *SingleHopExecutor,
	consistency *ConsistencyExecutor,
	multiHop *MultiHopExecutor,
	verifier *Verifier,
	queryStore driven.QueryStore,
	settings domain.AppSettings,
) *QueryService {
	return &QueryService{
		planner:     planner,
		singleHop:   singleHop,
		consistency: consistency,
		multiHop:    multiHop,
		verifier:    verifier,
		queryStore:  queryStore,
		settings:    settings,
	}
}

// Answer processes one question end to end. Validation failures return a
// non-nil error; every other failure comes back as a well-formed error
// envelope so callers always get a response they can render. The query
// record is finalized exactly once on every path, including cancellation.
func (s *QueryService) Answer(ctx context.Context, req driving.QueryRequest) (domain.Response, error) {
	start := time.Now()

	plan, err := s.planner.Plan(req.Question, req.TenantID, req.Options)
	if err != nil {
		return domain.Response{}, err
	}

	record := &domain.Query{
		ID:        uuid.NewString(),
		TenantID:  req.TenantID,
		UserID:    req.UserID,
		Question:  req.Question,
		CreatedAt: start,
	}
	if s.queryStore != nil {
		if err := s.queryStore.Create(ctx, record); err != nil {
			// History is best-effort; answering continues without it.
			logger.Warn("Could not create query record: %v", err)
		}
	}

	if s.settings.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.settings.RequestTimeout)
		defer cancel()
	}

	logger.Info("Query %s: strategy=%s complexity=%s hops=%d", record.ID, plan.Strategy, plan.Complexity, len(plan.Hops))

	resp, execErr := s.dispatch(ctx, req, plan)
	if execErr != nil {
		resp = s.errorEnvelope(execErr)
	} else {
		resp = s.verifier.Verify(resp)
	}

	resp.QueryID = record.ID
	resp.Strategy = plan.Strategy
	resp.ProcessingTime = time.Since(start)

	s.finalize(record, resp, execErr)
	return resp, nil
}

// dispatch routes the plan to its strategy executor. A request whose
// context is already dead never starts executing.
func (s *QueryService) dispatch(ctx context.Context, req driving.QueryRequest, plan domain.ExecutionPlan) (domain.Response, error) {
	if err := ctx.Err(); err != nil {
		return domain.Response{}, err
	}
	switch plan.Strategy {
	case domain.StrategySingleHop:
		return s.singleHop.Execute(ctx, req.Question, req.TenantID, req.Options)
	case domain.StrategySelfConsistency:
		return s.consistency.Execute(ctx, req.Question, req.TenantID, plan, req.Options)
	case domain.StrategyMultiHop:
		return s.multiHop.Execute(ctx, req.Question, req.TenantID, plan, req.Options)
	default:
		return domain.Response{}, fmt.Errorf("%w: unknown strategy %q", domain.ErrPlanning, plan.Strategy)
	}
}

// errorEnvelope converts an unrecoverable execution error into the
// response the caller renders. The caller never sees a bare error for
// these; the envelope carries the classification.
func (s *QueryService) errorEnvelope(err error) domain.Response {
	resp := domain.Response{Error: err.Error()}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		resp.ErrorType = errorTypeCancelled
		resp.Error = "the request was cancelled before an answer was produced"
	case errors.Is(err, domain.ErrRetrievalUnavailable),
		errors.Is(err, domain.ErrVectorIndexUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable):
		// Index and embedder outages mean no retrieval is possible; for
		// the caller that is a retrieval failure, not an internal one.
		resp.ErrorType = errorTypeRetrieval
	case errors.Is(err, domain.ErrGenerationUnavailable), errors.Is(err, domain.ErrLLMUnavailable):
		resp.ErrorType = errorTypeGeneration
	case errors.Is(err, domain.ErrValidation):
		resp.ErrorType = errorTypeValidation
	default:
		resp.ErrorType = errorTypeInternal
	}
	logger.Warn("Query failed (%s): %v", resp.ErrorType, err)
	return resp
}

// finalize writes the terminal record. Records are append-only: this is
// the one and only update a record ever receives.
func (s *QueryService) finalize(record *domain.Query, resp domain.Response, execErr error) {
	record.Answer = resp.Answer
	record.Confidence = resp.Confidence
	record.HopCount = resp.HopCount
	record.ProcessingTime = resp.ProcessingTime
	switch {
	case execErr == nil:
		record.Status = domain.QueryStatusCompleted
	case errors.Is(execErr, context.Canceled), errors.Is(execErr, context.DeadlineExceeded):
		record.Status = domain.QueryStatusCancelled
	default:
		record.Status = domain.QueryStatusFailed
	}

	if s.queryStore == nil {
		return
	}
	// Finalization must survive request cancellation.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.queryStore.Finalize(ctx, record); err != nil {
		logger.Warn("Could not finalize query record %s: %v", record.ID, err)
	}
}

// History returns a tenant's query history, newest first.
func (s *QueryService) History(ctx context.Context, tenantID, userID string, limit int) ([]domain.Query, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant ID is required", domain.ErrValidation)
	}
	if s.queryStore == nil {
		return nil, nil
	}
	return s.queryStore.List(ctx, tenantID, userID, limit)
}
