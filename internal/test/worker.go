package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/polkiloo/scribemart/internal/domain/model"
)

// CheckCall stores a RecordCheck invocation.
type CheckCall struct {
	SubmissionID int64
	Result       *model.OriginalityResult
}

// CheckQueueStub feeds configured batches to the originality worker.
type CheckQueueStub struct {
	Batches  [][]model.Submission
	ClaimFn  func(context.Context, int) ([]model.Submission, error)
	RecordFn func(context.Context, int64, *model.OriginalityResult) error
	Records  []CheckCall

	mu         sync.Mutex
	claimCalls int32
}

// Lock exposes internal mutex for external synchronization.
func (s *CheckQueueStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *CheckQueueStub) Unlock() { s.mu.Unlock() }

// ClaimPendingChecks returns the next configured batch.
func (s *CheckQueueStub) ClaimPendingChecks(ctx context.Context, limit int) ([]model.Submission, error) {
	if s.ClaimFn != nil {
		return s.ClaimFn(ctx, limit)
	}
	call := atomic.AddInt32(&s.claimCalls, 1)
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	time.Sleep(5 * time.Millisecond)
	return nil, nil
}

// RecordCheck stores the reported result.
func (s *CheckQueueStub) RecordCheck(ctx context.Context, submissionID int64, result *model.OriginalityResult) error {
	if s.RecordFn != nil {
		return s.RecordFn(ctx, submissionID, result)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Records = append(s.Records, CheckCall{SubmissionID: submissionID, Result: result})
	return nil
}

// RecordCount reports how many results were stored.
func (s *CheckQueueStub) RecordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Records)
}

// CheckerStub scores files with a configurable function.
type CheckerStub struct {
	CheckFn func(context.Context, string) (*model.OriginalityResult, error)
}

// Check delegates to CheckFn or reports a clean score.
func (s CheckerStub) Check(ctx context.Context, fileRef string) (*model.OriginalityResult, error) {
	if s.CheckFn != nil {
		return s.CheckFn(ctx, fileRef)
	}
	return &model.OriginalityResult{Score: 2.5}, nil
}
