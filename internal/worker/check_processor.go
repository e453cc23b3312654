package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/scribemart/internal/adapter/originality"
	"github.com/polkiloo/scribemart/internal/domain/model"
)

const (
	maxCheckAttempts = 3
	releaseTimeout   = 5 * time.Second
)

// CheckQueue exposes the submission queue the worker drains.
type CheckQueue interface {
	ClaimPendingChecks(ctx context.Context, limit int) ([]model.Submission, error)
	RecordCheck(ctx context.Context, submissionID int64, result *model.OriginalityResult) error
}

// CheckProcessor polls queued submissions and scores them concurrently.
type CheckProcessor struct {
	queue        CheckQueue
	checker      originality.Checker
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan model.Submission
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewCheckProcessor constructs the originality worker pool.
func NewCheckProcessor(queue CheckQueue, checker originality.Checker, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *CheckProcessor {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &CheckProcessor{
		queue:        queue,
		checker:      checker,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
	}
}

// Start launches background processing.
func (p *CheckProcessor) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.jobs = make(chan model.Submission, p.batchSize*p.workers)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(runCtx, p.jobs)
	}

	p.wg.Add(1)
	go p.dispatch(runCtx, p.jobs)
}

// Stop waits for all workers to finish. Claimed submissions that were not
// scored are marked unchecked so they can be re-queued.
func (p *CheckProcessor) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *CheckProcessor) dispatch(ctx context.Context, jobs chan<- model.Submission) {
	defer p.wg.Done()
	defer close(jobs)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetchAndDispatch(ctx, jobs)
		}
	}
}

func (p *CheckProcessor) fetchAndDispatch(ctx context.Context, jobs chan<- model.Submission) {
	claimed, err := p.queue.ClaimPendingChecks(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Error("claim pending checks failed", slog.String("error", err.Error()))
		}
		return
	}
	for i, sub := range claimed {
		select {
		case <-ctx.Done():
			for _, rest := range claimed[i:] {
				p.release(ctx, rest)
			}
			return
		case jobs <- sub:
		}
	}
}

func (p *CheckProcessor) worker(ctx context.Context, jobs <-chan model.Submission) {
	defer p.wg.Done()
	for sub := range jobs {
		if ctx.Err() != nil {
			p.release(ctx, sub)
			continue
		}
		p.handle(ctx, sub)
	}
}

func (p *CheckProcessor) handle(ctx context.Context, sub model.Submission) {
	for attempt := 1; ; attempt++ {
		result, err := p.checker.Check(ctx, sub.FileRef)
		if err == nil {
			if err := p.queue.RecordCheck(ctx, sub.ID, result); err != nil {
				p.logger.Error("record check failed", slog.Int64("submission", sub.ID), slog.String("error", err.Error()))
			}
			return
		}

		var limited originality.TooManyRequestsError
		switch {
		case errors.As(err, &limited) && attempt < maxCheckAttempts:
			p.logger.Warn("originality rate limited", slog.Int64("submission", sub.ID), slog.Duration("retry_after", limited.RetryAfter))
			if !sleep(ctx, limited.RetryAfter) {
				p.release(ctx, sub)
				return
			}
			continue
		case errors.Is(err, originality.ErrDisabled), errors.Is(err, originality.ErrUnreadable):
			p.logger.Info("submission left unchecked", slog.Int64("submission", sub.ID), slog.String("reason", err.Error()))
		default:
			p.logger.Error("originality check failed", slog.Int64("submission", sub.ID), slog.String("error", err.Error()))
		}
		p.release(ctx, sub)
		return
	}
}

// release marks the submission unchecked. It runs even after shutdown began.
func (p *CheckProcessor) release(ctx context.Context, sub model.Submission) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := p.queue.RecordCheck(releaseCtx, sub.ID, nil); err != nil {
		p.logger.Error("release submission failed", slog.Int64("submission", sub.ID), slog.String("error", err.Error()))
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
