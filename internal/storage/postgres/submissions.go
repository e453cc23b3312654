package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/scribemart/internal/domain/errors"
	"github.com/polkiloo/scribemart/internal/domain/model"
)

const selectSubmissions = `SELECT id, order_id, writer_id, file_ref, note, submitted_at, check_status, score, flagged, checked_at FROM submissions`

func scanSubmission(row pgx.Row) (model.Submission, error) {
	var s model.Submission
	err := row.Scan(&s.ID, &s.OrderID, &s.WriterID, &s.FileRef, &s.Note, &s.SubmittedAt, &s.CheckStatus, &s.Score, &s.Flagged, &s.CheckedAt)
	return s, err
}

// --- SubmissionRepository implementation ---

func (r *submissionRepository) ClaimPendingChecks(ctx context.Context, limit int) ([]model.Submission, error) {
	const (
		selectQuery = selectSubmissions + `
                      WHERE check_status='pending'
                      ORDER BY submitted_at
                      LIMIT $1
                      FOR UPDATE SKIP LOCKED`
		claimQuery = `UPDATE submissions SET check_status='checking' WHERE id = ANY($1)`
	)

	var claimed []model.Submission
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectQuery, limit)
		if err != nil {
			return err
		}
		if claimed, err = collect(rows, scanSubmission); err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}

		ids := make([]int64, len(claimed))
		for i := range claimed {
			ids[i] = claimed[i].ID
			claimed[i].CheckStatus = model.CheckStatusChecking
		}
		_, err = tx.Exec(ctx, claimQuery, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *submissionRepository) SaveCheckResult(ctx context.Context, submissionID int64, status model.CheckStatus, result *model.OriginalityResult) error {
	const query = `UPDATE submissions SET check_status=$2, score=COALESCE($3, score), flagged=$4, checked_at=NOW() WHERE id=$1`

	var (
		score   *float64
		flagged bool
	)
	if result != nil {
		s := result.Score
		score = &s
		flagged = result.Flagged
	}
	tag, err := r.storage.pool.Exec(ctx, query, submissionID, status, score, flagged)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *submissionRepository) Requeue(ctx context.Context, orderID, submissionID int64) error {
	const (
		selectQuery = `SELECT check_status FROM submissions WHERE id=$1 AND order_id=$2 FOR UPDATE`
		updateQuery = `UPDATE submissions SET check_status='pending', checked_at=NULL WHERE id=$1`
	)

	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var status model.CheckStatus
		if err := tx.QueryRow(ctx, selectQuery, submissionID, orderID).Scan(&status); err != nil {
			return mapError(err, domainErrors.ErrAlreadyExists)
		}
		if status != model.CheckStatusUnchecked {
			return &domainErrors.StateError{Op: "recheck", Status: string(status)}
		}
		_, err := tx.Exec(ctx, updateQuery, submissionID)
		return err
	})
}
