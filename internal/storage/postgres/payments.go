package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/scribemart/internal/domain/errors"
	"github.com/polkiloo/scribemart/internal/domain/model"
	"github.com/polkiloo/scribemart/internal/settlement"
)

const paymentColumns = `id, type, amount, currency, payer_id, payee_id, order_id, related_id, status,
       platform_fee, net_amount, method, details, gateway_reference, gateway_payload, failure_reason,
       requested_at, approved_at, completed_at`

const balanceQuery = `SELECT
       COALESCE(SUM(net_amount) FILTER (WHERE type='order_payment' AND status='completed'), 0),
       COALESCE(SUM(amount) FILTER (WHERE type='writer_withdrawal' AND status='completed'), 0),
       COALESCE(SUM(amount) FILTER (WHERE type='writer_withdrawal' AND status IN ('pending', 'processing')), 0)
       FROM payment_records WHERE payee_id=$1`

func scanPayment(row pgx.Row) (*model.PaymentRecord, error) {
	var p model.PaymentRecord
	err := row.Scan(
		&p.ID, &p.Type, &p.Amount, &p.Currency, &p.PayerID, &p.PayeeID, &p.OrderID, &p.RelatedID, &p.Status,
		&p.PlatformFee, &p.NetAmount, &p.Method, &p.Details, &p.GatewayReference, &p.GatewayPayload, &p.FailureReason,
		&p.RequestedAt, &p.ApprovedAt, &p.CompletedAt,
	)
	if err != nil {
		return nil, mapError(err, domainErrors.ErrAlreadyExists)
	}
	return &p, nil
}

func scanPaymentRow(row pgx.Row) (model.PaymentRecord, error) {
	p, err := scanPayment(row)
	if err != nil {
		return model.PaymentRecord{}, err
	}
	return *p, nil
}

// jsonArg turns an empty document into SQL NULL.
func jsonArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func insertPayment(ctx context.Context, q querier, rec model.PaymentRecord) (*model.PaymentRecord, error) {
	const query = `INSERT INTO payment_records (type, amount, currency, payer_id, payee_id, order_id, related_id, status,
                       platform_fee, net_amount, method, details, completed_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb, CASE WHEN $13::boolean THEN NOW() END)
                   RETURNING ` + paymentColumns
	return scanPayment(q.QueryRow(ctx, query,
		rec.Type, rec.Amount, rec.Currency, rec.PayerID, rec.PayeeID, rec.OrderID, rec.RelatedID, rec.Status,
		rec.PlatformFee, rec.NetAmount, rec.Method, jsonArg(rec.Details), rec.Status.Terminal(),
	))
}

func loadBalance(ctx context.Context, q querier, writerID int64) (*model.Balance, error) {
	var b model.Balance
	if err := q.QueryRow(ctx, balanceQuery, writerID).Scan(&b.Earned, &b.Withdrawn, &b.Pending); err != nil {
		return nil, err
	}
	b.Available = settlement.Available(b.Earned, b.Withdrawn, b.Pending)
	return &b, nil
}

// --- PaymentRepository implementation ---

func (r *paymentRepository) CreateCharge(ctx context.Context, rec model.PaymentRecord) (*model.PaymentRecord, error) {
	if rec.OrderID == nil {
		return nil, domainErrors.Invalid("order_id", "required")
	}
	return insertPayment(ctx, r.storage.pool, rec)
}

func (r *paymentRepository) CreateWithdrawal(ctx context.Context, rec model.PaymentRecord) (*model.PaymentRecord, error) {
	if rec.PayeeID == nil {
		return nil, domainErrors.Invalid("payee_id", "required")
	}

	var created *model.PaymentRecord
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var id int64
		if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id=$1 FOR UPDATE`, *rec.PayeeID).Scan(&id); err != nil {
			return mapError(err, domainErrors.ErrAlreadyExists)
		}
		balance, err := loadBalance(ctx, tx, *rec.PayeeID)
		if err != nil {
			return err
		}
		if balance.Available.LessThan(rec.Amount) {
			return domainErrors.ErrInsufficientBalance
		}
		created, err = insertPayment(ctx, tx, rec)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *paymentRepository) CreateRefund(ctx context.Context, rec model.PaymentRecord) (*model.PaymentRecord, error) {
	const (
		selectOriginal = `SELECT type, status, amount, order_id, method, COALESCE(gateway_reference, '') FROM payment_records WHERE id=$1 FOR UPDATE`
		refundedSum    = `SELECT COALESCE(SUM(amount), 0) FROM payment_records WHERE type='refund' AND related_id=$1 AND status <> 'failed'`
	)
	if rec.RelatedID == nil {
		return nil, domainErrors.Invalid("related_id", "required")
	}

	var created *model.PaymentRecord
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var original model.PaymentRecord
		if err := tx.QueryRow(ctx, selectOriginal, *rec.RelatedID).Scan(
			&original.Type, &original.Status, &original.Amount, &original.OrderID, &original.Method, &original.GatewayReference,
		); err != nil {
			return mapError(err, domainErrors.ErrAlreadyExists)
		}
		if !original.Charged() {
			return &domainErrors.StateError{Op: "refund", Status: string(original.Status)}
		}
		amount, orderID := original.Amount, original.OrderID

		var refunded decimal.Decimal
		if err := tx.QueryRow(ctx, refundedSum, *rec.RelatedID).Scan(&refunded); err != nil {
			return err
		}
		if refunded.Add(rec.Amount).GreaterThan(amount) {
			return domainErrors.Invalid("amount", "exceeds refundable amount")
		}

		rec.OrderID = orderID
		var err error
		created, err = insertPayment(ctx, tx, rec)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *paymentRepository) Update(ctx context.Context, id int64, from []model.PaymentStatus, upd model.PaymentUpdate) (*model.PaymentRecord, error) {
	const (
		selectQuery = `SELECT status FROM payment_records WHERE id=$1 FOR UPDATE`
		updateQuery = `UPDATE payment_records
                       SET status=$2,
                           gateway_reference=COALESCE(NULLIF($3::text, ''), gateway_reference),
                           gateway_payload=COALESCE($4::jsonb, gateway_payload),
                           failure_reason=COALESCE(NULLIF($5::text, ''), failure_reason),
                           approved_at=CASE WHEN $6::boolean THEN NOW() ELSE approved_at END,
                           completed_at=CASE WHEN $7::boolean THEN NOW() ELSE completed_at END
                       WHERE id=$1
                       RETURNING ` + paymentColumns
		updateOrder = `UPDATE orders
                       SET payment_status=$2,
                           payment_method=CASE WHEN $3::boolean THEN $4 ELSE payment_method END,
                           payment_reference=CASE WHEN $3::boolean THEN $5 ELSE payment_reference END,
                           updated_at=NOW()
                       WHERE id=$1`
	)

	var updated *model.PaymentRecord
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var current model.PaymentStatus
		if err := tx.QueryRow(ctx, selectQuery, id).Scan(&current); err != nil {
			return mapError(err, domainErrors.ErrAlreadyExists)
		}
		allowed := false
		for _, st := range from {
			if st == current {
				allowed = true
				break
			}
		}
		if !allowed {
			return &domainErrors.StateError{Op: string(upd.Status), Status: string(current)}
		}

		var err error
		updated, err = scanPayment(tx.QueryRow(ctx, updateQuery, id, upd.Status, upd.GatewayReference,
			jsonArg(upd.GatewayPayload), upd.FailureReason,
			upd.Status == model.PaymentStatusProcessing, upd.Status.Terminal()))
		if err != nil {
			return err
		}

		if upd.OrderPaymentStatus != nil && updated.OrderID != nil {
			paid := *upd.OrderPaymentStatus == model.OrderPaymentPaid
			_, err = tx.Exec(ctx, updateOrder, *updated.OrderID, *upd.OrderPaymentStatus, paid, updated.Method, updated.GatewayReference)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id int64) (*model.PaymentRecord, error) {
	return scanPayment(r.storage.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payment_records WHERE id=$1`, id))
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID int64) ([]model.PaymentRecord, error) {
	const query = `SELECT ` + paymentColumns + ` FROM payment_records WHERE payer_id=$1 OR payee_id=$1 ORDER BY id DESC`
	rows, err := r.storage.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanPaymentRow)
}

func (r *paymentRepository) ListWithdrawals(ctx context.Context, statuses []model.PaymentStatus) ([]model.PaymentRecord, error) {
	const query = `SELECT ` + paymentColumns + ` FROM payment_records
                   WHERE type='writer_withdrawal' AND (cardinality($1::text[]) = 0 OR status = ANY($1::text[]))
                   ORDER BY id DESC`
	filter := make([]string, len(statuses))
	for i, st := range statuses {
		filter[i] = string(st)
	}
	rows, err := r.storage.pool.Query(ctx, query, filter)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanPaymentRow)
}

func (r *paymentRepository) Balance(ctx context.Context, writerID int64) (*model.Balance, error) {
	return loadBalance(ctx, r.storage.pool, writerID)
}
