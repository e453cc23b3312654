package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/scribemart/internal/domain/errors"
	"github.com/polkiloo/scribemart/internal/domain/model"
)

const orderColumns = `id, number, title, subject, academic_level, paper_type, instructions, word_count, pages,
       deadline, urgency, requirements, price_per_page, total_price, currency,
       payment_status, payment_method, payment_reference, client_id, guest_email, guest_name,
       writer_id, status, revision, rating_score, rating_review, client_unread, writer_unread,
       created_at, updated_at`

const (
	selectOrder    = `SELECT ` + orderColumns + ` FROM orders`
	selectBids     = `SELECT id, order_id, writer_id, amount, message, status, created_at, updated_at FROM bids WHERE order_id=$1 ORDER BY id`
	selectTimeline = `SELECT id, order_id, event, description, actor_id, actor_role, created_at FROM order_timeline WHERE order_id=$1 ORDER BY id`
)

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o                     model.Order
		requirements          []byte
		revision              []byte
		clientID              *int64
		guestEmail, guestName *string
		ratingScore           *int
		ratingReview          *string
	)
	err := row.Scan(
		&o.ID, &o.Number, &o.Title, &o.Subject, &o.AcademicLevel, &o.PaperType, &o.Instructions, &o.WordCount, &o.Pages,
		&o.Deadline, &o.Urgency, &requirements, &o.PricePerPage, &o.TotalPrice, &o.Currency,
		&o.PaymentStatus, &o.PaymentMethod, &o.PaymentReference, &clientID, &guestEmail, &guestName,
		&o.WriterID, &o.Status, &revision, &ratingScore, &ratingReview, &o.ClientUnread, &o.WriterUnread,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, domainErrors.ErrAlreadyExists)
	}

	if len(requirements) > 0 {
		if err := json.Unmarshal(requirements, &o.Requirements); err != nil {
			return nil, fmt.Errorf("decode requirements of %s: %w", o.Number, err)
		}
	}
	if len(revision) > 0 {
		var rev model.RevisionRequest
		if err := json.Unmarshal(revision, &rev); err != nil {
			return nil, fmt.Errorf("decode revision of %s: %w", o.Number, err)
		}
		o.Revision = &rev
	}
	if ratingScore != nil {
		o.Rating = &model.Rating{Score: *ratingScore}
		if ratingReview != nil {
			o.Rating.Review = *ratingReview
		}
	}

	switch {
	case clientID != nil:
		o.Client = model.IdentifiedClient{UserID: *clientID}
	case guestEmail != nil:
		guest := model.GuestClient{Email: *guestEmail}
		if guestName != nil {
			guest.Name = *guestName
		}
		o.Client = guest
	}
	return &o, nil
}

func scanOrderRow(row pgx.Row) (model.Order, error) {
	o, err := scanOrder(row)
	if err != nil {
		return model.Order{}, err
	}
	return *o, nil
}

func scanBid(row pgx.Row) (model.Bid, error) {
	var b model.Bid
	err := row.Scan(&b.ID, &b.OrderID, &b.WriterID, &b.Amount, &b.Message, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func scanEntry(row pgx.Row) (model.TimelineEntry, error) {
	var e model.TimelineEntry
	err := row.Scan(&e.ID, &e.OrderID, &e.Event, &e.Description, &e.ActorID, &e.ActorRole, &e.CreatedAt)
	return e, err
}

func clientColumns(ref model.ClientRef) (clientID *int64, guestEmail, guestName *string) {
	switch c := ref.(type) {
	case model.IdentifiedClient:
		id := c.UserID
		return &id, nil, nil
	case model.GuestClient:
		email, name := c.Email, c.Name
		return nil, &email, &name
	}
	return nil, nil, nil
}

// loadOrder reads the order row with its bids, submissions and timeline.
func loadOrder(ctx context.Context, q querier, where string, arg any) (*model.Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, selectOrder+" WHERE "+where, arg))
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, selectBids, o.ID)
	if err != nil {
		return nil, err
	}
	if o.Bids, err = collect(rows, scanBid); err != nil {
		return nil, err
	}

	rows, err = q.Query(ctx, selectSubmissions+` WHERE order_id=$1 ORDER BY id`, o.ID)
	if err != nil {
		return nil, err
	}
	if o.Submissions, err = collect(rows, scanSubmission); err != nil {
		return nil, err
	}

	rows, err = q.Query(ctx, selectTimeline, o.ID)
	if err != nil {
		return nil, err
	}
	if o.Timeline, err = collect(rows, scanEntry); err != nil {
		return nil, err
	}
	return o, nil
}

func insertTimeline(ctx context.Context, q querier, orderID int64, e model.TimelineEntry) (model.TimelineEntry, error) {
	const query = `INSERT INTO order_timeline (order_id, event, description, actor_id, actor_role)
                   VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	e.OrderID = orderID
	err := q.QueryRow(ctx, query, orderID, e.Event, e.Description, e.ActorID, e.ActorRole).Scan(&e.ID, &e.CreatedAt)
	return e, err
}

// --- OrderRepository implementation ---

func (r *orderRepository) Create(ctx context.Context, order *model.Order, entry model.TimelineEntry) (*model.Order, error) {
	const query = `INSERT INTO orders (number, title, subject, academic_level, paper_type, instructions, word_count, pages,
                       deadline, urgency, requirements, price_per_page, total_price, currency, payment_status,
                       client_id, guest_email, guest_name, status)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
                   RETURNING id, created_at, updated_at`

	requirements, err := json.Marshal(order.Requirements)
	if err != nil {
		return nil, fmt.Errorf("encode requirements: %w", err)
	}
	created := *order
	if created.PaymentStatus == "" {
		created.PaymentStatus = model.OrderPaymentUnpaid
	}
	clientID, guestEmail, guestName := clientColumns(created.Client)

	err = r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query,
			created.Number, created.Title, created.Subject, created.AcademicLevel, created.PaperType, created.Instructions,
			created.WordCount, created.Pages, created.Deadline, created.Urgency, requirements,
			created.PricePerPage, created.TotalPrice, created.Currency, created.PaymentStatus,
			clientID, guestEmail, guestName, created.Status,
		).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
		if err != nil {
			return mapError(err, domainErrors.ErrAlreadyExists)
		}

		e, err := insertTimeline(ctx, tx, created.ID, entry)
		if err != nil {
			return err
		}
		created.Bids, created.Submissions = nil, nil
		created.Timeline = []model.TimelineEntry{e}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	return loadOrder(ctx, r.storage.pool, "id=$1", id)
}

func (r *orderRepository) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	return loadOrder(ctx, r.storage.pool, "number=$1", number)
}

func (r *orderRepository) ListByClient(ctx context.Context, clientID int64) ([]model.Order, error) {
	return r.list(ctx, "client_id=$1", clientID)
}

func (r *orderRepository) ListByWriter(ctx context.Context, writerID int64) ([]model.Order, error) {
	return r.list(ctx, "writer_id=$1", writerID)
}

func (r *orderRepository) ListAvailable(ctx context.Context) ([]model.Order, error) {
	return r.list(ctx, "status=$1", model.OrderStatusPending)
}

// list returns order rows without their bids, submissions and timeline.
func (r *orderRepository) list(ctx context.Context, where string, arg any) ([]model.Order, error) {
	rows, err := r.storage.pool.Query(ctx, selectOrder+" WHERE "+where+" ORDER BY created_at DESC, id DESC", arg)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanOrderRow)
}

func (r *orderRepository) Timeline(ctx context.Context, orderID int64) ([]model.TimelineEntry, error) {
	var exists bool
	if err := r.storage.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id=$1)`, orderID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, domainErrors.ErrNotFound
	}

	rows, err := r.storage.pool.Query(ctx, selectTimeline, orderID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanEntry)
}

func (r *orderRepository) AddBid(ctx context.Context, bid model.Bid) (*model.Bid, error) {
	const query = `INSERT INTO bids (order_id, writer_id, amount, message, status)
                   VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`

	bid.Status = model.BidStatusPending
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		status, _, err := lockOrder(ctx, tx, bid.OrderID)
		if err != nil {
			return err
		}
		if status != model.OrderStatusPending {
			return &domainErrors.StateError{Op: "bid", Status: string(status)}
		}
		err = tx.QueryRow(ctx, query, bid.OrderID, bid.WriterID, bid.Amount, bid.Message, bid.Status).
			Scan(&bid.ID, &bid.CreatedAt, &bid.UpdatedAt)
		if err != nil {
			return mapError(err, domainErrors.ErrDuplicateBid)
		}
		_, err = tx.Exec(ctx, `UPDATE orders SET updated_at=NOW() WHERE id=$1`, bid.OrderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func (r *orderRepository) WithdrawBid(ctx context.Context, orderID, writerID int64) error {
	const query = `UPDATE bids SET status=$3, updated_at=NOW() WHERE order_id=$1 AND writer_id=$2 AND status='pending'`
	tag, err := r.storage.pool.Exec(ctx, query, orderID, writerID, model.BidStatusWithdrawn)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *orderRepository) Transition(ctx context.Context, t model.Transition) (*model.Order, error) {
	var order *model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := checkTransition(ctx, tx, t); err != nil {
			return err
		}
		if err := writeTransition(ctx, tx, t); err != nil {
			return err
		}
		var err error
		order, err = loadOrder(ctx, tx, "id=$1", t.OrderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) Complete(ctx context.Context, c model.Completion) (*model.Order, *model.PaymentRecord, error) {
	const (
		selectCharge = `SELECT id, status FROM payment_records
                        WHERE order_id=$1 AND type='order_payment' AND status <> 'failed' FOR UPDATE`
		creditCharge = `UPDATE payment_records SET payee_id=$2 WHERE id=$1 RETURNING ` + paymentColumns
		saveRating   = `UPDATE orders SET rating_score=$2, rating_review=$3 WHERE id=$1`
	)

	var (
		order    *model.Order
		credited *model.PaymentRecord
	)
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		writerID, err := checkTransition(ctx, tx, c.Transition)
		if err != nil {
			return err
		}

		var (
			chargeID     int64
			chargeStatus model.PaymentStatus
			charged      = true
		)
		if err := tx.QueryRow(ctx, selectCharge, c.OrderID).Scan(&chargeID, &chargeStatus); err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			charged = false
		}
		if charged && chargeStatus != model.PaymentStatusCompleted {
			return &domainErrors.StateError{Op: "settle", Status: string(chargeStatus)}
		}

		if err := writeTransition(ctx, tx, c.Transition); err != nil {
			return err
		}
		if c.Rating != nil {
			if _, err := tx.Exec(ctx, saveRating, c.OrderID, c.Rating.Score, c.Rating.Review); err != nil {
				return err
			}
		}

		if charged {
			credited, err = scanPayment(tx.QueryRow(ctx, creditCharge, chargeID, writerID))
		} else {
			credited, err = insertPayment(ctx, tx, c.Payment)
		}
		if err != nil {
			return err
		}

		if writerID != nil {
			if err := recordCompletion(ctx, tx, *writerID, c.OnTime, c.Rating); err != nil {
				return err
			}
		}

		order, err = loadOrder(ctx, tx, "id=$1", c.OrderID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return order, credited, nil
}

func (r *orderRepository) LinkClient(ctx context.Context, orderID int64, guestEmail string, clientID int64, entry model.TimelineEntry) (*model.Order, error) {
	const (
		selectGuest = `SELECT status, client_id, guest_email FROM orders WHERE id=$1 FOR UPDATE`
		link        = `UPDATE orders SET client_id=$2, guest_email=NULL, guest_name=NULL, updated_at=NOW() WHERE id=$1`
	)

	var order *model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var (
			status   model.OrderStatus
			existing *int64
			email    *string
		)
		if err := tx.QueryRow(ctx, selectGuest, orderID).Scan(&status, &existing, &email); err != nil {
			return mapError(err, domainErrors.ErrAlreadyExists)
		}
		if existing != nil || email == nil {
			return &domainErrors.StateError{Op: "link", Status: string(status)}
		}
		if !strings.EqualFold(*email, guestEmail) {
			return domainErrors.ErrForbidden
		}
		if _, err := tx.Exec(ctx, link, orderID, clientID); err != nil {
			return err
		}
		if _, err := insertTimeline(ctx, tx, orderID, entry); err != nil {
			return err
		}
		var err error
		order, err = loadOrder(ctx, tx, "id=$1", orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// lockOrder takes the row lock that serialises every state change of an order.
func lockOrder(ctx context.Context, tx pgx.Tx, orderID int64) (model.OrderStatus, *int64, error) {
	var (
		status   model.OrderStatus
		writerID *int64
	)
	err := tx.QueryRow(ctx, `SELECT status, writer_id FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&status, &writerID)
	if err != nil {
		return "", nil, mapError(err, domainErrors.ErrAlreadyExists)
	}
	return status, writerID, nil
}

// checkTransition locks the order and verifies it is in one of the expected statuses.
// It returns the writer assigned before the transition.
func checkTransition(ctx context.Context, tx pgx.Tx, t model.Transition) (*int64, error) {
	status, writerID, err := lockOrder(ctx, tx, t.OrderID)
	if err != nil {
		return nil, err
	}
	for _, from := range t.From {
		if from == status {
			if t.WriterID != nil {
				return t.WriterID, nil
			}
			return writerID, nil
		}
	}
	return nil, &domainErrors.StateError{Op: t.Entry.Event, Status: string(status)}
}

func writeTransition(ctx context.Context, tx pgx.Tx, t model.Transition) error {
	const (
		updateOrder = `UPDATE orders SET status=$2, writer_id=COALESCE($3, writer_id), revision=COALESCE($4::jsonb, revision), updated_at=NOW() WHERE id=$1`
		closeBids   = `UPDATE bids SET status = CASE WHEN writer_id = $2 THEN 'accepted' ELSE 'rejected' END, updated_at=NOW()
                       WHERE order_id=$1 AND status='pending'`
		addSubmission = `INSERT INTO submissions (order_id, writer_id, file_ref, note, check_status) VALUES ($1, $2, $3, $4, $5)`
	)

	var revision any
	if t.Revision != nil {
		rev := *t.Revision
		rev.RequestedAt = time.Now().UTC()
		encoded, err := json.Marshal(rev)
		if err != nil {
			return fmt.Errorf("encode revision: %w", err)
		}
		revision = encoded
	}

	if _, err := tx.Exec(ctx, updateOrder, t.OrderID, t.To, t.WriterID, revision); err != nil {
		return err
	}
	if t.CloseBids {
		if _, err := tx.Exec(ctx, closeBids, t.OrderID, t.WriterID); err != nil {
			return err
		}
	}
	if t.Submission != nil {
		sub := *t.Submission
		if sub.CheckStatus == "" {
			sub.CheckStatus = model.CheckStatusPending
		}
		if _, err := tx.Exec(ctx, addSubmission, t.OrderID, sub.WriterID, sub.FileRef, sub.Note, sub.CheckStatus); err != nil {
			return err
		}
	}
	_, err := insertTimeline(ctx, tx, t.OrderID, t.Entry)
	return err
}
