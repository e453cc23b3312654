// Package postgres is the system of record backed by PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/polkiloo/scribemart/internal/domain/errors"
	"github.com/polkiloo/scribemart/internal/domain/repository"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgxPool interface {
	querier
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

type userRepository struct {
	storage *Storage
}

type orderRepository struct {
	storage *Storage
}

type submissionRepository struct {
	storage *Storage
}

type paymentRepository struct {
	storage *Storage
}

type statsRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Users() repository.UserRepository {
	return &userRepository{storage: s}
}

func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Submissions() repository.SubmissionRepository {
	return &submissionRepository{storage: s}
}

func (s *Storage) Payments() repository.PaymentRepository {
	return &paymentRepository{storage: s}
}

func (s *Storage) Stats() repository.StatsRepository {
	return &statsRepository{storage: s}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
            id BIGSERIAL PRIMARY KEY,
            email TEXT UNIQUE NOT NULL,
            name TEXT NOT NULL DEFAULT '',
            password_hash TEXT NOT NULL,
            role TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'active',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	`CREATE TABLE IF NOT EXISTS orders (
            id BIGSERIAL PRIMARY KEY,
            number TEXT UNIQUE NOT NULL,
            title TEXT NOT NULL,
            subject TEXT NOT NULL,
            academic_level TEXT NOT NULL,
            paper_type TEXT NOT NULL,
            instructions TEXT NOT NULL DEFAULT '',
            word_count INTEGER NOT NULL,
            pages INTEGER NOT NULL,
            deadline TIMESTAMPTZ NOT NULL,
            urgency TEXT NOT NULL,
            requirements JSONB NOT NULL DEFAULT '{}',
            price_per_page NUMERIC(12,2) NOT NULL,
            total_price NUMERIC(12,2) NOT NULL,
            currency TEXT NOT NULL,
            payment_status TEXT NOT NULL DEFAULT 'unpaid',
            payment_method TEXT NOT NULL DEFAULT '',
            payment_reference TEXT NOT NULL DEFAULT '',
            client_id BIGINT REFERENCES users(id),
            guest_email TEXT,
            guest_name TEXT,
            writer_id BIGINT REFERENCES users(id),
            status TEXT NOT NULL,
            revision JSONB,
            rating_score INTEGER,
            rating_review TEXT,
            client_unread INTEGER NOT NULL DEFAULT 0,
            writer_unread INTEGER NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK ((client_id IS NULL) <> (guest_email IS NULL))
        )`,
	`CREATE TABLE IF NOT EXISTS bids (
            id BIGSERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id),
            writer_id BIGINT NOT NULL REFERENCES users(id),
            amount NUMERIC(12,2) NOT NULL,
            message TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	`CREATE TABLE IF NOT EXISTS submissions (
            id BIGSERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id),
            writer_id BIGINT NOT NULL REFERENCES users(id),
            file_ref TEXT NOT NULL,
            note TEXT NOT NULL DEFAULT '',
            submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            check_status TEXT NOT NULL,
            score DOUBLE PRECISION,
            flagged BOOLEAN NOT NULL DEFAULT FALSE,
            checked_at TIMESTAMPTZ
        )`,
	`CREATE TABLE IF NOT EXISTS order_timeline (
            id BIGSERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id),
            event TEXT NOT NULL,
            description TEXT NOT NULL,
            actor_id BIGINT,
            actor_role TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	`CREATE TABLE IF NOT EXISTS payment_records (
            id BIGSERIAL PRIMARY KEY,
            type TEXT NOT NULL,
            amount NUMERIC(12,2) NOT NULL CHECK (amount > 0),
            currency TEXT NOT NULL,
            payer_id BIGINT REFERENCES users(id),
            payee_id BIGINT REFERENCES users(id),
            order_id BIGINT REFERENCES orders(id),
            related_id BIGINT REFERENCES payment_records(id),
            status TEXT NOT NULL,
            platform_fee NUMERIC(12,2) NOT NULL DEFAULT 0,
            net_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
            method TEXT NOT NULL DEFAULT '',
            details JSONB,
            gateway_reference TEXT NOT NULL DEFAULT '',
            gateway_payload JSONB,
            failure_reason TEXT NOT NULL DEFAULT '',
            requested_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            approved_at TIMESTAMPTZ,
            completed_at TIMESTAMPTZ
        )`,
	`CREATE TABLE IF NOT EXISTS writer_stats (
            writer_id BIGINT PRIMARY KEY REFERENCES users(id),
            completed_orders INTEGER NOT NULL DEFAULT 0,
            on_time_orders INTEGER NOT NULL DEFAULT 0,
            rated_orders INTEGER NOT NULL DEFAULT 0,
            average_rating NUMERIC(10,8) NOT NULL DEFAULT 0
        )`,
	`CREATE INDEX IF NOT EXISTS idx_orders_client ON orders(client_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_writer ON orders(writer_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status, created_at DESC)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_bids_pending ON bids(order_id, writer_id) WHERE status = 'pending'`,
	`CREATE INDEX IF NOT EXISTS idx_submissions_check ON submissions(check_status, submitted_at)`,
	`CREATE INDEX IF NOT EXISTS idx_timeline_order ON order_timeline(order_id, id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_order_payment ON payment_records(order_id) WHERE type = 'order_payment' AND status <> 'failed'`,
	`CREATE INDEX IF NOT EXISTS idx_payments_payee ON payment_records(payee_id, type, status)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_payer ON payment_records(payer_id)`,
}

func (s *Storage) initSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// mapError translates driver errors into domain errors.
func mapError(err error, unique error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domainErrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return unique
		case codeForeignKeyViolation:
			return domainErrors.ErrNotFound
		}
	}
	return err
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()

	var result []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
