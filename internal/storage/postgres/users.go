package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/scribemart/internal/domain/errors"
	"github.com/polkiloo/scribemart/internal/domain/model"
	"github.com/polkiloo/scribemart/internal/settlement"
)

const userColumns = `id, email, name, password_hash, role, status, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt); err != nil {
		return nil, mapError(err, domainErrors.ErrAlreadyExists)
	}
	return &u, nil
}

// --- UserRepository implementation ---

func (r *userRepository) Create(ctx context.Context, user model.User) (*model.User, error) {
	const query = `INSERT INTO users (email, name, password_hash, role, status) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	if user.Status == "" {
		user.Status = model.UserStatusActive
	}
	err := r.storage.pool.QueryRow(ctx, query, user.Email, user.Name, user.PasswordHash, user.Role, user.Status).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, mapError(err, domainErrors.ErrAlreadyExists)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE lower(email)=lower($1)`
	return scanUser(r.storage.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.storage.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) SetStatus(ctx context.Context, id int64, status model.UserStatus) error {
	const query = `UPDATE users SET status=$2 WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// --- StatsRepository implementation ---

const statsQuery = `SELECT completed_orders, on_time_orders, rated_orders, average_rating FROM writer_stats WHERE writer_id=$1`

func (r *statsRepository) Get(ctx context.Context, writerID int64) (*model.WriterStats, error) {
	return loadStats(ctx, r.storage.pool, statsQuery, writerID)
}

func loadStats(ctx context.Context, q querier, query string, writerID int64) (*model.WriterStats, error) {
	st := model.WriterStats{WriterID: writerID}
	err := q.QueryRow(ctx, query, writerID).Scan(&st.CompletedOrders, &st.OnTimeOrders, &st.RatedOrders, &st.AverageRating)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return &st, nil
}

// recordCompletion folds one completed order into the writer's aggregates.
func recordCompletion(ctx context.Context, tx pgx.Tx, writerID int64, onTime bool, rating *model.Rating) error {
	current, err := loadStats(ctx, tx, statsQuery+` FOR UPDATE`, writerID)
	if err != nil {
		return err
	}
	next := settlement.ApplyCompletion(*current, onTime, rating)

	const upsert = `INSERT INTO writer_stats (writer_id, completed_orders, on_time_orders, rated_orders, average_rating)
                    VALUES ($1, $2, $3, $4, $5)
                    ON CONFLICT (writer_id) DO UPDATE
                    SET completed_orders = EXCLUDED.completed_orders,
                        on_time_orders = EXCLUDED.on_time_orders,
                        rated_orders = EXCLUDED.rated_orders,
                        average_rating = EXCLUDED.average_rating`
	_, err = tx.Exec(ctx, upsert, writerID, next.CompletedOrders, next.OnTimeOrders, next.RatedOrders, next.AverageRating)
	return err
}
