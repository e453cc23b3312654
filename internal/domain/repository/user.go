package repository

import (
	"context"

	"github.com/polkiloo/scribemart/internal/domain/model"
)

// UserRepository describes persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user model.User) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	SetStatus(ctx context.Context, id int64, status model.UserStatus) error
}

// StatsRepository exposes writer aggregates maintained on completion.
type StatsRepository interface {
	Get(ctx context.Context, writerID int64) (*model.WriterStats, error)
}
