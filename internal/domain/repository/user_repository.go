package repository

import (
	"context"

	"lapakin/internal/domain/entity"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	UpdateLastSeen(ctx context.Context, id string) error
}
