package contract

import (
	"context"

	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/repository/specification"
)

type AdminUserRepository interface {
	Create(ctx context.Context, user *entity.AdminUser) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AdminUser, error)
}
