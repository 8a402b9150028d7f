package contract

import (
	"context"

	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/repository/specification"
)

type BillClauseRepository interface {
	Create(ctx context.Context, clause *entity.BillClause) error
	Update(ctx context.Context, clause *entity.BillClause) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.BillClause, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.BillClause, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// NextSectionNumber serializes section allocation for the rest of the
	// transaction and returns one more than the highest number ever issued.
	NextSectionNumber(ctx context.Context) (int, error)
}
