package contract

import (
	"context"

	"peoples-bill-be/pkg/region"
)

type RegionRepository interface {
	Upsert(ctx context.Context, regions []region.Region) error
	Count(ctx context.Context) (int64, error)
}
