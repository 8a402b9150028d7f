package implementation

import (
	"context"

	"peoples-bill-be/internal/model"
	"peoples-bill-be/internal/repository/contract"
	"peoples-bill-be/pkg/region"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RegionRepositoryImpl struct {
	db *gorm.DB
}

func NewRegionRepository(db *gorm.DB) contract.RegionRepository {
	return &RegionRepositoryImpl{db: db}
}

func (r *RegionRepositoryImpl) Upsert(ctx context.Context, regions []region.Region) error {
	if len(regions) == 0 {
		return nil
	}
	rows := make([]model.Region, len(regions))
	for i, reg := range regions {
		rows[i] = model.Region{
			Name:       reg.Name,
			Code:       reg.Code,
			Capital:    reg.Capital,
			Population: reg.Population,
		}
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "capital", "population"}),
	}).Create(&rows).Error
}

func (r *RegionRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Region{}).Count(&count).Error
	return count, err
}
