package implementation

import (
	"context"
	"errors"

	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/mapper"
	"peoples-bill-be/internal/model"
	"peoples-bill-be/internal/repository/contract"
	"peoples-bill-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ClusteringRunRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ClusteringRunMapper
}

func NewClusteringRunRepository(db *gorm.DB) contract.ClusteringRunRepository {
	return &ClusteringRunRepositoryImpl{
		db:     db,
		mapper: mapper.NewClusteringRunMapper(),
	}
}

func (r *ClusteringRunRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ClusteringRunRepositoryImpl) Create(ctx context.Context, run *entity.ClusteringRun) error {
	m := r.mapper.ToModel(run)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*run = *r.mapper.ToEntity(m)
	return nil
}

func (r *ClusteringRunRepositoryImpl) Update(ctx context.Context, run *entity.ClusteringRun) error {
	m := r.mapper.ToModel(run)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*run = *r.mapper.ToEntity(m)
	return nil
}

func (r *ClusteringRunRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ClusteringRun, error) {
	var m model.ClusteringRun
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ClusteringRunRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ClusteringRun, error) {
	var models []*model.ClusteringRun
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.ClusteringRun, len(models))
	for i, m := range models {
		out[i] = r.mapper.ToEntity(m)
	}
	return out, nil
}
