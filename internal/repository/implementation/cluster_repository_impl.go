package implementation

import (
	"context"
	"errors"

	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/mapper"
	"peoples-bill-be/internal/model"
	"peoples-bill-be/internal/repository/contract"
	"peoples-bill-be/internal/repository/scope"
	"peoples-bill-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ClusterRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ClusterMapper
}

func NewClusterRepository(db *gorm.DB) contract.ClusterRepository {
	return &ClusterRepositoryImpl{
		db:     db,
		mapper: mapper.NewClusterMapper(),
	}
}

func (r *ClusterRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ClusterRepositoryImpl) Create(ctx context.Context, cluster *entity.Cluster) error {
	m := r.mapper.ToModel(cluster)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*cluster = *r.mapper.ToEntity(m)
	return nil
}

func (r *ClusterRepositoryImpl) Update(ctx context.Context, cluster *entity.Cluster) error {
	m := r.mapper.ToModel(cluster)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*cluster = *r.mapper.ToEntity(m)
	return nil
}

func (r *ClusterRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Cluster, error) {
	var m model.Cluster
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ClusterRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Cluster, error) {
	var models []*model.Cluster
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ClusterRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Cluster{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Retire marks clusters as retired. Rows are kept so clauses and history still resolve.
func (r *ClusterRepositoryImpl) Retire(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.Cluster{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"status":       string(entity.ClusterStatusRetired),
			"member_count": 0,
		}).Error
}

type scoredClusterRow struct {
	model.Cluster
	Similarity float64
}

func (r *ClusterRepositoryImpl) NearestActive(ctx context.Context, embedding []float32, modelVersion, language string, limit int) ([]*contract.ScoredCluster, error) {
	if limit <= 0 {
		limit = 5
	}
	vec := pgvector.NewVector(embedding)

	var rows []scoredClusterRow
	err := r.db.WithContext(ctx).Model(&model.Cluster{}).
		Select("clusters.*, 1 - (centroid <=> ?) AS similarity", vec).
		Scopes(scope.ActiveClusters, scope.EmbeddingSpace(modelVersion, language)).
		Order(gorm.Expr("centroid <=> ?", vec)).
		Scopes(scope.LargestFirst).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*contract.ScoredCluster, len(rows))
	for i := range rows {
		out[i] = &contract.ScoredCluster{
			Cluster:    r.mapper.ToEntity(&rows[i].Cluster),
			Similarity: rows[i].Similarity,
		}
	}
	return out, nil
}
