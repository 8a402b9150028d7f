package implementation

import (
	"context"
	"errors"
	"time"

	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/mapper"
	"peoples-bill-be/internal/model"
	"peoples-bill-be/internal/repository/contract"
	"peoples-bill-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type SubmissionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SubmissionMapper
}

func NewSubmissionRepository(db *gorm.DB) contract.SubmissionRepository {
	return &SubmissionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSubmissionMapper(),
	}
}

func (r *SubmissionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SubmissionRepositoryImpl) Create(ctx context.Context, submission *entity.Submission) error {
	m := r.mapper.ToModel(submission)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*submission = *r.mapper.ToEntity(m)
	return nil
}

func (r *SubmissionRepositoryImpl) Update(ctx context.Context, submission *entity.Submission) error {
	m := r.mapper.ToModel(submission)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*submission = *r.mapper.ToEntity(m)
	return nil
}

func (r *SubmissionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Submission, error) {
	var m model.Submission
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SubmissionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Submission, error) {
	var models []*model.Submission
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *SubmissionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Submission{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SubmissionRepositoryImpl) UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float32, modelVersion string) error {
	return r.db.WithContext(ctx).Model(&model.Submission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"embedding":       pgvector.NewVector(embedding),
			"embedding_model": modelVersion,
		}).Error
}

func (r *SubmissionRepositoryImpl) ClearClusters(ctx context.Context) error {
	return r.db.WithContext(ctx).Model(&model.Submission{}).
		Where("cluster_id IS NOT NULL").
		Update("cluster_id", nil).Error
}

func (r *SubmissionRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.SubmissionStatus, reviewedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Submission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      string(status),
			"reviewed_at": reviewedAt,
		}).Error
}

func (r *SubmissionRepositoryImpl) AssignCluster(ctx context.Context, clusterID uuid.UUID, submissionIDs []uuid.UUID) error {
	if len(submissionIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.Submission{}).
		Where("id IN ?", submissionIDs).
		Update("cluster_id", clusterID).Error
}

type regionCount struct {
	Region string
	Total  int64
}

func (r *SubmissionRepositoryImpl) CountByRegion(ctx context.Context) (map[string]int64, error) {
	var rows []regionCount
	err := r.db.WithContext(ctx).Model(&model.Submission{}).
		Select("region, COUNT(*) AS total").
		Group("region").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Region] = row.Total
	}
	return out, nil
}

type dayCount struct {
	Day   string
	Total int64
}

func (r *SubmissionRepositoryImpl) CountDaily(ctx context.Context, since time.Time) (map[string]int64, error) {
	var rows []dayCount
	err := r.db.WithContext(ctx).Model(&model.Submission{}).
		Select("to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*) AS total").
		Where("created_at >= ?", since).
		Group("day").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Day] = row.Total
	}
	return out, nil
}
