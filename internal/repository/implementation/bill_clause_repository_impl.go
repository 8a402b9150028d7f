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

// sectionLockKey is the advisory lock guarding section number allocation.
const sectionLockKey int64 = 0x5ec710

type BillClauseRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BillClauseMapper
}

func NewBillClauseRepository(db *gorm.DB) contract.BillClauseRepository {
	return &BillClauseRepositoryImpl{
		db:     db,
		mapper: mapper.NewBillClauseMapper(),
	}
}

func (r *BillClauseRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *BillClauseRepositoryImpl) Create(ctx context.Context, clause *entity.BillClause) error {
	m := r.mapper.ToModel(clause)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*clause = *r.mapper.ToEntity(m)
	return nil
}

func (r *BillClauseRepositoryImpl) Update(ctx context.Context, clause *entity.BillClause) error {
	m := r.mapper.ToModel(clause)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*clause = *r.mapper.ToEntity(m)
	return nil
}

func (r *BillClauseRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.BillClause, error) {
	var m model.BillClause
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *BillClauseRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.BillClause, error) {
	var models []*model.BillClause
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *BillClauseRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.BillClause{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// NextSectionNumber must run inside a transaction: the advisory lock is held
// until commit so concurrent drafters never read the same maximum. Withdrawn
// clauses keep their row, so their numbers are never handed out again.
func (r *BillClauseRepositoryImpl) NextSectionNumber(ctx context.Context) (int, error) {
	db := r.db.WithContext(ctx)
	if err := db.Exec("SELECT pg_advisory_xact_lock(?)", sectionLockKey).Error; err != nil {
		return 0, err
	}

	var max int
	if err := db.Model(&model.BillClause{}).Select("COALESCE(MAX(section_number), 0)").Scan(&max).Error; err != nil {
		return 0, err
	}
	return max + 1, nil
}
