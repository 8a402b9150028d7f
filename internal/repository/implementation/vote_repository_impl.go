package implementation

import (
	"context"
	"errors"

	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/mapper"
	"peoples-bill-be/internal/model"
	"peoples-bill-be/internal/repository/contract"
	"peoples-bill-be/pkg/apperror"
	"peoples-bill-be/pkg/votes"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

type VoteRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.VoteMapper
}

func NewVoteRepository(db *gorm.DB) contract.VoteRepository {
	return &VoteRepositoryImpl{
		db:     db,
		mapper: mapper.NewVoteMapper(),
	}
}

func (r *VoteRepositoryImpl) Create(ctx context.Context, vote *entity.Vote) error {
	m := r.mapper.ToModel(vote)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return &apperror.DuplicateVoteError{ClauseID: vote.ClauseId}
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &apperror.DuplicateVoteError{ClauseID: vote.ClauseId}
		}
		return err
	}
	*vote = *r.mapper.ToEntity(m)
	return nil
}

type kindCount struct {
	Kind  string
	Total int64
}

func (r *VoteRepositoryImpl) tally(db *gorm.DB) (contract.VoteTally, error) {
	var rows []kindCount
	if err := db.Model(&model.Vote{}).Select("kind, COUNT(*) AS total").Group("kind").Scan(&rows).Error; err != nil {
		return contract.VoteTally{}, err
	}

	var t contract.VoteTally
	for _, row := range rows {
		switch votes.Kind(row.Kind) {
		case votes.Approve:
			t.Approvals = row.Total
		case votes.Reject:
			t.Rejections = row.Total
		}
	}
	return t, nil
}

func (r *VoteRepositoryImpl) TallyByClause(ctx context.Context, clauseID uuid.UUID) (contract.VoteTally, error) {
	return r.tally(r.db.WithContext(ctx).Where("clause_id = ?", clauseID))
}

func (r *VoteRepositoryImpl) TallyAll(ctx context.Context) (contract.VoteTally, error) {
	return r.tally(r.db.WithContext(ctx))
}
