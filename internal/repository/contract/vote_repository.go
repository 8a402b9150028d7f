package contract

import (
	"context"

	"peoples-bill-be/internal/entity"

	"github.com/google/uuid"
)

type VoteTally struct {
	Approvals  int64
	Rejections int64
}

type VoteRepository interface {
	// Create appends a vote. A repeated voter hash for the same clause fails
	// with apperror.DuplicateVoteError.
	Create(ctx context.Context, vote *entity.Vote) error
	TallyByClause(ctx context.Context, clauseID uuid.UUID) (VoteTally, error)
	TallyAll(ctx context.Context) (VoteTally, error)
}
