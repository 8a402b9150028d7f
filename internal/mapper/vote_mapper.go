package mapper

import (
	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/model"
	"peoples-bill-be/pkg/votes"
)

type VoteMapper struct{}

func NewVoteMapper() *VoteMapper {
	return &VoteMapper{}
}

func (m *VoteMapper) ToEntity(v *model.Vote) *entity.Vote {
	if v == nil {
		return nil
	}
	return &entity.Vote{
		Id:        v.Id,
		ClauseId:  v.ClauseId,
		Kind:      votes.Kind(v.Kind),
		Region:    v.Region,
		VoterHash: v.VoterHash,
		CreatedAt: v.CreatedAt,
	}
}

func (m *VoteMapper) ToModel(e *entity.Vote) *model.Vote {
	if e == nil {
		return nil
	}
	return &model.Vote{
		Id:        e.Id,
		ClauseId:  e.ClauseId,
		Kind:      string(e.Kind),
		Region:    e.Region,
		VoterHash: e.VoterHash,
		CreatedAt: e.CreatedAt,
	}
}
