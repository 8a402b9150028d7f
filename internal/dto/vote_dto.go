package dto

import "github.com/google/uuid"

type CastVoteRequest struct {
	ClauseId   uuid.UUID `json:"clause_id" validate:"required"`
	Vote       string    `json:"vote" validate:"required,oneof=approve reject"`
	Region     *string   `json:"region"`
	VoterToken string    `json:"-"`
}

type VoteResponse struct {
	ClauseId     uuid.UUID `json:"clause_id"`
	ApprovalRate float64   `json:"approval_rate"`
	Approvals    int64     `json:"approvals"`
	Rejections   int64     `json:"rejections"`
}
