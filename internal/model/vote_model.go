package model

import (
	"time"

	"github.com/google/uuid"
)

// Votes are append-only.
type Vote struct {
	Id        uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClauseId  uuid.UUID   `gorm:"type:uuid;not null;index;uniqueIndex:idx_votes_clause_voter,priority:1"`
	Clause    *BillClause `gorm:"foreignKey:ClauseId;constraint:OnDelete:RESTRICT;"`
	Kind      string      `gorm:"type:varchar(10);not null"`
	Region    *string     `gorm:"type:varchar(50)"`
	VoterHash *string     `gorm:"type:char(64);uniqueIndex:idx_votes_clause_voter,priority:2"`
	CreatedAt time.Time   `gorm:"autoCreateTime"`
}

func (Vote) TableName() string {
	return "votes"
}
