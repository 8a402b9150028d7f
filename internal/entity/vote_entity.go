package entity

import (
	"time"

	"peoples-bill-be/pkg/votes"

	"github.com/google/uuid"
)

type Vote struct {
	Id        uuid.UUID
	ClauseId  uuid.UUID
	Kind      votes.Kind
	Region    *string
	VoterHash *string
	CreatedAt time.Time
}
