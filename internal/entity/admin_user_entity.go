package entity

import (
	"time"

	"github.com/google/uuid"
)

type AdminRole string

const (
	AdminRoleAdmin     AdminRole = "admin"
	AdminRoleModerator AdminRole = "moderator"
)

type AdminUser struct {
	Id           uuid.UUID
	Username     string
	PasswordHash string
	Role         AdminRole
	CreatedAt    time.Time
}
