package mapper

import (
	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/model"
)

type AdminUserMapper struct{}

func NewAdminUserMapper() *AdminUserMapper {
	return &AdminUserMapper{}
}

func (m *AdminUserMapper) ToEntity(u *model.AdminUser) *entity.AdminUser {
	if u == nil {
		return nil
	}
	return &entity.AdminUser{
		Id:           u.Id,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         entity.AdminRole(u.Role),
		CreatedAt:    u.CreatedAt,
	}
}

func (m *AdminUserMapper) ToModel(e *entity.AdminUser) *model.AdminUser {
	if e == nil {
		return nil
	}
	return &model.AdminUser{
		Id:           e.Id,
		Username:     e.Username,
		PasswordHash: e.PasswordHash,
		Role:         string(e.Role),
		CreatedAt:    e.CreatedAt,
	}
}
