package specification

import "gorm.io/gorm"

// BySectionOrder orders clauses as they appear in the bill
type BySectionOrder struct{}

func (s BySectionOrder) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("section_number ASC")
}

type ByUsername struct {
	Username string
}

func (s ByUsername) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("username = ?", s.Username)
}
