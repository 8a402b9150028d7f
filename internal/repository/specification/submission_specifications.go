package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByRegion struct {
	Region string
}

func (s ByRegion) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("region = ?", s.Region)
}

type ByClusterID struct {
	ClusterID uuid.UUID
}

func (s ByClusterID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("cluster_id = ?", s.ClusterID)
}

// Unclustered selects submissions without an owning cluster
type Unclustered struct{}

func (s Unclustered) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("cluster_id IS NULL")
}

// EligibleForClustering selects submissions that moderation has not rejected
type EligibleForClustering struct{}

func (s EligibleForClustering) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status <> ?", "rejected")
}

type CreatedSince struct {
	Since time.Time
}

func (s CreatedSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_at >= ?", s.Since)
}

// ContentSearch matches the normalized text case-insensitively
type ContentSearch struct {
	Query string
}

func (s ContentSearch) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("normalized_content ILIKE ?", "%"+s.Query+"%")
}

// MembershipOrder is the canonical member ordering of a cluster
type MembershipOrder struct{}

func (s MembershipOrder) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}
