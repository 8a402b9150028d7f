package scope

import (
	"peoples-bill-be/internal/entity"

	"gorm.io/gorm"
)

func ActiveClusters(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", string(entity.ClusterStatusActive))
}

// EmbeddingSpace keeps comparisons within one model version and language.
func EmbeddingSpace(modelVersion, language string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("embedding_model = ? AND language = ?", modelVersion, language)
	}
}

// LargestFirst is the tie-break order between equally similar clusters.
func LargestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("member_count DESC").Order("id ASC")
}
