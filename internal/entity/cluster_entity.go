package entity

import (
	"time"

	"github.com/google/uuid"
)

type ClusterStatus string

const (
	ClusterStatusActive  ClusterStatus = "active"
	ClusterStatusRetired ClusterStatus = "retired"
)

type Cluster struct {
	Id               uuid.UUID
	Label            string
	Summary          string
	Keywords         []string
	LabelMethod      string
	Centroid         []float32
	RepresentativeId *uuid.UUID
	MemberCount      int
	Cohesion         float64
	Version          int
	Status           ClusterStatus
	EmbeddingModel   string
	Language         string
	RunId            *uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
