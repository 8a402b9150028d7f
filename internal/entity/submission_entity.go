package entity

import (
	"time"

	"github.com/google/uuid"
)

type SubmissionStatus string
type SubmissionChannel string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusApproved SubmissionStatus = "approved"
	SubmissionStatusRejected SubmissionStatus = "rejected"

	ChannelWeb  SubmissionChannel = "web"
	ChannelSMS  SubmissionChannel = "sms"
	ChannelUSSD SubmissionChannel = "ussd"
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionStatusPending, SubmissionStatusApproved, SubmissionStatusRejected:
		return true
	}
	return false
}

func (c SubmissionChannel) Valid() bool {
	switch c {
	case ChannelWeb, ChannelSMS, ChannelUSSD:
		return true
	}
	return false
}

type Submission struct {
	Id                uuid.UUID
	Content           string
	NormalizedContent string
	Region            string
	Age               *int
	Occupation        *string
	Language          string
	Channel           SubmissionChannel
	Embedding         []float32
	EmbeddingModel    string
	Status            SubmissionStatus
	ClusterId         *uuid.UUID
	ReviewedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasEmbedding reports whether the submission carries a vector from model.
func (s *Submission) HasEmbedding(model string) bool {
	return len(s.Embedding) > 0 && s.EmbeddingModel == model
}
