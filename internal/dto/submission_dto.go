package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSubmissionRequest struct {
	Content    string  `json:"content" validate:"required"`
	Region     string  `json:"region" validate:"required"`
	Language   string  `json:"language"`
	Age        *int    `json:"age"`
	Occupation *string `json:"occupation"`
	Channel    string  `json:"channel" validate:"omitempty,oneof=web sms ussd"`
}

type SubmissionResponse struct {
	Id         uuid.UUID  `json:"id"`
	Content    string     `json:"content"`
	Region     string     `json:"region"`
	Language   string     `json:"language"`
	Age        *int       `json:"age,omitempty"`
	Occupation *string    `json:"occupation,omitempty"`
	Channel    string     `json:"channel"`
	Status     string     `json:"status"`
	ClusterId  *uuid.UUID `json:"cluster_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type ListSubmissionsRequest struct {
	Region string `query:"region"`
	Status string `query:"status" validate:"omitempty,oneof=pending approved rejected"`
	Search string `query:"q"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=200"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

type SubmissionListResponse struct {
	Items  []*SubmissionResponse `json:"items"`
	Total  int64                 `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

type ModerateSubmissionRequest struct {
	Id     uuid.UUID
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
}

// EmbedSubmissionMessage is the payload of the embedding queue.
type EmbedSubmissionMessage struct {
	SubmissionId uuid.UUID `json:"submission_id"`
}
