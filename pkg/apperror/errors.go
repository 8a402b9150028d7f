package apperror

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ValidationError represents malformed or out-of-range input.
type ValidationError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Rule)
}

func NewValidationError(field, rule, message string) *ValidationError {
	return &ValidationError{Field: field, Rule: rule, Message: message}
}

// ClusteringInProgressError is returned when a full clustering run is triggered
// while another one holds the run lock.
type ClusteringInProgressError struct {
	RunID     uuid.UUID  `json:"run_id,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

func (e *ClusteringInProgressError) Error() string {
	if e.RunID != uuid.Nil {
		return fmt.Sprintf("clustering run %s already in progress", e.RunID)
	}
	return "clustering run already in progress"
}

// EmbeddingServiceError is surfaced after the embedding provider kept failing
// through every retry attempt.
type EmbeddingServiceError struct {
	Provider string
	Attempts int
	Err      error
}

func (e *EmbeddingServiceError) Error() string {
	return fmt.Sprintf("embedding service %s failed after %d attempts: %v", e.Provider, e.Attempts, e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error {
	return e.Err
}

// ClauseGenerationError is only returned when neither the generative delegate
// nor the template fallback produced a clause.
type ClauseGenerationError struct {
	ClusterID uuid.UUID
	Err       error
}

func (e *ClauseGenerationError) Error() string {
	return fmt.Sprintf("clause generation failed for cluster %s: %v", e.ClusterID, e.Err)
}

func (e *ClauseGenerationError) Unwrap() error {
	return e.Err
}

// DuplicateVoteError is returned when a voter token already voted on a clause.
type DuplicateVoteError struct {
	ClauseID uuid.UUID
}

func (e *DuplicateVoteError) Error() string {
	return fmt.Sprintf("voter already voted on clause %s", e.ClauseID)
}

// NotFoundError is returned when a referenced resource does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NewNotFoundError(resource string, id fmt.Stringer) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id.String()}
}
