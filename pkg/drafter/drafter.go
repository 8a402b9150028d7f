package drafter

import (
	"context"

	"github.com/google/uuid"
)

const (
	MethodTemplate   = "template"
	MethodGenerative = "generative"

	// Only the first members are scanned for placeholder values and prompts.
	sampleSize = 20
)

// Input is everything a drafter may use to write one clause.
type Input struct {
	ClusterID uuid.UUID
	Label     string
	Summary   string
	Keywords  []string
	// Texts are member submission texts in membership order.
	Texts []string
}

type Draft struct {
	Title      string
	Body       string
	Rationale  string
	Method     string
	Version    string
	Validation Validation
	// FallbackReason is set when a generative drafter fell back to templates.
	FallbackReason string
}

// Drafter turns a labeled cluster into a clause.
type Drafter interface {
	Draft(ctx context.Context, in Input) (*Draft, error)
	Version() string
}

func sample(texts []string) []string {
	if len(texts) > sampleSize {
		return texts[:sampleSize]
	}
	return texts
}
