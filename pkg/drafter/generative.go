package drafter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"peoples-bill-be/pkg/apperror"
	"peoples-bill-be/pkg/llm"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const generativeAttempts = 2

type GenerativeConfig struct {
	Model       string
	Timeout     time.Duration
	Concurrency int64
	// RatePerMinute paces calls to the model. Zero disables pacing.
	RatePerMinute int
}

func DefaultGenerativeConfig(model string) GenerativeConfig {
	return GenerativeConfig{
		Model:         model,
		Timeout:       30 * time.Second,
		Concurrency:   2,
		RatePerMinute: 30,
	}
}

// GenerativeDrafter asks an LLM for the clause and falls back to the template
// catalogue when the model is busy, slow, failing or returns unusable output.
type GenerativeDrafter struct {
	provider llm.LLMProvider
	fallback *TemplateDrafter
	cfg      GenerativeConfig
	sem      *semaphore.Weighted
	limiter  *rate.Limiter
}

func NewGenerativeDrafter(provider llm.LLMProvider, cfg GenerativeConfig) *GenerativeDrafter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	limit := rate.Inf
	if cfg.RatePerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RatePerMinute))
	}

	return &GenerativeDrafter{
		provider: provider,
		fallback: NewTemplateDrafter(),
		cfg:      cfg,
		sem:      semaphore.NewWeighted(cfg.Concurrency),
		limiter:  rate.NewLimiter(limit, 1),
	}
}

func (d *GenerativeDrafter) Version() string {
	return fmt.Sprintf("generative-%s+%s", d.cfg.Model, TemplateVersion)
}

type generatedClause struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Rationale string `json:"rationale"`
}

func (d *GenerativeDrafter) Draft(ctx context.Context, in Input) (*Draft, error) {
	if len(in.Texts) == 0 {
		return nil, &apperror.ClauseGenerationError{ClusterID: in.ClusterID, Err: errors.New("cluster has no members")}
	}

	clause, err := d.generate(ctx, in)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		draft, ferr := d.fallback.Draft(ctx, in)
		if ferr != nil {
			return nil, &apperror.ClauseGenerationError{ClusterID: in.ClusterID, Err: errors.Join(err, ferr)}
		}
		draft.Version = d.Version()
		draft.FallbackReason = err.Error()
		return draft, nil
	}

	return &Draft{
		Title:      clause.Title,
		Body:       clause.Content,
		Rationale:  clause.Rationale,
		Method:     MethodGenerative,
		Version:    d.Version(),
		Validation: Validate(clause.Content),
	}, nil
}

func (d *GenerativeDrafter) generate(ctx context.Context, in Input) (*generatedClause, error) {
	if !d.sem.TryAcquire(1) {
		return nil, errors.New("generation capacity exhausted")
	}
	defer d.sem.Release(1)

	prompt := buildPrompt(in)

	var lastErr error
	for attempt := 0; attempt < generativeAttempts; attempt++ {
		clause, err := d.attempt(ctx, prompt)
		if err == nil {
			return clause, nil
		}
		lastErr = err
		if ctx.Err() != nil || !llm.IsRetryable(err) {
			break
		}
	}
	return nil, fmt.Errorf("generative drafting failed after %d attempts: %w", generativeAttempts, lastErr)
}

func (d *GenerativeDrafter) attempt(ctx context.Context, prompt string) (*generatedClause, error) {
	cctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	// Wait fails fast when the next slot lies beyond the deadline.
	if err := d.limiter.Wait(cctx); err != nil {
		return nil, fmt.Errorf("rate limited: %w", err)
	}

	out, err := d.provider.Generate(cctx, prompt,
		llm.WithSystem(systemPrompt), llm.WithJSON(), llm.WithTemperature(0.2), llm.WithMaxTokens(800))
	if err != nil {
		return nil, err
	}
	return parseClause(out)
}

func parseClause(out string) (*generatedClause, error) {
	start := strings.Index(out, "{")
	end := strings.LastIndex(out, "}")
	if start < 0 || end <= start {
		return nil, errors.New("model output contains no JSON object")
	}

	var c generatedClause
	if err := json.Unmarshal([]byte(out[start:end+1]), &c); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}

	c.Title = strings.TrimSpace(c.Title)
	c.Content = strings.TrimSpace(c.Content)
	c.Rationale = strings.TrimSpace(c.Rationale)
	if c.Title == "" || c.Content == "" {
		return nil, errors.New("model output is missing title or content")
	}
	if v := Validate(c.Content); !v.Valid {
		return nil, fmt.Errorf("model output rejected: %s", strings.Join(v.Issues, "; "))
	}
	return &c, nil
}

const systemPrompt = "You are drafting one section of a national anti-corruption bill from citizen submissions. " +
	"Write in formal legislative language using \"shall\" and name who the provision binds. " +
	"Respond with a single JSON object and nothing else, using the keys \"title\", \"content\" and \"rationale\"."

func buildPrompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Theme: %s\n", in.Label)
	if in.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", in.Summary)
	}
	if len(in.Keywords) > 0 {
		fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(in.Keywords, ", "))
	}
	b.WriteString("Submissions:\n")
	for i, t := range sample(in.Texts) {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t)
	}
	return b.String()
}
