package drafter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"peoples-bill-be/pkg/apperror"
	"peoples-bill-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateDrafter(t *testing.T) {
	tests := []struct {
		name      string
		label     string
		texts     []string
		wantTitle string
		wantIn    []string
	}{
		{
			name:      "asset declaration with extracted timeframe and frequency",
			label:     "Asset Declaration",
			texts:     []string{"Officers should declare assets within 60 days and annually after that."},
			wantTitle: "Asset Declaration Requirements",
			wantIn:    []string{"within 60 days of assumption", "annually thereafter"},
		},
		{
			name:      "asset declaration defaults",
			label:     "Asset Declaration",
			texts:     []string{"Officers must declare what they own."},
			wantTitle: "Asset Declaration Requirements",
			wantIn:    []string{"within thirty (30) days", "every two (2) years thereafter"},
		},
		{
			name:  "penalties pick up prison and ban terms",
			label: "Penalties and Sanctions",
			texts: []string{
				"Corrupt officials deserve 15 years in prison.",
				"Ban them from office for 20 years.",
			},
			wantTitle: "Penalties for Violation",
			wantIn:    []string{"not less than 20 years", "not exceeding 15 years"},
		},
		{
			name:      "unknown label uses generic provision",
			label:     "Rural Roads",
			texts:     []string{"Tar the roads in rural districts."},
			wantTitle: "Provision for Rural Roads",
			wantIn:    []string{"measures regarding rural roads"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewTemplateDrafter().Draft(context.Background(), Input{Label: tt.label, Texts: tt.texts})
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, d.Title)
			assert.Equal(t, MethodTemplate, d.Method)
			assert.Equal(t, TemplateVersion, d.Version)
			assert.NotContains(t, d.Body, "{")
			for _, s := range tt.wantIn {
				assert.Contains(t, d.Body, s)
			}
			assert.True(t, d.Validation.Valid, d.Validation.Issues)
		})
	}
}

func TestTemplateDrafterRejectsEmptyCluster(t *testing.T) {
	id := uuid.New()
	_, err := NewTemplateDrafter().Draft(context.Background(), Input{ClusterID: id, Label: "Asset Declaration"})

	var genErr *apperror.ClauseGenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, id, genErr.ClusterID)
}

func TestValidate(t *testing.T) {
	v := Validate("Too short.")
	assert.False(t, v.Valid)
	assert.Equal(t, []string{"Clause is too short", "Missing formal legal language", "Unclear subject of the clause"}, v.Issues)
	assert.Len(t, v.Suggestions, 3)

	v = Validate("Every public officer shall declare all assets to the Office of the Special Prosecutor each year.")
	assert.True(t, v.Valid)
	assert.Empty(t, v.Issues)
}

type stubLLM struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	delay   time.Duration
	calls   atomic.Int32
	prompts []string
	system  string
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.Generate(ctx, history[len(history)-1].Content, options...)
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	n := int(s.calls.Add(1)) - 1
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.system = llm.Apply(llm.Options{}, options...).System
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if n < len(s.errs) && s.errs[n] != nil {
		return "", s.errs[n]
	}
	if n < len(s.replies) {
		return s.replies[n], nil
	}
	return "", errors.New("no more replies")
}

const goodReply = "```json\n" + `{"title":"Lifestyle Audits","content":"Every public officer shall submit to a lifestyle audit by the Office of the Special Prosecutor once every three years.","rationale":"Citizens want routine audits"}` + "\n```"

func testConfig() GenerativeConfig {
	return GenerativeConfig{Model: "stub", Timeout: time.Second, Concurrency: 2}
}

func auditInput() Input {
	return Input{
		ClusterID: uuid.New(),
		Label:     "Lifestyle Audits",
		Summary:   "Citizens suggest: audit officials",
		Keywords:  []string{"audit", "lifestyle"},
		Texts:     []string{"Audit the lifestyles of officials every 3 years.", "Officials living large must be audited."},
	}
}

func TestGenerativeDrafterUsesModelOutput(t *testing.T) {
	stub := &stubLLM{replies: []string{goodReply}}
	d := NewGenerativeDrafter(stub, testConfig())

	draft, err := d.Draft(context.Background(), auditInput())
	require.NoError(t, err)
	assert.Equal(t, MethodGenerative, draft.Method)
	assert.Equal(t, "Lifestyle Audits", draft.Title)
	assert.Equal(t, "generative-stub+template-v1", draft.Version)
	assert.True(t, draft.Validation.Valid)
	assert.Empty(t, draft.FallbackReason)

	require.Len(t, stub.prompts, 1)
	assert.Contains(t, stub.prompts[0], "Theme: Lifestyle Audits")
	assert.Contains(t, stub.prompts[0], "1. Audit the lifestyles")
	assert.Contains(t, stub.system, "formal legislative language")
}

func TestGenerativeDrafterRetriesOnce(t *testing.T) {
	stub := &stubLLM{errs: []error{errors.New("boom")}, replies: []string{"", goodReply}}
	draft, err := NewGenerativeDrafter(stub, testConfig()).Draft(context.Background(), auditInput())
	require.NoError(t, err)
	assert.Equal(t, MethodGenerative, draft.Method)
	assert.Equal(t, int32(2), stub.calls.Load())
}

func TestGenerativeDrafterDoesNotRetryClientErrors(t *testing.T) {
	stub := &stubLLM{errs: []error{&llm.StatusError{Provider: "stub", Code: 400, Body: "bad model"}}, replies: []string{"", goodReply}}
	draft, err := NewGenerativeDrafter(stub, testConfig()).Draft(context.Background(), auditInput())
	require.NoError(t, err)
	assert.Equal(t, MethodTemplate, draft.Method)
	assert.Contains(t, draft.FallbackReason, "status 400")
	assert.Equal(t, int32(1), stub.calls.Load())
}

func TestGenerativeDrafterFallsBackOnGarbage(t *testing.T) {
	stub := &stubLLM{replies: []string{"I cannot help with that", `{"title":"x","content":"too short"}`}}
	draft, err := NewGenerativeDrafter(stub, testConfig()).Draft(context.Background(), auditInput())
	require.NoError(t, err)
	assert.Equal(t, MethodTemplate, draft.Method)
	assert.Equal(t, "Provision for Lifestyle Audits", draft.Title)
	assert.Equal(t, "generative-stub+template-v1", draft.Version)
	assert.NotEmpty(t, draft.FallbackReason)
	assert.Equal(t, int32(2), stub.calls.Load())
}

func TestGenerativeDrafterFallsBackOnTimeout(t *testing.T) {
	stub := &stubLLM{delay: time.Second, replies: []string{goodReply, goodReply}}
	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond

	start := time.Now()
	draft, err := NewGenerativeDrafter(stub, cfg).Draft(context.Background(), auditInput())
	require.NoError(t, err)
	assert.Equal(t, MethodTemplate, draft.Method)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.True(t, strings.Contains(draft.FallbackReason, "deadline"), draft.FallbackReason)
}

func TestGenerativeDrafterFallsBackWhenBusy(t *testing.T) {
	stub := &stubLLM{delay: 200 * time.Millisecond, replies: []string{goodReply, goodReply, goodReply}}
	cfg := testConfig()
	cfg.Concurrency = 1
	d := NewGenerativeDrafter(stub, cfg)

	var wg sync.WaitGroup
	results := make([]*Draft, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i == 1 {
				time.Sleep(50 * time.Millisecond)
			}
			draft, err := d.Draft(context.Background(), auditInput())
			assert.NoError(t, err)
			results[i] = draft
		}()
	}
	wg.Wait()

	assert.Equal(t, MethodGenerative, results[0].Method)
	assert.Equal(t, MethodTemplate, results[1].Method)
	assert.Contains(t, results[1].FallbackReason, "capacity")
}

func TestGenerativeDrafterRejectsEmptyCluster(t *testing.T) {
	_, err := NewGenerativeDrafter(&stubLLM{}, testConfig()).Draft(context.Background(), Input{Label: "x"})
	var genErr *apperror.ClauseGenerationError
	assert.True(t, errors.As(err, &genErr))
}
