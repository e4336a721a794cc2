package extract

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/workmatch/workmatch/internal/llm"
)

type fakeCompleter struct {
	completeFunc func(ctx context.Context, messages []llm.Message) (string, error)
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	return f.completeFunc(ctx, messages)
}

func (f *fakeCompleter) Name() string { return "fake" }

func TestExtractParsesStructuredResponse(t *testing.T) {
	client := &fakeCompleter{
		completeFunc: func(_ context.Context, _ []llm.Message) (string, error) {
			return `{"skills": ["Python", "AWS", "python"], "experience_years": 3, "job_title": "Backend Engineer", "location": "Tokyo", "remote": "Hybrid", "keywords": ["fintech"]}`, nil
		},
	}
	e := NewExtractor(client, 0, zap.NewNop())

	p := e.Extract(context.Background(), "we need a backend engineer")
	if p.Degraded {
		t.Fatal("structured response should not be degraded")
	}
	if len(p.Skills) != 2 || p.Skills[0] != "python" || p.Skills[1] != "aws" {
		t.Errorf("Skills = %v", p.Skills)
	}
	if p.ExperienceYears != 3 || p.JobTitle != "Backend Engineer" {
		t.Errorf("profile = %+v", p)
	}
	if p.Remote != "hybrid" {
		t.Errorf("Remote = %q", p.Remote)
	}
}

func TestExtractStripsCodeFences(t *testing.T) {
	client := &fakeCompleter{
		completeFunc: func(_ context.Context, _ []llm.Message) (string, error) {
			return "```json\n{\"skills\": [\"go\"], \"job_title\": \"dev\"}\n```", nil
		},
	}
	e := NewExtractor(client, 0, zap.NewNop())

	p := e.Extract(context.Background(), "msg")
	if p.Degraded || len(p.Skills) != 1 || p.Skills[0] != "go" {
		t.Errorf("profile = %+v", p)
	}
}

func TestExtractFallsBackOnError(t *testing.T) {
	client := &fakeCompleter{
		completeFunc: func(_ context.Context, _ []llm.Message) (string, error) {
			return "", errors.New("connection refused")
		},
	}
	e := NewExtractor(client, 0, zap.NewNop())

	p := e.Extract(context.Background(), "We need a senior Python developer with AWS experience")
	if !p.Degraded {
		t.Fatal("fallback profile should be marked degraded")
	}
	want := map[string]bool{"senior": true, "python": true, "developer": true, "aws": true}
	found := 0
	for _, k := range p.Keywords {
		if want[k] {
			found++
		}
	}
	if found != len(want) {
		t.Errorf("Keywords = %v, missing expected terms", p.Keywords)
	}
	for _, k := range p.Keywords {
		if k == "experience" || k == "with" {
			t.Errorf("stopword %q leaked into keywords", k)
		}
	}
}

func TestExtractFallsBackOnGarbage(t *testing.T) {
	client := &fakeCompleter{
		completeFunc: func(_ context.Context, _ []llm.Message) (string, error) {
			return "Sure! I'd be happy to help with that.", nil
		},
	}
	e := NewExtractor(client, 0, zap.NewNop())

	p := e.Extract(context.Background(), "hiring a designer with Figma skills")
	if !p.Degraded {
		t.Fatal("unparseable response should degrade to keywords")
	}
	if len(p.Keywords) == 0 {
		t.Error("fallback keywords should not be empty")
	}
}
