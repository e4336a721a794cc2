// Package extract pulls structured hiring requirements out of free-form
// employer messages. The primary path asks an LLM for JSON; when the model is
// slow, unreachable, or returns garbage, a keyword-bag fallback keeps the
// conversation moving with degraded but usable output.
package extract

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode"

	_ "embed"

	"go.uber.org/zap"

	"github.com/workmatch/workmatch/internal/llm"
	"github.com/workmatch/workmatch/internal/logger"
)

//go:embed prompt.md
var promptTemplate string

const defaultTimeout = 8 * time.Second

// Profile is the structured requirement set extracted from one message.
type Profile struct {
	Skills          []string `json:"skills"`
	ExperienceYears int      `json:"experience_years"`
	JobTitle        string   `json:"job_title"`
	Location        string   `json:"location"`
	Remote          string   `json:"remote"`
	Keywords        []string `json:"keywords"`
	// Degraded is true when the LLM path failed and the profile came from
	// the keyword fallback.
	Degraded bool `json:"-"`
}

// Extractor runs the LLM extraction with a bounded timeout.
type Extractor struct {
	client  llm.Completer
	timeout time.Duration
	logger  *zap.Logger
}

// NewExtractor creates an Extractor. A non-positive timeout selects the
// default bound.
func NewExtractor(client llm.Completer, timeout time.Duration, log *zap.Logger) *Extractor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Extractor{client: client, timeout: timeout, logger: log}
}

// Extract returns the requirement profile for an employer message. It never
// returns an error: every failure path degrades to the keyword fallback, and
// the caller can tell from Profile.Degraded.
func (e *Extractor) Extract(ctx context.Context, message string) Profile {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	prompt := strings.ReplaceAll(promptTemplate, "{{MESSAGE}}", message)
	raw, err := e.client.Complete(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		e.logger.Warn("requirement extraction failed, using keyword fallback",
			zap.String("provider", e.client.Name()),
			zap.Error(err),
		)
		return fallbackProfile(message)
	}

	profile, err := parseProfile(raw)
	if err != nil {
		e.logger.Warn("unparseable extraction response, using keyword fallback",
			zap.String("provider", e.client.Name()),
			zap.String("response_preview", logger.Truncate(raw, 200)),
			zap.Error(err),
		)
		return fallbackProfile(message)
	}

	e.logger.Debug("extracted requirements",
		zap.Strings("skills", profile.Skills),
		zap.String("job_title", profile.JobTitle),
		zap.Int("experience_years", profile.ExperienceYears),
	)
	return profile
}

func parseProfile(raw string) (Profile, error) {
	cleaned := extractJSON(raw)

	var p Profile
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return Profile{}, err
	}

	p.Skills = normalizeTerms(p.Skills)
	p.Keywords = normalizeTerms(p.Keywords)
	p.JobTitle = strings.TrimSpace(p.JobTitle)
	p.Location = strings.TrimSpace(p.Location)
	p.Remote = strings.ToLower(strings.TrimSpace(p.Remote))
	if p.ExperienceYears < 0 {
		p.ExperienceYears = 0
	}
	return p, nil
}

// extractJSON strips markdown code fences that models like to wrap JSON in.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(strings.Trim(raw, "`"))
}

// fallbackProfile builds a keyword bag from the raw message. No structure,
// just distinct lowercase words long enough to carry meaning.
func fallbackProfile(message string) Profile {
	words := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})

	seen := make(map[string]struct{})
	var keywords []string
	for _, w := range words {
		if len(w) < 3 || isStopword(w) {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		keywords = append(keywords, w)
	}

	return Profile{Keywords: keywords, Degraded: true}
}

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "are": {}, "our": {},
	"you": {}, "who": {}, "has": {}, "have": {}, "need": {}, "want": {},
	"looking": {}, "someone": {}, "years": {}, "year": {}, "experience": {},
}

func isStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}

func normalizeTerms(terms []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
