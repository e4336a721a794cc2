// Package ingest turns outside documents into platform records: uploaded
// resume PDFs become stored preferences, and job posting pages become draft
// postings.
package ingest

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ResumeProfile is what a resume upload yields.
type ResumeProfile struct {
	Skills          []string
	ExperienceYears int
	Text            string
}

// resumeSkillTerms is the vocabulary mined from resume text. Substring match,
// case-insensitive.
var resumeSkillTerms = []string{
	"python", "golang", "java", "javascript", "typescript", "ruby", "php",
	"rust", "kotlin", "swift", "c++", "c#", "sql", "react", "vue", "node",
	"django", "rails", "spring", "aws", "gcp", "azure", "docker",
	"kubernetes", "terraform", "linux", "machine learning", "data analysis",
	"photoshop", "illustrator", "figma", "marketing", "sales", "accounting",
}

var experiencePattern = regexp.MustCompile(`(\d{1,2})\+?\s*(?:years?|年)`)

// ExtractResume pulls plain text out of a PDF and mines it for skills and an
// experience figure. Scanned PDFs with no text layer come back empty but not
// as an error.
func ExtractResume(data []byte) (ResumeProfile, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ResumeProfile{}, fmt.Errorf("opening pdf: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return ResumeProfile{}, fmt.Errorf("extracting pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return ResumeProfile{}, fmt.Errorf("reading pdf text: %w", err)
	}
	text := buf.String()

	return ResumeProfile{
		Skills:          mineSkills(text),
		ExperienceYears: mineExperience(text),
		Text:            text,
	}, nil
}

func mineSkills(text string) []string {
	lower := strings.ToLower(text)
	var skills []string
	for _, term := range resumeSkillTerms {
		if strings.Contains(lower, term) {
			skills = append(skills, term)
		}
	}
	return skills
}

// mineExperience takes the largest "N years" figure in the text. Resumes
// list per-job durations too, so the max is the safest read of the total.
func mineExperience(text string) int {
	best := 0
	for _, m := range experiencePattern.FindAllStringSubmatch(strings.ToLower(text), -1) {
		n := 0
		fmt.Sscanf(m[1], "%d", &n)
		if n > best && n < 60 {
			best = n
		}
	}
	return best
}
