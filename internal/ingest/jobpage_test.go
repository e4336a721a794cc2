package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>Backend Engineer - Acme Corp</title>
  <style>body { color: red; }</style>
  <script>console.log("tracking");</script>
</head>
<body>
  <h1>Backend Engineer</h1>
  <p>We build Python services on AWS.</p>
  <p>Salary: 6,000,000 yen</p>
</body>
</html>`

func TestParseJobPage(t *testing.T) {
	page, err := ParseJobPage(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("ParseJobPage: %v", err)
	}
	if page.Title != "Backend Engineer - Acme Corp" {
		t.Errorf("Title = %q", page.Title)
	}
	if !strings.Contains(page.Text, "Python services on AWS") {
		t.Errorf("Text missing body content: %q", page.Text)
	}
	if strings.Contains(page.Text, "tracking") || strings.Contains(page.Text, "color: red") {
		t.Errorf("script/style leaked into text: %q", page.Text)
	}
}

func TestFetchJobPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != fetchUserAgent {
			t.Errorf("User-Agent = %q", got)
		}
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	page, err := FetchJobPage(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("FetchJobPage: %v", err)
	}
	if page.Title == "" || page.Text == "" {
		t.Errorf("page = %+v", page)
	}
}

func TestFetchJobPageBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := FetchJobPage(context.Background(), srv.Client(), srv.URL); err == nil {
		t.Fatal("expected error on 404")
	}
}

func TestMineSkills(t *testing.T) {
	skills := mineSkills("Experienced with Python, Docker and AWS. Some Figma.")
	want := map[string]bool{"python": true, "docker": true, "aws": true, "figma": true}
	if len(skills) != len(want) {
		t.Fatalf("skills = %v", skills)
	}
	for _, s := range skills {
		if !want[s] {
			t.Errorf("unexpected skill %q", s)
		}
	}
}

func TestMineExperience(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"8 years of backend development, 3 years at Acme", 8},
		{"経験: 5年", 5},
		{"no numbers here", 0},
		{"worked for 99 years", 0},
	}
	for _, tt := range tests {
		if got := mineExperience(tt.text); got != tt.want {
			t.Errorf("mineExperience(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
