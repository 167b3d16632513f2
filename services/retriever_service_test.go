package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCorpusFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing corpus file: %v", err)
	}
}

func TestCorpusRetrieverFindsRelevantSentences(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "cramps.txt",
		"SOURCE: example\n"+
			"Menstrual cramps are caused by uterine contractions during your period. "+
			"Applying heat to the lower abdomen can relieve cramping for many people. "+
			"Bananas are yellow and grow in warm climates.")
	writeCorpusFile(t, dir, "unrelated.txt",
		"Car engines need regular oil changes to run smoothly over many years of use.")

	r := NewCorpusRetriever(dir)
	content, err := r.Retrieve(context.Background(), "why do I get cramps on my period")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if !strings.Contains(content, "uterine contractions") {
		t.Errorf("relevant sentence missing: %q", content)
	}
	if strings.Contains(content, "oil changes") {
		t.Errorf("irrelevant file leaked: %q", content)
	}
	if strings.Contains(content, "SOURCE:") {
		t.Errorf("metadata leaked: %q", content)
	}
}

func TestCorpusRetrieverEmptyIsFailure(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "other.txt",
		"Completely unrelated text about gardening tools and lawnmower maintenance schedules.")

	r := NewCorpusRetriever(dir)
	_, err := r.Retrieve(context.Background(), "irregular periods")
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("err = %v, want ErrNoContent", err)
	}
}

func TestCorpusRetrieverMissingDir(t *testing.T) {
	r := NewCorpusRetriever("/nonexistent/corpus")
	if _, err := r.Retrieve(context.Background(), "period cramps"); err == nil {
		t.Error("missing corpus dir did not error")
	}
}

func TestStaticContentBuckets(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"my cramps hurt", "Heat therapy"},
		{"is chocolate bad during periods", "crave chocolate"},
		{"I bled on my jeans", "stain removal"},
		{"I hate having periods", "completely valid"},
		{"general period question", "healthcare provider"},
	}
	for _, tt := range tests {
		content := StaticContent(tt.query)
		if !strings.Contains(content, tt.want) {
			t.Errorf("StaticContent(%q) missing %q", tt.query, tt.want)
		}
	}
}

func TestStaticContentNeverEmpty(t *testing.T) {
	for _, query := range []string{"", "anything", "???"} {
		if strings.TrimSpace(StaticContent(query)) == "" {
			t.Errorf("StaticContent(%q) empty", query)
		}
	}
}
