package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"petal-chatbot-backend/config"
)

// ErrNoContent is returned when a retriever finds nothing usable for the
// query. An empty result is a failure by contract, never an empty string.
var ErrNoContent = errors.New("no content retrieved")

// ContentRetriever supplies grounded medical text for a domain query.
type ContentRetriever interface {
	Retrieve(ctx context.Context, query string) (string, error)
}

// NewContentRetriever selects the backend from configuration.
func NewContentRetriever(cfg *config.Config) ContentRetriever {
	if cfg.Retriever.Backend == "web" {
		return NewWebRetriever(cfg)
	}
	return NewCorpusRetriever(cfg.Retriever.CorpusPath)
}

// CorpusRetriever searches flat text files under a local directory. Files
// are scored by query-word overlap and the most relevant sentences are
// stitched together.
type CorpusRetriever struct {
	dir string
}

func NewCorpusRetriever(dir string) *CorpusRetriever {
	return &CorpusRetriever{dir: dir}
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// metadataLine matches corpus bookkeeping lines that must not leak into
// answers.
var metadataLine = regexp.MustCompile(`SOURCE:.*|CATEGORY:.*|AUTHORITY:.*|={2,}`)

func (r *CorpusRetriever) Retrieve(ctx context.Context, query string) (string, error) {
	queryWords := significantWords(query)
	if len(queryWords) == 0 {
		return "", ErrNoContent
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return "", fmt.Errorf("failed to read corpus dir: %w", err)
	}

	var collected []string
	total := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			continue
		}
		content := string(raw)
		if overlap(strings.ToLower(content), queryWords) == 0 {
			continue
		}

		for _, sentence := range relevantSentences(content, queryWords, 2) {
			collected = append(collected, sentence)
			total += len(sentence)
		}
		if total > 800 {
			break
		}
	}

	if len(collected) == 0 {
		return "", ErrNoContent
	}
	return strings.Join(collected, "\n\n"), nil
}

// relevantSentences picks up to max sentences that share words with the
// query, with metadata lines stripped and short fragments skipped.
func relevantSentences(content string, queryWords []string, max int) []string {
	var out []string
	for _, sentence := range sentenceSplit.Split(content, -1) {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) <= 40 {
			continue
		}
		if overlap(strings.ToLower(sentence), queryWords) == 0 {
			continue
		}
		clean := strings.TrimSpace(metadataLine.ReplaceAllString(sentence, ""))
		if len(clean) > 30 {
			out = append(out, clean)
			if len(out) >= max {
				break
			}
		}
	}
	return out
}

func significantWords(query string) []string {
	var words []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if len(word) > 2 {
			words = append(words, strings.Trim(word, ".,!?'\""))
		}
	}
	return words
}

func overlap(text string, words []string) int {
	n := 0
	for _, word := range words {
		if strings.Contains(text, word) {
			n++
		}
	}
	return n
}

// WebRetriever queries the DuckDuckGo instant-answer API and returns
// abstract text. It is best effort: any transport or decode problem
// surfaces as an error and the caller falls back to local content.
type WebRetriever struct {
	endpoint   string
	httpClient *http.Client
}

func NewWebRetriever(cfg *config.Config) *WebRetriever {
	return &WebRetriever{
		endpoint: "https://api.duckduckgo.com/",
		httpClient: &http.Client{
			Timeout: cfg.Retriever.Timeout,
		},
	}
}

type instantAnswer struct {
	AbstractText  string `json:"AbstractText"`
	RelatedTopics []struct {
		Text string `json:"Text"`
	} `json:"RelatedTopics"`
}

func (r *WebRetriever) Retrieve(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var answer instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return "", fmt.Errorf("failed to decode search response: %w", err)
	}

	var parts []string
	if answer.AbstractText != "" {
		parts = append(parts, answer.AbstractText)
	}
	for _, topic := range answer.RelatedTopics {
		if topic.Text != "" {
			parts = append(parts, topic.Text)
		}
		if len(parts) >= 5 {
			break
		}
	}
	if len(parts) == 0 {
		return "", ErrNoContent
	}
	return strings.Join(parts, "\n"), nil
}

// StaticContent returns curated advice keyed by query keywords. It is the
// deterministic floor under the retriever: the router uses it whenever the
// configured backend comes back empty or errors.
func StaticContent(query string) string {
	lower := strings.ToLower(query)

	switch {
	case containsAnyOf(lower, "cramp", "pain", "hurt", "hurts", "hurting", "ache", "sore"):
		return "Heat therapy can provide significant relief for menstrual cramps. Apply a heating pad or hot water bottle to your lower abdomen. Over-the-counter pain relievers like ibuprofen are particularly effective for menstrual pain as they reduce inflammation. Gentle exercise like walking or yoga can help by improving blood flow and releasing endorphins."
	case containsAnyOf(lower, "chocolate", "dessert", "sweet", "food", "eat", "spicy", "sugar"):
		return "During periods, many people crave chocolate and sweet foods due to hormonal changes. Dark chocolate can be beneficial as it contains magnesium, which may help reduce cramps and improve mood. However, moderation is key. Spicy foods may irritate some people's stomachs during menstruation, so listen to your body's response."
	case containsAnyOf(lower, "stain", "bled", "leak", "accident", "clothes", "pants", "jeans"):
		return "Period accidents happen to most people at some point and are completely normal. For stain removal, rinse with cold water immediately and use hydrogen peroxide or enzyme-based stain removers. To prevent future leaks, consider backup protection, tracking your flow patterns, and changing products more frequently on heavy days."
	case containsAnyOf(lower, "hate", "embarrassed", "ashamed", "frustrated", "angry", "upset"):
		return "Your feelings about periods are completely valid and normal. Many people experience frustration, embarrassment, or other difficult emotions related to menstruation. These feelings are often influenced by societal stigma, but periods are a natural, healthy part of life. Talking about these feelings and seeking support can help reduce shame and improve your relationship with your body."
	default:
		return "Based on medical experts, maintaining good menstrual hygiene, staying hydrated, getting adequate rest, and listening to your body's needs are important during your period. Heat therapy, gentle exercise, and over-the-counter pain relievers can help with discomfort. If you have severe symptoms or concerns, consulting with a healthcare provider is recommended."
	}
}

func containsAnyOf(text string, words ...string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
