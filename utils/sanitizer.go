package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// Block messages shown to the user. The audit log gets the rule id and a
// truncated copy of the input instead.
const (
	BlockMsgInvalid   = "Please enter a valid message."
	BlockMsgInjection = "Please ask about menstrual health instead."
	BlockMsgTooLong   = "Please keep your message shorter and focused on menstrual health."
	BlockMsgBrackets  = "Please ask about menstrual health in plain language."
)

const (
	maxInputLength   = 2000
	maxBracketChars  = 10
	minContentLength = 2
)

// SanitizeResult is the outcome of input sanitization. When Blocked is set,
// Message carries the user-visible template and Reason the matched rule id.
type SanitizeResult struct {
	Text    string
	Blocked bool
	Reason  string
	Message string
}

// Sanitizer rejects malformed input and known prompt-injection patterns.
// Crisis phrasing is allow-listed ahead of the injection filters so crisis
// messages always reach the crisis classifier.
type Sanitizer struct {
	logger EventLogger
}

func NewSanitizer(logger EventLogger) *Sanitizer {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Sanitizer{logger: logger}
}

// crisisAllowList bypasses injection filtering entirely. These phrases need
// crisis handling, not a security block.
var crisisAllowList = []string{
	"want to die", "kill myself", "suicide", "end my life",
	"don't want to live", "dont want to live", "can't live", "cant live",
	"want to kill someone", "hurt myself", "harm myself",
}

// forbiddenWords are single-token injection markers, matched as substrings
// of the lower-cased input.
var forbiddenWords = []string{
	"secret", "hidden", "forbidden", "confidential", "classified",
	"insider", "privileged",
	"ignore", "bypass", "override", "jailbreak",
	"admin", "sudo",
}

// forbiddenPhrases catch multi-word manipulation attempts that the single
// word list would miss.
var forbiddenPhrases = []string{
	"break the rules", "break rules", "break guidelines",
	"forget instructions", "forget all previous instructions",
	"system prompt", "training data", "you are now",
	"act as", "act like", "pretend to be", "pretend you are", "roleplay as",
	"developer mode", "god mode", "root access",
	"secret tips", "hidden tips", "medical secrets",
	"doctors don't share", "doctors don't tell", "doctors keep secret",
	"what doctors hide", "forbidden knowledge", "insider knowledge",
}

// forbiddenPatterns combine an extraction verb with a secrecy or authority
// noun. Compiled once at package init.
var forbiddenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(give|show|reveal|tell|share)\b.*\b(secret|hidden|forbidden|confidential)\b`),
	regexp.MustCompile(`\b(break|ignore|override|bypass)\b.{0,10}\b(rules|guidelines|instructions|protocols)\b`),
	regexp.MustCompile(`\b(show|reveal|display|expose)\b.{0,10}\b(prompt|system|training|instructions)\b`),
	regexp.MustCompile(`\b(tips|advice|information)\b.*\b(doctors?|medical)\b.*\b(don'?t|never|won'?t)\b`),
	regexp.MustCompile(`\b(admin|developer|root|god)\b.{0,10}\b(mode|access|privileges)\b`),
}

// Sanitize validates text and returns either the trimmed input or a block
// with a templated refusal. Trimming is stable: re-sanitizing an accepted
// result yields the same text.
func (s *Sanitizer) Sanitize(text string) SanitizeResult {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minContentLength {
		return s.block(text, "invalid", "length_check", BlockMsgInvalid)
	}

	lower := strings.ToLower(trimmed)

	// Crisis messages pass through untouched. This runs before any
	// injection filtering so "kill myself" is never treated as an attack.
	for _, phrase := range crisisAllowList {
		if strings.Contains(lower, phrase) {
			return SanitizeResult{Text: trimmed}
		}
	}

	for _, word := range forbiddenWords {
		if strings.Contains(lower, word) {
			return s.block(text, "forbidden_word_"+word, "word_detection", BlockMsgInjection)
		}
	}

	for _, phrase := range forbiddenPhrases {
		if strings.Contains(lower, phrase) {
			return s.block(text, "forbidden_phrase_"+phrase, "phrase_detection", BlockMsgInjection)
		}
	}

	for i, pattern := range forbiddenPatterns {
		if pattern.MatchString(lower) {
			return s.block(text, fmt.Sprintf("pattern_%d", i), "regex_detection", BlockMsgInjection)
		}
	}

	if len(trimmed) > maxInputLength {
		return s.block(text, "too_long", "length_analysis", BlockMsgTooLong)
	}

	brackets := strings.Count(trimmed, "{") + strings.Count(trimmed, "}") +
		strings.Count(trimmed, "[") + strings.Count(trimmed, "]")
	if brackets > maxBracketChars {
		return s.block(text, "suspicious_characters", "character_analysis", BlockMsgBrackets)
	}

	return SanitizeResult{Text: trimmed}
}

func (s *Sanitizer) block(text, reason, method, message string) SanitizeResult {
	s.logger.Event("security_injection", fmt.Sprintf(
		"INJECTION BLOCKED | method: %s | rule: %s | input: %s | length: %d",
		method, reason, Truncate(text, 200), len(text)))
	return SanitizeResult{Blocked: true, Reason: reason, Message: message}
}
