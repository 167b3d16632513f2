package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"petal-chatbot-backend/memory"
	"petal-chatbot-backend/models"
	"petal-chatbot-backend/utils"
)

// followUpToken is the exact label the follow-up classifier must emit for a
// message to count as on-topic. Anything else fails closed to "not relevant".
const followUpToken = "HEALTH_FOLLOWUP"

const followUpSystemPrompt = "Analyze if the current message is a natural follow-up to a health conversation. Be precise and strict."

// contextTurns is how many recent turns feed the follow-up classifier.
const contextTurns = 3

// RelevanceService decides whether a message is about menstrual health,
// either directly or as a conversational follow-up. Strategies run in order:
// direct vocabulary, exclusion list, context-based follow-up, and a minimal
// last-resort term check.
type RelevanceService struct {
	ai     Completer
	memory memory.ConversationMemory
	logger utils.EventLogger
}

func NewRelevanceService(ai Completer, store memory.ConversationMemory, logger utils.EventLogger) *RelevanceService {
	if logger == nil {
		logger = utils.NopLogger{}
	}
	return &RelevanceService{ai: ai, memory: store, logger: logger}
}

// menstrualTerms is the canonical domain vocabulary. Any substring hit marks
// the message on-topic without consulting context or the backend.
var menstrualTerms = []string{
	// Core terms
	"period", "periods", "menstrual", "menstruation", "cycle", "cycles",
	"bleeding", "blood", "flow", "spotting", "cramp", "cramps", "cramping",
	"pms", "pmdd", "ovulation", "hormone", "hormonal",

	// Anatomy
	"vagina", "vaginal", "vulva", "uterus", "ovaries", "ovary", "cervix",
	"womb", "pelvic", "reproductive", "down there", "private parts",

	// Products
	"pad", "pads", "tampon", "tampons", "menstrual cup", "sanitary",
	"feminine hygiene", "liner", "period underwear",

	// Symptoms and experiences
	"bloating", "bloated", "fatigue", "mood swings", "breast tenderness",
	"nausea", "back pain",

	// Flow characteristics
	"heavy flow", "light flow", "irregular", "missed period", "late period",
	"clots", "clotting", "leak", "leaked", "stain", "stained",
	"bled", "bleed", "soaked", "soaking",

	// Medical conditions
	"pcos", "endometriosis", "fibroids", "dysmenorrhea", "amenorrhea",
	"menorrhagia", "estrogen", "progesterone",

	// Life stages and care
	"first period", "menarche", "puberty", "gynecologist", "obgyn",

	// Period-specific lifestyle
	"swimming during period", "exercise during period", "period craving",
}

// menstrualPatterns catch indirect phrasings the term list misses, like
// bleeding described through clothing.
var menstrualPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(bled|bleed|blood|leak|leaked)\b.*\b(all over|through|on|stain|jeans|pants|clothes|sheets|underwear)\b`),
	regexp.MustCompile(`\b(clothes|pants|jeans|underwear|sheets)\b.*\b(stain|stained|mess|accident|ruined)\b`),
	regexp.MustCompile(`\b(monthly|every month)\b.*\b(pain|problem|issue)\b`),
	regexp.MustCompile(`\b(chocolate|sweet|craving)\b.*\b(period|pms|cramp)\b`),
}

// offTopicExclusions are superficially emotional phrases that must never be
// treated as follow-ups, even right after an on-topic turn.
var offTopicExclusions = []string{
	"hate my sister", "hate my brother", "hate my mom", "hate my dad",
	"hate my family", "hate my friend", "hate my job", "hate work",
	"hate school", "hate my teacher", "hate my boss",
	"first date", "dating", "relationship problems", "breakup",
}

// referentialWords signal a short follow-up when no backend is available.
var referentialWords = []string{"it", "this", "that", "help", "what", "how"}

// lastResortTerms is the minimal standalone match for queries with no
// conversation context.
var lastResortTerms = []string{"period", "menstrual", "cramp"}

// IsRelevant reports whether text belongs to the menstrual-health domain for
// the given user. The backend-based branch is the only non-deterministic
// step in the pipeline and fails closed on any surprise.
func (s *RelevanceService) IsRelevant(ctx context.Context, text, userID string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return false
	}

	// Strategy 1: direct vocabulary and pattern match.
	for _, term := range menstrualTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	for _, pattern := range menstrualPatterns {
		if pattern.MatchString(lower) {
			return true
		}
	}

	// Strategy 2: known off-domain phrases short-circuit to false before
	// the context strategy can over-trigger on them.
	for _, exclusion := range offTopicExclusions {
		if strings.Contains(lower, exclusion) {
			return false
		}
	}

	// Strategy 3: follow-up detection against recent conversation.
	turns, err := s.memory.Recent(ctx, userID, contextTurns)
	if err != nil {
		s.logger.Event("errors", fmt.Sprintf("relevance context load failed: %v", err))
		turns = nil
	}
	if len(turns) > 0 {
		if s.ai != nil {
			return s.classifyFollowUp(ctx, text, turns)
		}
		return isShortReferential(lower)
	}

	// Strategy 4: bare common terms as a last resort for standalone queries.
	for _, term := range lastResortTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// classifyFollowUp asks the backend for a binary label. Low temperature and
// a tiny token budget keep it near-deterministic; an unparseable or failed
// response means "not relevant".
func (s *RelevanceService) classifyFollowUp(ctx context.Context, text string, turns []models.Turn) bool {
	prompt := fmt.Sprintf(`Previous conversation:
%s

Current message: %q

Is this a natural follow-up to the previous health conversation?

Important:
- "I hate my sister" = family issue (NOT a health follow-up)
- "chocolate help?" after cramps = health follow-up (remedy seeking)
- "what's the weather" = NOT a health follow-up (unrelated topic)

Answer: %s or NOT_FOLLOWUP`, FormatContext(turns), text, followUpToken)

	reply, err := s.ai.Complete(ctx, followUpSystemPrompt, prompt, 0.1, 10)
	if err != nil {
		s.logger.Event("errors", fmt.Sprintf("follow-up classification failed: %v", err))
		return false
	}
	return strings.Contains(strings.ToUpper(reply), followUpToken)
}

// isShortReferential is the backend-free heuristic: a short message with a
// referential word reads as a follow-up to whatever came before.
func isShortReferential(lower string) bool {
	if len(strings.Fields(lower)) > 6 {
		return false
	}
	for _, word := range referentialWords {
		if containsWord(lower, word) {
			return true
		}
	}
	return false
}

func containsWord(text, word string) bool {
	for _, field := range strings.Fields(text) {
		if strings.Trim(field, ".,!?'\"") == word {
			return true
		}
	}
	return false
}

// FormatContext renders recent turns for a prompt, oldest first, with long
// bot replies truncated so the context stays small.
func FormatContext(turns []models.Turn) string {
	var b strings.Builder
	for _, turn := range turns {
		if turn.UserMessage != "" {
			fmt.Fprintf(&b, "User: %s\n", turn.UserMessage)
		}
		if turn.BotResponse != "" {
			fmt.Fprintf(&b, "Bot: %s\n", utils.Truncate(turn.BotResponse, 150))
		}
	}
	return strings.TrimSpace(b.String())
}
