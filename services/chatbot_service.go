package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"petal-chatbot-backend/memory"
	"petal-chatbot-backend/models"
	"petal-chatbot-backend/utils"
)

const answerSystemPrompt = "You are Petal, a warm and caring menstrual health companion. Ground your answer in the provided medical information, validate the user's feelings, and keep a conversational tone."

// trustedSourcesFooter is appended to every backend-generated domain answer.
const trustedSourcesFooter = "\n\n💙 *Medical info from trusted sources*"

const redirectResponse = `I'm Petal, your menstrual health companion! 🌸

I help with period-related questions using medical expertise from trusted sources.

**I can help with:**
🩸 Period timing, flow, irregularities, what's normal
💊 Cramp relief, PMS/PMDD, bloating, mood changes
👧 First period support, teen concerns
🏥 When to see doctors, warning signs
💙 Emotional support, anxiety, self-care

Could you ask me something about periods or reproductive health? I'm here with caring support! 💕`

const doctorHelpResponse = `🏥 **Finding the Right Doctor for Menstrual Health:**

**Online Doctor Finders:**
• **Zocdoc:** https://www.zocdoc.com (Search "OBGYN" + your city, book online)
• **Healthgrades:** https://www.healthgrades.com (Find and review doctors)

**Types of Doctors for Period Issues:**
• **OBGYN** - Specialists in reproductive health
• **Primary Care** - Good starting point for basic period concerns
• **Adolescent Medicine** - For teens and young adults

**Affordable Care Options:**
• **Planned Parenthood:** https://www.plannedparenthood.org/health-center (Find locations, sliding scale fees)
• **Community Health Centers:** https://findahealthcenter.hrsa.gov (Federally qualified health centers)

**When to See a Doctor:**
• Heavy bleeding (soaking pad/tampon every hour)
• Severe pain that disrupts daily life
• Irregular periods or missed periods

**Emergency Signs - Go to ER:**
• Heavy bleeding + dizziness
• Severe sudden pelvic pain
• Fever during period

You're taking such a brave step seeking care! Healthcare providers are there to help, not judge. 💕`

// doctorHelpIndicators trigger the curated referral template before topic
// resolution runs.
var doctorHelpIndicators = []string{
	"which doctor", "what doctor", "doctor should i", "doctor to see",
	"doctor for", "need a doctor", "find a doctor", "see a doctor",
	"consult a doctor", "consult doctor", "who should i see",
	"book appointment", "appointment", "doctor contact", "contact doctor",
	"gynecologist", "obgyn", "ob gyn", "healthcare provider",
	"where to go", "where should i go", "clinic near me", "find clinic",
	"nearby doctor", "visit doctor", "go to doctor", "talk to doctor",
	"period doctor", "menstrual doctor", "period specialist",
}

var emotionOpenings = map[models.EmotionLabel]string{
	models.EmotionAngry:       "Oh honey, I can hear the frustration! 💕 Those feelings are totally valid.",
	models.EmotionEmbarrassed: "Oh sweetie, I understand those feelings completely! 💕",
	models.EmotionScared:      "I can hear the concern, and that's totally understandable. 🌸",
	models.EmotionSad:         "I'm here for you during this tough time, honey. 💙",
	models.EmotionConfused:    "Let me help clarify this for you, love! ✨",
	models.EmotionHappy:       "I love the positive energy! ✨",
	models.EmotionNeutral:     "Hey sweetie! I'm here to help! ✨",
}

const templateEnding = "You've got this, honey! Feel free to ask more. 🌸"

// ChatbotService is the routing pipeline behind every chat entry point. It
// classifies a message and short-circuits through exactly one of four
// outcomes: blocked, crisis, off-topic redirect, or a domain answer.
type ChatbotService struct {
	sanitizer *utils.Sanitizer
	crisis    *utils.CrisisClassifier
	emotions  *utils.EmotionTagger
	relevance *RelevanceService
	responder *CrisisService
	retriever ContentRetriever
	memory    memory.ConversationMemory
	ai        Completer
	logger    utils.EventLogger
}

func NewChatbotService(
	store memory.ConversationMemory,
	retriever ContentRetriever,
	ai Completer,
	logger utils.EventLogger,
) *ChatbotService {
	if logger == nil {
		logger = utils.NopLogger{}
	}
	return &ChatbotService{
		sanitizer: utils.NewSanitizer(logger),
		crisis:    utils.NewCrisisClassifier(logger),
		emotions:  utils.NewEmotionTagger(),
		relevance: NewRelevanceService(ai, store, logger),
		responder: NewCrisisService(ai, logger),
		retriever: retriever,
		memory:    store,
		ai:        ai,
		logger:    logger,
	}
}

// HandleMessage classifies and answers one message. It never returns an
// error or an empty response: every failure inside the pipeline resolves to
// a deterministic local fallback.
func (s *ChatbotService) HandleMessage(ctx context.Context, userID, text string) (result models.ChatResponse) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Event("errors", fmt.Sprintf("panic in message pipeline: %v", r))
			result = models.ChatResponse{
				Response: redirectResponse,
				Decision: models.DecisionOffTopic,
				Emotion:  models.EmotionNeutral,
			}
		}
	}()

	// Step 1: sanitize. A block is terminal and never stored.
	sanitized := s.sanitizer.Sanitize(text)
	if sanitized.Blocked {
		s.summarize(userID, text, models.DecisionBlocked, models.EmotionNeutral)
		return models.ChatResponse{
			Response: sanitized.Message,
			Decision: models.DecisionBlocked,
			Emotion:  models.EmotionNeutral,
		}
	}
	text = sanitized.Text

	// Step 2: crisis takes absolute priority over topic and everything else.
	if subtype := s.crisis.Classify(userID, text); subtype != models.CrisisNone {
		response := s.responder.Respond(ctx, text, subtype)
		s.persist(ctx, userID, text, response, models.EmotionCrisis)
		s.summarize(userID, text, models.DecisionCrisis, models.EmotionCrisis)
		return models.ChatResponse{
			Response: response,
			Decision: models.DecisionCrisis,
			Emotion:  models.EmotionCrisis,
		}
	}

	// Care-seeking questions get the referral template before topic
	// resolution can redirect them.
	if wantsDoctorHelp(text) {
		emotion := s.emotions.Tag(text)
		s.persist(ctx, userID, text, doctorHelpResponse, emotion)
		s.summarize(userID, text, models.DecisionDomainAnswer, emotion)
		return models.ChatResponse{
			Response: doctorHelpResponse,
			Decision: models.DecisionDomainAnswer,
			Emotion:  emotion,
		}
	}

	// Step 3: off-topic messages get a fixed redirect, nothing stored.
	if !s.relevance.IsRelevant(ctx, text, userID) {
		s.summarize(userID, text, models.DecisionOffTopic, models.EmotionNeutral)
		return models.ChatResponse{
			Response: redirectResponse,
			Decision: models.DecisionOffTopic,
			Emotion:  models.EmotionNeutral,
		}
	}

	// Steps 4-6: tag emotion, retrieve content, synthesize the answer.
	emotion := s.emotions.Tag(text)
	content := s.retrieve(ctx, text)
	response := s.synthesize(ctx, userID, text, content, emotion)

	// Step 7: persist the turn and log the outcome.
	s.persist(ctx, userID, text, response, emotion)
	s.summarize(userID, text, models.DecisionDomainAnswer, emotion)

	return models.ChatResponse{
		Response: response,
		Decision: models.DecisionDomainAnswer,
		Emotion:  emotion,
	}
}

// retrieve fetches supporting text, falling back to curated local content
// when the backend errors or comes back empty.
func (s *ChatbotService) retrieve(ctx context.Context, query string) string {
	if s.retriever != nil {
		content, err := s.retriever.Retrieve(ctx, query)
		if err == nil && strings.TrimSpace(content) != "" {
			return content
		}
		if err != nil {
			s.logger.Event("errors", fmt.Sprintf("retrieval failed: %v", err))
		}
	}
	return StaticContent(query)
}

// synthesize builds the final domain answer, preferring the generation
// backend and degrading to a deterministic template keyed by emotion.
func (s *ChatbotService) synthesize(ctx context.Context, userID, query, content string, emotion models.EmotionLabel) string {
	if s.ai != nil {
		reply, err := s.generate(ctx, userID, query, content, emotion)
		if err == nil {
			return reply + trustedSourcesFooter
		}
		s.logger.Event("errors", fmt.Sprintf("answer synthesis failed: %v", err))
	}
	return templatedAnswer(query, content, emotion)
}

func (s *ChatbotService) generate(ctx context.Context, userID, query, content string, emotion models.EmotionLabel) (string, error) {
	var b strings.Builder
	turns, err := s.memory.Recent(ctx, userID, contextTurns)
	if err == nil && len(turns) > 0 {
		fmt.Fprintf(&b, "Previous conversation:\n%s\n\n", FormatContext(turns))
	}
	if emotion != models.EmotionNeutral {
		fmt.Fprintf(&b, "User emotion: %s\n\n", emotion)
	}
	fmt.Fprintf(&b, "User question: %q\n\nMedical information: %s\n\n", query, content)
	b.WriteString(`Instructions:
- If this continues a previous conversation, acknowledge it naturally
- If the user asks about food or remedies, connect them to the health concern
- If the user is expressing emotions, validate the feelings first
- Be warm, caring, and conversational`)

	return s.ai.Complete(ctx, answerSystemPrompt, b.String(), 0.8, 700)
}

// templatedAnswer is the fully offline answer: an emotion-matched opening,
// the retrieved or curated content, and a fixed ending.
func templatedAnswer(query, content string, emotion models.EmotionLabel) string {
	opening, ok := emotionOpenings[emotion]
	if !ok {
		opening = emotionOpenings[models.EmotionNeutral]
	}
	if strings.TrimSpace(content) == "" {
		content = StaticContent(query)
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s%s", opening, content, templateEnding, trustedSourcesFooter)
}

func (s *ChatbotService) persist(ctx context.Context, userID, userMessage, response string, emotion models.EmotionLabel) {
	turn := models.Turn{
		UserMessage: userMessage,
		BotResponse: response,
		Emotion:     emotion,
		Timestamp:   time.Now().UTC(),
	}
	if err := s.memory.Append(ctx, userID, turn); err != nil {
		s.logger.Event("errors", fmt.Sprintf("failed to store turn: %v", err))
	}
}

func (s *ChatbotService) summarize(userID, text string, decision models.RoutingDecision, emotion models.EmotionLabel) {
	s.logger.Event("chat", fmt.Sprintf(
		"user=%s decision=%s emotion=%s message=%q",
		userID, decision, emotion, utils.Truncate(text, 50),
	))
}

func wantsDoctorHelp(text string) bool {
	lower := strings.ToLower(text)
	for _, indicator := range doctorHelpIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
