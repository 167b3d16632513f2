package utils

import (
	"strings"

	"petal-chatbot-backend/models"
)

// EmotionTagger assigns a single affect label to a message. It is a pure
// function of the text and only flavors response tone; it never gates
// routing decisions.
type EmotionTagger struct{}

func NewEmotionTagger() *EmotionTagger {
	return &EmotionTagger{}
}

var (
	angryKeywords = []string{
		"angry", "frustrated", "annoyed", "irritated", "punch", "hit",
		"rage", "furious", "mad", "hate", "pissed",
	}
	scaredKeywords = []string{
		"scared", "afraid", "worried", "anxious", "nervous", "concerned",
		"terrified", "frightened",
	}
	sadKeywords = []string{
		"sad", "pain", "tired", "bad", "cramp", "hurt", "hurts", "hurting",
		"depressed", "moody", "bloated", "fatigue",
	}
	confusedKeywords = []string{
		"confused", "unsure", "don't know", "uncertain", "lost", "unclear",
		"puzzled",
	}
	embarrassedKeywords = []string{
		"embarrassed", "ashamed", "awkward", "uncomfortable", "shy",
		"humiliated",
	}
	happyKeywords = []string{
		"happy", "joy", "great", "good", "relieved", "calm", "better",
		"fine", "okay",
	}

	// Domain words that pair with "anxious" to signal cycle-linked anxiety.
	anxietyContextWords = []string{"period", "cramp", "cycle", "bloating"}
)

// Tag returns the first matching label in priority order:
// crisis > cycle-linked anxiety > angry > scared > sad > confused >
// embarrassed > happy > neutral.
func (e *EmotionTagger) Tag(text string) models.EmotionLabel {
	lower := strings.ToLower(text)

	if IsCrisis(lower) {
		return models.EmotionCrisis
	}

	// "anxious" next to a cycle word reads as fear about symptoms, not
	// general anger, so it outranks the plain keyword buckets.
	if strings.Contains(lower, "anxious") && containsAny(lower, anxietyContextWords) {
		return models.EmotionScared
	}

	switch {
	case containsAny(lower, angryKeywords):
		return models.EmotionAngry
	case containsAny(lower, scaredKeywords):
		return models.EmotionScared
	case containsAny(lower, sadKeywords):
		return models.EmotionSad
	case containsAny(lower, confusedKeywords):
		return models.EmotionConfused
	case containsAny(lower, embarrassedKeywords):
		return models.EmotionEmbarrassed
	case containsAny(lower, happyKeywords):
		return models.EmotionHappy
	}

	return models.EmotionNeutral
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
