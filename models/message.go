package models

import (
	"time"
)

// EmotionLabel is the single affect label attached to each user message.
type EmotionLabel string

const (
	EmotionAngry       EmotionLabel = "angry"
	EmotionScared      EmotionLabel = "scared"
	EmotionSad         EmotionLabel = "sad"
	EmotionConfused    EmotionLabel = "confused"
	EmotionEmbarrassed EmotionLabel = "embarrassed"
	EmotionHappy       EmotionLabel = "happy"
	EmotionNeutral     EmotionLabel = "neutral"
	EmotionCrisis      EmotionLabel = "crisis"
)

// CrisisType identifies the dominant crisis pattern in a message so the
// response can speak to the specific situation.
type CrisisType string

const (
	CrisisNone            CrisisType = ""
	CrisisViolenceOthers  CrisisType = "violence_toward_others"
	CrisisMethodSeeking   CrisisType = "method_seeking"
	CrisisOverdoseReport  CrisisType = "overdose_report"
	CrisisPainRelated     CrisisType = "pain_related_crisis"
	CrisisExhaustedOption CrisisType = "exhausted_options"
	CrisisHopelessness    CrisisType = "hopelessness"
	CrisisGeneralSuicide  CrisisType = "general_suicide"
)

// RoutingDecision is the terminal state the router reached for a message.
type RoutingDecision string

const (
	DecisionBlocked      RoutingDecision = "blocked"
	DecisionCrisis       RoutingDecision = "crisis"
	DecisionOffTopic     RoutingDecision = "off_topic"
	DecisionDomainAnswer RoutingDecision = "domain_answer"
)

// ClassificationResult is produced fresh for every message and never stored.
type ClassificationResult struct {
	IsCrisis      bool
	CrisisSubtype CrisisType
	IsOnTopic     bool
	Emotion       EmotionLabel
	BlockedReason string
}

// Turn is one user-message/bot-response pair, the unit of conversation memory.
// Turns are appended, never mutated; stores evict the oldest past a window.
type Turn struct {
	UserMessage string       `bson:"user_message" json:"user_message"`
	BotResponse string       `bson:"bot_response" json:"bot_response"`
	Emotion     EmotionLabel `bson:"emotion" json:"emotion"`
	Timestamp   time.Time    `bson:"timestamp" json:"timestamp"`
}

// ChatRequest is the inbound payload for the chat endpoints.
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
	UserID  string `json:"user_id,omitempty"`
}

// ChatResponse is what every chat endpoint returns. Response is always
// non-empty, whatever happened upstream.
type ChatResponse struct {
	Response string          `json:"response"`
	Decision RoutingDecision `json:"decision"`
	Emotion  EmotionLabel    `json:"emotion,omitempty"`
}

// UserStats summarizes a user's stored conversation for the admin surface.
type UserStats struct {
	TotalTurns        int                  `json:"total_turns"`
	MostCommonEmotion EmotionLabel         `json:"most_common_emotion"`
	EmotionBreakdown  map[EmotionLabel]int `json:"emotion_breakdown"`
	LastMessage       string               `json:"last_message,omitempty"`
}
