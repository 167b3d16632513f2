package utils

import (
	"strings"

	"petal-chatbot-backend/models"
)

// CrisisClassifier flags self-harm, suicide, and violence-toward-others
// language. It is independent of topic detection: a crisis message routes to
// crisis handling whether or not it mentions the health domain.
type CrisisClassifier struct {
	logger EventLogger
}

func NewCrisisClassifier(logger EventLogger) *CrisisClassifier {
	if logger == nil {
		logger = NopLogger{}
	}
	return &CrisisClassifier{logger: logger}
}

// crisisKeywords is the single canonical keyword table, grouped by semantic
// category. Any substring hit on lower-cased text marks the message a crisis.
var crisisKeywords = map[models.CrisisType][]string{
	models.CrisisGeneralSuicide: {
		"want to die", "kill myself", "suicide", "end my life",
		"take my own life", "better off dead", "end it all",
		"not worth living", "can't go on living", "no reason to live",
		"suicidal thoughts", "suicidal ideation", "death wish",
		"want to be dead", "going to kill myself", "plan to kill myself",
	},
	models.CrisisMethodSeeking: {
		"ways to die", "how to die", "methods to die", "best way to die",
		"ways to kill myself", "how to kill myself",
		"ways to commit suicide", "how to commit suicide",
		"easiest way to die", "painless way to die",
		"pills that will kill me", "pills to die", "medicine to die",
		"drugs to die", "poison to die", "eat to die", "drink to die",
		"products to kill myself", "what should i eat to die",
	},
	models.CrisisViolenceOthers: {
		"want to kill someone", "kill someone", "murder someone",
		"going to kill someone", "plan to kill someone",
		"want to murder", "going to murder", "plan to murder",
		"want to hurt someone", "hurt someone", "harm someone",
		"violent thoughts", "murderous thoughts", "attack someone",
		"kill people", "murder people",
	},
	models.CrisisOverdoseReport: {
		"overdose", "overdosed", "too many pills", "ate pills",
		"took pills", "swallowed pills", "consumed pills",
		"ate painkillers", "took painkillers", "many painkillers",
		"lethal dose", "fatal amount",
	},
	models.CrisisHopelessness: {
		"hopeless", "helpless", "worthless", "useless", "meaningless",
		"can't go on", "can't continue", "can't take it anymore",
		"give up", "giving up", "gave up", "no hope", "no point",
		"had enough", "breaking point",
	},
	models.CrisisExhaustedOption: {
		"tried everything", "nothing works", "can't handle", "can't cope",
	},
	models.CrisisPainRelated: {
		"pain is killing me", "rather die than", "kill me now",
		"pain makes me want to die", "hurts so much i want to die",
		"bleeding so much i will die", "dying from pain",
		"want to stab", "stab my stomach", "stab myself",
		"hurt myself", "harm myself",
	},
}

// subtypePriority orders subtype selection when a message matches several
// categories. Violence toward others is reported first because it changes
// the shape of the response.
var subtypePriority = []models.CrisisType{
	models.CrisisViolenceOthers,
	models.CrisisMethodSeeking,
	models.CrisisOverdoseReport,
	models.CrisisPainRelated,
	models.CrisisExhaustedOption,
	models.CrisisHopelessness,
	models.CrisisGeneralSuicide,
}

// Classify returns the crisis subtype for text, or CrisisNone. A positive
// match is always written to the crisis-event log, whether or not a response
// is later generated successfully.
func (c *CrisisClassifier) Classify(userID, text string) models.CrisisType {
	lower := strings.ToLower(text)

	matched := models.CrisisNone
	for _, subtype := range subtypePriority {
		for _, keyword := range crisisKeywords[subtype] {
			if strings.Contains(lower, keyword) {
				matched = subtype
				break
			}
		}
		if matched != models.CrisisNone {
			break
		}
	}

	if matched != models.CrisisNone {
		c.logger.Crisis(userID, text)
	}
	return matched
}

// IsCrisis reports whether text contains crisis language without logging.
// Used by the emotion tagger, which must stay side-effect free.
func IsCrisis(text string) bool {
	lower := strings.ToLower(text)
	for _, keywords := range crisisKeywords {
		for _, keyword := range keywords {
			if strings.Contains(lower, keyword) {
				return true
			}
		}
	}
	return false
}
