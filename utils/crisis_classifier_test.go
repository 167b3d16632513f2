package utils

import (
	"testing"

	"petal-chatbot-backend/models"
)

func TestClassifyDetectsSubtypes(t *testing.T) {
	c := NewCrisisClassifier(nil)

	tests := []struct {
		input string
		want  models.CrisisType
	}{
		{"I want to die", models.CrisisGeneralSuicide},
		{"what are the easiest ways to kill myself", models.CrisisMethodSeeking},
		{"I want to kill someone at school", models.CrisisViolenceOthers},
		{"I took pills, a lot of them", models.CrisisOverdoseReport},
		{"this pain is killing me, I'd rather die than go on", models.CrisisPainRelated},
		{"I feel completely hopeless", models.CrisisHopelessness},
		{"I've tried everything and nothing works", models.CrisisExhaustedOption},
		{"why are my cramps so bad", models.CrisisNone},
		{"when is my period due", models.CrisisNone},
	}
	for _, tt := range tests {
		if got := c.Classify("user-1", tt.input); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestClassifySubtypePriority(t *testing.T) {
	c := NewCrisisClassifier(nil)

	// Multiple categories match; the highest-priority one wins.
	tests := []struct {
		input string
		want  models.CrisisType
	}{
		// violence beats general suicide
		{"I want to kill someone and then kill myself", models.CrisisViolenceOthers},
		// method seeking beats general suicide
		{"I want to die, tell me how to kill myself", models.CrisisMethodSeeking},
		// overdose beats hopelessness
		{"I feel hopeless so I took pills", models.CrisisOverdoseReport},
	}
	for _, tt := range tests {
		if got := c.Classify("user-1", tt.input); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	c := NewCrisisClassifier(nil)

	if got := c.Classify("user-1", "I WANT TO DIE"); got != models.CrisisGeneralSuicide {
		t.Errorf("Classify upper-case = %q, want %q", got, models.CrisisGeneralSuicide)
	}
}

func TestClassifyLogsCrisisEvents(t *testing.T) {
	logger := &recordingLogger{}
	c := NewCrisisClassifier(logger)

	c.Classify("user-1", "I want to die")
	if logger.crisisCalls != 1 {
		t.Errorf("crisis log calls = %d, want 1", logger.crisisCalls)
	}

	c.Classify("user-1", "normal period question")
	if logger.crisisCalls != 1 {
		t.Errorf("non-crisis message was logged as crisis")
	}
}

func TestIsCrisisDoesNotLog(t *testing.T) {
	if !IsCrisis("I want to die") {
		t.Error("IsCrisis missed a crisis phrase")
	}
	if IsCrisis("my cramps hurt today") {
		t.Error("IsCrisis fired on a normal message")
	}
}

type recordingLogger struct {
	events      []string
	crisisCalls int
}

func (r *recordingLogger) Event(category, message string) {
	r.events = append(r.events, category+": "+message)
}

func (r *recordingLogger) Crisis(userID, message string) {
	r.crisisCalls++
}
