package survey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSurvey() Survey {
	return Survey{
		ID:   "test-survey",
		Name: "Test Survey",
		Questions: []Question{
			{ID: "q1", Type: QuestionNPS, Prompt: "How likely?", Required: true},
			{ID: "q2", Type: QuestionText, Prompt: "Why?"},
		},
		Trigger: TriggerConfig{Type: TriggerManual},
	}
}

func TestValidate_WellFormed(t *testing.T) {
	sv := validSurvey()
	assert.Empty(t, sv.Validate())
}

func TestValidate_MissingIdentity(t *testing.T) {
	sv := validSurvey()
	sv.ID = ""
	sv.Name = ""

	errs := sv.Validate()
	require.Len(t, errs, 2)
	assert.Equal(t, "id", errs[0].Field)
	assert.Equal(t, "name", errs[1].Field)
}

func TestValidate_NoQuestions(t *testing.T) {
	sv := validSurvey()
	sv.Questions = nil

	errs := sv.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "at least one question")
}

func TestValidate_TriggerProblems(t *testing.T) {
	tests := []struct {
		name    string
		trigger TriggerConfig
		field   string
	}{
		{"unknown type", TriggerConfig{Type: "hover"}, "trigger.type"},
		{"element-visible without selector", TriggerConfig{Type: TriggerElementVisible}, "trigger.selector"},
		{"click without selector", TriggerConfig{Type: TriggerClick}, "trigger.selector"},
		{"scroll depth out of range", TriggerConfig{Type: TriggerScrollDepth, ScrollDepth: 150}, "trigger.scrollDepth"},
		{"negative delay", TriggerConfig{Type: TriggerTimeDelay, Delay: -time.Second}, "trigger.delay"},
		{"negative cooldown", TriggerConfig{Type: TriggerManual, CooldownDays: -1}, "trigger.cooldownDays"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sv := validSurvey()
			sv.Trigger = tt.trigger

			errs := sv.Validate()
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidate_DuplicateQuestionIDs(t *testing.T) {
	sv := validSurvey()
	sv.Questions = append(sv.Questions, Question{ID: "q1", Type: QuestionText, Prompt: "Again?"})

	errs := sv.Validate()
	require.Len(t, errs, 1)
	assert.Equal(t, "q1", errs[0].QuestionID)
	assert.Contains(t, errs[0].Message, "duplicate")
}

func TestValidate_MultiChoiceOptions(t *testing.T) {
	sv := validSurvey()
	sv.Questions = []Question{{
		ID:     "pick",
		Type:   QuestionMultiChoice,
		Prompt: "Pick one",
		Options: []Option{
			{ID: "a", Label: "A", Value: "a"},
			{ID: "b", Label: "B", Value: "a"}, // duplicate value
		},
	}}

	errs := sv.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "duplicate option value")
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	sv := Survey{
		Trigger: TriggerConfig{Type: "bogus"},
		Questions: []Question{
			{ID: "q1", Type: "unknown", Prompt: "?"},
		},
	}

	errs := sv.Validate()
	assert.GreaterOrEqual(t, len(errs), 3, "id, name, trigger, and question type should all be reported")
}

func TestValidate_InvalidPosition(t *testing.T) {
	sv := validSurvey()
	sv.Position = "middle-out"

	errs := sv.Validate()
	require.Len(t, errs, 1)
	assert.Equal(t, "position", errs[0].Field)
}

func TestBounds_Defaults(t *testing.T) {
	tests := []struct {
		name     string
		q        Question
		min, max float64
	}{
		{"nps", Question{Type: QuestionNPS}, 0, 10},
		{"csat", Question{Type: QuestionCSAT}, 1, 5},
		{"rating default", Question{Type: QuestionRating}, 1, 5},
		{"rating custom max", Question{Type: QuestionRating, Max: 10}, 1, 10},
		{"scale default", Question{Type: QuestionScale}, 1, 5},
		{"scale custom", Question{Type: QuestionScale, Min: 0, Max: 7}, 0, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max := tt.q.Bounds()
			assert.Equal(t, tt.min, min)
			assert.Equal(t, tt.max, max)
		})
	}
}

func TestAcceptsValue_Numeric(t *testing.T) {
	q := Question{ID: "score", Type: QuestionNPS}

	assert.NoError(t, q.AcceptsValue(Number(0)))
	assert.NoError(t, q.AcceptsValue(Number(10)))
	assert.Error(t, q.AcceptsValue(Number(11)))
	assert.Error(t, q.AcceptsValue(Number(-1)))
	assert.Error(t, q.AcceptsValue(String("10")))
}

func TestAcceptsValue_Thumbs(t *testing.T) {
	q := Question{ID: "helpful", Type: QuestionThumbs}

	assert.NoError(t, q.AcceptsValue(String("positive")))
	assert.NoError(t, q.AcceptsValue(String("negative")))
	assert.Error(t, q.AcceptsValue(String("up")))
	assert.Error(t, q.AcceptsValue(Number(1)))
}

func TestAcceptsValue_MultiChoice(t *testing.T) {
	q := Question{
		ID:   "pick",
		Type: QuestionMultiChoice,
		Options: []Option{
			{ID: "a", Label: "A", Value: "alpha"},
			{ID: "b", Label: "B", Value: "beta"},
		},
	}

	assert.NoError(t, q.AcceptsValue(List("alpha", "beta")))
	assert.NoError(t, q.AcceptsValue(String("alpha")), "single string counts as one-element selection")
	assert.Error(t, q.AcceptsValue(List("gamma")))
	assert.Error(t, q.AcceptsValue(Number(1)))
}

func TestAcceptsValue_EmptyAlwaysRepresentable(t *testing.T) {
	// Required-ness gating happens at navigation, not at answer time.
	for _, qt := range []QuestionType{QuestionNPS, QuestionThumbs, QuestionText, QuestionMultiChoice} {
		q := Question{ID: "q", Type: qt}
		assert.NoError(t, q.AcceptsValue(Value{}), "type %s", qt)
	}
}

func TestQuestionByID(t *testing.T) {
	sv := validSurvey()

	q := sv.QuestionByID("q2")
	require.NotNil(t, q)
	assert.Equal(t, QuestionText, q.Type)

	assert.Nil(t, sv.QuestionByID("missing"))
}

func TestNew_Defaults(t *testing.T) {
	sv := New("id", "Name")
	assert.Equal(t, TriggerManual, sv.Trigger.Type)
	assert.True(t, sv.FollowUpEnabled())
}

func TestCooldown(t *testing.T) {
	c := TriggerConfig{CooldownDays: 7}
	assert.Equal(t, 7*24*time.Hour, c.Cooldown())
	assert.Equal(t, time.Duration(0), TriggerConfig{}.Cooldown())
}
