package survey

import "fmt"

// ValidationError describes one semantic problem in an authored survey.
type ValidationError struct {
	SurveyID   string `json:"survey_id"`
	QuestionID string `json:"question_id,omitempty"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.QuestionID != "" {
		return fmt.Sprintf("survey %q question %q: %s: %s", e.SurveyID, e.QuestionID, e.Field, e.Message)
	}
	return fmt.Sprintf("survey %q: %s: %s", e.SurveyID, e.Field, e.Message)
}

// Validate checks the survey for semantic problems. All problems are
// collected and returned; an empty slice means the survey is well-formed.
func (s *Survey) Validate() []*ValidationError {
	var errs []*ValidationError

	fail := func(qid, field, message string) {
		errs = append(errs, &ValidationError{SurveyID: s.ID, QuestionID: qid, Field: field, Message: message})
	}

	if s.ID == "" {
		fail("", "id", "id is required")
	}
	if s.Name == "" {
		fail("", "name", "name is required")
	}

	if !ValidTriggerTypes[s.Trigger.Type] {
		fail("", "trigger.type", fmt.Sprintf("unknown trigger type %q", s.Trigger.Type))
	}
	switch s.Trigger.Type {
	case TriggerElementVisible, TriggerClick:
		if s.Trigger.Selector == "" {
			fail("", "trigger.selector", fmt.Sprintf("%s trigger requires a selector", s.Trigger.Type))
		}
	case TriggerScrollDepth:
		if s.Trigger.ScrollDepth < 0 || s.Trigger.ScrollDepth > 100 {
			fail("", "trigger.scrollDepth", "scroll depth must be within [0, 100]")
		}
	case TriggerTimeDelay:
		if s.Trigger.Delay < 0 {
			fail("", "trigger.delay", "delay must not be negative")
		}
	}
	if s.Trigger.CooldownDays < 0 {
		fail("", "trigger.cooldownDays", "cooldown must not be negative")
	}

	if s.Position != "" && !ValidPositions[s.Position] {
		fail("", "position", fmt.Sprintf("unknown position %q", s.Position))
	}

	if len(s.Questions) == 0 {
		fail("", "questions", "at least one question is required")
	}

	seen := make(map[string]bool, len(s.Questions))
	for i, q := range s.Questions {
		if q.ID == "" {
			fail("", "questions", fmt.Sprintf("question %d has no id", i))
			continue
		}
		if seen[q.ID] {
			fail(q.ID, "id", "duplicate question id")
		}
		seen[q.ID] = true

		if !ValidQuestionTypes[q.Type] {
			fail(q.ID, "type", fmt.Sprintf("unknown question type %q", q.Type))
			continue
		}
		if q.Prompt == "" {
			fail(q.ID, "question", "prompt is required")
		}

		switch q.Type {
		case QuestionMultiChoice:
			if len(q.Options) == 0 {
				fail(q.ID, "options", "multi-choice question requires options")
			}
			optSeen := make(map[string]bool, len(q.Options))
			for _, opt := range q.Options {
				if opt.Value == "" {
					fail(q.ID, "options", fmt.Sprintf("option %q has no value", opt.ID))
				}
				if optSeen[opt.Value] {
					fail(q.ID, "options", fmt.Sprintf("duplicate option value %q", opt.Value))
				}
				optSeen[opt.Value] = true
			}
		case QuestionScale, QuestionRating:
			min, max := q.Bounds()
			if min >= max {
				fail(q.ID, "min", fmt.Sprintf("bounds [%g, %g] are empty", min, max))
			}
		}
	}

	return errs
}

// Bounds returns the effective numeric bounds for a scoring question,
// applying the per-type defaults: 0-10 for NPS, 1-5 for CSAT and rating
// (rating Max is overridable), Min/Max for scale (default 1-5).
func (q *Question) Bounds() (min, max float64) {
	switch q.Type {
	case QuestionNPS:
		return 0, 10
	case QuestionCSAT:
		return 1, 5
	case QuestionRating:
		max = q.Max
		if max == 0 {
			max = 5
		}
		return 1, max
	case QuestionScale:
		min, max = q.Min, q.Max
		if min == 0 && max == 0 {
			min, max = 1, 5
		}
		return min, max
	default:
		return 0, 0
	}
}

// AcceptsValue checks an answer against the question's type and constraints.
func (q *Question) AcceptsValue(v Value) error {
	if v.IsEmpty() {
		// Empty answers are representable; required-ness is gated elsewhere.
		return nil
	}

	switch q.Type {
	case QuestionNPS, QuestionCSAT, QuestionRating, QuestionScale:
		if v.Kind() != KindNumber {
			return fmt.Errorf("question %q expects a number", q.ID)
		}
		min, max := q.Bounds()
		if v.Num() < min || v.Num() > max {
			return fmt.Errorf("question %q value %g outside [%g, %g]", q.ID, v.Num(), min, max)
		}
	case QuestionThumbs:
		if v.Kind() != KindString {
			return fmt.Errorf("question %q expects a string", q.ID)
		}
		if s := v.Text(); s != "positive" && s != "negative" {
			return fmt.Errorf("question %q expects \"positive\" or \"negative\", got %q", q.ID, s)
		}
	case QuestionEmoji, QuestionText:
		if v.Kind() != KindString {
			return fmt.Errorf("question %q expects a string", q.ID)
		}
	case QuestionMultiChoice:
		var items []string
		switch v.Kind() {
		case KindString:
			items = []string{v.Text()}
		case KindList:
			items = v.Items()
		default:
			return fmt.Errorf("question %q expects a string or list of strings", q.ID)
		}
		for _, item := range items {
			if !q.hasOptionValue(item) {
				return fmt.Errorf("question %q has no option %q", q.ID, item)
			}
		}
	}
	return nil
}

func (q *Question) hasOptionValue(value string) bool {
	for _, opt := range q.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}
