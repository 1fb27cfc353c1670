package survey

import "time"

// Templates returns the built-in survey templates, keyed by template name.
// Each call returns a fresh copy; callers may adjust triggers or questions
// before registering.
func Templates() map[string]Survey {
	return map[string]Survey{
		"nps": {
			ID:   "nps-standard",
			Name: "Net Promoter Score",
			Questions: []Question{
				{ID: "nps-score", Type: QuestionNPS, Prompt: "How likely are you to recommend us to a friend or colleague?", Required: true, MinLabel: "Not at all likely", MaxLabel: "Extremely likely"},
				{ID: "nps-reason", Type: QuestionText, Prompt: "What's the primary reason for your score?", Subtext: "Your feedback helps us improve."},
			},
			Trigger:  TriggerConfig{Type: TriggerTimeDelay, Delay: 30 * time.Second, ShowOnce: true, CooldownDays: 90},
			FollowUp: &FollowUpConfig{Enabled: true, Message: "Thank you for your feedback! We truly appreciate it."},
		},
		"csat": {
			ID:   "csat-quick",
			Name: "Customer Satisfaction",
			Questions: []Question{
				{ID: "csat-score", Type: QuestionCSAT, Prompt: "How satisfied are you with your experience today?", Required: true},
			},
			Trigger:  TriggerConfig{Type: TriggerManual, ShowOnce: true, CooldownDays: 7},
			FollowUp: &FollowUpConfig{Enabled: true, Message: "Thanks for letting us know!"},
		},
		"feature-feedback": {
			ID:   "feature-feedback",
			Name: "Feature Feedback",
			Questions: []Question{
				{ID: "helpful", Type: QuestionThumbs, Prompt: "Was this feature helpful?", Required: true},
				{ID: "improvement", Type: QuestionText, Prompt: "How can we improve this feature?", Subtext: "Optional but much appreciated!"},
			},
			Trigger:  TriggerConfig{Type: TriggerManual, CooldownDays: 1},
			FollowUp: &FollowUpConfig{Enabled: true, Message: "Your feedback shapes our product!"},
		},
		"quick-mood": {
			ID:   "quick-mood",
			Name: "Quick Mood Check",
			Questions: []Question{
				{ID: "mood", Type: QuestionEmoji, Prompt: "How are you feeling about your experience?", Required: true},
			},
			Trigger:  TriggerConfig{Type: TriggerScrollDepth, ScrollDepth: 75, ShowOnce: true, CooldownDays: 3},
			FollowUp: &FollowUpConfig{Enabled: true, Message: "Thanks for sharing!"},
		},
		"exit-intent": {
			ID:   "exit-intent",
			Name: "Exit Intent Survey",
			Questions: []Question{
				{ID: "leaving-reason", Type: QuestionMultiChoice, Prompt: "Before you go, what brought you here today?", Required: true, Options: []Option{
					{ID: "research", Label: "Researching options", Value: "research"},
					{ID: "compare", Label: "Comparing rates", Value: "compare"},
					{ID: "apply", Label: "Ready to apply", Value: "apply"},
					{ID: "learn", Label: "Just learning", Value: "learn"},
					{ID: "other", Label: "Something else", Value: "other"},
				}},
				{ID: "found-what-needed", Type: QuestionThumbs, Prompt: "Did you find what you were looking for?", Required: true},
			},
			Trigger:  TriggerConfig{Type: TriggerExitIntent, ShowOnce: true, CooldownDays: 7},
			FollowUp: &FollowUpConfig{Enabled: true, Message: "Thank you! We hope to see you again soon."},
		},
		"product-rating": {
			ID:   "product-rating",
			Name: "Product Rating",
			Questions: []Question{
				{ID: "overall-rating", Type: QuestionRating, Prompt: "How would you rate your overall experience?", Required: true, Max: 5},
				{ID: "specific-feedback", Type: QuestionMultiChoice, Prompt: "What did you like most?", Subtext: "Select all that apply", Options: []Option{
					{ID: "ease", Label: "Easy to use", Value: "ease"},
					{ID: "speed", Label: "Fast and responsive", Value: "speed"},
					{ID: "design", Label: "Beautiful design", Value: "design"},
					{ID: "info", Label: "Helpful information", Value: "info"},
					{ID: "rates", Label: "Great rates", Value: "rates"},
				}},
			},
			Trigger:  TriggerConfig{Type: TriggerTimeDelay, Delay: time.Minute, ShowOnce: true, CooldownDays: 30},
			FollowUp: &FollowUpConfig{Enabled: true, Message: "Your feedback helps us serve you better!"},
		},
		"effort-score": {
			ID:   "effort-score",
			Name: "Customer Effort Score",
			Questions: []Question{
				{ID: "effort", Type: QuestionScale, Prompt: "How easy was it to complete your task today?", Required: true, Min: 1, Max: 7, MinLabel: "Very difficult", MaxLabel: "Very easy"},
			},
			Trigger:  TriggerConfig{Type: TriggerManual, ShowOnce: true, CooldownDays: 14},
			FollowUp: &FollowUpConfig{Enabled: true, Message: "Thanks for your feedback!"},
		},
		"mortgage-experience": {
			ID:   "mortgage-experience",
			Name: "Mortgage Experience Survey",
			Questions: []Question{
				{ID: "info-quality", Type: QuestionScale, Prompt: "How helpful was the mortgage information provided?", Required: true, Min: 1, Max: 5, MinLabel: "Not helpful", MaxLabel: "Very helpful"},
				{ID: "next-steps", Type: QuestionMultiChoice, Prompt: "What are your next steps?", Required: true, Options: []Option{
					{ID: "apply", Label: "Apply for a mortgage", Value: "apply"},
					{ID: "compare", Label: "Compare more lenders", Value: "compare"},
					{ID: "calculate", Label: "Use calculators", Value: "calculate"},
					{ID: "read", Label: "Read more articles", Value: "read"},
					{ID: "undecided", Label: "Still deciding", Value: "undecided"},
				}},
				{ID: "missing-info", Type: QuestionText, Prompt: "Is there anything we could add to help you better?"},
			},
			Trigger:  TriggerConfig{Type: TriggerScrollDepth, ScrollDepth: 20, ShowOnce: true, CooldownDays: 14},
			Position: PositionBottomRight,
			FollowUp: &FollowUpConfig{Enabled: true, Message: "Thank you! Your feedback helps us improve our mortgage resources.", CTAText: "View Rates", CTAURL: "/rates"},
		},
	}
}

// Template returns one built-in template by name.
func Template(name string) (Survey, bool) {
	s, ok := Templates()[name]
	return s, ok
}
