// Package harness runs end-to-end conformance scenarios against the
// feedback engine: surveys are registered, host signals are replayed from a
// script, and the resulting state transitions and deliveries are captured
// as a deterministic transcript for golden-file comparison.
package harness

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fountainhq/fountain/internal/survey"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Surveys are the inline survey definitions to register.
	Surveys []SurveyDef `yaml:"surveys"`

	// Page describes the page context the engine is configured with.
	Page PageDef `yaml:"page,omitempty"`

	// Endpoint, when present, configures a remote delivery endpoint
	// answering the scripted status sequence.
	Endpoint *EndpointDef `yaml:"endpoint,omitempty"`

	// Steps is the scripted action sequence.
	Steps []Step `yaml:"steps"`
}

// SurveyDef is the authoring shape of one survey in a scenario file. It
// mirrors the CUE authoring schema: trigger delay is in milliseconds.
type SurveyDef struct {
	ID        string                 `yaml:"id"`
	Name      string                 `yaml:"name"`
	Questions []QuestionDef          `yaml:"questions"`
	Trigger   TriggerDef             `yaml:"trigger"`
	FollowUp  *survey.FollowUpConfig `yaml:"followUp,omitempty"`
}

// QuestionDef is the authoring shape of one question.
type QuestionDef struct {
	ID       string          `yaml:"id"`
	Type     string          `yaml:"type"`
	Question string          `yaml:"question"`
	Required bool            `yaml:"required,omitempty"`
	Options  []survey.Option `yaml:"options,omitempty"`
	Min      float64         `yaml:"min,omitempty"`
	Max      float64         `yaml:"max,omitempty"`
}

// TriggerDef is the authoring shape of a trigger.
type TriggerDef struct {
	Type         string  `yaml:"type"`
	DelayMS      int     `yaml:"delay,omitempty"`
	ScrollDepth  float64 `yaml:"scrollDepth,omitempty"`
	Selector     string  `yaml:"selector,omitempty"`
	ShowOnce     bool    `yaml:"showOnce,omitempty"`
	CooldownDays int     `yaml:"cooldownDays,omitempty"`
}

// PageDef configures the page context.
type PageDef struct {
	URL       string   `yaml:"url,omitempty"`
	UserAgent string   `yaml:"userAgent,omitempty"`
	Device    string   `yaml:"device,omitempty"`
	Segments  []string `yaml:"segments,omitempty"`
}

// EndpointDef scripts the remote endpoint's responses.
type EndpointDef struct {
	// Statuses are answered in order; the last repeats. Empty means 200.
	Statuses []int `yaml:"statuses,omitempty"`
	// APIKey is sent as a bearer credential when non-empty.
	APIKey string `yaml:"apiKey,omitempty"`
}

// Step is one scripted action. Exactly one action field is set per step.
type Step struct {
	// Fire fires the named survey's detector explicitly.
	Fire string `yaml:"fire,omitempty"`

	// Advance moves the clock forward, e.g. "5s" or "168h".
	Advance string `yaml:"advance,omitempty"`

	// Scroll emits a scroll event: offset, content height, viewport height.
	Scroll *ScrollDef `yaml:"scroll,omitempty"`

	// PointerLeave emits an exit-intent event.
	PointerLeave bool `yaml:"pointerLeave,omitempty"`

	// ElementVisible emits an intersection ratio for a selector.
	ElementVisible *ElementVisibleDef `yaml:"elementVisible,omitempty"`

	// Click emits a delegated click for a selector.
	Click string `yaml:"click,omitempty"`

	// Answer records a response on the active survey.
	Answer *AnswerDef `yaml:"answer,omitempty"`

	// Navigation and lifecycle actions.
	Next     bool `yaml:"next,omitempty"`
	Previous bool `yaml:"previous,omitempty"`
	Hide     bool `yaml:"hide,omitempty"`
	Reset    bool `yaml:"reset,omitempty"`
	Complete bool `yaml:"complete,omitempty"`

	// Expect optionally asserts on the state after the action.
	Expect *ExpectDef `yaml:"expect,omitempty"`
}

// ScrollDef is a scroll event payload.
type ScrollDef struct {
	Offset   float64 `yaml:"offset"`
	Content  float64 `yaml:"content"`
	Viewport float64 `yaml:"viewport"`
}

// ElementVisibleDef is an intersection event payload.
type ElementVisibleDef struct {
	Selector string  `yaml:"selector"`
	Ratio    float64 `yaml:"ratio"`
}

// AnswerDef is an answer payload. Value may be a string, number, or list of
// strings.
type AnswerDef struct {
	Question string `yaml:"question"`
	Value    any    `yaml:"value"`
}

// ExpectDef asserts on observable state after a step.
type ExpectDef struct {
	State      string `yaml:"state,omitempty"`
	Step       *int   `yaml:"step,omitempty"`
	Visible    *bool  `yaml:"visible,omitempty"`
	CanProceed *bool  `yaml:"canProceed,omitempty"`
	Error      string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var scn Scenario
	if err := yaml.Unmarshal(data, &scn); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if scn.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	if len(scn.Surveys) == 0 {
		return nil, fmt.Errorf("scenario %q: at least one survey is required", scn.Name)
	}
	return &scn, nil
}

// toModel converts an authored survey definition into the runtime model.
func (d SurveyDef) toModel() survey.Survey {
	sv := survey.Survey{
		ID:       d.ID,
		Name:     d.Name,
		FollowUp: d.FollowUp,
		Trigger: survey.TriggerConfig{
			Type:         survey.TriggerType(d.Trigger.Type),
			Delay:        time.Duration(d.Trigger.DelayMS) * time.Millisecond,
			ScrollDepth:  d.Trigger.ScrollDepth,
			Selector:     d.Trigger.Selector,
			ShowOnce:     d.Trigger.ShowOnce,
			CooldownDays: d.Trigger.CooldownDays,
		},
	}
	for _, q := range d.Questions {
		sv.Questions = append(sv.Questions, survey.Question{
			ID:       q.ID,
			Type:     survey.QuestionType(q.Type),
			Prompt:   q.Question,
			Required: q.Required,
			Options:  q.Options,
			Min:      q.Min,
			Max:      q.Max,
		})
	}
	return sv
}
