package cueload

import (
	"fmt"
	"time"

	"cuelang.org/go/cue"

	"github.com/fountainhq/fountain/internal/survey"
)

// surveyWire is the authoring shape of one survey. It differs from the
// runtime model only where the wire contract does: trigger delay is
// expressed in milliseconds.
type surveyWire struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	Questions []questionWire          `json:"questions"`
	Trigger   triggerWire             `json:"trigger"`
	Position  string                  `json:"position"`
	Branding  *survey.BrandingConfig  `json:"branding"`
	FollowUp  *survey.FollowUpConfig  `json:"followUp"`
	Targeting *targetingWire          `json:"targeting"`
}

type questionWire struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Question string          `json:"question"`
	Subtext  string          `json:"subtext"`
	Required bool            `json:"required"`
	Options  []survey.Option `json:"options"`
	MinLabel string          `json:"minLabel"`
	MaxLabel string          `json:"maxLabel"`
	Min      float64         `json:"min"`
	Max      float64         `json:"max"`
}

type triggerWire struct {
	Type         string  `json:"type"`
	DelayMS      int     `json:"delay"`
	ScrollDepth  float64 `json:"scrollDepth"`
	Selector     string  `json:"selector"`
	ShowOnce     bool    `json:"showOnce"`
	CooldownDays int     `json:"cooldownDays"`
}

type targetingWire struct {
	URLPatterns []string `json:"urlPatterns"`
	Segments    []string `json:"segments"`
	Devices     []string `json:"devices"`
	Conditions  string   `json:"conditions"`
}

// decodeSurvey decodes one list element into the runtime model and runs
// semantic validation on the result.
func decodeSurvey(v cue.Value) (*survey.Survey, []error) {
	var wire surveyWire
	if err := v.Decode(&wire); err != nil {
		return nil, []error{&LoadError{
			Code:    ErrCodeDecodeFailed,
			Message: fmt.Sprintf("decoding survey: %v", err),
			Pos:     v.Pos(),
		}}
	}

	sv := wire.toModel()
	if verrs := sv.Validate(); len(verrs) > 0 {
		errs := make([]error, 0, len(verrs))
		for _, verr := range verrs {
			errs = append(errs, &LoadError{
				Code:    ErrCodeInvalidSurvey,
				Message: verr.Error(),
				Pos:     v.Pos(),
			})
		}
		return nil, errs
	}

	return sv, nil
}

func (w surveyWire) toModel() *survey.Survey {
	sv := &survey.Survey{
		ID:       w.ID,
		Name:     w.Name,
		Position: survey.Position(w.Position),
		Branding: w.Branding,
		FollowUp: w.FollowUp,
		Trigger: survey.TriggerConfig{
			Type:         survey.TriggerType(w.Trigger.Type),
			Delay:        time.Duration(w.Trigger.DelayMS) * time.Millisecond,
			ScrollDepth:  w.Trigger.ScrollDepth,
			Selector:     w.Trigger.Selector,
			ShowOnce:     w.Trigger.ShowOnce,
			CooldownDays: w.Trigger.CooldownDays,
		},
	}
	for _, q := range w.Questions {
		sv.Questions = append(sv.Questions, survey.Question{
			ID:       q.ID,
			Type:     survey.QuestionType(q.Type),
			Prompt:   q.Question,
			Subtext:  q.Subtext,
			Required: q.Required,
			Options:  q.Options,
			MinLabel: q.MinLabel,
			MaxLabel: q.MaxLabel,
			Min:      q.Min,
			Max:      q.Max,
		})
	}
	if w.Targeting != nil {
		t := &survey.TargetingConfig{
			URLPatterns: w.Targeting.URLPatterns,
			Segments:    w.Targeting.Segments,
			Conditions:  w.Targeting.Conditions,
		}
		for _, d := range w.Targeting.Devices {
			t.Devices = append(t.Devices, survey.DeviceClass(d))
		}
		sv.Targeting = t
	}
	return sv
}
