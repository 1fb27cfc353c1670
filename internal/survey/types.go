package survey

import "time"

// QuestionType identifies how a question is asked and what value shape its
// answers take. The string forms are the wire/authoring names.
type QuestionType string

const (
	// QuestionNPS is a 0-10 net promoter score. Answers are numbers.
	QuestionNPS QuestionType = "nps"
	// QuestionCSAT is a 1-5 customer satisfaction score. Answers are numbers.
	QuestionCSAT QuestionType = "csat"
	// QuestionRating is a star rating from 1 to Max (default 5). Answers are numbers.
	QuestionRating QuestionType = "rating"
	// QuestionThumbs is a positive/negative choice. Answers are the strings
	// "positive" or "negative".
	QuestionThumbs QuestionType = "thumbs"
	// QuestionEmoji is a mood pick. Answers are strings.
	QuestionEmoji QuestionType = "emoji"
	// QuestionText is free text. Answers are strings.
	QuestionText QuestionType = "text"
	// QuestionMultiChoice selects one or more options. Answers are string lists
	// (or a single string, treated as a one-element list).
	QuestionMultiChoice QuestionType = "multi-choice"
	// QuestionScale is a numeric scale from Min to Max (default 1-5).
	// Answers are numbers.
	QuestionScale QuestionType = "scale"
)

// ValidQuestionTypes defines the allowed question types.
var ValidQuestionTypes = map[QuestionType]bool{
	QuestionNPS:         true,
	QuestionCSAT:        true,
	QuestionRating:      true,
	QuestionThumbs:      true,
	QuestionEmoji:       true,
	QuestionText:        true,
	QuestionMultiChoice: true,
	QuestionScale:       true,
}

// TriggerType identifies the behavioral condition that offers a survey.
type TriggerType string

const (
	TriggerManual         TriggerType = "manual"
	TriggerTimeDelay      TriggerType = "time-delay"
	TriggerScrollDepth    TriggerType = "scroll-depth"
	TriggerExitIntent     TriggerType = "exit-intent"
	TriggerPageView       TriggerType = "page-view"
	TriggerElementVisible TriggerType = "element-visible"
	TriggerClick          TriggerType = "click"
)

// ValidTriggerTypes defines the allowed trigger types.
var ValidTriggerTypes = map[TriggerType]bool{
	TriggerManual:         true,
	TriggerTimeDelay:      true,
	TriggerScrollDepth:    true,
	TriggerExitIntent:     true,
	TriggerPageView:       true,
	TriggerElementVisible: true,
	TriggerClick:          true,
}

// Position is a display-position hint for the host renderer. The engine only
// carries it; rendering is out of scope.
type Position string

const (
	PositionBottomRight  Position = "bottom-right"
	PositionBottomLeft   Position = "bottom-left"
	PositionBottomCenter Position = "bottom-center"
	PositionTopRight     Position = "top-right"
	PositionTopLeft      Position = "top-left"
	PositionCenter       Position = "center"
)

// ValidPositions defines the allowed display positions.
var ValidPositions = map[Position]bool{
	PositionBottomRight:  true,
	PositionBottomLeft:   true,
	PositionBottomCenter: true,
	PositionTopRight:     true,
	PositionTopLeft:      true,
	PositionCenter:       true,
}

// Default trigger parameters.
const (
	DefaultTimeDelay   = 5 * time.Second
	DefaultScrollDepth = 50.0
)

// TriggerConfig holds a trigger type plus its type-specific parameters.
type TriggerConfig struct {
	Type TriggerType `json:"type"`

	// Delay applies to time-delay triggers. Zero means DefaultTimeDelay.
	Delay time.Duration `json:"delay,omitempty"`

	// ScrollDepth is the target scroll percentage for scroll-depth triggers.
	// Zero means DefaultScrollDepth.
	ScrollDepth float64 `json:"scrollDepth,omitempty"`

	// Selector targets element-visible and click triggers.
	Selector string `json:"selector,omitempty"`

	// ShowOnce suppresses re-arming once the survey was viewed this session.
	ShowOnce bool `json:"showOnce,omitempty"`

	// CooldownDays suppresses re-arming for this many days after a successful
	// delivery. Zero disables the cooldown.
	CooldownDays int `json:"cooldownDays,omitempty"`
}

// Cooldown returns the cooldown window as a duration. Zero when disabled.
func (c TriggerConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownDays) * 24 * time.Hour
}

// Option is one selectable choice of a multi-choice question.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Question is one step of a survey.
type Question struct {
	ID       string       `json:"id"`
	Type     QuestionType `json:"type"`
	Prompt   string       `json:"question"`
	Subtext  string       `json:"subtext,omitempty"`
	Required bool         `json:"required,omitempty"`
	Options  []Option     `json:"options,omitempty"`
	MinLabel string       `json:"minLabel,omitempty"`
	MaxLabel string       `json:"maxLabel,omitempty"`
	Min      float64      `json:"min,omitempty"`
	Max      float64      `json:"max,omitempty"`
}

// BrandingConfig customizes the host renderer. Carried opaquely.
type BrandingConfig struct {
	PrimaryColor    string `json:"primaryColor,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	TextColor       string `json:"textColor,omitempty"`
	BorderRadius    string `json:"borderRadius,omitempty"`
	ShowLogo        bool   `json:"showLogo,omitempty"`
	LogoURL         string `json:"logoUrl,omitempty"`
}

// FollowUpConfig describes the post-submission thank-you pseudo-step.
type FollowUpConfig struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message,omitempty"`
	CTAText string `json:"ctaText,omitempty"`
	CTAURL  string `json:"ctaUrl,omitempty"`
}

// Survey is a named ordered set of questions plus one trigger and optional
// branding, follow-up, and targeting.
type Survey struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Questions []Question       `json:"questions"`
	Trigger   TriggerConfig    `json:"trigger"`
	Position  Position         `json:"position,omitempty"`
	Branding  *BrandingConfig  `json:"branding,omitempty"`
	FollowUp  *FollowUpConfig  `json:"followUp,omitempty"`
	Targeting *TargetingConfig `json:"targeting,omitempty"`
}

// FollowUpEnabled reports whether the survey shows the follow-up pseudo-step
// after a successful delivery.
func (s *Survey) FollowUpEnabled() bool {
	return s.FollowUp != nil && s.FollowUp.Enabled
}

// QuestionByID returns the question with the given id, or nil.
func (s *Survey) QuestionByID(id string) *Question {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i]
		}
	}
	return nil
}

// Response is one answered question. Within a session, responses are keyed by
// (SurveyID, QuestionID): re-answering overwrites Value and Timestamp but not
// the response's position in the accumulated sequence.
type Response struct {
	SurveyID   string    `json:"surveyId"`
	QuestionID string    `json:"questionId"`
	Value      Value     `json:"value"`
	Timestamp  time.Time `json:"timestamp"`
}

// Metadata is the enrichment attached to a submission at delivery time.
type Metadata struct {
	URL        string         `json:"url,omitempty"`
	UserAgent  string         `json:"userAgent,omitempty"`
	SessionID  string         `json:"sessionId,omitempty"`
	UserID     string         `json:"userId,omitempty"`
	CustomData map[string]any `json:"customData,omitempty"`
}

// Submission is the frozen outcome of one survey presentation.
type Submission struct {
	SurveyID    string     `json:"surveyId"`
	Responses   []Response `json:"responses"`
	Completed   bool       `json:"completed"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt time.Time  `json:"completedAt,omitempty"`
	Metadata    Metadata   `json:"metadata"`
}

// New returns a survey with the given id and name and the authoring defaults
// applied: a manual trigger and follow-up enabled.
func New(id, name string) Survey {
	return Survey{
		ID:       id,
		Name:     name,
		Trigger:  TriggerConfig{Type: TriggerManual},
		FollowUp: &FollowUpConfig{Enabled: true},
	}
}
