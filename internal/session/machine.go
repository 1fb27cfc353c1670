// Package session owns the survey presentation state machine: the currently
// active survey, the current step, the accumulated answers, and visibility.
// It advances on user action and terminates into the delivery pipeline.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/fountainhq/fountain/internal/engine"
	"github.com/fountainhq/fountain/internal/gate"
	"github.com/fountainhq/fountain/internal/survey"
)

// State is the machine's lifecycle position.
type State int

const (
	// Idle means no survey holds the presentation slot.
	Idle State = iota
	// Active means a survey is visible on a question step.
	Active
	// Submitting means a delivery is in flight; edits and navigation are
	// disabled until it settles.
	Submitting
	// FollowUp is the post-submission thank-you pseudo-step.
	FollowUp
	// Hidden means the survey was dismissed mid-flow; state is retained but
	// not displayed, and only an explicit Reset re-arms the slot.
	Hidden
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Submitting:
		return "submitting"
	case FollowUp:
		return "follow-up"
	case Hidden:
		return "hidden"
	default:
		return "unknown"
	}
}

// After a successful delivery with no follow-up configured, the machine
// lingers briefly so the host can show a confirmation before it resets.
const settleDelay = 2 * time.Second

// DeliverFunc hands a frozen submission to the delivery pipeline. It is the
// machine's single suspension point and may block on the network.
type DeliverFunc func(ctx context.Context, sub survey.Submission) error

// Snapshot is the observable state handed to subscribers on every
// transition.
type Snapshot struct {
	State     State
	Survey    *survey.Survey
	Step      int
	Visible   bool
	Responses int
}

// Machine is the survey session state machine.
//
// Every method must run on the dispatcher loop; the feedback service wraps
// them for external callers. The machine itself holds no locks.
type Machine struct {
	gate       *gate.Gate
	clock      engine.Clock
	dispatcher *engine.Dispatcher
	deliver    DeliverFunc
	logger     *slog.Logger

	state     State
	active    *survey.Survey
	step      int
	visible   bool
	responses []survey.Response
	startedAt time.Time

	// generation counts resets; a delivery that settles after a reset
	// belongs to an earlier generation and must not touch the new state.
	generation uint64

	cancelSettle func()

	subscribers map[int]func(Snapshot)
	nextSubID   int
}

// NewMachine creates an idle machine.
func NewMachine(g *gate.Gate, clock engine.Clock, d *engine.Dispatcher, deliver DeliverFunc, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		gate:        g,
		clock:       clock,
		dispatcher:  d,
		deliver:     deliver,
		logger:      logger,
		subscribers: make(map[int]func(Snapshot)),
	}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// ActiveSurvey returns the survey holding the presentation slot, or nil.
func (m *Machine) ActiveSurvey() *survey.Survey { return m.active }

// Step returns the current step index. Equal to the question count while on
// the follow-up pseudo-step.
func (m *Machine) Step() int { return m.step }

// Visible reports whether the survey should currently be displayed.
func (m *Machine) Visible() bool { return m.visible }

// StartedAt returns when the active presentation began.
func (m *Machine) StartedAt() time.Time { return m.startedAt }

// Responses returns a copy of the accumulated answers in first-answered
// order.
func (m *Machine) Responses() []survey.Response {
	out := make([]survey.Response, len(m.responses))
	copy(out, m.responses)
	return out
}

// Subscribe registers fn to be called synchronously on every transition.
// The returned cancel removes the subscription.
func (m *Machine) Subscribe(fn func(Snapshot)) (cancel func()) {
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	return func() { delete(m.subscribers, id) }
}

// Show activates a survey on step 0: records the start time, clears any
// prior answers, and marks the survey viewed. The eligibility gate is
// consulted here, and exactly here, so MarkViewed happens only at the moment
// of visibility. Fails with ErrSessionBusy unless the machine is Idle.
func (m *Machine) Show(s *survey.Survey) error {
	if m.state != Idle {
		return ErrSessionBusy
	}
	if !m.gate.ShouldShow(s, m.clock.Now()) {
		return ErrNotEligible
	}

	m.state = Active
	m.active = s
	m.step = 0
	m.visible = true
	m.responses = nil
	m.startedAt = m.clock.Now()
	m.gate.MarkViewed(s.ID)
	m.logger.Debug("session: survey shown", "survey", s.ID)
	m.notify()
	return nil
}

// Answer upserts the response for a question: a re-answer overwrites the
// value and timestamp but keeps the response's position in the accumulated
// sequence. The value is type-checked against the question.
func (m *Machine) Answer(questionID string, value survey.Value) error {
	switch m.state {
	case Active:
	case Submitting:
		return ErrSubmitting
	default:
		return ErrNotActive
	}

	q := m.active.QuestionByID(questionID)
	if q == nil {
		return ErrUnknownQuestion
	}
	if err := q.AcceptsValue(value); err != nil {
		return err
	}

	r := survey.Response{
		SurveyID:   m.active.ID,
		QuestionID: questionID,
		Value:      value,
		Timestamp:  m.clock.Now(),
	}
	replaced := false
	for i := range m.responses {
		if m.responses[i].QuestionID == questionID {
			m.responses[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		m.responses = append(m.responses, r)
	}
	m.notify()
	return nil
}

// CanProceed reports whether the proceed action is allowed: false exactly
// when the current question is required and has no response or an empty one.
// Back navigation is never gated.
func (m *Machine) CanProceed() bool {
	if m.state != Active || m.step >= len(m.active.Questions) {
		return false
	}
	q := &m.active.Questions[m.step]
	if !q.Required {
		return true
	}
	for _, r := range m.responses {
		if r.QuestionID == q.ID {
			return !r.Value.IsEmpty()
		}
	}
	return false
}

// Next advances to the following question, or starts completion from the
// last one. Refused while the current required question is unanswered.
func (m *Machine) Next() error {
	switch m.state {
	case Active:
	case Submitting:
		return ErrSubmitting
	default:
		return ErrNotActive
	}
	if !m.CanProceed() {
		return ErrAnswerRequired
	}
	if m.step < len(m.active.Questions)-1 {
		m.step++
		m.notify()
		return nil
	}
	return m.complete(context.Background())
}

// Previous steps back one question. A no-op on the first question; never
// blocked by required-ness.
func (m *Machine) Previous() error {
	switch m.state {
	case Active:
	case Submitting:
		return ErrSubmitting
	default:
		return ErrNotActive
	}
	if m.step > 0 {
		m.step--
		m.notify()
	}
	return nil
}

// Hide dismisses the visible survey without discarding its state. A hidden
// survey never automatically resurfaces; only Reset re-arms the slot.
func (m *Machine) Hide() {
	if m.state != Active && m.state != FollowUp {
		return
	}
	if m.state == Active {
		m.state = Hidden
	}
	m.visible = false
	m.notify()
}

// Reset returns the machine to Idle: active survey cleared, answers cleared,
// any pending settle timer cancelled. A delivery already in flight for the
// abandoned presentation may still complete and update durable state; its
// result is discarded here.
func (m *Machine) Reset() {
	m.generation++
	if m.cancelSettle != nil {
		m.cancelSettle()
		m.cancelSettle = nil
	}
	m.state = Idle
	m.active = nil
	m.step = 0
	m.visible = false
	m.responses = nil
	m.startedAt = time.Time{}
	m.notify()
}

// Complete freezes the accumulated answers into a submission and runs the
// delivery pipeline. Guard failures return synchronously; the delivery
// outcome arrives on the returned channel after the resulting state
// transition has been applied.
//
// On success the machine moves to FollowUp if the survey has one, otherwise
// lingers in Submitting for a short settle delay and then resets. On failure
// it returns to the last question with nothing discarded, so the caller may
// retry.
func (m *Machine) Complete(ctx context.Context) (<-chan error, error) {
	if m.state != Active {
		switch m.state {
		case Submitting:
			return nil, ErrSubmitting
		default:
			return nil, ErrNotActive
		}
	}

	sub := survey.Submission{
		SurveyID:    m.active.ID,
		Responses:   m.Responses(),
		Completed:   true,
		StartedAt:   m.startedAt,
		CompletedAt: m.clock.Now(),
	}

	m.state = Submitting
	m.notify()

	gen := m.generation
	result := make(chan error, 1)

	// The single suspension point: delivery runs off-loop, then reports
	// back through the dispatcher.
	go func() {
		err := m.deliver(ctx, sub)
		enqueueErr := m.dispatcher.Enqueue(func() {
			m.settleDelivery(gen, err)
			result <- err
		})
		if enqueueErr != nil {
			result <- err
		}
	}()

	return result, nil
}

// settleDelivery applies the delivery outcome on the loop. A result from a
// generation that was reset away is ignored.
func (m *Machine) settleDelivery(gen uint64, err error) {
	if gen != m.generation || m.state != Submitting {
		m.logger.Debug("session: discarding stale delivery result", "error", err)
		return
	}

	if err != nil {
		// Return to the last question with answers intact; the caller may
		// retry completion.
		m.logger.Warn("session: delivery failed", "survey", m.active.ID, "error", err)
		m.state = Active
		m.step = len(m.active.Questions) - 1
		m.notify()
		return
	}

	if m.active.FollowUpEnabled() {
		m.state = FollowUp
		m.step = len(m.active.Questions)
		m.notify()
		return
	}

	gen = m.generation
	m.cancelSettle = m.clock.After(settleDelay, func() {
		_ = m.dispatcher.Enqueue(func() {
			if gen == m.generation && m.state == Submitting {
				m.Reset()
			}
		})
	})
}

func (m *Machine) complete(ctx context.Context) error {
	_, err := m.Complete(ctx)
	return err
}

func (m *Machine) notify() {
	snap := Snapshot{
		State:     m.state,
		Survey:    m.active,
		Step:      m.step,
		Visible:   m.visible,
		Responses: len(m.responses),
	}
	for _, fn := range m.subscribers {
		fn(snap)
	}
}
