package harness

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fountainhq/fountain/internal/feedback"
	"github.com/fountainhq/fountain/internal/session"
	"github.com/fountainhq/fountain/internal/survey"
	"github.com/fountainhq/fountain/internal/testutil"
)

// Epoch is the fixed scenario start time, so cooldown arithmetic and
// timestamps are identical across runs.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Transcript captures a scenario execution for golden comparison. All
// fields are deterministic: the clock is manual and session ids are
// sequenced.
type Transcript struct {
	Scenario  string   `json:"scenario"`
	Entries   []Entry  `json:"entries"`
	Submitted []string `json:"submitted"`
	Failures  []string `json:"failures,omitempty"`
}

// Entry records the observable state after one step.
type Entry struct {
	Action    string `json:"action"`
	Error     string `json:"error,omitempty"`
	State     string `json:"state"`
	Step      int    `json:"step"`
	Visible   bool   `json:"visible"`
	Responses int    `json:"responses"`
}

// Failed reports whether any step expectation was violated.
func (t *Transcript) Failed() bool { return len(t.Failures) > 0 }

// seqIDs generates session-1, session-2, ... deterministically.
type seqIDs struct{ n int }

func (g *seqIDs) Generate() string {
	g.n++
	return fmt.Sprintf("session-%d", g.n)
}

// Run executes a scenario against a fresh engine and returns the
// transcript. Infrastructure problems (unknown survey ids, malformed steps)
// return an error; expectation mismatches go into Transcript.Failures.
func Run(scn *Scenario) (*Transcript, error) {
	clock := testutil.NewClock(Epoch)
	signals := testutil.NewManualSignals()

	cfg := feedback.Config{
		Signals: signals,
		Page: survey.PageContext{
			URL:       scn.Page.URL,
			UserAgent: scn.Page.UserAgent,
			Device:    survey.DeviceClass(scn.Page.Device),
			Segments:  scn.Page.Segments,
		},
	}

	var client *http.Client
	if scn.Endpoint != nil {
		endpoint := testutil.NewEndpoint(scn.Endpoint.Statuses...)
		client = endpoint.Client()
		cfg.Endpoint = "https://feedback.invalid/submissions"
		cfg.APIKey = scn.Endpoint.APIKey
	}

	opts := []feedback.Option{
		feedback.WithClock(clock),
		feedback.WithIDGenerator(&seqIDs{}),
	}
	if client != nil {
		opts = append(opts, feedback.WithHTTPClient(client))
	}

	svc := feedback.New(cfg, opts...)
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	for _, def := range scn.Surveys {
		if err := svc.Register(def.toModel()); err != nil {
			return nil, fmt.Errorf("register survey %q: %w", def.ID, err)
		}
	}

	transcript := &Transcript{Scenario: scn.Name}

	for i, step := range scn.Steps {
		action, err := applyStep(svc, signals, clock, step)
		if action == "" {
			return nil, fmt.Errorf("step %d: no action set", i)
		}

		snap := svc.Snapshot()
		entry := Entry{
			Action:    action,
			State:     snap.State.String(),
			Step:      snap.Step,
			Visible:   snap.Visible,
			Responses: snap.Responses,
		}
		if err != nil {
			entry.Error = err.Error()
		}
		transcript.Entries = append(transcript.Entries, entry)

		if step.Expect != nil {
			checkExpect(transcript, i, step.Expect, snap, svc.CanProceed(), err)
		}
	}

	for _, def := range scn.Surveys {
		if svc.Gate().Submitted(def.ID) {
			transcript.Submitted = append(transcript.Submitted, def.ID)
		}
	}
	if transcript.Submitted == nil {
		transcript.Submitted = []string{}
	}

	return transcript, nil
}

func applyStep(svc *feedback.Service, signals *testutil.ManualSignals, clock *testutil.Clock, step Step) (string, error) {
	switch {
	case step.Fire != "":
		return "fire " + step.Fire, svc.ShowNow(step.Fire)

	case step.Advance != "":
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return "advance", fmt.Errorf("bad duration %q: %w", step.Advance, err)
		}
		clock.Advance(d)
		return "advance " + step.Advance, nil

	case step.Scroll != nil:
		signals.EmitScroll(step.Scroll.Offset, step.Scroll.Content, step.Scroll.Viewport)
		return fmt.Sprintf("scroll %g/%g/%g", step.Scroll.Offset, step.Scroll.Content, step.Scroll.Viewport), nil

	case step.PointerLeave:
		signals.EmitPointerLeave()
		return "pointer-leave", nil

	case step.ElementVisible != nil:
		signals.EmitElementVisible(step.ElementVisible.Selector, step.ElementVisible.Ratio)
		return fmt.Sprintf("element-visible %s %g", step.ElementVisible.Selector, step.ElementVisible.Ratio), nil

	case step.Click != "":
		signals.EmitClick(step.Click)
		return "click " + step.Click, nil

	case step.Answer != nil:
		value, err := survey.FromAny(step.Answer.Value)
		if err != nil {
			return "answer " + step.Answer.Question, err
		}
		return "answer " + step.Answer.Question, svc.Answer(step.Answer.Question, value)

	case step.Next:
		return "next", svc.Next()

	case step.Previous:
		return "previous", svc.Previous()

	case step.Hide:
		return "hide", svc.Hide()

	case step.Reset:
		return "reset", svc.Reset()

	case step.Complete:
		return "complete", svc.Complete(context.Background())

	default:
		return "", nil
	}
}

func checkExpect(t *Transcript, i int, expect *ExpectDef, snap session.Snapshot, canProceed bool, stepErr error) {
	mismatch := func(format string, args ...any) {
		t.Failures = append(t.Failures, fmt.Sprintf("step %d: ", i)+fmt.Sprintf(format, args...))
	}

	if expect.State != "" && snap.State.String() != expect.State {
		mismatch("state %q, want %q", snap.State.String(), expect.State)
	}
	if expect.Step != nil && snap.Step != *expect.Step {
		mismatch("step index %d, want %d", snap.Step, *expect.Step)
	}
	if expect.Visible != nil && snap.Visible != *expect.Visible {
		mismatch("visible %v, want %v", snap.Visible, *expect.Visible)
	}
	if expect.CanProceed != nil && canProceed != *expect.CanProceed {
		mismatch("canProceed %v, want %v", canProceed, *expect.CanProceed)
	}
	if expect.Error != "" {
		if stepErr == nil {
			mismatch("no error, want %q", expect.Error)
		} else if stepErr.Error() != expect.Error {
			mismatch("error %q, want %q", stepErr.Error(), expect.Error)
		}
	} else if stepErr != nil {
		mismatch("unexpected error: %v", stepErr)
	}
}
