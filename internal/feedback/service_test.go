package feedback

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fountainhq/fountain/internal/delivery"
	"github.com/fountainhq/fountain/internal/session"
	"github.com/fountainhq/fountain/internal/store"
	"github.com/fountainhq/fountain/internal/survey"
	"github.com/fountainhq/fountain/internal/testutil"
)

var epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

type rig struct {
	svc      *Service
	clock    *testutil.Clock
	signals  *testutil.ManualSignals
	endpoint *testutil.Endpoint
	store    *store.Memory
}

func newRig(t *testing.T, cfg Config, opts ...Option) *rig {
	t.Helper()

	r := &rig{
		clock:    testutil.NewClock(epoch),
		signals:  testutil.NewManualSignals(),
		endpoint: testutil.NewEndpoint(),
		store:    store.NewMemory(),
	}
	if cfg.Signals == nil {
		cfg.Signals = r.signals
	}

	all := append([]Option{
		WithStore(r.store),
		WithClock(r.clock),
		WithHTTPClient(r.endpoint.Client()),
		WithIDGenerator(delivery.NewFixedGenerator("session-1", "session-2", "session-3")),
	}, opts...)

	r.svc = New(cfg, all...)

	ctx, cancel := context.WithCancel(context.Background())
	r.svc.Start(ctx)
	t.Cleanup(func() {
		require.NoError(t, r.svc.Close())
		cancel()
	})
	return r
}

func npsSurvey() survey.Survey {
	return survey.Survey{
		ID:   "nps",
		Name: "NPS",
		Questions: []survey.Question{
			{ID: "score", Type: survey.QuestionNPS, Prompt: "How likely?", Required: true},
			{ID: "reason", Type: survey.QuestionText, Prompt: "Why?"},
		},
		Trigger:  survey.TriggerConfig{Type: survey.TriggerTimeDelay, Delay: 5 * time.Second, ShowOnce: true, CooldownDays: 30},
		FollowUp: &survey.FollowUpConfig{Enabled: true, Message: "Thanks!"},
	}
}

func TestService_TimeDelayEndToEnd(t *testing.T) {
	r := newRig(t, Config{Endpoint: "https://feedback.invalid/submissions", APIKey: "k"})
	require.NoError(t, r.svc.Register(npsSurvey()))

	snap := r.svc.Snapshot()
	assert.Equal(t, session.Idle, snap.State)

	r.clock.Advance(5 * time.Second)
	snap = r.svc.Snapshot()
	require.Equal(t, session.Active, snap.State)
	assert.Equal(t, "nps", snap.Survey.ID)
	assert.True(t, snap.Visible)

	require.NoError(t, r.svc.Answer("score", survey.Number(9)))
	assert.True(t, r.svc.CanProceed())
	require.NoError(t, r.svc.Next())
	require.NoError(t, r.svc.Answer("reason", survey.String("fast approval")))
	require.NoError(t, r.svc.Complete(context.Background()))

	snap = r.svc.Snapshot()
	assert.Equal(t, session.FollowUp, snap.State)
	assert.Equal(t, 2, snap.Step)

	require.Equal(t, 1, r.endpoint.Calls())
	var sent survey.Submission
	require.NoError(t, json.Unmarshal(r.endpoint.Body(0), &sent))
	assert.Equal(t, "nps", sent.SurveyID)
	assert.Equal(t, "session-1", sent.Metadata.SessionID)
	assert.Equal(t, "Bearer k", r.endpoint.Authorization(0))

	assert.True(t, r.svc.Gate().Submitted("nps"))
}

func TestService_SubmittedSurveyNeverReturns(t *testing.T) {
	cfg := Config{}
	r := newRig(t, cfg)
	require.NoError(t, r.svc.Register(npsSurvey()))

	r.clock.Advance(5 * time.Second)
	require.NoError(t, r.svc.Answer("score", survey.Number(9)))
	require.NoError(t, r.svc.Complete(context.Background()))
	require.NoError(t, r.svc.Reset())

	// A later registration of the same survey (a "new page") must not arm.
	require.NoError(t, r.svc.Register(npsSurvey()))
	r.clock.Advance(time.Hour)
	assert.Equal(t, session.Idle, r.svc.Snapshot().State)
}

func TestService_DeliveryFailureKeepsAnswersForRetry(t *testing.T) {
	r := &rig{
		clock:    testutil.NewClock(epoch),
		signals:  testutil.NewManualSignals(),
		endpoint: testutil.NewEndpoint(http.StatusBadGateway, http.StatusOK),
		store:    store.NewMemory(),
	}
	r.svc = New(Config{
		Endpoint: "https://feedback.invalid/submissions",
		Signals:  r.signals,
	},
		WithStore(r.store),
		WithClock(r.clock),
		WithHTTPClient(r.endpoint.Client()),
		WithIDGenerator(delivery.NewFixedGenerator("session-1")),
	)
	ctx, cancel := context.WithCancel(context.Background())
	r.svc.Start(ctx)
	t.Cleanup(func() {
		require.NoError(t, r.svc.Close())
		cancel()
	})

	sv := npsSurvey()
	sv.Trigger = survey.TriggerConfig{Type: survey.TriggerManual}
	require.NoError(t, r.svc.Register(sv))
	require.NoError(t, r.svc.ShowNow("nps"))

	require.NoError(t, r.svc.Answer("score", survey.Number(7)))
	err := r.svc.Complete(context.Background())
	require.Error(t, err, "first attempt answers 502")

	snap := r.svc.Snapshot()
	assert.Equal(t, session.Active, snap.State)
	assert.Equal(t, 1, snap.Step, "back on the last question")
	assert.Len(t, r.svc.Responses(), 1)
	assert.False(t, r.svc.Gate().Submitted("nps"))

	require.NoError(t, r.svc.Complete(context.Background()), "retry succeeds")
	assert.True(t, r.svc.Gate().Submitted("nps"))
	assert.Equal(t, 2, r.endpoint.Calls())
}

func TestService_ExitIntentHideNeverResurfaces(t *testing.T) {
	r := newRig(t, Config{})

	sv := survey.Survey{
		ID:   "exit",
		Name: "Exit",
		Questions: []survey.Question{
			{ID: "q", Type: survey.QuestionThumbs, Prompt: "Found it?"},
		},
		Trigger: survey.TriggerConfig{Type: survey.TriggerExitIntent},
	}
	require.NoError(t, r.svc.Register(sv))

	r.signals.EmitPointerLeave()
	require.Equal(t, session.Active, r.svc.Snapshot().State)

	require.NoError(t, r.svc.Hide())
	snap := r.svc.Snapshot()
	assert.Equal(t, session.Hidden, snap.State)
	assert.False(t, snap.Visible)

	// Further exit intents and time cannot bring it back.
	r.signals.EmitPointerLeave()
	r.clock.Advance(24 * time.Hour)
	snap = r.svc.Snapshot()
	assert.Equal(t, session.Hidden, snap.State)
	assert.False(t, snap.Visible)
}

func TestService_FirstDetectorWinsTheSlot(t *testing.T) {
	r := newRig(t, Config{})

	exit := survey.Survey{
		ID: "exit", Name: "Exit",
		Questions: []survey.Question{{ID: "q", Type: survey.QuestionText, Prompt: "?"}},
		Trigger:   survey.TriggerConfig{Type: survey.TriggerExitIntent},
	}
	scroll := survey.Survey{
		ID: "scroll", Name: "Scroll",
		Questions: []survey.Question{{ID: "q", Type: survey.QuestionText, Prompt: "?"}},
		Trigger:   survey.TriggerConfig{Type: survey.TriggerScrollDepth, ScrollDepth: 50},
	}
	require.NoError(t, r.svc.Register(exit))
	require.NoError(t, r.svc.Register(scroll))

	r.signals.EmitPointerLeave()
	r.signals.EmitScroll(900, 2000, 1000)

	snap := r.svc.Snapshot()
	assert.Equal(t, "exit", snap.Survey.ID, "the slot belongs to whichever fired first")
	assert.Equal(t, session.Active, snap.State)
}

func TestService_RegisterRejectsInvalidSurvey(t *testing.T) {
	r := newRig(t, Config{})

	err := r.svc.Register(survey.Survey{ID: "bad"})
	require.Error(t, err)

	var verr *survey.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestService_TargetingMismatchSkipsSilently(t *testing.T) {
	r := newRig(t, Config{Page: survey.PageContext{URL: "https://example.com/docs"}})

	sv := npsSurvey()
	sv.Trigger = survey.TriggerConfig{Type: survey.TriggerManual}
	sv.Targeting = &survey.TargetingConfig{URLPatterns: []string{"/checkout/*"}}

	require.NoError(t, r.svc.Register(sv), "mismatch is not an error")
	assert.ErrorIs(t, r.svc.ShowNow("nps"), ErrUnknownSurvey, "no detector was created")
}

func TestService_ManualRearmAllowsSecondPresentation(t *testing.T) {
	r := newRig(t, Config{})

	sv := npsSurvey()
	sv.Trigger = survey.TriggerConfig{Type: survey.TriggerManual}
	require.NoError(t, r.svc.Register(sv))

	require.NoError(t, r.svc.ShowNow("nps"))
	require.NoError(t, r.svc.Reset())

	require.NoError(t, r.svc.ShowNow("nps"))
	assert.Equal(t, session.Idle, r.svc.Snapshot().State, "latched detector does not fire again")

	require.NoError(t, r.svc.Rearm("nps"))
	require.NoError(t, r.svc.ShowNow("nps"))
	assert.Equal(t, session.Active, r.svc.Snapshot().State)
}

func TestService_UnknownSurveyOperations(t *testing.T) {
	r := newRig(t, Config{})

	assert.ErrorIs(t, r.svc.ShowNow("ghost"), ErrUnknownSurvey)
	assert.ErrorIs(t, r.svc.Rearm("ghost"), ErrUnknownSurvey)
}

func TestService_ResetAllErasesPersistence(t *testing.T) {
	r := newRig(t, Config{})

	sv := npsSurvey()
	sv.Trigger = survey.TriggerConfig{Type: survey.TriggerManual, ShowOnce: true}
	require.NoError(t, r.svc.Register(sv))
	require.NoError(t, r.svc.ShowNow("nps"))
	require.NoError(t, r.svc.Answer("score", survey.Number(9)))
	require.NoError(t, r.svc.Complete(context.Background()))

	require.NoError(t, r.svc.ResetAll())

	assert.Equal(t, session.Idle, r.svc.Snapshot().State)
	assert.False(t, r.svc.Gate().Submitted("nps"))
	assert.False(t, r.svc.Gate().Viewed("nps"))
}

func TestService_SubscribeObservesTransitions(t *testing.T) {
	r := newRig(t, Config{})

	sv := npsSurvey()
	sv.Trigger = survey.TriggerConfig{Type: survey.TriggerManual}
	require.NoError(t, r.svc.Register(sv))

	var states []session.State
	cancel, err := r.svc.Subscribe(func(snap session.Snapshot) {
		states = append(states, snap.State)
	})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, r.svc.ShowNow("nps"))
	require.NoError(t, r.svc.Hide())

	// Reads of the captured slice are serialized through the loop.
	var got []session.State
	_ = r.svc.dispatcher.Call(func() { got = append([]session.State(nil), states...) })
	assert.Equal(t, []session.State{session.Active, session.Hidden}, got)
}

func TestService_SessionIDStableAcrossSurveys(t *testing.T) {
	r := newRig(t, Config{})
	assert.Equal(t, "session-1", r.svc.SessionID())
	assert.Equal(t, "session-1", r.svc.SessionID())
}

func TestService_CloseReleasesAllRegistrations(t *testing.T) {
	r := &rig{
		clock:   testutil.NewClock(epoch),
		signals: testutil.NewManualSignals(),
		store:   store.NewMemory(),
	}
	r.svc = New(Config{Signals: r.signals},
		WithStore(r.store),
		WithClock(r.clock),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.svc.Start(ctx)

	exit := survey.Survey{
		ID: "exit", Name: "Exit",
		Questions: []survey.Question{{ID: "q", Type: survey.QuestionText, Prompt: "?"}},
		Trigger:   survey.TriggerConfig{Type: survey.TriggerExitIntent},
	}
	delayed := survey.Survey{
		ID: "delayed", Name: "Delayed",
		Questions: []survey.Question{{ID: "q", Type: survey.QuestionText, Prompt: "?"}},
		Trigger:   survey.TriggerConfig{Type: survey.TriggerTimeDelay, Delay: time.Minute},
	}
	require.NoError(t, r.svc.Register(exit))
	require.NoError(t, r.svc.Register(delayed))

	require.Equal(t, 1, r.signals.Registrations())
	require.Equal(t, 1, r.clock.Pending())

	require.NoError(t, r.svc.Close())

	assert.Equal(t, 0, r.signals.Registrations())
	assert.Equal(t, 0, r.clock.Pending())
}

func TestService_CloseWhileLoopBusyReleasesRegistrations(t *testing.T) {
	r := &rig{
		clock:   testutil.NewClock(epoch),
		signals: testutil.NewManualSignals(),
		store:   store.NewMemory(),
	}
	r.svc = New(Config{Signals: r.signals},
		WithStore(r.store),
		WithClock(r.clock),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.svc.Start(ctx)

	delayed := survey.Survey{
		ID: "delayed", Name: "Delayed",
		Questions: []survey.Question{{ID: "q", Type: survey.QuestionText, Prompt: "?"}},
		Trigger:   survey.TriggerConfig{Type: survey.TriggerTimeDelay, Delay: time.Minute},
	}
	require.NoError(t, r.svc.Register(delayed))
	require.Equal(t, 1, r.clock.Pending())

	// Hold the loop so the teardown task is still queued when the queue
	// closes and has to execute during the final drain.
	hold := make(chan struct{})
	require.NoError(t, r.svc.dispatcher.Enqueue(func() { <-hold }))

	closed := make(chan error, 1)
	go func() { closed <- r.svc.Close() }()

	time.Sleep(20 * time.Millisecond)
	close(hold)

	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Close did not return")
	}

	assert.Equal(t, 0, r.clock.Pending())
}
