package gate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fountainhq/fountain/internal/store"
	"github.com/fountainhq/fountain/internal/survey"
)

var epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func newTestGate() (*Gate, *store.Memory) {
	s := store.NewMemory()
	return New(s, nil), s
}

func manualSurvey(id string) *survey.Survey {
	return &survey.Survey{
		ID:      id,
		Name:    id,
		Trigger: survey.TriggerConfig{Type: survey.TriggerManual},
		Questions: []survey.Question{
			{ID: "q1", Type: survey.QuestionText, Prompt: "?"},
		},
	}
}

func TestShouldShow_FreshSurvey(t *testing.T) {
	g, _ := newTestGate()
	assert.True(t, g.ShouldShow(manualSurvey("nps"), epoch))
}

func TestShouldShow_SubmittedIsPermanentlyRetired(t *testing.T) {
	g, _ := newTestGate()

	g.MarkSubmitted("nps", epoch)

	sv := manualSurvey("nps")
	assert.False(t, g.ShouldShow(sv, epoch))
	assert.False(t, g.ShouldShow(sv, epoch.Add(365*24*time.Hour)), "no amount of elapsed time resurrects a submitted survey")
}

func TestShouldShow_ShowOnceSuppressedAfterView(t *testing.T) {
	g, _ := newTestGate()

	sv := manualSurvey("nps")
	sv.Trigger.ShowOnce = true

	assert.True(t, g.ShouldShow(sv, epoch))
	g.MarkViewed("nps")
	assert.False(t, g.ShouldShow(sv, epoch))
}

func TestShouldShow_ViewedWithoutShowOnceStaysEligible(t *testing.T) {
	g, _ := newTestGate()

	sv := manualSurvey("nps")
	g.MarkViewed("nps")

	assert.True(t, g.ShouldShow(sv, epoch), "viewing only suppresses showOnce surveys")
}

func TestShouldShow_CooldownWindow(t *testing.T) {
	g, _ := newTestGate()

	// Cooldown applies on its own, without a submitted marker: stamp only
	// the last-shown key.
	sv := manualSurvey("nps")
	sv.Trigger.CooldownDays = 7
	g.store.Set(store.Durable, store.KeyLastShown("nps"), epoch.Format(time.RFC3339Nano))

	window := 7 * 24 * time.Hour
	assert.False(t, g.ShouldShow(sv, epoch.Add(window-time.Second)), "inside the window")
	assert.True(t, g.ShouldShow(sv, epoch.Add(window)), "boundary: elapsed == window is eligible")
	assert.True(t, g.ShouldShow(sv, epoch.Add(window+time.Second)))
}

func TestShouldShow_NoCooldownConfigured(t *testing.T) {
	g, _ := newTestGate()

	sv := manualSurvey("nps")
	g.store.Set(store.Durable, store.KeyLastShown("nps"), epoch.Format(time.RFC3339Nano))

	assert.True(t, g.ShouldShow(sv, epoch.Add(time.Second)))
}

func TestMarkSubmitted_StampsLastShown(t *testing.T) {
	g, s := newTestGate()

	g.MarkSubmitted("nps", epoch)

	assert.True(t, g.Submitted("nps"))
	last, ok := g.LastShown("nps")
	require.True(t, ok)
	assert.True(t, last.Equal(epoch))

	raw, ok, err := s.Get(store.Durable, store.KeySubmitted)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `["nps"]`, raw)
}

func TestMarkSubmitted_Idempotent(t *testing.T) {
	g, s := newTestGate()

	g.MarkSubmitted("nps", epoch)
	g.MarkSubmitted("nps", epoch.Add(time.Hour))

	raw, _, _ := s.Get(store.Durable, store.KeySubmitted)
	assert.JSONEq(t, `["nps"]`, raw, "no duplicate ids in the submitted set")
}

func TestMarkViewed_AccumulatesSessionSet(t *testing.T) {
	g, s := newTestGate()

	g.MarkViewed("a")
	g.MarkViewed("b")
	g.MarkViewed("a")

	raw, _, _ := s.Get(store.Session, store.KeyViewed)
	assert.JSONEq(t, `["a","b"]`, raw)
}

func TestReset_RemovesAllRecords(t *testing.T) {
	g, s := newTestGate()

	g.MarkViewed("a")
	g.MarkSubmitted("a", epoch)
	s.Set(store.Session, store.KeySession, "session-1")
	s.Set(store.Durable, "unrelated_key", "kept")

	require.NoError(t, g.Reset())

	assert.False(t, g.Submitted("a"))
	assert.False(t, g.Viewed("a"))
	_, ok := g.LastShown("a")
	assert.False(t, ok)
	if _, present, _ := s.Get(store.Session, store.KeySession); present {
		t.Error("session id survived reset")
	}
	_, present, _ := s.Get(store.Durable, "unrelated_key")
	assert.True(t, present, "reset only touches the engine's key prefix")
}

func TestDegradation_BlockedStoreAlwaysEligible(t *testing.T) {
	g := New(store.Blocked{}, nil)

	sv := manualSurvey("nps")
	sv.Trigger.ShowOnce = true
	sv.Trigger.CooldownDays = 30

	// Reads fail, so nothing appears persisted; writes fail and are
	// swallowed. The survey stays eligible in every case.
	assert.True(t, g.ShouldShow(sv, epoch))
	g.MarkViewed("nps")
	g.MarkSubmitted("nps", epoch)
	assert.True(t, g.ShouldShow(sv, epoch))
}

func TestDegradation_MalformedPersistedState(t *testing.T) {
	g, s := newTestGate()

	s.Set(store.Durable, store.KeySubmitted, "not json")
	s.Set(store.Durable, store.KeyLastShown("nps"), "not a timestamp")

	sv := manualSurvey("nps")
	sv.Trigger.CooldownDays = 7
	assert.True(t, g.ShouldShow(sv, epoch), "malformed records read as absent")
}
