// Package gate implements the eligibility decision for showing a survey:
// permanent retirement after submission, per-session show-once suppression,
// and a cooldown window after the last successful delivery.
//
// The gate is deliberately forgiving about storage: a store that cannot be
// read behaves as if nothing was persisted, so eligibility degrades to
// "always eligible" instead of raising into the host page. Write failures
// are logged and swallowed.
package gate

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/fountainhq/fountain/internal/store"
	"github.com/fountainhq/fountain/internal/survey"
)

// Gate answers "may this survey be shown now?" and records the viewed,
// submitted, and last-shown state that the answer depends on.
type Gate struct {
	store  store.Store
	logger *slog.Logger
}

// New creates a gate over the given store. A nil logger uses slog.Default.
func New(s store.Store, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{store: s, logger: logger}
}

// ShouldShow evaluates eligibility in order with short-circuit:
//
//  1. submitted surveys are permanently retired
//  2. showOnce surveys already viewed this session are suppressed
//  3. surveys inside their cooldown window are suppressed
//
// A negative decision is a normal outcome, not an error.
func (g *Gate) ShouldShow(s *survey.Survey, now time.Time) bool {
	if g.Submitted(s.ID) {
		return false
	}
	if s.Trigger.ShowOnce && g.Viewed(s.ID) {
		return false
	}
	if g.inCooldown(s.ID, s.Trigger.Cooldown(), now) {
		return false
	}
	return true
}

// Viewed reports whether the survey was shown this session.
func (g *Gate) Viewed(id string) bool {
	return contains(g.readIDSet(store.Session, store.KeyViewed), id)
}

// Submitted reports whether the survey was ever completed.
func (g *Gate) Submitted(id string) bool {
	return contains(g.readIDSet(store.Durable, store.KeySubmitted), id)
}

// LastShown returns the timestamp of the survey's last successful delivery.
func (g *Gate) LastShown(id string) (time.Time, bool) {
	raw, ok, err := g.store.Get(store.Durable, store.KeyLastShown(id))
	if err != nil {
		g.logger.Debug("gate: last-shown read failed", "survey", id, "error", err)
		return time.Time{}, false
	}
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		g.logger.Warn("gate: malformed last-shown timestamp", "survey", id, "value", raw)
		return time.Time{}, false
	}
	return t, true
}

// MarkViewed records that the survey became visible this session. Invoked
// exactly once per presentation, at the moment of visibility.
func (g *Gate) MarkViewed(id string) {
	g.appendIDSet(store.Session, store.KeyViewed, id)
}

// MarkSubmitted permanently retires the survey and stamps its last-shown
// time. Callers invoke this only after every delivery channel succeeded.
func (g *Gate) MarkSubmitted(id string, now time.Time) {
	g.appendIDSet(store.Durable, store.KeySubmitted, id)
	if err := g.store.Set(store.Durable, store.KeyLastShown(id), now.UTC().Format(time.RFC3339Nano)); err != nil {
		g.logger.Warn("gate: last-shown write failed", "survey", id, "error", err)
	}
}

// Reset clears every record the engine has persisted, in both partitions.
// Used for testing and account-level opt-out.
func (g *Gate) Reset() error {
	for _, p := range []store.Partition{store.Session, store.Durable} {
		keys, err := g.store.Keys(p, store.KeyPrefix)
		if err != nil {
			return err
		}
		for _, k := range keys {
			if err := g.store.Remove(p, k); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Gate) inCooldown(id string, window time.Duration, now time.Time) bool {
	if window <= 0 {
		return false
	}
	last, ok := g.LastShown(id)
	if !ok {
		return false
	}
	return now.Sub(last) < window
}

func (g *Gate) readIDSet(p store.Partition, key string) []string {
	raw, ok, err := g.store.Get(p, key)
	if err != nil {
		g.logger.Debug("gate: read failed, treating as empty", "key", key, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		g.logger.Warn("gate: malformed id set", "key", key, "error", err)
		return nil
	}
	return ids
}

func (g *Gate) appendIDSet(p store.Partition, key, id string) {
	ids := g.readIDSet(p, key)
	if contains(ids, id) {
		return
	}
	ids = append(ids, id)
	data, err := json.Marshal(ids)
	if err != nil {
		g.logger.Warn("gate: encode id set", "key", key, "error", err)
		return
	}
	if err := g.store.Set(p, key, string(data)); err != nil {
		g.logger.Warn("gate: write failed", "key", key, "error", err)
	}
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
