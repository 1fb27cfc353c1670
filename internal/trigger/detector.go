// Package trigger implements the detectors that decide when a survey is
// offered: one passive observer per survey, armed against the eligibility
// gate, firing at most once per presentation attempt.
package trigger

import (
	"log/slog"
	"time"

	"github.com/fountainhq/fountain/internal/engine"
	"github.com/fountainhq/fountain/internal/gate"
	"github.com/fountainhq/fountain/internal/survey"
)

// The page-view trigger waits a short settle delay after arming so firing
// represents "page has rendered" rather than "script evaluated".
const pageViewSettle = 500 * time.Millisecond

// Visible-intersection ratio at which an element-visible trigger fires.
const visibleThreshold = 0.5

// Detector observes one survey's configured signal and fires it at most
// once. Detectors for different surveys run concurrently as independent
// passive observers; whichever satisfies its condition first wins the single
// active slot, and the rest become no-ops until teardown.
//
// All state mutation happens on the dispatcher loop. Arm, Fire, Rearm, and
// Close may be called from any goroutine; they submit their work to the
// loop. The fired latch is checked and set within one loop task, so two
// underlying events satisfying the condition concurrently cannot both fire.
type Detector struct {
	survey     *survey.Survey
	gate       *gate.Gate
	dispatcher *engine.Dispatcher
	clock      engine.Clock
	signals    SignalSource
	onFire     func(*survey.Survey)
	logger     *slog.Logger

	// Loop-confined state.
	armed   bool
	fired   bool
	cancels []func()
}

// Config carries the dependencies a detector needs.
type Config struct {
	Survey     *survey.Survey
	Gate       *gate.Gate
	Dispatcher *engine.Dispatcher
	Clock      engine.Clock
	Signals    SignalSource
	// OnFire is invoked on the dispatcher loop when the detector wins.
	OnFire func(*survey.Survey)
	Logger *slog.Logger
}

// New creates a detector. It does not arm it.
func New(cfg Config) *Detector {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		survey:     cfg.Survey,
		gate:       cfg.Gate,
		dispatcher: cfg.Dispatcher,
		clock:      cfg.Clock,
		signals:    cfg.Signals,
		onFire:     cfg.OnFire,
		logger:     logger,
	}
}

// Survey returns the survey this detector observes.
func (d *Detector) Survey() *survey.Survey { return d.survey }

// Arm consults the eligibility gate and, if the survey may be shown,
// registers the configured signal observation. Arming an ineligible survey
// is a silent no-op, as is arming twice. A configuration problem (such as a
// selector-less element-visible trigger) means the detector never arms; no
// error is raised, to avoid destabilizing the host page.
func (d *Detector) Arm() {
	d.enqueue(d.armLocked)
}

func (d *Detector) armLocked() {
	if d.armed || d.fired {
		return
	}
	if !d.gate.ShouldShow(d.survey, d.clock.Now()) {
		d.logger.Debug("trigger: survey not eligible, not arming", "survey", d.survey.ID)
		return
	}

	t := d.survey.Trigger
	switch t.Type {
	case survey.TriggerManual:
		// Fires only on an explicit Fire call.

	case survey.TriggerTimeDelay:
		delay := t.Delay
		if delay <= 0 {
			delay = survey.DefaultTimeDelay
		}
		d.cancels = append(d.cancels, d.clock.After(delay, func() {
			d.enqueue(d.tryFire)
		}))

	case survey.TriggerPageView:
		d.cancels = append(d.cancels, d.clock.After(pageViewSettle, func() {
			d.enqueue(d.tryFire)
		}))

	case survey.TriggerScrollDepth:
		target := t.ScrollDepth
		if target <= 0 {
			target = survey.DefaultScrollDepth
		}
		d.cancels = append(d.cancels, d.signals.OnScroll(func(offset, contentH, viewportH float64) {
			if ScrollPercent(offset, contentH, viewportH) >= target {
				d.enqueue(d.tryFire)
			}
		}))
		// The page may already be scrolled past the target when we arm.
		if ScrollPercent(d.signals.ScrollPosition()) >= target {
			d.tryFire()
		}

	case survey.TriggerExitIntent:
		d.cancels = append(d.cancels, d.signals.OnPointerLeave(func() {
			d.enqueue(d.tryFire)
		}))

	case survey.TriggerElementVisible:
		if t.Selector == "" {
			d.logger.Debug("trigger: element-visible without selector, not arming", "survey", d.survey.ID)
			return
		}
		var cancel func()
		cancel = d.signals.OnElementVisible(t.Selector, func(ratio float64) {
			if ratio >= visibleThreshold {
				d.enqueue(func() {
					// Release the observation as soon as the condition is met.
					cancel()
					d.tryFire()
				})
			}
		})
		d.cancels = append(d.cancels, cancel)

	case survey.TriggerClick:
		if t.Selector == "" {
			d.logger.Debug("trigger: click without selector, not arming", "survey", d.survey.ID)
			return
		}
		d.cancels = append(d.cancels, d.signals.OnClick(t.Selector, func() {
			d.enqueue(d.tryFire)
		}))

	default:
		d.logger.Warn("trigger: unknown trigger type", "survey", d.survey.ID, "type", t.Type)
		return
	}

	d.armed = true
	d.logger.Debug("trigger: armed", "survey", d.survey.ID, "type", t.Type)
}

// Fire is the explicit external entry point for manual triggers. For other
// trigger kinds it behaves like their condition being met: at most one
// firing per presentation attempt.
func (d *Detector) Fire() {
	d.enqueue(d.tryFire)
}

// Rearm clears the fired latch so the detector may fire again. Only manual
// triggers are re-armable; for every other kind the latch is permanent
// until teardown.
func (d *Detector) Rearm() {
	d.enqueue(func() {
		if d.survey.Trigger.Type != survey.TriggerManual {
			return
		}
		d.fired = false
	})
}

// Close releases every registration the detector holds: timers, signal
// subscriptions, observers. Safe from any goroutine; idempotent.
func (d *Detector) Close() {
	d.enqueue(d.Release)
}

// Release cancels every registration immediately. It must run on the
// dispatch loop; Close is the goroutine-safe wrapper. Loop-side teardown
// calls it directly so the cancels still run when the queue is draining
// and would no longer accept a re-enqueued task.
func (d *Detector) Release() {
	for _, cancel := range d.cancels {
		cancel()
	}
	d.cancels = nil
	d.armed = false
}

// tryFire runs on the loop: the latch check and set are one synchronous
// step, so concurrent satisfying events collapse to a single firing.
func (d *Detector) tryFire() {
	if d.fired {
		return
	}
	d.fired = true
	d.logger.Debug("trigger: fired", "survey", d.survey.ID, "type", d.survey.Trigger.Type)
	if d.onFire != nil {
		d.onFire(d.survey)
	}
}

// enqueue routes work onto the dispatcher loop, dropping it if the engine
// already shut down (a late timer or signal after Close is normal).
func (d *Detector) enqueue(task func()) {
	if err := d.dispatcher.Enqueue(task); err != nil {
		d.logger.Debug("trigger: dropped task after shutdown", "survey", d.survey.ID)
	}
}
