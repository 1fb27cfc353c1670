// Package feedback assembles the survey engine: the persistent store, the
// eligibility gate, the trigger detectors, the session state machine, and
// the delivery pipeline, all driven by one dispatch loop.
//
// A Service is constructed once by the caller with explicit configuration
// and passed by reference wherever it is needed; there is no ambient global.
package feedback

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fountainhq/fountain/internal/delivery"
	"github.com/fountainhq/fountain/internal/engine"
	"github.com/fountainhq/fountain/internal/gate"
	"github.com/fountainhq/fountain/internal/session"
	"github.com/fountainhq/fountain/internal/store"
	"github.com/fountainhq/fountain/internal/survey"
	"github.com/fountainhq/fountain/internal/trigger"
)

// ErrUnknownSurvey is returned when an operation names a survey that was
// never registered.
var ErrUnknownSurvey = errors.New("survey not registered")

// Config is the caller-facing service configuration.
type Config struct {
	// Endpoint, when non-empty, receives every submission as a JSON POST.
	Endpoint string

	// APIKey is the optional bearer credential for the endpoint.
	APIKey string

	// OnSubmit is the optional local delivery callback.
	OnSubmit delivery.SubmitFunc

	// Signals is the host environment's signal adapter. Required for any
	// non-manual trigger to arm.
	Signals trigger.SignalSource

	// Page describes the page and visitor, used for targeting and
	// submission enrichment.
	Page survey.PageContext

	// UserID and CustomData are passed through into submission metadata.
	UserID     string
	CustomData map[string]any
}

// Option configures optional service dependencies.
type Option func(*Service)

// WithStore replaces the default in-memory store.
func WithStore(s store.Store) Option {
	return func(svc *Service) { svc.store = s }
}

// WithClock replaces the system clock.
func WithClock(c engine.Clock) Option {
	return func(svc *Service) { svc.clock = c }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(svc *Service) { svc.logger = l }
}

// WithHTTPClient replaces the delivery HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(svc *Service) { svc.httpClient = c }
}

// WithIDGenerator replaces the session id generator.
func WithIDGenerator(g delivery.IDGenerator) Option {
	return func(svc *Service) { svc.ids = g }
}

// Service is the feedback engine facade. All methods are safe for
// concurrent use; they serialize onto the dispatch loop. Start must be
// called before any survey can trigger or any session operation completes.
type Service struct {
	cfg        Config
	store      store.Store
	clock      engine.Clock
	logger     *slog.Logger
	httpClient *http.Client
	ids        delivery.IDGenerator

	dispatcher *engine.Dispatcher
	gate       *gate.Gate
	pipeline   *delivery.Pipeline
	machine    *session.Machine

	detectors map[string]*trigger.Detector

	done chan struct{}
}

// New assembles a service from the config and options.
func New(cfg Config, opts ...Option) *Service {
	svc := &Service{
		cfg:       cfg,
		detectors: make(map[string]*trigger.Detector),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.store == nil {
		svc.store = store.NewMemory()
	}
	if svc.clock == nil {
		svc.clock = engine.SystemClock{}
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}

	svc.dispatcher = engine.NewDispatcher(svc.logger)
	svc.gate = gate.New(svc.store, svc.logger)
	svc.pipeline = delivery.New(delivery.Config{
		Endpoint:   cfg.Endpoint,
		APIKey:     cfg.APIKey,
		OnSubmit:   cfg.OnSubmit,
		Client:     svc.httpClient,
		UserID:     cfg.UserID,
		CustomData: cfg.CustomData,
		Store:      svc.store,
		Gate:       svc.gate,
		Clock:      svc.clock,
		IDs:        svc.ids,
		Logger:     svc.logger,
	})
	svc.machine = session.NewMachine(svc.gate, svc.clock, svc.dispatcher, svc.deliver, svc.logger)
	return svc
}

func (s *Service) deliver(ctx context.Context, sub survey.Submission) error {
	return s.pipeline.Deliver(ctx, sub, s.cfg.Page)
}

// Start launches the dispatch loop. It returns immediately; the loop runs
// until the context is cancelled or Close is called.
func (s *Service) Start(ctx context.Context) {
	go func() {
		defer close(s.done)
		if err := s.dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("feedback: dispatch loop stopped", "error", err)
		}
	}()
}

// Close tears down every detector registration and stops the dispatch loop,
// then closes the store. No leaks: every timer, listener, and observer the
// detectors acquired is released.
func (s *Service) Close() error {
	// Release, not Close: the teardown task may execute during the final
	// drain, when a re-enqueued cancel task would be rejected.
	teardown := func() {
		for _, d := range s.detectors {
			d.Release()
		}
	}
	if err := s.dispatcher.Enqueue(teardown); err != nil {
		// Loop already stopped; nothing else touches detector state now.
		teardown()
	}
	s.dispatcher.Close()
	<-s.done
	return s.store.Close()
}

// Register validates a survey, applies its targeting rules against the
// configured page context, and arms a detector for its trigger. A survey
// whose targeting does not match the page is skipped silently; invalid
// surveys are rejected.
func (s *Service) Register(sv survey.Survey) error {
	if errs := sv.Validate(); len(errs) > 0 {
		return errs[0]
	}
	if !sv.Targeting.Matches(s.cfg.Page) {
		s.logger.Debug("feedback: survey targeting does not match page", "survey", sv.ID)
		return nil
	}

	return s.dispatcher.Call(func() {
		if _, exists := s.detectors[sv.ID]; exists {
			return
		}
		owned := sv
		d := trigger.New(trigger.Config{
			Survey:     &owned,
			Gate:       s.gate,
			Dispatcher: s.dispatcher,
			Clock:      s.clock,
			Signals:    s.cfg.Signals,
			OnFire:     s.show,
			Logger:     s.logger,
		})
		s.detectors[sv.ID] = d
		d.Arm()
	})
}

// show runs on the loop when a detector wins. A gate rejection or an
// occupied presentation slot is a normal negative outcome.
func (s *Service) show(sv *survey.Survey) {
	if err := s.machine.Show(sv); err != nil {
		s.logger.Debug("feedback: survey not shown", "survey", sv.ID, "reason", err)
	}
}

// ShowNow fires a survey's detector explicitly. This is the manual trigger
// entry point; it also works for other trigger kinds that have not fired
// yet.
func (s *Service) ShowNow(id string) error {
	var d *trigger.Detector
	err := s.dispatcher.Call(func() {
		d = s.detectors[id]
	})
	if err != nil {
		return err
	}
	if d == nil {
		return ErrUnknownSurvey
	}
	d.Fire()
	return nil
}

// Rearm re-arms a manual survey's detector for another presentation.
func (s *Service) Rearm(id string) error {
	var d *trigger.Detector
	err := s.dispatcher.Call(func() {
		d = s.detectors[id]
	})
	if err != nil {
		return err
	}
	if d == nil {
		return ErrUnknownSurvey
	}
	d.Rearm()
	return nil
}

// Answer records a response for the active survey.
func (s *Service) Answer(questionID string, value survey.Value) error {
	var opErr error
	if err := s.dispatcher.Call(func() {
		opErr = s.machine.Answer(questionID, value)
	}); err != nil {
		return err
	}
	return opErr
}

// Next advances the active survey one step, completing it from the last
// question.
func (s *Service) Next() error {
	var opErr error
	if err := s.dispatcher.Call(func() {
		opErr = s.machine.Next()
	}); err != nil {
		return err
	}
	return opErr
}

// Previous steps the active survey back one question.
func (s *Service) Previous() error {
	var opErr error
	if err := s.dispatcher.Call(func() {
		opErr = s.machine.Previous()
	}); err != nil {
		return err
	}
	return opErr
}

// Hide dismisses the active survey, retaining its state.
func (s *Service) Hide() error {
	return s.dispatcher.Call(s.machine.Hide)
}

// Reset abandons the current presentation and returns the machine to idle.
func (s *Service) Reset() error {
	return s.dispatcher.Call(s.machine.Reset)
}

// ResetAll resets the session machine and erases every persisted record in
// both partitions. Used for testing and account-level opt-out.
func (s *Service) ResetAll() error {
	var opErr error
	if err := s.dispatcher.Call(func() {
		s.machine.Reset()
		opErr = s.gate.Reset()
	}); err != nil {
		return err
	}
	return opErr
}

// Complete freezes the active survey's answers and runs delivery, blocking
// until it settles. On failure the survey returns to its last question with
// answers intact and the error is returned for the caller to retry.
func (s *Service) Complete(ctx context.Context) error {
	var (
		result <-chan error
		opErr  error
	)
	if err := s.dispatcher.Call(func() {
		result, opErr = s.machine.Complete(ctx)
	}); err != nil {
		return err
	}
	if opErr != nil {
		return opErr
	}
	return <-result
}

// CanProceed reports whether the proceed action is currently allowed.
func (s *Service) CanProceed() bool {
	var ok bool
	_ = s.dispatcher.Call(func() {
		ok = s.machine.CanProceed()
	})
	return ok
}

// Snapshot returns the machine's observable state.
func (s *Service) Snapshot() session.Snapshot {
	var snap session.Snapshot
	_ = s.dispatcher.Call(func() {
		snap = session.Snapshot{
			State:     s.machine.State(),
			Survey:    s.machine.ActiveSurvey(),
			Step:      s.machine.Step(),
			Visible:   s.machine.Visible(),
			Responses: len(s.machine.Responses()),
		}
	})
	return snap
}

// Responses returns a copy of the accumulated answers.
func (s *Service) Responses() []survey.Response {
	var out []survey.Response
	_ = s.dispatcher.Call(func() {
		out = s.machine.Responses()
	})
	return out
}

// Subscribe registers an observer notified synchronously on every state
// transition.
func (s *Service) Subscribe(fn func(session.Snapshot)) (cancel func(), err error) {
	err = s.dispatcher.Call(func() {
		cancel = s.machine.Subscribe(fn)
	})
	return cancel, err
}

// SessionID returns the session identifier, creating it on first use.
func (s *Service) SessionID() string {
	return s.pipeline.SessionID()
}

// Gate exposes the eligibility gate for host-side checks.
func (s *Service) Gate() *gate.Gate {
	return s.gate
}
