// Package delivery turns a finished answer set into exactly one delivered
// record: it enriches the submission with page and session context, hands it
// to the caller's callback and the configured remote endpoint, and only when
// every configured channel succeeded marks the survey submitted in durable
// state.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/fountainhq/fountain/internal/engine"
	"github.com/fountainhq/fountain/internal/gate"
	"github.com/fountainhq/fountain/internal/store"
	"github.com/fountainhq/fountain/internal/survey"
)

// SubmitFunc is the caller-supplied local delivery channel. An error (or a
// panic) counts as a delivery failure and leaves durable state untouched.
type SubmitFunc func(survey.Submission) error

// IDGenerator produces opaque session identifiers.
// Implemented by UUIDv7Generator (production) and test doubles.
type IDGenerator interface {
	Generate() string
}

// Config carries the pipeline's dependencies and delivery channels.
type Config struct {
	// Endpoint, when non-empty, receives each enriched submission as an
	// HTTP POST with a JSON body.
	Endpoint string

	// APIKey, when non-empty, is sent as a bearer credential.
	APIKey string

	// OnSubmit, when non-nil, is the local delivery channel.
	OnSubmit SubmitFunc

	// Client defaults to http.DefaultClient.
	Client *http.Client

	// UserID and CustomData are caller-supplied enrichment passed through
	// into every submission's metadata.
	UserID     string
	CustomData map[string]any

	Store  store.Store
	Gate   *gate.Gate
	Clock  engine.Clock
	IDs    IDGenerator
	Logger *slog.Logger
}

// Pipeline delivers enriched submissions over the configured channels.
type Pipeline struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// New creates a pipeline from the config, applying defaults.
func New(cfg Config) *Pipeline {
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.IDs == nil {
		cfg.IDs = UUIDv7Generator{}
	}
	return &Pipeline{cfg: cfg, client: client, logger: logger}
}

// Deliver enriches the submission, runs both configured channels, and marks
// the survey submitted only after every channel succeeded. On any failure
// durable state is untouched, so the survey stays eligible for a retry
// instead of being silently retired.
func (p *Pipeline) Deliver(ctx context.Context, sub survey.Submission, page survey.PageContext) error {
	sub.Metadata = survey.Metadata{
		URL:        page.URL,
		UserAgent:  page.UserAgent,
		SessionID:  p.SessionID(),
		UserID:     p.cfg.UserID,
		CustomData: p.cfg.CustomData,
	}

	if p.cfg.OnSubmit != nil {
		if err := p.runCallback(sub); err != nil {
			p.logger.Warn("delivery: callback failed", "survey", sub.SurveyID, "error", err)
			return err
		}
	}

	if p.cfg.Endpoint != "" {
		if err := p.post(ctx, sub); err != nil {
			p.logger.Warn("delivery: endpoint failed", "survey", sub.SurveyID, "error", err)
			return err
		}
	}

	p.cfg.Gate.MarkSubmitted(sub.SurveyID, p.cfg.Clock.Now())
	p.logger.Info("delivery: submission delivered", "survey", sub.SurveyID, "responses", len(sub.Responses))
	return nil
}

// SessionID returns the session identifier, creating and persisting it on
// first use so every survey shown within the session reuses it. With the
// session store unavailable, a fresh id is used per call rather than
// failing.
func (p *Pipeline) SessionID() string {
	id, ok, err := p.cfg.Store.Get(store.Session, store.KeySession)
	if err == nil && ok && id != "" {
		return id
	}
	id = p.cfg.IDs.Generate()
	if err := p.cfg.Store.Set(store.Session, store.KeySession, id); err != nil {
		p.logger.Debug("delivery: session id not persisted", "error", err)
	}
	return id
}

// runCallback invokes the local channel, converting a panic into an error so
// a misbehaving host callback cannot take down the engine.
func (p *Pipeline) runCallback(sub survey.Submission) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("submit callback panicked: %v", r)
		}
	}()
	return p.cfg.OnSubmit(sub)
}

// post sends the enriched submission to the remote endpoint. Any non-2xx
// status is a delivery failure.
func (p *Pipeline) post(ctx context.Context, sub survey.Submission) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("post submission: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("endpoint returned %s", resp.Status)
	}
	return nil
}
