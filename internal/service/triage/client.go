// Package triage turns a patient intake into a structured assessment using
// the generative model, falling back to a fixed safe answer on any failure.
package triage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/platform/gemini"
	"github.com/jwalitptl/healthtown-api/pkg/circuitbreaker"
	"github.com/jwalitptl/healthtown-api/pkg/logger"
	"github.com/jwalitptl/healthtown-api/pkg/metrics"
	"github.com/jwalitptl/healthtown-api/pkg/validator"
)

// Generator produces a JSON answer for a prompt.
type Generator interface {
	GenerateJSON(ctx context.Context, model, prompt string, schema *gemini.Schema) (string, error)
}

type Config struct {
	Model        string
	Timeout      time.Duration
	Language     string
	MaxFailures  int
	BreakerReset time.Duration
}

type Client struct {
	gen       Generator
	cfg       Config
	breaker   *circuitbreaker.CircuitBreaker
	validator *validator.Validator
	logger    *logger.Logger
	metrics   *metrics.Metrics
	model     func(ctx context.Context) string
}

type Option func(*Client)

// WithModelResolver picks the model per call, e.g. from admin settings.
// An empty answer falls back to Config.Model.
func WithModelResolver(fn func(ctx context.Context) string) Option {
	return func(c *Client) { c.model = fn }
}

func NewClient(gen Generator, cfg Config, log *logger.Logger, m *metrics.Metrics, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Language != LanguageIndonesian {
		cfg.Language = LanguageEnglish
	}

	c := &Client{
		gen: gen,
		cfg: cfg,
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "gemini",
			MaxFailures: cfg.MaxFailures,
			Timeout:     cfg.BreakerReset,
		}),
		validator: validator.New(),
		logger:    log,
		metrics:   m,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Assess returns the model's assessment of input, or the fallback when the
// backend fails in any way. The only error is cancellation of ctx itself.
func (c *Client) Assess(ctx context.Context, input model.ConsultationInput) (*model.ConsultationOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("consultation cancelled: %w", err)
	}

	start := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var text string
	err := c.breaker.Execute(func() error {
		var genErr error
		text, genErr = c.gen.GenerateJSON(callCtx, c.modelName(ctx), BuildPrompt(input, c.cfg.Language), ResponseSchema())
		return genErr
	})

	if ctxErr := ctx.Err(); ctxErr != nil {
		c.metrics.ObserveAI("cancelled", time.Since(start))
		return nil, fmt.Errorf("consultation cancelled: %w", ctxErr)
	}

	if err != nil {
		result := "error"
		switch {
		case errors.Is(err, circuitbreaker.ErrOpen):
			result = "breaker_open"
		case errors.Is(err, context.DeadlineExceeded):
			result = "timeout"
		}
		c.metrics.ObserveAI(result, time.Since(start))
		c.logger.Warn("AI backend failed, using fallback", "result", result, "error", err.Error())
		return Fallback(c.cfg.Language), nil
	}

	out, err := ParseOutput(text, c.validator)
	if err != nil {
		c.metrics.ObserveAI("invalid", time.Since(start))
		c.logger.Warn("AI response rejected, using fallback", "error", err.Error())
		return Fallback(c.cfg.Language), nil
	}

	c.metrics.ObserveAI("ok", time.Since(start))
	return out, nil
}

// BreakerState reports the AI circuit breaker state for health checks.
func (c *Client) BreakerState() circuitbreaker.State {
	return c.breaker.State()
}

func (c *Client) modelName(ctx context.Context) string {
	if c.model != nil {
		if m := c.model(ctx); m != "" {
			return m
		}
	}
	return c.cfg.Model
}
