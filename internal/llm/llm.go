// Package llm talks to the language model that writes conversational replies
// when the goal workflow has nothing definite to say.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/templui/goalcoach/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

const DefaultSystemPrompt = `You are Goalcoach, a friendly goal achievement partner.
Respond naturally to any message, from a simple greeting to a complex request.
When the user describes an aspiration, help them turn it into a specific, measurable goal
by asking one or two thoughtful questions about its area, timeframe, motivation and target.
Celebrate progress, encourage during setbacks and keep replies short and clear.`

type Request struct {
	Prompt   string
	ThreadID string
	UserID   string
	// System overrides the configured system prompt when set.
	System string
}

type Response struct {
	Text      string
	Model     string
	LatencyMs int64
}

// Completer produces a single reply for a prompt.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

type Config struct {
	Provider   string
	APIKey     string
	BaseURL    string
	Model      string
	System     string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		switch c.Provider {
		case ProviderGemini:
			c.Model = "gemini-2.5-flash"
		default:
			c.Model = "gpt-4o-mini"
		}
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.System == "" {
		c.System = DefaultSystemPrompt
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 250 * time.Millisecond
	}
	return c
}

// New builds the Completer for cfg.Provider. A provider without an API key
// still yields a Completer; its calls fail with ErrMissingAPIKey so callers
// can surface a credential hint.
func New(ctx context.Context, cfg Config, observer Observer) (Completer, error) {
	cfg = cfg.withDefaults()
	if observer == nil {
		observer = NoopObserver{}
	}

	switch cfg.Provider {
	case "", ProviderNone:
		return nil, ErrDisabled
	case ProviderOpenAI, ProviderGemini:
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	if cfg.APIKey == "" {
		return missingKey{}, nil
	}
	if cfg.Provider == ProviderGemini {
		return newGeminiClient(ctx, cfg, observer)
	}
	return newOpenAIClient(cfg, observer), nil
}

type missingKey struct{}

func (missingKey) Complete(context.Context, Request) (*Response, error) {
	return nil, ErrMissingAPIKey
}

var tracer = telemetry.Tracer("goalcoach/llm")

// caller runs provider calls with a timeout, retries and observation.
type caller struct {
	provider string
	cfg      Config
	observer Observer
}

func (c caller) call(ctx context.Context, req Request, send func(ctx context.Context) (string, error)) (*Response, error) {
	ctx, span := tracer.Start(ctx, "llm.complete", trace.WithAttributes(
		attribute.String("llm.provider", c.provider),
		attribute.String("llm.model", c.cfg.Model),
		attribute.String("goalcoach.thread_id", req.ThreadID),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	attempts := 0
	var lastErr error

	for attempts <= c.cfg.MaxRetries {
		if attempts > 0 {
			delay := c.cfg.RetryDelay << (attempts - 1)
			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
		}
		if ctx.Err() != nil {
			break
		}
		attempts++

		text, err := send(ctx)
		if err == nil {
			latency := time.Since(start).Milliseconds()
			c.observer.OnCallComplete(ctx, CallEvent{
				Provider: c.provider, Model: c.cfg.Model, LatencyMs: latency,
				Attempts: attempts, Success: true,
			})
			span.SetAttributes(attribute.Int("llm.attempts", attempts))
			return &Response{Text: text, Model: c.cfg.Model, LatencyMs: latency}, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}

	err := c.classify(ctx, lastErr, attempts)
	c.observer.OnCallComplete(ctx, CallEvent{
		Provider: c.provider, Model: c.cfg.Model, LatencyMs: time.Since(start).Milliseconds(),
		Attempts: attempts, ErrorCode: errorCode(err),
	})
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return nil, err
}

func (c caller) classify(ctx context.Context, err error, attempts int) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrTimeout
	case ctx.Err() != nil:
		return ctx.Err()
	case err == nil:
		return ErrUnavailable
	case isConnectionError(err):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	case !retryable(err) || attempts == 1:
		return err
	}
	return fmt.Errorf("%w: %w", ErrRetryExhausted, err)
}

func isConnectionError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
