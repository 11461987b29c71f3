package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/adapters"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/config"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/logging"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/models"
)

var (
	// ErrMalformedEvent is returned for payloads that cannot become a
	// valid canonical event. It is fatal, never a policy decision.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrInvalidConfig is returned when the configuration fails to load.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// NoInputReason is the reason given when stdin carried nothing.
const NoInputReason = "no input received"

// LoadConfig resolves the configuration from an explicit path, the
// environment, or the fallback order. Failures wrap ErrInvalidConfig.
func LoadConfig(env config.Env, explicitPath, root string) (*config.Config, error) {
	cfg, err := env.Resolve(explicitPath, root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Processor turns one hook invocation payload into one vendor reply.
type Processor struct {
	adapter adapters.Adapter
	engine  *Engine
	logger  *slog.Logger
}

// NewProcessor creates a processor evaluating adapter payloads with engine.
func NewProcessor(adapter adapters.Adapter, engine *Engine, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Processor{
		adapter: adapter,
		engine:  engine,
		logger:  logger,
	}
}

// Process parses data, evaluates every fired event and translates the
// merged response. Only malformed input is returned as an error; internal
// failures produce an Allow reply carrying the error text.
func (p *Processor) Process(ctx context.Context, data []byte) (*adapters.Reply, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		resp := models.Allow()
		resp.Reason = NoInputReason
		return p.adapter.TranslateResponse(resp, &models.Event{})
	}

	parsed, err := p.adapter.ParseEvent(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	for _, warning := range parsed.Warnings {
		p.logger.Warn("payload normalized", "adapter", p.adapter.Name(), "detail", warning)
	}

	events := parsed.Events()
	for _, event := range events {
		if err := event.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
		}
	}

	resp, err := p.evaluateAll(ctx, events)
	if err != nil {
		p.logger.Error("evaluation failed, allowing", "error", err)
		resp = models.Allow()
		resp.Reason = err.Error()
	}

	reply, err := p.adapter.TranslateResponse(resp, parsed.Event)
	if err != nil {
		return nil, fmt.Errorf("failed to translate response: %w", err)
	}
	return reply, nil
}

// evaluateAll runs dual-fire events in order. A Block stops the rest.
func (p *Processor) evaluateAll(ctx context.Context, events []*models.Event) (*models.Response, error) {
	responses := make([]*models.Response, 0, len(events))
	for _, event := range events {
		eval, err := p.evaluate(ctx, event)
		if err != nil {
			return nil, err
		}
		responses = append(responses, eval.Response)
		if !eval.Response.Continue {
			break
		}
	}
	return mergeResponses(responses), nil
}

func (p *Processor) evaluate(ctx context.Context, event *models.Event) (eval *Evaluation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error evaluating %s: %v", event.EventType, r)
		}
	}()

	eval, err = p.engine.Evaluate(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", event.EventType, err)
	}
	return eval, nil
}
