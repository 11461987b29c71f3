// Package adapters translates vendor hook payloads into canonical events
// and canonical responses back into vendor replies.
package adapters

import (
	"errors"
	"fmt"
	"slices"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/models"
)

// ExitBlock is the exit code vendors read as "block the action".
const ExitBlock = 2

// ErrUnknownAdapter is returned by Registry.Get for unregistered names.
var ErrUnknownAdapter = errors.New("unknown adapter")

// Adapter converts between one vendor's hook protocol and the canonical model.
type Adapter interface {
	// Name is the subcommand the adapter is registered under.
	Name() string
	// ParseEvent decodes a vendor payload. Malformed JSON is an error;
	// unknown event names are not.
	ParseEvent(data []byte) (*ParsedEvent, error)
	// TranslateResponse renders the vendor reply for resp.
	TranslateResponse(resp *models.Response, event *models.Event) (*Reply, error)
}

// EventNamer is implemented by adapters whose vendor passes the event
// name outside the payload, for example on the command line.
type EventNamer interface {
	WithEventName(name string) Adapter
}

// ParsedEvent is the canonical form of one vendor payload.
type ParsedEvent struct {
	Event *models.Event
	// Additional lists extra event types the same payload fires.
	Additional []models.EventType
	// Warnings describe payload parts that were dropped.
	Warnings []string
}

// Events returns the primary event followed by one clone per
// additional event type.
func (p *ParsedEvent) Events() []*models.Event {
	events := make([]*models.Event, 0, 1+len(p.Additional))
	events = append(events, p.Event)
	for _, eventType := range p.Additional {
		events = append(events, p.Event.WithEventType(eventType))
	}
	return events
}

// Reply is what the hook process writes and how it exits.
type Reply struct {
	Body     map[string]any
	ExitCode int
	// Stderr is written to standard error when non-empty.
	Stderr string
}

// Registry maps subcommand names to adapters.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry registers adapters by name. Later duplicates replace earlier ones.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

// DefaultRegistry contains every built-in adapter.
func DefaultRegistry() *Registry {
	return NewRegistry(NewClaude(), NewGemini(), NewCopilot(), NewOpenCode())
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAdapter, name)
	}
	return a, nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
