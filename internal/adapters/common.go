package adapters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/models"
)

const (
	// platformToolInputKey holds vendor details that canonicalization replaced.
	platformToolInputKey = "platform_tool_input"
	platformToolNameKey  = "platform_tool_name"
)

// fields is a decoded top-level payload. Known keys are taken out as the
// event is built; whatever remains is merged into tool_input.
type fields map[string]any

func decodeFields(data []byte) (fields, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("failed to decode JSON: payload must be an object")
	}
	if dec.More() {
		return nil, fmt.Errorf("failed to decode JSON: trailing data after object")
	}
	return fields(raw), nil
}

// take removes every alias and returns the first present value.
func (f fields) take(keys ...string) (any, bool) {
	var (
		value any
		found bool
	)
	for _, key := range keys {
		v, ok := f[key]
		if !ok {
			continue
		}
		delete(f, key)
		if !found {
			value, found = v, true
		}
	}
	return value, found
}

// takeString removes the aliases and returns the first string value.
func (f fields) takeString(keys ...string) string {
	value, ok := f.take(keys...)
	if !ok {
		return ""
	}
	s, _ := value.(string)
	return s
}

// aliases lists the payload keys each canonical field may arrive under.
type aliases struct {
	event          []string
	tool           []string
	toolInput      []string
	session        []string
	timestamp      []string
	userID         []string
	cwd            []string
	transcript     []string
	permissionMode []string
	toolUseID      []string
	prompt         []string
}

var canonicalAliases = aliases{
	event:          []string{"hook_event_name", "event_type"},
	tool:           []string{"tool_name"},
	toolInput:      []string{"tool_input"},
	session:        []string{"session_id"},
	timestamp:      []string{"timestamp"},
	userID:         []string{"user_id"},
	cwd:            []string{"cwd"},
	transcript:     []string{"transcript_path"},
	permissionMode: []string{"permission_mode"},
	toolUseID:      []string{"tool_use_id"},
	prompt:         []string{"prompt"},
}

// builder accumulates one canonical event from vendor fields.
type builder struct {
	vendor    string
	event     *models.Event
	eventName string
	warnings  []string
}

// newBuilder takes the aliased fields out of f. The event type and tool
// name are left for the adapter to resolve.
func newBuilder(vendor string, f fields, a aliases, now func() time.Time) *builder {
	b := &builder{vendor: vendor, event: &models.Event{}}
	b.eventName = f.takeString(a.event...)

	b.event.ToolName = f.takeString(a.tool...)
	if raw, ok := f.take(a.toolInput...); ok {
		b.setToolInput(raw)
	}

	b.event.SessionID = f.takeString(a.session...)
	b.event.UserID = f.takeString(a.userID...)
	b.event.Cwd = f.takeString(a.cwd...)
	b.event.TranscriptPath = f.takeString(a.transcript...)
	b.event.PermissionMode = f.takeString(a.permissionMode...)
	b.event.ToolUseID = f.takeString(a.toolUseID...)
	if prompt, ok := f.take(a.prompt...); ok {
		if s, isString := prompt.(string); isString {
			b.event.Prompt = s
		} else if prompt != nil {
			b.warn("prompt is %s, not a string; ignored", models.JSONType(prompt))
		}
	}

	b.event.Timestamp = now().UTC()
	if raw, ok := f.take(a.timestamp...); ok {
		if ts, parsed := models.ParseTimestamp(raw); parsed {
			b.event.Timestamp = ts
		} else {
			b.warn("unparseable timestamp %v; using current time", raw)
		}
	}

	return b
}

func (b *builder) warn(format string, args ...any) {
	b.warnings = append(b.warnings, fmt.Sprintf(format, args...))
}

// setToolInput accepts an object. Anything else is dropped with a warning.
func (b *builder) setToolInput(raw any) {
	switch v := raw.(type) {
	case nil:
	case map[string]any:
		b.event.ToolInput = models.Payload(v)
	default:
		b.warn("tool_input is %s, not an object; ignored", models.JSONType(raw))
	}
}

func (b *builder) toolInput() models.Payload {
	if b.event.ToolInput == nil {
		b.event.ToolInput = models.Payload{}
	}
	return b.event.ToolInput
}

// resolveEvent maps the vendor event name through table. Canonical names
// map to themselves; anything else becomes Notification and the original
// name is kept under "<vendor>_event_name".
func (b *builder) resolveEvent(table map[string]models.EventType) {
	name := b.eventName
	if name == "" {
		return
	}
	if eventType, ok := table[name]; ok {
		b.event.EventType = eventType
		return
	}
	if eventType, ok := models.ParseEventType(name); ok {
		b.event.EventType = eventType
		return
	}
	b.event.EventType = models.Notification
	b.toolInput()[b.vendor+"_event_name"] = name
}

// resolveTool maps the vendor tool name through table and records the
// original name only when it changed.
func (b *builder) resolveTool(table map[string]string) {
	original := b.event.ToolName
	canonical, ok := table[original]
	if !ok || canonical == original {
		return
	}
	b.event.ToolName = canonical

	input := b.toolInput()
	platform, ok := input[platformToolInputKey].(map[string]any)
	if !ok {
		platform = map[string]any{}
		input[platformToolInputKey] = platform
	}
	platform[platformToolNameKey] = original
}

// finish merges the remaining top-level fields into tool_input. Keys
// already present win.
func (b *builder) finish(f fields) *ParsedEvent {
	if len(f) > 0 {
		input := b.toolInput()
		for key, value := range f {
			input.SetDefault(key, value)
		}
	}
	return &ParsedEvent{Event: b.event, Warnings: b.warnings}
}

// contextObject decodes a JSON object context, used by vendors that
// accept rewritten tool arguments.
func contextObject(context string) (map[string]any, bool) {
	trimmed := strings.TrimSpace(context)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func timingBody(resp *models.Response) map[string]any {
	if resp.Timing == nil {
		return nil
	}
	return map[string]any{
		"processing_ms":   resp.Timing.ProcessingMs,
		"rules_evaluated": resp.Timing.RulesEvaluated,
	}
}

// reverse inverts an event table; the first vendor name for each
// canonical type wins, following sorted vendor names.
func reverse(table map[string]models.EventType) map[models.EventType]string {
	out := make(map[models.EventType]string, len(table))
	for name, eventType := range table {
		if existing, ok := out[eventType]; !ok || name < existing {
			out[eventType] = name
		}
	}
	return out
}

// vendorEventName returns the vendor's name for event, falling back to
// the canonical name.
func vendorEventName(names map[models.EventType]string, event *models.Event) string {
	if event == nil {
		return ""
	}
	if name, ok := names[event.EventType]; ok {
		return name
	}
	return string(event.EventType)
}
