package models

import (
	"errors"
	"fmt"
	"time"
)

// EventType identifies a canonical hook lifecycle event.
type EventType string

const (
	PreToolUse          EventType = "PreToolUse"
	PostToolUse         EventType = "PostToolUse"
	PostToolUseFailure  EventType = "PostToolUseFailure"
	UserPromptSubmit    EventType = "UserPromptSubmit"
	SessionStart        EventType = "SessionStart"
	SessionEnd          EventType = "SessionEnd"
	PreCompact          EventType = "PreCompact"
	BeforeAgent         EventType = "BeforeAgent"
	AfterAgent          EventType = "AfterAgent"
	BeforeModel         EventType = "BeforeModel"
	AfterModel          EventType = "AfterModel"
	BeforeToolSelection EventType = "BeforeToolSelection"
	Notification        EventType = "Notification"
	PermissionRequest   EventType = "PermissionRequest"
)

var eventTypes = []EventType{
	PreToolUse,
	PostToolUse,
	PostToolUseFailure,
	UserPromptSubmit,
	SessionStart,
	SessionEnd,
	PreCompact,
	BeforeAgent,
	AfterAgent,
	BeforeModel,
	AfterModel,
	BeforeToolSelection,
	Notification,
	PermissionRequest,
}

// AllEventTypes returns every canonical event type in declaration order.
func AllEventTypes() []EventType {
	out := make([]EventType, len(eventTypes))
	copy(out, eventTypes)
	return out
}

// ParseEventType resolves a canonical event type name.
// Returns false when the name is not part of the canonical set.
func ParseEventType(name string) (EventType, bool) {
	for _, et := range eventTypes {
		if string(et) == name {
			return et, true
		}
	}
	return "", false
}

// ErrMissingField is returned when a required canonical field is absent.
var ErrMissingField = errors.New("missing required field")

// Event is the vendor-agnostic representation of one hook occurrence.
// Adapters build it once per invocation; the pipeline only reads it.
type Event struct {
	EventType      EventType `json:"hook_event_name"`
	ToolName       string    `json:"tool_name,omitempty"`
	ToolInput      Payload   `json:"tool_input,omitempty"`
	SessionID      string    `json:"session_id"`
	Timestamp      time.Time `json:"timestamp"`
	UserID         string    `json:"user_id,omitempty"`
	Cwd            string    `json:"cwd,omitempty"`
	TranscriptPath string    `json:"transcript_path,omitempty"`
	PermissionMode string    `json:"permission_mode,omitempty"`
	ToolUseID      string    `json:"tool_use_id,omitempty"`
	Prompt         string    `json:"prompt,omitempty"`
}

// Validate checks the fields every canonical event must carry.
func (e *Event) Validate() error {
	if e.EventType == "" {
		return fmt.Errorf("%w: hook_event_name", ErrMissingField)
	}
	if e.SessionID == "" {
		return fmt.Errorf("%w: session_id", ErrMissingField)
	}
	return nil
}

// Clone returns a copy of the event with its own top-level tool_input map.
func (e *Event) Clone() *Event {
	clone := *e
	clone.ToolInput = e.ToolInput.Clone()
	return &clone
}

// WithEventType returns a clone of the event carrying a different event type.
func (e *Event) WithEventType(eventType EventType) *Event {
	clone := e.Clone()
	clone.EventType = eventType
	return clone
}

// Command returns tool_input.command when it is a string.
func (e *Event) Command() (string, bool) {
	return e.ToolInput.GetString("command")
}

// FilePath returns the file path the tool operates on.
// tool_input.filePath takes precedence over tool_input.file_path.
func (e *Event) FilePath() (string, bool) {
	if path, ok := e.ToolInput.GetString("filePath"); ok && path != "" {
		return path, true
	}
	if path, ok := e.ToolInput.GetString("file_path"); ok && path != "" {
		return path, true
	}
	return "", false
}

// PromptText returns the submitted prompt, falling back to tool_input.prompt.
func (e *Event) PromptText() (string, bool) {
	if e.Prompt != "" {
		return e.Prompt, true
	}
	return e.ToolInput.GetString("prompt")
}
