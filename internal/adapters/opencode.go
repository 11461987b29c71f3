package adapters

import (
	"time"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/models"
)

var openCodeEvents = map[string]models.EventType{
	"tool.execute.before": models.PreToolUse,
	"tool.execute.after":  models.PostToolUse,
	"session.created":     models.SessionStart,
	"session.deleted":     models.SessionEnd,
	"session.compacted":   models.PreCompact,
	"chat.message":        models.UserPromptSubmit,
	"permission.ask":      models.PermissionRequest,
	"session.idle":        models.Notification,
}

var openCodeTools = map[string]string{
	"bash":     "Bash",
	"write":    "Write",
	"edit":     "Edit",
	"read":     "Read",
	"glob":     "Glob",
	"grep":     "Grep",
	"webfetch": "WebFetch",
	"list":     "LS",
}

var openCodeAliases = aliases{
	event:          []string{"hook_event_name", "event", "type"},
	tool:           []string{"tool_name", "tool"},
	toolInput:      []string{"tool_input", "args"},
	session:        []string{"session_id", "sessionID", "sessionId"},
	timestamp:      []string{"timestamp"},
	userID:         []string{"user_id"},
	cwd:            []string{"cwd", "directory"},
	transcript:     []string{"transcript_path"},
	permissionMode: []string{"permission_mode"},
	toolUseID:      []string{"tool_use_id", "callID"},
	prompt:         []string{"prompt"},
}

// OpenCode adapts the OpenCode plugin bridge.
type OpenCode struct {
	now func() time.Time
}

// NewOpenCode creates the OpenCode adapter.
func NewOpenCode() *OpenCode {
	return &OpenCode{now: time.Now}
}

// Name implements Adapter.
func (o *OpenCode) Name() string {
	return "opencode"
}

// ParseEvent implements Adapter. tool.execute.after with an error also
// fires PostToolUseFailure.
func (o *OpenCode) ParseEvent(data []byte) (*ParsedEvent, error) {
	f, err := decodeFields(data)
	if err != nil {
		return nil, err
	}

	b := newBuilder(o.Name(), f, openCodeAliases, o.now)
	if b.event.Prompt == "" {
		if message, ok := f["message"].(string); ok {
			b.event.Prompt = message
			delete(f, "message")
		}
	}
	b.resolveEvent(openCodeEvents)
	b.resolveTool(openCodeTools)

	failed := b.event.EventType == models.PostToolUse && hasError(f["error"])
	parsed := b.finish(f)
	if failed {
		parsed.Additional = []models.EventType{models.PostToolUseFailure}
	}
	return parsed, nil
}

func hasError(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	default:
		return true
	}
}

// TranslateResponse implements Adapter. The plugin reads the continue
// field, so the exit code stays 0.
func (o *OpenCode) TranslateResponse(resp *models.Response, _ *models.Event) (*Reply, error) {
	body := map[string]any{"continue": resp.Continue}
	if resp.Reason != "" {
		body["reason"] = resp.Reason
	}
	if resp.Context != "" {
		if obj, ok := contextObject(resp.Context); ok {
			body["tool_input"] = obj
		} else {
			body["context"] = resp.Context
		}
	}
	return &Reply{Body: body}, nil
}
