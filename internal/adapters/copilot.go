package adapters

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/models"
)

var copilotEvents = map[string]models.EventType{
	"preToolUse":          models.PreToolUse,
	"postToolUse":         models.PostToolUse,
	"userPromptSubmitted": models.UserPromptSubmit,
	"sessionStart":        models.SessionStart,
	"sessionEnd":          models.SessionEnd,
	"errorOccurred":       models.PostToolUseFailure,
}

var copilotTools = map[string]string{
	"bash":       "Bash",
	"shell":      "Bash",
	"powershell": "Bash",
	"edit":       "Edit",
	"create":     "Write",
	"view":       "Read",
	"glob":       "Glob",
	"grep":       "Grep",
	"web_fetch":  "WebFetch",
}

var copilotAliases = aliases{
	event:          []string{"hookEventName", "hook_event_name", "event"},
	tool:           []string{"toolName", "tool_name"},
	toolInput:      []string{"tool_input"},
	session:        []string{"sessionId", "session_id"},
	timestamp:      []string{"timestamp"},
	userID:         []string{"userId", "user_id"},
	cwd:            []string{"cwd"},
	transcript:     []string{"transcriptPath", "transcript_path"},
	permissionMode: []string{"permissionMode", "permission_mode"},
	toolUseID:      []string{"toolUseId", "tool_use_id"},
	prompt:         []string{"prompt"},
}

// failedResultTypes are toolResult.resultType values that also fire
// PostToolUseFailure.
var failedResultTypes = []string{"failure", "error"}

// Copilot adapts GitHub Copilot CLI hooks. Copilot names the event in its
// hook configuration rather than the payload, so the name can be supplied
// with WithEventName.
type Copilot struct {
	now       func() time.Time
	newID     func() string
	eventName string
}

// NewCopilot creates the Copilot CLI adapter.
func NewCopilot() *Copilot {
	return &Copilot{now: time.Now, newID: uuid.NewString}
}

// Name implements Adapter.
func (c *Copilot) Name() string {
	return "copilot"
}

// WithEventName implements EventNamer.
func (c *Copilot) WithEventName(name string) Adapter {
	clone := *c
	clone.eventName = name
	return &clone
}

// ParseEvent implements Adapter.
func (c *Copilot) ParseEvent(data []byte) (*ParsedEvent, error) {
	f, err := decodeFields(data)
	if err != nil {
		return nil, err
	}

	toolArgs, hasToolArgs := f.take("toolArgs")

	b := newBuilder(c.Name(), f, copilotAliases, c.now)
	if c.eventName != "" {
		b.eventName = c.eventName
	}
	if b.event.SessionID == "" {
		b.event.SessionID = "copilot-" + c.newID()
	}
	if hasToolArgs {
		if b.event.ToolInput == nil {
			b.setToolArgs(toolArgs)
		} else {
			f["toolArgs"] = toolArgs
		}
	}

	b.resolveEvent(copilotEvents)
	b.resolveTool(copilotTools)

	failed := b.event.EventType == models.PostToolUse && toolFailed(f["toolResult"])
	parsed := b.finish(f)
	if failed {
		parsed.Additional = []models.EventType{models.PostToolUseFailure}
	}
	return parsed, nil
}

// setToolArgs decodes toolArgs, which Copilot sends as a JSON string.
func (b *builder) setToolArgs(raw any) {
	switch v := raw.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(v), &obj); err != nil || obj == nil {
			b.warn("toolArgs is not a JSON object; ignored")
			return
		}
		b.event.ToolInput = models.Payload(obj)
	default:
		b.setToolInput(raw)
	}
}

func toolFailed(result any) bool {
	obj, ok := result.(map[string]any)
	if !ok {
		return false
	}
	resultType, _ := obj["resultType"].(string)
	for _, failed := range failedResultTypes {
		if strings.EqualFold(resultType, failed) {
			return true
		}
	}
	return false
}

// TranslateResponse implements Adapter. Copilot reads permissionDecision
// from stdout, so the exit code stays 0.
func (c *Copilot) TranslateResponse(resp *models.Response, _ *models.Event) (*Reply, error) {
	body := map[string]any{}

	if !resp.Continue {
		body["permissionDecision"] = "deny"
		body["permissionDecisionReason"] = resp.Reason
		return &Reply{Body: body}, nil
	}

	body["permissionDecision"] = "allow"
	if resp.Reason != "" {
		body["permissionDecisionReason"] = resp.Reason
	}
	if resp.Context != "" {
		if obj, ok := contextObject(resp.Context); ok {
			body["modifiedArgs"] = obj
		} else {
			body["additionalContext"] = resp.Context
		}
	}
	return &Reply{Body: body}, nil
}
