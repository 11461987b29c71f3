package adapters

import (
	"time"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/models"
)

var geminiEvents = map[string]models.EventType{
	"BeforeTool":          models.PreToolUse,
	"AfterTool":           models.PostToolUse,
	"BeforeAgent":         models.BeforeAgent,
	"AfterAgent":          models.AfterAgent,
	"BeforeModel":         models.BeforeModel,
	"AfterModel":          models.AfterModel,
	"BeforeToolSelection": models.BeforeToolSelection,
	"SessionStart":        models.SessionStart,
	"SessionEnd":          models.SessionEnd,
	"Notification":        models.Notification,
	"PreCompress":         models.PreCompact,
}

var geminiEventNames = reverse(geminiEvents)

var geminiTools = map[string]string{
	"run_shell_command":   "Bash",
	"write_file":          "Write",
	"replace":             "Edit",
	"read_file":           "Read",
	"glob":                "Glob",
	"search_file_content": "Grep",
	"list_directory":      "LS",
	"web_fetch":           "WebFetch",
	"google_web_search":   "WebSearch",
}

// Gemini adapts Gemini CLI hooks.
type Gemini struct {
	now func() time.Time
}

// NewGemini creates the Gemini CLI adapter.
func NewGemini() *Gemini {
	return &Gemini{now: time.Now}
}

// Name implements Adapter.
func (g *Gemini) Name() string {
	return "gemini"
}

// ParseEvent implements Adapter. BeforeAgent also fires UserPromptSubmit.
func (g *Gemini) ParseEvent(data []byte) (*ParsedEvent, error) {
	f, err := decodeFields(data)
	if err != nil {
		return nil, err
	}

	b := newBuilder(g.Name(), f, canonicalAliases, g.now)
	b.resolveEvent(geminiEvents)
	b.resolveTool(geminiTools)

	parsed := b.finish(f)
	if parsed.Event.EventType == models.BeforeAgent {
		parsed.Additional = []models.EventType{models.UserPromptSubmit}
	}
	return parsed, nil
}

// TranslateResponse implements Adapter. A block is decision "deny" with
// exit code 2.
func (g *Gemini) TranslateResponse(resp *models.Response, event *models.Event) (*Reply, error) {
	body := map[string]any{}
	reply := &Reply{Body: body}

	if !resp.Continue {
		body["decision"] = "deny"
		body["reason"] = resp.Reason
		reply.ExitCode = ExitBlock
		reply.Stderr = resp.Reason
		return reply, nil
	}

	body["decision"] = "allow"
	if resp.Reason != "" {
		body["systemMessage"] = resp.Reason
	}
	if resp.Context != "" {
		specific := map[string]any{}
		if name := vendorEventName(geminiEventNames, event); name != "" {
			specific["hookEventName"] = name
		}
		obj, isObject := contextObject(resp.Context)
		if isObject && event != nil && event.EventType == models.PreToolUse {
			specific["tool_input"] = obj
		} else {
			specific["additionalContext"] = resp.Context
		}
		body["hookSpecificOutput"] = specific
	}
	return reply, nil
}
