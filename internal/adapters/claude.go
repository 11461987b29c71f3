package adapters

import (
	"time"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/models"
)

// Claude is the native adapter: Claude Code's event and tool names are
// the canonical names.
type Claude struct {
	now func() time.Time
}

// NewClaude creates the Claude Code adapter.
func NewClaude() *Claude {
	return &Claude{now: time.Now}
}

// Name implements Adapter.
func (c *Claude) Name() string {
	return "claude"
}

// ParseEvent implements Adapter.
func (c *Claude) ParseEvent(data []byte) (*ParsedEvent, error) {
	f, err := decodeFields(data)
	if err != nil {
		return nil, err
	}

	b := newBuilder(c.Name(), f, canonicalAliases, c.now)
	b.resolveEvent(nil)
	return b.finish(f), nil
}

// TranslateResponse implements Adapter. A block exits with code 2 and
// the reason on stderr.
func (c *Claude) TranslateResponse(resp *models.Response, event *models.Event) (*Reply, error) {
	body := map[string]any{"continue": resp.Continue}
	if resp.Reason != "" {
		body["reason"] = resp.Reason
	}
	if resp.Context != "" {
		body["context"] = resp.Context
		specific := map[string]any{"additionalContext": resp.Context}
		if event != nil && event.EventType != "" {
			specific["hookEventName"] = string(event.EventType)
		}
		body["hookSpecificOutput"] = specific
	}
	if timing := timingBody(resp); timing != nil {
		body["timing"] = timing
	}

	reply := &Reply{Body: body}
	if !resp.Continue {
		reply.ExitCode = ExitBlock
		reply.Stderr = resp.Reason
	}
	return reply, nil
}
