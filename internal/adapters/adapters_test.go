package adapters

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/models"
)

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func fixedClock() time.Time {
	return fixedNow
}

func testAdapters() []Adapter {
	copilot := NewCopilot()
	copilot.now = fixedClock
	copilot.newID = func() string { return "fixed-id" }
	claude := NewClaude()
	claude.now = fixedClock
	gemini := NewGemini()
	gemini.now = fixedClock
	openCode := NewOpenCode()
	openCode.now = fixedClock
	return []Adapter{claude, gemini, copilot, openCode}
}

func TestRegistry(t *testing.T) {
	registry := DefaultRegistry()
	assert.Equal(t, []string{"claude", "copilot", "gemini", "opencode"}, registry.Names())

	for _, name := range registry.Names() {
		a, err := registry.Get(name)
		require.NoError(t, err)
		assert.Equal(t, name, a.Name())
	}

	_, err := registry.Get("cursor")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownAdapter)
}

func TestParseEvent_Malformed(t *testing.T) {
	inputs := map[string]string{
		"invalid json":  `{"hook_event_name":`,
		"array payload": `[1, 2]`,
		"null payload":  `null`,
		"trailing data": `{"a":1} {"b":2}`,
	}

	for _, a := range testAdapters() {
		for name, input := range inputs {
			t.Run(a.Name()+"/"+name, func(t *testing.T) {
				got, err := a.ParseEvent([]byte(input))
				require.Error(t, err)
				assert.Nil(t, got)
			})
		}
	}
}

func TestParseEvent_Deterministic(t *testing.T) {
	payloads := map[string]string{
		"claude":   `{"hook_event_name":"PreToolUse","session_id":"s1","tool_name":"Bash","tool_input":{"command":"ls"},"timestamp":"2026-01-01T00:00:00Z","extra":1}`,
		"gemini":   `{"hook_event_name":"BeforeTool","session_id":"s1","tool_name":"run_shell_command","tool_input":{"command":"ls"},"timestamp":1767225600000}`,
		"copilot":  `{"hookEventName":"preToolUse","timestamp":1767225600000,"toolName":"bash","toolArgs":"{\"command\":\"ls\"}"}`,
		"opencode": `{"event":"tool.execute.before","sessionID":"s1","tool":"bash","args":{"command":"ls"},"timestamp":1767225600000}`,
	}

	for _, a := range testAdapters() {
		t.Run(a.Name(), func(t *testing.T) {
			data := []byte(payloads[a.Name()])
			first, err := a.ParseEvent(data)
			require.NoError(t, err)
			second, err := a.ParseEvent(data)
			require.NoError(t, err)
			assert.Equal(t, first, second)

			assert.Equal(t, models.PreToolUse, first.Event.EventType)
			assert.Equal(t, "Bash", first.Event.ToolName)
			assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), first.Event.Timestamp)
			command, ok := first.Event.Command()
			require.True(t, ok)
			assert.Equal(t, "ls", command)
		})
	}
}

func TestClaude_ParseEvent(t *testing.T) {
	c := NewClaude()
	c.now = fixedClock

	tests := []struct {
		name         string
		input        string
		want         *models.Event
		wantWarnings int
	}{
		{
			name: "full payload",
			input: `{"hook_event_name":"PreToolUse","session_id":"s1","tool_name":"Write",
				"tool_input":{"file_path":"src/main.rs","content":"fn main(){}"},
				"cwd":"/repo","transcript_path":"/t.jsonl","permission_mode":"default",
				"tool_use_id":"tu1","user_id":"u1","timestamp":"2026-01-02T03:04:05Z"}`,
			want: &models.Event{
				EventType:      models.PreToolUse,
				ToolName:       "Write",
				ToolInput:      models.Payload{"file_path": "src/main.rs", "content": "fn main(){}"},
				SessionID:      "s1",
				Timestamp:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
				UserID:         "u1",
				Cwd:            "/repo",
				TranscriptPath: "/t.jsonl",
				PermissionMode: "default",
				ToolUseID:      "tu1",
			},
		},
		{
			name:  "event_type alias and missing timestamp",
			input: `{"event_type":"UserPromptSubmit","session_id":"s1","prompt":"hello"}`,
			want: &models.Event{
				EventType: models.UserPromptSubmit,
				SessionID: "s1",
				Prompt:    "hello",
				Timestamp: fixedNow,
			},
		},
		{
			name:  "unmapped event becomes notification",
			input: `{"hook_event_name":"Stop","session_id":"s1","timestamp":0}`,
			want: &models.Event{
				EventType: models.Notification,
				SessionID: "s1",
				ToolInput: models.Payload{"claude_event_name": "Stop"},
				Timestamp: time.Unix(0, 0).UTC(),
			},
		},
		{
			name:  "unknown fields merge first write wins",
			input: `{"hook_event_name":"PreToolUse","session_id":"s1","tool_input":{"command":"ls"},"command":"rm -rf /","stop_hook_active":true}`,
			want: &models.Event{
				EventType: models.PreToolUse,
				SessionID: "s1",
				ToolInput: models.Payload{"command": "ls", "stop_hook_active": true},
				Timestamp: fixedNow,
			},
		},
		{
			name:  "non-object tool_input is dropped",
			input: `{"hook_event_name":"PreToolUse","session_id":"s1","tool_input":"ls"}`,
			want: &models.Event{
				EventType: models.PreToolUse,
				SessionID: "s1",
				Timestamp: fixedNow,
			},
			wantWarnings: 1,
		},
		{
			name:  "bad timestamp falls back to now",
			input: `{"hook_event_name":"SessionStart","session_id":"s1","timestamp":"yesterday"}`,
			want: &models.Event{
				EventType: models.SessionStart,
				SessionID: "s1",
				Timestamp: fixedNow,
			},
			wantWarnings: 1,
		},
		{
			name:  "missing event name stays empty",
			input: `{"session_id":"s1"}`,
			want: &models.Event{
				SessionID: "s1",
				Timestamp: fixedNow,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.ParseEvent([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Event)
			assert.Len(t, got.Warnings, tt.wantWarnings)
			assert.Empty(t, got.Additional)
		})
	}
}

func TestClaude_RoundTrip(t *testing.T) {
	c := NewClaude()
	event := &models.Event{
		EventType:      models.PreToolUse,
		ToolName:       "Bash",
		ToolInput:      models.Payload{"command": "git status", "description": "status"},
		SessionID:      "abc",
		Timestamp:      time.Date(2026, 5, 6, 7, 8, 9, 123000000, time.UTC),
		Cwd:            "/repo",
		PermissionMode: "plan",
		ToolUseID:      "toolu_1",
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	got, err := c.ParseEvent(data)
	require.NoError(t, err)
	assert.Equal(t, event, got.Event)
}

func TestCanonicalization_Idempotent(t *testing.T) {
	// Canonical names pass through every adapter unchanged.
	input := `{"hook_event_name":"PreToolUse","tool_name":"Bash","session_id":"s1","tool_input":{"command":"ls"},"timestamp":"2026-01-01T00:00:00Z"}`

	for _, a := range testAdapters() {
		t.Run(a.Name(), func(t *testing.T) {
			got, err := a.ParseEvent([]byte(input))
			require.NoError(t, err)
			assert.Equal(t, models.PreToolUse, got.Event.EventType)
			assert.Equal(t, "Bash", got.Event.ToolName)
			_, remapped := got.Event.ToolInput.Get(platformToolInputKey)
			assert.False(t, remapped)
		})
	}
}

func TestAllow_RoundTrip(t *testing.T) {
	input := `{"hook_event_name":"PreToolUse","tool_name":"Bash","session_id":"s1","tool_input":{"command":"ls"}}`
	reasonKeys := []string{"reason", "permissionDecisionReason"}

	for _, a := range testAdapters() {
		t.Run(a.Name(), func(t *testing.T) {
			parsed, err := a.ParseEvent([]byte(input))
			require.NoError(t, err)

			reply, err := a.TranslateResponse(models.Allow(), parsed.Event)
			require.NoError(t, err)
			assert.Equal(t, 0, reply.ExitCode)
			assert.Empty(t, reply.Stderr)
			for _, key := range reasonKeys {
				assert.NotContains(t, reply.Body, key)
			}

			_, err = json.Marshal(reply.Body)
			require.NoError(t, err)
		})
	}
}

func TestClaude_TranslateResponse(t *testing.T) {
	c := NewClaude()
	event := &models.Event{EventType: models.PreToolUse}

	tests := []struct {
		name       string
		resp       *models.Response
		wantBody   map[string]any
		wantExit   int
		wantStderr string
	}{
		{
			name:     "allow",
			resp:     models.Allow(),
			wantBody: map[string]any{"continue": true},
		},
		{
			name:       "block",
			resp:       models.Block("Blocked by rule 'no-force'"),
			wantBody:   map[string]any{"continue": false, "reason": "Blocked by rule 'no-force'"},
			wantExit:   ExitBlock,
			wantStderr: "Blocked by rule 'no-force'",
		},
		{
			name: "inject with timing",
			resp: &models.Response{Continue: true, Context: "read the docs", Timing: &models.Timing{ProcessingMs: 3, RulesEvaluated: 2}},
			wantBody: map[string]any{
				"continue": true,
				"context":  "read the docs",
				"hookSpecificOutput": map[string]any{
					"hookEventName":     "PreToolUse",
					"additionalContext": "read the docs",
				},
				"timing": map[string]any{"processing_ms": int64(3), "rules_evaluated": 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.TranslateResponse(tt.resp, event)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, got.Body)
			assert.Equal(t, tt.wantExit, got.ExitCode)
			assert.Equal(t, tt.wantStderr, got.Stderr)
		})
	}
}

func TestGemini_ParseEvent(t *testing.T) {
	g := NewGemini()
	g.now = fixedClock

	t.Run("tool remap keeps the original name", func(t *testing.T) {
		got, err := g.ParseEvent([]byte(`{"hook_event_name":"BeforeTool","session_id":"s1","tool_name":"run_shell_command","tool_input":{"command":"rm -rf /"}}`))
		require.NoError(t, err)
		assert.Equal(t, models.PreToolUse, got.Event.EventType)
		assert.Equal(t, "Bash", got.Event.ToolName)
		assert.Equal(t, models.Payload{
			"command":            "rm -rf /",
			platformToolInputKey: map[string]any{platformToolNameKey: "run_shell_command"},
		}, got.Event.ToolInput)
	})

	t.Run("before agent dual fires user prompt submit", func(t *testing.T) {
		got, err := g.ParseEvent([]byte(`{"hook_event_name":"BeforeAgent","session_id":"s1","prompt":"deploy now"}`))
		require.NoError(t, err)
		assert.Equal(t, []models.EventType{models.UserPromptSubmit}, got.Additional)

		events := got.Events()
		require.Len(t, events, 2)
		assert.Equal(t, models.BeforeAgent, events[0].EventType)
		assert.Equal(t, models.UserPromptSubmit, events[1].EventType)
		assert.Equal(t, "deploy now", events[1].Prompt)
		assert.NotSame(t, events[0], events[1])
	})

	t.Run("event names", func(t *testing.T) {
		tests := map[string]models.EventType{
			"AfterTool":           models.PostToolUse,
			"PreCompress":         models.PreCompact,
			"BeforeToolSelection": models.BeforeToolSelection,
			"SessionEnd":          models.SessionEnd,
		}
		for name, want := range tests {
			got, err := g.ParseEvent([]byte(`{"hook_event_name":"` + name + `","session_id":"s1"}`))
			require.NoError(t, err)
			assert.Equal(t, want, got.Event.EventType, name)
			assert.Empty(t, got.Additional, name)
		}
	})

	t.Run("unmapped event", func(t *testing.T) {
		got, err := g.ParseEvent([]byte(`{"hook_event_name":"OnSomethingNew","session_id":"s1"}`))
		require.NoError(t, err)
		assert.Equal(t, models.Notification, got.Event.EventType)
		assert.Equal(t, models.Payload{"gemini_event_name": "OnSomethingNew"}, got.Event.ToolInput)
	})
}

func TestGemini_TranslateResponse(t *testing.T) {
	g := NewGemini()

	t.Run("deny exits with code 2", func(t *testing.T) {
		got, err := g.TranslateResponse(models.Block("no"), &models.Event{EventType: models.PreToolUse})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"decision": "deny", "reason": "no"}, got.Body)
		assert.Equal(t, ExitBlock, got.ExitCode)
		assert.Equal(t, "no", got.Stderr)
	})

	t.Run("context for before tool object rewrites tool input", func(t *testing.T) {
		got, err := g.TranslateResponse(models.Inject(`{"command":"ls -la"}`), &models.Event{EventType: models.PreToolUse})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"decision": "allow",
			"hookSpecificOutput": map[string]any{
				"hookEventName": "BeforeTool",
				"tool_input":    map[string]any{"command": "ls -la"},
			},
		}, got.Body)
		assert.Equal(t, 0, got.ExitCode)
	})

	t.Run("plain context with warnings", func(t *testing.T) {
		resp := models.Inject("remember the style guide")
		resp.Reason = "rule 'x' failed"
		got, err := g.TranslateResponse(resp, &models.Event{EventType: models.BeforeAgent})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"decision":      "allow",
			"systemMessage": "rule 'x' failed",
			"hookSpecificOutput": map[string]any{
				"hookEventName":     "BeforeAgent",
				"additionalContext": "remember the style guide",
			},
		}, got.Body)
	})
}

func TestCopilot_ParseEvent(t *testing.T) {
	c := NewCopilot()
	c.now = fixedClock
	c.newID = func() string { return "1234" }

	t.Run("tool args string is decoded", func(t *testing.T) {
		got, err := c.ParseEvent([]byte(`{"hookEventName":"preToolUse","sessionId":"s9","toolName":"shell","toolArgs":"{\"command\":\"npm test\"}","cwd":"/w"}`))
		require.NoError(t, err)
		assert.Equal(t, &models.Event{
			EventType: models.PreToolUse,
			ToolName:  "Bash",
			SessionID: "s9",
			Cwd:       "/w",
			Timestamp: fixedNow,
			ToolInput: models.Payload{
				"command":            "npm test",
				platformToolInputKey: map[string]any{platformToolNameKey: "shell"},
			},
		}, got.Event)
	})

	t.Run("missing session id is generated", func(t *testing.T) {
		got, err := c.ParseEvent([]byte(`{"hookEventName":"sessionStart","source":"new"}`))
		require.NoError(t, err)
		assert.Equal(t, "copilot-1234", got.Event.SessionID)
		assert.Equal(t, models.SessionStart, got.Event.EventType)
		assert.Equal(t, models.Payload{"source": "new"}, got.Event.ToolInput)
	})

	t.Run("failed post tool use dual fires", func(t *testing.T) {
		got, err := c.ParseEvent([]byte(`{"hookEventName":"postToolUse","sessionId":"s1","toolName":"bash","toolArgs":"{}","toolResult":{"resultType":"failure","textResultForLlm":"exit 1"}}`))
		require.NoError(t, err)
		assert.Equal(t, models.PostToolUse, got.Event.EventType)
		assert.Equal(t, []models.EventType{models.PostToolUseFailure}, got.Additional)
	})

	t.Run("successful post tool use fires once", func(t *testing.T) {
		got, err := c.ParseEvent([]byte(`{"hookEventName":"postToolUse","sessionId":"s1","toolResult":{"resultType":"success"}}`))
		require.NoError(t, err)
		assert.Empty(t, got.Additional)
	})

	t.Run("error occurred", func(t *testing.T) {
		got, err := c.ParseEvent([]byte(`{"hookEventName":"errorOccurred","sessionId":"s1","error":{"message":"boom"}}`))
		require.NoError(t, err)
		assert.Equal(t, models.PostToolUseFailure, got.Event.EventType)
	})

	t.Run("event name from the command line", func(t *testing.T) {
		named := c.WithEventName("userPromptSubmitted")
		got, err := named.ParseEvent([]byte(`{"sessionId":"s1","prompt":"ship it"}`))
		require.NoError(t, err)
		assert.Equal(t, models.UserPromptSubmit, got.Event.EventType)
		assert.Equal(t, "ship it", got.Event.Prompt)
		assert.Empty(t, c.eventName, "WithEventName must not modify the receiver")
	})

	t.Run("invalid tool args are dropped", func(t *testing.T) {
		got, err := c.ParseEvent([]byte(`{"hookEventName":"preToolUse","sessionId":"s1","toolArgs":"not json"}`))
		require.NoError(t, err)
		assert.Nil(t, got.Event.ToolInput)
		assert.Len(t, got.Warnings, 1)
	})
}

func TestCopilot_TranslateResponse(t *testing.T) {
	c := NewCopilot()

	tests := []struct {
		name     string
		resp     *models.Response
		wantBody map[string]any
	}{
		{
			name:     "deny",
			resp:     models.Block("nope"),
			wantBody: map[string]any{"permissionDecision": "deny", "permissionDecisionReason": "nope"},
		},
		{
			name:     "allow",
			resp:     models.Allow(),
			wantBody: map[string]any{"permissionDecision": "allow"},
		},
		{
			name:     "context",
			resp:     models.Inject("be careful"),
			wantBody: map[string]any{"permissionDecision": "allow", "additionalContext": "be careful"},
		},
		{
			name:     "modified args",
			resp:     models.Inject(`{"command":"ls"}`),
			wantBody: map[string]any{"permissionDecision": "allow", "modifiedArgs": map[string]any{"command": "ls"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.TranslateResponse(tt.resp, &models.Event{EventType: models.PreToolUse})
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, got.Body)
			assert.Equal(t, 0, got.ExitCode)
		})
	}
}

func TestOpenCode_ParseEvent(t *testing.T) {
	o := NewOpenCode()
	o.now = fixedClock

	tests := []struct {
		name           string
		input          string
		wantEvent      models.EventType
		wantTool       string
		wantAdditional []models.EventType
		wantPrompt     string
	}{
		{
			name:      "before tool",
			input:     `{"event":"tool.execute.before","sessionID":"s1","tool":"bash","args":{"command":"ls"}}`,
			wantEvent: models.PreToolUse,
			wantTool:  "Bash",
		},
		{
			name:           "after tool with error dual fires",
			input:          `{"event":"tool.execute.after","sessionID":"s1","tool":"edit","error":"patch failed"}`,
			wantEvent:      models.PostToolUse,
			wantTool:       "Edit",
			wantAdditional: []models.EventType{models.PostToolUseFailure},
		},
		{
			name:      "after tool without error",
			input:     `{"event":"tool.execute.after","sessionID":"s1","tool":"list","error":""}`,
			wantEvent: models.PostToolUse,
			wantTool:  "LS",
		},
		{
			name:       "chat message",
			input:      `{"event":"chat.message","sessionID":"s1","message":"drop the table"}`,
			wantEvent:  models.UserPromptSubmit,
			wantPrompt: "drop the table",
		},
		{
			name:      "permission ask",
			input:     `{"event":"permission.ask","sessionID":"s1"}`,
			wantEvent: models.PermissionRequest,
		},
		{
			name:      "session compacted",
			input:     `{"event":"session.compacted","sessionID":"s1"}`,
			wantEvent: models.PreCompact,
		},
		{
			name:      "session idle",
			input:     `{"event":"session.idle","sessionID":"s1"}`,
			wantEvent: models.Notification,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := o.ParseEvent([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.wantEvent, got.Event.EventType)
			assert.Equal(t, tt.wantTool, got.Event.ToolName)
			assert.Equal(t, tt.wantAdditional, got.Additional)
			assert.Equal(t, tt.wantPrompt, got.Event.Prompt)
			assert.Equal(t, "s1", got.Event.SessionID)
		})
	}
}

func TestOpenCode_TranslateResponse(t *testing.T) {
	o := NewOpenCode()

	got, err := o.TranslateResponse(models.Block("stop"), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"continue": false, "reason": "stop"}, got.Body)
	assert.Equal(t, 0, got.ExitCode)

	got, err = o.TranslateResponse(models.Inject(`{"command":"ls"}`), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"continue": true, "tool_input": map[string]any{"command": "ls"}}, got.Body)

	got, err = o.TranslateResponse(models.Inject("hint"), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"continue": true, "context": "hint"}, got.Body)
}
