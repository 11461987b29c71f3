package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePayload(t *testing.T, raw string) Payload {
	t.Helper()
	if raw == "" {
		return nil
	}
	var p Payload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return p
}

func TestPayload_GetString(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		key       string
		wantValue string
		wantOk    bool
	}{
		{
			name:      "existing string argument",
			input:     `{"command": "ls -la"}`,
			key:       "command",
			wantValue: "ls -la",
			wantOk:    true,
		},
		{
			name:   "non-existent argument",
			input:  `{"command": "ls -la"}`,
			key:    "nonexistent",
			wantOk: false,
		},
		{
			name:   "non-string argument",
			input:  `{"count": 123}`,
			key:    "count",
			wantOk: false,
		},
		{
			name:   "empty payload",
			input:  `{}`,
			key:    "command",
			wantOk: false,
		},
		{
			name:   "nil payload",
			input:  "",
			key:    "command",
			wantOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := decodePayload(t, tt.input)
			gotValue, gotOk := p.GetString(tt.key)
			assert.Equal(t, tt.wantValue, gotValue)
			assert.Equal(t, tt.wantOk, gotOk)
		})
	}
}

func TestPayload_GetBool(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		key       string
		wantValue bool
		wantOk    bool
	}{
		{
			name:      "existing bool argument true",
			input:     `{"enabled": true}`,
			key:       "enabled",
			wantValue: true,
			wantOk:    true,
		},
		{
			name:      "existing bool argument false",
			input:     `{"enabled": false}`,
			key:       "enabled",
			wantValue: false,
			wantOk:    true,
		},
		{
			name:   "non-bool argument",
			input:  `{"name": "test"}`,
			key:    "name",
			wantOk: false,
		},
		{
			name:   "nil payload",
			input:  "",
			key:    "enabled",
			wantOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := decodePayload(t, tt.input)
			gotValue, gotOk := p.GetBool(tt.key)
			assert.Equal(t, tt.wantValue, gotValue)
			assert.Equal(t, tt.wantOk, gotOk)
		})
	}
}

func TestPayload_Lookup(t *testing.T) {
	p := decodePayload(t, `{"a": {"b": {"c": 1}}, "list": [1, 2], "s": "x"}`)

	tests := []struct {
		name      string
		path      string
		wantValue any
		wantOk    bool
	}{
		{name: "top level", path: "s", wantValue: "x", wantOk: true},
		{name: "nested", path: "a.b.c", wantValue: float64(1), wantOk: true},
		{name: "intermediate object", path: "a.b", wantValue: map[string]any{"c": float64(1)}, wantOk: true},
		{name: "missing leaf", path: "a.b.d", wantOk: false},
		{name: "missing intermediate", path: "x.y", wantOk: false},
		{name: "through a non-object", path: "s.len", wantOk: false},
		{name: "through an array", path: "list.0", wantOk: false},
		{name: "empty path", path: "", wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.Lookup(tt.path)
			assert.Equal(t, tt.wantOk, ok)
			if tt.wantOk {
				assert.Equal(t, tt.wantValue, got)
			}
		})
	}
}

func TestPayload_SetDefault(t *testing.T) {
	p := Payload{"command": "ls"}
	p.SetDefault("command", "rm")
	p.SetDefault("cwd", "/tmp")

	assert.Equal(t, "ls", p["command"])
	assert.Equal(t, "/tmp", p["cwd"])
}

func TestPayload_Clone(t *testing.T) {
	var nilPayload Payload
	assert.Nil(t, nilPayload.Clone())

	p := Payload{"command": "ls"}
	clone := p.Clone()
	clone["command"] = "rm"
	assert.Equal(t, "ls", p["command"])
}

func TestJSONType(t *testing.T) {
	p := decodePayload(t, `{"s": "x", "n": 1.5, "b": true, "a": [], "o": {}, "z": null}`)

	tests := []struct {
		key  string
		want string
	}{
		{key: "s", want: "string"},
		{key: "n", want: "number"},
		{key: "b", want: "boolean"},
		{key: "a", want: "array"},
		{key: "o", want: "object"},
		{key: "z", want: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, JSONType(p[tt.key]))
		})
	}

	assert.Equal(t, "number", JSONType(42))
	assert.Equal(t, "object", JSONType(Payload{}))
	assert.Equal(t, "unknown", JSONType(struct{}{}))
}
