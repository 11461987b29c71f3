package models

import "time"

// Outcome is the aggregate result recorded in the audit log.
type Outcome string

const (
	OutcomeAllow  Outcome = "Allow"
	OutcomeBlock  Outcome = "Block"
	OutcomeInject Outcome = "Inject"
)

// RuleEvaluation is the per-rule trace recorded in debug mode.
type RuleEvaluation struct {
	RuleName   string   `json:"rule_name"`
	Priority   int      `json:"priority"`
	Enabled    bool     `json:"enabled"`
	Matched    bool     `json:"matched"`
	Mode       string   `json:"mode,omitempty"`
	Actions    []string `json:"actions,omitempty"`
	Detail     string   `json:"detail,omitempty"`
	DurationMs int64    `json:"duration_ms"`
}

// ResponseSummary is a compact copy of the response for debug records.
type ResponseSummary struct {
	Continue      bool   `json:"continue"`
	Reason        string `json:"reason,omitempty"`
	ContextLength int    `json:"context_length"`
}

// LogEntry is one append-only audit record.
type LogEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	InvocationID string    `json:"invocation_id"`
	Platform     string    `json:"platform,omitempty"`
	EventType    EventType `json:"event_type"`
	SessionID    string    `json:"session_id"`
	ToolName     string    `json:"tool_name,omitempty"`
	RulesMatched []string  `json:"rules_matched"`
	Outcome      Outcome   `json:"outcome"`
	Reason       string    `json:"reason,omitempty"`
	Timing       Timing    `json:"timing"`

	// Debug-only fields.
	RawEvent        *Event           `json:"raw_event,omitempty"`
	RuleEvaluations []RuleEvaluation `json:"rule_evaluations,omitempty"`
	Response        *ResponseSummary `json:"response,omitempty"`
}

// Summarize builds the debug summary of a response.
func Summarize(resp *Response) *ResponseSummary {
	return &ResponseSummary{
		Continue:      resp.Continue,
		Reason:        resp.Reason,
		ContextLength: len(resp.Context),
	}
}
