package models

// Timing reports how long an evaluation took.
type Timing struct {
	ProcessingMs   int64 `json:"processing_ms"`
	RulesEvaluated int   `json:"rules_evaluated"`
}

// Response is the canonical decision produced once per invocation.
type Response struct {
	// Continue is false when the action must be blocked.
	Continue bool `json:"continue"`

	// Context is text injected into the agent's context.
	Context string `json:"context,omitempty"`

	// Reason explains a block, or carries warnings for an allowed action.
	Reason string `json:"reason,omitempty"`

	Timing *Timing `json:"timing,omitempty"`
}

// Allow creates a response that lets the action proceed.
func Allow() *Response {
	return &Response{Continue: true}
}

// Block creates a response that stops the action.
func Block(reason string) *Response {
	return &Response{
		Continue: false,
		Reason:   reason,
	}
}

// Inject creates a response that allows the action and adds context.
func Inject(context string) *Response {
	return &Response{
		Continue: true,
		Context:  context,
	}
}

// Outcome classifies the response for audit records.
func (r *Response) Outcome() Outcome {
	switch {
	case !r.Continue:
		return OutcomeBlock
	case r.Context != "":
		return OutcomeInject
	default:
		return OutcomeAllow
	}
}
