package hooks

import (
	"strings"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/models"
)

// contextSeparator joins injected context from successive rules.
const contextSeparator = "\n\n"

// warningSeparator joins fail-open warnings in the response reason.
const warningSeparator = "; "

// decision accumulates rule outcomes for one evaluation.
type decision struct {
	// blocked stops evaluation; reason explains it.
	blocked   bool
	reason    string
	blockedBy string

	contexts []string
	warnings []string
	matched  []string
}

func newDecision() *decision {
	return &decision{matched: []string{}}
}

func (d *decision) block(ruleName, reason string) {
	d.blocked = true
	d.blockedBy = ruleName
	d.reason = reason
}

func (d *decision) inject(text string) {
	if text == "" {
		return
	}
	d.contexts = append(d.contexts, text)
}

func (d *decision) warn(message string) {
	d.warnings = append(d.warnings, message)
}

// contextSizeWith returns the context length after adding text.
func (d *decision) contextSizeWith(text string) int {
	size := len(text)
	for _, c := range d.contexts {
		size += len(c) + len(contextSeparator)
	}
	return size
}

func (d *decision) response() *models.Response {
	if d.blocked {
		return models.Block(d.reason)
	}

	resp := models.Allow()
	resp.Context = strings.Join(d.contexts, contextSeparator)
	resp.Reason = strings.Join(d.warnings, warningSeparator)
	return resp
}

// mergeResponses combines dual-fire responses in evaluation order.
// The first Block wins; otherwise contexts and warnings concatenate and
// timing sums.
func mergeResponses(responses []*models.Response) *models.Response {
	merged := models.Allow()
	timing := &models.Timing{}
	var contexts, reasons []string

	for _, resp := range responses {
		if resp.Timing != nil {
			timing.ProcessingMs += resp.Timing.ProcessingMs
			timing.RulesEvaluated += resp.Timing.RulesEvaluated
		}
		if !resp.Continue {
			blocked := models.Block(resp.Reason)
			blocked.Timing = timing
			return blocked
		}
		if resp.Context != "" {
			contexts = append(contexts, resp.Context)
		}
		if resp.Reason != "" {
			reasons = append(reasons, resp.Reason)
		}
	}

	merged.Context = strings.Join(contexts, contextSeparator)
	merged.Reason = strings.Join(reasons, warningSeparator)
	merged.Timing = timing
	return merged
}
