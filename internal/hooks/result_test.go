package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/models"
)

func withTiming(resp *models.Response, ms int64, rules int) *models.Response {
	resp.Timing = &models.Timing{ProcessingMs: ms, RulesEvaluated: rules}
	return resp
}

func TestMergeResponses(t *testing.T) {
	tests := []struct {
		name      string
		responses []*models.Response
		want      *models.Response
	}{
		{
			name:      "nothing fired",
			responses: nil,
			want:      &models.Response{Continue: true, Timing: &models.Timing{}},
		},
		{
			name:      "single response keeps its fields",
			responses: []*models.Response{withTiming(models.Inject("ctx"), 2, 3)},
			want:      &models.Response{Continue: true, Context: "ctx", Timing: &models.Timing{ProcessingMs: 2, RulesEvaluated: 3}},
		},
		{
			name: "contexts and warnings concatenate",
			responses: []*models.Response{
				withTiming(&models.Response{Continue: true, Context: "a", Reason: "rule 'x' failed: boom"}, 1, 2),
				withTiming(&models.Response{Continue: true, Context: "b", Reason: "rule 'y' failed: bang"}, 4, 2),
			},
			want: &models.Response{
				Continue: true,
				Context:  "a\n\nb",
				Reason:   "rule 'x' failed: boom; rule 'y' failed: bang",
				Timing:   &models.Timing{ProcessingMs: 5, RulesEvaluated: 4},
			},
		},
		{
			name: "first block wins",
			responses: []*models.Response{
				withTiming(models.Inject("a"), 1, 1),
				withTiming(models.Block("first"), 1, 1),
				withTiming(models.Block("second"), 1, 1),
			},
			want: &models.Response{Continue: false, Reason: "first", Timing: &models.Timing{ProcessingMs: 2, RulesEvaluated: 2}},
		},
		{
			name:      "missing timing is tolerated",
			responses: []*models.Response{models.Allow()},
			want:      &models.Response{Continue: true, Timing: &models.Timing{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeResponses(tt.responses))
		})
	}
}

func TestDecision_Response(t *testing.T) {
	d := newDecision()
	d.inject("one")
	d.inject("")
	d.inject("two")
	d.warn("w1")
	assert.Equal(t, len("one\n\ntwo\n\nthree"), d.contextSizeWith("three"))

	resp := d.response()
	assert.True(t, resp.Continue)
	assert.Equal(t, "one\n\ntwo", resp.Context)
	assert.Equal(t, "w1", resp.Reason)

	d.block("r", "stop")
	resp = d.response()
	assert.False(t, resp.Continue)
	assert.Equal(t, "stop", resp.Reason)
	assert.Empty(t, resp.Context)
	assert.Equal(t, "r", d.blockedBy)
}
