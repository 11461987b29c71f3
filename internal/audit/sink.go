//go:generate mockgen -source=sink.go -destination=mock_sink.go -package=audit

// Package audit persists one LogEntry per evaluation as JSON lines.
package audit

import (
	"context"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/models"
)

// Sink receives audit entries. Write failures never change a decision;
// callers log them and move on.
type Sink interface {
	Write(ctx context.Context, entry *models.LogEntry) error
}

// NopSink discards every entry.
type NopSink struct{}

// Write implements Sink.
func (NopSink) Write(context.Context, *models.LogEntry) error {
	return nil
}
