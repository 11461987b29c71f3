package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/models"
)

func newEntry(id string, outcome models.Outcome) *models.LogEntry {
	return &models.LogEntry{
		Timestamp:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		InvocationID: id,
		Platform:     "claude",
		EventType:    models.PreToolUse,
		SessionID:    "s1",
		ToolName:     "Bash",
		RulesMatched: []string{"block-force-push"},
		Outcome:      outcome,
		Timing:       models.Timing{ProcessingMs: 1, RulesEvaluated: 2},
	}
}

func TestJSONLSink_WriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "rulez.jsonl")
	sink, err := NewJSONLSink(path)
	require.NoError(t, err)
	assert.Equal(t, path, sink.Path())

	ctx := context.Background()
	require.NoError(t, sink.Write(ctx, newEntry("a", models.OutcomeAllow)))
	require.NoError(t, sink.Write(ctx, newEntry("b", models.OutcomeBlock)))
	require.NoError(t, sink.Write(ctx, newEntry("c", models.OutcomeInject)))

	entries, skipped, err := Read(path, Query{})
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, entries, 3)
	assert.Equal(t, *newEntry("a", models.OutcomeAllow), entries[0])
	assert.Equal(t, "c", entries[2].InvocationID)
}

func TestJSONLSink_ConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rulez.jsonl")

	const writers = 4
	const perWriter = 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		// Separate sinks mimic separate processes sharing the file lock.
		sink, err := NewJSONLSink(path)
		require.NoError(t, err)

		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				assert.NoError(t, sink.Write(context.Background(), newEntry(fmt.Sprintf("%d-%d", w, i), models.OutcomeAllow)))
			}
		}(w)
	}
	wg.Wait()

	entries, skipped, err := Read(path, Query{})
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	assert.Len(t, entries, writers*perWriter)
}

func TestJSONLSink_Locked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rulez.jsonl")
	sink, err := NewJSONLSink(path)
	require.NoError(t, err)
	sink.lockTimeout = 50 * time.Millisecond

	other := flock.New(path + ".lock")
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer other.Unlock()

	err = sink.Write(context.Background(), newEntry("a", models.OutcomeAllow))
	assert.ErrorIs(t, err, ErrLocked)
}

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rulez.jsonl")
	sink, err := NewJSONLSink(path)
	require.NoError(t, err)

	ctx := context.Background()
	for i, outcome := range []models.Outcome{
		models.OutcomeAllow, models.OutcomeBlock, models.OutcomeAllow, models.OutcomeBlock, models.OutcomeBlock,
	} {
		require.NoError(t, sink.Write(ctx, newEntry(fmt.Sprint(i), outcome)))
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("not json\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	tests := []struct {
		name    string
		query   Query
		wantIDs []string
	}{
		{name: "all entries", query: Query{}, wantIDs: []string{"0", "1", "2", "3", "4"}},
		{name: "limit keeps the most recent", query: Query{Limit: 2}, wantIDs: []string{"3", "4"}},
		{name: "outcome filter", query: Query{Outcome: models.OutcomeBlock}, wantIDs: []string{"1", "3", "4"}},
		{name: "outcome filter with limit", query: Query{Outcome: models.OutcomeAllow, Limit: 1}, wantIDs: []string{"2"}},
		{name: "session filter", query: Query{SessionID: "other"}, wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, skipped, err := Read(path, tt.query)
			require.NoError(t, err)
			assert.Equal(t, 1, skipped)

			var ids []string
			for _, e := range entries {
				ids = append(ids, e.InvocationID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	entries, skipped, err := Read(filepath.Join(t.TempDir(), "absent.jsonl"), Query{})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 0, skipped)
}

func TestNopSink(t *testing.T) {
	var sink Sink = NopSink{}
	assert.NoError(t, sink.Write(context.Background(), newEntry("a", models.OutcomeAllow)))
}
