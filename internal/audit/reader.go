package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/models"
)

// maxLineSize allows debug entries carrying large raw events.
const maxLineSize = 16 * 1024 * 1024

// Query filters entries returned by Read.
type Query struct {
	// Limit keeps only the most recent N matching entries. Zero means all.
	Limit int
	// Outcome keeps only entries with this outcome when set.
	Outcome models.Outcome
	// SessionID keeps only entries from this session when set.
	SessionID string
}

func (q Query) matches(entry *models.LogEntry) bool {
	if q.Outcome != "" && entry.Outcome != q.Outcome {
		return false
	}
	if q.SessionID != "" && entry.SessionID != q.SessionID {
		return false
	}
	return true
}

// Read returns matching entries in file order, oldest first.
// A missing file yields no entries. Lines that fail to decode are
// skipped and counted in skipped.
func Read(path string, q Query) (entries []models.LogEntry, skipped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry models.LogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			skipped++
			continue
		}
		if !q.matches(&entry) {
			continue
		}
		entries = append(entries, entry)
		if q.Limit > 0 && len(entries) > q.Limit {
			entries = entries[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("failed to read audit log: %w", err)
	}

	return entries, skipped, nil
}
