package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/models"
)

// lockRetryDelay is the polling interval while another process holds the lock.
const lockRetryDelay = 10 * time.Millisecond

// defaultLockTimeout bounds how long Write waits for the file lock.
const defaultLockTimeout = 2 * time.Second

// ErrLocked is returned when the log file lock cannot be acquired in time.
var ErrLocked = errors.New("audit log is locked by another process")

// JSONLSink appends entries to a JSON-lines file. Concurrent rulez
// processes serialize their appends through a sibling ".lock" file.
type JSONLSink struct {
	mu          sync.Mutex
	path        string
	lock        *flock.Flock
	lockTimeout time.Duration
}

// NewJSONLSink creates the parent directory and returns a sink for path.
func NewJSONLSink(path string) (*JSONLSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}
	return &JSONLSink{
		path:        path,
		lock:        flock.New(path + ".lock"),
		lockTimeout: defaultLockTimeout,
	}, nil
}

// Path returns the log file path.
func (s *JSONLSink) Path() string {
	return s.path
}

// Write appends entry as a single line.
func (s *JSONLSink) Write(ctx context.Context, entry *models.LogEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode audit entry: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	locked, err := s.lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrLocked
		}
		return fmt.Errorf("failed to lock audit log: %w", err)
	}
	if !locked {
		return ErrLocked
	}
	defer s.lock.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}
