package paper

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"levelbot-go/internal/signal"
)

// JSONLRecorder appends outcomes as JSON lines. The journal is an audit trail and is never read back.
type JSONLRecorder struct {
	mu     sync.Mutex
	file   *os.File
	enc    *json.Encoder
	logger zerolog.Logger
}

// NewJSONLRecorder creates/opens the target file and returns a recorder.
func NewJSONLRecorder(path string, logger zerolog.Logger) (*JSONLRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLRecorder{
		file:   file,
		enc:    json.NewEncoder(file),
		logger: logger,
	}, nil
}

// Record writes a single outcome. Write failures are logged and dropped.
func (r *JSONLRecorder) Record(out signal.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return
	}
	if err := r.enc.Encode(out); err != nil {
		r.logger.Warn().Err(err).Str("signal", out.Signal.ID).Msg("journal write failed")
	}
}

// Close flushes and closes the file handle.
func (r *JSONLRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
