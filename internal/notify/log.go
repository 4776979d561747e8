package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Log writes messages to the structured log instead of a chat. Used for dry runs.
type Log struct {
	log zerolog.Logger
}

func NewLog(log zerolog.Logger) *Log { return &Log{log: log} }

func (l *Log) Name() string { return "log" }

func (l *Log) Deliver(_ context.Context, text string) error {
	l.log.Info().Str("message", text).Msg("notification")
	return nil
}
