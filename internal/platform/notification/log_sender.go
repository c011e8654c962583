package notification

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender writes notifications to the structured log instead of an external
// delivery channel. It is the default sender until a real email or push
// provider is configured.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.log.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("notification")
	return nil
}
