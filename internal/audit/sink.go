package audit

import (
	"context"

	"go.uber.org/zap"
)

// LogSink пишет события аудита структурированным zap логом.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("audit")}
}

func (s *LogSink) WriteBatch(_ context.Context, events []LoginEvent) error {
	for _, e := range events {
		fields := []zap.Field{
			zap.String("id", e.ID),
			zap.String("request_id", e.RequestID),
			zap.String("username", e.Username),
			zap.String("outcome", string(e.Outcome)),
			zap.String("remote_addr", e.RemoteAddr),
			zap.Time("timestamp", e.Timestamp),
		}
		if e.Outcome == OutcomeAccepted {
			s.logger.Info("login attempt", append(fields, zap.Int("user_id", e.UserID))...)
			continue
		}
		s.logger.Warn("login attempt", fields...)
	}
	return nil
}
