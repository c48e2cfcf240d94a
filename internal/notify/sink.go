package notify

import "go.uber.org/zap"

// Sink delivers user and admin messages and cleans up UI artifacts.
// All methods are fire-and-forget: failures are logged by the
// implementation and never retried or surfaced to callers.
type Sink interface {
	NotifyUser(userID int64, msg string)
	NotifyAdmin(msg string)
	DeleteArtifact(ref string)
}

// LogSink writes notifications to the log only. Used when no bot token is
// configured, and as a stand-in in tests.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) NotifyUser(userID int64, msg string) {
	s.logger.Info("notify user", zap.Int64("user_id", userID), zap.String("msg", msg))
}

func (s *LogSink) NotifyAdmin(msg string) {
	s.logger.Info("notify admin", zap.String("msg", msg))
}

func (s *LogSink) DeleteArtifact(ref string) {
	s.logger.Info("delete artifact", zap.String("ref", ref))
}
