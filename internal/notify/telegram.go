package notify

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// TelegramSink delivers notifications through the Telegram Bot API.
// Artifact refs are "chatID:messageID" pairs identifying the QR message
// the deposit flow sent to the user.
type TelegramSink struct {
	bot       *tele.Bot
	adminChat int64
	logger    *zap.Logger
}

// NewTelegramSink connects a bot for outbound notifications only; no update
// handlers are registered and the poller is never started.
func NewTelegramSink(token string, adminChat int64, logger *zap.Logger) (*TelegramSink, error) {
	bot, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, err
	}
	return &TelegramSink{bot: bot, adminChat: adminChat, logger: logger}, nil
}

func (s *TelegramSink) NotifyUser(userID int64, msg string) {
	if _, err := s.bot.Send(&tele.User{ID: userID}, msg, tele.ModeMarkdown); err != nil {
		s.logger.Warn("failed to notify user",
			zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (s *TelegramSink) NotifyAdmin(msg string) {
	if s.adminChat == 0 {
		return
	}
	if _, err := s.bot.Send(&tele.Chat{ID: s.adminChat}, msg, tele.ModeHTML); err != nil {
		s.logger.Warn("failed to notify admin", zap.Error(err))
	}
}

func (s *TelegramSink) DeleteArtifact(ref string) {
	chatID, messageID, ok := parseArtifactRef(ref)
	if !ok {
		s.logger.Warn("malformed artifact ref", zap.String("ref", ref))
		return
	}
	msg := tele.StoredMessage{ChatID: chatID, MessageID: messageID}
	if err := s.bot.Delete(&msg); err != nil {
		s.logger.Warn("failed to delete artifact message",
			zap.String("ref", ref), zap.Error(err))
	}
}

func parseArtifactRef(ref string) (chatID int64, messageID string, ok bool) {
	parts := strings.SplitN(ref, ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return 0, "", false
	}
	chatID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, "", false
	}
	return chatID, parts[1], true
}
