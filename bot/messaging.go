package bot

import (
	"log/slog"
	"preacc/entity"
)

func (t *TgBot) SendMessage(msg string) {
	t.SendMessageWithLevel(msg, t.minLogLevel)
}

// SendMessageWithLevel infers the topic from the level and delegates to SendMessageWithTopic.
func (t *TgBot) SendMessageWithLevel(msg string, level slog.Level) {
	topic := entity.TopicSystem
	if level >= slog.LevelError {
		topic = entity.TopicError
	}
	t.SendMessageWithTopic(msg, level, topic)
}

// SendMessageWithTopic delivers a message to every chat accepting the level and topic.
func (t *TgBot) SendMessageWithTopic(msg string, level slog.Level, topic string) {
	for _, id := range t.recipients(level, topic) {
		for _, part := range splitMessage(msg, maxMessageLength) {
			t.plainResponse(id, part)
		}
	}
}

func (t *TgBot) recipients(level slog.Level, topic string) []int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]int64, 0, len(t.chats))
	for id, c := range t.chats {
		if c.accepts(level, topic) {
			ids = append(ids, id)
		}
	}
	return ids
}
