package bot

import (
	"log/slog"
	"preacc/entity"
	"slices"
	"strings"
)

// AllTopics lists the topics a chat can subscribe to.
var AllTopics = []string{
	entity.TopicInvoice,
	entity.TopicPayment,
	entity.TopicError,
	entity.TopicSystem,
}

const topicAll = "all"

// chat holds notification settings of one configured recipient.
type chat struct {
	id      int64
	enabled bool
	level   slog.Level
	topics  map[string]bool
}

func newChat(id int64, level slog.Level) *chat {
	c := &chat{id: id, enabled: true, level: level, topics: make(map[string]bool)}
	c.setTopic(topicAll, true)
	return c
}

func (c *chat) accepts(level slog.Level, topic string) bool {
	return c.enabled && level >= c.level && c.topics[topic]
}

// setTopic toggles one topic or, given "all", every topic. It reports
// false for unknown topic names.
func (c *chat) setTopic(topic string, on bool) bool {
	if topic == topicAll {
		for _, t := range AllTopics {
			c.topics[t] = on
		}
		return true
	}
	if !slices.Contains(AllTopics, topic) {
		return false
	}
	c.topics[topic] = on
	return true
}

func (c *chat) topicList() string {
	var list []string
	for _, t := range AllTopics {
		if c.topics[t] {
			list = append(list, t)
		}
	}
	if len(list) == 0 {
		return "none"
	}
	return strings.Join(list, ", ")
}

func parseLevel(s string) (slog.Level, bool) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, false
	}
	return level, true
}
