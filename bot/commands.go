package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

const notConfigured = "This chat is not configured for notifications\\. Add chat id `%d` to the configuration\\."

func commandArgs(ctx *ext.Context) []string {
	if ctx.EffectiveMessage == nil {
		return nil
	}
	args := strings.Fields(ctx.EffectiveMessage.Text)
	if len(args) > 0 {
		return args[1:]
	}
	return nil
}

func (t *TgBot) start(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id
	t.plainResponse(chatId, t.setEnabled(chatId, true))
	return nil
}

func (t *TgBot) stop(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id
	t.plainResponse(chatId, t.setEnabled(chatId, false))
	return nil
}

func (t *TgBot) level(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id
	t.plainResponse(chatId, t.setLevel(chatId, commandArgs(ctx)))
	return nil
}

func (t *TgBot) subscribe(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id
	t.plainResponse(chatId, t.setTopic(chatId, commandArgs(ctx), true))
	return nil
}

func (t *TgBot) unsubscribe(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id
	t.plainResponse(chatId, t.setTopic(chatId, commandArgs(ctx), false))
	return nil
}

func (t *TgBot) status(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id
	t.plainResponse(chatId, t.statusText(chatId))
	return nil
}

func (t *TgBot) help(_ *tgbotapi.Bot, ctx *ext.Context) error {
	var sb strings.Builder
	sb.WriteString("*Available Commands*\n\n")
	sb.WriteString("`/start` \\- Enable notifications\n")
	sb.WriteString("`/stop` \\- Disable notifications\n")
	sb.WriteString("`/level <debug|info|warn|error>` \\- Set log level\n")
	sb.WriteString("`/subscribe <topic|all>` \\- Subscribe to topic\n")
	sb.WriteString("`/unsubscribe <topic|all>` \\- Unsubscribe from topic\n")
	sb.WriteString("`/status` \\- Show your settings\n")
	sb.WriteString("`/help` \\- Show this help\n")
	fmt.Fprintf(&sb, "\nTopics: %s", Sanitize(strings.Join(AllTopics, ", ")))
	t.plainResponse(ctx.EffectiveChat.Id, sb.String())
	return nil
}

func (t *TgBot) setEnabled(chatId int64, enabled bool) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.chats[chatId]
	if !ok {
		return fmt.Sprintf(notConfigured, chatId)
	}
	c.enabled = enabled
	if enabled {
		return "Notifications ENABLED"
	}
	return "Notifications DISABLED"
}

func (t *TgBot) setLevel(chatId int64, args []string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.chats[chatId]
	if !ok {
		return fmt.Sprintf(notConfigured, chatId)
	}
	if len(args) == 0 {
		return fmt.Sprintf("Your current log level: %s\nAvailable levels: debug, info, warn, error", Sanitize(c.level.String()))
	}
	level, ok := parseLevel(args[0])
	if !ok {
		return fmt.Sprintf("Invalid level: %s\nAvailable levels: debug, info, warn, error", Sanitize(args[0]))
	}
	c.level = level
	return fmt.Sprintf("Log level set to %s", Sanitize(level.String()))
}

func (t *TgBot) setTopic(chatId int64, args []string, on bool) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.chats[chatId]
	if !ok {
		return fmt.Sprintf(notConfigured, chatId)
	}
	if len(args) == 0 {
		return fmt.Sprintf("Usage: topic name or all\nTopics: %s", Sanitize(strings.Join(AllTopics, ", ")))
	}
	topic := strings.ToLower(args[0])
	if !c.setTopic(topic, on) {
		return fmt.Sprintf("Unknown topic: %s", Sanitize(topic))
	}
	return fmt.Sprintf("Subscribed topics: %s", Sanitize(c.topicList()))
}

func (t *TgBot) statusText(chatId int64) string {
	c := t.findChat(chatId)
	if c == nil {
		return fmt.Sprintf(notConfigured, chatId)
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	state := "DISABLED"
	if c.enabled {
		state = "ENABLED"
	}
	return fmt.Sprintf("*Status*\nNotifications: %s\nLevel: %s\nTopics: %s",
		state, Sanitize(c.level.String()), Sanitize(c.topicList()))
}
