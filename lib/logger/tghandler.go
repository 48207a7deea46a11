package logger

import (
	"context"
	"fmt"
	"log/slog"
	"preacc/bot"
	"preacc/entity"
	"strings"
	"sync"
)

// TopicKey is the attribute that routes a record to a notification topic.
const TopicKey = "topic"

// Sender delivers formatted messages; implemented by bot.TgBot.
type Sender interface {
	SendMessageWithTopic(msg string, level slog.Level, topic string)
}

// TelegramHandler is a slog.Handler that forwards records at or above
// minLevel to Telegram after passing them to the wrapped handler.
type TelegramHandler struct {
	handler  slog.Handler
	sender   Sender
	minLevel slog.Level
	mu       *sync.Mutex
	attrs    []slog.Attr
	group    string
}

func NewTelegramHandler(handler slog.Handler, sender Sender, minLevel slog.Level) *TelegramHandler {
	return &TelegramHandler{
		handler:  handler,
		sender:   sender,
		minLevel: minLevel,
		mu:       &sync.Mutex{},
		attrs:    make([]slog.Attr, 0),
	}
}

func (h *TelegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *TelegramHandler) Handle(ctx context.Context, record slog.Record) error {
	if err := h.handler.Handle(ctx, record); err != nil {
		return err
	}
	if record.Level < h.minLevel || h.sender == nil {
		return nil
	}

	topic := ""
	var sb strings.Builder
	name := record.Message
	if h.group != "" {
		name = h.group + "." + name
	}
	fmt.Fprintf(&sb, "*%s* `%s`", record.Level.String(), strings.ReplaceAll(name, "`", "'"))

	add := func(attr slog.Attr) bool {
		switch attr.Key {
		case TopicKey:
			topic = attr.Value.String()
		case "error":
			fmt.Fprintf(&sb, "\n%s: ```\n%s```", attr.Key, strings.ReplaceAll(attr.Value.String(), "`", "'"))
		default:
			sb.WriteString(bot.Sanitize(fmt.Sprintf("\n%s: %v", attr.Key, attr.Value)))
		}
		return true
	}
	for _, attr := range h.attrs {
		add(attr)
	}
	record.Attrs(add)

	if topic == "" {
		topic = entity.TopicSystem
		if record.Level >= slog.LevelError {
			topic = entity.TopicError
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.sender.SendMessageWithTopic(sb.String(), record.Level, topic)
	return nil
}

func (h *TelegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &TelegramHandler{
		handler:  h.handler.WithAttrs(attrs),
		sender:   h.sender,
		minLevel: h.minLevel,
		mu:       h.mu,
		attrs:    newAttrs,
		group:    h.group,
	}
}

func (h *TelegramHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}

	return &TelegramHandler{
		handler:  h.handler.WithGroup(name),
		sender:   h.sender,
		minLevel: h.minLevel,
		mu:       h.mu,
		attrs:    h.attrs,
		group:    group,
	}
}
