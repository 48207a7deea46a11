// Package bot implements a Telegram notifier for invoice and payment events.
//
// Recipients are the chat ids listed in the configuration. Each chat can
// pause delivery with /stop, raise its level filter with /level and narrow
// the topics it receives with /subscribe and /unsubscribe. Settings live in
// memory and reset to the configured defaults on restart.
package bot

import (
	"fmt"
	"log/slog"
	"preacc/lib/sl"
	"sync"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
)

// TgBot is the central Telegram bot instance.
type TgBot struct {
	log         *slog.Logger
	api         *tgbotapi.Bot
	mu          sync.RWMutex // guards chats
	chats       map[int64]*chat
	minLogLevel slog.Level
	updater     *ext.Updater
}

func NewTgBot(apiKey string, chatIds []int64, logLevel slog.Level, log *slog.Logger) (*TgBot, error) {
	tgBot := newBot(chatIds, logLevel, log)

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api

	return tgBot, nil
}

func newBot(chatIds []int64, logLevel slog.Level, log *slog.Logger) *TgBot {
	t := &TgBot{
		log:         log.With(sl.Module("tgbot")),
		minLogLevel: logLevel,
		chats:       make(map[int64]*chat, len(chatIds)),
	}
	for _, id := range chatIds {
		t.chats[id] = newChat(id, logLevel)
	}
	return t
}

func (t *TgBot) Start() error {
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update:", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	t.updater = ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCommand("start", t.start))
	dispatcher.AddHandler(handlers.NewCommand("stop", t.stop))
	dispatcher.AddHandler(handlers.NewCommand("level", t.level))
	dispatcher.AddHandler(handlers.NewCommand("subscribe", t.subscribe))
	dispatcher.AddHandler(handlers.NewCommand("unsubscribe", t.unsubscribe))
	dispatcher.AddHandler(handlers.NewCommand("status", t.status))
	dispatcher.AddHandler(handlers.NewCommand("help", t.help))

	t.setCommands()

	err := t.updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	t.log.With(slog.Int("chats", len(t.chats))).Info("telegram bot started")
	t.updater.Idle()
	return nil
}

func (t *TgBot) Stop() {
	if t.updater != nil {
		t.log.Info("stopping telegram bot")
		t.updater.Stop()
	}
}

var commands = []tgbotapi.BotCommand{
	{Command: "start", Description: "Enable notifications"},
	{Command: "stop", Description: "Disable notifications"},
	{Command: "level", Description: "Set log level filter"},
	{Command: "subscribe", Description: "Subscribe to a topic"},
	{Command: "unsubscribe", Description: "Unsubscribe from a topic"},
	{Command: "status", Description: "Show your settings"},
	{Command: "help", Description: "Show available commands"},
}

func (t *TgBot) setCommands() {
	_, err := t.api.SetMyCommands(commands, &tgbotapi.SetMyCommandsOpts{
		Scope: tgbotapi.BotCommandScopeDefault{},
	})
	if err != nil {
		t.log.Warn("setting default commands", sl.Err(err))
	}
}

func (t *TgBot) findChat(id int64) *chat {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.chats[id]
	if ok {
		return c
	}
	return nil
}
