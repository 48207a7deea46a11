package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"preacc/bot"
	"preacc/impl/auth"
	"preacc/impl/core"
	"preacc/internal/config"
	"preacc/internal/database"
	"preacc/internal/http-server/api"
	"preacc/internal/sqldb"
	"preacc/internal/stripeclient"
	"preacc/lib/logger"
	"preacc/lib/sl"
)

const logFileName = "preacc.log"

// store is the storage surface shared by the auth and core services.
type store interface {
	auth.Database
	core.Database
}

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	log := logger.SetupLogger(conf.Env, filepath.Join(*logPath, logFileName))
	log.Info("starting preacc", slog.String("config", *configPath), slog.String("env", conf.Env))

	var tgBot *bot.TgBot
	if conf.Telegram.Enabled {
		var err error
		level := slog.Level(conf.Telegram.LogLevel)
		tgBot, err = bot.NewTgBot(conf.Telegram.ApiKey, conf.Telegram.ChatIds, level, log)
		if err != nil {
			log.Error("telegram bot", sl.Err(err))
		} else {
			go func(log *slog.Logger) {
				if err := tgBot.Start(); err != nil {
					log.Error("telegram bot start", sl.Err(err))
				}
			}(log)
			log = slog.New(logger.NewTelegramHandler(log.Handler(), tgBot, level))
			defer tgBot.Stop()
			log.Debug("telegram bot initialized", slog.Int("chats", len(conf.Telegram.ChatIds)))
		}
	}

	db, closeDb := openStore(conf, log)
	if db == nil {
		log.Error("no database configured")
		os.Exit(1)
	}
	defer closeDb()

	handler := core.New(db, log)
	handler.SetAuthService(auth.New(db))

	if conf.Stripe.Enabled {
		handler.SetPaymentService(stripeclient.New(conf, log))
		log.Debug("stripe client initialized")
	}

	if tgBot != nil {
		handler.SetMessageService(tgBot)
	}

	if err := api.New(conf, log, handler); err != nil {
		log.Error("server error", sl.Err(err))
	}
	log.Error("service stopped")
}

// openStore picks MongoDB when enabled, otherwise MySQL.
func openStore(conf *config.Config, log *slog.Logger) (store, func()) {
	if mongo := database.NewMongoClient(conf); mongo != nil {
		log.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("database", conf.Mongo.Database),
		).Info("using mongodb")
		return mongo, func() {}
	}
	if conf.MySql.Enabled {
		mysql, err := sqldb.NewSQLClient(conf)
		if err != nil {
			log.Error("mysql client", sl.Err(err))
			return nil, nil
		}
		log.With(
			slog.String("host", conf.MySql.HostName),
			slog.String("database", conf.MySql.Database),
		).Info("using mysql")
		return mysql, mysql.Close
	}
	return nil, nil
}
