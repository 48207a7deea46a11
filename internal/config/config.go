package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env-default:"8080"`
}

type StripeConfig struct {
	Enabled       bool   `yaml:"enabled" env-default:"false"`
	APIKey        string `yaml:"api_key" env-default:""`
	WebhookSecret string `yaml:"webhook_secret" env-default:""`
	SuccessURL    string `yaml:"success_url" env-default:""`
	CancelURL     string `yaml:"cancel_url" env-default:""`
}

type Mongo struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env-default:"27017"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"preacc"`
}

type MySql struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	HostName string `yaml:"hostname" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env-default:"3306"`
	UserName string `yaml:"username" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"preacc"`
	Prefix   string `yaml:"prefix" env-default:"pa_"`
}

type Telegram struct {
	Enabled  bool    `yaml:"enabled" env-default:"false"`
	ApiKey   string  `yaml:"api_key" env-default:""`
	ChatIds  []int64 `yaml:"chat_ids"`
	LogLevel int     `yaml:"log_level" env-default:"8"`
}

type Config struct {
	Env      string       `yaml:"env" env-default:"local"`
	Listen   Listen       `yaml:"listen"`
	Timeout  int          `yaml:"timeout" env-default:"5"`
	Mongo    Mongo        `yaml:"mongo"`
	MySql    MySql        `yaml:"mysql"`
	Stripe   StripeConfig `yaml:"stripe"`
	Telegram Telegram     `yaml:"telegram"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
