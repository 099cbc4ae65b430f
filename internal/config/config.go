package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env    string `yaml:"env" env-default:"local"`
	Listen struct {
		BindIP string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port   string `yaml:"port" env-default:"9200"`
	} `yaml:"listen"`
	Mongo struct {
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:""`
		Password string `yaml:"password" env-default:""`
		Database string `yaml:"database" env-default:"livedesk"`
	} `yaml:"mongo"`
	Redis struct {
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"6379"`
		Password string `yaml:"password" env-default:""`
		DB       int    `yaml:"db" env-default:"0"`
	} `yaml:"redis"`
	JWT struct {
		Secret           string `yaml:"secret" env:"JWT_SECRET" env-default:""`
		AccessTTLMinutes int    `yaml:"access_ttl_minutes" env-default:"30"`
		RefreshTTLDays   int    `yaml:"refresh_ttl_days" env-default:"7"`
	} `yaml:"jwt"`
	Auth struct {
		CacheTTLSeconds int `yaml:"cache_ttl_seconds" env-default:"300"`
		RateLimit       struct {
			Requests      int `yaml:"requests" env-default:"120"`
			WindowSeconds int `yaml:"window_seconds" env-default:"60"`
		} `yaml:"rate_limit"`
	} `yaml:"auth"`
	Chat struct {
		MaxContentLength int `yaml:"max_content_length" env-default:"4000"`
		PreviewLength    int `yaml:"preview_length" env-default:"100"`
		DefaultChatPage  int `yaml:"default_chat_page" env-default:"20"`
		DefaultMsgPage   int `yaml:"default_msg_page" env-default:"50"`
		TempUserTTLHours int `yaml:"temp_user_ttl_hours" env-default:"24"`
	} `yaml:"chat"`
	OpenAI struct {
		Enabled bool   `yaml:"enabled" env-default:"false"`
		ApiKey  string `yaml:"api_key" env-default:""`
		Model   string `yaml:"model" env-default:"gpt-4o-mini"`
	} `yaml:"openai"`
	Telegram struct {
		Enabled bool   `yaml:"enabled" env-default:"false"`
		ApiKey  string `yaml:"api_key" env-default:""`
		AdminId int64  `yaml:"admin_id" env-default:"0"`
	} `yaml:"telegram"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
