package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env    string `yaml:"env" env:"ENV" env-default:"local"`
	Listen struct {
		BindIP string `yaml:"bind_ip" env:"BIND_IP" env-default:"0.0.0.0"`
		Port   string `yaml:"port" env:"PORT" env-default:"8000"`
		ApiKey string `yaml:"key" env:"API_KEY" env-default:""`
	} `yaml:"listen"`
	Server struct {
		RequestTimeout  time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" env-default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	} `yaml:"server"`
	WhatsApp struct {
		VerifyToken string `yaml:"verify_token" env:"WEBHOOK_VERIFY_TOKEN" env-default:""`
		AppSecret   string `yaml:"app_secret" env:"WHATSAPP_APP_SECRET" env-default:""`
		ReplyPrefix string `yaml:"reply_prefix" env:"REPLY_PREFIX" env-default:"Juan"`
	} `yaml:"whatsapp"`
	Graph struct {
		Token   string        `yaml:"token" env:"GRAPH_API_TOKEN" env-default:""`
		BaseURL string        `yaml:"base_url" env:"GRAPH_API_URL" env-default:"https://graph.facebook.com"`
		Version string        `yaml:"version" env:"GRAPH_API_VERSION" env-default:"v18.0"`
		Timeout time.Duration `yaml:"timeout" env:"GRAPH_API_TIMEOUT" env-default:"10s"`
		Async   bool          `yaml:"async" env:"GRAPH_ASYNC" env-default:"false"`
		Workers int           `yaml:"workers" env:"GRAPH_WORKERS" env-default:"4"`
		Queue   int           `yaml:"queue" env:"GRAPH_QUEUE" env-default:"64"`
	} `yaml:"graph"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env:"MONGO_ENABLED" env-default:"false"`
		Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
		User     string `yaml:"user" env:"MONGO_USER" env-default:""`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
		Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"wagate"`
	} `yaml:"mongo"`
	Telegram struct {
		Enabled bool   `yaml:"enabled" env:"TELEGRAM_ENABLED" env-default:"false"`
		ApiKey  string `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
		AdminId int64  `yaml:"admin_id" env:"TELEGRAM_ADMIN_ID" env-default:"0"`
		Level   string `yaml:"level" env:"TELEGRAM_LEVEL" env-default:"error"`
	} `yaml:"telegram"`
}

var instance *Config
var once sync.Once

// MustLoad reads the configuration once per process and exits on failure.
func MustLoad(path string) *Config {
	once.Do(func() {
		conf, err := Load(path)
		if err != nil {
			desc, _ := cleanenv.GetDescription(&Config{}, nil)
			log.Fatal(fmt.Errorf("%s; %s", err, desc))
		}
		instance = conf
	})
	return instance
}

// Load reads an optional .env file, then the YAML file at path if it exists,
// and finally overlays the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	conf := &Config{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err = cleanenv.ReadConfig(path, conf); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
			return conf, nil
		}
	}
	if err := cleanenv.ReadEnv(conf); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	return conf, nil
}
