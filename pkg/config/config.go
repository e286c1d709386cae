package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Bot      BotConfig      `mapstructure:"bot"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type OpenAIConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	Temperature    float64       `mapstructure:"temperature"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	UseInMemory bool   `mapstructure:"use_in_memory"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// BotConfig holds the behavior knobs of the response pipeline.
type BotConfig struct {
	ReferenceFile    string        `mapstructure:"reference_file"`
	MediaCatalogFile string        `mapstructure:"media_catalog_file"`
	HistoryLimit     int           `mapstructure:"history_limit"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
}

// Configured reports whether enough database settings are present to open a
// connection. Missing persistence credentials are not fatal; they only
// disable history and caching.
func (d DatabaseConfig) Configured() bool {
	return d.UseInMemory || (d.Host != "" && d.User != "" && d.DBName != "")
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	// Remove leading slash from path to get database name
	dbName := strings.TrimPrefix(u.Path, "/")

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   dbName,
		SSLMode:  "disable",
	}, nil
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.use_in_memory", false)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 700)
	v.SetDefault("openai.temperature", 0.4)
	v.SetDefault("openai.request_timeout", 30*time.Second)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("bot.reference_file", "college.txt")
	v.SetDefault("bot.media_catalog_file", "media.yaml")
	v.SetDefault("bot.history_limit", 6)
	v.SetDefault("bot.cache_ttl", time.Hour)

	// Enable environment variable support
	v.AutomaticEnv()

	// Read the config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %v", err)
		}
		config.Database = dbConfig
	}

	// Get other environment variables
	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}

	if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}

	// The bot cannot serve without its transport and model credentials.
	if config.Telegram.Token == "" {
		return nil, fmt.Errorf("telegram token is not set")
	}
	if config.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("openai api key is not set")
	}

	return &config, nil
}
