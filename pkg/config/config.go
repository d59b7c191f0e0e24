package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required,oneof=development staging production test"`
	Log         struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stderr" validate:"required"`
	} `yaml:"log"`
	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		CORSOrigins     []string      `yaml:"cors_origins"`
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"90s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	CoinGecko struct {
		BaseURL string        `yaml:"base_url" default:"https://api.coingecko.com/api/v3" validate:"required,url"`
		APIKey  string        `yaml:"api_key"`
		Pro     bool          `yaml:"pro"`
		Timeout time.Duration `yaml:"timeout" default:"15s" validate:"gt=0"`
	} `yaml:"coingecko"`
	Tavily struct {
		BaseURL     string        `yaml:"base_url" default:"https://api.tavily.com" validate:"required,url"`
		APIKey      string        `yaml:"api_key"`
		SearchDepth string        `yaml:"search_depth" default:"basic" validate:"oneof=basic advanced"`
		MaxResults  int           `yaml:"max_results" default:"5" validate:"gte=1,lte=20"`
		Timeout     time.Duration `yaml:"timeout" default:"20s" validate:"gt=0"`
	} `yaml:"tavily"`
	LLM struct {
		BaseURL   string        `yaml:"base_url" default:"https://openrouter.ai/api/v1"`
		APIKey    string        `yaml:"api_key"`
		Model     string        `yaml:"model" default:"openai/gpt-4o-mini"`
		MaxTokens int           `yaml:"max_tokens" default:"2048" validate:"gte=1"`
		Timeout   time.Duration `yaml:"timeout" default:"60s" validate:"gt=0"`
	} `yaml:"llm"`
	Research struct {
		PatternDays   int      `yaml:"pattern_days" default:"30" validate:"gte=1,lte=365"`
		IndicatorDays int      `yaml:"indicator_days" default:"14" validate:"gte=1,lte=365"`
		Queries       []string `yaml:"queries"`
	} `yaml:"research"`
	Pipeline struct {
		Timeout time.Duration `yaml:"timeout" default:"60s" validate:"gt=0"`
	} `yaml:"pipeline"`
	Report struct {
		Mode       string `yaml:"mode" default:"markdown" validate:"oneof=markdown llm"`
		OutputPath string `yaml:"output_path" default:"./response.md"`
	} `yaml:"report"`
	RateLimit struct {
		Enabled  bool          `yaml:"enabled"`
		Backend  string        `yaml:"backend" default:"memory" validate:"oneof=memory redis"`
		Capacity float64       `yaml:"capacity" default:"10" validate:"gt=0"`
		Refill   float64       `yaml:"refill_per_sec" default:"0.5" validate:"gt=0"`
		Window   time.Duration `yaml:"window" default:"1m" validate:"gt=0"`
		MaxWait  time.Duration `yaml:"max_wait" default:"5s"`
	} `yaml:"ratelimit"`
	Redis struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"coinpulse"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"coinpulse.scorecards"`
		LogTopic     string   `yaml:"log_topic" default:"coinpulse.logs"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"100ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Telegram struct {
		Enabled  bool   `yaml:"enabled"`
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
}

// DefaultQueries are expanded with the coin id when research.queries is empty.
var DefaultQueries = []string{"{coin} latest news", "{coin} reddit", "{coin} tweets"}

var validate = validator.New()

// Load reads and parses a YAML configuration file. An empty path yields pure defaults.
func Load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if len(c.Research.Queries) == 0 {
		c.Research.Queries = append([]string(nil), DefaultQueries...)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads .env (if present), then config from YAML, and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		c.CoinGecko.APIKey = v
	}
	if v := os.Getenv("TAVILY_API_KEY"); v != "" {
		c.Tavily.APIKey = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("REPORT_MODE"); v != "" {
		c.Report.Mode = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Redis.Host = host
		if ok {
			if p, err := strconv.Atoi(port); err == nil {
				c.Redis.Port = p
			}
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id are required when telegram is enabled")
	}
	return nil
}

// QueriesFor expands the configured search query templates for a coin.
func (c *Config) QueriesFor(coinID string) []string {
	tpl := c.Research.Queries
	if len(tpl) == 0 {
		tpl = DefaultQueries
	}
	out := make([]string, len(tpl))
	for i, q := range tpl {
		out[i] = strings.ReplaceAll(q, "{coin}", coinID)
	}
	return out
}
