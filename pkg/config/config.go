package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`

	Server struct {
		Enabled         bool          `yaml:"enabled" default:"true"`
		Port            int           `yaml:"port" default:"8080" validate:"gt=0"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`

	Pipeline struct {
		Instrument      string   `yaml:"instrument" validate:"required"`
		From            string   `yaml:"from" validate:"required,datetime=2006-01-02"`
		To              string   `yaml:"to" validate:"required,datetime=2006-01-02"`
		Workers         int      `yaml:"workers" default:"4" validate:"gt=0"`
		MinCompleteness float64  `yaml:"min_completeness" default:"0.5" validate:"gte=0,lte=1"`
		Spreads         []Spread `yaml:"spreads" validate:"dive"`

		// Feature tuning. An empty list keeps the default catalog for
		// that family.
		Lags           []int      `yaml:"lags" validate:"dive,gt=0"`
		ReturnLags     []int      `yaml:"return_lags" validate:"dive,gt=0"`
		RollingWindows []int      `yaml:"rolling_windows" validate:"dive,gt=1"`
		SMAWindows     []int      `yaml:"sma_windows" validate:"dive,gt=0"`
		EMAWindows     []int      `yaml:"ema_windows" validate:"dive,gt=0"`
		RSIPeriods     []int      `yaml:"rsi_periods" validate:"dive,gt=1"`
		CorrWindows    []int      `yaml:"corr_windows" validate:"dive,gt=1"`
		Strength       []Strength `yaml:"strength" validate:"dive"`
	} `yaml:"pipeline"`

	Sink struct {
		Type          string `yaml:"type" default:"csv" validate:"oneof=csv clickhouse kafka"`
		CSVDir        string `yaml:"csv_dir" default:"./out"`
		RowTopic      string `yaml:"row_topic" default:"fxforge.features"`
		ManifestTopic string `yaml:"manifest_topic" default:"fxforge.manifests"`
	} `yaml:"sink"`

	OANDA struct {
		BaseURL     string        `yaml:"base_url" default:"https://api-fxpractice.oanda.com"`
		StreamURL   string        `yaml:"stream_url"`
		APIKey      string        `yaml:"api_key"`
		Instruments []string      `yaml:"instruments" validate:"min=1"`
		Granularity string        `yaml:"granularity" default:"D" validate:"oneof=M1 M5 M15 H1 H4 D"`
		Timeout     time.Duration `yaml:"timeout" default:"30s"`
		CacheTTL    time.Duration `yaml:"cache_ttl" default:"6h"`

		// Live collection runs before the batch pass when stream_url is
		// set: ticks are collected for collect_window and folded into
		// bars at collect_granularity.
		CollectWindow      time.Duration `yaml:"collect_window" default:"1m"`
		CollectGranularity string        `yaml:"collect_granularity" default:"M1" validate:"oneof=M1 M5 M15 H1 H4"`
		CollectInstruments []string      `yaml:"collect_instruments"`
	} `yaml:"oanda"`

	FRED struct {
		BaseURL  string        `yaml:"base_url" default:"https://api.stlouisfed.org/fred"`
		APIKey   string        `yaml:"api_key"`
		Timeout  time.Duration `yaml:"timeout" default:"30s"`
		CacheTTL time.Duration `yaml:"cache_ttl" default:"12h"`
		Series   []FREDSeries  `yaml:"series" validate:"dive"`
	} `yaml:"fred"`

	Cache struct {
		Type     string `yaml:"type" default:"memory" validate:"oneof=memory redis layered"`
		Redis    Redis  `yaml:"redis"`
		MaxItems int    `yaml:"max_items" default:"1024"`
	} `yaml:"cache"`

	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"fxforge"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`

	Kafka struct {
		Brokers      []string      `yaml:"brokers"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		Linger       time.Duration `yaml:"linger" default:"1s"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	} `yaml:"kafka"`
}

// Spread declares a derived difference column.
type Spread struct {
	Name       string `yaml:"name" validate:"required"`
	Minuend    string `yaml:"minuend" validate:"required"`
	Subtrahend string `yaml:"subtrahend" validate:"required"`
}

// Strength declares a basket strength column over instrument returns.
type Strength struct {
	Name   string   `yaml:"name" validate:"required"`
	Longs  []string `yaml:"longs"`
	Shorts []string `yaml:"shorts"`
	Window int      `yaml:"window" default:"20" validate:"gt=0"`
}

// FREDSeries maps a FRED series id to a local name and granularity.
type FREDSeries struct {
	ID          string `yaml:"id" validate:"required"`
	Name        string `yaml:"name" validate:"required"`
	Granularity string `yaml:"granularity" default:"IRREGULAR" validate:"oneof=D MONTHLY QUARTERLY IRREGULAR"`
}

// Redis holds redis cache settings.
type Redis struct {
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Load reads a YAML configuration file, applies defaults and validates.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if err := c.checkSink(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables. Secrets are expected to come from the environment.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("OANDA_API_KEY"); v != "" {
		c.OANDA.APIKey = v
	}
	if v := os.Getenv("FRED_API_KEY"); v != "" {
		c.FRED.APIKey = v
	}
	if v := os.Getenv("SINK"); v != "" {
		c.Sink.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
	}
	if err := c.checkSink(); err != nil {
		return nil, err
	}
	return c, nil
}

// Window returns the parsed canonical window.
func (c *Config) Window() (time.Time, time.Time, error) {
	from, err := time.ParseInLocation("2006-01-02", c.Pipeline.From, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("pipeline.from: %w", err)
	}
	to, err := time.ParseInLocation("2006-01-02", c.Pipeline.To, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("pipeline.to: %w", err)
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("pipeline.from %s is after pipeline.to %s", c.Pipeline.From, c.Pipeline.To)
	}
	return from, to, nil
}

func (c *Config) checkSink() error {
	switch c.Sink.Type {
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required for the clickhouse sink")
		}
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required for the kafka sink")
		}
	}
	return nil
}
