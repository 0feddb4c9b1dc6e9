package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"bill-advisor/internal/logging"
	"bill-advisor/internal/policy"
)

// Price source names accepted by reference.price_source.
const (
	PriceSourceStatic   = "static"
	PriceSourceHTTP     = "http"
	PriceSourceInflux   = "influx"
	PriceSourcePostgres = "postgres"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Reference ReferenceConfig `mapstructure:"reference"`
	InfluxDB  InfluxDBConfig  `mapstructure:"influxdb"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Policy    policy.Policy   `mapstructure:"policy"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// SchedulerConfig governs the price refresh cadence.
type SchedulerConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	AlignToBucket   bool          `mapstructure:"align_to_bucket"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
}

// ReferenceConfig selects where commodity prices come from.
type ReferenceConfig struct {
	PriceSource    string        `mapstructure:"price_source"`
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	UserAgent      string        `mapstructure:"user_agent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	CacheLookback  time.Duration `mapstructure:"cache_lookback"`
}

// InfluxDBConfig covers the price time series.
type InfluxDBConfig struct {
	URL         string        `mapstructure:"url"`
	Token       string        `mapstructure:"token"`
	Org         string        `mapstructure:"org"`
	Bucket      string        `mapstructure:"bucket"`
	Measurement string        `mapstructure:"measurement"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// KafkaConfig captures the billing record stream.
type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	InputTopic    string   `mapstructure:"input_topic"`
	OutputTopic   string   `mapstructure:"output_topic"`
	GroupID       string   `mapstructure:"group_id"`
	ClientID      string   `mapstructure:"client_id"`
	InitialOldest bool     `mapstructure:"initial_oldest"`
}

// CatalogConfig chooses the offer catalog.
type CatalogConfig struct {
	File string `mapstructure:"file"`
}

// AlertingConfig defines alert thresholds and routing.
type AlertingConfig struct {
	Enabled      bool           `mapstructure:"enabled"`
	ThresholdEUR float64        `mapstructure:"threshold_eur"`
	Channels     []string       `mapstructure:"channels"`
	Telegram     TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes Telegram delivery.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// AnalysisConfig bounds a single analysis run.
type AnalysisConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	Persist    bool          `mapstructure:"persist"`
	BestOffers int           `mapstructure:"best_offers"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxRows int `mapstructure:"max_rows"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BILLADVISOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	cfg := Config{Policy: policy.Default()}
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "billadvisor")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("scheduler.interval", "6h")
	v.SetDefault("scheduler.align_to_bucket", true)
	v.SetDefault("scheduler.advisory_lock_key", int64(0x62696c6c))
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("reference.price_source", PriceSourceStatic)
	v.SetDefault("reference.user_agent", "billadvisor/1.0")
	v.SetDefault("reference.request_timeout", "10s")
	v.SetDefault("reference.cache_lookback", "9600h")

	v.SetDefault("influxdb.measurement", "pun_price")
	v.SetDefault("influxdb.timeout", "10s")

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.input_topic", "billing-records")
	v.SetDefault("kafka.output_topic", "bill-analyses")
	v.SetDefault("kafka.group_id", "billadvisor")
	v.SetDefault("kafka.client_id", "billadvisor")
	v.SetDefault("kafka.initial_oldest", true)

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.threshold_eur", 100.0)
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("analysis.timeout", "30s")
	v.SetDefault("analysis.persist", true)
	v.SetDefault("analysis.best_offers", 3)

	v.SetDefault("export.max_rows", 1000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			DecimalHookFunc(),
		)
	}
}

// DecimalHookFunc converts YAML/env scalars into decimal.Decimal.
func DecimalHookFunc() mapstructure.DecodeHookFuncType {
	target := reflect.TypeOf(decimal.Decimal{})
	return func(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != target {
			return data, nil
		}
		switch v := data.(type) {
		case decimal.Decimal:
			return v, nil
		case string:
			return decimal.NewFromString(strings.TrimSpace(v))
		case float64:
			return decimal.NewFromFloat(v), nil
		case float32:
			return decimal.NewFromFloat32(v), nil
		case int:
			return decimal.NewFromInt(int64(v)), nil
		case int64:
			return decimal.NewFromInt(v), nil
		case int32:
			return decimal.NewFromInt32(v), nil
		}
		return data, nil
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Export.MaxRows <= 0 {
		return fmt.Errorf("export.max_rows must be greater than zero")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Analysis.Timeout <= 0 {
		return fmt.Errorf("analysis.timeout must be greater than zero")
	}
	switch c.Reference.PriceSource {
	case PriceSourceStatic:
	case PriceSourceHTTP:
		if c.Reference.BaseURL == "" {
			return fmt.Errorf("reference.base_url is required for the http price source")
		}
	case PriceSourceInflux:
		if c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "" {
			return fmt.Errorf("influxdb.url and influxdb.bucket are required for the influx price source")
		}
	case PriceSourcePostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres price source")
		}
	default:
		return fmt.Errorf("reference.price_source %q is not supported", c.Reference.PriceSource)
	}
	if c.Alerting.ThresholdEUR < 0 {
		return fmt.Errorf("alerting.threshold_eur cannot be negative")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required")
		}
	}
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	return nil
}

// ResolveMaxRows returns either the CLI override or config default.
func (c *Config) ResolveMaxRows(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxRows
}
