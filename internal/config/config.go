package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "foodpulse/internal/errors"
)

// EnvPrefix prefixes every environment variable, e.g. FOODPULSE_PIPELINE_INPUT.
const EnvPrefix = "FOODPULSE"

// EnvConfigFile names a YAML file to load when no path is passed to Load.
const EnvConfigFile = "FOODPULSE_CONFIG"

// Config represents the complete application configuration
type Config struct {
	Pipeline  PipelineConfig  `yaml:"pipeline" split_words:"true"`
	Logging   LoggingConfig   `yaml:"logging" split_words:"true"`
	Telemetry TelemetryConfig `yaml:"telemetry" split_words:"true"`
	Sinks     SinksConfig     `yaml:"sinks" split_words:"true"`
	Server    ServerConfig    `yaml:"server" split_words:"true"`
}

// PipelineConfig locates the workbook and the report output.
type PipelineConfig struct {
	Input  string `yaml:"input" split_words:"true"`
	Output string `yaml:"output" split_words:"true"` // defaults to Input
	Sheet  string `yaml:"sheet" split_words:"true"`
	// ReportDir receives charts, view CSVs and manifest.json.
	ReportDir       string `yaml:"report_dir" split_words:"true" validate:"required"`
	SinkConcurrency int    `yaml:"sink_concurrency" split_words:"true" validate:"min=1,max=16"`
	// DateLayouts, when set, replaces the Go time layouts tried for textual
	// order dates. The env form is comma separated.
	DateLayouts []string `yaml:"date_layouts" split_words:"true" validate:"dive,required"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" split_words:"true" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" split_words:"true" validate:"oneof=json text"`
	Output   string `yaml:"output" split_words:"true" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" split_words:"true" validate:"required_unless=Output console"`
}

// TelemetryConfig selects the OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" split_words:"true" validate:"required"`
	Environment    string  `yaml:"environment" split_words:"true"`
	TraceExporter  string  `yaml:"trace_exporter" split_words:"true" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" split_words:"true" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" split_words:"true" validate:"gte=0,lte=1"`
	// MetricsFile, when set, receives a Prometheus text dump at the end of a run.
	MetricsFile string `yaml:"metrics_file" split_words:"true"`
}

// SinksConfig enables the optional publishers that run after persistence.
type SinksConfig struct {
	S3       S3Config       `yaml:"s3" split_words:"true"`
	Parquet  ParquetConfig  `yaml:"parquet" split_words:"true"`
	Postgres PostgresConfig `yaml:"postgres" split_words:"true"`
	Kafka    KafkaConfig    `yaml:"kafka" split_words:"true"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq" envconfig:"RABBITMQ"`
}

// S3Config uploads run artifacts to a bucket.
type S3Config struct {
	Enabled  bool   `yaml:"enabled" split_words:"true"`
	Bucket   string `yaml:"bucket" split_words:"true" validate:"required_if=Enabled true"`
	Prefix   string `yaml:"prefix" split_words:"true"`
	Region   string `yaml:"region" split_words:"true"`
	Endpoint string `yaml:"endpoint" split_words:"true" validate:"omitempty,url"`
}

// ParquetConfig writes a columnar snapshot of the cleaned orders.
type ParquetConfig struct {
	Enabled     bool   `yaml:"enabled" split_words:"true"`
	Path        string `yaml:"path" split_words:"true" validate:"required_if=Enabled true"`
	Parallelism int64  `yaml:"parallelism" split_words:"true" validate:"min=1"`
}

// PostgresConfig bulk-loads the cleaned orders into a table.
type PostgresConfig struct {
	Enabled bool   `yaml:"enabled" split_words:"true"`
	DSN     string `yaml:"dsn" split_words:"true" validate:"required_if=Enabled true"`
	Table   string `yaml:"table" split_words:"true" validate:"required"`
}

// KafkaConfig publishes a completion event per run.
type KafkaConfig struct {
	Enabled  bool     `yaml:"enabled" split_words:"true"`
	Brokers  []string `yaml:"brokers" split_words:"true" validate:"required_if=Enabled true"`
	Topic    string   `yaml:"topic" split_words:"true" validate:"required"`
	ClientID string   `yaml:"client_id" split_words:"true"`
}

// RabbitMQConfig publishes the same completion event to an exchange.
type RabbitMQConfig struct {
	Enabled    bool   `yaml:"enabled" split_words:"true"`
	URL        string `yaml:"url" split_words:"true" validate:"required_if=Enabled true"`
	Exchange   string `yaml:"exchange" split_words:"true"`
	RoutingKey string `yaml:"routing_key" split_words:"true" validate:"required"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Addr            string        `yaml:"addr" split_words:"true" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true" validate:"gt=0"`
	// RateLimitRPS caps requests per second across all clients; 0 disables.
	RateLimitRPS   float64 `yaml:"rate_limit_rps" split_words:"true" validate:"gte=0"`
	RateLimitBurst int     `yaml:"rate_limit_burst" split_words:"true" validate:"required_with=RateLimitRPS,gte=0"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			ReportDir:       "reports",
			SinkConcurrency: 4,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/foodpulse.log",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "foodpulse",
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
		Sinks: SinksConfig{
			Parquet:  ParquetConfig{Parallelism: 4},
			Postgres: PostgresConfig{Table: "cleaned_orders"},
			Kafka:    KafkaConfig{Topic: "foodpulse.reports", ClientID: "foodpulse"},
			RabbitMQ: RabbitMQConfig{Exchange: "foodpulse", RoutingKey: "report.completed"},
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimitRPS:    50,
			RateLimitBurst:  100,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (or $FOODPULSE_CONFIG), then FOODPULSE_* environment variables. Later
// sources win. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config file", err).
				WithContext("path", path)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Keys absent from the file
// keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report yaml key names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks every section and returns a CONFIG error listing each
// offending key.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewConfigError("config validation failed", err)
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, formatFieldError(fe))
	}
	appErr := apperrors.NewConfigError("config validation failed: "+strings.Join(problems, "; "), nil)
	return appErr.WithContext("fields", problems)
}

func formatFieldError(fe validator.FieldError) string {
	// Namespace is Config.section.key; drop the root.
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required", "required_if", "required_unless":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
	}
}

// OutputPath returns the destination workbook, which defaults to the input.
func (p PipelineConfig) OutputPath() string {
	if p.Output != "" {
		return p.Output
	}
	return p.Input
}
