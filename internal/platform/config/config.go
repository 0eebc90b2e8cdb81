package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"grantintake/internal/intake/models"
	pstrings "grantintake/pkg/platform/strings"
)

// Backend names accepted by RECORD_STORE and OBJECT_STORE.
const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Server captures process level configuration.
type Server struct {
	Addr           string
	LogLevel       slog.Level
	RequestTimeout time.Duration

	Supabase SupabaseConfig
	Redis    RedisConfig
	Webhooks WebhookConfig
	Kafka    KafkaConfig
	Limits   RateLimitConfig

	RecordStore string
	ObjectStore string
	DatabaseURL string

	Variants map[string]models.Variant
}

type SupabaseConfig struct {
	URL        string
	ServiceKey string
	Timeout    time.Duration
}

// RedisConfig configures the optional in-flight guard backend. An empty URL
// keeps the guard in process.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type WebhookConfig struct {
	AURL    string
	BURL    string
	Timeout time.Duration
}

// KafkaConfig enables the Kafka notification target when Brokers is set.
type KafkaConfig struct {
	Brokers         []string
	Topic           string
	DeliveryTimeout time.Duration
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// FromEnv builds a Server config from environment variables so main stays
// lean. Variants come from FORM_VARIANTS_FILE when set.
func FromEnv() (Server, error) {
	var errs []error
	cfg := Server{
		Addr:           envString("INTAKE_ADDR", ":8080"),
		LogLevel:       parseLevel(os.Getenv("LOG_LEVEL")),
		RequestTimeout: envDuration("REQUEST_TIMEOUT", 60*time.Second, &errs),
		Supabase: SupabaseConfig{
			URL:        os.Getenv("SUPABASE_URL"),
			ServiceKey: os.Getenv("SUPABASE_SERVICE_KEY"),
			Timeout:    envDuration("SUPABASE_TIMEOUT", 30*time.Second, &errs),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10, &errs),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2, &errs),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second, &errs),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second, &errs),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second, &errs),
		},
		Webhooks: WebhookConfig{
			AURL:    os.Getenv("WEBHOOK_A_URL"),
			BURL:    os.Getenv("WEBHOOK_B_URL"),
			Timeout: envDuration("WEBHOOK_TIMEOUT", 10*time.Second, &errs),
		},
		Kafka: KafkaConfig{
			Brokers:         pstrings.SplitList(os.Getenv("KAFKA_BROKERS")),
			Topic:           envString("KAFKA_TOPIC", "grant-applications"),
			DeliveryTimeout: envDuration("KAFKA_DELIVERY_TIMEOUT", 5*time.Second, &errs),
		},
		Limits: RateLimitConfig{
			RPS:   envFloat("RATE_LIMIT_RPS", 2, &errs),
			Burst: envInt("RATE_LIMIT_BURST", 10, &errs),
		},
		RecordStore: strings.ToLower(envString("RECORD_STORE", BackendSupabase)),
		ObjectStore: strings.ToLower(envString("OBJECT_STORE", BackendSupabase)),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Variants:    models.DefaultVariants(),
	}

	if path := os.Getenv("FORM_VARIANTS_FILE"); path != "" {
		variants, err := LoadVariants(path)
		if err != nil {
			errs = append(errs, err)
		} else {
			cfg.Variants = variants
		}
	}

	errs = append(errs, cfg.validate()...)
	return cfg, errors.Join(errs...)
}

func (c Server) validate() []error {
	var errs []error
	switch c.RecordStore {
	case BackendSupabase, BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when RECORD_STORE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("RECORD_STORE: unknown backend %q", c.RecordStore))
	}
	switch c.ObjectStore {
	case BackendSupabase, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("OBJECT_STORE: unknown backend %q", c.ObjectStore))
	}
	if c.UsesSupabase() && (c.Supabase.URL == "" || c.Supabase.ServiceKey == "") {
		errs = append(errs, errors.New("SUPABASE_URL and SUPABASE_SERVICE_KEY are required for the supabase backend"))
	}
	return errs
}

// UsesSupabase reports whether any store is backed by Supabase.
func (c Server) UsesSupabase() bool {
	return c.RecordStore == BackendSupabase || c.ObjectStore == BackendSupabase
}

type variantsFile struct {
	Variants []models.Variant `yaml:"variants"`
}

// LoadVariants reads form variants from a YAML file:
//
//	variants:
//	  - name: standard
//	    max_attachment_bytes: 5242880
//	    bucket: support-letters
//	    table: grant_applications
func LoadVariants(path string) (map[string]models.Variant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read variants file: %w", err)
	}
	return ParseVariants(data)
}

// ParseVariants decodes a variants document. Bucket and table default to the
// built-in values.
func ParseVariants(data []byte) (map[string]models.Variant, error) {
	var f variantsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse variants file: %w", err)
	}
	if len(f.Variants) == 0 {
		return nil, errors.New("variants file defines no variants")
	}
	defaults := models.DefaultVariants()[models.VariantStandard]
	out := make(map[string]models.Variant, len(f.Variants))
	for _, v := range f.Variants {
		if v.Name == "" {
			return nil, errors.New("variant without a name")
		}
		if v.MaxAttachmentBytes <= 0 {
			return nil, fmt.Errorf("variant %s: max_attachment_bytes must be positive", v.Name)
		}
		if _, dup := out[v.Name]; dup {
			return nil, fmt.Errorf("variant %s defined twice", v.Name)
		}
		if v.Bucket == "" {
			v.Bucket = defaults.Bucket
		}
		if v.Table == "" {
			v.Table = defaults.Table
		}
		out[v.Name] = v
	}
	return out, nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func envInt(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func envFloat(key string, def float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
