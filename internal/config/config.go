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
)

const (
	SourceGoogle = "google"
	SourceMemory = "memory"

	SchemaReport = "report"
	SchemaAdjust = "adjust"

	DatePolicyFallbackNow = "fallback_now"
	DatePolicyReject      = "reject"
)

type Config struct {
	Port        string        `yaml:"port"`
	HTTPTimeout time.Duration `yaml:"httpTimeout"`
	LogLevel    string        `yaml:"logLevel"`
	Timezone    string        `yaml:"timezone"`

	Sheet    SheetConfig    `yaml:"sheet"`
	Auth     AuthConfig     `yaml:"auth"`
	Adjust   AdjustConfig   `yaml:"adjust"`
	Pipeline PipelineConfig `yaml:"pipeline"`

	location *time.Location `yaml:"-"`
}

type SheetConfig struct {
	Source          string `yaml:"source"`
	SpreadsheetID   string `yaml:"spreadsheetId"`
	APIKey          string `yaml:"apiKey"`
	CredentialsFile string `yaml:"credentialsFile"`
	Name            string `yaml:"name"`
	Schema          string `yaml:"schema"`
}

type AuthConfig struct {
	AdminEmail        string        `yaml:"adminEmail"`
	AdminPasswordHash string        `yaml:"adminPasswordHash"`
	JWTSecret         string        `yaml:"jwtSecret"`
	TokenTTL          time.Duration `yaml:"tokenTTL"`
}

type AdjustConfig struct {
	APIToken    string `yaml:"apiToken"`
	APIURL      string `yaml:"apiUrl"`
	AppLabel    string `yaml:"appLabel"`
	SyncEnabled bool   `yaml:"syncEnabled"`
	SyncHour    int    `yaml:"syncHour"`
}

// PipelineConfig holds the business constants used by the KPI derivation.
type PipelineConfig struct {
	TotalBudget             float64 `yaml:"totalBudget"`
	DailyBudgetDivisor      float64 `yaml:"dailyBudgetDivisor"`
	DailySpendCap           float64 `yaml:"dailySpendCap"`
	DatePolicy              string  `yaml:"datePolicy"`
	YesterdayFromUnfiltered bool    `yaml:"yesterdayFromUnfiltered"`
}

func Default() Config {
	return Config{
		Port:        "8080",
		HTTPTimeout: 15 * time.Second,
		LogLevel:    "info",
		Timezone:    "Europe/Paris",
		Sheet: SheetConfig{
			Source: SourceGoogle,
			Name:   "ParionsSport Data",
			Schema: SchemaReport,
		},
		Auth: AuthConfig{
			AdminEmail: "admin@example.com",
			TokenTTL:   7 * 24 * time.Hour,
		},
		Adjust: AdjustConfig{
			APIURL:   "https://dash.adjust.com/control-center/reports/csv_export",
			AppLabel: "Sharper",
			SyncHour: 6,
		},
		Pipeline: PipelineConfig{
			TotalBudget:             20000,
			DailyBudgetDivisor:      31,
			DailySpendCap:           600,
			DatePolicy:              DatePolicyFallbackNow,
			YesterdayFromUnfiltered: true,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// the environment, in that order of precedence.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("DASH_CONFIG")
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv is Load without a config file.
func FromEnv() (Config, error) { return Load("") }

func applyEnv(c *Config) {
	c.Port = envOr("PORT", c.Port)
	if v := os.Getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			c.HTTPTimeout = d
		}
	}
	c.LogLevel = envOr("LOG_LEVEL", c.LogLevel)
	c.Timezone = envOr("TIMEZONE", c.Timezone)

	c.Sheet.Source = envOr("SHEET_SOURCE", c.Sheet.Source)
	c.Sheet.SpreadsheetID = envOr("GOOGLE_SHEET_ID", c.Sheet.SpreadsheetID)
	c.Sheet.APIKey = envOr("GOOGLE_API_KEY", c.Sheet.APIKey)
	c.Sheet.CredentialsFile = envOr("GOOGLE_CREDENTIALS_FILE", c.Sheet.CredentialsFile)
	c.Sheet.Name = envOr("SHEET_NAME", c.Sheet.Name)
	c.Sheet.Schema = envOr("SHEET_SCHEMA", c.Sheet.Schema)

	c.Auth.AdminEmail = envOr("ADMIN_EMAIL", c.Auth.AdminEmail)
	c.Auth.AdminPasswordHash = envOr("ADMIN_PASSWORD_HASH", c.Auth.AdminPasswordHash)
	c.Auth.JWTSecret = envOr("JWT_SECRET", c.Auth.JWTSecret)

	c.Adjust.APIToken = envOr("ADJUST_API_TOKEN", c.Adjust.APIToken)
	c.Adjust.APIURL = envOr("ADJUST_API_URL", c.Adjust.APIURL)
	c.Adjust.AppLabel = envOr("ADJUST_APP_LABEL", c.Adjust.AppLabel)
	c.Adjust.SyncEnabled = envBool("ADJUST_SYNC_ENABLED", c.Adjust.SyncEnabled)
	c.Adjust.SyncHour = envInt("ADJUST_SYNC_HOUR", c.Adjust.SyncHour)

	c.Pipeline.TotalBudget = envFloat("TOTAL_BUDGET", c.Pipeline.TotalBudget)
	c.Pipeline.DailyBudgetDivisor = envFloat("DAILY_BUDGET_DIVISOR", c.Pipeline.DailyBudgetDivisor)
	c.Pipeline.DailySpendCap = envFloat("DAILY_SPEND_CAP", c.Pipeline.DailySpendCap)
	c.Pipeline.DatePolicy = envOr("DATE_POLICY", c.Pipeline.DatePolicy)
	c.Pipeline.YesterdayFromUnfiltered = envBool("YESTERDAY_FROM_UNFILTERED", c.Pipeline.YesterdayFromUnfiltered)
}

// Validate checks the values needed by every command. Secrets required
// only by serve are checked by ValidateServe.
func (c *Config) Validate() error {
	var errs []error
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	} else {
		c.location = loc
	}
	switch c.Sheet.Source {
	case SourceGoogle:
		if c.Sheet.SpreadsheetID == "" {
			errs = append(errs, errors.New("GOOGLE_SHEET_ID is required for the google source"))
		}
	case SourceMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown sheet source %q", c.Sheet.Source))
	}
	if c.Sheet.Schema != SchemaReport && c.Sheet.Schema != SchemaAdjust {
		errs = append(errs, fmt.Errorf("unknown sheet schema %q", c.Sheet.Schema))
	}
	if c.Pipeline.DatePolicy != DatePolicyFallbackNow && c.Pipeline.DatePolicy != DatePolicyReject {
		errs = append(errs, fmt.Errorf("unknown date policy %q", c.Pipeline.DatePolicy))
	}
	if c.Pipeline.TotalBudget <= 0 {
		errs = append(errs, errors.New("total budget must be positive"))
	}
	if c.Pipeline.DailyBudgetDivisor <= 0 {
		errs = append(errs, errors.New("daily budget divisor must be positive"))
	}
	if c.Pipeline.DailySpendCap < 0 {
		errs = append(errs, errors.New("daily spend cap must not be negative"))
	}
	if c.Adjust.SyncHour < 0 || c.Adjust.SyncHour > 23 {
		errs = append(errs, fmt.Errorf("adjust sync hour %d out of range", c.Adjust.SyncHour))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("http timeout must be positive"))
	}
	return errors.Join(errs...)
}

func (c Config) ValidateServe() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.AdminPasswordHash == "" {
		errs = append(errs, errors.New("ADMIN_PASSWORD_HASH is required"))
	}
	if c.Adjust.SyncEnabled && c.Adjust.APIToken == "" {
		errs = append(errs, errors.New("ADJUST_API_TOKEN is required when the adjust sync is enabled"))
	}
	return errors.Join(errs...)
}

func (c Config) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	return time.UTC
}

func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SheetRange is the A1 range read for the configured schema.
func (c Config) SheetRange() string {
	cols := "A:J"
	if c.Sheet.Schema == SchemaAdjust {
		cols = "A:G"
	}
	return fmt.Sprintf("'%s'!%s", c.Sheet.Name, cols)
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}

func envFloat(k string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(k), 64)
	if err != nil {
		return def
	}
	return v
}
