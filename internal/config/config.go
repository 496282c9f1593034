package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// HTTP server
	ListenAddr     string `mapstructure:"listen_addr" yaml:"listen_addr" validate:"required,hostname_port"`
	MaxUploadMB    int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" validate:"min=1,max=1024"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled" yaml:"metrics_enabled"`

	// Ingestion and reporting
	HeadRows   int    `mapstructure:"head_rows" yaml:"head_rows" validate:"min=0"`
	Delimiter  string `mapstructure:"delimiter" yaml:"delimiter" validate:"max=1|eq=tab"`
	SheetName  string `mapstructure:"sheet_name" yaml:"sheet_name"`
	SheetIndex int    `mapstructure:"sheet_index" yaml:"sheet_index" validate:"min=1"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=text json"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"listen_addr", "max_upload_mb", "metrics_enabled",
	"head_rows", "delimiter", "sheet_name", "sheet_index",
	"log_level", "log_format",
}

var validate = validator.New()

// Defaults returns the built-in configuration.
func Defaults() *Global {
	return &Global{
		ListenAddr:     ":8080",
		MaxUploadMB:    10,
		MetricsEnabled: true,
		HeadRows:       5,
		SheetIndex:     1,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Validate checks field constraints and returns a readable error naming each
// offending key.
func (c *Global) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", yamlKey(fe.StructField()), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// DelimiterRune returns the configured delimiter, or 0 for auto detection.
func (c *Global) DelimiterRune() rune {
	if c.Delimiter == "" {
		return 0
	}
	if c.Delimiter == "tab" {
		return '\t'
	}
	return []rune(c.Delimiter)[0]
}

func yamlKey(field string) string {
	for _, k := range Keys {
		if strings.ReplaceAll(k, "_", "") == strings.ToLower(field) {
			return k
		}
	}
	return field
}

// Dir returns ~/.trendloom.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".trendloom"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.trendloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TRENDLOOM")
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("max_upload_mb", d.MaxUploadMB)
	v.SetDefault("metrics_enabled", d.MetricsEnabled)
	v.SetDefault("head_rows", d.HeadRows)
	v.SetDefault("delimiter", d.Delimiter)
	v.SetDefault("sheet_name", d.SheetName)
	v.SetDefault("sheet_index", d.SheetIndex)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
