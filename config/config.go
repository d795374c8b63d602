// Package config loads the service settings from defaults, an optional TOML
// file, the environment and command line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ProviderYoutube = "youtube"
	ProviderYtDlp   = "ytdlp"

	JournalNone     = ""
	JournalPostgres = "postgres"
	JournalSQLite   = "sqlite"
)

type Config struct {
	Port            int
	Provider        string
	YtDlpPath       string
	YoutubeAPIKey   string
	ProviderTimeout time.Duration
	CORSOrigins     []string
	JournalDriver   string
	JournalDSN      string
	LogLevel        string
	LogFormat       string
}

var defaults = map[string]any{
	"port":             3000,
	"provider":         ProviderYoutube,
	"ytdlp_path":       "yt-dlp",
	"youtube_api_key":  "",
	"provider_timeout": "30s",
	"cors_origins":     "http://localhost:3000,http://localhost:5500,http://127.0.0.1:5500",
	"journal_driver":   JournalNone,
	"journal_dsn":      "",
	"log_level":        "info",
	"log_format":       "text",
}

// Load reads the configuration. path may be empty, in which case only
// defaults, environment and flags count. flags may be nil.
func Load(fs afero.Fs, path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	for key, value := range defaults {
		v.SetDefault(key, value)
		// environment variables are the upper case keys: PORT, JOURNAL_DSN, ...
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, err
		}
	}

	if flags != nil {
		for _, key := range []string{"port", "provider", "log_level"} {
			if f := flags.Lookup(strings.ReplaceAll(key, "_", "-")); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	timeout, err := time.ParseDuration(v.GetString("provider_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid provider_timeout: %w", err)
	}

	return &Config{
		Port:            v.GetInt("port"),
		Provider:        strings.ToLower(v.GetString("provider")),
		YtDlpPath:       v.GetString("ytdlp_path"),
		YoutubeAPIKey:   v.GetString("youtube_api_key"),
		ProviderTimeout: timeout,
		CORSOrigins:     stringList(v.Get("cors_origins")),
		JournalDriver:   strings.ToLower(v.GetString("journal_driver")),
		JournalDSN:      v.GetString("journal_dsn"),
		LogLevel:        strings.ToLower(v.GetString("log_level")),
		LogFormat:       strings.ToLower(v.GetString("log_format")),
	}, nil
}

// stringList accepts both a TOML array and a comma separated string.
func stringList(value any) []string {
	var items []string
	switch v := value.(type) {
	case string:
		items = strings.Split(v, ",")
	case []string:
		items = v
	case []any:
		for _, item := range v {
			items = append(items, fmt.Sprint(item))
		}
	}

	list := []string{}
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	switch c.Provider {
	case ProviderYoutube:
	case ProviderYtDlp:
		if c.YtDlpPath == "" {
			errs = append(errs, errors.New("ytdlp_path is required for the ytdlp provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q, expected %s or %s", c.Provider, ProviderYoutube, ProviderYtDlp))
	}
	if c.ProviderTimeout <= 0 {
		errs = append(errs, errors.New("provider_timeout must be positive"))
	}
	switch c.JournalDriver {
	case JournalNone:
	case JournalPostgres, JournalSQLite:
		if c.JournalDSN == "" {
			errs = append(errs, fmt.Errorf("journal_dsn is required for the %s journal", c.JournalDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown journal driver %q", c.JournalDriver))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}

	return errors.Join(errs...)
}
