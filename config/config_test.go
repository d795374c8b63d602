package config

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

func TestLoad(t *testing.T) {
	Convey("Given an in-memory filesystem", t, func() {
		fs := afero.NewMemMapFs()

		Convey("When nothing is configured", func() {
			cfg, err := Load(fs, "", nil)
			So(err, ShouldBeNil)

			Convey("Then the defaults apply and validate", func() {
				So(cfg.Port, ShouldEqual, 3000)
				So(cfg.Provider, ShouldEqual, ProviderYoutube)
				So(cfg.ProviderTimeout, ShouldEqual, 30*time.Second)
				So(cfg.CORSOrigins, ShouldResemble, []string{"http://localhost:3000", "http://localhost:5500", "http://127.0.0.1:5500"})
				So(cfg.JournalDriver, ShouldEqual, JournalNone)
				So(cfg.Validate(), ShouldBeNil)
			})
		})

		Convey("When a config file is given", func() {
			So(afero.WriteFile(fs, "/etc/gateway.toml", []byte(`
port = 8080
provider = "ytdlp"
provider_timeout = "5s"
cors_origins = ["https://example.com"]
journal_driver = "sqlite"
journal_dsn = "file:journal.db"
`), 0o644), ShouldBeNil)

			cfg, err := Load(fs, "/etc/gateway.toml", nil)
			So(err, ShouldBeNil)

			Convey("Then its values override the defaults", func() {
				So(cfg.Port, ShouldEqual, 8080)
				So(cfg.Provider, ShouldEqual, ProviderYtDlp)
				So(cfg.ProviderTimeout, ShouldEqual, 5*time.Second)
				So(cfg.CORSOrigins, ShouldResemble, []string{"https://example.com"})
				So(cfg.JournalDriver, ShouldEqual, JournalSQLite)
				So(cfg.Validate(), ShouldBeNil)
			})
		})

		Convey("When the config file does not exist", func() {
			_, err := Load(fs, "/missing.toml", nil)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestLoadPrecedence(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/gateway.toml", []byte("port = 8080\nlog_level = \"debug\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	if err := flags.Parse([]string{"--log-level=error"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(fs, "/gateway.toml", flags)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("port = %d, want the environment value 9090", cfg.Port)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("log level = %q, want the flag value error", cfg.LogLevel)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("cors origins = %v", cfg.CORSOrigins)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{Port: 3000, Provider: ProviderYoutube, ProviderTimeout: time.Second, LogLevel: "info", LogFormat: "text"}
	}

	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"port zero", func(c *Config) { c.Port = 0 }, true},
		{"unknown provider", func(c *Config) { c.Provider = "vimeo" }, true},
		{"ytdlp without path", func(c *Config) { c.Provider = ProviderYtDlp }, true},
		{"ytdlp with path", func(c *Config) { c.Provider = ProviderYtDlp; c.YtDlpPath = "/usr/bin/yt-dlp" }, false},
		{"no timeout", func(c *Config) { c.ProviderTimeout = 0 }, true},
		{"journal without dsn", func(c *Config) { c.JournalDriver = JournalPostgres }, true},
		{"unknown journal", func(c *Config) { c.JournalDriver = "mysql"; c.JournalDSN = "x" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.modify(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
