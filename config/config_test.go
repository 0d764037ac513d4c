package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		Source:       "mbox",
		MboxPath:     "/tmp/export.mbox",
		Granularity:  "monthly",
		Mode:         "ignore",
		StoreKind:    "fs",
		Root:         "/tmp/archive",
		State:        "/tmp/state.json",
		LogLevel:     "info",
		WatermarkKey: "lastRun",
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"unknown granularity", func(c *Config) { c.Granularity = "weekly" }, "Granularity"},
		{"unknown duplicate mode", func(c *Config) { c.Mode = "merge" }, "Mode"},
		{"unknown source", func(c *Config) { c.Source = "pop3" }, "Source"},
		{"unknown store", func(c *Config) { c.StoreKind = "s3" }, "StoreKind"},
		{"missing root", func(c *Config) { c.Root = "" }, "Root"},
		{"missing state", func(c *Config) { c.State = "" }, "State"},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "LogLevel"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "timezone"},
		{"mbox source without path", func(c *Config) { c.MboxPath = "" }, "--mbox"},
		{"gmail source without tokens", func(c *Config) { c.Source = "gmail" }, "token"},
		{"imap source without host", func(c *Config) { c.Source = "imap" }, "--imap-host"},
		{"drive store without tokens", func(c *Config) { c.StoreKind = "drive" }, "token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() accepted an invalid config")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Validate() error = %q, want mention of %q", err, tt.wantMsg)
			}
		})
	}
}

func TestValidate_IMAPRequirements(t *testing.T) {
	cfg := validConfig()
	cfg.Source = "imap"
	cfg.IMAPHost = "mail.example.com"
	cfg.IMAPUser = "archiver"
	cfg.IMAPPass = "secret"
	cfg.IMAPPort = 993
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	cfg.IMAPPort = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted port 0")
	}
}

func TestLocation(t *testing.T) {
	cfg := validConfig()
	cfg.Timezone = "Europe/Berlin"
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc.String() != "Europe/Berlin" {
		t.Errorf("Location() = %v", loc)
	}
}
