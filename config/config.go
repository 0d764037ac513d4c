package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/cobra"
)

// Config captures everything one archive run needs. Granularity and
// duplicate mode are validated here so misconfiguration aborts before
// any collaborator is touched.
type Config struct {
	Source string
	Query  string

	Granularity string
	Mode        string
	Timezone    string

	StoreKind string
	Root      string

	State            string
	WatermarkKey     string
	InitialWatermark int64

	DryRun   bool
	LogLevel string
	LogDir   string

	// Gmail and Drive credentials.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleAccessToken  string
	GoogleRefreshToken string

	// IMAP source.
	IMAPHost           string
	IMAPPort           int
	IMAPUser           string
	IMAPPass           string
	UseTLS             bool
	InsecureSkipVerify bool
	IMAPMailbox        string

	// Mbox source.
	MboxPath string
}

// RegisterFlags attaches all CLI flags to the provided command.
func RegisterFlags(cmd *cobra.Command) error {
	defaultState, err := defaultStatePath()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	flags.String("source", "gmail", "Mail source: gmail, imap or mbox")
	flags.String("query", "", "Source query fragment selecting candidate messages (Gmail search syntax)")
	flags.String("granularity", "monthly", "Archive folder granularity: yearly, monthly or daily")
	flags.String("duplicate-mode", "ignore", "What to do on a filename collision: ignore or overwrite")
	flags.String("timezone", "", "IANA zone used for archive paths and filenames (defaults to the local zone)")
	flags.String("store", "fs", "Archive store: fs (local directory) or drive (Google Drive)")
	flags.String("root", "", "Archive root: a directory for fs, a folder id for drive")
	flags.String("state", defaultState, "Watermark location: file path, sqlite://path, postgres://dsn or memory://")
	flags.String("watermark-key", "", "Property name of the stored watermark")
	flags.Int64("initial-watermark", -1, "Epoch seconds seeding the first run when no watermark is stored")
	flags.Bool("dry-run", false, "Plan and decide without writing files or advancing the watermark")
	flags.String("log-level", "info", "Logging level: debug, info, warn, error")
	flags.String("log-dir", "", "Directory for a timestamped log file in addition to stdout")

	flags.String("google-client-id", "", "OAuth client id for Gmail/Drive (falls back to GOOGLE_CLIENT_ID)")
	flags.String("google-client-secret", "", "OAuth client secret (falls back to GOOGLE_CLIENT_SECRET)")
	flags.String("google-access-token", "", "OAuth access token (falls back to GOOGLE_ACCESS_TOKEN)")
	flags.String("google-refresh-token", "", "OAuth refresh token (falls back to GOOGLE_REFRESH_TOKEN)")

	flags.String("imap-host", "", "IMAP server hostname")
	flags.Int("imap-port", 993, "IMAP server port")
	flags.String("imap-user", "", "IMAP username")
	flags.String("imap-pass", "", "IMAP password (falls back to IMAP_PASS)")
	flags.Bool("use-tls", true, "Use TLS for the IMAP connection")
	flags.Bool("insecure-skip-verify", false, "Skip TLS certificate verification (not recommended)")
	flags.String("imap-mailbox", "INBOX", "IMAP mailbox to archive from")

	flags.String("mbox", "", "Path to a local .mbox file to archive from")

	return cmd.MarkFlagRequired("root")
}

// LoadConfig converts the parsed flags into a validated Config.
func LoadConfig(cmd *cobra.Command) (Config, error) {
	flags := cmd.Flags()

	var cfg Config
	var err error

	if cfg.Source, err = flags.GetString("source"); err != nil {
		return Config{}, err
	}
	if cfg.Query, err = flags.GetString("query"); err != nil {
		return Config{}, err
	}
	if cfg.Granularity, err = flags.GetString("granularity"); err != nil {
		return Config{}, err
	}
	if cfg.Mode, err = flags.GetString("duplicate-mode"); err != nil {
		return Config{}, err
	}
	if cfg.Timezone, err = flags.GetString("timezone"); err != nil {
		return Config{}, err
	}
	if cfg.StoreKind, err = flags.GetString("store"); err != nil {
		return Config{}, err
	}
	if cfg.Root, err = flags.GetString("root"); err != nil {
		return Config{}, err
	}
	if cfg.State, err = flags.GetString("state"); err != nil {
		return Config{}, err
	}
	if cfg.WatermarkKey, err = flags.GetString("watermark-key"); err != nil {
		return Config{}, err
	}
	if cfg.InitialWatermark, err = flags.GetInt64("initial-watermark"); err != nil {
		return Config{}, err
	}
	if cfg.DryRun, err = flags.GetBool("dry-run"); err != nil {
		return Config{}, err
	}
	if cfg.LogLevel, err = flags.GetString("log-level"); err != nil {
		return Config{}, err
	}
	if cfg.LogDir, err = flags.GetString("log-dir"); err != nil {
		return Config{}, err
	}
	if cfg.GoogleClientID, err = flags.GetString("google-client-id"); err != nil {
		return Config{}, err
	}
	if cfg.GoogleClientSecret, err = flags.GetString("google-client-secret"); err != nil {
		return Config{}, err
	}
	if cfg.GoogleAccessToken, err = flags.GetString("google-access-token"); err != nil {
		return Config{}, err
	}
	if cfg.GoogleRefreshToken, err = flags.GetString("google-refresh-token"); err != nil {
		return Config{}, err
	}
	if cfg.IMAPHost, err = flags.GetString("imap-host"); err != nil {
		return Config{}, err
	}
	if cfg.IMAPPort, err = flags.GetInt("imap-port"); err != nil {
		return Config{}, err
	}
	if cfg.IMAPUser, err = flags.GetString("imap-user"); err != nil {
		return Config{}, err
	}
	if cfg.IMAPPass, err = flags.GetString("imap-pass"); err != nil {
		return Config{}, err
	}
	if cfg.UseTLS, err = flags.GetBool("use-tls"); err != nil {
		return Config{}, err
	}
	if cfg.InsecureSkipVerify, err = flags.GetBool("insecure-skip-verify"); err != nil {
		return Config{}, err
	}
	if cfg.IMAPMailbox, err = flags.GetString("imap-mailbox"); err != nil {
		return Config{}, err
	}
	if cfg.MboxPath, err = flags.GetString("mbox"); err != nil {
		return Config{}, err
	}

	applyEnvFallbacks(&cfg)

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyEnvFallbacks(cfg *Config) {
	if cfg.GoogleClientID == "" {
		cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if cfg.GoogleClientSecret == "" {
		cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if cfg.GoogleAccessToken == "" {
		cfg.GoogleAccessToken = os.Getenv("GOOGLE_ACCESS_TOKEN")
	}
	if cfg.GoogleRefreshToken == "" {
		cfg.GoogleRefreshToken = os.Getenv("GOOGLE_REFRESH_TOKEN")
	}
	if cfg.IMAPPass == "" {
		cfg.IMAPPass = os.Getenv("IMAP_PASS")
	}
}

// Validate checks the configuration surface. Enum violations here are
// the fatal configuration errors that abort a run before any I/O.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Source, validation.Required, validation.In("gmail", "imap", "mbox")),
		validation.Field(&c.Granularity, validation.Required, validation.In("yearly", "monthly", "daily")),
		validation.Field(&c.Mode, validation.Required, validation.In("ignore", "overwrite")),
		validation.Field(&c.StoreKind, validation.Required, validation.In("fs", "drive")),
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.State, validation.Required),
		validation.Field(&c.LogLevel, validation.Required, validation.In("debug", "info", "warn", "error")),
	)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid configuration: unknown timezone %q", c.Timezone)
		}
	}

	switch c.Source {
	case "imap":
		if c.IMAPHost == "" {
			return fmt.Errorf("invalid configuration: --imap-host is required with --source imap")
		}
		if c.IMAPUser == "" {
			return fmt.Errorf("invalid configuration: --imap-user is required with --source imap")
		}
		if c.IMAPPass == "" {
			return fmt.Errorf("invalid configuration: IMAP password must be provided via --imap-pass or IMAP_PASS")
		}
		if c.IMAPPort <= 0 || c.IMAPPort > 65535 {
			return fmt.Errorf("invalid configuration: --imap-port must be between 1 and 65535")
		}
	case "mbox":
		if c.MboxPath == "" {
			return fmt.Errorf("invalid configuration: --mbox is required with --source mbox")
		}
	case "gmail":
		if c.GoogleAccessToken == "" && c.GoogleRefreshToken == "" {
			return fmt.Errorf("invalid configuration: a Google access or refresh token is required with --source gmail")
		}
	}

	if c.StoreKind == "drive" && c.GoogleAccessToken == "" && c.GoogleRefreshToken == "" {
		return fmt.Errorf("invalid configuration: a Google access or refresh token is required with --store drive")
	}

	return nil
}

// Location resolves the configured reference zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func defaultStatePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".mail-archiver", "state.json"), nil
}
