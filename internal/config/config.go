package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Mode selects whether uploads are committed to the ERP.
const (
	ModeTest       = "test"
	ModeProduction = "production"
)

// Credentials identify the ERP account used for the automation session.
type Credentials struct {
	CompanyCode string `toml:"company_code"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
}

// URLs contains the ERP navigation targets.
type URLs struct {
	Login         string `toml:"login"`
	PaymentQuery  string `toml:"payment_query"`
	DepositReport string `toml:"deposit_report"`
}

// WorkHours bounds the daily synchronization window (HH:MM, inclusive).
type WorkHours struct {
	Start string `toml:"start"`
	End   string `toml:"end"`
}

// Schedule contains the cycle loop timing configuration.
type Schedule struct {
	Enabled              bool      `toml:"enabled"`
	WorkHours            WorkHours `toml:"work_hours"`
	IntervalMinutes      int       `toml:"interval_minutes"`
	OffHoursSleepMinutes int       `toml:"offhours_sleep_minutes"`
	SummaryTime          string    `toml:"summary_time"`
}

// Email contains SMTP settings for operator notifications.
type Email struct {
	Enabled        bool   `toml:"enabled"`
	SMTPServer     string `toml:"smtp_server"`
	SMTPPort       int    `toml:"smtp_port"`
	Sender         string `toml:"sender"`
	SenderPassword string `toml:"sender_password"`
	Recipient      string `toml:"recipient"`
}

// Notification groups the notification channels.
type Notification struct {
	Email Email `toml:"email"`
}

// Paths contains directory configuration for runtime artifacts.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Logging contains log output configuration.
type Logging struct {
	Level         string `toml:"level"`
	Format        string `toml:"format"`
	RetentionDays int    `toml:"retention_days"`
}

// Watchdog contains the heartbeat monitor thresholds.
type Watchdog struct {
	CheckIntervalMinutes int `toml:"check_interval_minutes"`
	StaleMinutes         int `toml:"stale_minutes"`
	CooldownSeconds      int `toml:"cooldown_seconds"`
}

// Ledger contains deposit-report posting constants.
type Ledger struct {
	AccountCode string `toml:"account_code"`
}

// Config is the root configuration document.
type Config struct {
	Mode         string       `toml:"mode"`
	Credentials  Credentials  `toml:"credentials"`
	URLs         URLs         `toml:"urls"`
	Schedule     Schedule     `toml:"schedule"`
	Notification Notification `toml:"notification"`
	Paths        Paths        `toml:"paths"`
	Logging      Logging      `toml:"logging"`
	Watchdog     Watchdog     `toml:"watchdog"`
	Ledger       Ledger       `toml:"ledger"`
}

// TestMode reports whether the save step and key persistence are disabled.
func (c *Config) TestMode() bool {
	return c.Mode != ModeProduction
}

// RecordStorePath returns the dedup-key store location.
func (c *Config) RecordStorePath() string {
	return filepath.Join(c.Paths.DataDir, "uploaded_records.json")
}

// HeartbeatPath returns the heartbeat artifact location.
func (c *Config) HeartbeatPath() string {
	return filepath.Join(c.Paths.DataDir, "heartbeat.txt")
}

// LockPath returns the process lock artifact location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "ledgersync.lock")
}

// HistoryDBPath returns the cycle history database location.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.DataDir, "history.db")
}

// DefaultConfigPath returns the canonical config file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "ledgersync", "config.toml"), nil
}

// Load reads the configuration from path, or from the default location when
// path is empty. A missing file yields defaults; used is the path consulted
// and found reports whether a file was read.
func Load(path string) (cfg *Config, used string, found bool, err error) {
	resolved := path
	if resolved == "" {
		resolved, err = DefaultConfigPath()
		if err != nil {
			return nil, "", false, err
		}
	}

	base := Default()
	data, readErr := os.ReadFile(resolved)
	switch {
	case readErr == nil:
		if err := toml.Unmarshal(data, &base); err != nil {
			return nil, resolved, true, fmt.Errorf("parse %s: %w", resolved, err)
		}
		found = true
	case errors.Is(readErr, fs.ErrNotExist):
		// Defaults apply; validation decides whether that is acceptable.
	default:
		return nil, resolved, false, fmt.Errorf("read %s: %w", resolved, readErr)
	}

	base.applyEnvOverrides()
	if err := base.normalize(); err != nil {
		return nil, resolved, found, err
	}
	return &base, resolved, found, nil
}

// WriteSample writes the embedded sample configuration to path.
func WriteSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o600)
}

// Render serializes the configuration back to TOML.
func (c *Config) Render() (string, error) {
	out, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(out), nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LEDGERSYNC_PASSWORD"); v != "" {
		c.Credentials.Password = v
	}
	if v := os.Getenv("LEDGERSYNC_SMTP_PASSWORD"); v != "" {
		c.Notification.Email.SenderPassword = v
	}
}
