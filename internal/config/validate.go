package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate ensures the configuration is usable for a daemon run.
func (c *Config) Validate() error {
	if err := c.validateMode(); err != nil {
		return err
	}
	if err := c.validateCredentials(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validateNotification(); err != nil {
		return err
	}
	if err := c.validateWatchdog(); err != nil {
		return err
	}
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Ledger.AccountCode == "" {
		return errors.New("ledger.account_code must be set")
	}
	return nil
}

func (c *Config) validateMode() error {
	switch c.Mode {
	case ModeTest, ModeProduction:
		return nil
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", ModeTest, ModeProduction, c.Mode)
	}
}

func (c *Config) validateCredentials() error {
	if c.Credentials.CompanyCode == "" || c.Credentials.Username == "" || c.Credentials.Password == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/ledgersync/config.toml"
		}
		return fmt.Errorf("credentials are incomplete. Edit %s (create with 'ledgersync config init') or set LEDGERSYNC_PASSWORD", defaultPath)
	}
	return nil
}

func (c *Config) validateSchedule() error {
	if c.Schedule.IntervalMinutes <= 0 {
		return errors.New("schedule.interval_minutes must be positive")
	}
	if c.Schedule.OffHoursSleepMinutes <= 0 {
		return errors.New("schedule.offhours_sleep_minutes must be positive")
	}
	for _, clock := range []struct {
		name  string
		value string
	}{
		{"schedule.work_hours.start", c.Schedule.WorkHours.Start},
		{"schedule.work_hours.end", c.Schedule.WorkHours.End},
		{"schedule.summary_time", c.Schedule.SummaryTime},
	} {
		if _, err := time.Parse("15:04", clock.value); err != nil {
			return fmt.Errorf("%s must be HH:MM, got %q", clock.name, clock.value)
		}
	}
	if c.Schedule.WorkHours.Start >= c.Schedule.WorkHours.End {
		return errors.New("schedule.work_hours.start must precede schedule.work_hours.end")
	}
	return nil
}

func (c *Config) validateNotification() error {
	email := c.Notification.Email
	if !email.Enabled {
		return nil
	}
	if email.SMTPServer == "" || email.SMTPPort <= 0 {
		return errors.New("notification.email requires smtp_server and smtp_port when enabled")
	}
	if email.Sender == "" || email.SenderPassword == "" || email.Recipient == "" {
		return errors.New("notification.email requires sender, sender_password, and recipient when enabled")
	}
	return nil
}

func (c *Config) validateWatchdog() error {
	if c.Watchdog.CheckIntervalMinutes <= 0 {
		return errors.New("watchdog.check_interval_minutes must be positive")
	}
	if c.Watchdog.StaleMinutes <= 0 {
		return errors.New("watchdog.stale_minutes must be positive")
	}
	if c.Watchdog.CooldownSeconds < 0 {
		return errors.New("watchdog.cooldown_seconds must not be negative")
	}
	return nil
}
