package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	if c.Mode == "" {
		c.Mode = ModeTest
	}

	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	c.Schedule.WorkHours.Start = strings.TrimSpace(c.Schedule.WorkHours.Start)
	c.Schedule.WorkHours.End = strings.TrimSpace(c.Schedule.WorkHours.End)
	c.Schedule.SummaryTime = strings.TrimSpace(c.Schedule.SummaryTime)
	c.Credentials.CompanyCode = strings.TrimSpace(c.Credentials.CompanyCode)
	c.Credentials.Username = strings.TrimSpace(c.Credentials.Username)
	c.Notification.Email.Sender = strings.TrimSpace(c.Notification.Email.Sender)
	c.Notification.Email.Recipient = strings.TrimSpace(c.Notification.Email.Recipient)
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %s: %w", path, err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Clean(trimmed), nil
}
