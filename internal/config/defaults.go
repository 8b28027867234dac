package config

const (
	defaultDataDir              = "~/.local/share/ledgersync"
	defaultLogDir               = "~/.local/share/ledgersync/logs"
	defaultLogLevel             = "info"
	defaultLogFormat            = "console"
	defaultLogRetentionDays     = 60
	defaultLoginURL             = "https://login.ecount.com/"
	defaultWorkStart            = "06:00"
	defaultWorkEnd              = "18:00"
	defaultIntervalMinutes      = 30
	defaultOffHoursSleepMinutes = 10
	defaultSummaryTime          = "17:45"
	defaultSMTPServer           = "smtp.gmail.com"
	defaultSMTPPort             = 587
	defaultWatchdogCheckMinutes = 5
	defaultWatchdogStaleMinutes = 60
	defaultWatchdogCooldownSecs = 60
	defaultLedgerAccountCode    = "1089"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Mode: ModeTest,
		URLs: URLs{
			Login: defaultLoginURL,
		},
		Schedule: Schedule{
			Enabled: true,
			WorkHours: WorkHours{
				Start: defaultWorkStart,
				End:   defaultWorkEnd,
			},
			IntervalMinutes:      defaultIntervalMinutes,
			OffHoursSleepMinutes: defaultOffHoursSleepMinutes,
			SummaryTime:          defaultSummaryTime,
		},
		Notification: Notification{
			Email: Email{
				SMTPServer: defaultSMTPServer,
				SMTPPort:   defaultSMTPPort,
			},
		},
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Logging: Logging{
			Level:         defaultLogLevel,
			Format:        defaultLogFormat,
			RetentionDays: defaultLogRetentionDays,
		},
		Watchdog: Watchdog{
			CheckIntervalMinutes: defaultWatchdogCheckMinutes,
			StaleMinutes:         defaultWatchdogStaleMinutes,
			CooldownSeconds:      defaultWatchdogCooldownSecs,
		},
		Ledger: Ledger{
			AccountCode: defaultLedgerAccountCode,
		},
	}
}
