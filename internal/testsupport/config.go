package testsupport

import (
	"testing"

	"ledgersync/internal/config"
)

// NewConfig returns a valid configuration rooted in a fresh temp dir.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Credentials = config.Credentials{
		CompanyCode: "12345",
		Username:    "operator",
		Password:    "secret",
	}
	cfg.URLs.PaymentQuery = "menu://payment-query"
	cfg.URLs.DepositReport = "menu://deposit-report"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("fixture config invalid: %v", err)
	}
	return &cfg
}
