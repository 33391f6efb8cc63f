package probe

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vigilance/vanguard/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging sends log output to stderr and, when logFile is set, to that
// file as well.
func SetupLogging(logFile string, verbose bool) error {
	var out io.Writer = os.Stderr
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, file)
	}
	if err := logger.InitWithOptions(logger.WithOutput(out)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return logger.SetLevelString("warn")
}

// DefaultReportName returns a timestamped report filename.
func DefaultReportName(now time.Time) string {
	return "probe_report_" + now.Format("20060102_150405") + ".json"
}

// ShowHelp prints usage information for the probe.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Vanguard Probe
==============

Read-only smoke check against a running vanguard instance. Fetches every
character of a linked user, their items, loadout, activities and weapon
statistics, and verifies the invariants of each response.

Usage:
  vanguard-probe [options]

Options:
  -url string        Base URL of the service (default "http://localhost:3000")
  -user string       Linked user id to probe
  -code string       Authorization code; links a fresh account and probes it
  -workers int       Characters probed concurrently (default 3)
  -timeout duration  HTTP request timeout (default 2m)
  -mode int          Activity mode filter (default 0, all)
  -count int         Activities per character (default 0, server default)
  -cutoff int        Oldest activity year accepted (default 2017)
  -output string     Write the JSON report to this file
  -log string        Also write log lines to this file
  -verbose           Enable debug logging
  -help              Show this help message

Exit status is 1 when a request fails or a check is violated.
`)
}
