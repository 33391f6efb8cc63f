package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/vigilance/vanguard/internal/probe"
)

// Default configuration constants.
const (
	defaultWorkers      = 3
	defaultTimeout      = 2 * time.Minute
	defaultCutoffYear   = 2017
	defaultProbeTimeout = 15 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:3000", "Base URL of the service")
		userID     = flag.String("user", "", "Linked user id to probe")
		code       = flag.String("code", "", "Authorization code; links a fresh account and probes it")
		workers    = flag.Int("workers", defaultWorkers, "Characters probed concurrently")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		mode       = flag.Int("mode", 0, "Activity mode filter")
		count      = flag.Int("count", 0, "Activities per character (0: server default)")
		cutoff     = flag.Int("cutoff", defaultCutoffYear, "Oldest activity year accepted")
		outputFile = flag.String("output", "", "Write the JSON report to this file")
		save       = flag.Bool("save", false, "Write the JSON report to a timestamped file")
		logFile    = flag.String("log", "", "Also write log lines to this file")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp(os.Stdout)
		return
	}

	if err := probe.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	if *save && *outputFile == "" {
		*outputFile = probe.DefaultReportName(time.Now())
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultProbeTimeout)
	defer cancel()

	report, err := probe.Run(ctx, &probe.Config{
		BaseURL:    *baseURL,
		UserID:     *userID,
		Code:       *code,
		Workers:    *workers,
		Timeout:    *timeout,
		Mode:       *mode,
		Count:      *count,
		CutoffYear: *cutoff,
		OutputFile: *outputFile,
	})
	if err != nil {
		os.Stderr.WriteString("probe failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
	_ = probe.Render(os.Stdout, report)
	if !report.OK() {
		cancel()
		os.Exit(1)
	}
}
