// Package probe runs a read-only smoke check against a running vanguard
// instance and verifies the invariants of its responses.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vigilance/vanguard/internal/adapters/mq/queue"
	"github.com/vigilance/vanguard/internal/adapters/mq/worker"
	"github.com/vigilance/vanguard/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	reportPermission    = 0o600
)

// itemLocations are probed for every character.
var itemLocations = []string{"equipment", "inventory"} //nolint:gochecknoglobals // fixed probe plan

// characterResult is what one probe task yields.
type characterResult struct {
	items      int
	activities int
	weaponRows int
	failures   []string
	violations []Violation
}

// Run executes the complete probe.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	log := logger.Get().Named("probe")
	report := &Report{StartTime: time.Now(), Failures: []string{}, Violations: []Violation{}}

	log.Info(ctx, "starting vanguard probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Int("mode", cfg.Mode),
		logger.Int("count", cfg.Count))

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return nil, err
	}

	userID := cfg.UserID
	if cfg.Code != "" {
		a, err := client.Authorize(ctx, cfg.Code)
		if err != nil {
			return nil, err
		}
		log.Info(ctx, "account linked", logger.String("userID", a.UserID), logger.String("displayName", a.DisplayName))
		userID = a.UserID
	}
	if userID == "" {
		return nil, ErrNoUser
	}
	report.UserID = userID

	chars, err := client.Characters(ctx, userID)
	if err != nil {
		return nil, err
	}
	report.Characters = len(chars)
	report.Violations = append(report.Violations, verifyCharacters(chars)...)

	pool := worker.NewPool(cfg.Workers, queue.NewInMemoryQueue(), worker.WithPoolLogger(log))
	pool.Start(ctx)
	defer func() {
		if err := pool.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Warn(ctx, "probe pool shutdown", logger.Error(err))
		}
	}()

	futures := make([]*worker.Future[characterResult], 0, len(chars)+2)
	for _, c := range chars {
		futures = append(futures, worker.Submit(ctx, pool, "character-"+c.ID, func(ctx context.Context) (characterResult, error) {
			return probeCharacter(ctx, client, cfg, userID, c.ID), nil
		}))
	}
	for _, pve := range []bool{true, false} {
		futures = append(futures, worker.Submit(ctx, pool, "weapon-stats", func(ctx context.Context) (characterResult, error) {
			return probeWeaponStats(ctx, client, userID, pve), nil
		}))
	}

	for _, f := range futures {
		res, err := f.Await(ctx)
		if err != nil {
			report.Failures = append(report.Failures, err.Error())
			continue
		}
		report.ItemsChecked += res.items
		report.ActivitiesChecked += res.activities
		report.WeaponStatRows += res.weaponRows
		report.Failures = append(report.Failures, res.failures...)
		report.Violations = append(report.Violations, res.violations...)
	}

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)

	if cfg.OutputFile != "" {
		if err := saveReport(cfg.OutputFile, report); err != nil {
			log.Warn(ctx, "failed to save report", logger.Error(err))
		}
	}

	log.Info(ctx, "probe finished",
		logger.Int("characters", report.Characters),
		logger.Int("failures", len(report.Failures)),
		logger.Int("violations", len(report.Violations)),
		logger.Duration("duration", report.Duration))
	return report, nil
}

func probeCharacter(ctx context.Context, client *Client, cfg *Config, userID, characterID string) characterResult {
	var res characterResult
	fail := func(err error) { res.failures = append(res.failures, characterID+": "+err.Error()) }

	for _, loc := range itemLocations {
		items, err := client.Items(ctx, userID, characterID, loc)
		if err != nil {
			fail(err)
			continue
		}
		res.items += len(items.Items)
		res.violations = append(res.violations, verifyItems(characterID+"/"+loc, items)...)
	}

	if l, err := client.Loadout(ctx, userID, characterID); err != nil {
		fail(err)
	} else {
		res.violations = append(res.violations, verifyLoadout(characterID, l)...)
	}

	acts, err := client.Activities(ctx, userID, characterID, cfg.Mode, cfg.Count)
	if err != nil {
		fail(err)
		return res
	}
	res.activities = len(acts)
	res.violations = append(res.violations, verifyActivities(characterID, acts, cfg.CutoffYear)...)
	return res
}

func probeWeaponStats(ctx context.Context, client *Client, userID string, pve bool) characterResult {
	var res characterResult
	subject := "pvp"
	if pve {
		subject = "pve"
	}
	rows, err := client.WeaponStats(ctx, userID, pve)
	if err != nil {
		res.failures = append(res.failures, subject+": "+err.Error())
		return res
	}
	res.weaponRows = len(rows)
	res.violations = verifyWeaponStats(subject, rows)
	return res
}

func saveReport(filename string, report *Report) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filename, data, reportPermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
