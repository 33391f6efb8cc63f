// Package activity pages through a character's activity history, fetches the
// detail report of every instance, and reduces them to activity summaries.
package activity

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vigilance/vanguard/internal/adapters/mq/worker"
	"github.com/vigilance/vanguard/internal/domain/dedupe"
	"github.com/vigilance/vanguard/internal/domain/manifest"
	"github.com/vigilance/vanguard/internal/domain/model"
	"github.com/vigilance/vanguard/pkg/logger"
	"github.com/vigilance/vanguard/pkg/metrics"
)

// Defaults.
const (
	MaxPageSize       = 250
	DefaultCutoffYear = 2017
)

// Filter reasons reported to metrics.
const (
	filterMalformedDate = "malformed_date"
	filterBeforeCutoff  = "before_cutoff"
	filterUnknown       = "unknown_activity"
	filterNoPlayer      = "player_missing"
	filterIncomplete    = "incomplete"
	filterNoWeapons     = "no_weapons"
)

// Report value names.
const (
	valueKills           = "kills"
	valueAssists         = "assists"
	valueDeaths          = "deaths"
	valueCompleted       = "completed"
	valueDuration        = "activityDurationSeconds"
	valueWeaponKills     = "uniqueWeaponKills"
	valueWeaponPrecision = "uniqueWeaponPrecisionKills"
)

// Upstream is the slice of the gateway the aggregator needs.
type Upstream interface {
	GetResponse(ctx context.Context, url, token, label string, dst any) error
	ActivityHistoryURL(membershipType int, membershipID, characterID string, mode, count, page int) string
	PostGameReportURL(instanceID string) string
}

// Request identifies whose history to aggregate. MaxCount <= 0 walks the
// full history.
type Request struct {
	MembershipID   string
	MembershipType int
	CharacterID    string
	AccessToken    string
	Mode           int
	MaxCount       int
}

// Aggregator builds activity summaries. Detail fetches run on the shared pool.
type Aggregator struct {
	upstream   Upstream
	tables     *manifest.ReferenceTables
	pool       *worker.Pool
	pageSize   int
	cutoffYear int
	logger     logger.Logger
}

// NewAggregator creates an aggregator resolving names through tables.
func NewAggregator(up Upstream, tables *manifest.ReferenceTables, pool *worker.Pool, opts ...Option) *Aggregator {
	a := &Aggregator{
		upstream:   up,
		tables:     tables,
		pool:       pool,
		pageSize:   MaxPageSize,
		cutoffYear: DefaultCutoffYear,
		logger:     logger.Get().Named("activity"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate returns the summaries of req's character in chronological order.
// A failed detail fetch drops that instance; a failed page fails the call.
func (a *Aggregator) Aggregate(ctx context.Context, req Request) ([]model.ActivitySummary, error) {
	if req.MembershipID == "" || req.CharacterID == "" {
		return nil, fmt.Errorf("%w: membership and character ids are required", ErrInvalidRequest)
	}
	log := a.logger.With(
		logger.String("run_id", uuid.NewString()),
		logger.String("character_id", req.CharacterID),
		logger.Int("mode", req.Mode),
	)

	ids, err := a.instanceIDs(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Debug(ctx, "history collected", logger.Int("instances", len(ids)))

	reports, err := a.fetchReports(ctx, log, ids)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(reports, func(l, r *model.PostGameReport) int {
		return strings.Compare(l.Period, r.Period)
	})

	out := make([]model.ActivitySummary, 0, len(reports))
	for _, r := range reports {
		s, reason := a.summarize(r, req.CharacterID)
		if reason != "" {
			metrics.RecordReportFiltered(reason)
			log.Debug(ctx, "report filtered",
				logger.String("instance_id", r.ActivityDetails.InstanceID),
				logger.String("reason", reason),
			)
			continue
		}
		out = append(out, s)
	}
	metrics.RecordSummariesEmitted(len(out))
	return out, nil
}

// instanceIDs walks history pages until a short page or MaxCount.
func (a *Aggregator) instanceIDs(ctx context.Context, req Request) ([]string, error) {
	size := a.pageSize
	if req.MaxCount > 0 && req.MaxCount < size {
		size = req.MaxCount
	}

	seen := dedupe.NewSet()
	collected := 0
	for page := 0; ; page++ {
		var hp model.HistoryPage
		url := a.upstream.ActivityHistoryURL(req.MembershipType, req.MembershipID, req.CharacterID, req.Mode, size, page)
		if err := a.upstream.GetResponse(ctx, url, req.AccessToken, "activity_history", &hp); err != nil {
			return nil, &PaginationError{Page: page, Err: err}
		}
		for _, e := range hp.Activities {
			if req.MaxCount > 0 && collected >= req.MaxCount {
				break
			}
			collected++
			if id := e.ActivityDetails.InstanceID; id != "" {
				seen.Add(id)
			}
		}
		if len(hp.Activities) < size || (req.MaxCount > 0 && collected >= req.MaxCount) {
			break
		}
	}
	return seen.IDs(), nil
}

// fetchReports fetches every detail report on the pool and joins on all of
// them. Failed fetches are logged and left out.
func (a *Aggregator) fetchReports(ctx context.Context, log logger.Logger, ids []string) ([]*model.PostGameReport, error) {
	futures := make([]*worker.Future[*model.PostGameReport], len(ids))
	for i, id := range ids {
		futures[i] = worker.Submit(ctx, a.pool, id, func(ctx context.Context) (*model.PostGameReport, error) {
			var r model.PostGameReport
			if err := a.upstream.GetResponse(ctx, a.upstream.PostGameReportURL(id), "", "post_game_report", &r); err != nil {
				return nil, err
			}
			if r.ActivityDetails.InstanceID == "" {
				r.ActivityDetails.InstanceID = id
			}
			return &r, nil
		})
	}

	reports := make([]*model.PostGameReport, 0, len(ids))
	for i, f := range futures {
		r, err := f.Await(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("awaiting detail reports: %w", ctx.Err())
			}
			metrics.RecordReportFailed()
			log.Warn(ctx, "detail report dropped", logger.String("instance_id", ids[i]), logger.Error(err))
			continue
		}
		metrics.RecordReportFetched()
		reports = append(reports, r)
	}
	return reports, nil
}

// summarize applies the retention filters and builds the summary. A non-empty
// reason means the report was filtered.
func (a *Aggregator) summarize(r *model.PostGameReport, characterID string) (model.ActivitySummary, string) {
	when, err := time.Parse(time.RFC3339, r.Period)
	if err != nil {
		return model.ActivitySummary{}, filterMalformedDate
	}
	if when.Year() < a.cutoffYear {
		return model.ActivitySummary{}, filterBeforeCutoff
	}

	act, ok := a.tables.ResolveActivity(r.ActivityDetails.ReferenceID)
	if !ok {
		act, ok = a.tables.ResolveActivity(r.ActivityDetails.DirectorActivityHash)
	}
	if !ok {
		return model.ActivitySummary{}, filterUnknown
	}

	idx := slices.IndexFunc(r.Entries, func(e model.ReportEntry) bool { return e.CharacterID == characterID })
	if idx < 0 {
		return model.ActivitySummary{}, filterNoPlayer
	}
	player := r.Entries[idx]
	if player.Values.Int(valueCompleted) == 0 {
		return model.ActivitySummary{}, filterIncomplete
	}
	if len(player.Extended.Weapons) == 0 {
		return model.ActivitySummary{}, filterNoWeapons
	}

	modifiers := act.Modifiers
	if modifiers == nil {
		modifiers = []model.Modifier{}
	}

	others := make([]model.Participant, 0, len(r.Entries)-1)
	for i, e := range r.Entries {
		if i == idx {
			continue
		}
		others = append(others, model.Participant{
			Name:    e.Player.DestinyUserInfo.Name(),
			Kills:   e.Values.Int(valueKills),
			Assists: e.Values.Int(valueAssists),
			Deaths:  e.Values.Int(valueDeaths),
			Weapons: a.weapons(e.Extended.Weapons),
		})
	}

	return model.ActivitySummary{
		InstanceID:        r.ActivityDetails.InstanceID,
		Date:              r.Period,
		ActivityName:      act.Name,
		Type:              act.Type,
		Mode:              manifest.ModeName(r.ActivityDetails.Mode),
		Modifiers:         modifiers,
		Standing:          player.Standing,
		Kills:             player.Values.Int(valueKills),
		Assists:           player.Values.Int(valueAssists),
		Deaths:            player.Values.Int(valueDeaths),
		DurationDisplay:   player.Values.Display(valueDuration),
		Weapons:           a.weapons(player.Extended.Weapons),
		OtherParticipants: others,
	}, ""
}

// weapons resolves weapon names; unknown weapon hashes are skipped.
func (a *Aggregator) weapons(raw []model.ReportWeapon) []model.WeaponUsage {
	out := make([]model.WeaponUsage, 0, len(raw))
	for _, w := range raw {
		def, ok := a.tables.Items.Get(w.ReferenceID)
		if !ok {
			continue
		}
		out = append(out, model.WeaponUsage{
			Name:           def.Name,
			DamageType:     manifest.DamageTypeName(def.DamageType),
			Kills:          w.Values.Int(valueWeaponKills),
			PrecisionKills: w.Values.Int(valueWeaponPrecision),
		})
	}
	return out
}
