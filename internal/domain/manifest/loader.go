package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/vigilance/vanguard/internal/domain/model"
	"github.com/vigilance/vanguard/pkg/logger"
	"github.com/vigilance/vanguard/pkg/metrics"
)

// Table names, used for content paths, logs and metrics.
const (
	TableBuckets        = "DestinyInventoryBucketDefinition"
	TablePerks          = "DestinySandboxPerkDefinition"
	TableStats          = "DestinyStatDefinition"
	TableItems          = "DestinyInventoryItemDefinition"
	TableActivityTypes  = "DestinyActivityTypeDefinition"
	TableModifiers      = "DestinyActivityModifierDefinition"
	TableActivities     = "DestinyActivityDefinition"
	TableLiveActivities = "Milestones"
	tableIndex          = "manifest"

	classifiedName  = "Classified"
	defaultLocale   = "en"
	defaultCacheTTL = time.Hour
)

// Upstream is the slice of the gateway the loader needs.
type Upstream interface {
	Get(ctx context.Context, url, token, label string) (json.RawMessage, error)
	GetResponse(ctx context.Context, url, token, label string, dst any) error
	ManifestURL() string
	MilestonesURL() string
	ContentURL(path string) string
}

// Loader downloads and resolves every reference table.
type Loader struct {
	upstream Upstream
	locale   string
	cache    Cache
	cacheTTL time.Duration
	logger   logger.Logger

	mu    sync.Mutex
	paths map[string]string
}

// NewLoader creates a loader reading from up.
func NewLoader(up Upstream, opts ...Option) *Loader {
	l := &Loader{
		upstream: up,
		locale:   defaultLocale,
		cacheTTL: defaultCacheTTL,
		logger:   logger.Get().Named("manifest"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadAll builds the reference tables. The order is fixed because later
// tables resolve hashes through earlier ones: modifiers are loaded before
// activity definitions so every definition can attach its modifiers. Only a
// failure of the index or the bucket table is returned, as a FatalLoadError;
// any other table that fails is logged and left empty.
func (l *Loader) LoadAll(ctx context.Context) (*ReferenceTables, error) {
	return l.load(ctx, false)
}

func (l *Loader) load(ctx context.Context, fresh bool) (*ReferenceTables, error) {
	start := time.Now()
	paths, err := l.index(ctx, fresh)
	if err != nil {
		return nil, &FatalLoadError{Table: tableIndex, Err: err}
	}

	t := &ReferenceTables{}
	buckets, err := loadBuckets(ctx, l, paths)
	if err != nil {
		return nil, &FatalLoadError{Table: TableBuckets, Err: err}
	}
	t.Buckets = buckets

	l.optional(ctx, TablePerks, func() (n int, err error) {
		t.Perks, err = loadPerks(ctx, l, paths)
		return t.Perks.Len(), err
	})
	l.optional(ctx, TableStats, func() (n int, err error) {
		t.Stats, err = loadStats(ctx, l, paths)
		return t.Stats.Len(), err
	})
	l.optional(ctx, TableItems, func() (n int, err error) {
		t.Items, err = loadItems(ctx, l, paths)
		return t.Items.Len(), err
	})
	l.optional(ctx, TableActivityTypes, func() (n int, err error) {
		t.ActivityTypes, err = loadActivityTypes(ctx, l, paths)
		return t.ActivityTypes.Len(), err
	})
	l.optional(ctx, TableModifiers, func() (n int, err error) {
		t.ActivityModifiers, err = loadModifiers(ctx, l, paths)
		return t.ActivityModifiers.Len(), err
	})
	l.optional(ctx, TableActivities, func() (n int, err error) {
		t.Activities, err = loadActivities(ctx, l, paths, t.ActivityTypes, t.ActivityModifiers)
		return t.Activities.Len(), err
	})
	l.optional(ctx, TableLiveActivities, func() (n int, err error) {
		t.LiveActivities, err = loadLiveActivities(ctx, l, t.Activities, t.ActivityModifiers)
		return t.LiveActivities.Len(), err
	})

	l.logger.Info(ctx, "reference tables loaded",
		logger.Int("buckets", t.Buckets.Len()),
		logger.Int("items", t.Items.Len()),
		logger.Int("activities", t.Activities.Len()),
		logger.Int("live_activities", t.LiveActivities.Len()),
		logger.Duration("elapsed", time.Since(start)),
	)
	return t, nil
}

// Refresh fetches a fresh index from upstream, skipping both the in-memory
// and the shared cache copy, reloads every table and publishes the result on
// h. On failure h keeps its current tables.
func (l *Loader) Refresh(ctx context.Context, h *Holder) error {
	t, err := l.load(ctx, true)
	if err != nil {
		return err
	}
	h.Store(t)
	return nil
}

func (l *Loader) optional(ctx context.Context, table string, load func() (int, error)) {
	start := time.Now()
	n, err := load()
	metrics.RecordReferenceTableLoad(table, float64(time.Since(start).Milliseconds()), err == nil)
	if err != nil {
		l.logger.Error(ctx, "reference table load failed, continuing without it",
			logger.String("table", table), logger.Error(err))
		return
	}
	metrics.UpdateReferenceTableSize(table, n)
}

// index returns the content paths for the configured locale, from memory,
// then the cache, then upstream. A fresh read goes straight to upstream and
// overwrites both copies.
func (l *Loader) index(ctx context.Context, fresh bool) (map[string]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.paths != nil && !fresh {
		return l.paths, nil
	}

	if l.cache != nil && !fresh {
		paths, err := l.cache.Index(ctx, l.locale)
		switch {
		case err == nil:
			l.paths = paths
			return paths, nil
		case !errors.Is(err, ErrCacheMiss):
			l.logger.Warn(ctx, "manifest cache read failed", logger.Error(err))
		}
	}

	var idx manifestIndex
	if err := l.upstream.GetResponse(ctx, l.upstream.ManifestURL(), "", "manifest", &idx); err != nil {
		return nil, err
	}
	paths, ok := idx.JSONWorldComponentContentPaths[l.locale]
	if !ok || len(paths) == 0 {
		return nil, fmt.Errorf("%w: locale %q", ErrMissingPath, l.locale)
	}

	if l.cache != nil {
		if err := l.cache.StoreIndex(ctx, l.locale, paths, l.cacheTTL); err != nil {
			l.logger.Warn(ctx, "manifest cache write failed", logger.Error(err))
		}
	}
	l.paths = paths
	return paths, nil
}

// fetchTable downloads one content file and decodes it into hash-keyed
// definitions. Entries whose key is not a hash are skipped.
func fetchTable[T any](ctx context.Context, l *Loader, paths map[string]string, table string) (map[uint32]T, error) {
	path, ok := paths[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingPath, table)
	}
	body, err := l.upstream.Get(ctx, l.upstream.ContentURL(path), "", table)
	if err != nil {
		return nil, err
	}
	var raw map[string]T
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", table, err)
	}
	out := make(map[uint32]T, len(raw))
	for key, def := range raw {
		hash, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			continue
		}
		out[uint32(hash)] = def
	}
	return out, nil
}

func loadBuckets(ctx context.Context, l *Loader, paths map[string]string) (ReferenceMap[uint32, model.Bucket], error) {
	start := time.Now()
	raw, err := fetchTable[bucketDef](ctx, l, paths, TableBuckets)
	metrics.RecordReferenceTableLoad(TableBuckets, float64(time.Since(start).Milliseconds()), err == nil)
	if err != nil {
		return ReferenceMap[uint32, model.Bucket]{}, err
	}
	out := make(map[uint32]model.Bucket, len(raw))
	for hash, def := range raw {
		// Buckets without a display name are internal and never shown.
		if def.DisplayProperties == nil || def.DisplayProperties.Name == "" {
			continue
		}
		out[hash] = model.Bucket{Hash: hash, Name: def.DisplayProperties.Name}
	}
	metrics.UpdateReferenceTableSize(TableBuckets, len(out))
	return NewReferenceMap(out), nil
}

func loadPerks(ctx context.Context, l *Loader, paths map[string]string) (ReferenceMap[uint32, model.Perk], error) {
	raw, err := fetchTable[perkDef](ctx, l, paths, TablePerks)
	if err != nil {
		return ReferenceMap[uint32, model.Perk]{}, err
	}
	out := make(map[uint32]model.Perk, len(raw))
	for hash, def := range raw {
		if !def.IsDisplayable {
			continue
		}
		out[hash] = model.Perk{Hash: hash, Name: def.DisplayProperties.Name, Description: def.DisplayProperties.Description}
	}
	return NewReferenceMap(out), nil
}

func loadStats(ctx context.Context, l *Loader, paths map[string]string) (ReferenceMap[uint32, model.Stat], error) {
	raw, err := fetchTable[namedDef](ctx, l, paths, TableStats)
	if err != nil {
		return ReferenceMap[uint32, model.Stat]{}, err
	}
	out := make(map[uint32]model.Stat, len(raw))
	for hash, def := range raw {
		out[hash] = model.Stat{Hash: hash, Name: def.DisplayProperties.Name, Description: def.DisplayProperties.Description}
	}
	return NewReferenceMap(out), nil
}

func loadItems(ctx context.Context, l *Loader, paths map[string]string) (ReferenceMap[uint32, model.ItemDefinition], error) {
	raw, err := fetchTable[itemDef](ctx, l, paths, TableItems)
	if err != nil {
		return ReferenceMap[uint32, model.ItemDefinition]{}, err
	}
	out := make(map[uint32]model.ItemDefinition, len(raw))
	for hash, def := range raw {
		out[hash] = model.ItemDefinition{
			Hash:        hash,
			Name:        def.DisplayProperties.Name,
			Description: def.DisplayProperties.Description,
			BucketHash:  def.Inventory.BucketTypeHash,
			DamageType:  def.DefaultDamageType,
			IsSubclass:  def.ItemType == itemTypeSubclass,
		}
	}
	return NewReferenceMap(out), nil
}

func loadActivityTypes(ctx context.Context, l *Loader, paths map[string]string) (ReferenceMap[uint32, model.ActivityType], error) {
	raw, err := fetchTable[namedDef](ctx, l, paths, TableActivityTypes)
	if err != nil {
		return ReferenceMap[uint32, model.ActivityType]{}, err
	}
	out := make(map[uint32]model.ActivityType, len(raw))
	for hash, def := range raw {
		out[hash] = model.ActivityType{Hash: hash, Name: def.DisplayProperties.Name}
	}
	return NewReferenceMap(out), nil
}

func loadModifiers(ctx context.Context, l *Loader, paths map[string]string) (ReferenceMap[uint32, model.Modifier], error) {
	raw, err := fetchTable[namedDef](ctx, l, paths, TableModifiers)
	if err != nil {
		return ReferenceMap[uint32, model.Modifier]{}, err
	}
	out := make(map[uint32]model.Modifier, len(raw))
	for hash, def := range raw {
		out[hash] = model.Modifier{Hash: hash, Name: def.DisplayProperties.Name, Description: def.DisplayProperties.Description}
	}
	return NewReferenceMap(out), nil
}

func loadActivities(
	ctx context.Context,
	l *Loader,
	paths map[string]string,
	types ReferenceMap[uint32, model.ActivityType],
	modifiers ReferenceMap[uint32, model.Modifier],
) (ReferenceMap[uint32, model.Activity], error) {
	raw, err := fetchTable[activityDef](ctx, l, paths, TableActivities)
	if err != nil {
		return ReferenceMap[uint32, model.Activity]{}, err
	}
	out := make(map[uint32]model.Activity, len(raw))
	for hash, def := range raw {
		if def.DisplayProperties.Name == classifiedName {
			continue
		}
		a := model.Activity{
			Hash:        hash,
			Name:        def.DisplayProperties.Name,
			Description: def.DisplayProperties.Description,
			LightLevel:  def.ActivityLightLevel,
			IsPlaylist:  def.IsPlaylist,
		}
		if at, ok := types.Get(def.ActivityTypeHash); ok {
			a.Type = at.Name
		}
		for _, m := range def.Modifiers {
			if mod, ok := modifiers.Get(m.ActivityModifierHash); ok {
				a.Modifiers = append(a.Modifiers, mod)
			}
		}
		out[hash] = a
	}
	return NewReferenceMap(out), nil
}

// loadLiveActivities reads the current milestones. Each milestone activity is
// a copy of its static definition carrying the live modifier set; activities
// with no static definition are skipped.
func loadLiveActivities(
	ctx context.Context,
	l *Loader,
	static ReferenceMap[uint32, model.Activity],
	modifiers ReferenceMap[uint32, model.Modifier],
) (ReferenceMap[uint32, model.Activity], error) {
	var raw map[string]milestone
	if err := l.upstream.GetResponse(ctx, l.upstream.MilestonesURL(), "", TableLiveActivities, &raw); err != nil {
		return ReferenceMap[uint32, model.Activity]{}, err
	}
	out := make(map[uint32]model.Activity)
	for _, ms := range raw {
		for _, act := range ms.Activities {
			base, ok := static.Get(act.ActivityHash)
			if !ok {
				continue
			}
			live := base
			live.Modifiers = nil
			for _, mh := range act.ModifierHashes {
				if mod, ok := modifiers.Get(mh); ok {
					live.Modifiers = append(live.Modifiers, mod)
				}
			}
			out[act.ActivityHash] = live
		}
	}
	return NewReferenceMap(out), nil
}
