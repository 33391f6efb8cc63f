// Package service wires the gateway, reference tables, normalizers and
// account store into the per-user flows the HTTP API serves.
package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/vigilance/vanguard/internal/adapters/bungie/gateway"
	"github.com/vigilance/vanguard/internal/adapters/mq/queue"
	"github.com/vigilance/vanguard/internal/adapters/mq/worker"
	"github.com/vigilance/vanguard/internal/adapters/repository"
	"github.com/vigilance/vanguard/internal/domain/activity"
	"github.com/vigilance/vanguard/internal/domain/items"
	"github.com/vigilance/vanguard/internal/domain/manifest"
	"github.com/vigilance/vanguard/internal/domain/model"
	"github.com/vigilance/vanguard/internal/domain/weaponstats"
	"github.com/vigilance/vanguard/pkg/logger"
)

// Default service configuration constants.
const (
	defaultQueueCapacity = 1024
	defaultRecentCount   = 30
)

// Gateway is the upstream surface the service drives.
type Gateway interface {
	GetResponse(ctx context.Context, url, token, label string, dst any) error
	ExchangeCode(ctx context.Context, code string) (gateway.TokenResponse, error)
	RefreshToken(ctx context.Context, refresh string) (gateway.TokenResponse, error)

	MembershipsURL() string
	ProfileURL(membershipType int, membershipID string, codes ...int) string
	CharacterURL(membershipType int, membershipID, characterID string, codes ...int) string
	ActivityHistoryURL(membershipType int, membershipID, characterID string, mode, count, page int) string
	PostGameReportURL(instanceID string) string
	HistoricalStatsURL(membershipType int, membershipID string) string
}

// Service implements the API dependencies.
type Service struct {
	mu sync.RWMutex

	gateway Gateway
	store   repository.Store
	loader  *manifest.Loader
	tables  *manifest.Holder
	pool    *worker.Pool

	fanoutWorkers int
	queueCapacity int
	pageSize      int
	recentCount   int
	cutoffYear    int

	started bool
	now     func() time.Time
	logger  logger.Logger
}

// New constructs a Service. Start must be called before serving requests.
func New(gw Gateway, store repository.Store, opts ...Option) *Service {
	s := &Service{
		gateway:       gw,
		store:         store,
		tables:        manifest.NewHolder(nil),
		fanoutWorkers: worker.DefaultWorkers,
		queueCapacity: defaultQueueCapacity,
		pageSize:      activity.MaxPageSize,
		recentCount:   defaultRecentCount,
		cutoffYear:    activity.DefaultCutoffYear,
		now:           time.Now,
		logger:        logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the reference tables, unless already provided, and starts the
// detail-report pool. A failed load is fatal.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	if s.tables.Load() == nil {
		if s.loader == nil {
			return fmt.Errorf("start: %w: no reference tables or loader", ErrNotStarted)
		}
		t, err := s.loader.LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		s.tables.Store(t)
	}

	s.pool = worker.NewPool(s.fanoutWorkers, queue.NewInMemoryQueue(queue.WithCapacity(s.queueCapacity)))
	// The pool outlives the start request.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("fanout_workers", s.fanoutWorkers),
		logger.Int("queue_capacity", s.queueCapacity),
	)
	return nil
}

// Stop drains the pool.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false
	err := s.pool.Shutdown(ctx)
	s.logger.Info(ctx, "service stopped")
	return err
}

// ReloadTables refreshes the reference tables in place. Requests already in
// flight keep the tables they started with.
func (s *Service) ReloadTables(ctx context.Context) error {
	if s.loader == nil {
		return fmt.Errorf("reload: %w: no loader configured", ErrNotStarted)
	}
	return s.loader.Refresh(ctx, s.tables)
}

func (s *Service) ready() (*manifest.ReferenceTables, *worker.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.tables.Load(), s.pool, nil
}

// Authorize exchanges an OAuth code, resolves the user's platform membership
// and stores the linked account.
func (s *Service) Authorize(ctx context.Context, code string) (repository.Account, error) {
	if code == "" {
		return repository.Account{}, ErrMissingCode
	}
	tok, err := s.gateway.ExchangeCode(ctx, code)
	if err != nil {
		return repository.Account{}, fmt.Errorf("authorize: %w", err)
	}

	var mr model.MembershipsResponse
	if err := s.gateway.GetResponse(ctx, s.gateway.MembershipsURL(), tok.AccessToken, "memberships", &mr); err != nil {
		return repository.Account{}, fmt.Errorf("authorize: memberships: %w", err)
	}
	m, ok := primaryMembership(mr)
	if !ok {
		return repository.Account{}, ErrNoMembership
	}

	userID := tok.MembershipID
	if userID == "" {
		userID = m.MembershipID
	}
	a := repository.Account{
		UserID:       userID,
		PlatformID:   m.MembershipID,
		PlatformType: m.MembershipType,
		DisplayName:  displayName(m),
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if tok.ExpiresIn > 0 {
		a.AccessExpiresAt = s.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	if err := s.store.Save(ctx, a); err != nil {
		return repository.Account{}, fmt.Errorf("authorize: %w", err)
	}
	s.logger.Info(ctx, "account linked",
		logger.String("user_id", a.UserID),
		logger.Int("platform_type", a.PlatformType),
	)
	return a, nil
}

func primaryMembership(mr model.MembershipsResponse) (model.LinkedMembership, bool) {
	if len(mr.DestinyMemberships) == 0 {
		return model.LinkedMembership{}, false
	}
	if i := slices.IndexFunc(mr.DestinyMemberships, func(m model.LinkedMembership) bool {
		return m.MembershipID == mr.PrimaryMembershipID
	}); i >= 0 {
		return mr.DestinyMemberships[i], true
	}
	return mr.DestinyMemberships[0], true
}

func displayName(m model.LinkedMembership) string {
	if m.BungieGlobalDisplayName == "" {
		return m.DisplayName
	}
	if m.BungieGlobalDisplayNameCode == 0 {
		return m.BungieGlobalDisplayName
	}
	return fmt.Sprintf("%s#%04d", m.BungieGlobalDisplayName, m.BungieGlobalDisplayNameCode)
}

// account loads the stored account, refreshing an expired access token first.
func (s *Service) account(ctx context.Context, userID string) (repository.Account, error) {
	a, err := s.store.Get(ctx, userID)
	if err != nil {
		return repository.Account{}, fmt.Errorf("account %s: %w", userID, err)
	}
	if !a.Expired(s.now()) || a.RefreshToken == "" {
		return a, nil
	}

	tok, err := s.gateway.RefreshToken(ctx, a.RefreshToken)
	if err != nil {
		return repository.Account{}, fmt.Errorf("refresh token for %s: %w", userID, err)
	}
	a.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		a.RefreshToken = tok.RefreshToken
	}
	a.AccessExpiresAt = s.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	if err := s.store.UpdateTokens(ctx, userID, a.AccessToken, a.RefreshToken, a.AccessExpiresAt); err != nil {
		return repository.Account{}, fmt.Errorf("refresh token for %s: %w", userID, err)
	}
	s.logger.Debug(ctx, "access token refreshed", logger.String("user_id", userID))
	return a, nil
}

// Characters lists the playable characters of a user, ordered by id.
func (s *Service) Characters(ctx context.Context, userID string) ([]model.Character, error) {
	a, err := s.account(ctx, userID)
	if err != nil {
		return nil, err
	}
	var cr model.CharactersResponse
	url := s.gateway.ProfileURL(a.PlatformType, a.PlatformID, gateway.ComponentCharacters)
	if err := s.gateway.GetResponse(ctx, url, a.AccessToken, "characters", &cr); err != nil {
		return nil, fmt.Errorf("characters: %w", err)
	}

	out := make([]model.Character, 0, len(cr.Characters.Data))
	for id, c := range cr.Characters.Data {
		minutes, _ := strconv.ParseFloat(c.MinutesPlayedTotal, 64)
		if c.CharacterID != "" {
			id = c.CharacterID
		}
		out = append(out, model.Character{
			ID:          id,
			Light:       c.Light,
			Class:       manifest.ClassName(c.ClassType),
			HoursPlayed: minutes / 60,
		})
	}
	slices.SortFunc(out, func(l, r model.Character) int { return cmp.Compare(l.ID, r.ID) })
	return out, nil
}

// Items normalizes the items at loc. The vault is profile-wide, so
// characterID is ignored for it.
func (s *Service) Items(ctx context.Context, userID, characterID string, loc items.Location) (model.NormalizeResult, error) {
	tables, _, err := s.ready()
	if err != nil {
		return model.NormalizeResult{}, err
	}
	a, err := s.account(ctx, userID)
	if err != nil {
		return model.NormalizeResult{}, err
	}

	var url string
	switch loc {
	case items.Vault:
		url = s.gateway.ProfileURL(a.PlatformType, a.PlatformID, append([]int{gateway.ComponentVaultItems}, gateway.ItemComponents...)...)
	case items.Inventory:
		url = s.gateway.CharacterURL(a.PlatformType, a.PlatformID, characterID, append([]int{gateway.ComponentInventory}, gateway.ItemComponents...)...)
	default:
		url = s.gateway.CharacterURL(a.PlatformType, a.PlatformID, characterID, append([]int{gateway.ComponentEquipment}, gateway.ItemComponents...)...)
	}

	var profile model.ProfileResponse
	if err := s.gateway.GetResponse(ctx, url, a.AccessToken, "items_"+string(loc), &profile); err != nil {
		return model.NormalizeResult{}, fmt.Errorf("items: %w", err)
	}
	return items.NewNormalizer(tables).Normalize(ctx, &profile, loc), nil
}

// Loadout returns the equipped weapons and armor of a character.
func (s *Service) Loadout(ctx context.Context, userID, characterID string) (model.Loadout, error) {
	res, err := s.Items(ctx, userID, characterID, items.Equipment)
	if err != nil {
		return model.Loadout{}, err
	}
	return items.Split(res.Items), nil
}

// Activities summarizes a character's recent activities in mode. A count of
// zero uses the configured recent count; a negative count walks the full
// history.
func (s *Service) Activities(ctx context.Context, userID, characterID string, mode, count int) ([]model.ActivitySummary, error) {
	tables, pool, err := s.ready()
	if err != nil {
		return nil, err
	}
	a, err := s.account(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch {
	case count == 0:
		count = s.recentCount
	case count < 0:
		count = 0
	}
	agg := activity.NewAggregator(s.gateway, tables, pool,
		activity.WithPageSize(s.pageSize),
		activity.WithCutoffYear(s.cutoffYear),
	)
	return agg.Aggregate(ctx, activity.Request{
		MembershipID:   a.PlatformID,
		MembershipType: a.PlatformType,
		CharacterID:    characterID,
		AccessToken:    a.AccessToken,
		Mode:           mode,
		MaxCount:       count,
	})
}

// WeaponStats returns all-time weapon kill statistics merged across the
// user's characters, for PvE or PvP.
func (s *Service) WeaponStats(ctx context.Context, userID string, pve bool) ([]model.WeaponStatRecord, error) {
	a, err := s.account(ctx, userID)
	if err != nil {
		return nil, err
	}
	var resp model.HistoricalStatsResponse
	url := s.gateway.HistoricalStatsURL(a.PlatformType, a.PlatformID)
	if err := s.gateway.GetResponse(ctx, url, a.AccessToken, "historical_stats", &resp); err != nil {
		return nil, fmt.Errorf("weapon stats: %w", err)
	}
	return weaponstats.FromHistoricalStats(&resp, pve)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":       s.started,
		"fanoutWorkers": s.fanoutWorkers,
		"accounts":      s.store.Count(ctx),
	}
	if t := s.tables.Load(); t != nil {
		stats["tables"] = map[string]int{
			manifest.TableBuckets:        t.Buckets.Len(),
			manifest.TablePerks:          t.Perks.Len(),
			manifest.TableStats:          t.Stats.Len(),
			manifest.TableItems:          t.Items.Len(),
			manifest.TableActivityTypes:  t.ActivityTypes.Len(),
			manifest.TableModifiers:      t.ActivityModifiers.Len(),
			manifest.TableActivities:     t.Activities.Len(),
			manifest.TableLiveActivities: t.LiveActivities.Len(),
		}
	}
	return stats
}
