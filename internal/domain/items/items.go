// Package items turns raw inventory components into normalized weapons, armor
// and subclasses.
package items

import (
	"context"
	"fmt"

	"github.com/vigilance/vanguard/internal/domain/manifest"
	"github.com/vigilance/vanguard/internal/domain/model"
	"github.com/vigilance/vanguard/pkg/logger"
	"github.com/vigilance/vanguard/pkg/metrics"
)

// Location selects which item list of a profile payload is normalized.
type Location string

// Known locations.
const (
	Equipment Location = "equipment"
	Inventory Location = "inventory"
	Vault     Location = "vault"
)

// ParseLocation validates a location name.
func ParseLocation(s string) (Location, error) {
	switch l := Location(s); l {
	case Equipment, Inventory, Vault:
		return l, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLocation, s)
}

// Slot names with special meaning.
const (
	SlotSubclass = "Subclass"
)

// excludedSlots carry no stat or perk semantics.
var excludedSlots = map[string]struct{}{ //nolint:gochecknoglobals // fixed set
	"Consumables":       {},
	"Modifications":     {},
	"Shaders":           {},
	"Emblems":           {},
	"Ships":             {},
	"Vehicle":           {},
	"Finishers":         {},
	"Emotes":            {},
	"Ghost":             {},
	"Clan Banners":      {},
	"Seasonal Artifact": {},
	"Quests":            {},
	"Messages":          {},
	"Engrams":           {},
	"Lost Items":        {},
	"General":           {},
}

var (
	armorSlots  = map[string]struct{}{"Helmet": {}, "Chest Armor": {}, "Gauntlets": {}, "Leg Armor": {}, "Class Armor": {}} //nolint:gochecknoglobals // fixed set
	weaponSlots = map[string]struct{}{"Kinetic Weapons": {}, "Energy Weapons": {}, "Power Weapons": {}}                     //nolint:gochecknoglobals // fixed set
)

// Drop reasons reported to metrics.
const (
	dropUnknownItem  = "unknown_item"
	dropUnknownSlot  = "unknown_slot"
	dropExcludedSlot = "excluded_slot"
	dropMalformed    = "malformed"
	dropNoPower      = "no_power"
)

// Normalizer resolves raw items against one set of reference tables.
type Normalizer struct {
	tables *manifest.ReferenceTables
	logger logger.Logger
}

// NewNormalizer creates a normalizer bound to tables.
func NewNormalizer(tables *manifest.ReferenceTables, opts ...Option) *Normalizer {
	n := &Normalizer{
		tables: tables,
		logger: logger.Get().Named("items"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts the item list at loc. Items that cannot be resolved are
// dropped; the call itself never fails.
func (n *Normalizer) Normalize(ctx context.Context, profile *model.ProfileResponse, loc Location) model.NormalizeResult {
	res := model.NormalizeResult{Items: []model.NormalizedItem{}, Subclasses: []model.Subclass{}}
	if profile == nil {
		return res
	}

	selected := list(profile, loc)
	if selected.Malformed > 0 {
		for range selected.Malformed {
			metrics.RecordItemDropped(dropMalformed)
		}
		n.logger.Debug(ctx, "undecodable items skipped",
			logger.Int("count", selected.Malformed),
			logger.String("location", string(loc)),
		)
	}

	for _, raw := range selected.Data.Items {
		def, ok := n.tables.Items.Get(raw.ItemHash)
		if !ok {
			n.drop(ctx, raw, dropUnknownItem)
			continue
		}
		bucket, ok := n.tables.Buckets.Get(def.BucketHash)
		if !ok {
			n.drop(ctx, raw, dropUnknownSlot)
			continue
		}
		if _, skip := excludedSlots[bucket.Name]; skip {
			metrics.RecordItemDropped(dropExcludedSlot)
			continue
		}
		if raw.ItemInstanceID == "" {
			n.drop(ctx, raw, dropMalformed)
			continue
		}

		if bucket.Name == SlotSubclass || def.IsSubclass {
			res.Subclasses = append(res.Subclasses, n.subclass(profile, raw, def))
			continue
		}

		item, ok := n.item(profile, raw, def, bucket.Name)
		if !ok {
			n.drop(ctx, raw, dropNoPower)
			continue
		}
		res.Items = append(res.Items, item)
	}

	metrics.RecordItemsNormalized(string(loc), len(res.Items)+len(res.Subclasses))
	return res
}

func list(profile *model.ProfileResponse, loc Location) model.ItemList {
	switch loc {
	case Equipment:
		return profile.Equipment
	case Inventory:
		return profile.Inventory
	case Vault:
		return profile.ProfileInventory
	}
	return model.ItemList{}
}

func (n *Normalizer) drop(ctx context.Context, raw model.RawItem, reason string) {
	metrics.RecordItemDropped(reason)
	n.logger.Debug(ctx, "item dropped",
		logger.Uint32("item_hash", raw.ItemHash),
		logger.String("instance_id", raw.ItemInstanceID),
		logger.String("reason", reason),
	)
}

func (n *Normalizer) subclass(profile *model.ProfileResponse, raw model.RawItem, def model.ItemDefinition) model.Subclass {
	sc := model.Subclass{
		InstanceID: raw.ItemInstanceID,
		ItemHash:   raw.ItemHash,
		Name:       def.Name,
		Components: []model.SubclassComponent{},
	}
	for _, s := range profile.ItemComponents.Sockets.Data[raw.ItemInstanceID].Sockets {
		if !s.IsEnabled || !s.IsVisible {
			continue
		}
		plug, ok := n.tables.Items.Get(s.PlugHash)
		if !ok {
			continue
		}
		sc.Components = append(sc.Components, model.SubclassComponent{Name: plug.Name, Description: plug.Description})
	}
	return sc
}

func (n *Normalizer) item(profile *model.ProfileResponse, raw model.RawItem, def model.ItemDefinition, slot string) (model.NormalizedItem, bool) {
	inst, ok := profile.ItemComponents.Instances.Data[raw.ItemInstanceID]
	if !ok || inst.PrimaryStat == nil {
		return model.NormalizedItem{}, false
	}

	item := model.NormalizedItem{
		InstanceID: raw.ItemInstanceID,
		ItemHash:   raw.ItemHash,
		Slot:       slot,
		Name:       def.Name,
		Power:      inst.PrimaryStat.Value,
		DamageType: manifest.DamageTypeName(inst.DamageType),
		Stats:      []model.ItemStat{},
		Perks:      []model.ItemPerk{},
	}
	for _, st := range profile.ItemComponents.Stats.Data[raw.ItemInstanceID].Stats {
		sd, ok := n.tables.Stats.Get(st.StatHash)
		if !ok {
			continue
		}
		item.Stats = append(item.Stats, model.ItemStat{Name: sd.Name, Description: sd.Description, Value: st.Value})
	}
	for _, p := range profile.ItemComponents.Perks.Data[raw.ItemInstanceID].Perks {
		if !p.Visible {
			continue
		}
		pd, ok := n.tables.Perks.Get(p.PerkHash)
		if !ok {
			continue
		}
		item.Perks = append(item.Perks, model.ItemPerk{Name: pd.Name, Description: pd.Description})
	}
	return item, true
}

// Split separates weapons from armor. Items in neither slot class are left
// out.
func Split(items []model.NormalizedItem) model.Loadout {
	out := model.Loadout{Weapons: []model.NormalizedItem{}, Armor: []model.NormalizedItem{}}
	for _, it := range items {
		if _, ok := weaponSlots[it.Slot]; ok {
			out.Weapons = append(out.Weapons, it)
			continue
		}
		if _, ok := armorSlots[it.Slot]; ok {
			out.Armor = append(out.Armor, it)
		}
	}
	return out
}
