package probe

import (
	"fmt"
	"time"

	"github.com/vigilance/vanguard/internal/domain/model"
)

// Check names.
const (
	checkCharacterOrder   = "character_order"
	checkCharacterClass   = "character_class"
	checkDuplicateItem    = "duplicate_item"
	checkItemSlot         = "item_slot"
	checkLoadoutOverlap   = "loadout_overlap"
	checkActivityOrder    = "activity_order"
	checkActivityDate     = "activity_date"
	checkActivityCutoff   = "activity_cutoff"
	checkDuplicateRun     = "duplicate_activity"
	checkWeaponNegative   = "weapon_negative"
	checkWeaponPrecision  = "weapon_precision"
	checkWeaponDuplicated = "weapon_duplicate"
)

func violation(check, subject, format string, args ...any) Violation {
	return Violation{Check: check, Subject: subject, Detail: fmt.Sprintf(format, args...)}
}

// verifyCharacters expects ids in ascending order and a resolved class.
func verifyCharacters(chars []model.Character) []Violation {
	var out []Violation
	for i, c := range chars {
		if i > 0 && chars[i-1].ID > c.ID {
			out = append(out, violation(checkCharacterOrder, c.ID, "follows %s", chars[i-1].ID))
		}
		if c.Class == "" {
			out = append(out, violation(checkCharacterClass, c.ID, "empty class"))
		}
	}
	return out
}

// verifyItems expects unique instance ids and a resolved slot per item.
func verifyItems(subject string, res model.NormalizeResult) []Violation {
	var out []Violation
	seen := make(map[string]struct{}, len(res.Items))
	for _, it := range res.Items {
		if it.InstanceID != "" {
			if _, dup := seen[it.InstanceID]; dup {
				out = append(out, violation(checkDuplicateItem, subject, "instance %s listed twice", it.InstanceID))
			}
			seen[it.InstanceID] = struct{}{}
		}
		if it.Slot == "" {
			out = append(out, violation(checkItemSlot, subject, "item %d has no slot", it.ItemHash))
		}
	}
	return out
}

// verifyLoadout expects weapons and armor to be disjoint.
func verifyLoadout(subject string, l model.Loadout) []Violation {
	var out []Violation
	weapons := make(map[string]struct{}, len(l.Weapons))
	for _, w := range l.Weapons {
		weapons[w.InstanceID] = struct{}{}
	}
	for _, a := range l.Armor {
		if _, ok := weapons[a.InstanceID]; ok {
			out = append(out, violation(checkLoadoutOverlap, subject, "instance %s is both weapon and armor", a.InstanceID))
		}
	}
	return out
}

// verifyActivities expects chronological order, unique instances and no
// activity dated before cutoffYear.
func verifyActivities(subject string, acts []model.ActivitySummary, cutoffYear int) []Violation {
	var (
		out  []Violation
		prev time.Time
		seen = make(map[string]struct{}, len(acts))
	)
	for _, a := range acts {
		if _, dup := seen[a.InstanceID]; dup {
			out = append(out, violation(checkDuplicateRun, subject, "instance %s listed twice", a.InstanceID))
		}
		seen[a.InstanceID] = struct{}{}

		ts, err := time.Parse(time.RFC3339, a.Date)
		if err != nil {
			out = append(out, violation(checkActivityDate, subject, "instance %s has date %q", a.InstanceID, a.Date))
			continue
		}
		if ts.Year() < cutoffYear {
			out = append(out, violation(checkActivityCutoff, subject, "instance %s dated %d", a.InstanceID, ts.Year()))
		}
		if ts.Before(prev) {
			out = append(out, violation(checkActivityOrder, subject, "instance %s precedes the previous activity", a.InstanceID))
		}
		prev = ts
	}
	return out
}

// verifyWeaponStats expects non-negative totals, one row per weapon type and
// precision kills bounded by kills.
func verifyWeaponStats(subject string, rows []model.WeaponStatRecord) []Violation {
	var out []Violation
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if _, dup := seen[r.WeaponType]; dup {
			out = append(out, violation(checkWeaponDuplicated, subject, "%s listed twice", r.WeaponType))
		}
		seen[r.WeaponType] = struct{}{}
		if r.Kills < 0 || r.PrecisionKills < 0 {
			out = append(out, violation(checkWeaponNegative, subject, "%s has negative totals", r.WeaponType))
		}
		if r.PrecisionKills > r.Kills {
			out = append(out, violation(checkWeaponPrecision, subject, "%s precision kills %d exceed kills %d", r.WeaponType, r.PrecisionKills, r.Kills))
		}
	}
	return out
}
