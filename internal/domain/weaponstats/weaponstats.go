// Package weaponstats pairs the per-weapon-type kill and precision kill
// series of a historical stats block into one record per weapon type.
package weaponstats

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vigilance/vanguard/internal/domain/model"
)

// ErrInvalidPayload means the stats block is not a JSON object.
var ErrInvalidPayload = errors.New("weapon stats payload is not an object")

const (
	precisionPrefix = "weaponPrecisionKills"
	killsPrefix     = "weaponKills"
	sentinelKey     = "activitiesEntered"
)

// Normalize pairs keys by weapon type regardless of the order they appear in.
// Records are ordered by the first appearance of each weapon type; a type
// seen under only one prefix keeps a zero for the other count. Keys that
// match neither prefix are ignored.
func Normalize(raw json.RawMessage) ([]model.WeaponStatRecord, error) {
	records := []model.WeaponStatRecord{}
	index := map[string]int{}

	err := model.EachOrdered(raw, func(key string, value json.RawMessage) error {
		if key == sentinelKey {
			return nil
		}
		weaponType, precision, ok := classify(key)
		if !ok {
			return nil
		}
		var v model.StatValue
		if json.Unmarshal(value, &v) != nil {
			return nil
		}

		i, seen := index[weaponType]
		if !seen {
			i = len(records)
			index[weaponType] = i
			records = append(records, model.WeaponStatRecord{WeaponType: weaponType})
		}
		if precision {
			records[i].PrecisionKills = v.Int()
		} else {
			records[i].Kills = v.Int()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return records, nil
}

func classify(key string) (weaponType string, precision bool, ok bool) {
	if rest, found := strings.CutPrefix(key, precisionPrefix); found && rest != "" {
		return rest, true, true
	}
	if rest, found := strings.CutPrefix(key, killsPrefix); found && rest != "" {
		return rest, false, true
	}
	return "", false, false
}

// FromHistoricalStats normalizes the all-time PvE or PvP block of an account's
// merged historical stats. A missing block yields no records.
func FromHistoricalStats(resp *model.HistoricalStatsResponse, pve bool) ([]model.WeaponStatRecord, error) {
	if resp == nil {
		return []model.WeaponStatRecord{}, nil
	}
	block := resp.MergedAllCharacters.Results.AllPvP.AllTime
	if pve {
		block = resp.MergedAllCharacters.Results.AllPvE.AllTime
	}
	if len(block) == 0 {
		return []model.WeaponStatRecord{}, nil
	}
	return Normalize(block)
}
