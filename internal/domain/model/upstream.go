package model

import "encoding/json"

// StatValue is the {basic:{value, displayValue}} shape used by report values.
type StatValue struct {
	Basic struct {
		Value        float64 `json:"value"`
		DisplayValue string  `json:"displayValue"`
	} `json:"basic"`
}

// Int returns the basic value truncated to an int.
func (v StatValue) Int() int { return int(v.Basic.Value) }

// ValueMap is a report's named values.
type ValueMap map[string]StatValue

// Int returns the named value, zero when absent.
func (m ValueMap) Int(name string) int { return m[name].Int() }

// Display returns the named display value, empty when absent.
func (m ValueMap) Display(name string) string { return m[name].Basic.DisplayValue }

// RawItem is one entry of an item list component.
type RawItem struct {
	ItemHash       uint32 `json:"itemHash"`
	ItemInstanceID string `json:"itemInstanceId"`
	BucketHash     uint32 `json:"bucketHash"`
	Quantity       int    `json:"quantity"`
}

// ItemList is a character or profile item component.
type ItemList struct {
	Data struct {
		Items []RawItem `json:"items"`
	} `json:"data"`

	// Malformed counts entries that could not be decoded and were skipped.
	Malformed int `json:"-"`
}

// UnmarshalJSON decodes the list entry by entry so a single bad record does
// not reject the whole component.
func (l *ItemList) UnmarshalJSON(b []byte) error {
	var wire struct {
		Data struct {
			Items []json.RawMessage `json:"items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}

	out := ItemList{}
	for _, entry := range wire.Data.Items {
		var raw RawItem
		if err := json.Unmarshal(entry, &raw); err != nil {
			out.Malformed++
			continue
		}
		out.Data.Items = append(out.Data.Items, raw)
	}
	*l = out
	return nil
}

// ComponentMap holds per-instance component data keyed by instance id.
type ComponentMap[T any] struct {
	Data map[string]T `json:"data"`

	// Malformed counts entries that could not be decoded and were skipped.
	Malformed int `json:"-"`
}

// UnmarshalJSON skips entries that do not decode into T.
func (m *ComponentMap[T]) UnmarshalJSON(b []byte) error {
	var wire struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}

	out := ComponentMap[T]{}
	if wire.Data != nil {
		out.Data = make(map[string]T, len(wire.Data))
	}
	for id, entry := range wire.Data {
		var v T
		if err := json.Unmarshal(entry, &v); err != nil {
			out.Malformed++
			continue
		}
		out.Data[id] = v
	}
	*m = out
	return nil
}

// PrimaryStat is an instance's power or attack value.
type PrimaryStat struct {
	StatHash uint32 `json:"statHash"`
	Value    int    `json:"value"`
}

// ItemInstance is the per-instance state of an item.
type ItemInstance struct {
	DamageType  int          `json:"damageType"`
	PrimaryStat *PrimaryStat `json:"primaryStat"`
	ItemLevel   int          `json:"itemLevel"`
	IsEquipped  bool         `json:"isEquipped"`
}

// InstanceStat is one stat value of an item instance.
type InstanceStat struct {
	StatHash uint32 `json:"statHash"`
	Value    int    `json:"value"`
}

// OrderedStats keeps instance stats in payload order.
type OrderedStats []InstanceStat

// UnmarshalJSON decodes the stat-hash keyed object preserving member order.
func (s *OrderedStats) UnmarshalJSON(b []byte) error {
	out := OrderedStats{}
	err := EachOrdered(b, func(_ string, value json.RawMessage) error {
		var st InstanceStat
		if err := json.Unmarshal(value, &st); err != nil {
			return err
		}
		out = append(out, st)
		return nil
	})
	if err != nil {
		return err
	}
	*s = out
	return nil
}

// ItemStats is the stats component of one instance.
type ItemStats struct {
	Stats OrderedStats `json:"stats"`
}

// InstancePerk is one perk on an item instance.
type InstancePerk struct {
	PerkHash uint32 `json:"perkHash"`
	IsActive bool   `json:"isActive"`
	Visible  bool   `json:"visible"`
}

// ItemPerks is the perks component of one instance.
type ItemPerks struct {
	Perks []InstancePerk `json:"perks"`
}

// Socket is one socket of an item instance.
type Socket struct {
	PlugHash  uint32 `json:"plugHash"`
	IsEnabled bool   `json:"isEnabled"`
	IsVisible bool   `json:"isVisible"`
}

// ItemSockets is the sockets component of one instance.
type ItemSockets struct {
	Sockets []Socket `json:"sockets"`
}

// ItemComponents carries the per-instance components requested with a list.
type ItemComponents struct {
	Instances ComponentMap[ItemInstance] `json:"instances"`
	Stats     ComponentMap[ItemStats]    `json:"stats"`
	Perks     ComponentMap[ItemPerks]    `json:"perks"`
	Sockets   ComponentMap[ItemSockets]  `json:"sockets"`
}

// ProfileResponse is the Response member of a profile or character query.
type ProfileResponse struct {
	Equipment        ItemList       `json:"equipment"`
	Inventory        ItemList       `json:"inventory"`
	ProfileInventory ItemList       `json:"profileInventory"`
	ItemComponents   ItemComponents `json:"itemComponents"`
}

// UserInfo identifies a player inside a report.
type UserInfo struct {
	MembershipID            string `json:"membershipId"`
	MembershipType          int    `json:"membershipType"`
	DisplayName             string `json:"displayName"`
	BungieGlobalDisplayName string `json:"bungieGlobalDisplayName"`
}

// Name prefers the global display name.
func (u UserInfo) Name() string {
	if u.BungieGlobalDisplayName != "" {
		return u.BungieGlobalDisplayName
	}
	return u.DisplayName
}

// ReportWeapon is one weapon's usage in a report entry.
type ReportWeapon struct {
	ReferenceID uint32   `json:"referenceId"`
	Values      ValueMap `json:"values"`
}

// ReportEntry is one player's row in a detail report.
type ReportEntry struct {
	Standing int `json:"standing"`
	Player   struct {
		DestinyUserInfo UserInfo `json:"destinyUserInfo"`
	} `json:"player"`
	CharacterID string   `json:"characterId"`
	Values      ValueMap `json:"values"`
	Extended    struct {
		Weapons []ReportWeapon `json:"weapons"`
	} `json:"extended"`
}

// ActivityDetails identifies the activity of a report or history entry.
type ActivityDetails struct {
	ReferenceID          uint32 `json:"referenceId"`
	DirectorActivityHash uint32 `json:"directorActivityHash"`
	InstanceID           string `json:"instanceId"`
	Mode                 int    `json:"mode"`
	Modes                []int  `json:"modes"`
}

// PostGameReport is the detail report of one activity instance.
type PostGameReport struct {
	Period          string          `json:"period"`
	ActivityDetails ActivityDetails `json:"activityDetails"`
	Entries         []ReportEntry   `json:"entries"`
}

// HistoryEntry is one row of an activity history page.
type HistoryEntry struct {
	Period          string          `json:"period"`
	ActivityDetails ActivityDetails `json:"activityDetails"`
}

// HistoryPage is the Response member of one activity history page.
type HistoryPage struct {
	Activities []HistoryEntry `json:"activities"`
}

// LinkedMembership is one platform membership of the token's owner.
type LinkedMembership struct {
	MembershipID                string `json:"membershipId"`
	MembershipType              int    `json:"membershipType"`
	DisplayName                 string `json:"displayName"`
	BungieGlobalDisplayName     string `json:"bungieGlobalDisplayName"`
	BungieGlobalDisplayNameCode int    `json:"bungieGlobalDisplayNameCode"`
}

// MembershipsResponse lists the memberships linked to the current user.
type MembershipsResponse struct {
	DestinyMemberships  []LinkedMembership `json:"destinyMemberships"`
	PrimaryMembershipID string             `json:"primaryMembershipId"`
}

// RawCharacter is one entry of the characters component.
type RawCharacter struct {
	CharacterID        string `json:"characterId"`
	Light              int    `json:"light"`
	ClassType          int    `json:"classType"`
	MinutesPlayedTotal string `json:"minutesPlayedTotal"`
}

// CharactersResponse is the Response member of a characters query.
type CharactersResponse struct {
	Characters ComponentMap[RawCharacter] `json:"characters"`
}

// HistoricalStatsResponse is the Response member of account historical stats.
// The allTime blocks stay raw so their member order survives.
type HistoricalStatsResponse struct {
	MergedAllCharacters struct {
		Results struct {
			AllPvE struct {
				AllTime json.RawMessage `json:"allTime"`
			} `json:"allPvE"`
			AllPvP struct {
				AllTime json.RawMessage `json:"allTime"`
			} `json:"allPvP"`
		} `json:"results"`
	} `json:"mergedAllCharacters"`
}
