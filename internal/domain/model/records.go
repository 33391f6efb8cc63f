// Package model contains the domain records passed between layers, plus the
// raw upstream payload shapes the normalizers consume.
package model

// Bucket is an equipment slot, e.g. "Helmet" or "Kinetic Weapons".
type Bucket struct {
	Hash uint32
	Name string
}

// Perk is a displayable sandbox perk.
type Perk struct {
	Hash        uint32
	Name        string
	Description string
}

// Stat is a stat definition such as "Handling".
type Stat struct {
	Hash        uint32
	Name        string
	Description string
}

// ItemDefinition is the static record for an item hash.
type ItemDefinition struct {
	Hash        uint32
	Name        string
	Description string
	BucketHash  uint32 // slot from the definition, not the instance
	DamageType  int
	IsSubclass  bool
}

// ActivityType groups activities, e.g. "Strike".
type ActivityType struct {
	Hash uint32
	Name string
}

// Modifier is an activity modifier.
type Modifier struct {
	Hash        uint32 `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Activity is a static or live activity definition.
type Activity struct {
	Hash        uint32
	Name        string
	Description string
	Type        string
	LightLevel  int
	IsPlaylist  bool
	Modifiers   []Modifier
}

// ItemStat is one resolved stat line of an item.
type ItemStat struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Value       int    `json:"value"`
}

// ItemPerk is one resolved visible perk of an item.
type ItemPerk struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// NormalizedItem is one weapon or armor piece.
type NormalizedItem struct {
	InstanceID string     `json:"instanceId"`
	ItemHash   uint32     `json:"itemHash"`
	Slot       string     `json:"slot"`
	Name       string     `json:"name"`
	Power      int        `json:"power"`
	DamageType string     `json:"damageType"`
	Stats      []ItemStat `json:"stats"`
	Perks      []ItemPerk `json:"perks"`
}

// SubclassComponent is one enabled and visible socketed plug of a subclass.
type SubclassComponent struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Subclass is keyed by its socket contents rather than stats or perks.
type Subclass struct {
	InstanceID string              `json:"instanceId"`
	ItemHash   uint32              `json:"itemHash"`
	Name       string              `json:"name"`
	Components []SubclassComponent `json:"components"`
}

// NormalizeResult is the output of one item normalization call.
type NormalizeResult struct {
	Items      []NormalizedItem `json:"items"`
	Subclasses []Subclass       `json:"subclasses"`
}

// Loadout separates items by slot class.
type Loadout struct {
	Weapons []NormalizedItem `json:"weapons"`
	Armor   []NormalizedItem `json:"armor"`
}

// WeaponUsage is one weapon's kill counts in a single activity.
type WeaponUsage struct {
	Name           string `json:"name"`
	DamageType     string `json:"damageType"`
	Kills          int    `json:"kills"`
	PrecisionKills int    `json:"precisionKills"`
}

// Participant is another player in the same activity.
type Participant struct {
	Name    string        `json:"name"`
	Kills   int           `json:"kills"`
	Assists int           `json:"assists"`
	Deaths  int           `json:"deaths"`
	Weapons []WeaponUsage `json:"weapons"`
}

// ActivitySummary is one completed play session.
type ActivitySummary struct {
	InstanceID        string        `json:"instanceId"`
	Date              string        `json:"date"`
	ActivityName      string        `json:"activityName"`
	Type              string        `json:"type"`
	Mode              string        `json:"mode"`
	Modifiers         []Modifier    `json:"modifiers"`
	Standing          int           `json:"standing"`
	Kills             int           `json:"kills"`
	Assists           int           `json:"assists"`
	Deaths            int           `json:"deaths"`
	DurationDisplay   string        `json:"durationDisplay"`
	Weapons           []WeaponUsage `json:"weaponData"`
	OtherParticipants []Participant `json:"otherParticipants"`
}

// WeaponStatRecord pairs kill counts for one weapon type.
type WeaponStatRecord struct {
	WeaponType     string `json:"weaponType"`
	PrecisionKills int    `json:"precisionKills"`
	Kills          int    `json:"kills"`
}

// Membership is a platform account linked to a user.
type Membership struct {
	MembershipID   string
	MembershipType int
	DisplayName    string
}

// Character is a playable character on an account.
type Character struct {
	ID          string  `json:"id"`
	Light       int     `json:"light"`
	Class       string  `json:"class"`
	HoursPlayed float64 `json:"hoursPlayed"`
}
