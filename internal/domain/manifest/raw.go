package manifest

// Shapes of the manifest index and the per-table content files.

type displayProperties struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type manifestIndex struct {
	Version                        string                       `json:"version"`
	JSONWorldComponentContentPaths map[string]map[string]string `json:"jsonWorldComponentContentPaths"`
}

type bucketDef struct {
	Hash              uint32             `json:"hash"`
	DisplayProperties *displayProperties `json:"displayProperties"`
}

type perkDef struct {
	Hash              uint32            `json:"hash"`
	DisplayProperties displayProperties `json:"displayProperties"`
	IsDisplayable     bool              `json:"isDisplayable"`
}

type namedDef struct {
	Hash              uint32            `json:"hash"`
	DisplayProperties displayProperties `json:"displayProperties"`
}

// itemTypeSubclass is the item type enum value for subclasses.
const itemTypeSubclass = 16

type itemDef struct {
	Hash              uint32            `json:"hash"`
	DisplayProperties displayProperties `json:"displayProperties"`
	Inventory         struct {
		BucketTypeHash uint32 `json:"bucketTypeHash"`
	} `json:"inventory"`
	DefaultDamageType int `json:"defaultDamageType"`
	ItemType          int `json:"itemType"`
}

type activityDef struct {
	Hash               uint32            `json:"hash"`
	DisplayProperties  displayProperties `json:"displayProperties"`
	ActivityTypeHash   uint32            `json:"activityTypeHash"`
	ActivityLightLevel int               `json:"activityLightLevel"`
	IsPlaylist         bool              `json:"isPlaylist"`
	Modifiers          []struct {
		ActivityModifierHash uint32 `json:"activityModifierHash"`
	} `json:"modifiers"`
}

type milestone struct {
	MilestoneHash uint32 `json:"milestoneHash"`
	Activities    []struct {
		ActivityHash   uint32   `json:"activityHash"`
		ModifierHashes []uint32 `json:"modifierHashes"`
	} `json:"activities"`
}
