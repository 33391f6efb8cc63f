package manifest

import "strconv"

// modeNames is the activity mode enumeration. It is not published by any
// manifest table, so it is kept here.
var modeNames = map[int]string{ //nolint:gochecknoglobals // fixed enumeration
	0: "None", 2: "Story", 3: "Strike", 4: "Raid", 5: "AllPvP", 6: "Patrol",
	7: "AllPvE", 10: "Control", 12: "Clash", 15: "Crimson Doubles",
	16: "Nightfall", 17: "Heroic Nightfall", 18: "All Strikes",
	19: "Iron Banner", 25: "All Mayhem", 31: "Supremacy",
	32: "All Private Matches", 37: "Survival", 38: "Countdown",
	39: "Trials of the Nine", 40: "Social",
	41: "Trials of Osiris: Countdown", 42: "Trials of Osiris: Survival",
	43: "Iron Banner: Control", 44: "Iron Banner: Clash",
	45: "Iron Banner: Supremacy", 46: "Nightfall (Scored)",
	47: "Heroic Nightfall (Scored)", 48: "Rumble", 49: "All Doubles",
	50: "Doubles", 51: "Private Match: Clash", 52: "Private Match: Control",
	53: "Private Match: Supremacy", 54: "Private Match: Countdown",
	55: "Private Match: Survival", 56: "Private Match: Mayhem",
	57: "Private Match: Rumble", 58: "Heroic Adventure", 59: "Showdown",
	60: "Lockdown", 61: "Scorched", 62: "Scorched Teams", 63: "Gambit",
	64: "All Competitive PvE", 65: "Breakthrough", 66: "Black Armory Run",
	67: "Salvage", 68: "Iron Banner Salvage", 69: "Competitive PvP",
	70: "PvP Quickplay", 71: "Clash Quickplay", 72: "Clash Competitive",
	73: "Control Quickplay", 74: "Control Competitive", 75: "Gambit Prime",
	76: "Reckoning", 77: "Menagerie", 78: "Vex Offensive",
	79: "Nightmare Hunt", 80: "Elimination", 81: "Momentum", 82: "Dungeon",
	83: "Sundial", 84: "Trials of Osiris", 85: "Dares of Eternity",
	86: "Offensive", 87: "Lost Sector", 88: "Rift", 89: "Zone Control",
	90: "Iron Banner Rift", 91: "Iron Banner Zone Control", 92: "Relic",
}

// damageTypeNames is indexed by the damage type enum value.
var damageTypeNames = []string{ //nolint:gochecknoglobals // fixed enumeration
	"Not Applicable", "Kinetic", "Arc", "Solar", "Void", "Raid Damage", "Stasis", "Strand",
}

// ModeName returns the display name of an activity mode. Unknown modes are
// rendered as "Mode <n>".
func ModeName(mode int) string {
	if name, ok := modeNames[mode]; ok {
		return name
	}
	return "Mode " + strconv.Itoa(mode)
}

// DamageTypeName returns the display name of a damage type enum value.
// Out-of-range values map to "Not Applicable".
func DamageTypeName(dt int) string {
	if dt < 0 || dt >= len(damageTypeNames) {
		return damageTypeNames[0]
	}
	return damageTypeNames[dt]
}

// classNames is indexed by the character class enum value.
var classNames = []string{"Titan", "Hunter", "Warlock"} //nolint:gochecknoglobals // fixed enumeration

// ClassName returns the display name of a character class enum value.
func ClassName(class int) string {
	if class < 0 || class >= len(classNames) {
		return "Unknown"
	}
	return classNames[class]
}
