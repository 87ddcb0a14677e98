// Package gamification holds the arithmetic behind the household profile
// game layer: XP leveling, daily streaks, and badge grants. It is pure
// computation; the users store applies the results to replicated records.
package gamification

// Thresholds is the cumulative XP required for each level. Level n is the
// highest index i (1-based) such that xp >= Thresholds[i-1]. The table is
// strictly increasing, so levels never regress as long as XP never does.
var Thresholds = []int{0, 100, 300, 600, 1000, 1500, 2100, 2800, 3600, 4500}

// LevelForXP returns the level for a cumulative XP total. The minimum level
// is 1; XP beyond the last threshold stays at the top level.
func LevelForXP(xp int) int {
	level := 1
	for i, t := range Thresholds {
		if xp >= t {
			level = i + 1
		}
	}
	return level
}

// XPToNextLevel returns how much XP is missing until the next level, or 0 at
// the top level.
func XPToNextLevel(xp int) int {
	for _, t := range Thresholds {
		if xp < t {
			return t - xp
		}
	}
	return 0
}
