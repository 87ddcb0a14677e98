package gamification

import "fmt"

// Streak lengths that earn a badge.
var streakMilestones = []int{3, 7, 14, 30, 100}

// LevelBadges returns the badges earned by reaching newLevel from oldLevel.
func LevelBadges(oldLevel, newLevel int) []string {
	var out []string
	for l := oldLevel + 1; l <= newLevel; l++ {
		if l >= 5 && l%5 == 0 {
			out = append(out, fmt.Sprintf("level-%d", l))
		}
	}
	return out
}

// StreakBadges returns the badges earned by extending a streak to length n.
func StreakBadges(n int) []string {
	var out []string
	for _, m := range streakMilestones {
		if n == m {
			out = append(out, fmt.Sprintf("streak-%d", m))
		}
	}
	return out
}
