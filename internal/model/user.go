package model

import "time"

type UserProfile struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Role             string         `json:"role"`
	XP               int            `json:"xp"`
	Level            int            `json:"level"`
	Streaks          Streaks        `json:"streaks"`
	Badges           []string       `json:"badges"`
	ActivityLog      map[string]int `json:"activity_log"` // date (2006-01-02) -> actions that day
	Vibe             string         `json:"vibe,omitempty"`
	Avatar           *Avatar        `json:"avatar,omitempty"`
	LastAvatarUpdate *time.Time     `json:"last_avatar_update,omitempty"`
}

type Streaks struct {
	Current          int    `json:"current"`
	Max              int    `json:"max"`
	LastActivityDate string `json:"last_activity_date,omitempty"` // 2006-01-02
}

type Avatar struct {
	Type  string `json:"type"` // "emoji", "color", "image"
	Value string `json:"value"`
}

// HasBadge reports whether the profile already holds the named badge.
func (u UserProfile) HasBadge(name string) bool {
	for _, b := range u.Badges {
		if b == name {
			return true
		}
	}
	return false
}
