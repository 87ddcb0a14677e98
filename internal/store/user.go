package store

import (
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"github.com/dukerupert/hearth/internal/crdt"
	"github.com/dukerupert/hearth/internal/gamification"
	"github.com/dukerupert/hearth/internal/model"
)

// XP granted for refreshing an avatar, at most once per rate-limit window.
// Cosmetic changes themselves are unlimited.
const (
	avatarXPBonus  = 25
	avatarXPWindow = 24 * time.Hour
)

// UserStore wraps the replicated user/gamification table. Profiles live in
// a keyed map so lookups by member id are O(1).
type UserStore struct {
	doc    *crdt.Doc
	logger *slog.Logger
	now    func() time.Time
}

func NewUserStore(doc *crdt.Doc, logger *slog.Logger) *UserStore {
	return &UserStore{doc: doc, logger: orDefault(logger), now: defaultClock}
}

// Get returns the profile stored under id.
func (s *UserStore) Get(id string) (model.UserProfile, bool) {
	raw, ok := s.doc.Get(usersMap, id)
	if !ok {
		return model.UserProfile{}, false
	}
	var u model.UserProfile
	if err := json.Unmarshal(raw, &u); err != nil {
		s.logger.Warn("skipping malformed record", "collection", usersMap, "id", id, "error", err)
		return model.UserProfile{}, false
	}
	return u, true
}

// All returns every profile, ordered by id.
func (s *UserStore) All() []model.UserProfile {
	var out []model.UserProfile
	for _, id := range s.doc.Keys(usersMap) {
		if u, ok := s.Get(id); ok {
			out = append(out, u)
		}
	}
	return out
}

// Subscribe registers fn to run after any profile changes, locally or from
// a remote replica.
func (s *UserStore) Subscribe(fn func()) func() {
	return s.doc.Subscribe(usersMap, fn)
}

// Initialize creates a profile for id if none exists. An existing profile
// is never overwritten, so two devices initializing the same member converge
// on whichever profile carries later edits, and a second login on the same
// device is a no-op.
func (s *UserStore) Initialize(id string, seed model.UserProfile) {
	if id == "" {
		return
	}
	s.doc.Update(func(tx *crdt.Tx) {
		if _, ok := tx.Get(usersMap, id); ok {
			return
		}
		seed.ID = id
		if seed.Level == 0 {
			seed.Level = gamification.LevelForXP(seed.XP)
		}
		if seed.ActivityLog == nil {
			seed.ActivityLog = make(map[string]int)
		}
		tx.Set(usersMap, id, mustJSON(seed))
	})
}

// AwardXP adds amount XP to the profile, recomputes the level from the
// threshold table, grants any crossed level badges, and counts the action
// in today's activity log. Non-positive amounts are ignored so XP stays
// monotonically non-decreasing.
func (s *UserStore) AwardXP(id string, amount int, reason string) {
	s.doc.Update(func(tx *crdt.Tx) {
		s.awardXP(tx, id, amount, reason)
	})
}

// awardXP is the transactional body of AwardXP, shared with stores that
// award points as part of their own transactions.
func (s *UserStore) awardXP(tx *crdt.Tx, id string, amount int, reason string) {
	if amount <= 0 {
		return
	}
	u, ok := s.getTx(tx, id)
	if !ok {
		return
	}

	oldLevel := u.Level
	u.XP += amount
	u.Level = gamification.LevelForXP(u.XP)
	for _, b := range gamification.LevelBadges(oldLevel, u.Level) {
		if !u.HasBadge(b) {
			u.Badges = append(u.Badges, b)
		}
	}
	if u.ActivityLog == nil {
		u.ActivityLog = make(map[string]int)
	}
	u.ActivityLog[s.now().Format(gamification.DateLayout)]++

	tx.Set(usersMap, id, mustJSON(u))
	s.logger.Debug("awarded xp", "user", id, "amount", amount, "reason", reason, "level", u.Level)
}

// CheckStreak advances the profile's daily streak based on the calendar-day
// gap since the last recorded activity. Same-day calls leave the record
// untouched; a one-day gap extends the streak; anything longer resets it.
func (s *UserStore) CheckStreak(id string) {
	s.doc.Update(func(tx *crdt.Tx) {
		u, ok := s.getTx(tx, id)
		if !ok {
			return
		}

		cur, max, last, changed := gamification.AdvanceStreak(
			u.Streaks.Current, u.Streaks.Max, u.Streaks.LastActivityDate, s.now())
		if !changed {
			return
		}

		u.Streaks = model.Streaks{Current: cur, Max: max, LastActivityDate: last}
		for _, b := range gamification.StreakBadges(cur) {
			if !u.HasBadge(b) {
				u.Badges = append(u.Badges, b)
			}
		}
		tx.Set(usersMap, id, mustJSON(u))
	})
}

// UpdateAvatar stores the new avatar immediately. The XP bonus is
// rate-limited: it is granted only when the previous rewarded update was
// more than a day ago.
func (s *UserStore) UpdateAvatar(id, avatarType, value string) {
	s.doc.Update(func(tx *crdt.Tx) {
		u, ok := s.getTx(tx, id)
		if !ok {
			return
		}

		now := s.now()
		u.Avatar = &model.Avatar{Type: avatarType, Value: value}

		rewardable := u.LastAvatarUpdate == nil || now.Sub(*u.LastAvatarUpdate) > avatarXPWindow
		if rewardable {
			u.LastAvatarUpdate = &now
		}
		tx.Set(usersMap, id, mustJSON(u))

		if rewardable {
			s.awardXP(tx, id, avatarXPBonus, "avatar refresh")
		}
	})
}

// SetVibe replaces the profile's status text.
func (s *UserStore) SetVibe(id, text string) {
	s.doc.Update(func(tx *crdt.Tx) {
		u, ok := s.getTx(tx, id)
		if !ok {
			return
		}
		u.Vibe = text
		tx.Set(usersMap, id, mustJSON(u))
	})
}

// getTx reads and decodes a profile inside a transaction. Missing or
// malformed profiles make the caller a no-op.
func (s *UserStore) getTx(tx *crdt.Tx, id string) (model.UserProfile, bool) {
	raw, ok := tx.Get(usersMap, id)
	if !ok {
		return model.UserProfile{}, false
	}
	var u model.UserProfile
	if err := json.Unmarshal(raw, &u); err != nil {
		s.logger.Warn("skipping malformed record", "collection", usersMap, "id", id, "error", err)
		return model.UserProfile{}, false
	}
	return u, true
}

// LeaderboardEntry is one ranked row of points per member.
type LeaderboardEntry struct {
	MemberID string
	Points   int
}

// rankEntries orders aggregated points descending, ties broken by id so
// every replica renders the same ranking.
func rankEntries(points map[string]int) []LeaderboardEntry {
	out := make([]LeaderboardEntry, 0, len(points))
	for id, p := range points {
		out = append(out, LeaderboardEntry{MemberID: id, Points: p})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].MemberID < out[j].MemberID
	})
	return out
}
