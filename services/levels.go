package services

import "service-market-gamification/models"

// ResolveLevel maps an XP total to a level on the role's track: the highest
// level whose threshold is at or below xp. Level 1 starts at 0 XP, so the
// fallback is unreachable for well-formed tables.
func ResolveLevel(xp int, role models.Role) int {
	levels := models.LevelsFor(role)
	for i := len(levels) - 1; i >= 0; i-- {
		if xp >= levels[i].XPRequired {
			return levels[i].Level
		}
	}
	return 1
}

// LevelConfig returns the level definition for a level number on the role's
// track, or nil for an out-of-range level.
func LevelConfig(level int, role models.Role) *models.LevelDefinition {
	for _, l := range models.LevelsFor(role) {
		if l.Level == level {
			def := l
			return &def
		}
	}
	return nil
}

// NextLevelInfo describes progress toward the next level.
type NextLevelInfo struct {
	Level           int     `json:"level"`
	Title           string  `json:"title"`
	Icon            string  `json:"icon"`
	XPNeeded        int     `json:"xp_needed"`
	ProgressPercent float64 `json:"progress_percent"`
}

// NextLevel returns progress toward the next level on the role's track, or
// nil when xp already sits at the top level. Progress is measured over the
// XP span between the current and next thresholds, clamped to [0, 100].
func NextLevel(xp int, role models.Role) *NextLevelInfo {
	levels := models.LevelsFor(role)
	current := ResolveLevel(xp, role)
	if current >= levels[len(levels)-1].Level {
		return nil
	}

	var cur, next models.LevelDefinition
	for i, l := range levels {
		if l.Level == current {
			cur = l
			next = levels[i+1]
			break
		}
	}

	span := next.XPRequired - cur.XPRequired
	progress := 0.0
	if span > 0 {
		progress = float64(xp-cur.XPRequired) / float64(span) * 100
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	needed := next.XPRequired - xp
	if needed < 0 {
		needed = 0
	}

	return &NextLevelInfo{
		Level:           next.Level,
		Title:           next.Title,
		Icon:            next.Icon,
		XPNeeded:        needed,
		ProgressPercent: progress,
	}
}
