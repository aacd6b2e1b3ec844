package services

import (
	"testing"

	"service-market-gamification/models"

	"github.com/stretchr/testify/assert"
)

func TestResolveLevel(t *testing.T) {
	tests := []struct {
		name string
		xp   int
		role models.Role
		want int
	}{
		{"client zero xp", 0, models.RoleClient, 1},
		{"client just below level 2", 99, models.RoleClient, 1},
		{"client exactly level 2", 100, models.RoleClient, 2},
		{"client between 2 and 3", 150, models.RoleClient, 2},
		{"client just below level 3", 299, models.RoleClient, 2},
		{"client exactly level 3", 300, models.RoleClient, 3},
		{"client top threshold", 5500, models.RoleClient, 10},
		{"client far past top", 999999, models.RoleClient, 10},
		{"executor zero xp", 0, models.RoleExecutor, 1},
		{"executor level 2", 150, models.RoleExecutor, 2},
		{"executor level 10", 8000, models.RoleExecutor, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveLevel(tt.xp, tt.role))
		})
	}
}

func TestLevelTablesWellFormed(t *testing.T) {
	for _, role := range []models.Role{models.RoleClient, models.RoleExecutor} {
		levels := models.LevelsFor(role)
		assert.NotEmpty(t, levels)
		assert.Equal(t, 1, levels[0].Level)
		assert.Equal(t, 0, levels[0].XPRequired)
		for i := 1; i < len(levels); i++ {
			assert.Equal(t, levels[i-1].Level+1, levels[i].Level, "levels must be contiguous")
			assert.Greater(t, levels[i].XPRequired, levels[i-1].XPRequired,
				"thresholds must be strictly increasing (%s level %d)", role, levels[i].Level)
		}
	}
}

func TestNextLevel(t *testing.T) {
	t.Run("midway between thresholds", func(t *testing.T) {
		info := NextLevel(150, models.RoleClient) // level 2 at 100, level 3 at 300
		if assert.NotNil(t, info) {
			assert.Equal(t, 3, info.Level)
			assert.Equal(t, 150, info.XPNeeded)
			assert.InDelta(t, 25.0, info.ProgressPercent, 0.001)
		}
	})

	t.Run("at a threshold progress is zero", func(t *testing.T) {
		info := NextLevel(100, models.RoleClient)
		if assert.NotNil(t, info) {
			assert.Equal(t, 0.0, info.ProgressPercent)
			assert.Equal(t, 200, info.XPNeeded)
		}
	})

	t.Run("nil at max level", func(t *testing.T) {
		assert.Nil(t, NextLevel(5500, models.RoleClient))
		assert.Nil(t, NextLevel(1000000, models.RoleExecutor))
	})
}

func TestLevelConfig(t *testing.T) {
	cfg := LevelConfig(2, models.RoleClient)
	if assert.NotNil(t, cfg) {
		assert.Equal(t, "Клиент", cfg.Title)
		assert.Equal(t, 100, cfg.XPRequired)
	}
	assert.Nil(t, LevelConfig(42, models.RoleClient))
}
