package services

import (
	"testing"
	"time"

	"service-market-gamification/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database with the full schema and a
// seeded achievement catalog.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.XPHistory{},
		&models.Achievement{},
		&models.UserAchievement{},
		&models.ReferralReward{},
		&models.Order{},
		&models.Review{},
		&models.Subscription{},
	))
	require.NoError(t, SeedAchievements(db))
	return db
}

func newTestService(t *testing.T) *GamificationService {
	t.Helper()
	return NewGamificationService(newTestDB(t), nil, nil)
}

func createUser(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()
	user := &models.User{Role: role, CurrentLevel: 1}
	require.NoError(t, db.Create(user).Error)
	return user
}

func reload(t *testing.T, db *gorm.DB, userID uint) *models.User {
	t.Helper()
	var user models.User
	require.NoError(t, db.First(&user, userID).Error)
	return &user
}

// fixedTime pins a service clock to a specific moment.
func fixedTime(s *GamificationService, at time.Time) {
	s.now = func() time.Time { return at }
}

// completedOrder inserts a completed collaborator order for an executor.
func completedOrder(t *testing.T, db *gorm.DB, executorID uint, at time.Time) {
	t.Helper()
	o := models.Order{
		ClientID:    1,
		ExecutorID:  &executorID,
		Status:      models.OrderStatusCompleted,
		Price:       1000,
		CompletedAt: &at,
	}
	o.CreatedAt = at
	require.NoError(t, db.Create(&o).Error)
}
