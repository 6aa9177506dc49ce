package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wfunc/physics-game/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB 为测试套件设置内存测试数据库
func SetupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}

	// 内存库每个连接各自独立，必须收紧连接池到单连接
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		// 用户系统
		&models.User{},
		&models.UserAuth{},
		&models.UserSession{},

		// 关卡系统
		&models.Level{},
		&models.Submission{},

		// 经济系统
		&models.Inventory{},
		&models.StoreItem{},

		// LLM系统
		&models.LLMQuery{},
	)
	if err != nil {
		panic(err)
	}

	return db
}

// CleanupTestDB 清理测试数据库
func CleanupTestDB(db *gorm.DB) {
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// SeedTestLevels 创建测试关卡
func SeedTestLevels(t *testing.T, db *gorm.DB) []models.Level {
	levels := []models.Level{
		{
			LevelID:       1,
			Title:         "Free Fall",
			Question:      "How far does a ball fall in 2 seconds?",
			CorrectAnswer: "20",
			Hints:         models.StringList{"Use d = 1/2 * g * t^2"},
			Difficulty:    "easy",
			CoinsRewarded: 50,
			ExpectedTime:  45,
		},
		{
			LevelID:       2,
			Title:         "Constant Velocity",
			Question:      "How far does a car at 20 m/s travel in 5 seconds?",
			CorrectAnswer: "100",
			Hints:         models.StringList{"Distance = speed * time"},
			Difficulty:    "easy",
			CoinsRewarded: 60,
			ExpectedTime:  40,
		},
		{
			LevelID:       3,
			Title:         "Newton's Second Law",
			Question:      "What is the acceleration of a 5 kg mass under 20 N?",
			CorrectAnswer: "4",
			Hints:         models.StringList{"F = m * a"},
			Difficulty:    "medium",
			CoinsRewarded: 100,
			ExpectedTime:  60,
		},
	}
	err := db.Create(&levels).Error
	require.NoError(t, err)
	return levels
}

// SeedTestStoreItems 创建测试商品
func SeedTestStoreItems(t *testing.T, db *gorm.DB) []models.StoreItem {
	items := []models.StoreItem{
		{
			ItemID:  "magnet",
			Name:    "Magnet",
			Type:    "tool",
			Rarity:  models.RarityCommon,
			Cost:    50,
			GemCost: 0,
		},
		{
			ItemID:  "prism",
			Name:    "Prism",
			Type:    "tool",
			Rarity:  models.RarityRare,
			Cost:    300,
			GemCost: 10,
		},
	}
	err := db.Create(&items).Error
	require.NoError(t, err)
	return items
}

// CreateTestUser 创建测试用户
func CreateTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Nickname: username,
		Status:   "active",
		Level:    1,
		Coins:    100,
	}
	err := db.Create(user).Error
	require.NoError(t, err)
	return user
}

// CreateTestSession 创建测试会话
func CreateTestSession(t *testing.T, db *gorm.DB, userID uint, sessionID string) *models.UserSession {
	session := &models.UserSession{
		UserID:    userID,
		SessionID: sessionID,
		ExpiredAt: time.Now().Add(time.Hour),
	}
	err := db.Create(session).Error
	require.NoError(t, err)
	return session
}
