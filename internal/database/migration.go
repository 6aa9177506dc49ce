package database

import (
	"fmt"

	"github.com/wfunc/physics-game/internal/logger"
	"github.com/wfunc/physics-game/internal/models"
	"go.uber.org/zap"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// 清理过期锁文件
	CleanupStaleLocks()

	// 获取迁移锁，避免多个进程同时迁移
	dbPath := getDBPath()
	if dbPath != "" {
		lockFile, err := acquireMigrationLock(dbPath)
		if err != nil {
			logger.Error("无法获取迁移锁", zap.Error(err))
			return fmt.Errorf("获取迁移锁失败: %w", err)
		}
		defer releaseMigrationLock(lockFile)
	}

	// 需要迁移的模型
	migrationModels := []interface{}{
		// 用户相关
		&models.User{},
		&models.UserAuth{},
		&models.UserSession{},

		// 关卡相关
		&models.Level{},
		&models.Submission{},

		// 经济相关
		&models.Inventory{},
		&models.StoreItem{},

		// LLM相关
		&models.LLMQuery{},
	}

	logger.Info("开始数据库迁移...")

	// SQLite迁移时先关闭外键约束，避免重建表时锁定
	if DB.Dialector.Name() == "sqlite" {
		DB.Exec("PRAGMA foreign_keys = OFF")
		defer DB.Exec("PRAGMA foreign_keys = ON")
	}

	for _, model := range migrationModels {
		if err := DB.AutoMigrate(model); err != nil {
			logger.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return err
		}
		logger.Debug("迁移成功", zap.String("model", fmt.Sprintf("%T", model)))
	}

	// 创建索引
	if err := createIndexes(); err != nil {
		return err
	}

	// 初始化默认数据
	if err := initDefaultData(); err != nil {
		return err
	}

	logger.Info("数据库迁移完成")
	return nil
}

// createIndexes 创建数据库索引
func createIndexes() error {
	indexes := map[string]string{
		"idx_users_coins":             "CREATE INDEX IF NOT EXISTS idx_users_coins ON users(coins)",
		"idx_submissions_user_id":     "CREATE INDEX IF NOT EXISTS idx_submissions_user_id ON submissions(user_id)",
		"idx_submissions_submitted_at": "CREATE INDEX IF NOT EXISTS idx_submissions_submitted_at ON submissions(submitted_at)",
		"idx_llm_queries_created_at":  "CREATE INDEX IF NOT EXISTS idx_llm_queries_created_at ON llm_queries(created_at)",
	}

	for name, stmt := range indexes {
		if err := DB.Exec(stmt).Error; err != nil {
			logger.Warn("创建索引失败", zap.String("index", name), zap.Error(err))
		}
	}

	logger.Info("数据库索引创建完成")
	return nil
}

// initDefaultData 初始化默认数据
func initDefaultData() error {
	// 商店商品（已有数据则跳过）
	var count int64
	DB.Model(&models.StoreItem{}).Count(&count)
	if count == 0 {
		defaultItems := []models.StoreItem{
			{
				ItemID:      "magnet",
				Name:        "Magnet",
				Type:        "tool",
				Rarity:      models.RarityCommon,
				Cost:        50,
				Description: "Visualize magnetic field lines in any level.",
			},
			{
				ItemID:      "prism",
				Name:        "Prism",
				Type:        "tool",
				Rarity:      models.RarityRare,
				Cost:        300,
				GemCost:     10,
				Description: "Split light problems into solvable parts.",
			},
			{
				ItemID:      "stopwatch",
				Name:        "Precision Stopwatch",
				Type:        "tool",
				Rarity:      models.RarityCommon,
				Cost:        80,
				Description: "Shows elapsed time with millisecond accuracy.",
			},
			{
				ItemID:      "hint_token",
				Name:        "Hint Token",
				Type:        "consumable",
				Rarity:      models.RarityCommon,
				Cost:        25,
				Description: "Redeem for one extra hint.",
			},
			{
				ItemID:      "golden_pendulum",
				Name:        "Golden Pendulum",
				Type:        "cosmetic",
				Rarity:      models.RarityRare,
				Cost:        1000,
				GemCost:     30,
				Description: "A shiny pendulum for your profile.",
			},
		}
		for _, item := range defaultItems {
			if err := DB.Create(&item).Error; err != nil {
				logger.Error("创建默认商品失败",
					zap.String("item_id", item.ItemID),
					zap.Error(err),
				)
			}
		}
	}

	// 默认关卡
	DB.Model(&models.Level{}).Count(&count)
	if count == 0 {
		defaultLevels := []models.Level{
			{
				LevelID:       1,
				Title:         "Free Fall",
				Question:      "A ball is dropped from rest. How far does it fall in 2 seconds? (g = 10 m/s^2, answer in meters)",
				CorrectAnswer: "20",
				Hints:         models.StringList{"Use d = 1/2 * g * t^2", "t = 2, g = 10"},
				Explanation:   "d = 0.5 * 10 * 4 = 20 m.",
				Difficulty:    "easy",
				CoinsRewarded: 50,
				ExpectedTime:  45,
			},
			{
				LevelID:       2,
				Title:         "Constant Velocity",
				Question:      "A car travels at 20 m/s for 5 seconds. How far does it travel? (answer in meters)",
				CorrectAnswer: "100",
				Hints:         models.StringList{"Distance = speed * time"},
				Explanation:   "20 * 5 = 100 m.",
				Difficulty:    "easy",
				CoinsRewarded: 60,
				ExpectedTime:  40,
			},
			{
				LevelID:       3,
				Title:         "Newton's Second Law",
				Question:      "A 5 kg mass is pushed with a 20 N force. What is its acceleration? (answer in m/s^2)",
				CorrectAnswer: "4",
				Hints:         models.StringList{"F = m * a", "Solve for a"},
				Explanation:   "a = F / m = 20 / 5 = 4 m/s^2.",
				Difficulty:    "medium",
				CoinsRewarded: 100,
				ExpectedTime:  60,
			},
			{
				LevelID:       4,
				Title:         "Kinetic Energy",
				Question:      "What is the kinetic energy of a 2 kg object moving at 3 m/s? (answer in joules)",
				CorrectAnswer: "9",
				Hints:         models.StringList{"KE = 1/2 * m * v^2"},
				Explanation:   "KE = 0.5 * 2 * 9 = 9 J.",
				Difficulty:    "medium",
				CoinsRewarded: 120,
				ExpectedTime:  75,
			},
			{
				LevelID:       5,
				Title:         "Ohm's Law",
				Question:      "A 12 V battery drives a current through a 4 ohm resistor. What is the current? (answer in amperes)",
				CorrectAnswer: "3",
				Hints:         models.StringList{"V = I * R", "Rearrange for I"},
				Explanation:   "I = V / R = 12 / 4 = 3 A.",
				Difficulty:    "hard",
				CoinsRewarded: 200,
				ExpectedTime:  90,
			},
		}
		for _, level := range defaultLevels {
			if err := DB.Create(&level).Error; err != nil {
				logger.Error("创建默认关卡失败",
					zap.Int("level_id", level.LevelID),
					zap.Error(err),
				)
			}
		}
	}

	logger.Info("默认数据初始化完成")
	return nil
}

// DropAllTables 删除所有表（仅用于测试环境）
func DropAllTables() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	var tables []string
	if err := DB.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tables).Error; err != nil {
		return err
	}

	for _, table := range tables {
		if err := DB.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)).Error; err != nil {
			logger.Error("删除表失败", zap.String("table", table), zap.Error(err))
			return err
		}
	}

	logger.Info("所有表已删除")
	return nil
}
