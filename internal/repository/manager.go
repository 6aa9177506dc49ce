package repository

import (
	"gorm.io/gorm"
)

// Manager 仓储管理器，集中持有所有仓储实例
type Manager struct {
	db *gorm.DB

	User        UserRepository
	UserAuth    UserAuthRepository
	UserSession UserSessionRepository
	Level       LevelRepository
	Submission  SubmissionRepository
	Inventory   InventoryRepository
	StoreItem   StoreItemRepository
	LLMQuery    LLMQueryRepository
}

// NewManager 创建仓储管理器
func NewManager(db *gorm.DB) *Manager {
	return &Manager{
		db:          db,
		User:        NewUserRepository(db),
		UserAuth:    NewUserAuthRepository(db),
		UserSession: NewUserSessionRepository(db),
		Level:       NewLevelRepository(db),
		Submission:  NewSubmissionRepository(db),
		Inventory:   NewInventoryRepository(db),
		StoreItem:   NewStoreItemRepository(db),
		LLMQuery:    NewLLMQueryRepository(db),
	}
}

// DB 获取数据库实例
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Transaction 在事务中执行，回调内通过新Manager访问各仓储
func (m *Manager) Transaction(fn func(tx *Manager) error) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewManager(tx))
	})
}
