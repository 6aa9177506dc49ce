package models

import (
	"time"
)

// 用户标记与权限常量
const (
	FlagVIP            = "vip"
	FlagEarlySupporter = "early_supporter"
	FlagBetaTester     = "beta_tester"

	PermSkipAny   = "skip_any"
	PermAllowLoan = "allow_loan"
	PermAdmin     = "admin"

	AchievementSeasoned = "seasoned"
)

// User 玩家基础信息表
// 进度与经济字段只允许通过事件引擎或对应服务修改，
// 引擎内的读-改-写始终在用户锁保护下进行。
type User struct {
	BaseModel
	Username     string      `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email        string      `gorm:"uniqueIndex;size:100" json:"email"`
	Nickname     string      `gorm:"size:100" json:"nickname"`
	Status       string      `gorm:"size:20;default:'active'" json:"status"` // active, frozen, banned
	Level        int         `gorm:"default:1" json:"level"`                 // 当前待通过的关卡号
	Coins        int64       `gorm:"default:0" json:"coins"`
	Gems         int64       `gorm:"default:0" json:"gems"`
	XP           int64       `gorm:"column:xp;default:0" json:"xp"`
	Debt         int64       `gorm:"default:0" json:"debt"` // 小额贷欠款
	LoginStreak  LoginStreak `gorm:"embedded;embeddedPrefix:streak_" json:"login_streak"`
	Flags        StringList  `gorm:"type:json" json:"flags"`
	Achievements StringList  `gorm:"type:json" json:"achievements"`
	Permissions  StringList  `gorm:"type:json" json:"permissions"`
	LastLoginAt  *time.Time  `json:"last_login_at,omitempty"`
	LastLoginIP  string      `gorm:"size:50" json:"last_login_ip"`

	// 关联（注意：Inventory 不直接嵌入，避免循环依赖）
	Auth     UserAuth      `gorm:"foreignKey:UserID" json:"-"`
	Sessions []UserSession `gorm:"foreignKey:UserID" json:"-"`
}

// LoginStreak 连续登录状态
type LoginStreak struct {
	LastDate string `gorm:"size:10" json:"last_date"` // YYYY-MM-DD
	Count    int    `gorm:"default:0" json:"count"`
}

// HasFlag 判断玩家是否带有指定标记
func (u *User) HasFlag(flag string) bool {
	return u.Flags.Contains(flag)
}

// HasPermission 判断玩家是否持有指定权限
func (u *User) HasPermission(perm string) bool {
	return u.Permissions.Contains(perm)
}

// HasAchievement 判断成就是否已解锁
func (u *User) HasAchievement(id string) bool {
	return u.Achievements.Contains(id)
}

// UserAuth 用户认证信息表
type UserAuth struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	Password      string     `gorm:"size:255;not null" json:"-"`
	LoginAttempts int        `gorm:"default:0" json:"login_attempts"`
	LockedUntil   *time.Time `json:"locked_until,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// UserSession 用户会话表
type UserSession struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"not null;index" json:"user_id"`
	SessionID    string     `gorm:"uniqueIndex;size:64;not null" json:"session_id"`
	RefreshToken string     `gorm:"size:500" json:"-"`
	Device       string     `gorm:"size:255" json:"device"`
	IP           string     `gorm:"size:50" json:"ip"`
	ExpiredAt    time.Time  `json:"expired_at"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsActive 会话是否仍然有效
func (s *UserSession) IsActive(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiredAt)
}
