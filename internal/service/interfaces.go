package service

import (
	"context"

	"github.com/wfunc/physics-game/internal/game"
	"github.com/wfunc/physics-game/internal/models"
	"github.com/wfunc/physics-game/internal/utils"
)

// AuthService 认证服务接口
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, accessToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)
	ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error)
	GetProfile(ctx context.Context, userID uint) (*models.User, error)

	// 会话管理
	GetActiveSessions(ctx context.Context, userID uint) ([]*models.UserSession, error)
	RevokeAllSessions(ctx context.Context, userID uint) error
}

// LevelService 关卡服务接口
type LevelService interface {
	ListLevels(ctx context.Context, userID uint) ([]*LevelView, error)
	GetLevel(ctx context.Context, userID uint, levelID int) (*LevelDetail, error)
	SubmitAnswer(ctx context.Context, userID uint, req *SubmitRequest) (*SubmitResult, error)
	ListSubmissions(ctx context.Context, userID uint, page, pageSize int) ([]*models.Submission, int64, error)
}

// ShopService 商店服务接口
type ShopService interface {
	ListItems(ctx context.Context) ([]*models.StoreItem, error)
	Buy(ctx context.Context, userID uint, itemID string) (*game.Outcome, error)
	Sell(ctx context.Context, userID uint, itemID string) (*SellResult, error)
	GetInventory(ctx context.Context, userID uint) (*models.Inventory, error)
}

// StatsService 统计服务接口
type StatsService interface {
	Leaderboard(ctx context.Context, limit int) ([]*LeaderboardEntry, error)
	PlayerStats(ctx context.Context, userID uint) (*PlayerStats, error)
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username        string `json:"username" binding:"required,min=3,max=20"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
	Nickname        string `json:"nickname"`
	IP              string `json:"-"` // 客户端IP，由handler设置
}

// LoginRequest 登录请求
type LoginRequest struct {
	Account  string `json:"account" binding:"required"` // 用户名或邮箱
	Password string `json:"password" binding:"required"`
	Device   string `json:"device"`
	IP       string `json:"-"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	TokenType    string       `json:"token_type"`
}

// LevelView 关卡列表项（不含题面与答案）
type LevelView struct {
	LevelID       int     `json:"level_id"`
	Title         string  `json:"title"`
	Difficulty    string  `json:"difficulty"`
	CoinsRewarded int64   `json:"coins_rewarded"`
	ExpectedTime  float64 `json:"expected_time"`
	Unlocked      bool    `json:"unlocked"`
	Completed     bool    `json:"completed"`
}

// LevelDetail 关卡详情（对玩家隐藏正确答案）
type LevelDetail struct {
	LevelID       int               `json:"level_id"`
	Title         string            `json:"title"`
	Question      string            `json:"question"`
	Hints         models.StringList `json:"hints"`
	Difficulty    string            `json:"difficulty"`
	CoinsRewarded int64             `json:"coins_rewarded"`
	ExpectedTime  float64           `json:"expected_time"`
}

// SubmitRequest 答题请求
type SubmitRequest struct {
	LevelID   int     `json:"level_id" binding:"required"`
	Answer    string  `json:"answer" binding:"required"`
	TimeTaken float64 `json:"time_taken"`
	HintsUsed int     `json:"hints_used"`
}

// SubmitResult 答题结果
type SubmitResult struct {
	Correct     bool     `json:"correct"`
	Messages    []string `json:"messages"`
	Explanation string   `json:"explanation,omitempty"` // 仅答对时返回
}

// SellResult 回售结果
type SellResult struct {
	ItemID string `json:"item_id"`
	Refund int64  `json:"refund"`
	Coins  int64  `json:"coins"` // 回售后余额
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Level    int    `json:"level"`
	Coins    int64  `json:"coins"`
}

// PlayerStats 玩家统计
type PlayerStats struct {
	UserID             uint              `json:"user_id"`
	Username           string            `json:"username"`
	Level              int               `json:"level"`
	Coins              int64             `json:"coins"`
	Gems               int64             `json:"gems"`
	XP                 int64             `json:"xp"`
	Debt               int64             `json:"debt"`
	LoginStreak        int               `json:"login_streak"`
	CorrectSubmissions int64             `json:"correct_submissions"`
	Achievements       models.StringList `json:"achievements"`
	Tools              models.ToolList   `json:"tools"`

	// 当前状态下各难度的奖励倍率预览
	RewardMultipliers map[string]float64 `json:"reward_multipliers"`
	BonusActive       bool               `json:"bonus_active"`
}
