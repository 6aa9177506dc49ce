package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/wfunc/physics-game/internal/errors"
	"github.com/wfunc/physics-game/internal/models"
	"github.com/wfunc/physics-game/internal/repository"
	"github.com/wfunc/physics-game/internal/utils"
	"go.uber.org/zap"
)

const (
	maxLoginAttempts = 5
	lockDuration     = 15 * time.Minute
	sessionLifetime  = 30 * 24 * time.Hour
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

// authService 认证服务实现
type authService struct {
	repos      *repository.Manager
	jwtManager *utils.JWTManager
	log        *zap.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(repos *repository.Manager, jwtManager *utils.JWTManager, log *zap.Logger) AuthService {
	return &authService{
		repos:      repos,
		jwtManager: jwtManager,
		log:        log,
	}
}

// Register 用户注册
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := s.validateRegisterRequest(req); err != nil {
		return nil, err
	}

	// 检查用户是否已存在
	if user, _ := s.repos.User.FindByUsername(ctx, req.Username); user != nil {
		return nil, apperrors.New(apperrors.ErrUserAlreadyExists, "用户名已存在")
	}
	if user, _ := s.repos.User.FindByEmail(ctx, req.Email); user != nil {
		return nil, apperrors.New(apperrors.ErrUserAlreadyExists, "邮箱已被使用")
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "密码加密失败")
	}

	sessionID, err := utils.GenerateSessionID()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "生成会话ID失败")
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Nickname: req.Nickname,
		Status:   "active",
		Level:    1,
	}
	if user.Nickname == "" {
		user.Nickname = req.Username
	}

	refreshToken := ""

	// 用户、认证信息和首个会话在同一事务内创建
	err = s.repos.Transaction(func(tx *repository.Manager) error {
		if err := tx.User.Create(ctx, user); err != nil {
			s.log.Error("创建用户失败", zap.Error(err), zap.String("username", req.Username))
			return apperrors.Wrap(err, apperrors.ErrDatabaseInsert)
		}

		auth := &models.UserAuth{
			UserID:   user.ID,
			Password: hashedPassword,
		}
		if err := tx.UserAuth.Create(ctx, auth); err != nil {
			s.log.Error("创建认证信息失败", zap.Error(err), zap.Uint("user_id", user.ID))
			return apperrors.Wrap(err, apperrors.ErrDatabaseInsert)
		}

		token, err := s.jwtManager.GenerateRefreshToken(user.ID, sessionID)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrUnknown, "生成刷新令牌失败")
		}
		refreshToken = token

		session := &models.UserSession{
			UserID:       user.ID,
			SessionID:    sessionID,
			RefreshToken: refreshToken,
			IP:           req.IP,
			ExpiredAt:    time.Now().Add(sessionLifetime),
		}
		if err := tx.UserSession.Create(ctx, session); err != nil {
			s.log.Error("创建会话失败", zap.Error(err), zap.Uint("user_id", user.ID))
			return apperrors.Wrap(err, apperrors.ErrDatabaseInsert)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "生成访问令牌失败")
	}

	s.log.Info("用户注册成功", zap.Uint("user_id", user.ID), zap.String("username", user.Username))

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.GetTokenExpiry("access").Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// Login 用户登录
// 密码连续错误会锁定账户一段时间。
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	// 支持用户名或邮箱登录
	var user *models.User
	var err error
	if strings.Contains(req.Account, "@") {
		user, err = s.repos.User.FindByEmail(ctx, req.Account)
	} else {
		user, err = s.repos.User.FindByUsername(ctx, req.Account)
	}
	if err != nil || user == nil {
		s.log.Warn("登录失败: 用户不存在", zap.String("account", req.Account))
		return nil, apperrors.New(apperrors.ErrPasswordIncorrect)
	}

	if user.Status == "banned" || user.Status == "frozen" {
		return nil, apperrors.New(apperrors.ErrAccountLocked, "账户状态异常")
	}

	auth, err := s.repos.UserAuth.FindByUserID(ctx, user.ID)
	if err != nil {
		s.log.Error("获取认证信息失败", zap.Error(err), zap.Uint("user_id", user.ID))
		return nil, apperrors.New(apperrors.ErrPasswordIncorrect)
	}

	if auth.LockedUntil != nil && time.Now().Before(*auth.LockedUntil) {
		return nil, apperrors.New(apperrors.ErrAccountLocked)
	}

	valid, err := utils.VerifyPassword(req.Password, auth.Password)
	if err != nil || !valid {
		attempts := auth.LoginAttempts + 1
		_ = s.repos.UserAuth.UpdateLoginAttempts(ctx, user.ID, attempts)
		if attempts >= maxLoginAttempts {
			until := time.Now().Add(lockDuration)
			_ = s.repos.UserAuth.LockAccount(ctx, user.ID, until)
			s.log.Warn("账户因连续登录失败被锁定",
				zap.Uint("user_id", user.ID),
				zap.Int("attempts", attempts),
			)
			return nil, apperrors.New(apperrors.ErrAccountLocked)
		}
		s.log.Warn("登录失败: 密码错误", zap.Uint("user_id", user.ID), zap.Int("attempts", attempts))
		return nil, apperrors.New(apperrors.ErrPasswordIncorrect)
	}

	sessionID, err := utils.GenerateSessionID()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "生成会话ID失败")
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "生成刷新令牌失败")
	}

	session := &models.UserSession{
		UserID:       user.ID,
		SessionID:    sessionID,
		RefreshToken: refreshToken,
		Device:       req.Device,
		IP:           req.IP,
		ExpiredAt:    time.Now().Add(sessionLifetime),
	}
	if err := s.repos.UserSession.Create(ctx, session); err != nil {
		s.log.Error("创建会话失败", zap.Error(err), zap.Uint("user_id", user.ID))
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert)
	}

	_ = s.repos.UserAuth.ResetLoginAttempts(ctx, user.ID)
	_ = s.repos.User.UpdateLastLogin(ctx, user.ID, req.IP)

	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "生成访问令牌失败")
	}

	s.log.Info("用户登录成功", zap.Uint("user_id", user.ID), zap.String("username", user.Username))

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.GetTokenExpiry("access").Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// Logout 用户登出，吊销当前会话
func (s *authService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.jwtManager.ValidateToken(accessToken)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrTokenInvalid)
	}

	if err := s.repos.UserSession.Revoke(ctx, claims.SessionID); err != nil {
		s.log.Error("吊销会话失败", zap.Error(err), zap.String("session_id", claims.SessionID))
		return apperrors.Wrap(err, apperrors.ErrDatabaseUpdate)
	}

	s.log.Info("用户登出", zap.Uint("user_id", claims.UserID))
	return nil
}

// RefreshToken 用刷新令牌换取新的访问令牌
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTokenInvalid)
	}
	if claims.TokenType != "refresh" {
		return nil, apperrors.New(apperrors.ErrTokenInvalid, "不是刷新令牌")
	}

	// 会话必须仍然有效
	session, err := s.repos.UserSession.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repos.User.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username, session.SessionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "生成访问令牌失败")
	}

	s.log.Info("令牌刷新成功", zap.Uint("user_id", user.ID))

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.GetTokenExpiry("access").Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// ValidateToken 验证访问令牌并确认会话有效
func (s *authService) ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTokenInvalid)
	}
	if claims.TokenType != "access" {
		return nil, apperrors.New(apperrors.ErrTokenInvalid, "不是访问令牌")
	}

	if _, err := s.repos.UserSession.FindBySessionID(ctx, claims.SessionID); err != nil {
		return nil, err
	}
	return claims, nil
}

// GetProfile 获取玩家资料
func (s *authService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	return s.repos.User.FindByID(ctx, userID)
}

// GetActiveSessions 获取用户的有效会话
func (s *authService) GetActiveSessions(ctx context.Context, userID uint) ([]*models.UserSession, error) {
	return s.repos.UserSession.FindActiveByUserID(ctx, userID)
}

// RevokeAllSessions 吊销用户的所有会话
func (s *authService) RevokeAllSessions(ctx context.Context, userID uint) error {
	if err := s.repos.UserSession.RevokeByUserID(ctx, userID); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseUpdate)
	}
	s.log.Info("已吊销用户全部会话", zap.Uint("user_id", userID))
	return nil
}

// validateRegisterRequest 注册参数校验
func (s *authService) validateRegisterRequest(req *RegisterRequest) error {
	if !usernamePattern.MatchString(req.Username) {
		return apperrors.New(apperrors.ErrInvalidParam, "用户名只能包含字母、数字和下划线，长度3-20")
	}
	if len(req.Password) < 6 {
		return apperrors.New(apperrors.ErrInvalidParam, "密码长度不能少于6位")
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		return apperrors.New(apperrors.ErrInvalidParam, "两次输入的密码不一致")
	}
	return nil
}
