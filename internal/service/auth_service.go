package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/wfunc/pulltab-game/internal/models"
	"github.com/wfunc/pulltab-game/internal/repository"
	"github.com/wfunc/pulltab-game/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrUserExists         = errors.New("用户已存在")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrUserBanned         = errors.New("用户已被封禁")
	ErrSessionNotFound    = errors.New("会话不存在")
	ErrInvalidToken       = errors.New("无效的令牌")
	ErrTokenExpired       = errors.New("令牌已过期")
)

// authService 认证服务实现
type authService struct {
	db          *gorm.DB
	userRepo    repository.UserRepository
	authRepo    repository.UserAuthRepository
	sessionRepo repository.UserSessionRepository
	statsRepo   repository.PlayerStatsRepository
	jwtManager  *utils.JWTManager
	log         *zap.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	authRepo repository.UserAuthRepository,
	sessionRepo repository.UserSessionRepository,
	statsRepo repository.PlayerStatsRepository,
	jwtManager *utils.JWTManager,
	log *zap.Logger,
) AuthService {
	return &authService{
		db:          db,
		userRepo:    userRepo,
		authRepo:    authRepo,
		sessionRepo: sessionRepo,
		statsRepo:   statsRepo,
		jwtManager:  jwtManager,
		log:         log,
	}
}

// Register 用户注册
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	// 验证输入
	if err := s.validateRegisterRequest(req); err != nil {
		return nil, err
	}

	// 检查用户是否已存在
	if user, _ := s.userRepo.FindByUsername(ctx, req.Username); user != nil {
		return nil, fmt.Errorf("用户名已存在")
	}
	if user, _ := s.userRepo.FindByEmail(ctx, req.Email); user != nil {
		return nil, fmt.Errorf("邮箱已被使用")
	}

	// 开始事务
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// 创建用户
	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Nickname: req.Nickname,
		Status:   "active",
	}

	if user.Nickname == "" {
		user.Nickname = req.Username
	}

	if err := s.userRepo.WithTx(tx).(repository.UserRepository).Create(ctx, user); err != nil {
		tx.Rollback()
		s.log.Error("Failed to create user", zap.Error(err))
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}

	// 创建认证信息
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("密码加密失败: %w", err)
	}

	auth := &models.UserAuth{
		UserID:   user.ID,
		Password: hashedPassword,
	}

	if err := s.authRepo.WithTx(tx).(repository.UserAuthRepository).Create(ctx, auth); err != nil {
		tx.Rollback()
		s.log.Error("Failed to create auth", zap.Error(err))
		return nil, fmt.Errorf("创建认证信息失败: %w", err)
	}

	// 创建玩家统计
	stats := &models.PlayerStats{UserID: user.ID}
	if err := s.statsRepo.WithTx(tx).(repository.PlayerStatsRepository).Create(ctx, stats); err != nil {
		tx.Rollback()
		s.log.Error("Failed to create player stats", zap.Error(err))
		return nil, fmt.Errorf("创建玩家统计失败: %w", err)
	}

	// 创建会话
	sessionID, err := utils.GenerateSessionID()
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("生成会话ID失败: %w", err)
	}

	session := &models.UserSession{
		UserID:    user.ID,
		SessionID: sessionID,
		Token:     sessionID,
		IP:        req.IP,
		ExpireAt:  time.Now().Add(30 * 24 * time.Hour),
	}

	if err := s.sessionRepo.WithTx(tx).(repository.UserSessionRepository).Create(ctx, session); err != nil {
		tx.Rollback()
		s.log.Error("Failed to create session", zap.Error(err))
		return nil, fmt.Errorf("创建会话失败: %w", err)
	}

	// 提交事务
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("提交事务失败: %w", err)
	}

	// 生成JWT令牌
	accessToken, err := s.jwtManager.GenerateAccessToken(
		user.ID, user.Username, user.Email, "user", sessionID)
	if err != nil {
		return nil, fmt.Errorf("生成访问令牌失败: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("生成刷新令牌失败: %w", err)
	}

	s.log.Info("User registered successfully", zap.Uint("userID", user.ID), zap.String("username", user.Username))

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.GetTokenExpiry("access").Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// Login 用户登录
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	// 查找用户（支持用户名、邮箱登录）
	var user *models.User
	var err error

	if strings.Contains(req.Account, "@") {
		user, err = s.userRepo.FindByEmail(ctx, req.Account)
	} else {
		user, err = s.userRepo.FindByUsername(ctx, req.Account)
	}

	if err != nil || user == nil {
		s.log.Warn("Login failed: user not found", zap.String("account", req.Account))
		return nil, ErrInvalidCredentials
	}

	// 检查用户状态
	if user.Status == "banned" {
		return nil, ErrUserBanned
	}

	// 获取认证信息
	auth, err := s.authRepo.FindByUserID(ctx, user.ID)
	if err != nil {
		s.log.Error("Failed to get auth info", zap.Error(err), zap.Uint("userID", user.ID))
		return nil, ErrInvalidCredentials
	}

	// 账户锁定检查
	if auth.IsLocked() {
		return nil, ErrUserBanned
	}

	// 验证密码
	valid, err := utils.VerifyPassword(req.Password, auth.Password)
	if err != nil || !valid {
		s.log.Warn("Login failed: invalid password", zap.Uint("userID", user.ID))
		// 记录失败次数
		_ = s.authRepo.UpdateLoginAttempts(ctx, user.ID, auth.LoginAttempts+1)
		return nil, ErrInvalidCredentials
	}

	// 创建会话
	sessionID, err := utils.GenerateSessionID()
	if err != nil {
		return nil, fmt.Errorf("生成会话ID失败: %w", err)
	}

	session := &models.UserSession{
		UserID:    user.ID,
		SessionID: sessionID,
		Token:     sessionID,
		IP:        req.IP,
		UserAgent: req.Device,
		ExpireAt:  time.Now().Add(30 * 24 * time.Hour),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		s.log.Error("Failed to create session", zap.Error(err))
		return nil, fmt.Errorf("创建会话失败: %w", err)
	}

	// 更新登录信息
	user.UpdateLoginInfo(req.IP)
	_ = s.userRepo.Update(ctx, user)

	// 重置失败次数
	_ = s.authRepo.ResetLoginAttempts(ctx, user.ID)

	// 累计游戏会话次数，失败不阻断登录
	if err := s.statsRepo.IncrementSessions(ctx, user.ID); err != nil {
		s.log.Warn("累计会话次数失败", zap.Uint("userID", user.ID), zap.Error(err))
	}

	// 生成JWT令牌
	accessToken, err := s.jwtManager.GenerateAccessToken(
		user.ID, user.Username, user.Email, "user", sessionID)
	if err != nil {
		return nil, fmt.Errorf("生成访问令牌失败: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("生成刷新令牌失败: %w", err)
	}

	s.log.Info("User logged in successfully", zap.Uint("userID", user.ID), zap.String("username", user.Username))

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.GetTokenExpiry("access").Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// Logout 用户登出
func (s *authService) Logout(ctx context.Context, userID uint, token string) error {
	// 验证令牌
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return ErrInvalidToken
	}

	// 删除会话
	if err := s.sessionRepo.Delete(ctx, claims.SessionID); err != nil {
		s.log.Error("Failed to delete session", zap.Error(err), zap.String("sessionID", claims.SessionID))
		return fmt.Errorf("删除会话失败: %w", err)
	}

	s.log.Info("User logged out successfully", zap.Uint("userID", userID))
	return nil
}

// RefreshToken 刷新令牌
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	// 验证刷新令牌
	claims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != "refresh" {
		return nil, errors.New("不是刷新令牌")
	}

	// 检查会话是否有效
	session, err := s.sessionRepo.FindByToken(ctx, claims.SessionID)
	if err != nil || session == nil {
		return nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		return nil, ErrTokenExpired
	}

	// 获取用户信息
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	// 生成新的访问令牌
	accessToken, err := s.jwtManager.GenerateAccessToken(
		user.ID, user.Username, user.Email, "user", claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("生成访问令牌失败: %w", err)
	}

	s.log.Info("Token refreshed successfully", zap.Uint("userID", user.ID))

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.GetTokenExpiry("access").Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// ValidateToken 验证令牌
func (s *authService) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	// 检查会话是否有效
	session, err := s.sessionRepo.FindByToken(ctx, claims.SessionID)
	if err != nil || session == nil {
		return nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		return nil, ErrTokenExpired
	}

	return &TokenClaims{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Email:     claims.Email,
		Role:      claims.Role,
		SessionID: claims.SessionID,
		IssuedAt:  claims.IssuedAt.Unix(),
		ExpiresAt: claims.ExpiresAt.Unix(),
	}, nil
}

// ValidateSession 验证会话
func (s *authService) ValidateSession(ctx context.Context, sessionID string) (*models.UserSession, error) {
	session, err := s.sessionRepo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.IsExpired() {
		return nil, ErrTokenExpired
	}

	return session, nil
}

// RevokeSession 撤销会话
func (s *authService) RevokeSession(ctx context.Context, sessionID string) error {
	return s.sessionRepo.Delete(ctx, sessionID)
}

// RevokeAllSessions 撤销所有会话
func (s *authService) RevokeAllSessions(ctx context.Context, userID uint) error {
	return s.sessionRepo.DeleteByUserID(ctx, userID)
}

// validateRegisterRequest 验证注册请求
func (s *authService) validateRegisterRequest(req *RegisterRequest) error {
	// 验证用户名
	if len(req.Username) < 3 || len(req.Username) > 20 {
		return errors.New("用户名长度必须在3-20个字符之间")
	}
	if !regexp.MustCompile(`^[a-zA-Z0-9_]+$`).MatchString(req.Username) {
		return errors.New("用户名只能包含字母、数字和下划线")
	}

	// 验证邮箱
	if !regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`).MatchString(req.Email) {
		return errors.New("邮箱格式不正确")
	}

	// 验证密码
	if len(req.Password) < 6 {
		return errors.New("密码长度至少6个字符")
	}

	if req.Password != req.ConfirmPassword {
		return errors.New("两次输入的密码不一致")
	}

	return nil
}
