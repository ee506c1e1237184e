package service

import (
	"context"
	"time"

	"github.com/wfunc/pulltab-game/internal/game/pulltab"
	"github.com/wfunc/pulltab-game/internal/models"
)

// AuthService 认证服务接口
type AuthService interface {
	// 注册登录
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, userID uint, token string) error
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)

	// 验证
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
	ValidateSession(ctx context.Context, sessionID string) (*models.UserSession, error)

	// 会话管理
	RevokeSession(ctx context.Context, sessionID string) error
	RevokeAllSessions(ctx context.Context, userID uint) error
}

// TicketService 彩票服务接口
type TicketService interface {
	// 购票与开奖
	PurchaseTicket(ctx context.Context, userID uint) (*PurchaseResult, error)
	RevealTab(ctx context.Context, userID, ticketID uint, tabIndex int) (*RevealResult, error)

	// 查询
	GetTicket(ctx context.Context, userID, ticketID uint) (*models.Ticket, error)
	GetUserTickets(ctx context.Context, userID uint, page, pageSize int) ([]*models.Ticket, int64, error)
	GetBoxStatus(ctx context.Context) (*BoxStatus, error)
	GetPlayerStats(ctx context.Context, userID uint) (*models.PlayerStats, error)
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
	Account  string `json:"account" binding:"required"` // 用户名/邮箱
	Password string `json:"password" binding:"required"`
	Device   string `json:"device"`
	IP       string `json:"ip"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	TokenType    string       `json:"token_type"`
}

// TokenClaims JWT Claims
type TokenClaims struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// PurchaseResult 购票结果
type PurchaseResult struct {
	Ticket    *models.Ticket `json:"ticket"`
	BoxID     uint           `json:"box_id"`
	Remaining int            `json:"remaining"` // 本箱剩余票数（购买后）
	NewBox    bool           `json:"new_box"`   // 是否因售罄开启了新箱
}

// RevealResult 刮开结果
type RevealResult struct {
	TicketID   uint                             `json:"ticket_id"`
	TabIndex   int                              `json:"tab_index"`
	Symbols    [pulltab.LineSize]pulltab.Symbol `json:"symbols"`
	IsWin      bool                             `json:"is_win"`
	Prize      int                              `json:"prize"` // 该连线奖金，未中为0
	AllOpened  bool                             `json:"all_opened"`
	TotalWin   int64                            `json:"total_win"` // 票面总奖金，购票时算定，不随刮开进度变化
}

// BoxStatus 当前奖箱状态，全部由单行奖箱记录派生
type BoxStatus struct {
	BoxID            uint           `json:"box_id"`
	TotalTickets     int            `json:"total_tickets"`
	RemainingTickets int            `json:"remaining_tickets"`
	SoldTickets      int            `json:"sold_tickets"`
	PercentSold      float64        `json:"percent_sold"`
	WinnersRemaining int            `json:"winners_remaining"`
	TierCounts       map[string]int `json:"tier_counts"`
	IsComplete       bool           `json:"is_complete"`
	StartedAt        time.Time      `json:"started_at"`
}
