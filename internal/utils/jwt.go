package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	tokenIssuer = "pulltab-game"
)

var (
	ErrInvalidToken = errors.New("令牌无效")
	ErrExpiredToken = errors.New("令牌已过期")
)

// JWTClaims 访问令牌携带完整身份，刷新令牌只带UserID和SessionID
type JWTClaims struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	SessionID string `json:"session_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTManager 签发和校验HS256令牌
type JWTManager struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewJWTManager(secret string, accessExpiry, refreshExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:        []byte(secret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// GenerateAccessToken 签发访问令牌
func (j *JWTManager) GenerateAccessToken(userID uint, username, email, role, sessionID string) (string, error) {
	claims := &JWTClaims{
		UserID:    userID,
		Username:  username,
		Email:     email,
		Role:      role,
		SessionID: sessionID,
		TokenType: TokenTypeAccess,
	}
	return j.sign(claims, username, j.accessExpiry)
}

// GenerateRefreshToken 签发刷新令牌
func (j *JWTManager) GenerateRefreshToken(userID uint, sessionID string) (string, error) {
	claims := &JWTClaims{
		UserID:    userID,
		SessionID: sessionID,
		TokenType: TokenTypeRefresh,
	}
	return j.sign(claims, "", j.refreshExpiry)
}

func (j *JWTManager) sign(claims *JWTClaims, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

// ValidateToken 校验签名、有效期和签发者
func (j *JWTManager) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{},
		func(t *jwt.Token) (interface{}, error) { return j.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GetTokenExpiry 按令牌类型返回有效期
func (j *JWTManager) GetTokenExpiry(tokenType string) time.Duration {
	if tokenType == TokenTypeRefresh {
		return j.refreshExpiry
	}
	return j.accessExpiry
}
