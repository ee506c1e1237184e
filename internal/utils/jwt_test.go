package utils

import (
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
)

type JWTTestSuite struct {
	suite.Suite
	manager *JWTManager
}

func (suite *JWTTestSuite) SetupTest() {
	suite.manager = NewJWTManager("test-secret-key", time.Hour, 7*24*time.Hour)
}

func (suite *JWTTestSuite) TestAccessTokenRoundTrip() {
	token, err := suite.manager.GenerateAccessToken(42, "player1", "p1@example.com", "user", "sess-abc")
	suite.NoError(err)
	suite.NotEmpty(token)

	claims, err := suite.manager.ValidateToken(token)
	suite.NoError(err)
	suite.Equal(uint(42), claims.UserID)
	suite.Equal("player1", claims.Username)
	suite.Equal("p1@example.com", claims.Email)
	suite.Equal("user", claims.Role)
	suite.Equal("sess-abc", claims.SessionID)
	suite.Equal(TokenTypeAccess, claims.TokenType)
	suite.Equal("pulltab-game", claims.Issuer)
	suite.Equal("player1", claims.Subject)
}

// 刷新令牌只携带UserID和SessionID
func (suite *JWTTestSuite) TestRefreshTokenClaims() {
	token, err := suite.manager.GenerateRefreshToken(42, "sess-abc")
	suite.NoError(err)

	claims, err := suite.manager.ValidateToken(token)
	suite.NoError(err)
	suite.Equal(uint(42), claims.UserID)
	suite.Equal("sess-abc", claims.SessionID)
	suite.Equal(TokenTypeRefresh, claims.TokenType)
	suite.Empty(claims.Username)
	suite.Empty(claims.Email)
}

func (suite *JWTTestSuite) TestValidateRejectsGarbage() {
	for _, bad := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := suite.manager.ValidateToken(bad)
		suite.ErrorIs(err, ErrInvalidToken)
	}
}

func (suite *JWTTestSuite) TestValidateRejectsWrongSecret() {
	other := NewJWTManager("different-secret", time.Hour, time.Hour)
	token, err := other.GenerateAccessToken(1, "u", "e", "user", "s")
	suite.NoError(err)

	_, err = suite.manager.ValidateToken(token)
	suite.ErrorIs(err, ErrInvalidToken)
}

func (suite *JWTTestSuite) TestExpiredToken() {
	short := NewJWTManager("test-secret-key", -time.Minute, time.Hour)
	token, err := short.GenerateAccessToken(1, "u", "e", "user", "s")
	suite.NoError(err)

	_, err = short.ValidateToken(token)
	suite.ErrorIs(err, ErrExpiredToken)
}

// 签名算法被篡改为none时拒绝
func (suite *JWTTestSuite) TestRejectNoneAlgorithm() {
	claims := &JWTClaims{
		UserID:    1,
		SessionID: "s",
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "pulltab-game",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	suite.NoError(err)

	_, err = suite.manager.ValidateToken(token)
	suite.ErrorIs(err, ErrInvalidToken)
}

func (suite *JWTTestSuite) TestRejectWrongIssuer() {
	claims := &JWTClaims{
		UserID:    1,
		SessionID: "s",
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte("test-secret-key"))
	suite.NoError(err)

	_, err = suite.manager.ValidateToken(token)
	suite.ErrorIs(err, ErrInvalidToken)
}

func (suite *JWTTestSuite) TestGetTokenExpiry() {
	suite.Equal(time.Hour, suite.manager.GetTokenExpiry(TokenTypeAccess))
	suite.Equal(7*24*time.Hour, suite.manager.GetTokenExpiry(TokenTypeRefresh))
	suite.Equal(time.Hour, suite.manager.GetTokenExpiry("unknown"))
}

func (suite *JWTTestSuite) TestConcurrentGeneration() {
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			token, err := suite.manager.GenerateAccessToken(id, "u", "e", "user", "s")
			if err != nil {
				errs <- err
				return
			}
			if _, err := suite.manager.ValidateToken(token); err != nil {
				errs <- err
			}
		}(uint(i + 1))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		suite.NoError(err)
	}
}

func TestJWTSuite(t *testing.T) {
	suite.Run(t, new(JWTTestSuite))
}
