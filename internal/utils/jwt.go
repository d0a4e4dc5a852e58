package utils

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType 令牌类型
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

var (
	// ErrInvalidToken 令牌无效、过期或签名错误
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongTokenType 令牌类型不匹配，例如用刷新令牌访问接口
	ErrWrongTokenType = errors.New("wrong token type")
)

// JWTClaims JWT声明
type JWTClaims struct {
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair 访问令牌和刷新令牌
type TokenPair struct {
	Access  string
	Refresh string
}

// JWTManager JWT管理器
type JWTManager struct {
	secretKey     []byte
	algorithm     jwt.SigningMethod
	accessExpire  time.Duration
	refreshExpire time.Duration
	now           func() time.Time
}

// NewJWTManager 创建JWT管理器
func NewJWTManager(secretKey string, algorithm string, accessExpire, refreshExpire time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secretKey),
		algorithm:     jwt.GetSigningMethod(algorithm),
		accessExpire:  accessExpire,
		refreshExpire: refreshExpire,
		now:           time.Now,
	}
}

// GenerateTokenPair 生成访问令牌和刷新令牌
func (j *JWTManager) GenerateTokenPair(userID uint, username string, isAdmin bool) (*TokenPair, error) {
	access, err := j.GenerateToken(AccessToken, userID, username, isAdmin)
	if err != nil {
		return nil, err
	}
	refresh, err := j.GenerateToken(RefreshToken, userID, username, isAdmin)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// GenerateToken 生成指定类型的Token
func (j *JWTManager) GenerateToken(tokenType TokenType, userID uint, username string, isAdmin bool) (string, error) {
	expire := j.accessExpire
	if tokenType == RefreshToken {
		expire = j.refreshExpire
	}

	now := j.now()
	claims := JWTClaims{
		UserID:    userID,
		Username:  username,
		IsAdmin:   isAdmin,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expire)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(j.algorithm, claims)
	return token.SignedString(j.secretKey)
}

// ValidateToken 验证Token并检查类型
func (j *JWTManager) ValidateToken(tokenString string, want TokenType) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != j.algorithm {
			return nil, errors.New("无效的签名算法")
		}
		return j.secretKey, nil
	}, jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != want {
		return nil, ErrWrongTokenType
	}
	if claims.Subject != strconv.FormatUint(uint64(claims.UserID), 10) {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
