package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"go_commission/navigation"
)

// ErrInvalidToken 令牌无效
var ErrInvalidToken = errors.New("无效的令牌")

// MemberClaims 定义JWT令牌的声明结构
// 包含成员的身份信息和标准JWT声明
type MemberClaims struct {
	MemberID             uint            `json:"member_id"` // 成员ID，用于身份识别
	Username             string          `json:"username"`  // 用户名，用于日志和审计
	Role                 navigation.Role `json:"role"`      // 角色，用于权限判断
	jwt.RegisteredClaims                 // 嵌入标准JWT声明（如过期时间、签发时间等）
}

// JWTManager 负责签发和校验JWT令牌
type JWTManager struct {
	secret []byte
	now    func() time.Time
}

// NewJWTManager 创建令牌管理器
// secret为空时生成随机密钥（仅用于开发环境，重启后已签发的令牌全部失效）
func NewJWTManager(secret string) *JWTManager {
	if secret == "" {
		log.Println("警告: JWT_SECRET环境变量未设置，将使用随机生成的密钥（仅用于开发环境）")
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err != nil {
			log.Printf("生成随机密钥失败: %v，将使用备用密钥", err)
			return &JWTManager{secret: []byte("go_commission_jwt_secret_for_development_only"), now: time.Now}
		}
		secret = base64.StdEncoding.EncodeToString(randomKey)
	}

	if len(secret) < 16 {
		log.Println("警告: JWT密钥长度不足，建议使用至少32字符的密钥")
	}

	return &JWTManager{secret: []byte(secret), now: time.Now}
}

// GenerateToken 生成JWT令牌
// 参数:
//   - memberID: 成员的唯一标识符
//   - username: 成员的用户名
//   - role: 成员角色
//   - duration: 令牌的有效期限
func (m *JWTManager) GenerateToken(memberID uint, username string, role navigation.Role, duration time.Duration) (string, error) {
	now := m.now()
	claims := MemberClaims{
		MemberID: memberID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	// 使用HS256算法签名
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken 解析并验证JWT令牌
func (m *JWTManager) ParseToken(tokenString string) (*MemberClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &MemberClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("无效的签名方法")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*MemberClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
