package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"go_commission/logger"
	"go_commission/models"
	"go_commission/navigation"
	"go_commission/utils"
)

// 上下文中保存的认证信息键名
const (
	LocalMemberID   = "member_id"
	LocalMemberName = "member_name"
	LocalRole       = "member_role"
	LocalToken      = "token"
)

// AuthMiddleware 验证成员身份的中间件
// 1. 从Authorization头解析Bearer令牌并校验签名
// 2. 检查令牌是否存在于数据库中且未过期（登出或强制下线后令牌即失效）
// 3. 检查成员是否在职
// 认证成功后将成员信息存入请求上下文
func AuthMiddleware(db *gorm.DB, jwt *utils.JWTManager, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := BearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "未提供有效的认证令牌",
			})
		}

		claims, err := jwt.ParseToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "无效的认证令牌",
			})
		}

		// 令牌必须仍然存在于数据库
		var token models.MemberToken
		if err := db.Where("token = ?", tokenString).First(&token).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "认证令牌不存在",
				})
			}
			log.Errorw("验证认证令牌失败", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "验证认证令牌失败",
			})
		}

		// 即使JWT本身未过期，也需检查数据库中的过期时间
		if time.Now().After(token.ExpiredAt) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "认证令牌已过期",
			})
		}

		var member models.Member
		if err := db.Where("id = ? AND status = ?", claims.MemberID, models.MemberStatusActive).First(&member).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "成员不存在或已被禁用",
				})
			}
			log.Errorw("验证成员身份失败", "member_id", claims.MemberID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "验证成员身份失败",
			})
		}

		// 角色以数据库为准，令牌签发后角色可能已变更
		c.Locals(LocalMemberID, member.ID)
		c.Locals(LocalMemberName, member.Name)
		c.Locals(LocalRole, member.Role)
		c.Locals(LocalToken, tokenString)

		return c.Next()
	}
}

// BearerToken 从Authorization头提取令牌
func BearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(authHeader[len("Bearer "):])
	return token, token != ""
}

// RequirePermission 要求当前成员的角色拥有指定权限
// 必须放在 AuthMiddleware 之后
func RequirePermission(perm navigation.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !navigation.PermissionsFor(CurrentRole(c)).Has(perm) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "没有访问权限",
			})
		}
		return c.Next()
	}
}

// CurrentMemberID 返回当前请求的成员ID
func CurrentMemberID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(LocalMemberID).(uint)
	return id, ok && id != 0
}

// CurrentRole 返回当前请求的成员角色，未认证时为空
func CurrentRole(c *fiber.Ctx) navigation.Role {
	role, _ := c.Locals(LocalRole).(navigation.Role)
	return role
}
