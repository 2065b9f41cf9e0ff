package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"go_commission/logger"
	"go_commission/middleware"
	"go_commission/models"
	"go_commission/utils"
)

// TokenTTL 登录令牌有效期
const TokenTTL = 24 * time.Hour

// AuthHandler 登录与会话管理
type AuthHandler struct {
	db      *gorm.DB
	jwt     *utils.JWTManager
	limiter *utils.LoginLimiter
	log     *logger.Logger
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(db *gorm.DB, jwt *utils.JWTManager, limiter *utils.LoginLimiter, log *logger.Logger) *AuthHandler {
	return &AuthHandler{db: db, jwt: jwt, limiter: limiter, log: log}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login 成员登录
// 处理流程:
//  1. 检查登录失败次数限制
//  2. 校验用户名、密码和账号状态
//  3. 签发令牌并记录登录设备
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	if status := h.limiter.Check(req.Username); status.Locked {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":   "登录尝试次数过多，账号已被临时锁定",
			"minutes": status.Minutes(),
		})
	}

	var member models.Member
	if err := h.db.Where("username = ?", req.Username).First(&member).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			h.log.Errorw("查询成员失败", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "登录失败，请稍后重试",
			})
		}
		// 不泄露用户是否存在，统一返回用户名或密码错误
		return h.loginFailure(c, req.Username, "用户名不存在")
	}

	if !member.CheckPassword(req.Password) {
		return h.loginFailure(c, req.Username, "密码错误")
	}

	if !member.IsActive() {
		h.log.Infow("登录失败，账号状态非在职", "username", req.Username, "status", member.Status)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "账号已被禁用，请联系管理员",
		})
	}

	h.limiter.Succeed(req.Username)

	token, expireTime, err := h.issueToken(c, &member, c.Get(fiber.HeaderUserAgent))
	if err != nil {
		h.log.Errorw("签发令牌失败", "member_id", member.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "登录失败，请稍后重试",
		})
	}

	now := time.Now()
	if err := h.db.Model(&member).Update("last_login_at", now).Error; err != nil {
		h.log.Warnw("更新最后登录时间失败", "member_id", member.ID, "error", err)
	}

	h.log.Infow("成员登录成功", "member_id", member.ID, "username", member.Username)

	return c.JSON(fiber.Map{
		"message":    "登录成功",
		"token":      token,
		"expires_at": expireTime.Unix(),
		"data": fiber.Map{
			"id":           member.ID,
			"username":     member.Username,
			"name":         member.Name,
			"role":         member.Role,
			"career_level": member.CareerLevel,
		},
	})
}

// loginFailure 记录失败的登录尝试并返回统一的错误信息
func (h *AuthHandler) loginFailure(c *fiber.Ctx, username, reason string) error {
	status := h.limiter.Fail(username)
	h.log.Infow("登录失败", "reason", reason, "username", username, "locked", status.Locked)

	if status.Locked {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "登录尝试次数过多，账号已被临时锁定",
			"minutes": status.Minutes(),
		})
	}
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":              "用户名或密码错误",
		"remaining_attempts": status.RemainingAttempts,
	})
}

// issueToken 签发令牌并保存，同时清理该成员已过期的令牌
func (h *AuthHandler) issueToken(c *fiber.Ctx, member *models.Member, userAgent string) (string, time.Time, error) {
	now := time.Now()
	if err := h.db.Where("member_id = ? AND expired_at < ?", member.ID, now).Delete(&models.MemberToken{}).Error; err != nil {
		h.log.Warnw("删除过期令牌失败", "member_id", member.ID, "error", err)
	}

	token, err := h.jwt.GenerateToken(member.ID, member.Username, member.Role, TokenTTL)
	if err != nil {
		return "", time.Time{}, err
	}

	expireTime := now.Add(TokenTTL)
	record := models.MemberToken{
		MemberID:  member.ID,
		Token:     token,
		UserAgent: userAgent,
		IP:        c.IP(),
		ExpiredAt: expireTime,
	}
	if err := h.db.Create(&record).Error; err != nil {
		return "", time.Time{}, err
	}
	return token, expireTime, nil
}

// RefreshToken 刷新认证令牌
// 旧令牌必须仍然有效，刷新后旧令牌立即失效
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	tokenString, ok := middleware.BearerToken(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "未提供有效的认证令牌",
		})
	}

	claims, err := h.jwt.ParseToken(tokenString)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "无效的认证令牌",
		})
	}

	var token models.MemberToken
	if err := h.db.Where("token = ?", tokenString).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "认证令牌不存在",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "验证认证令牌失败",
		})
	}
	if time.Now().After(token.ExpiredAt) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "认证令牌已过期",
		})
	}

	var member models.Member
	if err := h.db.Where("id = ? AND status = ?", claims.MemberID, models.MemberStatusActive).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "成员不存在或已被禁用",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "验证成员身份失败",
		})
	}

	// 先删除旧令牌，防止重放
	if err := h.db.Delete(&token).Error; err != nil {
		h.log.Warnw("删除旧令牌失败", "member_id", member.ID, "error", err)
	}

	newToken, expireTime, err := h.issueToken(c, &member, token.UserAgent)
	if err != nil {
		h.log.Errorw("刷新令牌失败", "member_id", member.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "刷新令牌失败，请稍后重试",
		})
	}

	return c.JSON(fiber.Map{
		"message":    "刷新令牌成功",
		"token":      newToken,
		"expires_at": expireTime.Unix(),
	})
}

// Logout 登出当前设备
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	tokenString, _ := c.Locals(middleware.LocalToken).(string)
	if tokenString == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "未提供有效的认证令牌",
		})
	}

	if err := h.db.Where("token = ?", tokenString).Delete(&models.MemberToken{}).Error; err != nil {
		h.log.Errorw("删除令牌失败", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "登出失败，请稍后重试",
		})
	}

	return c.JSON(fiber.Map{
		"message": "登出成功",
	})
}

// Devices 获取当前成员的登录设备列表
func (h *AuthHandler) Devices(c *fiber.Ctx) error {
	memberID, ok := middleware.CurrentMemberID(c)
	if !ok {
		return unauthorized(c)
	}

	var tokens []models.MemberToken
	if err := h.db.Where("member_id = ? AND expired_at > ?", memberID, time.Now()).Find(&tokens).Error; err != nil {
		h.log.Errorw("查询登录设备失败", "member_id", memberID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "查询登录设备失败，请稍后重试",
		})
	}

	current, _ := c.Locals(middleware.LocalToken).(string)
	devices := make([]fiber.Map, 0, len(tokens))
	for _, token := range tokens {
		devices = append(devices, fiber.Map{
			"id":         token.ID,
			"user_agent": token.UserAgent,
			"ip":         token.IP,
			"current":    token.Token == current,
			"created_at": token.CreatedAt,
			"expired_at": token.ExpiredAt,
		})
	}

	return c.JSON(fiber.Map{
		"devices": devices,
	})
}

// LogoutDevice 登出指定设备，只能操作自己的设备
func (h *AuthHandler) LogoutDevice(c *fiber.Ctx) error {
	memberID, ok := middleware.CurrentMemberID(c)
	if !ok {
		return unauthorized(c)
	}

	deviceID, valid := paramID(c, "id")
	if !valid {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的设备ID",
		})
	}

	result := h.db.Where("id = ? AND member_id = ?", deviceID, memberID).Delete(&models.MemberToken{})
	if result.Error != nil {
		h.log.Errorw("登出设备失败", "member_id", memberID, "error", result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "登出设备失败，请稍后重试",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "设备不存在或不属于当前成员",
		})
	}

	return c.JSON(fiber.Map{
		"message": "设备登出成功",
	})
}

// ForceLogout 管理员强制成员下线，使其全部令牌失效
func (h *AuthHandler) ForceLogout(c *fiber.Ctx) error {
	memberID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的成员ID",
		})
	}

	if err := h.db.Where("member_id = ?", memberID).Delete(&models.MemberToken{}).Error; err != nil {
		h.log.Errorw("删除成员令牌失败", "member_id", memberID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "强制登出失败，请稍后重试",
		})
	}

	return c.JSON(fiber.Map{
		"message": "强制登出成功",
	})
}
