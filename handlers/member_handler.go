package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"go_commission/logger"
	"go_commission/models"
	"go_commission/navigation"
	"go_commission/utils"
)

// MemberHandler 管理员维护成员档案
type MemberHandler struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewMemberHandler 创建成员管理处理器
func NewMemberHandler(db *gorm.DB, log *logger.Logger) *MemberHandler {
	return &MemberHandler{db: db, log: log}
}

type createMemberRequest struct {
	Username string          `json:"username" validate:"required,min=3,max=50"`
	Password string          `json:"password" validate:"required,min=6"`
	Name     string          `json:"name" validate:"required,max=50"`
	Phone    string          `json:"phone" validate:"omitempty,max=20"`
	Email    string          `json:"email" validate:"omitempty,email"`
	Role     navigation.Role `json:"role" validate:"omitempty,oneof=member leader admin"`
}

// Create 创建成员
// 新成员没有上级，通过团队邀请加入团队
func (h *MemberHandler) Create(c *fiber.Ctx) error {
	var req createMemberRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	var count int64
	if err := h.db.Model(&models.Member{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		h.log.Errorw("查询成员失败", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "查询成员失败",
		})
	}
	if count > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "用户名已存在",
		})
	}

	member := models.Member{
		Username:   req.Username,
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Role:       req.Role,
		Status:     models.MemberStatusActive,
		InviteCode: utils.GenerateMemberCode(),
	}
	if member.Role == "" {
		member.Role = navigation.RoleMember
	}
	if err := member.SetPassword(req.Password); err != nil {
		h.log.Errorw("密码加密失败", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "密码加密失败",
		})
	}

	if err := h.db.Create(&member).Error; err != nil {
		h.log.Errorw("创建成员失败", "username", req.Username, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "创建成员失败",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "成员创建成功",
		"data":    member,
	})
}

// List 分页查询成员
func (h *MemberHandler) List(c *fiber.Ctx) error {
	var query models.MemberQuery
	if err := c.QueryParser(&query); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "查询参数解析失败: " + err.Error(),
		})
	}
	query.Normalize()

	db := h.db.Model(&models.Member{})
	if query.Username != "" {
		db = db.Where("username LIKE ?", "%"+query.Username+"%")
	}
	if query.Name != "" {
		db = db.Where("name LIKE ?", "%"+query.Name+"%")
	}
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}
	if query.Role != "" {
		db = db.Where("role = ?", query.Role)
	}
	if query.ParentID != 0 {
		db = db.Where("parent_id = ?", query.ParentID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		h.log.Errorw("计算成员总数失败", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "计算成员总数失败",
		})
	}

	var members []models.Member
	offset := (query.Page - 1) * query.PageSize
	if err := db.Order("id").Offset(offset).Limit(query.PageSize).Find(&members).Error; err != nil {
		h.log.Errorw("获取成员列表失败", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "获取成员列表失败",
		})
	}

	return c.JSON(pageResult(total, query.Page, query.PageSize, members))
}

// find 按路径参数查询成员，失败时已写入响应
func (h *MemberHandler) find(c *fiber.Ctx) (*models.Member, error) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的成员ID",
		})
	}

	var member models.Member
	if err := h.db.First(&member, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "成员不存在",
			})
		}
		h.log.Errorw("查询成员失败", "member_id", id, "error", err)
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "查询成员失败",
		})
	}
	return &member, nil
}

// Get 查询单个成员
func (h *MemberHandler) Get(c *fiber.Ctx) error {
	member, err := h.find(c)
	if member == nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": member,
	})
}

type updateMemberRequest struct {
	Name     string          `json:"name" validate:"omitempty,max=50"`
	Phone    string          `json:"phone" validate:"omitempty,max=20"`
	Email    string          `json:"email" validate:"omitempty,email"`
	Status   string          `json:"status" validate:"omitempty,oneof=active inactive suspended"`
	Role     navigation.Role `json:"role" validate:"omitempty,oneof=member leader admin"`
	Password string          `json:"password" validate:"omitempty,min=6"`
}

// Update 更新成员信息，只更新提交的字段
// 上下级关系和职级不能在这里修改
func (h *MemberHandler) Update(c *fiber.Ctx) error {
	member, err := h.find(c)
	if member == nil {
		return err
	}

	var req updateMemberRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if req.Role != "" {
		updates["role"] = req.Role
	}
	if req.Password != "" {
		if err := member.SetPassword(req.Password); err != nil {
			h.log.Errorw("密码加密失败", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "密码加密失败",
			})
		}
		updates["password"] = member.Password
	}
	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "没有需要更新的字段",
		})
	}

	if err := h.db.Model(member).Updates(updates).Error; err != nil {
		h.log.Errorw("更新成员失败", "member_id", member.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "更新成员失败",
		})
	}

	// 停用成员时使其全部令牌失效
	if req.Status != "" && req.Status != models.MemberStatusActive {
		if err := h.db.Where("member_id = ?", member.ID).Delete(&models.MemberToken{}).Error; err != nil {
			h.log.Warnw("删除成员令牌失败", "member_id", member.ID, "error", err)
		}
	}

	if err := h.db.First(member, member.ID).Error; err != nil {
		h.log.Errorw("获取更新后的成员信息失败", "member_id", member.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "获取更新后的成员信息失败",
		})
	}

	return c.JSON(fiber.Map{
		"message": "成员信息更新成功",
		"data":    member,
	})
}

// Delete 删除成员
// 有下级的成员不能删除，避免团队树断开
func (h *MemberHandler) Delete(c *fiber.Ctx) error {
	member, err := h.find(c)
	if member == nil {
		return err
	}

	var children int64
	if err := h.db.Model(&models.Member{}).Where("parent_id = ?", member.ID).Count(&children).Error; err != nil {
		h.log.Errorw("查询下级失败", "member_id", member.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "删除成员失败",
		})
	}
	if children > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "该成员仍有下级，请先调整团队关系或将其设为离职",
		})
	}

	// 开始事务
	tx := h.db.Begin()
	var txCommitted bool
	defer func() {
		if !txCommitted {
			tx.Rollback()
		}
	}()

	if err := tx.Where("member_id = ?", member.ID).Delete(&models.MemberToken{}).Error; err != nil {
		h.log.Errorw("删除成员令牌失败", "member_id", member.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "删除成员失败",
		})
	}
	if member.ParentID != nil {
		if err := tx.Model(&models.Member{}).Where("id = ? AND children_count > 0", *member.ParentID).
			UpdateColumn("children_count", gorm.Expr("children_count - 1")).Error; err != nil {
			h.log.Errorw("更新上级下级数量失败", "member_id", member.ID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "删除成员失败",
			})
		}
	}
	if err := tx.Delete(member).Error; err != nil {
		h.log.Errorw("删除成员失败", "member_id", member.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "删除成员失败",
		})
	}

	if err := tx.Commit().Error; err != nil {
		h.log.Errorw("提交事务失败", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "删除成员失败",
		})
	}
	txCommitted = true

	return c.JSON(fiber.Map{
		"message": "成员删除成功",
	})
}
