package handlers

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"go_commission/logger"
	"go_commission/middleware"
	"go_commission/models"
	"go_commission/utils"
)

// ContractHandler 成员维护自己的客户和合同
// 已签约合同的金额是个人业绩的唯一来源
type ContractHandler struct {
	db  *gorm.DB
	log *logger.Logger
	now func() time.Time
}

// NewContractHandler 创建客户与合同处理器
func NewContractHandler(db *gorm.DB, log *logger.Logger) *ContractHandler {
	return &ContractHandler{db: db, log: log, now: time.Now}
}

type createClientRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Phone string `json:"phone" validate:"omitempty,max=20"`
	Email string `json:"email" validate:"omitempty,email"`
	Notes string `json:"notes" validate:"max=2000"`
}

// CreateClient 创建客户
func (h *ContractHandler) CreateClient(c *fiber.Ctx) error {
	memberID, ok := middleware.CurrentMemberID(c)
	if !ok {
		return unauthorized(c)
	}

	var req createClientRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if req.Phone == "" && req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "电话和邮箱至少填写一项",
		})
	}

	client := models.Client{
		MemberID: memberID,
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Status:   "active",
		Notes:    req.Notes,
	}
	if err := h.db.Create(&client).Error; err != nil {
		h.log.Errorw("创建客户失败", "member_id", memberID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "创建客户失败",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "客户创建成功",
		"data":    client,
	})
}

// ListClients 查询自己的客户
func (h *ContractHandler) ListClients(c *fiber.Ctx) error {
	memberID, ok := middleware.CurrentMemberID(c)
	if !ok {
		return unauthorized(c)
	}

	page, size := c.QueryInt("page", 1), c.QueryInt("page_size", 10)
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 10
	}

	db := h.db.Model(&models.Client{}).Where("member_id = ?", memberID)
	if name := c.Query("name"); name != "" {
		db = db.Where("name LIKE ?", "%"+name+"%")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		h.log.Errorw("计算客户总数失败", "member_id", memberID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "获取客户列表失败",
		})
	}

	var clients []models.Client
	if err := db.Order("id DESC").Offset((page - 1) * size).Limit(size).Find(&clients).Error; err != nil {
		h.log.Errorw("获取客户列表失败", "member_id", memberID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "获取客户列表失败",
		})
	}

	return c.JSON(pageResult(total, page, size, clients))
}

type createContractRequest struct {
	ClientID uint    `json:"client_id" validate:"required"`
	Title    string  `json:"title" validate:"required,max=200"`
	Amount   float64 `json:"amount" validate:"gt=0"`
	Notes    string  `json:"notes" validate:"max=2000"`
}

// CreateContract 为自己的客户创建待签约合同
func (h *ContractHandler) CreateContract(c *fiber.Ctx) error {
	memberID, ok := middleware.CurrentMemberID(c)
	if !ok {
		return unauthorized(c)
	}

	var req createContractRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	var client models.Client
	if err := h.db.Where("id = ? AND member_id = ?", req.ClientID, memberID).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "客户不存在或不属于当前成员",
			})
		}
		h.log.Errorw("查询客户失败", "member_id", memberID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "创建合同失败",
		})
	}

	contract := models.Contract{
		ContractNo: utils.GenerateContractNo(h.now()),
		MemberID:   memberID,
		ClientID:   client.ID,
		Title:      req.Title,
		Amount:     req.Amount,
		Status:     models.ContractStatusPending,
		Notes:      req.Notes,
	}
	if err := h.db.Create(&contract).Error; err != nil {
		h.log.Errorw("创建合同失败", "member_id", memberID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "创建合同失败",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "合同创建成功",
		"data":    contract,
	})
}

// ListContracts 查询自己的合同
func (h *ContractHandler) ListContracts(c *fiber.Ctx) error {
	memberID, ok := middleware.CurrentMemberID(c)
	if !ok {
		return unauthorized(c)
	}

	var query models.ContractQuery
	if err := c.QueryParser(&query); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "查询参数解析失败: " + err.Error(),
		})
	}
	query.Normalize()

	db, msg := filterContracts(h.db.Model(&models.Contract{}).Where("member_id = ?", memberID), &query)
	if msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": msg,
		})
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		h.log.Errorw("计算合同总数失败", "member_id", memberID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "获取合同列表失败",
		})
	}

	var contracts []models.Contract
	offset := (query.Page - 1) * query.PageSize
	if err := db.Order("id DESC").Offset(offset).Limit(query.PageSize).Find(&contracts).Error; err != nil {
		h.log.Errorw("获取合同列表失败", "member_id", memberID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "获取合同列表失败",
		})
	}

	return c.JSON(pageResult(total, query.Page, query.PageSize, contracts))
}

// filterContracts 按查询参数追加筛选条件，日期格式错误时返回提示信息
func filterContracts(db *gorm.DB, query *models.ContractQuery) (*gorm.DB, string) {
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}
	if query.ClientID != 0 {
		db = db.Where("client_id = ?", query.ClientID)
	}
	if query.StartDate != "" {
		start, err := time.ParseInLocation("2006-01-02", query.StartDate, time.Local)
		if err != nil {
			return nil, "开始日期格式错误，应为YYYY-MM-DD"
		}
		db = db.Where("signed_at >= ?", start)
	}
	if query.EndDate != "" {
		end, err := time.ParseInLocation("2006-01-02", query.EndDate, time.Local)
		if err != nil {
			return nil, "结束日期格式错误，应为YYYY-MM-DD"
		}
		db = db.Where("signed_at < ?", end.AddDate(0, 0, 1))
	}
	return db, ""
}

// ExportContracts 导出自己的合同，支持 csv 和 json 格式，默认 csv
func (h *ContractHandler) ExportContracts(c *fiber.Ctx) error {
	memberID, ok := middleware.CurrentMemberID(c)
	if !ok {
		return unauthorized(c)
	}

	var query models.ContractQuery
	if err := c.QueryParser(&query); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "查询参数解析失败: " + err.Error(),
		})
	}
	db, msg := filterContracts(h.db.Model(&models.Contract{}).Where("member_id = ?", memberID), &query)
	if msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": msg,
		})
	}

	var contracts []models.Contract
	if err := db.Order("id ASC").Limit(maxExportRows).Find(&contracts).Error; err != nil {
		h.log.Errorw("导出合同失败", "member_id", memberID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "导出合同失败",
		})
	}

	if c.Query("format", "csv") == "json" {
		return c.JSON(fiber.Map{
			"message": "导出成功",
			"data":    contracts,
		})
	}

	c.Set(fiber.HeaderContentDisposition, "attachment; filename=contracts.csv")
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return writeContractsCSV(c.Response().BodyWriter(), contracts)
}

// maxExportRows 单次导出的最大行数
const maxExportRows = 10000

func writeContractsCSV(w io.Writer, contracts []models.Contract) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ID", "合同编号", "客户ID", "合同名称", "金额", "状态", "签约时间", "创建时间"}); err != nil {
		return err
	}
	for _, ct := range contracts {
		signedAt := ""
		if ct.SignedAt != nil {
			signedAt = ct.SignedAt.Format("2006-01-02 15:04:05")
		}
		row := []string{
			strconv.FormatUint(uint64(ct.ID), 10),
			ct.ContractNo,
			strconv.FormatUint(uint64(ct.ClientID), 10),
			ct.Title,
			strconv.FormatFloat(ct.Amount, 'f', 2, 64),
			ct.Status,
			signedAt,
			ct.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SignContract 签约，只有待签约的合同可以签约
func (h *ContractHandler) SignContract(c *fiber.Ctx) error {
	now := h.now()
	return h.transition(c, []string{models.ContractStatusPending}, map[string]interface{}{
		"status":    models.ContractStatusSigned,
		"signed_at": now,
	}, "合同签约成功")
}

// CancelContract 取消合同，已签约的合同取消后不再计入业绩
func (h *ContractHandler) CancelContract(c *fiber.Ctx) error {
	return h.transition(c, []string{models.ContractStatusPending, models.ContractStatusSigned}, map[string]interface{}{
		"status": models.ContractStatusCancelled,
	}, "合同已取消")
}

// transition 按状态条件更新自己的合同
func (h *ContractHandler) transition(c *fiber.Ctx, from []string, updates map[string]interface{}, message string) error {
	memberID, ok := middleware.CurrentMemberID(c)
	if !ok {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的合同ID",
		})
	}

	var contract models.Contract
	if err := h.db.Where("id = ? AND member_id = ?", id, memberID).First(&contract).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "合同不存在或不属于当前成员",
			})
		}
		h.log.Errorw("查询合同失败", "contract_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "更新合同失败",
		})
	}

	// 状态条件同时写入更新语句，避免并发下重复变更
	result := h.db.Model(&contract).Where("status IN ?", from).Updates(updates)
	if result.Error != nil {
		h.log.Errorw("更新合同失败", "contract_id", id, "error", result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "更新合同失败",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "当前合同状态不允许该操作",
		})
	}

	h.log.Infow(message, "contract_id", id, "member_id", memberID, "status", updates["status"])

	if err := h.db.First(&contract, id).Error; err != nil {
		h.log.Warnw("获取更新后的合同失败", "contract_id", id, "error", err)
	}
	return c.JSON(fiber.Map{
		"message": message,
		"data":    contract,
	})
}
