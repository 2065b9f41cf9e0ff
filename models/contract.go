package models

import (
	"time"
)

// 合同状态
const (
	ContractStatusPending   = "pending"   // 待签约
	ContractStatusSigned    = "signed"    // 已签约，计入业绩
	ContractStatusCancelled = "cancelled" // 已取消
)

// Client 客户模型
// 记录成员名下的客户信息
type Client struct {
	ID        uint      `json:"id" gorm:"primaryKey"`             // 主键ID
	MemberID  uint      `json:"member_id" gorm:"index"`           // 所属成员ID
	Name      string    `json:"name" gorm:"size:100"`             // 客户姓名或公司名
	Phone     string    `json:"phone" gorm:"size:20"`             // 客户电话
	Email     string    `json:"email" gorm:"size:100"`            // 客户邮箱
	Status    string    `json:"status" gorm:"default:active"`     // 状态：active活跃, inactive非活跃
	Notes     string    `json:"notes" gorm:"type:text"`           // 备注
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"` // 创建时间
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"` // 更新时间
}

// TableName 返回表名
func (Client) TableName() string {
	return "clients"
}

// Contract 合同模型
// 已签约合同的金额计入成员个人业绩
type Contract struct {
	ID         uint       `json:"id" gorm:"primaryKey"`                                                   // 主键ID
	ContractNo string     `json:"contract_no" gorm:"size:64;uniqueIndex"`                                 // 合同编号
	MemberID   uint       `json:"member_id" gorm:"index:idx_contract_member_status"`                      // 签约成员ID
	ClientID   uint       `json:"client_id" gorm:"index"`                                                 // 客户ID
	Title      string     `json:"title" gorm:"size:200"`                                                  // 合同名称
	Amount     float64    `json:"amount"`                                                                 // 合同金额
	Status     string     `json:"status" gorm:"size:20;default:pending;index:idx_contract_member_status"` // 状态
	SignedAt   *time.Time `json:"signed_at"`                                                              // 签约时间
	Notes      string     `json:"notes" gorm:"type:text"`                                                 // 备注
	CreatedAt  time.Time  `json:"created_at" gorm:"autoCreateTime"`                                       // 创建时间
	UpdatedAt  time.Time  `json:"updated_at" gorm:"autoUpdateTime"`                                       // 更新时间
}

// TableName 返回表名
func (Contract) TableName() string {
	return "contracts"
}

// ContractQuery 合同查询参数
type ContractQuery struct {
	Status    string `query:"status"`     // 状态
	ClientID  uint   `query:"client_id"`  // 客户ID
	StartDate string `query:"start_date"` // 签约开始日期
	EndDate   string `query:"end_date"`   // 签约结束日期
	Page      int    `query:"page"`       // 页码
	PageSize  int    `query:"page_size"`  // 每页数量
}

// Normalize 设置默认分页参数
func (q *ContractQuery) Normalize() {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 10
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}
}
