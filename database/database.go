// Package database 提供数据库连接和管理功能
// 该包负责处理与数据库相关的所有操作，包括：
// - 数据库连接的建立和管理
// - 连接池的配置
// - 数据库迁移
package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"go_commission/config"
	"go_commission/logger"
	"go_commission/models"
)

// tableOptions 建表选项，统一使用utf8mb4字符集
const tableOptions = "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci"

// Open 建立数据库连接
// 该函数负责：
// 1. 连接MySQL服务器并在需要时创建数据库
// 2. 配置GORM日志，输出到应用日志
// 3. 配置连接池参数
// 4. 设置数据库默认字符集
func Open(cfg *config.Config, log *logger.Logger) (*gorm.DB, error) {
	// 生产环境只记录慢查询和错误
	level := gormlogger.Info
	if cfg.IsProduction() {
		level = gormlogger.Warn
	}
	gormLogger := gormlogger.New(
		zap.NewStdLog(log.Desugar()),
		gormlogger.Config{
			SlowThreshold:             time.Second, // 慢查询阈值
			LogLevel:                  level,       // 日志级别
			IgnoreRecordNotFoundError: true,        // 忽略记录未找到的错误
		},
	)

	// 先连接MySQL服务器（不指定数据库），在数据库不存在时创建它
	tempDB, err := gorm.Open(mysql.Open(cfg.DB.DSN(false)), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("连接MySQL服务器失败: %w", err)
	}
	createDBSQL := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci", cfg.DB.Name)
	if err := tempDB.Exec(createDBSQL).Error; err != nil {
		return nil, fmt.Errorf("创建数据库失败: %w", err)
	}
	if sqlDB, err := tempDB.DB(); err == nil {
		sqlDB.Close()
	}

	db, err := gorm.Open(mysql.Open(cfg.DB.DSN(true)), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接到数据库: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("无法获取底层数据库连接: %w", err)
	}

	// 设置连接池参数
	sqlDB.SetMaxOpenConns(25)                  // 最大打开连接数
	sqlDB.SetMaxIdleConns(10)                  // 最大空闲连接数
	sqlDB.SetConnMaxLifetime(time.Hour)        // 连接最大生存时间
	sqlDB.SetConnMaxIdleTime(30 * time.Minute) // 空闲连接最大生存时间

	db.Exec("SET NAMES utf8mb4 COLLATE utf8mb4_unicode_ci")

	log.Infow("数据库连接成功", "host", cfg.DB.Host, "port", cfg.DB.Port, "database", cfg.DB.Name)
	return db, nil
}

// Close 关闭数据库连接
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate 执行数据库迁移
// 使用GORM的AutoMigrate创建缺失的表、字段和索引
func Migrate(db *gorm.DB, log *logger.Logger) error {
	log.Info("开始数据库迁移...")

	// 需要迁移的模型按照依赖关系排序
	err := db.Set("gorm:table_options", tableOptions).AutoMigrate(
		// 成员及会话
		&models.Member{},
		&models.MemberToken{},
		// 客户与合同
		&models.Client{},
		&models.Contract{},
		// 团队邀请
		&models.TeamInvitation{},
	)
	if err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}

	log.Info("数据库迁移成功")
	return nil
}
