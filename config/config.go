// Package config 提供应用程序配置和初始化功能
// 该包负责处理应用程序的配置加载、初始化和服务器设置等核心功能
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"go_commission/diagnostics"
)

// DBConfig 数据库连接配置
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// DSN 返回MySQL连接字符串，withDB为false时不指定数据库，用于建库
func (d DBConfig) DSN(withDB bool) string {
	if !withDB {
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/?charset=utf8mb4&parseTime=True&loc=Local",
			d.User, d.Password, d.Host, d.Port)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local&collation=utf8mb4_unicode_ci",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// Config 应用配置
type Config struct {
	Env        string                     // 运行环境：development, production
	Port       string                     // 服务监听端口
	DB         DBConfig                   // 数据库配置
	JWTSecret  string                     // JWT签名密钥，为空时开发环境随机生成
	LevelsFile string                     // 职级规则TOML文件，为空时使用默认规则
	Throttle   diagnostics.ThrottleConfig // 限流日志配置
}

// IsProduction 是否是生产环境
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load 加载配置
// 先读取.env文件（不存在时忽略），再从环境变量读取各项配置
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("未找到.env文件，使用系统环境变量")
	}
	return FromEnv()
}

// FromEnv 从环境变量读取配置
func FromEnv() (*Config, error) {
	cfg := &Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("SERVER_PORT", "8080"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "127.0.0.1"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "commission"),
		},
		JWTSecret:  os.Getenv("JWT_SECRET"),
		LevelsFile: os.Getenv("LEVELS_FILE"),
		Throttle:   diagnostics.DefaultThrottleConfig(),
	}

	if v := os.Getenv("LOG_THROTTLE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("LOG_THROTTLE_INTERVAL 格式错误: %q", v)
		}
		cfg.Throttle.Interval = d
	}
	if v := os.Getenv("LOG_THROTTLE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("LOG_THROTTLE_BURST 必须是正整数: %q", v)
		}
		cfg.Throttle.Burst = n
	}

	// 生产环境必须显式配置JWT密钥
	if cfg.IsProduction() && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("生产环境必须设置JWT_SECRET环境变量")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
