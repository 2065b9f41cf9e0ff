package config

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go_commission/diagnostics"
	"go_commission/routes"
)

// AppOptions 创建 Fiber 应用需要的组件
type AppOptions struct {
	Config   *Config
	Monitor  *diagnostics.ErrorMonitor
	Gatherer prometheus.Gatherer // 为空时不暴露 /metrics
	Routes   routes.Dependencies
}

// SetupApp 创建并配置Fiber应用实例
// 1. 配置全局中间件：请求日志、panic恢复、跨域、错误监控
// 2. 注册健康检查和监控指标接口
// 3. 设置API路由
func SetupApp(opts AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		ServerHeader:  "Go Commission",
		BodyLimit:     4 * 1024 * 1024,
		ErrorHandler:  errorHandler,
		// 使用标准JSON编解码，保证中文正确输出
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		Immutable:    true,
		AppName:      "Go Commission API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	if opts.Config == nil || !opts.Config.IsProduction() {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format:     "${time} ${status} - ${method} ${path} ${latency}\n",
			TimeFormat: "2006-01-02 15:04:05",
			Output:     os.Stdout,
		}))
	}

	// 错误监控自身会捕获panic并上报，recover 作为兜底
	app.Use(recover.New())
	if opts.Monitor != nil {
		app.Use(opts.Monitor.Handler())
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		MaxAge:       int(12 * time.Hour.Seconds()),
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	routes.SetupRoutes(app, opts.Routes)

	return app
}

// errorHandler 统一错误响应格式
// 处理器未写响应而直接返回的错误在这里转换，5xx 不向客户端暴露细节
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "服务器内部错误"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if code < fiber.StatusInternalServerError {
			msg = fe.Message
		}
	}

	return c.Status(code).JSON(fiber.Map{
		"error": msg,
	})
}
