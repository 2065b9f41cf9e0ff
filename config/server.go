package config

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"go_commission/logger"
)

// ShutdownTimeout 优雅关闭的最长等待时间
const ShutdownTimeout = 10 * time.Second

// StartServer 启动HTTP服务器并处理优雅关闭
// 收到 SIGINT/SIGTERM 或 ctx 取消后停止接收新请求，等待进行中的请求完成
func StartServer(ctx context.Context, app *fiber.App, port string, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(fmt.Sprintf(":%s", port))
	}()
	log.Infow("服务器已启动", "port", port)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("服务器启动失败: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("收到终止信号，开始优雅关闭...")
	if err := app.ShutdownWithTimeout(ShutdownTimeout); err != nil {
		return fmt.Errorf("服务器关闭失败: %w", err)
	}
	log.Info("服务器已安全关闭")
	return nil
}
