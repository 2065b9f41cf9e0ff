// Package logger 提供结构化日志
// 开发环境输出便于阅读的控制台格式，生产环境输出JSON格式便于日志收集
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 带服务名的结构化日志
type Logger struct {
	*zap.SugaredLogger
	serviceName string
}

// New 创建指定服务的日志实例
// 环境取自 APP_ENV，未设置时按开发环境处理
func New(serviceName string) *Logger {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	return NewWithWriter(serviceName, env, os.Stdout)
}

// NewWithWriter 创建写入指定输出的日志实例，主要用于测试
func NewWithWriter(serviceName, env string, w io.Writer) *Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	level := zap.InfoLevel
	if env == "production" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
		level = zap.DebugLevel
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.NewAtomicLevelAt(level))
	zapLogger := zap.New(core, zap.AddCaller())

	return &Logger{
		SugaredLogger: zapLogger.Sugar().With("service", serviceName),
		serviceName:   serviceName,
	}
}

// Nop 返回不输出任何内容的日志实例
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar(), serviceName: "nop"}
}

// WithMember 返回附带成员ID的日志实例
func (l *Logger) WithMember(memberID uint) *Logger {
	return &Logger{
		SugaredLogger: l.With("member_id", memberID),
		serviceName:   l.serviceName,
	}
}

// Named 返回子模块日志实例
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.Named(name),
		serviceName:   l.serviceName,
	}
}

// Sync 刷新缓冲的日志
func (l *Logger) Sync() error {
	return l.SugaredLogger.Sync()
}
