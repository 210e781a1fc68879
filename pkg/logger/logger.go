package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	base   = zap.NewNop()
	sugar  = base.Sugar()
	closer func() error
)

// SetupLogger 初始化日志配置：同时输出到控制台和按日期命名的日志文件
func SetupLogger(logDir string) error {
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("创建日志目录失败: %v", err)
	}

	logFileName := filepath.Join(logDir, fmt.Sprintf("%s.log", time.Now().Format("2006-01-02")))
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("打开日志文件失败: %v", err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(os.Stdout), zap.InfoLevel),
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(logFile), zap.InfoLevel),
	)

	Replace(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)))
	mu.Lock()
	closer = logFile.Close
	mu.Unlock()
	return nil
}

// Replace 替换全局日志记录器，测试中可传入 zap.NewNop()
func Replace(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	sugar = l.Sugar()
}

// L 返回底层 zap.Logger，供需要结构化字段的服务注入
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.WithOptions(zap.AddCallerSkip(-1))
}

// Sync 刷新缓冲并关闭日志文件
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	_ = base.Sync()
	if closer != nil {
		_ = closer()
		closer = nil
	}
}

// Info 记录信息级别的日志
func Info(format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Infof(format, v...)
}

// Warning 记录警告级别的日志
func Warning(format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Warnf(format, v...)
}

// Error 记录错误级别的日志
func Error(format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Errorf(format, v...)
}
