package log

import (
	"go.uber.org/zap/zapcore"
)

// 日志配置默认值
const (
	// defaultLogLevel 命令行工具默认只输出警告以上的日志，--verbose 时调为 debug
	defaultLogLevel = "warn"

	// defaultToConsole 默认输出到 stderr，stdout 留给命令结果
	defaultToConsole = true

	// defaultFilePath 默认不写文件
	defaultFilePath = ""

	// === 日志轮转配置 ===

	defaultMaxSize    = 20 // MB
	defaultMaxBackups = 3
	defaultMaxAge     = 7 // 天
	defaultCompress   = true

	// === 调试配置 ===

	defaultEnableCaller     = false
	defaultEnableStacktrace = false
)

// 默认的日志级别映射
var defaultLevelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"panic": zapcore.PanicLevel,
	"fatal": zapcore.FatalLevel,
}
