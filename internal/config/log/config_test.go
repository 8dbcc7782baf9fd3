package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	"github.com/weisyn/contract-transcode/pkg/types"
)

type logProvider struct {
	opts *LogOptions
}

func (p logProvider) GetLog() *LogOptions { return p.opts }

// TestNew 测试日志配置创建
func TestNew(t *testing.T) {
	t.Run("创建默认配置", func(t *testing.T) {
		c := New(nil)
		assert.Equal(t, zapcore.WarnLevel, c.GetZapLevel())
		assert.True(t, c.IsConsoleEnabled())
		assert.Empty(t, c.GetFilePath())
		assert.Equal(t, 20, c.GetMaxSize())
		assert.Equal(t, 3, c.GetMaxBackups())
		assert.Equal(t, 7, c.GetMaxAge())
		assert.True(t, c.IsCompressionEnabled())
		assert.False(t, c.IsCallerEnabled())
		assert.False(t, c.IsStacktraceEnabled())
	})

	t.Run("指定文件时关闭控制台", func(t *testing.T) {
		c := New(&types.UserLogConfig{
			Level:    types.StringPtr("debug"),
			FilePath: types.StringPtr("/tmp/transcode.log"),
		})
		assert.Equal(t, zapcore.DebugLevel, c.GetZapLevel())
		assert.Equal(t, "/tmp/transcode.log", c.GetFilePath())
		assert.False(t, c.IsConsoleEnabled())
	})

	t.Run("显式开启控制台", func(t *testing.T) {
		c := New(&types.UserLogConfig{
			FilePath:  types.StringPtr("/tmp/transcode.log"),
			ToConsole: types.BoolPtr(true),
		})
		assert.True(t, c.IsConsoleEnabled())
	})

	t.Run("完整选项直接使用", func(t *testing.T) {
		opts := &LogOptions{Level: "error", MaxSize: 1, EnableCaller: true}
		c := New(opts)
		assert.Same(t, opts, c.GetOptions())
		assert.Equal(t, zapcore.ErrorLevel, c.GetZapLevel())
		assert.Equal(t, 1, c.GetMaxSize())
		assert.True(t, c.IsCallerEnabled())
	})

	t.Run("未知级别回退到 info", func(t *testing.T) {
		c := New(&types.UserLogConfig{Level: types.StringPtr("loud")})
		assert.Equal(t, zapcore.InfoLevel, c.GetZapLevel())
	})

	t.Run("未知配置类型使用默认值", func(t *testing.T) {
		c := New("warn")
		assert.Equal(t, zapcore.WarnLevel, c.GetZapLevel())
	})
}

// TestNewFromProvider 测试从配置提供者创建
func TestNewFromProvider(t *testing.T) {
	c := NewFromProvider(logProvider{opts: &LogOptions{Level: "debug"}})
	assert.Equal(t, zapcore.DebugLevel, c.GetZapLevel())

	c = NewFromProvider(struct{}{})
	assert.Equal(t, zapcore.WarnLevel, c.GetZapLevel())
}
