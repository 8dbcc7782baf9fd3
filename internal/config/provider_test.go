package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/weisyn/contract-transcode/internal/config/transcode"
	"github.com/weisyn/contract-transcode/pkg/interfaces/config"
	"github.com/weisyn/contract-transcode/pkg/types"
)

// TestGetEnvironment 测试 GetEnvironment() 方法
func TestGetEnvironment(t *testing.T) {
	t.Run("显式配置 dev", func(t *testing.T) {
		provider := NewProvider(&types.AppConfig{Environment: types.StringPtr("dev")})
		assert.Equal(t, "dev", provider.GetEnvironment())
	})

	t.Run("未配置时默认为 prod", func(t *testing.T) {
		assert.Equal(t, "prod", NewProvider(&types.AppConfig{}).GetEnvironment())
		assert.Equal(t, "prod", NewProvider(nil).GetEnvironment())
	})

	t.Run("无效值默认为 prod", func(t *testing.T) {
		provider := NewProvider(&types.AppConfig{Environment: types.StringPtr("invalid")})
		assert.Equal(t, "prod", provider.GetEnvironment())
	})
}

// TestProviderSections 测试各配置段的默认值与覆盖
func TestProviderSections(t *testing.T) {
	t.Run("空配置使用默认值", func(t *testing.T) {
		provider := NewProvider(nil)
		assert.Equal(t, "warn", provider.GetLog().Level)
		assert.True(t, provider.GetLog().ToConsole)
		assert.Equal(t, uint16(42), provider.GetTranscode().SS58Prefix)
		assert.True(t, provider.GetTranscode().EnvTypes)
		assert.Equal(t, []string{".json", ".contract"}, provider.GetArtifacts().Extensions)
	})

	t.Run("指定日志文件时关闭控制台", func(t *testing.T) {
		provider := NewProvider(&types.AppConfig{Log: &types.UserLogConfig{
			Level:    types.StringPtr("debug"),
			FilePath: types.StringPtr("/tmp/transcode.log"),
		}})
		opts := provider.GetLog()
		assert.Equal(t, "debug", opts.Level)
		assert.False(t, opts.ToConsole)
		assert.Equal(t, "/tmp/transcode.log", opts.FilePath)
	})

	t.Run("编解码配置覆盖", func(t *testing.T) {
		provider := NewProvider(&types.AppConfig{Transcode: &types.UserTranscodeConfig{
			SS58Prefix: types.UInt16Ptr(2),
		}})
		assert.Equal(t, uint16(2), provider.GetTranscode().SS58Prefix)
	})
}

// TestLoadAppConfig 测试从文件加载配置
func TestLoadAppConfig(t *testing.T) {
	t.Run("空路径返回空配置", func(t *testing.T) {
		cfg, err := LoadAppConfig("")
		require.NoError(t, err)
		assert.Nil(t, cfg.Log)
	})

	t.Run("解析 JSON 文件", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		content := `{"environment":"dev","log":{"level":"info"},"transcode":{"ss58_prefix":0,"env_types":false},"artifacts":{"cache_size":8}}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := LoadAppConfig(path)
		require.NoError(t, err)
		require.NotNil(t, cfg.Transcode)
		assert.Equal(t, uint16(0), *cfg.Transcode.SS58Prefix)
		assert.False(t, *cfg.Transcode.EnvTypes)
		assert.Equal(t, 8, *cfg.Artifacts.CacheSize)
		assert.Equal(t, "info", *cfg.Log.Level)
	})

	t.Run("文件不存在", func(t *testing.T) {
		_, err := LoadAppConfig(filepath.Join(t.TempDir(), "missing.json"))
		assert.Error(t, err)
	})

	t.Run("非法 JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
		_, err := LoadAppConfig(path)
		assert.Error(t, err)
	})
}

// TestValidateAppConfig 测试配置校验
func TestValidateAppConfig(t *testing.T) {
	t.Run("空配置通过", func(t *testing.T) {
		assert.NoError(t, ValidateAppConfig(nil))
		assert.NoError(t, ValidateAppConfig(&types.AppConfig{}))
	})

	t.Run("收集全部问题", func(t *testing.T) {
		err := ValidateAppConfig(&types.AppConfig{
			Environment: types.StringPtr("staging"),
			Log:         &types.UserLogConfig{Level: types.StringPtr("verbose")},
			Transcode: &types.UserTranscodeConfig{
				SS58Prefix: types.UInt16Ptr(16384),
				MaxDepth:   types.IntPtr(0),
			},
			Artifacts: &types.UserArtifactsConfig{CacheSize: types.IntPtr(-1), Extensions: []string{" "}},
		})
		var ve *ValidationErrors
		require.True(t, errors.As(err, &ve))
		fields := make([]string, len(ve.Errors))
		for i, e := range ve.Errors {
			fields[i] = e.(*ValidationError).Field
		}
		assert.Equal(t, []string{
			"environment",
			"log.level",
			"transcode.ss58_prefix",
			"transcode.max_depth",
			"artifacts.cache_size",
			"artifacts.extensions[0]",
		}, fields)
	})
}

// TestModule 测试 fx 配置模块
func TestModule(t *testing.T) {
	t.Run("注入用户配置", func(t *testing.T) {
		var provider config.Provider
		var opts *transcode.TranscodeOptions
		app := fx.New(
			fx.NopLogger,
			fx.Provide(func() config.AppOptions {
				return NewAppOptions(&types.AppConfig{Transcode: &types.UserTranscodeConfig{SS58Prefix: types.UInt16Ptr(7)}})
			}),
			Module(),
			fx.Populate(&provider, &opts),
		)
		require.NoError(t, app.Err())
		assert.Equal(t, uint16(7), opts.SS58Prefix)
		assert.Equal(t, "prod", provider.GetEnvironment())
	})

	t.Run("非法配置阻止启动", func(t *testing.T) {
		var provider config.Provider
		app := fx.New(
			fx.NopLogger,
			fx.Provide(func() config.AppOptions {
				return NewAppOptions(&types.AppConfig{Log: &types.UserLogConfig{Level: types.StringPtr("loud")}})
			}),
			Module(),
			fx.Populate(&provider),
		)
		assert.Error(t, app.Err())
	})
}
