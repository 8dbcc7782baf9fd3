package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/weisyn/contract-transcode/internal/config/artifacts"
	"github.com/weisyn/contract-transcode/internal/config/log"
	"github.com/weisyn/contract-transcode/internal/config/transcode"
	"github.com/weisyn/contract-transcode/pkg/interfaces/config"
	"github.com/weisyn/contract-transcode/pkg/types"
)

// Provider 实现配置提供者接口
type Provider struct {
	appConfig *types.AppConfig
}

// NewProvider 创建配置提供者
func NewProvider(appConfig *types.AppConfig) config.Provider {
	return &Provider{
		appConfig: appConfig,
	}
}

// GetLog 获取日志配置
func (p *Provider) GetLog() *log.LogOptions {
	var userLogConfig *types.UserLogConfig
	if p.appConfig != nil && p.appConfig.Log != nil {
		userLogConfig = p.appConfig.Log
	}
	// log.New会处理默认值应用和用户配置覆盖
	return log.New(userLogConfig).GetOptions()
}

// GetTranscode 获取编解码配置
func (p *Provider) GetTranscode() *transcode.TranscodeOptions {
	var userTranscodeConfig *types.UserTranscodeConfig
	if p.appConfig != nil {
		userTranscodeConfig = p.appConfig.Transcode
	}
	return transcode.New(userTranscodeConfig).GetOptions()
}

// GetArtifacts 获取合约产物加载配置
func (p *Provider) GetArtifacts() *artifacts.ArtifactsOptions {
	var userArtifactsConfig *types.UserArtifactsConfig
	if p.appConfig != nil {
		userArtifactsConfig = p.appConfig.Artifacts
	}
	return artifacts.New(userArtifactsConfig).GetOptions()
}

// GetEnvironment 获取运行环境，未配置或无效时为 prod
func (p *Provider) GetEnvironment() string {
	if p.appConfig == nil || p.appConfig.Environment == nil {
		return "prod"
	}
	switch env := strings.ToLower(strings.TrimSpace(*p.appConfig.Environment)); env {
	case "dev", "test", "prod":
		return env
	}
	return "prod"
}

// GetAppConfig 获取原始用户配置
func (p *Provider) GetAppConfig() *types.AppConfig {
	return p.appConfig
}

// LoadAppConfig 从 JSON 文件加载用户配置
//
// path 为空时返回空配置，全部使用默认值。
func LoadAppConfig(path string) (*types.AppConfig, error) {
	if path == "" {
		return &types.AppConfig{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	var appConfig types.AppConfig
	if err := json.Unmarshal(data, &appConfig); err != nil {
		return nil, fmt.Errorf("解析配置文件失败 %s: %w", path, err)
	}
	return &appConfig, nil
}

// appOptions AppOptions 的简单实现
type appOptions struct {
	appConfig *types.AppConfig
}

// NewAppOptions 包装用户配置，供 fx 注入
func NewAppOptions(appConfig *types.AppConfig) config.AppOptions {
	return &appOptions{appConfig: appConfig}
}

func (o *appOptions) GetAppConfig() *types.AppConfig {
	return o.appConfig
}
