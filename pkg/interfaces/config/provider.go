// Package config provides configuration provider interfaces.
package config

import (
	artifactsconfig "github.com/weisyn/contract-transcode/internal/config/artifacts"
	logconfig "github.com/weisyn/contract-transcode/internal/config/log"
	transcodeconfig "github.com/weisyn/contract-transcode/internal/config/transcode"
	"github.com/weisyn/contract-transcode/pkg/types"
)

// Provider 配置提供者接口
type Provider interface {
	// GetLog 获取日志配置
	GetLog() *logconfig.LogOptions

	// GetTranscode 获取编解码配置
	GetTranscode() *transcodeconfig.TranscodeOptions

	// GetArtifacts 获取合约产物加载配置
	GetArtifacts() *artifactsconfig.ArtifactsOptions

	// GetEnvironment 获取运行环境：dev | test | prod
	GetEnvironment() string

	// GetAppConfig 获取原始用户配置
	GetAppConfig() *types.AppConfig
}
