// Package config 提供应用配置管理功能
package config

import (
	"go.uber.org/fx"

	"github.com/weisyn/contract-transcode/internal/config/artifacts"
	"github.com/weisyn/contract-transcode/internal/config/transcode"
	"github.com/weisyn/contract-transcode/pkg/interfaces/config"
	"github.com/weisyn/contract-transcode/pkg/types"
)

// ConfigParams 定义配置模块的依赖参数
type ConfigParams struct {
	fx.In

	// 应用配置选项
	AppOptions config.AppOptions `optional:"true"`
}

// ConfigOutput 定义配置模块的输出结构
type ConfigOutput struct {
	fx.Out

	// 配置提供者
	Provider config.Provider
}

// Module 返回配置模块
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			ProvideConfigServices,
			func(provider config.Provider) *transcode.TranscodeOptions {
				return provider.GetTranscode()
			},
			func(provider config.Provider) *artifacts.ArtifactsOptions {
				return provider.GetArtifacts()
			},
		),
	)
}

// ProvideConfigServices 提供配置服务
func ProvideConfigServices(params ConfigParams) (ConfigOutput, error) {
	var appConfig *types.AppConfig
	if params.AppOptions != nil {
		appConfig = params.AppOptions.GetAppConfig()
	}

	if err := ValidateAppConfig(appConfig); err != nil {
		return ConfigOutput{}, err
	}

	return ConfigOutput{
		Provider: NewProvider(appConfig),
	}, nil
}
