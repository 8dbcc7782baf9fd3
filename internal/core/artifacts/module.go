package artifacts

import (
	"go.uber.org/fx"

	logimpl "github.com/weisyn/contract-transcode/internal/core/infrastructure/log"
	"github.com/weisyn/contract-transcode/pkg/interfaces/config"
	"github.com/weisyn/contract-transcode/pkg/interfaces/infrastructure/log"
)

// ModuleInput 产物加载模块的输入依赖
type ModuleInput struct {
	fx.In

	Provider config.Provider
	Logger   log.Logger `optional:"true"`
}

// Module 产物加载模块的fx选项
func Module() fx.Option {
	return fx.Module("artifacts",
		fx.Provide(ProvideLoader),
	)
}

// ProvideLoader 按配置创建加载器
func ProvideLoader(in ModuleInput) (*Loader, error) {
	return NewLoader(
		in.Provider.GetArtifacts(),
		in.Provider.GetTranscode(),
		logimpl.NewModuleLogger(in.Logger, "artifacts"),
	)
}
