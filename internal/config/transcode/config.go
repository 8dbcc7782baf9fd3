package transcode

import (
	"github.com/weisyn/contract-transcode/pkg/types"
)

// TranscodeOptions 编解码配置选项
type TranscodeOptions struct {
	SS58Prefix uint16 `json:"ss58_prefix"` // 账户地址的网络前缀
	EnvTypes   bool   `json:"env_types"`   // 是否启用环境类型的自定义编解码
	MaxDepth   int    `json:"max_depth"`   // 类型嵌套的最大深度
}

// Config 编解码配置实现
type Config struct {
	options *TranscodeOptions
}

// New 创建编解码配置实现
func New(userConfig *types.UserTranscodeConfig) *Config {
	options := createDefaultTranscodeOptions()
	if userConfig != nil {
		applyUserTranscodeConfig(options, userConfig)
	}
	return &Config{options: options}
}

func createDefaultTranscodeOptions() *TranscodeOptions {
	return &TranscodeOptions{
		SS58Prefix: defaultSS58Prefix,
		EnvTypes:   defaultEnvTypes,
		MaxDepth:   defaultMaxDepth,
	}
}

// applyUserTranscodeConfig 只覆盖配置文件中出现的字段，越界值保留默认值
func applyUserTranscodeConfig(options *TranscodeOptions, userConfig *types.UserTranscodeConfig) {
	if userConfig.SS58Prefix != nil && *userConfig.SS58Prefix <= maxSS58Prefix {
		options.SS58Prefix = *userConfig.SS58Prefix
	}
	if userConfig.EnvTypes != nil {
		options.EnvTypes = *userConfig.EnvTypes
	}
	if userConfig.MaxDepth != nil && *userConfig.MaxDepth > 0 {
		options.MaxDepth = *userConfig.MaxDepth
	}
}

// GetOptions 获取完整的编解码配置选项
func (c *Config) GetOptions() *TranscodeOptions {
	return c.options
}

// MaxSS58Prefix SS58 前缀上限
func MaxSS58Prefix() uint16 {
	return maxSS58Prefix
}
