// Package types provides configuration type definitions.
package types

// AppConfig 应用程序根配置
// 只包含JSON配置文件解析所需的结构，不包含任何内部字段
// 默认值和完整配置结构在 internal/config/*/defaults.go 和 internal/config/*/config.go 中定义
type AppConfig struct {
	// 应用名称
	AppName *string `json:"app_name,omitempty"`

	// Environment 运行环境：dev | test | prod
	Environment *string `json:"environment,omitempty"`

	// 日志配置
	Log *UserLogConfig `json:"log,omitempty"`

	// 编解码配置 - 对应配置文件中的 transcode 字段
	Transcode *UserTranscodeConfig `json:"transcode,omitempty"`

	// 合约产物加载配置 - 对应配置文件中的 artifacts 字段
	Artifacts *UserArtifactsConfig `json:"artifacts,omitempty"`
}

// UserLogConfig 用户日志配置
type UserLogConfig struct {
	Level     *string `json:"level,omitempty"`      // 日志级别：debug, info, warn, error, fatal
	FilePath  *string `json:"file_path,omitempty"`  // 日志文件路径
	ToConsole *bool   `json:"to_console,omitempty"` // 是否输出到控制台(stderr)
}

// UserTranscodeConfig 用户编解码配置
type UserTranscodeConfig struct {
	// SS58Prefix 账户地址的网络前缀，0..16383
	SS58Prefix *uint16 `json:"ss58_prefix,omitempty"`

	// EnvTypes 是否启用 AccountId/Hash/H160/U256 等环境类型的自定义编解码
	EnvTypes *bool `json:"env_types,omitempty"`

	// MaxDepth 类型嵌套的最大深度
	MaxDepth *int `json:"max_depth,omitempty"`
}

// UserArtifactsConfig 用户合约产物加载配置
type UserArtifactsConfig struct {
	// CacheSize 已构建的转码器缓存条目数
	CacheSize *int `json:"cache_size,omitempty"`

	// Extensions 允许加载的元数据文件扩展名，如 [".json", ".contract"]
	Extensions []string `json:"extensions,omitempty"`
}

// 配置辅助函数
// 这些函数帮助创建指针类型的配置值，区分"未设置"和"设置为零值"

// BoolPtr 创建bool指针，用于明确表示用户设置了该值
func BoolPtr(v bool) *bool {
	return &v
}

// IntPtr 创建int指针，用于明确表示用户设置了该值
func IntPtr(v int) *int {
	return &v
}

// StringPtr 创建string指针，用于明确表示用户设置了该值
func StringPtr(v string) *string {
	return &v
}

// UInt16Ptr 创建uint16指针，用于明确表示用户设置了该值
func UInt16Ptr(v uint16) *uint16 {
	return &v
}
