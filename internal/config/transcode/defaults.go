package transcode

// 编解码配置默认值
const (
	// defaultSS58Prefix 通用 Substrate 网络前缀
	defaultSS58Prefix uint16 = 42

	// defaultEnvTypes 默认启用环境类型的自定义编解码
	defaultEnvTypes = true

	// defaultMaxDepth 类型嵌套的最大深度
	defaultMaxDepth = 128

	// maxSS58Prefix SS58 两字节前缀可表示的最大值
	maxSS58Prefix uint16 = 16383
)
