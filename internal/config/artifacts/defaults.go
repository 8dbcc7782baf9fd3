package artifacts

// 产物加载配置默认值
const (
	// defaultCacheSize 缓存的转码器个数
	defaultCacheSize = 32
)

// defaultExtensions 默认允许的元数据文件扩展名
var defaultExtensions = []string{".json", ".contract"}
