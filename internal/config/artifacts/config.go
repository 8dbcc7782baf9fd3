package artifacts

import (
	"strings"

	"github.com/weisyn/contract-transcode/pkg/types"
)

// ArtifactsOptions 合约产物加载配置选项
type ArtifactsOptions struct {
	CacheSize  int      `json:"cache_size"` // 转码器缓存条目数
	Extensions []string `json:"extensions"` // 允许的元数据文件扩展名（小写，带点）
}

// Config 产物加载配置实现
type Config struct {
	options *ArtifactsOptions
}

// New 创建产物加载配置实现
func New(userConfig *types.UserArtifactsConfig) *Config {
	options := &ArtifactsOptions{
		CacheSize:  defaultCacheSize,
		Extensions: append([]string(nil), defaultExtensions...),
	}
	if userConfig != nil {
		if userConfig.CacheSize != nil && *userConfig.CacheSize > 0 {
			options.CacheSize = *userConfig.CacheSize
		}
		if len(userConfig.Extensions) > 0 {
			options.Extensions = normalizeExtensions(userConfig.Extensions)
		}
	}
	return &Config{options: options}
}

// normalizeExtensions 统一为小写并补全前导点
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

// GetOptions 获取完整的产物加载配置选项
func (c *Config) GetOptions() *ArtifactsOptions {
	return c.options
}

// Allows 扩展名是否在允许列表中
func (o *ArtifactsOptions) Allows(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range o.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}
