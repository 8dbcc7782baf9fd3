// Package artifacts 加载合约编译产物（元数据 JSON、.contract 包）与节点类型注册表
//
// 构建好的转码器按文件身份（绝对路径、大小、修改时间）缓存，文件变化后自动重建。
package artifacts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	artifactsconfig "github.com/weisyn/contract-transcode/internal/config/artifacts"
	transcodeconfig "github.com/weisyn/contract-transcode/internal/config/transcode"
	"github.com/weisyn/contract-transcode/internal/core/transcode"
	"github.com/weisyn/contract-transcode/internal/core/transcode/registry"
	"github.com/weisyn/contract-transcode/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/contract-transcode/pkg/types"
)

var (
	// ErrUnsupportedExtension 文件扩展名不在允许列表中
	ErrUnsupportedExtension = errors.New("unsupported artifact extension")
	// ErrInvalidArtifact 文件内容不是可识别的元数据或类型注册表
	ErrInvalidArtifact = errors.New("invalid artifact")
)

// Stats 缓存统计
type Stats struct {
	CacheHits   uint64
	CacheMisses uint64
	Cached      int
}

type cacheKey struct {
	path    string
	size    int64
	modTime int64
}

// Loader 合约产物加载器，可并发使用
type Loader struct {
	logger  log.Logger
	options *artifactsconfig.ArtifactsOptions
	tcOpts  []transcode.Option
	cache   *lru.Cache[cacheKey, *transcode.ContractMessageTranscoder]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewLoader 创建加载器，logger 可为 nil
func NewLoader(options *artifactsconfig.ArtifactsOptions, tc *transcodeconfig.TranscodeOptions, logger log.Logger) (*Loader, error) {
	if options == nil {
		options = artifactsconfig.New(nil).GetOptions()
	}
	if tc == nil {
		tc = transcodeconfig.New(nil).GetOptions()
	}
	cache, err := lru.New[cacheKey, *transcode.ContractMessageTranscoder](options.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("创建转码器缓存失败: %w", err)
	}
	return &Loader{
		logger:  logger,
		options: options,
		tcOpts: []transcode.Option{
			transcode.WithSS58Prefix(tc.SS58Prefix),
			transcode.WithEnvTypes(tc.EnvTypes),
			transcode.WithMaxDepth(tc.MaxDepth),
		},
		cache: cache,
	}, nil
}

func (l *Loader) debugf(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Debugf(format, args...)
	}
}

// LoadMetadata 读取并解析元数据文件
func (l *Loader) LoadMetadata(path string) (*types.ContractMetadata, error) {
	if ext := filepath.Ext(path); !l.options.Allows(ext) {
		return nil, fmt.Errorf("%w: %q (allowed: %v)", ErrUnsupportedExtension, ext, l.options.Extensions)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	md, err := ParseMetadata(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	l.debugf("已加载合约元数据 path=%s types=%d messages=%d", path, len(md.Types), len(md.Spec.Messages))
	return md, nil
}

// ParseMetadata 解析元数据文档，兼容 {"V3": {...}} 包装的旧格式
func ParseMetadata(data []byte) (*types.ContractMetadata, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}

	var md types.ContractMetadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	// V3 文档的 spec 与 types 位于 V3 字段下，source/contract 仍在顶层
	if inner, ok := probe["V3"]; ok {
		if err := json.Unmarshal(inner, &md); err != nil {
			return nil, fmt.Errorf("%w: V3 section: %v", ErrInvalidArtifact, err)
		}
	}
	if len(md.Types) == 0 {
		return nil, fmt.Errorf("%w: document has no type registry", ErrInvalidArtifact)
	}
	return &md, nil
}

// LoadTranscoder 加载元数据并构建转码器，文件未变化时返回缓存的实例
func (l *Loader) LoadTranscoder(path string) (*transcode.ContractMessageTranscoder, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	key := cacheKey{path: abs, size: info.Size(), modTime: info.ModTime().UnixNano()}
	if t, ok := l.cache.Get(key); ok {
		l.hits.Add(1)
		l.debugf("转码器缓存命中 path=%s", abs)
		return t, nil
	}
	l.misses.Add(1)

	md, err := l.LoadMetadata(abs)
	if err != nil {
		return nil, err
	}
	t, err := transcode.New(md, l.tcOpts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	l.cache.Add(key, t)
	return t, nil
}

// LoadRegistry 读取独立的类型注册表文件
//
// 接受三种形态：类型数组 [{id,type}]、{"types": [...]} 以及节点元数据的 {"lookup": {"types": [...]}}。
func (l *Loader) LoadRegistry(path string) (*registry.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	portable, err := ParseRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	reg, err := registry.New(portable)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	l.debugf("已加载类型注册表 path=%s types=%d", path, reg.Len())
	return reg, nil
}

// ParseRegistry 解析类型注册表文档
func ParseRegistry(data []byte) ([]types.PortableType, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var portable []types.PortableType
		if err := json.Unmarshal(data, &portable); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
		}
		return portable, nil
	}

	var doc struct {
		Types  []types.PortableType `json:"types"`
		Lookup *struct {
			Types []types.PortableType `json:"types"`
		} `json:"lookup"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	switch {
	case len(doc.Types) > 0:
		return doc.Types, nil
	case doc.Lookup != nil && len(doc.Lookup.Types) > 0:
		return doc.Lookup.Types, nil
	}
	return nil, fmt.Errorf("%w: document has no type registry", ErrInvalidArtifact)
}

// Stats 返回缓存统计
func (l *Loader) Stats() Stats {
	return Stats{
		CacheHits:   l.hits.Load(),
		CacheMisses: l.misses.Load(),
		Cached:      l.cache.Len(),
	}
}

// Purge 清空转码器缓存
func (l *Loader) Purge() {
	l.cache.Purge()
}
