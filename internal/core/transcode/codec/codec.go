// Package codec 实现由类型注册表驱动的 SCALE 编解码
//
// 编码：(scon.Value, 类型 id) → 字节；解码：(字节游标, 类型 id) → scon.Value。
// Codec 构造后只读，可被多个 goroutine 并发使用；编解码过程不做任何 I/O。
package codec

import (
	"strings"

	"github.com/weisyn/contract-transcode/internal/core/transcode/registry"
	"github.com/weisyn/contract-transcode/internal/core/transcode/scon"
)

// DefaultMaxDepth 默认最大递归深度
const DefaultMaxDepth = 256

// CustomTypeEncoder 自定义类型编码器，将值追加编码到 dst
type CustomTypeEncoder interface {
	Encode(dst []byte, v scon.Value) ([]byte, error)
}

// CustomTypeDecoder 自定义类型解码器
type CustomTypeDecoder interface {
	Decode(in *Input) (scon.Value, error)
}

// Codec 编解码器
type Codec struct {
	reg      *registry.Registry
	encoders map[registry.TypeID]CustomTypeEncoder
	decoders map[registry.TypeID]CustomTypeDecoder
	maxDepth int
}

type options struct {
	pathEncoders map[string]CustomTypeEncoder
	pathDecoders map[string]CustomTypeDecoder
	idEncoders   map[registry.TypeID]CustomTypeEncoder
	idDecoders   map[registry.TypeID]CustomTypeDecoder
	maxDepth     int
}

// Option 编解码器选项
type Option func(*options)

// WithPathEncoder 为指定路径的类型注册自定义编码器
func WithPathEncoder(path []string, enc CustomTypeEncoder) Option {
	return func(o *options) { o.pathEncoders[strings.Join(path, "::")] = enc }
}

// WithPathDecoder 为指定路径的类型注册自定义解码器
func WithPathDecoder(path []string, dec CustomTypeDecoder) Option {
	return func(o *options) { o.pathDecoders[strings.Join(path, "::")] = dec }
}

// WithTypeEncoder 为指定 id 注册自定义编码器，优先于路径匹配
func WithTypeEncoder(id registry.TypeID, enc CustomTypeEncoder) Option {
	return func(o *options) { o.idEncoders[id] = enc }
}

// WithTypeDecoder 为指定 id 注册自定义解码器，优先于路径匹配
func WithTypeDecoder(id registry.TypeID, dec CustomTypeDecoder) Option {
	return func(o *options) { o.idDecoders[id] = dec }
}

// WithMaxDepth 设置最大递归深度
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

// New 创建编解码器
func New(reg *registry.Registry, opts ...Option) *Codec {
	o := &options{
		pathEncoders: make(map[string]CustomTypeEncoder),
		pathDecoders: make(map[string]CustomTypeDecoder),
		idEncoders:   make(map[registry.TypeID]CustomTypeEncoder),
		idDecoders:   make(map[registry.TypeID]CustomTypeDecoder),
		maxDepth:     DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(o)
	}

	c := &Codec{
		reg:      reg,
		encoders: make(map[registry.TypeID]CustomTypeEncoder),
		decoders: make(map[registry.TypeID]CustomTypeDecoder),
		maxDepth: o.maxDepth,
	}
	if len(o.pathEncoders) > 0 || len(o.pathDecoders) > 0 {
		for _, id := range reg.IDs() {
			ty, _ := reg.Resolve(id)
			path := ty.PathString()
			if path == "" {
				continue
			}
			if enc, ok := o.pathEncoders[path]; ok {
				c.encoders[id] = enc
			}
			if dec, ok := o.pathDecoders[path]; ok {
				c.decoders[id] = dec
			}
		}
	}
	for id, enc := range o.idEncoders {
		c.encoders[id] = enc
	}
	for id, dec := range o.idDecoders {
		c.decoders[id] = dec
	}
	return c
}

// Registry 返回底层注册表
func (c *Codec) Registry() *registry.Registry { return c.reg }

// Encode 使用默认选项编码
func Encode(reg *registry.Registry, v scon.Value, id registry.TypeID) ([]byte, error) {
	return New(reg).Encode(v, id)
}

// Decode 使用默认选项解码，要求消费全部输入
func Decode(reg *registry.Registry, id registry.TypeID, data []byte) (scon.Value, error) {
	return New(reg).Decode(id, data)
}
