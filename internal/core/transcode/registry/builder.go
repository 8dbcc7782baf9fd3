package registry

import (
	"strings"

	"github.com/weisyn/contract-transcode/pkg/types"
)

// Builder 以代码方式构造类型列表，id 按添加顺序从 0 递增
//
// 相同路径的具名类型与相同形状的匿名基础类型只登记一次。
type Builder struct {
	types []types.PortableType
	prims map[string]TypeID
}

// NewBuilder 创建空的构造器
func NewBuilder() *Builder {
	return &Builder{prims: make(map[string]TypeID)}
}

// NamedField 具名字段
func NamedField(name string, id TypeID) types.FieldDef {
	n := name
	return types.FieldDef{Name: &n, Type: id}
}

// UnnamedField 位置字段
func UnnamedField(id TypeID) types.FieldDef {
	return types.FieldDef{Type: id}
}

// Case 枚举分支
func Case(name string, index uint8, fields ...types.FieldDef) types.VariantCaseDef {
	return types.VariantCaseDef{Name: name, Index: index, Fields: fields}
}

func (b *Builder) add(path string, def types.TypeDefinition, params ...types.TypeParameter) TypeID {
	id := TypeID(len(b.types))
	var segs []string
	if path != "" {
		segs = strings.Split(path, "::")
	}
	b.types = append(b.types, types.PortableType{
		ID:   id,
		Type: types.TypeDescriptor{Path: segs, Params: params, Def: def},
	})
	return id
}

// Primitive 基础类型，重复调用返回同一 id
func (b *Builder) Primitive(name string) TypeID {
	if id, ok := b.prims[name]; ok {
		return id
	}
	n := name
	id := b.add("", types.TypeDefinition{Primitive: &n})
	b.prims[name] = id
	return id
}

// Composite 结构体，path 以 :: 分隔
func (b *Builder) Composite(path string, fields ...types.FieldDef) TypeID {
	return b.add(path, types.TypeDefinition{Composite: &types.CompositeDef{Fields: fields}})
}

// Variant 枚举
func (b *Builder) Variant(path string, cases ...types.VariantCaseDef) TypeID {
	return b.add(path, types.TypeDefinition{Variant: &types.VariantDef{Variants: cases}})
}

// Option 形如 Option<T> 的枚举（None=0, Some=1）
func (b *Builder) Option(inner TypeID) TypeID {
	param := inner
	return b.add("Option", types.TypeDefinition{Variant: &types.VariantDef{Variants: []types.VariantCaseDef{
		Case("None", 0),
		Case("Some", 1, UnnamedField(inner)),
	}}}, types.TypeParameter{Name: "T", Type: &param})
}

// Result 形如 Result<T, E> 的枚举（Ok=0, Err=1）
func (b *Builder) Result(ok, errType TypeID) TypeID {
	okParam, errParam := ok, errType
	return b.add("Result", types.TypeDefinition{Variant: &types.VariantDef{Variants: []types.VariantCaseDef{
		Case("Ok", 0, UnnamedField(ok)),
		Case("Err", 1, UnnamedField(errType)),
	}}}, types.TypeParameter{Name: "T", Type: &okParam}, types.TypeParameter{Name: "E", Type: &errParam})
}

// Sequence 变长序列
func (b *Builder) Sequence(elem TypeID) TypeID {
	return b.add("", types.TypeDefinition{Sequence: &types.SequenceDef{Type: elem}})
}

// Array 定长数组
func (b *Builder) Array(elem TypeID, n uint32) TypeID {
	return b.add("", types.TypeDefinition{Array: &types.ArrayDef{Type: elem, Len: n}})
}

// Tuple 元组
func (b *Builder) Tuple(elems ...TypeID) TypeID {
	list := append([]TypeID{}, elems...)
	return b.add("", types.TypeDefinition{Tuple: &list})
}

// Compact 紧凑整数
func (b *Builder) Compact(inner TypeID) TypeID {
	return b.add("", types.TypeDefinition{Compact: &types.CompactDef{Type: inner}})
}

// Reserve 预留一个 id，用于构造递归类型，之后通过 Define 填充
func (b *Builder) Reserve(path string) TypeID {
	return b.add(path, types.TypeDefinition{})
}

// Define 填充预留的类型定义
func (b *Builder) Define(id TypeID, def types.TypeDefinition) {
	b.types[id].Type.Def = def
}

// Types 返回构造出的类型列表
func (b *Builder) Types() []types.PortableType {
	return append([]types.PortableType(nil), b.types...)
}

// Build 构造注册表
func (b *Builder) Build() (*Registry, error) {
	return New(b.types)
}

// MustBuild 构造失败时 panic，仅用于测试
func (b *Builder) MustBuild() *Registry {
	r, err := b.Build()
	if err != nil {
		panic(err)
	}
	return r
}
