// Package registry 提供合约元数据中的类型注册表
//
// 注册表是以数字 id 为索引的类型描述数组（arena），在加载时一次性构建，
// 此后只读，可被任意数量的编解码调用并发共享。类型之间只通过 id 互相引用，
// 允许经由结构体/枚举形成的循环。
package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/weisyn/contract-transcode/pkg/types"
)

// ErrResolution 引用的类型 id 不存在或注册表定义非法
var ErrResolution = errors.New("registry resolution error")

// TypeID 类型 id
type TypeID = uint32

// DefKind 类型定义种类
type DefKind uint8

const (
	DefPrimitive DefKind = iota
	DefCompact
	DefComposite
	DefVariant
	DefSequence
	DefArray
	DefTuple
	DefBitSequence
)

func (k DefKind) String() string {
	switch k {
	case DefPrimitive:
		return "primitive"
	case DefCompact:
		return "compact"
	case DefComposite:
		return "composite"
	case DefVariant:
		return "variant"
	case DefSequence:
		return "sequence"
	case DefArray:
		return "array"
	case DefTuple:
		return "tuple"
	case DefBitSequence:
		return "bitSequence"
	}
	return "unknown"
}

// Primitive 基础类型
type Primitive uint8

const (
	PrimBool Primitive = iota
	PrimChar
	PrimStr
	PrimU8
	PrimU16
	PrimU32
	PrimU64
	PrimU128
	PrimU256
	PrimI8
	PrimI16
	PrimI32
	PrimI64
	PrimI128
	PrimI256
)

var primitiveNames = map[string]Primitive{
	"bool": PrimBool, "char": PrimChar, "str": PrimStr,
	"u8": PrimU8, "u16": PrimU16, "u32": PrimU32, "u64": PrimU64, "u128": PrimU128, "u256": PrimU256,
	"i8": PrimI8, "i16": PrimI16, "i32": PrimI32, "i64": PrimI64, "i128": PrimI128, "i256": PrimI256,
}

// ParsePrimitive 解析 "u32" 形式的基础类型名
func ParsePrimitive(name string) (Primitive, bool) {
	p, ok := primitiveNames[name]
	return p, ok
}

func (p Primitive) String() string {
	for name, v := range primitiveNames {
		if v == p {
			return name
		}
	}
	return "unknown"
}

// IsInteger 是否为整数类型
func (p Primitive) IsInteger() bool { return p >= PrimU8 }

// Signed 是否为有符号整数
func (p Primitive) Signed() bool { return p >= PrimI8 }

// Bits 整数位宽，非整数返回 0
func (p Primitive) Bits() int {
	switch p {
	case PrimU8, PrimI8:
		return 8
	case PrimU16, PrimI16:
		return 16
	case PrimU32, PrimI32:
		return 32
	case PrimU64, PrimI64:
		return 64
	case PrimU128, PrimI128:
		return 128
	case PrimU256, PrimI256:
		return 256
	}
	return 0
}

// Field 结构体或枚举分支的字段，Name 为空表示位置字段
type Field struct {
	Name     string
	Type     TypeID
	TypeName string
}

// Variant 枚举分支
type Variant struct {
	Name   string
	Index  uint8
	Fields []Field
}

// Param 泛型参数
type Param struct {
	Name  string
	Type  TypeID
	Bound bool
}

// Def 类型定义，按 Kind 读取对应字段
type Def struct {
	Kind      DefKind
	Primitive Primitive
	Fields    []Field   // composite
	Variants  []Variant // variant
	Elem      TypeID    // sequence / array / compact
	Len       uint32    // array
	Elems     []TypeID  // tuple
}

// Type 注册表中的一个类型
type Type struct {
	ID     TypeID
	Path   []string
	Params []Param
	Def    Def
	Docs   []string
}

// Ident 路径最后一段，匿名类型返回空串
func (t *Type) Ident() string {
	if len(t.Path) == 0 {
		return ""
	}
	return t.Path[len(t.Path)-1]
}

// PathString 以 :: 连接的完整路径
func (t *Type) PathString() string { return strings.Join(t.Path, "::") }

// HasNamedFields 结构体字段是否全部具名（空字段列表返回 false）
func HasNamedFields(fields []Field) bool {
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if f.Name == "" {
			return false
		}
	}
	return true
}

// VariantByName 按名称查找分支
func (d *Def) VariantByName(name string) (*Variant, bool) {
	for i := range d.Variants {
		if d.Variants[i].Name == name {
			return &d.Variants[i], true
		}
	}
	return nil, false
}

// VariantByIndex 按判别值查找分支
func (d *Def) VariantByIndex(index uint8) (*Variant, bool) {
	for i := range d.Variants {
		if d.Variants[i].Index == index {
			return &d.Variants[i], true
		}
	}
	return nil, false
}

// Registry 只读类型注册表
type Registry struct {
	types []Type
	index map[TypeID]int
}

// New 由元数据中的类型列表构建注册表
//
// 重复 id、未知的基础类型以及指向不存在 id 的引用都会在加载时报错。
func New(portable []types.PortableType) (*Registry, error) {
	r := &Registry{
		types: make([]Type, 0, len(portable)),
		index: make(map[TypeID]int, len(portable)),
	}
	for _, pt := range portable {
		if _, dup := r.index[pt.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate type id %d", ErrResolution, pt.ID)
		}
		t, err := convertType(pt)
		if err != nil {
			return nil, err
		}
		r.index[pt.ID] = len(r.types)
		r.types = append(r.types, t)
	}
	for i := range r.types {
		if err := r.checkRefs(&r.types[i]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func convertType(pt types.PortableType) (Type, error) {
	t := Type{
		ID:   pt.ID,
		Path: append([]string(nil), pt.Type.Path...),
		Docs: pt.Type.Docs,
	}
	for _, p := range pt.Type.Params {
		param := Param{Name: p.Name}
		if p.Type != nil {
			param.Type = *p.Type
			param.Bound = true
		}
		t.Params = append(t.Params, param)
	}

	def := pt.Type.Def
	switch {
	case def.Primitive != nil:
		prim, ok := ParsePrimitive(*def.Primitive)
		if !ok {
			return Type{}, fmt.Errorf("%w: type %d: unknown primitive %q", ErrResolution, pt.ID, *def.Primitive)
		}
		t.Def = Def{Kind: DefPrimitive, Primitive: prim}
	case def.Composite != nil:
		t.Def = Def{Kind: DefComposite, Fields: convertFields(def.Composite.Fields)}
	case def.Variant != nil:
		t.Def = Def{Kind: DefVariant}
		for _, v := range def.Variant.Variants {
			t.Def.Variants = append(t.Def.Variants, Variant{
				Name:   v.Name,
				Index:  v.Index,
				Fields: convertFields(v.Fields),
			})
		}
	case def.Sequence != nil:
		t.Def = Def{Kind: DefSequence, Elem: def.Sequence.Type}
	case def.Array != nil:
		t.Def = Def{Kind: DefArray, Elem: def.Array.Type, Len: def.Array.Len}
	case def.Tuple != nil:
		t.Def = Def{Kind: DefTuple, Elems: append([]TypeID{}, (*def.Tuple)...)}
	case def.Compact != nil:
		t.Def = Def{Kind: DefCompact, Elem: def.Compact.Type}
	case def.BitSequence != nil:
		t.Def = Def{Kind: DefBitSequence}
	default:
		return Type{}, fmt.Errorf("%w: type %d has no definition", ErrResolution, pt.ID)
	}
	return t, nil
}

func convertFields(defs []types.FieldDef) []Field {
	fields := make([]Field, 0, len(defs))
	for _, f := range defs {
		field := Field{Type: f.Type, TypeName: f.TypeName}
		if f.Name != nil {
			field.Name = *f.Name
		}
		fields = append(fields, field)
	}
	return fields
}

func (r *Registry) checkRefs(t *Type) error {
	check := func(id TypeID) error {
		if _, ok := r.index[id]; !ok {
			return fmt.Errorf("%w: type %d references missing type %d", ErrResolution, t.ID, id)
		}
		return nil
	}
	for _, p := range t.Params {
		if p.Bound {
			if err := check(p.Type); err != nil {
				return err
			}
		}
	}
	switch t.Def.Kind {
	case DefComposite:
		for _, f := range t.Def.Fields {
			if err := check(f.Type); err != nil {
				return err
			}
		}
	case DefVariant:
		for _, v := range t.Def.Variants {
			for _, f := range v.Fields {
				if err := check(f.Type); err != nil {
					return err
				}
			}
		}
	case DefSequence, DefArray, DefCompact:
		return check(t.Def.Elem)
	case DefTuple:
		for _, id := range t.Def.Elems {
			if err := check(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// Resolve 按 id 查找类型
func (r *Registry) Resolve(id TypeID) (*Type, error) {
	i, ok := r.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: type id %d not found", ErrResolution, id)
	}
	return &r.types[i], nil
}

// Len 类型数量
func (r *Registry) Len() int { return len(r.types) }

// IDs 按加载顺序返回全部 id
func (r *Registry) IDs() []TypeID {
	ids := make([]TypeID, len(r.types))
	for i := range r.types {
		ids[i] = r.types[i].ID
	}
	return ids
}

// FindByPath 按完整路径查找类型
func (r *Registry) FindByPath(segments ...string) (*Type, bool) {
	for i := range r.types {
		if pathEqual(r.types[i].Path, segments) {
			return &r.types[i], true
		}
	}
	return nil, false
}

// FindByIdent 按路径最后一段查找第一个匹配的类型
func (r *Registry) FindByIdent(ident string) (*Type, bool) {
	for i := range r.types {
		if r.types[i].Ident() == ident {
			return &r.types[i], true
		}
	}
	return nil, false
}

func pathEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
