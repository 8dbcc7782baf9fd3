package codec

import (
	"math/big"
	"strconv"
	"unicode/utf8"

	"github.com/weisyn/contract-transcode/internal/core/transcode/registry"
	"github.com/weisyn/contract-transcode/internal/core/transcode/scon"
)

// maxZeroSizedElems 零尺寸元素序列允许的最大长度
const maxZeroSizedElems = 1 << 16

// Decode 解码完整输入，剩余字节视为错误
func (c *Codec) Decode(id registry.TypeID, data []byte) (scon.Value, error) {
	in := NewInput(data)
	v, err := c.DecodeFrom(in, id)
	if err != nil {
		return scon.Value{}, err
	}
	if err := CheckFullyConsumed(in); err != nil {
		return scon.Value{}, err
	}
	return v, nil
}

// DecodeFrom 从游标解码一个值，允许剩余字节
func (c *Codec) DecodeFrom(in *Input, id registry.TypeID) (scon.Value, error) {
	return c.decode(in, id, 0)
}

// CheckFullyConsumed 检查游标已读完
func CheckFullyConsumed(in *Input) error {
	if n := in.Remaining(); n > 0 {
		return &Error{
			Kind:   ErrTrailingBytes,
			Offset: in.Offset(),
			Msg:    "input length was longer than expected by " + strconv.Itoa(n) + " byte(s)",
		}
	}
	return nil
}

func (c *Codec) decode(in *Input, id registry.TypeID, depth int) (scon.Value, error) {
	if depth > c.maxDepth {
		return scon.Value{}, typeError(ErrRecursionLimit, id, "type nested deeper than %d levels", c.maxDepth)
	}
	ty, err := c.reg.Resolve(id)
	if err != nil {
		return scon.Value{}, WrapResolutionError(id, err)
	}
	if dec, ok := c.decoders[id]; ok {
		v, err := dec.Decode(in)
		if err != nil {
			return scon.Value{}, WrapCustomError(id, err)
		}
		return v, nil
	}

	switch ty.Def.Kind {
	case registry.DefPrimitive:
		return decodePrimitive(in, ty)
	case registry.DefCompact:
		return c.decodeCompact(in, ty)
	case registry.DefComposite:
		return c.decodeFields(in, ty.Ident(), ty.Def.Fields, depth)
	case registry.DefVariant:
		return c.decodeVariant(in, ty, depth)
	case registry.DefSequence:
		return c.decodeSequence(in, ty, depth)
	case registry.DefArray:
		return c.decodeElems(in, ty.Def.Elem, int(ty.Def.Len), depth)
	case registry.DefTuple:
		if len(ty.Def.Elems) == 0 {
			return scon.Unit(), nil
		}
		elems := make([]scon.Value, 0, len(ty.Def.Elems))
		for i, elemID := range ty.Def.Elems {
			v, err := c.decode(in, elemID, depth+1)
			if err != nil {
				return scon.Value{}, withPath(err, "."+strconv.Itoa(i))
			}
			elems = append(elems, v)
		}
		return scon.Tuple("", elems...), nil
	}
	return scon.Value{}, typeError(ErrTypeMismatch, id, "%s types are not supported", ty.Def.Kind)
}

// ==================== 基础类型 ====================

func decodePrimitive(in *Input, ty *registry.Type) (scon.Value, error) {
	start := in.Offset()
	prim := ty.Def.Primitive
	switch prim {
	case registry.PrimBool:
		b, err := in.ReadByte()
		if err != nil {
			return scon.Value{}, err
		}
		switch b {
		case 0:
			return scon.Bool(false), nil
		case 1:
			return scon.Bool(true), nil
		}
		return scon.Value{}, &Error{Kind: ErrInvalidEncoding, TypeID: ty.ID, HasType: true, Offset: start,
			Msg: "bool byte must be 0 or 1, found " + strconv.Itoa(int(b))}
	case registry.PrimChar:
		b, err := in.ReadN(4)
		if err != nil {
			return scon.Value{}, err
		}
		r := rune(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
		if !utf8.ValidRune(r) {
			return scon.Value{}, &Error{Kind: ErrInvalidEncoding, TypeID: ty.ID, HasType: true, Offset: start,
				Msg: "invalid unicode code point"}
		}
		return scon.Char(r), nil
	case registry.PrimStr:
		n, err := DecodeCompactLen(in)
		if err != nil {
			return scon.Value{}, err
		}
		b, err := in.ReadN(n)
		if err != nil {
			return scon.Value{}, err
		}
		if !utf8.Valid(b) {
			return scon.Value{}, &Error{Kind: ErrInvalidEncoding, TypeID: ty.ID, HasType: true, Offset: start,
				Msg: "string is not valid UTF-8"}
		}
		return scon.String(string(b)), nil
	}

	width := prim.Bits() / 8
	le, err := in.ReadN(width)
	if err != nil {
		return scon.Value{}, err
	}
	n := leToBig(le)
	if !prim.Signed() {
		return scon.UInt(n), nil
	}
	if le[width-1]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(width*8)))
	}
	return scon.Int(n), nil
}

func leToBig(le []byte) *big.Int {
	be := make([]byte, len(le))
	for i := range le {
		be[len(le)-1-i] = le[i]
	}
	return new(big.Int).SetBytes(be)
}

// ==================== 紧凑整数 ====================

func (c *Codec) decodeCompact(in *Input, ty *registry.Type) (scon.Value, error) {
	start := in.Offset()
	n, err := DecodeCompact(in)
	if err != nil {
		return scon.Value{}, err
	}

	// 记录外层单字段结构体，解码后按相同形状包装
	var wrappers []*registry.Type
	inner, err := c.reg.Resolve(ty.Def.Elem)
	if err != nil {
		return scon.Value{}, WrapResolutionError(ty.Def.Elem, err)
	}
	for inner.Def.Kind == registry.DefComposite && len(inner.Def.Fields) == 1 {
		if len(wrappers) > c.maxDepth {
			return scon.Value{}, typeError(ErrRecursionLimit, ty.ID, "compact wrapper nested too deeply")
		}
		wrappers = append(wrappers, inner)
		next := inner.Def.Fields[0].Type
		if inner, err = c.reg.Resolve(next); err != nil {
			return scon.Value{}, WrapResolutionError(next, err)
		}
	}
	if inner.Def.Kind != registry.DefPrimitive || !inner.Def.Primitive.IsInteger() || inner.Def.Primitive.Signed() {
		return scon.Value{}, typeError(ErrTypeMismatch, ty.ID, "compact encoding requires an unsigned integer, found %s", inner.Def.Kind)
	}
	if n.BitLen() > inner.Def.Primitive.Bits() {
		return scon.Value{}, &Error{Kind: ErrInvalidEncoding, TypeID: ty.ID, HasType: true, Offset: start,
			Msg: "compact value " + n.String() + " does not fit in " + inner.Def.Primitive.String()}
	}

	v := scon.UInt(n)
	for i := len(wrappers) - 1; i >= 0; i-- {
		w := wrappers[i]
		if f := w.Def.Fields[0]; f.Name != "" {
			v = scon.Map(w.Ident(), scon.F(f.Name, v))
		} else {
			v = scon.Tuple(w.Ident(), v)
		}
	}
	return v, nil
}

// ==================== 结构体与枚举 ====================

func (c *Codec) decodeFields(in *Input, ident string, fields []registry.Field, depth int) (scon.Value, error) {
	if len(fields) == 0 {
		return scon.Tuple(ident), nil
	}
	named := registry.HasNamedFields(fields)
	values := make([]scon.Value, 0, len(fields))
	for i, f := range fields {
		v, err := c.decode(in, f.Type, depth+1)
		if err != nil {
			return scon.Value{}, withPath(err, fieldSegment(f, i))
		}
		values = append(values, v)
	}
	if !named {
		return scon.Tuple(ident, values...), nil
	}
	entries := make([]scon.Field, len(fields))
	for i, f := range fields {
		entries[i] = scon.F(f.Name, values[i])
	}
	return scon.Map(ident, entries...), nil
}

func (c *Codec) decodeVariant(in *Input, ty *registry.Type, depth int) (scon.Value, error) {
	start := in.Offset()
	index, err := in.ReadByte()
	if err != nil {
		return scon.Value{}, err
	}
	vc, ok := ty.Def.VariantByIndex(index)
	if !ok {
		return scon.Value{}, &Error{Kind: ErrVariantNotFound, TypeID: ty.ID, HasType: true, Offset: start,
			Msg: "discriminant " + strconv.Itoa(int(index)) + " does not match any variant of " + describe(ty)}
	}
	if IsOptionShaped(ty) {
		if vc.Name == "None" {
			return scon.None(), nil
		}
		inner, err := c.decode(in, vc.Fields[0].Type, depth+1)
		if err != nil {
			return scon.Value{}, withPath(err, "::Some")
		}
		return scon.Some(inner), nil
	}
	v, err := c.decodeFields(in, vc.Name, vc.Fields, depth)
	if err != nil {
		return scon.Value{}, withPath(err, "::"+vc.Name)
	}
	return v, nil
}

// IsOptionShaped 判断枚举是否为 None / Some(T) 两个分支的可选类型
func IsOptionShaped(ty *registry.Type) bool {
	if ty.Def.Kind != registry.DefVariant || len(ty.Def.Variants) != 2 {
		return false
	}
	none, ok := ty.Def.VariantByName("None")
	if !ok || len(none.Fields) != 0 {
		return false
	}
	some, ok := ty.Def.VariantByName("Some")
	return ok && len(some.Fields) == 1 && some.Fields[0].Name == ""
}

// ==================== 序列与数组 ====================

func (c *Codec) decodeSequence(in *Input, ty *registry.Type, depth int) (scon.Value, error) {
	start := in.Offset()
	n, err := DecodeCompactLen(in)
	if err != nil {
		return scon.Value{}, err
	}
	if n > in.Remaining() {
		if !c.isZeroSized(ty.Def.Elem, 0) {
			return scon.Value{}, &Error{Kind: ErrUnexpectedEnd, TypeID: ty.ID, HasType: true, Offset: start,
				Msg: "sequence length " + strconv.Itoa(n) + " exceeds remaining input"}
		}
		if n > maxZeroSizedElems {
			return scon.Value{}, &Error{Kind: ErrInvalidEncoding, TypeID: ty.ID, HasType: true, Offset: start,
				Msg: "sequence of zero-sized elements is too long"}
		}
	}
	return c.decodeElems(in, ty.Def.Elem, n, depth)
}

func (c *Codec) decodeElems(in *Input, elemID registry.TypeID, n, depth int) (scon.Value, error) {
	capHint := n
	if capHint > in.Remaining()+1 {
		capHint = in.Remaining() + 1
	}
	elems := make([]scon.Value, 0, capHint)
	for i := 0; i < n; i++ {
		v, err := c.decode(in, elemID, depth+1)
		if err != nil {
			return scon.Value{}, withPath(err, "["+strconv.Itoa(i)+"]")
		}
		elems = append(elems, v)
	}
	return scon.Seq(elems...), nil
}

// isZeroSized 类型编码是否恒为零字节
func (c *Codec) isZeroSized(id registry.TypeID, depth int) bool {
	if depth > c.maxDepth {
		return false
	}
	ty, err := c.reg.Resolve(id)
	if err != nil {
		return false
	}
	switch ty.Def.Kind {
	case registry.DefTuple:
		for _, e := range ty.Def.Elems {
			if !c.isZeroSized(e, depth+1) {
				return false
			}
		}
		return true
	case registry.DefComposite:
		for _, f := range ty.Def.Fields {
			if !c.isZeroSized(f.Type, depth+1) {
				return false
			}
		}
		return true
	case registry.DefArray:
		return ty.Def.Len == 0 || c.isZeroSized(ty.Def.Elem, depth+1)
	}
	return false
}
