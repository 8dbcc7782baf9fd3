package codec

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/weisyn/contract-transcode/internal/core/transcode/registry"
	"github.com/weisyn/contract-transcode/internal/core/transcode/scon"
)

// Encode 将值按类型 id 编码；出错时不返回部分结果
func (c *Codec) Encode(v scon.Value, id registry.TypeID) ([]byte, error) {
	out, err := c.encode(nil, v, id, 0)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

// EncodeTo 追加编码到 dst，出错时返回原 dst
func (c *Codec) EncodeTo(dst []byte, v scon.Value, id registry.TypeID) ([]byte, error) {
	out, err := c.encode(dst, v, id, 0)
	if err != nil {
		return dst, err
	}
	return out, nil
}

func (c *Codec) encode(dst []byte, v scon.Value, id registry.TypeID, depth int) ([]byte, error) {
	if depth > c.maxDepth {
		return dst, typeError(ErrRecursionLimit, id, "value nested deeper than %d levels", c.maxDepth)
	}
	ty, err := c.reg.Resolve(id)
	if err != nil {
		return dst, WrapResolutionError(id, err)
	}
	if enc, ok := c.encoders[id]; ok {
		out, err := enc.Encode(dst, v)
		if err != nil {
			return dst, WrapCustomError(id, err)
		}
		return out, nil
	}

	switch ty.Def.Kind {
	case registry.DefPrimitive:
		return encodePrimitive(dst, v, ty)
	case registry.DefCompact:
		return c.encodeCompact(dst, v, ty)
	case registry.DefComposite:
		return c.encodeFields(dst, v, ty.Def.Fields, ty, depth)
	case registry.DefVariant:
		return c.encodeVariant(dst, v, ty, depth)
	case registry.DefSequence:
		return c.encodeSequence(dst, v, ty, depth)
	case registry.DefArray:
		return c.encodeArray(dst, v, ty, depth)
	case registry.DefTuple:
		return c.encodeTuple(dst, v, ty, depth)
	}
	return dst, typeError(ErrTypeMismatch, id, "%s types are not supported", ty.Def.Kind)
}

// ==================== 基础类型 ====================

func encodePrimitive(dst []byte, v scon.Value, ty *registry.Type) ([]byte, error) {
	prim := ty.Def.Primitive
	switch prim {
	case registry.PrimBool:
		b, ok := v.AsBool()
		if !ok {
			return dst, mismatch(ty, "bool", v)
		}
		if b {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil
	case registry.PrimChar:
		r, ok := v.AsChar()
		if !ok {
			if s, isStr := v.AsString(); isStr && utf8.RuneCountInString(s) == 1 {
				r, _ = utf8.DecodeRuneInString(s)
			} else {
				return dst, mismatch(ty, "char", v)
			}
		}
		return appendLE(dst, big.NewInt(int64(r)), 4), nil
	case registry.PrimStr:
		s, ok := v.AsString()
		if !ok {
			return dst, mismatch(ty, "string", v)
		}
		dst = AppendCompactUint64(dst, uint64(len(s)))
		return append(dst, s...), nil
	}

	n, err := integerOf(v, prim, ty)
	if err != nil {
		return dst, err
	}
	if err := checkRange(n, prim, ty.ID); err != nil {
		return dst, err
	}
	return appendLE(dst, n, prim.Bits()/8), nil
}

// integerOf 取出整数值，接受 UInt/Int、带分隔符的十进制字符串以及（无符号时）大端字节
func integerOf(v scon.Value, prim registry.Primitive, ty *registry.Type) (*big.Int, error) {
	if n, ok := v.AsBigInt(); ok {
		return n, nil
	}
	switch v.Kind() {
	case scon.KindString:
		s, _ := v.AsString()
		clean := strings.NewReplacer("_", "", ",", "").Replace(strings.TrimSpace(s))
		n, ok := new(big.Int).SetString(clean, 10)
		if !ok {
			return nil, typeError(ErrTypeMismatch, ty.ID, "expected %s, found non-numeric string %q", prim, s)
		}
		return n, nil
	case scon.KindBytes:
		if prim.Signed() {
			break
		}
		b, _ := v.AsBytes()
		if len(b) > prim.Bits()/8 {
			return nil, typeError(ErrIntegerOverflow, ty.ID, "%d bytes do not fit in %s", len(b), prim)
		}
		return new(big.Int).SetBytes(b), nil
	}
	return nil, mismatch(ty, prim.String(), v)
}

func checkRange(n *big.Int, prim registry.Primitive, id registry.TypeID) error {
	bits := prim.Bits()
	if !prim.Signed() {
		if n.Sign() < 0 || n.BitLen() > bits {
			return typeError(ErrIntegerOverflow, id, "%s does not fit in %s", n, prim)
		}
		return nil
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
		return typeError(ErrIntegerOverflow, id, "%s does not fit in %s", n, prim)
	}
	return nil
}

// appendLE 追加定宽小端编码，负数按补码
func appendLE(dst []byte, n *big.Int, width int) []byte {
	u := n
	if n.Sign() < 0 {
		u = new(big.Int).Add(n, new(big.Int).Lsh(big.NewInt(1), uint(width*8)))
	}
	be := u.Bytes()
	for i := 0; i < width; i++ {
		if i < len(be) {
			dst = append(dst, be[len(be)-1-i])
		} else {
			dst = append(dst, 0)
		}
	}
	return dst
}

// ==================== 紧凑整数 ====================

func (c *Codec) encodeCompact(dst []byte, v scon.Value, ty *registry.Type) ([]byte, error) {
	inner, err := c.reg.Resolve(ty.Def.Elem)
	if err != nil {
		return dst, WrapResolutionError(ty.Def.Elem, err)
	}
	// 紧凑结构体：逐层剥开单字段结构体
	for depth := 0; inner.Def.Kind == registry.DefComposite && len(inner.Def.Fields) == 1; depth++ {
		if depth > c.maxDepth {
			return dst, typeError(ErrRecursionLimit, ty.ID, "compact wrapper nested too deeply")
		}
		if (v.Kind() == scon.KindMap || v.Kind() == scon.KindTuple) && v.Len() == 1 {
			if v.Kind() == scon.KindMap {
				v = v.Fields()[0].Value
			} else {
				v = v.Elems()[0]
			}
		}
		next := inner.Def.Fields[0].Type
		if inner, err = c.reg.Resolve(next); err != nil {
			return dst, WrapResolutionError(next, err)
		}
	}
	if inner.Def.Kind != registry.DefPrimitive || !inner.Def.Primitive.IsInteger() || inner.Def.Primitive.Signed() {
		return dst, typeError(ErrTypeMismatch, ty.ID, "compact encoding requires an unsigned integer, found %s", inner.Def.Kind)
	}
	n, err := integerOf(v, inner.Def.Primitive, inner)
	if err != nil {
		return dst, err
	}
	if err := checkRange(n, inner.Def.Primitive, ty.ID); err != nil {
		return dst, err
	}
	return AppendCompact(dst, n)
}

// ==================== 结构体与枚举 ====================

// encodeFields 按字段列表编码：Map 按名称，Tuple/Seq 按位置，单字段时透明
func (c *Codec) encodeFields(dst []byte, v scon.Value, fields []registry.Field, ty *registry.Type, depth int) ([]byte, error) {
	n := len(fields)
	if n == 0 {
		switch v.Kind() {
		case scon.KindUnit:
			return dst, nil
		case scon.KindTuple, scon.KindSeq, scon.KindMap:
			if v.Len() == 0 {
				return dst, nil
			}
			return dst, typeError(ErrLengthMismatch, ty.ID, "%s has no fields, found %d", describe(ty), v.Len())
		}
		return dst, mismatch(ty, "unit", v)
	}

	switch {
	case v.Kind() == scon.KindMap:
		out, err := c.encodeNamedFields(dst, v, fields, ty, depth)
		if err != nil && n == 1 && Kind(err) == ErrMissingField {
			if alt, altErr := c.encode(dst, v, fields[0].Type, depth+1); altErr == nil {
				return alt, nil
			}
		}
		return out, err
	case v.Kind() == scon.KindTuple && v.Len() == n:
		out, err := c.encodePositional(dst, v.Elems(), fields, depth)
		if err != nil && n == 1 && v.Ident() != "" && v.Ident() != ty.Ident() {
			// 值本身可能是唯一字段的内容，例如 Wrapper(Choice) 收到 A(5)
			alt, altErr := c.encode(dst, v, fields[0].Type, depth+1)
			if altErr == nil {
				return alt, nil
			}
			if Kind(err) == ErrTypeMismatch {
				return dst, withPath(altErr, fieldSegment(fields[0], 0))
			}
		}
		return out, err
	case n == 1:
		out, err := c.encode(dst, v, fields[0].Type, depth+1)
		if err != nil {
			return dst, withPath(err, fieldSegment(fields[0], 0))
		}
		return out, nil
	case v.Kind() == scon.KindSeq && v.Len() == n:
		return c.encodePositional(dst, v.Elems(), fields, depth)
	case v.Kind() == scon.KindTuple || v.Kind() == scon.KindSeq:
		return dst, typeError(ErrLengthMismatch, ty.ID, "%s expects %d fields, found %d", describe(ty), n, v.Len())
	}
	return dst, mismatch(ty, "struct", v)
}

func (c *Codec) encodeNamedFields(dst []byte, v scon.Value, fields []registry.Field, ty *registry.Type, depth int) ([]byte, error) {
	out := dst
	declared := make(map[string]bool, len(fields))
	for i, f := range fields {
		key := f.Name
		if key == "" {
			key = strconv.Itoa(i)
		}
		declared[key] = true
		fv, ok := v.Get(key)
		if !ok {
			return dst, typeError(ErrMissingField, ty.ID, "field %q of %s is missing", key, describe(ty))
		}
		var err error
		if out, err = c.encode(out, fv, f.Type, depth+1); err != nil {
			return dst, withPath(err, "."+key)
		}
	}
	for _, f := range v.Fields() {
		if !declared[f.Name] {
			return dst, typeError(ErrUnknownField, ty.ID, "%s has no field %q", describe(ty), f.Name)
		}
	}
	return out, nil
}

func (c *Codec) encodePositional(dst []byte, elems []scon.Value, fields []registry.Field, depth int) ([]byte, error) {
	out := dst
	for i, f := range fields {
		var err error
		if out, err = c.encode(out, elems[i], f.Type, depth+1); err != nil {
			return dst, withPath(err, fieldSegment(f, i))
		}
	}
	return out, nil
}

func (c *Codec) encodeVariant(dst []byte, v scon.Value, ty *registry.Type, depth int) ([]byte, error) {
	var name string
	payload := v
	switch v.Kind() {
	case scon.KindOption:
		if inner, ok := v.Unwrap(); ok {
			name, payload = "Some", scon.Tuple("Some", inner)
		} else {
			name, payload = "None", scon.Tuple("None")
		}
	case scon.KindTuple, scon.KindMap:
		name = v.Ident()
	case scon.KindString, scon.KindLiteral:
		// 无字段分支也可以写成字符串
		name, _ = v.AsString()
		payload = scon.Tuple(name)
	}
	if name == "" {
		return dst, mismatch(ty, "named variant", v)
	}

	vc, ok := ty.Def.VariantByName(name)
	if !ok {
		names := make([]string, 0, len(ty.Def.Variants))
		for _, alt := range ty.Def.Variants {
			names = append(names, alt.Name)
		}
		return dst, typeError(ErrVariantNotFound, ty.ID, "no variant %q in %s, expected one of [%s]",
			name, describe(ty), strings.Join(names, ", "))
	}
	out, err := c.encodeFields(append(dst, vc.Index), payload, vc.Fields, ty, depth)
	if err != nil {
		return dst, withPath(err, "::"+name)
	}
	return out, nil
}

// ==================== 序列、数组与元组 ====================

func (c *Codec) isByteType(id registry.TypeID) bool {
	ty, err := c.reg.Resolve(id)
	return err == nil && ty.Def.Kind == registry.DefPrimitive && ty.Def.Primitive == registry.PrimU8
}

func (c *Codec) encodeSequence(dst []byte, v scon.Value, ty *registry.Type, depth int) ([]byte, error) {
	switch v.Kind() {
	case scon.KindBytes:
		if !c.isByteType(ty.Def.Elem) {
			return dst, mismatch(ty, "sequence", v)
		}
		b, _ := v.AsBytes()
		return append(AppendCompactUint64(dst, uint64(len(b))), b...), nil
	case scon.KindSeq:
		out := AppendCompactUint64(dst, uint64(v.Len()))
		return c.encodeElems(dst, out, v.Elems(), ty.Def.Elem, depth)
	}
	return dst, mismatch(ty, "sequence", v)
}

func (c *Codec) encodeArray(dst []byte, v scon.Value, ty *registry.Type, depth int) ([]byte, error) {
	switch v.Kind() {
	case scon.KindBytes, scon.KindSeq:
	default:
		return dst, mismatch(ty, "array", v)
	}
	if v.Len() != int(ty.Def.Len) {
		return dst, typeError(ErrLengthMismatch, ty.ID, "array expects %d elements, found %d", ty.Def.Len, v.Len())
	}
	if v.Kind() == scon.KindBytes {
		if !c.isByteType(ty.Def.Elem) {
			return dst, mismatch(ty, "array", v)
		}
		b, _ := v.AsBytes()
		return append(dst, b...), nil
	}
	return c.encodeElems(dst, dst, v.Elems(), ty.Def.Elem, depth)
}

func (c *Codec) encodeTuple(dst []byte, v scon.Value, ty *registry.Type, depth int) ([]byte, error) {
	n := len(ty.Def.Elems)
	switch v.Kind() {
	case scon.KindUnit:
		if n == 0 {
			return dst, nil
		}
		return dst, typeError(ErrLengthMismatch, ty.ID, "tuple expects %d elements, found 0", n)
	case scon.KindTuple, scon.KindSeq:
	default:
		return dst, mismatch(ty, "tuple", v)
	}
	if v.Len() != n {
		return dst, typeError(ErrLengthMismatch, ty.ID, "tuple expects %d elements, found %d", n, v.Len())
	}
	out := dst
	for i, elemID := range ty.Def.Elems {
		var err error
		if out, err = c.encode(out, v.Elems()[i], elemID, depth+1); err != nil {
			return dst, withPath(err, "."+strconv.Itoa(i))
		}
	}
	return out, nil
}

func (c *Codec) encodeElems(orig, out []byte, elems []scon.Value, elemID registry.TypeID, depth int) ([]byte, error) {
	for i, e := range elems {
		var err error
		if out, err = c.encode(out, e, elemID, depth+1); err != nil {
			return orig, withPath(err, fmt.Sprintf("[%d]", i))
		}
	}
	return out, nil
}

// ==================== 辅助 ====================

func describe(ty *registry.Type) string {
	if p := ty.PathString(); p != "" {
		return p
	}
	return ty.Def.Kind.String()
}

func fieldSegment(f registry.Field, i int) string {
	if f.Name != "" {
		return "." + f.Name
	}
	return "." + strconv.Itoa(i)
}

func mismatch(ty *registry.Type, expected string, v scon.Value) error {
	return typeError(ErrTypeMismatch, ty.ID, "expected %s for %s, found %s", expected, describe(ty), v.Kind())
}
