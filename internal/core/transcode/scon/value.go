// Package scon 实现合约参数的文本值表示（SCALE Object Notation）
//
// 包含三部分：
//   - Value：自描述的通用值模型（解析结果 / 解码结果）
//   - Parse：文本 → Value
//   - String / Pretty：Value → 文本
//
// Value 一经构造即不可变，可在多个 goroutine 间共享。
package scon

import (
	"math/big"
)

// Kind 值的种类
type Kind uint8

const (
	KindBool Kind = iota
	KindChar
	KindUInt
	KindInt
	KindString
	KindBytes
	KindSeq
	KindTuple
	KindMap
	KindOption
	KindUnit
	KindLiteral
)

var kindNames = [...]string{
	KindBool:    "bool",
	KindChar:    "char",
	KindUInt:    "uint",
	KindInt:     "int",
	KindString:  "string",
	KindBytes:   "bytes",
	KindSeq:     "seq",
	KindTuple:   "tuple",
	KindMap:     "map",
	KindOption:  "option",
	KindUnit:    "unit",
	KindLiteral: "literal",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Field Map 中的一个具名条目
type Field struct {
	Name  string
	Value Value
}

// Value 通用值
//
// 零值为 Bool(false)。数值始终使用 big.Int 保存，不会收窄为 64 位。
type Value struct {
	kind   Kind
	flag   bool
	char   rune
	num    *big.Int
	text   string
	bytes  []byte
	ident  string
	elems  []Value
	fields []Field
}

// Bool 布尔值
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// Char 字符值
func Char(c rune) Value { return Value{kind: KindChar, char: c} }

// UInt 无符号整数，n 为负时取绝对值
func UInt(n *big.Int) Value {
	v := new(big.Int)
	if n != nil {
		v.Abs(n)
	}
	return Value{kind: KindUInt, num: v}
}

// UInt64 由 uint64 构造无符号整数
func UInt64(n uint64) Value { return Value{kind: KindUInt, num: new(big.Int).SetUint64(n)} }

// Int 有符号整数
func Int(n *big.Int) Value {
	v := new(big.Int)
	if n != nil {
		v.Set(n)
	}
	return Value{kind: KindInt, num: v}
}

// Int64 由 int64 构造有符号整数
func Int64(n int64) Value { return Value{kind: KindInt, num: big.NewInt(n)} }

// String 字符串值
func String(s string) Value { return Value{kind: KindString, text: s} }

// Bytes 原始字节，打印为 0x 前缀十六进制
func Bytes(b []byte) Value {
	return Value{kind: KindBytes, bytes: append([]byte(nil), b...)}
}

// Seq 同构序列
func Seq(elems ...Value) Value { return Value{kind: KindSeq, elems: elems} }

// Tuple 元组，ident 为空表示匿名
func Tuple(ident string, elems ...Value) Value {
	return Value{kind: KindTuple, ident: ident, elems: elems}
}

// Map 有序键值表，ident 为空表示匿名
func Map(ident string, fields ...Field) Value {
	return Value{kind: KindMap, ident: ident, fields: fields}
}

// None 空 Option
func None() Value { return Value{kind: KindOption} }

// Some 非空 Option
func Some(v Value) Value { return Value{kind: KindOption, elems: []Value{v}} }

// Unit 单元值 ()
func Unit() Value { return Value{kind: KindUnit} }

// Literal 不透明字面量（如 SS58 地址），仅由自定义类型编码器解释
func Literal(s string) Value { return Value{kind: KindLiteral, text: s} }

// F 构造 Map 条目
func F(name string, v Value) Field { return Field{Name: name, Value: v} }

// Kind 返回值的种类
func (v Value) Kind() Kind { return v.kind }

// AsBool 布尔值
func (v Value) AsBool() (bool, bool) { return v.flag, v.kind == KindBool }

// AsChar 字符值
func (v Value) AsChar() (rune, bool) { return v.char, v.kind == KindChar }

// AsBigInt 返回 UInt/Int 的数值副本
func (v Value) AsBigInt() (*big.Int, bool) {
	if v.kind != KindUInt && v.kind != KindInt {
		return nil, false
	}
	return new(big.Int).Set(v.num), true
}

// AsString 返回 String 或 Literal 的文本
func (v Value) AsString() (string, bool) {
	return v.text, v.kind == KindString || v.kind == KindLiteral
}

// AsBytes 返回 Bytes 的副本
func (v Value) AsBytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	return append([]byte(nil), v.bytes...), true
}

// Ident Tuple/Map 的标识符
func (v Value) Ident() string { return v.ident }

// Elems Seq/Tuple 的元素（Option 为 0 或 1 个元素）
func (v Value) Elems() []Value { return v.elems }

// Fields Map 的条目
func (v Value) Fields() []Field { return v.fields }

// Len Seq/Tuple/Map/Bytes 的长度
func (v Value) Len() int {
	switch v.kind {
	case KindMap:
		return len(v.fields)
	case KindBytes:
		return len(v.bytes)
	default:
		return len(v.elems)
	}
}

// Get 按名称查找 Map 条目
func (v Value) Get(name string) (Value, bool) {
	for _, f := range v.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// IsNone 是否为空 Option
func (v Value) IsNone() bool { return v.kind == KindOption && len(v.elems) == 0 }

// Unwrap 返回 Some 中的值
func (v Value) Unwrap() (Value, bool) {
	if v.kind != KindOption || len(v.elems) == 0 {
		return Value{}, false
	}
	return v.elems[0], true
}

// Equal 结构相等
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.flag == o.flag
	case KindChar:
		return v.char == o.char
	case KindUInt, KindInt:
		return v.num.Cmp(o.num) == 0
	case KindString, KindLiteral:
		return v.text == o.text
	case KindBytes:
		return string(v.bytes) == string(o.bytes)
	case KindUnit:
		return true
	case KindMap:
		if v.ident != o.ident || len(v.fields) != len(o.fields) {
			return false
		}
		for i := range v.fields {
			if v.fields[i].Name != o.fields[i].Name || !v.fields[i].Value.Equal(o.fields[i].Value) {
				return false
			}
		}
		return true
	default:
		if v.ident != o.ident || len(v.elems) != len(o.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(o.elems[i]) {
				return false
			}
		}
		return true
	}
}
