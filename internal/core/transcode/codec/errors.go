package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/weisyn/contract-transcode/internal/core/transcode/registry"
)

// ==================== 错误种类 ====================
//
// 每个种类是一个哨兵错误，调用方通过 errors.Is 判断；
// 具体信息（类型 id、字段路径、偏移）由 *Error 携带。

var (
	ErrTypeMismatch       = errors.New("type mismatch")
	ErrMissingField       = errors.New("missing field")
	ErrUnknownField       = errors.New("unknown field")
	ErrVariantNotFound    = errors.New("variant not found")
	ErrLengthMismatch     = errors.New("length mismatch")
	ErrIntegerOverflow    = errors.New("integer overflow")
	ErrUnknownSelector    = errors.New("unknown selector")
	ErrTrailingBytes      = errors.New("trailing bytes")
	ErrRegistryResolution = registry.ErrResolution
	ErrNotFound           = errors.New("not found")
	ErrArityMismatch      = errors.New("arity mismatch")
	ErrAmbiguousName      = errors.New("ambiguous name")
	ErrUnexpectedEnd      = errors.New("unexpected end of input")
	ErrInvalidEncoding    = errors.New("invalid encoding")
	ErrRecursionLimit     = errors.New("recursion limit exceeded")
)

// noOffset 表示错误与输入偏移无关
const noOffset = -1

// Error 编解码错误
type Error struct {
	Kind    error           // 上面定义的哨兵之一
	TypeID  registry.TypeID // 出错位置的类型 id
	HasType bool
	Path    string // 值路径，如 .from 或 [2]
	Offset  int    // 解码时的字节偏移，-1 表示无
	Msg     string
	Cause   error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	var ctx []string
	if e.Path != "" {
		ctx = append(ctx, "at "+e.Path)
	}
	if e.HasType {
		ctx = append(ctx, fmt.Sprintf("type %d", e.TypeID))
	}
	if e.Offset >= 0 {
		ctx = append(ctx, fmt.Sprintf("offset %d", e.Offset))
	}
	if len(ctx) > 0 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(ctx, ", "))
		sb.WriteString(")")
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap 同时暴露种类与底层原因
func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// NewError 创建不带类型信息的错误
func NewError(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Offset: noOffset, Msg: fmt.Sprintf(format, args...)}
}

func typeError(kind error, id registry.TypeID, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, TypeID: id, HasType: true, Offset: noOffset, Msg: fmt.Sprintf(format, args...)}
}

func inputError(kind error, in *Input, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Offset: in.Offset(), Msg: fmt.Sprintf(format, args...)}
}

// WrapResolutionError 将注册表解析失败包装为编解码错误
func WrapResolutionError(id registry.TypeID, cause error) error {
	return &Error{Kind: ErrRegistryResolution, TypeID: id, HasType: true, Offset: noOffset, Cause: cause}
}

// WrapCustomError 为自定义类型编解码器返回的错误补充类型信息
func WrapCustomError(id registry.TypeID, err error) error {
	var ce *Error
	if errors.As(err, &ce) {
		if !ce.HasType {
			ce.TypeID, ce.HasType = id, true
		}
		return ce
	}
	return &Error{Kind: ErrTypeMismatch, TypeID: id, HasType: true, Offset: noOffset, Cause: err}
}

// withPath 在错误路径前追加一段，路径由外向内拼接
func withPath(err error, segment string) error {
	var ce *Error
	if errors.As(err, &ce) {
		ce.Path = segment + ce.Path
	}
	return err
}

// Kind 返回错误所属的种类哨兵，非编解码错误返回 nil
func Kind(err error) error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return nil
}
