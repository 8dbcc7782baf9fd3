// Package envtypes 提供合约环境类型的自定义编解码器
//
// AccountId 以 SS58 地址呈现，Hash/H256、H160 以 0x 字节呈现，U256 以整数呈现。
// 编解码器通过类型路径注册到 codec.Codec。
package envtypes

import (
	"encoding/binary"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/weisyn/contract-transcode/internal/core/transcode/codec"
	"github.com/weisyn/contract-transcode/internal/core/transcode/registry"
	"github.com/weisyn/contract-transcode/internal/core/transcode/scon"
	"github.com/weisyn/contract-transcode/pkg/types"
)

// 已知的环境类型路径
var (
	AccountIDPaths = [][]string{
		{"ink_primitives", "types", "AccountId"},
		{"sp_core", "crypto", "AccountId32"},
	}
	HashPaths = [][]string{
		{"ink_primitives", "types", "Hash"},
		{"primitive_types", "H256"},
	}
	H160Paths = [][]string{
		{"primitive_types", "H160"},
	}
	U256Paths = [][]string{
		{"primitive_types", "U256"},
	}
)

const accountIDLen = 32

// Options 返回环境类型编解码器的注册选项
//
// env 非空时，spec.environment.accountId 指向的类型也按 AccountId 处理。
func Options(prefix uint16, env *types.EnvironmentSpec) []codec.Option {
	account := AccountID{Prefix: prefix}
	var opts []codec.Option
	for _, p := range AccountIDPaths {
		opts = append(opts, codec.WithPathEncoder(p, account), codec.WithPathDecoder(p, account))
	}
	for _, p := range HashPaths {
		opts = append(opts, codec.WithPathEncoder(p, Hash{}), codec.WithPathDecoder(p, Hash{}))
	}
	for _, p := range H160Paths {
		opts = append(opts, codec.WithPathEncoder(p, H160{}), codec.WithPathDecoder(p, H160{}))
	}
	for _, p := range U256Paths {
		opts = append(opts, codec.WithPathEncoder(p, U256{}), codec.WithPathDecoder(p, U256{}))
	}
	if env != nil && env.AccountID != nil {
		id := registry.TypeID(env.AccountID.Type)
		opts = append(opts, codec.WithTypeEncoder(id, account), codec.WithTypeDecoder(id, account))
	}
	return opts
}

// ==================== AccountId ====================

// AccountID 32 字节账户，文本形式为 SS58 地址
type AccountID struct {
	Prefix uint16
}

// Encode 接受 SS58 地址、0x 十六进制或 32 字节
func (a AccountID) Encode(dst []byte, v scon.Value) ([]byte, error) {
	if s, ok := v.AsString(); ok && !strings.HasPrefix(s, "0x") {
		pub, _, err := SS58Decode(s)
		if err != nil {
			return dst, codec.NewError(codec.ErrTypeMismatch, "expected an ss58 address, found %q: %v", s, err)
		}
		if len(pub) != accountIDLen {
			return dst, codec.NewError(codec.ErrLengthMismatch, "account id must be %d bytes, found %d", accountIDLen, len(pub))
		}
		return append(dst, pub...), nil
	}
	b, err := fixedBytes(v, accountIDLen, "account id")
	if err != nil {
		return dst, err
	}
	return append(dst, b...), nil
}

// Decode 读取 32 字节并输出 SS58 字面量
func (a AccountID) Decode(in *codec.Input) (scon.Value, error) {
	b, err := in.ReadN(accountIDLen)
	if err != nil {
		return scon.Value{}, err
	}
	addr, err := SS58Encode(b, a.Prefix)
	if err != nil {
		return scon.Value{}, codec.NewError(codec.ErrInvalidEncoding, "%v", err)
	}
	return scon.Literal(addr), nil
}

// ==================== Hash / H160 ====================

// Hash 32 字节哈希
type Hash struct{}

// Encode 接受 0x 十六进制或 32 字节
func (Hash) Encode(dst []byte, v scon.Value) ([]byte, error) {
	b, err := fixedBytes(v, common.HashLength, "hash")
	if err != nil {
		return dst, err
	}
	h := common.BytesToHash(b)
	return append(dst, h[:]...), nil
}

// Decode 输出 32 字节
func (Hash) Decode(in *codec.Input) (scon.Value, error) {
	b, err := in.ReadN(common.HashLength)
	if err != nil {
		return scon.Value{}, err
	}
	return scon.Bytes(common.BytesToHash(b).Bytes()), nil
}

// H160 20 字节地址
type H160 struct{}

// Encode 接受 0x 十六进制或 20 字节
func (H160) Encode(dst []byte, v scon.Value) ([]byte, error) {
	if s, ok := v.AsString(); ok && strings.HasPrefix(s, "0x") && !common.IsHexAddress(s) {
		return dst, codec.NewError(codec.ErrTypeMismatch, "expected a 20 byte hex address, found %q", s)
	}
	b, err := fixedBytes(v, common.AddressLength, "address")
	if err != nil {
		return dst, err
	}
	addr := common.BytesToAddress(b)
	return append(dst, addr[:]...), nil
}

// Decode 输出 20 字节
func (H160) Decode(in *codec.Input) (scon.Value, error) {
	b, err := in.ReadN(common.AddressLength)
	if err != nil {
		return scon.Value{}, err
	}
	return scon.Bytes(common.BytesToAddress(b).Bytes()), nil
}

// fixedBytes 取出定长字节：Bytes、0x 字符串或 u8 序列
func fixedBytes(v scon.Value, n int, what string) ([]byte, error) {
	var b []byte
	switch v.Kind() {
	case scon.KindBytes:
		b, _ = v.AsBytes()
	case scon.KindString, scon.KindLiteral:
		s, _ := v.AsString()
		decoded, err := hexutil.Decode(s)
		if err != nil {
			return nil, codec.NewError(codec.ErrTypeMismatch, "expected 0x-prefixed hex for %s, found %q", what, s)
		}
		b = decoded
	case scon.KindSeq:
		b = make([]byte, 0, v.Len())
		for _, e := range v.Elems() {
			x, ok := e.AsBigInt()
			if !ok || x.Sign() < 0 || x.BitLen() > 8 {
				return nil, codec.NewError(codec.ErrTypeMismatch, "%s elements must be bytes", what)
			}
			b = append(b, byte(x.Uint64()))
		}
	case scon.KindTuple, scon.KindMap:
		// 结构形式 AccountId([..]) 或 { 0: [..] }
		if v.Len() == 1 {
			if v.Kind() == scon.KindMap {
				return fixedBytes(v.Fields()[0].Value, n, what)
			}
			return fixedBytes(v.Elems()[0], n, what)
		}
		return nil, codec.NewError(codec.ErrTypeMismatch, "expected bytes for %s, found %s", what, v.Kind())
	default:
		return nil, codec.NewError(codec.ErrTypeMismatch, "expected bytes for %s, found %s", what, v.Kind())
	}
	if len(b) != n {
		return nil, codec.NewError(codec.ErrLengthMismatch, "%s must be %d bytes, found %d", what, n, len(b))
	}
	return b, nil
}

// ==================== U256 ====================

// U256 四个 u64 小端分段组成的 256 位无符号整数
type U256 struct{}

// Encode 接受整数、十进制字符串或大端字节
func (U256) Encode(dst []byte, v scon.Value) ([]byte, error) {
	u, err := toUint256(v)
	if err != nil {
		return dst, err
	}
	var buf [32]byte
	for i, limb := range u {
		binary.LittleEndian.PutUint64(buf[i*8:], limb)
	}
	return append(dst, buf[:]...), nil
}

// Decode 输出 UInt
func (U256) Decode(in *codec.Input) (scon.Value, error) {
	b, err := in.ReadN(32)
	if err != nil {
		return scon.Value{}, err
	}
	var u uint256.Int
	for i := range u {
		u[i] = binary.LittleEndian.Uint64(b[i*8:])
	}
	return scon.UInt(u.ToBig()), nil
}

func toUint256(v scon.Value) (*uint256.Int, error) {
	if n, ok := v.AsBigInt(); ok {
		if n.Sign() < 0 {
			return nil, codec.NewError(codec.ErrIntegerOverflow, "%s does not fit in U256", n)
		}
		u, overflow := uint256.FromBig(n)
		if overflow {
			return nil, codec.NewError(codec.ErrIntegerOverflow, "%s does not fit in U256", n)
		}
		return u, nil
	}
	switch v.Kind() {
	case scon.KindString:
		s, _ := v.AsString()
		clean := strings.NewReplacer("_", "", ",", "").Replace(strings.TrimSpace(s))
		if strings.HasPrefix(clean, "0x") {
			u, err := uint256.FromHex(clean)
			if err != nil {
				return nil, codec.NewError(codec.ErrTypeMismatch, "invalid U256 hex %q: %v", s, err)
			}
			return u, nil
		}
		u, err := uint256.FromDecimal(clean)
		if err != nil {
			return nil, codec.NewError(codec.ErrTypeMismatch, "invalid U256 %q: %v", s, err)
		}
		return u, nil
	case scon.KindBytes:
		b, _ := v.AsBytes()
		if len(b) > 32 {
			return nil, codec.NewError(codec.ErrIntegerOverflow, "%d bytes do not fit in U256", len(b))
		}
		return new(uint256.Int).SetBytes(b), nil
	}
	return nil, codec.NewError(codec.ErrTypeMismatch, "expected an integer for U256, found %s", v.Kind())
}
