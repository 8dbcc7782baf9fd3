package codec

import (
	"math/big"
)

// 紧凑整数编码
//
// 低 2 位为模式：
//   - 00：单字节，值 < 2^6
//   - 01：两字节，值 < 2^14
//   - 10：四字节，值 < 2^30
//   - 11：首字节高 6 位为 (字节数 - 4)，随后为小端字节，最多 67 字节
const (
	compactSingleMax = 1<<6 - 1
	compactTwoMax    = 1<<14 - 1
	compactFourMax   = 1<<30 - 1
	compactMaxBytes  = 4 + 63
)

// AppendCompactUint64 追加 uint64 的紧凑编码
func AppendCompactUint64(dst []byte, n uint64) []byte {
	switch {
	case n <= compactSingleMax:
		return append(dst, byte(n<<2))
	case n <= compactTwoMax:
		v := uint16(n<<2) | 0b01
		return append(dst, byte(v), byte(v>>8))
	case n <= compactFourMax:
		v := uint32(n<<2) | 0b10
		return append(dst, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	size := 4
	for size < 8 && n>>(uint(size)*8) != 0 {
		size++
	}
	dst = append(dst, byte((size-4)<<2)|0b11)
	for i := 0; i < size; i++ {
		dst = append(dst, byte(n>>(uint(i)*8)))
	}
	return dst
}

// AppendCompact 追加任意精度非负整数的紧凑编码
func AppendCompact(dst []byte, n *big.Int) ([]byte, error) {
	if n.Sign() < 0 {
		return dst, NewError(ErrIntegerOverflow, "compact integers cannot be negative: %s", n)
	}
	if n.IsUint64() {
		return AppendCompactUint64(dst, n.Uint64()), nil
	}
	be := n.Bytes()
	size := len(be)
	if size > compactMaxBytes {
		return dst, NewError(ErrIntegerOverflow, "%d-byte value exceeds compact limit of %d bytes", size, compactMaxBytes)
	}
	dst = append(dst, byte((size-4)<<2)|0b11)
	for i := size - 1; i >= 0; i-- {
		dst = append(dst, be[i])
	}
	return dst, nil
}

// EncodeCompact 返回紧凑编码
func EncodeCompact(n *big.Int) ([]byte, error) {
	return AppendCompact(nil, n)
}

// DecodeCompact 读取一个紧凑整数，拒绝非规范编码
func DecodeCompact(in *Input) (*big.Int, error) {
	start := in.Offset()
	first, err := in.ReadByte()
	if err != nil {
		return nil, err
	}
	switch first & 0b11 {
	case 0b00:
		return big.NewInt(int64(first >> 2)), nil
	case 0b01:
		b, err := in.ReadN(1)
		if err != nil {
			return nil, err
		}
		v := (uint64(first) | uint64(b[0])<<8) >> 2
		if v <= compactSingleMax {
			return nil, &Error{Kind: ErrInvalidEncoding, Offset: start, Msg: "non-canonical two-byte compact"}
		}
		return new(big.Int).SetUint64(v), nil
	case 0b10:
		b, err := in.ReadN(3)
		if err != nil {
			return nil, err
		}
		v := (uint64(first) | uint64(b[0])<<8 | uint64(b[1])<<16 | uint64(b[2])<<24) >> 2
		if v <= compactTwoMax {
			return nil, &Error{Kind: ErrInvalidEncoding, Offset: start, Msg: "non-canonical four-byte compact"}
		}
		return new(big.Int).SetUint64(v), nil
	}

	size := int(first>>2) + 4
	le, err := in.ReadN(size)
	if err != nil {
		return nil, err
	}
	if le[size-1] == 0 {
		return nil, &Error{Kind: ErrInvalidEncoding, Offset: start, Msg: "compact has leading zero byte"}
	}
	be := make([]byte, size)
	for i := range le {
		be[size-1-i] = le[i]
	}
	v := new(big.Int).SetBytes(be)
	if size == 4 && v.Cmp(big.NewInt(compactFourMax)) <= 0 {
		return nil, &Error{Kind: ErrInvalidEncoding, Offset: start, Msg: "non-canonical big-integer compact"}
	}
	return v, nil
}

// DecodeCompactLen 读取紧凑编码的长度前缀
func DecodeCompactLen(in *Input) (int, error) {
	start := in.Offset()
	n, err := DecodeCompact(in)
	if err != nil {
		return 0, err
	}
	if !n.IsInt64() || n.Int64() > int64(^uint(0)>>1) {
		return 0, &Error{Kind: ErrInvalidEncoding, Offset: start, Msg: "length prefix " + n.String() + " is out of range"}
	}
	return int(n.Int64()), nil
}
