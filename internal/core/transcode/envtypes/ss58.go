package envtypes

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// DefaultSS58Prefix 通用 Substrate 地址前缀
const DefaultSS58Prefix uint16 = 42

const (
	ss58ChecksumLen = 2
	maxSS58Prefix   = 16383
)

var ss58Salt = []byte("SS58PRE")

// ErrInvalidSS58 SS58 地址格式错误
var ErrInvalidSS58 = errors.New("invalid ss58 address")

// SS58Encode 将公钥编码为 SS58 地址
func SS58Encode(pub []byte, prefix uint16) (string, error) {
	if prefix > maxSS58Prefix {
		return "", fmt.Errorf("%w: prefix %d out of range", ErrInvalidSS58, prefix)
	}
	data := append(ss58PrefixBytes(prefix), pub...)
	sum := ss58Checksum(data)
	return base58.Encode(append(data, sum[:ss58ChecksumLen]...)), nil
}

// SS58Decode 解析 SS58 地址，返回公钥与网络前缀
func SS58Decode(addr string) ([]byte, uint16, error) {
	raw, err := base58.Decode(addr)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidSS58, err)
	}
	if len(raw) < 1+ss58ChecksumLen {
		return nil, 0, fmt.Errorf("%w: too short", ErrInvalidSS58)
	}

	var prefix uint16
	prefixLen := 1
	switch {
	case raw[0] < 64:
		prefix = uint16(raw[0])
	case raw[0] < 128:
		if len(raw) < 2+ss58ChecksumLen {
			return nil, 0, fmt.Errorf("%w: too short", ErrInvalidSS58)
		}
		lower := (raw[0] << 2) | (raw[1] >> 6)
		upper := raw[1] & 0x3f
		prefix = uint16(lower) | uint16(upper)<<8
		prefixLen = 2
	default:
		return nil, 0, fmt.Errorf("%w: reserved prefix byte %#x", ErrInvalidSS58, raw[0])
	}

	body := raw[:len(raw)-ss58ChecksumLen]
	sum := ss58Checksum(body)
	if !bytes.Equal(sum[:ss58ChecksumLen], raw[len(raw)-ss58ChecksumLen:]) {
		return nil, 0, fmt.Errorf("%w: checksum mismatch", ErrInvalidSS58)
	}
	return body[prefixLen:], prefix, nil
}

func ss58PrefixBytes(prefix uint16) []byte {
	if prefix < 64 {
		return []byte{byte(prefix)}
	}
	return []byte{
		byte((prefix&0x00fc)>>2) | 0x40,
		byte(prefix>>8) | byte((prefix&0x0003)<<6),
	}
}

func ss58Checksum(data []byte) [blake2b.Size]byte {
	buf := make([]byte, 0, len(ss58Salt)+len(data))
	buf = append(buf, ss58Salt...)
	buf = append(buf, data...)
	return blake2b.Sum512(buf)
}
