package transcode

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/blake2b"
)

// SelectorLen 选择器字节数
const SelectorLen = 4

// Selector 调用数据前缀，标识目标消息或构造函数
type Selector [SelectorLen]byte

// ParseSelector 解析 "0x" 开头的 4 字节十六进制选择器
func ParseSelector(s string) (Selector, error) {
	var sel Selector
	b, err := hexutil.Decode(s)
	if err != nil {
		return sel, fmt.Errorf("invalid selector %q: %w", s, err)
	}
	if len(b) != SelectorLen {
		return sel, fmt.Errorf("invalid selector %q: expected %d bytes, found %d", s, SelectorLen, len(b))
	}
	copy(sel[:], b)
	return sel, nil
}

// DeriveSelector 由标签推导选择器：blake2b-256(label) 的前 4 字节
func DeriveSelector(label string) Selector {
	sum := blake2b.Sum256([]byte(label))
	var sel Selector
	copy(sel[:], sum[:SelectorLen])
	return sel
}

// Bytes 返回选择器字节副本
func (s Selector) Bytes() []byte { return append([]byte(nil), s[:]...) }

// String 0x 十六进制形式
func (s Selector) String() string { return hexutil.Encode(s[:]) }

// topicOf 将编码后的主题字段转换为 32 字节主题
func topicOf(encoded []byte) common.Hash {
	var h common.Hash
	if len(encoded) <= common.HashLength {
		copy(h[:], encoded)
		return h
	}
	return common.Hash(blake2b.Sum256(encoded))
}
