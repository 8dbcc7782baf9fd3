package transcode

import (
	"fmt"

	"github.com/weisyn/contract-transcode/internal/core/transcode/codec"
	"github.com/weisyn/contract-transcode/internal/core/transcode/scon"
)

// EncodeCall 编码调用数据：选择器后接按声明顺序编码的参数
//
// 每个参数字符串先由 scon.Parse 解析，再按参数类型编码。
func (t *ContractMessageTranscoder) EncodeCall(name string, args []string) ([]byte, error) {
	call, err := t.lookup(name)
	if err != nil {
		return nil, err
	}
	if err := checkArity(call, len(args)); err != nil {
		return nil, err
	}
	values := make([]scon.Value, len(args))
	for i, raw := range args {
		v, err := scon.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("argument '%s': %w", call.Args[i].Label, err)
		}
		values[i] = v
	}
	return t.encodeArgs(call, values)
}

// EncodeValues 以已构造的值编码调用数据
func (t *ContractMessageTranscoder) EncodeValues(name string, values []scon.Value) ([]byte, error) {
	call, err := t.lookup(name)
	if err != nil {
		return nil, err
	}
	if err := checkArity(call, len(values)); err != nil {
		return nil, err
	}
	return t.encodeArgs(call, values)
}

func (t *ContractMessageTranscoder) encodeArgs(call *Call, values []scon.Value) ([]byte, error) {
	out := call.Selector.Bytes()
	for i, arg := range call.Args {
		var err error
		if out, err = t.codec.EncodeTo(out, values[i], arg.Type); err != nil {
			return nil, fmt.Errorf("argument '%s': %w", arg.Label, err)
		}
	}
	return out, nil
}

func checkArity(call *Call, provided int) error {
	if provided != len(call.Args) {
		return codec.NewError(codec.ErrArityMismatch,
			"Invalid number of input arguments: expected %d, %d provided", len(call.Args), provided)
	}
	return nil
}
