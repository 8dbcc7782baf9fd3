package transcode

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/contract-transcode/internal/core/transcode/codec"
	"github.com/weisyn/contract-transcode/internal/core/transcode/scon"
)

// ==================== 调用数据 ====================

// DecodeCall 解码调用数据，依次在消息与构造函数中匹配选择器
//
// 返回入口名称与以该名称标记的元组，元素为按声明顺序解码的参数。
func (t *ContractMessageTranscoder) DecodeCall(data []byte) (string, scon.Value, error) {
	in := codec.NewInput(data)
	sel, err := readSelector(in)
	if err != nil {
		return "", scon.Value{}, err
	}
	call, ok := findBySelector(t.messages, sel)
	if !ok {
		if call, ok = findBySelector(t.constructors, sel); !ok {
			return "", scon.Value{}, codec.NewError(codec.ErrUnknownSelector,
				"no message or constructor with selector %s found in contract metadata", sel)
		}
	}
	values, err := t.decodeArgs(in, call)
	if err != nil {
		return "", scon.Value{}, err
	}
	return call.Label, scon.Tuple(call.Label, values...), nil
}

// DecodeMessage 按消息表解码调用数据，返回以参数标签为键的结构
func (t *ContractMessageTranscoder) DecodeMessage(data []byte) (scon.Value, error) {
	return t.decodeLabelled(data, t.messages, KindMessage)
}

// DecodeConstructor 按构造函数表解码调用数据
func (t *ContractMessageTranscoder) DecodeConstructor(data []byte) (scon.Value, error) {
	return t.decodeLabelled(data, t.constructors, KindConstructor)
}

func (t *ContractMessageTranscoder) decodeLabelled(data []byte, calls []*Call, kind CallKind) (scon.Value, error) {
	in := codec.NewInput(data)
	sel, err := readSelector(in)
	if err != nil {
		return scon.Value{}, err
	}
	call, ok := findBySelector(calls, sel)
	if !ok {
		return scon.Value{}, codec.NewError(codec.ErrUnknownSelector,
			"%s with selector %s not found in contract metadata", kind, sel)
	}
	values, err := t.decodeArgs(in, call)
	if err != nil {
		return scon.Value{}, err
	}
	fields := make([]scon.Field, len(values))
	for i, v := range values {
		fields[i] = scon.F(call.Args[i].Label, v)
	}
	return scon.Map(call.Label, fields...), nil
}

func readSelector(in *codec.Input) (Selector, error) {
	var sel Selector
	b, err := in.ReadN(SelectorLen)
	if err != nil {
		return sel, err
	}
	copy(sel[:], b)
	return sel, nil
}

func (t *ContractMessageTranscoder) decodeArgs(in *codec.Input, call *Call) ([]scon.Value, error) {
	values := make([]scon.Value, 0, len(call.Args))
	for _, arg := range call.Args {
		v, err := t.codec.DecodeFrom(in, arg.Type)
		if err != nil {
			return nil, fmt.Errorf("argument '%s' of %s: %w", arg.Label, call.Label, err)
		}
		values = append(values, v)
	}
	if err := codec.CheckFullyConsumed(in); err != nil {
		return nil, err
	}
	return values, nil
}

// ==================== 返回值 ====================

// DecodeMessageReturn 按消息的返回类型解码，无返回类型时只接受空输入并返回 Unit
func (t *ContractMessageTranscoder) DecodeMessageReturn(name string, data []byte) (scon.Value, error) {
	call, ok := t.FindMessage(name)
	if !ok {
		return scon.Value{}, t.notFound(name, "message", labelsOf(t.messages))
	}
	return t.decodeReturn(call, data)
}

// DecodeConstructorReturn 按构造函数的返回类型解码
func (t *ContractMessageTranscoder) DecodeConstructorReturn(name string, data []byte) (scon.Value, error) {
	call, ok := t.FindConstructor(name)
	if !ok {
		return scon.Value{}, t.notFound(name, "constructor", labelsOf(t.constructors))
	}
	return t.decodeReturn(call, data)
}

func (t *ContractMessageTranscoder) decodeReturn(call *Call, data []byte) (scon.Value, error) {
	if call.ReturnType == nil {
		if err := codec.CheckFullyConsumed(codec.NewInput(data)); err != nil {
			return scon.Value{}, err
		}
		return scon.Unit(), nil
	}
	return t.codec.Decode(*call.ReturnType, data)
}

func labelsOf(calls []*Call) []string {
	labels := make([]string, len(calls))
	for i, c := range calls {
		labels[i] = c.Label
	}
	return labels
}

// ==================== 事件 ====================

// DecodeEvent 解码事件数据：首字节为事件在元数据中的位置，其后为各字段
func (t *ContractMessageTranscoder) DecodeEvent(data []byte) (string, scon.Value, error) {
	in := codec.NewInput(data)
	index, err := in.ReadByte()
	if err != nil {
		return "", scon.Value{}, err
	}
	if int(index) >= len(t.events) {
		return "", scon.Value{}, codec.NewError(codec.ErrVariantNotFound,
			"Event variant %d not found in contract metadata", index)
	}
	ev := t.events[index]
	v, err := t.decodeEventFields(in, ev)
	if err != nil {
		return "", scon.Value{}, err
	}
	return ev.Label, v, nil
}

// DecodeEventByTopic 按签名主题定位事件并解码字段，数据不带前导判别字节
func (t *ContractMessageTranscoder) DecodeEventByTopic(topic common.Hash, data []byte) (string, scon.Value, error) {
	for _, ev := range t.events {
		if ev.SignatureTopic != nil && *ev.SignatureTopic == topic {
			v, err := t.decodeEventFields(codec.NewInput(data), ev)
			if err != nil {
				return "", scon.Value{}, err
			}
			return ev.Label, v, nil
		}
	}
	return "", scon.Value{}, codec.NewError(codec.ErrNotFound,
		"no event with signature topic %s found in contract metadata", topic.Hex())
}

func (t *ContractMessageTranscoder) decodeEventFields(in *codec.Input, ev *Event) (scon.Value, error) {
	fields := make([]scon.Field, 0, len(ev.Args))
	for _, arg := range ev.Args {
		v, err := t.codec.DecodeFrom(in, arg.Type)
		if err != nil {
			return scon.Value{}, fmt.Errorf("field '%s' of event %s: %w", arg.Label, ev.Label, err)
		}
		fields = append(fields, scon.F(arg.Label, v))
	}
	if err := codec.CheckFullyConsumed(in); err != nil {
		return scon.Value{}, err
	}
	return scon.Map(ev.Label, fields...), nil
}

// FieldTopic 计算事件主题字段的主题值：编码不超过 32 字节时右侧补零，否则取 blake2b-256
func (t *ContractMessageTranscoder) FieldTopic(eventName, field string, value scon.Value) (common.Hash, error) {
	ev, ok := t.FindEvent(eventName)
	if !ok {
		return common.Hash{}, t.notFound(eventName, "event", t.eventLabels())
	}
	var arg *EventArg
	for i := range ev.Args {
		if ev.Args[i].Label == field {
			arg = &ev.Args[i]
			break
		}
	}
	if arg == nil {
		return common.Hash{}, codec.NewError(codec.ErrUnknownField, "event %s has no field '%s'", eventName, field)
	}
	if !arg.Indexed {
		return common.Hash{}, codec.NewError(codec.ErrTypeMismatch, "field '%s' of event %s is not a topic", field, eventName)
	}
	encoded, err := t.codec.Encode(value, arg.Type)
	if err != nil {
		return common.Hash{}, err
	}
	return topicOf(encoded), nil
}

func (t *ContractMessageTranscoder) eventLabels() []string {
	labels := make([]string, len(t.events))
	for i, e := range t.events {
		labels[i] = e.Label
	}
	return labels
}
