// Package transcode 根据合约元数据在符号化调用与 SCALE 字节之间转换
//
// ContractMessageTranscoder 在加载元数据时一次性构建类型注册表与选择器表，
// 之后只读，可被并发调用。编码方向：消息名 + 文本参数 → 选择器 + 参数字节；
// 解码方向：调用数据、事件数据、返回值 → scon.Value。
package transcode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/weisyn/contract-transcode/internal/core/transcode/codec"
	"github.com/weisyn/contract-transcode/internal/core/transcode/envtypes"
	"github.com/weisyn/contract-transcode/internal/core/transcode/registry"
	"github.com/weisyn/contract-transcode/pkg/types"
)

// ErrInvalidMetadata 元数据未通过校验
var ErrInvalidMetadata = errors.New("invalid metadata")

// CallKind 调用入口种类
type CallKind uint8

const (
	KindMessage CallKind = iota
	KindConstructor
)

func (k CallKind) String() string {
	if k == KindConstructor {
		return "constructor"
	}
	return "message"
}

// Arg 调用参数
type Arg struct {
	Label       string
	Type        registry.TypeID
	DisplayName string
}

// Call 消息或构造函数
type Call struct {
	Kind       CallKind
	Label      string
	Selector   Selector
	Args       []Arg
	ReturnType *registry.TypeID
	Mutates    bool
	Payable    bool
	Default    bool
	Docs       []string
}

// EventArg 事件字段
type EventArg struct {
	Label   string
	Type    registry.TypeID
	Indexed bool
}

// Event 事件，Index 为其在元数据中的位置，同时是事件数据的前导判别字节
type Event struct {
	Label          string
	Index          int
	Args           []EventArg
	SignatureTopic *common.Hash
	Docs           []string
}

// Topics 返回被标记为主题的字段下标
func (e *Event) Topics() []int {
	var idx []int
	for i, a := range e.Args {
		if a.Indexed {
			idx = append(idx, i)
		}
	}
	return idx
}

// ContractMessageTranscoder 合约消息转码器
type ContractMessageTranscoder struct {
	metadata     *types.ContractMetadata
	registry     *registry.Registry
	codec        *codec.Codec
	constructors []*Call
	messages     []*Call
	events       []*Event
}

type options struct {
	ss58Prefix   uint16
	envTypes     bool
	maxDepth     int
	codecOptions []codec.Option
}

// Option 转码器选项
type Option func(*options)

// WithSS58Prefix 设置 AccountId 解码输出的 SS58 前缀
func WithSS58Prefix(prefix uint16) Option {
	return func(o *options) { o.ss58Prefix = prefix }
}

// WithEnvTypes 开关环境类型（AccountId、Hash 等）的自定义编解码
func WithEnvTypes(enabled bool) Option {
	return func(o *options) { o.envTypes = enabled }
}

// WithMaxDepth 设置编解码最大递归深度
func WithMaxDepth(depth int) Option {
	return func(o *options) { o.maxDepth = depth }
}

// WithCodecOptions 追加编解码器选项，例如额外的自定义类型
func WithCodecOptions(opts ...codec.Option) Option {
	return func(o *options) { o.codecOptions = append(o.codecOptions, opts...) }
}

// New 由元数据构建转码器
func New(md *types.ContractMetadata, opts ...Option) (*ContractMessageTranscoder, error) {
	o := &options{ss58Prefix: envtypes.DefaultSS58Prefix, envTypes: true, maxDepth: codec.DefaultMaxDepth}
	for _, opt := range opts {
		opt(o)
	}

	if problems := Errors(ValidateMetadata(md)); len(problems) > 0 {
		msgs := make([]string, len(problems))
		for i, p := range problems {
			msgs[i] = p.Location + ": " + p.Message
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidMetadata, strings.Join(msgs, "; "))
	}

	reg, err := registry.New(md.Types)
	if err != nil {
		return nil, err
	}

	var codecOpts []codec.Option
	if o.envTypes {
		codecOpts = append(codecOpts, envtypes.Options(o.ss58Prefix, md.Spec.Environment)...)
	}
	codecOpts = append(codecOpts, codec.WithMaxDepth(o.maxDepth))
	codecOpts = append(codecOpts, o.codecOptions...)

	t := &ContractMessageTranscoder{
		metadata: md,
		registry: reg,
		codec:    codec.New(reg, codecOpts...),
	}
	if err := t.buildTables(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *ContractMessageTranscoder) buildTables() error {
	spec := &t.metadata.Spec
	for _, c := range spec.Constructors {
		call, err := newCall(KindConstructor, c.Label, c.Selector, c.Args, c.ReturnType, c.Docs)
		if err != nil {
			return err
		}
		call.Payable, call.Default = c.Payable, c.Default
		t.constructors = append(t.constructors, call)
	}
	for _, m := range spec.Messages {
		call, err := newCall(KindMessage, m.Label, m.Selector, m.Args, m.ReturnType, m.Docs)
		if err != nil {
			return err
		}
		call.Mutates, call.Payable, call.Default = m.Mutates, m.Payable, m.Default
		t.messages = append(t.messages, call)
	}
	for i, e := range spec.Events {
		ev := &Event{Label: e.Label, Index: i, Docs: e.Docs}
		for _, a := range e.Args {
			ev.Args = append(ev.Args, EventArg{Label: a.Label, Type: a.Type.Type, Indexed: a.Indexed})
		}
		if e.SignatureTopic != nil {
			b, err := decodeHash(*e.SignatureTopic)
			if err != nil {
				return fmt.Errorf("%w: event %s: %v", ErrInvalidMetadata, e.Label, err)
			}
			ev.SignatureTopic = &b
		}
		t.events = append(t.events, ev)
	}
	return nil
}

func newCall(kind CallKind, label, selector string, args []types.MessageParamSpec, ret *types.TypeSpec, docs []string) (*Call, error) {
	call := &Call{Kind: kind, Label: label, Docs: docs}
	if selector == "" {
		call.Selector = DeriveSelector(label)
	} else {
		sel, err := ParseSelector(selector)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %s: %v", ErrInvalidMetadata, kind, label, err)
		}
		call.Selector = sel
	}
	for _, a := range args {
		call.Args = append(call.Args, Arg{
			Label:       a.Label,
			Type:        a.Type.Type,
			DisplayName: strings.Join(a.Type.DisplayName, "::"),
		})
	}
	if ret != nil {
		id := ret.Type
		call.ReturnType = &id
	}
	return call, nil
}

// ==================== 访问器 ====================

// Metadata 返回元数据文档
func (t *ContractMessageTranscoder) Metadata() *types.ContractMetadata { return t.metadata }

// Registry 返回类型注册表
func (t *ContractMessageTranscoder) Registry() *registry.Registry { return t.registry }

// Codec 返回编解码器
func (t *ContractMessageTranscoder) Codec() *codec.Codec { return t.codec }

// Constructors 返回构造函数列表
func (t *ContractMessageTranscoder) Constructors() []*Call {
	return append([]*Call(nil), t.constructors...)
}

// Messages 返回消息列表
func (t *ContractMessageTranscoder) Messages() []*Call {
	return append([]*Call(nil), t.messages...)
}

// Events 返回事件列表
func (t *ContractMessageTranscoder) Events() []*Event {
	return append([]*Event(nil), t.events...)
}

// FindMessage 按标签查找消息
func (t *ContractMessageTranscoder) FindMessage(label string) (*Call, bool) {
	return findCall(t.messages, label)
}

// FindConstructor 按标签查找构造函数
func (t *ContractMessageTranscoder) FindConstructor(label string) (*Call, bool) {
	return findCall(t.constructors, label)
}

// FindEvent 按标签查找事件
func (t *ContractMessageTranscoder) FindEvent(label string) (*Event, bool) {
	for _, e := range t.events {
		if e.Label == label {
			return e, true
		}
	}
	return nil, false
}

func findCall(calls []*Call, label string) (*Call, bool) {
	for _, c := range calls {
		if c.Label == label {
			return c, true
		}
	}
	return nil, false
}

func findBySelector(calls []*Call, sel Selector) (*Call, bool) {
	for _, c := range calls {
		if c.Selector == sel {
			return c, true
		}
	}
	return nil, false
}

// lookup 在构造函数与消息中查找名称，两者同名时报歧义
func (t *ContractMessageTranscoder) lookup(name string) (*Call, error) {
	c, isCtor := t.FindConstructor(name)
	m, isMsg := t.FindMessage(name)
	switch {
	case isCtor && isMsg:
		return nil, codec.NewError(codec.ErrAmbiguousName,
			"Invalid metadata: both a constructor and message found with name '%s'", name)
	case isCtor:
		return c, nil
	case isMsg:
		return m, nil
	}
	return nil, t.notFound(name, "constructor or message", t.callLabels())
}

func (t *ContractMessageTranscoder) notFound(name, what string, candidates []string) error {
	msg := fmt.Sprintf("No %s with the name '%s' found.", what, name)
	if s := Suggest(name, candidates); len(s) > 0 {
		msg += fmt.Sprintf("\nDid you mean '%s'?", s[0])
	}
	return codec.NewError(codec.ErrNotFound, "%s", msg)
}

func (t *ContractMessageTranscoder) callLabels() []string {
	labels := make([]string, 0, len(t.constructors)+len(t.messages))
	for _, c := range t.constructors {
		labels = append(labels, c.Label)
	}
	for _, m := range t.messages {
		labels = append(labels, m.Label)
	}
	return labels
}

// Suggest 返回与 name 相近的构造函数或消息名
func (t *ContractMessageTranscoder) Suggest(name string) []string {
	return Suggest(name, t.callLabels())
}

func decodeHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, err
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("expected %d byte topic, found %d", common.HashLength, len(b))
	}
	return common.BytesToHash(b), nil
}
