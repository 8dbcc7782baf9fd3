package types

import (
	"encoding/json"
)

// ContractMetadata 合约元数据文档（ink! metadata / .contract 包）
//
// 文档由编译器生成，包含类型注册表、构造函数/消息/事件的选择器表以及环境类型引用。
// 仅反序列化转码所需字段，其余字段保留为原始 JSON。
type ContractMetadata struct {
	Source   *MetadataSource   `json:"source,omitempty"`
	Contract *MetadataContract `json:"contract,omitempty"`
	Version  json.RawMessage   `json:"version,omitempty"` // v4 为字符串 "4"，v5 为数字 5
	Spec     ContractSpec      `json:"spec"`
	Storage  json.RawMessage   `json:"storage,omitempty"`
	Types    []PortableType    `json:"types"`
}

// MetadataSource 源码与编译器信息
type MetadataSource struct {
	Hash     string `json:"hash"`
	Language string `json:"language"`
	Compiler string `json:"compiler"`
	Wasm     string `json:"wasm,omitempty"`
}

// MetadataContract 合约基本信息
type MetadataContract struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Authors []string `json:"authors,omitempty"`
}

// ContractSpec 合约接口描述
type ContractSpec struct {
	Constructors []ConstructorSpec `json:"constructors"`
	Messages     []MessageSpec     `json:"messages"`
	Events       []EventSpec       `json:"events"`
	Docs         []string          `json:"docs,omitempty"`
	Environment  *EnvironmentSpec  `json:"environment,omitempty"`
	LangError    *TypeSpec         `json:"lang_error,omitempty"`
}

// TypeSpec 参数/返回值的类型引用
type TypeSpec struct {
	Type        uint32   `json:"type"`
	DisplayName []string `json:"displayName,omitempty"`
}

// MessageParamSpec 消息/构造函数参数
type MessageParamSpec struct {
	Label string   `json:"label"`
	Type  TypeSpec `json:"type"`
}

// ConstructorSpec 构造函数描述
type ConstructorSpec struct {
	Label      string             `json:"label"`
	Selector   string             `json:"selector,omitempty"`
	Payable    bool               `json:"payable,omitempty"`
	Default    bool               `json:"default,omitempty"`
	Args       []MessageParamSpec `json:"args"`
	ReturnType *TypeSpec          `json:"returnType,omitempty"`
	Docs       []string           `json:"docs,omitempty"`
}

// MessageSpec 消息描述
type MessageSpec struct {
	Label      string             `json:"label"`
	Selector   string             `json:"selector,omitempty"`
	Mutates    bool               `json:"mutates,omitempty"`
	Payable    bool               `json:"payable,omitempty"`
	Default    bool               `json:"default,omitempty"`
	Args       []MessageParamSpec `json:"args"`
	ReturnType *TypeSpec          `json:"returnType,omitempty"`
	Docs       []string           `json:"docs,omitempty"`
}

// EventParamSpec 事件字段
type EventParamSpec struct {
	Label   string   `json:"label"`
	Indexed bool     `json:"indexed"`
	Type    TypeSpec `json:"type"`
	Docs    []string `json:"docs,omitempty"`
}

// EventSpec 事件描述
type EventSpec struct {
	Label          string           `json:"label"`
	ModulePath     string           `json:"module_path,omitempty"`
	SignatureTopic *string          `json:"signature_topic,omitempty"`
	Args           []EventParamSpec `json:"args"`
	Docs           []string         `json:"docs,omitempty"`
}

// EnvironmentSpec 合约期望的宿主环境类型
type EnvironmentSpec struct {
	AccountID        *TypeSpec `json:"accountId,omitempty"`
	Balance          *TypeSpec `json:"balance,omitempty"`
	Hash             *TypeSpec `json:"hash,omitempty"`
	Timestamp        *TypeSpec `json:"timestamp,omitempty"`
	BlockNumber      *TypeSpec `json:"blockNumber,omitempty"`
	ChainExtension   *TypeSpec `json:"chainExtension,omitempty"`
	MaxEventTopics   uint32    `json:"maxEventTopics,omitempty"`
	StaticBufferSize uint32    `json:"staticBufferSize,omitempty"`
}

// Fields 以节点 Environment 结构体的字段名返回环境类型引用
func (e *EnvironmentSpec) Fields() map[string]*TypeSpec {
	if e == nil {
		return nil
	}
	fields := make(map[string]*TypeSpec, 5)
	set := func(name string, ts *TypeSpec) {
		if ts != nil {
			fields[name] = ts
		}
	}
	set("account_id", e.AccountID)
	set("balance", e.Balance)
	set("hash", e.Hash)
	set("timestamp", e.Timestamp)
	set("block_number", e.BlockNumber)
	return fields
}

// ==================== 类型注册表 ====================

// PortableType 注册表中的一个类型条目
type PortableType struct {
	ID   uint32         `json:"id"`
	Type TypeDescriptor `json:"type"`
}

// TypeDescriptor 类型描述
type TypeDescriptor struct {
	Path   []string        `json:"path,omitempty"`
	Params []TypeParameter `json:"params,omitempty"`
	Def    TypeDefinition  `json:"def"`
	Docs   []string        `json:"docs,omitempty"`
}

// TypeParameter 泛型参数，Type 为空表示未绑定
type TypeParameter struct {
	Name string  `json:"name"`
	Type *uint32 `json:"type,omitempty"`
}

// TypeDefinition 类型定义，恰有一个字段非空
type TypeDefinition struct {
	Primitive   *string         `json:"primitive,omitempty"`
	Composite   *CompositeDef   `json:"composite,omitempty"`
	Variant     *VariantDef     `json:"variant,omitempty"`
	Sequence    *SequenceDef    `json:"sequence,omitempty"`
	Array       *ArrayDef       `json:"array,omitempty"`
	Tuple       *[]uint32       `json:"tuple,omitempty"`
	Compact     *CompactDef     `json:"compact,omitempty"`
	BitSequence *BitSequenceDef `json:"bitSequence,omitempty"`
}

// FieldDef 结构体/变体字段
type FieldDef struct {
	Name     *string  `json:"name,omitempty"`
	Type     uint32   `json:"type"`
	TypeName string   `json:"typeName,omitempty"`
	Docs     []string `json:"docs,omitempty"`
}

// CompositeDef 结构体定义
type CompositeDef struct {
	Fields []FieldDef `json:"fields,omitempty"`
}

// VariantCaseDef 变体分支
type VariantCaseDef struct {
	Name   string     `json:"name"`
	Fields []FieldDef `json:"fields,omitempty"`
	Index  uint8      `json:"index"`
	Docs   []string   `json:"docs,omitempty"`
}

// VariantDef 枚举定义
type VariantDef struct {
	Variants []VariantCaseDef `json:"variants,omitempty"`
}

// SequenceDef 变长序列
type SequenceDef struct {
	Type uint32 `json:"type"`
}

// ArrayDef 定长数组
type ArrayDef struct {
	Len  uint32 `json:"len"`
	Type uint32 `json:"type"`
}

// CompactDef 紧凑整数
type CompactDef struct {
	Type uint32 `json:"type"`
}

// BitSequenceDef 位序列（仅识别，不支持编解码）
type BitSequenceDef struct {
	BitStoreType uint32 `json:"bit_store_type"`
	BitOrderType uint32 `json:"bit_order_type"`
}
