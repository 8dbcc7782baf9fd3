package transcode

import (
	"fmt"

	"github.com/weisyn/contract-transcode/pkg/types"
)

// ValidationSeverity 校验问题级别
type ValidationSeverity string

const (
	ValidationSeverityError   ValidationSeverity = "error"
	ValidationSeverityWarning ValidationSeverity = "warning"
)

// ValidationError 元数据校验问题
type ValidationError struct {
	RuleName    string
	Severity    ValidationSeverity
	Message     string
	Location    string
	Suggestions []string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Location, e.Message, e.RuleName)
}

// ValidateMetadata 校验元数据的完整性，返回发现的全部问题
//
// 检查内容：
//   - 类型 id 唯一，参数、返回值、事件字段引用的类型存在
//   - 构造函数、消息、事件标签非空且在各自表内唯一
//   - 选择器格式正确且在各自表内唯一
//   - 构造函数与消息同名（警告，编码该名称时报歧义）
func ValidateMetadata(md *types.ContractMetadata) []ValidationError {
	if md == nil {
		return []ValidationError{{
			RuleName:    "metadata_required",
			Severity:    ValidationSeverityError,
			Message:     "Contract metadata is required",
			Location:    "root",
			Suggestions: []string{"Provide a metadata document produced by the contract compiler"},
		}}
	}

	var problems []ValidationError
	known := make(map[uint32]bool, len(md.Types))
	for i, t := range md.Types {
		if known[t.ID] {
			problems = append(problems, ValidationError{
				RuleName: "duplicate_type_id",
				Severity: ValidationSeverityError,
				Message:  fmt.Sprintf("Duplicate type id: %d", t.ID),
				Location: fmt.Sprintf("types[%d].id", i),
			})
		}
		known[t.ID] = true
	}

	problems = append(problems, validateCalls("constructors", constructorEntries(md.Spec.Constructors), known)...)
	problems = append(problems, validateCalls("messages", messageEntries(md.Spec.Messages), known)...)
	problems = append(problems, validateEvents(md.Spec.Events, known)...)

	ctors := make(map[string]bool, len(md.Spec.Constructors))
	for _, c := range md.Spec.Constructors {
		ctors[c.Label] = true
	}
	for i, m := range md.Spec.Messages {
		if m.Label != "" && ctors[m.Label] {
			problems = append(problems, ValidationError{
				RuleName:    "shared_call_label",
				Severity:    ValidationSeverityWarning,
				Message:     "Constructor and message share the label: " + m.Label,
				Location:    fmt.Sprintf("messages[%d].label", i),
				Suggestions: []string{"Calls to this name cannot be encoded by label"},
			})
		}
	}
	return problems
}

// Errors 过滤出错误级别的问题
func Errors(problems []ValidationError) []ValidationError {
	var out []ValidationError
	for _, p := range problems {
		if p.Severity == ValidationSeverityError {
			out = append(out, p)
		}
	}
	return out
}

type callEntry struct {
	label    string
	selector string
	args     []types.MessageParamSpec
	ret      *types.TypeSpec
}

func constructorEntries(specs []types.ConstructorSpec) []callEntry {
	out := make([]callEntry, len(specs))
	for i, s := range specs {
		out[i] = callEntry{s.Label, s.Selector, s.Args, s.ReturnType}
	}
	return out
}

func messageEntries(specs []types.MessageSpec) []callEntry {
	out := make([]callEntry, len(specs))
	for i, s := range specs {
		out[i] = callEntry{s.Label, s.Selector, s.Args, s.ReturnType}
	}
	return out
}

func validateCalls(table string, calls []callEntry, known map[uint32]bool) []ValidationError {
	var problems []ValidationError
	labels := make(map[string]bool)
	selectors := make(map[Selector]string)
	for i, c := range calls {
		loc := fmt.Sprintf("%s[%d]", table, i)
		if c.label == "" {
			problems = append(problems, ValidationError{
				RuleName:    "label_required",
				Severity:    ValidationSeverityError,
				Message:     "Label is required",
				Location:    loc + ".label",
				Suggestions: []string{"Provide a valid label"},
			})
		} else if labels[c.label] {
			problems = append(problems, ValidationError{
				RuleName:    "duplicate_label",
				Severity:    ValidationSeverityError,
				Message:     "Duplicate label: " + c.label,
				Location:    loc + ".label",
				Suggestions: []string{"Use unique labels"},
			})
		}
		labels[c.label] = true

		sel := DeriveSelector(c.label)
		if c.selector != "" {
			parsed, err := ParseSelector(c.selector)
			if err != nil {
				problems = append(problems, ValidationError{
					RuleName: "selector_format",
					Severity: ValidationSeverityError,
					Message:  err.Error(),
					Location: loc + ".selector",
				})
				continue
			}
			sel = parsed
		}
		if other, dup := selectors[sel]; dup {
			problems = append(problems, ValidationError{
				RuleName: "duplicate_selector",
				Severity: ValidationSeverityError,
				Message:  fmt.Sprintf("Selector %s of %s is already used by %s", sel, c.label, other),
				Location: loc + ".selector",
			})
		}
		selectors[sel] = c.label

		for j, a := range c.args {
			if !known[a.Type.Type] {
				problems = append(problems, unknownType(fmt.Sprintf("%s.args[%d].type", loc, j), a.Type.Type))
			}
		}
		if c.ret != nil && !known[c.ret.Type] {
			problems = append(problems, unknownType(loc+".returnType", c.ret.Type))
		}
	}
	return problems
}

func validateEvents(events []types.EventSpec, known map[uint32]bool) []ValidationError {
	var problems []ValidationError
	labels := make(map[string]bool)
	for i, e := range events {
		loc := fmt.Sprintf("events[%d]", i)
		if e.Label == "" {
			problems = append(problems, ValidationError{
				RuleName: "label_required",
				Severity: ValidationSeverityError,
				Message:  "Event label is required",
				Location: loc + ".label",
			})
		} else if labels[e.Label] {
			problems = append(problems, ValidationError{
				RuleName: "duplicate_event_label",
				Severity: ValidationSeverityWarning,
				Message:  "Duplicate event label: " + e.Label,
				Location: loc + ".label",
			})
		}
		labels[e.Label] = true

		if e.SignatureTopic != nil {
			if _, err := decodeHash(*e.SignatureTopic); err != nil {
				problems = append(problems, ValidationError{
					RuleName: "signature_topic_format",
					Severity: ValidationSeverityError,
					Message:  err.Error(),
					Location: loc + ".signature_topic",
				})
			}
		}
		for j, a := range e.Args {
			if !known[a.Type.Type] {
				problems = append(problems, unknownType(fmt.Sprintf("%s.args[%d].type", loc, j), a.Type.Type))
			}
		}
	}
	if len(events) > 256 {
		problems = append(problems, ValidationError{
			RuleName: "too_many_events",
			Severity: ValidationSeverityWarning,
			Message:  fmt.Sprintf("%d events declared, only the first 256 are addressable by index", len(events)),
			Location: "events",
		})
	}
	return problems
}

func unknownType(location string, id uint32) ValidationError {
	return ValidationError{
		RuleName: "type_reference",
		Severity: ValidationSeverityError,
		Message:  fmt.Sprintf("Type id %d is not defined in the registry", id),
		Location: location,
	}
}
