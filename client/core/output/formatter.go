// Package output provides output formatting functionality for client commands.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pterm/pterm"

	"github.com/weisyn/contract-transcode/internal/core/transcode/scon"
)

// Format 输出格式
type Format string

const (
	// FormatJSON JSON格式（默认）
	FormatJSON Format = "json"
	// FormatPretty 美化JSON格式
	FormatPretty Format = "pretty"
	// FormatTable 表格格式
	FormatTable Format = "table"
	// FormatText 纯文本格式
	FormatText Format = "text"
)

// ParseFormat 解析输出格式名
func ParseFormat(name string) (Format, error) {
	switch f := Format(name); f {
	case FormatJSON, FormatPretty, FormatTable, FormatText:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (json|pretty|table|text)", name)
}

// Formatter 输出格式化器
type Formatter struct {
	format    Format
	writer    io.Writer // 数据输出（JSON/表格等）
	logWriter io.Writer // 提示输出（Info/Success/Error等）
	silent    bool
}

// NewFormatter 创建格式化器
func NewFormatter(format Format, writer io.Writer) *Formatter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Formatter{
		format:    format,
		writer:    writer,
		logWriter: os.Stderr, // 提示输出到 stderr，避免污染 JSON
	}
}

// SetLogWriter 设置提示输出目标（默认 stderr）
func (f *Formatter) SetLogWriter(writer io.Writer) {
	if writer == nil {
		writer = os.Stderr
	}
	f.logWriter = writer
}

// SetSilent 设置静默模式，只保留命令结果
func (f *Formatter) SetSilent(silent bool) {
	f.silent = silent
}

// Format 当前输出格式
func (f *Formatter) Format() Format {
	return f.format
}

// Print 打印输出
func (f *Formatter) Print(data interface{}) error {
	switch f.format {
	case FormatPretty:
		return f.printJSON(data, true)
	case FormatTable:
		return f.printTable(data)
	case FormatText:
		return f.printText(data)
	default:
		return f.printJSON(data, false)
	}
}

// ValueOutput 解码结果
type ValueOutput struct {
	Name  string `json:"name,omitempty"`
	Value string `json:"value"`
}

// PrintValue 打印解码出的值
//
// JSON 格式下值以单行 SCON 文本放在 value 字段；文本与表格格式输出缩进的 SCON 文本。
func (f *Formatter) PrintValue(name string, v scon.Value) error {
	switch f.format {
	case FormatText, FormatTable:
		return f.printText(scon.Pretty(v))
	}
	return f.Print(ValueOutput{Name: name, Value: v.String()})
}

// PrintTable 打印带表头的表格，JSON 格式下输出为对象数组
func (f *Formatter) PrintTable(headers []string, rows [][]string) error {
	if f.format == FormatTable || f.format == FormatText {
		data := make(pterm.TableData, 0, len(rows)+1)
		data = append(data, headers)
		data = append(data, rows...)
		return f.renderTable(data, true)
	}

	objects := make([]map[string]string, len(rows))
	for i, row := range rows {
		obj := make(map[string]string, len(headers))
		for j, h := range headers {
			if j < len(row) {
				obj[h] = row[j]
			}
		}
		objects[i] = obj
	}
	return f.Print(objects)
}

// printJSON 打印JSON格式
func (f *Formatter) printJSON(data interface{}, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if _, err := fmt.Fprintln(f.writer, string(output)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// printTable 打印表格格式，无法表格化的数据降级为美化JSON
func (f *Formatter) printTable(data interface{}) error {
	switch v := data.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rows := pterm.TableData{{"Key", "Value"}}
		for _, k := range keys {
			rows = append(rows, []string{k, formatValue(v[k])})
		}
		return f.renderTable(rows, true)
	case map[string]string:
		m := make(map[string]interface{}, len(v))
		for k, s := range v {
			m[k] = s
		}
		return f.printTable(m)
	default:
		return f.printJSON(data, true)
	}
}

func (f *Formatter) renderTable(data pterm.TableData, header bool) error {
	out, err := pterm.DefaultTable.WithHasHeader(header).WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	if _, err := fmt.Fprintln(f.writer, out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// printText 打印纯文本格式
func (f *Formatter) printText(data interface{}) error {
	if _, err := fmt.Fprintf(f.writer, "%v\n", data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// PrintSuccess 打印成功消息
func (f *Formatter) PrintSuccess(message string) {
	if f.silent {
		return
	}
	_, _ = fmt.Fprintf(f.logWriter, "✅ %s\n", message)
}

// PrintError 打印错误消息，静默模式下同样输出
func (f *Formatter) PrintError(err error) {
	_, _ = fmt.Fprintf(f.logWriter, "❌ Error: %v\n", err)
}

// PrintWarning 打印警告消息
func (f *Formatter) PrintWarning(message string) {
	if f.silent {
		return
	}
	_, _ = fmt.Fprintf(f.logWriter, "⚠️  %s\n", message)
}

// PrintInfo 打印信息消息
func (f *Formatter) PrintInfo(message string) {
	if f.silent {
		return
	}
	_, _ = fmt.Fprintf(f.logWriter, "ℹ️  %s\n", message)
}

// formatValue 格式化表格单元格
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case int, int64, uint, uint64:
		return fmt.Sprintf("%d", v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case scon.Value:
		return v.String()
	case nil:
		return "-"
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// ErrorOutput 错误输出结构
type ErrorOutput struct {
	Error struct {
		Code    string      `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	} `json:"error"`
}

// NewErrorOutput 创建错误输出
func NewErrorOutput(code string, message string, details interface{}) *ErrorOutput {
	output := &ErrorOutput{}
	output.Error.Code = code
	output.Error.Message = message
	output.Error.Details = details
	return output
}
