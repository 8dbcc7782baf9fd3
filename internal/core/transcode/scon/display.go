package scon

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const prettyIndent = "    "

// String 单行输出
func (v Value) String() string {
	var sb strings.Builder
	v.write(&sb, false, 0)
	return sb.String()
}

// Pretty 多行缩进输出
func Pretty(v Value) string {
	var sb strings.Builder
	v.write(&sb, true, 0)
	return sb.String()
}

// Format 实现 fmt.Formatter，%+v 输出多行格式
func (v Value) Format(f fmt.State, verb rune) {
	switch {
	case verb == 'v' && f.Flag('+'):
		_, _ = f.Write([]byte(Pretty(v)))
	default:
		_, _ = f.Write([]byte(v.String()))
	}
}

func (v Value) write(sb *strings.Builder, pretty bool, depth int) {
	switch v.kind {
	case KindBool:
		if v.flag {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case KindChar:
		sb.WriteByte('\'')
		writeEscaped(sb, string(v.char), '\'')
		sb.WriteByte('\'')
	case KindUInt, KindInt:
		sb.WriteString(v.num.String())
	case KindString:
		sb.WriteByte('"')
		writeEscaped(sb, v.text, '"')
		sb.WriteByte('"')
	case KindBytes:
		sb.WriteString("0x")
		sb.WriteString(hex.EncodeToString(v.bytes))
	case KindLiteral:
		sb.WriteString(v.text)
	case KindUnit:
		sb.WriteString("()")
	case KindOption:
		if len(v.elems) == 0 {
			sb.WriteString("None")
			return
		}
		writeList(sb, "Some(", ")", v.elems, pretty, depth)
	case KindSeq:
		writeList(sb, "[", "]", v.elems, pretty, depth)
	case KindTuple:
		if v.ident != "" && len(v.elems) == 0 {
			sb.WriteString(v.ident)
			return
		}
		writeList(sb, v.ident+"(", ")", v.elems, pretty, depth)
	case KindMap:
		if v.ident != "" {
			sb.WriteString(v.ident)
			sb.WriteByte(' ')
		}
		writeFields(sb, v.fields, pretty, depth)
	}
}

func writeList(sb *strings.Builder, open, closer string, elems []Value, pretty bool, depth int) {
	sb.WriteString(open)
	if len(elems) == 0 {
		sb.WriteString(closer)
		return
	}
	if pretty && !allScalar(elems) {
		for _, e := range elems {
			sb.WriteByte('\n')
			sb.WriteString(strings.Repeat(prettyIndent, depth+1))
			e.write(sb, true, depth+1)
			sb.WriteByte(',')
		}
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat(prettyIndent, depth))
		sb.WriteString(closer)
		return
	}
	for i, e := range elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		e.write(sb, pretty, depth)
	}
	sb.WriteString(closer)
}

func writeFields(sb *strings.Builder, fields []Field, pretty bool, depth int) {
	if len(fields) == 0 {
		sb.WriteString("{}")
		return
	}
	if pretty {
		sb.WriteByte('{')
		for _, f := range fields {
			sb.WriteByte('\n')
			sb.WriteString(strings.Repeat(prettyIndent, depth+1))
			writeKey(sb, f.Name)
			sb.WriteString(": ")
			f.Value.write(sb, true, depth+1)
			sb.WriteByte(',')
		}
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat(prettyIndent, depth))
		sb.WriteByte('}')
		return
	}
	sb.WriteString("{ ")
	for i, f := range fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeKey(sb, f.Name)
		sb.WriteString(": ")
		f.Value.write(sb, false, depth)
	}
	sb.WriteString(" }")
}

func writeKey(sb *strings.Builder, name string) {
	if isPlainKey(name) {
		sb.WriteString(name)
		return
	}
	sb.WriteByte('"')
	writeEscaped(sb, name, '"')
	sb.WriteByte('"')
}

func isPlainKey(name string) bool {
	if name == "" {
		return false
	}
	if isDigit(name[0]) {
		for i := 0; i < len(name); i++ {
			if !isDigit(name[i]) {
				return false
			}
		}
		return true
	}
	if !isIdentStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isIdentChar(name[i]) {
			return false
		}
	}
	return true
}

func allScalar(elems []Value) bool {
	for _, e := range elems {
		switch e.kind {
		case KindSeq, KindTuple, KindMap, KindOption:
			return false
		}
	}
	return true
}

func writeEscaped(sb *strings.Builder, s string, quote byte) {
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case rune(quote):
			sb.WriteByte('\\')
			sb.WriteByte(quote)
		default:
			if r < 0x20 {
				fmt.Fprintf(sb, `\u%04x`, r)
				continue
			}
			sb.WriteRune(r)
		}
	}
}
