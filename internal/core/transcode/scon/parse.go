package scon

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// ErrParse 文本值解析失败
var ErrParse = errors.New("parse error")

// ParseError 解析错误，携带字节偏移与期望的记号描述
type ParseError struct {
	Offset   int
	Expected string
	Found    string
}

func (e *ParseError) Error() string {
	if e.Found == "" {
		return fmt.Sprintf("parse error at offset %d: expected %s, found end of input", e.Offset, e.Expected)
	}
	return fmt.Sprintf("parse error at offset %d: expected %s, found %q", e.Offset, e.Expected, e.Found)
}

func (e *ParseError) Unwrap() error { return ErrParse }

const (
	// literalMinLen 超过该长度的纯字母数字记号视为不透明字面量
	literalMinLen = 40
	maxParseDepth = 256
)

// Parse 将文本解析为 Value，输入必须恰好包含一个值
func Parse(input string) (Value, error) {
	p := &parser{src: input}
	p.skipSpace()
	v, err := p.value(0)
	if err != nil {
		return Value{}, err
	}
	p.skipSpace()
	if !p.eof() {
		return Value{}, p.fail("end of input")
	}
	return v, nil
}

// MustParse 解析失败时 panic，仅用于测试与常量
func MustParse(input string) Value {
	v, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return v
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) fail(expected string) *ParseError {
	found := ""
	if !p.eof() {
		r, _ := utf8.DecodeRuneInString(p.src[p.pos:])
		found = string(r)
	}
	return &ParseError{Offset: p.pos, Expected: expected, Found: found}
}

func (p *parser) failAt(offset int, expected, found string) *ParseError {
	return &ParseError{Offset: offset, Expected: expected, Found: found}
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *parser) consume(c byte) bool {
	if p.peek() == c && !p.eof() {
		p.pos++
		return true
	}
	return false
}

func isSpace(c byte) bool      { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool      { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isAlnum(c byte) bool      { return isDigit(c) || isAlpha(c) }
func isIdentStart(c byte) bool { return isAlpha(c) || c == '_' }
func isIdentChar(c byte) bool  { return isAlnum(c) || c == '_' }

func (p *parser) value(depth int) (Value, error) {
	if depth > maxParseDepth {
		return Value{}, p.fail("less deeply nested value")
	}
	if p.eof() {
		return Value{}, p.fail("value")
	}

	if lit, ok := p.literal(); ok {
		return Literal(lit), nil
	}

	c := p.peek()
	switch {
	case c == '[':
		return p.seq(depth)
	case c == '(':
		return p.composite("", depth)
	case c == '{':
		return p.composite("", depth)
	case c == '"':
		s, err := p.quoted('"')
		if err != nil {
			return Value{}, err
		}
		return String(s), nil
	case c == '\'':
		return p.char()
	case c == '0' && p.pos+1 < len(p.src) && (p.src[p.pos+1] == 'x' || p.src[p.pos+1] == 'X'):
		return p.hexBytes()
	case isDigit(c) || c == '+' || c == '-':
		return p.number()
	case isIdentStart(c):
		return p.named(depth)
	}
	return Value{}, p.fail("value")
}

// literal 识别超长字母数字记号；纯数字的记号仍按整数解析
func (p *parser) literal() (string, bool) {
	end := p.pos
	allDigits := true
	for end < len(p.src) && isAlnum(p.src[end]) {
		if !isDigit(p.src[end]) {
			allDigits = false
		}
		end++
	}
	if end-p.pos < literalMinLen || allDigits {
		return "", false
	}
	if end < len(p.src) && p.src[end] == '_' {
		return "", false
	}
	if strings.HasPrefix(p.src[p.pos:], "0x") || strings.HasPrefix(p.src[p.pos:], "0X") {
		return "", false
	}
	// 后跟 ( 或 { 时是具名元组/结构体
	next := end
	for next < len(p.src) && isSpace(p.src[next]) {
		next++
	}
	if next < len(p.src) && (p.src[next] == '(' || p.src[next] == '{') {
		return "", false
	}
	lit := p.src[p.pos:end]
	p.pos = end
	return lit, true
}

func (p *parser) seq(depth int) (Value, error) {
	p.pos++ // '['
	var elems []Value
	for {
		p.skipSpace()
		if p.consume(']') {
			return Seq(elems...), nil
		}
		v, err := p.value(depth + 1)
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, v)
		p.skipSpace()
		if p.consume(',') {
			continue
		}
		if p.consume(']') {
			return Seq(elems...), nil
		}
		return Value{}, p.fail("',' or ']'")
	}
}

// named 处理以标识符开头的值：true/false、None/Some、具名元组/结构体以及单独的标识符
func (p *parser) named(depth int) (Value, error) {
	start := p.pos
	for !p.eof() && isIdentChar(p.src[p.pos]) {
		p.pos++
	}
	ident := p.src[start:p.pos]

	switch ident {
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	}

	save := p.pos
	p.skipSpace()
	next := p.peek()
	if p.eof() || (next != '(' && next != '{') {
		p.pos = save
		if ident == "None" {
			return None(), nil
		}
		if ident == "Some" {
			return Value{}, p.fail("'(' after Some")
		}
		return Tuple(ident), nil
	}

	v, err := p.composite(ident, depth)
	if err != nil {
		return Value{}, err
	}
	switch ident {
	case "None":
		if v.Len() == 0 && v.Kind() != KindMap {
			return None(), nil
		}
	case "Some":
		if v.Kind() == KindTuple {
			if v.Len() != 1 {
				return Value{}, p.failAt(start, "exactly one value inside Some(..)", ident)
			}
			return Some(v.elems[0]), nil
		}
	}
	return v, nil
}

// composite 解析 (..) 或 {..}，根据首个条目是否为 "key:" 判断结构体或元组
func (p *parser) composite(ident string, depth int) (Value, error) {
	open := p.peek()
	closer := byte(')')
	if open == '{' {
		closer = '}'
	}
	p.pos++
	p.skipSpace()

	if p.consume(closer) {
		if open == '{' {
			return Map(ident), nil
		}
		if ident == "" {
			return Unit(), nil
		}
		return Tuple(ident), nil
	}

	isMap := open == '{' || p.looksLikeKey()
	var elems []Value
	var fields []Field
	for {
		p.skipSpace()
		if p.consume(closer) {
			break
		}
		if isMap {
			key, err := p.key()
			if err != nil {
				return Value{}, err
			}
			p.skipSpace()
			if !p.consume(':') {
				return Value{}, p.fail("':'")
			}
			p.skipSpace()
			v, err := p.value(depth + 1)
			if err != nil {
				return Value{}, err
			}
			fields = append(fields, Field{Name: key, Value: v})
		} else {
			v, err := p.value(depth + 1)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, v)
		}
		p.skipSpace()
		if p.consume(',') {
			continue
		}
		if p.consume(closer) {
			break
		}
		return Value{}, p.fail(fmt.Sprintf("',' or '%c'", closer))
	}

	if isMap {
		return Map(ident, fields...), nil
	}
	return Tuple(ident, elems...), nil
}

func (p *parser) looksLikeKey() bool {
	save := p.pos
	defer func() { p.pos = save }()
	if _, err := p.key(); err != nil {
		return false
	}
	p.skipSpace()
	return p.peek() == ':'
}

// key 结构体键：标识符、字符串或整数
func (p *parser) key() (string, error) {
	c := p.peek()
	switch {
	case p.eof():
		return "", p.fail("field name")
	case c == '"':
		return p.quoted('"')
	case isIdentStart(c):
		start := p.pos
		for !p.eof() && isIdentChar(p.src[p.pos]) {
			p.pos++
		}
		return p.src[start:p.pos], nil
	case isDigit(c):
		start := p.pos
		for !p.eof() && (isDigit(p.src[p.pos]) || p.src[p.pos] == '_') {
			p.pos++
		}
		return strings.ReplaceAll(p.src[start:p.pos], "_", ""), nil
	}
	return "", p.fail("field name")
}

var intSuffixes = []string{"u8", "u16", "u32", "u64", "u128", "u256", "i8", "i16", "i32", "i64", "i128", "i256"}

func (p *parser) number() (Value, error) {
	start := p.pos
	sign := byte(0)
	if c := p.peek(); c == '+' || c == '-' {
		sign = c
		p.pos++
	}
	if !isDigit(p.peek()) || p.eof() {
		return Value{}, p.fail("digit")
	}

	var digits strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		if isDigit(c) {
			digits.WriteByte(c)
			p.pos++
			continue
		}
		if c == '_' && p.pos+1 < len(p.src) && isDigit(p.src[p.pos+1]) {
			p.pos++
			continue
		}
		break
	}

	suffix := ""
	for _, s := range intSuffixes {
		if strings.HasPrefix(p.src[p.pos:], s) {
			end := p.pos + len(s)
			if end == len(p.src) || !isIdentChar(p.src[end]) {
				suffix = s
				p.pos = end
				break
			}
		}
	}
	if !p.eof() && isIdentChar(p.src[p.pos]) {
		return Value{}, p.fail("integer suffix or delimiter")
	}

	n, ok := new(big.Int).SetString(digits.String(), 10)
	if !ok {
		return Value{}, p.failAt(start, "integer", p.src[start:p.pos])
	}
	if sign == '-' {
		n.Neg(n)
	}

	if suffix != "" && !fitsSuffix(n, suffix) {
		return Value{}, p.failAt(start, "integer within range of "+suffix, p.src[start:p.pos])
	}
	if sign == 0 {
		return UInt(n), nil
	}
	return Int(n), nil
}

func fitsSuffix(n *big.Int, suffix string) bool {
	bits, _ := strconv.Atoi(suffix[1:])
	if suffix[0] == 'u' {
		return n.Sign() >= 0 && n.BitLen() <= bits
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	if n.Sign() >= 0 {
		return n.Cmp(limit) < 0
	}
	return new(big.Int).Neg(n).Cmp(limit) <= 0
}

func (p *parser) hexBytes() (Value, error) {
	start := p.pos
	p.pos += 2
	digitsStart := p.pos
	for !p.eof() && isHexDigit(p.src[p.pos]) {
		p.pos++
	}
	if !p.eof() && isIdentChar(p.src[p.pos]) {
		return Value{}, p.fail("hex digit")
	}
	hexDigits := p.src[digitsStart:p.pos]
	if len(hexDigits)%2 != 0 {
		return Value{}, p.failAt(start, "even number of hex digits", p.src[start:p.pos])
	}
	out := make([]byte, len(hexDigits)/2)
	for i := 0; i < len(out); i++ {
		out[i] = unhex(hexDigits[2*i])<<4 | unhex(hexDigits[2*i+1])
	}
	return Value{kind: KindBytes, bytes: out}, nil
}

func isHexDigit(c byte) bool {
	return isDigit(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case isDigit(c):
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

func (p *parser) char() (Value, error) {
	start := p.pos
	p.pos++ // '\''
	if p.eof() {
		return Value{}, p.fail("character")
	}
	var r rune
	if p.peek() == '\\' {
		var err error
		r, err = p.escape('\'')
		if err != nil {
			return Value{}, err
		}
	} else {
		var size int
		r, size = utf8.DecodeRuneInString(p.src[p.pos:])
		if r == utf8.RuneError && size <= 1 {
			return Value{}, p.fail("valid UTF-8 character")
		}
		if r == '\'' {
			return Value{}, p.failAt(start, "character", "''")
		}
		p.pos += size
	}
	if !p.consume('\'') {
		return Value{}, p.fail("closing '")
	}
	return Char(r), nil
}

func (p *parser) quoted(quote byte) (string, error) {
	p.pos++ // opening quote
	var sb strings.Builder
	for {
		if p.eof() {
			return "", p.fail(fmt.Sprintf("closing %c", quote))
		}
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return sb.String(), nil
		case c == '\\':
			r, err := p.escape(quote)
			if err != nil {
				return "", err
			}
			sb.WriteRune(r)
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			if r == utf8.RuneError && size <= 1 {
				return "", p.fail("valid UTF-8 character")
			}
			sb.WriteRune(r)
			p.pos += size
		}
	}
}

// escape 解析转义序列，p.pos 指向反斜杠
func (p *parser) escape(quote byte) (rune, error) {
	p.pos++
	if p.eof() {
		return 0, p.fail("escape sequence")
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
	case '"', '\\', '/':
		return rune(c), nil
	case '\'':
		if quote == '\'' {
			return '\'', nil
		}
	case 'b':
		return '\b', nil
	case 'f':
		return '\f', nil
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 't':
		return '\t', nil
	case 'u':
		r, err := p.hex4()
		if err != nil {
			return 0, err
		}
		if utf16.IsSurrogate(r) {
			if !strings.HasPrefix(p.src[p.pos:], `\u`) {
				return 0, p.fail("low surrogate escape")
			}
			p.pos += 2
			lo, err := p.hex4()
			if err != nil {
				return 0, err
			}
			r = utf16.DecodeRune(r, lo)
			if r == utf8.RuneError {
				return 0, p.failAt(p.pos-12, "valid surrogate pair", p.src[p.pos-12:p.pos])
			}
		}
		return r, nil
	}
	p.pos--
	return 0, p.fail("escape sequence")
}

func (p *parser) hex4() (rune, error) {
	if p.pos+4 > len(p.src) {
		return 0, p.fail("4 hex digits")
	}
	var r rune
	for i := 0; i < 4; i++ {
		c := p.src[p.pos+i]
		if !isHexDigit(c) {
			p.pos += i
			return 0, p.fail("hex digit")
		}
		r = r<<4 | rune(unhex(c))
	}
	p.pos += 4
	return r, nil
}
