package codec

// Input 解码游标
type Input struct {
	data []byte
	pos  int
}

// NewInput 在 data 上创建游标，不复制数据
func NewInput(data []byte) *Input {
	return &Input{data: data}
}

// Offset 当前偏移
func (in *Input) Offset() int { return in.pos }

// Remaining 剩余字节数
func (in *Input) Remaining() int { return len(in.data) - in.pos }

// ReadByte 读取一个字节
func (in *Input) ReadByte() (byte, error) {
	if in.pos >= len(in.data) {
		return 0, inputError(ErrUnexpectedEnd, in, "need 1 byte, 0 remaining")
	}
	b := in.data[in.pos]
	in.pos++
	return b, nil
}

// ReadN 读取 n 个字节，返回的切片引用底层数据
func (in *Input) ReadN(n int) ([]byte, error) {
	if n < 0 || n > in.Remaining() {
		return nil, inputError(ErrUnexpectedEnd, in, "need %d bytes, %d remaining", n, in.Remaining())
	}
	b := in.data[in.pos : in.pos+n]
	in.pos += n
	return b, nil
}

// Rest 返回剩余全部字节并移动到末尾
func (in *Input) Rest() []byte {
	b := in.data[in.pos:]
	in.pos = len(in.data)
	return b
}
