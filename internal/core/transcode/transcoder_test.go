package transcode

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"

	"github.com/weisyn/contract-transcode/internal/core/transcode/codec"
	"github.com/weisyn/contract-transcode/internal/core/transcode/scon"
	"github.com/weisyn/contract-transcode/pkg/types"
)

const (
	alicePub  = "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	aliceSS58 = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
)

func loadFlipper(t *testing.T) *types.ContractMetadata {
	t.Helper()
	raw, err := os.ReadFile("testdata/flipper.json")
	require.NoError(t, err)
	var md types.ContractMetadata
	require.NoError(t, json.Unmarshal(raw, &md))
	return &md
}

func newFlipper(t *testing.T) *ContractMessageTranscoder {
	t.Helper()
	tr, err := New(loadFlipper(t))
	require.NoError(t, err)
	return tr
}

func unhex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// TestSelector 测试选择器解析与推导
func TestSelector(t *testing.T) {
	sel, err := ParseSelector("0x633aa551")
	require.NoError(t, err)
	assert.Equal(t, DeriveSelector("flip"), sel)
	assert.Equal(t, "0x633aa551", sel.String())
	assert.Equal(t, "0x84a15da1", DeriveSelector("transfer").String())

	_, err = ParseSelector("0x1234")
	assert.Error(t, err)
	_, err = ParseSelector("633aa551")
	assert.Error(t, err)
}

// TestNew 测试由元数据构建选择器表
func TestNew(t *testing.T) {
	tr := newFlipper(t)

	assert.Len(t, tr.Constructors(), 2)
	assert.Len(t, tr.Messages(), 6)
	assert.Len(t, tr.Events(), 2)

	transfer, ok := tr.FindMessage("transfer")
	require.True(t, ok)
	assert.Equal(t, DeriveSelector("transfer"), transfer.Selector, "缺省选择器由标签推导")
	assert.True(t, transfer.Payable)
	require.Len(t, transfer.Args, 2)
	assert.Equal(t, "AccountId", transfer.Args[0].DisplayName)

	ctor, ok := tr.FindConstructor("default")
	require.True(t, ok)
	assert.True(t, ctor.Default)
	assert.Equal(t, KindConstructor, ctor.Kind)

	ev, ok := tr.FindEvent("Transferred")
	require.True(t, ok)
	assert.Equal(t, 1, ev.Index)
	assert.Equal(t, []int{0, 1}, ev.Topics())
	require.NotNil(t, ev.SignatureTopic)

	t.Run("非法元数据", func(t *testing.T) {
		md := loadFlipper(t)
		md.Spec.Messages[0].Selector = "0xzz"
		_, err := New(md)
		assert.True(t, errors.Is(err, ErrInvalidMetadata))
	})

	t.Run("悬空类型引用", func(t *testing.T) {
		md := loadFlipper(t)
		md.Spec.Messages[2].Args[0].Type.Type = 99
		_, err := New(md)
		assert.True(t, errors.Is(err, ErrInvalidMetadata))
	})
}

// TestEncodeCall 测试调用数据编码
func TestEncodeCall(t *testing.T) {
	tr := newFlipper(t)
	tests := []struct {
		name string
		call string
		args []string
		want string
	}{
		{"单参数消息", "inc", []string{"5"}, "babababa05000000"},
		{"无参数消息", "get", nil, "cacacaca"},
		{"构造函数", "new", []string{"true"}, "9bae9d5e01"},
		{"负数参数", "inc", []string{"-2"}, "babababafeffffff"},
		{"账户与余额", "transfer", []string{aliceSS58, "1_000"}, "84a15da1" + alicePub + "e8030000000000000000000000000000"},
		{"账户序列", "set_accounts", []string{"[" + aliceSS58 + ", 0x" + alicePub + "]"}, "11223344" + "08" + alicePub + alicePub},
		{"字符串", "echo", []string{`"hi"`}, "0000000a" + "086869"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tr.EncodeCall(tt.call, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, hex.EncodeToString(got))
		})
	}

	t.Run("按值编码", func(t *testing.T) {
		got, err := tr.EncodeValues("inc", []scon.Value{scon.Int64(5)})
		require.NoError(t, err)
		assert.Equal(t, "babababa05000000", hex.EncodeToString(got))
	})
}

// TestEncodeCall_Errors 测试调用编码错误
func TestEncodeCall_Errors(t *testing.T) {
	tr := newFlipper(t)

	t.Run("未知名称并给出建议", func(t *testing.T) {
		_, err := tr.EncodeCall("fip", nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, codec.ErrNotFound))
		assert.Contains(t, err.Error(), "No constructor or message with the name 'fip' found.\nDid you mean 'flip'?")
	})

	t.Run("无相近名称", func(t *testing.T) {
		_, err := tr.EncodeCall("zzzzzzzz", nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, codec.ErrNotFound))
		assert.NotContains(t, err.Error(), "Did you mean")
	})

	t.Run("参数个数不符", func(t *testing.T) {
		_, err := tr.EncodeCall("inc", nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, codec.ErrArityMismatch))
		assert.Contains(t, err.Error(), "Invalid number of input arguments: expected 1, 0 provided")

		_, err = tr.EncodeValues("get", []scon.Value{scon.Unit()})
		assert.True(t, errors.Is(err, codec.ErrArityMismatch))
	})

	t.Run("参数解析失败", func(t *testing.T) {
		_, err := tr.EncodeCall("inc", []string{"(("})
		require.Error(t, err)
		assert.True(t, errors.Is(err, scon.ErrParse))
		var pe *scon.ParseError
		assert.True(t, errors.As(err, &pe))
		assert.Contains(t, err.Error(), "argument 'by'")
	})

	t.Run("参数编码失败", func(t *testing.T) {
		_, err := tr.EncodeCall("inc", []string{"4294967296"})
		assert.True(t, errors.Is(err, codec.ErrIntegerOverflow))
		_, err = tr.EncodeCall("new", []string{"1"})
		assert.True(t, errors.Is(err, codec.ErrTypeMismatch))
	})

	t.Run("构造函数与消息同名", func(t *testing.T) {
		md := loadFlipper(t)
		md.Spec.Messages = append(md.Spec.Messages, types.MessageSpec{Label: "new", Selector: "0x01020304"})
		dup, err := New(md)
		require.NoError(t, err)
		_, err = dup.EncodeCall("new", []string{"true"})
		assert.True(t, errors.Is(err, codec.ErrAmbiguousName))
	})
}

// TestDecodeCall 测试调用数据解码
func TestDecodeCall(t *testing.T) {
	tr := newFlipper(t)

	t.Run("消息", func(t *testing.T) {
		name, v, err := tr.DecodeCall(unhex(t, "babababa05000000"))
		require.NoError(t, err)
		assert.Equal(t, "inc", name)
		assert.True(t, scon.Tuple("inc", scon.Int64(5)).Equal(v), v.String())
	})

	t.Run("构造函数", func(t *testing.T) {
		name, v, err := tr.DecodeCall(unhex(t, "9bae9d5e01"))
		require.NoError(t, err)
		assert.Equal(t, "new", name)
		assert.True(t, scon.Tuple("new", scon.Bool(true)).Equal(v))
	})

	t.Run("编码后解码", func(t *testing.T) {
		data, err := tr.EncodeCall("set_accounts", []string{"[" + aliceSS58 + "]"})
		require.NoError(t, err)
		name, v, err := tr.DecodeCall(data)
		require.NoError(t, err)
		assert.Equal(t, "set_accounts", name)
		want := scon.Tuple("set_accounts", scon.Seq(scon.Literal(aliceSS58)))
		assert.True(t, want.Equal(v), v.String())
	})

	t.Run("按参数标签解码", func(t *testing.T) {
		v, err := tr.DecodeMessage(unhex(t, "babababa05000000"))
		require.NoError(t, err)
		assert.True(t, scon.Map("inc", scon.F("by", scon.Int64(5))).Equal(v))

		v, err = tr.DecodeConstructor(unhex(t, "9bae9d5e00"))
		require.NoError(t, err)
		assert.True(t, scon.Map("new", scon.F("init_value", scon.Bool(false))).Equal(v))
	})

	t.Run("错误", func(t *testing.T) {
		_, _, err := tr.DecodeCall(unhex(t, "deadbeef"))
		assert.True(t, errors.Is(err, codec.ErrUnknownSelector))

		_, _, err = tr.DecodeCall(unhex(t, "babababa0500000000"))
		assert.True(t, errors.Is(err, codec.ErrTrailingBytes))

		_, _, err = tr.DecodeCall(unhex(t, "baba"))
		assert.True(t, errors.Is(err, codec.ErrUnexpectedEnd))

		_, err = tr.DecodeConstructor(unhex(t, "babababa05000000"))
		assert.True(t, errors.Is(err, codec.ErrUnknownSelector))
	})
}

// TestDecodeReturn 测试返回值解码
func TestDecodeReturn(t *testing.T) {
	tr := newFlipper(t)

	v, err := tr.DecodeMessageReturn("get", unhex(t, "0001"))
	require.NoError(t, err)
	assert.True(t, scon.Tuple("Ok", scon.Bool(true)).Equal(v), v.String())

	v, err = tr.DecodeMessageReturn("echo", unhex(t, "0c616263"))
	require.NoError(t, err)
	assert.True(t, scon.String("abc").Equal(v))

	v, err = tr.DecodeMessageReturn("inc", nil)
	require.NoError(t, err)
	assert.True(t, scon.Unit().Equal(v))

	v, err = tr.DecodeConstructorReturn("new", unhex(t, "00"))
	require.NoError(t, err)
	assert.True(t, scon.Tuple("Ok", scon.Unit()).Equal(v), v.String())

	v, err = tr.DecodeMessageReturn("flip", unhex(t, "0101"))
	require.NoError(t, err)
	assert.True(t, scon.Tuple("Err", scon.Tuple("CouldNotReadInput")).Equal(v), v.String())

	_, err = tr.DecodeMessageReturn("gett", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, codec.ErrNotFound))
	assert.Contains(t, err.Error(), "Did you mean 'get'?")

	_, err = tr.DecodeMessageReturn("inc", []byte{1})
	assert.True(t, errors.Is(err, codec.ErrTrailingBytes))
}

// TestDecodeEvent 测试事件解码
func TestDecodeEvent(t *testing.T) {
	tr := newFlipper(t)
	transferred := "00" + "01" + alicePub + "64" + strings.Repeat("00", 15)

	t.Run("按位置", func(t *testing.T) {
		name, v, err := tr.DecodeEvent(unhex(t, "0001"))
		require.NoError(t, err)
		assert.Equal(t, "Flipped", name)
		assert.True(t, scon.Map("Flipped", scon.F("new_value", scon.Bool(true))).Equal(v))

		name, v, err = tr.DecodeEvent(unhex(t, "01"+transferred))
		require.NoError(t, err)
		assert.Equal(t, "Transferred", name)
		want := scon.Map("Transferred",
			scon.F("from", scon.None()),
			scon.F("to", scon.Some(scon.Literal(aliceSS58))),
			scon.F("value", scon.UInt64(100)),
		)
		assert.True(t, want.Equal(v), v.String())
	})

	t.Run("按签名主题", func(t *testing.T) {
		topic := common.HexToHash("0x" + strings.Repeat("22", 32))
		name, v, err := tr.DecodeEventByTopic(topic, unhex(t, transferred))
		require.NoError(t, err)
		assert.Equal(t, "Transferred", name)
		assert.Equal(t, 3, v.Len())

		_, _, err = tr.DecodeEventByTopic(common.Hash{}, nil)
		assert.True(t, errors.Is(err, codec.ErrNotFound))
	})

	t.Run("错误", func(t *testing.T) {
		_, _, err := tr.DecodeEvent(unhex(t, "05"))
		assert.True(t, errors.Is(err, codec.ErrVariantNotFound))
		_, _, err = tr.DecodeEvent(nil)
		assert.True(t, errors.Is(err, codec.ErrUnexpectedEnd))
		_, _, err = tr.DecodeEvent(unhex(t, "000100"))
		assert.True(t, errors.Is(err, codec.ErrTrailingBytes))
	})
}

// TestFieldTopic 测试主题字段计算
func TestFieldTopic(t *testing.T) {
	tr := newFlipper(t)

	topic, err := tr.FieldTopic("Transferred", "from", scon.None())
	require.NoError(t, err)
	assert.Equal(t, common.Hash{}, topic)

	topic, err = tr.FieldTopic("Transferred", "to", scon.MustParse("Some("+aliceSS58+")"))
	require.NoError(t, err)
	encoded := append([]byte{1}, unhex(t, alicePub)...)
	assert.Equal(t, common.Hash(blake2b.Sum256(encoded)), topic)

	_, err = tr.FieldTopic("Transferred", "value", scon.UInt64(1))
	assert.True(t, errors.Is(err, codec.ErrTypeMismatch))
	_, err = tr.FieldTopic("Transferred", "amount", scon.UInt64(1))
	assert.True(t, errors.Is(err, codec.ErrUnknownField))
	_, err = tr.FieldTopic("Transfered", "to", scon.None())
	assert.True(t, errors.Is(err, codec.ErrNotFound))
}

// TestSuggest 测试相近名称建议
func TestSuggest(t *testing.T) {
	candidates := []string{"new", "default", "flip", "get", "inc", "transfer"}
	assert.Equal(t, []string{"flip"}, Suggest("fip", candidates))
	assert.Equal(t, "flip", Suggest("flp", candidates)[0])
	assert.Equal(t, "transfer", Suggest("Transfer", candidates)[0])
	assert.Empty(t, Suggest("", candidates))
	assert.Empty(t, Suggest("flip", nil))
	assert.NotContains(t, Suggest("get", candidates), "get")

	tr := newFlipper(t)
	assert.Contains(t, tr.Suggest("fli"), "flip")
}

// TestEnvTypesDisabled 测试关闭环境类型后按结构编解码账户
func TestEnvTypesDisabled(t *testing.T) {
	tr, err := New(loadFlipper(t), WithEnvTypes(false))
	require.NoError(t, err)
	data := unhex(t, "11223344"+"04"+alicePub)
	_, v, err := tr.DecodeCall(data)
	require.NoError(t, err)
	account := v.Elems()[0].Elems()[0]
	assert.Equal(t, scon.KindTuple, account.Kind())
	assert.Equal(t, "AccountId", account.Ident())

	custom, err := New(loadFlipper(t), WithSS58Prefix(0))
	require.NoError(t, err)
	_, v, err = custom.DecodeCall(data)
	require.NoError(t, err)
	addr, _ := v.Elems()[0].Elems()[0].AsString()
	assert.NotEqual(t, aliceSS58, addr)
	assert.True(t, strings.HasPrefix(addr, "1"))
}
