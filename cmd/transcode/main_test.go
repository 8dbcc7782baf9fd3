package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flipperPath = "../../internal/core/transcode/testdata/flipper.json"

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// nodeRegistry 节点侧类型注册表，balance 类型可替换
func nodeRegistry(t *testing.T, balance string) string {
	t.Helper()
	doc := `[
  {"id": 0, "type": {"def": {"primitive": "u8"}}},
  {"id": 1, "type": {"def": {"array": {"len": 32, "type": 0}}}},
  {"id": 2, "type": {"path": ["sp_core", "crypto", "AccountId32"], "def": {"composite": {"fields": [{"type": 1}]}}}},
  {"id": 3, "type": {"def": {"primitive": "` + balance + `"}}},
  {"id": 4, "type": {"path": ["primitive_types", "H256"], "def": {"composite": {"fields": [{"type": 1}]}}}},
  {"id": 5, "type": {"def": {"primitive": "u64"}}},
  {"id": 6, "type": {"def": {"primitive": "u32"}}},
  {"id": 7, "type": {"path": ["sp_runtime", "traits", "BlakeTwo256"], "def": {"composite": {}}}},
  {"id": 8, "type": {"path": ["pallet_contracts", "Environment"], "def": {"composite": {"fields": [
    {"name": "account_id", "type": 2},
    {"name": "balance", "type": 3},
    {"name": "hash", "type": 4},
    {"name": "hasher", "type": 7},
    {"name": "timestamp", "type": 5},
    {"name": "block_number", "type": 6}
  ]}}}}
]`
	path := filepath.Join(t.TempDir(), "node.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

// TestEncode 测试 encode 子命令
func TestEncode(t *testing.T) {
	t.Run("无参数消息", func(t *testing.T) {
		code, out, _ := execute(t, "encode", "--metadata", flipperPath, "flip")
		require.Equal(t, 0, code)
		assert.Equal(t, `{"name":"flip","data":"0x633aa551"}`+"\n", out)
	})

	t.Run("名称后的负数作为参数", func(t *testing.T) {
		code, out, _ := execute(t, "-o", "text", "encode", "--metadata", flipperPath, "inc", "-5")
		require.Equal(t, 0, code)
		assert.Equal(t, "0xbabababafbffffff\n", out)
	})

	t.Run("未知消息", func(t *testing.T) {
		code, _, errOut := execute(t, "encode", "--metadata", flipperPath, "fip")
		assert.Equal(t, 1, code)
		assert.Contains(t, errOut, "错误:")
		assert.Contains(t, errOut, "flip")
	})

	t.Run("缺少元数据", func(t *testing.T) {
		code, _, errOut := execute(t, "encode", "flip")
		assert.Equal(t, 1, code)
		assert.Contains(t, errOut, "metadata")
	})
}

// TestDecode 测试 decode 子命令
func TestDecode(t *testing.T) {
	t.Run("调用数据", func(t *testing.T) {
		code, out, _ := execute(t, "decode", "call", "--metadata", flipperPath, "--data", "0xbabababa05000000")
		require.Equal(t, 0, code)
		assert.Equal(t, `{"name":"inc","value":"inc(5)"}`+"\n", out)
	})

	t.Run("省略 0x 前缀", func(t *testing.T) {
		code, out, _ := execute(t, "-o", "text", "decode", "message", "--metadata", flipperPath, "--data", "babababa05000000")
		require.Equal(t, 0, code)
		assert.Contains(t, out, "by: 5")
	})

	t.Run("构造函数", func(t *testing.T) {
		code, out, _ := execute(t, "decode", "constructor", "--metadata", flipperPath, "--data", "0x9bae9d5e01")
		require.Equal(t, 0, code)
		assert.Equal(t, `{"name":"new","value":"new { init_value: true }"}`+"\n", out)
	})

	t.Run("返回值", func(t *testing.T) {
		code, out, _ := execute(t, "decode", "return", "--metadata", flipperPath, "--name", "get", "--data", "0x0001")
		require.Equal(t, 0, code)
		assert.Equal(t, `{"name":"get","value":"Ok(true)"}`+"\n", out)
	})

	t.Run("按签名主题解码事件", func(t *testing.T) {
		code, out, _ := execute(t, "decode", "event", "--metadata", flipperPath,
			"--topic", "0x"+strings.Repeat("11", 32), "--data", "0x01")
		require.Equal(t, 0, code)
		assert.Equal(t, `{"name":"Flipped","value":"Flipped { new_value: true }"}`+"\n", out)
	})

	t.Run("主题长度错误", func(t *testing.T) {
		code, out, _ := execute(t, "decode", "event", "--metadata", flipperPath, "--topic", "0x11", "--data", "0x01")
		assert.Equal(t, 1, code)
		assert.Contains(t, out, "decode_failed")
	})

	t.Run("未知选择器输出原始数据", func(t *testing.T) {
		code, out, errOut := execute(t, "decode", "call", "--metadata", flipperPath, "--data", "0xdeadbeef")
		assert.Equal(t, 1, code)

		var got struct {
			Error struct {
				Code    string            `json:"code"`
				Details map[string]string `json:"details"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "unknown_selector", got.Error.Code)
		assert.Equal(t, "0xdeadbeef", got.Error.Details["raw"])
		assert.Equal(t, "call", got.Error.Details["kind"])
		assert.Contains(t, errOut, "❌ Error:")
		assert.NotContains(t, errOut, "错误:")
	})

	t.Run("非法十六进制", func(t *testing.T) {
		code, _, errOut := execute(t, "decode", "call", "--metadata", flipperPath, "--data", "0xzz")
		assert.Equal(t, 1, code)
		assert.Contains(t, errOut, "invalid hex data")
	})
}

// TestInfo 测试 info 子命令
func TestInfo(t *testing.T) {
	t.Run("JSON 输出", func(t *testing.T) {
		code, out, _ := execute(t, "--silent", "info", "--metadata", flipperPath)
		require.Equal(t, 0, code)

		var rows []map[string]string
		require.NoError(t, json.Unmarshal([]byte(out), &rows))
		byLabel := make(map[string]map[string]string, len(rows))
		for _, r := range rows {
			byLabel[r["label"]] = r
		}
		require.Contains(t, byLabel, "transfer")
		assert.Equal(t, "0x84a15da1", byLabel["transfer"]["selector"])
		assert.Equal(t, "mutates,payable", byLabel["transfer"]["flags"])
		assert.Equal(t, "to: AccountId, value: Balance", byLabel["transfer"]["args"])
		assert.Equal(t, "constructor", byLabel["default"]["kind"])
		assert.Equal(t, "default", byLabel["default"]["flags"])
		assert.Equal(t, "Result", byLabel["get"]["returns"])
		assert.Equal(t, "event", byLabel["Transferred"]["kind"])
		assert.Contains(t, byLabel["Transferred"]["args"], "(indexed)")
	})

	t.Run("表格输出", func(t *testing.T) {
		code, out, errOut := execute(t, "-o", "table", "info", "--metadata", flipperPath)
		require.Equal(t, 0, code)
		assert.Contains(t, out, "0x633aa551")
		assert.Contains(t, out, "Flipped")
		assert.Contains(t, errOut, "flipper 0.1.0")
	})
}

// TestEnvCheck 测试 env-check 子命令
func TestEnvCheck(t *testing.T) {
	t.Run("环境一致", func(t *testing.T) {
		code, out, _ := execute(t, "--silent", "env-check", "--node", nodeRegistry(t, "u128"), "--metadata", flipperPath)
		require.Equal(t, 0, code)
		assert.Equal(t, `{"compatible":true,"source":"spec"}`+"\n", out)
	})

	t.Run("余额类型不同", func(t *testing.T) {
		code, _, errOut := execute(t, "env-check", "--node", nodeRegistry(t, "u64"), "--metadata", flipperPath)
		assert.Equal(t, 1, code)
		assert.Contains(t, errOut, "Type check failed with following error: balance")
	})
}

// TestScon 测试 scon fmt 子命令
func TestScon(t *testing.T) {
	t.Run("单行", func(t *testing.T) {
		code, out, _ := execute(t, "scon", "fmt", "--compact", "[ 1 ,2 ]")
		require.Equal(t, 0, code)
		assert.Equal(t, "[1, 2]\n", out)
	})

	t.Run("多行", func(t *testing.T) {
		code, out, _ := execute(t, "scon", "fmt", "[A(1), B]")
		require.Equal(t, 0, code)
		assert.Equal(t, "[\n    A(1),\n    B,\n]\n", out)
	})

	t.Run("解析失败", func(t *testing.T) {
		code, _, errOut := execute(t, "scon", "fmt", "((")
		assert.Equal(t, 1, code)
		assert.Contains(t, errOut, "错误:")
	})
}

// TestGlobalFlags 测试全局标志
func TestGlobalFlags(t *testing.T) {
	t.Run("未知输出格式", func(t *testing.T) {
		code, _, errOut := execute(t, "-o", "yaml", "scon", "fmt", "1")
		assert.Equal(t, 1, code)
		assert.Contains(t, errOut, "unknown output format")
	})

	t.Run("配置文件", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"artifacts":{"extensions":[".contract"]}}`), 0o600))
		code, _, errOut := execute(t, "--config", path, "encode", "--metadata", flipperPath, "flip")
		assert.Equal(t, 1, code)
		assert.Contains(t, errOut, "unsupported artifact extension")
	})

	t.Run("非法配置", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"log":{"level":"loud"}}`), 0o600))
		code, _, errOut := execute(t, "--config", path, "scon", "fmt", "1")
		assert.Equal(t, 1, code)
		assert.Contains(t, errOut, "初始化失败")
	})
}
