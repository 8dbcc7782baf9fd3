package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	cfgprovider "github.com/weisyn/contract-transcode/internal/config"
	artifactsconfig "github.com/weisyn/contract-transcode/internal/config/artifacts"
	"github.com/weisyn/contract-transcode/pkg/interfaces/config"
	"github.com/weisyn/contract-transcode/pkg/types"
)

var flipperPath = filepath.Join("..", "transcode", "testdata", "flipper.json")

func readFlipper(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(flipperPath)
	require.NoError(t, err)
	return data
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func newLoader(t *testing.T) *Loader {
	t.Helper()
	l, err := NewLoader(nil, nil, nil)
	require.NoError(t, err)
	return l
}

// TestLoadMetadata 测试元数据文件加载
func TestLoadMetadata(t *testing.T) {
	l := newLoader(t)
	dir := t.TempDir()
	data := readFlipper(t)

	t.Run("JSON 元数据", func(t *testing.T) {
		md, err := l.LoadMetadata(flipperPath)
		require.NoError(t, err)
		assert.NotEmpty(t, md.Types)
		assert.NotEmpty(t, md.Spec.Messages)
	})

	t.Run(".contract 包", func(t *testing.T) {
		path := writeFile(t, dir, "flipper.contract", data)
		md, err := l.LoadMetadata(path)
		require.NoError(t, err)
		assert.NotEmpty(t, md.Spec.Constructors)
	})

	t.Run("V3 包装格式", func(t *testing.T) {
		var doc map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &doc))
		wrapped, err := json.Marshal(map[string]interface{}{
			"source": json.RawMessage(`{"hash":"0x00","language":"ink! 3.4.0","compiler":"rustc"}`),
			"V3": map[string]json.RawMessage{
				"spec":  doc["spec"],
				"types": doc["types"],
			},
		})
		require.NoError(t, err)

		md, err := l.LoadMetadata(writeFile(t, dir, "legacy.json", wrapped))
		require.NoError(t, err)
		require.NotNil(t, md.Source)
		assert.Equal(t, "ink! 3.4.0", md.Source.Language)
		assert.NotEmpty(t, md.Types)
		assert.NotEmpty(t, md.Spec.Messages)
	})

	t.Run("不支持的扩展名", func(t *testing.T) {
		_, err := l.LoadMetadata(writeFile(t, dir, "flipper.wasm", data))
		assert.True(t, errors.Is(err, ErrUnsupportedExtension))
	})

	t.Run("缺少类型注册表", func(t *testing.T) {
		_, err := l.LoadMetadata(writeFile(t, dir, "empty.json", []byte(`{"spec":{}}`)))
		assert.True(t, errors.Is(err, ErrInvalidArtifact))
	})

	t.Run("非法 JSON", func(t *testing.T) {
		_, err := l.LoadMetadata(writeFile(t, dir, "broken.json", []byte(`{"types":`)))
		assert.True(t, errors.Is(err, ErrInvalidArtifact))
	})

	t.Run("文件不存在", func(t *testing.T) {
		_, err := l.LoadMetadata(filepath.Join(dir, "missing.json"))
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
}

// TestLoadTranscoder 测试转码器缓存
func TestLoadTranscoder(t *testing.T) {
	l := newLoader(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "flipper.json", readFlipper(t))

	first, err := l.LoadTranscoder(path)
	require.NoError(t, err)
	second, err := l.LoadTranscoder(path)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, Stats{CacheHits: 1, CacheMisses: 1, Cached: 1}, l.Stats())

	t.Run("文件变化后重建", func(t *testing.T) {
		data := append(readFlipper(t), '\n', '\n')
		writeFile(t, dir, "flipper.json", data)
		third, err := l.LoadTranscoder(path)
		require.NoError(t, err)
		assert.NotSame(t, first, third)
		assert.Equal(t, uint64(2), l.Stats().CacheMisses)
	})

	t.Run("清空缓存", func(t *testing.T) {
		l.Purge()
		assert.Equal(t, 0, l.Stats().Cached)
	})

	t.Run("非法元数据不入缓存", func(t *testing.T) {
		var md types.ContractMetadata
		require.NoError(t, json.Unmarshal(readFlipper(t), &md))
		md.Spec.Messages[1].Label = md.Spec.Messages[0].Label
		bad, err := json.Marshal(md)
		require.NoError(t, err)

		_, err = l.LoadTranscoder(writeFile(t, dir, "dup.json", bad))
		require.Error(t, err)
		assert.Equal(t, 0, l.Stats().Cached)
	})
}

// TestLoadRegistry 测试类型注册表文件
func TestLoadRegistry(t *testing.T) {
	l := newLoader(t)
	dir := t.TempDir()
	typesJSON := `[{"id":0,"type":{"def":{"primitive":"u8"}}},{"id":1,"type":{"def":{"array":{"len":32,"type":0}}}}]`

	tests := []struct {
		name string
		doc  string
	}{
		{"类型数组", typesJSON},
		{"types 字段", `{"types":` + typesJSON + `}`},
		{"lookup 字段", `{"lookup":{"types":` + typesJSON + `}}`},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, fmt.Sprintf("registry%d.json", i), []byte(tt.doc))
			reg, err := l.LoadRegistry(path)
			require.NoError(t, err)
			assert.Equal(t, 2, reg.Len())
		})
	}

	t.Run("无注册表", func(t *testing.T) {
		_, err := l.LoadRegistry(writeFile(t, dir, "none.json", []byte(`{"spec":{}}`)))
		assert.True(t, errors.Is(err, ErrInvalidArtifact))
	})

	t.Run("悬空引用", func(t *testing.T) {
		doc := `[{"id":0,"type":{"def":{"sequence":{"type":9}}}}]`
		_, err := l.LoadRegistry(writeFile(t, dir, "dangling.json", []byte(doc)))
		assert.Error(t, err)
	})
}

// TestNewLoader 测试配置项
func TestNewLoader(t *testing.T) {
	t.Run("自定义扩展名", func(t *testing.T) {
		opts := artifactsconfig.New(&types.UserArtifactsConfig{Extensions: []string{"metadata"}}).GetOptions()
		l, err := NewLoader(opts, nil, nil)
		require.NoError(t, err)
		_, err = l.LoadMetadata(flipperPath)
		assert.True(t, errors.Is(err, ErrUnsupportedExtension))
	})

	t.Run("fx 模块", func(t *testing.T) {
		var l *Loader
		app := fx.New(
			fx.NopLogger,
			fx.Provide(func() config.Provider { return cfgprovider.NewProvider(nil) }),
			Module(),
			fx.Populate(&l),
		)
		require.NoError(t, app.Err())
		_, err := l.LoadTranscoder(flipperPath)
		assert.NoError(t, err)
	})
}
