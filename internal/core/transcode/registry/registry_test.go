package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/contract-transcode/pkg/types"
)

// TestRegistry_Build 测试注册表构建与查找
func TestRegistry_Build(t *testing.T) {
	b := NewBuilder()
	u8 := b.Primitive("u8")
	u32 := b.Primitive("u32")
	assert.Equal(t, u8, b.Primitive("u8"), "重复的基础类型应复用 id")

	account := b.Composite("ink_primitives::types::AccountId", UnnamedField(b.Array(u8, 32)))
	point := b.Composite("demo::Point", NamedField("x", u32), NamedField("y", u32))
	opt := b.Option(point)
	reg := b.MustBuild()

	t.Run("按 id 解析", func(t *testing.T) {
		ty, err := reg.Resolve(point)
		require.NoError(t, err)
		assert.Equal(t, DefComposite, ty.Def.Kind)
		assert.Equal(t, "Point", ty.Ident())
		assert.Equal(t, "demo::Point", ty.PathString())
		assert.True(t, HasNamedFields(ty.Def.Fields))
	})

	t.Run("枚举分支查找", func(t *testing.T) {
		ty, err := reg.Resolve(opt)
		require.NoError(t, err)
		some, ok := ty.Def.VariantByName("Some")
		require.True(t, ok)
		assert.Equal(t, uint8(1), some.Index)
		none, ok := ty.Def.VariantByIndex(0)
		require.True(t, ok)
		assert.Equal(t, "None", none.Name)
		_, ok = ty.Def.VariantByIndex(7)
		assert.False(t, ok)
		require.Len(t, ty.Params, 1)
		assert.True(t, ty.Params[0].Bound)
		assert.Equal(t, point, ty.Params[0].Type)
	})

	t.Run("按路径查找", func(t *testing.T) {
		ty, ok := reg.FindByPath("ink_primitives", "types", "AccountId")
		require.True(t, ok)
		assert.Equal(t, account, ty.ID)
		ty, ok = reg.FindByIdent("Point")
		require.True(t, ok)
		assert.Equal(t, point, ty.ID)
		_, ok = reg.FindByPath("missing")
		assert.False(t, ok)
	})

	t.Run("缺失 id", func(t *testing.T) {
		_, err := reg.Resolve(999)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrResolution))
	})

	assert.Equal(t, reg.Len(), len(reg.IDs()))
}

// TestRegistry_Recursive 测试经由枚举的递归类型
func TestRegistry_Recursive(t *testing.T) {
	b := NewBuilder()
	u8 := b.Primitive("u8")
	list := b.Reserve("demo::List")
	b.Define(list, types.TypeDefinition{Variant: &types.VariantDef{Variants: []types.VariantCaseDef{
		Case("Nil", 0),
		Case("Cons", 1, UnnamedField(u8), UnnamedField(list)),
	}}})
	reg, err := b.Build()
	require.NoError(t, err)
	ty, err := reg.Resolve(list)
	require.NoError(t, err)
	assert.Len(t, ty.Def.Variants, 2)
}

// TestRegistry_Invalid 测试非法注册表在加载时报错
func TestRegistry_Invalid(t *testing.T) {
	bogus := "u7"
	tests := []struct {
		name  string
		types []types.PortableType
	}{
		{"重复 id", []types.PortableType{
			{ID: 0, Type: types.TypeDescriptor{Def: types.TypeDefinition{Primitive: strPtr("u8")}}},
			{ID: 0, Type: types.TypeDescriptor{Def: types.TypeDefinition{Primitive: strPtr("u8")}}},
		}},
		{"未知基础类型", []types.PortableType{
			{ID: 0, Type: types.TypeDescriptor{Def: types.TypeDefinition{Primitive: &bogus}}},
		}},
		{"缺少定义", []types.PortableType{{ID: 0}}},
		{"悬空引用", []types.PortableType{
			{ID: 0, Type: types.TypeDescriptor{Def: types.TypeDefinition{Sequence: &types.SequenceDef{Type: 5}}}},
		}},
		{"悬空字段引用", []types.PortableType{
			{ID: 0, Type: types.TypeDescriptor{Def: types.TypeDefinition{Composite: &types.CompositeDef{
				Fields: []types.FieldDef{{Type: 3}},
			}}}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.types)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrResolution))
		})
	}
}

// TestPrimitive 测试基础类型属性
func TestPrimitive(t *testing.T) {
	p, ok := ParsePrimitive("i128")
	require.True(t, ok)
	assert.True(t, p.IsInteger())
	assert.True(t, p.Signed())
	assert.Equal(t, 128, p.Bits())
	assert.Equal(t, "i128", p.String())

	p, ok = ParsePrimitive("str")
	require.True(t, ok)
	assert.False(t, p.IsInteger())
	assert.Equal(t, 0, p.Bits())

	_, ok = ParsePrimitive("f32")
	assert.False(t, ok)
}

func strPtr(s string) *string { return &s }
