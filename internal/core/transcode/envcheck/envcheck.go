// Package envcheck 比较节点与合约的 Environment 类型，发现二者 ABI 不一致
//
// 比较只读取两个注册表，不做任何修改。
package envcheck

import (
	"errors"
	"fmt"

	"github.com/weisyn/contract-transcode/internal/core/transcode/registry"
	"github.com/weisyn/contract-transcode/pkg/types"
)

// ErrEnvironmentMismatch 环境类型不一致
var ErrEnvironmentMismatch = errors.New("environment mismatch")

// EnvironmentIdent Environment 结构体的标识
const EnvironmentIdent = "Environment"

// 不参与比较的字段
const skippedField = "hasher"

const maxDepth = 64

// EnvMismatchError 第一个不一致的字段
type EnvMismatchError struct {
	Field  string
	Reason string
}

func (e *EnvMismatchError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("Type check failed with following error: %s", e.Field)
	}
	return fmt.Sprintf("Type check failed with following error: %s (%s)", e.Field, e.Reason)
}

// Unwrap 归类为 ErrEnvironmentMismatch
func (e *EnvMismatchError) Unwrap() error { return ErrEnvironmentMismatch }

// Check 比较两个注册表中的 Environment 结构体
//
// 对节点 Environment 的每个字段（hasher 除外），在合约 Environment 中取同名字段，
// 两侧各自剥开透传结构体后逐层比较类型定义。
func Check(node, contract *registry.Registry) error {
	nodeEnv, err := environmentOf(node, "node")
	if err != nil {
		return err
	}
	contractEnv, err := environmentOf(contract, "contract")
	if err != nil {
		return err
	}
	contractFields := make(map[string]registry.TypeID, len(contractEnv.Def.Fields))
	for _, f := range contractEnv.Def.Fields {
		contractFields[f.Name] = f.Type
	}
	return compareFields(node, nodeEnv, contract, func(name string) (registry.TypeID, bool) {
		id, ok := contractFields[name]
		return id, ok
	})
}

// CheckSpec 以合约元数据的 spec.environment 代替合约侧的 Environment 结构体
func CheckSpec(node, contract *registry.Registry, env *types.EnvironmentSpec) error {
	if env == nil {
		return fmt.Errorf("%w: contract metadata has no environment section", ErrEnvironmentMismatch)
	}
	nodeEnv, err := environmentOf(node, "node")
	if err != nil {
		return err
	}
	fields := env.Fields()
	return compareFields(node, nodeEnv, contract, func(name string) (registry.TypeID, bool) {
		ts, ok := fields[name]
		if !ok {
			return 0, false
		}
		return ts.Type, true
	})
}

func compareFields(node *registry.Registry, nodeEnv *registry.Type, contract *registry.Registry, lookup func(string) (registry.TypeID, bool)) error {
	for _, f := range nodeEnv.Def.Fields {
		if f.Name == skippedField {
			continue
		}
		if f.Name == "" {
			return fmt.Errorf("%w: node Environment has an unnamed field", ErrEnvironmentMismatch)
		}
		contractID, ok := lookup(f.Name)
		if !ok {
			return &EnvMismatchError{Field: f.Name, Reason: "missing in contract"}
		}
		c := &comparer{node: node, contract: contract}
		same, err := c.equal(f.Type, contractID, 0)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		if !same {
			return &EnvMismatchError{Field: f.Name, Reason: c.reason}
		}
	}
	return nil
}

// HasEnvironment 注册表中是否存在 Environment 结构体
func HasEnvironment(reg *registry.Registry) bool {
	_, err := environmentOf(reg, "")
	return err == nil
}

func environmentOf(reg *registry.Registry, side string) (*registry.Type, error) {
	for _, id := range reg.IDs() {
		ty, _ := reg.Resolve(id)
		if ty.Ident() == EnvironmentIdent && ty.Def.Kind == registry.DefComposite {
			return ty, nil
		}
	}
	return nil, fmt.Errorf("%w: the %s does not contain an `Environment` type", ErrEnvironmentMismatch, side)
}

type comparer struct {
	node     *registry.Registry
	contract *registry.Registry
	reason   string
}

// unwrap 剥开透传类型：有泛型参数时取首个参数的绑定类型，单字段结构体取该字段
//
// 多字段结构体不剥开，交给 fieldsEqual 逐字段比较。
func unwrap(reg *registry.Registry, id registry.TypeID) (*registry.Type, error) {
	for i := 0; i < maxDepth; i++ {
		ty, err := reg.Resolve(id)
		if err != nil {
			return nil, err
		}
		multiField := ty.Def.Kind == registry.DefComposite && len(ty.Def.Fields) > 1
		switch {
		case len(ty.Params) > 0 && !multiField:
			if !ty.Params[0].Bound {
				return nil, fmt.Errorf("%w: type %d has an unbound parameter %s", registry.ErrResolution, id, ty.Params[0].Name)
			}
			id = ty.Params[0].Type
		case ty.Def.Kind == registry.DefComposite && len(ty.Def.Fields) == 1:
			id = ty.Def.Fields[0].Type
		default:
			return ty, nil
		}
	}
	return nil, fmt.Errorf("%w: type %d wraps itself", registry.ErrResolution, id)
}

func (c *comparer) mismatch(format string, args ...interface{}) bool {
	c.reason = fmt.Sprintf(format, args...)
	return false
}

func (c *comparer) equal(nodeID, contractID registry.TypeID, depth int) (bool, error) {
	if depth > maxDepth {
		return false, fmt.Errorf("%w: type nesting exceeds %d levels", registry.ErrResolution, maxDepth)
	}
	n, err := unwrap(c.node, nodeID)
	if err != nil {
		return false, err
	}
	k, err := unwrap(c.contract, contractID)
	if err != nil {
		return false, err
	}
	if n.Def.Kind != k.Def.Kind {
		return c.mismatch("%s vs %s", n.Def.Kind, k.Def.Kind), nil
	}
	if n.Def.Kind == registry.DefBitSequence {
		return true, nil
	}

	switch n.Def.Kind {
	case registry.DefPrimitive:
		if n.Def.Primitive != k.Def.Primitive {
			return c.mismatch("%s vs %s", n.Def.Primitive, k.Def.Primitive), nil
		}
		return true, nil
	case registry.DefArray:
		if n.Def.Len != k.Def.Len {
			return c.mismatch("Mismatch in array lengths"), nil
		}
		return c.equal(n.Def.Elem, k.Def.Elem, depth+1)
	case registry.DefSequence, registry.DefCompact:
		return c.equal(n.Def.Elem, k.Def.Elem, depth+1)
	case registry.DefTuple:
		if len(n.Def.Elems) != len(k.Def.Elems) {
			return c.mismatch("tuple arity %d vs %d", len(n.Def.Elems), len(k.Def.Elems)), nil
		}
		for i := range n.Def.Elems {
			if same, err := c.equal(n.Def.Elems[i], k.Def.Elems[i], depth+1); err != nil || !same {
				return same, err
			}
		}
		return true, nil
	case registry.DefComposite:
		return c.fieldsEqual(n.Def.Fields, k.Def.Fields, depth)
	case registry.DefVariant:
		if len(n.Def.Variants) != len(k.Def.Variants) {
			return c.mismatch("%d variants vs %d", len(n.Def.Variants), len(k.Def.Variants)), nil
		}
		for i, nv := range n.Def.Variants {
			kv := k.Def.Variants[i]
			if nv.Name != kv.Name || nv.Index != kv.Index {
				return c.mismatch("variant %s(%d) vs %s(%d)", nv.Name, nv.Index, kv.Name, kv.Index), nil
			}
			if same, err := c.fieldsEqual(nv.Fields, kv.Fields, depth); err != nil || !same {
				return same, err
			}
		}
		return true, nil
	}
	return c.mismatch("%s types cannot be compared", n.Def.Kind), nil
}

func (c *comparer) fieldsEqual(a, b []registry.Field, depth int) (bool, error) {
	if len(a) != len(b) {
		return c.mismatch("%d fields vs %d", len(a), len(b)), nil
	}
	for i := range a {
		if a[i].Name != b[i].Name {
			return c.mismatch("field %q vs %q", a[i].Name, b[i].Name), nil
		}
		if same, err := c.equal(a[i].Type, b[i].Type, depth+1); err != nil || !same {
			return same, err
		}
	}
	return true, nil
}
