// This file contains the logic for parsing HCL type expressions (e.g. `int`,
// `list(float)`) into universe types.

package valuetype

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// ParseExpr converts an HCL type expression into a universe type.
func (u *Universe) ParseExpr(expr hcl.Expression) (Type, error) {
	if expr == nil {
		return Void, fmt.Errorf("type expression is missing")
	}

	switch v := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		if v.Name != "list" {
			return Void, fmt.Errorf("unknown type constructor function %q", v.Name)
		}
		if len(v.Args) != 1 {
			return Void, fmt.Errorf("the list() type constructor requires exactly one argument, got %d", len(v.Args))
		}
		elem, err := u.ParseExpr(v.Args[0])
		if err != nil {
			return Void, err
		}
		return List(elem), nil

	case *hclsyntax.ScopeTraversalExpr:
		if len(v.Traversal) != 1 {
			return Void, fmt.Errorf("invalid type keyword: traversal path is not a single identifier")
		}
		name := v.Traversal.RootName()
		t, ok := u.Lookup(name)
		if !ok {
			return Void, fmt.Errorf("unknown type %q", name)
		}
		return t, nil

	default:
		return Void, fmt.Errorf("unsupported expression for type definition: %T", v)
	}
}

// ParseList converts an HCL tuple of type expressions, e.g. `[int, float]`,
// preserving declaration order.
func (u *Universe) ParseList(expr hcl.Expression) ([]Type, error) {
	tuple, ok := expr.(*hclsyntax.TupleConsExpr)
	if !ok {
		return nil, fmt.Errorf("type list must be a tuple like [int, string], got %T", expr)
	}
	types := make([]Type, 0, len(tuple.Exprs))
	for i, item := range tuple.Exprs {
		t, err := u.ParseExpr(item)
		if err != nil {
			return nil, fmt.Errorf("type list element %d: %w", i, err)
		}
		types = append(types, t)
	}
	return types, nil
}

// Parse parses a type from its source form, e.g. "list(int)".
func (u *Universe) Parse(src string) (Type, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "type", hcl.InitialPos)
	if diags.HasErrors() {
		return Void, fmt.Errorf("invalid type %q: %w", src, diags)
	}
	return u.ParseExpr(expr)
}
