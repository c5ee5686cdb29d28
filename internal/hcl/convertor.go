package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/blockbind/internal/ctxlog"
	"github.com/vk/blockbind/internal/mutation"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// isExprDefined reports whether an optional attribute was written in the
// source. gohcl fills omitted optional expressions with a zero-width
// placeholder, so a nil check is not enough.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}

// decodeBag evaluates a mutation object and flattens it into the string
// form used by mutation bags. Numbers and bools may be written unquoted.
func decodeBag(ctx context.Context, expr hcl.Expression) (mutation.Bag, error) {
	logger := ctxlog.FromContext(ctx)
	if !isExprDefined(expr) {
		return nil, nil
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("mutation must be an object, got %s", val.Type().FriendlyName())
	}

	bag := mutation.Bag{}
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		name := k.AsString()
		s, err := toString(v)
		if err != nil {
			return nil, fmt.Errorf("mutation attribute '%s': %w", name, err)
		}
		if !v.Type().Equals(cty.String) {
			logger.Debug("Implicitly converted mutation value.", "attribute", name, "from", v.Type().FriendlyName())
		}
		bag[name] = s
	}
	return bag, nil
}

func toString(v cty.Value) (string, error) {
	if v.IsNull() {
		return "", nil
	}
	if v.Type().Equals(cty.Number) {
		f, _ := v.AsBigFloat().Float64()
		return mutation.FormatNumber(f), nil
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", fmt.Errorf("cannot convert %s to string: %w", v.Type().FriendlyName(), err)
	}
	return s.AsString(), nil
}

// stringObject builds an object value. cty iterates object attributes in
// name order, so the written form is stable.
func stringObject(m map[string]string) cty.Value {
	attrs := make(map[string]cty.Value, len(m))
	for k, v := range m {
		attrs[k] = cty.StringVal(v)
	}
	return cty.ObjectVal(attrs)
}
