package mutation

import (
	"fmt"
	"math/big"

	"github.com/zclconf/go-cty/cty"
)

// Field declares one entry of a mutation record.
type Field struct {
	Name    string
	Default cty.Value

	// Bounded numeric fields only accept values in [Min, Max].
	Bounded  bool
	Min, Max float64
}

// Bool declares a boolean field.
func Bool(name string, def bool) Field {
	return Field{Name: name, Default: cty.BoolVal(def)}
}

// Number declares a numeric field.
func Number(name string, def float64) Field {
	return Field{Name: name, Default: cty.NumberFloatVal(def)}
}

// String declares a string field.
func String(name, def string) Field {
	return Field{Name: name, Default: cty.StringVal(def)}
}

// Range limits a numeric field to the closed interval [lo, hi].
func (f Field) Range(lo, hi float64) Field {
	f.Bounded = true
	f.Min, f.Max = lo, hi
	return f
}

// check reports whether v lies within the field's range.
func (f Field) check(v cty.Value) error {
	if !f.Bounded || !v.Type().Equals(cty.Number) {
		return nil
	}
	bf := v.AsBigFloat()
	if bf.Cmp(big.NewFloat(f.Min)) < 0 || bf.Cmp(big.NewFloat(f.Max)) > 0 {
		return fmt.Errorf("mutation field '%s': %s is outside [%s, %s]", f.Name, stringify(v), FormatNumber(f.Min), FormatNumber(f.Max))
	}
	return nil
}

// Type returns the declared cty type of the field.
func (f Field) Type() cty.Type {
	return f.Default.Type()
}

// Schema is the ordered field declaration of a node kind.
type Schema []Field

// Field looks up a declared field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Validate checks that field names are unique, every default is a known,
// non-null primitive value and ranged defaults lie inside their range.
func (s Schema) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for _, f := range s {
		if f.Name == "" {
			return fmt.Errorf("mutation field with empty name")
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("mutation field '%s' declared twice", f.Name)
		}
		seen[f.Name] = struct{}{}

		if f.Default.IsNull() || !f.Default.IsKnown() {
			return fmt.Errorf("mutation field '%s' has no concrete default", f.Name)
		}
		if !f.Type().IsPrimitiveType() {
			return fmt.Errorf("mutation field '%s' has non-primitive type %s", f.Name, f.Type().FriendlyName())
		}
		if f.Bounded {
			if !f.Type().Equals(cty.Number) {
				return fmt.Errorf("mutation field '%s' has a range but is not a number", f.Name)
			}
			if f.Min > f.Max {
				return fmt.Errorf("mutation field '%s' has an empty range", f.Name)
			}
			if err := f.check(f.Default); err != nil {
				return fmt.Errorf("default: %w", err)
			}
		}
	}
	return nil
}

// Defaults returns a Data record with every field at its default.
func (s Schema) Defaults() Data {
	values := make(map[string]cty.Value, len(s))
	for _, f := range s {
		values[f.Name] = f.Default
	}
	return Data{schema: s, values: values}
}
