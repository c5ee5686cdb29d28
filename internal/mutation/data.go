package mutation

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Bag is the persisted, string-keyed form of a mutation record.
type Bag map[string]string

// Data is a mutation record bound to its schema. The zero value has no
// fields and reads as zero values everywhere.
type Data struct {
	schema Schema
	values map[string]cty.Value
}

// Schema returns the schema the record was created from.
func (d Data) Schema() Schema {
	return d.schema
}

// Value returns the raw cty value of a field, or cty.NilVal if undeclared.
func (d Data) Value(name string) cty.Value {
	if v, ok := d.values[name]; ok {
		return v
	}
	return cty.NilVal
}

// String returns a string field, or "" if undeclared or of another type.
func (d Data) String(name string) string {
	v := d.Value(name)
	if v == cty.NilVal || !v.Type().Equals(cty.String) {
		return ""
	}
	return v.AsString()
}

// Bool returns a boolean field, or false if undeclared or of another type.
func (d Data) Bool(name string) bool {
	v := d.Value(name)
	if v == cty.NilVal || !v.Type().Equals(cty.Bool) {
		return false
	}
	return v.True()
}

// Int returns a numeric field truncated to an int.
func (d Data) Int(name string) int {
	v := d.Value(name)
	if v == cty.NilVal || !v.Type().Equals(cty.Number) {
		return 0
	}
	i, _ := v.AsBigFloat().Int64()
	return int(i)
}

// Set assigns a field. The value may be a Go bool, number or string, or a
// cty.Value; it is converted to the field's declared type.
func (d *Data) Set(name string, value any) error {
	f, ok := d.schema.Field(name)
	if !ok {
		return fmt.Errorf("mutation field '%s' is not declared", name)
	}

	var v cty.Value
	if cv, isCty := value.(cty.Value); isCty {
		converted, err := convert.Convert(cv, f.Type())
		if err != nil {
			return fmt.Errorf("mutation field '%s': %w", name, err)
		}
		v = converted
	} else {
		converted, err := gocty.ToCtyValue(value, f.Type())
		if err != nil {
			return fmt.Errorf("mutation field '%s': %w", name, err)
		}
		v = converted
	}
	if v.IsNull() {
		return fmt.Errorf("mutation field '%s' cannot be null", name)
	}
	if err := f.check(v); err != nil {
		return err
	}

	if d.values == nil {
		d.values = make(map[string]cty.Value, len(d.schema))
	}
	d.values[name] = v
	return nil
}

// Clone returns an independent copy.
func (d Data) Clone() Data {
	values := make(map[string]cty.Value, len(d.values))
	for k, v := range d.values {
		values[k] = v
	}
	return Data{schema: d.schema, values: values}
}

// Equal reports whether both records hold identical values for every field.
func (d Data) Equal(other Data) bool {
	if len(d.values) != len(other.values) {
		return false
	}
	for k, v := range d.values {
		ov, ok := other.values[k]
		if !ok || !v.RawEquals(ov) {
			return false
		}
	}
	return true
}

// Serialize emits only the fields whose value differs from the default.
func (d Data) Serialize() Bag {
	bag := Bag{}
	for _, f := range d.schema {
		v, ok := d.values[f.Name]
		if !ok || v.RawEquals(f.Default) {
			continue
		}
		bag[f.Name] = stringify(v)
	}
	return bag
}

// Deserialize builds a record from a bag. Every declared field present in
// the bag is parsed by its declared type. A field keeps its default when it
// is absent or its value does not parse or fit the range. Failures are
// returned joined, alongside the usable record. Keys not declared by the
// schema are ignored.
func (s Schema) Deserialize(bag Bag) (Data, error) {
	d := s.Defaults()
	var errs []error
	for _, f := range s {
		raw, ok := bag[f.Name]
		if !ok {
			continue
		}
		v, err := convert.Convert(cty.StringVal(raw), f.Type())
		if err != nil {
			errs = append(errs, fmt.Errorf("mutation field '%s': cannot parse %q as %s: %w", f.Name, raw, f.Type().FriendlyName(), err))
			continue
		}
		if err := f.check(v); err != nil {
			errs = append(errs, err)
			continue
		}
		d.values[f.Name] = v
	}
	return d, errors.Join(errs...)
}

func stringify(v cty.Value) string {
	switch {
	case v.Type().Equals(cty.Bool):
		if v.True() {
			return "true"
		}
		return "false"
	case v.Type().Equals(cty.Number):
		return v.AsBigFloat().Text('f', -1)
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return v.GoString()
	}
	return s.AsString()
}

// FormatNumber renders a number the same way Serialize does.
func FormatNumber(f float64) string {
	return new(big.Float).SetFloat64(f).Text('f', -1)
}
