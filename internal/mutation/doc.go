/*
Package mutation holds the per-node configuration record that drives a node's
socket layout.

Every node kind declares a Schema: an ordered list of fields, each with a
primitive default (bool, number or string) expressed as a cty.Value. A Data
value is an instance of that schema. Data is persisted as a flat Bag of
strings that carries only the fields that differ from their defaults, so an
empty Bag always means "all defaults".

Conversions in both directions go through cty/convert, which gives the same
string forms the host document uses ("true", "false", shortest decimal).
*/
package mutation
