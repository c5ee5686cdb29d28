package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// fileRoot decodes every top-level block a file may contain. Documents and
// scripts share the file format so one directory can hold both.
type fileRoot struct {
	Nodes  []*nodeBlock `hcl:"node,block"`
	Ops    []*opBlock   `hcl:"op,block"`
	Remain hcl.Body     `hcl:",remain"`
}

type nodeBlock struct {
	ID       string            `hcl:"id,label"`
	Kind     string            `hcl:"kind"`
	Parent   string            `hcl:"parent,optional"`
	Socket   string            `hcl:"socket,optional"`
	X        float64           `hcl:"x,optional"`
	Y        float64           `hcl:"y,optional"`
	Palette  bool              `hcl:"palette,optional"`
	Fields   map[string]string `hcl:"fields,optional"`
	Mutation hcl.Expression    `hcl:"mutation,optional"`
}

type opBlock struct {
	Type   string  `hcl:"type,label"`
	Node   string  `hcl:"node,optional"`
	Kind   string  `hcl:"kind,optional"`
	Parent string  `hcl:"parent,optional"`
	Socket string  `hcl:"socket,optional"`
	Field  string  `hcl:"field,optional"`
	Value  string  `hcl:"value,optional"`
	Button string  `hcl:"button,optional"`
	Group  string  `hcl:"group,optional"`
	Heal   bool    `hcl:"heal,optional"`
	X      float64 `hcl:"x,optional"`
	Y      float64 `hcl:"y,optional"`
}
