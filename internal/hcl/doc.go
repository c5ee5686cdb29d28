// Package hcl reads program documents and edit scripts written in HCL and
// writes documents back in normalized form.
//
// A document is a list of node blocks:
//
//	node "n1" {
//	  kind     = "variable_definition"
//	  parent   = "g"
//	  socket   = "VARIABLES"
//	  fields   = { NAME = "zahl1", TYPE = "Number" }
//	  mutation = { name = "zahl1", type = "Number" }
//	}
//
// A script is a list of op blocks labelled with the operation type:
//
//	op "set_field" {
//	  node  = "n1"
//	  field = "NAME"
//	  value = "counter"
//	}
package hcl
