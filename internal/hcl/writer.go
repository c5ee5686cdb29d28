package hcl

import (
	"io"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/blockbind/internal/document"
	"github.com/zclconf/go-cty/cty"
)

// Writer is the HCL implementation of document.Writer.
type Writer struct{}

// NewWriter creates a new HCL writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write emits one node block per record. Attributes at their zero value are
// left out.
func (wr *Writer) Write(w io.Writer, doc *document.Document) error {
	f := hclwrite.NewEmptyFile()
	body := f.Body()
	for i, rec := range doc.Nodes {
		if i > 0 {
			body.AppendNewline()
		}
		nb := body.AppendNewBlock("node", []string{rec.ID.String()}).Body()
		nb.SetAttributeValue("kind", cty.StringVal(rec.Kind))
		if !rec.Parent.IsZero() {
			nb.SetAttributeValue("parent", cty.StringVal(rec.Parent.String()))
			nb.SetAttributeValue("socket", cty.StringVal(rec.Socket))
		}
		if rec.Position.X != 0 || rec.Position.Y != 0 {
			nb.SetAttributeValue("x", cty.NumberFloatVal(rec.Position.X))
			nb.SetAttributeValue("y", cty.NumberFloatVal(rec.Position.Y))
		}
		if rec.Palette {
			nb.SetAttributeValue("palette", cty.True)
		}
		if len(rec.Fields) > 0 {
			nb.SetAttributeValue("fields", stringObject(rec.Fields))
		}
		if len(rec.Mutation) > 0 {
			nb.SetAttributeValue("mutation", stringObject(rec.Mutation))
		}
	}
	_, err := w.Write(hclwrite.Format(f.Bytes()))
	return err
}

// Codec bundles the HCL loader and writer.
type Codec struct {
	*Loader
	*Writer
}

// NewCodec creates a codec reading and writing HCL.
func NewCodec() *Codec {
	return &Codec{Loader: NewLoader(), Writer: NewWriter()}
}

// Extension returns the file extension the codec reads.
func (c *Codec) Extension() string {
	return Extension
}
