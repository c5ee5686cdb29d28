package literals_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/testutil"
	"github.com/vk/blockbind/internal/workspace"
	"github.com/vk/blockbind/modules/literals"
)

func TestCheck(t *testing.T) {
	testCases := []struct {
		name    string
		typ     graph.TypeTag
		text    string
		wantErr bool
	}{
		{name: "integer", typ: graph.TypeNumber, text: "42"},
		{name: "decimal", typ: graph.TypeNumber, text: "-1.5"},
		{name: "not a number", typ: graph.TypeNumber, text: "zwölf", wantErr: true},
		{name: "true", typ: graph.TypeBoolean, text: "true"},
		{name: "not a bool", typ: graph.TypeBoolean, text: "yes", wantErr: true},
		{name: "color", typ: graph.TypeColor, text: "#00ff7F"},
		{name: "short color", typ: graph.TypeColor, text: "#0f0", wantErr: true},
		{name: "any string", typ: graph.TypeString, text: "hallo welt"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := literals.Check(tc.typ, tc.text)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLiteral_WarnsOnBadValue(t *testing.T) {
	h := testutil.NewHarness(t)
	n := h.Create("literal_number", workspace.CreateOptions{})
	require.Equal(t, graph.ValueOutput(graph.TypeNumber), n.Output)

	h.SetField(n.ID, literals.FieldValue, "abc")
	assert.NotEmpty(t, n.Warning)
	testutil.AssertDiagnostic(t, h.WS.Report(), n.ID, false)

	h.SetField(n.ID, literals.FieldValue, "7")
	assert.Empty(t, n.Warning)
}
