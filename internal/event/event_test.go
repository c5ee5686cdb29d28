package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType_RoundTrip(t *testing.T) {
	for _, typ := range []Type{Create, Move, Delete, Change, FinishedLoading} {
		parsed, err := ParseType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}
	_, err := ParseType("explode")
	require.Error(t, err)
}

func TestPredicates(t *testing.T) {
	field := Event{Type: Change, Element: ElementField, Name: "NAME"}
	assert.True(t, field.IsFieldChange("NAME"))
	assert.False(t, field.IsFieldChange("TYPE"))
	assert.False(t, field.IsNotification("NAME"))

	sig := Event{Type: Change, Element: ElementMutation, Name: NameSignature}
	assert.True(t, sig.IsNotification(NameSignature))

	reposition := Event{Type: Move, OldParent: "p", NewParent: "p", OldSocket: "DO", NewSocket: "DO"}
	assert.False(t, reposition.IsReparent())
	assert.True(t, reposition.StructuralChange())

	unplug := Event{Type: Move, OldParent: "p", OldSocket: "DO"}
	assert.True(t, unplug.IsReparent())
	assert.False(t, field.StructuralChange())
}
