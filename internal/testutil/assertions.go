package testutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/blockbind/internal/nodeid"
	"github.com/vk/blockbind/internal/workspace"
)

// AssertBindings checks the names, in order, that are visible in scopeRoot,
// each written as "name:Type".
func AssertBindings(t *testing.T, ws *workspace.Workspace, scopeRoot nodeid.ID, want ...string) {
	t.Helper()
	bindings, err := ws.Bindings(scopeRoot)
	require.NoError(t, err)
	got := make([]string, 0, len(bindings))
	for _, b := range bindings {
		got = append(got, b.Name+":"+b.Type.String())
	}
	if want == nil {
		want = []string{}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bindings of %s mismatch (-want +got):\n%s", scopeRoot, diff)
	}
}

// AssertDiagnostic checks that the report flags node id.
func AssertDiagnostic(t *testing.T, rep workspace.Report, id nodeid.ID, disabled bool) {
	t.Helper()
	for _, d := range rep.Diagnostics {
		if d.NodeID == id {
			assert.Equal(t, disabled, d.Disabled, "disabled flag of %s", id)
			return
		}
	}
	t.Errorf("no diagnostic for node %s in %+v", id, rep.Diagnostics)
}

// AssertClean checks that the report has no diagnostics.
func AssertClean(t *testing.T, rep workspace.Report) {
	t.Helper()
	assert.Empty(t, rep.Diagnostics)
}
