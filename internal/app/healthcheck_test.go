package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/blockbind/internal/workspace"
)

func TestHealthMux(t *testing.T) {
	cfg, err := NewConfig(Config{DocumentPath: "program.hcl", LogLevel: "error"})
	require.NoError(t, err)
	a := NewApp(io.Discard, cfg, nil)
	srv := httptest.NewServer(a.healthMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/report")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	a.setLastReport(workspace.Report{Diagnostics: []workspace.Diagnostic{{NodeID: "s", Kind: "variable_set", Message: "unknown variable"}}})
	resp, err = http.Get(srv.URL + "/report")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rep workspace.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rep))
	require.Len(t, rep.Diagnostics, 1)
	assert.Equal(t, "unknown variable", rep.Diagnostics[0].Message)
}

func TestPrintReport_Text(t *testing.T) {
	rep := workspace.Report{
		Scopes: []workspace.ScopeReport{{
			RootID: "f", Kind: "function_definition", Name: "calc",
			Bindings: []workspace.BindingReport{{Name: "zahl1", Type: "Number", Role: "parameter", OwnerID: "p1"}},
		}},
		Calls:       []workspace.CallReport{{NodeID: "c", Name: "calc", FunctionID: "f", Signature: "calc(Number) Void"}, {NodeID: "c2", Name: "gone"}},
		Diagnostics: []workspace.Diagnostic{{NodeID: "c2", Kind: "function_call", Message: "unknown function", Disabled: true}},
	}
	var sb strings.Builder
	require.NoError(t, printReport(&sb, rep, ReportText))

	out := sb.String()
	assert.Contains(t, out, "scope function_definition calc")
	assert.Contains(t, out, "calc(Number) Void")
	assert.Contains(t, out, "unresolved")
	assert.Contains(t, out, "unknown function (disabled)")
	assert.Contains(t, out, "1 scope(s), 2 call(s), 1 warning(s)")
}
