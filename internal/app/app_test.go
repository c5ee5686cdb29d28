package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/blockbind/internal/app"
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/hcl"
	"github.com/vk/blockbind/internal/nodeid"
	"github.com/vk/blockbind/internal/scope"
	"github.com/vk/blockbind/internal/storage"
	"github.com/vk/blockbind/internal/testutil"
	"github.com/vk/blockbind/internal/workspace"
	"github.com/vk/blockbind/modules/functions"
	"github.com/vk/blockbind/modules/variables"
)

// fixture is a program saved as HCL: globals with one Number "zahl1" and a
// main loop whose body sets it.
type fixture struct {
	path    string
	globals nodeid.ID
	def     nodeid.ID
	main    nodeid.ID
	set     nodeid.ID
}

func writeProgram(t *testing.T, extra func(h *testutil.Harness, f *fixture)) fixture {
	t.Helper()
	h := testutil.NewHarness(t)
	globals := h.Globals()
	def := h.Variable(globals.ID, graph.TypeNumber)
	main := h.Create(functions.KindMainLoop, workspace.CreateOptions{Parent: globals.ID, Socket: scope.NextSocket})
	set := h.Reference(variables.KindSet, "zahl1", main.ID, functions.SocketDo)

	f := fixture{
		path:    filepath.Join(t.TempDir(), "program.hcl"),
		globals: globals.ID,
		def:     def.ID,
		main:    main.ID,
		set:     set.ID,
	}
	if extra != nil {
		extra(h, &f)
	}

	out, err := os.Create(f.path)
	require.NoError(t, err)
	defer out.Close()
	require.NoError(t, hcl.NewWriter().Write(out, h.WS.Snapshot()))
	return f
}

func decodeReport(t *testing.T, raw string) workspace.Report {
	t.Helper()
	var rep workspace.Report
	require.NoError(t, json.Unmarshal([]byte(raw), &rep))
	return rep
}

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		in      app.Config
		wantErr string
		check   func(t *testing.T, cfg *app.Config)
	}{
		{
			name: "defaults",
			in:   app.Config{DocumentPath: "program.hcl"},
			check: func(t *testing.T, cfg *app.Config) {
				assert.Equal(t, app.ReportText, cfg.ReportFormat)
				assert.Equal(t, "auto", cfg.LogFormat)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.Positive(t, cfg.MaxEvents)
			},
		},
		{name: "editor only", in: app.Config{EditorURL: "http://localhost:3000"}},
		{name: "no source", in: app.Config{}, wantErr: "DocumentPath"},
		{name: "script without document", in: app.Config{EditorURL: "http://x", ScriptPath: "edit.hcl"}, wantErr: "ScriptPath"},
		{name: "bad report format", in: app.Config{DocumentPath: "p", ReportFormat: "xml"}, wantErr: "report format"},
		{name: "bad log level", in: app.Config{DocumentPath: "p", LogLevel: "trace"}, wantErr: "log level"},
		{name: "bad port", in: app.Config{DocumentPath: "p", HealthcheckPort: 70000}, wantErr: "port"},
		{name: "negative events", in: app.Config{DocumentPath: "p", MaxEvents: -1}, wantErr: "MaxEvents"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := app.NewConfig(tc.in)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			if tc.check != nil {
				tc.check(t, cfg)
			}
		})
	}
}

func TestRun_PrintsTextReport(t *testing.T) {
	f := writeProgram(t, nil)
	cfg, err := app.NewConfig(app.Config{DocumentPath: f.path})
	require.NoError(t, err)
	a, out, _ := testutil.NewApp(t, cfg)

	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "zahl1")
	assert.Contains(t, out.String(), "0 warning(s)")

	rep, ok := a.LastReport()
	require.True(t, ok)
	assert.True(t, rep.OK())
}

func TestRun_FailOnDiagnostics(t *testing.T) {
	f := writeProgram(t, func(h *testutil.Harness, f *fixture) {
		h.Reference(variables.KindSet, "missing", f.set, scope.NextSocket)
	})
	cfg, err := app.NewConfig(app.Config{DocumentPath: f.path, ReportFormat: app.ReportJSON, FailOnDiagnostics: true})
	require.NoError(t, err)
	a, out, _ := testutil.NewApp(t, cfg)

	err = a.Run(context.Background())
	require.ErrorIs(t, err, app.ErrDiagnostics)

	rep := decodeReport(t, out.String())
	require.Len(t, rep.Diagnostics, 1)
	assert.True(t, rep.Diagnostics[0].Disabled)
}

func TestRun_ReplaysScript(t *testing.T) {
	f := writeProgram(t, nil)
	script := filepath.Join(t.TempDir(), "rename.hcl")
	src := fmt.Sprintf(`
op "set_field" {
  node  = %q
  field = "NAME"
  value = "counter"
}
`, f.def)
	require.NoError(t, os.WriteFile(script, []byte(src), 0o600))

	cfg, err := app.NewConfig(app.Config{DocumentPath: f.path, ScriptPath: script, ReportFormat: app.ReportJSON})
	require.NoError(t, err)
	a, out, _ := testutil.NewApp(t, cfg)
	require.NoError(t, a.Run(context.Background()))

	rep := decodeReport(t, out.String())
	var names []string
	for _, s := range rep.Scopes {
		if s.RootID == f.globals {
			for _, b := range s.Bindings {
				names = append(names, b.Name)
			}
		}
	}
	assert.Equal(t, []string{"counter"}, names)
	assert.True(t, rep.OK())
}

func TestRun_WritesIndexAndOutput(t *testing.T) {
	f := writeProgram(t, nil)
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index.db")
	outPath := filepath.Join(dir, "normalized.hcl")

	cfg, err := app.NewConfig(app.Config{DocumentPath: f.path, IndexPath: indexPath, OutputPath: outPath})
	require.NoError(t, err)
	a, _, _ := testutil.NewApp(t, cfg)
	require.NoError(t, a.Run(context.Background()))

	db, err := storage.Open(indexPath)
	require.NoError(t, err)
	defer db.Close()
	bindings, err := db.Bindings(context.Background(), f.globals)
	require.NoError(t, err)
	require.Len(t, bindings, 1)
	assert.Equal(t, "zahl1", bindings[0].Name)
	assert.Equal(t, f.def, bindings[0].OwnerID)

	doc, err := hcl.NewLoader().Load(context.Background(), outPath)
	require.NoError(t, err)
	assert.Len(t, doc.Nodes, 4)
}

func TestFormat_WritesNormalizedDocument(t *testing.T) {
	f := writeProgram(t, nil)
	cfg, err := app.NewConfig(app.Config{DocumentPath: f.path})
	require.NoError(t, err)
	a, out, _ := testutil.NewApp(t, cfg)

	require.NoError(t, a.Format(context.Background()))
	assert.Contains(t, out.String(), fmt.Sprintf("node %q", f.def))
	assert.Contains(t, out.String(), `"zahl1"`)
}

func TestRun_InvalidHCLIsRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`node "a" {
  kind = "main_loop"
`), 0o600))

	cfg, err := app.NewConfig(app.Config{DocumentPath: path})
	require.NoError(t, err)
	a, _, _ := testutil.NewApp(t, cfg)

	err = a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestRun_UnknownKindIsRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`node "a" { kind = "robot_arm" }`), 0o600))

	cfg, err := app.NewConfig(app.Config{DocumentPath: path})
	require.NoError(t, err)
	a, _, _ := testutil.NewApp(t, cfg)

	require.ErrorContains(t, a.Run(context.Background()), "failed to load document")
}

func TestRun_BadMutationOnlyWarns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`node "f" {
  kind     = "function_definition"
  fields   = { NAME = "calc" }
  mutation = { variables = "many" }
}
`), 0o600))

	cfg, err := app.NewConfig(app.Config{DocumentPath: path})
	require.NoError(t, err)
	a, _, logs := testutil.NewApp(t, cfg)

	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, logs.String(), "Document loaded with defaults.")
}
