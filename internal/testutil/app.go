package testutil

import (
	"os"
	"testing"

	"github.com/vk/blockbind/internal/app"
	"github.com/vk/blockbind/internal/hcl"
	"github.com/vk/blockbind/internal/registry"
)

// NewApp creates an app for system tests. Reports go to out; logs are
// captured separately and dumped when the test fails or BLOCKBIND_TEST_LOGS
// is set.
func NewApp(t *testing.T, cfg *app.Config, modules ...registry.Module) (a *app.App, out *SafeBuffer, logs *SafeBuffer) {
	t.Helper()

	out, logs = &SafeBuffer{}, &SafeBuffer{}
	cfg.LogLevel = "debug"
	cfg.LogFormat = "text"
	cfg.LogOutput = logs
	a = app.NewApp(out, cfg, hcl.NewCodec(), modules...)

	t.Cleanup(func() {
		if t.Failed() || os.Getenv("BLOCKBIND_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return a, out, logs
}
