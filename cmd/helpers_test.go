package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/signbridge/internal"
	"github.com/iksnae/signbridge/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// testEnv is a data dir and config pointing at a fake backend
type testEnv struct {
	fake    *testutil.FakeBackend
	dir     string
	dataDir string
	config  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv(internal.EnvServer, "")
	t.Setenv(internal.EnvDataDir, "")

	fake := testutil.NewFakeBackend(t)
	fake.AddUser("ada@example.com", "secret", "tok-ada", "Ada")

	dir := testutil.CreateTempDir(t)
	dataDir := filepath.Join(dir, "data")
	config := testutil.WriteConfigFixture(t, dir, map[string]interface{}{
		"server":   fake.URL(),
		"data_dir": dataDir,
	})

	origPoll := pollIntervalOverride
	origInteractive := isInteractive
	pollIntervalOverride = 5 * time.Millisecond
	isInteractive = func() bool { return false }
	t.Cleanup(func() {
		pollIntervalOverride = origPoll
		isInteractive = origInteractive
	})

	return &testEnv{fake: fake, dir: dir, dataDir: dataDir, config: config}
}

// run executes the CLI against the env with stdin
func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	return executeCommand(t, stdin, append([]string{"--config", e.config}, args...)...)
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	if _, err := e.run(t, "", "login", "--email", "ada@example.com", "--password", "secret"); err != nil {
		t.Fatalf("login error = %v", err)
	}
}

func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))

	err := rootCmd.Execute()
	closeApp()
	return out.String(), err
}

// resetFlags restores every flag so values do not leak between executions
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}
