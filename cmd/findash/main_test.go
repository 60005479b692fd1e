package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// testCLI runs commands against a private home directory and database.
type testCLI struct {
	t  *testing.T
	db string
}

func newTestCLI(t *testing.T) *testCLI {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return &testCLI{t: t, db: filepath.Join(t.TempDir(), "findash.db")}
}

// run executes args with stdin as input and returns what was printed to stdout.
func (c *testCLI) run(stdin string, args ...string) (string, error) {
	c.t.Helper()
	viper.Reset()
	cfgFile = ""
	appConfig = nil

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--db", c.db, "--log-level", "error"}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// as runs args for the local profile user and requires success.
func (c *testCLI) as(user string, args ...string) string {
	c.t.Helper()
	out, err := c.run("", append([]string{"--user", user}, args...)...)
	require.NoError(c.t, err, "findash %s", strings.Join(args, " "))
	return out
}

func TestVersionCommand(t *testing.T) {
	c := newTestCLI(t)

	out, err := c.run("", "version")
	require.NoError(t, err)
	require.Contains(t, out, "findash dev")
}
