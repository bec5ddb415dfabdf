package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/version"
)

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"index", "eval", "events", "key", "cache"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestRootCmd_Version(t *testing.T) {
	out, err := run(t, "--version")

	require.NoError(t, err)
	assert.Equal(t, "ragctl version "+version.Version, strings.TrimSpace(out))
}

func TestKeyGenerate(t *testing.T) {
	out, err := run(t, "key", "generate")

	require.NoError(t, err)
	key := strings.TrimSpace(out)
	assert.Len(t, key, 64)

	out2, err := run(t, "key", "generate")
	require.NoError(t, err)
	assert.NotEqual(t, key, strings.TrimSpace(out2))
}

func TestKeyGenerate_Hash(t *testing.T) {
	out, err := run(t, "key", "generate", "--hash")

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "sha256: "))
}
