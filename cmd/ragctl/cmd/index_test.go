package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/corpus"
)

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plan.txt"), []byte(
		"The annual deductible is $500 per member.\n\n"+
			"Coinsurance is 20% after the deductible is met.\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "claims.txt"), []byte(
		"- Claims must be filed within 90 days of service.\n"+
			"- Denied claims can be appealed within 180 days.\n"), 0o644))
	return dir
}

func TestIndexBuild_WritesSnippets(t *testing.T) {
	dir := writeCorpus(t)
	out := filepath.Join(t.TempDir(), "nested", "index.json")

	stdout, err := run(t, "index", "build", "--corpus", dir, "--out", out, "--max-len", "60")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote 4 snippets to "+out)

	snippets, err := corpus.LoadFile(out)
	require.NoError(t, err)
	require.Len(t, snippets, 4)
	assert.Equal(t, "claims:0", snippets[0].ID)
	assert.Equal(t, "plan:1", snippets[3].ID)
}

func TestIndexBuild_EmptyCorpusFails(t *testing.T) {
	out := filepath.Join(t.TempDir(), "index.json")

	_, err := run(t, "index", "build", "--corpus", t.TempDir(), "--out", out)

	require.Error(t, err)
	assert.NoFileExists(t, out)
}

func TestIndexInspect(t *testing.T) {
	dir := writeCorpus(t)
	out := filepath.Join(t.TempDir(), "index.json")
	_, err := run(t, "index", "build", "--corpus", dir, "--out", out, "--max-len", "60")
	require.NoError(t, err)

	stdout, err := run(t, "index", "inspect", out)

	require.NoError(t, err)
	assert.Contains(t, stdout, "Snippets:       4")
	assert.Contains(t, stdout, "Vocabulary:")
	assert.Contains(t, stdout, "Longest:")
}

func TestIndexInspect_PrintsTermPostings(t *testing.T) {
	dir := writeCorpus(t)
	out := filepath.Join(t.TempDir(), "index.json")
	_, err := run(t, "index", "build", "--corpus", dir, "--out", out, "--max-len", "60")
	require.NoError(t, err)

	stdout, err := run(t, "index", "inspect", out, "--term", "Deductible")

	require.NoError(t, err)
	assert.Contains(t, stdout, "deductible: 2 snippet(s)")
	assert.Contains(t, stdout, "  plan:0 tf=1")
	assert.Contains(t, stdout, "  plan:1 tf=1")
}

func TestIndexInspect_RequiresFile(t *testing.T) {
	_, err := run(t, "index", "inspect")
	assert.Error(t, err)
}
