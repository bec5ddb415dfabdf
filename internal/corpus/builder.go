package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/index"
)

// BuildFromDir splits every *.txt file in dir into snippets with ids
// "<file stem>:<ordinal>". Files are read concurrently; the result is
// ordered by file name and then ordinal.
func BuildFromDir(ctx context.Context, dir string, maxLen int) ([]index.Snippet, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("listing corpus: %w", err)
	}
	sort.Strings(paths)
	logger := slog.Default().With("component", "corpus-builder")

	perFile := make([][]index.Snippet, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			pieces := SplitSnippets(strings.ToValidUTF8(string(data), ""), maxLen)
			out := make([]index.Snippet, len(pieces))
			for j, p := range pieces {
				out[j] = index.Snippet{ID: fmt.Sprintf("%s:%d", stem, j), Text: p}
			}
			perFile[i] = out
			logger.Debug("file split", "file", path, "snippets", len(out))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var snippets []index.Snippet
	for _, s := range perFile {
		snippets = append(snippets, s...)
	}
	logger.Info("corpus built", "files", len(paths), "snippets", len(snippets))
	return snippets, nil
}
