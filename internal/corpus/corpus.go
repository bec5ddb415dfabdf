// Package corpus loads, validates, builds and stores the snippet list that
// the index is built from. Snippets come from a JSON file, a Postgres table
// or a directory of plain-text documents.
package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/index"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/ragqa/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/postgres"
)

const maxTextLength = 1 << 20

// LoadFile reads a JSON array of {doc_id, text} objects.
func LoadFile(path string) ([]index.Snippet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index file %s: %w", path, err)
	}
	var snippets []index.Snippet
	if err := json.Unmarshal(data, &snippets); err != nil {
		return nil, fmt.Errorf("parsing index file %s: %w: %v", path, apperrors.ErrMalformedSnippet, err)
	}
	if err := Validate(snippets); err != nil {
		return nil, fmt.Errorf("index file %s: %w", path, err)
	}
	return snippets, nil
}

// WriteFile writes snippets as a JSON array, creating parent directories.
func WriteFile(path string, snippets []index.Snippet) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	if snippets == nil {
		snippets = []index.Snippet{}
	}
	data, err := json.Marshal(snippets)
	if err != nil {
		return fmt.Errorf("encoding snippets: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing index file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming index file: %w", err)
	}
	return nil
}

// Validate applies the index's structural checks and bounds text length.
func Validate(snippets []index.Snippet) error {
	if err := index.Validate(snippets); err != nil {
		return err
	}
	for _, s := range snippets {
		if len(s.Text) > maxTextLength {
			return fmt.Errorf("snippet %q: text exceeds %d bytes: %w", s.ID, maxTextLength, apperrors.ErrMalformedSnippet)
		}
	}
	return nil
}

// Load reads the snippets from the source named in cfg.Index.
func Load(ctx context.Context, cfg *config.Config) ([]index.Snippet, error) {
	switch cfg.Index.Source {
	case "", "file":
		return LoadFile(cfg.Index.Path)
	case "postgres":
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connecting to snippet store: %w", err)
		}
		defer db.Close()
		return LoadPostgres(ctx, db.DB, cfg.Index.Table, cfg.Index.LoadTimeout)
	case "dir":
		snippets, err := BuildFromDir(ctx, cfg.Index.Path, DefaultMaxSnippetLen)
		if err != nil {
			return nil, err
		}
		if err := Validate(snippets); err != nil {
			return nil, fmt.Errorf("corpus %s: %w", cfg.Index.Path, err)
		}
		return snippets, nil
	default:
		return nil, fmt.Errorf("unknown index source %q: %w", cfg.Index.Source, apperrors.ErrInvalidInput)
	}
}
