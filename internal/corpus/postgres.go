package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/ragqa/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/resilience"
)

// The snippet table is expected to look like:
//
//	CREATE TABLE snippets (
//	    doc_id TEXT PRIMARY KEY,
//	    text   TEXT NOT NULL
//	);

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// LoadPostgres reads all snippets from table ordered by doc_id. The query
// is retried with backoff and each attempt is bounded by timeout.
func LoadPostgres(ctx context.Context, db *sql.DB, table string, timeout time.Duration) ([]index.Snippet, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("table name %q: %w", table, apperrors.ErrInvalidInput)
	}
	query := fmt.Sprintf(`SELECT doc_id, text FROM %s ORDER BY doc_id`, table)

	var snippets []index.Snippet
	err := resilience.Retry(ctx, "load-snippets", resilience.RetryConfig{
		MaxAttempts:    3,
		AttemptTimeout: timeout,
		Permanent: func(err error) bool {
			return errors.Is(err, apperrors.ErrMalformedSnippet) || errors.Is(err, apperrors.ErrEmptyIndex)
		},
	}, func(ctx context.Context) error {
		loaded, err := querySnippets(ctx, db, query)
		if err != nil {
			return err
		}
		if err := Validate(loaded); err != nil {
			return err
		}
		snippets = loaded
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading snippets from %s: %w", table, err)
	}
	return snippets, nil
}

func querySnippets(ctx context.Context, db *sql.DB, query string) ([]index.Snippet, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying snippets: %w", err)
	}
	defer rows.Close()

	var snippets []index.Snippet
	for rows.Next() {
		var s index.Snippet
		if err := rows.Scan(&s.ID, &s.Text); err != nil {
			return nil, fmt.Errorf("scanning snippet row: %w", err)
		}
		snippets = append(snippets, s)
	}
	return snippets, rows.Err()
}

// StorePostgres replaces the contents of table with snippets in a single
// transaction.
func StorePostgres(ctx context.Context, db *postgres.Client, table string, snippets []index.Snippet) error {
	if !tableName.MatchString(table) {
		return fmt.Errorf("table name %q: %w", table, apperrors.ErrInvalidInput)
	}
	if err := Validate(snippets); err != nil {
		return err
	}
	return db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (doc_id TEXT PRIMARY KEY, text TEXT NOT NULL)`, table)); err != nil {
			return fmt.Errorf("creating snippet table: %w", err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
			return fmt.Errorf("clearing snippet table: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, copyIn(table))
		if err != nil {
			return fmt.Errorf("preparing copy: %w", err)
		}
		defer stmt.Close()
		for _, s := range snippets {
			if _, err := stmt.ExecContext(ctx, s.ID, s.Text); err != nil {
				return fmt.Errorf("copying snippet %s: %w", s.ID, err)
			}
		}
		if _, err := stmt.ExecContext(ctx); err != nil {
			return fmt.Errorf("flushing copy: %w", err)
		}
		return nil
	})
}

// copyIn returns the COPY statement for table, which may be schema
// qualified.
func copyIn(table string) string {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return pq.CopyInSchema(schema, name, "doc_id", "text")
	}
	return pq.CopyIn(table, "doc_id", "text")
}
