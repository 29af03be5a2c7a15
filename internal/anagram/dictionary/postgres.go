package dictionary

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/resilience"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// PostgresSource reads the word list from a table.
//
// The table needs a word column and a position column giving the word-list
// order:
//
//	CREATE TABLE dictionary_words (
//	    position BIGINT PRIMARY KEY,
//	    word     TEXT NOT NULL
//	);
type PostgresSource struct {
	db    *postgres.Client
	table string
	retry resilience.RetryConfig
}

func NewPostgresSource(db *postgres.Client, table string) (*PostgresSource, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid dictionary table name %q", table)
	}
	return &PostgresSource{db: db, table: table}, nil
}

func (s *PostgresSource) Words(ctx context.Context) ([]string, error) {
	var words []string
	err := resilience.Retry(ctx, "dictionary.load", s.retry, func() error {
		var err error
		words, err = s.query(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return words, nil
}

func (s *PostgresSource) query(ctx context.Context) ([]string, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		fmt.Sprintf(`SELECT word FROM %s ORDER BY position`, s.table),
	)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.table, err)
	}
	defer rows.Close()

	words := make([]string, 0, 1024)
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("scanning dictionary row: %w", err)
		}
		if w == "" {
			continue
		}
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", s.table, err)
	}
	return words, nil
}

// Seed replaces the table contents with words, keeping their order in the
// position column. The table is created if it does not exist.
func (s *PostgresSource) Seed(ctx context.Context, words []string) error {
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			position BIGINT PRIMARY KEY,
			word     TEXT NOT NULL
		)`, s.table)
		if _, err := tx.ExecContext(ctx, create); err != nil {
			return fmt.Errorf("creating %s: %w", s.table, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`TRUNCATE %s`, s.table)); err != nil {
			return fmt.Errorf("truncating %s: %w", s.table, err)
		}
		stmt, err := tx.PrepareContext(ctx, s.copyStatement())
		if err != nil {
			return fmt.Errorf("preparing copy into %s: %w", s.table, err)
		}
		defer stmt.Close()
		for i, w := range words {
			if _, err := stmt.ExecContext(ctx, int64(i), w); err != nil {
				return fmt.Errorf("copying word %d: %w", i, err)
			}
		}
		if _, err := stmt.ExecContext(ctx); err != nil {
			return fmt.Errorf("flushing copy into %s: %w", s.table, err)
		}
		return nil
	})
}

func (s *PostgresSource) copyStatement() string {
	if schema, table, ok := strings.Cut(s.table, "."); ok {
		return pq.CopyInSchema(schema, table, "position", "word")
	}
	return pq.CopyIn(s.table, "position", "word")
}
