package dictionary

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/postgres"
)

// Source supplies the ordered word list an Index is built from.
type Source interface {
	Words(ctx context.Context) ([]string, error)
}

// ReadWords reads one word per line. Trailing whitespace is trimmed, blank
// lines are skipped, order and duplicates are preserved.
func ReadWords(r io.Reader) ([]string, error) {
	words := make([]string, 0, 1024)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r\n")
		if line == "" {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning word list: %w", err)
	}
	return words, nil
}

// FileSource reads a newline-separated word list from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Words(ctx context.Context) ([]string, error) {
	f, err := os.Open(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("word list %s not found, set dictionary.path or SA_DICTIONARY_PATH: %w", s.Path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("opening word list %s: %w", s.Path, err)
	}
	defer f.Close()
	words, err := ReadWords(f)
	if err != nil {
		return nil, fmt.Errorf("reading word list %s: %w", s.Path, err)
	}
	return words, nil
}

// LoadFile reads the word list at path.
func LoadFile(path string) ([]string, error) {
	return FileSource{Path: path}.Words(context.Background())
}

// Load pulls the word list from src and builds the index, logging how long
// each phase took.
func Load(ctx context.Context, src Source) (*Index, error) {
	logger := slog.Default().With("component", "dictionary")
	start := time.Now()
	words, err := src.Words(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading dictionary: %w", err)
	}
	loaded := time.Since(start)
	idx := Build(words)
	stats := idx.Stats()
	logger.Info("dictionary indexed",
		"words", stats.Words,
		"signatures", stats.Signatures,
		"largest_bucket", stats.LargestBucket,
		"load_ms", loaded.Milliseconds(),
		"build_ms", (time.Since(start) - loaded).Milliseconds(),
	)
	return idx, nil
}

// SourceFor picks the word-list source named by cfg. db is only used, and
// must be non-nil, for the postgres source.
func SourceFor(cfg config.DictionaryConfig, db *postgres.Client) (Source, error) {
	switch cfg.Source {
	case config.SourceFile:
		return FileSource{Path: cfg.Path}, nil
	case config.SourcePostgres:
		if db == nil {
			return nil, fmt.Errorf("dictionary source %q needs postgres.enabled", cfg.Source)
		}
		src, err := NewPostgresSource(db, cfg.Table)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unknown dictionary source %q", cfg.Source)
	}
}
