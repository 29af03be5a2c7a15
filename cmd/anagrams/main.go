// Command anagrams prints or times sentence anagrams from the command line.
//
// With no sentence arguments it runs the classic timing set: "grumpy cat"
// a hundred times over three repeats, then "bold grumpy cat" once.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/anagram/dictionary"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/anagram/parser"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/anagram/search"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/postgres"
)

type timing struct {
	runs     int
	repeats  int
	sentence []string
}

var defaultTimings = []timing{
	{runs: 100, repeats: 3, sentence: []string{"grumpy", "cat"}},
	{runs: 1, repeats: 1, sentence: []string{"bold", "grumpy", "cat"}},
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	dictPath := flag.String("dict", "", "word list file, overrides dictionary.path")
	printResults := flag.Bool("print", false, "print sentences instead of timings")
	batchPath := flag.String("batch", "", "file with one sentence per line to solve concurrently")
	concurrency := flag.Int("concurrency", 4, "parallel searches in batch mode")
	seed := flag.Bool("seed", false, "copy the word list file into the postgres dictionary table and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *dictPath != "" {
		cfg.Dictionary.Source = config.SourceFile
		cfg.Dictionary.Path = *dictPath
	}
	logger.SetupWriter(os.Stderr, cfg.Logging.Level, "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *seed {
		err = seedPostgres(ctx, cfg)
	} else {
		err = run(ctx, cfg, os.Stdout, flag.Args(), *printResults, *batchPath, *concurrency)
	}
	if err != nil {
		slog.Error("anagrams failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, out io.Writer, args []string, printAll bool, batchPath string, concurrency int) error {
	var pg *postgres.Client
	if cfg.Dictionary.Source == config.SourcePostgres {
		var err error
		if pg, err = postgres.New(ctx, cfg.Postgres); err != nil {
			return err
		}
		defer pg.Close()
	}
	src, err := dictionary.SourceFor(cfg.Dictionary, pg)
	if err != nil {
		return err
	}

	start := time.Now()
	idx, err := dictionary.Load(ctx, src)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%6.3fs prep\n", time.Since(start).Seconds())

	engine := search.New(idx, search.Options{MaxDepth: cfg.Search.MaxDepth, Memoize: cfg.Search.Memoize})

	if batchPath != "" {
		f, err := os.Open(batchPath)
		if err != nil {
			return fmt.Errorf("opening batch file: %w", err)
		}
		defer f.Close()
		return runBatch(ctx, engine, f, out, printAll, concurrency)
	}

	timings := defaultTimings
	if len(args) > 0 {
		timings = make([]timing, 0, len(args))
		for _, a := range args {
			timings = append(timings, timing{runs: 1, repeats: 1, sentence: parser.Parse(a)})
		}
	}
	for _, t := range timings {
		if printAll {
			if err := printSentences(ctx, engine, out, t.sentence); err != nil {
				return err
			}
			continue
		}
		if err := timeSentence(ctx, engine, out, t); err != nil {
			return err
		}
	}
	return nil
}

// timeSentence prints the mean time per search for each repeat.
func timeSentence(ctx context.Context, engine *search.Engine, out io.Writer, t timing) error {
	for r := 0; r < t.repeats; r++ {
		start := time.Now()
		for i := 0; i < t.runs; i++ {
			if _, err := engine.SentenceAnagrams(ctx, t.sentence); err != nil {
				return err
			}
		}
		perRun := time.Since(start).Seconds() / float64(t.runs)
		fmt.Fprintf(out, "%6.3fs %s\n", perRun, strings.Join(t.sentence, " "))
	}
	return nil
}

func printSentences(ctx context.Context, engine *search.Engine, out io.Writer, sentence []string) error {
	results, err := engine.SentenceAnagrams(ctx, sentence)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(out)
	for _, s := range results {
		fmt.Fprintln(w, strings.Join(s, " "))
	}
	return w.Flush()
}

type batchResult struct {
	sentence []string
	results  []search.Sentence
	err      error
}

// runBatch solves every non-blank line of in with at most concurrency
// searches in flight and writes the outcomes in input order. A failed line
// is reported and does not stop the others.
func runBatch(ctx context.Context, engine *search.Engine, in io.Reader, out io.Writer, printAll bool, concurrency int) error {
	var sentences [][]string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if words := parser.Parse(scanner.Text()); len(words) > 0 {
			sentences = append(sentences, words)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading batch: %w", err)
	}

	results := make([]batchResult, len(sentences))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for i, sentence := range sentences {
		g.Go(func() error {
			found, err := engine.SentenceAnagrams(gctx, sentence)
			results[i] = batchResult{sentence: sentence, results: found, err: err}
			if errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w := bufio.NewWriter(out)
	for _, r := range results {
		line := strings.Join(r.sentence, " ")
		switch {
		case r.err != nil:
			fmt.Fprintf(w, "%s\terror: %v\n", line, r.err)
		case printAll:
			fmt.Fprintf(w, "%s\t%d\n", line, len(r.results))
			for _, s := range r.results {
				fmt.Fprintf(w, "\t%s\n", strings.Join(s, " "))
			}
		default:
			fmt.Fprintf(w, "%s\t%d\n", line, len(r.results))
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing batch results: %w", err)
	}
	return nil
}

func seedPostgres(ctx context.Context, cfg *config.Config) error {
	words, err := dictionary.LoadFile(cfg.Dictionary.Path)
	if err != nil {
		return err
	}
	pg, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()
	src, err := dictionary.NewPostgresSource(pg, cfg.Dictionary.Table)
	if err != nil {
		return err
	}
	if err := src.Seed(ctx, words); err != nil {
		return err
	}
	slog.Info("dictionary seeded", "table", cfg.Dictionary.Table, "words", len(words))
	return nil
}
