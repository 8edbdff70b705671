// Command spellbook builds a word-frequency dictionary from training text
// and reports words it has never seen when checking new text.
//
// Run with --help to see command-line usage.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/japaniel/spellbook/pkg/config"
	"github.com/japaniel/spellbook/pkg/dictionary"
	"github.com/japaniel/spellbook/pkg/ingest"
	"github.com/japaniel/spellbook/pkg/textsource"
)

func main() {
	log.SetPrefix("spellbook ")

	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

// Version returns the current version of the command.
func Version() string { return "0.1.0" }

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	app := kingpin.New("spellbook", "Train a word-frequency dictionary and flag unknown words.")
	app.Version(Version())
	app.Writer(stderr)

	set := make(map[string]bool)
	mark := func(name string) kingpin.Action {
		return func(*kingpin.ParseContext) error {
			set[name] = true
			return nil
		}
	}

	var (
		configPath  = app.Flag("config", "TOML config file (default: ./"+config.DefaultFile+" if present)").String()
		storePath   = app.Flag("store", "dictionary file (.csv, or .db/.sqlite for SQLite)").Short('s').Action(mark("store")).String()
		storeFormat = app.Flag("store-format", "dictionary format: auto, csv or sqlite").Action(mark("store-format")).String()
		column      = app.Flag("column", "0-based CSV/TSV column to read, -1 (or --column=-1) for all columns").Short('c').Action(mark("column")).Int()
		mode        = app.Flag("mode", "input mode: auto, csv, tsv, text, html or url").Short('m').Action(mark("mode")).String()
		header      = app.Flag("header", "skip the first CSV/TSV record").Action(mark("header")).Bool()
		quiet       = app.Flag("quiet", "only print results").Short('q').Bool()

		trainCmd   = app.Command("train", "add the words of INPUT to the dictionary")
		trainInput = trainCmd.Arg("input", "file or http(s) URL to train on").String()

		checkCmd   = app.Command("check", "list words of INPUT missing from the dictionary")
		checkInput = checkCmd.Arg("input", "file or http(s) URL to check").String()

		dumpCmd      = app.Command("dump", "print dictionary words and counts")
		dumpMaxCount = dumpCmd.Flag("max-count", "only print words seen at most this often (0 = all)").Default("0").Uint64()

		configCmd = app.Command("config", "print the effective configuration as TOML")
	)

	command, err := app.Parse(joinNegativeValue(args, "column", 'c'))
	if err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if set["store"] {
		cfg.StorePath = *storePath
	}
	if set["store-format"] {
		cfg.StoreFormat = *storeFormat
	}
	if set["column"] {
		cfg.Column = *column
	}
	if set["mode"] {
		cfg.Mode = *mode
	}
	if set["header"] {
		cfg.Header = *header
	}
	switch command {
	case trainCmd.FullCommand():
		if *trainInput != "" {
			cfg.InputPath = *trainInput
		}
	case checkCmd.FullCommand():
		if *checkInput != "" {
			cfg.InputPath = *checkInput
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := log.New(stderr, "spellbook ", log.LstdFlags)
	if *quiet {
		logger = nil
	}

	if command == configCmd.FullCommand() {
		data, err := cfg.Marshal()
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		_, err = stdout.Write(data)
		return err
	}

	backend, err := dictionary.OpenBackend(cfg.StorePath, cfg.StoreFormat)
	if err != nil {
		return err
	}
	store := dictionary.NewStore(backend)
	store.Logger = logger
	if err := store.Load(); err != nil {
		return err
	}

	switch command {
	case dumpCmd.FullCommand():
		for _, e := range store.Entries(*dumpMaxCount) {
			fmt.Fprintf(stdout, "%s : %d\n", e.Word, e.Count)
		}
		return nil
	case trainCmd.FullCommand():
		return train(ctx, cfg, store, logger, stdout)
	case checkCmd.FullCommand():
		return check(ctx, cfg, store, logger, stdout)
	}
	return fmt.Errorf("unknown command %q", command)
}

// joinNegativeValue rewrites "--name -1" and "-short -1" as "--name=-1".
// kingpin otherwise lexes a value such as -1 as a short flag.
func joinNegativeValue(args []string, name string, short rune) []string {
	long, abbrev := "--"+name, "-"+string(short)
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return append(out, args[i:]...)
		}
		if (arg == long || arg == abbrev) && i+1 < len(args) {
			if n, err := strconv.Atoi(args[i+1]); err == nil && n < 0 {
				out = append(out, long+"="+args[i+1])
				i++
				continue
			}
		}
		out = append(out, arg)
	}
	return out
}

func openInput(cfg config.Config, logger *log.Logger) (*textsource.Source, error) {
	if cfg.InputPath == "" {
		return nil, fmt.Errorf("please provide an INPUT file or set input_path in the config")
	}
	opts := cfg.SourceOptions()
	opts.Logger = logger
	return textsource.Open(cfg.InputPath, opts)
}

func newIngester(store *dictionary.Store, logger *log.Logger) *ingest.Ingester {
	ig := ingest.NewIngester(store)
	ig.Logger = logger
	if logger != nil {
		ig.OnProgress = func(records int) {
			logger.Printf("Processed %d records", records)
		}
	}
	return ig
}

func train(ctx context.Context, cfg config.Config, store *dictionary.Store, logger *log.Logger, stdout io.Writer) error {
	src, err := openInput(cfg, logger)
	if err != nil {
		return err
	}
	res, err := newIngester(store, logger).Train(ctx, src)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	fmt.Fprintf(stdout, "Training complete. %d records, %d tokens; dictionary now has %d words (training count %d).\n",
		res.Records, res.Tokens, res.Words, res.Epoch)
	return nil
}

func check(ctx context.Context, cfg config.Config, store *dictionary.Store, logger *log.Logger, stdout io.Writer) error {
	src, err := openInput(cfg, logger)
	if err != nil {
		return err
	}
	res, err := newIngester(store, logger).Check(ctx, src)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}
	if len(res.Unmatched) == 0 {
		fmt.Fprintln(stdout, "No unknown words found.")
		return nil
	}
	fmt.Fprint(stdout, "\nWords with possible typos:\n\n")
	for _, w := range res.Unmatched {
		fmt.Fprintln(stdout, w)
	}
	return nil
}
