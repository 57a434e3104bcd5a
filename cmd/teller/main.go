package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hejijunhao/teller/internal/config"
	"github.com/hejijunhao/teller/internal/engine"
	"github.com/hejijunhao/teller/internal/engine/artifact"
	"github.com/hejijunhao/teller/internal/engine/lexicon"
	"github.com/hejijunhao/teller/internal/engine/textnorm"
	"github.com/hejijunhao/teller/internal/logging"
)

const usage = `usage: teller <command> [flags]

commands:
  classify   classify one complaint (arguments or stdin)
  batch      classify one complaint per line, writing NDJSON results
  serve      run the HTTP API
  samples    list the sample complaints and dataset categories

Run "teller <command> -h" for command flags.
`

// errUsage signals a command-line mistake; the flag package has already
// printed the details.
var errUsage = errors.New("usage")

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "teller: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "teller: %v\n", err)
		os.Exit(1)
	}
	logging.Init(cfg.Logging.JSON, logging.ParseLevel(cfg.Logging.Level))

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var run func(context.Context, config.Config, []string) error
	switch os.Args[1] {
	case "classify":
		run = runClassify
	case "batch":
		run = runBatch
	case "serve":
		run = runServe
	case "samples":
		run = runSamples
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "teller: unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	err = run(ctx, cfg, os.Args[2:])
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, errUsage):
		if err != errUsage {
			fmt.Fprintf(os.Stderr, "teller: %v\n", err)
		}
		os.Exit(2)
	case errors.Is(err, engine.ErrEmptyInput):
		fmt.Fprintln(os.Stderr, "teller: the complaint has no usable content; please describe the problem in more detail")
		os.Exit(3)
	default:
		slog.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

// newEngine wires the lexicon, artifact cache and engine from cfg.
func newEngine(cfg config.Config, opts ...artifact.CacheOption) (*engine.Engine, *artifact.Cache, error) {
	lex, err := lexicon.Load(cfg.Lexicon.WordNetDir, cfg.Lexicon.StopwordsPath)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Lexicon.WordNetDir == "" {
		slog.Debug("using embedded verb lexicon, set TELLER_WORDNET_DIR for the full WordNet dictionary")
	}
	cache := artifact.NewCache(artifact.NewFileLoader(cfg.Artifacts.Dir, cfg.Artifacts.ONNXLibrary), opts...)
	return engine.New(textnorm.New(lex), cache), cache, nil
}
