package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/hejijunhao/teller/internal/config"
	"github.com/hejijunhao/teller/internal/engine/artifact"
	"github.com/hejijunhao/teller/internal/engine/resolver"
	"github.com/hejijunhao/teller/internal/engine/testdata"
	"github.com/hejijunhao/teller/internal/model"
	"github.com/hejijunhao/teller/internal/output"
	"github.com/hejijunhao/teller/internal/output/async"
	"github.com/hejijunhao/teller/internal/output/file"
	"github.com/hejijunhao/teller/internal/output/multi"
	"github.com/hejijunhao/teller/internal/output/stdout"
	"github.com/hejijunhao/teller/internal/output/webhook"
	"github.com/hejijunhao/teller/internal/pipeline"
	"github.com/hejijunhao/teller/internal/server"
)

// parseFlags parses args into fs, mapping flag errors to errUsage.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return context.Canceled
		}
		return errUsage
	}
	return nil
}

func parseVariant(name string, fallback model.Variant) (model.Variant, error) {
	if name == "" {
		return fallback, nil
	}
	v, err := model.ParseVariant(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errUsage, err)
	}
	return v, nil
}

func runClassify(_ context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	dataset := fs.Int("dataset", 1, "dataset to classify against (1 or 2)")
	modelName := fs.String("model", "", "model variant: logistic or svm (default from config)")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	showNorm := fs.Bool("normalized", false, "also print the normalized text")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	v, err := parseVariant(*modelName, cfg.Variant())
	if err != nil {
		return err
	}

	text := strings.Join(fs.Args(), " ")
	if text == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	eng, cache, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer cache.Close()

	if *showNorm {
		fmt.Fprintf(os.Stderr, "normalized: %q\n", eng.Normalize(text))
	}

	ds := model.Dataset(*dataset)
	pred, err := eng.Classify(ds, text, v)
	if err != nil {
		return err
	}
	res := pred.Result("", resolver.Default().ResolveFor(ds, pred.Category))

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		return enc.Encode(res)
	}
	fmt.Printf("%s\t%s\t(%s, %s)\n", res.DisplayName, res.Icon, res.ModelUsed.DisplayName(), ds)
	return nil
}

func runBatch(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	dataset := fs.Int("dataset", 1, "dataset for lines that do not name one")
	modelName := fs.String("model", "", "model variant for lines that do not name one")
	in := fs.String("in", "", "input file, one complaint per line (default stdin)")
	out := fs.String("out", cfg.Output.Path, "NDJSON output file, appended (default stdout)")
	workers := fs.Int("workers", 4, "complaints classified concurrently")
	pretty := fs.Bool("pretty", cfg.Output.Pretty, "indent stdout JSON")
	verbosity := fs.String("verbosity", cfg.Output.Verbosity, "minimal drops the complaint text from results")
	maxSize := fs.Int64("max-size", 0, "rotate the output file at this many bytes (0 disables)")
	webhookURL := fs.String("webhook", cfg.Output.WebhookURL, "also POST result batches to this URL")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	v, err := parseVariant(*modelName, cfg.Variant())
	if err != nil {
		return err
	}
	verb := output.ParseVerbosity(*verbosity)

	var src io.Reader = os.Stdin
	if *in != "" {
		f, err := os.Open(*in)
		if err != nil {
			return err
		}
		defer f.Close()
		src = f
	}

	var primary output.Output
	if *out != "" {
		fo, err := file.New(*out, verb, file.WithMaxSize(*maxSize))
		if err != nil {
			return err
		}
		primary = fo
	} else {
		primary = stdout.New(verb, *pretty)
	}
	var hook output.Output
	if *webhookURL != "" {
		hook = async.New(webhook.New(*webhookURL, webhook.WithVerbosity(verb)))
	}
	sink := multi.New(primary, hook)

	eng, cache, err := newEngine(cfg)
	if err != nil {
		sink.Close()
		return err
	}
	defer cache.Close()

	p := pipeline.New(eng, resolver.Default(), sink,
		pipeline.WithDataset(model.Dataset(*dataset)),
		pipeline.WithVariant(v),
		pipeline.WithWorkers(*workers),
	)
	stats, runErr := p.Run(ctx, src)
	if err := p.Close(); err != nil && runErr == nil {
		runErr = err
	}
	fmt.Fprintf(os.Stderr, "teller: %d lines, %d classified, %d empty, %d failed in %s\n",
		stats.Lines, stats.Classified, stats.Empty, stats.Failed, stats.Elapsed)
	return runErr
}

func runServe(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", cfg.Server.Addr, "HTTP listen address")
	warm := fs.Bool("warm", cfg.Artifacts.Warm, "load every dataset's artifacts before serving")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	metrics := server.NewMetrics()
	eng, cache, err := newEngine(cfg, artifact.WithObserver(metrics.ObserveLoad))
	if err != nil {
		return err
	}
	defer cache.Close()

	if *warm {
		for _, ds := range model.Datasets() {
			if err := eng.Warm(ds, cfg.Variant()); err != nil {
				slog.Warn("warm-up failed, will retry on first request", "dataset", int(ds), "variant", string(cfg.Variant()), "error", err)
			}
		}
	}

	srv := server.New(eng,
		server.WithMetrics(metrics),
		server.WithDefaultVariant(cfg.Variant()),
		server.WithLoadedCount(cache.Loaded),
	)
	return srv.ListenAndServe(ctx, *addr, cfg.Server.ShutdownTimeout)
}

func runSamples(_ context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("samples", flag.ContinueOnError)
	dataset := fs.Int("dataset", 0, "only this dataset (0 lists all)")
	categories := fs.Bool("categories", false, "list dataset categories and icons instead of samples")
	classify := fs.Bool("classify", false, "classify each sample and show the prediction")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	res := resolver.Default()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	if *categories {
		for _, info := range res.Catalog() {
			if *dataset != 0 && int(info.Dataset) != *dataset {
				continue
			}
			fmt.Fprintf(w, "%s\t%d complaints\tdisplay: %s\n", info.Title, info.Complaints, info.Mode)
			for _, c := range res.Categories(info.Dataset) {
				fmt.Fprintf(w, "  %s\t%s\t\n", c.Name, c.Icon)
			}
		}
		return nil
	}

	samples, err := testdata.LoadSamples()
	if err != nil {
		return err
	}
	if *dataset != 0 {
		samples = testdata.ForDataset(samples, model.Dataset(*dataset))
	}

	if !*classify {
		for _, s := range samples {
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.Dataset, s.ExpectedCategory, s.Text)
		}
		return nil
	}

	eng, cache, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer cache.Close()

	fmt.Fprintln(w, "DATASET\tEXPECTED\tPREDICTED\tICON\tMATCH")
	for _, s := range samples {
		pred, err := eng.Classify(s.Dataset, s.Text, cfg.Variant())
		if err != nil {
			return fmt.Errorf("%s sample %q: %w", s.Dataset, s.ExpectedCategory, err)
		}
		r := res.ResolveFor(s.Dataset, pred.Category)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", s.Dataset, s.ExpectedCategory, r.DisplayName, r.Icon, r.Icon == s.ExpectedIcon)
	}
	return nil
}
