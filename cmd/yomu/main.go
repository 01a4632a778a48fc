// Package main is the yomu CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/yomu/internal/cli"
	"github.com/hyperjump/yomu/internal/config"
	"github.com/hyperjump/yomu/internal/embedding"
	"github.com/hyperjump/yomu/internal/fileid"
	"github.com/hyperjump/yomu/internal/pipeline"
	"github.com/hyperjump/yomu/internal/server"
	"github.com/hyperjump/yomu/internal/storage"
	"github.com/hyperjump/yomu/internal/watcher"
	"github.com/hyperjump/yomu/pkg/utils"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	var err error
	switch command := os.Args[1]; command {
	case "run":
		err = runRun(os.Args[2:])
	case "watch":
		err = runWatch(os.Args[2:])
	case "serve", "server":
		err = runServe(os.Args[2:])
	case "history":
		err = runHistory(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("yomu version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runOptions are the flags shared by run and watch.
type runOptions struct {
	configPath  string
	docsDir     string
	outlinesDir string
	outPath     string
	output      string
	topK        int
	truncate    int
	debug       bool
}

func newRunFlagSet(name string) (*flag.FlagSet, *runOptions) {
	opts := &runOptions{}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.StringVar(&opts.configPath, "config", config.DefaultPath, "config file path")
	fs.StringVar(&opts.docsDir, "docs", "", "documents directory (default: input.documents_dir, else PDFs/ next to the request)")
	fs.StringVar(&opts.outlinesDir, "outlines", "", "outlines directory (default: input.outlines_dir, else the documents directory)")
	fs.StringVar(&opts.outPath, "out", "", "write the report to this file instead of stdout")
	fs.StringVar(&opts.output, "output", "json", "output format: json or text")
	fs.IntVar(&opts.topK, "top-k", -1, "number of sections to report (0 = all; default from config)")
	fs.IntVar(&opts.truncate, "truncate", -1, "truncate section bodies to this many characters (0 = full; default from config)")
	fs.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: yomu %s [flags] <request.json>\n\n", name)
		fs.PrintDefaults()
	}
	return fs, opts
}

// applyOverrides copies explicitly set flags into cfg.
func (o *runOptions) applyOverrides(cfg *config.Config) {
	if o.topK >= 0 {
		cfg.Rank.TopK = o.topK
	}
	if o.truncate >= 0 {
		cfg.Rank.TruncateChars = o.truncate
	}
	if o.debug {
		cfg.Debug = true
	}
}

// reorderArgs moves every flag (and its value) ahead of the positional
// arguments so that flag.Parse() sees them wherever they appear. Go's flag
// package stops at the first non-flag argument, so "yomu run -debug input.json
// -top-k 5" would otherwise leave -top-k unparsed. fs tells boolean flags, which
// take no separate value, from the rest. Everything after "--" stays positional
// and the terminator is kept in place for flag.Parse.
func reorderArgs(fs *flag.FlagSet, args []string) []string {
	flags := make([]string, 0, len(args))
	var positional []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			flags = append(flags, a)
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(a) < 2 || a[0] != '-' {
			positional = append(positional, a)
			continue
		}
		flags = append(flags, a)
		name := strings.TrimLeft(a, "-")
		if strings.Contains(name, "=") || isBoolFlag(fs, name) || i+1 >= len(args) {
			continue
		}
		i++
		flags = append(flags, args[i])
	}
	return append(flags, positional...)
}

func isBoolFlag(fs *flag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	if f == nil {
		return false
	}
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}

// setup loads config and builds the logger.
func setup(configPath string, opts *runOptions) (*config.Config, *zap.Logger, error) {
	cfg, resolved, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts != nil {
		opts.applyOverrides(cfg)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if resolved == "" {
		resolved = "(defaults)"
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", cfg.Debug))
	return cfg, logger, nil
}

// Components holds initialized services.
type Components struct {
	Embedder embedding.Embedder
	Archive  *storage.SQLiteArchive
	Pipeline *pipeline.Pipeline
}

// Close releases the embedder and the archive.
func (c *Components) Close() {
	if c.Archive != nil {
		_ = c.Archive.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	opts := cfg.EmbeddingOptions()
	embedder, err := embedding.NewEmbedder(opts, logger)
	if err != nil {
		if !errors.Is(err, embedding.ErrONNXUnavailable) && !errors.Is(err, embedding.ErrFastEmbedUnavailable) {
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
		logger.Warn("embedding provider unavailable, falling back to hashing",
			zap.String("provider", opts.Provider), zap.Error(err))
		opts.Provider = embedding.ProviderHashing
		if embedder, err = embedding.NewEmbedder(opts, logger); err != nil {
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
	}
	comps := &Components{Embedder: embedder}

	pipeOpts := []pipeline.Option{pipeline.WithLogger(logger)}
	if cfg.Storage.DatabasePath != "" {
		archive, err := storage.NewSQLiteArchive(cfg.Storage.DatabasePath)
		if err != nil {
			comps.Close()
			return nil, fmt.Errorf("failed to initialize run archive: %w", err)
		}
		comps.Archive = archive
		pipeOpts = append(pipeOpts, pipeline.WithArchive(archive))
	}

	p, err := pipeline.New(embedder, pipeline.SettingsFromConfig(cfg), pipeOpts...)
	if err != nil {
		comps.Close()
		return nil, err
	}
	comps.Pipeline = p
	return comps, nil
}

// executeRun loads the request at requestPath, runs the pipeline and writes the report.
func executeRun(ctx context.Context, p *pipeline.Pipeline, cfg *config.Config, opts *runOptions, requestPath string, stdout io.Writer) (*pipeline.Result, error) {
	format, err := cli.ParseOutputFormat(opts.output)
	if err != nil {
		return nil, err
	}
	req, err := pipeline.LoadRequest(requestPath)
	if err != nil {
		return nil, err
	}
	docs, outlines := pipeline.ResolveDirs(requestPath, opts.docsDir, opts.outlinesDir, cfg.Input.DocumentsDir, cfg.Input.OutlinesDir)
	res, err := p.Run(ctx, pipeline.Input{
		Request:      req,
		DocumentsDir: docs,
		OutlinesDir:  outlines,
		RequestKey:   fileid.RequestKey(requestPath),
	})
	if err != nil {
		return nil, err
	}

	if opts.outPath == "" {
		return res, cli.WriteReport(stdout, res.Report, format)
	}
	if dir := filepath.Dir(opts.outPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(opts.outPath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	if err := cli.WriteReport(f, res.Report, format); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write report: %w", err)
	}
	return res, f.Close()
}

func runRun(args []string) error {
	fs, opts := newRunFlagSet("run")
	_ = fs.Parse(reorderArgs(fs, args))
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	requestPath := fs.Arg(0)
	if _, err := os.Stat(requestPath); err != nil {
		return fmt.Errorf("request document: %w", err)
	}

	cfg, logger, err := setup(opts.configPath, opts)
	if err != nil {
		return err
	}
	defer logger.Sync()

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	res, err := executeRun(ctx, comps.Pipeline, cfg, opts, requestPath, os.Stdout)
	if err != nil {
		return err
	}
	for _, s := range res.Skipped {
		fmt.Fprintf(os.Stderr, "skipped %s: %s\n", s.Document, s.Reason)
	}
	if opts.outPath != "" {
		fmt.Fprintf(os.Stderr, "Report written to %s (run %s)\n", opts.outPath, res.RunID)
	}
	return nil
}

func runWatch(args []string) error {
	fs, opts := newRunFlagSet("watch")
	_ = fs.Parse(reorderArgs(fs, args))
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	requestPath := fs.Arg(0)
	if _, err := os.Stat(requestPath); err != nil {
		return fmt.Errorf("request document: %w", err)
	}

	cfg, logger, err := setup(opts.configPath, opts)
	if err != nil {
		return err
	}
	defer logger.Sync()

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var mu sync.Mutex
	rerun := func(reason []string) {
		mu.Lock()
		defer mu.Unlock()
		if len(reason) > 0 {
			logger.Info("changes detected, re-running", zap.Strings("paths", reason))
		}
		res, err := executeRun(ctx, comps.Pipeline, cfg, opts, requestPath, os.Stdout)
		if err != nil {
			logger.Error("run failed", zap.Error(err))
			return
		}
		logger.Info("report updated", zap.String("run_id", res.RunID), zap.Int("skipped", len(res.Skipped)))
	}
	rerun(nil)

	docs, outlines := pipeline.ResolveDirs(requestPath, opts.docsDir, opts.outlinesDir, cfg.Input.DocumentsDir, cfg.Input.OutlinesDir)
	roots := []string{docs}
	if outlines != docs {
		roots = append(roots, outlines)
	}
	exts := append(append([]string(nil), cfg.Watch.Extensions...), cfg.Input.OutlineExtensions...)
	w := watcher.NewWatcher(roots, exts, rerun,
		watcher.WithFiles(requestPath),
		watcher.WithDebounce(cfg.Watch.Debounce()),
		watcher.WithLogger(logger),
	)
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Stop()
	logger.Info("watching for changes", zap.Strings("roots", w.Roots()), zap.String("request", requestPath))

	<-ctx.Done()
	logger.Info("Shutting down...")
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(args)

	cfg, logger, err := setup(*configPath, &runOptions{topK: -1, truncate: -1, debug: *debug})
	if err != nil {
		return err
	}
	defer logger.Sync()

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	var archive storage.Archive
	if comps.Archive != nil {
		archive = comps.Archive
	}
	srv := server.NewServer(comps.Pipeline, archive, cfg.Input, &cfg.Server, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-sigChan:
	}

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}

func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath, "config file path")
	limit := fs.Int("limit", 20, "number of runs to list")
	offset := fs.Int("offset", 0, "number of runs to skip")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		return err
	}
	cfg, _, err := config.LoadOrDefault(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Storage.DatabasePath == "" {
		return errors.New("run archive not enabled: set storage.database_path in the config")
	}
	archive, err := storage.NewSQLiteArchive(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer archive.Close()

	ctx := context.Background()
	runs, err := archive.ListRuns(ctx, *offset, *limit)
	if err != nil {
		return err
	}
	total, err := archive.CountRuns(ctx)
	if err != nil {
		return err
	}
	if err := cli.WriteRuns(os.Stdout, runs, total, format); err != nil {
		return err
	}
	if format == cli.OutputText {
		if size, err := archive.SizeBytes(); err == nil {
			fmt.Printf("\nArchive: %s (%d bytes)\n", cfg.Storage.DatabasePath, size)
		}
	}
	return nil
}

func printUsage() {
	fmt.Println(`yomu - Persona-driven section ranking for document collections

Usage:
  yomu run [flags] <request.json>     Rank sections for a request and print the report
  yomu watch [flags] <request.json>   Run, then re-run whenever the request, a document or an outline changes
  yomu serve [flags]                  Start the HTTP API
  yomu history [flags]                List archived runs
  yomu version                        Show version
  yomu help                           Show this help

Run/Watch Flags:
  --config string     Config file path (default: /usr/local/etc/yomu/config.yaml, or ./config.yaml)
  --docs string       Documents directory (default: PDFs/ next to the request, else its directory)
  --outlines string   Outlines directory (default: the documents directory)
  --out string        Write the report to a file instead of stdout
  --output string     Output format: json or text (default: json)
  --top-k int         Number of sections to report, 0 = all (default from config: 10)
  --truncate int      Truncate bodies to N characters, 0 = full (default from config: 0)
  --debug             Enable debug logging

Serve Flags:
  --config string     Config file path
  --debug             Enable debug logging

History Flags:
  --config string     Config file path
  --limit int         Number of runs to list (default: 20)
  --offset int        Number of runs to skip
  --output string     Output format: text or json (default: text)

Examples:
  yomu run collection/challenge1b_input.json
  yomu run --out collection/challenge1b_output.json collection/challenge1b_input.json
  yomu run collection/input.json --top-k 5 --output text
  yomu watch --docs ./pdfs --outlines ./outlines input.json
  yomu serve --config ./config.yaml
  yomu history --limit 5`)
}
