// Package generator runs the read → extract → write pipeline that produces a
// compile_commands.json from bazel aquery output.
package generator

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mvp-joe/compdb/internal/aquery"
	"github.com/mvp-joe/compdb/internal/compdb"
)

// Stdout is the output path that streams the database instead of writing a file.
const Stdout = "-"

// Options configures a Generator.
type Options struct {
	Extractor  compdb.Options
	Directory  string    // working directory recorded in every entry
	OutputPath string    // destination file, or Stdout
	Stdout     io.Writer // used when OutputPath is Stdout; defaults to os.Stdout
}

// Stats summarizes one generation run.
type Stats struct {
	Actions          int
	WithFile         int
	WithoutFile      int
	ArgumentsRemoved int
	InputBytes       int
	Duration         time.Duration
}

// Generator converts aquery output into a compilation database.
type Generator struct {
	opts      Options
	extractor *compdb.Extractor
	progress  ProgressReporter
}

// New creates a generator. A nil progress reporter disables reporting.
func New(opts Options, progress ProgressReporter) (*Generator, error) {
	if progress == nil {
		progress = &NoOpProgressReporter{}
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.OutputPath == "" {
		return nil, fmt.Errorf("output path is required")
	}

	extractorOpts := opts.Extractor
	extractorOpts.OnActionExtracted = progress.OnActionExtracted

	extractor, err := compdb.NewExtractor(extractorOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	return &Generator{
		opts:      opts,
		extractor: extractor,
		progress:  progress,
	}, nil
}

// Run reads aquery output from in and writes the compilation database.
// Nothing is written unless the whole input parses.
func (g *Generator) Run(ctx context.Context, source string, in io.Reader) (*Stats, error) {
	start := time.Now()

	g.progress.OnReadStart(source)
	raw, err := aquery.ReadAll(in)
	if err != nil {
		return nil, err
	}
	g.progress.OnReadComplete(len(raw))

	return g.generate(ctx, raw, start)
}

// RunFile is Run for an input file on disk.
func (g *Generator) RunFile(ctx context.Context, path string) (*Stats, error) {
	start := time.Now()

	g.progress.OnReadStart(path)
	raw, err := aquery.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g.progress.OnReadComplete(len(raw))

	return g.generate(ctx, raw, start)
}

func (g *Generator) generate(ctx context.Context, raw []byte, start time.Time) (*Stats, error) {
	actions, err := aquery.Parse(raw)
	if err != nil {
		return nil, err
	}

	g.progress.OnExtractStart(len(actions))
	db, err := g.extractor.Extract(ctx, actions)
	if err != nil {
		return nil, fmt.Errorf("extraction cancelled: %w", err)
	}

	g.progress.OnWriteStart(g.opts.OutputPath)
	if g.opts.OutputPath == Stdout {
		err = compdb.Write(g.opts.Stdout, db, g.opts.Directory)
	} else {
		err = compdb.WriteFile(g.opts.OutputPath, db, g.opts.Directory)
	}
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Actions:    len(actions),
		InputBytes: len(raw),
	}
	for i, cmd := range db {
		if cmd.File != nil {
			stats.WithFile++
		} else {
			stats.WithoutFile++
		}
		stats.ArgumentsRemoved += len(actions[i].Arguments) - len(cmd.Arguments)
	}
	stats.Duration = time.Since(start)

	g.progress.OnComplete(stats)
	return stats, nil
}
