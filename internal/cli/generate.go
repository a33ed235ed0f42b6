package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mvp-joe/compdb/internal/config"
	"github.com/mvp-joe/compdb/internal/generator"
	"github.com/mvp-joe/compdb/internal/watcher"
)

// generateFlags holds the flags shared by the root command and 'generate'.
type generateFlags struct {
	v *viper.Viper

	cfgFile    string
	verbose    bool
	quiet      bool
	watch      bool
	disallowed []string
}

func (f *generateFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()

	pf.StringVar(&f.cfgFile, "config", "", "config file (default is ./.compdb.yaml)")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "verbose output")
	pf.BoolVarP(&f.quiet, "quiet", "q", false, "suppress progress output")
	pf.BoolVarP(&f.watch, "watch", "w", false, "regenerate whenever the input file changes (requires --input)")
	pf.StringSliceVar(&f.disallowed, "disallow", nil, "additional arguments to strip (repeatable)")

	pf.StringP("input", "i", config.StdStream, `aquery JSON to read, "-" for stdin`)
	pf.StringP("output", "o", "", `destination file, "-" for stdout (default <directory>/compile_commands.json)`)
	pf.StringP("directory", "d", "", "working directory recorded in every entry (default current directory)")
	pf.StringSlice("suffix", nil, "source file suffixes, replaces the configured set (repeatable)")
	pf.StringSlice("disallow-pattern", nil, "glob patterns of arguments to strip (repeatable)")
	pf.IntP("jobs", "j", 0, "parallel extraction workers, 0 extracts sequentially")

	// Bind flags to viper
	f.v.BindPFlag("input.path", pf.Lookup("input"))
	f.v.BindPFlag("output.path", pf.Lookup("output"))
	f.v.BindPFlag("output.directory", pf.Lookup("directory"))
	f.v.BindPFlag("convert.source_suffixes", pf.Lookup("suffix"))
	f.v.BindPFlag("convert.disallowed_patterns", pf.Lookup("disallow-pattern"))
	f.v.BindPFlag("convert.workers", pf.Lookup("jobs"))
}

func newGenerateCmd(flags *generateFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate compile_commands.json (same as running compdb without a command)",
		Long: `Generate reads 'bazel aquery --output=jsonproto' output and writes a
compilation database.

Configuration is read from ./.compdb.yaml (or --config), COMPDB_* environment
variables and flags, in increasing order of priority.

Examples:
  bazel aquery "mnemonic(CppCompile, //...)" --output=jsonproto | compdb generate
  compdb generate -i aquery.json -o - -d /work
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, flags)
		},
	}
}

func runGenerate(cmd *cobra.Command, flags *generateFlags) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := config.NewViperLoader(flags.v, rootDir, flags.cfgFile).Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if len(flags.disallowed) > 0 {
		cfg.Convert.DisallowedArgs = append(cfg.Convert.DisallowedArgs, flags.disallowed...)
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid --disallow: %w", err)
		}
	}

	directory, outputPath, err := cfg.ResolveOutput(rootDir)
	if err != nil {
		return err
	}

	logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
	if flags.verbose && flags.cfgFile != "" {
		logger.Printf("Using config file: %s", flags.cfgFile)
	}

	var progress generator.ProgressReporter = &generator.NoOpProgressReporter{}
	if !flags.quiet {
		progress = NewCLIProgressReporter(logger, cmd.ErrOrStderr(), flags.verbose)
	}

	gen, err := generator.New(generator.Options{
		Extractor:  cfg.ToExtractorOptions(),
		Directory:  directory,
		OutputPath: outputPath,
		Stdout:     cmd.OutOrStdout(),
	}, progress)
	if err != nil {
		return err
	}

	inputPath := cfg.Input.Path
	if flags.watch {
		if inputPath == config.StdStream {
			return fmt.Errorf("--watch requires --input to name a file")
		}
		if outputPath == generator.Stdout {
			return fmt.Errorf("--watch cannot write to stdout")
		}
		return runWatch(ctx, gen, inputPath, logger)
	}

	if inputPath == config.StdStream {
		_, err = gen.Run(ctx, "stdin", cmd.InOrStdin())
	} else {
		_, err = gen.RunFile(ctx, inputPath)
	}
	return err
}

// runWatch generates once, then again after every change to inputPath,
// until ctx is cancelled. Failed runs are logged and the previous database
// is left in place.
func runWatch(ctx context.Context, gen *generator.Generator, inputPath string, logger *log.Logger) error {
	w, err := watcher.NewFileWatcher([]string{inputPath})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", inputPath, err)
	}
	defer w.Stop()

	regenerate := func(files []string) {
		if _, err := gen.RunFile(ctx, inputPath); err != nil && ctx.Err() == nil {
			logger.Printf("Generation failed: %v", err)
		}
	}

	if _, err := os.Stat(inputPath); err == nil {
		regenerate(nil)
	} else {
		logger.Printf("Waiting for %s to be written...", inputPath)
	}

	if err := w.Start(ctx, regenerate); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	logger.Printf("Watching %s for changes (Ctrl+C to stop)", inputPath)
	<-ctx.Done()
	logger.Println("Watch mode stopped")
	return nil
}
