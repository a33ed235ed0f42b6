package compdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/compdb/internal/aquery"
)

// DefaultDisallowedArgs lists flags that GCC-style toolchains emit but clang-tidy rejects.
var DefaultDisallowedArgs = []string{"-fno-canonical-system-headers"}

// DefaultSourceSuffixes lists the C and C++ translation-unit extensions recognized by default.
var DefaultSourceSuffixes = []string{".cc", ".cpp", ".cxx", ".c++", ".c"}

// Options configures an Extractor.
type Options struct {
	// DisallowedArgs are dropped when an argument matches one exactly.
	DisallowedArgs []string

	// DisallowedPatterns are glob patterns (e.g. "-fdebug-prefix-map=*");
	// matching arguments are dropped as well.
	DisallowedPatterns []string

	// SourceSuffixes mark an argument as the compiled file.
	SourceSuffixes []string

	// Workers bounds parallel extraction. Values below 2 extract sequentially.
	Workers int

	// OnActionExtracted is called once per action. It may be called from
	// several goroutines when Workers > 1.
	OnActionExtracted func()
}

// Extractor turns build actions into compile commands.
type Extractor struct {
	disallowed map[string]struct{}
	patterns   []glob.Glob
	suffixes   []string
	workers    int
	onAction   func()
}

// NewExtractor compiles the options into an Extractor.
func NewExtractor(opts Options) (*Extractor, error) {
	e := &Extractor{
		disallowed: make(map[string]struct{}, len(opts.DisallowedArgs)),
		suffixes:   append([]string(nil), opts.SourceSuffixes...),
		workers:    opts.Workers,
		onAction:   opts.OnActionExtracted,
	}

	for _, arg := range opts.DisallowedArgs {
		e.disallowed[arg] = struct{}{}
	}

	for _, pattern := range opts.DisallowedPatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid disallowed pattern %q: %w", pattern, err)
		}
		e.patterns = append(e.patterns, g)
	}

	return e, nil
}

// Parse decodes raw aquery output and extracts one compile command per action.
func (e *Extractor) Parse(ctx context.Context, raw []byte) (Database, error) {
	actions, err := aquery.Parse(raw)
	if err != nil {
		return nil, err
	}
	return e.Extract(ctx, actions)
}

// Extract maps actions to compile commands one-to-one, keeping their order.
func (e *Extractor) Extract(ctx context.Context, actions []aquery.Action) (Database, error) {
	db := make(Database, len(actions))

	if e.workers < 2 {
		for i, action := range actions {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			db[i] = e.Command(action.Arguments)
			e.notify()
		}
		return db, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, action := range actions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Each goroutine owns exactly one slot.
			db[i] = e.Command(action.Arguments)
			e.notify()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return db, nil
}

// Command filters a single argument vector and detects the compiled file.
// When several arguments carry a source suffix the last one wins.
func (e *Extractor) Command(args []string) CompileCommand {
	cmd := CompileCommand{Arguments: make([]string, 0, len(args))}

	for _, arg := range args {
		if e.isDisallowed(arg) {
			continue
		}

		if e.isSourceFile(arg) {
			file := arg
			cmd.File = &file
		}

		cmd.Arguments = append(cmd.Arguments, arg)
	}

	return cmd
}

func (e *Extractor) isDisallowed(arg string) bool {
	if _, ok := e.disallowed[arg]; ok {
		return true
	}
	for _, g := range e.patterns {
		if g.Match(arg) {
			return true
		}
	}
	return false
}

func (e *Extractor) isSourceFile(arg string) bool {
	for _, suffix := range e.suffixes {
		if strings.HasSuffix(arg, suffix) {
			return true
		}
	}
	return false
}

func (e *Extractor) notify() {
	if e.onAction != nil {
		e.onAction()
	}
}
