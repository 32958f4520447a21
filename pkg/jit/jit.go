// Package jit ties the pipeline together: parse, translate, wrap in a
// harness, compile (optionally through the cache) and run.
package jit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/raymyers/ralph-jit/pkg/cache"
	"github.com/raymyers/ralph-jit/pkg/cgen"
	"github.com/raymyers/ralph-jit/pkg/config"
	"github.com/raymyers/ralph-jit/pkg/harness"
	"github.com/raymyers/ralph-jit/pkg/parser"
	"github.com/raymyers/ralph-jit/pkg/toolchain"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Program is a translated function
type Program struct {
	Source string // file it came from, empty for in-memory source
	Name   string
	Arity  int
	C      string // cgen.Header followed by the function
}

// Runner translates and executes Python functions
type Runner struct {
	Gen      *cgen.Generator
	Compiler string        // passed to toolchain.Find
	Timeout  time.Duration // per compile or run
	Cache    *cache.Cache  // nil disables caching
	Logger   *slog.Logger

	mu sync.Mutex
	tc *toolchain.Toolchain
}

// NewRunner builds a runner from configuration
func NewRunner(cfg config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		Gen:      cgen.New(cgen.Options{Redeclare: cfg.Redeclare, MathModules: cfg.MathModules}),
		Compiler: cfg.Compiler,
		Timeout:  cfg.Timeout,
		Logger:   logger,
	}
	if cfg.Cache {
		r.Cache = cache.New(cfg.CacheDir)
		r.Cache.Logger = logger
	}
	return r
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Translate parses src and translates its first function
func (r *Runner) Translate(src string) (*Program, error) {
	m, err := parser.ParseSource(src)
	if err != nil {
		return nil, err
	}
	fn, ok := cgen.FirstFunction(m)
	if !ok {
		return nil, &cgen.TranslationError{Kind: "Module", Detail: "no function definition found"}
	}
	code, err := r.Gen.TranslateFunction(fn)
	if err != nil {
		return nil, err
	}
	return &Program{Name: fn.Name, Arity: len(fn.Params), C: cgen.Header + code}, nil
}

// TranslateFile reads and translates one source file
func (r *Runner) TranslateFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := r.Translate(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.Source = path
	r.logger().Debug("translated", "file", path, "func", p.Name, "arity", p.Arity)
	return p, nil
}

// TranslateFiles translates files in parallel. Results keep the order of
// paths; the first failure cancels the rest.
func (r *Runner) TranslateFiles(ctx context.Context, paths []string) ([]*Program, error) {
	out := make([]*Program, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := r.TranslateFile(path)
			if err != nil {
				return err
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Toolchain returns the compiler, resolving it on first use
func (r *Runner) Toolchain() (*toolchain.Toolchain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tc != nil {
		return r.tc, nil
	}
	tc, err := toolchain.Find(r.Compiler)
	if err != nil {
		return nil, err
	}
	tc.Timeout = r.Timeout
	tc.Logger = r.logger()
	r.logger().Debug("using compiler", "path", tc.Path)
	r.tc = tc
	return tc, nil
}

// Run compiles p and calls it with args
func (r *Runner) Run(ctx context.Context, p *Program, args []decimal.Decimal) (decimal.Decimal, error) {
	if len(args) != p.Arity {
		return decimal.Decimal{}, fmt.Errorf("%s takes %d argument(s), got %d", p.Name, p.Arity, len(args))
	}
	tc, err := r.Toolchain()
	if err != nil {
		return decimal.Decimal{}, err
	}
	src := harness.Wrap(p.C, p.Name, p.Arity)
	argv := harness.FormatArgs(args)

	var out string
	if r.Cache != nil {
		exe, err := r.build(ctx, tc, p.Name, src)
		if err != nil {
			return decimal.Decimal{}, err
		}
		out, err = tc.Run(ctx, exe, argv)
		if err != nil {
			return decimal.Decimal{}, err
		}
	} else {
		out, err = tc.RunSource(ctx, src, argv)
		if err != nil {
			return decimal.Decimal{}, err
		}
	}
	return toolchain.ParseResult(out)
}

// build returns a cached executable for src, compiling it on a miss
func (r *Runner) build(ctx context.Context, tc *toolchain.Toolchain, name, src string) (string, error) {
	key := cache.Key(src, tc.Path)
	if exe, ok := r.Cache.Lookup(name, key); ok {
		return exe, nil
	}
	return r.Cache.Store(name, key, func(tmp string) error {
		return tc.Compile(ctx, src, tmp)
	})
}

// RunSource translates src and runs its first function with args
func (r *Runner) RunSource(ctx context.Context, src string, args ...decimal.Decimal) (decimal.Decimal, error) {
	p, err := r.Translate(src)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return r.Run(ctx, p, args)
}
