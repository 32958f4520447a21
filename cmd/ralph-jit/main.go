package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/raymyers/ralph-jit/pkg/cache"
	"github.com/raymyers/ralph-jit/pkg/config"
	"github.com/raymyers/ralph-jit/pkg/harness"
	"github.com/raymyers/ralph-jit/pkg/jit"
	"github.com/raymyers/ralph-jit/pkg/lexer"
	"github.com/raymyers/ralph-jit/pkg/parser"
	"github.com/raymyers/ralph-jit/pkg/pyast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var version = "0.1.0"

// Debug flags
var (
	dParse  bool
	dTokens bool
)

// Translation and run flags
var (
	outputFile string
	runFlag    bool
	runArgs    []string
	useCache   bool
	clearCache bool
	compiler   string
	redeclare  bool
	configPath string
	verbose    bool
)

// ErrUsage marks command-line misuse
var ErrUsage = errors.New("usage error")

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, ErrUsage) {
			return harness.ExitUsage
		}
		return 1
	}
	return 0
}

// debugFlagNames lists the single-dash debug flags accepted in CompCert style
var debugFlagNames = []string{"dparse", "dtokens"}

// normalizeFlags converts single-dash debug flags (-dparse) to double-dash
// (--dparse) so pflag accepts them
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		result[i] = arg
		for _, name := range debugFlagNames {
			if arg == "-"+name {
				result[i] = "--" + name
				break
			}
		}
	}
	return result
}

func addDebugFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&dParse, "dparse", false, "Save the parsed tree as Python source in <file>.parsed.py")
	fs.BoolVar(&dTokens, "dtokens", false, "Print the token stream")
}

func addRunFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&outputFile, "output", "o", "", "Write the generated C to `file`")
	fs.BoolVar(&runFlag, "run", false, "Compile and run the function in the single input file")
	fs.StringArrayVar(&runArgs, "arg", nil, "Argument for --run (repeat once per parameter)")
	fs.BoolVar(&useCache, "cache", false, "Keep compiled executables between runs")
	fs.BoolVar(&clearCache, "clear-cache", false, "Remove cached executables and exit")
	fs.StringVar(&compiler, "compiler", "", "C compiler name or path (default: $RALPH_JIT_CC, then tcc, cc, gcc, clang)")
	fs.BoolVar(&redeclare, "redeclare", false, "Declare a variable on every assignment")
	fs.StringVar(&configPath, "config", "", "Read settings from `file` (default: "+config.DefaultPath()+")")
	fs.BoolVarP(&verbose, "verbose", "v", false, "Log toolchain and cache activity to stderr")
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ralph-jit [flags] file.py...",
		Short: "Translate numeric Python functions to C",
		Long: `ralph-jit translates the first function of each Python file into a C
function over long double, unrolling range() loops 32 ways.
With --run it compiles the result with a local C compiler and calls it.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(errOut)
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				fmt.Fprintf(errOut, "ralph-jit: %v\n", err)
				return err
			}

			if clearCache {
				return doClearCache(cfg, logger, out, errOut)
			}
			if len(args) == 0 {
				return cmd.Help()
			}
			if dTokens {
				if err := doTokens(args, out, errOut); err != nil {
					return err
				}
			}
			if dParse {
				if err := doParse(args, out, errOut); err != nil {
					return err
				}
			}
			if dTokens || dParse {
				return nil
			}

			runner := jit.NewRunner(cfg, logger)
			if runFlag {
				return doRun(cmd.Context(), runner, args, out, errOut)
			}
			return doTranslate(cmd.Context(), runner, args, out, errOut)
		},
	}

	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	addDebugFlags(rootCmd.Flags())
	addRunFlags(rootCmd.Flags())
	return rootCmd
}

func newLogger(errOut io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the config file and applies flags the user set explicitly
func loadConfig(fs *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if fs.Changed("compiler") {
		cfg.Compiler = compiler
	}
	if fs.Changed("cache") {
		cfg.Cache = useCache
	}
	if fs.Changed("redeclare") {
		cfg.Redeclare = redeclare
	}
	return cfg, nil
}

func doClearCache(cfg config.Config, logger *slog.Logger, out, errOut io.Writer) error {
	c := cache.New(cfg.CacheDir)
	c.Logger = logger
	n, err := c.Entries()
	if err != nil {
		fmt.Fprintf(errOut, "ralph-jit: %v\n", err)
		return err
	}
	if err := c.Clear(); err != nil {
		fmt.Fprintf(errOut, "ralph-jit: %v\n", err)
		return err
	}
	fmt.Fprintf(out, "removed %d cached executable(s) from %s\n", n, c.Dir)
	return nil
}

func doTokens(files []string, out, errOut io.Writer) error {
	for _, filename := range files {
		content, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(errOut, "ralph-jit: error reading %s: %v\n", filename, err)
			return err
		}
		for _, tok := range lexer.New(string(content)).Tokens() {
			fmt.Fprintf(out, "%d:%d\t%s\t%q\n", tok.Line, tok.Column, tok.Type, tok.Literal)
		}
	}
	return nil
}

func doParse(files []string, out, errOut io.Writer) error {
	for _, filename := range files {
		m, err := parseFile(filename, errOut)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		pyast.NewPrinter(&buf).PrintModule(m)

		outputFilename := parsedOutputFilename(filename)
		if err := os.WriteFile(outputFilename, buf.Bytes(), 0644); err != nil {
			fmt.Fprintf(errOut, "ralph-jit: error writing %s: %v\n", outputFilename, err)
			return err
		}
		out.Write(buf.Bytes())
	}
	return nil
}

// parseFile reads and parses a source file, reporting every parser error
func parseFile(filename string, errOut io.Writer) (*pyast.Module, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(errOut, "ralph-jit: error reading %s: %v\n", filename, err)
		return nil, err
	}

	p := parser.New(lexer.New(string(content)))
	m := p.ParseModule()
	if errs := p.Errors(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(errOut, "%s: %s\n", filename, e)
		}
		return nil, fmt.Errorf("%s: %d parse error(s)", filename, len(errs))
	}
	return m, nil
}

// parsedOutputFilename returns foo.parsed.py for foo.py
func parsedOutputFilename(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ".parsed.py"
}

func doTranslate(ctx context.Context, runner *jit.Runner, files []string, out, errOut io.Writer) error {
	if outputFile != "" && len(files) > 1 {
		fmt.Fprintf(errOut, "ralph-jit: -o cannot be used with multiple input files\n")
		return ErrUsage
	}

	progs, err := runner.TranslateFiles(ctx, files)
	if err != nil {
		fmt.Fprintf(errOut, "ralph-jit: %v\n", err)
		return err
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(progs[0].C), 0644); err != nil {
			fmt.Fprintf(errOut, "ralph-jit: error writing %s: %v\n", outputFile, err)
			return err
		}
		return nil
	}
	for i, p := range progs {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if len(progs) > 1 {
			fmt.Fprintf(out, "/* %s */\n", p.Source)
		}
		fmt.Fprintln(out, p.C)
	}
	return nil
}

func doRun(ctx context.Context, runner *jit.Runner, files []string, out, errOut io.Writer) error {
	if len(files) != 1 {
		fmt.Fprintf(errOut, "ralph-jit: --run takes exactly one input file\n")
		return ErrUsage
	}
	if outputFile != "" {
		fmt.Fprintf(errOut, "ralph-jit: -o cannot be used with --run\n")
		return ErrUsage
	}

	args, err := harness.ParseArgs(runArgs)
	if err != nil {
		fmt.Fprintf(errOut, "ralph-jit: %v\n", err)
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	p, err := runner.TranslateFile(files[0])
	if err != nil {
		fmt.Fprintf(errOut, "ralph-jit: %v\n", err)
		return err
	}
	result, err := runner.Run(ctx, p, args)
	if err != nil {
		fmt.Fprintf(errOut, "ralph-jit: %v\n", err)
		return err
	}
	fmt.Fprintln(out, result.String())
	return nil
}
