// Package toolchain locates a system C compiler and uses it to build and
// run generated programs.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EnvCompiler names the environment variable consulted when no compiler
// is given explicitly
const EnvCompiler = "RALPH_JIT_CC"

// ErrNoCompiler is returned when no usable C compiler can be found
var ErrNoCompiler = errors.New("no C compiler found")

// candidates are tried in order on PATH; TinyCC first since it can run a
// source file without a separate link step.
var candidates = []string{"tcc", "cc", "gcc", "clang"}

// Toolchain drives one C compiler
type Toolchain struct {
	Path    string        // absolute path of the compiler
	Timeout time.Duration // per command; zero means no limit
	Logger  *slog.Logger
}

// Find resolves a compiler: preferred if non-empty, then $RALPH_JIT_CC,
// then the first of tcc, cc, gcc and clang found on PATH.
func Find(preferred string) (*Toolchain, error) {
	if preferred != "" {
		return lookup(preferred)
	}
	if env := os.Getenv(EnvCompiler); env != "" {
		return lookup(env)
	}
	for _, c := range candidates {
		if path, err := exec.LookPath(c); err == nil {
			return &Toolchain{Path: path}, nil
		}
	}
	return nil, fmt.Errorf("%w (tried: %s)", ErrNoCompiler, strings.Join(candidates, ", "))
}

func lookup(name string) (*Toolchain, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("compiler %q: %w", name, ErrNoCompiler)
	}
	return &Toolchain{Path: path}, nil
}

func (t *Toolchain) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.Default()
	}
	return t.Logger
}

// Name returns the compiler's base name without any .exe suffix
func (t *Toolchain) Name() string {
	return strings.TrimSuffix(filepath.Base(t.Path), ".exe")
}

// IsTCC reports whether the compiler is TinyCC, which can run a source
// file directly with -run.
func (t *Toolchain) IsTCC() bool {
	return strings.HasPrefix(t.Name(), "tcc")
}

// ExeSuffix is the file suffix of executables on this platform
func ExeSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}

func (t *Toolchain) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.Timeout > 0 {
		return context.WithTimeout(ctx, t.Timeout)
	}
	return context.WithCancel(ctx)
}

// runCmd runs name with args and returns its stdout. A failure carries the
// command's stderr.
func (t *Toolchain) runCmd(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	t.logger().Debug("exec", "cmd", name, "args", args)
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%s: %w", filepath.Base(name), ctx.Err())
		}
		return "", fmt.Errorf("%s failed: %w\n%s", filepath.Base(name), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// writeSource writes src to a uniquely named file in a new temporary
// directory. The caller removes the directory.
func writeSource(src string) (dir, file string, err error) {
	dir, err = os.MkdirTemp("", "ralph-jit-")
	if err != nil {
		return "", "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	file = filepath.Join(dir, uuid.NewString()+".c")
	if err := os.WriteFile(file, []byte(src), 0644); err != nil {
		os.RemoveAll(dir)
		return "", "", fmt.Errorf("failed to write source: %w", err)
	}
	return dir, file, nil
}

// Compile builds the C program src into the executable exe
func (t *Toolchain) Compile(ctx context.Context, src, exe string) error {
	dir, file, err := writeSource(src)
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	if _, err := t.runCmd(ctx, t.Path, "-o", exe, file, "-lm"); err != nil {
		return fmt.Errorf("compilation failed: %w", err)
	}
	t.logger().Debug("compiled", "compiler", t.Name(), "exe", exe)
	return nil
}

// Run executes a compiled program and returns its stdout
func (t *Toolchain) Run(ctx context.Context, exe string, args []string) (string, error) {
	return t.runCmd(ctx, exe, args...)
}

// RunSource builds and runs src without keeping an executable. TinyCC runs
// the source in memory; other compilers build into a temporary directory.
func (t *Toolchain) RunSource(ctx context.Context, src string, args []string) (string, error) {
	dir, file, err := writeSource(src)
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	if t.IsTCC() {
		return t.runCmd(ctx, t.Path, append([]string{"-lm", "-run", file}, args...)...)
	}
	exe := filepath.Join(dir, uuid.NewString()+ExeSuffix())
	if _, err := t.runCmd(ctx, t.Path, "-o", exe, file, "-lm"); err != nil {
		return "", fmt.Errorf("compilation failed: %w", err)
	}
	return t.Run(ctx, exe, args)
}

// ParseResult parses the value printed by a harness program
func ParseResult(stdout string) (decimal.Decimal, error) {
	s := strings.TrimSpace(stdout)
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("unexpected program output %q", s)
	}
	return v, nil
}
