package jit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raymyers/ralph-jit/pkg/cache"
	"github.com/raymyers/ralph-jit/pkg/cgen"
	"github.com/raymyers/ralph-jit/pkg/config"
	"github.com/raymyers/ralph-jit/pkg/toolchain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sumRange = `def f(n):
    total = 0
    for i in range(n):
        total += i
    return total
`

func newRunner(t *testing.T) *Runner {
	t.Helper()
	return NewRunner(config.Default(), nil)
}

// requireCompiler skips the test when no C compiler is available
func requireCompiler(t *testing.T, r *Runner) {
	t.Helper()
	if _, err := r.Toolchain(); errors.Is(err, toolchain.ErrNoCompiler) {
		t.Skip("no C compiler found; set RALPH_JIT_CC or install tcc/cc")
	} else {
		require.NoError(t, err)
	}
}

func TestTranslate(t *testing.T) {
	p, err := newRunner(t).Translate(sumRange)
	require.NoError(t, err)
	assert.Equal(t, "f", p.Name)
	assert.Equal(t, 1, p.Arity)
	assert.Contains(t, p.C, cgen.Header)
	assert.Contains(t, p.C, "for (long long i = 0; i < n; i += 32) {")
}

func TestTranslateErrors(t *testing.T) {
	r := newRunner(t)

	_, err := r.Translate("def f(x:\n")
	assert.Error(t, err)

	_, err = r.Translate("x = 1\n")
	assert.ErrorIs(t, err, cgen.ErrUnsupported)

	_, err = r.Translate("def f(x):\n    pass\n")
	var terr *cgen.TranslationError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "Pass", terr.Kind)
}

func writeSources(t *testing.T, n int) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, n)
	for i := range paths {
		src := fmt.Sprintf("def f%d(x):\n    return x * %d\n", i, i)
		paths[i] = filepath.Join(dir, fmt.Sprintf("f%d.py", i))
		require.NoError(t, os.WriteFile(paths[i], []byte(src), 0644))
	}
	return paths
}

func TestTranslateFilesMatchesSerial(t *testing.T) {
	r := newRunner(t)
	paths := writeSources(t, 20)

	progs, err := r.TranslateFiles(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, progs, len(paths))

	for i, path := range paths {
		serial, err := r.TranslateFile(path)
		require.NoError(t, err)
		assert.Equal(t, serial, progs[i], "program %d", i)
		assert.Equal(t, fmt.Sprintf("f%d", i), progs[i].Name)
		assert.Equal(t, path, progs[i].Source)
	}
}

func TestTranslateFilesFailure(t *testing.T) {
	r := newRunner(t)
	paths := writeSources(t, 3)
	bad := filepath.Join(filepath.Dir(paths[0]), "bad.py")
	require.NoError(t, os.WriteFile(bad, []byte("def g(x):\n    return x // 2\n"), 0644))

	_, err := r.TranslateFiles(context.Background(), append(paths, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.py")
	assert.ErrorIs(t, err, cgen.ErrUnsupported)
}

func TestTranslateFilesMissing(t *testing.T) {
	_, err := newRunner(t).TranslateFiles(context.Background(), []string{filepath.Join(t.TempDir(), "nope.py")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunArityMismatch(t *testing.T) {
	r := newRunner(t)
	p, err := r.Translate(sumRange)
	require.NoError(t, err)
	_, err = r.Run(context.Background(), p, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "takes 1 argument(s), got 0")
}

func TestRunEndToEnd(t *testing.T) {
	r := newRunner(t)
	requireCompiler(t, r)

	tests := []struct {
		n    int64
		want int64
	}{
		// 5 is not a multiple of the unroll factor: all 32 copies still run
		{5, 496},
		{64, 2016},
		{0, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			got, err := r.RunSource(context.Background(), sumRange, decimal.NewFromInt(tt.n))
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.NewFromInt(tt.want)), "f(%d) = %s, want %d", tt.n, got, tt.want)
		})
	}
}

func TestRunMath(t *testing.T) {
	r := newRunner(t)
	requireCompiler(t, r)

	src := `import math

def hyp(a, b):
    c = math.sqrt(a ** 2 + b ** 2)
    if 0 < c < 100:
        return c
    return -1
`
	got, err := r.RunSource(context.Background(), src, decimal.NewFromInt(3), decimal.NewFromInt(4))
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(5)), "got %s", got)
}

func TestRunCached(t *testing.T) {
	cfg := config.Default()
	cfg.Cache = true
	cfg.CacheDir = filepath.Join(t.TempDir(), "cache")
	r := NewRunner(cfg, nil)
	requireCompiler(t, r)

	p, err := r.Translate(sumRange)
	require.NoError(t, err)

	first, err := r.Run(context.Background(), p, []decimal.Decimal{decimal.NewFromInt(64)})
	require.NoError(t, err)
	assert.True(t, first.Equal(decimal.NewFromInt(2016)))

	// a second call with different arguments reuses the same executable
	second, err := r.Run(context.Background(), p, []decimal.Decimal{decimal.NewFromInt(128)})
	require.NoError(t, err)
	assert.True(t, second.Equal(decimal.NewFromInt(8128)))

	n, err := cache.New(cfg.CacheDir).Entries()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunWithoutCompiler(t *testing.T) {
	cfg := config.Default()
	cfg.Compiler = "definitely-not-a-compiler-ralph-jit"
	r := NewRunner(cfg, nil)
	_, err := r.RunSource(context.Background(), sumRange, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, toolchain.ErrNoCompiler)
}

func TestRunNestedLoopsOverSameName(t *testing.T) {
	r := newRunner(t)
	requireCompiler(t, r)

	src := `def f(n):
    s = 0
    for i in range(n):
        for i in range(i):
            s += 1
    return s
`
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	// outer copy k runs the inner block once for every k > 0
	got, err := r.RunSource(ctx, src, decimal.NewFromInt(2))
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(31*32)), "f(2) = %s, want %d", got, 31*32)

	param := `def g(i):
    s = 0
    for i in range(i):
        s += i
    return s
`
	got, err = r.RunSource(ctx, param, decimal.NewFromInt(3))
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(496)), "g(3) = %s, want 496", got)
}

func TestRunTrueDivision(t *testing.T) {
	r := newRunner(t)
	requireCompiler(t, r)

	tests := []struct {
		name string
		src  string
		arg  int64
		want string
	}{
		{"literals", "def f(x):\n    return x + 1 / 2\n", 0, "0.5"},
		{"loop offsets", "def f(n):\n    s = 0\n    for i in range(n):\n        s += i / 64\n    return s\n", 1, "7.75"},
		{"comparison", "def f(x):\n    return (x < 1) / 4\n", 0, "0.25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.RunSource(context.Background(), tt.src, decimal.NewFromInt(tt.arg))
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestRunNamesAndLiterals(t *testing.T) {
	r := newRunner(t)
	requireCompiler(t, r)

	got, err := r.RunSource(context.Background(), "def result(x):\n    return x * 2\n", decimal.NewFromInt(4))
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(8)), "result(4) = %s", got)

	src := "def big(x):\n    return x * 1e300 / 1e300 + 1e-999999 + 99999999999999999999 * 0\n"
	got, err = r.RunSource(context.Background(), src, decimal.NewFromInt(2))
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(2)), "big(2) = %s", got)
}
