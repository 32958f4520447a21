package toolchain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twiceC = `#include <stdio.h>
#include <stdlib.h>
#include <math.h>

int main(int argc, char **argv) {
    long double x = strtold(argv[1], NULL);
    printf("%.20Lf\n", sqrtl(x) * 2.0L);
    return 0;
}
`

// findCompiler returns a toolchain or skips the test
func findCompiler(t *testing.T) *Toolchain {
	t.Helper()
	tc, err := Find("")
	if errors.Is(err, ErrNoCompiler) {
		t.Skip("no C compiler found; set RALPH_JIT_CC or install tcc/cc")
	}
	require.NoError(t, err)
	return tc
}

func TestFindExplicitMissing(t *testing.T) {
	_, err := Find("definitely-not-a-compiler-ralph-jit")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoCompiler)
	assert.Contains(t, err.Error(), "definitely-not-a-compiler-ralph-jit")
}

func TestFindFromEnvironment(t *testing.T) {
	t.Setenv(EnvCompiler, "definitely-not-a-compiler-ralph-jit")
	_, err := Find("")
	assert.ErrorIs(t, err, ErrNoCompiler)
}

func TestName(t *testing.T) {
	tests := []struct {
		path string
		name string
		tcc  bool
	}{
		{"/usr/bin/tcc", "tcc", true},
		{`C:\tcc\tcc.exe`, "tcc", true},
		{"/usr/bin/gcc", "gcc", false},
		{"/usr/local/bin/clang", "clang", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			tc := &Toolchain{Path: filepath.FromSlash(tt.path)}
			if filepath.Separator == '/' && tt.path[0] != '/' {
				t.Skip("windows path")
			}
			assert.Equal(t, tt.name, tc.Name())
			assert.Equal(t, tt.tcc, tc.IsTCC())
		})
	}
}

func TestParseResult(t *testing.T) {
	v, err := ParseResult("496.00000000000000000000\n")
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(496)))

	v, err = ParseResult("  -0.50000000000000000000 ")
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.RequireFromString("-0.5")))

	_, err = ParseResult("inf\n")
	assert.Error(t, err)

	_, err = ParseResult("")
	assert.Error(t, err)
}

func TestRunSource(t *testing.T) {
	tc := findCompiler(t)
	out, err := tc.RunSource(context.Background(), twiceC, []string{"16"})
	require.NoError(t, err)
	v, err := ParseResult(out)
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(8)), "got %s", v)
}

func TestCompileAndRun(t *testing.T) {
	tc := findCompiler(t)
	exe := filepath.Join(t.TempDir(), "twice"+ExeSuffix())
	require.NoError(t, tc.Compile(context.Background(), twiceC, exe))

	_, err := os.Stat(exe)
	require.NoError(t, err)

	for _, arg := range []string{"4", "9"} {
		out, err := tc.Run(context.Background(), exe, []string{arg})
		require.NoError(t, err)
		_, err = ParseResult(out)
		require.NoError(t, err)
	}
}

func TestCompileError(t *testing.T) {
	tc := findCompiler(t)
	exe := filepath.Join(t.TempDir(), "broken"+ExeSuffix())
	err := tc.Compile(context.Background(), "int main( {", exe)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compilation failed")
}

func TestTimeout(t *testing.T) {
	tc := findCompiler(t)
	loop := "int main(void) { for (;;) {} return 0; }\n"
	exe := filepath.Join(t.TempDir(), "loop"+ExeSuffix())
	require.NoError(t, tc.Compile(context.Background(), loop, exe))

	tc.Timeout = 200 * time.Millisecond
	_, err := tc.Run(context.Background(), exe, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
