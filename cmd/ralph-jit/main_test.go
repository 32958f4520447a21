package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const addSource = `def add(a, b):
    return a + b
`

// resetFlags clears package flag state and points the default config
// location at an empty directory
func resetFlags(t *testing.T) {
	t.Helper()
	dParse = false
	dTokens = false
	outputFile = ""
	runFlag = false
	runArgs = nil
	useCache = false
	clearCache = false
	compiler = ""
	redeclare = false
	configPath = ""
	verbose = false
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(normalizeFlags(args))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	resetFlags(t)
	out, _, err := execute(t, "--version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, version) {
		t.Errorf("expected version %q in output, got %q", version, out)
	}
}

func TestNoArgsPrintsHelp(t *testing.T) {
	resetFlags(t)
	out, _, err := execute(t)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Usage:") {
		t.Errorf("expected help text, got %q", out)
	}
}

func TestTranslate(t *testing.T) {
	resetFlags(t)
	file := writeFile(t, t.TempDir(), "add.py", addSource)

	out, errOut, err := execute(t, file)
	if err != nil {
		t.Fatalf("unexpected error: %v\nStderr: %s", err, errOut)
	}
	want := `#include <stdio.h>
#include <math.h>
long double add(long double a, long double b) {
    return a + b;
}
`
	if out != want {
		t.Errorf("output mismatch\nGot:\n%s\nWant:\n%s", out, want)
	}
}

func TestTranslateMultipleFiles(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	a := writeFile(t, dir, "a.py", "def a(x):\n    return x\n")
	b := writeFile(t, dir, "b.py", "def b(y):\n    return y * 2\n")

	out, errOut, err := execute(t, a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v\nStderr: %s", err, errOut)
	}
	ia := strings.Index(out, "long double a(long double x)")
	ib := strings.Index(out, "long double b(long double y)")
	if ia < 0 || ib < 0 || ia > ib {
		t.Errorf("expected a before b in output, got:\n%s", out)
	}
	if !strings.Contains(out, "/* "+a+" */") {
		t.Errorf("expected file marker for %s, got:\n%s", a, out)
	}
}

func TestTranslateOutputFile(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	file := writeFile(t, dir, "add.py", addSource)
	target := filepath.Join(dir, "add.c")

	out, errOut, err := execute(t, "-o", target, file)
	if err != nil {
		t.Fatalf("unexpected error: %v\nStderr: %s", err, errOut)
	}
	if out != "" {
		t.Errorf("expected nothing on stdout, got %q", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if !strings.Contains(string(data), "return a + b;") {
		t.Errorf("unexpected output file:\n%s", data)
	}
}

func TestOutputFileWithMultipleInputs(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	a := writeFile(t, dir, "a.py", addSource)
	b := writeFile(t, dir, "b.py", addSource)

	_, errOut, err := execute(t, "-o", filepath.Join(dir, "out.c"), a, b)
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(errOut, "ralph-jit: -o cannot be used with multiple input files") {
		t.Errorf("unexpected stderr %q", errOut)
	}
}

func TestRedeclareFlag(t *testing.T) {
	resetFlags(t)
	file := writeFile(t, t.TempDir(), "f.py", "def f(x):\n    y = x\n    y = y + 1\n    return y\n")

	out, _, err := execute(t, "--redeclare", file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(out, "long double y") != 2 {
		t.Errorf("expected two declarations of y, got:\n%s", out)
	}
}

func TestConfigFile(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", "redeclare: true\nmath_modules: [m]\n")
	file := writeFile(t, dir, "f.py", "def f(x):\n    y = m.sqrt(x)\n    y = y + 1\n    return y\n")

	out, errOut, err := execute(t, "--config", cfg, file)
	if err != nil {
		t.Fatalf("unexpected error: %v\nStderr: %s", err, errOut)
	}
	if !strings.Contains(out, "long double y = sqrt(x);") || strings.Count(out, "long double y") != 2 {
		t.Errorf("config not applied, got:\n%s", out)
	}
}

func TestFlagOverridesConfig(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", "redeclare: true\n")
	file := writeFile(t, dir, "f.py", "def f(x):\n    y = x\n    y = y + 1\n    return y\n")

	out, _, err := execute(t, "--config", cfg, "--redeclare=false", file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(out, "long double y") != 1 {
		t.Errorf("expected --redeclare=false to win over the config file, got:\n%s", out)
	}
}

func TestBadConfigFile(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", "compilr: gcc\n")
	file := writeFile(t, dir, "add.py", addSource)

	_, errOut, err := execute(t, "--config", cfg, file)
	if err == nil {
		t.Fatal("expected error for unknown config field")
	}
	if !strings.HasPrefix(errOut, "ralph-jit: ") {
		t.Errorf("expected prefixed diagnostic, got %q", errOut)
	}
}

func TestTranslationErrorReported(t *testing.T) {
	resetFlags(t)
	file := writeFile(t, t.TempDir(), "bad.py", "def f(x):\n    return x // 2\n")

	_, errOut, err := execute(t, file)
	if err == nil {
		t.Fatal("expected translation error")
	}
	for _, want := range []string{"ralph-jit: ", "bad.py", "line 2", "x // 2"} {
		if !strings.Contains(errOut, want) {
			t.Errorf("expected stderr to contain %q, got %q", want, errOut)
		}
	}
}

func TestFileNotFound(t *testing.T) {
	resetFlags(t)
	_, _, err := execute(t, filepath.Join(t.TempDir(), "nonexistent.py"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestDParseFlag(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	file := writeFile(t, dir, "test.py", "def f(x):\n    if x > 0:\n        return x\n    return -x\n")

	out, errOut, err := execute(t, "-dparse", file)
	if err != nil {
		t.Fatalf("unexpected error: %v\nStderr: %s", err, errOut)
	}
	for _, want := range []string{"def f(x):", "    if x > 0:", "        return x", "    return -x"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "test.parsed.py"))
	if err != nil {
		t.Fatalf("expected parsed output file: %v", err)
	}
	if string(data) != out {
		t.Errorf("output file doesn't match stdout\nStdout:\n%s\nFile:\n%s", out, data)
	}
}

func TestDParseReportsEveryError(t *testing.T) {
	resetFlags(t)
	file := writeFile(t, t.TempDir(), "bad.py", "def f(x)\n    return x\n")

	_, errOut, err := execute(t, "-dparse", file)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(errOut, "bad.py: line 1, col 9: expected :") {
		t.Errorf("expected positioned parser error, got %q", errOut)
	}
}

func TestDTokensFlag(t *testing.T) {
	resetFlags(t)
	file := writeFile(t, t.TempDir(), "add.py", addSource)

	out, _, err := execute(t, "-dtokens", file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"1:1\tdef\t\"def\"", "1:5\tIDENT\t\"add\"", "INDENT", "DEDENT", "EOF"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected token dump to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "long double") {
		t.Error("debug dump should not translate")
	}
}

func TestParsedOutputFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"test.py", "test.parsed.py"},
		{"path/to/file.py", "path/to/file.parsed.py"},
		{"/absolute/path.py", "/absolute/path.parsed.py"},
		{"no_extension", "no_extension.parsed.py"},
		{"multiple.dots.py", "multiple.dots.parsed.py"},
	}

	for _, tc := range tests {
		result := parsedOutputFilename(tc.input)
		if result != tc.expected {
			t.Errorf("parsedOutputFilename(%q) = %q, want %q", tc.input, result, tc.expected)
		}
	}
}

func TestRunRequiresOneFile(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	a := writeFile(t, dir, "a.py", addSource)
	b := writeFile(t, dir, "b.py", addSource)

	_, errOut, err := execute(t, "--run", a, b)
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(errOut, "--run takes exactly one input file") {
		t.Errorf("unexpected stderr %q", errOut)
	}
}

func TestRunBadArgument(t *testing.T) {
	resetFlags(t)
	file := writeFile(t, t.TempDir(), "add.py", addSource)

	_, errOut, err := execute(t, "--run", "--arg", "1", "--arg", "two", file)
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(errOut, `argument 2: invalid number "two"`) {
		t.Errorf("unexpected stderr %q", errOut)
	}
}

func TestRunMissingCompiler(t *testing.T) {
	resetFlags(t)
	file := writeFile(t, t.TempDir(), "add.py", addSource)

	_, errOut, err := execute(t, "--run", "--compiler", "definitely-not-a-compiler-ralph-jit", "--arg", "1", "--arg", "2", file)
	if err == nil {
		t.Fatal("expected error without a compiler")
	}
	if !strings.HasPrefix(errOut, "ralph-jit: ") {
		t.Errorf("expected prefixed diagnostic, got %q", errOut)
	}
}

func TestClearCache(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, cacheDir, "f_0123456789abcdef", "binary")
	cfg := writeFile(t, dir, "config.yaml", "cache_dir: "+cacheDir+"\n")

	out, _, err := execute(t, "--config", cfg, "--clear-cache")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "removed 1 cached executable(s)") {
		t.Errorf("unexpected output %q", out)
	}
	ents, _ := os.ReadDir(cacheDir)
	if len(ents) != 0 {
		t.Errorf("expected empty cache dir, found %d entries", len(ents))
	}
}

func TestNormalizeFlags(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "single-dash dparse",
			input:    []string{"-dparse", "test.py"},
			expected: []string{"--dparse", "test.py"},
		},
		{
			name:     "double-dash dparse unchanged",
			input:    []string{"--dparse", "test.py"},
			expected: []string{"--dparse", "test.py"},
		},
		{
			name:     "single-dash dtokens",
			input:    []string{"test.py", "-dtokens"},
			expected: []string{"test.py", "--dtokens"},
		},
		{
			name:     "other flags unchanged",
			input:    []string{"-o", "out.c", "-v", "test.py"},
			expected: []string{"-o", "out.c", "-v", "test.py"},
		},
		{
			name:     "no flags",
			input:    []string{"test.py"},
			expected: []string{"test.py"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := normalizeFlags(tc.input)
			if strings.Join(result, " ") != strings.Join(tc.expected, " ") {
				t.Errorf("normalizeFlags(%v) = %v, want %v", tc.input, result, tc.expected)
			}
		})
	}
}
