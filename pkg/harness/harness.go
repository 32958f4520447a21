// Package harness wraps a translated function in a C program that reads its
// arguments from the command line and prints the result.
package harness

import (
	"fmt"
	"strings"

	"github.com/raymyers/ralph-jit/pkg/ctypes"
	"github.com/shopspring/decimal"
)

// ExitUsage is the exit status of a harness called with the wrong number
// of arguments
const ExitUsage = 2

// Wrap returns a complete translation unit: code (a translated function,
// header included) followed by a main that converts argv[1..arity] with
// strtold, calls name and prints the result.
func Wrap(code, name string, arity int) string {
	sig := ctypes.Function(arity)
	var sb strings.Builder
	sb.WriteString("#include <stdlib.h>\n")
	sb.WriteString(code)
	sb.WriteString("\n\nint main(int argc, char **argv) {\n")
	fmt.Fprintf(&sb, "    if (argc != %d) {\n", arity+1)
	fmt.Fprintf(&sb, "        fprintf(stderr, \"usage: %%s%s\\n\", argv[0]);\n", usage(arity))
	fmt.Fprintf(&sb, "        return %d;\n", ExitUsage)
	sb.WriteString("    }\n")

	args := make([]string, len(sig.Params))
	for i := range args {
		args[i] = fmt.Sprintf("strtold(argv[%d], NULL)", i+1)
	}
	fmt.Fprintf(&sb, "    printf(\"%s\\n\", %s(%s));\n", ctypes.PrintfVerb(sig.Return), name, strings.Join(args, ", "))
	sb.WriteString("    return 0;\n}\n")
	return sb.String()
}

func usage(arity int) string {
	var sb strings.Builder
	for i := 0; i < arity; i++ {
		fmt.Fprintf(&sb, " arg%d", i+1)
	}
	return sb.String()
}

// FormatArgs renders argument values as command-line arguments for a harness
func FormatArgs(vals []decimal.Decimal) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.String()
	}
	return out
}

// ParseArgs parses command-line argument values
func ParseArgs(strs []string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(strs))
	for i, s := range strs {
		v, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("argument %d: invalid number %q", i+1, s)
		}
		out[i] = v
	}
	return out, nil
}
