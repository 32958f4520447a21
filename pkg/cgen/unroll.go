package cgen

import (
	"fmt"
	"strings"

	"github.com/raymyers/ralph-jit/pkg/ctypes"
	"github.com/raymyers/ralph-jit/pkg/pyast"
)

// forRange renders 'for i in range(...)' as a C loop stepping by
// UnrollFactor whose body holds UnrollFactor copies of the Python body.
// Copy k sees i as "(i+k)". The loop test only checks the first offset,
// so a trip count that is not a multiple of UnrollFactor runs past the end.
// When i already names a variable or an enclosing counter, the C counter
// gets a fresh name so the bounds still read the outer value.
func (g *Generator) forRange(s pyast.For, sc *scope) (string, error) {
	target, ok := s.Target.(pyast.Name)
	if !ok {
		return "", unsupported(s, "unsupported loop target %s", pyast.Kind(s.Target))
	}
	if err := checkIdent(s, target.ID); err != nil {
		return "", err
	}
	call, ok := s.Iter.(pyast.Call)
	if !ok {
		return "", unsupported(s, "only range() loops are supported")
	}
	if fn, ok := call.Func.(pyast.Name); !ok || fn.ID != "range" {
		return "", unsupported(s, "only range() loops are supported")
	}

	var start, stop cexpr
	switch len(call.Args) {
	case 1:
		start = cexpr{text: "0", prec: precAtom}
	case 2:
		var err error
		if start, err = g.expr(call.Args[0], sc); err != nil {
			return "", err
		}
	default:
		return "", unsupported(s, "range() with %d arguments is not supported", len(call.Args))
	}
	stop, err := g.expr(call.Args[len(call.Args)-1], sc)
	if err != nil {
		return "", err
	}

	i := sc.counterName(target.ID)
	head := fmt.Sprintf("for (%s = %s; %s < %s; %s += %d)",
		ctypes.Declare(ctypes.Counter(), i), start.text, i, stop.wrap(precCmp+1), i, UnrollFactor)

	body := sc.loopBody(i)
	copies := make([]string, UnrollFactor)
	for k := range copies {
		text, err := g.block(s.Body, body.withBinding(target.ID, fmt.Sprintf("(%s+%d)", i, k)))
		if err != nil {
			return "", err
		}
		copies[k] = text
	}
	return braced(head, strings.Join(copies, "\n")), nil
}
