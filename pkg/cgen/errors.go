package cgen

import (
	"errors"
	"fmt"

	"github.com/raymyers/ralph-jit/pkg/pyast"
)

// ErrUnsupported is wrapped by every TranslationError
var ErrUnsupported = errors.New("unsupported construct")

// TranslationError reports a node that cannot be rendered as C
type TranslationError struct {
	Kind   string    // node kind, e.g. "Pass" or "BinOp"
	Source string    // the node's Python source form, when available
	Pos    pyast.Pos // zero for hand-built trees
	Detail string
}

func (e *TranslationError) Error() string {
	msg := e.Detail
	if e.Source != "" {
		msg += ": " + e.Source
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("line %d, col %d: %s", e.Pos.Line, e.Pos.Col, msg)
	}
	return msg
}

func (e *TranslationError) Unwrap() error {
	return ErrUnsupported
}

// unsupported builds a TranslationError for node n
func unsupported(n pyast.Node, format string, args ...any) error {
	err := &TranslationError{Detail: fmt.Sprintf(format, args...)}
	if n != nil {
		err.Kind = pyast.Kind(n)
		err.Source = pyast.Format(n)
		err.Pos = n.Position()
	}
	return err
}
