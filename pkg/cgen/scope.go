package cgen

import "fmt"

// scope tracks the names declared in one C block and the loop induction
// variables bound to unrolled offsets. Child scopes copy their parent's
// declarations, so a name declared inside a block is forgotten when the
// block closes, matching C block scoping.
type scope struct {
	declared map[string]bool
	bound    map[string]string // name -> replacement text, e.g. "(i+3)"
	names    map[string]bool   // every identifier of the function, shared
	counters map[string]bool   // C counters of the enclosing loops
}

func newScope(names map[string]bool) *scope {
	return &scope{
		declared: map[string]bool{},
		bound:    map[string]string{},
		names:    names,
		counters: map[string]bool{},
	}
}

// child opens a nested C block
func (s *scope) child() *scope {
	c := &scope{
		declared: make(map[string]bool, len(s.declared)),
		bound:    s.bound,
		names:    s.names,
		counters: s.counters,
	}
	for k := range s.declared {
		c.declared[k] = true
	}
	return c
}

// loopBody opens the block of a loop whose C counter is counter
func (s *scope) loopBody(counter string) *scope {
	c := s.child()
	c.counters = make(map[string]bool, len(s.counters)+1)
	for k := range s.counters {
		c.counters[k] = true
	}
	c.counters[counter] = true
	return c
}

// withBinding returns a view of s that shares its declarations but
// substitutes text for name. An inner binding shadows an outer one.
func (s *scope) withBinding(name, text string) *scope {
	b := make(map[string]string, len(s.bound)+1)
	for k, v := range s.bound {
		b[k] = v
	}
	b[name] = text
	return &scope{declared: s.declared, bound: b, names: s.names, counters: s.counters}
}

func (s *scope) isDeclared(name string) bool { return s.declared[name] }

func (s *scope) declare(name string) { s.declared[name] = true }

func (s *scope) lookup(name string) (string, bool) {
	text, ok := s.bound[name]
	return text, ok
}

// counterName picks the C name of the counter of a loop over target. The
// target itself is used unless it would hide a variable or an enclosing
// counter; then the first free target_1, target_2, ... is used.
func (s *scope) counterName(target string) string {
	if _, bound := s.lookup(target); !bound && !s.isDeclared(target) && !s.counters[target] {
		return target
	}
	for n := 1; ; n++ {
		name := fmt.Sprintf("%s_%d", target, n)
		if !s.names[name] && !s.counters[name] {
			return name
		}
	}
}
