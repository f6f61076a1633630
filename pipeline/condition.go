package pipeline

import (
	"fmt"
	"path"
	"runtime"
	"slices"
	"strings"
)

// Condition gates a stage. Holds evaluates it against the resolved scope in
// Execution mode; Describe renders it for Documentation mode, where Holds is
// never called.
type Condition interface {
	Describe() string
	Holds(sc *Scope) bool
}

type condition struct {
	desc  string
	holds func(*Scope) bool
}

func (c condition) Describe() string     { return c.desc }
func (c condition) Holds(sc *Scope) bool { return c.holds(sc) }
func (c condition) String() string       { return c.desc }

// Check wraps a user function; desc is what documentation mode prints.
func Check(desc string, fn func(sc *Scope) bool) Condition {
	return condition{desc: desc, holds: fn}
}

// Always holds unconditionally.
func Always() Condition {
	return condition{desc: "always", holds: func(*Scope) bool { return true }}
}

// Never never holds.
func Never() Condition {
	return condition{desc: "never", holds: func(*Scope) bool { return false }}
}

// EnvSet holds when key is present in the resolved environment.
func EnvSet(key string) Condition {
	return condition{
		desc: fmt.Sprintf("env %s is set", key),
		holds: func(sc *Scope) bool {
			_, ok := sc.Env()[key]
			return ok
		},
	}
}

// EnvEquals holds when key resolves to exactly value.
func EnvEquals(key, value string) Condition {
	return condition{
		desc: fmt.Sprintf("env %s == %q", key, value),
		holds: func(sc *Scope) bool {
			v, ok := sc.Env()[key]
			return ok && v == value
		},
	}
}

// ArgSet holds when any of arg's name forms appears on the command line.
func ArgSet(arg CmdArg) Condition {
	return condition{
		desc: fmt.Sprintf("argument %s is given", strings.Join(arg.Names(), "/")),
		holds: func(sc *Scope) bool {
			_, ok := arg.Lookup(sc)
			return ok
		},
	}
}

// ArgEquals holds when arg is given with the value value.
func ArgEquals(arg CmdArg, value string) Condition {
	return condition{
		desc: fmt.Sprintf("argument %s == %q", strings.Join(arg.Names(), "/"), value),
		holds: func(sc *Scope) bool {
			v, ok := arg.Lookup(sc)
			return ok && v == value
		},
	}
}

// Branch holds when the current branch matches one of the path.Match patterns.
func Branch(patterns ...string) Condition {
	return condition{
		desc: "branch matches " + strings.Join(patterns, " or "),
		holds: func(sc *Scope) bool {
			b := sc.Branch()
			if b == "" {
				return false
			}
			for _, p := range patterns {
				if ok, err := path.Match(p, b); err == nil && ok {
					return true
				}
			}
			return false
		},
	}
}

// Platform holds when the process runs on one of the given GOOS values.
func Platform(goos ...string) Condition {
	return condition{
		desc:  "platform is " + strings.Join(goos, " or "),
		holds: func(*Scope) bool { return slices.Contains(goos, runtime.GOOS) },
	}
}

// All holds when every condition holds. All() holds.
func All(conds ...Condition) Condition {
	return condition{
		desc: joinDesc("all", conds),
		holds: func(sc *Scope) bool {
			for _, c := range conds {
				if !c.Holds(sc) {
					return false
				}
			}
			return true
		},
	}
}

// Any holds when at least one condition holds. Any() does not hold.
func Any(conds ...Condition) Condition {
	return condition{
		desc: joinDesc("any", conds),
		holds: func(sc *Scope) bool {
			for _, c := range conds {
				if c.Holds(sc) {
					return true
				}
			}
			return false
		},
	}
}

// Not negates c.
func Not(c Condition) Condition {
	return condition{
		desc:  "not(" + c.Describe() + ")",
		holds: func(sc *Scope) bool { return !c.Holds(sc) },
	}
}

func joinDesc(op string, conds []Condition) string {
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		parts = append(parts, c.Describe())
	}
	return op + "(" + strings.Join(parts, ", ") + ")"
}
