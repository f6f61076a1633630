package pipeline

import "strings"

// CmdArg describes a command-line argument a pipeline understands. It is
// metadata only: conditions use it to look values up and documentation mode
// lists it.
type CmdArg struct {
	Short       string   // e.g. "r"; matched as "-r"
	Long        string   // e.g. "release"; matched as "--release"
	Values      []string // declared values, for documentation
	Description string
}

// Names returns the token forms the argument is matched against.
func (a CmdArg) Names() []string {
	var names []string
	if a.Long != "" {
		names = append(names, "--"+a.Long)
	}
	if a.Short != "" {
		names = append(names, "-"+a.Short)
	}
	return names
}

// Lookup resolves the argument in sc, trying each name form in turn.
func (a CmdArg) Lookup(sc *Scope) (string, bool) {
	for _, n := range a.Names() {
		if v, ok := sc.Arg(n); ok {
			return v, true
		}
	}
	return "", false
}

// String renders the argument as it appears in usage output.
func (a CmdArg) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(a.Names(), ", "))
	if len(a.Values) > 0 {
		b.WriteString(" <" + strings.Join(a.Values, "|") + ">")
	}
	if a.Description != "" {
		b.WriteString("  " + a.Description)
	}
	return b.String()
}

// lookupArg scans tokens for name. A following token is the value; a name in
// last position is present with the empty value.
func lookupArg(tokens []string, name string) (string, bool) {
	for i, tok := range tokens {
		if tok != name {
			continue
		}
		if i+1 < len(tokens) {
			return tokens[i+1], true
		}
		return "", true
	}
	return "", false
}
