package bash

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// ParseError is returned when a script cannot be turned into declarations
type ParseError struct {
	Err error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid script: %v", e.Err)
}

// Unwrap returns the wrapped error
func (e *ParseError) Unwrap() error {
	return e.Err
}

// GetDeclarations extracts the top-level variable assignments and function
// definitions of a Bash script.
//
// Only assignments (plain, declare/local/export/readonly) and function
// definitions at the top level are considered. Other commands are never
// run. Values are expanded against the bindings seen so far, and command
// substitutions are rejected. Function bodies are returned verbatim, without
// their enclosing braces.
func GetDeclarations(src string) (*Variables, Functions, error) {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(src), "")
	if err != nil {
		return nil, nil, &ParseError{Err: err}
	}

	vars := NewVariables()
	funcs := make(Functions)
	cfg := &expand.Config{Env: environ{vars}}

	for _, stmt := range file.Stmts {
		switch cmd := stmt.Cmd.(type) {
		case *syntax.CallExpr:
			// "FOO=bar command" is a command invocation, not a declaration
			if len(cmd.Args) > 0 {
				continue
			}
			for _, as := range cmd.Assigns {
				if err := assign(cfg, vars, as, false); err != nil {
					return nil, nil, &ParseError{Err: err}
				}
			}

		case *syntax.DeclClause:
			indexed := false
			for _, as := range cmd.Args {
				// Options such as -a or -r
				if as.Name == nil {
					indexed = indexed || isIndexedOption(as.Value)
					continue
				}
				if err := assign(cfg, vars, as, indexed); err != nil {
					return nil, nil, &ParseError{Err: err}
				}
			}

		case *syntax.FuncDecl:
			funcs[cmd.Name.Value] = functionBody(src, cmd.Body)
		}
	}

	return vars, funcs, nil
}

// isIndexedOption reports whether a declare option word carries -a
func isIndexedOption(word *syntax.Word) bool {
	if word == nil {
		return false
	}
	opt := word.Lit()
	return strings.HasPrefix(opt, "-") && strings.Contains(opt, "a")
}

// assign evaluates a single assignment into vars. indexed is set for
// declarations made with -a.
func assign(cfg *expand.Config, vars *Variables, as *syntax.Assign, indexed bool) error {
	name := as.Name.Value

	switch {
	case as.Array != nil:
		var items []string
		for _, elem := range as.Array.Elems {
			if elem.Value == nil {
				continue
			}
			fields, err := expand.Fields(cfg, elem.Value)
			if err != nil {
				return fmt.Errorf("variable %s: %w", name, err)
			}
			items = append(items, fields...)
		}
		if prev, ok := vars.Get(name); ok && as.Append {
			items = append(prev.items(), items...)
		}
		vars.Set(name, Array(items...))

	case as.Naked:
		prev, ok := vars.Get(name)
		switch {
		case indexed && !ok:
			vars.Set(name, Array())
		case indexed && !prev.Indexed:
			vars.Set(name, Array(prev.Str))
		case !ok:
			vars.Set(name, String(""))
		}

	case as.Index != nil:
		return fmt.Errorf("variable %s: element assignment is not supported", name)

	default:
		str := ""
		if as.Value != nil {
			var err error
			str, err = expand.Literal(cfg, as.Value)
			if err != nil {
				return fmt.Errorf("variable %s: %w", name, err)
			}
		}
		if prev, ok := vars.Get(name); ok && as.Append {
			if prev.Indexed {
				vars.Set(name, Array(append(prev.items(), str)...))
				return nil
			}
			str = prev.Str + str
		}
		if indexed {
			vars.Set(name, Array(str))
			return nil
		}
		vars.Set(name, String(str))
	}

	return nil
}

// environ exposes the bindings seen so far to the expander, keeping arrays
// as arrays
type environ struct {
	vars *Variables
}

// Get implements expand.Environ
func (e environ) Get(name string) expand.Variable {
	value, ok := e.vars.Get(name)
	if !ok {
		return expand.Variable{}
	}
	return value.variable()
}

// Each implements expand.Environ
func (e environ) Each(fn func(name string, vr expand.Variable) bool) {
	for _, name := range e.vars.Names() {
		value, _ := e.vars.Get(name)
		if !fn(name, value.variable()) {
			return
		}
	}
}

// functionBody slices the source text of a function body out of src
func functionBody(src string, body *syntax.Stmt) string {
	start, end := body.Pos().Offset(), body.End().Offset()

	if block, ok := body.Cmd.(*syntax.Block); ok {
		start = block.Lbrace.Offset() + 1
		end = block.Rbrace.Offset()
	}

	return strings.Trim(src[start:end], "\n")
}

// PutVariables serializes bindings back into Bash assignments, one per line,
// in declaration order
func PutVariables(vars *Variables) (string, error) {
	var buf strings.Builder

	for _, name := range vars.Names() {
		value, _ := vars.Get(name)

		if !value.Indexed {
			quoted, err := syntax.Quote(value.Str, syntax.LangBash)
			if err != nil {
				return "", fmt.Errorf("variable %s: %w", name, err)
			}
			fmt.Fprintf(&buf, "%s=%s\n", name, quoted)
			continue
		}

		quoted := make([]string, 0, len(value.List))
		for _, item := range value.List {
			q, err := syntax.Quote(item, syntax.LangBash)
			if err != nil {
				return "", fmt.Errorf("variable %s: %w", name, err)
			}
			quoted = append(quoted, q)
		}
		fmt.Fprintf(&buf, "%s=(%s)\n", name, strings.Join(quoted, " "))
	}

	return buf.String(), nil
}
