// Package nameformat expands the file name templates used to place
// downloaded tracks.
//
// A template is plain text with shell-like variable references:
//
//	$name ${name} ${name:-alternative} ${name:+alternative}
//
// Alternatives are templates themselves and may hold references.
package nameformat

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnterminatedReference = errors.New("missing '}'")
	ErrInvalidConditional    = errors.New("invalid expression")
)

// SyntaxError tells which template and which reference can't be parsed.
type SyntaxError struct {
	Format string
	Expr   string
	Err    error
}

func (e *SyntaxError) Error() string {
	if e.Expr == "" {
		return fmt.Sprintf("%s in '%s'", e.Err, e.Format)
	}
	return fmt.Sprintf("%s '${%s}' in '%s'", e.Err, e.Expr, e.Format)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Node is an element of a parsed template.
type Node interface {
	expand(x *expansion)
}

// Literal is copied to the output unchanged.
type Literal string

// Var is replaced by the variable's value, or its default when empty.
type Var struct {
	Name string
}

// Default is replaced by the variable's value when it isn't empty, or by the
// expansion of Alt.
type Default struct {
	Name string
	Alt  *Format
}

// Present is replaced by the expansion of Alt when the variable isn't empty.
type Present struct {
	Name string
	Alt  *Format
}

// Format is a parsed template.
type Format struct {
	src   string
	Nodes []Node
}

// String returns the template source.
func (f *Format) String() string {
	if f == nil {
		return ""
	}
	return f.src
}

// Parse compiles a template. Alternatives are compiled too, even those that
// may never be used.
func Parse(format string) (*Format, error) {
	return parse(format, format)
}

// MustParse is like Parse but panics on error.
func MustParse(format string) *Format {
	f, err := Parse(format)
	if err != nil {
		panic(err)
	}
	return f
}

func parse(s, top string) (*Format, error) {
	f := &Format{src: s}
	lit := strings.Builder{}
	flush := func() {
		if lit.Len() > 0 {
			f.Nodes = append(f.Nodes, Literal(lit.String()))
			lit.Reset()
		}
	}

	i := 0
	for i < len(s) {
		j := strings.IndexByte(s[i:], '$')
		if j < 0 {
			lit.WriteString(s[i:])
			break
		}
		lit.WriteString(s[i : i+j])
		i += j + 1

		var body string
		if i < len(s) && s[i] == '{' {
			end, ok := closingBrace(s, i+1)
			if !ok {
				return nil, &SyntaxError{Format: top, Err: ErrUnterminatedReference}
			}
			body = s[i+1 : end]
			i = end + 1
		} else {
			k := i
			for k < len(s) && isNameByte(s[k]) {
				k++
			}
			body = s[i:k]
			i = k
		}

		if body == "" {
			lit.WriteByte('$')
			continue
		}
		n, err := parseReference(body, top)
		if err != nil {
			return nil, err
		}
		flush()
		f.Nodes = append(f.Nodes, n)
	}
	flush()
	return f, nil
}

// closingBrace returns the index of the brace closing the one opened right
// before start.
func closingBrace(s string, start int) (int, bool) {
	depth := 1
	for k := start; k < len(s); k++ {
		switch s[k] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return k, true
			}
		}
	}
	return 0, false
}

func parseReference(body, top string) (Node, error) {
	c := strings.IndexByte(body, ':')
	if c < 0 {
		return Var{Name: body}, nil
	}
	name := body[:c]
	if c+1 >= len(body) || (body[c+1] != '-' && body[c+1] != '+') {
		return nil, &SyntaxError{Format: top, Expr: body, Err: ErrInvalidConditional}
	}
	alt, err := parse(body[c+2:], top)
	if err != nil {
		return nil, err
	}
	if body[c+1] == '-' {
		return Default{Name: name, Alt: alt}, nil
	}
	return Present{Name: name, Alt: alt}, nil
}

func isNameByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
