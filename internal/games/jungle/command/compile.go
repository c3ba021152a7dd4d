package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Limits on compiled programs.
const (
	MaxRepeat   = 100
	MaxCommands = 1000
)

// ErrTooLong is returned when a program expands past MaxCommands.
var ErrTooLong = errors.New("command: program expands to too many commands")

// CompileError points at the offending token in a program.
type CompileError struct {
	Line    int
	Col     int
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("command: %d:%d: %s", e.Line, e.Col, e.Message)
}

// Compile turns program text into a command queue.
//
// The language mirrors the block editor:
//
//	right            one step
//	up 3             three steps
//	wait             one idle interval
//	repeat 3 { right up }
//	# comment to end of line
//
// Statements may be separated by spaces, newlines, commas or semicolons.
func Compile(src string) (Queue, error) {
	p := &parser{toks: lex(src)}
	q, err := p.block(false)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// MustCompile is like Compile but panics on error. For tests and fixtures.
func MustCompile(src string) Queue {
	q, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return q
}

type token struct {
	text string
	line int
	col  int
}

func lex(src string) []token {
	var toks []token
	line, col := 1, 0
	var cur strings.Builder
	startCol := 0

	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, token{text: cur.String(), line: line, col: startCol})
			cur.Reset()
		}
	}

	comment := false
	for _, r := range src {
		col++
		if r == '\n' {
			flush()
			comment = false
			line++
			col = 0
			continue
		}
		if comment {
			continue
		}
		switch {
		case r == '#':
			flush()
			comment = true
		case r == '{' || r == '}':
			flush()
			toks = append(toks, token{text: string(r), line: line, col: col})
		case unicode.IsSpace(r) || r == ',' || r == ';':
			flush()
		default:
			if cur.Len() == 0 {
				startCol = col
			}
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() (token, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

// count consumes an optional repeat count following a statement.
func (p *parser) count() (int, error) {
	t, ok := p.peek()
	if !ok {
		return 1, nil
	}
	n, err := strconv.Atoi(t.text)
	if err != nil {
		return 1, nil
	}
	p.pos++
	if n < 1 || n > MaxRepeat {
		return 0, &CompileError{Line: t.line, Col: t.col, Message: fmt.Sprintf("count must be between 1 and %d", MaxRepeat)}
	}
	return n, nil
}

func (p *parser) block(nested bool) (Queue, error) {
	var q Queue
	for {
		t, ok := p.next()
		if !ok {
			if nested {
				return nil, &CompileError{Line: lastLine(p.toks), Col: 0, Message: "missing '}'"}
			}
			return q, nil
		}

		switch word := strings.ToLower(t.text); word {
		case "}":
			if !nested {
				return nil, &CompileError{Line: t.line, Col: t.col, Message: "unexpected '}'"}
			}
			return q, nil
		case "{":
			return nil, &CompileError{Line: t.line, Col: t.col, Message: "unexpected '{'"}
		case "repeat", "loop":
			n, err := p.count()
			if err != nil {
				return nil, err
			}
			open, ok := p.next()
			if !ok || open.text != "{" {
				return nil, &CompileError{Line: t.line, Col: t.col, Message: "repeat needs a count and a { body }"}
			}
			body, err := p.block(true)
			if err != nil {
				return nil, err
			}
			for i := 0; i < n; i++ {
				if q, err = appendChecked(q, body...); err != nil {
					return nil, err
				}
			}
		default:
			cmd := Of(word)
			if !cmd.Known() {
				return nil, &CompileError{Line: t.line, Col: t.col, Message: fmt.Sprintf("unknown instruction %q", t.text)}
			}
			n, err := p.count()
			if err != nil {
				return nil, err
			}
			for i := 0; i < n; i++ {
				if q, err = appendChecked(q, cmd); err != nil {
					return nil, err
				}
			}
		}
	}
}

func appendChecked(q Queue, cmds ...Command) (Queue, error) {
	if len(q)+len(cmds) > MaxCommands {
		return nil, ErrTooLong
	}
	return append(q, cmds...), nil
}

func lastLine(toks []token) int {
	if len(toks) == 0 {
		return 1
	}
	return toks[len(toks)-1].line
}
