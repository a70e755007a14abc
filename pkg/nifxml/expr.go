package nifxml

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"fmt"
	"strconv"
	"strings"
)

// Env resolves identifiers appearing in field expressions. Identifiers
// are field names in the enclosing record's scope, spelled the way the
// descriptor spells them (e.g. "Num Vertices").
type Env interface {
	Lookup(name string) (int64, bool)
}

// Expr is a parsed field expression, as used by cond, arr1 and arr2
// attributes.
type Expr interface {
	Eval(env Env) (int64, error)
}

type literal int64

func (l literal) Eval(Env) (int64, error) { return int64(l), nil }

type identifier string

func (id identifier) Eval(env Env) (int64, error) {
	v, ok := env.Lookup(string(id))
	if !ok {
		return 0, fmt.Errorf("%w: undefined field %q in expression", ErrSchema, string(id))
	}
	return v, nil
}

type unary struct {
	op string
	x  Expr
}

func (u unary) Eval(env Env) (int64, error) {
	x, err := u.x.Eval(env)
	if err != nil {
		return 0, err
	}
	if x == 0 {
		return 1, nil
	}
	return 0, nil
}

type binary struct {
	op   string
	x, y Expr
}

func (b binary) Eval(env Env) (int64, error) {
	x, err := b.x.Eval(env)
	if err != nil {
		return 0, err
	}
	// short-circuit the logical operators
	switch b.op {
	case "&&":
		if x == 0 {
			return 0, nil
		}
	case "||":
		if x != 0 {
			return 1, nil
		}
	}
	y, err := b.y.Eval(env)
	if err != nil {
		return 0, err
	}
	bool2int := func(v bool) int64 {
		if v {
			return 1
		}
		return 0
	}
	switch b.op {
	case "&&", "||":
		return bool2int(y != 0), nil
	case "==":
		return bool2int(x == y), nil
	case "!=":
		return bool2int(x != y), nil
	case "<":
		return bool2int(x < y), nil
	case "<=":
		return bool2int(x <= y), nil
	case ">":
		return bool2int(x > y), nil
	case ">=":
		return bool2int(x >= y), nil
	case "&":
		return x & y, nil
	case "|":
		return x | y, nil
	case "+":
		return x + y, nil
	case "-":
		return x - y, nil
	}
	return 0, fmt.Errorf("%w: unknown operator %q", ErrSchema, b.op)
}

// lexer

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	val  string
	num  int64
}

type lexer struct {
	s    string
	pos  int
	peek *token
}

func isOpStart(c byte) bool {
	return strings.IndexByte("=!<>&|+-", c) >= 0
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '?' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (l *lexer) next() (*token, error) {
	if l.peek != nil {
		t := l.peek
		l.peek = nil
		return t, nil
	}
	for l.pos < len(l.s) && l.s[l.pos] == ' ' {
		l.pos++
	}
	if l.pos >= len(l.s) {
		return &token{kind: tokEOF}, nil
	}
	c := l.s[l.pos]
	switch {
	case c == '(':
		l.pos++
		return &token{kind: tokLParen}, nil
	case c == ')':
		l.pos++
		return &token{kind: tokRParen}, nil
	case isOpStart(c):
		op := string(c)
		l.pos++
		if l.pos < len(l.s) {
			two := op + string(l.s[l.pos])
			switch two {
			case "==", "!=", "<=", ">=", "&&", "||":
				op = two
				l.pos++
			}
		}
		return &token{kind: tokOp, val: op}, nil
	case c >= '0' && c <= '9':
		start := l.pos
		for l.pos < len(l.s) && (isIdentChar(l.s[l.pos]) || l.s[l.pos] == '.') {
			l.pos++
		}
		lit := l.s[start:l.pos]
		n, err := parseNumber(lit)
		if err != nil {
			return nil, err
		}
		return &token{kind: tokNumber, num: n}, nil
	case isIdentChar(c):
		// identifiers are field names and may contain spaces; words
		// accumulate until an operator or parenthesis
		start := l.pos
		end := l.pos
		for l.pos < len(l.s) {
			if isIdentChar(l.s[l.pos]) {
				l.pos++
				end = l.pos
				continue
			}
			if l.s[l.pos] == ' ' {
				j := l.pos
				for j < len(l.s) && l.s[j] == ' ' {
					j++
				}
				if j < len(l.s) && isIdentChar(l.s[j]) && !(l.s[j] >= '0' && l.s[j] <= '9') {
					l.pos = j
					continue
				}
				// trailing digits bind to the identifier too
				// ("User Version 2" is a single field name)
				if j < len(l.s) && l.s[j] >= '0' && l.s[j] <= '9' {
					k := j
					for k < len(l.s) && (l.s[k] >= '0' && l.s[k] <= '9') {
						k++
					}
					rest := k
					for rest < len(l.s) && l.s[rest] == ' ' {
						rest++
					}
					if rest >= len(l.s) || isOpStart(l.s[rest]) || l.s[rest] == ')' {
						l.pos = k
						end = k
						continue
					}
				}
			}
			break
		}
		return &token{kind: tokIdent, val: l.s[start:end]}, nil
	}
	return nil, fmt.Errorf("%w: unexpected character %q in expression %q", ErrSchema, c, l.s)
}

func (l *lexer) peekToken() (*token, error) {
	if l.peek == nil {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		l.peek = t
	}
	return l.peek, nil
}

func parseNumber(lit string) (int64, error) {
	if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") {
		n, err := strconv.ParseInt(lit[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: bad hex literal %q", ErrSchema, lit)
		}
		return n, nil
	}
	if strings.Contains(lit, ".") {
		// dotted version literal, packed like a version number
		v, err := ParseVersion(lit)
		if err != nil {
			return 0, err
		}
		return int64(v), nil
	}
	n, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad numeric literal %q", ErrSchema, lit)
	}
	return n, nil
}

// parser: precedence climbing, loosest operators first

var precLevels = [][]string{
	{"||"},
	{"&&"},
	{"|"},
	{"&"},
	{"==", "!="},
	{"<", "<=", ">", ">="},
	{"+", "-"},
}

type parser struct {
	lex *lexer
}

// ParseExpr parses a cond/arr expression into an evaluable tree.
func ParseExpr(s string) (Expr, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrSchema)
	}
	p := &parser{lex: &lexer{s: s}}
	x, err := p.binaryLevel(0)
	if err != nil {
		return nil, err
	}
	t, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	if t.kind != tokEOF {
		return nil, fmt.Errorf("%w: trailing input in expression %q", ErrSchema, s)
	}
	return x, nil
}

func (p *parser) binaryLevel(level int) (Expr, error) {
	if level >= len(precLevels) {
		return p.factor()
	}
	x, err := p.binaryLevel(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		t, err := p.lex.peekToken()
		if err != nil {
			return nil, err
		}
		if t.kind != tokOp || !contains(precLevels[level], t.val) {
			return x, nil
		}
		p.lex.next()
		y, err := p.binaryLevel(level + 1)
		if err != nil {
			return nil, err
		}
		x = binary{op: t.val, x: x, y: y}
	}
}

func (p *parser) factor() (Expr, error) {
	t, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	switch t.kind {
	case tokNumber:
		return literal(t.num), nil
	case tokIdent:
		return identifier(t.val), nil
	case tokLParen:
		x, err := p.binaryLevel(0)
		if err != nil {
			return nil, err
		}
		t, err = p.lex.next()
		if err != nil {
			return nil, err
		}
		if t.kind != tokRParen {
			return nil, fmt.Errorf("%w: missing closing parenthesis", ErrSchema)
		}
		return x, nil
	case tokOp:
		if t.val == "!" || t.val == "-" {
			x, err := p.factor()
			if err != nil {
				return nil, err
			}
			if t.val == "-" {
				return binary{op: "-", x: literal(0), y: x}, nil
			}
			return unary{op: "!", x: x}, nil
		}
	}
	return nil, fmt.Errorf("%w: unexpected token in expression", ErrSchema)
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
