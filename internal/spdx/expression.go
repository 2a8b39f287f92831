package spdx

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrParse                = errors.New("invalid license expression")
	ErrNotSingleRequirement = errors.New("license must be a single requirement")
)

type ParseError struct {
	Expression string
	Token      string
	Reason     string
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("%v %q: %s", ErrParse, e.Expression, e.Reason)
	}
	return fmt.Sprintf("%v %q: %s %q", ErrParse, e.Expression, e.Reason, e.Token)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

type operator int

const (
	opLeaf operator = iota
	opAnd
	opOr
)

type node struct {
	op    operator
	req   Requirement
	left  *node
	right *node
}

// Expression is a parsed license expression.
type Expression struct {
	raw  string
	root *node
}

// EvaluatedRequirement is one leaf of an expression tagged with whether it
// was found in the allow-list.
type EvaluatedRequirement struct {
	Requirement Requirement
	Allowed     bool
}

type Evaluation struct {
	Satisfied    bool
	Requirements []EvaluatedRequirement
}

// Failures returns the leaves that were not allowed, in encounter order.
func (e Evaluation) Failures() []Requirement {
	failed := make([]Requirement, 0, len(e.Requirements))
	for _, item := range e.Requirements {
		if !item.Allowed {
			failed = append(failed, item.Requirement)
		}
	}
	return failed
}

// Parse parses value in lenient mode: operators are case-insensitive, "/" is
// read as OR, deprecated and common non-SPDX spellings are mapped onto their
// SPDX identifiers.
func Parse(value string) (*Expression, error) {
	if strings.TrimSpace(value) == "" {
		return nil, &ParseError{Expression: value, Reason: "empty expression"}
	}
	tokens, err := lex(value, rewritePhrases(value))
	if err != nil {
		return nil, err
	}
	p := parser{raw: value, tokens: tokens}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok, ok := p.peek(); ok {
		return nil, &ParseError{Expression: value, Token: tok.text, Reason: "unexpected token"}
	}
	return &Expression{raw: value, root: root}, nil
}

// ParseRequirement parses value and requires it to name exactly one
// requirement.
func ParseRequirement(value string) (Requirement, error) {
	expr, err := Parse(value)
	if err != nil {
		return Requirement{}, err
	}
	reqs := expr.Requirements()
	if len(reqs) != 1 {
		return Requirement{}, fmt.Errorf("%w: %q", ErrNotSingleRequirement, value)
	}
	return reqs[0], nil
}

// Raw returns the string the expression was parsed from.
func (e *Expression) Raw() string {
	return e.raw
}

// Requirements returns every leaf requirement in encounter order.
func (e *Expression) Requirements() []Requirement {
	reqs := make([]Requirement, 0, 4)
	e.root.walk(func(req Requirement) {
		reqs = append(reqs, req)
	})
	return reqs
}

// Evaluate tests every leaf for membership in allowed. All leaves are
// visited even when an OR is already satisfied so that the evaluation lists
// every unmet requirement.
func (e *Expression) Evaluate(allowed []Requirement) Evaluation {
	evaluated := make([]EvaluatedRequirement, 0, 4)
	satisfied := e.root.eval(func(req Requirement) bool {
		ok := ContainsRequirement(allowed, req)
		evaluated = append(evaluated, EvaluatedRequirement{Requirement: req, Allowed: ok})
		return ok
	})
	return Evaluation{Satisfied: satisfied, Requirements: evaluated}
}

func (e *Expression) String() string {
	var b strings.Builder
	e.root.render(&b, opOr)
	return b.String()
}

func (n *node) walk(visit func(Requirement)) {
	if n.op == opLeaf {
		visit(n.req)
		return
	}
	n.left.walk(visit)
	n.right.walk(visit)
}

func (n *node) eval(test func(Requirement) bool) bool {
	switch n.op {
	case opAnd:
		left := n.left.eval(test)
		right := n.right.eval(test)
		return left && right
	case opOr:
		left := n.left.eval(test)
		right := n.right.eval(test)
		return left || right
	default:
		return test(n.req)
	}
}

func (n *node) render(b *strings.Builder, parent operator) {
	switch n.op {
	case opLeaf:
		b.WriteString(n.req.String())
	case opAnd:
		n.left.render(b, opAnd)
		b.WriteString(" AND ")
		n.right.render(b, opAnd)
	case opOr:
		wrap := parent == opAnd
		if wrap {
			b.WriteByte('(')
		}
		n.left.render(b, opOr)
		b.WriteString(" OR ")
		n.right.render(b, opOr)
		if wrap {
			b.WriteByte(')')
		}
	}
}
