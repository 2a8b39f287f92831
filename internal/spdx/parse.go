package spdx

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenWord tokenKind = iota
	tokenAnd
	tokenOr
	tokenWith
	tokenOpen
	tokenClose
)

type token struct {
	kind tokenKind
	text string
}

func lex(raw, value string) ([]token, error) {
	tokens := make([]token, 0, 8)
	word := make([]rune, 0, 32)
	flush := func() {
		if len(word) == 0 {
			return
		}
		text := string(word)
		word = word[:0]
		switch strings.ToUpper(text) {
		case "AND":
			tokens = append(tokens, token{kind: tokenAnd, text: text})
		case "OR":
			tokens = append(tokens, token{kind: tokenOr, text: text})
		case "WITH":
			tokens = append(tokens, token{kind: tokenWith, text: text})
		default:
			tokens = append(tokens, token{kind: tokenWord, text: text})
		}
	}

	for _, r := range value {
		switch {
		case unicode.IsSpace(r):
			flush()
		case r == '(':
			flush()
			tokens = append(tokens, token{kind: tokenOpen, text: "("})
		case r == ')':
			flush()
			tokens = append(tokens, token{kind: tokenClose, text: ")"})
		case r == '/':
			flush()
			tokens = append(tokens, token{kind: tokenOr, text: "/"})
		case r == '+' || r == '-' || r == '.' || r == ':' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			word = append(word, r)
		default:
			return nil, &ParseError{Expression: raw, Token: string(r), Reason: "unexpected character"}
		}
	}
	flush()
	return tokens, nil
}

type parser struct {
	raw    string
	tokens []token
	pos    int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) next() (token, bool) {
	tok, ok := p.peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

func (p *parser) fail(tok token, reason string) error {
	return &ParseError{Expression: p.raw, Token: tok.text, Reason: reason}
}

func (p *parser) parseOr() (*node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != tokenOr {
			return left, nil
		}
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &node{op: opOr, left: left, right: right}
	}
}

func (p *parser) parseAnd() (*node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != tokenAnd {
			return left, nil
		}
		p.pos++
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &node{op: opAnd, left: left, right: right}
	}
}

func (p *parser) parsePrimary() (*node, error) {
	tok, ok := p.next()
	if !ok {
		return nil, &ParseError{Expression: p.raw, Reason: "unexpected end of expression"}
	}
	switch tok.kind {
	case tokenOpen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		closing, ok := p.next()
		if !ok {
			return nil, &ParseError{Expression: p.raw, Reason: "missing closing parenthesis"}
		}
		if closing.kind != tokenClose {
			return nil, p.fail(closing, "expected closing parenthesis, got")
		}
		return inner, nil
	case tokenWord:
		return p.parseLeaf(tok)
	default:
		return nil, p.fail(tok, "expected license identifier, got")
	}
}

func (p *parser) parseLeaf(tok token) (*node, error) {
	req, ok := lookupLicense(tok.text)
	if !ok {
		return nil, p.fail(tok, "unknown license identifier")
	}
	with, ok := p.peek()
	if !ok || with.kind != tokenWith {
		return &node{op: opLeaf, req: req}, nil
	}
	p.pos++
	exceptionTok, ok := p.next()
	if !ok {
		return nil, &ParseError{Expression: p.raw, Reason: "missing exception after WITH"}
	}
	if exceptionTok.kind != tokenWord {
		return nil, p.fail(exceptionTok, "expected exception identifier, got")
	}
	exception, ok := lookupException(exceptionTok.text)
	if !ok {
		return nil, p.fail(exceptionTok, "unknown license exception")
	}
	req.Exception = exception
	return &node{op: opLeaf, req: req}, nil
}
