package store

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/openziti/rbrowse/kernel/model"
	"github.com/pkg/errors"
)

// Predicate reports whether a resource matches a filter expression.
type Predicate func(r *model.Resource) bool

func matchAll(*model.Resource) bool { return true }

// ParsePredicate compiles a predicate expression such as
//
//	search("web") && labels["env"] == "prod" || !(name == "db-1")
//
// Operands are string literals, name, kind, labels["k"] and attrs["k"].
// search accepts one or more comma separated strings.
// An empty expression matches everything.
func ParsePredicate(expr string) (Predicate, error) {
	if strings.TrimSpace(expr) == "" {
		return matchAll, nil
	}
	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	pred, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, errors.Errorf("unexpected %s at offset %d", p.peek().text, p.peek().pos)
	}
	return pred, nil
}

// MatchSearch reports whether every whitespace separated term of search
// occurs, case-insensitively, in the name, a label or an attribute.
func MatchSearch(r *model.Resource, search string) bool {
	terms := strings.Fields(strings.ToLower(search))
	if len(terms) == 0 {
		return true
	}
	fields := []string{strings.ToLower(r.Name)}
	for k, v := range r.Labels {
		fields = append(fields, strings.ToLower(k), strings.ToLower(v))
	}
	for _, v := range r.Attrs {
		fields = append(fields, strings.ToLower(v))
	}
	for _, term := range terms {
		found := false
		for _, f := range fields {
			if strings.Contains(f, term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokOp
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func tokenize(expr string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(expr); {
		c := rune(expr[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '"':
			end := i + 1
			for end < len(expr) && expr[end] != '"' {
				if expr[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(expr) {
				return nil, errors.Errorf("unterminated string at offset %d", i)
			}
			value, err := strconv.Unquote(expr[i : end+1])
			if err != nil {
				return nil, errors.Wrapf(err, "invalid string at offset %d", i)
			}
			tokens = append(tokens, token{kind: tokString, text: value, pos: i})
			i = end + 1
		case c == '_' || unicode.IsLetter(c):
			end := i
			for end < len(expr) && (expr[end] == '_' || expr[end] == '.' || unicode.IsLetter(rune(expr[end])) || unicode.IsDigit(rune(expr[end]))) {
				end++
			}
			tokens = append(tokens, token{kind: tokIdent, text: expr[i:end], pos: i})
			i = end
		default:
			op := ""
			for _, candidate := range []string{"==", "!=", "&&", "||", "!", "(", ")", "[", "]", ","} {
				if strings.HasPrefix(expr[i:], candidate) {
					op = candidate
					break
				}
			}
			if op == "" {
				return nil, errors.Errorf("unexpected character %q at offset %d", c, i)
			}
			tokens = append(tokens, token{kind: tokOp, text: op, pos: i})
			i += len(op)
		}
	}
	return tokens, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) done() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) peek() token {
	if p.done() {
		return token{kind: tokOp, text: "end of expression", pos: -1}
	}
	return p.tokens[p.pos]
}

func (p *parser) acceptOp(op string) bool {
	if t := p.peek(); !p.done() && t.kind == tokOp && t.text == op {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expectOp(op string) error {
	if !p.acceptOp(op) {
		t := p.peek()
		return errors.Errorf("expected %s, got %s at offset %d", op, t.text, t.pos)
	}
	return nil
}

func (p *parser) parseOr() (Predicate, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.acceptOp("||") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l := left
		left = func(r *model.Resource) bool { return l(r) || right(r) }
	}
	return left, nil
}

func (p *parser) parseAnd() (Predicate, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.acceptOp("&&") {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l := left
		left = func(r *model.Resource) bool { return l(r) && right(r) }
	}
	return left, nil
}

func (p *parser) parseUnary() (Predicate, error) {
	if p.acceptOp("!") {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return func(r *model.Resource) bool { return !inner(r) }, nil
	}
	if p.acceptOp("(") {
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return inner, nil
	}
	if t := p.peek(); !p.done() && t.kind == tokIdent && t.text == "search" {
		return p.parseSearch()
	}
	return p.parseComparison()
}

func (p *parser) parseSearch() (Predicate, error) {
	p.pos++
	if err := p.expectOp("("); err != nil {
		return nil, err
	}
	var terms []string
	for {
		t := p.peek()
		if p.done() || t.kind != tokString {
			return nil, errors.Errorf("search expects string arguments at offset %d", t.pos)
		}
		terms = append(terms, t.text)
		p.pos++
		if p.acceptOp(")") {
			break
		}
		if err := p.expectOp(","); err != nil {
			return nil, err
		}
	}
	search := strings.Join(terms, " ")
	return func(r *model.Resource) bool { return MatchSearch(r, search) }, nil
}

type operand func(r *model.Resource) string

func (p *parser) parseComparison() (Predicate, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	var negate bool
	switch {
	case p.acceptOp("=="):
	case p.acceptOp("!="):
		negate = true
	default:
		t := p.peek()
		return nil, errors.Errorf("expected == or != at offset %d, got %s", t.pos, t.text)
	}
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return func(r *model.Resource) bool { return (left(r) == right(r)) != negate }, nil
}

func (p *parser) parseOperand() (operand, error) {
	if p.done() {
		return nil, errors.New("unexpected end of expression")
	}
	t := p.tokens[p.pos]
	p.pos++
	switch t.kind {
	case tokString:
		value := t.text
		return func(*model.Resource) string { return value }, nil
	case tokIdent:
		switch t.text {
		case "name", "resource.metadata.name":
			return func(r *model.Resource) string { return r.Name }, nil
		case "kind":
			return func(r *model.Resource) string { return string(r.Kind) }, nil
		case "labels", "resource.metadata.labels":
			key, err := p.parseIndex()
			if err != nil {
				return nil, err
			}
			return func(r *model.Resource) string { return r.Labels[key] }, nil
		case "attrs":
			key, err := p.parseIndex()
			if err != nil {
				return nil, err
			}
			return func(r *model.Resource) string { return r.Attrs[key] }, nil
		}
		return nil, errors.Errorf("unknown identifier %s at offset %d", t.text, t.pos)
	}
	return nil, errors.Errorf("unexpected %s at offset %d", t.text, t.pos)
}

func (p *parser) parseIndex() (string, error) {
	if err := p.expectOp("["); err != nil {
		return "", err
	}
	t := p.peek()
	if p.done() || t.kind != tokString {
		return "", errors.Errorf("expected string index at offset %d", t.pos)
	}
	p.pos++
	if err := p.expectOp("]"); err != nil {
		return "", err
	}
	return t.text, nil
}
