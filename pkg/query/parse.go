package query

import (
	"errors"
	"fmt"
	"strings"
)

var ErrSyntax = errors.New("query syntax error")

type parser struct {
	input string
	pos   int
}

func (p *parser) fail(expected string) error {
	return fmt.Errorf("%w: expected %q at %d", ErrSyntax, expected, p.pos)
}

func (p *parser) expect(token string) error {
	if !strings.HasPrefix(p.input[p.pos:], token) {
		return p.fail(token)
	}
	p.pos += len(token)
	return nil
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

// until reads an escaped value up to the first unescaped end byte and
// consumes the end byte.
func (p *parser) until(end byte) (string, error) {
	start := p.pos
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case '\\':
			p.pos += 2
			continue
		case end:
			raw := p.input[start:p.pos]
			p.pos++
			return Unescape(raw), nil
		}
		p.pos++
	}
	p.pos = len(p.input)
	return "", p.fail(string(end))
}

// ParseClassQuery reads a composed class query back into its parts.
func ParseClassQuery(input string) (ClassQuery, error) {
	p := &parser{input: strings.TrimSpace(input)}
	q := ClassQuery{}
	if err := p.expect("type:{"); err != nil {
		return q, err
	}
	class, err := p.until('}')
	if err != nil {
		return q, err
	}
	q.Class = class
	for {
		p.skipSpaces()
		if p.pos >= len(p.input) {
			return q, nil
		}
		if err := p.expect("(predicate:{"); err != nil {
			return q, err
		}
		property, err := p.until('}')
		if err != nil {
			return q, err
		}
		if err := p.expect(" ^ object:"); err != nil {
			return q, err
		}
		value, err := p.until(')')
		if err != nil {
			return q, err
		}
		q.Properties = append(q.Properties, PropertyValue{Property: property, Value: value})
	}
}
