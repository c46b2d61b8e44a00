package coerce

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/salmonumbrella/wikigap-cli/internal/jsonv"
)

var errSyntax = errors.New("malformed literal")

type litKind int

const (
	litNone litKind = iota
	litBool
	litInt
	litFloat
	litStr
	litList
	litTuple
	litDict
)

// lit is a parsed repr-style literal.
type lit struct {
	kind  litKind
	b     bool
	num   string
	str   string
	elems []lit
	keys  []lit
}

// parseLiteral parses a stringified literal as found in the exports: lists,
// tuples, dicts, quoted strings, numbers, True, False and None.
func parseLiteral(s string) (lit, error) {
	p := &litParser{src: s}
	p.skipSpace()
	v, err := p.value()
	if err != nil {
		return lit{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return lit{}, fmt.Errorf("%w: trailing input at %d", errSyntax, p.pos)
	}
	return v, nil
}

type litParser struct {
	src string
	pos int
}

func (p *litParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			p.pos++
		default:
			return
		}
	}
}

func (p *litParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *litParser) value() (lit, error) {
	switch c := p.peek(); {
	case c == '[':
		elems, err := p.sequence('[', ']')
		return lit{kind: litList, elems: elems}, err
	case c == '(':
		return p.tuple()
	case c == '{':
		return p.dict()
	case c == '\'' || c == '"':
		return p.stringSeq()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	case isIdentStart(c):
		return p.name()
	default:
		return lit{}, fmt.Errorf("%w: unexpected %q at %d", errSyntax, c, p.pos)
	}
}

// sequence parses open elem, elem, ... close with an optional trailing comma.
func (p *litParser) sequence(open, close byte) ([]lit, error) {
	p.pos++
	var elems []lit
	for {
		p.skipSpace()
		if p.peek() == close {
			p.pos++
			return elems, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case close:
			p.pos++
			return elems, nil
		default:
			return nil, fmt.Errorf("%w: expected ',' or %q at %d", errSyntax, close, p.pos)
		}
	}
}

func (p *litParser) tuple() (lit, error) {
	start := p.pos
	elems, err := p.sequence('(', ')')
	if err != nil {
		return lit{}, err
	}
	// (x) is a parenthesised value, not a tuple.
	if len(elems) == 1 && !strings.HasSuffix(strings.TrimRight(p.src[start:p.pos-1], " \t\n\r"), ",") {
		return elems[0], nil
	}
	return lit{kind: litTuple, elems: elems}, nil
}

func (p *litParser) dict() (lit, error) {
	p.pos++
	out := lit{kind: litDict}
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			return out, nil
		}
		k, err := p.value()
		if err != nil {
			return lit{}, err
		}
		if k.kind == litList || k.kind == litDict {
			return lit{}, fmt.Errorf("%w: unhashable dict key", errSyntax)
		}
		p.skipSpace()
		if p.peek() != ':' {
			return lit{}, fmt.Errorf("%w: expected ':' at %d", errSyntax, p.pos)
		}
		p.pos++
		p.skipSpace()
		v, err := p.value()
		if err != nil {
			return lit{}, err
		}
		out.keys = append(out.keys, k)
		out.elems = append(out.elems, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return out, nil
		default:
			return lit{}, fmt.Errorf("%w: expected ',' or '}' at %d", errSyntax, p.pos)
		}
	}
}

// stringSeq parses one string literal or several adjacent ones, which
// concatenate.
func (p *litParser) stringSeq() (lit, error) {
	out, err := p.stringLit()
	for err == nil {
		save := p.pos
		p.skipSpace()
		if c := p.peek(); c != '\'' && c != '"' {
			p.pos = save
			break
		}
		var next lit
		if next, err = p.stringLit(); err == nil {
			out.str += next.str
		}
	}
	return out, err
}

func (p *litParser) stringLit() (lit, error) {
	quote := p.src[p.pos]
	p.pos++
	var sb strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return lit{kind: litStr, str: sb.String()}, nil
		case c == '\n':
			return lit{}, fmt.Errorf("%w: unterminated string", errSyntax)
		case c == '\\':
			if err := p.escape(&sb); err != nil {
				return lit{}, err
			}
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			sb.WriteRune(r)
			p.pos += size
		}
	}
	return lit{}, fmt.Errorf("%w: unterminated string", errSyntax)
}

func (p *litParser) escape(sb *strings.Builder) error {
	p.pos++
	if p.pos >= len(p.src) {
		return fmt.Errorf("%w: dangling escape", errSyntax)
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'a':
		sb.WriteByte('\a')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'v':
		sb.WriteByte('\v')
	case '0', '1', '2', '3', '4', '5', '6', '7':
		code := rune(c - '0')
		for i := 0; i < 2 && p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '7'; i++ {
			code = code*8 + rune(p.src[p.pos]-'0')
			p.pos++
		}
		sb.WriteRune(code)
	case '\\', '\'', '"':
		sb.WriteByte(c)
	case '\n':
	case 'x', 'u', 'U':
		width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[c]
		if p.pos+width > len(p.src) {
			return fmt.Errorf("%w: truncated \\%c escape", errSyntax, c)
		}
		code, err := strconv.ParseUint(p.src[p.pos:p.pos+width], 16, 32)
		if err != nil {
			return fmt.Errorf("%w: bad \\%c escape", errSyntax, c)
		}
		sb.WriteRune(rune(code))
		p.pos += width
	default:
		sb.WriteByte('\\')
		sb.WriteByte(c)
	}
	return nil
}

// number parses decimal ints and floats, 0x/0o/0b prefixed ints and
// underscore digit separators.
func (p *litParser) number() (lit, error) {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
		p.skipSpace()
	}
	digitsStart := p.pos
	prefixed := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case isDigit(c), c == '_', c == '.':
		case p.pos == digitsStart+1 && p.src[digitsStart] == '0' && strings.IndexByte("xXoObB", c) >= 0:
			prefixed = true
		case prefixed && isHexLetter(c):
		case !prefixed && (c == 'e' || c == 'E'):
			if n := p.pos + 1; n < len(p.src) && (p.src[n] == '+' || p.src[n] == '-') {
				p.pos++
			}
		default:
			goto done
		}
		p.pos++
	}
done:
	text := p.src[digitsStart:p.pos]
	neg := p.src[start] == '-'
	if prefixed {
		n, ok := new(big.Int).SetString(text, 0)
		if !ok {
			return lit{}, fmt.Errorf("%w: bad number %q", errSyntax, text)
		}
		if neg {
			n.Neg(n)
		}
		return lit{kind: litInt, num: n.String()}, nil
	}

	if text == "" || text == "." || !validUnderscores(text) {
		return lit{}, fmt.Errorf("%w: bad number at %d", errSyntax, start)
	}
	text = strings.ReplaceAll(text, "_", "")
	if strings.ContainsAny(text, ".eE") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return lit{}, fmt.Errorf("%w: bad number %q", errSyntax, text)
		}
		if neg {
			f = -f
		}
		return lit{kind: litFloat, num: reprFloat(f)}, nil
	}
	if len(text) > 1 && text[0] == '0' && strings.Trim(text, "0") != "" {
		return lit{}, fmt.Errorf("%w: leading zeros in %q", errSyntax, text)
	}
	n, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return lit{}, fmt.Errorf("%w: bad number %q", errSyntax, text)
	}
	if neg {
		n.Neg(n)
	}
	return lit{kind: litInt, num: n.String()}, nil
}

// validUnderscores reports whether every '_' in s sits between two digits.
func validUnderscores(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '_' && (i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1])) {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexLetter(c byte) bool { return (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }

func (p *litParser) name() (lit, error) {
	start := p.pos
	for p.pos < len(p.src) && (isIdentStart(p.src[p.pos]) || isDigit(p.src[p.pos])) {
		p.pos++
	}
	switch word := p.src[start:p.pos]; word {
	case "True":
		return lit{kind: litBool, b: true}, nil
	case "False":
		return lit{kind: litBool, b: false}, nil
	case "None":
		return lit{kind: litNone}, nil
	default:
		return lit{}, fmt.Errorf("%w: name %q is not a literal", errSyntax, word)
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// toValue converts a parsed literal into a JSON value. Tuples become arrays
// and dict keys are rendered as text.
func (l lit) toValue() jsonv.Value {
	switch l.kind {
	case litBool:
		return jsonv.Bool(l.b)
	case litInt, litFloat:
		if l.num == "inf" || l.num == "-inf" {
			return jsonv.String(l.num)
		}
		return jsonv.Number(json.Number(l.num))
	case litStr:
		return jsonv.String(l.str)
	case litList, litTuple:
		elems := make([]jsonv.Value, len(l.elems))
		for i, e := range l.elems {
			elems[i] = e.toValue()
		}
		return jsonv.Array(elems...)
	case litDict:
		members := make([]jsonv.Member, len(l.elems))
		for i := range l.elems {
			members[i] = jsonv.M(l.keys[i].text(), l.elems[i].toValue())
		}
		return jsonv.Object(members...)
	default:
		return jsonv.Null()
	}
}

// text renders l as its display form: strings bare, everything else as repr.
func (l lit) text() string {
	if l.kind == litStr {
		return l.str
	}
	return l.repr()
}

// repr renders l in the quoted literal form the parser accepts.
func (l lit) repr() string {
	switch l.kind {
	case litNone:
		return "None"
	case litBool:
		if l.b {
			return "True"
		}
		return "False"
	case litInt, litFloat:
		return l.num
	case litStr:
		return reprQuote(l.str)
	case litList:
		return "[" + joinRepr(l.elems) + "]"
	case litTuple:
		if len(l.elems) == 1 {
			return "(" + l.elems[0].repr() + ",)"
		}
		return "(" + joinRepr(l.elems) + ")"
	case litDict:
		parts := make([]string, len(l.elems))
		for i := range l.elems {
			parts[i] = l.keys[i].repr() + ": " + l.elems[i].repr()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return ""
}

func joinRepr(elems []lit) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = e.repr()
	}
	return strings.Join(parts, ", ")
}

// reprQuote quotes s with single quotes unless s contains a single quote and
// no double quote.
func reprQuote(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}
	var sb strings.Builder
	sb.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == '\\':
			sb.WriteString(`\\`)
		case r == rune(quote):
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r == '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte(quote)
	return sb.String()
}

// reprFloat formats f as the shortest round-tripping literal, switching to
// exponent form below 1e-4 and from 1e16, and always keeping a fraction.
func reprFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	e := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return e
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}
