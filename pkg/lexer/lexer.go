// Package lexer tokenizes flow-filter expression text (spec.md §4D):
// integer/float/string/ip-literal/mac-literal/identifier/punctuation/
// keyword tokens, each carrying a half-open byte span into the source.
package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/CESNET/flowfilter/pkg/ast"
)

// Kind is the closed set of token kinds.
type Kind int

const (
	KindEOF Kind = iota
	KindInt
	KindFloat
	KindString
	KindIP
	KindMAC
	KindIdent
	KindAnd
	KindOr
	KindNot
	KindIn
	KindContains
	KindLParen
	KindRParen
	KindLBracket
	KindRBracket
	KindComma
	KindPlus
	KindMinus
	KindStar
	KindSlash
	KindPercent
	KindAmp
	KindPipe
	KindCaret
	KindTilde
	KindEq
	KindNe
	KindLt
	KindGt
	KindLe
	KindGe
)

// Token is one lexical unit.
type Token struct {
	Kind Kind
	Text string
	Span ast.Span
}

// Error is a LexError: unterminated literal, malformed IP/MAC literal,
// or numeric overflow, each carrying the offending span (spec.md §4D).
type Error struct {
	Message string
	Span    ast.Span
}

func (e *Error) Error() string { return e.Message }

var keywords = map[string]Kind{
	"and":      KindAnd,
	"or":       KindOr,
	"not":      KindNot,
	"in":       KindIn,
	"contains": KindContains,
}

// Resolver is consulted by the lexer to greedily extend a multi-word
// identifier: Resolves reports whether name is a known identifier
// (spec.md §4D, end-to-end scenario 6 — "src ip").
type Resolver interface {
	Resolves(name string) bool
}

// Lexer tokenizes one expression string at a time.
type Lexer struct {
	src      string
	pos      int
	resolver Resolver
}

// New creates a Lexer over src. resolver may be nil, in which case
// multi-word identifier accumulation never extends past a single word.
func New(src string, resolver Resolver) *Lexer {
	return &Lexer{src: src, resolver: resolver}
}

// Tokens lexes the entire input and returns every token (including a
// trailing KindEOF), or the first LexError encountered.
func (l *Lexer) Tokens() ([]Token, error) {
	var toks []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == KindEOF {
			return toks, nil
		}
	}
}

func (l *Lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			l.pos += size
			continue
		}
		break
	}
}

func (l *Lexer) next() (Token, error) {
	l.skipSpace()
	start := l.pos
	if l.pos >= len(l.src) {
		return Token{Kind: KindEOF, Span: ast.Span{Begin: start, End: start}}, nil
	}

	c := l.peekByte()

	switch {
	case c == '(':
		l.pos++
		return l.tok(KindLParen, start), nil
	case c == ')':
		l.pos++
		return l.tok(KindRParen, start), nil
	case c == '[':
		l.pos++
		return l.tok(KindLBracket, start), nil
	case c == ']':
		l.pos++
		return l.tok(KindRBracket, start), nil
	case c == ',':
		l.pos++
		return l.tok(KindComma, start), nil
	case c == '+':
		l.pos++
		return l.tok(KindPlus, start), nil
	case c == '*':
		l.pos++
		return l.tok(KindStar, start), nil
	case c == '/':
		l.pos++
		return l.tok(KindSlash, start), nil
	case c == '%':
		l.pos++
		return l.tok(KindPercent, start), nil
	case c == '&':
		l.pos++
		if l.peekByte() == '&' {
			l.pos++
		}
		return l.tok(KindAmp, start), nil
	case c == '|':
		l.pos++
		if l.peekByte() == '|' {
			l.pos++
		}
		return l.tok(KindPipe, start), nil
	case c == '^':
		l.pos++
		return l.tok(KindCaret, start), nil
	case c == '~':
		l.pos++
		return l.tok(KindTilde, start), nil
	case c == '!':
		l.pos++
		if l.peekByte() == '=' {
			l.pos++
			return l.tok(KindNe, start), nil
		}
		return l.tok(KindNot, start), nil
	case c == '=':
		l.pos++
		if l.peekByte() == '=' {
			l.pos++
		}
		return l.tok(KindEq, start), nil
	case c == '<':
		l.pos++
		if l.peekByte() == '=' {
			l.pos++
			return l.tok(KindLe, start), nil
		}
		return l.tok(KindLt, start), nil
	case c == '>':
		l.pos++
		if l.peekByte() == '=' {
			l.pos++
			return l.tok(KindGe, start), nil
		}
		return l.tok(KindGt, start), nil
	case c == '"':
		return l.lexString(start)
	case c == '-':
		return l.lexMinusOrNumber(start)
	case c == ':':
		return l.lexMACOrIPv6(start)
	case isDigit(c):
		return l.lexNumberOrIPOrMAC(start)
	case isIdentStart(c):
		return l.lexIdentOrKeyword(start)
	default:
		l.pos++
		return Token{}, &Error{Message: "unexpected character", Span: ast.Span{Begin: start, End: l.pos}}
	}
}

func (l *Lexer) tok(k Kind, start int) Token {
	return Token{Kind: k, Text: l.src[start:l.pos], Span: ast.Span{Begin: start, End: l.pos}}
}

func (l *Lexer) lexMinusOrNumber(start int) (Token, error) {
	l.pos++
	return Token{Kind: KindMinus, Text: "-", Span: ast.Span{Begin: start, End: l.pos}}, nil
}

func (l *Lexer) lexString(start int) (Token, error) {
	l.pos++ // consume opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, &Error{Message: "unterminated string literal", Span: ast.Span{Begin: start, End: l.pos}}
		}
		c := l.src[l.pos]
		if c == '"' {
			l.pos++
			break
		}
		if c == '\\' && l.pos+1 < len(l.src) {
			l.pos++
			sb.WriteByte(unescape(l.src[l.pos]))
			l.pos++
			continue
		}
		sb.WriteByte(c)
		l.pos++
	}
	return Token{Kind: KindString, Text: sb.String(), Span: ast.Span{Begin: start, End: l.pos}}, nil
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return c
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

// isAllHex reports whether s is a non-empty run of hex digits, used to
// detect a MAC/IPv6 literal's first field after it has already been
// scanned as a would-be identifier.
func isAllHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return false
		}
	}
	return true
}

// lexNumberOrIPOrMAC disambiguates the literals that begin with a
// decimal digit: int, float, IPv4, MAC, and IPv6 such as "1::". IPv6
// literals that begin with a letter or ':' (e.g. "::1") are lexed
// elsewhere.
func (l *Lexer) lexNumberOrIPOrMAC(start int) (Token, error) {
	for l.pos < len(l.src) && isHexDigit(l.src[l.pos]) {
		l.pos++
	}

	switch l.peekByte() {
	case '.':
		if l.looksLikeDottedQuad() {
			return l.lexIPv4(start)
		}
	case ':':
		return l.lexMACOrIPv6(start)
	}

	// Plain decimal int or float.
	isFloat := false
	if l.peekByte() == '.' {
		isFloat = true
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if l.peekByte() == 'e' || l.peekByte() == 'E' {
		isFloat = true
		l.pos++
		if l.peekByte() == '+' || l.peekByte() == '-' {
			l.pos++
		}
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if isFloat {
		return l.tok(KindFloat, start), nil
	}
	return l.tok(KindInt, start), nil
}

// looksLikeDottedQuad reports, without consuming input, whether the
// run of digits and '.' starting at l.pos contains exactly three dots
// (four octets) — distinguishing an IPv4 literal from a float, which
// has exactly one dot.
func (l *Lexer) looksLikeDottedQuad() bool {
	dots := 0
	for i := l.pos; i < len(l.src); i++ {
		c := l.src[i]
		if c == '.' {
			dots++
			continue
		}
		if isDigit(c) {
			continue
		}
		break
	}
	return dots == 3
}

func (l *Lexer) lexIPv4(start int) (Token, error) {
	for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '.') {
		l.pos++
	}
	if l.peekByte() == '/' {
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	return l.tok(KindIP, start), nil
}

// lexMACOrIPv6 consumes the rest of a colon-separated literal and
// classifies it by counting hex groups: a MAC address is exactly six
// two-hex-digit groups with no "::" compression; anything else with a
// colon is treated as IPv6 and validated downstream by value.ParseIP.
func (l *Lexer) lexMACOrIPv6(start int) (Token, error) {
	for l.pos < len(l.src) && (isHexDigit(l.src[l.pos]) || l.src[l.pos] == ':') {
		l.pos++
	}
	if l.peekByte() == '/' {
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
		return l.tok(KindIP, start), nil
	}

	text := l.src[start:l.pos]
	if looksLikeMAC(text) {
		return l.tok(KindMAC, start), nil
	}
	if strings.Count(text, "::") > 1 {
		return Token{}, &Error{Message: "malformed IPv6 literal: multiple '::' compressions", Span: ast.Span{Begin: start, End: l.pos}}
	}
	return l.tok(KindIP, start), nil
}

func looksLikeMAC(s string) bool {
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return false
	}
	for _, p := range parts {
		if len(p) != 2 {
			return false
		}
		for i := 0; i < 2; i++ {
			if !isHexDigit(p[i]) {
				return false
			}
		}
	}
	return true
}

// lexIdentOrKeyword lexes an identifier, then greedily extends it
// across single spaces while the accumulated text still resolves
// against the resolver (spec.md §4D; end-to-end scenario 6, "src ip").
func (l *Lexer) lexIdentOrKeyword(start int) (Token, error) {
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	text := l.src[start:l.pos]

	if kw, ok := keywords[strings.ToLower(text)]; ok {
		return l.tok(kw, start), nil
	}

	// A hex-only word immediately followed by ':' is the first field of
	// a MAC or IPv6 literal that happens to start with a hex letter
	// (a-f), e.g. "aabb:ccdd::" or "fe80::1" — the grammar has no other
	// use of ':', so hand off to lexMACOrIPv6 instead of treating it as
	// an identifier (spec.md §8 scenarios 4/5).
	if l.peekByte() == ':' && isAllHex(text) {
		l.pos = start
		return l.lexMACOrIPv6(start)
	}

	if l.resolver == nil {
		return l.tok(KindIdent, start), nil
	}

	for {
		save := l.pos
		l.skipSpace()
		if l.pos == save || l.pos >= len(l.src) || !isIdentStart(l.src[l.pos]) {
			l.pos = save
			break
		}
		wordStart := l.pos
		for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
			l.pos++
		}
		if _, isKw := keywords[strings.ToLower(l.src[wordStart:l.pos])]; isKw {
			l.pos = save
			break
		}
		candidate := text + " " + l.src[wordStart:l.pos]
		if !l.resolver.Resolves(candidate) {
			l.pos = save
			break
		}
		text = candidate
	}

	return Token{Kind: KindIdent, Text: text, Span: ast.Span{Begin: start, End: l.pos}}, nil
}
