package parser

import (
	"strings"

	"github.com/dshills/chunkgraph/pkg/types"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokTemplate // template literal with substitutions
	tokNumber
	tokRegex
	tokPunct
)

type token struct {
	kind tokenKind
	text string // Identifier name, punctuation or unquoted string value
	line int
}

func (t token) is(kind tokenKind, text string) bool {
	return t.kind == kind && t.text == text
}

// keywords after which a slash starts a regular expression
var regexKeywords = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"new": true, "delete": true, "void": true, "throw": true, "case": true,
	"do": true, "else": true, "yield": true, "await": true,
}

// lexer splits JavaScript source into the tokens the import scanner needs.
// Comments are dropped. Malformed literals are reported on result and
// terminate at the end of the line or file.
type lexer struct {
	src    string
	file   string
	pos    int
	line   int
	prev   token
	result *types.ParseResult
}

func tokenize(file, src string, result *types.ParseResult) []token {
	l := &lexer{src: src, file: file, line: 1, result: result}
	toks := make([]token, 0, len(src)/4)
	for {
		t := l.next()
		toks = append(toks, t)
		if t.kind == tokEOF {
			return toks
		}
		l.prev = t
	}
}

func (l *lexer) errorf(line int, msg string) {
	l.result.AddError(l.file, line, 0, msg)
}

func (l *lexer) peek(offset int) byte {
	if l.pos+offset < len(l.src) {
		return l.src[l.pos+offset]
	}
	return 0
}

func (l *lexer) next() token {
	l.skipSpaceAndComments()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: l.line}
	}

	line := l.line
	c := l.src[l.pos]
	switch {
	case isIdentStart(c):
		start := l.pos
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, text: l.src[start:l.pos], line: line}
	case c >= '0' && c <= '9':
		start := l.pos
		for l.pos < len(l.src) && (isIdentPart(l.src[l.pos]) || l.src[l.pos] == '.') {
			l.pos++
		}
		return token{kind: tokNumber, text: l.src[start:l.pos], line: line}
	case c == '"' || c == '\'':
		return token{kind: tokString, text: l.readString(c), line: line}
	case c == '`':
		text, plain := l.readTemplate()
		if plain {
			return token{kind: tokString, text: text, line: line}
		}
		return token{kind: tokTemplate, line: line}
	case c == '/' && l.regexAllowed():
		l.readRegex()
		return token{kind: tokRegex, line: line}
	default:
		l.pos++
		return token{kind: tokPunct, text: string(c), line: line}
	}
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			l.pos++
		case c == '/' && l.peek(1) == '/':
			end := strings.IndexByte(l.src[l.pos:], '\n')
			if end < 0 {
				l.pos = len(l.src)
			} else {
				l.pos += end
			}
		case c == '/' && l.peek(1) == '*':
			start := l.line
			end := strings.Index(l.src[l.pos+2:], "*/")
			if end < 0 {
				l.line += strings.Count(l.src[l.pos:], "\n")
				l.pos = len(l.src)
				l.errorf(start, "unterminated block comment")
				return
			}
			l.line += strings.Count(l.src[l.pos:l.pos+2+end], "\n")
			l.pos += end + 4
		default:
			return
		}
	}
}

func (l *lexer) readString(quote byte) string {
	line := l.line
	l.pos++
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == quote:
			l.pos++
			return b.String()
		case c == '\n':
			l.errorf(line, "unterminated string literal")
			return b.String()
		case c == '\\' && l.pos+1 < len(l.src):
			esc := l.src[l.pos+1]
			l.pos += 2
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\n':
				l.line++
			default:
				b.WriteByte(esc)
			}
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	l.errorf(line, "unterminated string literal")
	return b.String()
}

// readTemplate consumes a template literal. plain reports whether it had no
// substitutions, in which case text holds its raw value.
func (l *lexer) readTemplate() (text string, plain bool) {
	line := l.line
	l.pos++
	start := l.pos
	plain = true
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '`':
			text = l.src[start:l.pos]
			l.pos++
			return text, plain
		case c == '\\':
			l.pos += 2
		case c == '$' && l.peek(1) == '{':
			plain = false
			l.pos += 2
			l.skipSubstitution()
		default:
			if c == '\n' {
				l.line++
			}
			l.pos++
		}
	}
	l.errorf(line, "unterminated template literal")
	return "", false
}

// skipSubstitution consumes a "${...}" body up to and including its closing
// brace
func (l *lexer) skipSubstitution() {
	depth := 1
	for l.pos < len(l.src) {
		l.skipSpaceAndComments()
		if l.pos >= len(l.src) {
			return
		}
		switch c := l.src[l.pos]; c {
		case '{':
			depth++
			l.pos++
		case '}':
			depth--
			l.pos++
			if depth == 0 {
				return
			}
		case '"', '\'':
			l.readString(c)
		case '`':
			l.readTemplate()
		default:
			l.pos++
		}
	}
}

func (l *lexer) regexAllowed() bool {
	switch l.prev.kind {
	case tokEOF:
		return true
	case tokPunct:
		return l.prev.text != ")" && l.prev.text != "]" && l.prev.text != "}"
	case tokIdent:
		return regexKeywords[l.prev.text]
	default:
		return false
	}
}

func (l *lexer) readRegex() {
	line := l.line
	l.pos++
	inClass := false
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.errorf(line, "unterminated regular expression")
			return
		case c == '\\':
			l.pos += 2
			continue
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '/' && !inClass:
			l.pos++
			for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
				l.pos++
			}
			return
		}
		l.pos++
	}
	l.errorf(line, "unterminated regular expression")
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
