// Package lexer tokenizes FlatBuffers-style schema text: a byte-oriented
// scanner that recognizes identifiers, symbols, keywords,
// integer/float/string literals, and three kinds of comments, attributing
// comments to the token that follows them rather than discarding them, so
// that the parser (schema/cst) can produce a lossless concrete syntax
// tree.
package lexer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shardbuf/shardbuf/schema/token"
)

// Error is a lexical error with the byte offset it occurred at.
type Error struct {
	Offset  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Message)
}

// Lexer tokenizes a single schema file's source text.
type Lexer struct {
	src  string
	pos  int
	errs []error

	// pendingBlocks accumulates comment paragraphs since the last real
	// token, to be attached as the next token's Pre.
	pendingBlocks []token.CommentBlock
	curKind       token.Kind
	curLines      []string
	blankRun      bool
	sawAnyComment bool
}

// New returns a Lexer over src.
func New(src string) *Lexer {
	return &Lexer{src: src, curKind: token.Invalid}
}

// Errors returns every lexical error encountered so far.
func (l *Lexer) Errors() []error { return l.errs }

func (l *Lexer) fail(offset int, format string, args ...any) {
	l.errs = append(l.errs, &Error{Offset: offset, Message: fmt.Sprintf(format, args...)})
}

// Tokens lexes the entire source and returns every token, terminated by an
// EOF token. Errors encountered along the way are available via Errors.
func (l *Lexer) Tokens() []token.Token {
	var out []token.Token
	for {
		tok := l.next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

func (l *Lexer) flushPending(tok *token.Token) {
	l.closeCurrentBlock()
	tok.Pre = l.pendingBlocks
	l.pendingBlocks = nil
}

func (l *Lexer) closeCurrentBlock() {
	if len(l.curLines) == 0 {
		return
	}
	l.pendingBlocks = append(l.pendingBlocks, token.CommentBlock{Kind: l.curKind, Lines: l.curLines})
	l.curLines = nil
	l.curKind = token.Invalid
}

// next scans and returns the next non-comment, non-newline token (or EOF),
// folding any preceding comments/newlines into its Pre/Post metadata.
func (l *Lexer) next() token.Token {
	for {
		l.skipSpacesExceptNewline()
		if l.pos >= len(l.src) {
			tok := token.Token{Kind: token.EOF, Start: l.pos, End: l.pos}
			l.flushPending(&tok)
			return tok
		}

		c := l.src[l.pos]
		switch {
		case c == '\n':
			start := l.pos
			l.pos++
			// Two or more consecutive newlines (allowing blank
			// whitespace-only lines between them) is a paragraph
			// break: it separates comment blocks.
			if l.blankRun {
				l.closeCurrentBlock()
			}
			l.blankRun = true
			_ = start
			continue
		case c == '/' && l.peek(1) == '/':
			l.lexComment()
			continue
		default:
			return l.lexReal()
		}
	}
}

func (l *Lexer) peek(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *Lexer) skipSpacesExceptNewline() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\r':
			l.pos++
		default:
			return
		}
	}
}

// lexComment consumes one `//`, `///`, or `//!` line comment, classifying
// it and appending its text to the current paragraph block.
func (l *Lexer) lexComment() {
	start := l.pos
	l.pos += 2
	kind := token.LineComment
	if l.peek(0) == '/' && l.peek(1) != '/' {
		kind = token.OuterDoc
		l.pos++
	} else if l.peek(0) == '!' {
		kind = token.InnerDoc
		l.pos++
	}

	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		l.pos++
	}
	text := strings.TrimPrefix(l.src[start:l.pos], "//")
	text = strings.TrimPrefix(text, "/")
	text = strings.TrimPrefix(text, "!")
	text = strings.TrimPrefix(text, " ")

	if kind != l.curKind {
		l.closeCurrentBlock()
		l.curKind = kind
	}
	l.curLines = append(l.curLines, text)
	l.blankRun = false
	l.sawAnyComment = true
}

// lexReal scans one real (non-comment) token starting at l.pos, then
// consumes a possible trailing same-line `//`-style comment as its Post.
func (l *Lexer) lexReal() token.Token {
	l.blankRun = false
	start := l.pos
	c := l.src[l.pos]

	var tok token.Token
	switch {
	case isIdentStart(c):
		tok = l.lexIdent(start)
	case c == '"' || c == '\'':
		tok = l.lexString(start, c)
	case isDigit(c) || (c == '-' && isDigit(l.peek(1))):
		tok = l.lexNumber(start)
	default:
		tok = l.lexSymbol(start)
	}

	l.flushPending(&tok)
	tok.Post = l.lexTrailingComment()
	return tok
}

// lexTrailingComment consumes a same-line `//` comment (of any of the
// three kinds) immediately following a real token: a trailing same-line
// comment attributed to the token it follows rather than the next one.
func (l *Lexer) lexTrailingComment() string {
	save := l.pos
	l.skipSpacesExceptNewline()
	if l.peek(0) == '/' && l.peek(1) == '/' {
		start := l.pos
		l.pos += 2
		for l.pos < len(l.src) && l.src[l.pos] != '\n' {
			l.pos++
		}
		return strings.TrimPrefix(l.src[start:l.pos], "//")
	}
	l.pos = save
	return ""
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '.'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (l *Lexer) lexIdent(start int) token.Token {
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	text := l.src[start:l.pos]
	kind := token.Ident
	if kw, ok := token.Lookup(text); ok {
		kind = kw
	}
	return token.Token{Kind: kind, Start: start, End: l.pos, Text: text}
}

func (l *Lexer) lexSymbol(start int) token.Token {
	c := l.src[l.pos]
	l.pos++
	kind := token.Invalid
	switch c {
	case '{':
		kind = token.LBrace
	case '}':
		kind = token.RBrace
	case '(':
		kind = token.LParen
	case ')':
		kind = token.RParen
	case '[':
		kind = token.LBracket
	case ']':
		kind = token.RBracket
	case ':':
		kind = token.Colon
	case ';':
		kind = token.Semicolon
	case ',':
		kind = token.Comma
	case '=':
		kind = token.Equals
	default:
		l.fail(start, "unexpected character %q", c)
	}
	return token.Token{Kind: kind, Start: start, End: l.pos, Text: l.src[start:l.pos]}
}

func (l *Lexer) lexNumber(start int) token.Token {
	isFloat := false
	if l.peek(0) == '-' {
		l.pos++
	}

	hex := false
	if l.peek(0) == '0' && (l.peek(1) == 'x' || l.peek(1) == 'X') {
		hex = true
		l.pos += 2
		for l.pos < len(l.src) && (isHex(l.src[l.pos]) || l.src[l.pos] == '_') {
			l.pos++
		}
		// Hex float: binary exponent introduced by 'p'/'P'.
		if l.peek(0) == '.' {
			isFloat = true
			l.pos++
			for l.pos < len(l.src) && (isHex(l.src[l.pos]) || l.src[l.pos] == '_') {
				l.pos++
			}
		}
		if l.peek(0) == 'p' || l.peek(0) == 'P' {
			isFloat = true
			l.pos++
			l.lexExponentDigits()
		}
	} else {
		for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '_') {
			l.pos++
		}
		if l.peek(0) == '.' && isDigit(l.peek(1)) {
			isFloat = true
			l.pos++
			for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '_') {
				l.pos++
			}
		}
		if l.peek(0) == 'e' || l.peek(0) == 'E' {
			isFloat = true
			l.pos++
			l.lexExponentDigits()
		}
	}
	_ = hex

	kind := token.IntLiteral
	if isFloat {
		kind = token.FloatLiteral
	}
	return token.Token{Kind: kind, Start: start, End: l.pos, Text: l.src[start:l.pos]}
}

func (l *Lexer) lexExponentDigits() {
	if l.peek(0) == '+' || l.peek(0) == '-' {
		l.pos++
	}
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
}

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// lexString scans a quoted string literal starting at the opening quote
// character q (one of '"' or '\''), decoding escapes as it goes. The
// decoded value is stored in Text; mismatched quote characters (e.g. a `'`
// embedded in a `"`-quoted string) are kept verbatim.
func (l *Lexer) lexString(start int, q byte) token.Token {
	l.pos++ // opening quote
	var out strings.Builder
	for {
		if l.pos >= len(l.src) {
			l.fail(start, "Unexpected end of string")
			break
		}
		c := l.src[l.pos]
		if c == q {
			l.pos++
			break
		}
		if c == '\n' {
			l.fail(start, "Unexpected end of string")
			break
		}
		if c != '\\' {
			out.WriteByte(c)
			l.pos++
			continue
		}
		l.lexEscape(start, &out)
	}
	return token.Token{Kind: token.StringLiteral, Start: start, End: l.pos, Text: out.String()}
}

// lexEscape decodes one backslash escape sequence (the slash is at l.pos)
// and appends its decoded form to out.
func (l *Lexer) lexEscape(strStart int, out *strings.Builder) {
	l.pos++ // backslash
	if l.pos >= len(l.src) {
		l.fail(strStart, "Unexpected end of string")
		return
	}
	c := l.src[l.pos]
	switch c {
	case 'n':
		out.WriteByte('\n')
		l.pos++
	case 't':
		out.WriteByte('\t')
		l.pos++
	case 'r':
		out.WriteByte('\r')
		l.pos++
	case '0':
		out.WriteByte(0)
		l.pos++
	case '\\', '"', '\'':
		out.WriteByte(c)
		l.pos++
	case 'x':
		l.pos++
		if l.pos+2 > len(l.src) || !isHex(l.src[l.pos]) || !isHex(l.src[l.pos+1]) {
			l.fail(l.pos, "invalid \\x escape")
			return
		}
		v := hexVal(l.src[l.pos])<<4 | hexVal(l.src[l.pos+1])
		out.WriteByte(byte(v))
		l.pos += 2
	case 'u':
		l.pos++
		if l.pos+4 > len(l.src) {
			l.fail(l.pos, "invalid \\u escape")
			return
		}
		var v rune
		for i := 0; i < 4; i++ {
			if !isHex(l.src[l.pos+i]) {
				l.fail(l.pos, "invalid \\u escape")
				return
			}
			v = v<<4 | rune(hexVal(l.src[l.pos+i]))
		}
		l.pos += 4
		// Surrogate pairs are never assembled. Each \uXXXX is decoded
		// independently; a value that is not a valid scalar value (i.e.
		// falls in the surrogate range) is rejected.
		if v >= 0xD800 && v <= 0xDFFF {
			l.fail(l.pos, "Codepoint escape does not correspond to a valid character")
			return
		}
		var buf [utf8.UTFMax]byte
		n := utf8.EncodeRune(buf[:], v)
		out.Write(buf[:n])
	default:
		// Mismatched/unknown escape: keep verbatim, matching the
		// lexer's tolerance of the "other" quote character embedded
		// via escape.
		out.WriteByte('\\')
		out.WriteByte(c)
		l.pos++
	}
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}
