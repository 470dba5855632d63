package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sergev/sbasic/diagnostics"
)

// Tokenize splits source text into tokens. It never fails: characters it does
// not understand become TokenIllegal, and a string literal missing its closing
// quote is returned as a single Malformed token running to the end of the line.
// The returned slice always ends with a TokenEOF.
func Tokenize(src string) []Token {
	lx := newLexer(src)
	var tokens []Token
	for {
		tok := lx.nextToken()
		tokens = append(tokens, tok)
		if tok.Kind == TokenEOF {
			return tokens
		}
	}
}

type lexer struct {
	src    string
	pos    int
	line   int
	column int
}

func newLexer(src string) *lexer {
	return &lexer{
		src:    src,
		line:   1,
		column: 1,
	}
}

type runeState struct {
	pos    int
	line   int
	column int
}

func (lx *lexer) mark() runeState {
	return runeState{
		pos:    lx.pos,
		line:   lx.line,
		column: lx.column,
	}
}

func (lx *lexer) restore(state runeState) {
	lx.pos = state.pos
	lx.line = state.line
	lx.column = state.column
}

// readRune consumes one rune. Invalid UTF-8 bytes are returned one at a time as
// utf8.RuneError so that they surface as illegal tokens.
func (lx *lexer) readRune() (rune, runeState, bool) {
	state := lx.mark()
	if lx.pos >= len(lx.src) {
		return 0, state, false
	}
	r, w := utf8.DecodeRuneInString(lx.src[lx.pos:])
	lx.pos += w
	if r == '\n' {
		lx.line++
		lx.column = 1
	} else {
		lx.column++
	}
	return r, state, true
}

func (lx *lexer) peekRune() (rune, bool) {
	state := lx.mark()
	r, _, ok := lx.readRune()
	lx.restore(state)
	return r, ok
}

func (lx *lexer) match(expected rune) bool {
	state := lx.mark()
	r, _, ok := lx.readRune()
	if !ok || r != expected {
		lx.restore(state)
		return false
	}
	return true
}

func (lx *lexer) skipWhitespace() string {
	start := lx.pos
	for {
		r, state, ok := lx.readRune()
		if !ok {
			break
		}
		if r == '\r' {
			if next, ok := lx.peekRune(); ok && next == '\n' {
				lx.restore(state)
				break
			}
			continue
		}
		if r == '\n' || !unicode.IsSpace(r) {
			lx.restore(state)
			break
		}
	}
	return lx.src[start:lx.pos]
}

func (lx *lexer) nextToken() Token {
	trivia := lx.skipWhitespace()
	start := lx.mark()

	r, _, ok := lx.readRune()
	if !ok {
		return lx.token(TokenEOF, start, trivia)
	}

	switch {
	case r == '\n':
		return lx.token(TokenNewLine, start, trivia)
	case r == '\r':
		lx.match('\n')
		return lx.token(TokenNewLine, start, trivia)
	case r == '\'':
		lx.skipToEndOfLine()
		return lx.token(TokenComment, start, trivia)
	case isIdentifierStart(r):
		lx.scanIdentifier()
		tok := lx.token(TokenIdentifier, start, trivia)
		if kind, ok := keywords[strings.ToLower(tok.Text)]; ok {
			tok.Kind = kind
		}
		return tok
	case isDigit(r):
		lx.scanNumber()
		return lx.token(TokenNumber, start, trivia)
	case r == '"':
		closed := lx.scanString()
		tok := lx.token(TokenString, start, trivia)
		tok.Malformed = !closed
		return tok
	}

	var kind TokenKind
	switch r {
	case '=':
		kind = TokenEqual
	case '<':
		if lx.match('>') {
			kind = TokenNotEqual
		} else if lx.match('=') {
			kind = TokenLessOrEqual
		} else {
			kind = TokenLessThan
		}
	case '>':
		if lx.match('=') {
			kind = TokenGreaterOrEqual
		} else {
			kind = TokenGreaterThan
		}
	case '+':
		kind = TokenPlus
	case '-':
		kind = TokenMinus
	case '*':
		kind = TokenMultiply
	case '/':
		kind = TokenDivide
	case '(':
		kind = TokenLeftParen
	case ')':
		kind = TokenRightParen
	case '[':
		kind = TokenLeftBracket
	case ']':
		kind = TokenRightBracket
	case '.':
		kind = TokenDot
	case ',':
		kind = TokenComma
	case ':':
		kind = TokenColon
	default:
		kind = TokenIllegal
	}
	return lx.token(kind, start, trivia)
}

func (lx *lexer) token(kind TokenKind, start runeState, trivia string) Token {
	return Token{
		Kind:   kind,
		Text:   lx.src[start.pos:lx.pos],
		Trivia: trivia,
		Range: diagnostics.Range{
			Start: positionFromState(start),
			End:   positionFromState(lx.mark()),
		},
	}
}

func (lx *lexer) skipToEndOfLine() {
	for {
		r, state, ok := lx.readRune()
		if !ok {
			return
		}
		if r == '\n' || r == '\r' {
			lx.restore(state)
			return
		}
	}
}

func isIdentifierStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentifierPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func (lx *lexer) scanIdentifier() {
	for {
		r, state, ok := lx.readRune()
		if !ok {
			return
		}
		if !isIdentifierPart(r) {
			lx.restore(state)
			return
		}
	}
}

func (lx *lexer) scanDigits() {
	for {
		r, state, ok := lx.readRune()
		if !ok {
			return
		}
		if !isDigit(r) {
			lx.restore(state)
			return
		}
	}
}

// scanNumber consumes digits with an optional fraction. A dot is only part of
// the number when a digit follows it.
func (lx *lexer) scanNumber() {
	lx.scanDigits()
	state := lx.mark()
	if !lx.match('.') {
		return
	}
	if next, ok := lx.peekRune(); ok && isDigit(next) {
		lx.scanDigits()
		return
	}
	lx.restore(state)
}

// scanString consumes up to and including the closing quote. It reports false
// when the line or input ended first.
func (lx *lexer) scanString() bool {
	for {
		r, state, ok := lx.readRune()
		if !ok {
			return false
		}
		switch r {
		case '"':
			return true
		case '\n', '\r':
			lx.restore(state)
			return false
		}
	}
}

func positionFromState(state runeState) diagnostics.Position {
	return diagnostics.Position{
		Offset: state.pos,
		Line:   state.line,
		Column: state.column,
	}
}
