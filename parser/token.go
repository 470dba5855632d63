package parser

import "github.com/sergev/sbasic/diagnostics"

// TokenKind enumerates lexical categories recognised by the lexer.
type TokenKind int

const (
	TokenIllegal TokenKind = iota
	TokenEOF
	TokenNewLine
	TokenComment

	TokenIdentifier
	TokenNumber
	TokenString

	// Keywords
	TokenIf
	TokenThen
	TokenElse
	TokenElseIf
	TokenEndIf
	TokenFor
	TokenTo
	TokenStep
	TokenEndFor
	TokenGoTo
	TokenSub
	TokenEndSub
	TokenWhile
	TokenEndWhile
	TokenAnd
	TokenOr

	// Operators and punctuation
	TokenEqual          // =
	TokenNotEqual       // <>
	TokenLessThan       // <
	TokenGreaterThan    // >
	TokenLessOrEqual    // <=
	TokenGreaterOrEqual // >=
	TokenPlus           // +
	TokenMinus          // -
	TokenMultiply       // *
	TokenDivide         // /
	TokenLeftParen      // (
	TokenRightParen     // )
	TokenLeftBracket    // [
	TokenRightBracket   // ]
	TokenDot            // .
	TokenComma          // ,
	TokenColon          // :
)

func (k TokenKind) String() string {
	switch k {
	case TokenIllegal:
		return "illegal"
	case TokenEOF:
		return "EOF"
	case TokenNewLine:
		return "new line"
	case TokenComment:
		return "comment"
	case TokenIdentifier:
		return "identifier"
	case TokenNumber:
		return "number"
	case TokenString:
		return "string"
	case TokenIf:
		return "If"
	case TokenThen:
		return "Then"
	case TokenElse:
		return "Else"
	case TokenElseIf:
		return "ElseIf"
	case TokenEndIf:
		return "EndIf"
	case TokenFor:
		return "For"
	case TokenTo:
		return "To"
	case TokenStep:
		return "Step"
	case TokenEndFor:
		return "EndFor"
	case TokenGoTo:
		return "GoTo"
	case TokenSub:
		return "Sub"
	case TokenEndSub:
		return "EndSub"
	case TokenWhile:
		return "While"
	case TokenEndWhile:
		return "EndWhile"
	case TokenAnd:
		return "And"
	case TokenOr:
		return "Or"
	case TokenEqual:
		return "="
	case TokenNotEqual:
		return "<>"
	case TokenLessThan:
		return "<"
	case TokenGreaterThan:
		return ">"
	case TokenLessOrEqual:
		return "<="
	case TokenGreaterOrEqual:
		return ">="
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenMultiply:
		return "*"
	case TokenDivide:
		return "/"
	case TokenLeftParen:
		return "("
	case TokenRightParen:
		return ")"
	case TokenLeftBracket:
		return "["
	case TokenRightBracket:
		return "]"
	case TokenDot:
		return "."
	case TokenComma:
		return ","
	case TokenColon:
		return ":"
	default:
		return "unknown"
	}
}

// Token is a single lexical unit produced by the lexer.
type Token struct {
	Kind      TokenKind
	Text      string // exact source text of the token
	Trivia    string // whitespace preceding the token
	Range     diagnostics.Range
	Malformed bool // string literal missing its closing quote
}

// IsEndOfLine reports whether the token terminates a command.
func (t Token) IsEndOfLine() bool {
	return t.Kind == TokenNewLine || t.Kind == TokenEOF
}

var keywords = map[string]TokenKind{
	"if":       TokenIf,
	"then":     TokenThen,
	"else":     TokenElse,
	"elseif":   TokenElseIf,
	"endif":    TokenEndIf,
	"for":      TokenFor,
	"to":       TokenTo,
	"step":     TokenStep,
	"endfor":   TokenEndFor,
	"goto":     TokenGoTo,
	"sub":      TokenSub,
	"endsub":   TokenEndSub,
	"while":    TokenWhile,
	"endwhile": TokenEndWhile,
	"and":      TokenAnd,
	"or":       TokenOr,
}
