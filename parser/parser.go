package parser

import (
	"github.com/sergev/sbasic/diagnostics"
	"github.com/sergev/sbasic/internal/invariant"
)

// Parse builds a parse tree from the output of Tokenize. It never fails:
// problems are returned as diagnostics in emission order, and every line that
// could not be parsed is represented by an ErrorStatement.
func Parse(tokens []Token) (*ParseTree, []diagnostics.Diagnostic) {
	invariant.Precondition(len(tokens) > 0 && tokens[len(tokens)-1].Kind == TokenEOF,
		"token stream must end with EOF")

	p := &parser{badLines: make(map[int]bool)}
	for _, tok := range tokens {
		if tok.Kind != TokenComment {
			p.tokens = append(p.tokens, tok)
		}
	}
	p.reportLexicalErrors()
	p.commands = p.parseCommands()
	tree := p.parseTree()
	return tree, p.diags.Items()
}

type parser struct {
	tokens   []Token
	pos      int
	badLines map[int]bool
	diags    diagnostics.Bag

	commands []Command
	cmdPos   int

	// enclosing holds the commands that end the blocks being parsed.
	enclosing []CommandKind
	misnested bool
}

// syntaxError aborts parsing of the current line.
type syntaxError struct {
	diag diagnostics.Diagnostic
}

func (e *syntaxError) Error() string { return e.diag.String() }

func (p *parser) errorf(code diagnostics.ErrorCode, rng diagnostics.Range, args ...string) error {
	return &syntaxError{diag: diagnostics.New(code, rng, args...)}
}

func (p *parser) reportLexicalErrors() {
	for _, tok := range p.tokens {
		switch {
		case tok.Kind == TokenIllegal:
			p.diags.Report(diagnostics.UnrecognizedCharacter, tok.Range, tok.Text)
		case tok.Kind == TokenString && tok.Malformed:
			p.diags.Report(diagnostics.UnterminatedStringLiteral, tok.Range)
		default:
			continue
		}
		p.badLines[tok.Range.Start.Line] = true
	}
}

func (p *parser) curr() Token {
	return p.tokens[p.pos]
}

func (p *parser) peek() Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *parser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Kind != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind TokenKind) (Token, error) {
	tok := p.curr()
	if tok.Kind == kind {
		return p.advance(), nil
	}
	if tok.IsEndOfLine() {
		return Token{}, p.errorf(diagnostics.UnexpectedEOLExpectingToken, tok.Range, kind.String())
	}
	return Token{}, p.errorf(diagnostics.UnexpectedTokenExpectingToken, tok.Range, tok.Text, kind.String())
}

func (p *parser) expectIdentifier() (Token, error) {
	tok := p.curr()
	if tok.Kind == TokenIdentifier {
		return p.advance(), nil
	}
	if tok.IsEndOfLine() {
		return Token{}, p.errorf(diagnostics.UnexpectedEOLExpectingIdentifier, tok.Range)
	}
	return Token{}, p.errorf(diagnostics.UnexpectedTokenExpectingIdentifier, tok.Range, tok.Text)
}

func (p *parser) expectEndOfLine() error {
	tok := p.curr()
	if tok.IsEndOfLine() {
		return nil
	}
	return p.errorf(diagnostics.UnexpectedTokenExpectingEOL, tok.Range, tok.Text)
}

// parseCommands turns the token stream into one command per non-empty line.
// A line yields at most one diagnostic; after it the rest of the line is
// skipped and an ErrorCommand takes its place.
func (p *parser) parseCommands() []Command {
	var commands []Command
	for p.curr().Kind != TokenEOF {
		if p.curr().Kind == TokenNewLine {
			p.advance()
			continue
		}
		start := p.pos
		var cmd Command
		if p.badLines[p.curr().Range.Start.Line] {
			cmd = p.skipLine(start)
		} else {
			c, err := p.parseCommand()
			if err == nil {
				err = p.expectEndOfLine()
			}
			if err != nil {
				if serr, ok := err.(*syntaxError); ok {
					p.diags.Add(serr.diag)
				}
				cmd = p.skipLine(start)
			} else {
				cmd = c
			}
		}
		invariant.Invariant(p.pos > start, "command parser must advance at %s", p.tokens[start].Range)
		commands = append(commands, cmd)
	}
	return commands
}

func (p *parser) skipLine(start int) Command {
	for !p.curr().IsEndOfLine() {
		p.advance()
	}
	if p.pos == start {
		p.advance()
	}
	return &ErrorCommand{Tokens: append([]Token(nil), p.tokens[start:p.pos]...)}
}

func (p *parser) parseCommand() (Command, error) {
	tok := p.curr()
	switch tok.Kind {
	case TokenSub:
		p.advance()
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		return &SubCommand{Sub: tok, Name: name}, nil
	case TokenEndSub:
		return &EndSubCommand{EndSub: p.advance()}, nil
	case TokenIf, TokenElseIf:
		p.advance()
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		then, err := p.expect(TokenThen)
		if err != nil {
			return nil, err
		}
		if tok.Kind == TokenIf {
			return &IfCommand{If: tok, Condition: cond, Then: then}, nil
		}
		return &ElseIfCommand{ElseIf: tok, Condition: cond, Then: then}, nil
	case TokenElse:
		return &ElseCommand{Else: p.advance()}, nil
	case TokenEndIf:
		return &EndIfCommand{EndIf: p.advance()}, nil
	case TokenWhile:
		p.advance()
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &WhileCommand{While: tok, Condition: cond}, nil
	case TokenEndWhile:
		return &EndWhileCommand{EndWhile: p.advance()}, nil
	case TokenFor:
		return p.parseForCommand()
	case TokenEndFor:
		return &EndForCommand{EndFor: p.advance()}, nil
	case TokenGoTo:
		p.advance()
		label, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		return &GoToCommand{GoTo: tok, Label: label}, nil
	case TokenIdentifier:
		if p.peek().Kind == TokenColon {
			p.advance()
			return &LabelCommand{Label: tok, Colon: p.advance()}, nil
		}
	}
	return p.parseExpressionCommand()
}

func (p *parser) parseForCommand() (Command, error) {
	cmd := &ForCommand{For: p.advance()}
	var err error
	if cmd.Identifier, err = p.expectIdentifier(); err != nil {
		return nil, err
	}
	if cmd.Equal, err = p.expect(TokenEqual); err != nil {
		return nil, err
	}
	if cmd.From, err = p.parseExpression(); err != nil {
		return nil, err
	}
	if cmd.To, err = p.expect(TokenTo); err != nil {
		return nil, err
	}
	if cmd.Limit, err = p.parseExpression(); err != nil {
		return nil, err
	}
	if p.curr().Kind == TokenStep {
		step := p.advance()
		cmd.Step = &step
		if cmd.StepValue, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	return cmd, nil
}

// parseExpressionCommand parses the operand before any equality operator
// first: when an '=' follows it, the line is an assignment rather than a
// comparison.
func (p *parser) parseExpressionCommand() (Command, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	if p.curr().Kind == TokenEqual {
		equal := p.advance()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &AssignmentCommand{Target: left, Equal: equal, Value: value}, nil
	}
	expr, err := p.parseEqualityFrom(left)
	if err != nil {
		return nil, err
	}
	if expr, err = p.parseAndFrom(expr); err != nil {
		return nil, err
	}
	if expr, err = p.parseOrFrom(expr); err != nil {
		return nil, err
	}
	return &ExpressionCommand{Expr: expr}, nil
}

func (p *parser) parseExpression() (Expr, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	return p.parseOrFrom(left)
}

func (p *parser) parseOrFrom(left Expr) (Expr, error) {
	return p.parseBinaryFrom(left, p.parseAnd, TokenOr)
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	return p.parseAndFrom(left)
}

func (p *parser) parseAndFrom(left Expr) (Expr, error) {
	return p.parseBinaryFrom(left, p.parseEquality, TokenAnd)
}

func (p *parser) parseEquality() (Expr, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	return p.parseEqualityFrom(left)
}

func (p *parser) parseEqualityFrom(left Expr) (Expr, error) {
	return p.parseBinaryFrom(left, p.parseRelational, TokenEqual, TokenNotEqual)
}

func (p *parser) parseRelational() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return p.parseBinaryFrom(left, p.parseAdditive,
		TokenLessThan, TokenGreaterThan, TokenLessOrEqual, TokenGreaterOrEqual)
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	return p.parseBinaryFrom(left, p.parseMultiplicative, TokenPlus, TokenMinus)
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return p.parseBinaryFrom(left, p.parseUnary, TokenMultiply, TokenDivide)
}

// parseBinaryFrom folds a left-associative chain of the given operators onto
// an already parsed left operand.
func (p *parser) parseBinaryFrom(left Expr, operand func() (Expr, error), ops ...TokenKind) (Expr, error) {
	for isOneOf(p.curr().Kind, ops) {
		op := p.advance()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Operator: op, Right: right}
	}
	return left, nil
}

func isOneOf(kind TokenKind, kinds []TokenKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (p *parser) parseUnary() (Expr, error) {
	if p.curr().Kind == TokenMinus {
		op := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Operator: op, Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.curr().Kind {
		case TokenLeftBracket:
			open := p.advance()
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			closeTok, err := p.expect(TokenRightBracket)
			if err != nil {
				return nil, err
			}
			expr = &ArrayAccessExpr{Base: expr, LeftBracket: open, Index: index, RightBracket: closeTok}
		case TokenDot:
			dot := p.advance()
			member, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			expr = &ObjectAccessExpr{Base: expr, Dot: dot, Member: member}
		case TokenLeftParen:
			open := p.advance()
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			closeTok, err := p.expect(TokenRightParen)
			if err != nil {
				return nil, err
			}
			expr = &InvocationExpr{Base: expr, LeftParen: open, Args: args, RightParen: closeTok}
		default:
			return expr, nil
		}
	}
}

func (p *parser) parseArguments() ([]Expr, error) {
	if p.curr().Kind == TokenRightParen {
		return nil, nil
	}
	var args []Expr
	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.curr().Kind != TokenComma {
			return args, nil
		}
		p.advance()
	}
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.curr()
	switch tok.Kind {
	case TokenIdentifier:
		return &IdentifierExpr{Name: p.advance()}, nil
	case TokenNumber:
		return &NumberLiteralExpr{Literal: p.advance()}, nil
	case TokenString:
		return &StringLiteralExpr{Literal: p.advance()}, nil
	case TokenLeftParen:
		open := p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		closeTok, err := p.expect(TokenRightParen)
		if err != nil {
			return nil, err
		}
		return &ParenthesisExpr{LeftParen: open, Inner: inner, RightParen: closeTok}, nil
	}
	if tok.IsEndOfLine() {
		return nil, p.errorf(diagnostics.UnexpectedEOLExpectingExpression, tok.Range)
	}
	return nil, p.errorf(diagnostics.UnexpectedTokenExpectingExpression, tok.Range, tok.Text)
}
