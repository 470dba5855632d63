package parser

import "github.com/sergev/sbasic/diagnostics"

// Node represents any syntax node with a source range.
type Node interface {
	Range() diagnostics.Range
}

// ParseTree is the root of a parsed program.
type ParseTree struct {
	Main []Statement
	Subs []*SubModule

	// Misnested is set when a block was left open at the terminator of an
	// enclosing block rather than at the end of input.
	Misnested bool
}

// SubModule is a named sub-procedure declaration.
type SubModule struct {
	Sub    *SubCommand
	Body   []Statement
	EndSub Command // nil when the file ended first
}

// Name returns the declared sub-module name.
func (s *SubModule) Name() string { return s.Sub.Name.Text }

func (s *SubModule) Range() diagnostics.Range {
	rng := s.Sub.Range()
	if s.EndSub != nil {
		rng = rng.Join(s.EndSub.Range())
	}
	return rng
}

func tokensRange(first Token, rest ...Token) diagnostics.Range {
	rng := first.Range
	for _, tok := range rest {
		rng = rng.Join(tok.Range)
	}
	return rng
}

// ExprKind discriminates expression nodes.
type ExprKind int

const (
	ExprIdentifier ExprKind = iota
	ExprNumberLiteral
	ExprStringLiteral
	ExprParenthesis
	ExprUnary
	ExprBinary
	ExprArrayAccess
	ExprObjectAccess
	ExprInvocation
)

// Expr represents an expression.
type Expr interface {
	Node
	Kind() ExprKind
	exprNode()
}

// IdentifierExpr names a variable, library, sub-module or label.
type IdentifierExpr struct {
	Name Token
}

func (e *IdentifierExpr) Range() diagnostics.Range { return e.Name.Range }
func (*IdentifierExpr) Kind() ExprKind             { return ExprIdentifier }
func (*IdentifierExpr) exprNode()                  {}

// NumberLiteralExpr is a numeric literal in source form.
type NumberLiteralExpr struct {
	Literal Token
}

func (e *NumberLiteralExpr) Range() diagnostics.Range { return e.Literal.Range }
func (*NumberLiteralExpr) Kind() ExprKind             { return ExprNumberLiteral }
func (*NumberLiteralExpr) exprNode()                  {}

// StringLiteralExpr is a double-quoted string literal.
type StringLiteralExpr struct {
	Literal Token
}

// Value returns the literal text without its quotes.
func (e *StringLiteralExpr) Value() string {
	text := e.Literal.Text
	if len(text) > 0 && text[0] == '"' {
		text = text[1:]
	}
	if !e.Literal.Malformed && len(text) > 0 && text[len(text)-1] == '"' {
		text = text[:len(text)-1]
	}
	return text
}

func (e *StringLiteralExpr) Range() diagnostics.Range { return e.Literal.Range }
func (*StringLiteralExpr) Kind() ExprKind             { return ExprStringLiteral }
func (*StringLiteralExpr) exprNode()                  {}

// ParenthesisExpr groups an expression.
type ParenthesisExpr struct {
	LeftParen  Token
	Inner      Expr
	RightParen Token
}

func (e *ParenthesisExpr) Range() diagnostics.Range {
	return tokensRange(e.LeftParen, e.RightParen)
}
func (*ParenthesisExpr) Kind() ExprKind { return ExprParenthesis }
func (*ParenthesisExpr) exprNode()      {}

// UnaryExpr is a prefix minus.
type UnaryExpr struct {
	Operator Token
	Operand  Expr
}

func (e *UnaryExpr) Range() diagnostics.Range {
	return e.Operator.Range.Join(e.Operand.Range())
}
func (*UnaryExpr) Kind() ExprKind { return ExprUnary }
func (*UnaryExpr) exprNode()      {}

// BinaryExpr represents infix operator application.
type BinaryExpr struct {
	Left     Expr
	Operator Token
	Right    Expr
}

func (e *BinaryExpr) Range() diagnostics.Range {
	return e.Left.Range().Join(e.Right.Range())
}
func (*BinaryExpr) Kind() ExprKind { return ExprBinary }
func (*BinaryExpr) exprNode()      {}

// ArrayAccessExpr indexes Base with a single index. Multi-dimensional access
// is a chain of these.
type ArrayAccessExpr struct {
	Base         Expr
	LeftBracket  Token
	Index        Expr
	RightBracket Token
}

func (e *ArrayAccessExpr) Range() diagnostics.Range {
	return e.Base.Range().Join(e.RightBracket.Range)
}
func (*ArrayAccessExpr) Kind() ExprKind { return ExprArrayAccess }
func (*ArrayAccessExpr) exprNode()      {}

// ObjectAccessExpr is Base.Member.
type ObjectAccessExpr struct {
	Base   Expr
	Dot    Token
	Member Token
}

func (e *ObjectAccessExpr) Range() diagnostics.Range {
	return e.Base.Range().Join(e.Member.Range)
}
func (*ObjectAccessExpr) Kind() ExprKind { return ExprObjectAccess }
func (*ObjectAccessExpr) exprNode()      {}

// InvocationExpr calls Base with arguments.
type InvocationExpr struct {
	Base       Expr
	LeftParen  Token
	Args       []Expr
	RightParen Token
}

func (e *InvocationExpr) Range() diagnostics.Range {
	return e.Base.Range().Join(e.RightParen.Range)
}
func (*InvocationExpr) Kind() ExprKind { return ExprInvocation }
func (*InvocationExpr) exprNode()      {}

// CommandKind discriminates single-line commands.
type CommandKind int

const (
	CommandSub CommandKind = iota
	CommandEndSub
	CommandIf
	CommandElseIf
	CommandElse
	CommandEndIf
	CommandWhile
	CommandEndWhile
	CommandFor
	CommandEndFor
	CommandGoTo
	CommandLabel
	CommandExpression
	CommandAssignment
	CommandError
)

func (k CommandKind) String() string {
	switch k {
	case CommandSub:
		return "Sub"
	case CommandEndSub:
		return "EndSub"
	case CommandIf:
		return "If"
	case CommandElseIf:
		return "ElseIf"
	case CommandElse:
		return "Else"
	case CommandEndIf:
		return "EndIf"
	case CommandWhile:
		return "While"
	case CommandEndWhile:
		return "EndWhile"
	case CommandFor:
		return "For"
	case CommandEndFor:
		return "EndFor"
	case CommandGoTo:
		return "GoTo"
	case CommandLabel:
		return "Label"
	case CommandExpression:
		return "Expression"
	case CommandAssignment:
		return "Assignment"
	case CommandError:
		return "Error"
	default:
		return "unknown"
	}
}

// Command is one source line.
type Command interface {
	Node
	Kind() CommandKind
	commandNode()
}

// SubCommand opens a sub-module: Sub Name.
type SubCommand struct {
	Sub  Token
	Name Token
}

func (c *SubCommand) Range() diagnostics.Range { return tokensRange(c.Sub, c.Name) }
func (*SubCommand) Kind() CommandKind           { return CommandSub }
func (*SubCommand) commandNode()                {}

// EndSubCommand closes a sub-module.
type EndSubCommand struct {
	EndSub Token
}

func (c *EndSubCommand) Range() diagnostics.Range { return c.EndSub.Range }
func (*EndSubCommand) Kind() CommandKind           { return CommandEndSub }
func (*EndSubCommand) commandNode()                {}

// IfCommand is If Condition Then.
type IfCommand struct {
	If        Token
	Condition Expr
	Then      Token
}

func (c *IfCommand) Range() diagnostics.Range { return tokensRange(c.If, c.Then) }
func (*IfCommand) Kind() CommandKind           { return CommandIf }
func (*IfCommand) commandNode()                {}

// ElseIfCommand is ElseIf Condition Then.
type ElseIfCommand struct {
	ElseIf    Token
	Condition Expr
	Then      Token
}

func (c *ElseIfCommand) Range() diagnostics.Range { return tokensRange(c.ElseIf, c.Then) }
func (*ElseIfCommand) Kind() CommandKind           { return CommandElseIf }
func (*ElseIfCommand) commandNode()                {}

// ElseCommand opens the else part of an If.
type ElseCommand struct {
	Else Token
}

func (c *ElseCommand) Range() diagnostics.Range { return c.Else.Range }
func (*ElseCommand) Kind() CommandKind           { return CommandElse }
func (*ElseCommand) commandNode()                {}

// EndIfCommand closes an If.
type EndIfCommand struct {
	EndIf Token
}

func (c *EndIfCommand) Range() diagnostics.Range { return c.EndIf.Range }
func (*EndIfCommand) Kind() CommandKind           { return CommandEndIf }
func (*EndIfCommand) commandNode()                {}

// WhileCommand is While Condition.
type WhileCommand struct {
	While     Token
	Condition Expr
}

func (c *WhileCommand) Range() diagnostics.Range {
	return c.While.Range.Join(c.Condition.Range())
}
func (*WhileCommand) Kind() CommandKind { return CommandWhile }
func (*WhileCommand) commandNode()      {}

// EndWhileCommand closes a While.
type EndWhileCommand struct {
	EndWhile Token
}

func (c *EndWhileCommand) Range() diagnostics.Range { return c.EndWhile.Range }
func (*EndWhileCommand) Kind() CommandKind           { return CommandEndWhile }
func (*EndWhileCommand) commandNode()                {}

// ForCommand is For Identifier = From To Limit [Step StepValue].
type ForCommand struct {
	For        Token
	Identifier Token
	Equal      Token
	From       Expr
	To         Token
	Limit      Expr
	Step       *Token // nil when omitted
	StepValue  Expr   // nil when omitted
}

func (c *ForCommand) Range() diagnostics.Range {
	if c.StepValue != nil {
		return c.For.Range.Join(c.StepValue.Range())
	}
	return c.For.Range.Join(c.Limit.Range())
}
func (*ForCommand) Kind() CommandKind { return CommandFor }
func (*ForCommand) commandNode()      {}

// EndForCommand closes a For.
type EndForCommand struct {
	EndFor Token
}

func (c *EndForCommand) Range() diagnostics.Range { return c.EndFor.Range }
func (*EndForCommand) Kind() CommandKind           { return CommandEndFor }
func (*EndForCommand) commandNode()                {}

// GoToCommand jumps to a label in the same module.
type GoToCommand struct {
	GoTo  Token
	Label Token
}

func (c *GoToCommand) Range() diagnostics.Range { return tokensRange(c.GoTo, c.Label) }
func (*GoToCommand) Kind() CommandKind           { return CommandGoTo }
func (*GoToCommand) commandNode()                {}

// LabelCommand declares a jump target: Name:.
type LabelCommand struct {
	Label Token
	Colon Token
}

func (c *LabelCommand) Range() diagnostics.Range { return tokensRange(c.Label, c.Colon) }
func (*LabelCommand) Kind() CommandKind           { return CommandLabel }
func (*LabelCommand) commandNode()                {}

// ExpressionCommand evaluates an expression on its own line.
type ExpressionCommand struct {
	Expr Expr
}

func (c *ExpressionCommand) Range() diagnostics.Range { return c.Expr.Range() }
func (*ExpressionCommand) Kind() CommandKind           { return CommandExpression }
func (*ExpressionCommand) commandNode()                {}

// AssignmentCommand is Target = Value.
type AssignmentCommand struct {
	Target Expr
	Equal  Token
	Value  Expr
}

func (c *AssignmentCommand) Range() diagnostics.Range {
	return c.Target.Range().Join(c.Value.Range())
}
func (*AssignmentCommand) Kind() CommandKind { return CommandAssignment }
func (*AssignmentCommand) commandNode()      {}

// ErrorCommand stands in for a line that failed to parse.
type ErrorCommand struct {
	Tokens []Token
}

func (c *ErrorCommand) Range() diagnostics.Range {
	return tokensRange(c.Tokens[0], c.Tokens[1:]...)
}
func (*ErrorCommand) Kind() CommandKind { return CommandError }
func (*ErrorCommand) commandNode()      {}

// StatementKind discriminates block-structured statements.
type StatementKind int

const (
	StatementIf StatementKind = iota
	StatementWhile
	StatementFor
	StatementGoTo
	StatementLabel
	StatementExpression
	StatementAssignment
	StatementError
)

// Statement is a block-structured unit built from one or more commands.
type Statement interface {
	Node
	Kind() StatementKind
	statementNode()
}

// ElseIfPart is one ElseIf branch. ElseIf is an *ElseIfCommand, or an
// *ErrorCommand when that line failed to parse.
type ElseIfPart struct {
	ElseIf Command
	Body   []Statement
}

// ElsePart is the trailing Else branch.
type ElsePart struct {
	Else Command
	Body []Statement
}

// IfStatement is If ... [ElseIf ...]* [Else ...] EndIf.
type IfStatement struct {
	If      *IfCommand
	Body    []Statement
	ElseIfs []ElseIfPart
	Else    *ElsePart // nil when absent
	EndIf   Command   // nil when the file ended first
}

func (s *IfStatement) Range() diagnostics.Range {
	rng := s.If.Range()
	if s.EndIf != nil {
		rng = rng.Join(s.EndIf.Range())
	}
	return rng
}
func (*IfStatement) Kind() StatementKind { return StatementIf }
func (*IfStatement) statementNode()      {}

// WhileStatement is While ... EndWhile.
type WhileStatement struct {
	While    *WhileCommand
	Body     []Statement
	EndWhile Command // nil when the file ended first
}

func (s *WhileStatement) Range() diagnostics.Range {
	rng := s.While.Range()
	if s.EndWhile != nil {
		rng = rng.Join(s.EndWhile.Range())
	}
	return rng
}
func (*WhileStatement) Kind() StatementKind { return StatementWhile }
func (*WhileStatement) statementNode()      {}

// ForStatement is For ... EndFor.
type ForStatement struct {
	For    *ForCommand
	Body   []Statement
	EndFor Command // nil when the file ended first
}

func (s *ForStatement) Range() diagnostics.Range {
	rng := s.For.Range()
	if s.EndFor != nil {
		rng = rng.Join(s.EndFor.Range())
	}
	return rng
}
func (*ForStatement) Kind() StatementKind { return StatementFor }
func (*ForStatement) statementNode()      {}

// GoToStatement wraps a GoTo command.
type GoToStatement struct {
	Command *GoToCommand
}

func (s *GoToStatement) Range() diagnostics.Range { return s.Command.Range() }
func (*GoToStatement) Kind() StatementKind         { return StatementGoTo }
func (*GoToStatement) statementNode()              {}

// LabelStatement wraps a label command.
type LabelStatement struct {
	Command *LabelCommand
}

func (s *LabelStatement) Range() diagnostics.Range { return s.Command.Range() }
func (*LabelStatement) Kind() StatementKind         { return StatementLabel }
func (*LabelStatement) statementNode()              {}

// ExpressionStatement wraps an expression command.
type ExpressionStatement struct {
	Command *ExpressionCommand
}

func (s *ExpressionStatement) Range() diagnostics.Range { return s.Command.Range() }
func (*ExpressionStatement) Kind() StatementKind         { return StatementExpression }
func (*ExpressionStatement) statementNode()              {}

// AssignmentStatement wraps an assignment command.
type AssignmentStatement struct {
	Command *AssignmentCommand
}

func (s *AssignmentStatement) Range() diagnostics.Range { return s.Command.Range() }
func (*AssignmentStatement) Kind() StatementKind         { return StatementAssignment }
func (*AssignmentStatement) statementNode()              {}

// ErrorStatement holds a command that could not take part in a statement:
// a line that failed to parse or a misplaced block command.
type ErrorStatement struct {
	Command Command
}

func (s *ErrorStatement) Range() diagnostics.Range { return s.Command.Range() }
func (*ErrorStatement) Kind() StatementKind         { return StatementError }
func (*ErrorStatement) statementNode()              {}
