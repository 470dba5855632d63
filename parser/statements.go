package parser

import (
	"github.com/sergev/sbasic/diagnostics"
	"github.com/sergev/sbasic/internal/invariant"
)

// parseTree folds the command list into block statements. Sub-modules are only
// recognised at the top level.
func (p *parser) parseTree() *ParseTree {
	tree := &ParseTree{}
	for p.cmdPos < len(p.commands) {
		start := p.cmdPos
		if sub, ok := p.commands[p.cmdPos].(*SubCommand); ok {
			p.cmdPos++
			tree.Subs = append(tree.Subs, p.parseSubModule(sub))
		} else {
			tree.Main = append(tree.Main, p.parseStatement(""))
		}
		invariant.Invariant(p.cmdPos > start, "statement parser must advance")
	}
	tree.Misnested = p.misnested
	return tree
}

// intendedKind returns the kind a command was meant to be. A line that failed
// to parse counts as the block command its first keyword names, so a single
// bad line does not unbalance the blocks around it.
func intendedKind(cmd Command) CommandKind {
	ec, ok := cmd.(*ErrorCommand)
	if !ok {
		return cmd.Kind()
	}
	switch ec.Tokens[0].Kind {
	case TokenSub:
		return CommandSub
	case TokenEndSub:
		return CommandEndSub
	case TokenIf:
		return CommandIf
	case TokenElseIf:
		return CommandElseIf
	case TokenElse:
		return CommandElse
	case TokenEndIf:
		return CommandEndIf
	case TokenWhile:
		return CommandWhile
	case TokenEndWhile:
		return CommandEndWhile
	case TokenFor:
		return CommandFor
	case TokenEndFor:
		return CommandEndFor
	default:
		return CommandError
	}
}

func (p *parser) nextCommandKind() (CommandKind, bool) {
	if p.cmdPos >= len(p.commands) {
		return 0, false
	}
	return intendedKind(p.commands[p.cmdPos]), true
}

// parseBlock parses statements until the closing command, one of the stop
// commands, a command that ends an enclosing block or the end of input. The
// command it stopped at is left for the caller.
func (p *parser) parseBlock(closing CommandKind, stop ...CommandKind) []Statement {
	outer := p.enclosing
	p.enclosing = append(append(outer[:len(outer):len(outer)], closing), stop...)
	defer func() { p.enclosing = outer }()

	var body []Statement
	for {
		kind, ok := p.nextCommandKind()
		if !ok || kind == closing || containsKind(stop, kind) || containsKind(outer, kind) {
			return body
		}
		body = append(body, p.parseStatement(closing.String()))
	}
}

func containsKind(kinds []CommandKind, kind CommandKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (p *parser) consume(kind CommandKind) (Command, bool) {
	if k, ok := p.nextCommandKind(); ok && k == kind {
		cmd := p.commands[p.cmdPos]
		p.cmdPos++
		return cmd, true
	}
	return nil, false
}

// closeBlock consumes the closing command of a block opened by opener. A
// missing terminator is reported against the opener.
func (p *parser) closeBlock(opener Command, closing CommandKind) Command {
	cmd, ok := p.consume(closing)
	if !ok {
		if p.cmdPos < len(p.commands) {
			p.misnested = true
		}
		p.diags.Report(diagnostics.UnexpectedEOFExpectingCommand, opener.Range(), closing.String())
	}
	return cmd
}

func (p *parser) parseSubModule(sub *SubCommand) *SubModule {
	decl := &SubModule{Sub: sub}
	decl.Body = p.parseBlock(CommandEndSub)
	decl.EndSub = p.closeBlock(sub, CommandEndSub)
	return decl
}

// parseStatement consumes at least one command. expected names the command
// that closes the innermost open block, or is empty at the top level.
func (p *parser) parseStatement(expected string) Statement {
	cmd := p.commands[p.cmdPos]
	p.cmdPos++

	switch c := cmd.(type) {
	case *IfCommand:
		return p.parseIf(c)
	case *WhileCommand:
		stmt := &WhileStatement{While: c}
		stmt.Body = p.parseBlock(CommandEndWhile)
		stmt.EndWhile = p.closeBlock(c, CommandEndWhile)
		return stmt
	case *ForCommand:
		stmt := &ForStatement{For: c}
		stmt.Body = p.parseBlock(CommandEndFor)
		stmt.EndFor = p.closeBlock(c, CommandEndFor)
		return stmt
	case *GoToCommand:
		return &GoToStatement{Command: c}
	case *LabelCommand:
		return &LabelStatement{Command: c}
	case *ExpressionCommand:
		return &ExpressionStatement{Command: c}
	case *AssignmentCommand:
		return &AssignmentStatement{Command: c}
	case *ErrorCommand:
		p.skipBrokenBlock(c)
		return &ErrorStatement{Command: c}
	case *SubCommand:
		// The nested body is dropped so that its EndSub is not reported a
		// second time.
		p.diags.Report(diagnostics.CannotDefineSubInsideBlock, c.Range())
		p.parseBlock(CommandEndSub)
		p.consume(CommandEndSub)
		return &ErrorStatement{Command: c}
	case *EndSubCommand, *ElseIfCommand, *ElseCommand, *EndIfCommand, *EndWhileCommand, *EndForCommand:
		if expected == "" {
			expected = openerOf(c.Kind()).String()
		}
		p.diags.Report(diagnostics.UnexpectedCommandExpectingCommand, c.Range(), c.Kind().String(), expected)
		return &ErrorStatement{Command: c}
	default:
		invariant.Unreachable("unexpected command kind %s", cmd.Kind())
		return nil
	}
}

// skipBrokenBlock consumes the body of a block whose opening line failed to
// parse. The line was already diagnosed, so a missing terminator is not.
func (p *parser) skipBrokenBlock(c *ErrorCommand) {
	switch intendedKind(c) {
	case CommandIf:
		for {
			p.parseBlock(CommandEndIf, CommandElseIf, CommandElse)
			if _, ok := p.consume(CommandElseIf); ok {
				continue
			}
			if _, ok := p.consume(CommandElse); ok {
				continue
			}
			break
		}
		p.consume(CommandEndIf)
	case CommandWhile:
		p.parseBlock(CommandEndWhile)
		p.consume(CommandEndWhile)
	case CommandFor:
		p.parseBlock(CommandEndFor)
		p.consume(CommandEndFor)
	case CommandSub:
		p.parseBlock(CommandEndSub)
		p.consume(CommandEndSub)
	}
}

func openerOf(kind CommandKind) CommandKind {
	switch kind {
	case CommandEndSub:
		return CommandSub
	case CommandElseIf, CommandElse, CommandEndIf:
		return CommandIf
	case CommandEndWhile:
		return CommandWhile
	case CommandEndFor:
		return CommandFor
	default:
		return kind
	}
}

func (p *parser) parseIf(c *IfCommand) Statement {
	stmt := &IfStatement{If: c}
	stmt.Body = p.parseBlock(CommandEndIf, CommandElseIf, CommandElse)
	for {
		elseIf, ok := p.consume(CommandElseIf)
		if !ok {
			break
		}
		body := p.parseBlock(CommandEndIf, CommandElseIf, CommandElse)
		stmt.ElseIfs = append(stmt.ElseIfs, ElseIfPart{ElseIf: elseIf, Body: body})
	}
	if elseCmd, ok := p.consume(CommandElse); ok {
		stmt.Else = &ElsePart{Else: elseCmd, Body: p.parseBlock(CommandEndIf)}
	}
	stmt.EndIf = p.closeBlock(c, CommandEndIf)
	return stmt
}
