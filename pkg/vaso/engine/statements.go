package engine

import (
	"strconv"

	"github.com/sambeau/vaso/pkg/vaso/errors"
	"github.com/sambeau/vaso/pkg/vaso/lexer"
	"github.com/sambeau/vaso/pkg/vaso/value"
)

var binaryOps = map[lexer.TokenType]value.Op{
	lexer.PLUS:     value.OpAdd,
	lexer.MINUS:    value.OpSub,
	lexer.ASTERISK: value.OpMul,
	lexer.SLASH:    value.OpDiv,
	lexer.LT:       value.OpLess,
	lexer.GT:       value.OpGreater,
	lexer.EQ:       value.OpEqual,
	lexer.NOT_EQ:   value.OpNotEqual,
}

var compoundOps = map[lexer.TokenType]value.Op{
	lexer.PLUS_ASSIGN:  value.OpAdd,
	lexer.MINUS_ASSIGN: value.OpSub,
	lexer.MUL_ASSIGN:   value.OpMul,
	lexer.DIV_ASSIGN:   value.OpDiv,
}

// resolve reads a variable. Unbound names read as an error status.
func (e *Engine) resolve(name string) value.Value {
	if v, ok := e.scopes.Get(name); ok {
		return v
	}
	return value.NewError("Var '" + name + "' not found")
}

func statusLiteral(tok lexer.Token) value.Status {
	level := caseLevels[tok.Type]
	if level == value.Error {
		return value.NewError("Generic Error")
	}
	return value.NewStatus(level, "")
}

// simpleOperand reads a literal or variable at pos.
func (e *Engine) simpleOperand(pos int) (value.Value, bool) {
	tok := e.tokenAt(pos)
	switch {
	case tok.Type == lexer.INT:
		n, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			return value.NewError("Invalid Integer '" + tok.Literal + "'"), true
		}
		return value.Int{Value: n}, true
	case tok.Type == lexer.STRING:
		return value.Str{Value: tok.Literal}, true
	case tok.Type.IsStatus():
		return statusLiteral(tok), true
	case tok.Type == lexer.IDENT:
		return e.resolve(tok.Literal), true
	}
	return nil, false
}

// operand reads a simple operand or a list literal at pos and returns the
// position after it.
func (e *Engine) operand(pos int) (value.Value, int, bool) {
	if e.tokenAt(pos).Type == lexer.LBRACKET {
		return e.listLiteral(pos)
	}
	v, ok := e.simpleOperand(pos)
	return v, pos + 1, ok
}

// listLiteral reads '[a, b, ...]' starting at the '[' at pos.
func (e *Engine) listLiteral(pos int) (value.Value, int, bool) {
	var elements []value.Value
	p := pos + 1
	for {
		switch e.tokenAt(p).Type {
		case lexer.RBRACKET:
			return value.List{Elements: elements}, p + 1, true
		case lexer.COMMA:
			p++
			continue
		}
		v, next, ok := e.operand(p)
		if !ok {
			return nil, p, false
		}
		elements = append(elements, value.Copy(v))
		p = next
	}
}

// arguments reads '(a, b, ...)' starting at the '(' at pos and returns the
// values and the position after ')'.
func (e *Engine) arguments(pos int) ([]value.Value, int, bool) {
	if e.tokenAt(pos).Type != lexer.LPAREN {
		return nil, pos, false
	}
	var args []value.Value
	p := pos + 1
	for {
		switch e.tokenAt(p).Type {
		case lexer.RPAREN:
			return args, p + 1, true
		case lexer.COMMA:
			p++
			continue
		}
		v, next, ok := e.operand(p)
		if !ok {
			return nil, p, false
		}
		args = append(args, value.Copy(v))
		p = next
	}
}

// qualifiedCall evaluates 'Module.fn(args)' at pos.
func (e *Engine) qualifiedCall(pos int) (value.Value, int, bool) {
	if e.tokenAt(pos+1).Type != lexer.DOT || e.tokenAt(pos+2).Type != lexer.IDENT {
		return nil, pos, false
	}
	args, next, ok := e.arguments(pos + 3)
	if !ok {
		return nil, pos, false
	}
	module, function := e.tokens[pos].Literal, e.tokens[pos+2].Literal
	return e.opts.Dispatcher.Dispatch(module, function, args), next, true
}

// expression reads an assignment right-hand side at pos: a qualified call,
// an operand, or 'operand op operand' on one line.
func (e *Engine) expression(pos int) (value.Value, int, bool) {
	if e.tokenAt(pos).Type == lexer.IDENT && e.tokenAt(pos+1).Type == lexer.DOT {
		return e.qualifiedCall(pos)
	}

	left, next, ok := e.operand(pos)
	if !ok {
		return nil, pos, false
	}

	opTok := e.tokenAt(next)
	op, isOp := binaryOps[opTok.Type]
	if !isOp || opTok.Line != e.tokens[next-1].Line {
		return left, next, true
	}
	right, after, ok := e.operand(next + 1)
	if !ok {
		return left, next, true
	}
	return value.Apply(left, right, op), after, true
}

// isAssignment reports whether the identifier at pos starts an assignment.
func (e *Engine) isAssignment(pos int) bool {
	t := e.tokenAt(pos + 1).Type
	return t.IsAssign() || t.IsCompoundAssign()
}

// execDeclaration runs 'val|var name = rhs', binding in the innermost scope.
func (e *Engine) execDeclaration(pos int) int {
	if e.tokenAt(pos+1).Type != lexer.IDENT || !e.tokenAt(pos+2).Type.IsAssign() {
		return pos + 1
	}
	return e.assign(pos+1, true)
}

// execIdent runs a statement starting with an identifier: an assignment,
// a compound assignment, a user function call or a qualified call whose
// result is discarded.
func (e *Engine) execIdent(pos int) int {
	switch e.tokenAt(pos + 1).Type {
	case lexer.ASSIGN:
		return e.assign(pos, false)
	case lexer.WALRUS:
		return e.assign(pos, true)
	case lexer.PLUS_ASSIGN, lexer.MINUS_ASSIGN, lexer.MUL_ASSIGN, lexer.DIV_ASSIGN:
		return e.compoundAssign(pos)
	case lexer.LPAREN:
		return e.call(pos)
	case lexer.DOT:
		if _, next, ok := e.qualifiedCall(pos); ok {
			return next
		}
	}
	return pos + 1
}

// assign evaluates the right-hand side of 'name = rhs' (name at pos) and
// binds it. Declarations bind in the innermost scope; plain assignments
// update the nearest existing binding.
func (e *Engine) assign(pos int, declare bool) int {
	name := e.tokens[pos].Literal
	v, next, ok := e.expression(pos + 2)
	if !ok {
		e.warnAt(pos+2, "RUN-0004", map[string]any{"Name": name})
		return pos + 3
	}

	v = value.Copy(v)
	if declare {
		e.scopes.Declare(name, v)
	} else {
		e.scopes.Set(name, v)
	}
	return next
}

func (e *Engine) compoundAssign(pos int) int {
	name := e.tokens[pos].Literal
	op := compoundOps[e.tokens[pos+1].Type]

	rhs, next, ok := e.expression(pos + 2)
	if !ok {
		e.warnAt(pos+2, "RUN-0004", map[string]any{"Name": name})
		return pos + 3
	}

	e.scopes.Set(name, value.ApplyAssign(e.resolve(name), rhs, op))
	return next
}

// call enters the user function named at pos. The frame records where to
// resume and the caller's depth; the body's outermost '}' returns.
func (e *Engine) call(pos int) int {
	name := e.tokens[pos].Literal
	args, next, ok := e.arguments(pos + 1)
	if !ok {
		return pos + 1
	}

	v, _ := e.scopes.Get(name)
	fn, isFunc := v.(value.Function)
	if !isFunc {
		tok := e.tokens[pos]
		e.warn(errors.NewUndefinedFunction(name, tok.Line, tok.Column, e.functionNames()))
		return next
	}

	e.calls = append(e.calls, callFrame{ret: next, depth: e.depth})
	e.scopes.Push()
	for i, param := range fn.Params {
		if i < len(args) {
			e.scopes.Declare(param, args[i])
		} else {
			e.scopes.Declare(param, value.NewStatus(value.Unknown, "Missing Arg"))
		}
	}
	return fn.Body
}

func (e *Engine) functionNames() []string {
	var names []string
	for _, name := range e.scopes.Names() {
		if v, _ := e.scopes.Get(name); v.Type() == value.FUNCTION_VALUE {
			names = append(names, name)
		}
	}
	return names
}

// execPrint writes one line for 'print(x)'. String and status literals
// print as written; everything else prints its rendered value. An unbound
// variable prints an empty line.
func (e *Engine) execPrint(pos int) int {
	p := pos + 1
	paren := e.tokenAt(p).Type == lexer.LPAREN
	if paren {
		p++
	}

	tok := e.tokenAt(p)
	var text string
	next := p + 1

	switch {
	case tok.Type == lexer.STRING:
		text = tok.Literal
	case tok.Type.IsStatus():
		text = caseLevels[tok.Type].String()
	case tok.Type == lexer.RPAREN:
		next = p
	case tok.Type == lexer.IDENT && (!paren || e.tokenAt(p+1).Type == lexer.RPAREN):
		if v, ok := e.scopes.Get(tok.Literal); ok {
			text = v.Inspect()
		}
	default:
		v, after, ok := e.expression(p)
		if ok {
			text = v.Inspect()
			next = after
		}
	}

	if paren {
		for next < len(e.tokens) && e.tokens[next].Type != lexer.RPAREN {
			next++
		}
		next++
	}

	e.opts.Logger.LogLine(text)
	return next
}
