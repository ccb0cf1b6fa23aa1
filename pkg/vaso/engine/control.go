package engine

import (
	"github.com/sambeau/vaso/pkg/vaso/lexer"
	"github.com/sambeau/vaso/pkg/vaso/value"
)

var conditionOps = map[lexer.TokenType]value.Op{
	lexer.LT:     value.OpLess,
	lexer.GT:     value.OpGreater,
	lexer.EQ:     value.OpEqual,
	lexer.NOT_EQ: value.OpNotEqual,
}

// condition evaluates the fixed condition shapes that may sit between a
// keyword at pos and the block's '{' at brace:
//
//	x < operand    x > operand    x == operand    x != operand
//	x              (true when x is the status on)
//
// Anything else is reported as not recognized and treated as false.
// A comparison only holds between two Ints, two Strs or two statuses (by
// level); an unbound name or a status against any other value is false.
func (e *Engine) condition(pos, brace int) (result, recognized bool) {
	switch brace - pos - 1 {
	case 1:
		tok := e.tokens[pos+1]
		if tok.Type != lexer.IDENT {
			return false, false
		}
		return value.IsOn(e.resolve(tok.Literal)), true
	case 3:
		op, ok := conditionOps[e.tokens[pos+2].Type]
		if !ok {
			return false, false
		}
		left, lok := e.simpleOperand(pos + 1)
		right, rok := e.simpleOperand(pos + 3)
		if !lok || !rok {
			return false, false
		}
		if !e.bound(pos+1) || !e.bound(pos+3) {
			return false, true
		}
		return compare(left, right, op), true
	}
	return false, false
}

// bound reports whether the operand at pos is a literal or a set variable.
func (e *Engine) bound(pos int) bool {
	tok := e.tokens[pos]
	if tok.Type != lexer.IDENT {
		return true
	}
	_, ok := e.scopes.Get(tok.Literal)
	return ok
}

// compare tests left op right without letting a status infect the result.
func compare(left, right value.Value, op value.Op) bool {
	_, lstatus := left.(value.Status)
	_, rstatus := right.(value.Status)
	if lstatus != rstatus {
		return false
	}
	if lstatus && op != value.OpEqual && op != value.OpNotEqual {
		return false
	}
	return value.IsOn(value.Apply(left, right, op))
}

// test evaluates the header of the if or while at pos. It returns the
// position of the block's '{', or false when there is none.
func (e *Engine) test(pos int) (brace int, result bool, ok bool) {
	brace, ok = e.findBrace(pos + 1)
	if !ok {
		return 0, false, false
	}

	result, recognized := e.condition(pos, brace)
	if !recognized && e.opts.WarnConditions {
		e.warnAt(pos, "RUN-0003", map[string]any{"Keyword": e.tokens[pos].Literal})
	}
	return brace, result, true
}

func (e *Engine) execIf() {
	brace, result, ok := e.test(e.ip)
	if !ok {
		e.ip = len(e.tokens)
		return
	}

	e.ifTaken[e.depth] = result
	if result {
		e.ip = brace
		return
	}
	e.skipBlock(brace)
}

// execElse skips the else block when the preceding if at this depth ran.
// 'else if' chains work because the skipped if leaves the record intact.
func (e *Engine) execElse() {
	if e.ifTaken[e.depth] {
		brace, ok := e.findBrace(e.ip + 1)
		if !ok {
			e.ip = len(e.tokens)
			return
		}
		e.skipBlock(brace)
		return
	}
	e.ip++
}

func (e *Engine) execWhile() {
	start := e.ip
	brace, result, ok := e.test(start)
	if !ok {
		e.ip = len(e.tokens)
		return
	}

	n := len(e.loops)
	current := n > 0 && e.loops[n-1].depth == e.depth+1 && e.loops[n-1].start == start

	if !result {
		if current {
			e.loops = e.loops[:n-1]
		}
		e.skipBlock(brace)
		return
	}

	if !current {
		e.loops = append(e.loops, loopRecord{depth: e.depth + 1, start: start})
	}
	e.ip = brace
}

// execFor handles 'for item in list {'. The list is snapshotted on entry;
// later changes to the variable do not affect the running loop.
func (e *Engine) execFor() {
	pos := e.ip
	brace, ok := e.findBrace(pos + 1)
	if !ok {
		e.ip = len(e.tokens)
		return
	}

	if brace-pos != 4 || e.tokens[pos+1].Type != lexer.IDENT || e.tokens[pos+2].Type != lexer.IN || e.tokens[pos+3].Type != lexer.IDENT {
		if e.opts.WarnConditions {
			e.warnAt(pos, "RUN-0003", map[string]any{"Keyword": "for"})
		}
		e.skipBlock(brace)
		return
	}

	if n := len(e.loops); n > 0 && e.loops[n-1].depth == e.depth+1 && e.loops[n-1].start == brace {
		e.ip = brace
		return
	}

	name := e.tokens[pos+3].Literal
	list, isList := e.resolve(name).(value.List)
	if !isList {
		got := "nothing"
		if v, found := e.scopes.Get(name); found {
			got = string(v.Type())
		}
		e.warnAt(pos+3, "RUN-0001", map[string]any{"Got": got, "Name": name})
		e.skipBlock(brace)
		return
	}
	if len(list.Elements) == 0 {
		e.skipBlock(brace)
		return
	}

	items := value.Copy(list).(value.List).Elements
	variable := e.tokens[pos+1].Literal
	e.scopes.Set(variable, items[0])
	e.loops = append(e.loops, loopRecord{
		depth:    e.depth + 1,
		start:    brace,
		forEach:  true,
		variable: variable,
		items:    items,
	})
	e.ip = brace
}

var caseLevels = map[lexer.TokenType]value.Level{
	lexer.OFF:     value.Off,
	lexer.ON:      value.On,
	lexer.LOADING: value.Loading,
	lexer.ERROR:   value.Error,
	lexer.UNKNOWN: value.Unknown,
}

// execMatch runs 'match x { on => { ... } error => { ... } }'. Only the
// first case whose literal names x's status level runs. The whole match
// block is left in one jump afterwards.
func (e *Engine) execMatch() {
	pos := e.ip
	brace, ok := e.findBrace(pos + 1)
	if !ok {
		e.ip = len(e.tokens)
		return
	}
	end, ok := e.jumps.Close(brace)
	if !ok {
		e.ip = len(e.tokens)
		return
	}

	var subject value.Value = value.NewStatus(value.Unknown, "")
	if tok := e.tokenAt(pos + 1); tok.Type == lexer.IDENT {
		if v, found := e.scopes.Get(tok.Literal); found {
			subject = v
		}
	}
	status, isStatus := subject.(value.Status)

	matched := false
	for i := brace + 1; i < end; {
		level, isCase := caseLevels[e.tokens[i].Type]
		if !isCase || e.tokenAt(i+1).Type != lexer.ARROW || e.tokenAt(i+2).Type != lexer.LBRACE {
			i++
			continue
		}

		body := i + 2
		bodyEnd, ok := e.jumps.Close(body)
		if !ok || bodyEnd > end {
			break
		}
		if !matched && isStatus && status.Level == level {
			matched = true
			e.execCaseBody(body+1, bodyEnd)
		}
		i = bodyEnd + 1
	}

	e.ip = end + 1
}

// execCaseBody runs the statements between from and end. Case bodies
// support print and assignments only.
func (e *Engine) execCaseBody(from, end int) {
	for p := from; p < end; {
		tok := e.tokens[p]
		switch {
		case tok.Type == lexer.SEMICOLON:
			p++
		case tok.Type == lexer.PRINT:
			p = e.execPrint(p)
		case tok.Type == lexer.VAL || tok.Type == lexer.VAR:
			p = e.execDeclaration(p)
		case tok.Type == lexer.IDENT && e.isAssignment(p):
			p = e.execIdent(p)
		default:
			e.warnAt(p, "RUN-0005", map[string]any{"Token": tok.Literal})
			p = e.skipLine(p, end)
		}
	}
}

// skipLine advances from pos to the first token on a later line, stepping
// over whole blocks, without passing end.
func (e *Engine) skipLine(pos, end int) int {
	line := e.tokens[pos].Line
	for pos < end && e.tokens[pos].Line == line {
		if e.tokens[pos].Type == lexer.LBRACE {
			if blockEnd, ok := e.jumps.Close(pos); ok {
				pos = blockEnd + 1
				line = e.tokens[blockEnd].Line
				continue
			}
		}
		pos++
	}
	return min(pos, end)
}
