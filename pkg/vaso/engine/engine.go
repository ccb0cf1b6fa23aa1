// Package engine runs Vaso programs directly over their token sequence.
//
// There is no syntax tree. An instruction pointer walks the tokens, and all
// control flow is a jump to another token position: skipped blocks are
// crossed in one step through the jump map, loops jump back to their
// header, and calls jump into a function body and back out through an
// explicit call frame. The engine owns four pieces of moving state (the
// pointer, the scope stack, the loop stack and the call stack) and every
// closing brace is resolved against them in a fixed order: loop again,
// return from a call, or close an ordinary block.
package engine

import (
	"fmt"

	"github.com/sambeau/vaso/pkg/vaso/errors"
	"github.com/sambeau/vaso/pkg/vaso/lexer"
	"github.com/sambeau/vaso/pkg/vaso/value"
)

// Logger receives console output from print statements.
type Logger interface {
	Log(values ...any)
	LogLine(values ...any)
}

type stdoutLogger struct{}

func (l *stdoutLogger) Log(values ...any) {
	fmt.Print(values...)
}

func (l *stdoutLogger) LogLine(values ...any) {
	fmt.Println(values...)
}

// DefaultLogger writes to stdout.
var DefaultLogger Logger = &stdoutLogger{}

// Dispatcher resolves qualified calls such as Time.now(). It must always
// return a value; failures are error statuses.
type Dispatcher interface {
	Dispatch(module, function string, args []value.Value) value.Value
}

type noDispatcher struct{}

func (noDispatcher) Dispatch(module, function string, args []value.Value) value.Value {
	return value.NewError("Module " + module + " not found")
}

// Options configures an Engine. The zero value is usable: output goes to
// stdout, qualified calls fail, and unbalanced programs are rejected.
type Options struct {
	Logger     Logger
	Dispatcher Dispatcher

	// Diagnostics receives recoverable statement-level problems.
	Diagnostics func(*errors.VasoError)

	// Filename is attached to diagnostics.
	Filename string

	// AllowUnbalanced runs programs with unmatched braces instead of
	// rejecting them. Unmatched openers then skip to the end of the program.
	AllowUnbalanced bool

	// WarnConditions reports conditions that match no recognized shape.
	WarnConditions bool
}

type loopRecord struct {
	depth int // block depth of the loop body
	start int // while: the while token; for-each: the body's '{'

	forEach  bool
	variable string
	items    []value.Value
	index    int
}

type callFrame struct {
	ret   int // position to resume at
	depth int // block depth at the call site
}

// Engine executes one token sequence. It is not safe for concurrent use.
type Engine struct {
	tokens []lexer.Token
	jumps  *JumpMap

	ip    int
	depth int

	scopes *ScopeStack
	loops  []loopRecord
	calls  []callFrame

	// ifTaken records, per block depth, whether the last if at that depth
	// entered its block. An else at the same depth consults it.
	ifTaken map[int]bool

	opts Options
}

// New prepares tokens for execution: it builds the jump map and registers
// every function declaration in the global scope.
func New(tokens []lexer.Token, opts Options) (*Engine, error) {
	if opts.Logger == nil {
		opts.Logger = DefaultLogger
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = noDispatcher{}
	}

	e := &Engine{
		tokens:  tokens,
		jumps:   BuildJumpMap(tokens),
		scopes:  NewScopeStack(),
		ifTaken: make(map[int]bool),
		opts:    opts,
	}

	if err := e.checkBlocks(); err != nil {
		return nil, err
	}
	e.declareFunctions(0)

	return e, nil
}

func (e *Engine) checkBlocks() error {
	if e.opts.AllowUnbalanced {
		return nil
	}
	if err := e.jumps.Err(e.tokens); err != nil {
		return err.WithFile(e.opts.Filename)
	}
	return nil
}

// Run executes until the pointer passes the last token.
func (e *Engine) Run() {
	for !e.Halted() {
		e.step()
	}
}

// Append extends the program with more tokens and rebuilds the jump map.
// Run then continues from where the previous program ended, with all
// variables and functions still bound. The engine is left unchanged when
// the combined program is rejected.
func (e *Engine) Append(tokens []lexer.Token) error {
	from := len(e.tokens)
	combined := append(e.tokens[:from:from], tokens...)

	jumps := BuildJumpMap(combined)
	if !e.opts.AllowUnbalanced {
		if err := jumps.Err(combined); err != nil {
			return err.WithFile(e.opts.Filename)
		}
	}

	e.tokens = combined
	e.jumps = jumps
	e.declareFunctions(from)
	return nil
}

// Lookup returns the value bound to name in the innermost scope holding it.
func (e *Engine) Lookup(name string) (value.Value, bool) {
	return e.scopes.Get(name)
}

// Names returns every visible variable and function name.
func (e *Engine) Names() []string {
	return e.scopes.Names()
}

// Halted reports whether the pointer has passed the last token.
func (e *Engine) Halted() bool { return e.ip >= len(e.tokens) }

// step executes the statement or block marker under the pointer.
func (e *Engine) step() {
	switch e.tokens[e.ip].Type {
	case lexer.LBRACE:
		e.depth++
		e.ip++
	case lexer.RBRACE:
		e.closeBlock()
	case lexer.IF:
		e.execIf()
	case lexer.ELSE:
		e.execElse()
	case lexer.WHILE:
		e.execWhile()
	case lexer.FOR:
		e.execFor()
	case lexer.MATCH:
		e.execMatch()
	case lexer.FUNCTION:
		e.skipFunction()
	case lexer.PRINT:
		e.ip = e.execPrint(e.ip)
	case lexer.VAL, lexer.VAR:
		e.ip = e.execDeclaration(e.ip)
	case lexer.IDENT:
		e.ip = e.execIdent(e.ip)
	default:
		e.ip++
	}
}

// closeBlock resolves a '}' as, in order: the next loop iteration, a
// return from the current call, or an ordinary block close.
func (e *Engine) closeBlock() {
	if n := len(e.loops); n > 0 && e.loops[n-1].depth == e.depth {
		rec := &e.loops[n-1]
		if !rec.forEach {
			// Back to the while token; the condition decides again.
			e.ip = rec.start
			e.depth--
			return
		}

		rec.index++
		if rec.index < len(rec.items) {
			e.scopes.Set(rec.variable, value.Copy(rec.items[rec.index]))
			// Re-entering through the '{' restores the body depth.
			e.ip = rec.start
			e.depth--
			return
		}
		e.loops = e.loops[:n-1]
	}

	if n := len(e.calls); n > 0 && e.calls[n-1].depth+1 == e.depth {
		frame := e.calls[n-1]
		e.calls = e.calls[:n-1]
		e.scopes.Pop()
		e.ip = frame.ret
		e.depth--
		return
	}

	if e.depth > 0 {
		e.depth--
	}
	e.ip++
}

// skipBlock moves the pointer just past the '}' matching the '{' at open.
// An unmatched opener skips the rest of the program.
func (e *Engine) skipBlock(open int) {
	if end, ok := e.jumps.Close(open); ok {
		e.ip = end + 1
		return
	}
	e.ip = len(e.tokens)
}

// findBrace returns the first '{' at or after pos.
func (e *Engine) findBrace(pos int) (int, bool) {
	for i := pos; i < len(e.tokens); i++ {
		if e.tokens[i].Type == lexer.LBRACE {
			return i, true
		}
	}
	return 0, false
}

func (e *Engine) skipFunction() {
	brace, ok := e.findBrace(e.ip)
	if !ok {
		e.ip = len(e.tokens)
		return
	}
	e.skipBlock(brace)
}

// declareFunctions registers every 'fn name(params) {' header at or after
// from as a Function value in the global scope.
func (e *Engine) declareFunctions(from int) {
	for i := from; i+2 < len(e.tokens); i++ {
		if e.tokens[i].Type != lexer.FUNCTION || e.tokens[i+1].Type != lexer.IDENT || e.tokens[i+2].Type != lexer.LPAREN {
			continue
		}

		var params []string
		j := i + 3
		for j < len(e.tokens) && e.tokens[j].Type != lexer.RPAREN {
			if e.tokens[j].Type == lexer.IDENT {
				params = append(params, e.tokens[j].Literal)
			}
			j++
		}
		if j+1 >= len(e.tokens) || e.tokens[j+1].Type != lexer.LBRACE {
			continue
		}

		e.scopes.Global()[e.tokens[i+1].Literal] = value.Function{Body: j + 1, Params: params}
	}
}

func (e *Engine) warn(err *errors.VasoError) {
	if e.opts.Diagnostics == nil {
		return
	}
	if err.File == "" {
		err = err.WithFile(e.opts.Filename)
	}
	e.opts.Diagnostics(err)
}

func (e *Engine) warnAt(pos int, code string, data map[string]any) {
	tok := e.tokens[pos]
	e.warn(errors.NewWithPosition(code, tok.Line, tok.Column, data))
}

func (e *Engine) tokenAt(pos int) lexer.Token {
	if pos < 0 || pos >= len(e.tokens) {
		return lexer.Token{Type: lexer.EOF}
	}
	return e.tokens[pos]
}
