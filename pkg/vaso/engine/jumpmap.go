package engine

import (
	"github.com/sambeau/vaso/pkg/vaso/errors"
	"github.com/sambeau/vaso/pkg/vaso/lexer"
)

// JumpMap pairs every '{' with its matching '}' by token position.
type JumpMap struct {
	close []int // open position -> close position, -1 if none

	unmatchedOpen  []int
	unmatchedClose []int
}

// BuildJumpMap scans the tokens once, left to right, pushing each '{' and
// pairing it with the next '}' that pops it. A '}' met with an empty stack is
// recorded as unmatched and otherwise ignored.
func BuildJumpMap(tokens []lexer.Token) *JumpMap {
	m := &JumpMap{
		close: make([]int, len(tokens)),
	}
	for i := range m.close {
		m.close[i] = -1
	}

	var stack []int
	for i, tok := range tokens {
		switch tok.Type {
		case lexer.LBRACE:
			stack = append(stack, i)
		case lexer.RBRACE:
			if len(stack) == 0 {
				m.unmatchedClose = append(m.unmatchedClose, i)
				continue
			}
			o := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			m.close[o] = i
		}
	}
	m.unmatchedOpen = stack

	return m
}

// Close returns the position of the '}' matching the '{' at pos.
func (m *JumpMap) Close(pos int) (int, bool) {
	if pos < 0 || pos >= len(m.close) || m.close[pos] < 0 {
		return 0, false
	}
	return m.close[pos], true
}

// Balanced reports whether every brace found a partner.
func (m *JumpMap) Balanced() bool {
	return len(m.unmatchedOpen) == 0 && len(m.unmatchedClose) == 0
}

// Err reports the first unmatched brace in source order as a BLOCK-0001 or
// BLOCK-0002 error, or nil when the map is balanced.
func (m *JumpMap) Err(tokens []lexer.Token) *errors.VasoError {
	if m.Balanced() {
		return nil
	}

	pos, code := -1, ""
	if len(m.unmatchedClose) > 0 {
		pos, code = m.unmatchedClose[0], "BLOCK-0002"
	}
	if len(m.unmatchedOpen) > 0 && (pos < 0 || m.unmatchedOpen[0] < pos) {
		pos, code = m.unmatchedOpen[0], "BLOCK-0001"
	}

	tok := tokens[pos]
	return errors.NewWithPosition(code, tok.Line, tok.Column, nil)
}
