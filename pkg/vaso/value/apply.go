package value

// Op is a binary operator understood by Apply. Compound assignments map to
// their arithmetic counterpart (+= is OpAdd and so on) and go through
// ApplyAssign.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpLess
	OpGreater
	OpEqual
	OpNotEqual
)

var opSymbols = [...]string{"+", "-", "*", "/", "<", ">", "==", "!="}

func (op Op) String() string {
	if int(op) < len(opSymbols) {
		return opSymbols[op]
	}
	return "?"
}

// Rank returns the dominance rank of a status level:
// error > unknown > loading > on > off.
func Rank(l Level) int {
	switch l {
	case Error:
		return 4
	case Unknown:
		return 3
	case Loading:
		return 2
	case On:
		return 1
	default:
		return 0
	}
}

// Combine returns the dominant status, message included. Ties go to a.
func Combine(a, b Status) Status {
	if Rank(b.Level) > Rank(a.Level) {
		return b
	}
	return a
}

// Apply evaluates left op right. It is total: failures come back as error
// statuses and no combination panics.
func Apply(left, right Value, op Op) Value {
	ls, lok := left.(Status)
	rs, rok := right.(Status)

	switch {
	case lok && rok:
		return applyStatus(ls, rs, op)
	case lok:
		return ls
	case rok:
		return rs
	}

	switch l := left.(type) {
	case Int:
		if r, ok := right.(Int); ok {
			return applyInt(l.Value, r.Value, op)
		}
	case Str:
		if r, ok := right.(Str); ok {
			return applyStr(l.Value, r.Value, op)
		}
	}

	return NewError("TypeError: Mismatch")
}

// ApplyAssign evaluates a compound assignment 'current op= rhs'. Two
// statuses always combine by dominance, whatever the operator; every other
// pair behaves as in Apply.
func ApplyAssign(current, rhs Value, op Op) Value {
	ls, lok := current.(Status)
	rs, rok := rhs.(Status)
	if lok && rok {
		return Combine(ls, rs)
	}
	return Apply(current, rhs, op)
}

func applyStatus(l, r Status, op Op) Value {
	switch op {
	case OpAdd:
		return Combine(l, r)
	case OpEqual:
		return FromBool(l.Level == r.Level)
	case OpNotEqual:
		return FromBool(l.Level != r.Level)
	}
	return NewError("Invalid VBit Op")
}

func applyInt(a, b int64, op Op) Value {
	switch op {
	case OpAdd:
		return Int{Value: a + b}
	case OpSub:
		return Int{Value: a - b}
	case OpMul:
		return Int{Value: a * b}
	case OpDiv:
		if b == 0 {
			return NewError("Division by Zero")
		}
		return Int{Value: a / b}
	case OpLess:
		return FromBool(a < b)
	case OpGreater:
		return FromBool(a > b)
	case OpEqual:
		return FromBool(a == b)
	case OpNotEqual:
		return FromBool(a != b)
	}
	return NewError("Invalid Integer Op")
}

func applyStr(a, b string, op Op) Value {
	switch op {
	case OpAdd:
		return Str{Value: a + b}
	case OpEqual:
		return FromBool(a == b)
	case OpNotEqual:
		return FromBool(a != b)
	}
	return NewError("Invalid String Op")
}
