package ast

// UnaryOp enumerates prefix operators.
type UnaryOp uint8

const (
	OpNot UnaryOp = iota // not
	OpNeg                // -
	OpPos                // +
	OpInvert             // ~
)

func (op UnaryOp) String() string {
	switch op {
	case OpNot:
		return "not "
	case OpNeg:
		return "-"
	case OpPos:
		return "+"
	case OpInvert:
		return "~"
	default:
		return "?"
	}
}

// BinOp enumerates arithmetic and bitwise operators.
type BinOp uint8

const (
	OpAdd BinOp = iota // +
	OpSub              // -
	OpMul              // *
	OpDiv              // /
	OpMod              // %
	OpShl              // <<
	OpShr              // >>
	OpBitAnd           // &
	OpBitOr            // |
	OpBitXor           // ^
)

func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpShl:
		return "<<"
	case OpShr:
		return ">>"
	case OpBitAnd:
		return "&"
	case OpBitOr:
		return "|"
	case OpBitXor:
		return "^"
	default:
		return "?"
	}
}

// BoolOp enumerates the short-circuit operators.
type BoolOp uint8

const (
	OpAnd BoolOp = iota // and
	OpOr                // or
)

func (op BoolOp) String() string {
	if op == OpOr {
		return "or"
	}
	return "and"
}

// CmpOp enumerates comparison operators.
type CmpOp uint8

const (
	OpEq CmpOp = iota // ==
	OpNe              // !=
	OpLt              // <
	OpLe              // <=
	OpGt              // >
	OpGe              // >=
	OpIn              // in
)

func (op CmpOp) String() string {
	switch op {
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpIn:
		return "in"
	default:
		return "?"
	}
}
