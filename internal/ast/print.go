package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Text renders an expression back to source form. Output is normalized
// (single spaces, minimal parentheses by node shape), which is enough for
// failure explanations; it is not a formatter.
func Text(e Expr) string {
	var sb strings.Builder
	writeExpr(&sb, e, false)
	return sb.String()
}

func writeExpr(sb *strings.Builder, e Expr, nested bool) {
	switch v := e.(type) {
	case *NameExpr:
		sb.WriteString(v.Name)
	case *NothingLit:
		sb.WriteString("nothing")
	case *BoolLit:
		if v.V {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case *IntLit:
		sb.WriteString(strconv.FormatInt(v.V, 10))
	case *FloatLit:
		s := strconv.FormatFloat(v.V, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		sb.WriteString(s)
	case *StrLit:
		sb.WriteString(strconv.Quote(v.V))
	case *ListExpr:
		sb.WriteByte('[')
		for i, el := range v.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeExpr(sb, el, false)
		}
		sb.WriteByte(']')
	case *MapExpr:
		sb.WriteByte('{')
		for i := range v.Keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeExpr(sb, v.Keys[i], false)
			sb.WriteString(": ")
			writeExpr(sb, v.Vals[i], false)
		}
		sb.WriteByte('}')
	case *UnaryExpr:
		if nested {
			sb.WriteByte('(')
		}
		sb.WriteString(v.Op.String())
		writeExpr(sb, v.X, true)
		if nested {
			sb.WriteByte(')')
		}
	case *BinaryExpr:
		if nested {
			sb.WriteByte('(')
		}
		writeExpr(sb, v.L, true)
		fmt.Fprintf(sb, " %s ", v.Op)
		writeExpr(sb, v.R, true)
		if nested {
			sb.WriteByte(')')
		}
	case *BoolExpr:
		if nested {
			sb.WriteByte('(')
		}
		for i, val := range v.Vals {
			if i > 0 {
				fmt.Fprintf(sb, " %s ", v.Op)
			}
			writeExpr(sb, val, true)
		}
		if nested {
			sb.WriteByte(')')
		}
	case *CompareExpr:
		if nested {
			sb.WriteByte('(')
		}
		writeExpr(sb, v.Left, true)
		for i, op := range v.Ops {
			fmt.Fprintf(sb, " %s ", op)
			writeExpr(sb, v.Rights[i], true)
		}
		if nested {
			sb.WriteByte(')')
		}
	case *CondExpr:
		if nested {
			sb.WriteByte('(')
		}
		writeExpr(sb, v.Cond, true)
		sb.WriteString(" ? ")
		writeExpr(sb, v.Then, true)
		sb.WriteString(" : ")
		writeExpr(sb, v.Else, true)
		if nested {
			sb.WriteByte(')')
		}
	case *CallExpr:
		writeExpr(sb, v.Fn, true)
		sb.WriteByte('(')
		n := 0
		for _, a := range v.Args {
			if n > 0 {
				sb.WriteString(", ")
			}
			writeExpr(sb, a, false)
			n++
		}
		for i, name := range v.KwNames {
			if n > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(name)
			sb.WriteString(": ")
			writeExpr(sb, v.KwVals[i], false)
			n++
		}
		if v.Spread != nil {
			if n > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("...")
			writeExpr(sb, v.Spread, false)
		}
		sb.WriteByte(')')
	case *AttrExpr:
		writeExpr(sb, v.X, true)
		sb.WriteByte('.')
		sb.WriteString(v.Name)
	case *IndexExpr:
		writeExpr(sb, v.X, true)
		sb.WriteByte('[')
		writeExpr(sb, v.Index, false)
		sb.WriteByte(']')
	default:
		sb.WriteString("<expr>")
	}
}
