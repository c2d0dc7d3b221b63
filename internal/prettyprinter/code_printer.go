package prettyprinter

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/nielssp/plet/internal/ast"
)

// --- Code Printer (output is Plet source that parses to the same tree) ---

// Operator precedence (higher = binds tighter)
var operatorPrecedence = map[ast.Operator]int{
	ast.OpOr:  4,
	ast.OpAnd: 5,
	ast.OpNot: 6,
	ast.OpEq:  7,
	ast.OpNeq: 7,
	ast.OpLt:  7,
	ast.OpLeq: 7,
	ast.OpGt:  7,
	ast.OpGeq: 7,
	ast.OpAdd: 8,
	ast.OpSub: 8,
	ast.OpMul: 9,
	ast.OpDiv: 9,
	ast.OpMod: 9,
	ast.OpNeg: 10,
}

const (
	precAssign   = 1
	precArrow    = 2
	precPipeline = 3
	precPrimary  = 11
)

func precedenceOf(node ast.Node) int {
	switch n := node.(type) {
	case *ast.InfixExpression:
		return operatorPrecedence[n.Operator]
	case *ast.PrefixExpression:
		return operatorPrecedence[n.Operator]
	case *ast.AssignExpression:
		return precAssign
	case *ast.FunctionLiteral:
		return precArrow
	case *ast.PipelineExpression:
		return precPipeline
	}
	return precPrimary
}

type CodePrinter struct {
	buf    bytes.Buffer
	indent int
	// quoted is set while printing text inside a double-quoted template string.
	quoted bool
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{}
}

// Print returns node printed as source. A template block root is printed
// as a template, anything else as code.
func Print(node ast.Node) string {
	p := NewCodePrinter()
	if block, ok := node.(*ast.Block); ok && block.Template {
		p.printTemplateBody(block)
	} else {
		node.Accept(p)
	}
	return p.String()
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
}

func (p *CodePrinter) writeln() {
	p.buf.WriteString("\n")
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("  ")
	}
}

// printExpr prints an expression, adding parentheses only if needed
func (p *CodePrinter) printExpr(expr ast.Node, parentPrec int) {
	if expr == nil {
		p.write("<???>")
		return
	}
	if precedenceOf(expr) < parentPrec {
		p.write("(")
		expr.Accept(p)
		p.write(")")
		return
	}
	expr.Accept(p)
}

// printTemplateBody prints the children of a template block assuming the
// printer is in template text mode.
func (p *CodePrinter) printTemplateBody(block *ast.Block) {
	for _, stmt := range block.Statements {
		if text, ok := stmt.(*ast.StringLiteral); ok && text.Text {
			p.writeText(text.Value)
			continue
		}
		p.write("{")
		stmt.Accept(p)
		p.write("}")
	}
}

// printNestedBlock prints a block while in code mode: template blocks leave
// code mode for their body and re-enter it afterwards.
func (p *CodePrinter) printNestedBlock(block ast.Node) {
	b, ok := block.(*ast.Block)
	if !ok {
		p.write("}")
		p.write("{")
		block.Accept(p)
		p.write("}{")
		return
	}
	p.write("}")
	p.printTemplateBody(b)
	p.write("{")
}

func (p *CodePrinter) writeText(s string) {
	if !p.quoted {
		p.write(s)
		return
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\', '{', '}':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	p.write(sb.String())
}

func (p *CodePrinter) VisitIdentifier(n *ast.Identifier) {
	p.write(n.Value)
}

func (p *CodePrinter) VisitIntegerLiteral(n *ast.IntegerLiteral) {
	if n.Value < 0 {
		p.write("(" + strconv.FormatInt(n.Value, 10) + ")")
		return
	}
	p.write(strconv.FormatInt(n.Value, 10))
}

func (p *CodePrinter) VisitFloatLiteral(n *ast.FloatLiteral) {
	s := strconv.FormatFloat(n.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	if n.Value < 0 {
		s = "(" + s + ")"
	}
	p.write(s)
}

func (p *CodePrinter) VisitStringLiteral(n *ast.StringLiteral) {
	if n.Text {
		p.write("}")
		p.writeText(n.Value)
		p.write("{")
		return
	}
	p.write(QuoteString(n.Value))
}

// QuoteString returns s as a single-quoted Plet string literal.
func QuoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\'':
			sb.WriteString("\\'")
		case '\\':
			sb.WriteString("\\\\")
		case '\n':
			sb.WriteString("\\n")
		case '\r':
			sb.WriteString("\\r")
		case '\t':
			sb.WriteString("\\t")
		case '\b':
			sb.WriteString("\\b")
		case '\f':
			sb.WriteString("\\f")
		default:
			if c < 0x20 || c == 0x7f {
				sb.WriteString("\\x")
				sb.WriteString(strconv.FormatInt(int64(c)>>4, 16))
				sb.WriteString(strconv.FormatInt(int64(c)&0xf, 16))
			} else {
				sb.WriteByte(c)
			}
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

func (p *CodePrinter) VisitBooleanLiteral(n *ast.BooleanLiteral) {
	if n.Value {
		p.write("true")
	} else {
		p.write("false")
	}
}

func (p *CodePrinter) VisitNilLiteral(n *ast.NilLiteral) {
	p.write("nil")
}

func (p *CodePrinter) printList(nodes []ast.Node) {
	for i, node := range nodes {
		if i > 0 {
			p.write(", ")
		}
		p.printExpr(node, precAssign)
	}
}

func (p *CodePrinter) VisitListLiteral(n *ast.ListLiteral) {
	p.write("[")
	p.printList(n.Elements)
	p.write("]")
}

func (p *CodePrinter) VisitObjectLiteral(n *ast.ObjectLiteral) {
	p.write("{")
	for i, prop := range n.Properties {
		if i > 0 {
			p.write(", ")
		}
		if _, ok := prop.Key.(*ast.Identifier); ok {
			prop.Key.Accept(p)
		} else {
			p.printExpr(prop.Key, precPrimary)
		}
		p.write(": ")
		p.printExpr(prop.Value, precAssign)
	}
	p.write("}")
}

func (p *CodePrinter) VisitTupleExpression(n *ast.TupleExpression) {
	p.write("(")
	p.printList(n.Elements)
	if len(n.Elements) == 1 {
		p.write(",")
	}
	p.write(")")
}

func (p *CodePrinter) VisitCallExpression(n *ast.CallExpression) {
	p.printExpr(n.Function, precPrimary)
	p.write("(")
	p.printList(n.Arguments)
	p.write(")")
}

func (p *CodePrinter) VisitPipelineExpression(n *ast.PipelineExpression) {
	p.printExpr(n.Left, precPipeline)
	p.write(" | ")
	p.write(n.Function.Value)
	if len(n.Arguments) > 0 {
		p.write("(")
		p.printList(n.Arguments)
		p.write(")")
	}
}

func (p *CodePrinter) VisitSubscriptExpression(n *ast.SubscriptExpression) {
	p.printExpr(n.Left, precPrimary)
	p.write("[")
	p.printExpr(n.Index, 0)
	p.write("]")
}

func (p *CodePrinter) VisitDotExpression(n *ast.DotExpression) {
	p.printExpr(n.Left, precPrimary)
	p.write(".")
	p.write(n.Name)
}

func (p *CodePrinter) VisitPrefixExpression(n *ast.PrefixExpression) {
	prec := operatorPrecedence[n.Operator]
	if n.Operator == ast.OpNot {
		p.write("not ")
	} else {
		p.write("-")
	}
	p.printExpr(n.Right, prec)
}

func (p *CodePrinter) VisitInfixExpression(n *ast.InfixExpression) {
	prec := operatorPrecedence[n.Operator]
	p.printExpr(n.Left, prec)
	p.write(" " + n.Operator.String() + " ")
	// Left associative, so an equal right operand needs parentheses.
	p.printExpr(n.Right, prec+1)
}

func (p *CodePrinter) VisitFunctionLiteral(n *ast.FunctionLiteral) {
	if len(n.Parameters) == 1 {
		p.write(n.Parameters[0])
	} else {
		p.write("(" + strings.Join(n.Parameters, ", ") + ")")
	}
	p.write(" => ")
	p.printExpr(n.Body, precArrow)
}

func (p *CodePrinter) VisitSuppressExpression(n *ast.SuppressExpression) {
	p.printExpr(n.Expression, precPrimary)
	p.write("?")
}

func (p *CodePrinter) VisitAssignExpression(n *ast.AssignExpression) {
	p.printExpr(n.Target, precPrimary)
	p.write(" " + n.Operator.String() + "= ")
	p.printExpr(n.Value, precAssign)
}

func (p *CodePrinter) VisitBlock(n *ast.Block) {
	if n.Template {
		saved := p.quoted
		p.quoted = true
		p.write("\"")
		for _, stmt := range n.Statements {
			if text, ok := stmt.(*ast.StringLiteral); ok && text.Text {
				p.writeText(text.Value)
				continue
			}
			p.write("{")
			stmt.Accept(p)
			p.write("}")
		}
		p.write("\"")
		p.quoted = saved
		return
	}
	p.write("do")
	p.indent++
	for _, stmt := range n.Statements {
		p.writeln()
		stmt.Accept(p)
	}
	p.indent--
	p.writeln()
	p.write("end do")
}

func (p *CodePrinter) VisitIfExpression(n *ast.IfExpression) {
	p.write("if ")
	p.printExpr(n.Condition, 0)
	p.printNestedBlock(n.Consequence)
	for n.Alternative != nil {
		if next, ok := n.Alternative.(*ast.IfExpression); ok {
			p.write("else if ")
			p.printExpr(next.Condition, 0)
			p.printNestedBlock(next.Consequence)
			n = next
			continue
		}
		p.write("else")
		p.printNestedBlock(n.Alternative)
		break
	}
	p.write("end if")
}

func (p *CodePrinter) VisitForExpression(n *ast.ForExpression) {
	p.write("for ")
	if n.Key != "" {
		p.write(n.Key + ": ")
	}
	p.write(n.Value + " in ")
	p.printExpr(n.Collection, 0)
	p.printNestedBlock(n.Body)
	if n.Alternative != nil {
		p.write("else")
		p.printNestedBlock(n.Alternative)
	}
	p.write("end for")
}

func (p *CodePrinter) VisitSwitchExpression(n *ast.SwitchExpression) {
	p.write("switch ")
	p.printExpr(n.Subject, 0)
	for _, c := range n.Cases {
		p.write("}{case ")
		p.printList(c.Values)
		p.printNestedBlock(c.Body)
	}
	if n.Default != nil {
		if len(n.Cases) == 0 {
			p.write("}{")
		}
		p.write("default")
		p.printNestedBlock(n.Default)
	} else if len(n.Cases) == 0 {
		p.write("}{")
	}
	p.write("end switch")
}

func (p *CodePrinter) VisitExportStatement(n *ast.ExportStatement) {
	p.write("export " + n.Name)
	if n.Value != nil {
		p.write(" = ")
		p.printExpr(n.Value, precAssign)
	}
}

func (p *CodePrinter) VisitReturnStatement(n *ast.ReturnStatement) {
	p.write("return")
	if n.Value != nil {
		p.write(" ")
		p.printExpr(n.Value, 0)
	}
}

func (p *CodePrinter) VisitBreakStatement(n *ast.BreakStatement) {
	p.write("break")
	if n.Levels != 1 {
		p.write(" " + strconv.FormatInt(n.Levels, 10))
	}
}

func (p *CodePrinter) VisitContinueStatement(n *ast.ContinueStatement) {
	p.write("continue")
	if n.Levels != 1 {
		p.write(" " + strconv.FormatInt(n.Levels, 10))
	}
}
