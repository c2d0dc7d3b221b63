package ast

// Block is a sequence of nodes. A template block concatenates the display
// strings of its children; other blocks (do ... end do) yield the value of
// the last child.
type Block struct {
	Span
	Statements []Node
	Template   bool
}

func (b *Block) Accept(v Visitor) { v.VisitBlock(b) }

// IfExpression: if cond ... else ... end if. Alternative is nil, a *Block
// or, for else if chains, another *IfExpression.
type IfExpression struct {
	Span
	Condition   Node
	Consequence Node
	Alternative Node
}

func (ie *IfExpression) Accept(v Visitor) { v.VisitIfExpression(ie) }

// ForExpression: for [key:] value in collection ... [else ...] end for
type ForExpression struct {
	Span
	Key         string
	Value       string
	Collection  Node
	Body        Node
	Alternative Node
}

func (fe *ForExpression) Accept(v Visitor) { v.VisitForExpression(fe) }

type SwitchCase struct {
	Values []Node
	Body   Node
}

// SwitchExpression: switch subject case a, b ... default ... end switch
type SwitchExpression struct {
	Span
	Subject Node
	Cases   []*SwitchCase
	Default Node
}

func (se *SwitchExpression) Accept(v Visitor) { v.VisitSwitchExpression(se) }

// ExportStatement: export name [= value]
type ExportStatement struct {
	Span
	Name  string
	Value Node
}

func (es *ExportStatement) Accept(v Visitor) { v.VisitExportStatement(es) }

type ReturnStatement struct {
	Span
	Value Node
}

func (rs *ReturnStatement) Accept(v Visitor) { v.VisitReturnStatement(rs) }

type BreakStatement struct {
	Span
	Levels int64
}

func (bs *BreakStatement) Accept(v Visitor) { v.VisitBreakStatement(bs) }

type ContinueStatement struct {
	Span
	Levels int64
}

func (cs *ContinueStatement) Accept(v Visitor) { v.VisitContinueStatement(cs) }

// Walk calls fn for node and every descendant in source order. Returning
// false from fn skips the children of that node.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	walkAll := func(nodes []Node) {
		for _, n := range nodes {
			Walk(n, fn)
		}
	}
	switch n := node.(type) {
	case *ListLiteral:
		walkAll(n.Elements)
	case *ObjectLiteral:
		for _, p := range n.Properties {
			Walk(p.Key, fn)
			Walk(p.Value, fn)
		}
	case *TupleExpression:
		walkAll(n.Elements)
	case *CallExpression:
		Walk(n.Function, fn)
		walkAll(n.Arguments)
	case *PipelineExpression:
		Walk(n.Left, fn)
		Walk(n.Function, fn)
		walkAll(n.Arguments)
	case *SubscriptExpression:
		Walk(n.Left, fn)
		Walk(n.Index, fn)
	case *DotExpression:
		Walk(n.Left, fn)
	case *PrefixExpression:
		Walk(n.Right, fn)
	case *InfixExpression:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *FunctionLiteral:
		Walk(n.Body, fn)
	case *SuppressExpression:
		Walk(n.Expression, fn)
	case *AssignExpression:
		Walk(n.Target, fn)
		Walk(n.Value, fn)
	case *Block:
		walkAll(n.Statements)
	case *IfExpression:
		Walk(n.Condition, fn)
		Walk(n.Consequence, fn)
		Walk(n.Alternative, fn)
	case *ForExpression:
		Walk(n.Collection, fn)
		Walk(n.Body, fn)
		Walk(n.Alternative, fn)
	case *SwitchExpression:
		Walk(n.Subject, fn)
		for _, c := range n.Cases {
			walkAll(c.Values)
			Walk(c.Body, fn)
		}
		Walk(n.Default, fn)
	case *ExportStatement:
		Walk(n.Value, fn)
	case *ReturnStatement:
		Walk(n.Value, fn)
	}
}
