package ast

// Identifier is a name reference.
type Identifier struct {
	Span
	Value string
}

func (i *Identifier) Accept(v Visitor) { v.VisitIdentifier(i) }

type IntegerLiteral struct {
	Span
	Value int64
}

func (il *IntegerLiteral) Accept(v Visitor) { v.VisitIntegerLiteral(il) }

type FloatLiteral struct {
	Span
	Value float64
}

func (fl *FloatLiteral) Accept(v Visitor) { v.VisitFloatLiteral(fl) }

// StringLiteral is a quoted string or a run of template text.
type StringLiteral struct {
	Span
	Value string
	// Text is set for raw template text.
	Text bool
}

func (sl *StringLiteral) Accept(v Visitor) { v.VisitStringLiteral(sl) }

type BooleanLiteral struct {
	Span
	Value bool
}

func (b *BooleanLiteral) Accept(v Visitor) { v.VisitBooleanLiteral(b) }

type NilLiteral struct {
	Span
}

func (n *NilLiteral) Accept(v Visitor) { v.VisitNilLiteral(n) }

// ListLiteral: [a, b, c]
type ListLiteral struct {
	Span
	Elements []Node
}

func (ll *ListLiteral) Accept(v Visitor) { v.VisitListLiteral(ll) }

// Property is one key/value pair of an object literal. A key written as a
// bare name is an *Identifier and evaluates to a symbol.
type Property struct {
	Key   Node
	Value Node
}

// ObjectLiteral: {key: value, ...}
type ObjectLiteral struct {
	Span
	Properties []*Property
}

func (ol *ObjectLiteral) Accept(v Visitor) { v.VisitObjectLiteral(ol) }

// TupleExpression is a parenthesized comma list. It is only valid as the
// parameter list of a closure.
type TupleExpression struct {
	Span
	Elements []Node
}

func (te *TupleExpression) Accept(v Visitor) { v.VisitTupleExpression(te) }

// CallExpression: f(a, b)
type CallExpression struct {
	Span
	Function  Node
	Arguments []Node
}

func (ce *CallExpression) Accept(v Visitor) { v.VisitCallExpression(ce) }

// PipelineExpression: left | name(args) calls name(left, args...).
type PipelineExpression struct {
	Span
	Left      Node
	Function  *Identifier
	Arguments []Node
}

func (pe *PipelineExpression) Accept(v Visitor) { v.VisitPipelineExpression(pe) }

// SubscriptExpression: list[index]
type SubscriptExpression struct {
	Span
	Left  Node
	Index Node
}

func (se *SubscriptExpression) Accept(v Visitor) { v.VisitSubscriptExpression(se) }

// DotExpression: object.name
type DotExpression struct {
	Span
	Left Node
	Name string
}

func (de *DotExpression) Accept(v Visitor) { v.VisitDotExpression(de) }

type PrefixExpression struct {
	Span
	Operator Operator
	Right    Node
}

func (pe *PrefixExpression) Accept(v Visitor) { v.VisitPrefixExpression(pe) }

type InfixExpression struct {
	Span
	Left     Node
	Operator Operator
	Right    Node
}

func (ie *InfixExpression) Accept(v Visitor) { v.VisitInfixExpression(ie) }

// FunctionLiteral: (a, b) => body
type FunctionLiteral struct {
	Span
	Parameters []string
	// FreeVariables are names referenced in Body that are not parameters.
	FreeVariables []string
	Body          Node
}

func (fl *FunctionLiteral) Accept(v Visitor) { v.VisitFunctionLiteral(fl) }

// SuppressExpression: expr? turns errors into nil.
type SuppressExpression struct {
	Span
	Expression Node
}

func (se *SuppressExpression) Accept(v Visitor) { v.VisitSuppressExpression(se) }

// AssignExpression: target = value, or a compound form when Operator is set.
type AssignExpression struct {
	Span
	Target   Node
	Operator Operator
	Value    Node
}

func (ae *AssignExpression) Accept(v Visitor) { v.VisitAssignExpression(ae) }
