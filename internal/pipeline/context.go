package pipeline

import (
	"github.com/nielssp/plet/internal/ast"
	"github.com/nielssp/plet/internal/diagnostics"
	"github.com/nielssp/plet/internal/token"
)

// Processor is one stage of the source pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Mode selects how the lexer starts and which parser entry point runs.
type Mode int

const (
	// ModeTemplate starts in template text; the root is a template block.
	ModeTemplate Mode = iota
	// ModeScript starts in code; the root is a template block of statements.
	ModeScript
	// ModeData starts in code and parses a single object-notation value.
	ModeData
)

type PipelineContext struct {
	SourceCode  string
	FilePath    string
	Mode        Mode
	TokenStream []token.Token
	AstRoot     ast.Node
	Errors      []*diagnostics.DiagnosticError
}

func NewPipelineContext(source string) *PipelineContext {
	return &PipelineContext{SourceCode: source}
}

// HasErrors reports whether any stage produced a diagnostic.
func (ctx *PipelineContext) HasErrors() bool {
	return len(ctx.Errors) > 0
}
