package lexer

import (
	"github.com/nielssp/plet/internal/pipeline"
)

type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	var l *Lexer
	if ctx.Mode == pipeline.ModeTemplate {
		l = New(ctx.SourceCode, ctx.FilePath)
	} else {
		l = NewScript(ctx.SourceCode, ctx.FilePath)
	}
	ctx.TokenStream = l.ReadAll()
	ctx.Errors = append(ctx.Errors, l.Errors()...)
	return ctx
}
