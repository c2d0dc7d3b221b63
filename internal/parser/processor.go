package parser

import (
	"github.com/nielssp/plet/internal/diagnostics"
	"github.com/nielssp/plet/internal/pipeline"
	"github.com/nielssp/plet/internal/token"
)

type ParserProcessor struct{}

func (pp *ParserProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.TokenStream == nil {
		err := diagnostics.NewError(diagnostics.ErrP001, token.Token{File: ctx.FilePath}, "parser: token stream is nil")
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}

	parser := New(ctx.TokenStream, ctx)
	if ctx.Mode == pipeline.ModeData {
		if root := parser.ParseObjectNotation(true); root != nil {
			ctx.AstRoot = root
		}
	} else {
		ctx.AstRoot = parser.ParseTemplate()
	}

	for _, err := range ctx.Errors {
		if err.File == "" {
			err.File = ctx.FilePath
		}
	}
	return ctx
}
