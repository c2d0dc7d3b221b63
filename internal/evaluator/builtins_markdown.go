package evaluator

import (
	"bytes"
	"sync"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/nielssp/plet/internal/config"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownMu sync.Mutex
	markdownMD goldmark.Markdown
)

// ConfigureMarkdown replaces the converter used by markdown() and the md
// content handler.
func ConfigureMarkdown(opts config.Markdown) {
	markdownMu.Lock()
	defer markdownMu.Unlock()
	markdownMD = newMarkdown(opts)
}

func newMarkdown(opts config.Markdown) goldmark.Markdown {
	extensions := []goldmark.Extender{extension.GFM, meta.Meta}
	if opts.Highlight {
		extensions = append(extensions, highlighting.NewHighlighting(
			highlighting.WithStyle(opts.Style),
			highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
		))
	}
	return goldmark.New(
		goldmark.WithExtensions(extensions...),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
}

func markdownConverter() goldmark.Markdown {
	markdownMu.Lock()
	defer markdownMu.Unlock()
	if markdownMD == nil {
		markdownMD = newMarkdown(config.DefaultProject("").Markdown)
	}
	return markdownMD
}

// RenderMarkdown converts GitHub flavored Markdown to HTML. A leading YAML
// metadata block is not rendered.
func RenderMarkdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := markdownConverter().Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// MarkdownBuiltins returns the functions of the markdown module
func MarkdownBuiltins() map[string]*Builtin {
	return map[string]*Builtin{
		"markdown": markdownBuiltin,
	}
}

var markdownBuiltin = &Builtin{Name: "markdown", Fn: builtinMarkdown}

func builtinMarkdown(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	source, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	out, err := RenderMarkdown(source)
	if err != nil {
		return nil, err
	}
	return str(out), nil
}

func installMarkdownHandler(env *Environment) {
	contentHandlers(env).Put(str("md"), markdownBuiltin)
}
