package parser_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nielssp/plet/internal/ast"
	"github.com/nielssp/plet/internal/diagnostics"
	"github.com/nielssp/plet/internal/lexer"
	"github.com/nielssp/plet/internal/parser"
	"github.com/nielssp/plet/internal/pipeline"
	"github.com/nielssp/plet/internal/prettyprinter"
	"github.com/nielssp/plet/internal/token"
)

func run(input string, mode pipeline.Mode) *pipeline.PipelineContext {
	ctx := pipeline.NewPipelineContext(input)
	ctx.FilePath = "test.plet"
	ctx.Mode = mode
	return pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(ctx)
}

func parse(t *testing.T, input string, mode pipeline.Mode) *ast.Block {
	t.Helper()
	ctx := run(input, mode)
	if len(ctx.Errors) > 0 {
		for _, err := range ctx.Errors {
			t.Errorf("unexpected error: %s", err.Error())
		}
		t.FailNow()
	}
	root, ok := ctx.AstRoot.(*ast.Block)
	if !ok {
		t.Fatalf("expected *ast.Block root, got %T", ctx.AstRoot)
	}
	return root
}

func TestPrintRoundTrip(t *testing.T) {
	testCases := []struct {
		name  string
		mode  pipeline.Mode
		input string
		want  string
	}{
		{"precedence", pipeline.ModeScript, "1 + 2 * 3", "{1 + 2 * 3}"},
		{"grouping", pipeline.ModeScript, "(1 + 2) * 3", "{(1 + 2) * 3}"},
		{"left_assoc", pipeline.ModeScript, "1 - (2 - 3)", "{1 - (2 - 3)}"},
		{"right_assoc_assign", pipeline.ModeScript, "a = b = c", "{a = b = c}"},
		{"compound_assign", pipeline.ModeScript, "a.b[0] += 2", "{a.b[0] += 2}"},
		{"not_binds_looser_than_compare", pipeline.ModeScript, "not a == b and c", "{not a == b and c}"},
		{"negation", pipeline.ModeScript, "-x.y", "{-x.y}"},
		{"pipeline", pipeline.ModeScript, "x | f(1) | g", "{x | f(1) | g}"},
		{"closure", pipeline.ModeScript, "f = (a, b) => a + b", "{f = (a, b) => a + b}"},
		{"single_param_closure", pipeline.ModeScript, "g = x => x", "{g = x => x}"},
		{"suppress", pipeline.ModeScript, "arr[99]?", "{arr[99]?}"},
		{"object", pipeline.ModeScript, "{a: 1, 'b': [2, 3],}", "{{a: 1, 'b': [2, 3]}}"},
		{"multiline_call", pipeline.ModeScript, "f(\n  1,\n  2\n)", "{f(1, 2)}"},
		{"statements", pipeline.ModeScript, "a = 1\nb = 2", "{a = 1}{b = 2}"},
		{"export", pipeline.ModeScript, "export x\nexport y = 2", "{export x}{export y = 2}"},
		{"do_block", pipeline.ModeScript, "x = do\n  a = 1\n  a\nend do", "{x = do\n  a = 1\n  a\nend do}"},
		{"template_string", pipeline.ModeScript, `"a{b}c"`, `{"a{b}c"}`},
		{"template_text", pipeline.ModeTemplate, "Hello, {name}!", "Hello, {name}!"},
		{"for", pipeline.ModeTemplate, "{for x in [1,2,3]}{x},{end for}", "{for x in [1, 2, 3]}{x},{end for}"},
		{"for_key_else", pipeline.ModeTemplate, "{for k: v in o}{k}{else}none{end for}", "{for k: v in o}{k}{else}none{end for}"},
		{"if_chain", pipeline.ModeTemplate, "{if a}x{else if b}y{else}z{end if}", "{if a}x{else if b}y{else}z{end if}"},
		{"if_then", pipeline.ModeScript, "if a then b end if", "{if a}{b}{end if}"},
		{"switch", pipeline.ModeTemplate, "{switch x}\n{case 1, 2}one{default}other{end switch}", "{switch x}{case 1, 2}one{default}other{end switch}"},
		{"loop_control", pipeline.ModeTemplate, "{for x in y}{break 2}{continue}{end for}", "{for x in y}{break 2}{continue}{end for}"},
		{"return", pipeline.ModeScript, "return\nreturn 5", "{return}{return 5}"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			root := parse(t, tc.input, tc.mode)
			got := prettyprinter.Print(root)
			if got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
			// Printed output parses to the same printed output.
			again := prettyprinter.Print(parse(t, got, pipeline.ModeTemplate))
			if again != got {
				t.Errorf("reprint mismatch: %q vs %q", got, again)
			}
		})
	}
}

func TestPrecedenceStructure(t *testing.T) {
	root := parse(t, "{ 1 + 2 * 3 }", pipeline.ModeTemplate)
	if len(root.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(root.Statements))
	}
	add, ok := root.Statements[0].(*ast.InfixExpression)
	if !ok || add.Operator != ast.OpAdd {
		t.Fatalf("expected addition, got %#v", root.Statements[0])
	}
	mul, ok := add.Right.(*ast.InfixExpression)
	if !ok || mul.Operator != ast.OpMul {
		t.Fatalf("expected multiplication on the right, got %#v", add.Right)
	}
}

func TestTemplateTextNodes(t *testing.T) {
	root := parse(t, "a{x}b", pipeline.ModeTemplate)
	if len(root.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(root.Statements))
	}
	text, ok := root.Statements[0].(*ast.StringLiteral)
	if !ok || !text.Text || text.Value != "a" {
		t.Errorf("expected text node 'a', got %#v", root.Statements[0])
	}
	if !root.Template {
		t.Errorf("expected root to be a template block")
	}
}

func TestFreeVariables(t *testing.T) {
	root := parse(t, "f = (x) => x + y + z(w => w + q)", pipeline.ModeScript)
	assign := root.Statements[0].(*ast.AssignExpression)
	fn, ok := assign.Value.(*ast.FunctionLiteral)
	if !ok {
		t.Fatalf("expected function literal, got %T", assign.Value)
	}
	if diff := cmp.Diff([]string{"x"}, fn.Parameters); diff != "" {
		t.Errorf("parameters mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"y", "z", "q"}, fn.FreeVariables); diff != "" {
		t.Errorf("free variables mismatch (-want +got):\n%s", diff)
	}
}

func TestObjectKeysAreNotFree(t *testing.T) {
	root := parse(t, "f = () => {name: value}", pipeline.ModeScript)
	fn := root.Statements[0].(*ast.AssignExpression).Value.(*ast.FunctionLiteral)
	if diff := cmp.Diff([]string{"value"}, fn.FreeVariables); diff != "" {
		t.Errorf("free variables mismatch (-want +got):\n%s", diff)
	}
}

func TestPositions(t *testing.T) {
	root := parse(t, "a = 1\n  foo(2)", pipeline.ModeScript)
	call := root.Statements[1].(*ast.CallExpression)
	tok := call.GetToken()
	if tok.Line != 2 || tok.Column != 3 {
		t.Errorf("expected call at 2:3, got %d:%d", tok.Line, tok.Column)
	}
	end := call.EndToken()
	if end.Type != token.RPAREN || end.Line != 2 || end.Column != 8 {
		t.Errorf("expected call to end at ')' 2:8, got %s %d:%d", end.Type, end.Line, end.Column)
	}
}

func TestParserErrors(t *testing.T) {
	testCases := []struct {
		name  string
		mode  pipeline.Mode
		input string
		code  diagnostics.ErrorCode
	}{
		{"missing_operand", pipeline.ModeScript, "a = ", diagnostics.ErrP001},
		{"missing_end", pipeline.ModeTemplate, "{if x}a", diagnostics.ErrP003},
		{"wrong_end", pipeline.ModeTemplate, "{if x}a{end for}", diagnostics.ErrP003},
		{"invalid_target", pipeline.ModeScript, "1 = 2", diagnostics.ErrP004},
		{"invalid_params", pipeline.ModeScript, "(1, 2) => 3", diagnostics.ErrP005},
		{"stray_end", pipeline.ModeTemplate, "a{end if}b", diagnostics.ErrP001},
		{"missing_paren", pipeline.ModeScript, "f(1, 2", diagnostics.ErrP002},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := run(tc.input, tc.mode)
			var found bool
			for _, err := range ctx.Errors {
				if err.Code == tc.code {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error %s, got %v", tc.code, ctx.Errors)
			}
		})
	}
}

func TestErrorRecovery(t *testing.T) {
	ctx := run("a = \nb = 2", pipeline.ModeScript)
	if len(ctx.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(ctx.Errors), ctx.Errors)
	}
	root := ctx.AstRoot.(*ast.Block)
	if len(root.Statements) != 1 {
		t.Fatalf("expected the second statement to survive, got %d statements", len(root.Statements))
	}
}

func TestObjectNotation(t *testing.T) {
	tokens := lexer.NewScript("{a: 1, b: [2, 3], c: 'x',}", "data.json").ReadAll()
	node, rest, errs := parser.ParseObjectNotation(tokens, "data.json", true)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if rest != nil {
		t.Errorf("expected no remaining tokens")
	}
	obj, ok := node.(*ast.ObjectLiteral)
	if !ok {
		t.Fatalf("expected object, got %T", node)
	}
	var keys []string
	for _, prop := range obj.Properties {
		keys = append(keys, prop.Key.(*ast.Identifier).Value)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestObjectNotationLiterals(t *testing.T) {
	tokens := lexer.NewScript("[1, -2.5, \"s\", nil, true, {\"k\": -3}]", "data.json").ReadAll()
	node, _, errs := parser.ParseObjectNotation(tokens, "data.json", true)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	got := prettyprinter.Print(node)
	want := "[1, (-2.5), 's', nil, true, {'k': (-3)}]"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestObjectNotationRejectsCode(t *testing.T) {
	inputs := []string{"{a: b}", "[1 + 2]", "1 2", `"a{b}"`}
	for _, input := range inputs {
		tokens := lexer.NewScript(input, "data.json").ReadAll()
		_, _, errs := parser.ParseObjectNotation(tokens, "data.json", true)
		if len(errs) == 0 {
			t.Errorf("%s: expected an error", input)
		}
	}
}

func TestObjectNotationRest(t *testing.T) {
	tokens := lexer.NewScript("{a: 1} 2", "data.json").ReadAll()
	_, rest, errs := parser.ParseObjectNotation(tokens, "data.json", false)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(rest) != 2 || rest[0].Type != token.INT {
		t.Errorf("expected [INT EOF], got %v", rest)
	}
}

func TestFrontMatter(t *testing.T) {
	node, rest, errs := parser.ParseFrontMatter("{title: 'Hi', tags: ['a']}\n# Body {not code}\n", "post.md")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if _, ok := node.(*ast.ObjectLiteral); !ok {
		t.Fatalf("expected object, got %T", node)
	}
	if rest != "# Body {not code}\n" {
		t.Errorf("unexpected rest %q", rest)
	}

	node, rest, _ = parser.ParseFrontMatter("no front matter", "post.md")
	if node != nil || rest != "no front matter" {
		t.Errorf("expected input to be returned unchanged")
	}
}
