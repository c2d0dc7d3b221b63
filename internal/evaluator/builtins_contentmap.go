package evaluator

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/nielssp/plet/internal/ast"
	"github.com/nielssp/plet/internal/diagnostics"
	"github.com/nielssp/plet/internal/modules"
	"github.com/nielssp/plet/internal/parser"
)

// ContentmapBuiltins returns the functions of the contentmap module
func ContentmapBuiltins() map[string]*Builtin {
	return map[string]*Builtin{
		"list_content": {Name: "list_content", Fn: builtinListContent},
		"read_content": {Name: "read_content", Fn: builtinReadContent},
		"save_content": {Name: "save_content", Fn: builtinSaveContent},
	}
}

// list_content(path, {recursive, suffix}) lists the files below path as
// {path, name} objects. Dotfiles are skipped.
func builtinListContent(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 2); err != nil {
		return nil, err
	}
	name, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	recursive := true
	suffix := ""
	if len(args) > 1 {
		opts, err := objectArg(args, 1)
		if err != nil {
			return nil, err
		}
		if v, ok := field(env, opts, "recursive"); ok {
			recursive = IsTruthy(v)
		}
		suffix, _ = stringField(env, opts, "suffix")
	}
	dir, err := srcPath(env, name)
	if err != nil {
		return nil, err
	}
	content := env.Arena().NewArray(0)
	findContent(env, dir, recursive, suffix, content)
	return content, nil
}

func findContent(env *Environment, dir string, recursive bool, suffix string, content *Array) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)
		if entry.IsDir() {
			if recursive {
				findContent(env, path, recursive, suffix, content)
			}
			continue
		}
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		obj := env.Arena().NewObject()
		putField(env, obj, "path", str(path))
		putField(env, obj, "name", str(name))
		content.Push(obj)
	}
}

// read_content(path) reads a content file. Fields of the front matter,
// written in object notation or as a YAML block between "---" lines, are
// returned along with the body converted by the CONTENT_HANDLERS entry for
// the file extension.
func builtinReadContent(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	name, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	path, err := srcPath(env, name)
	if err != nil {
		return nil, err
	}
	source, rerr := env.Modules().ReadAsset(path)
	if rerr != nil {
		return nil, newError(diagnostics.ErrR008, "error reading file %s", name)
	}
	front, body, ferr := frontMatter(source, path)
	if ferr != nil {
		return nil, ferr
	}
	obj := env.Arena().NewObject()
	if front != nil {
		v, rerr := e.Eval(front, NewRootEnvironment(env, env.Arena()))
		if rerr != nil {
			return nil, rerr
		}
		fields, ok := v.(*Object)
		if !ok {
			return nil, newError(diagnostics.ErrR002, "front matter of %s must be an object, got %s", name, TypeName(v))
		}
		obj.Entries = append(obj.Entries, fields.Entries...)
	}
	content, herr := e.handleContent(env, filepath.Ext(path), body)
	if herr != nil {
		return nil, herr
	}
	putField(env, obj, "content", content)
	return obj, nil
}

// frontMatter splits source into its header and body. A header is either
// an object notation literal or a YAML block between "---" lines.
func frontMatter(source, path string) (ast.Node, string, error) {
	if yamlSource, rest, ok := splitYAMLHeader(source); ok {
		node, err := modules.DecodeYAML([]byte(yamlSource), path)
		if err != nil {
			return nil, "", newError(diagnostics.ErrR008, "invalid front matter in %s: %v", path, err)
		}
		return node, rest, nil
	}
	node, body, errs := parser.ParseFrontMatter(source, path)
	if len(errs) > 0 {
		return nil, "", errs[0]
	}
	return node, body, nil
}

func splitYAMLHeader(source string) (string, string, bool) {
	rest, found := strings.CutPrefix(source, "---\n")
	if !found {
		if rest, found = strings.CutPrefix(source, "---\r\n"); !found {
			return "", source, false
		}
	}
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", source, false
	}
	body := rest[end+len("\n---"):]
	body = strings.TrimPrefix(strings.TrimPrefix(body, "\r"), "\n")
	return rest[:end], body, true
}

// handleContent converts body with the handler registered for ext. Unknown
// extensions leave the body as it is.
func (e *Evaluator) handleContent(env *Environment, ext, body string) (Value, error) {
	handlers := contentHandlers(env)
	handler, ok := handlers.Get(str(strings.TrimPrefix(ext, ".")))
	if !ok || isNil(handler) {
		return str(body), nil
	}
	return e.Call(handler, []Value{str(body)}, env)
}

func builtinSaveContent(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	return NIL, nil
}
