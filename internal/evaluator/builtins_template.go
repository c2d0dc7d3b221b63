package evaluator

import (
	"fmt"
	"strings"

	"github.com/nielssp/plet/internal/config"
	"github.com/nielssp/plet/internal/diagnostics"
	"github.com/nielssp/plet/internal/utils"
)

// TemplateBuiltins returns the functions of the template module
func TemplateBuiltins() map[string]*Builtin {
	return map[string]*Builtin{
		"embed":      {Name: "embed", Fn: builtinEmbed},
		"link":       {Name: "link", Fn: linkBuiltin(config.RootPathName)},
		"url":        {Name: "url", Fn: linkBuiltin(config.RootURLName)},
		"is_current": {Name: "is_current", Fn: builtinIsCurrent},
		"read":       {Name: "read", Fn: builtinRead},
		"asset_link": {Name: "asset_link", Fn: builtinAssetLink},
		"page_list":  {Name: "page_list", Fn: builtinPageList},
		"page_link":  {Name: "page_link", Fn: builtinPageLink},
	}
}

// embed(src, data?) evaluates another template in a child scope. Layouts
// set by the current template do not apply to the embedded one.
func builtinEmbed(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 2); err != nil {
		return nil, err
	}
	src, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	var data *Object
	if len(args) > 1 {
		if data, err = objectArg(args, 1); err != nil {
			return nil, err
		}
	}
	path, err := srcPath(env, src)
	if err != nil {
		return nil, err
	}
	mod, loadErr := env.Modules().LoadUser(path)
	if loadErr != nil {
		return nil, newError(diagnostics.ErrR007, "unable to load template %s", src)
	}
	child := NewEnclosedEnvironment(env)
	child.Set(config.LayoutName, NIL)
	if data != nil {
		for _, entry := range data.Entries {
			if sym, ok := entry.Key.(*Symbol); ok {
				child.SetSymbol(sym, entry.Value)
			}
		}
	}
	v, rerr := e.EvalTemplate(mod, child)
	if rerr != nil {
		return nil, rerr
	}
	return v, nil
}

// currentPath returns the explicit path argument or PATH.
func currentPath(env *Environment, args []Value) (string, error) {
	if len(args) > 0 {
		return stringArg(args, 0)
	}
	path, ok := env.GetString(config.PathName)
	if !ok {
		return "", newError(diagnostics.ErrR001, "%s is not set or not a string", config.PathName)
	}
	return path, nil
}

// linkBuiltin creates link(path?) and url(path?), which prefix a site
// path with ROOT_PATH or ROOT_URL.
func linkBuiltin(rootName string) NativeFunction {
	return func(e *Evaluator, env *Environment, args []Value) (Value, error) {
		if err := checkArgs(args, 0, 1); err != nil {
			return nil, err
		}
		path, err := currentPath(env, args)
		if err != nil {
			return nil, err
		}
		return rootLink(env, path, rootName), nil
	}
}

// IsCurrentPath reports whether path names the page being rendered.
func IsCurrentPath(env *Environment, path string) bool {
	current, ok := env.GetString(config.PathName)
	if !ok {
		return false
	}
	return utils.SamePage(path, current)
}

func builtinIsCurrent(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	path, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	return nativeBoolToBoolean(IsCurrentPath(env, path)), nil
}

// read(src) returns the content of a file relative to DIR.
func builtinRead(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	src, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	path, err := srcPath(env, src)
	if err != nil {
		return nil, err
	}
	content, rerr := env.Modules().ReadAsset(path)
	if rerr != nil {
		return nil, newError(diagnostics.ErrR008, "error reading file %s", src)
	}
	return str(content), nil
}

// asset_link(src) copies a file to the same relative location in the
// output directory and links to it.
func builtinAssetLink(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	src, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	path, err := srcPath(env, src)
	if err != nil {
		return nil, err
	}
	dest, err := distPath(env, src)
	if err != nil {
		return nil, err
	}
	if _, lerr := env.Modules().Load(path); lerr != nil {
		return nil, newError(diagnostics.ErrR007, "unable to load asset %s", src)
	}
	if cerr := e.copyOutput(env, path, dest); cerr != nil {
		return nil, cerr
	}
	return rootLink(env, src, config.RootPathName), nil
}

// pageField reads an int or string property of PAGE.
func pageField(env *Environment, name string) (Value, error) {
	v, ok := env.Get(config.PageName)
	page, isObj := v.(*Object)
	if !ok || !isObj {
		return nil, newError(diagnostics.ErrR001, "%s is not set or not an object", config.PageName)
	}
	f, ok := field(env, page, name)
	if !ok {
		return nil, newError(diagnostics.ErrR004, "%s.%s is not set", config.PageName, name)
	}
	return f, nil
}

// page_list(n, page?, pages?) returns the page numbers 1..pages.
func builtinPageList(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 3); err != nil {
		return nil, err
	}
	if _, err := intArg(args, 0); err != nil {
		return nil, err
	}
	var pages int64
	if len(args) > 2 {
		n, err := intArg(args, 2)
		if err != nil {
			return nil, err
		}
		pages = n
	} else {
		v, err := pageField(env, "pages")
		if err != nil {
			return nil, err
		}
		n, ok := v.(*Integer)
		if !ok {
			return nil, newError(diagnostics.ErrR002, "%s.pages is not an int", config.PageName)
		}
		pages = n.Value
	}
	if pages > 0xFFFF {
		return nil, fmt.Errorf("too many pages: %d", pages)
	}
	arr := env.Arena().NewArray(int(max(pages, 0)))
	for i := int64(1); i <= pages; i++ {
		arr.Push(integer(i))
	}
	return arr, nil
}

// PageName is the path fragment substituted for %page%.
func PageName(page int64) string {
	if page == 1 {
		return ""
	}
	return fmt.Sprintf("/page%d", page)
}

// page_link(page, path_template?) links to a page of a paginated listing.
func builtinPageLink(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 2); err != nil {
		return nil, err
	}
	page, err := intArg(args, 0)
	if err != nil {
		return nil, err
	}
	var template string
	if len(args) > 1 {
		if template, err = stringArg(args, 1); err != nil {
			return nil, err
		}
	} else {
		v, err := pageField(env, "path_template")
		if err != nil {
			return nil, err
		}
		s, ok := v.(*String)
		if !ok {
			return nil, newError(diagnostics.ErrR002, "%s.path_template is not a string", config.PageName)
		}
		template = s.Value
	}
	path := strings.ReplaceAll(template, "%page%", PageName(page))
	return rootLink(env, path, config.RootPathName), nil
}
