package evaluator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nielssp/plet/internal/config"
	"github.com/nielssp/plet/internal/diagnostics"
	"github.com/nielssp/plet/internal/utils"
)

// SitemapBuiltins returns the functions of the sitemap module
func SitemapBuiltins() map[string]*Builtin {
	return map[string]*Builtin{
		"add_static":  {Name: "add_static", Fn: builtinAddStatic},
		"add_reverse": {Name: "add_reverse", Fn: builtinAddReverse},
		"add_page":    {Name: "add_page", Fn: builtinAddPage},
		"paginate":    {Name: "paginate", Fn: builtinPaginate},
	}
}

func installSitemapValues(env *Environment) {
	env.Set(config.SiteMapName, env.Arena().NewArray(0))
	env.Set(config.ReversePathsName, env.Arena().NewObject())
	env.Export(config.ReversePathsName)
	env.Set(config.OutputObserversName, env.Arena().NewArray(0))
	env.Export(config.OutputObserversName)
	handlers := contentHandlers(env)
	env.Export(config.ContentHandlersName)
	identity := &Builtin{Name: "default_handler", Fn: builtinDefaultHandler}
	for _, ext := range []string{"txt", "htm", "html"} {
		handlers.Put(str(ext), identity)
	}
}

// contentHandlers returns CONTENT_HANDLERS, defining it when missing.
func contentHandlers(env *Environment) *Object {
	if v, ok := env.Get(config.ContentHandlersName); ok {
		if obj, ok := v.(*Object); ok {
			return obj
		}
	}
	obj := env.Arena().NewObject()
	env.Set(config.ContentHandlersName, obj)
	return obj
}

func builtinDefaultHandler(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	s, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	return str(s), nil
}

// NotifyOutput calls every function in OUTPUT_OBSERVERS with the path of
// a file written to the output directory.
func (e *Evaluator) NotifyOutput(env *Environment, path string) error {
	v, ok := env.Get(config.OutputObserversName)
	if !ok {
		return nil
	}
	observers, ok := v.(*Array)
	if !ok {
		return nil
	}
	for _, observer := range observers.Elements {
		if _, err := e.Call(observer, []Value{str(path)}, env); err != nil {
			return err
		}
	}
	return nil
}

// copyOutput copies src to dest when outdated and notifies observers.
func (e *Evaluator) copyOutput(env *Environment, src, dest string) error {
	copied, err := utils.CopyFile(src, dest)
	if err != nil {
		return err
	}
	if copied {
		return e.NotifyOutput(env, dest)
	}
	return nil
}

type PageKind int

const (
	PageCopy PageKind = iota
	PageTemplate
)

// Page is one decoded SITE_MAP entry. Src and Dest are absolute.
type Page struct {
	Kind    PageKind
	Src     string
	Dest    string
	WebPath string
	Data    *Object
}

func siteMap(env *Environment) (*Array, error) {
	v, ok := env.Get(config.SiteMapName)
	arr, isArr := v.(*Array)
	if !ok || !isArr {
		return nil, newError(diagnostics.ErrR001, "%s is missing or not an array", config.SiteMapName)
	}
	return arr, nil
}

func encodePage(env *Environment, page Page) *Object {
	obj := env.Arena().NewObject()
	switch page.Kind {
	case PageCopy:
		putField(env, obj, "type", env.Intern("copy"))
		putField(env, obj, "src", str(page.Src))
		putField(env, obj, "dest", str(page.Dest))
	case PageTemplate:
		putField(env, obj, "type", env.Intern("template"))
		putField(env, obj, "src", str(page.Src))
		putField(env, obj, "dest", str(page.Dest))
		putField(env, obj, "web_path", str(page.WebPath))
		if page.Data != nil {
			putField(env, obj, "data", page.Data)
		} else {
			putField(env, obj, "data", NIL)
		}
	}
	return obj
}

// DecodePage reads a SITE_MAP entry. Besides the objects created by
// add_page, paginate and add_static, the short form {path, dest} is
// accepted: path is a template relative to SRC_ROOT, dest a file relative
// to DIST_ROOT, and the whole object seeds the page scope.
func DecodePage(env *Environment, v Value) (*Page, error) {
	obj, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("page must be an object, got %s", TypeName(v))
	}
	dest, ok := stringField(env, obj, "dest")
	if !ok {
		return nil, fmt.Errorf("page has no dest")
	}
	kind, hasKind := field(env, obj, "type")
	if !hasKind {
		path, ok := stringField(env, obj, "path")
		if !ok {
			return nil, fmt.Errorf("page has neither type nor path")
		}
		srcRoot, _ := env.GetString(config.SrcRootName)
		dest = strings.Trim(filepath.ToSlash(dest), "/")
		destFile, err := distPath(env, dest)
		if err != nil {
			return nil, err
		}
		return &Page{
			Kind:    PageTemplate,
			Src:     utils.ResolvePath(srcRoot, path),
			Dest:    destFile,
			WebPath: dest,
			Data:    obj,
		}, nil
	}
	src, ok := stringField(env, obj, "src")
	if !ok {
		return nil, fmt.Errorf("page has no src")
	}
	sym, _ := kind.(*Symbol)
	switch {
	case sym != nil && sym.Name == "copy":
		return &Page{Kind: PageCopy, Src: src, Dest: dest}, nil
	case sym != nil && sym.Name == "template":
		webPath, ok := stringField(env, obj, "web_path")
		if !ok {
			return nil, fmt.Errorf("page has no web_path")
		}
		page := &Page{Kind: PageTemplate, Src: src, Dest: dest, WebPath: webPath}
		if data, ok := field(env, obj, "data"); ok {
			page.Data, _ = data.(*Object)
		}
		return page, nil
	}
	return nil, fmt.Errorf("unknown page type %s", kind.Inspect())
}

// add_static(src) adds every file below src, skipping dotfiles, to be
// copied to the same relative location in the output.
func builtinAddStatic(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	name, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	src, err := srcPath(env, name)
	if err != nil {
		return nil, err
	}
	dest, err := distPath(env, name)
	if err != nil {
		return nil, err
	}
	sm, err := siteMap(env)
	if err != nil {
		return nil, err
	}
	if werr := addStatic(env, sm, src, dest); werr != nil {
		return nil, fmt.Errorf("failed adding static files: %w", werr)
	}
	return NIL, nil
}

func addStatic(env *Environment, sm *Array, src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		sm.Push(encodePage(env, Page{Kind: PageCopy, Src: src, Dest: dest}))
		return nil
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if err := addStatic(env, sm, filepath.Join(src, entry.Name()), filepath.Join(dest, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// add_reverse(src, link) records the link of a source file for the links
// transform.
func builtinAddReverse(e *Evaluator, env *Environment, args []Value) (Value, error) {
	src, link, err := twoStrings(args)
	if err != nil {
		return nil, err
	}
	v, ok := env.Get(config.ReversePathsName)
	paths, isObj := v.(*Object)
	if !ok || !isObj {
		return nil, newError(diagnostics.ErrR001, "%s is missing or not an object", config.ReversePathsName)
	}
	paths.Put(str(src), str(link))
	return NIL, nil
}

// addSiteNode adds a template page written to sitePath.
func addSiteNode(env *Environment, sitePath, template string, data *Object) error {
	sm, err := siteMap(env)
	if err != nil {
		return err
	}
	sitePath = strings.Trim(sitePath, "/")
	src, err := srcPath(env, template)
	if err != nil {
		return err
	}
	dest, err := distPath(env, sitePath)
	if err != nil {
		return err
	}
	if _, lerr := env.Modules().LoadUser(src); lerr != nil {
		return newError(diagnostics.ErrR007, "unable to load template %s", template)
	}
	sm.Push(encodePage(env, Page{Kind: PageTemplate, Src: src, Dest: dest, WebPath: sitePath, Data: data}))
	return nil
}

// add_page(dest, src, data?)
func builtinAddPage(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 2, 3); err != nil {
		return nil, err
	}
	dest, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	src, err := stringArg(args, 1)
	if err != nil {
		return nil, err
	}
	var data *Object
	if len(args) > 2 {
		if data, err = objectArg(args, 2); err != nil {
			return nil, err
		}
	}
	if err := addSiteNode(env, dest, src, data); err != nil {
		return nil, err
	}
	return NIL, nil
}

func newPaginationPage(env *Environment, total, perPage, page, pages, offset int64, template string) (*Object, *Array) {
	obj := env.Arena().NewObject()
	items := env.Arena().NewArray(int(min(perPage, total)))
	putField(env, obj, "items", items)
	putField(env, obj, "total", integer(total))
	putField(env, obj, "page", integer(page))
	putField(env, obj, "pages", integer(pages))
	putField(env, obj, "offset", integer(offset))
	putField(env, obj, "path_template", str(template))
	return obj, items
}

// paginate(items, per_page, path_template, src, data?) splits items into
// pages of per_page items and adds a page for each. %page% in the path
// template is replaced with "" for the first page and "/pageN" otherwise.
func builtinPaginate(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 4, 5); err != nil {
		return nil, err
	}
	items, err := arrayArg(args, 0)
	if err != nil {
		return nil, err
	}
	perPage, err := intArg(args, 1)
	if err != nil {
		return nil, err
	}
	if perPage < 1 {
		return nil, ArgError(1, "items per page must be positive")
	}
	template, err := stringArg(args, 2)
	if err != nil {
		return nil, err
	}
	src, err := stringArg(args, 3)
	if err != nil {
		return nil, err
	}
	var data *Object
	if len(args) > 4 {
		if data, err = objectArg(args, 4); err != nil {
			return nil, err
		}
	}
	total := int64(items.Len())
	pages := int64(1)
	if total > 0 {
		pages = (total-1)/perPage + 1
	}
	for page := int64(1); page <= pages; page++ {
		offset := (page - 1) * perPage
		obj, pageItems := newPaginationPage(env, total, perPage, page, pages, offset, template)
		for i := offset; i < total && i < offset+perPage; i++ {
			pageItems.Push(items.Elements[i])
		}
		pageData := env.Arena().NewObject()
		if data != nil {
			pageData.Entries = append(pageData.Entries, data.Entries...)
		}
		putField(env, pageData, config.PageName, obj)
		path := strings.ReplaceAll(template, "%page%", PageName(page))
		if err := addSiteNode(env, path, src, pageData); err != nil {
			return nil, err
		}
	}
	return NIL, nil
}
