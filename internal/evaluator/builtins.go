package evaluator

import (
	"path/filepath"
	"sort"

	"github.com/nielssp/plet/internal/config"
	"github.com/nielssp/plet/internal/diagnostics"
	"github.com/nielssp/plet/internal/modules"
	"github.com/nielssp/plet/internal/utils"
)

// SystemModule installs the bindings of a built-in module into env.
type SystemModule func(env *Environment)

var systemModules map[string]SystemModule

func init() {
	systemModules = map[string]SystemModule{
		"core":        installer(CoreBuiltins, installCoreValues),
		"strings":     installer(StringsBuiltins, nil),
		"collections": installer(CollectionsBuiltins, nil),
		"datetime":    installer(DatetimeBuiltins, nil),
		"html":        installer(HtmlBuiltins, nil),
		"template":    installer(TemplateBuiltins, nil),
		"sitemap":     installer(SitemapBuiltins, installSitemapValues),
		"contentmap":  installer(ContentmapBuiltins, nil),
		"markdown":    installer(MarkdownBuiltins, installMarkdownHandler),
		"images":      installer(ImagesBuiltins, nil),
		"exec":        installer(ExecBuiltins, nil),
		"sql":         installer(SqlBuiltins, nil),
	}
}

func installer(builtins func() map[string]*Builtin, extra func(env *Environment)) SystemModule {
	return func(env *Environment) {
		for name, b := range builtins() {
			env.Set(name, b)
		}
		if extra != nil {
			extra(env)
		}
	}
}

// SystemModuleNames lists the built-in modules in sorted order.
func SystemModuleNames() []string {
	names := make([]string, 0, len(systemModules))
	for name := range systemModules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterSystemModules adds every built-in module to mods.
func RegisterSystemModules(mods *modules.ModuleMap) {
	for _, name := range SystemModuleNames() {
		mods.AddSystem(name)
	}
}

// ImportSystem installs the system module name into env.
func ImportSystem(name string, env *Environment) bool {
	install, ok := systemModules[name]
	if !ok {
		return false
	}
	install(env)
	return true
}

func importAll(env *Environment, names ...string) {
	for _, name := range names {
		ImportSystem(name, env)
	}
}

// NewUserEnvironment creates the root scope of a user module: the general
// purpose system modules plus FILE and DIR.
func NewUserEnvironment(arena *Arena, mods *modules.ModuleMap, symbols *SymbolMap, reporter *diagnostics.Reporter, file string) *Environment {
	env := NewEnvironment(arena, mods, symbols, reporter)
	importAll(env, "core", "strings", "collections", "datetime", "exec")
	bindFile(env, file)
	return env
}

// InstallTemplateModules adds the modules available to page templates.
func InstallTemplateModules(env *Environment) {
	importAll(env, "core", "strings", "collections", "datetime", "contentmap", "template", "html", "images", "markdown")
}

func bindFile(env *Environment, file string) {
	env.Set(config.FileName, &String{Value: file})
	env.Set(config.DirName, &String{Value: filepath.Dir(file)})
}

// EvalTemplate evaluates a user module as a template. When the template
// leaves a string in LAYOUT, its output is bound to CONTENT and the layout,
// resolved relative to the template, is evaluated in the same scope.
func (e *Evaluator) EvalTemplate(mod *modules.Module, env *Environment) (Value, *Error) {
	if mod.Kind != modules.KindUser {
		return NIL, nil
	}
	bindFile(env, mod.Path)
	prev := e.CurrentFile
	e.CurrentFile = mod.Path
	defer func() { e.CurrentFile = prev }()
	content, err := e.Eval(mod.Root, env)
	if err != nil {
		return nil, err
	}
	layout, ok := env.GetString(config.LayoutName)
	if !ok {
		return content, nil
	}
	env.Set(config.ContentName, content)
	env.Set(config.LayoutName, NIL)
	path := utils.ResolvePath(filepath.Dir(mod.Path), layout)
	layoutMod, loadErr := env.Modules().LoadUser(path)
	if loadErr != nil {
		return nil, newError(diagnostics.ErrR007, "unable to load layout %s: %v", layout, loadErr)
	}
	return e.EvalTemplate(layoutMod, env)
}

// inherited bindings are passed from an importing scope to the module.
var inherited = []string{config.SrcRootName, config.DistRootName, config.RootPathName, config.RootURLName}

// ImportModule loads name relative to DIR. System modules are installed
// into env; user modules are evaluated in their own scope and their
// exports copied into env; data modules yield their value and assets
// their path.
func (e *Evaluator) ImportModule(name string, env *Environment) (Value, error) {
	if ImportSystem(name, env) {
		return NIL, nil
	}
	path, err := srcPath(env, name)
	if err != nil {
		return nil, err
	}
	mod, loadErr := env.Modules().Load(path)
	if loadErr != nil {
		return nil, newError(diagnostics.ErrR007, "unable to load module %s", name)
	}
	switch mod.Kind {
	case modules.KindUser:
		return e.importUser(mod, env)
	case modules.KindData:
		root := NewRootEnvironment(env, env.Arena())
		v, rerr := e.Eval(mod.Root, root)
		if rerr != nil {
			return nil, rerr
		}
		return v, nil
	case modules.KindAsset:
		return &String{Value: mod.Path}, nil
	}
	return NIL, nil
}

// importUser evaluates mod in a fresh scope. The module arena is kept
// alive since exported closures still refer to the module scope.
func (e *Evaluator) importUser(mod *modules.Module, env *Environment) (Value, error) {
	arena := NewArena()
	modEnv := NewUserEnvironment(arena, env.Modules(), env.Symbols(), env.Reporter(), mod.Path)
	for _, name := range inherited {
		if v, ok := env.Get(name); ok {
			modEnv.Set(name, CopyValue(v, arena))
		}
	}
	prev := e.CurrentFile
	e.CurrentFile = mod.Path
	r := e.Interpret(mod.Root, modEnv)
	e.CurrentFile = prev
	switch r.Kind {
	case ResultError:
		return nil, r.Err
	case ResultBreak, ResultContinue:
		return nil, newError(diagnostics.ErrR006, "%s outside of loop", r.Kind)
	}
	for _, sym := range modEnv.Exports() {
		if v, ok := modEnv.GetSymbol(sym); ok {
			env.SetSymbol(sym, CopyValue(v, env.Arena()))
		}
	}
	if r.Kind == ResultReturn && r.Value != nil {
		return CopyValue(r.Value, env.Arena()), nil
	}
	return NIL, nil
}

// srcPath resolves name relative to the DIR of env.
func srcPath(env *Environment, name string) (string, error) {
	dir, ok := env.GetString(config.DirName)
	if !ok {
		return "", newError(diagnostics.ErrR001, "missing or invalid %s", config.DirName)
	}
	return utils.ResolvePath(dir, name), nil
}

// distPath resolves name relative to DIST_ROOT.
func distPath(env *Environment, name string) (string, error) {
	root, ok := env.GetString(config.DistRootName)
	if !ok {
		return "", newError(diagnostics.ErrR001, "missing or invalid %s", config.DistRootName)
	}
	path := filepath.Join(root, filepath.FromSlash(name))
	if !utils.IsDescendant(root, path) {
		return "", newError(diagnostics.ErrR004, "path outside of output directory: %s", name)
	}
	return path, nil
}

// siteLink converts a path relative to the output directory to a link
// under ROOT_PATH, or ROOT_URL when absolute.
func siteLink(env *Environment, rel string, absolute bool) string {
	name := config.RootPathName
	if absolute {
		name = config.RootURLName
	}
	root, _ := env.GetString(name)
	return utils.WebPath(rel, root)
}

// rootLink applies ROOT_PATH (or ROOT_URL) to a site path.
func rootLink(env *Environment, path, rootName string) Value {
	path = utils.TrimIndex(path)
	if root, ok := env.GetString(rootName); ok {
		return &String{Value: utils.CombinePaths(root, path)}
	}
	return &String{Value: path}
}

// Argument helpers. Indexes are zero-based.

func checkArgs(args []Value, min, max int) error {
	if len(args) < min || (max >= 0 && len(args) > max) {
		switch {
		case min == max:
			return newError(diagnostics.ErrR005, "expected %d arguments, got %d", min, len(args))
		case max < 0:
			return newError(diagnostics.ErrR005, "expected at least %d arguments, got %d", min, len(args))
		}
		return newError(diagnostics.ErrR005, "expected %d to %d arguments, got %d", min, max, len(args))
	}
	return nil
}

func stringArg(args []Value, i int) (string, error) {
	s, ok := args[i].(*String)
	if !ok {
		return "", ArgError(i, "expected string, got %s", TypeName(args[i]))
	}
	return s.Value, nil
}

func intArg(args []Value, i int) (int64, error) {
	n, ok := args[i].(*Integer)
	if !ok {
		return 0, ArgError(i, "expected int, got %s", TypeName(args[i]))
	}
	return n.Value, nil
}

func arrayArg(args []Value, i int) (*Array, error) {
	a, ok := args[i].(*Array)
	if !ok {
		return nil, ArgError(i, "expected array, got %s", TypeName(args[i]))
	}
	return a, nil
}

func objectArg(args []Value, i int) (*Object, error) {
	o, ok := args[i].(*Object)
	if !ok {
		return nil, ArgError(i, "expected object, got %s", TypeName(args[i]))
	}
	return o, nil
}

// optString returns the string at i, or def when the argument is missing
// or nil.
func optString(args []Value, i int, def string) (string, error) {
	if i >= len(args) || isNil(args[i]) {
		return def, nil
	}
	return stringArg(args, i)
}

func optInt(args []Value, i int, def int64) (int64, error) {
	if i >= len(args) || isNil(args[i]) {
		return def, nil
	}
	return intArg(args, i)
}

// field reads a symbol-keyed property.
func field(env *Environment, obj *Object, name string) (Value, bool) {
	return obj.GetName(env.Intern(name))
}

func stringField(env *Environment, obj *Object, name string) (string, bool) {
	v, ok := field(env, obj, name)
	if !ok {
		return "", false
	}
	s, ok := v.(*String)
	if !ok {
		return "", false
	}
	return s.Value, true
}

func putField(env *Environment, obj *Object, name string, v Value) {
	obj.Put(env.Intern(name), v)
}

func str(s string) *String {
	return &String{Value: s}
}

func integer(n int64) *Integer {
	return &Integer{Value: n}
}
