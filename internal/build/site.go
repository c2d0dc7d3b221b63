package build

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nielssp/plet/internal/config"
	"github.com/nielssp/plet/internal/diagnostics"
	"github.com/nielssp/plet/internal/evaluator"
	"github.com/nielssp/plet/internal/modules"
	"github.com/nielssp/plet/internal/utils"
)

// ErrIndex is returned when the index script cannot be loaded or fails.
// The cause has already been reported.
var ErrIndex = errors.New("index script failed")

// Site is a project whose index script has been evaluated. The module map
// and symbol map live as long as the site; the index scope is replaced by
// every Load.
type Site struct {
	Project  *config.Project
	Reporter *diagnostics.Reporter

	modules *modules.ModuleMap
	symbols *evaluator.SymbolMap
	eval    *evaluator.Evaluator
	arena   *evaluator.Arena
	index   *evaluator.Environment
	pages   []*evaluator.Page
}

func NewSite(project *config.Project, reporter *diagnostics.Reporter) *Site {
	mods := modules.NewModuleMap(reporter)
	evaluator.RegisterSystemModules(mods)
	evaluator.ConfigureMarkdown(project.Markdown)
	return &Site{
		Project:  project,
		Reporter: reporter,
		modules:  mods,
		symbols:  evaluator.NewSymbolMap(),
		eval:     evaluator.New(),
	}
}

func (s *Site) Modules() *modules.ModuleMap {
	return s.modules
}

// Pages returns the decoded SITE_MAP of the last Load.
func (s *Site) Pages() []*evaluator.Page {
	return s.pages
}

// Load evaluates the index script and decodes the resulting SITE_MAP.
// Invalid entries are reported and skipped.
func (s *Site) Load(ctx context.Context) error {
	s.Close()
	s.eval.Context = ctx
	indexFile := s.Project.IndexFile()
	mod, err := s.modules.LoadScript(indexFile)
	if err != nil {
		return ErrIndex
	}
	s.arena = evaluator.NewArena()
	env := evaluator.NewUserEnvironment(s.arena, s.modules, s.symbols, s.Reporter, mod.Path)
	for _, name := range []string{"sitemap", "contentmap", "markdown"} {
		evaluator.ImportSystem(name, env)
	}
	s.bindProject(env)
	s.index = env

	s.eval.CurrentFile = mod.Path
	if _, rerr := s.eval.EvalScript(mod.Root, env); rerr != nil {
		s.Reporter.Diagnostic(rerr.Diagnostic())
		return ErrIndex
	}

	v, _ := env.Get(config.SiteMapName)
	siteMap, ok := v.(*evaluator.Array)
	if !ok {
		s.Reporter.Error("%s must be an array, got %s", config.SiteMapName, evaluator.TypeName(v))
		return ErrIndex
	}
	s.pages = s.pages[:0]
	for i, entry := range siteMap.Elements {
		page, err := evaluator.DecodePage(env, entry)
		if err != nil {
			s.Reporter.Error("%s[%d]: %v", config.SiteMapName, i, err)
			continue
		}
		s.pages = append(s.pages, page)
	}
	return nil
}

func (s *Site) bindProject(env *evaluator.Environment) {
	env.Set(config.SrcRootName, &evaluator.String{Value: s.Project.Root})
	env.Export(config.SrcRootName)
	env.Set(config.DistRootName, &evaluator.String{Value: s.Project.DistDir()})
	env.Export(config.DistRootName)
	env.Set(config.RootPathName, &evaluator.String{Value: s.Project.RootPath})
	env.Export(config.RootPathName)
	if s.Project.RootURL != "" {
		env.Set(config.RootURLName, &evaluator.String{Value: s.Project.RootURL})
	} else {
		env.Set(config.RootURLName, evaluator.NIL)
	}
	env.Export(config.RootURLName)
	if s.Project.ImagePreserveLossless {
		env.Set(config.PreserveLosslessName, evaluator.TRUE)
	} else {
		env.Set(config.PreserveLosslessName, evaluator.FALSE)
	}
	env.Export(config.PreserveLosslessName)
}

// Close releases the index scope.
func (s *Site) Close() {
	if s.arena != nil {
		s.arena.Dispose()
		s.arena = nil
	}
	s.index = nil
	s.pages = nil
}

// Lookup finds the page written to webPath, ignoring surrounding slashes
// and index files.
func (s *Site) Lookup(webPath string) *evaluator.Page {
	for _, page := range s.pages {
		if page.Kind == evaluator.PageTemplate && utils.SamePage(page.WebPath, webPath) {
			return page
		}
	}
	dest := filepath.Join(s.Project.DistDir(), filepath.FromSlash(strings.Trim(webPath, "/")))
	for _, page := range s.pages {
		if filepath.Clean(page.Dest) == dest {
			return page
		}
	}
	return nil
}

// Render evaluates a template page in a fresh scope with its own arena.
// The scope receives copies of the names exported by the index, so pages
// cannot affect each other. The arena is disposed before returning.
func (s *Site) Render(page *evaluator.Page) (string, error) {
	if s.index == nil {
		return "", fmt.Errorf("site not loaded")
	}
	if page.Kind != evaluator.PageTemplate {
		return "", fmt.Errorf("%s is not a template page", page.Dest)
	}
	mod, err := s.modules.LoadUser(page.Src)
	if err != nil {
		return "", err
	}
	arena := evaluator.NewArena()
	defer arena.Dispose()
	env := s.pageEnvironment(arena, page.Data)
	env.Set(config.PathName, &evaluator.String{Value: page.WebPath})
	v, rerr := s.eval.EvalTemplate(mod, env)
	if rerr != nil {
		return "", rerr
	}
	return evaluator.Display(v), nil
}

func (s *Site) pageEnvironment(arena *evaluator.Arena, data *evaluator.Object) *evaluator.Environment {
	env := evaluator.NewRootEnvironment(s.index, arena)
	evaluator.InstallTemplateModules(env)
	if data != nil {
		for _, entry := range data.Entries {
			if sym, ok := entry.Key.(*evaluator.Symbol); ok {
				env.SetSymbol(sym, evaluator.CopyValue(entry.Value, arena))
			}
		}
	}
	for _, sym := range s.index.Exports() {
		if v, ok := s.index.GetSymbol(sym); ok {
			env.SetSymbol(sym, evaluator.CopyValue(v, arena))
		}
	}
	return env
}

// Write renders or copies page to its destination and notifies the
// output observers.
func (s *Site) Write(page *evaluator.Page) error {
	switch page.Kind {
	case evaluator.PageCopy:
		copied, err := utils.CopyFile(page.Src, page.Dest)
		if err != nil {
			return err
		}
		if !copied {
			return nil
		}
	case evaluator.PageTemplate:
		out, err := s.Render(page)
		if err != nil {
			return err
		}
		if err := utils.WriteFile(page.Dest, []byte(out)); err != nil {
			return err
		}
	}
	return s.eval.NotifyOutput(s.index, page.Dest)
}

// Build loads the site and writes every page. Failing pages are reported
// and skipped; the number of failures is returned.
func (s *Site) Build(ctx context.Context) (int, error) {
	if err := s.Load(ctx); err != nil {
		return 0, err
	}
	failed := 0
	dist := s.Project.DistDir()
	for i, page := range s.pages {
		if err := ctx.Err(); err != nil {
			return failed, err
		}
		name, _ := filepath.Rel(dist, page.Dest)
		s.Reporter.Progress(i+1, len(s.pages), "Processing %s", filepath.ToSlash(name))
		if err := s.Write(page); err != nil {
			s.Report(err)
			failed++
		}
	}
	return failed, nil
}

// Report prints a page failure. Load errors have already been reported by
// the module map.
func (s *Site) Report(err error) {
	var rerr *evaluator.Error
	var lerr *modules.LoadError
	switch {
	case errors.As(err, &rerr):
		s.Reporter.Diagnostic(rerr.Diagnostic())
	case errors.As(err, &lerr):
	default:
		s.Reporter.Error("%v", err)
	}
}
