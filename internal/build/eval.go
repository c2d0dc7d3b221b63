package build

import (
	"context"
	"path/filepath"

	"github.com/nielssp/plet/internal/config"
	"github.com/nielssp/plet/internal/diagnostics"
	"github.com/nielssp/plet/internal/evaluator"
	"github.com/nielssp/plet/internal/modules"
	"github.com/nielssp/plet/internal/pipeline"
)

// Eval evaluates a single file with the directory of the file as project
// root. The result is returned when it is a string. Errors have already
// been reported when Eval returns.
func Eval(ctx context.Context, path string, mode pipeline.Mode, reporter *diagnostics.Reporter) (string, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	site := NewSite(config.DefaultProject(filepath.Dir(path)), reporter)
	site.eval.Context = ctx

	var mod *modules.Module
	var err error
	if mode == pipeline.ModeTemplate {
		mod, err = site.modules.LoadUser(path)
	} else {
		mod, err = site.modules.LoadScript(path)
	}
	if err != nil {
		return "", err
	}

	arena := evaluator.NewArena()
	defer arena.Dispose()
	env := evaluator.NewUserEnvironment(arena, site.modules, site.symbols, reporter, mod.Path)
	for _, name := range []string{"sitemap", "contentmap", "html", "markdown"} {
		evaluator.ImportSystem(name, env)
	}
	site.bindProject(env)
	site.eval.CurrentFile = mod.Path

	var v evaluator.Value
	var rerr *evaluator.Error
	if mode == pipeline.ModeTemplate {
		evaluator.InstallTemplateModules(env)
		env.Set(config.PathName, &evaluator.String{Value: ""})
		v, rerr = site.eval.EvalTemplate(mod, env)
	} else {
		v, rerr = site.eval.EvalScript(mod.Root, env)
	}
	if rerr != nil {
		reporter.Diagnostic(rerr.Diagnostic())
		return "", rerr
	}
	if s, ok := v.(*evaluator.String); ok {
		return s.Value, nil
	}
	return "", nil
}
