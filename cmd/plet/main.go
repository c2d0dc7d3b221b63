package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/nielssp/plet/internal/build"
	"github.com/nielssp/plet/internal/config"
	"github.com/nielssp/plet/internal/diagnostics"
	"github.com/nielssp/plet/internal/lipsum"
	"github.com/nielssp/plet/internal/modules"
	"github.com/nielssp/plet/internal/pipeline"
	"github.com/nielssp/plet/internal/prettyprinter"
	"github.com/nielssp/plet/internal/server"
	"github.com/nielssp/plet/internal/watcher"
)

// globalArgs are the parsed command line.
type globalArgs struct {
	programName string
	command     string
	args        []string
	template    bool
	ast         bool
	port        string
	help        bool
	version     bool
}

type cli struct {
	stdout   io.Writer
	reporter *diagnostics.Reporter
	// dir is the working directory commands resolve paths against.
	dir string
}

var errUsage = errors.New("usage")

// parseArgs accepts options anywhere before the command arguments, in
// short (-p 80, -p80) and long (--port 80, --port=80) form.
func parseArgs(argv []string) (*globalArgs, error) {
	g := &globalArgs{programName: filepath.Base(argv[0])}
	rest := argv[1:]
	for i := 0; i < len(rest); i++ {
		arg := rest[i]
		if arg == "--" {
			g.args = append(g.args, rest[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			if g.command == "" {
				g.command = arg
			} else {
				g.args = append(g.args, arg)
			}
			continue
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		long := strings.HasPrefix(arg, "--")
		if !long && len(name) > 1 {
			name, value, hasValue = name[:1], name[1:], true
		}
		switch name {
		case "h", "help":
			g.help = true
		case "v", "version":
			g.version = true
		case "t", "template":
			g.template = true
		case "a", "ast":
			g.ast = true
		case "p", "port":
			if !hasValue {
				if i+1 >= len(rest) {
					return nil, fmt.Errorf("option %s requires an argument", arg)
				}
				i++
				value = rest[i]
			}
			g.port = value
		default:
			return nil, fmt.Errorf("unrecognized option: %s", arg)
		}
	}
	return g, nil
}

func describeOption(w io.Writer, short, long, description string) {
	fmt.Fprintf(w, "  -%-14s --%-18s %s\n", short, long, description)
}

func printHelp(w io.Writer, programName string) {
	fmt.Fprintf(w, "usage: %s [options] <command> [<args>]\n", programName)
	fmt.Fprintln(w, "options:")
	describeOption(w, "h", "help", "Show help.")
	describeOption(w, "v", "version", "Show version information.")
	describeOption(w, "t", "template", "Parse file as a template.")
	describeOption(w, "a", "ast", "Print the syntax tree instead of evaluating.")
	describeOption(w, "p", "port", "Port for built-in web server.")
	fmt.Fprintln(w, "commands:")
	fmt.Fprintln(w, "  build             Build site from index.plet")
	fmt.Fprintln(w, "  watch             Build site from index.plet and watch for changes")
	fmt.Fprintln(w, "  serve             Serve site (for development/testing purposes)")
	fmt.Fprintln(w, "  eval <file>       Evaluate a single source file")
	fmt.Fprintln(w, "  init              Create a new site in the current directory")
	fmt.Fprintln(w, "  clean             Remove generated files")
	fmt.Fprintln(w, "  lipsum [<dir>]    Generate random markdown content")
}

func run(ctx context.Context, argv []string, c *cli) int {
	g, err := parseArgs(argv)
	if err != nil {
		c.reporter.Error("%v", err)
		return 1
	}
	if g.help {
		printHelp(c.stdout, g.programName)
		return 0
	}
	if g.version {
		fmt.Fprintf(c.stdout, "Plet %s\n", config.Version)
		return 0
	}
	if g.command == "" {
		printHelp(c.stdout, g.programName)
		return 1
	}

	var cmdErr error
	switch g.command {
	case "build":
		cmdErr = c.handleBuild(ctx)
	case "watch":
		cmdErr = c.handleWatch(ctx)
	case "serve":
		cmdErr = c.handleServe(ctx, g)
	case "eval":
		cmdErr = c.handleEval(ctx, g)
	case "init":
		cmdErr = c.handleInit()
	case "clean":
		cmdErr = c.handleClean()
	case "lipsum":
		cmdErr = c.handleLipsum(g)
	default:
		c.reporter.Error("unrecognized command: %s", g.command)
		return 1
	}
	if cmdErr == nil {
		return 0
	}
	if errors.Is(cmdErr, errUsage) {
		fmt.Fprintf(c.stdout, "usage: %s %s\n", g.programName, strings.TrimPrefix(cmdErr.Error(), errUsage.Error()+": "))
	} else if !errors.Is(cmdErr, errReported) {
		c.reporter.Error("%v", cmdErr)
	}
	return 1
}

// errReported marks failures whose details have already been printed.
var errReported = errors.New("failed")

func (c *cli) loadProject() (*config.Project, error) {
	root, err := config.FindProjectRoot(c.dir)
	if err != nil {
		return nil, err
	}
	return config.LoadProject(root)
}

func (c *cli) buildSite(ctx context.Context, site *build.Site) error {
	failed, err := site.Build(ctx)
	if err != nil {
		if errors.Is(err, build.ErrIndex) {
			return errReported
		}
		return err
	}
	if failed > 0 {
		c.reporter.Error("%d of %d pages failed", failed, len(site.Pages()))
		return errReported
	}
	if n := c.reporter.Warnings(); n > 0 {
		c.reporter.Success("Built %d pages with %d warnings", len(site.Pages()), n)
	} else {
		c.reporter.Success("Built %d pages", len(site.Pages()))
	}
	return nil
}

func (c *cli) handleBuild(ctx context.Context) error {
	project, err := c.loadProject()
	if err != nil {
		return err
	}
	return c.buildSite(ctx, build.NewSite(project, c.reporter))
}

func (c *cli) handleWatch(ctx context.Context) error {
	project, err := c.loadProject()
	if err != nil {
		return err
	}
	site := build.NewSite(project, c.reporter)
	// A failed build does not stop watching.
	rebuild := func() {
		if err := c.buildSite(ctx, site); err != nil && !errors.Is(err, errReported) {
			c.reporter.Error("%v", err)
		}
	}
	rebuild()

	w := watcher.New(project.Root, c.reporter, filepath.Base(project.DistDir()))
	c.reporter.Info("watching %s for changes", project.Root)
	return w.Run(ctx, func(structural bool) {
		if !structural && !site.Modules().DetectChanges() {
			return
		}
		c.reporter.Info("changes detected, rebuilding")
		rebuild()
	})
}

func (c *cli) handleServe(ctx context.Context, g *globalArgs) error {
	project, err := c.loadProject()
	if err != nil {
		return err
	}
	if g.port != "" {
		project.Port = g.port
	}
	srv := server.New(build.NewSite(project, c.reporter))
	return srv.ListenAndServe(ctx, ":"+project.Port)
}

func (c *cli) handleEval(ctx context.Context, g *globalArgs) error {
	if len(g.args) < 1 {
		return fmt.Errorf("%w: eval <file>", errUsage)
	}
	path := g.args[0]
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.dir, path)
	}
	mode := pipeline.ModeScript
	if g.template {
		mode = pipeline.ModeTemplate
	}

	if g.ast {
		source, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		result := modules.Parse(string(source), path, mode)
		if len(result.Errors) > 0 {
			c.reporter.Report(result.Errors)
			return errReported
		}
		fmt.Fprintln(c.stdout, prettyprinter.Print(result.AstRoot))
		return nil
	}

	out, err := build.Eval(ctx, path, mode, c.reporter)
	if err != nil {
		return errReported
	}
	io.WriteString(c.stdout, out)
	return nil
}

func (c *cli) handleInit() error {
	path, err := build.Init(c.dir)
	if err != nil {
		return err
	}
	c.reporter.Success("Created %s", path)
	return nil
}

func (c *cli) handleClean() error {
	project, err := c.loadProject()
	if err != nil {
		return err
	}
	return build.Clean(project)
}

func (c *cli) handleLipsum(g *globalArgs) error {
	gen := lipsum.New()
	if len(g.args) == 0 {
		_, err := gen.Post(c.stdout)
		return err
	}
	dir := g.args[0]
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(c.dir, dir)
	}
	path, err := gen.WriteFile(dir)
	if err != nil {
		return err
	}
	c.reporter.Success("Created %s", path)
	return nil
}

func main() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, &cli{stdout: os.Stdout, reporter: diagnostics.Stderr(), dir: dir})
	stop()
	os.Exit(code)
}
