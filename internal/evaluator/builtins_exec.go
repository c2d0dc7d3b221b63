package evaluator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/nielssp/plet/internal/config"
)

// ExecBuiltins returns the functions of the exec module
func ExecBuiltins() map[string]*Builtin {
	return map[string]*Builtin{
		"shell_escape": {Name: "shell_escape", Fn: builtinShellEscape},
		"exec":         {Name: "exec", Fn: builtinExec},
	}
}

// ShellEscape quotes a value for use as a single shell word.
func ShellEscape(v Value) string {
	var s string
	switch v := v.(type) {
	case *String:
		s = v.Value
	case *Symbol:
		s = v.Name
	default:
		s = Display(v)
	}
	s = strings.ReplaceAll(s, "\x00", "")
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func builtinShellEscape(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	return str(ShellEscape(args[0])), nil
}

// exec(cmd, args...) runs cmd in the shell with the escaped arguments
// appended and returns its standard output.
func builtinExec(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, -1); err != nil {
		return nil, err
	}
	command, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	sb.WriteString(command)
	for _, arg := range args[1:] {
		sb.WriteByte(' ')
		sb.WriteString(ShellEscape(arg))
	}
	ctx := e.Context
	if ctx == nil {
		ctx = context.Background()
	}
	cmd := exec.CommandContext(ctx, "sh", "-c", sb.String())
	if dir, ok := env.GetString(config.DirName); ok {
		cmd.Dir = dir
	}
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("unable to run %s: %w", command, err)
		}
		file, line, col := e.Position()
		env.Reporter().Warn(file, line, col, fmt.Sprintf("%s: %v", command, err))
	}
	return str(stdout.String()), nil
}
