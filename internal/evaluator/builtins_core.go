package evaluator

// CoreBuiltins returns the functions of the core module
func CoreBuiltins() map[string]*Builtin {
	return map[string]*Builtin{
		"import":  {Name: "import", Fn: builtinImport},
		"copy":    {Name: "copy", Fn: builtinCopy},
		"type":    {Name: "type", Fn: builtinType},
		"string":  {Name: "string", Fn: builtinString},
		"bool":    {Name: "bool", Fn: builtinBool},
		"error":   {Name: "error", Fn: builtinError},
		"warning": {Name: "warning", Fn: builtinWarning},
		"info":    {Name: "info", Fn: builtinInfo},
	}
}

func installCoreValues(env *Environment) {
	env.Set("nil", NIL)
	env.Set("true", TRUE)
	env.Set("false", FALSE)
}

func builtinImport(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	name, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	return e.ImportModule(name, env)
}

func builtinCopy(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	return CopyValue(args[0], env.Arena()), nil
}

func builtinType(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	return str(TypeName(args[0])), nil
}

func builtinString(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	return str(ToString(args[0])), nil
}

func builtinBool(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	return nativeBoolToBoolean(IsTruthy(args[0])), nil
}

func builtinError(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	msg, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	return nil, UserError(msg)
}

func builtinWarning(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	msg, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	file, line, col := e.Position()
	env.Reporter().Warn(file, line, col, msg)
	return NIL, nil
}

func builtinInfo(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	msg, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	file, line, col := e.Position()
	env.Reporter().Note(file, line, col, msg)
	return NIL, nil
}
