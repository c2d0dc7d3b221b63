package evaluator

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SqlBuiltins returns the functions of the sql module
func SqlBuiltins() map[string]*Builtin {
	return map[string]*Builtin{
		"sql_query": {Name: "sql_query", Fn: builtinSqlQuery},
	}
}

// sql_query(db, query, params...) runs a query against the SQLite database
// file db, relative to DIR, and returns the rows as objects keyed by
// column name.
func builtinSqlQuery(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 2, -1); err != nil {
		return nil, err
	}
	name, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	query, err := stringArg(args, 1)
	if err != nil {
		return nil, err
	}
	params := make([]any, 0, len(args)-2)
	for i, arg := range args[2:] {
		p, err := sqlParam(arg)
		if err != nil {
			return nil, ArgError(i+2, "%v", err)
		}
		params = append(params, p)
	}
	path, err := srcPath(env, name)
	if err != nil {
		return nil, err
	}
	ctx := e.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer db.Close()
	rows, err := db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	keys := make([]Value, len(columns))
	for i, c := range columns {
		keys[i] = env.Intern(c)
	}
	result := env.Arena().NewArray(0)
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := env.Arena().NewObject()
		for i, v := range values {
			row.Put(keys[i], sqlValue(v))
		}
		result.Push(row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func sqlParam(v Value) (any, error) {
	switch v := v.(type) {
	case *Nil:
		return nil, nil
	case *Boolean:
		return v.Value, nil
	case *Integer:
		return v.Value, nil
	case *Float:
		return v.Value, nil
	case *String:
		return v.Value, nil
	case *Symbol:
		return v.Name, nil
	case *Time:
		return v.Value, nil
	}
	return nil, fmt.Errorf("unsupported parameter type %s", TypeName(v))
}

func sqlValue(v any) Value {
	switch v := v.(type) {
	case nil:
		return NIL
	case int64:
		return integer(v)
	case float64:
		return &Float{Value: v}
	case bool:
		return nativeBoolToBoolean(v)
	case []byte:
		return str(string(v))
	case string:
		return str(v)
	case time.Time:
		return &Time{Value: v.Unix()}
	}
	return str(fmt.Sprint(v))
}
