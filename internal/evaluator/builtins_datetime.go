package evaluator

import (
	"strings"
	"time"

	"github.com/goodsign/monday"
	"github.com/ncruces/go-strftime"
)

// DatetimeBuiltins returns the functions of the datetime module
func DatetimeBuiltins() map[string]*Builtin {
	return map[string]*Builtin{
		"now":     {Name: "now", Fn: builtinNow},
		"time":    {Name: "time", Fn: builtinTime},
		"date":    {Name: "date", Fn: builtinDate},
		"iso8601": {Name: "iso8601", Fn: builtinIso8601},
		"rfc2822": {Name: "rfc2822", Fn: builtinRfc2822},
	}
}

// timeNow is replaced in tests.
var timeNow = time.Now

func builtinNow(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 0, 0); err != nil {
		return nil, err
	}
	return &Time{Value: timeNow().Unix()}, nil
}

func timeArg(args []Value, i int) (time.Time, error) {
	switch v := args[i].(type) {
	case *Time:
		return v.Time(), nil
	case *Integer:
		return time.Unix(v.Value, 0), nil
	case *String:
		return ParseISO8601(v.Value), nil
	}
	return time.Time{}, ArgError(i, "expected time, int or string, got %s", TypeName(args[i]))
}

func builtinTime(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	t, err := timeArg(args, 0)
	if err != nil {
		return nil, err
	}
	return &Time{Value: t.Unix()}, nil
}

// date(t, format, locale?) formats t in local time using strftime
// directives. With a locale, month and day names are translated.
func builtinDate(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 2, 3); err != nil {
		return nil, err
	}
	t, err := timeArg(args, 0)
	if err != nil {
		return nil, err
	}
	format, err := stringArg(args, 1)
	if err != nil {
		return nil, err
	}
	locale, err := optString(args, 2, "")
	if err != nil {
		return nil, err
	}
	t = t.Local()
	if locale == "" {
		return str(strftime.Format(format, t)), nil
	}
	layout, lerr := strftime.Layout(format)
	if lerr != nil {
		return nil, ArgError(1, "unsupported format for localized dates: %v", lerr)
	}
	loc, ok := mondayLocale(locale)
	if !ok {
		return nil, ArgError(2, "unknown locale: %s", locale)
	}
	return str(monday.Format(t, layout, loc)), nil
}

// mondayLocale accepts "da", "da-DK" and "da_DK" style names.
func mondayLocale(name string) (monday.Locale, bool) {
	name = strings.ToLower(strings.ReplaceAll(name, "-", "_"))
	var fallback monday.Locale
	for _, loc := range monday.ListLocales() {
		l := strings.ToLower(string(loc))
		if l == name {
			return loc, true
		}
		if fallback == "" && strings.HasPrefix(l, name+"_") {
			fallback = loc
		}
	}
	return fallback, fallback != ""
}

func builtinIso8601(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	t, err := timeArg(args, 0)
	if err != nil {
		return nil, err
	}
	return str(t.Local().Format(TimeLayout)), nil
}

func builtinRfc2822(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	t, err := timeArg(args, 0)
	if err != nil {
		return nil, err
	}
	return str(t.Local().Format(time.RFC1123Z)), nil
}

type dateScanner struct {
	s string
}

func (d *dateScanner) skip(chars string) bool {
	if d.s != "" && strings.IndexByte(chars, d.s[0]) >= 0 {
		d.s = d.s[1:]
		return true
	}
	return false
}

func (d *dateScanner) digits(maxDigits int) int {
	n := 0
	for maxDigits > 0 && d.s != "" && d.s[0] >= '0' && d.s[0] <= '9' {
		n = n*10 + int(d.s[0]-'0')
		d.s = d.s[1:]
		maxDigits--
	}
	return n
}

// ParseISO8601 leniently parses "YYYY-MM-DD[(T| )hh:mm:ss[.fff][Z|±hh[:mm]]]".
// Missing parts are zero. A time without a zone is local; a date alone is
// UTC midnight.
func ParseISO8601(s string) time.Time {
	d := &dateScanner{s: strings.TrimSpace(s)}
	year := d.digits(4)
	d.skip("-")
	month := d.digits(2)
	d.skip("-")
	day := d.digits(2)
	if !d.skip("T ") {
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	}
	hour := d.digits(2)
	d.skip(":")
	min := d.digits(2)
	d.skip(":")
	sec := d.digits(2)
	if d.skip(".") {
		d.digits(9)
	}
	loc := time.Local
	if d.skip("Z") {
		loc = time.UTC
	} else if d.s != "" && (d.s[0] == '+' || d.s[0] == '-') {
		sign := 1
		if d.s[0] == '-' {
			sign = -1
		}
		d.s = d.s[1:]
		offset := d.digits(2) * 3600
		d.skip(":")
		offset += d.digits(2) * 60
		loc = time.FixedZone("", sign*offset)
	}
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, loc)
}
